package cmd

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func parseAmount(s string) (uint64, error) {
	amount, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "Invalid amount")
	}
	return amount, nil
}

func kindPath(kind string) (string, error) {
	switch kind {
	case "mint", "burn":
		return "/v1/" + kind + "/requests", nil
	}
	return "", errors.Errorf("Unknown request kind : %s", kind)
}

var cmdCancel = &cobra.Command{
	Use:   "cancel [mint|burn] [id]",
	Short: "Cancel a request and reclaim its escrow",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) != 2 {
			return errors.New("Incorrect argument count")
		}

		base, err := kindPath(args[0])
		if err != nil {
			return err
		}

		return call(c, http.MethodPost, fmt.Sprintf("%s/%s/cancel", base, args[1]), nil)
	},
}

var cmdComplete = &cobra.Command{
	Use:   "complete [mint|burn] [id] [amount] [idempotencyKey]",
	Short: "Settle a request with the given amount (service role)",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) != 4 {
			return errors.New("Incorrect argument count")
		}

		base, err := kindPath(args[0])
		if err != nil {
			return err
		}

		amount, err := parseAmount(args[2])
		if err != nil {
			return err
		}

		return call(c, http.MethodPost, fmt.Sprintf("%s/%s/complete", base, args[1]),
			map[string]interface{}{
				"idempotency_key": args[3],
				"amount":          amount,
			})
	},
}

var cmdGet = &cobra.Command{
	Use:   "get [mint|burn] [id]",
	Short: "Show a single request",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) != 2 {
			return errors.New("Incorrect argument count")
		}

		base, err := kindPath(args[0])
		if err != nil {
			return err
		}

		return call(c, http.MethodGet, fmt.Sprintf("%s/%s", base, args[1]), nil)
	},
}
