package cmd

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdRequestMint = &cobra.Command{
	Use:   "request-mint [token] [amount] [minExpected]",
	Short: "Deposit an input token and request a claim token mint",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) != 3 {
			return errors.New("Incorrect argument count")
		}

		amount, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return errors.Wrap(err, "Invalid amount")
		}
		minExpected, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return errors.Wrap(err, "Invalid minExpected")
		}

		return call(c, http.MethodPost, "/v1/mint/requests", map[string]interface{}{
			"token":        args[0],
			"amount":       amount,
			"min_expected": minExpected,
		})
	},
}

var cmdRequestBurn = &cobra.Command{
	Use:   "request-burn [amount] [payoutToken] [minExpected]",
	Short: "Deposit claim tokens and request a burn for a payout",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) != 3 {
			return errors.New("Incorrect argument count")
		}

		amount, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return errors.Wrap(err, "Invalid amount")
		}
		minExpected, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return errors.Wrap(err, "Invalid minExpected")
		}

		return call(c, http.MethodPost, "/v1/burn/requests", map[string]interface{}{
			"amount":       amount,
			"token":        args[1],
			"min_expected": minExpected,
		})
	},
}
