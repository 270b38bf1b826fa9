package cmd

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdConfig = &cobra.Command{
	Use:   "config",
	Short: "Show the ledger's current configuration",
	RunE: func(c *cobra.Command, args []string) error {
		return call(c, http.MethodGet, "/v1/config", nil)
	},
}

var cmdEvents = &cobra.Command{
	Use:   "events",
	Short: "Show the event journal",
	RunE: func(c *cobra.Command, args []string) error {
		return call(c, http.MethodGet, "/v1/events", nil)
	},
}

var cmdPause = &cobra.Command{
	Use:   "pause",
	Short: "Gate provider-facing request creation (admin role)",
	RunE: func(c *cobra.Command, args []string) error {
		return call(c, http.MethodPost, "/v1/admin/pause", nil)
	},
}

var cmdUnpause = &cobra.Command{
	Use:   "unpause",
	Short: "Release the pause switch (admin role)",
	RunE: func(c *cobra.Command, args []string) error {
		return call(c, http.MethodPost, "/v1/admin/unpause", nil)
	},
}

var cmdTreasury = &cobra.Command{
	Use:   "treasury [address]",
	Short: "Replace the settlement treasury (admin role)",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("Incorrect argument count")
		}
		return call(c, http.MethodPut, "/v1/admin/treasury",
			map[string]string{"address": args[0]})
	},
}

var cmdToken = &cobra.Command{
	Use:   "token [add|remove] [address]",
	Short: "Manage the allowed input tokens (admin role)",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) != 2 {
			return errors.New("Incorrect argument count")
		}

		body := map[string]string{"address": args[1]}
		switch args[0] {
		case "add":
			return call(c, http.MethodPost, "/v1/admin/tokens", body)
		case "remove":
			return call(c, http.MethodDelete, "/v1/admin/tokens", body)
		}
		return errors.Errorf("Unknown token action : %s", args[0])
	},
}

var cmdWhitelist = &cobra.Command{
	Use:   "whitelist [enable|disable|add|remove|set] [address]",
	Short: "Manage provider allowlisting (admin / list owner)",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("Incorrect argument count")
		}

		switch strings.ToLower(args[0]) {
		case "enable", "disable":
			return call(c, http.MethodPut, "/v1/admin/whitelist/enabled",
				map[string]bool{"enabled": args[0] == "enable"})
		case "add", "remove":
			if len(args) != 2 {
				return errors.New("Incorrect argument count")
			}
			method := http.MethodPost
			if args[0] == "remove" {
				method = http.MethodDelete
			}
			return call(c, method, "/v1/admin/whitelist/accounts",
				map[string]string{"address": args[1]})
		case "set":
			if len(args) != 2 {
				return errors.New("Incorrect argument count")
			}
			return call(c, http.MethodPut, "/v1/admin/whitelist",
				map[string]string{"address": args[1]})
		}
		return errors.Errorf("Unknown whitelist action : %s", args[0])
	},
}
