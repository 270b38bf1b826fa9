package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const (
	FlagURL   = "url"
	FlagToken = "token"
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Request Ledger CLI",
}

func Execute() {
	rootCmd.PersistentFlags().String(FlagURL,
		envOr("LEDGERCTL_URL", "http://localhost:8080"), "ledgerd base URL")
	rootCmd.PersistentFlags().String(FlagToken,
		os.Getenv("LEDGERCTL_TOKEN"), "bearer token")

	rootCmd.AddCommand(cmdRequestMint)
	rootCmd.AddCommand(cmdRequestBurn)
	rootCmd.AddCommand(cmdCancel)
	rootCmd.AddCommand(cmdComplete)
	rootCmd.AddCommand(cmdGet)
	rootCmd.AddCommand(cmdConfig)
	rootCmd.AddCommand(cmdEvents)
	rootCmd.AddCommand(cmdPause)
	rootCmd.AddCommand(cmdUnpause)
	rootCmd.AddCommand(cmdToken)
	rootCmd.AddCommand(cmdTreasury)
	rootCmd.AddCommand(cmdWhitelist)
	rootCmd.AddCommand(cmdIssueToken)

	rootCmd.Execute()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); len(v) > 0 {
		return v
	}
	return fallback
}
