package main

import (
	"github.com/claimtoken/ledger/cmd/ledgerctl/cmd"
)

// Request Ledger CLI
func main() {
	cmd.Execute()
}
