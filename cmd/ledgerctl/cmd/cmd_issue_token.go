package cmd

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// issue-token signs a bearer token locally with the daemon's shared secret,
// read from LEDGER_AUTH_SECRET. Useful for development and operations.
var cmdIssueToken = &cobra.Command{
	Use:   "issue-token [address]",
	Short: "Sign a bearer token for an account",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("Incorrect argument count")
		}
		if !common.IsHexAddress(args[0]) {
			return errors.Errorf("Invalid address : %s", args[0])
		}

		secret := os.Getenv("LEDGER_AUTH_SECRET")
		if len(secret) == 0 {
			return errors.New("LEDGER_AUTH_SECRET is not set")
		}
		issuer := os.Getenv("LEDGER_AUTH_ISSUER")
		if len(issuer) == 0 {
			issuer = "ledgerd"
		}

		claims := jwt.RegisteredClaims{
			Issuer:  issuer,
			Subject: common.HexToAddress(args[0]).Hex(),
		}

		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
			claims).SignedString([]byte(secret))
		if err != nil {
			return errors.Wrap(err, "Failed to sign token")
		}

		fmt.Println(signed)
		return nil
	},
}
