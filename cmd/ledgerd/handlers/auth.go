package handlers

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const callerKey = "caller"

// Authenticator verifies bearer tokens and resolves the caller account. The
// token's subject is the caller's address; role checks stay with the policy,
// the token only establishes who is calling.
type Authenticator struct {
	Secret []byte
	Issuer string
}

// Middleware rejects requests without a valid bearer token and stores the
// caller address on the request context.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": "missing bearer token"})
			return
		}

		claims := jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "),
			&claims,
			func(t *jwt.Token) (interface{}, error) { return a.Secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(a.Issuer))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": "invalid token"})
			return
		}

		if !common.IsHexAddress(claims.Subject) {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": "invalid subject address"})
			return
		}

		c.Set(callerKey, common.HexToAddress(claims.Subject))
		c.Next()
	}
}

// IssueToken mints a bearer token for an account. Used by the CLI and by
// tests; production deployments provision tokens out of band.
func (a *Authenticator) IssueToken(account common.Address) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:  a.Issuer,
		Subject: account.Hex(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
}

func caller(c *gin.Context) common.Address {
	return c.MustGet(callerKey).(common.Address)
}
