// Package handlers exposes the ledger over HTTP. Handlers stay thin: they
// bind and validate the payload, call the ledger and translate domain errors
// into statuses. All custody rules live in the domain packages.
package handlers

import (
	"github.com/claimtoken/ledger/cmd/ledgerd/bootstrap"
	"github.com/claimtoken/ledger/internal/platform/db"
	"github.com/claimtoken/ledger/internal/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NewRouter assembles the API around a deployment.
func NewRouter(auth *Authenticator, deployment *bootstrap.Deployment,
	masterDB *db.DB) *gin.Engine {

	router := gin.New()
	router.Use(gin.Recovery(), requestContext())

	mint := &Mint{Ledger: deployment.Ledger}
	burn := &Burn{Ledger: deployment.Ledger}
	admin := &Admin{Ledger: deployment.Ledger, Whitelist: deployment.Whitelist}
	query := &Query{Ledger: deployment.Ledger, DB: masterDB}

	router.GET("/health", query.Health)

	v1 := router.Group("/v1", auth.Middleware())
	{
		v1.GET("/config", query.Config)
		v1.GET("/events", query.Events)

		mintGroup := v1.Group("/mint/requests")
		{
			mintGroup.POST("", mint.Create)
			mintGroup.GET("/:id", mint.Get)
			mintGroup.POST("/:id/cancel", mint.Cancel)
			mintGroup.POST("/:id/complete", mint.Complete)
		}

		burnGroup := v1.Group("/burn/requests")
		{
			burnGroup.POST("", burn.Create)
			burnGroup.GET("/:id", burn.Get)
			burnGroup.POST("/:id/cancel", burn.Cancel)
			burnGroup.POST("/:id/complete", burn.Complete)
		}

		adminGroup := v1.Group("/admin")
		{
			adminGroup.PUT("/treasury", admin.SetTreasury)
			adminGroup.PUT("/whitelist", admin.SetWhitelist)
			adminGroup.PUT("/whitelist/enabled", admin.SetWhitelistEnabled)
			adminGroup.POST("/whitelist/accounts", admin.AddProvider)
			adminGroup.DELETE("/whitelist/accounts", admin.RemoveProvider)
			adminGroup.POST("/whitelist/transfer-ownership", admin.TransferOwnership)
			adminGroup.POST("/whitelist/accept-ownership", admin.AcceptOwnership)
			adminGroup.POST("/tokens", admin.AddToken)
			adminGroup.DELETE("/tokens", admin.RemoveToken)
			adminGroup.POST("/pause", admin.Pause)
			adminGroup.POST("/unpause", admin.Unpause)
			adminGroup.POST("/emergency-withdraw", admin.EmergencyWithdraw)
		}
	}

	return router
}

// requestContext attaches a request-scoped logger keyed by a fresh request
// id, so domain log lines correlate back to the HTTP call.
func requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logger.ContextWithRequestID(c.Request.Context(), uuid.New().String())
		ctx = logger.ContextWithOperation(ctx, c.FullPath())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
