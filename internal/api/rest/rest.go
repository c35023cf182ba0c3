package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/sudigital-labs/token-engine/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Contract and supply reads (public)
		v1.GET("/token", handler.GetTokenInfo)
		v1.GET("/token/claim-condition", handler.GetClaimCondition)

		// Account reads (public)
		v1.GET("/accounts/:address/balance", handler.GetBalance)
		v1.GET("/accounts/:address/allowance", handler.GetAllowance)
		v1.GET("/accounts/:address/votes", handler.GetVotes)
		v1.GET("/accounts/:address/delegate", handler.GetDelegate)
		v1.GET("/accounts/:address/checkpoints", handler.GetCheckpoints)
		v1.GET("/accounts/:address/claimed", handler.GetClaimed)

		// Role reads (public)
		v1.GET("/roles/:role/members", handler.GetRoleMembers)

		// Mutating operations (requires authentication)
		auth := v1.Group("", middleware.Auth(authCfg))
		{
			auth.POST("/token/mint", handler.Mint)
			auth.POST("/token/burn", handler.Burn)
			auth.POST("/token/transfer", handler.Transfer)
			auth.POST("/token/approve", handler.Approve)
			auth.POST("/token/delegate", handler.Delegate)
			auth.POST("/token/claim", handler.Claim)
			auth.POST("/token/mint-with-signature", handler.MintWithSignature)
			auth.POST("/token/multicall", handler.Multicall)

			auth.PUT("/token/claim-condition", handler.SetClaimCondition)
			auth.PUT("/token/owner", handler.SetOwner)
			auth.PUT("/token/primary-sale-recipient", handler.SetPrimarySaleRecipient)
			auth.PUT("/token/contract-uri", handler.SetContractURI)

			auth.POST("/roles/grant", handler.GrantRole)
			auth.POST("/roles/revoke", handler.RevokeRole)
		}
	}
}
