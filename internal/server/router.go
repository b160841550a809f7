package server

import (
	handler "auction-platform/services/bidding/handler"

	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer calls into
type Services struct {
	Bidding  handler.BiddingServiceInterface
	Listings handler.ListingServiceInterface
	Accounts handler.AccountServiceInterface
	Tokens   TokenParser
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(svc Services) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	biddingHandler := handler.NewBiddingHandler(svc.Bidding)
	auctionHandler := handler.NewAuctionHandler(svc.Listings)
	accountHandler := handler.NewAccountHandler(svc.Accounts)
	requireAuth := AuthMiddleware(svc.Tokens)

	router.POST("/register", accountHandler.RegisterHandler)
	router.POST("/login", accountHandler.LoginHandler)
	router.GET("/profile", requireAuth, accountHandler.ProfileHandler)

	auctions := router.Group("/auctions")
	{
		auctions.GET("", auctionHandler.ListAuctionsHandler)
		auctions.POST("", requireAuth, auctionHandler.CreateAuctionHandler)
	}

	auction := router.Group("/auction/:auction_id")
	{
		auction.GET("", auctionHandler.GetAuctionHandler)
		auction.PUT("", requireAuth, auctionHandler.UpdateAuctionHandler)
		auction.DELETE("", requireAuth, auctionHandler.DeleteAuctionHandler)
		auction.POST("/bid", requireAuth, biddingHandler.PlaceBidHandler)
		auction.GET("/bids", biddingHandler.GetBidsByAuctionHandler)
		auction.GET("/leading", biddingHandler.GetLeadingBidHandler)
	}

	users := router.Group("/users")
	{
		users.GET("/:user_id/bids", biddingHandler.GetBidsByUserHandler)
	}

	return router
}
