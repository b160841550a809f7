package handler

import (
	"context"
	"errors"
	"net/http"

	"auction-platform/internal/listing"
	model "auction-platform/internal/models"
	"auction-platform/services/bidding/helpers"
	"auction-platform/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -destination=mock_listing_service.go -package=handler auction-platform/services/bidding/handler ListingServiceInterface

type ListingServiceInterface interface {
	CreateAuction(ctx context.Context, sellerID string, in listing.AuctionInput) (model.Auction, error)
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	ListActiveAuctions(ctx context.Context) ([]model.Auction, error)
	ListAuctionsBySeller(ctx context.Context, sellerID string) ([]model.Auction, error)
	UpdateAuction(ctx context.Context, actor listing.Actor, auctionID string, in listing.AuctionInput) (model.Auction, error)
	DeleteAuction(ctx context.Context, actor listing.Actor, auctionID string) error
}

type AuctionHandler struct {
	service ListingServiceInterface
}

func NewAuctionHandler(service ListingServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

func toAuctionInput(req helpers.AuctionRequest) listing.AuctionInput {
	return listing.AuctionInput{
		Name:         req.Name,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		StartPrice:   req.StartPrice,
		ReservePrice: req.ReservePrice,
		ExpiresAt:    req.ExpiresAt,
	}
}

// currentActor resolves the caller or writes a 401
func currentActor(c *gin.Context) (listing.Actor, bool) {
	userID, role, ok := helpers.CurrentUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, errors.New("authentication required"), "authentication required")
		return listing.Actor{}, false
	}
	return listing.Actor{UserID: userID, Role: role}, true
}

// ListAuctionsHandler handles GET /auctions, optionally filtered by ?seller_id=
func (h *AuctionHandler) ListAuctionsHandler(c *gin.Context) {
	var (
		auctions []model.Auction
		err      error
	)
	sellerID := c.Query("seller_id")
	if sellerID != "" {
		auctions, err = h.service.ListAuctionsBySeller(c.Request.Context(), sellerID)
	} else {
		auctions, err = h.service.ListActiveAuctions(c.Request.Context())
	}
	if err != nil {
		helpers.RespondError(c, "ListAuctionsHandler", err, map[string]any{"seller_id": sellerID})
		return
	}

	if auctions == nil {
		auctions = []model.Auction{}
	}

	utils.JSONResponse(c, http.StatusOK, auctions, "auctions retrieved successfully")
	helpers.LogSuccess("ListAuctionsHandler", "auctions retrieved successfully", map[string]any{
		"seller_id": sellerID,
		"count":     len(auctions),
	})
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req helpers.AuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	auction, err := h.service.CreateAuction(c.Request.Context(), actor.UserID, toAuctionInput(req))
	if err != nil {
		helpers.RespondError(c, "CreateAuctionHandler", err, map[string]any{"seller_id": actor.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, auction, "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": auction.AuctionID,
		"seller_id":  actor.UserID,
	})
}

// GetAuctionHandler handles GET /auction/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, err := h.service.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "GetAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, auction, "auction retrieved successfully")
}

// UpdateAuctionHandler handles PUT /auction/:auction_id
func (h *AuctionHandler) UpdateAuctionHandler(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req helpers.AuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateAuctionHandler", err)
		return
	}

	auctionID := c.Param("auction_id")
	auction, err := h.service.UpdateAuction(c.Request.Context(), actor, auctionID, toAuctionInput(req))
	if err != nil {
		helpers.RespondError(c, "UpdateAuctionHandler", err, map[string]any{
			"auction_id": auctionID,
			"user_id":    actor.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, auction, "auction updated successfully")
	helpers.LogSuccess("UpdateAuctionHandler", "auction updated successfully", map[string]any{
		"auction_id": auctionID,
		"version":    auction.Version,
	})
}

// DeleteAuctionHandler handles DELETE /auction/:auction_id
func (h *AuctionHandler) DeleteAuctionHandler(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	auctionID := c.Param("auction_id")
	if err := h.service.DeleteAuction(c.Request.Context(), actor, auctionID); err != nil {
		helpers.RespondError(c, "DeleteAuctionHandler", err, map[string]any{
			"auction_id": auctionID,
			"user_id":    actor.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"auction_id": auctionID}, "auction deleted successfully")
	helpers.LogSuccess("DeleteAuctionHandler", "auction deleted successfully", map[string]any{
		"auction_id": auctionID,
		"user_id":    actor.UserID,
	})
}
