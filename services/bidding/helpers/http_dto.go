package helpers

import (
	"time"

	model "auction-platform/internal/models"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type BidResponse struct {
	BidID     string        `json:"bid_id"`
	AuctionID string        `json:"auction_id"`
	UserID    string        `json:"user_id"`
	Amount    float64       `json:"amount"`
	IsLeading bool          `json:"is_leading"`
	Outcome   model.Outcome `json:"outcome"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
}

type PlaceBidResponse struct {
	Bid             BidResponse `json:"bid"`
	CurrentHighest  float64     `json:"current_highest"`
	PreviousHighest float64     `json:"previous_highest"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role" binding:"required,oneof=buyer seller admin"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type AuctionRequest struct {
	Name         string    `json:"name" binding:"required"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url" binding:"required"`
	StartPrice   float64   `json:"start_price" binding:"required,gt=0"`
	ReservePrice float64   `json:"reserve_price" binding:"required,gt=0"`
	ExpiresAt    time.Time `json:"expires_at" binding:"required"`
}

// NewBidResponse converts a bid to its wire form
func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:     bid.BidID,
		AuctionID: bid.AuctionID,
		UserID:    bid.UserID,
		Amount:    bid.Amount,
		IsLeading: bid.IsLeading,
		Outcome:   bid.Outcome,
		CreatedAt: bid.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: bid.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// NewBidResponses converts bids, never returning nil
func NewBidResponses(bids []model.Bid) []BidResponse {
	resp := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, NewBidResponse(b))
	}
	return resp
}
