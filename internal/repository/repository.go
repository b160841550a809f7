package repository

import (
	"context"
	"time"

	model "auction-platform/internal/models"
)

//go:generate mockgen -destination=mock_repository.go -package=repository auction-platform/internal/repository AuctionDB

// UserDB defines account storage
type UserDB interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, userID string) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
}

// ListingDB defines auction listing storage used outside the bidding core
type ListingDB interface {
	CreateAuction(ctx context.Context, auction model.Auction) error
	UpdateAuction(ctx context.Context, auction model.Auction) (model.Auction, error)
	DeleteAuction(ctx context.Context, auctionID string) error
	ListActiveAuctions(ctx context.Context, now time.Time) ([]model.Auction, error)
	ListAuctionsBySeller(ctx context.Context, sellerID string) ([]model.Auction, error)
}

// AuctionDB defines the storage operations the bid ledger and lifecycle manager depend on
type AuctionDB interface {
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	GetUser(ctx context.Context, userID string) (model.User, error)

	// GetBidsForAuction returns the auction's bids ordered by model.RankBids.
	GetBidsForAuction(ctx context.Context, auctionID string) ([]model.Bid, error)
	GetBidForUserAndAuction(ctx context.Context, userID, auctionID string) (model.Bid, error)
	GetBidsByUser(ctx context.Context, userID string) ([]model.Bid, error)

	// CommitLeadingBid upserts bid as the auction's leader and marks every other
	// bid on the auction non-leading in one unit of work. It fails with
	// ErrConflict when the auction's version no longer equals expectedVersion.
	CommitLeadingBid(ctx context.Context, expectedVersion int64, bid model.Bid) (model.Bid, error)

	// ResolveAuction writes every bid outcome in res and marks the auction
	// resolved in one unit of work.
	ResolveAuction(ctx context.Context, res model.Resolution) error
	ListUnresolvedExpired(ctx context.Context, now time.Time) ([]model.Auction, error)
}

// Store is the full persistence surface of the platform
type Store interface {
	UserDB
	ListingDB
	AuctionDB
}
