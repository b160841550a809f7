// Package listing manages the auctions sellers put up for bidding.
package listing

import (
	"auction-platform/internal/auctionlock"
	"auction-platform/internal/biddingerrors"
	"auction-platform/internal/models"
	"auction-platform/internal/money"
	"auction-platform/internal/repository"
	"auction-platform/utils"
	"context"
	"fmt"
	"strings"
	"time"

	"code.cloudfoundry.org/clock"
)

// AuctionInput holds the seller-editable fields of an auction
type AuctionInput struct {
	Name         string
	Description  string
	ImageURL     string
	StartPrice   float64
	ReservePrice float64
	ExpiresAt    time.Time
}

// Actor is the authenticated user performing a change
type Actor struct {
	UserID string
	Role   models.Role
}

// Service creates, edits and removes auctions
type Service struct {
	repo  repository.Store
	locks *auctionlock.Locks
	clock clock.Clock
}

// NewService creates a listing Service
func NewService(repo repository.Store, locks *auctionlock.Locks, clk clock.Clock) *Service {
	return &Service{repo: repo, locks: locks, clock: clk}
}

func (s *Service) validate(in AuctionInput) (AuctionInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	if in.Name == "" {
		return in, fmt.Errorf("listing: %w - name is required", biddingerrors.ErrInvalidAuction)
	}
	if in.ImageURL == "" {
		return in, fmt.Errorf("listing: %w - image is required", biddingerrors.ErrInvalidAuction)
	}
	if err := money.Validate(in.StartPrice); err != nil {
		return in, fmt.Errorf("listing: %w - start price: %v", biddingerrors.ErrInvalidAuction, err)
	}
	if err := money.Validate(in.ReservePrice); err != nil {
		return in, fmt.Errorf("listing: %w - reserve price: %v", biddingerrors.ErrInvalidAuction, err)
	}
	if !in.ExpiresAt.After(s.clock.Now()) {
		return in, fmt.Errorf("listing: %w - expiry must be in the future", biddingerrors.ErrInvalidAuction)
	}

	in.StartPrice = money.Round(in.StartPrice)
	in.ReservePrice = money.Round(in.ReservePrice)
	in.ExpiresAt = in.ExpiresAt.UTC()
	return in, nil
}

// CreateAuction lists a new auction owned by sellerID
func (s *Service) CreateAuction(ctx context.Context, sellerID string, in AuctionInput) (models.Auction, error) {
	in, err := s.validate(in)
	if err != nil {
		return models.Auction{}, err
	}

	auction := models.Auction{
		AuctionID:    utils.GenerateID(),
		SellerID:     sellerID,
		Name:         in.Name,
		Description:  in.Description,
		ImageURL:     in.ImageURL,
		StartPrice:   in.StartPrice,
		ReservePrice: in.ReservePrice,
		CreatedAt:    s.clock.Now().UTC(),
		ExpiresAt:    in.ExpiresAt,
	}
	if err := s.repo.CreateAuction(ctx, auction); err != nil {
		return models.Auction{}, fmt.Errorf("listing: failed to create auction: %w", err)
	}

	utils.Info("auction created", map[string]any{
		"auction_id": auction.AuctionID,
		"seller_id":  sellerID,
		"expires_at": auction.ExpiresAt,
	})
	return auction, nil
}

// GetAuction returns a single auction
func (s *Service) GetAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("listing: %w", err)
	}
	return auction, nil
}

// ListActiveAuctions returns auctions still open for bidding
func (s *Service) ListActiveAuctions(ctx context.Context) ([]models.Auction, error) {
	auctions, err := s.repo.ListActiveAuctions(ctx, s.clock.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("listing: failed to list auctions: %w", err)
	}
	return auctions, nil
}

// ListAuctionsBySeller returns every auction a seller has listed
func (s *Service) ListAuctionsBySeller(ctx context.Context, sellerID string) ([]models.Auction, error) {
	auctions, err := s.repo.ListAuctionsBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("listing: failed to list auctions for seller %s: %w", sellerID, err)
	}
	return auctions, nil
}

// UpdateAuction edits an open auction. Only its seller may edit it.
func (s *Service) UpdateAuction(ctx context.Context, actor Actor, auctionID string, in AuctionInput) (models.Auction, error) {
	in, err := s.validate(in)
	if err != nil {
		return models.Auction{}, err
	}

	unlock := s.locks.Lock(auctionID)
	defer unlock()

	current, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("listing: %w", err)
	}
	if current.SellerID != actor.UserID {
		return models.Auction{}, fmt.Errorf("listing: %w - only the seller may edit auction %s", biddingerrors.ErrPermissionDenied, auctionID)
	}
	if current.IsResolved() || current.IsExpired(s.clock.Now()) {
		return models.Auction{}, fmt.Errorf("listing: %w - auction %s is closed", biddingerrors.ErrAuctionExpired, auctionID)
	}

	current.Name = in.Name
	current.Description = in.Description
	current.ImageURL = in.ImageURL
	current.StartPrice = in.StartPrice
	current.ReservePrice = in.ReservePrice
	current.ExpiresAt = in.ExpiresAt

	updated, err := s.repo.UpdateAuction(ctx, current)
	if err != nil {
		return models.Auction{}, fmt.Errorf("listing: failed to update auction %s: %w", auctionID, err)
	}
	return updated, nil
}

// DeleteAuction removes an auction and its bids. The seller or an admin may delete it.
func (s *Service) DeleteAuction(ctx context.Context, actor Actor, auctionID string) error {
	unlock := s.locks.Lock(auctionID)
	defer unlock()

	current, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("listing: %w", err)
	}
	if current.SellerID != actor.UserID && actor.Role != models.RoleAdmin {
		return fmt.Errorf("listing: %w - cannot delete auction %s", biddingerrors.ErrPermissionDenied, auctionID)
	}

	if err := s.repo.DeleteAuction(ctx, auctionID); err != nil {
		return fmt.Errorf("listing: failed to delete auction %s: %w", auctionID, err)
	}

	utils.Info("auction deleted", map[string]any{
		"auction_id": auctionID,
		"actor_id":   actor.UserID,
	})
	return nil
}
