package bidding

import (
	"auction-platform/internal/auctionlock"
	"auction-platform/internal/biddingerrors"
	"auction-platform/internal/models"
	"auction-platform/internal/money"
	"auction-platform/internal/repository"
	"auction-platform/utils"
	"context"
	"errors"
	"fmt"

	"code.cloudfoundry.org/clock"
)

// maxCommitAttempts bounds optimistic retries when another writer bumps the auction version
const maxCommitAttempts = 3

// BiddingService is the bid ledger: it accepts bids and keeps exactly one leading bid per auction
type BiddingService struct {
	repo  repository.AuctionDB
	locks *auctionlock.Locks
	clock clock.Clock
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, locks *auctionlock.Locks, clk clock.Clock) *BiddingService {
	return &BiddingService{
		repo:  repo,
		locks: locks,
		clock: clk,
	}
}

// PlaceBid validates a user's bid against the auction's current leader and records it as the new leader
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID, userID string, amount float64) (models.BidOutcome, error) {
	if auctionID == "" || userID == "" {
		return models.BidOutcome{}, fmt.Errorf("service: %w - missing auctionID or userID", biddingerrors.ErrInvalidBid)
	}
	if err := money.Validate(amount); err != nil {
		return models.BidOutcome{}, fmt.Errorf("service: %w - %v", biddingerrors.ErrInvalidBid, err)
	}
	amount = money.Round(amount)

	unlock := s.locks.Lock(auctionID)
	defer unlock()

	for attempt := 1; ; attempt++ {
		outcome, err := s.placeBid(ctx, auctionID, userID, amount)
		if errors.Is(err, biddingerrors.ErrConflict) && attempt < maxCommitAttempts {
			utils.Warn("bid commit conflicted, retrying", map[string]any{
				"auction_id": auctionID,
				"user_id":    userID,
				"attempt":    attempt,
			})
			continue
		}
		return outcome, err
	}
}

// placeBid runs one read-validate-write pass; the caller holds the auction's lock
func (s *BiddingService) placeBid(ctx context.Context, auctionID, userID string, amount float64) (models.BidOutcome, error) {
	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.BidOutcome{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}

	now := s.clock.Now().UTC()
	if auction.IsResolved() || auction.IsExpired(now) {
		return models.BidOutcome{}, fmt.Errorf("service: %w - auction %s closed at %s", biddingerrors.ErrAuctionExpired, auctionID, auction.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"))
	}

	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return models.BidOutcome{}, fmt.Errorf("service: failed to load bidder %s: %w", userID, err)
	}

	bids, err := s.repo.GetBidsForAuction(ctx, auctionID)
	if err != nil {
		return models.BidOutcome{}, fmt.Errorf("service: failed to check leading bid: %w", err)
	}

	var previousHighest float64
	if len(bids) > 0 {
		previousHighest = bids[0].Amount
		if !money.Exceeds(amount, previousHighest) {
			return models.BidOutcome{}, fmt.Errorf("service: %w - current highest bid is %.2f", biddingerrors.ErrBidTooLow, previousHighest)
		}
	} else if !money.AtLeast(amount, auction.StartPrice) {
		return models.BidOutcome{}, fmt.Errorf("service: %w - starting price is %.2f", biddingerrors.ErrBidTooLow, auction.StartPrice)
	}

	bid, err := s.repo.GetBidForUserAndAuction(ctx, userID, auctionID)
	switch {
	case errors.Is(err, biddingerrors.ErrBidNotFound):
		bid = models.Bid{
			BidID:     utils.GenerateID(),
			AuctionID: auctionID,
			UserID:    userID,
			CreatedAt: now,
		}
	case err != nil:
		return models.BidOutcome{}, fmt.Errorf("service: failed to look up existing bid: %w", err)
	}
	bid.Amount = amount
	bid.Outcome = models.OutcomePending
	bid.IsLeading = true
	bid.UpdatedAt = now

	saved, err := s.repo.CommitLeadingBid(ctx, auction.Version, bid)
	if err != nil {
		if errors.Is(err, biddingerrors.ErrAlreadyResolved) {
			return models.BidOutcome{}, fmt.Errorf("service: %w - auction %s already resolved", biddingerrors.ErrAuctionExpired, auctionID)
		}
		return models.BidOutcome{}, fmt.Errorf("service: failed to record bid for auction %s by user %s: %w", auctionID, userID, err)
	}

	return models.BidOutcome{
		Bid:             saved,
		CurrentHighest:  saved.Amount,
		PreviousHighest: previousHighest,
	}, nil
}

// GetBidsForAuction returns all bids for an auction, leader first
func (s *BiddingService) GetBidsForAuction(ctx context.Context, auctionID string) ([]models.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidBid)
	}

	bids, err := s.repo.GetBidsForAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}

	return bids, nil
}

// GetLeadingBid returns the current highest bid for an auction
func (s *BiddingService) GetLeadingBid(ctx context.Context, auctionID string) (models.Bid, error) {
	bids, err := s.GetBidsForAuction(ctx, auctionID)
	if err != nil {
		return models.Bid{}, err
	}
	if len(bids) == 0 {
		return models.Bid{}, fmt.Errorf("service: auction %s: %w", auctionID, biddingerrors.ErrNoBids)
	}

	return bids[0], nil
}

// GetBidsByUser returns all bids a user has placed
func (s *BiddingService) GetBidsByUser(ctx context.Context, userID string) ([]models.Bid, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", biddingerrors.ErrInvalidBid)
	}

	bids, err := s.repo.GetBidsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for user %s: %w", userID, err)
	}

	return bids, nil
}
