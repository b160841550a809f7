package repository

import (
	"auction-platform/internal/biddingerrors"
	model "auction-platform/internal/models"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is a concurrency-safe in-memory implementation of Store
type MemoryRepo struct {
	mu        sync.RWMutex
	users     map[string]model.User    // key: userID
	usernames map[string]string        // key: lower-cased username -> userID
	emails    map[string]string        // key: lower-cased email -> userID
	auctions  map[string]model.Auction // key: auctionID
	bids      map[string][]model.Bid   // key: auctionID -> value: bids on it
	userBids  map[string][]string      // key: userID -> value: auctionIDs the user has bid on
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:     make(map[string]model.User),
		usernames: make(map[string]string),
		emails:    make(map[string]string),
		auctions:  make(map[string]model.Auction),
		bids:      make(map[string][]model.Bid),
		userBids:  make(map[string][]string),
	}
}

// CreateUser stores a new user, enforcing unique username and email
func (r *MemoryRepo) CreateUser(ctx context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.usernames[strings.ToLower(user.Username)]; taken {
		return fmt.Errorf("create user %s: %w", user.Username, biddingerrors.ErrUsernameTaken)
	}
	if _, taken := r.emails[strings.ToLower(user.Email)]; taken {
		return fmt.Errorf("create user %s: %w", user.Username, biddingerrors.ErrEmailTaken)
	}

	r.users[user.UserID] = user
	r.usernames[strings.ToLower(user.Username)] = user.UserID
	r.emails[strings.ToLower(user.Email)] = user.UserID
	return nil
}

// GetUser returns a user by ID
func (r *MemoryRepo) GetUser(ctx context.Context, userID string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, biddingerrors.ErrUserNotFound)
	}
	return user, nil
}

// GetUserByUsername returns a user by username, case-insensitively
func (r *MemoryRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.usernames[strings.ToLower(username)]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", username, biddingerrors.ErrUserNotFound)
	}
	return r.users[userID], nil
}

// CreateAuction stores a new auction
func (r *MemoryRepo) CreateAuction(ctx context.Context, auction model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[auction.SellerID]; !ok {
		return fmt.Errorf("create auction %s: %w", auction.AuctionID, biddingerrors.ErrUserNotFound)
	}
	r.auctions[auction.AuctionID] = auction
	return nil
}

// GetAuction returns an auction by ID
func (r *MemoryRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return auction, nil
}

// UpdateAuction replaces the editable fields of an auction if its version is unchanged
func (r *MemoryRepo) UpdateAuction(ctx context.Context, auction model.Auction) (model.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.auctions[auction.AuctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("update auction %s: %w", auction.AuctionID, biddingerrors.ErrAuctionNotFound)
	}
	if current.Version != auction.Version || current.IsResolved() {
		return model.Auction{}, fmt.Errorf("update auction %s: %w", auction.AuctionID, biddingerrors.ErrConflict)
	}

	current.Name = auction.Name
	current.Description = auction.Description
	current.ImageURL = auction.ImageURL
	current.StartPrice = auction.StartPrice
	current.ReservePrice = auction.ReservePrice
	current.ExpiresAt = auction.ExpiresAt
	current.Version++
	r.auctions[current.AuctionID] = current
	return current, nil
}

// DeleteAuction removes an auction and all of its bids
func (r *MemoryRepo) DeleteAuction(ctx context.Context, auctionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return fmt.Errorf("delete auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}

	for _, b := range r.bids[auctionID] {
		r.userBids[b.UserID] = removeID(r.userBids[b.UserID], auctionID)
		if len(r.userBids[b.UserID]) == 0 {
			delete(r.userBids, b.UserID)
		}
	}
	delete(r.bids, auctionID)
	delete(r.auctions, auctionID)
	return nil
}

// ListActiveAuctions returns auctions still open for bidding at now, soonest expiry first
func (r *MemoryRepo) ListActiveAuctions(ctx context.Context, now time.Time) ([]model.Auction, error) {
	return r.filterAuctions(func(a model.Auction) bool {
		return !a.IsResolved() && !a.IsExpired(now)
	}), nil
}

// ListAuctionsBySeller returns every auction owned by sellerID
func (r *MemoryRepo) ListAuctionsBySeller(ctx context.Context, sellerID string) ([]model.Auction, error) {
	return r.filterAuctions(func(a model.Auction) bool {
		return a.SellerID == sellerID
	}), nil
}

// ListUnresolvedExpired returns auctions past expiry that have not been resolved
func (r *MemoryRepo) ListUnresolvedExpired(ctx context.Context, now time.Time) ([]model.Auction, error) {
	return r.filterAuctions(func(a model.Auction) bool {
		return !a.IsResolved() && a.IsExpired(now)
	}), nil
}

func (r *MemoryRepo) filterAuctions(keep func(model.Auction) bool) []model.Auction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auctions := make([]model.Auction, 0)
	for _, a := range r.auctions {
		if keep(a) {
			auctions = append(auctions, a)
		}
	}
	sortAuctions(auctions)
	return auctions
}

// GetBidsForAuction returns all bids for an auction, leader first
func (r *MemoryRepo) GetBidsForAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}

	bids := append([]model.Bid{}, r.bids[auctionID]...)
	model.RankBids(bids)
	return bids, nil
}

// GetBidForUserAndAuction returns the user's bid on the auction
func (r *MemoryRepo) GetBidForUserAndAuction(ctx context.Context, userID, auctionID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.bids[auctionID] {
		if b.UserID == userID {
			return b, nil
		}
	}
	return model.Bid{}, fmt.Errorf("get bid of user %s on auction %s: %w", userID, auctionID, biddingerrors.ErrBidNotFound)
}

// GetBidsByUser returns all bids a user has placed
func (r *MemoryRepo) GetBidsByUser(ctx context.Context, userID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auctionIDs, ok := r.userBids[userID]
	if !ok || len(auctionIDs) == 0 {
		return nil, fmt.Errorf("get bids for user %s: %w", userID, biddingerrors.ErrUserNoBids)
	}

	bids := make([]model.Bid, 0, len(auctionIDs))
	for _, id := range auctionIDs {
		for _, b := range r.bids[id] {
			if b.UserID == userID {
				bids = append(bids, b)
			}
		}
	}
	return bids, nil
}

// CommitLeadingBid records bid as the auction's leading bid
func (r *MemoryRepo) CommitLeadingBid(ctx context.Context, expectedVersion int64, bid model.Bid) (model.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[bid.AuctionID]
	if !ok {
		return model.Bid{}, fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionNotFound)
	}
	if auction.IsResolved() {
		return model.Bid{}, fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, biddingerrors.ErrAlreadyResolved)
	}
	if auction.Version != expectedVersion {
		return model.Bid{}, fmt.Errorf("commit bid for auction %s at version %d: %w", bid.AuctionID, expectedVersion, biddingerrors.ErrConflict)
	}

	bid.IsLeading = true
	bids := r.bids[bid.AuctionID]
	replaced := false
	for i := range bids {
		if bids[i].UserID == bid.UserID {
			// one row per (user, auction): keep the original identity
			bid.BidID = bids[i].BidID
			bid.CreatedAt = bids[i].CreatedAt
			bids[i] = bid
			replaced = true
			continue
		}
		bids[i].IsLeading = false
	}
	if !replaced {
		bids = append(bids, bid)
		r.userBids[bid.UserID] = append(r.userBids[bid.UserID], bid.AuctionID)
	}
	r.bids[bid.AuctionID] = bids

	auction.Version++
	r.auctions[auction.AuctionID] = auction
	return bid, nil
}

// ResolveAuction applies final outcomes and marks the auction resolved
func (r *MemoryRepo) ResolveAuction(ctx context.Context, res model.Resolution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[res.AuctionID]
	if !ok {
		return fmt.Errorf("resolve auction %s: %w", res.AuctionID, biddingerrors.ErrAuctionNotFound)
	}
	if auction.IsResolved() {
		return fmt.Errorf("resolve auction %s: %w", res.AuctionID, biddingerrors.ErrAlreadyResolved)
	}
	if auction.Version != res.Version {
		return fmt.Errorf("resolve auction %s at version %d: %w", res.AuctionID, res.Version, biddingerrors.ErrConflict)
	}

	bids := r.bids[res.AuctionID]
	for _, b := range bids {
		if _, ok := res.Results[b.BidID]; !ok {
			return fmt.Errorf("resolve auction %s: no outcome for bid %s: %w", res.AuctionID, b.BidID, biddingerrors.ErrConflict)
		}
	}
	for i := range bids {
		bids[i].Outcome = res.Results[bids[i].BidID]
		bids[i].UpdatedAt = res.ResolvedAt
	}

	resolvedAt := res.ResolvedAt
	auction.ResolvedAt = &resolvedAt
	auction.Version++
	r.auctions[auction.AuctionID] = auction
	return nil
}

// AddUser adds a user to the repository. This method is intended for tests and seeding only.
func (r *MemoryRepo) AddUser(user model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.UserID] = user
	r.usernames[strings.ToLower(user.Username)] = user.UserID
	r.emails[strings.ToLower(user.Email)] = user.UserID
}

// AddAuction adds an auction to the repository. This method is intended for tests and seeding only.
func (r *MemoryRepo) AddAuction(auction model.Auction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auctions[auction.AuctionID] = auction
}

func sortAuctions(auctions []model.Auction) {
	sort.Slice(auctions, func(i, j int) bool {
		if !auctions[i].ExpiresAt.Equal(auctions[j].ExpiresAt) {
			return auctions[i].ExpiresAt.Before(auctions[j].ExpiresAt)
		}
		return auctions[i].AuctionID < auctions[j].AuctionID
	})
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
