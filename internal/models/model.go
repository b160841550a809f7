package models

import (
	"sort"
	"time"
)

// Role is the account type of a user
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// Outcome is the terminal result of a bid, set once when its auction is resolved
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeWinning Outcome = "winning"
	OutcomeLosing  Outcome = "losing"
)

// User represents a participant in the auction
type User struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Auction represents an item listed for sale by its seller
type Auction struct {
	AuctionID    string     `json:"auction_id"`
	SellerID     string     `json:"seller_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	ImageURL     string     `json:"image_url"`
	StartPrice   float64    `json:"start_price"`
	ReservePrice float64    `json:"reserve_price"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	Version      int64      `json:"version"`
}

// IsExpired reports whether bidding on the auction has closed at now
func (a Auction) IsExpired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// IsResolved reports whether final outcomes have been assigned
func (a Auction) IsResolved() bool {
	return a.ResolvedAt != nil
}

// Bid represents a user's bid on an auction. A user holds at most one bid per auction.
type Bid struct {
	BidID     string    `json:"bid_id"`
	AuctionID string    `json:"auction_id"`
	UserID    string    `json:"user_id"`
	Amount    float64   `json:"amount"`
	IsLeading bool      `json:"is_leading"`
	Outcome   Outcome   `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BidOutcome is the result of an accepted bid
type BidOutcome struct {
	Bid             Bid     `json:"bid"`
	CurrentHighest  float64 `json:"current_highest"`
	PreviousHighest float64 `json:"previous_highest"`
}

// Resolution holds the terminal outcomes computed for an expired auction
type Resolution struct {
	AuctionID    string             `json:"auction_id"`
	Version      int64              `json:"version"`
	WinningBidID string             `json:"winning_bid_id,omitempty"`
	Results      map[string]Outcome `json:"results"`
	ResolvedAt   time.Time          `json:"resolved_at"`
}

// RankBids orders bids by amount descending; ties go to the earliest created,
// then to the lowest bid ID so the order is total.
func RankBids(bids []Bid) {
	sort.SliceStable(bids, func(i, j int) bool {
		if bids[i].Amount != bids[j].Amount {
			return bids[i].Amount > bids[j].Amount
		}
		if !bids[i].CreatedAt.Equal(bids[j].CreatedAt) {
			return bids[i].CreatedAt.Before(bids[j].CreatedAt)
		}
		return bids[i].BidID < bids[j].BidID
	})
}
