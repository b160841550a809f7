package biddingerrors

import (
	"errors"
	"fmt"
)

// Error kinds. Specific errors below wrap one of these so callers can match either.
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("concurrent update conflict")
	ErrPermissionDenied = errors.New("permission denied")
)

// Repository-level errors
var (
	ErrAuctionNotFound = fmt.Errorf("auction %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrBidNotFound     = fmt.Errorf("bid %w", ErrNotFound)
	ErrNoBids          = errors.New("no bids found for auction")
	ErrUserNoBids      = errors.New("user has not placed any bids")
	ErrUsernameTaken   = errors.New("username already exists")
	ErrEmailTaken      = errors.New("email already registered")
	ErrAlreadyResolved = errors.New("auction already resolved")
)

// business logic errors
var (
	ErrInvalidBid         = fmt.Errorf("invalid bid: %w", ErrValidation)
	ErrInvalidAuction     = fmt.Errorf("invalid auction: %w", ErrValidation)
	ErrInvalidUser        = fmt.Errorf("invalid user: %w", ErrValidation)
	ErrBidTooLow          = errors.New("bid amount too low")
	ErrAuctionExpired     = errors.New("auction has expired")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
