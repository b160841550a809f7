package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"auction-platform/internal/auth"
	"auction-platform/internal/biddingerrors"

	"github.com/stretchr/testify/require"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{biddingerrors.ErrAuctionNotFound, http.StatusNotFound, "auction not found"},
		{fmt.Errorf("service: %w", biddingerrors.ErrUserNotFound), http.StatusNotFound, "user not found"},
		{biddingerrors.ErrBidNotFound, http.StatusNotFound, "resource not found"},
		{biddingerrors.ErrInvalidBid, http.StatusBadRequest, "invalid bid details"},
		{biddingerrors.ErrInvalidAuction, http.StatusBadRequest, "invalid auction details"},
		{biddingerrors.ErrBidTooLow, http.StatusConflict, "bid amount too low"},
		{biddingerrors.ErrAuctionExpired, http.StatusGone, "auction has expired"},
		{biddingerrors.ErrAlreadyResolved, http.StatusGone, "auction has expired"},
		{biddingerrors.ErrConflict, http.StatusConflict, "auction was modified concurrently, please retry"},
		{biddingerrors.ErrPermissionDenied, http.StatusForbidden, "permission denied"},
		{biddingerrors.ErrInvalidCredentials, http.StatusUnauthorized, "invalid username or password"},
		{auth.ErrInvalidToken, http.StatusUnauthorized, "invalid or expired token"},
		{biddingerrors.ErrEmailTaken, http.StatusConflict, "email already registered"},
		{biddingerrors.ErrNoBids, http.StatusNotFound, "no bids found for auction"},
		{errors.New("disk full"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			status, msg := MapErrorToHTTP(tc.err)
			require.Equal(t, tc.wantStatus, status)
			require.Equal(t, tc.wantMsg, msg)
		})
	}
}
