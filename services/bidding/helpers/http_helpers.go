package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-platform/internal/auth"
	"auction-platform/internal/biddingerrors"
	model "auction-platform/internal/models"
	"auction-platform/utils"

	"github.com/gin-gonic/gin"
)

// Keys under which the auth middleware stores the caller's identity
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, biddingerrors.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, biddingerrors.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.Is(err, biddingerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, biddingerrors.ErrInvalidAuction):
		return http.StatusBadRequest, "invalid auction details"
	case errors.Is(err, biddingerrors.ErrInvalidUser):
		return http.StatusBadRequest, "invalid user details"
	case errors.Is(err, biddingerrors.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, biddingerrors.ErrAuctionExpired), errors.Is(err, biddingerrors.ErrAlreadyResolved):
		return http.StatusGone, "auction has expired"
	case errors.Is(err, biddingerrors.ErrConflict):
		return http.StatusConflict, "auction was modified concurrently, please retry"
	case errors.Is(err, biddingerrors.ErrPermissionDenied):
		return http.StatusForbidden, "permission denied"
	case errors.Is(err, biddingerrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid username or password"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid or expired token"
	case errors.Is(err, biddingerrors.ErrUsernameTaken):
		return http.StatusConflict, "username already exists"
	case errors.Is(err, biddingerrors.ErrEmailTaken):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, biddingerrors.ErrNoBids):
		return http.StatusNotFound, "no bids found for auction"
	case errors.Is(err, biddingerrors.ErrUserNoBids):
		return http.StatusOK, "no bids found for user"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondError writes the mapped error response and logs it.
// Internal errors are reported to the client by message only.
func RespondError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)

	clientErr := fmt.Errorf("%s: %w", message, err)
	if status == http.StatusInternalServerError {
		clientErr = errors.New(message)
	}
	utils.JSONError(c, status, clientErr, message)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["status"] = status
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
		return
	}
	utils.Warn(handlerName+": request rejected", fields)
}

// CurrentUser returns the authenticated caller set by the auth middleware
func CurrentUser(c *gin.Context) (userID string, role model.Role, ok bool) {
	userID = c.GetString(ContextUserID)
	if userID == "" {
		return "", "", false
	}
	if v, exists := c.Get(ContextRole); exists {
		role, _ = v.(model.Role)
	}
	return userID, role, true
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
