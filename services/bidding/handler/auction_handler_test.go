package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-platform/internal/biddingerrors"
	"auction-platform/internal/listing"
	model "auction-platform/internal/models"
	"auction-platform/services/bidding/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func newAuctionRouter(m *MockListingServiceInterface, userID string, role model.Role) *gin.Engine {
	h := NewAuctionHandler(m)
	router := gin.New()
	router.Use(withUser(userID, role))
	router.GET("/auctions", h.ListAuctionsHandler)
	router.POST("/auctions", h.CreateAuctionHandler)
	router.GET("/auction/:auction_id", h.GetAuctionHandler)
	router.PUT("/auction/:auction_id", h.UpdateAuctionHandler)
	router.DELETE("/auction/:auction_id", h.DeleteAuctionHandler)
	return router
}

func TestAuctionHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	expiry := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	validReq := helpers.AuctionRequest{
		Name:         "Lamp",
		ImageURL:     "lamp.png",
		StartPrice:   10,
		ReservePrice: 50,
		ExpiresAt:    expiry,
	}
	wantInput := listing.AuctionInput{
		Name:         "Lamp",
		ImageURL:     "lamp.png",
		StartPrice:   10,
		ReservePrice: 50,
		ExpiresAt:    expiry,
	}
	seller := listing.Actor{UserID: "seller", Role: model.RoleSeller}
	stored := model.Auction{AuctionID: "auction1", SellerID: "seller", Name: "Lamp", ExpiresAt: expiry, Version: 1}

	tests := []struct {
		name           string
		method         string
		path           string
		userID         string
		body           any
		mockSetup      func(m *MockListingServiceInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:   "list_active",
			method: http.MethodGet,
			path:   "/auctions",
			mockSetup: func(m *MockListingServiceInterface) {
				m.EXPECT().ListActiveAuctions(gomock.Any()).Return([]model.Auction{stored}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auctions retrieved successfully",
		},
		{
			name:   "list_by_seller",
			method: http.MethodGet,
			path:   "/auctions?seller_id=seller",
			mockSetup: func(m *MockListingServiceInterface) {
				m.EXPECT().ListAuctionsBySeller(gomock.Any(), "seller").Return(nil, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auctions retrieved successfully",
		},
		{
			name:   "create_success",
			method: http.MethodPost,
			path:   "/auctions",
			userID: "seller",
			body:   validReq,
			mockSetup: func(m *MockListingServiceInterface) {
				m.EXPECT().CreateAuction(gomock.Any(), "seller", wantInput).Return(stored, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "auction created successfully",
		},
		{
			name:           "create_unauthenticated",
			method:         http.MethodPost,
			path:           "/auctions",
			body:           validReq,
			mockSetup:      func(m *MockListingServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "authentication required",
		},
		{
			name:           "create_missing_image",
			method:         http.MethodPost,
			path:           "/auctions",
			userID:         "seller",
			body:           helpers.AuctionRequest{Name: "Lamp", StartPrice: 10, ReservePrice: 50, ExpiresAt: expiry},
			mockSetup:      func(m *MockListingServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:   "create_rejected_by_service",
			method: http.MethodPost,
			path:   "/auctions",
			userID: "seller",
			body:   validReq,
			mockSetup: func(m *MockListingServiceInterface) {
				m.EXPECT().CreateAuction(gomock.Any(), "seller", wantInput).Return(model.Auction{}, biddingerrors.ErrInvalidAuction)
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid auction details",
		},
		{
			name:   "get_success",
			method: http.MethodGet,
			path:   "/auction/auction1",
			mockSetup: func(m *MockListingServiceInterface) {
				m.EXPECT().GetAuction(gomock.Any(), "auction1").Return(stored, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction retrieved successfully",
		},
		{
			name:   "get_not_found",
			method: http.MethodGet,
			path:   "/auction/missing",
			mockSetup: func(m *MockListingServiceInterface) {
				m.EXPECT().GetAuction(gomock.Any(), "missing").Return(model.Auction{}, biddingerrors.ErrAuctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
		{
			name:   "update_success",
			method: http.MethodPut,
			path:   "/auction/auction1",
			userID: "seller",
			body:   validReq,
			mockSetup: func(m *MockListingServiceInterface) {
				m.EXPECT().UpdateAuction(gomock.Any(), seller, "auction1", wantInput).Return(stored, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction updated successfully",
		},
		{
			name:   "update_not_owner",
			method: http.MethodPut,
			path:   "/auction/auction1",
			userID: "seller",
			body:   validReq,
			mockSetup: func(m *MockListingServiceInterface) {
				m.EXPECT().UpdateAuction(gomock.Any(), seller, "auction1", wantInput).Return(model.Auction{}, biddingerrors.ErrPermissionDenied)
			},
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "permission denied",
		},
		{
			name:   "update_closed",
			method: http.MethodPut,
			path:   "/auction/auction1",
			userID: "seller",
			body:   validReq,
			mockSetup: func(m *MockListingServiceInterface) {
				m.EXPECT().UpdateAuction(gomock.Any(), seller, "auction1", wantInput).Return(model.Auction{}, biddingerrors.ErrAuctionExpired)
			},
			expectedStatus: http.StatusGone,
			expectedMsg:    "auction has expired",
		},
		{
			name:   "delete_success",
			method: http.MethodDelete,
			path:   "/auction/auction1",
			userID: "seller",
			mockSetup: func(m *MockListingServiceInterface) {
				m.EXPECT().DeleteAuction(gomock.Any(), seller, "auction1").Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction deleted successfully",
		},
		{
			name:   "delete_failure",
			method: http.MethodDelete,
			path:   "/auction/auction1",
			userID: "seller",
			mockSetup: func(m *MockListingServiceInterface) {
				m.EXPECT().DeleteAuction(gomock.Any(), seller, "auction1").Return(errors.New("disk full"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockService := NewMockListingServiceInterface(ctrl)
			tc.mockSetup(mockService)
			router := newAuctionRouter(mockService, tc.userID, model.RoleSeller)

			var body *bytes.Reader
			if tc.body != nil {
				raw, err := json.Marshal(tc.body)
				require.NoError(t, err)
				body = bytes.NewReader(raw)
			} else {
				body = bytes.NewReader(nil)
			}

			req := httptest.NewRequest(tc.method, tc.path, body)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)
			resp := decodeEnvelope(t, w)
			require.Contains(t, resp["message"], tc.expectedMsg)
		})
	}
}
