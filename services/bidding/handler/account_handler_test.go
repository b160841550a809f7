package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"auction-platform/internal/biddingerrors"
	model "auction-platform/internal/models"
	"auction-platform/services/bidding/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func TestAccountHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	alice := model.User{UserID: "user1", Username: "alice", PasswordHash: "secret-hash", Email: "alice@example.com", Role: model.RoleBuyer}

	tests := []struct {
		name           string
		method         string
		path           string
		userID         string
		body           any
		mockSetup      func(m *MockAccountServiceInterface)
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data map[string]any)
	}{
		{
			name:   "register_success",
			method: http.MethodPost,
			path:   "/register",
			body:   helpers.RegisterRequest{Username: "alice", Password: "password123", Email: "alice@example.com", Role: "buyer"},
			mockSetup: func(m *MockAccountServiceInterface) {
				m.EXPECT().Register(gomock.Any(), "alice", "password123", "alice@example.com", model.RoleBuyer).Return(alice, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "registration successful",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, "user1", data["user_id"])
				require.NotContains(t, data, "password_hash")
				require.NotContains(t, data, "PasswordHash")
			},
		},
		{
			name:           "register_bad_role",
			method:         http.MethodPost,
			path:           "/register",
			body:           helpers.RegisterRequest{Username: "alice", Password: "password123", Email: "alice@example.com", Role: "owner"},
			mockSetup:      func(m *MockAccountServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "register_short_password",
			method:         http.MethodPost,
			path:           "/register",
			body:           helpers.RegisterRequest{Username: "alice", Password: "short", Email: "alice@example.com", Role: "buyer"},
			mockSetup:      func(m *MockAccountServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:   "register_duplicate",
			method: http.MethodPost,
			path:   "/register",
			body:   helpers.RegisterRequest{Username: "alice", Password: "password123", Email: "alice@example.com", Role: "buyer"},
			mockSetup: func(m *MockAccountServiceInterface) {
				m.EXPECT().Register(gomock.Any(), "alice", "password123", "alice@example.com", model.RoleBuyer).Return(model.User{}, biddingerrors.ErrUsernameTaken)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "username already exists",
		},
		{
			name:   "login_success",
			method: http.MethodPost,
			path:   "/login",
			body:   helpers.LoginRequest{Username: "alice", Password: "password123"},
			mockSetup: func(m *MockAccountServiceInterface) {
				m.EXPECT().Login(gomock.Any(), "alice", "password123").Return(alice, "signed-token", nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "login successful",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, "signed-token", data["token"])
			},
		},
		{
			name:   "login_bad_credentials",
			method: http.MethodPost,
			path:   "/login",
			body:   helpers.LoginRequest{Username: "alice", Password: "nope"},
			mockSetup: func(m *MockAccountServiceInterface) {
				m.EXPECT().Login(gomock.Any(), "alice", "nope").Return(model.User{}, "", biddingerrors.ErrInvalidCredentials)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "invalid username or password",
		},
		{
			name:   "profile_success",
			method: http.MethodGet,
			path:   "/profile",
			userID: "user1",
			mockSetup: func(m *MockAccountServiceInterface) {
				m.EXPECT().GetProfile(gomock.Any(), "user1").Return(alice, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "profile retrieved successfully",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, "alice", data["username"])
			},
		},
		{
			name:           "profile_unauthenticated",
			method:         http.MethodGet,
			path:           "/profile",
			mockSetup:      func(m *MockAccountServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "authentication required",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockService := NewMockAccountServiceInterface(ctrl)
			tc.mockSetup(mockService)

			h := NewAccountHandler(mockService)
			router := gin.New()
			router.Use(withUser(tc.userID, model.RoleBuyer))
			router.POST("/register", h.RegisterHandler)
			router.POST("/login", h.LoginHandler)
			router.GET("/profile", h.ProfileHandler)

			var raw []byte
			if tc.body != nil {
				var err error
				raw, err = json.Marshal(tc.body)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(tc.method, tc.path, bytes.NewReader(raw))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)
			resp := decodeEnvelope(t, w)
			require.Contains(t, resp["message"], tc.expectedMsg)

			if tc.validateData != nil {
				tc.validateData(t, resp["data"].(map[string]any))
			}
		})
	}
}
