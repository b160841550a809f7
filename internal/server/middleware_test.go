package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-platform/internal/auth"
	model "auction-platform/internal/models"
	"auction-platform/services/bidding/helpers"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	clk := fakeclock.NewFakeClock(time.Now())
	tokens := auth.NewTokenIssuer("secret", time.Hour, clk)
	valid, err := tokens.Issue(model.User{UserID: "user1", Role: model.RoleAdmin})
	require.NoError(t, err)

	router := gin.New()
	router.GET("/whoami", AuthMiddleware(tokens), func(c *gin.Context) {
		userID, role, ok := helpers.CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": role})
	})

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{"valid_token", "Bearer " + valid, http.StatusOK},
		{"missing_header", "", http.StatusUnauthorized},
		{"wrong_scheme", "Basic " + valid, http.StatusUnauthorized},
		{"garbage_token", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)
			if w.Code == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				require.Equal(t, "user1", body["user_id"])
				require.Equal(t, "admin", body["role"])
			}
		})
	}
}
