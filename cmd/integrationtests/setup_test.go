package integrationtests

import (
	"auction-platform/internal/accounts"
	"auction-platform/internal/auctionlock"
	"auction-platform/internal/auth"
	bidding "auction-platform/internal/biddingService"
	"auction-platform/internal/lifecycle"
	"auction-platform/internal/listing"
	"auction-platform/internal/repository"
	"auction-platform/internal/repository/sqlite"
	"auction-platform/internal/server"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var startTime = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// testEnv is a fully wired server over a fresh store and a fake clock
type testEnv struct {
	router   *gin.Engine
	clock    *fakeclock.FakeClock
	resolver *lifecycle.Resolver
}

type storeFactory func(t *testing.T) repository.Store

var stores = map[string]storeFactory{
	"memory": func(t *testing.T) repository.Store {
		return repository.NewMemoryRepo()
	},
	"sqlite": func(t *testing.T) repository.Store {
		store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "auction.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	},
}

// SetupTestEnv wires every service the way main does, over store.
func SetupTestEnv(t *testing.T, store repository.Store) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := fakeclock.NewFakeClock(startTime)
	locks := auctionlock.New()
	tokens := auth.NewTokenIssuer("integration-secret", 24*time.Hour, clk)

	router := server.SetupRouter(server.Services{
		Bidding:  bidding.NewBiddingService(store, locks, clk),
		Listings: listing.NewService(store, locks, clk),
		Accounts: accounts.NewService(store, tokens, clk),
		Tokens:   tokens,
	})

	return &testEnv{
		router:   router,
		clock:    clk,
		resolver: lifecycle.NewResolver(store, locks, clk, lifecycle.Config{Workers: 2}),
	}
}

// ExecuteRequestAndParse executes an HTTP request on the router and parses the envelope
func (e *testEnv) ExecuteRequestAndParse(t *testing.T, method, url, token string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	e.router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response")
	}
	return resp, w
}

// registerAndLogin creates an account and returns its user ID and bearer token
func (e *testEnv) registerAndLogin(t *testing.T, username, role string) (string, string) {
	t.Helper()
	_, w := e.ExecuteRequestAndParse(t, http.MethodPost, "/register", "", map[string]string{
		"username": username,
		"password": "password-" + username,
		"email":    username + "@example.com",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	resp, w := e.ExecuteRequestAndParse(t, http.MethodPost, "/login", "", map[string]string{
		"username": username,
		"password": "password-" + username,
	})
	require.Equal(t, http.StatusOK, w.Code)

	data := resp["data"].(map[string]any)
	user := data["user"].(map[string]any)
	return user["user_id"].(string), data["token"].(string)
}

// createAuction lists an auction and returns its ID
func (e *testEnv) createAuction(t *testing.T, token string, start, reserve float64, ttl time.Duration) string {
	t.Helper()
	resp, w := e.ExecuteRequestAndParse(t, http.MethodPost, "/auctions", token, map[string]any{
		"name":          "Lot",
		"description":   "integration lot",
		"image_url":     "lot.png",
		"start_price":   start,
		"reserve_price": reserve,
		"expires_at":    startTime.Add(ttl).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, "%v", resp)
	return resp["data"].(map[string]any)["auction_id"].(string)
}

// placeBid posts a bid and returns the response recorder
func (e *testEnv) placeBid(t *testing.T, token, auctionID string, amount float64) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	return e.ExecuteRequestAndParse(t, http.MethodPost, "/auction/"+auctionID+"/bid", token, map[string]any{"amount": amount})
}
