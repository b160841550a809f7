package main

import (
	"auction-platform/internal/accounts"
	"auction-platform/internal/auctionlock"
	"auction-platform/internal/auth"
	"auction-platform/internal/biddingerrors"
	bidding "auction-platform/internal/biddingService"
	"auction-platform/internal/config"
	"auction-platform/internal/lifecycle"
	"auction-platform/internal/listing"
	model "auction-platform/internal/models"
	"auction-platform/internal/repository"
	"auction-platform/internal/repository/sqlite"
	"auction-platform/internal/server"
	"auction-platform/utils"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/tedsuo/ifrit"
	"github.com/tedsuo/ifrit/grouper"
	"github.com/tedsuo/ifrit/http_server"
	"github.com/tedsuo/ifrit/sigmon"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "auction server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	if err := utils.SetLevel(cfg.LogLevel); err != nil {
		utils.Warn("unknown log level, keeping info", map[string]any{"level": cfg.LogLevel})
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	clk := clock.NewClock()
	locks := auctionlock.New()
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL, clk)

	biddingSvc := bidding.NewBiddingService(store, locks, clk)
	listingSvc := listing.NewService(store, locks, clk)
	accountSvc := accounts.NewService(store, tokens, clk)
	resolver := lifecycle.NewResolver(store, locks, clk, lifecycle.Config{
		Interval: cfg.ResolveInterval,
		Workers:  cfg.ResolveWorkers,
	})

	if cfg.Seed {
		seedDemoData(ctx, accountSvc, listingSvc, clk)
	}

	router := server.SetupRouter(server.Services{
		Bidding:  biddingSvc,
		Listings: listingSvc,
		Accounts: accountSvc,
		Tokens:   tokens,
	})

	// members stop in reverse order: HTTP first, then the resolver
	members := grouper.Members{
		{Name: "auction-resolver", Runner: resolver},
		{Name: "http-server", Runner: http_server.New(cfg.Addr(), router)},
	}
	process := ifrit.Invoke(sigmon.New(grouper.NewOrdered(os.Interrupt, members)))

	utils.Info("auction server started", map[string]any{
		"addr":             cfg.Addr(),
		"store":            cfg.Store,
		"resolve_interval": cfg.ResolveInterval.String(),
	})

	if err := <-process.Wait(); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	utils.Info("auction server stopped", nil)
	return nil
}

// openStore returns the configured store and its cleanup function
func openStore(ctx context.Context, cfg config.Config) (repository.Store, func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		return repository.NewMemoryRepo(), func() {}, nil
	default:
		store, err := sqlite.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				utils.Error("failed to close store", map[string]any{"error": err.Error()})
			}
		}, nil
	}
}

// seedDemoData registers a demo seller and lists a few auctions
func seedDemoData(ctx context.Context, accountSvc *accounts.Service, listingSvc *listing.Service, clk clock.Clock) {
	seller, err := accountSvc.Register(ctx, "demo-seller", "demo-password", "seller@example.com", model.RoleSeller)
	if errors.Is(err, biddingerrors.ErrUsernameTaken) {
		utils.Info("demo data already present, skipping seed", nil)
		return
	}
	if err != nil {
		utils.Error("failed to seed demo seller", map[string]any{"error": err.Error()})
		return
	}

	now := clk.Now()
	auctions := []listing.AuctionInput{
		{Name: "Vintage camera", Description: "Film rangefinder, fully working", ImageURL: "images/camera.jpg", StartPrice: 100, ReservePrice: 250, ExpiresAt: now.Add(time.Hour)},
		{Name: "Oak writing desk", Description: "Solid oak, minor scratches", ImageURL: "images/desk.jpg", StartPrice: 200, ReservePrice: 400, ExpiresAt: now.Add(24 * time.Hour)},
		{Name: "Signed poster", Description: "Framed", ImageURL: "images/poster.jpg", StartPrice: 150, ReservePrice: 150, ExpiresAt: now.Add(7 * 24 * time.Hour)},
	}

	for _, in := range auctions {
		if _, err := listingSvc.CreateAuction(ctx, seller.UserID, in); err != nil {
			utils.Error("failed to seed demo auction", map[string]any{"name": in.Name, "error": err.Error()})
		}
	}
}
