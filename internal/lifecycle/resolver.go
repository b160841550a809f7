// Package lifecycle closes expired auctions: it assigns every bid its final
// outcome against the reserve price and marks the auction resolved.
package lifecycle

import (
	"auction-platform/internal/auctionlock"
	"auction-platform/internal/biddingerrors"
	"auction-platform/internal/models"
	"auction-platform/internal/money"
	"auction-platform/internal/repository"
	"auction-platform/utils"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/workpool"
)

// DefaultInterval is how often expired auctions are swept
const DefaultInterval = 150 * time.Second

// Config tunes the resolver
type Config struct {
	Interval time.Duration
	Workers  int
}

// Report summarizes one sweep
type Report struct {
	Resolved int `json:"resolved"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Resolver periodically resolves auctions whose expiry has passed
type Resolver struct {
	repo   repository.AuctionDB
	locks  *auctionlock.Locks
	clock  clock.Clock
	config Config
}

// NewResolver creates a Resolver; zero config values fall back to defaults
func NewResolver(repo repository.AuctionDB, locks *auctionlock.Locks, clk clock.Clock, cfg Config) *Resolver {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Resolver{repo: repo, locks: locks, clock: clk, config: cfg}
}

// Decide computes final outcomes for an auction's bids. The top-ranked bid
// wins only when it meets the reserve; every other bid loses.
func Decide(auction models.Auction, bids []models.Bid) models.Resolution {
	ranked := append([]models.Bid(nil), bids...)
	models.RankBids(ranked)

	res := models.Resolution{
		AuctionID: auction.AuctionID,
		Version:   auction.Version,
		Results:   make(map[string]models.Outcome, len(ranked)),
	}
	for i, bid := range ranked {
		if i == 0 && money.AtLeast(bid.Amount, auction.ReservePrice) {
			res.WinningBidID = bid.BidID
			res.Results[bid.BidID] = models.OutcomeWinning
			continue
		}
		res.Results[bid.BidID] = models.OutcomeLosing
	}
	return res
}

// ResolveExpiredAuctions resolves every unresolved auction whose expiry has passed.
// Auctions are resolved independently; a failure on one is logged and counted.
func (r *Resolver) ResolveExpiredAuctions(ctx context.Context) (Report, error) {
	now := r.clock.Now().UTC()

	auctions, err := r.repo.ListUnresolvedExpired(ctx, now)
	if err != nil {
		return Report{}, fmt.Errorf("lifecycle: failed to list expired auctions: %w", err)
	}
	if len(auctions) == 0 {
		return Report{}, nil
	}

	workPool, err := workpool.NewWorkPool(r.config.Workers)
	if err != nil {
		return Report{}, fmt.Errorf("lifecycle: failed to start work pool: %w", err)
	}
	defer workPool.Stop()

	var (
		report Report
		lock   sync.Mutex
		wg     sync.WaitGroup
	)

	wg.Add(len(auctions))
	for _, auction := range auctions {
		auctionID := auction.AuctionID
		workPool.Submit(func() {
			defer wg.Done()

			resolved, err := r.resolveAuction(ctx, auctionID)

			lock.Lock()
			defer lock.Unlock()
			switch {
			case err != nil:
				report.Failed++
				utils.Error("failed to resolve auction", map[string]any{
					"auction_id": auctionID,
					"error":      err.Error(),
				})
			case resolved:
				report.Resolved++
			default:
				report.Skipped++
			}
		})
	}
	wg.Wait()

	return report, nil
}

// resolveAuction resolves a single auction under its lock. It reports false
// when another writer already resolved it or its expiry moved.
func (r *Resolver) resolveAuction(ctx context.Context, auctionID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	unlock := r.locks.Lock(auctionID)
	defer unlock()

	// re-read under the lock
	auction, err := r.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return false, fmt.Errorf("lifecycle: failed to load auction %s: %w", auctionID, err)
	}
	now := r.clock.Now().UTC()
	if auction.IsResolved() || !auction.IsExpired(now) {
		return false, nil
	}

	bids, err := r.repo.GetBidsForAuction(ctx, auctionID)
	if err != nil {
		return false, fmt.Errorf("lifecycle: failed to load bids for auction %s: %w", auctionID, err)
	}

	res := Decide(auction, bids)
	res.ResolvedAt = now

	if err := r.repo.ResolveAuction(ctx, res); err != nil {
		if errors.Is(err, biddingerrors.ErrAlreadyResolved) {
			return false, nil
		}
		return false, fmt.Errorf("lifecycle: failed to resolve auction %s: %w", auctionID, err)
	}

	utils.Info("auction resolved", map[string]any{
		"auction_id":     auctionID,
		"bids":           len(bids),
		"winning_bid_id": res.WinningBidID,
	})
	return true, nil
}

// Run sweeps on every tick until signalled. It implements ifrit.Runner.
func (r *Resolver) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	ticker := r.clock.NewTicker(r.config.Interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	utils.Info("auction resolver started", map[string]any{
		"interval": r.config.Interval.String(),
		"workers":  r.config.Workers,
	})
	close(ready)

	for {
		select {
		case sig := <-signals:
			utils.Info("auction resolver stopping", map[string]any{"signal": sig.String()})
			return nil
		case <-ticker.C():
			done := make(chan struct{})
			go func() {
				defer close(done)
				r.sweep(ctx)
			}()

			select {
			case <-done:
			case sig := <-signals:
				utils.Info("auction resolver stopping mid-run", map[string]any{"signal": sig.String()})
				cancel()
				<-done
				return nil
			}
		}
	}
}

func (r *Resolver) sweep(ctx context.Context) {
	start := r.clock.Now()
	report, err := r.ResolveExpiredAuctions(ctx)
	if err != nil {
		utils.Error("auction resolver run failed", map[string]any{"error": err.Error()})
		return
	}
	utils.Info("auction resolver run complete", map[string]any{
		"resolved": report.Resolved,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
		"duration": r.clock.Since(start).String(),
	})
}
