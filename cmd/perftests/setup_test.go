package perftests

import (
	"fmt"
	"time"

	"auction-platform/internal/auctionlock"
	bidding "auction-platform/internal/biddingService"
	model "auction-platform/internal/models"
	repository "auction-platform/internal/repository"

	"code.cloudfoundry.org/clock"
)

var benchStart = time.Now().UTC()

func userID(i int) string    { return fmt.Sprintf("user_%d", i) }
func auctionID(i int) string { return fmt.Sprintf("auction_%d", i) }

// setupRepo creates a repository seeded with users and open auctions, and a bidding service over it
func setupRepo(numAuctions, numUsers int) (*repository.MemoryRepo, *bidding.BiddingService) {
	repo := repository.NewMemoryRepo()
	repo.AddUser(model.User{UserID: "seller", Username: "seller", Email: "seller@example.com", Role: model.RoleSeller})
	for i := 0; i < numUsers; i++ {
		repo.AddUser(model.User{
			UserID:   userID(i),
			Username: userID(i),
			Email:    userID(i) + "@example.com",
			Role:     model.RoleBuyer,
		})
	}
	for i := 0; i < numAuctions; i++ {
		repo.AddAuction(model.Auction{
			AuctionID:    auctionID(i),
			SellerID:     "seller",
			Name:         fmt.Sprintf("Lot %d", i),
			ImageURL:     "lot.png",
			StartPrice:   50,
			ReservePrice: 100,
			CreatedAt:    benchStart,
			ExpiresAt:    benchStart.Add(24 * time.Hour),
		})
	}
	return repo, bidding.NewBiddingService(repo, auctionlock.New(), clock.NewClock())
}
