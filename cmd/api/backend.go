package main

import (
	"context"
	"fmt"

	"github.com/ArowuTest/loyalty-backend/internal/config"
	"github.com/ArowuTest/loyalty-backend/internal/repositories/cached"
	"github.com/ArowuTest/loyalty-backend/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/loyalty-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/loyalty-backend/internal/services"
	"github.com/ArowuTest/loyalty-backend/pkg/mongodb"
	"golang.org/x/exp/slog"
)

// backend is an opened storage driver and the repositories built on it.
type backend struct {
	repos services.Repositories
	close func(ctx context.Context) error
}

// openBackend connects the configured storage driver. The reward catalog is
// served through the in-process cache for either driver.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	var b *backend
	switch cfg.Storage.Driver {
	case "memory":
		slog.Warn("Using the in-memory store; data is lost on exit")
		store := memory.NewStore()
		b = &backend{
			repos: services.Repositories{
				Tx:                store,
				Users:             memory.NewUserRepository(store),
				Draws:             memory.NewDrawRepository(store),
				Prizes:            memory.NewPrizeRepository(store),
				History:           memory.NewSpinHistoryRepository(store),
				Rewards:           memory.NewRewardRepository(store),
				Redemptions:       memory.NewRedemptionRepository(store),
				CheckIns:          memory.NewCheckInRepository(store),
				PointTransactions: memory.NewPointTransactionRepository(store),
				Notifications:     memory.NewNotificationRepository(store),
			},
			close: func(context.Context) error { return nil },
		}
	case "mongodb":
		client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		db := client.Database()
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		b = &backend{
			repos: services.Repositories{
				Tx:                client,
				Users:             mongorepo.NewUserRepository(db),
				Draws:             mongorepo.NewDrawRepository(db),
				Prizes:            mongorepo.NewPrizeRepository(db),
				History:           mongorepo.NewSpinHistoryRepository(db),
				Rewards:           mongorepo.NewRewardRepository(db),
				Redemptions:       mongorepo.NewRedemptionRepository(db),
				CheckIns:          mongorepo.NewCheckInRepository(db),
				PointTransactions: mongorepo.NewPointTransactionRepository(db),
				Notifications:     mongorepo.NewNotificationRepository(db),
			},
			close: client.Disconnect,
		}
		slog.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	b.repos.Rewards = cached.NewRewardRepository(b.repos.Rewards, cfg.Cache.RewardCatalogBytes, cfg.Cache.RewardTTLSeconds)
	return b, nil
}
