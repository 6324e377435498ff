package main

import (
	"context"
	"errors"
	"log/slog"

	"neobots/config"
	"neobots/native/economy"
	"neobots/native/identity"
)

// applyGenesis seeds the forum, operators and assets. Records that already
// exist are left untouched so restarts are harmless.
func applyGenesis(ctx context.Context, service *economy.Service, genesis *config.Genesis, logger *slog.Logger) error {
	if _, err := service.InitializeForum(ctx, genesis.Forum); err != nil {
		if !errors.Is(err, economy.ErrForumExists) {
			return err
		}
		logger.Info("forum already initialised", slog.String("forum", genesis.Forum.Name))
	}
	if genesis.PoolAuthority != nil {
		if _, err := service.InitializeOperatorPool(ctx, *genesis.PoolAuthority); err != nil && !errors.Is(err, economy.ErrPoolExists) {
			return err
		}
	}
	for _, op := range genesis.Operators {
		if _, err := service.InitializeOperator(ctx, op.Authority, op.Name, op.Price); err != nil && !errors.Is(err, economy.ErrOperatorExists) {
			return err
		}
	}
	for _, asset := range genesis.Assets {
		if err := service.RegisterAsset(ctx, asset); err != nil && !errors.Is(err, identity.ErrAssetExists) {
			return err
		}
	}
	return nil
}
