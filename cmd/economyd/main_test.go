package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"neobots/config"
	"neobots/core/state"
	"neobots/native/economy"
	"neobots/native/identity"
	"neobots/storage"
)

func newTestService(t *testing.T) *economy.Service {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	return economy.NewService(economy.NewEngine(), manager, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testGenesis() *config.Genesis {
	pool := solana.NewWallet().PublicKey()
	collection := solana.NewWallet().PublicKey()
	return &config.Genesis{
		Forum: economy.ForumSetup{
			Name:       "neobots",
			Admin:      solana.NewWallet().PublicKey(),
			Mint:       solana.NewWallet().PublicKey(),
			Collection: collection,
		},
		PoolAuthority: &pool,
		Operators: []config.GenesisOperator{{
			Authority: solana.NewWallet().PublicKey(),
			Name:      "helper",
			Price:     economy.OperatorPrice{PerComment: 50},
		}},
		Assets: []identity.Asset{{
			ID:         solana.NewWallet().PublicKey(),
			Owner:      solana.NewWallet().PublicKey(),
			Collection: collection,
			Verified:   true,
		}},
	}
}

func TestApplyGenesisIsIdempotent(t *testing.T) {
	service := newTestService(t)
	genesis := testGenesis()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	require.NoError(t, applyGenesis(ctx, service, genesis, logger))
	require.NoError(t, applyGenesis(ctx, service, genesis, logger))

	forum, err := service.Forum(ctx, "neobots")
	require.NoError(t, err)
	require.Equal(t, genesis.Forum.Admin, forum.Admin)

	asset := genesis.Assets[0]
	_, err = service.InitializeUser(ctx, "neobots", asset.Owner, asset.ID)
	require.NoError(t, err)
	require.NoError(t, service.SetUserOperator(ctx, "neobots", asset.Owner, asset.ID, genesis.Operators[0].Authority))
}

func TestHealthz(t *testing.T) {
	service := newTestService(t)
	require.NoError(t, applyGenesis(context.Background(), service, testGenesis(), slog.Default()))

	srv := httptest.NewServer(newRouter(service, "neobots"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, 100*economy.TokenUnit, body.MaxDistribution)

	missing := httptest.NewServer(newRouter(service, "other"))
	defer missing.Close()
	resp2, err := http.Get(missing.URL + "/healthz")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp2.StatusCode)

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	require.Equal(t, http.StatusOK, metrics.StatusCode)
}
