package app

import (
	"context"
	"log/slog"
	"os"

	"stock_go/internal/domain"
	"stock_go/internal/infra"
	"stock_go/internal/store"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config *infra.Config
	Store  *store.Store
	Market *domain.Market
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization: config, logger, database
// (migrate + seed) and the in-memory market registry.
func (b *Bootstrap) Initialize(ctx context.Context) error {
	slog.Info("Bootstrapping exchange simulator...")

	// 1. Load Config
	configPath := os.Getenv("STOCK_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB) and seed the ledgers
	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	if err := st.Seed(ctx, cfg); err != nil {
		return err
	}
	b.Store = st
	slog.Info("Database initialized and seeded",
		slog.String("path", cfg.Storage.Path))

	// 4. Build the market registry
	b.Market = BuildMarket(cfg)
	slog.Info("Market registry built", slog.Int("companies", b.Market.Len()))

	return nil
}

// BuildMarket constructs the company registry from configuration, with
// circuits seeded around each initial price.
func BuildMarket(cfg *infra.Config) *domain.Market {
	market := domain.NewMarket()
	for _, cc := range cfg.Companies {
		market.Add(domain.NewCompany(cc.Symbol, cc.InitialPrice, cfg.Market.CircuitPct))
	}
	return market
}
