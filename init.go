package main

import (
	"context"

	"github.com/pampacargo/logistica/internal/config"
	"github.com/pampacargo/logistica/internal/store"
	"github.com/pampacargo/logistica/internal/telemetry"
	"github.com/pampacargo/logistica/pkg/distance"
	"github.com/pampacargo/logistica/pkg/identity"
	"github.com/pampacargo/logistica/pkg/pricing"
	"github.com/pampacargo/logistica/pkg/purchasing"
	"github.com/pampacargo/logistica/pkg/shipping"
	"github.com/pampacargo/logistica/pkg/stock"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version, cfg.Attributes()...)
	return shutdown, err
}

// dependencies bundles everything runServe wires together.
type dependencies struct {
	Service   *shipping.Service
	Estimator shipping.CostEstimator

	closers []func() error
}

// Close releases held resources in reverse wiring order.
func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func initDependencies(ctx context.Context, cfg *config.Config, logger *otelzap.Logger) (*dependencies, error) {
	deps := &dependencies{}

	var (
		shipments  shipping.Repository
		addresses  shipping.AddressRepository
		localities shipping.LocalityRepository
		travels    shipping.TravelRepository
	)
	if cfg.MemoryStore || cfg.DatabaseURL == "" {
		mem := store.NewMemory()
		shipments = mem.Shipments()
		addresses = mem.Addresses()
		localities = mem.Localities()
		travels = mem.Travels()
	} else {
		pg, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, pg.Close)
		shipments = pg.Shipments()
		addresses = pg.Addresses()
		localities = pg.Localities()
		travels = pg.Travels()
	}

	resolver := initStockResolver(cfg, logger)
	estimator := pricing.New(resolver, initDistanceEstimator(cfg, localities, logger), cfg.DefaultOriginCPA, logger)

	service := shipping.NewService(
		shipping.ServiceConfig{
			DefaultDistributionCenterID: cfg.DefaultCenterID,
			DefaultTransportMethodID:    cfg.DefaultMethodID,
		},
		estimator,
		shipments,
		addresses,
		localities,
		travels,
		initPurchasingNotifier(cfg),
		logger,
	)

	deps.Service = service
	deps.Estimator = estimator
	return deps, nil
}

func initStockResolver(cfg *config.Config, logger *otelzap.Logger) *stock.Resolver {
	if cfg.StockUseMock {
		return stock.NewResolver(stock.NewMockAPIClient(), logger)
	}

	tokens := identity.NewClientCredentialsSource(identity.Config{
		TokenEndpoint: cfg.TokenEndpoint,
		ClientID:      cfg.TokenClientID,
		ClientSecret:  cfg.TokenClientSecret,
		Scopes:        cfg.TokenScopes,
	})

	api := stock.NewHTTPAPIClient(stock.HTTPAPIClientConfig{
		BaseURL:     cfg.StockBaseURL,
		TokenSource: tokens,
		Timeout:     cfg.StockTimeout,
	})
	return stock.NewResolver(api, logger)
}

func initDistanceEstimator(cfg *config.Config, localities shipping.LocalityRepository, logger *otelzap.Logger) distance.Estimator {
	if cfg.DistanceStrategy == config.DistanceProvince {
		return distance.NewProvinceEstimator()
	}
	return distance.NewLocalityEstimator(localities, logger)
}

func initPurchasingNotifier(cfg *config.Config) purchasing.Notifier {
	if cfg.PurchasingUseMock {
		return purchasing.NewMockNotifier()
	}
	return purchasing.NewHTTPNotifier(purchasing.Config{
		BaseURL: cfg.PurchasingBaseURL,
		Timeout: cfg.PurchasingTimeout,
	})
}
