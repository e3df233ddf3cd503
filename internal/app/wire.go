package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/SidharthK2/polymarket-agent/internal/blob/s3"
	"github.com/SidharthK2/polymarket-agent/internal/cache/redis"
	"github.com/SidharthK2/polymarket-agent/internal/config"
	"github.com/SidharthK2/polymarket-agent/internal/crypto"
	"github.com/SidharthK2/polymarket-agent/internal/domain"
	"github.com/SidharthK2/polymarket-agent/internal/platform/polymarket"
	"github.com/SidharthK2/polymarket-agent/internal/search"
	"github.com/SidharthK2/polymarket-agent/internal/service"
	"github.com/SidharthK2/polymarket-agent/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. Optional
// collaborators (journal, limiter, bus, archiver) are nil when their backing
// store is disabled; Orders is nil when no wallet key is configured.
type Dependencies struct {
	Gamma *polymarket.GammaClient
	Clob  *polymarket.ClobClient
	Data  *polymarket.DataClient

	Journal     domain.OrderLogStore
	Audit       domain.AuditStore
	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus
	Archiver    domain.Archiver

	Markets   *service.MarketService
	Orders    *service.OrderService
	Positions *service.PositionService
}

// Wire constructs concrete dependencies from the configuration and returns
// them with a cleanup function for shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}
	retry := polymarket.RetryPolicy{
		MaxRetries: cfg.Retry.MaxRetries,
		Delay:      cfg.Retry.Delay.Duration,
	}

	// --- Wallet signer (optional; discovery works unauthenticated) ---
	var signer *crypto.Signer
	if cfg.Wallet.PrivateKey != "" || cfg.Wallet.EncryptedKeyPath != "" {
		keyHex, err := crypto.LoadKey(crypto.KeyConfig{
			RawPrivateKey:    cfg.Wallet.PrivateKey,
			EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
			KeyPassword:      cfg.Wallet.KeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: load wallet key: %w", err)
		}
		signer, err = crypto.NewSigner(keyHex, cfg.Polymarket.ChainID)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: signer: %w", err)
		}
	}

	// --- Upstream clients ---
	deps.Gamma = polymarket.NewGammaClient(cfg.Polymarket.GammaHost, cfg.Polymarket.GammaRPS, retry)
	deps.Clob = polymarket.NewClobClient(cfg.Polymarket.ClobHost, signer, nil, retry)
	deps.Data = polymarket.NewDataClient(cfg.Polymarket.DataHost, retry)

	if signer != nil {
		if err := deps.Clob.DeriveAPIKey(ctx); err != nil {
			// Authenticated endpoints will fail until credentials exist, but
			// discovery still works.
			logger.WarnContext(ctx, "wire: derive api key failed",
				slog.String("error", err.Error()),
			)
		}
	}

	// --- PostgreSQL order journal ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.Journal = postgres.NewOrderLogStore(pool)
		deps.Audit = postgres.NewAuditStore(pool)
	}

	// --- Redis rate limiter and event bus ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		if cfg.Orders.SubmitLimit > 0 {
			deps.RateLimiter = redis.NewRateLimiter(redisClient, cfg.Orders.SubmitLimit, cfg.Orders.SubmitWindow.Duration)
		}
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- S3 journal archiver ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		if deps.Journal != nil && deps.Audit != nil {
			deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.Journal, deps.Audit)
		}
	}

	// --- Services ---
	profile := search.ProfileFor(cfg.Search.RiskTolerance)
	if cfg.Search.MinScore > 0 {
		profile.MinScore = cfg.Search.MinScore
	}
	if cfg.Search.MinVolume > 0 {
		profile.MinVolume = cfg.Search.MinVolume
	}

	deps.Markets = service.NewMarketService(
		deps.Gamma,
		deps.Clob,
		profile,
		search.ParseKnowledgeLevel(cfg.Search.KnowledgeLevel),
		cfg.Search.MaxFanout,
		cfg.Search.DefaultLimit,
		logger,
	)

	if signer != nil {
		orders := service.NewOrderService(
			deps.Clob,
			deps.Clob,
			signer,
			cfg.Polymarket.SignatureType,
			cfg.Wallet.FunderAddress,
			logger,
		)
		if deps.Journal != nil {
			orders = orders.WithJournal(deps.Journal)
		}
		if deps.Audit != nil {
			orders = orders.WithAudit(deps.Audit)
		}
		if deps.RateLimiter != nil {
			orders = orders.WithRateLimiter(deps.RateLimiter)
		}
		if deps.SignalBus != nil {
			orders = orders.WithSignalBus(deps.SignalBus)
		}
		deps.Orders = orders

		wallet := cfg.Wallet.FunderAddress
		if wallet == "" {
			wallet = signer.Address().Hex()
		}
		deps.Positions = service.NewPositionService(deps.Data, wallet, logger)
	}

	return deps, cleanup, nil
}
