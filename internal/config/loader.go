package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POLYAGENT_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYAGENT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "POLYAGENT_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "POLYAGENT_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "POLYAGENT_WALLET_KEY_PASSWORD")
	setStr(&cfg.Wallet.FunderAddress, "POLYAGENT_WALLET_FUNDER_ADDRESS")

	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "POLYAGENT_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "POLYAGENT_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.DataHost, "POLYAGENT_POLYMARKET_DATA_HOST")
	setInt(&cfg.Polymarket.ChainID, "POLYAGENT_POLYMARKET_CHAIN_ID")
	setInt(&cfg.Polymarket.SignatureType, "POLYAGENT_POLYMARKET_SIGNATURE_TYPE")
	setFloat64(&cfg.Polymarket.GammaRPS, "POLYAGENT_POLYMARKET_GAMMA_RPS")

	// ── Search ──
	setStr(&cfg.Search.RiskTolerance, "POLYAGENT_SEARCH_RISK_TOLERANCE")
	setStr(&cfg.Search.KnowledgeLevel, "POLYAGENT_SEARCH_KNOWLEDGE_LEVEL")
	setFloat64(&cfg.Search.MinScore, "POLYAGENT_SEARCH_MIN_SCORE")
	setFloat64(&cfg.Search.MinVolume, "POLYAGENT_SEARCH_MIN_VOLUME")
	setInt(&cfg.Search.DefaultLimit, "POLYAGENT_SEARCH_DEFAULT_LIMIT")
	setInt(&cfg.Search.MaxFanout, "POLYAGENT_SEARCH_MAX_FANOUT")

	// ── Retry ──
	setInt(&cfg.Retry.MaxRetries, "POLYAGENT_RETRY_MAX_RETRIES")
	setDuration(&cfg.Retry.Delay, "POLYAGENT_RETRY_DELAY")

	// ── Orders ──
	setInt(&cfg.Orders.SubmitLimit, "POLYAGENT_ORDERS_SUBMIT_LIMIT")
	setDuration(&cfg.Orders.SubmitWindow, "POLYAGENT_ORDERS_SUBMIT_WINDOW")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "POLYAGENT_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "POLYAGENT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "POLYAGENT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "POLYAGENT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "POLYAGENT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "POLYAGENT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "POLYAGENT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "POLYAGENT_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "POLYAGENT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "POLYAGENT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "POLYAGENT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "POLYAGENT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "POLYAGENT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYAGENT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYAGENT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYAGENT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "POLYAGENT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "POLYAGENT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "POLYAGENT_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "POLYAGENT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "POLYAGENT_S3_REGION")
	setStr(&cfg.S3.Bucket, "POLYAGENT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "POLYAGENT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "POLYAGENT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "POLYAGENT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "POLYAGENT_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "POLYAGENT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "POLYAGENT_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "POLYAGENT_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "POLYAGENT_SERVER_CORS_ORIGINS")

	// ── Top-level ──
	setStr(&cfg.Mode, "POLYAGENT_MODE")
	setStr(&cfg.LogLevel, "POLYAGENT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
