package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.Polymarket.GammaHost)
	assert.Equal(t, "https://clob.polymarket.com", cfg.Polymarket.ClobHost)
	assert.Equal(t, 137, cfg.Polymarket.ChainID)
	assert.Equal(t, "moderate", cfg.Search.RiskTolerance)
	assert.Equal(t, "intermediate", cfg.Search.KnowledgeLevel)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.Delay.Duration)
	assert.Equal(t, 30, cfg.Orders.SubmitLimit)
	assert.Equal(t, time.Minute, cfg.Orders.SubmitWindow.Duration)
	assert.False(t, cfg.Postgres.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.S3.Enabled)
	assert.Equal(t, "server", cfg.Mode)

	require.NoError(t, cfg.Validate())
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
mode = "search"
log_level = "debug"

[polymarket]
chain_id = 80002

[search]
risk_tolerance = "aggressive"
min_score = 0.2

[retry]
max_retries = 5
delay = "250ms"

[orders]
submit_limit = 10
submit_window = "30s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "search", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 80002, cfg.Polymarket.ChainID)
	assert.Equal(t, "aggressive", cfg.Search.RiskTolerance)
	assert.Equal(t, 0.2, cfg.Search.MinScore)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.Delay.Duration)
	assert.Equal(t, 10, cfg.Orders.SubmitLimit)
	assert.Equal(t, 30*time.Second, cfg.Orders.SubmitWindow.Duration)

	// Fields the file does not mention keep their defaults.
	assert.Equal(t, "https://clob.polymarket.com", cfg.Polymarket.ClobHost)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("POLYAGENT_MODE", "search")
	t.Setenv("POLYAGENT_POLYMARKET_CHAIN_ID", "80002")
	t.Setenv("POLYAGENT_SEARCH_MIN_VOLUME", "250")
	t.Setenv("POLYAGENT_RETRY_DELAY", "2s")
	t.Setenv("POLYAGENT_REDIS_ENABLED", "true")
	t.Setenv("POLYAGENT_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "search", cfg.Mode)
	assert.Equal(t, 80002, cfg.Polymarket.ChainID)
	assert.Equal(t, 250.0, cfg.Search.MinVolume)
	assert.Equal(t, 2*time.Second, cfg.Retry.Delay.Duration)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoadEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("POLYAGENT_POLYMARKET_CHAIN_ID", "not-a-number")
	t.Setenv("POLYAGENT_RETRY_DELAY", "soon")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 137, cfg.Polymarket.ChainID)
	assert.Equal(t, time.Second, cfg.Retry.Delay.Duration)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "daemon"
	cfg.Polymarket.SignatureType = 7
	cfg.Search.MinScore = 1.5
	cfg.Search.RiskTolerance = "yolo"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mode "daemon"`)
	assert.Contains(t, err.Error(), "signature_type")
	assert.Contains(t, err.Error(), "min_score")
	assert.Contains(t, err.Error(), "risk_tolerance")
}

func TestValidateEncryptedKeyNeedsPassword(t *testing.T) {
	cfg := Defaults()
	cfg.Wallet.EncryptedKeyPath = "/tmp/key.enc"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key_password")

	cfg.Wallet.KeyPassword = "hunter2"
	assert.NoError(t, cfg.Validate())
}

func TestValidateConditionalSections(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Enabled = true
	cfg.Postgres.Host = ""
	cfg.Postgres.DSN = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: host")

	// A DSN stands in for the discrete connection fields.
	cfg.Postgres.DSN = "postgres://u:p@db:5432/polyagent"
	assert.NoError(t, cfg.Validate())

	cfg.S3.Enabled = true
	cfg.S3.Bucket = ""
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3: bucket")
}

func TestValidateSubmitWindow(t *testing.T) {
	cfg := Defaults()
	cfg.Orders.SubmitLimit = 5
	cfg.Orders.SubmitWindow = duration{}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "submit_window")

	// Zero limit disables the limiter entirely, window irrelevant.
	cfg.Orders.SubmitLimit = 0
	assert.NoError(t, cfg.Validate())
}

func TestDurationRoundTrip(t *testing.T) {
	var d duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("forever")))
}
