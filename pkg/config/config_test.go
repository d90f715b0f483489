package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/betbot/gomomentum/pkg/secretstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"BROKER_LOGIN", "BROKER_PASSWORD", "BROKER_SERVER", "SECRET_STORE_PATH", "SECRET_STORE_KEY",
	"GATEWAY_URL", "GATEWAY_TOKEN", "GATEWAY_TIMEOUT_SECONDS", "GATEWAY_RETRY_COUNT", "DRY_RUN",
	"YAHOO_BASE_URL", "DATA_TIMEOUT_SECONDS", "DATA_RETRY_COUNT", "DATA_REQUESTS_PER_SECOND", "FOREX_SUFFIX",
	"SYMBOLS", "VOLUME", "LOOKBACK_DAYS", "STOP_LOSS_PCT", "TAKE_PROFIT_PCT", "DEVIATION_POINTS",
	"ROUND_LEVELS", "MAGIC", "DEDUPE_WINDOW_SECONDS", "LOG_LEVEL", "LOG_FILE", "SERVER_ADDR",
	"SERVER_CACHE_TTL_SECONDS", "SERVER_DEBUG",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLookbackDays, cfg.Trading.LookbackDays)
	assert.True(t, cfg.Trading.Volume.Equal(decimal.RequireFromString("0.1")))
	assert.True(t, cfg.Trading.StopLossPct.Equal(decimal.RequireFromString("0.005")))
	assert.True(t, cfg.Trading.TakeProfitPct.Equal(decimal.RequireFromString("0.01")))
	assert.Equal(t, DefaultDeviationPoints, cfg.Trading.DeviationPoints)
	assert.True(t, cfg.Trading.RoundLevels)
	assert.Equal(t, int64(DefaultMagic), cfg.Trading.Magic)
	assert.Equal(t, DefaultForexSuffix, cfg.Data.ForexSuffix)
	assert.Equal(t, DefaultYahooBaseURL, cfg.Data.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.False(t, cfg.Gateway.DryRun)
	assert.Empty(t, cfg.Trading.Symbols)
	assert.Equal(t, time.Minute, cfg.Server.CacheTTL)
	assert.False(t, cfg.Server.EnableDebug)
	assert.Same(t, cfg, Get())
}

func TestLoadFromYAMLOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOOKBACK_DAYS", "7")
	t.Setenv("BROKER_SERVER", "Env-Server")
	t.Setenv("SYMBOLS", "gbpusd")

	p := writeFile(t, "config.yaml", `
broker:
  login: 5001
  password: secret
gateway:
  base_url: http://terminal:9000
  dry_run: true
  retry_count: 0
data:
  symbol_map:
    GOLD: GC=F
trading:
  symbols: [" eurusd", "XAUUSD", ""]
  volume: 0.25
  lookback_days: 5
  deviation_points: 10
  round_levels: false
  dedupe_window_seconds: 60
server:
  cache_ttl_seconds: 0
  enable_debug: true
`)
	cfg, err := LoadFromFile(p)
	require.NoError(t, err)

	assert.Equal(t, int64(5001), cfg.Broker.Login)
	assert.Equal(t, "secret", cfg.Broker.Password)
	assert.Equal(t, "Env-Server", cfg.Broker.Server, "missing file value falls back to env")
	assert.Equal(t, "http://terminal:9000", cfg.Gateway.BaseURL)
	assert.True(t, cfg.Gateway.DryRun)
	assert.Equal(t, 0, cfg.Gateway.RetryCount)
	assert.Equal(t, map[string]string{"GOLD": "GC=F"}, cfg.Data.SymbolMap)
	assert.Equal(t, []string{"EURUSD", "XAUUSD"}, cfg.Trading.Symbols)
	assert.True(t, cfg.Trading.Volume.Equal(decimal.RequireFromString("0.25")))
	assert.Equal(t, 5, cfg.Trading.LookbackDays)
	assert.Equal(t, 10, cfg.Trading.DeviationPoints)
	assert.False(t, cfg.Trading.RoundLevels)
	assert.Equal(t, time.Minute, cfg.Trading.DedupeWindow)
	assert.Equal(t, time.Duration(0), cfg.Server.CacheTTL)
	assert.True(t, cfg.Server.EnableDebug)
	assert.NoError(t, cfg.ValidateCredentials())
}

func TestLoadFromJSON(t *testing.T) {
	clearEnv(t)
	p := writeFile(t, "config.json", `{"trading":{"symbols":["AAPL"],"stop_loss_pct":0.02}}`)

	cfg, err := LoadFromFile(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, cfg.Trading.Symbols)
	assert.True(t, cfg.Trading.StopLossPct.Equal(decimal.RequireFromString("0.02")))
}

func TestLoadEnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("SYMBOLS", "eurusd, xauusd,,")
	t.Setenv("VOLUME", "-3")
	t.Setenv("LOOKBACK_DAYS", "0")
	t.Setenv("DRY_RUN", "true")
	t.Setenv("BROKER_LOGIN", "42")

	cfg, err := LoadFromFile("")
	require.NoError(t, err)
	assert.Equal(t, []string{"EURUSD", "XAUUSD"}, cfg.Trading.Symbols)
	// 非法输入回退到默认值
	assert.True(t, cfg.Trading.Volume.Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, DefaultLookbackDays, cfg.Trading.LookbackDays)
	assert.True(t, cfg.Gateway.DryRun)
	assert.Equal(t, int64(42), cfg.Broker.Login)
	assert.Error(t, cfg.ValidateCredentials())
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)

	_, err := LoadFromFile(writeFile(t, "config.toml", "x = 1"))
	assert.Error(t, err)

	_, err = LoadFromFile(writeFile(t, "bad.yaml", "trading:\n  stop_loss_pct: 1.5\n"))
	assert.Error(t, err)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	p := writeFile(t, ".env", "BROKER_PASSWORD=from-dotenv\nBROKER_SERVER=Dotenv-Server\n")
	t.Setenv("BROKER_SERVER", "Already-Set")
	os.Unsetenv("BROKER_PASSWORD")
	t.Cleanup(func() { os.Unsetenv("BROKER_PASSWORD") })

	LoadDotEnv(p, filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, "from-dotenv", os.Getenv("BROKER_PASSWORD"))
	assert.Equal(t, "Already-Set", os.Getenv("BROKER_SERVER"))
}

func TestFillCredentialsFromStore(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	rawKey := "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	key, err := secretstore.ParseKey(rawKey)
	require.NoError(t, err)

	store, err := secretstore.Open(secretstore.OpenOptions{Path: dir, EncryptionKey: key})
	require.NoError(t, err)
	require.NoError(t, store.SetString(secretstore.KeyBrokerLogin, "101097885"))
	require.NoError(t, store.SetString(secretstore.KeyBrokerPassword, "from-store"))
	require.NoError(t, store.SetString(secretstore.KeyBrokerServer, "Store-Server"))
	require.NoError(t, store.Close())

	cfg := &Config{Broker: BrokerConfig{Server: "File-Server", StorePath: dir, StoreKey: rawKey}}
	require.NoError(t, cfg.FillCredentialsFromStore())
	assert.Equal(t, int64(101097885), cfg.Broker.Login)
	assert.Equal(t, "from-store", cfg.Broker.Password)
	assert.Equal(t, "File-Server", cfg.Broker.Server, "explicit value wins over store")

	none := &Config{}
	assert.NoError(t, none.FillCredentialsFromStore())
}
