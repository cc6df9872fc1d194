package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BARENGINE_FEED_URL", "BARENGINE_API_KEY", "BARENGINE_SYMBOLS", "BARENGINE_SQLITE_PATH",
		"BARENGINE_METRICS_ADDR", "BARENGINE_INPUT_QUEUE_CAPACITY", "BARENGINE_WORKER_COUNT",
		"BARENGINE_RECENT_TRADE_CAPACITY", "BARENGINE_BAR_LENGTH", "BARENGINE_RETENTION",
		"BARENGINE_GRACE_PERIOD", "BARENGINE_FLUSH_FREQUENCY",
	} {
		os.Unsetenv(k)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.BarLength)
	assert.Equal(t, 15*time.Minute, cfg.Retention)
	assert.Equal(t, 1, cfg.WorkerCount)
	assert.Equal(t, []string{"XT.BTC-USD"}, cfg.Symbols)
}

func TestLoadParsesOverrides(t *testing.T) {
	clearEnv(t)
	os.Setenv("BARENGINE_BAR_LENGTH", "10s")
	os.Setenv("BARENGINE_SYMBOLS", "XT.BTC-USD, XT.ETH-USD")
	os.Setenv("BARENGINE_WORKER_COUNT", "4")
	defer clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.BarLength)
	assert.Equal(t, []string{"XT.BTC-USD", "XT.ETH-USD"}, cfg.Symbols)
	assert.Equal(t, 4, cfg.WorkerCount)
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	clearEnv(t)
	os.Setenv("BARENGINE_BAR_LENGTH", "not-a-duration")
	defer clearEnv(t)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsZeroWorkerCount(t *testing.T) {
	clearEnv(t)
	os.Setenv("BARENGINE_WORKER_COUNT", "0")
	defer clearEnv(t)

	_, err := Load()
	assert.Error(t, err)
}
