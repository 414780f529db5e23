package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robalyx/zoonas/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

const commonTOML = `
version = 1

[debug]
log_level = "debug"

[postgresql]
host = "db"
port = 5433
db_name = "zoonas"

[redis]
host = "cache"
port = 6380
disable_cache = true
`

func TestLoadConfigFrom(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "common.toml", commonTOML)
	writeFile(t, dir, "engine.toml", `
version = 1
moderator_limit = 3

[score]
alpha = 0.25

[rescore]
interval = 15
`)

	cfg, used, err := config.LoadConfigFrom([]string{t.TempDir(), dir})
	require.NoError(t, err)
	assert.Equal(t, dir, used)

	assert.Equal(t, "debug", cfg.Common.Debug.LogLevel)
	assert.Equal(t, "db", cfg.Common.PostgreSQL.Host)
	assert.Equal(t, 5433, cfg.Common.PostgreSQL.Port)
	assert.True(t, cfg.Common.Redis.DisableCache)
	assert.Equal(t, 3, cfg.Engine.ModeratorLimit)
	assert.Equal(t, 15*60.0, cfg.Engine.Rescore.IntervalDuration().Seconds())

	settings := cfg.Engine.Settings()
	assert.Equal(t, 3, settings.ModeratorLimit)
	assert.Equal(t, 10, settings.SubscriptionLimit)
	assert.Equal(t, int64(1), settings.DefaultUserID)
	assert.Equal(t, int64(1), settings.DefaultZoneID)
	assert.InDelta(t, 0.25, settings.Policy.Alpha, 1e-9)
	assert.InDelta(t, 0.5, settings.Policy.NonSubscriberWeight, 1e-9)
	assert.InDelta(t, 5.0, settings.Policy.ThresholdFactor, 1e-9)
}

func TestLoadConfigFromErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		engine string
		want   error
	}{
		{name: "missing engine file", want: config.ErrConfigFileNotFound},
		{name: "missing version", engine: "moderator_limit = 5\n", want: config.ErrConfigVersionMissing},
		{name: "version mismatch", engine: "version = 7\n", want: config.ErrConfigVersionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeFile(t, dir, "common.toml", commonTOML)
			if tt.engine != "" {
				writeFile(t, dir, "engine.toml", tt.engine)
			}

			_, _, err := config.LoadConfigFrom([]string{dir})
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSettingsNormalizesPolicy(t *testing.T) {
	t.Parallel()

	engine := config.EngineConfig{Score: config.Score{Alpha: 3}}
	settings := engine.Settings()

	assert.InDelta(t, 0.1, settings.Policy.Alpha, 1e-9)
	assert.Equal(t, 5, settings.ModeratorLimit)
}
