package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robalyx/zoonas/internal/database/service"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.1.0"

// Current version of the config files.
const (
	CurrentCommonVersion = 1
	CurrentEngineVersion = 1
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig
	Engine EngineConfig
}

// CommonConfig contains infrastructure configuration.
type CommonConfig struct {
	// Version of the common config.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	Telemetry  Telemetry  `koanf:"telemetry"`
}

// EngineConfig contains the reputation engine limits and tuning.
type EngineConfig struct {
	// Version of the engine config.
	Version           int     `koanf:"version"`
	ModeratorLimit    int     `koanf:"moderator_limit"`
	SubscriptionLimit int     `koanf:"subscription_limit"`
	DefaultUserID     int64   `koanf:"default_user_id"`
	DefaultZoneID     int64   `koanf:"default_zone_id"`
	Score             Score   `koanf:"score"`
	Rescore           Rescore `koanf:"rescore"`
	Ranking           Ranking `koanf:"ranking"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
	// Enable pprof debugging.
	EnablePprof bool `koanf:"enable_pprof"`
	// pprof server port.
	PprofPort int `koanf:"pprof_port"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"db_name"`
	// Connection pool sizes.
	MaxOpenConns int `koanf:"max_open_conns"`
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetimes in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	// Disable client-side caching, required for servers without RESP3.
	DisableCache bool `koanf:"disable_cache"`
}

// Telemetry contains tracing export configuration.
type Telemetry struct {
	// Uptrace DSN; tracing is disabled when empty.
	DSN            string `koanf:"dsn"`
	ServiceName    string `koanf:"service_name"`
	ServiceVersion string `koanf:"service_version"`
	Environment    string `koanf:"environment"`
}

// Score contains the score engine constants.
type Score struct {
	Alpha               float64 `koanf:"alpha"`
	NonSubscriberWeight float64 `koanf:"non_subscriber_weight"`
	ThresholdFactor     float64 `koanf:"threshold_factor"`
	DisplayScale        float64 `koanf:"display_scale"`
}

// Rescore contains the maintenance worker configuration.
type Rescore struct {
	BatchSize   int `koanf:"batch_size"`
	Concurrency int `koanf:"concurrency"`
	// Interval between passes in minutes.
	Interval int `koanf:"interval"`
}

// IntervalDuration returns the pass interval as a duration.
func (r Rescore) IntervalDuration() time.Duration {
	return time.Duration(r.Interval) * time.Minute
}

// Ranking contains leaderboard publication configuration.
type Ranking struct {
	Enabled bool `koanf:"enabled"`
}

// Settings converts the engine config into service settings. Zero values fall back
// to the defaults.
func (e *EngineConfig) Settings() service.Settings {
	settings := service.DefaultSettings()

	if e.ModeratorLimit > 0 {
		settings.ModeratorLimit = e.ModeratorLimit
	}
	if e.SubscriptionLimit > 0 {
		settings.SubscriptionLimit = e.SubscriptionLimit
	}
	if e.DefaultUserID > 0 {
		settings.DefaultUserID = e.DefaultUserID
	}
	if e.DefaultZoneID > 0 {
		settings.DefaultZoneID = e.DefaultZoneID
	}

	policy := settings.Policy
	if e.Score.Alpha != 0 {
		policy.Alpha = e.Score.Alpha
	}
	if e.Score.NonSubscriberWeight != 0 {
		policy.NonSubscriberWeight = e.Score.NonSubscriberWeight
	}
	if e.Score.ThresholdFactor != 0 {
		policy.ThresholdFactor = e.Score.ThresholdFactor
	}
	if e.Score.DisplayScale != 0 {
		policy.DisplayScale = e.Score.DisplayScale
	}
	settings.Policy = policy.Normalize()

	return settings
}

// DefaultPaths returns the directories searched for config files, in order.
func DefaultPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return []string{
		".zoonas",
		filepath.Join(homeDir, ".zoonas", "config"),
		"/etc/zoonas/config",
		"/app/config",
		"/config",
		"config",
		".",
	}, nil
}

// LoadConfig loads the configuration from the default paths.
func LoadConfig() (*Config, string, error) {
	paths, err := DefaultPaths()
	if err != nil {
		return nil, "", err
	}

	return LoadConfigFrom(paths)
}

// LoadConfigFrom loads every config file from the first path that contains it and
// returns the directory the common config was found in.
func LoadConfigFrom(paths []string) (*Config, string, error) {
	var config Config

	usedConfigPath, err := loadFile(paths, "common", &config.Common)
	if err != nil {
		return nil, "", err
	}

	if _, err := loadFile(paths, "engine", &config.Engine); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("engine", config.Engine.Version, CurrentEngineVersion); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// loadFile unmarshals the first <name>.toml found in paths into out.
func loadFile(paths []string, name string, out any) (string, error) {
	for _, path := range paths {
		configPath := filepath.Join(path, name+".toml")
		if _, err := os.Stat(configPath); err != nil {
			continue
		}

		k := koanf.New(".")
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return "", fmt.Errorf("error loading %s: %w", configPath, err)
		}

		if err := k.Unmarshal("", out); err != nil {
			return "", fmt.Errorf("error unmarshaling %s: %w", configPath, err)
		}

		return path, nil
	}

	return "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, name)
}

func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/robalyx/zoonas/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
