// Package config loads application configuration from file and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/subwatch/subwatch/internal/provider"
)

// Version is the application version, set at build time.
var Version = "dev"

// Config holds all application configuration.
type Config struct {
	Database  DatabaseConfig    `mapstructure:"database"`
	Logging   LoggingConfig     `mapstructure:"logging"`
	Search    SearchConfig      `mapstructure:"search"`
	Retry     RetryConfig       `mapstructure:"retry"`
	Upgrade   UpgradeConfig     `mapstructure:"upgrade"`
	Sync      SyncConfig        `mapstructure:"sync"`
	Notify    NotifyConfig      `mapstructure:"notify"`
	Scheduler SchedulerConfig   `mapstructure:"scheduler"`
	Providers []provider.Config `mapstructure:"providers"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SearchConfig holds score thresholds for candidate acceptance.
type SearchConfig struct {
	// MinimumPercentEpisode/Movie reject candidates scoring below this
	// percentage of the kind-specific max score.
	MinimumPercentEpisode float64 `mapstructure:"minimum_percent_episode"`
	MinimumPercentMovie   float64 `mapstructure:"minimum_percent_movie"`
	// ProviderTimeout bounds each provider search or fetch call.
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
}

// RetryConfig holds the adaptive search backoff windows.
type RetryConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	InitialDelay  time.Duration `mapstructure:"initial_delay"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// UpgradeConfig holds upgrade sweep configuration.
type UpgradeConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// WindowDays is the rolling history window the sweep examines.
	WindowDays int `mapstructure:"window_days"`
	// NearPerfectPercentEpisode/Movie: downloads at or above this
	// percentage are not considered upgradable.
	NearPerfectPercentEpisode float64 `mapstructure:"near_perfect_percent_episode"`
	NearPerfectPercentMovie   float64 `mapstructure:"near_perfect_percent_movie"`
	// IncludeManual also considers manually uploaded subtitles.
	IncludeManual bool `mapstructure:"include_manual"`
}

// SyncConfig holds the external subtitle-sync hook configuration.
type SyncConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Command string `mapstructure:"command"`
	// ThresholdPercent: winners scoring below this percentage are synced.
	ThresholdPercent float64       `mapstructure:"threshold_percent"`
	Timeout          time.Duration `mapstructure:"timeout"`
	// PostCommand is an optional post-processing hook run after each
	// stored subtitle.
	PostCommand string `mapstructure:"post_command"`
}

// NotifyConfig holds outbound notification configuration.
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

// SchedulerConfig holds the periodic job intervals.
type SchedulerConfig struct {
	WantedSeriesInterval time.Duration `mapstructure:"wanted_series_interval"`
	WantedMoviesInterval time.Duration `mapstructure:"wanted_movies_interval"`
	UpgradeInterval      time.Duration `mapstructure:"upgrade_interval"`
	MaintenanceInterval  time.Duration `mapstructure:"maintenance_interval"`
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults.
func Load(configPath string) (*Config, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}
	return unmarshal(v)
}

// Watch re-reads the configuration whenever the file changes on disk and
// hands the fresh snapshot to onChange. A snapshot that fails to parse is
// dropped and the previous configuration stays in effect. Returns false
// when no config file is in use, in which case nothing is watched.
func Watch(configPath string, onChange func(*Config)) (bool, error) {
	v, err := newViper(configPath)
	if err != nil {
		return false, err
	}
	if v.ConfigFileUsed() == "" {
		return false, nil
	}

	v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := unmarshal(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return true, nil
}

func newViper(configPath string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.subwatch")
	}

	v.SetEnvPrefix("SUBWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults + env vars
	}
	return v, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "./data/subwatch.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", "")

	v.SetDefault("search.minimum_percent_episode", 90.0)
	v.SetDefault("search.minimum_percent_movie", 70.0)
	v.SetDefault("search.provider_timeout", "60s")

	v.SetDefault("retry.enabled", true)
	v.SetDefault("retry.initial_delay", "504h")  // 3 weeks
	v.SetDefault("retry.retry_interval", "168h") // 1 week

	v.SetDefault("upgrade.enabled", true)
	v.SetDefault("upgrade.window_days", 7)
	v.SetDefault("upgrade.near_perfect_percent_episode", 99.0)
	v.SetDefault("upgrade.near_perfect_percent_movie", 99.0)
	v.SetDefault("upgrade.include_manual", false)

	v.SetDefault("sync.enabled", false)
	v.SetDefault("sync.threshold_percent", 90.0)
	v.SetDefault("sync.timeout", "5m")

	v.SetDefault("scheduler.wanted_series_interval", "3h")
	v.SetDefault("scheduler.wanted_movies_interval", "3h")
	v.SetDefault("scheduler.upgrade_interval", "12h")
	v.SetDefault("scheduler.maintenance_interval", "24h")
}
