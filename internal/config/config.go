package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mitchelldurbincs/navalhub/internal/strategy"
)

// Config holds all configuration for the hub and agent binaries
type Config struct {
	Hub         HubConfig         `mapstructure:"hub"`
	Agent       AgentConfig       `mapstructure:"agent"`
	Selfplay    SelfplayConfig    `mapstructure:"selfplay"`
	Development DevelopmentConfig `mapstructure:"development"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
}

// HubConfig holds referee settings
type HubConfig struct {
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	ReadTimeoutMs int    `mapstructure:"read_timeout_ms"`
	MaxRehits     int    `mapstructure:"max_rehits"`
	MaxSessions   int    `mapstructure:"max_sessions"`
	ShowBoards    bool   `mapstructure:"show_boards"`
}

// ReadTimeout returns the per-line agent read timeout, zero for none
func (h HubConfig) ReadTimeout() time.Duration {
	return time.Duration(h.ReadTimeoutMs) * time.Millisecond
}

// AgentConfig holds agent settings
type AgentConfig struct {
	LogLevel          string `mapstructure:"log_level"`
	Strategy          string `mapstructure:"strategy"`
	PlacementAttempts int    `mapstructure:"placement_attempts"`
	PlacementSpacing  bool   `mapstructure:"placement_spacing"`
}

// SelfplayConfig holds settings for in-process self-play runs
type SelfplayConfig struct {
	Games      int    `mapstructure:"games"`
	Workers    int    `mapstructure:"workers"`
	Strategy1  string `mapstructure:"strategy_1"`
	Strategy2  string `mapstructure:"strategy_2"`
	OutputFile string `mapstructure:"output_file"`
}

// DevelopmentConfig holds development/debug settings
type DevelopmentConfig struct {
	VerboseEvents bool `mapstructure:"verbose_events"`
}

// MonitoringConfig holds session metrics settings
type MonitoringConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalSeconds int  `mapstructure:"interval_seconds"`
}

// Interval returns the metrics logging interval
func (m MonitoringConfig) Interval() time.Duration {
	return time.Duration(m.IntervalSeconds) * time.Second
}

var (
	// Global config instance
	cfg *Config
	v   *viper.Viper
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// setViperDefaults sets all default values using Viper's SetDefault
func setViperDefaults(v *viper.Viper) {
	// Hub defaults
	v.SetDefault("hub.log_level", "info")
	v.SetDefault("hub.log_format", "console")
	v.SetDefault("hub.read_timeout_ms", 0)
	v.SetDefault("hub.max_rehits", 0)
	v.SetDefault("hub.max_sessions", 0)
	v.SetDefault("hub.show_boards", true)

	// Agent defaults
	v.SetDefault("agent.log_level", "warn")
	v.SetDefault("agent.strategy", "hunt")
	v.SetDefault("agent.placement_attempts", 200)
	v.SetDefault("agent.placement_spacing", false)

	// Self-play defaults
	v.SetDefault("selfplay.games", 100)
	v.SetDefault("selfplay.workers", 4)
	v.SetDefault("selfplay.strategy_1", "sweep")
	v.SetDefault("selfplay.strategy_2", "hunt")
	v.SetDefault("selfplay.output_file", "")

	// Development defaults
	v.SetDefault("development.verbose_events", false)

	// Monitoring defaults
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.interval_seconds", 30)
}

// Init initializes the configuration
func Init(configPath string) error {
	v = viper.New()

	// Set defaults before loading any config
	setViperDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("naval")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/naval")
	}

	v.SetEnvPrefix("NAVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case configPath != "" && errors.Is(err, fs.ErrNotExist):
			// Specific file requested but missing; use defaults
		case configPath == "" && errors.As(err, &notFound):
			// No config in the default locations; use defaults
		default:
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return reload()
}

// BindFlags binds command line flags to config keys. names maps a flag
// name to its dotted config key. Flags that were set on the command line
// override every other source.
func BindFlags(flags *pflag.FlagSet, names map[string]string) error {
	for name, key := range names {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown flag %q for key %s", name, key)
		}
		if err := GetViper().BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag %q: %w", name, err)
		}
	}
	return reload()
}

// LoadDotEnv loads environment variables from the given .env files,
// skipping files that do not exist. Variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

func reload() error {
	next := &Config{}
	if err := v.Unmarshal(next); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := Validate(next); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	cfg = next
	return nil
}

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		// Initialize with defaults if not already initialized
		if err := Init(""); err != nil {
			panic("failed to initialize config with defaults: " + err.Error())
		}
	}
	return cfg
}

// GetViper returns the viper instance for advanced usage
func GetViper() *viper.Viper {
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// LoadEnvironmentConfig merges naval.<env>.yaml over the loaded config.
// The overlay is looked up next to the base file, or in the working
// directory when there is none. A missing overlay is not an error.
func LoadEnvironmentConfig(env string) error {
	if env == "" {
		return nil
	}

	base := v.ConfigFileUsed()
	envFile := fmt.Sprintf("naval.%s.yaml", env)
	if base != "" {
		envFile = filepath.Join(filepath.Dir(base), envFile)
	}
	if _, err := os.Stat(envFile); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	v.SetConfigFile(envFile)
	err := v.MergeInConfig()
	// Keep watching the base file
	v.SetConfigFile(base)
	if err != nil {
		return fmt.Errorf("error merging environment config %s: %w", envFile, err)
	}

	return reload()
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return v.ConfigFileUsed()
}

// WatchConfig enables hot-reloading of config file
func WatchConfig(onChange func(*Config)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if err := reload(); err != nil {
			log.Warn().Err(err).Str("file", e.Name).Msg("Ignoring invalid config change")
			return
		}
		log.Info().Str("file", e.Name).Msg("Config reloaded")
		if onChange != nil {
			onChange(cfg)
		}
	})
	v.WatchConfig()
}

// Validate validates the configuration values
func Validate(c *Config) error {
	if !validLogLevels[c.Hub.LogLevel] {
		return fmt.Errorf("hub.log_level must be one of trace, debug, info, warn, error")
	}
	if c.Hub.LogFormat != "console" && c.Hub.LogFormat != "json" {
		return fmt.Errorf("hub.log_format must be console or json")
	}
	if c.Hub.ReadTimeoutMs < 0 {
		return fmt.Errorf("hub.read_timeout_ms must be non-negative")
	}
	if c.Hub.MaxRehits < 0 {
		return fmt.Errorf("hub.max_rehits must be non-negative")
	}
	if c.Hub.MaxSessions < 0 {
		return fmt.Errorf("hub.max_sessions must be non-negative")
	}

	if !validLogLevels[c.Agent.LogLevel] {
		return fmt.Errorf("agent.log_level must be one of trace, debug, info, warn, error")
	}
	if _, err := strategy.ParseKind(c.Agent.Strategy); err != nil {
		return fmt.Errorf("agent.strategy: %w", err)
	}
	if c.Agent.PlacementAttempts < 0 {
		return fmt.Errorf("agent.placement_attempts must be non-negative")
	}

	if c.Selfplay.Games < 1 {
		return fmt.Errorf("selfplay.games must be positive")
	}
	if c.Selfplay.Workers < 1 {
		return fmt.Errorf("selfplay.workers must be positive")
	}
	for _, name := range []string{c.Selfplay.Strategy1, c.Selfplay.Strategy2} {
		if _, err := strategy.ParseKind(name); err != nil {
			return fmt.Errorf("selfplay strategy: %w", err)
		}
	}

	if c.Monitoring.Enabled && c.Monitoring.IntervalSeconds <= 0 {
		return fmt.Errorf("monitoring.interval_seconds must be positive when monitoring is enabled")
	}

	return nil
}
