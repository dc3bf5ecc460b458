package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobals() {
	cfg = nil
	v = nil
}

func TestInit(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "naval.yaml")

	configContent := `
hub:
  log_level: debug
  read_timeout_ms: 1500
  max_rehits: 10
  show_boards: false
agent:
  strategy: sweep
monitoring:
  enabled: true
  interval_seconds: 5
`

	err := os.WriteFile(configFile, []byte(configContent), 0644)
	require.NoError(t, err)

	resetGlobals()
	require.NoError(t, Init(configFile))

	c := Get()
	assert.Equal(t, "debug", c.Hub.LogLevel)
	assert.Equal(t, 1500*time.Millisecond, c.Hub.ReadTimeout())
	assert.Equal(t, 10, c.Hub.MaxRehits)
	assert.False(t, c.Hub.ShowBoards)
	assert.Equal(t, "sweep", c.Agent.Strategy)
	assert.True(t, c.Monitoring.Enabled)
	assert.Equal(t, 5*time.Second, c.Monitoring.Interval())
	assert.Equal(t, configFile, ConfigFilePath())

	// Untouched keys keep their defaults
	assert.Equal(t, "console", c.Hub.LogFormat)
	assert.Equal(t, "warn", c.Agent.LogLevel)
}

func TestInitWithDefaults(t *testing.T) {
	resetGlobals()

	err := Init("/non/existent/path/naval.yaml")
	require.NoError(t, err)

	c := Get()
	assert.Equal(t, "info", c.Hub.LogLevel)
	assert.Equal(t, time.Duration(0), c.Hub.ReadTimeout())
	assert.True(t, c.Hub.ShowBoards)
	assert.Equal(t, "hunt", c.Agent.Strategy)
	assert.Equal(t, 200, c.Agent.PlacementAttempts)
	assert.Equal(t, 100, c.Selfplay.Games)
	assert.False(t, c.Monitoring.Enabled)
}

func TestInitRejectsInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "naval.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("hub:\n  max_rehits: -1\n"), 0644))

	resetGlobals()
	err := Init(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hub.max_rehits")
}

func TestEnvironmentVariables(t *testing.T) {
	resetGlobals()

	t.Setenv("NAVAL_HUB_MAX_REHITS", "7")
	t.Setenv("NAVAL_AGENT_STRATEGY", "random")

	require.NoError(t, Init("/non/existent/naval.yaml"))

	c := Get()
	assert.Equal(t, 7, c.Hub.MaxRehits)
	assert.Equal(t, "random", c.Agent.Strategy)
}

func TestLoadDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("NAVAL_HUB_LOG_LEVEL=error\n"), 0644))

	// godotenv never overrides variables that are already set; register
	// the key with t.Setenv so it is restored, then clear it.
	t.Setenv("NAVAL_HUB_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("NAVAL_HUB_LOG_LEVEL"))

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(tmpDir, "missing.env")))

	resetGlobals()
	require.NoError(t, Init("/non/existent/naval.yaml"))
	assert.Equal(t, "error", Get().Hub.LogLevel)
}

func TestBindFlags(t *testing.T) {
	resetGlobals()
	require.NoError(t, Init("/non/existent/naval.yaml"))

	flags := pflag.NewFlagSet("hub", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.Int("max-rehits", 0, "")
	flags.Int("read-timeout", 0, "")
	require.NoError(t, flags.Parse([]string{"--log-level=debug", "--max-rehits=3"}))

	require.NoError(t, BindFlags(flags, map[string]string{
		"log-level":    "hub.log_level",
		"max-rehits":   "hub.max_rehits",
		"read-timeout": "hub.read_timeout_ms",
	}))

	c := Get()
	assert.Equal(t, "debug", c.Hub.LogLevel)
	assert.Equal(t, 3, c.Hub.MaxRehits)
	assert.Equal(t, 0, c.Hub.ReadTimeoutMs)

	err := BindFlags(flags, map[string]string{"nope": "hub.log_level"})
	assert.Error(t, err)
}

func TestLoadEnvironmentConfig(t *testing.T) {
	tmpDir := t.TempDir()

	baseConfig := filepath.Join(tmpDir, "naval.yaml")
	baseContent := `
hub:
  max_rehits: 5
  log_level: info
`
	require.NoError(t, os.WriteFile(baseConfig, []byte(baseContent), 0644))

	envConfig := filepath.Join(tmpDir, "naval.prod.yaml")
	envContent := `
hub:
  max_rehits: 50
  log_format: json
`
	require.NoError(t, os.WriteFile(envConfig, []byte(envContent), 0644))

	t.Chdir(t.TempDir())

	resetGlobals()
	require.NoError(t, Init(baseConfig))
	require.NoError(t, LoadEnvironmentConfig("prod"))

	c := Get()
	assert.Equal(t, 50, c.Hub.MaxRehits)
	assert.Equal(t, "json", c.Hub.LogFormat)
	assert.Equal(t, "info", c.Hub.LogLevel)
	assert.Equal(t, baseConfig, ConfigFilePath(), "base file stays the watched one")

	t.Run("missing overlay", func(t *testing.T) {
		require.NoError(t, LoadEnvironmentConfig("staging"))
		assert.Equal(t, 50, Get().Hub.MaxRehits)
	})

	t.Run("empty env", func(t *testing.T) {
		require.NoError(t, LoadEnvironmentConfig(""))
	})

	t.Run("invalid overlay keeps previous config", func(t *testing.T) {
		bad := filepath.Join(tmpDir, "naval.bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("agent:\n  strategy: cheat\n"), 0644))

		require.Error(t, LoadEnvironmentConfig("bad"))
		assert.Equal(t, "hunt", Get().Agent.Strategy)
		assert.Equal(t, 50, Get().Hub.MaxRehits)
	})
}

func TestLoadEnvironmentConfig_NoBaseFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "naval.dev.yaml"), []byte("hub:\n  show_boards: false\n"), 0644))

	resetGlobals()
	require.NoError(t, Init(""))
	assert.True(t, Get().Hub.ShowBoards)

	require.NoError(t, LoadEnvironmentConfig("dev"))
	assert.False(t, Get().Hub.ShowBoards)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Hub:        HubConfig{LogLevel: "info", LogFormat: "console"},
			Agent:      AgentConfig{LogLevel: "warn", Strategy: "hunt"},
			Selfplay:   SelfplayConfig{Games: 1, Workers: 1, Strategy1: "sweep", Strategy2: "random"},
			Monitoring: MonitoringConfig{Enabled: false},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad hub level", func(c *Config) { c.Hub.LogLevel = "loud" }, "hub.log_level"},
		{"bad format", func(c *Config) { c.Hub.LogFormat = "xml" }, "hub.log_format"},
		{"negative timeout", func(c *Config) { c.Hub.ReadTimeoutMs = -1 }, "hub.read_timeout_ms"},
		{"negative sessions", func(c *Config) { c.Hub.MaxSessions = -2 }, "hub.max_sessions"},
		{"bad agent level", func(c *Config) { c.Agent.LogLevel = "" }, "agent.log_level"},
		{"unknown strategy", func(c *Config) { c.Agent.Strategy = "cheat" }, "agent.strategy"},
		{"no games", func(c *Config) { c.Selfplay.Games = 0 }, "selfplay.games"},
		{"no workers", func(c *Config) { c.Selfplay.Workers = 0 }, "selfplay.workers"},
		{"bad selfplay strategy", func(c *Config) { c.Selfplay.Strategy2 = "x" }, "selfplay strategy"},
		{"monitoring without interval", func(c *Config) { c.Monitoring.Enabled = true }, "monitoring.interval_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := Validate(c)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
