package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 8080
  max_connections: 5000
  public_url: "https://party.example.com"

redis:
  enabled: true
  addr: "redis:6379"
  password: "secret"
  db: 1

game:
  max_players: 12
  race_laps: 5
  quiz_questions: 10

trivia:
  enabled: false
  timeout_ms: 1500

security:
  allowed_origins:
    - "http://localhost:3000"
    - "https://example.com"
  rate_limit:
    max_per_second: 20
    max_per_minute: 120
    ban_duration: 120
  message_limit:
    max_per_second: 50

log:
  level: debug
  pretty: false

shutdown:
  timeout: 2m
  check_interval: 10s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, 5000, cfg.Server.MaxConnections)
	assert.Equal(t, "https://party.example.com", cfg.Server.PublicURL)

	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)

	assert.Equal(t, GameConfig{MaxPlayers: 12, RaceLaps: 5, QuizQuestions: 10}, cfg.Game)

	assert.False(t, cfg.Trivia.Enabled)
	assert.Equal(t, "https://opentdb.com/api.php", cfg.Trivia.URL)
	assert.Equal(t, 1500*time.Millisecond, cfg.Trivia.Timeout())

	assert.Equal(t, []string{"http://localhost:3000", "https://example.com"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, 120*time.Second, cfg.Security.RateLimit.BanDurationDuration())
	assert.Equal(t, 50, cfg.Security.MessageLimit.MaxPerSecond)

	assert.Equal(t, LogConfig{Level: "debug", Pretty: false}, cfg.Log)
	assert.Equal(t, ShutdownConfig{Timeout: 2 * time.Minute, CheckInterval: 10 * time.Second}, cfg.Shutdown)
}

func TestLoad_PartialConfigUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	want := Default()
	want.Server.Port = 9000
	assert.Equal(t, want, cfg)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server:\n  port: 70000\n"))
	assert.ErrorContains(t, err, "invalid port")

	_, err = Load(writeConfig(t, "log:\n  level: verbose\n"))
	assert.ErrorContains(t, err, "invalid log level")
}

func TestFlags_Apply(t *testing.T) {
	t.Parallel()

	var f Flags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.Register(fs)
	require.NoError(t, fs.Parse([]string{"--port", "9090", "--redis_addr", "cache:6379", "--log-level", "warn"}))

	cfg := Default()
	require.NoError(t, f.Apply(fs, cfg))
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "unset flags keep the file value")
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, DefaultPath, f.ConfigPath)
}

func TestFlags_ApplyRejectsInvalid(t *testing.T) {
	t.Parallel()

	var f Flags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.Register(fs)
	require.NoError(t, fs.Parse([]string{"--log-level", "loud"}))

	assert.Error(t, f.Apply(fs, Default()))
}

func TestBindEnv(t *testing.T) {
	t.Setenv("PARTYHUB_PORT", "7000")
	t.Setenv("PARTYHUB_LOG_LEVEL", "error")

	var f Flags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.Register(fs)
	require.NoError(t, fs.Parse([]string{"--log-level", "debug"}))
	BindEnv(fs)

	cfg := Default()
	require.NoError(t, f.Apply(fs, cfg))
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level, "command line wins over env")
}
