package viper

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/actr-go/core/actor"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadConfig_defaults(t *testing.T) {
	cfg, err := LoadConfig("", "ACTR_TEST_DEFAULTS")
	require.NoError(t, err)
	require.Equal(t, actor.DefaultConfig(), cfg)
}

func TestLoadConfig_yaml(t *testing.T) {
	p := writeFile(t, "actr.yaml", `
name: orders
host: 10.0.0.1
port: 7000
dead_letter_throttle_interval: 5s
dead_letter_request_logging: false
metrics_enabled: true
`)

	cfg, err := LoadConfig(p, "ACTR_TEST_YAML")
	require.NoError(t, err)
	require.Equal(t, "orders", cfg.Name)
	require.Equal(t, "10.0.0.1:7000", cfg.Address())
	require.Equal(t, 5*time.Second, cfg.DeadLetterThrottleInterval)
	require.Equal(t, 10, cfg.DeadLetterThrottleCount)
	require.False(t, cfg.DeadLetterRequestLogging)
	require.True(t, cfg.MetricsEnabled)
}

func TestLoadConfig_json(t *testing.T) {
	p := writeFile(t, "actr.json", `{"name": "billing", "worker_threads": 3}`)

	cfg, err := LoadConfig(p, "ACTR_TEST_JSON")
	require.NoError(t, err)
	require.Equal(t, "billing", cfg.Name)
	require.Equal(t, 3, cfg.WorkerThreads)
	require.Equal(t, actor.NoHost, cfg.Host)
}

func TestLoadConfig_env_overrides_file(t *testing.T) {
	p := writeFile(t, "actr.toml", "name = \"file\"\nport = 7000\n")
	t.Setenv("ACTR_TEST_ENV_NAME", "env")
	t.Setenv("ACTR_TEST_ENV_DEVELOPER_SUPERVISION_LOGGING", "true")

	cfg, err := LoadConfig(p, "ACTR_TEST_ENV")
	require.NoError(t, err)
	require.Equal(t, "env", cfg.Name)
	require.Equal(t, 7000, cfg.Port)
	require.True(t, cfg.DeveloperSupervisionLogging)
}

func TestLoadConfig_errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.ErrorContains(t, err, "failed to read config")

	p := writeFile(t, "bad.yaml", "port: [1, 2")
	_, err = LoadConfig(p, "")
	require.Error(t, err)

	p = writeFile(t, "type.yaml", "port: not-a-number")
	_, err = LoadConfig(p, "")
	require.ErrorContains(t, err, "failed to unmarshal config")
}
