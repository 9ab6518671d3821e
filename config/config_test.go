package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv 屏蔽宿主环境中的覆盖变量
func clearEnv(t *testing.T) {
	for _, key := range []string{"PORT", "DIGITAL_SERVER_PORT", "OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL",
		"DIGITAL_AI_API_KEY", "DIGITAL_AI_BASE_URL", "DIGITAL_AI_MODEL", "DIGITAL_COLLECTOR_FORCE_SAMPLE"} {
		t.Setenv(key, "")
	}
}

func TestInitConfigFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  port: 9090\nai:\n  model: gpt-4o\n  timeout: 15s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("OPENAI_API_KEY", "sk-test-key-1234567890")

	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "gpt-4o", cfg.AI.Model)
	assert.Equal(t, 15*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "sk-test-key-1234567890", cfg.AI.APIKey)
	assert.Equal(t, "uploads", cfg.Storage.UploadDir)
	assert.Equal(t, 30, cfg.Collector.HistoryDays)
	assert.Equal(t, "*.lnk", cfg.Collector.RecentPattern)
}

func TestInitConfigEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))
	t.Setenv("DIGITAL_SERVER_PORT", "7000")
	t.Setenv("DIGITAL_COLLECTOR_FORCE_SAMPLE", "true")

	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.True(t, cfg.Collector.ForceSample)
}

func TestInitConfigMissingExplicitFile(t *testing.T) {
	_, err := InitConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefault(path, false))
	assert.Error(t, WriteDefault(path, false))
	require.NoError(t, WriteDefault(path, true))

	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Default().AI.Timeout, cfg.AI.Timeout)
	assert.Equal(t, Default().Report.PDFTimeout, cfg.Report.PDFTimeout)
	assert.Equal(t, Default().Server, cfg.Server)
}

func TestServerURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", ServerConfig{Host: "0.0.0.0", Port: 8080}.URL())
	assert.Equal(t, "http://127.0.0.1:9000", ServerConfig{Host: "127.0.0.1", Port: 9000}.URL())
	assert.Equal(t, "127.0.0.1:9000", ServerConfig{Host: "127.0.0.1", Port: 9000}.Addr())
}

func TestSetupLogger(t *testing.T) {
	defer log.SetLevel(log.GetLevel())

	SetupLogger(LogConfig{Level: "debug", Format: "json"})
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	_, ok := log.StandardLogger().Formatter.(*log.JSONFormatter)
	assert.True(t, ok)

	SetupLogger(LogConfig{Level: "nope"})
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}
