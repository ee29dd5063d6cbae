package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pricewatch/opsctl/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ConfigMockLogger is a no-op Logger implementation for testing
type ConfigMockLogger struct{}

func (m *ConfigMockLogger) Debugf(format string, args ...interface{}) {}
func (m *ConfigMockLogger) Infof(format string, args ...interface{})  {}
func (m *ConfigMockLogger) Warnf(format string, args ...interface{})  {}
func (m *ConfigMockLogger) Errorf(format string, args ...interface{}) {}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_AllKeys(t *testing.T) {
	path := writeConfigFile(t, `REMOTE_USER=deploy
REMOTE_HOST=203.0.113.10
REMOTE_PATH=/opt/pricewatch
REPO_URL=https://example.com/pricewatch.git
TELEGRAM_BOT_TOKEN=123456:secret
WEB_PORT=9000
`)

	cfg, err := Load(path, &ConfigMockLogger{})
	require.NoError(t, err)

	assert.Equal(t, "deploy", cfg.RemoteUser)
	assert.Equal(t, "203.0.113.10", cfg.RemoteHost)
	assert.Equal(t, "/opt/pricewatch", cfg.RemotePath)
	assert.Equal(t, "https://example.com/pricewatch.git", cfg.RepoURL)
	assert.Equal(t, "123456:secret", cfg.BotToken)
	assert.Equal(t, "9000", cfg.WebPort)
}

func TestLoad_TrimsWhitespace(t *testing.T) {
	path := writeConfigFile(t, "REMOTE_HOST=  203.0.113.10  \n")

	cfg, err := Load(path, &ConfigMockLogger{})
	require.NoError(t, err)

	assert.Equal(t, "203.0.113.10", cfg.RemoteHost)
}

func TestLoad_WebPortDefault(t *testing.T) {
	path := writeConfigFile(t, "TELEGRAM_BOT_TOKEN=abc\n")

	cfg, err := Load(path, &ConfigMockLogger{})
	require.NoError(t, err)

	assert.Equal(t, DefaultWebPort, cfg.WebPort)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.env"), &ConfigMockLogger{})

	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestRequireDeploy(t *testing.T) {
	tests := []struct {
		name       string
		config     Config
		missingKey string
	}{
		{
			name: "complete configuration",
			config: Config{
				RemoteUser: "deploy",
				RemoteHost: "203.0.113.10",
				RemotePath: "/opt/pricewatch",
				RepoURL:    "https://example.com/pricewatch.git",
			},
		},
		{
			name: "missing remote host",
			config: Config{
				RemoteUser: "deploy",
				RemotePath: "/opt/pricewatch",
				RepoURL:    "https://example.com/pricewatch.git",
			},
			missingKey: KeyRemoteHost,
		},
		{
			name: "missing repository",
			config: Config{
				RemoteUser: "deploy",
				RemoteHost: "203.0.113.10",
				RemotePath: "/opt/pricewatch",
			},
			missingKey: KeyRepoURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.RequireDeploy()
			if tt.missingKey == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsConfigError(err))
			assert.Contains(t, err.Error(), tt.missingKey)
		})
	}
}

func TestRequireWorker_MissingToken(t *testing.T) {
	cfg := Config{}

	err := cfg.RequireWorker()

	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
	assert.Contains(t, err.Error(), KeyBotToken)
}

func TestDefaultServices(t *testing.T) {
	services := DefaultServices()

	require.Contains(t, services, ServiceWorker)
	require.Contains(t, services, ServiceWeb)
	assert.NotEmpty(t, services[ServiceWorker].Command)
	assert.NotEmpty(t, services[ServiceWeb].Command)
	assert.Greater(t, services[ServiceWorker].GracePeriod.Std(), time.Duration(0))
}

func TestLoadServicesFromFile_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.yaml")
	content := `services:
  worker:
    command: ./bot
    log_file: /var/log/pricewatch/bot.log
    grace_period: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	services, err := LoadServicesFromFile(path, &ConfigMockLogger{})
	require.NoError(t, err)

	assert.Equal(t, "./bot", services[ServiceWorker].Command)
	assert.Equal(t, "/var/log/pricewatch/bot.log", services[ServiceWorker].LogFile)
	assert.Equal(t, 30*time.Second, services[ServiceWorker].GracePeriod.Std())
	// Untouched service keeps defaults
	assert.Equal(t, DefaultServices()[ServiceWeb].Command, services[ServiceWeb].Command)
}

func TestLoadServicesFromFile_UnknownService(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.yaml")
	content := `services:
  cron:
    command: ./cron
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadServicesFromFile(path, &ConfigMockLogger{})

	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}
