package config

import (
	"fmt"
	"strings"

	"github.com/pricewatch/opsctl/pkg/errors"
	"github.com/pricewatch/opsctl/pkg/logging"

	"github.com/joho/godotenv"
)

// Recognized configuration keys in the KEY=VALUE file
const (
	KeyRemoteUser = "REMOTE_USER"
	KeyRemoteHost = "REMOTE_HOST"
	KeyRemotePath = "REMOTE_PATH"
	KeyRepoURL    = "REPO_URL"
	KeyBotToken   = "TELEGRAM_BOT_TOKEN"
	KeyWebPort    = "WEB_PORT"
)

// DefaultWebPort is applied when WEB_PORT is absent; it is used for
// reporting only, the web process reads its own environment.
const DefaultWebPort = "8080"

// Config holds the settings loaded from the KEY=VALUE configuration file.
// Loaded once per invocation and immutable for the duration of a run.
type Config struct {
	RemoteUser string
	RemoteHost string
	RemotePath string
	RepoURL    string
	BotToken   string
	WebPort    string
}

// Load reads the KEY=VALUE configuration file at path. Values are trimmed
// of surrounding whitespace; missing optional keys are left empty, the web
// port default is applied. Required-key enforcement is deferred to the
// RequireXxx methods so each command checks only what it needs.
func Load(path string, logger logging.Logger) (*Config, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.NewConfigError("failed to read configuration file", err).WithContext("path", path)
	}

	get := func(key string) string {
		return strings.TrimSpace(values[key])
	}

	config := &Config{
		RemoteUser: get(KeyRemoteUser),
		RemoteHost: get(KeyRemoteHost),
		RemotePath: get(KeyRemotePath),
		RepoURL:    get(KeyRepoURL),
		BotToken:   get(KeyBotToken),
		WebPort:    get(KeyWebPort),
	}

	if config.WebPort == "" {
		config.WebPort = DefaultWebPort
	}

	logger.Debugf("Configuration loaded, path: %s, remote host: %q, web port: %s",
		path, config.RemoteHost, config.WebPort)

	return config, nil
}

// RequireDeploy validates the settings the deployment pipeline needs.
// The pipeline must fail before stage 1 executes when any is missing.
func (c *Config) RequireDeploy() error {
	required := []struct {
		key   string
		value string
	}{
		{KeyRemoteHost, c.RemoteHost},
		{KeyRemoteUser, c.RemoteUser},
		{KeyRemotePath, c.RemotePath},
		{KeyRepoURL, c.RepoURL},
	}

	for _, r := range required {
		if r.value == "" {
			return errors.NewConfigError(fmt.Sprintf("required configuration key %s is not set", r.key), nil).WithContext("key", r.key)
		}
	}
	return nil
}

// RequireWorker validates the settings the worker process needs before
// it may be spawned.
func (c *Config) RequireWorker() error {
	if c.BotToken == "" {
		return errors.NewConfigError(fmt.Sprintf("required configuration key %s is not set", KeyBotToken), nil).WithContext("key", KeyBotToken)
	}
	return nil
}
