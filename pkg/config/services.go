package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pricewatch/opsctl/pkg/errors"
	"github.com/pricewatch/opsctl/pkg/logging"

	"gopkg.in/yaml.v3"
)

// Service identifiers managed by the supervisor
const (
	ServiceWorker = "worker"
	ServiceWeb    = "web"
)

// Duration wraps time.Duration so YAML values like "10s" parse naturally.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ServiceConfig describes how one supervised service is spawned and stopped.
type ServiceConfig struct {
	Command     string   `yaml:"command"`
	Args        []string `yaml:"args,omitempty"`
	Environment []string `yaml:"environment,omitempty"`
	LogFile     string   `yaml:"log_file,omitempty"`
	GracePeriod Duration `yaml:"grace_period,omitempty"`
	SettleDelay Duration `yaml:"settle_delay,omitempty"`
}

// ServicesConfig is the top-level structure of the service definition file.
type ServicesConfig struct {
	Services map[string]ServiceConfig `yaml:"services"`
}

// DefaultServices returns the compiled-in service definitions used when no
// service definition file is present.
func DefaultServices() map[string]ServiceConfig {
	return map[string]ServiceConfig{
		ServiceWorker: {
			Command:     "python3",
			Args:        []string{"-m", "bot.main"},
			LogFile:     "logs/worker.log",
			GracePeriod: Duration(10 * time.Second),
			SettleDelay: Duration(1 * time.Second),
		},
		ServiceWeb: {
			Command:     "python3",
			Args:        []string{"web_main.py"},
			LogFile:     "logs/web.log",
			GracePeriod: Duration(10 * time.Second),
			SettleDelay: Duration(1 * time.Second),
		},
	}
}

// LoadServicesFromFile loads service definitions from a YAML file and merges
// them over the defaults. Only the worker and web service ids are accepted.
func LoadServicesFromFile(filename string, logger logging.Logger) (map[string]ServiceConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError("failed to read service definition file", err).WithContext("filename", filename)
	}

	var parsed ServicesConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, errors.NewValidationError("failed to parse service definition file", err).WithContext("filename", filename)
	}

	services := DefaultServices()
	for id, overlay := range parsed.Services {
		base, ok := services[id]
		if !ok {
			return nil, errors.NewValidationError(fmt.Sprintf("unknown service id: %s", id), nil).WithContext("filename", filename)
		}
		services[id] = mergeServiceConfig(base, overlay)
	}

	for id, service := range services {
		if service.Command == "" {
			return nil, errors.NewValidationError(fmt.Sprintf("service %s has an empty command", id), nil).WithContext("filename", filename)
		}
	}

	logger.Debugf("Service definitions loaded, filename: %s, services: %d", filename, len(services))

	return services, nil
}

func mergeServiceConfig(base, overlay ServiceConfig) ServiceConfig {
	if overlay.Command != "" {
		base.Command = overlay.Command
		base.Args = overlay.Args
	}
	if overlay.Environment != nil {
		base.Environment = overlay.Environment
	}
	if overlay.LogFile != "" {
		base.LogFile = overlay.LogFile
	}
	if overlay.GracePeriod > 0 {
		base.GracePeriod = overlay.GracePeriod
	}
	if overlay.SettleDelay > 0 {
		base.SettleDelay = overlay.SettleDelay
	}
	return base
}
