package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pricewatch/opsctl/pkg/config"
	"github.com/pricewatch/opsctl/pkg/deploy"
	"github.com/pricewatch/opsctl/pkg/handlestore"
	"github.com/pricewatch/opsctl/pkg/logging"
	"github.com/pricewatch/opsctl/pkg/remote"
	"github.com/pricewatch/opsctl/pkg/supervisor"

	flags "github.com/jessevdk/go-flags"
)

const usage = `usage: opsctl [options] <command>

commands:
  start       spawn the worker process if not already running
  stop        gracefully then forcibly stop the worker process
  restart     stop then start the worker process
  start-web   spawn the web process if not already running
  stop-web    gracefully then forcibly stop the web process
  restart-web stop then start the web process
  status      report worker liveness
  status-web  report web liveness
  deploy      run the five-stage remote deployment pipeline`

type flagOptions struct {
	Config   string `long:"config" description:"path to the KEY=VALUE configuration file (default: $OPSCTL_CONFIG or .env)"`
	Services string `long:"services" description:"path to the service definition file (default: $OPSCTL_SERVICES or services.yaml)"`
	RunDir   string `long:"run-dir" description:"directory for handle files (default: $OPSCTL_RUN_DIR or run)"`
	KeyFile  string `long:"key" description:"SSH private key for deployment (default: agent, then ~/.ssh identities)"`
	Verbose  bool   `long:"verbose" short:"v" description:"enable debug logging"`
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts flagOptions
	parser := flags.NewParser(&opts, flags.HelpFlag)
	rest, err := parser.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Printf("Command line flags parsing failed: %v\n", err)
		return 1
	}

	if len(rest) != 1 {
		fmt.Println(usage)
		return 1
	}
	command := rest[0]

	zapLogger, err := logging.NewZapLogger(opts.Verbose)
	if err != nil {
		fmt.Printf("Failed to initialize logging: %v\n", err)
		return 1
	}
	defer zapLogger.Sync()

	logger := logging.NewLogger("opsctl: ", logging.LogFuncs{
		Debugf: zapLogger.Debugf,
		Infof:  zapLogger.Infof,
		Warnf:  zapLogger.Warnf,
		Errorf: zapLogger.Errorf,
	})

	configPath := discover(opts.Config, "OPSCTL_CONFIG", ".env")
	cfg, err := config.Load(configPath, logger)
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}

	services, err := loadServices(opts.Services, logger)
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}

	runDir := discover(opts.RunDir, "OPSCTL_RUN_DIR", "run")
	handles := handlestore.NewStore(runDir, logger)

	ctx := context.Background()

	switch command {
	case "start":
		if err := cfg.RequireWorker(); err != nil {
			logger.Errorf("%v", err)
			return 1
		}
		return report(logger, startService(ctx, cfg, services, config.ServiceWorker, handles, logger))
	case "stop":
		return report(logger, stopService(ctx, cfg, services, config.ServiceWorker, handles, logger))
	case "restart":
		if err := cfg.RequireWorker(); err != nil {
			logger.Errorf("%v", err)
			return 1
		}
		return report(logger, restartService(ctx, cfg, services, config.ServiceWorker, handles, logger))
	case "start-web":
		return report(logger, startService(ctx, cfg, services, config.ServiceWeb, handles, logger))
	case "stop-web":
		return report(logger, stopService(ctx, cfg, services, config.ServiceWeb, handles, logger))
	case "restart-web":
		return report(logger, restartService(ctx, cfg, services, config.ServiceWeb, handles, logger))
	case "status":
		return report(logger, statusService(cfg, services, config.ServiceWorker, handles, logger))
	case "status-web":
		return report(logger, statusService(cfg, services, config.ServiceWeb, handles, logger))
	case "deploy":
		return report(logger, runDeploy(ctx, cfg, configPath, opts.KeyFile, logger))
	default:
		fmt.Printf("unknown command: %s\n\n%s\n", command, usage)
		return 1
	}
}

// discover resolves a path from flag, environment variable, then default.
func discover(flagValue, envVar, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return fallback
}

func loadServices(flagValue string, logger logging.Logger) (map[string]config.ServiceConfig, error) {
	path := discover(flagValue, "OPSCTL_SERVICES", "services.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Debugf("No service definition file at %s, using defaults", path)
		return config.DefaultServices(), nil
	}
	return config.LoadServicesFromFile(path, logger)
}

func report(logger logging.Logger, err error) int {
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	return 0
}

func newSupervisor(cfg *config.Config, services map[string]config.ServiceConfig, name string, handles *handlestore.Store, logger logging.Logger) *supervisor.Supervisor {
	service := services[name]

	environment := append([]string{}, service.Environment...)
	switch name {
	case config.ServiceWorker:
		environment = append(environment, config.KeyBotToken+"="+cfg.BotToken)
	case config.ServiceWeb:
		environment = append(environment, "PORT="+cfg.WebPort)
	}

	return supervisor.New(supervisor.Options{
		Name:        name,
		Command:     service.Command,
		Args:        service.Args,
		Environment: environment,
		LogFile:     service.LogFile,
		SettleDelay: service.SettleDelay.Std(),
		GracePeriod: service.GracePeriod.Std(),
	}, handles, logger)
}

func startService(ctx context.Context, cfg *config.Config, services map[string]config.ServiceConfig, name string, handles *handlestore.Store, logger logging.Logger) error {
	_, err := newSupervisor(cfg, services, name, handles, logger).Start(ctx)
	return err
}

func stopService(ctx context.Context, cfg *config.Config, services map[string]config.ServiceConfig, name string, handles *handlestore.Store, logger logging.Logger) error {
	return newSupervisor(cfg, services, name, handles, logger).Stop(ctx)
}

func restartService(ctx context.Context, cfg *config.Config, services map[string]config.ServiceConfig, name string, handles *handlestore.Store, logger logging.Logger) error {
	_, err := newSupervisor(cfg, services, name, handles, logger).Restart(ctx)
	return err
}

func statusService(cfg *config.Config, services map[string]config.ServiceConfig, name string, handles *handlestore.Store, logger logging.Logger) error {
	pid, running, err := newSupervisor(cfg, services, name, handles, logger).Status()
	if err != nil {
		return err
	}
	if running {
		logger.Infof("%s is running, pid: %d", name, pid)
	} else {
		logger.Infof("%s is not running", name)
	}
	return nil
}

func runDeploy(ctx context.Context, cfg *config.Config, secretFile, keyFile string, logger logging.Logger) error {
	// Required settings are checked before stage 1 executes
	if err := cfg.RequireDeploy(); err != nil {
		return err
	}

	dial := func(ctx context.Context) (remote.Runner, error) {
		return remote.Connect(remote.ClientOptions{
			User:           cfg.RemoteUser,
			Host:           cfg.RemoteHost,
			KeyFile:        keyFile,
			ConnectTimeout: 10 * time.Second,
		}, logger)
	}

	return deploy.New(cfg, secretFile, dial, logger).Run(ctx)
}
