package deploy

import (
	"context"
	"path"

	"github.com/pricewatch/opsctl/pkg/config"
	"github.com/pricewatch/opsctl/pkg/errors"
	"github.com/pricewatch/opsctl/pkg/logging"
	"github.com/pricewatch/opsctl/pkg/remote"
)

// secretFileMode is owner read/write only; the transferred file carries
// the bot token.
const secretFileMode = 0600

// DialFunc opens the remote session. The connectivity stage owns the call
// so an unreachable host fails inside the pipeline, as stage 1.
type DialFunc func(ctx context.Context) (remote.Runner, error)

// Deployment converges a remote host to "service running at current source
// version". It is sequential and holds at most one remote session.
type Deployment struct {
	cfg        *config.Config
	secretFile string
	dial       DialFunc
	logger     logging.Logger

	runner remote.Runner
}

// New creates a deployment for the given configuration. secretFile is the
// local configuration/secret file transferred in stage 4.
func New(cfg *config.Config, secretFile string, dial DialFunc, logger logging.Logger) *Deployment {
	return &Deployment{
		cfg:        cfg,
		secretFile: secretFile,
		dial:       dial,
		logger:     logger,
	}
}

// Stages returns the fixed, ordered stage list.
func (d *Deployment) Stages() []Stage {
	return []Stage{
		{Name: "connectivity check", Run: d.checkConnectivity},
		{Name: "dependency provisioning", Run: d.provisionDependencies},
		{Name: "repository synchronization", Run: d.syncRepository},
		{Name: "secret transfer", Run: d.transferSecrets},
		{Name: "build and launch", Run: d.buildAndLaunch},
	}
}

// Run executes the full pipeline and closes the remote session afterwards.
func (d *Deployment) Run(ctx context.Context) error {
	defer func() {
		if d.runner != nil {
			if err := d.runner.Close(); err != nil {
				d.logger.Debugf("Failed to close remote session: %v", err)
			}
		}
	}()

	if err := NewPipeline(d.Stages(), d.logger).Run(ctx); err != nil {
		return err
	}

	d.logger.Infof("Deployed %s to %s, web port: %s", d.cfg.RepoURL, d.cfg.RemoteHost, d.cfg.WebPort)
	return nil
}

func (d *Deployment) checkConnectivity(ctx context.Context) error {
	runner, err := d.dial(ctx)
	if err != nil {
		return err
	}
	d.runner = runner

	if out, err := d.runner.Run(ctx, connectivityScript); err != nil {
		return errors.NewConnectivityError("remote shell check failed", err).WithContext("output", string(out))
	}
	return nil
}

func (d *Deployment) provisionDependencies(ctx context.Context) error {
	out, err := d.runner.Run(ctx, dependencyScript)
	if err != nil {
		return errors.NewInstallError("dependency provisioning failed", err).WithContext("output", string(out))
	}
	d.logger.Debugf("Dependency provisioning output: %s", out)
	return nil
}

func (d *Deployment) syncRepository(ctx context.Context) error {
	out, err := d.runner.Run(ctx, syncScript(d.cfg.RemotePath, d.cfg.RepoURL))
	if err != nil {
		return errors.NewSyncError("repository synchronization failed", err).WithContext("output", string(out)).WithContext("repository", d.cfg.RepoURL)
	}
	d.logger.Debugf("Repository synchronization output: %s", out)
	return nil
}

func (d *Deployment) transferSecrets(ctx context.Context) error {
	remotePath := path.Join(d.cfg.RemotePath, ".env")
	// Visible side effect: the remote runtime configuration changes here,
	// before the services are rebuilt in stage 5.
	return d.runner.Upload(ctx, d.secretFile, remotePath, secretFileMode)
}

func (d *Deployment) buildAndLaunch(ctx context.Context) error {
	out, err := d.runner.Run(ctx, launchScript(d.cfg.RemotePath))
	if err != nil {
		// No rollback: a partially built image may remain on the host
		return errors.NewLaunchError("build and launch failed", err).WithContext("output", string(out))
	}
	d.logger.Infof("Composed services:\n%s", out)
	return nil
}
