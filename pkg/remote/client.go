package remote

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pricewatch/opsctl/pkg/errors"
	"github.com/pricewatch/opsctl/pkg/logging"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

const (
	DefaultPort           = 22
	DefaultConnectTimeout = 10 * time.Second
)

// Runner is the remote-procedure boundary the deployment pipeline talks
// to. Each call issues one idempotent unit of remote work; the transport
// behind it is an implementation detail.
type Runner interface {
	// Run executes an inline shell script on the remote host and returns
	// its combined output.
	Run(ctx context.Context, script string) ([]byte, error)

	// Upload copies a local file to remotePath and restricts its
	// permissions to mode.
	Upload(ctx context.Context, localPath, remotePath string, mode os.FileMode) error

	Close() error
}

// ClientOptions configures the SSH connection.
type ClientOptions struct {
	User string
	Host string
	Port int

	// KeyFile is an optional private key path. When empty the default
	// identity files under ~/.ssh are probed, in addition to the agent.
	KeyFile string

	ConnectTimeout time.Duration
}

func (o ClientOptions) address() string {
	port := o.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(o.Host, strconv.Itoa(port))
}

// Client implements Runner over an SSH connection. Authentication is
// non-interactive only (agent and identity files); host keys are not
// verified, this tool provisions hosts the operator already controls.
type Client struct {
	conn   *ssh.Client
	logger logging.Logger
}

// Connect opens the SSH connection with a bounded connect timeout.
func Connect(opts ClientOptions, logger logging.Logger) (*Client, error) {
	if opts.Host == "" {
		return nil, errors.NewValidationError("remote host is required", nil)
	}
	if opts.User == "" {
		return nil, errors.NewValidationError("remote user is required", nil)
	}

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	auth := authMethods(opts.KeyFile, logger)
	if len(auth) == 0 {
		return nil, errors.NewConnectivityError("no usable SSH authentication method (no agent, no identity file)", nil)
	}

	sshConfig := &ssh.ClientConfig{
		User:            opts.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	addr := opts.address()
	logger.Debugf("Dialing %s as %s, timeout: %s", addr, opts.User, timeout)

	conn, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, errors.NewConnectivityError("failed to establish SSH connection", err).WithContext("address", addr).WithContext("user", opts.User)
	}

	logger.Infof("Connected to %s", addr)

	return &Client{
		conn:   conn,
		logger: logger,
	}, nil
}

// authMethods collects the non-interactive authentication methods
// available on this machine: a running SSH agent first, then identity
// files. Unreadable keys are skipped, not fatal.
func authMethods(keyFile string, logger logging.Logger) []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if agentConn, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(agentConn).Signers))
		} else {
			logger.Debugf("SSH agent unavailable: %v", err)
		}
	}

	keyFiles := []string{keyFile}
	if keyFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			keyFiles = []string{
				filepath.Join(home, ".ssh", "id_ed25519"),
				filepath.Join(home, ".ssh", "id_rsa"),
			}
		}
	}

	for _, path := range keyFiles {
		if path == "" {
			continue
		}
		key, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			logger.Warnf("Skipping unparseable identity file: %s: %v", path, err)
			continue
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	return methods
}

// Run executes the script through a fresh session, feeding it to a remote
// shell on stdin so multi-line scripts behave the same as local ones.
func (c *Client) Run(ctx context.Context, script string) ([]byte, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return nil, errors.NewConnectivityError("failed to open SSH session", err)
	}
	defer session.Close()

	var output bytes.Buffer
	session.Stdin = strings.NewReader(script)
	session.Stdout = &output
	session.Stderr = &output

	if err := session.Start("bash -s"); err != nil {
		return nil, errors.NewConnectivityError("failed to start remote shell", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Wait()
	}()

	select {
	case err := <-done:
		return output.Bytes(), err
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return output.Bytes(), ctx.Err()
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}
