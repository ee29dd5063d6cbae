package deploy

import (
	"fmt"
	"strings"
)

// Inline provisioning scripts, executed over the remote shell boundary.
// Every script is written check-then-act so re-running it on an already
// provisioned host is a no-op.

const connectivityScript = `echo ok`

const dependencyScript = `set -e
if ! command -v docker >/dev/null 2>&1; then
  echo "installing docker"
  curl -fsSL https://get.docker.com | sh
fi
if ! command -v git >/dev/null 2>&1; then
  echo "installing git"
  export DEBIAN_FRONTEND=noninteractive
  apt-get update -qq
  apt-get install -y -qq git
fi
if ! docker compose version >/dev/null 2>&1; then
  echo "docker compose plugin is missing" >&2
  exit 1
fi
`

// syncScript takes the target path and the repository URL. The presence of
// version-control metadata at the path decides between an update-in-place
// with rebase semantics and a fresh clone.
func syncScript(remotePath, repoURL string) string {
	path := shellQuote(remotePath)
	repo := shellQuote(repoURL)
	return fmt.Sprintf(`set -e
if [ -d %s/.git ]; then
  cd %s
  git pull --rebase
else
  git clone %s %s
fi
`, path, path, repo, path)
}

// launchScript rebuilds images from scratch and brings the composed
// services up detached. The rebuild is intentionally unconditional.
func launchScript(remotePath string) string {
	return fmt.Sprintf(`set -e
cd %s
docker compose build --no-cache
docker compose up -d
docker compose ps
`, shellQuote(remotePath))
}

// shellQuote single-quotes s for safe interpolation into a shell script.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
