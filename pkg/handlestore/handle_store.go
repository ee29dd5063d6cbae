package handlestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pricewatch/opsctl/pkg/errors"
	"github.com/pricewatch/opsctl/pkg/logging"
)

// Store persists one handle file per service name under a single directory.
// A handle file contains the literal decimal process id of the last process
// spawned for that service. The store is the supervisor's only source of
// truth for process identity; it is advisory, not an OS-level lock.
type Store struct {
	dir    string
	logger logging.Logger
}

// NewStore creates a handle store rooted at dir. The directory is created
// lazily on the first write.
func NewStore(dir string, logger logging.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logger,
	}
}

// Path returns the handle file path for the given service name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".pid")
}

// Write records pid as the process identity for the given service name,
// overwriting any previous handle.
func (s *Store) Write(name string, pid int) error {
	path := s.Path(name)

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.NewIOError("failed to create handle directory", err).WithContext("directory", s.dir)
	}

	content := fmt.Sprintf("%d\n", pid)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.NewIOError("failed to write handle file", err).WithContext("path", path).WithContext("pid", pid)
	}

	s.logger.Debugf("Handle written, service: %s, pid: %d, path: %s", name, pid, path)
	return nil
}

// Read returns the recorded process id for the given service name. A
// missing handle file is reported as a not-found error; unparseable content
// as a validation error.
func (s *Store) Read(name string) (int, error) {
	path := s.Path(name)

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.NewNotFoundError("no handle recorded for service", err).WithContext("service", name)
		}
		return 0, errors.NewIOError("failed to read handle file", err).WithContext("path", path)
	}

	pidStr := strings.TrimSpace(string(content))
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return 0, errors.NewValidationError("invalid pid in handle file", err).WithContext("path", path).WithContext("content", pidStr)
	}

	return pid, nil
}

// Remove deletes the handle file for the given service name. Removing an
// absent handle is not an error.
func (s *Store) Remove(name string) error {
	path := s.Path(name)

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewIOError("failed to remove handle file", err).WithContext("path", path)
	}

	s.logger.Debugf("Handle removed, service: %s, path: %s", name, path)
	return nil
}
