// Package git talks to the version-control backend: it reads working tree
// status and stages or unstages paths, either through the git executable or
// through go-git.
package git

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	log "github.com/chmouel/lazychangelist/internal/log"
	"github.com/chmouel/lazychangelist/internal/models"
)

// LookupPath is used to find executables in PATH. Tests replace it to avoid
// depending on system binaries.
var LookupPath = exec.LookPath

// Backend performs blocking version-control operations.
type Backend interface {
	Status(ctx context.Context) (models.Snapshot, error)
	Stage(ctx context.Context, paths []string) error
	Unstage(ctx context.Context, paths []string) error
}

// Service is the Backend that shells out to git.
type Service struct {
	dir         string
	showIgnored bool
	logf        func(string, ...any)
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithIgnored includes ignored files in status listings.
func WithIgnored(show bool) ServiceOption {
	return func(s *Service) {
		s.showIgnored = show
	}
}

// WithServiceLogger overrides the debug logger.
func WithServiceLogger(logf func(string, ...any)) ServiceOption {
	return func(s *Service) {
		s.logf = logf
	}
}

// NewService returns a Service running git inside dir.
func NewService(dir string, opts ...ServiceOption) *Service {
	s := &Service{dir: dir, logf: log.Printf}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) debugf(format string, args ...any) {
	if s.logf == nil {
		return
	}
	s.logf(format, args...)
}

func prepareAllowedCommand(ctx context.Context, args []string) (*exec.Cmd, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no command provided")
	}
	if args[0] != "git" {
		return nil, fmt.Errorf("unsupported command %q", args[0])
	}
	if _, err := LookupPath("git"); err != nil {
		return nil, fmt.Errorf("git not found in PATH: %w", err)
	}
	// #nosec G204 -- arguments for git come from internal logic and are not shell interpolated
	return exec.CommandContext(ctx, "git", args[1:]...), nil
}

// RunGit executes a git command in the service directory and returns stdout.
// Failures carry git's stderr when available.
func (s *Service) RunGit(ctx context.Context, args ...string) (string, error) {
	command := strings.Join(args, " ")
	s.debugf("run: %s (cwd=%s)", command, s.dir)

	cmd, err := prepareAllowedCommand(ctx, args)
	if err != nil {
		s.debugf("error: %s: %v", command, err)
		return "", err
	}
	if s.dir != "" {
		cmd.Dir = s.dir
	}

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail := strings.TrimSpace(string(exitErr.Stderr))
			if detail == "" {
				detail = fmt.Sprintf("exit %d", exitErr.ExitCode())
			}
			s.debugf("error: %s: %s", command, detail)
			return "", fmt.Errorf("%s: %s", command, detail)
		}
		s.debugf("error: %s: %v", command, err)
		return "", fmt.Errorf("%s: %w", command, err)
	}
	s.debugf("ok: %s", command)
	return string(output), nil
}

// Status implements Backend.
func (s *Service) Status(ctx context.Context) (models.Snapshot, error) {
	args := []string{"git", "--no-optional-locks", "status", "--porcelain=v2", "-z", "--untracked-files=all"}
	if s.showIgnored {
		args = append(args, "--ignored=matching")
	}
	raw, err := s.RunGit(ctx, args...)
	if err != nil {
		return models.Snapshot{}, err
	}
	return models.NewSnapshot(ParseStatus(raw))
}

// Stage implements Backend. Deleted paths are staged as removals.
func (s *Service) Stage(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"git", "add", "-A", "--"}, paths...)
	_, err := s.RunGit(ctx, args...)
	return err
}

// Unstage implements Backend. Before the first commit there is no HEAD to
// restore from, so paths are dropped from the index instead. Unstaging a
// staged rename also unstages the removal of its source path.
func (s *Service) Unstage(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	snap, err := s.Status(ctx)
	if err != nil {
		return err
	}
	paths = withRenameSources(paths, snap)

	var args []string
	if s.hasHead(ctx) {
		args = append([]string{"git", "restore", "--staged", "--"}, paths...)
	} else {
		args = append([]string{"git", "rm", "--cached", "-r", "-q", "--ignore-unmatch", "--"}, paths...)
	}
	_, err = s.RunGit(ctx, args...)
	return err
}

// withRenameSources appends the source path of every staged rename named
// in paths. Restoring only the new name would leave the source staged as
// deleted. Copies leave their source alone.
func withRenameSources(paths []string, snap models.Snapshot) []string {
	named := make(map[string]bool, len(paths))
	for _, p := range paths {
		named[p] = true
	}
	out := slices.Clone(paths)
	for _, e := range snap.Entries() {
		if !named[e.Path] || !e.Staged || e.Code != models.Renamed || e.OrigPath == "" || named[e.OrigPath] {
			continue
		}
		named[e.OrigPath] = true
		out = append(out, e.OrigPath)
	}
	return out
}

func (s *Service) hasHead(ctx context.Context) bool {
	_, err := s.RunGit(ctx, "git", "rev-parse", "--verify", "-q", "HEAD")
	return err == nil
}

// TopLevel returns the absolute path of the working tree root.
func (s *Service) TopLevel(ctx context.Context) (string, error) {
	out, err := s.RunGit(ctx, "git", "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// GitDir returns the absolute path of the repository's git directory.
func (s *Service) GitDir(ctx context.Context) (string, error) {
	out, err := s.RunGit(ctx, "git", "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// RepoKey returns a stable, filesystem-safe identifier for a working tree
// root, used to key per-repository state.
func RepoKey(topLevel string) string {
	topLevel = strings.TrimSpace(topLevel)
	if topLevel == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(filepath.Clean(topLevel)))
	return fmt.Sprintf("local-%x", sum[:8])
}
