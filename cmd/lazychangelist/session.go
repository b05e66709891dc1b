package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chmouel/lazychangelist/internal/changelist"
	"github.com/chmouel/lazychangelist/internal/clientstate"
	"github.com/chmouel/lazychangelist/internal/config"
	"github.com/chmouel/lazychangelist/internal/git"
	"github.com/chmouel/lazychangelist/internal/log"
	"github.com/chmouel/lazychangelist/internal/theme"
	urfavecli "github.com/urfave/cli/v3"
)

// session holds everything a command needs to talk to one working tree.
type session struct {
	cfg        *config.AppConfig
	backend    git.Backend
	baseDir    string // relative path arguments resolve against this
	topLevel   string
	gitDir     string
	store      *clientstate.Router
	sortScope  clientstate.Scope
	registry   *clientstate.Registry
	closeStore func() error
}

// openSession loads configuration, opens the git backend for the selected
// repository and the client state store.
func openSession(ctx context.Context, cmd *urfavecli.Command) (*session, error) {
	debugLog := cmd.String("debug-log")
	if debugLog != "" {
		setDebugLog(debugLog)
	}

	baseDir, err := filepath.Abs(orDefault(cmd.String("repo"), "."))
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(config.LoadOptions{
		ConfigPath: cmd.String("config-file"),
		RepoPath:   baseDir,
		Overrides:  cmd.StringSlice("config"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
	}

	// If debug log wasn't set via flag, check if it's in the config
	if debugLog == "" {
		if cfg.DebugLog != "" {
			setDebugLog(cfg.DebugLog)
		} else {
			// No debug log configured, discard any buffered logs
			_ = log.SetFile("")
		}
	}

	if err := applyThemeFlag(cfg, cmd.String("theme")); err != nil {
		_ = log.Close()
		return nil, err
	}

	s := &session{cfg: cfg, baseDir: baseDir, registry: &clientstate.Registry{}}
	if err := s.openBackend(ctx); err != nil {
		_ = log.Close()
		return nil, err
	}

	s.sortScope, err = clientstate.ParseScope(cfg.SortScope)
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	s.store, s.closeStore, err = clientstate.Open(clientstate.Options{
		Backend: cfg.StateBackend,
		Dir:     cfg.StateDir,
		Project: git.RepoKey(s.topLevel),
	})
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("error opening client state in %s: %w", cfg.StateDir, err)
	}

	log.Printf("session: repo %s (backend %s, state %s in %s)", s.topLevel, cfg.Backend, cfg.StateBackend, cfg.StateDir)
	return s, nil
}

func (s *session) openBackend(ctx context.Context) error {
	switch s.cfg.Backend {
	case config.BackendGoGit:
		backend, err := git.OpenGoGit(s.baseDir)
		if err != nil {
			return fmt.Errorf("%s is not inside a git work tree: %w", s.baseDir, err)
		}
		top, err := backend.TopLevel()
		if err != nil {
			return err
		}
		s.backend = backend
		s.topLevel = top
		s.gitDir = filepath.Join(top, ".git")
		return nil
	default:
		probe := git.NewService(s.baseDir)
		top, err := probe.TopLevel(ctx)
		if err != nil {
			return fmt.Errorf("%s is not inside a git work tree: %w", s.baseDir, err)
		}
		// pathspecs are always handed over relative to the root
		svc := git.NewService(top,
			git.WithIgnored(s.cfg.ShowIgnored),
			git.WithServiceLogger(log.Prefixed("git: ")),
		)
		gitDir, err := svc.GitDir(ctx)
		if err != nil {
			return err
		}
		s.backend = svc
		s.topLevel = top
		s.gitDir = gitDir
		return nil
	}
}

// gateway returns a gateway over the session backend. A nil poster
// completes every call inline.
func (s *session) gateway(ctx context.Context, post func(func())) *git.Gateway {
	opts := []git.GatewayOption{
		git.WithTimeout(s.cfg.GitTimeout()),
		git.WithContext(ctx),
		git.WithGatewayLogger(log.Prefixed("gateway: ")),
	}
	if post != nil {
		opts = append(opts, git.WithPoster(post))
	}
	return git.NewGateway(s.backend, opts...)
}

// coordinator wires view to the session and registers its sort order for
// checkpoints.
func (s *session) coordinator(gw changelist.Gateway, view changelist.View, opts ...changelist.Option) *changelist.Coordinator {
	opts = append([]changelist.Option{
		changelist.WithSortKey(changelist.DefaultSortKey, s.sortScope),
	}, opts...)
	coord := changelist.NewCoordinator(gw, view, s.store, opts...)
	coord.InitializeSortPersistence()
	s.registry.Register(coord.SortPersister())
	return coord
}

// Checkpoint saves every registered persister.
func (s *session) Checkpoint() error {
	return s.registry.Checkpoint()
}

func (s *session) Close() error {
	var err error
	if s.closeStore != nil {
		err = s.closeStore()
	}
	_ = log.Close()
	return err
}

// repoPaths turns command-line paths into slash-separated paths relative to
// the working tree root.
func (s *session) repoPaths(args []string) ([]string, error) {
	top := resolveSymlinks(s.topLevel)
	out := make([]string, 0, len(args))
	for _, arg := range args {
		abs := arg
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(s.baseDir, arg)
		}
		rel, err := filepath.Rel(top, resolveSymlinks(abs))
		if err != nil {
			return nil, err
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("path %q is outside the repository %s", arg, s.topLevel)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out, nil
}

// resolveSymlinks resolves path, or its parent for paths that no longer
// exist, so deleted files still map into the work tree.
func resolveSymlinks(path string) string {
	path = filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(path)); err == nil {
		return filepath.Join(dir, filepath.Base(path))
	}
	return path
}

func setDebugLog(path string) {
	if expanded, err := expandPath(path); err == nil {
		path = expanded
	}
	if err := log.SetFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error opening debug log file %q: %v\n", path, err)
	}
}

func applyThemeFlag(cfg *config.AppConfig, name string) error {
	if name == "" {
		return nil
	}
	normalized := config.NormalizeThemeName(name)
	if normalized == "" {
		return fmt.Errorf("unknown theme %q (available: %s)", name, strings.Join(theme.AvailableThemes(), ", "))
	}
	cfg.Theme = normalized
	return nil
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return os.ExpandEnv(path), nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
