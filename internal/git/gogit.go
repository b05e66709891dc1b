package git

import (
	"context"
	"errors"
	"fmt"
	"sort"

	gogit "github.com/go-git/go-git/v5"

	"github.com/chmouel/lazychangelist/internal/models"
)

// GoGitBackend is the Backend built on go-git; it needs no git executable.
type GoGitBackend struct {
	repo *gogit.Repository
}

// OpenGoGit opens the repository containing dir. go-git does not report
// ignored files, so they never appear in its snapshots.
func OpenGoGit(dir string) (*GoGitBackend, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", dir, err)
	}
	return &GoGitBackend{repo: repo}, nil
}

// TopLevel returns the working tree root.
func (g *GoGitBackend) TopLevel() (string, error) {
	wt, err := g.repo.Worktree()
	if err != nil {
		return "", err
	}
	return wt.Filesystem.Root(), nil
}

// Status implements Backend.
func (g *GoGitBackend) Status(ctx context.Context) (models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, err
	}
	wt, err := g.repo.Worktree()
	if err != nil {
		return models.Snapshot{}, err
	}
	status, err := wt.Status()
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("status: %w", err)
	}

	paths := make([]string, 0, len(status))
	for path := range status {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	entries := make([]models.StatusEntry, 0, len(paths))
	for _, path := range paths {
		entry, ok := entryFromFileStatus(path, status[path])
		if ok {
			entries = append(entries, entry)
		}
	}
	return models.NewSnapshot(entries)
}

func entryFromFileStatus(path string, fs *gogit.FileStatus) (models.StatusEntry, bool) {
	if fs == nil {
		return models.StatusEntry{}, false
	}
	switch {
	case fs.Worktree == gogit.Untracked:
		return models.StatusEntry{Path: path, Code: models.Untracked}, true
	case fs.Staging == gogit.UpdatedButUnmerged || fs.Worktree == gogit.UpdatedButUnmerged:
		return models.StatusEntry{Path: path, Code: models.Conflicted}, true
	case fs.Staging != gogit.Unmodified:
		entry := models.StatusEntry{
			Path:    path,
			Code:    models.StatusCodeFromLetter(byte(fs.Staging)),
			Staged:  true,
			Partial: fs.Worktree != gogit.Unmodified,
		}
		if entry.Code == models.Renamed || entry.Code == models.Copied {
			entry.OrigPath = fs.Extra
		}
		return entry, true
	case fs.Worktree != gogit.Unmodified:
		return models.StatusEntry{Path: path, Code: models.StatusCodeFromLetter(byte(fs.Worktree))}, true
	}
	return models.StatusEntry{}, false
}

// Stage implements Backend. The call is all or nothing: when one path
// fails, the index is put back the way it was.
func (g *GoGitBackend) Stage(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	return g.withIndexRollback(ctx, func(wt *gogit.Worktree) error {
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := wt.Add(path); err != nil {
				return fmt.Errorf("stage %s: %w", path, err)
			}
		}
		return nil
	})
}

// Unstage implements Backend. Unstaging a staged rename also unstages the
// removal of its source path.
func (g *GoGitBackend) Unstage(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	snap, err := g.Status(ctx)
	if err != nil {
		return err
	}
	files := withRenameSources(paths, snap)
	return g.withIndexRollback(ctx, func(wt *gogit.Worktree) error {
		if err := wt.Restore(&gogit.RestoreOptions{Staged: true, Files: files}); err != nil {
			return fmt.Errorf("unstage: %w", err)
		}
		return nil
	})
}

// withIndexRollback runs fn and restores the index read beforehand if fn
// fails. go-git decodes the index afresh on every read, so the saved copy
// is not touched by fn.
func (g *GoGitBackend) withIndexRollback(ctx context.Context, fn func(*gogit.Worktree) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wt, err := g.repo.Worktree()
	if err != nil {
		return err
	}
	saved, err := g.repo.Storer.Index()
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}
	if err := fn(wt); err != nil {
		if rerr := g.repo.Storer.SetIndex(saved); rerr != nil {
			return errors.Join(err, fmt.Errorf("restore index: %w", rerr))
		}
		return err
	}
	return nil
}
