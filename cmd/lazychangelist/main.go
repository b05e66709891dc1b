// Package main is the entry point for the lazychangelist application.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/chmouel/lazychangelist/internal/app"
	"github.com/chmouel/lazychangelist/internal/buildinfo"
	"github.com/chmouel/lazychangelist/internal/changelist"
	"github.com/chmouel/lazychangelist/internal/log"
	"github.com/chmouel/lazychangelist/internal/watch"
	urfavecli "github.com/urfave/cli/v3"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// stdout receives command output; tests replace it.
var stdout io.Writer = os.Stdout

func main() {
	buildinfo.Set(version, commit, date, builtBy)
	buildinfo.Enrich()

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newApp() *urfavecli.Command {
	urfavecli.VersionPrinter = func(cmd *urfavecli.Command) {
		fmt.Fprintf(stdout, "%s version %s\n", cmd.Name, buildinfo.Current())
	}

	return &urfavecli.Command{
		Name:                  "lazychangelist",
		Usage:                 "A TUI to stage and unstage changes in a git working tree",
		Version:               buildinfo.Current().Version,
		EnableShellCompletion: true,
		// sort_order values are comma separated
		DisableSliceFlagSeparator: true,

		Flags: globalFlags(),

		Commands: []*urfavecli.Command{
			statusCommand(),
			stageCommand(),
			unstageCommand(),
			sortCommand(),
		},

		Action: runTUI,

		ShellComplete: func(_ context.Context, cmd *urfavecli.Command) {
			completeArgs(os.Args, cmd.Commands)
		},
	}
}

// runTUI is the default action that launches the TUI when no subcommand is given.
func runTUI(ctx context.Context, cmd *urfavecli.Command) error {
	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	queue := app.NewCallbackQueue(64)
	gw := s.gateway(ctx, queue.Post)

	var watcher *watch.Watcher
	if s.cfg.AutoRefresh {
		watcher = watch.New(log.Prefixed("watch: "))
		if err := watcher.Start(s.topLevel, s.gitDir); err != nil {
			log.Printf("file watcher disabled: %v", err)
			watcher = nil
		} else {
			defer watcher.Stop()
		}
	}

	model := app.NewModel(app.Options{
		Config:  s.cfg,
		Repo:    filepath.Base(s.topLevel),
		Queue:   queue,
		Watcher: watcher,
	})
	coord := s.coordinator(gw, model, changelist.WithProgressReporter(model))
	model.Bind(&controller{coord: coord, session: s})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// controller lets the view trigger refreshes on the coordinator and
// checkpoint everything the session tracks.
type controller struct {
	coord   *changelist.Coordinator
	session *session
}

func (c *controller) HandleRefreshTrigger() { c.coord.HandleRefreshTrigger() }

func (c *controller) Checkpoint() error { return c.session.Checkpoint() }
