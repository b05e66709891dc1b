package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/chmouel/lazychangelist/internal/changelist"
	"github.com/chmouel/lazychangelist/internal/models"
	"github.com/chmouel/lazychangelist/internal/theme"
	urfavecli "github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// isTerminal reports whether stdout should get coloured output.
var isTerminal = func() bool {
	return stdout == os.Stdout && term.IsTerminal(int(os.Stdout.Fd()))
}

// listView is the headless changelist.View used by subcommands.
type listView struct {
	entries []models.StatusEntry
	spec    models.SortSpec
	onStage func(changelist.StageUnstageEvent)
}

func newListView(spec models.SortSpec) *listView {
	v := &listView{spec: models.KnownSortSpec(spec)}
	if len(v.spec) == 0 {
		v.spec = models.DefaultSortSpec()
	}
	return v
}

func (v *listView) SetEntries(entries []models.StatusEntry) {
	v.entries = models.SortEntries(entries, v.spec)
}

func (v *listView) SortSpec() models.SortSpec { return v.spec.Clone() }

func (v *listView) SetSortSpec(spec models.SortSpec) {
	known := models.KnownSortSpec(spec)
	if len(known) == 0 {
		return
	}
	v.spec = known
	v.entries = models.SortEntries(v.entries, v.spec)
}

func (v *listView) OnStageUnstage(handler func(changelist.StageUnstageEvent)) {
	v.onStage = handler
}

// cliReporter collects the outcome of inline gateway calls.
type cliReporter struct {
	errs      []string
	completed int
}

func (r *cliReporter) OnError(message string) { r.errs = append(r.errs, message) }

func (r *cliReporter) OnCompleted() { r.completed++ }

func (r *cliReporter) err() error {
	if len(r.errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(r.errs, "\n"))
}

func statusCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "status",
		Usage: "Print the working tree changelist in the saved sort order",
		Flags: []urfavecli.Flag{
			&urfavecli.BoolFlag{
				Name:  "json",
				Usage: "Output as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			view := newListView(s.cfg.SortOrder)
			reporter := &cliReporter{}
			coord := s.coordinator(s.gateway(ctx, nil), view, changelist.WithProgressReporter(reporter))
			coord.HandleRefreshTrigger()
			if err := reporter.err(); err != nil {
				return err
			}

			if cmd.Bool("json") {
				return writeStatusJSON(stdout, view.entries)
			}
			thm := theme.GetTheme(s.cfg.Theme)
			return writeStatus(stdout, view.entries, thm, isTerminal())
		},
	}
}

func stageCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "stage",
		Usage:     "Stage paths in the index",
		ArgsUsage: "<path>...",
		Action:    stageUnstageAction(false),
	}
}

func unstageCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "unstage",
		Usage:     "Remove paths from the index",
		ArgsUsage: "<path>...",
		Action:    stageUnstageAction(true),
	}
}

func stageUnstageAction(unstage bool) urfavecli.ActionFunc {
	return func(ctx context.Context, cmd *urfavecli.Command) error {
		args := cmd.Args().Slice()
		if len(args) == 0 {
			return fmt.Errorf("%s requires at least one path", cmd.Name)
		}

		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		paths, err := s.repoPaths(args)
		if err != nil {
			return err
		}

		view := newListView(s.cfg.SortOrder)
		reporter := &cliReporter{}
		coord := s.coordinator(s.gateway(ctx, nil), view, changelist.WithProgressReporter(reporter))
		coord.HandleStageUnstage(paths, unstage)
		if err := reporter.err(); err != nil {
			return err
		}

		verb := "Staged"
		if unstage {
			verb = "Unstaged"
		}
		fmt.Fprintf(stdout, "%s %s\n", verb, plural(len(paths), "path"))
		return nil
	}
}

func sortCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "sort",
		Usage: "Show or change the saved changelist sort order",
		Commands: []*urfavecli.Command{
			{
				Name:   "show",
				Usage:  "Print the saved sort order",
				Action: sortAction(nil),
			},
			{
				Name:      "set",
				Usage:     "Save a sort order, e.g. \"staged,-path\" (put -- before a leading -column)",
				ArgsUsage: "<columns>",
				Action: sortAction(func(cmd *urfavecli.Command, _ *session) (models.SortSpec, error) {
					text := strings.Join(cmd.Args().Slice(), ",")
					spec := models.KnownSortSpec(models.ParseSortSpec(text))
					if len(spec) == 0 {
						return nil, fmt.Errorf("no known sort column in %q (known: %s)", text, strings.Join(models.KnownColumns, ", "))
					}
					return spec, nil
				}),
			},
			{
				Name:  "reset",
				Usage: "Restore the configured default sort order",
				Action: sortAction(func(_ *urfavecli.Command, s *session) (models.SortSpec, error) {
					return s.cfg.SortOrder, nil
				}),
			},
		},
		Action: sortAction(nil),
	}
}

// sortAction restores the saved sort order into a headless view, applies
// the order returned by change (if any) and checkpoints it.
func sortAction(change func(*urfavecli.Command, *session) (models.SortSpec, error)) urfavecli.ActionFunc {
	return func(ctx context.Context, cmd *urfavecli.Command) error {
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		view := newListView(s.cfg.SortOrder)
		s.coordinator(s.gateway(ctx, nil), view)

		if change != nil {
			spec, err := change(cmd, s)
			if err != nil {
				return err
			}
			view.SetSortSpec(spec)
			if err := s.Checkpoint(); err != nil {
				return fmt.Errorf("error saving sort order: %w", err)
			}
		}

		fmt.Fprintf(stdout, "%s (%s)\n", view.SortSpec(), s.sortScope)
		return nil
	}
}

type statusJSON struct {
	Path     string `json:"path"`
	OrigPath string `json:"origPath,omitempty"`
	Status   string `json:"status"`
	Staged   bool   `json:"staged"`
	Partial  bool   `json:"partial,omitempty"`
}

func writeStatusJSON(w io.Writer, entries []models.StatusEntry) error {
	out := make([]statusJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, statusJSON{
			Path:     e.Path,
			OrigPath: e.OrigPath,
			Status:   e.Code.String(),
			Staged:   e.Staged,
			Partial:  e.Partial,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeStatus(w io.Writer, entries []models.StatusEntry, thm *theme.Theme, colour bool) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "Working tree clean.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		state := "unstaged"
		style := lipgloss.NewStyle().Foreground(thm.Unstaged)
		switch {
		case e.Code == models.Conflicted:
			state = "conflicted"
			style = lipgloss.NewStyle().Foreground(thm.Conflicted)
		case e.Code == models.Untracked:
			state = "untracked"
			style = lipgloss.NewStyle().Foreground(thm.Untracked)
		case e.Partial:
			state = "partial"
			style = lipgloss.NewStyle().Foreground(thm.Staged)
		case e.Staged:
			state = "staged"
			style = lipgloss.NewStyle().Foreground(thm.Staged)
		}
		label := e.Path
		if e.OrigPath != "" {
			label = e.OrigPath + " -> " + e.Path
		}
		code := e.Code.Letter()
		if colour {
			// pad before styling so escape codes don't skew the columns
			code = style.Render(fmt.Sprintf("%-2s", code))
			state = style.Render(fmt.Sprintf("%-10s", state))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", code, state, label)
	}
	return tw.Flush()
}

// completeArgs prints shell completions: config keys and values after
// --config, subcommand names otherwise.
func completeArgs(args []string, commands []*urfavecli.Command) {
	args = slices.DeleteFunc(slices.Clone(args), func(a string) bool {
		return a == "--generate-shell-completion"
	})
	if n := len(args); n >= 2 {
		prev, cur := args[n-2], args[n-1]
		if prev == "--config" || prev == "-C" {
			completeConfigFlag(cur)
			return
		}
		if strings.HasPrefix(cur, "--config=") {
			completeConfigFlag(strings.TrimPrefix(cur, "--config="))
			return
		}
	}
	for _, c := range commands {
		fmt.Fprintln(stdout, c.Name)
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
