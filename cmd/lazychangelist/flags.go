package main

import (
	"fmt"
	"strings"

	"github.com/chmouel/lazychangelist/internal/theme"
	urfavecli "github.com/urfave/cli/v3"
)

// globalFlags returns all global flags for the application.
// Note: --version is provided automatically by urfave/cli via Command.Version
func globalFlags() []urfavecli.Flag {
	return []urfavecli.Flag{
		&urfavecli.StringFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   "Run against the working tree containing this directory",
		},
		&urfavecli.StringFlag{
			Name:  "debug-log",
			Usage: "Path to debug log file",
		},
		&urfavecli.StringFlag{
			Name:    "theme",
			Aliases: []string{"t"},
			Usage:   "Override the UI theme (" + strings.Join(theme.AvailableThemes(), ", ") + ")",
		},
		&urfavecli.StringFlag{
			Name:  "config-file",
			Usage: "Path to configuration file",
		},
		&urfavecli.StringSliceFlag{
			Name:    "config",
			Aliases: []string{"C"},
			Usage:   "Override config values (repeatable): --config=lcl.key=value",
		},
	}
}

// configKeys lists the keys accepted in the YAML file, git config and
// --config overrides.
var configKeys = []string{
	"backend", "state_backend", "state_dir", "auto_refresh", "refresh_interval",
	"checkpoint_interval", "git_timeout", "sort_order", "sort_scope",
	"show_icons", "show_ignored", "theme", "debug_log",
}

// suggestConfigKeys returns "lcl.key=" completions matching prefix.
func suggestConfigKeys(prefix string) []string {
	prefix = strings.TrimPrefix(prefix, "lcl.")
	var matches []string
	for _, key := range configKeys {
		if prefix == "" || strings.HasPrefix(key, prefix) {
			matches = append(matches, "lcl."+key+"=")
		}
	}
	return matches
}

// suggestConfigValues returns value suggestions for a given config key.
func suggestConfigValues(key string) []string {
	switch key {
	case "theme":
		return theme.AvailableThemes()
	case "backend":
		return []string{"exec", "gogit"}
	case "state_backend":
		return []string{"file", "sqlite"}
	case "sort_scope":
		return []string{"persistent", "project", "session"}
	case "auto_refresh", "show_icons", "show_ignored":
		return []string{"true", "false"}
	default:
		return nil
	}
}

// completeConfigFlag prints completions for a partially typed --config value.
func completeConfigFlag(partial string) {
	key, value, hasValue := strings.Cut(strings.TrimPrefix(partial, "lcl."), "=")
	if !hasValue {
		for _, s := range suggestConfigKeys(key) {
			fmt.Fprintln(stdout, s)
		}
		return
	}
	for _, v := range suggestConfigValues(key) {
		if strings.HasPrefix(v, value) {
			fmt.Fprintf(stdout, "lcl.%s=%s\n", key, v)
		}
	}
}
