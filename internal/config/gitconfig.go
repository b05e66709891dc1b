package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// keyPrefix namespaces lazychangelist keys in git config and overrides.
const keyPrefix = "lcl."

// gitConfigMock allows tests to mock git config output.
var gitConfigMock func(args []string, repoPath string) (string, error)

// rawValues collects config values the way parseConfig expects them: a
// single string, or []any (the shape YAML lists decode to) once a key
// repeats.
type rawValues map[string]any

func (r rawValues) add(key, value string) {
	switch prev := r[key].(type) {
	case nil:
		r[key] = value
	case string:
		r[key] = []any{prev, value}
	case []any:
		r[key] = append(prev, value)
	}
}

// runGitConfig executes git config and returns its raw output. A missing
// key is not an error.
func runGitConfig(args []string, repoPath string) (string, error) {
	if gitConfigMock != nil {
		return gitConfigMock(args, repoPath)
	}

	cmd := exec.Command("git", args...)
	if repoPath != "" {
		cmd.Dir = repoPath
	}

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", err
	}
	return string(output), nil
}

// parseGitConfigOutput parses `git config -z --get-regexp` output. Records
// are NUL terminated, with the key and value separated by a newline; a key
// without a value is git's shorthand for true.
func parseGitConfigOutput(output string) map[string]any {
	values := rawValues{}
	for record := range strings.SplitSeq(output, "\x00") {
		if strings.TrimSpace(record) == "" {
			continue
		}
		key, value, hasValue := strings.Cut(record, "\n")
		key = strings.TrimPrefix(strings.TrimSpace(key), keyPrefix)
		if key == "" {
			continue
		}
		if !hasValue {
			value = "true"
		}
		values.add(key, value)
	}
	return values
}

// loadGitConfig reads lcl.* keys from the global or the repository config.
func loadGitConfig(globalOnly bool, repoPath string) (map[string]any, error) {
	scope := "--local"
	if globalOnly {
		scope = "--global"
	}

	output, err := runGitConfig([]string{"config", scope, "-z", "--get-regexp", `^lcl\.`}, repoPath)
	if err != nil {
		return nil, err
	}
	return parseGitConfigOutput(output), nil
}

// isInGitRepo checks if path is in a git repository.
func isInGitRepo(path string) bool {
	if path == "" {
		return false
	}
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = path
	return cmd.Run() == nil
}

// determineRepoPath returns the repository used for local git config
// lookup: repoPath when it is inside one, else the working directory.
func determineRepoPath(repoPath string) string {
	if repoPath != "" && isInGitRepo(repoPath) {
		return repoPath
	}
	if wd, err := os.Getwd(); err == nil && isInGitRepo(wd) {
		return wd
	}
	return ""
}

// parseCLIConfigOverrides parses --config=lcl.key=value pairs. Repeating a
// key builds a list.
func parseCLIConfigOverrides(overrides []string) (map[string]any, error) {
	values := rawValues{}
	for _, override := range overrides {
		fullKey, value, ok := strings.Cut(override, "=")
		if !ok {
			return nil, fmt.Errorf("invalid config override: %q, expected format: lcl.key=value (note: use = not space)", override)
		}
		key, ok := strings.CutPrefix(fullKey, keyPrefix)
		if !ok {
			return nil, fmt.Errorf("config override key must start with %q: %q", keyPrefix, fullKey)
		}
		if key == "" {
			return nil, fmt.Errorf("empty config key in override: %q", override)
		}
		values.add(key, value)
	}
	return values, nil
}
