// Package config loads application configuration from YAML, git config and
// command-line overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chmouel/lazychangelist/internal/models"
	"github.com/chmouel/lazychangelist/internal/theme"
	"gopkg.in/yaml.v3"
)

// Version-control backends.
const (
	BackendExec  = "exec"
	BackendGoGit = "gogit"
)

// State backends.
const (
	StateBackendFile   = "file"
	StateBackendSQLite = "sqlite"
)

// AppConfig defines the global lazychangelist configuration options.
type AppConfig struct {
	Backend                   string // "exec" runs the git binary, "gogit" uses go-git
	StateBackend              string // "file" (JSON document) or "sqlite"
	StateDir                  string
	AutoRefresh               bool
	RefreshIntervalSeconds    int // polling refresh, 0 disables
	CheckpointIntervalSeconds int // 0 checkpoints only on exit
	GitTimeoutSeconds         int
	SortOrder                 models.SortSpec
	SortScope                 string // "persistent", "project" or "session"
	ShowIcons                 bool
	ShowIgnored               bool
	Theme                     string
	DebugLog                  string
}

// DefaultConfig returns the default configuration values.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Backend:                   BackendExec,
		StateBackend:              StateBackendFile,
		StateDir:                  defaultStateDir(),
		AutoRefresh:               true,
		RefreshIntervalSeconds:    10,
		CheckpointIntervalSeconds: 30,
		GitTimeoutSeconds:         30,
		SortOrder:                 models.DefaultSortSpec(),
		SortScope:                 "persistent",
		ShowIcons:                 true,
	}
}

// RefreshInterval returns the polling interval, or zero when polling is off.
func (c *AppConfig) RefreshInterval() time.Duration {
	return seconds(c.RefreshIntervalSeconds)
}

// CheckpointInterval returns the periodic checkpoint interval, or zero.
func (c *AppConfig) CheckpointInterval() time.Duration {
	return seconds(c.CheckpointIntervalSeconds)
}

// GitTimeout returns the per-call backend timeout, or zero for none.
func (c *AppConfig) GitTimeout() time.Duration {
	return seconds(c.GitTimeoutSeconds)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func coerceBool(value any, defaultVal bool) bool {
	if value == nil {
		return defaultVal
	}

	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case string:
		text := strings.ToLower(strings.TrimSpace(v))
		switch text {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return defaultVal
}

func coerceInt(value any, defaultVal int) int {
	if value == nil {
		return defaultVal
	}

	switch v := value.(type) {
	case bool:
		return defaultVal
	case int:
		return v
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return defaultVal
		}
		if i, err := strconv.Atoi(text); err == nil {
			return i
		}
	}
	return defaultVal
}

// coerceSortSpec accepts "path,-status" or a YAML list of column ids.
func coerceSortSpec(value any, defaultVal models.SortSpec) models.SortSpec {
	var text string
	switch v := value.(type) {
	case string:
		text = v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		text = strings.Join(parts, ",")
	default:
		return defaultVal
	}
	spec := models.KnownSortSpec(models.ParseSortSpec(text))
	if len(spec) == 0 {
		return defaultVal
	}
	return spec
}

func parseConfig(data map[string]any) *AppConfig {
	cfg := DefaultConfig()

	if backend, ok := data["backend"].(string); ok {
		backend = strings.ToLower(strings.TrimSpace(backend))
		if backend == BackendExec || backend == BackendGoGit {
			cfg.Backend = backend
		}
	}

	if stateBackend, ok := data["state_backend"].(string); ok {
		stateBackend = strings.ToLower(strings.TrimSpace(stateBackend))
		if stateBackend == StateBackendFile || stateBackend == StateBackendSQLite {
			cfg.StateBackend = stateBackend
		}
	}

	if stateDir, ok := data["state_dir"].(string); ok {
		stateDir = strings.TrimSpace(stateDir)
		if stateDir != "" {
			if expanded, err := expandPath(stateDir); err == nil {
				cfg.StateDir = expanded
			}
		}
	}

	if debugLog, ok := data["debug_log"].(string); ok {
		debugLog = strings.TrimSpace(debugLog)
		if debugLog != "" {
			cfg.DebugLog = debugLog
		}
	}

	if scope, ok := data["sort_scope"].(string); ok {
		scope = strings.ToLower(strings.TrimSpace(scope))
		switch scope {
		case "persistent", "project", "session":
			cfg.SortScope = scope
		}
	}

	if themeName, ok := data["theme"].(string); ok {
		if normalized := NormalizeThemeName(themeName); normalized != "" {
			cfg.Theme = normalized
		}
	}

	cfg.AutoRefresh = coerceBool(data["auto_refresh"], cfg.AutoRefresh)
	cfg.ShowIcons = coerceBool(data["show_icons"], cfg.ShowIcons)
	cfg.ShowIgnored = coerceBool(data["show_ignored"], cfg.ShowIgnored)
	cfg.RefreshIntervalSeconds = coerceInt(data["refresh_interval"], cfg.RefreshIntervalSeconds)
	cfg.CheckpointIntervalSeconds = coerceInt(data["checkpoint_interval"], cfg.CheckpointIntervalSeconds)
	cfg.GitTimeoutSeconds = coerceInt(data["git_timeout"], cfg.GitTimeoutSeconds)
	cfg.SortOrder = coerceSortSpec(data["sort_order"], cfg.SortOrder)

	if cfg.RefreshIntervalSeconds < 0 {
		cfg.RefreshIntervalSeconds = 0
	}
	if cfg.CheckpointIntervalSeconds < 0 {
		cfg.CheckpointIntervalSeconds = 0
	}
	if cfg.GitTimeoutSeconds < 0 {
		cfg.GitTimeoutSeconds = 0
	}

	return cfg
}

func getConfigDir() string {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

func defaultStateDir() string {
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return filepath.Join(xdgStateHome, "lazychangelist")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "lazychangelist")
}

// LoadOptions selects the configuration sources.
type LoadOptions struct {
	// ConfigPath overrides the YAML file; it must live in the config dir.
	ConfigPath string
	// RepoPath enables repository-local git config lookup.
	RepoPath string
	// Overrides are "lcl.key=value" pairs applied last.
	Overrides []string
}

// LoadConfig reads the YAML file, then global and repository git config
// (lcl.* keys), then command-line overrides. Later sources win per key.
func LoadConfig(opts LoadOptions) (*AppConfig, error) {
	data, err := loadYAML(opts.ConfigPath)
	if err != nil {
		return DefaultConfig(), err
	}

	if global, err := loadGitConfig(true, ""); err == nil {
		mergeInto(data, global)
	}
	if repoPath := determineRepoPath(opts.RepoPath); repoPath != "" {
		if local, err := loadGitConfig(false, repoPath); err == nil {
			mergeInto(data, local)
		}
	}

	if len(opts.Overrides) > 0 {
		overrides, err := parseCLIConfigOverrides(opts.Overrides)
		if err != nil {
			return DefaultConfig(), err
		}
		mergeInto(data, overrides)
	}

	cfg := parseConfig(data)
	if cfg.Theme == "" {
		cfg.Theme = theme.Detect()
	}
	return cfg, nil
}

func loadYAML(configPath string) (map[string]any, error) {
	configBase := filepath.Clean(filepath.Join(getConfigDir(), "lazychangelist"))

	var paths []string
	if configPath != "" {
		expanded, err := expandPath(configPath)
		if err != nil {
			return nil, err
		}
		absPath, err := filepath.Abs(expanded)
		if err != nil {
			return nil, err
		}
		if !isPathWithin(configBase, absPath) {
			return nil, fmt.Errorf("config path must reside inside %s", configBase)
		}
		paths = []string{absPath}
	} else {
		paths = []string{
			filepath.Join(configBase, "config.yaml"),
			filepath.Join(configBase, "config.yml"),
		}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		// #nosec G304 -- path is constrained to the config directory after validation
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var yamlData map[string]any
		if err := yaml.Unmarshal(raw, &yamlData); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if yamlData == nil {
			yamlData = map[string]any{}
		}
		return yamlData, nil
	}
	return map[string]any{}, nil
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path), nil
}

func isPathWithin(base, target string) bool {
	base = filepath.Clean(base)
	target = filepath.Clean(target)

	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return false
	}
	return true
}

// NormalizeThemeName returns the canonical theme name if it is supported.
func NormalizeThemeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, known := range theme.AvailableThemes() {
		if name == known {
			return name
		}
	}
	return ""
}
