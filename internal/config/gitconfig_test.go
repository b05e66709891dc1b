package config

import (
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGitConfigOutput(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected map[string]any
	}{
		{
			name:   "single values",
			output: "lcl.backend\ngogit\x00lcl.auto_refresh\ntrue\x00lcl.theme\ndracula\x00",
			expected: map[string]any{
				"backend":      "gogit",
				"auto_refresh": "true",
				"theme":        "dracula",
			},
		},
		{
			name:   "repeated keys become a list",
			output: "lcl.sort_order\npath\x00lcl.sort_order\n-status\x00lcl.sort_order\nstaged\x00",
			expected: map[string]any{
				"sort_order": []any{"path", "-status", "staged"},
			},
		},
		{
			name:     "values keep spaces and newlines",
			output:   "lcl.state_dir\n/home/me/my state\x00lcl.theme\nnord\nextra\x00",
			expected: map[string]any{"state_dir": "/home/me/my state", "theme": "nord\nextra"},
		},
		{
			name:     "bare key is true",
			output:   "lcl.show_ignored\x00",
			expected: map[string]any{"show_ignored": "true"},
		},
		{
			name:     "empty value",
			output:   "lcl.theme\n\x00",
			expected: map[string]any{"theme": ""},
		},
		{
			name:     "empty output",
			output:   "",
			expected: map[string]any{},
		},
		{
			name:     "blank records are skipped",
			output:   "\x00  \x00lcl.backend\nexec\x00\n",
			expected: map[string]any{"backend": "exec"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseGitConfigOutput(tt.output))
		})
	}
}

func TestRawValuesAdd(t *testing.T) {
	values := rawValues{}
	values.add("theme", "nord")
	assert.Equal(t, "nord", values["theme"])

	values.add("theme", "dracula")
	values.add("theme", "clean-light")
	assert.Equal(t, []any{"nord", "dracula", "clean-light"}, values["theme"])
}

func TestIsInGitRepo(t *testing.T) {
	assert.False(t, isInGitRepo(""))
	assert.False(t, isInGitRepo("/non/existent/path/12345"))

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	cmd := exec.Command("git", "init", "-q")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())
	assert.True(t, isInGitRepo(dir))
	assert.Equal(t, dir, determineRepoPath(dir))
}

func TestParseCLIConfigOverrides(t *testing.T) {
	tests := []struct {
		name      string
		overrides []string
		expected  map[string]any
		wantErr   bool
		errMsg    string
	}{
		{
			name:      "single override",
			overrides: []string{"lcl.theme=dracula"},
			expected:  map[string]any{"theme": "dracula"},
		},
		{
			name:      "multiple overrides",
			overrides: []string{"lcl.theme=nord", "lcl.auto_refresh=false", "lcl.backend=gogit"},
			expected: map[string]any{
				"theme":        "nord",
				"auto_refresh": "false",
				"backend":      "gogit",
			},
		},
		{
			name:      "value with equals sign",
			overrides: []string{"lcl.state_dir=/tmp/a=b"},
			expected:  map[string]any{"state_dir": "/tmp/a=b"},
		},
		{
			name:      "repeated keys become array",
			overrides: []string{"lcl.sort_order=staged", "lcl.sort_order=path", "lcl.sort_order=-status"},
			expected: map[string]any{
				"sort_order": []any{"staged", "path", "-status"},
			},
		},
		{
			name:      "missing equals sign",
			overrides: []string{"lcl.theme"},
			wantErr:   true,
			errMsg:    "invalid config override",
		},
		{
			name:      "missing prefix",
			overrides: []string{"theme=dracula"},
			wantErr:   true,
			errMsg:    `config override key must start with "lcl."`,
		},
		{
			name:      "empty key",
			overrides: []string{"lcl.=value"},
			wantErr:   true,
			errMsg:    "empty config key",
		},
		{
			name:      "empty value is allowed",
			overrides: []string{"lcl.theme="},
			expected:  map[string]any{"theme": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseCLIConfigOverrides(tt.overrides)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestLoadGitConfigErrorHandling(t *testing.T) {
	defer func() { gitConfigMock = nil }()

	gitConfigMock = func(args []string, repoPath string) (string, error) {
		return "", fmt.Errorf("git command failed")
	}

	result, err := loadGitConfig(true, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git command failed")
	assert.Nil(t, result)
}

func TestLoadGitConfig(t *testing.T) {
	defer func() { gitConfigMock = nil }()

	tests := []struct {
		name       string
		globalOnly bool
		repoPath   string
		mockOutput string
		expected   map[string]any
	}{
		{
			name:       "global config with values",
			globalOnly: true,
			mockOutput: "lcl.backend\ngogit\x00lcl.auto_refresh\ntrue\x00",
			expected: map[string]any{
				"backend":      "gogit",
				"auto_refresh": "true",
			},
		},
		{
			name:       "local config with values",
			repoPath:   "/repo",
			mockOutput: "lcl.theme\ndracula\x00lcl.refresh_interval\n5\x00",
			expected: map[string]any{
				"theme":            "dracula",
				"refresh_interval": "5",
			},
		},
		{
			name:       "empty output",
			globalOnly: true,
			expected:   map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gitConfigMock = func(args []string, repoPath string) (string, error) {
				assert.Contains(t, args, "-z")
				if tt.globalOnly {
					assert.Contains(t, args, "--global")
				} else {
					assert.Contains(t, args, "--local")
				}
				assert.Equal(t, tt.repoPath, repoPath)
				return tt.mockOutput, nil
			}

			result, err := loadGitConfig(tt.globalOnly, tt.repoPath)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRunGitConfigMock(t *testing.T) {
	defer func() { gitConfigMock = nil }()

	gitConfigMock = func(args []string, repoPath string) (string, error) {
		return "lcl.theme\nnord\x00", nil
	}

	output, err := runGitConfig([]string{"config"}, "")
	require.NoError(t, err)
	assert.Equal(t, "lcl.theme\nnord\x00", output)
}
