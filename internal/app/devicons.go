package app

import (
	"io/fs"
	"path"
	"strings"
	"time"

	devicons "github.com/epilande/go-devicons"
)

// pathInfo presents a repository-relative path as the fs.FileInfo
// go-devicons expects. Untracked directories are reported by git with a
// trailing slash.
type pathInfo string

func (p pathInfo) Name() string { return path.Base(strings.TrimSuffix(string(p), "/")) }

func (p pathInfo) IsDir() bool { return strings.HasSuffix(string(p), "/") }

func (p pathInfo) Mode() fs.FileMode {
	if p.IsDir() {
		return fs.ModeDir | 0o755
	}
	return 0o644
}

func (pathInfo) Size() int64        { return 0 }
func (pathInfo) ModTime() time.Time { return time.Time{} }
func (pathInfo) Sys() any           { return nil }

// deviconForPath returns the Nerd Font glyph for p.
func deviconForPath(p string) string {
	if p == "" {
		return ""
	}
	return devicons.IconForInfo(pathInfo(p)).Icon
}

// iconFor memoizes deviconForPath by file name; the listing is re-rendered
// on every refresh while names rarely change.
func (m *Model) iconFor(p string) string {
	info := pathInfo(p)
	key := info.Name()
	if info.IsDir() {
		key += "/"
	}
	if icon, ok := m.icons[key]; ok {
		return icon
	}
	if m.icons == nil {
		m.icons = make(map[string]string)
	}
	icon := deviconForPath(p)
	m.icons[key] = icon
	return icon
}
