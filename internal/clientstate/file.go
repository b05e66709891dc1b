package clientstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	log "github.com/chmouel/lazychangelist/internal/log"
)

const (
	defaultFilePerms = 0o600
	defaultDirPerms  = 0o750

	// StateFilename is the JSON document holding durable client state.
	StateFilename = "client-state.json"
)

// ErrCorruptDocument is returned by Load when the state file is not JSON.
var ErrCorruptDocument = errors.New("client state file is not valid JSON")

// FileStore keeps every value of one scope in a single JSON document, with
// values nested as {"module": {"name": value}}.
type FileStore struct {
	path string
	logf func(string, ...any)
}

// FileStoreOption customises a FileStore.
type FileStoreOption func(*FileStore)

// WithFileLogger overrides the debug logger.
func WithFileLogger(logf func(string, ...any)) FileStoreOption {
	return func(f *FileStore) {
		f.logf = logf
	}
}

// NewFileStore returns a store backed by the JSON document at path. The file
// is created on first save.
func NewFileStore(path string, opts ...FileStoreOption) *FileStore {
	f := &FileStore{path: path, logf: log.Printf}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load implements BackingStore. The scope is not consulted; route scopes to
// separate files with a Router.
func (f *FileStore) Load(key Key, _ Scope) (json.RawMessage, bool, error) {
	data, err := f.read()
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	result := gjson.GetBytes(data, documentPath(key))
	if !result.Exists() {
		return nil, false, nil
	}
	return json.RawMessage(result.Raw), true, nil
}

// Save implements BackingStore. A corrupt document is moved aside to
// <path>.corrupt and replaced by a fresh one.
func (f *FileStore) Save(key Key, _ Scope, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("client state %s: value is not valid JSON", key)
	}
	data, err := f.read()
	if errors.Is(err, ErrCorruptDocument) {
		data, err = nil, f.quarantine()
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		data = []byte("{}")
	}
	updated, err := sjson.SetRawBytes(data, documentPath(key), value)
	if err != nil {
		return fmt.Errorf("client state %s: %w", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), defaultDirPerms); err != nil {
		return err
	}
	return os.WriteFile(f.path, updated, defaultFilePerms)
}

func (f *FileStore) read() ([]byte, error) {
	// #nosec G304 -- path comes from the configured state directory
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %s", ErrCorruptDocument, f.path)
	}
	return data, nil
}

func (f *FileStore) quarantine() error {
	aside := f.path + ".corrupt"
	if err := os.Rename(f.path, aside); err != nil {
		return fmt.Errorf("move corrupt client state aside: %w", err)
	}
	if f.logf != nil {
		f.logf("client state: %s was not valid JSON, moved to %s", f.path, aside)
	}
	return nil
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
)

func documentPath(key Key) string {
	return pathEscaper.Replace(key.Module) + "." + pathEscaper.Replace(key.Name)
}
