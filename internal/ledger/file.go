package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileStore keeps the ledger in a JSON document (any YAML is accepted on read).
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

var _ Store = (*FileStore)(nil)

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Load reads the ledger file. A missing or empty file is an empty ledger.
func (s *FileStore) Load(_ context.Context) (Entry, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Entry{}, nil
		}
		return nil, fmt.Errorf("read ledger %q: %w", s.path, err)
	}

	var raw map[string]*string
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode ledger %q: %w", s.path, err)
	}
	m := make(map[string]string, len(raw))
	for device, v := range raw {
		// older ledgers may hold null for devices skipped without history
		if v != nil {
			m[device] = *v
		}
	}
	e, err := FromStrings(m)
	if err != nil {
		return nil, fmt.Errorf("ledger %q: %w", s.path, err)
	}
	return e, nil
}

// Save writes the ledger through a temp file in the same directory and renames it over the target.
func (s *FileStore) Save(_ context.Context, e Entry) error {
	b, err := json.MarshalIndent(e.Strings(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace ledger %q: %w", s.path, err)
	}
	return nil
}
