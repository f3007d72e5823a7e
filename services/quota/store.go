package quota

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var ErrStorageDirRequired = errors.New("storage directory not provided")

// FileStore persists quota entries as a single JSON map, written atomically
// via a temp file and rename.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]Entry
}

func NewFileStore(storageDir string) (*FileStore, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create quota dir: %w", err)
	}

	st := &FileStore{
		path:    filepath.Join(storageDir, "ai_quota.json"),
		entries: make(map[string]Entry),
	}
	if err := st.load(); err != nil {
		return nil, err
	}
	return st, nil
}

func (st *FileStore) Get(userID string) (Entry, bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.entries[userID]
	return e, ok, nil
}

func (st *FileStore) Put(userID string, e Entry) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.entries[userID] = e
	return st.saveLocked()
}

func (st *FileStore) load() error {
	data, err := os.ReadFile(st.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read quota file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &st.entries); err != nil {
		return fmt.Errorf("decode quota file: %w", err)
	}
	return nil
}

func (st *FileStore) saveLocked() error {
	tmp := st.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create quota temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st.entries); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode quota file: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync quota file: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close quota temp file: %w", err)
	}

	if err := os.Rename(tmp, st.path); err != nil {
		return fmt.Errorf("replace quota file: %w", err)
	}
	return nil
}

// MemoryStore is a non-durable Store for tests and single-run tools.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Get(userID string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[userID]
	return e, ok, nil
}

func (m *MemoryStore) Put(userID string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = e
	return nil
}
