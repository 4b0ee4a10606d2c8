package filterstate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the persisted selection in a small JSON file. Read and write
// failures degrade to "nothing persisted"; a corrupt state file must never
// block the browser from starting.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get() (PersistedSelection, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return PersistedSelection{}, false
	}
	var sel PersistedSelection
	if err := json.Unmarshal(data, &sel); err != nil {
		return PersistedSelection{}, false
	}
	return sel, true
}

func (s *FileStore) Set(sel PersistedSelection) {
	data, err := json.Marshal(sel)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return
	}
	os.WriteFile(s.path, data, 0o644)
}

func (s *FileStore) Clear() {
	os.Remove(s.path)
}

// MemStore is the in-memory Store used in tests.
type MemStore struct {
	mu  sync.Mutex
	sel PersistedSelection
	ok  bool
}

func (s *MemStore) Get() (PersistedSelection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel, s.ok
}

func (s *MemStore) Set(sel PersistedSelection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel, s.ok = sel, true
}

func (s *MemStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel, s.ok = PersistedSelection{}, false
}
