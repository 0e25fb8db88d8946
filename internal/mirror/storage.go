package mirror

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Storage is the injected backend holding serialized collections.
// A missing collection reads as nil with no error.
type Storage interface {
	Read(collection string) ([]byte, error)
	Write(collection string, data []byte) error
}

// MemoryStorage backs tests and ephemeral deployments.
type MemoryStorage struct {
	mu          sync.RWMutex
	collections map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{collections: make(map[string][]byte)}
}

func (s *MemoryStorage) Read(collection string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collections[collection], nil
}

func (s *MemoryStorage) Write(collection string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append([]byte(nil), data...)
	return nil
}

// FileStorage persists each collection as a JSON text file under dir.
type FileStorage struct {
	mu  sync.Mutex
	dir string
}

func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStorage{dir: dir}, nil
}

func (s *FileStorage) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

func (s *FileStorage) Read(collection string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *FileStorage) Write(collection string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.WriteFile(s.path(collection), data, 0o644)
}
