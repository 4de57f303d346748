package blobsvc

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/kyalo/darasa/core/course"
)

// MemoryStore keeps blobs in a map. For tests.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

var _ course.BlobStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, path string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, errors.Wrap(err, "reading blob")
	}
	s.mu.Lock()
	s.blobs[path] = data
	s.mu.Unlock()
	return int64(len(data)), nil
}

func (s *MemoryStore) Remove(_ context.Context, path string) error {
	s.mu.Lock()
	delete(s.blobs, path)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[path]
	return data, ok
}

// Reset drops all blobs. For tests.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	s.blobs = make(map[string][]byte)
	s.mu.Unlock()
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
