package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	identityapp "github.com/marketplace/backend/internal/application/identity"
)

var _ identityapp.ObjectStorage = (*MemoryObjectStorage)(nil)

// Object is a stored blob
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryObjectStorage keeps objects in process memory. It is used when no
// bucket is configured and in tests.
type MemoryObjectStorage struct {
	baseURL string
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryObjectStorage creates a new MemoryObjectStorage serving URLs under baseURL
func NewMemoryObjectStorage(baseURL string) *MemoryObjectStorage {
	if baseURL == "" {
		baseURL = "http://localhost:8080/uploads"
	}
	return &MemoryObjectStorage{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]Object),
	}
}

// Upload stores body under key
func (s *MemoryObjectStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	data, err := io.ReadAll(io.LimitReader(body, size+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) != size {
		return "", fmt.Errorf("upload size mismatch: declared %d, read %d", size, len(data))
	}

	s.mu.Lock()
	s.objects[key] = Object{Data: data, ContentType: contentType}
	s.mu.Unlock()
	return s.baseURL + "/" + key, nil
}

// Delete removes an object; deleting a missing key succeeds
func (s *MemoryObjectStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// Get returns a stored object
func (s *MemoryObjectStorage) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Len returns the number of stored objects
func (s *MemoryObjectStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
