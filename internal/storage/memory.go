package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStorage is a FileStorage for tests and local runs. Presigned URLs are fake
// and uploads happen through Put.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string]string // key -> content type
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]string)}
}

func (m *MemoryStorage) Put(objectKey, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectKey] = contentType
}

func (m *MemoryStorage) GeneratePresignedUploadURL(_ context.Context, objectKey string, _ string, expires time.Duration) (string, error) {
	return fmt.Sprintf("memory://upload/%s?expires=%d", objectKey, int(expires.Seconds())), nil
}

func (m *MemoryStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, expires time.Duration) (string, error) {
	return fmt.Sprintf("memory://download/%s?expires=%d", objectKey, int(expires.Seconds())), nil
}

func (m *MemoryStorage) ObjectExists(_ context.Context, objectKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[objectKey]
	return ok, nil
}

func (m *MemoryStorage) DeleteObject(_ context.Context, objectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, objectKey)
	return nil
}
