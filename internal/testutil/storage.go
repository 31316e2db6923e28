package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dtroode/alumni-connect-server/internal/model"
)

// MemoryStorage is a concurrency safe in-memory model.Storage.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string

	// DownloadErr, when set, is returned by every Download.
	DownloadErr error
	// UploadErr, when set, is returned by every Upload.
	UploadErr error
}

var _ model.Storage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		objects: map[string][]byte{},
		types:   map[string]string{},
	}
}

// Put stores data under key without going through Upload.
func (s *MemoryStorage) Put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
}

// Len returns the number of stored objects.
func (s *MemoryStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// ContentType returns the content type recorded for key.
func (s *MemoryStorage) ContentType(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.types[key]
}

func (s *MemoryStorage) Upload(_ context.Context, key string, reader io.Reader, _ int64, contentType string) error {
	if s.UploadErr != nil {
		return s.UploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *MemoryStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.DownloadErr != nil {
		return nil, s.DownloadErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, model.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	delete(s.types, key)
	return nil
}

func (s *MemoryStorage) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}
