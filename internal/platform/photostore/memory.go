package photostore

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

type storedPhoto struct {
	meta    Meta
	content []byte
}

// MemoryStore is a thread-safe, in-memory Store for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	photos map[string]*storedPhoto
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{photos: make(map[string]*storedPhoto)}
}

func (s *MemoryStore) Save(_ context.Context, meta Meta, content io.Reader) (*Meta, error) {
	if !AllowedContentTypes[meta.ContentType] {
		return nil, ErrBadContentType
	}
	data, err := io.ReadAll(io.LimitReader(content, MaxPhotoSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxPhotoSize {
		return nil, ErrTooLarge
	}

	meta.ID = uuid.New().String()
	meta.Size = int64(len(data))
	meta.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.photos[meta.ID] = &storedPhoto{meta: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

func (s *MemoryStore) Open(_ context.Context, id string) (io.ReadCloser, *Meta, error) {
	s.mu.RLock()
	p, ok := s.photos[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrNotFound
	}
	meta := p.meta
	return io.NopCloser(bytes.NewReader(p.content)), &meta, nil
}

func (s *MemoryStore) Stat(_ context.Context, id string) (*Meta, error) {
	s.mu.RLock()
	p, ok := s.photos[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	meta := p.meta
	return &meta, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.photos[id]; !ok {
		return ErrNotFound
	}
	delete(s.photos, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.photos))
	for id := range s.photos {
		ids = append(ids, id)
	}
	return ids, nil
}
