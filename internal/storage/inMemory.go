package storage

import (
	"context"
	"sync"
)

type InMemoryStorage struct {
	mu      sync.Mutex
	entries map[string]string
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{entries: make(map[string]string)}
}

func (inMem *InMemoryStorage) GetStorageType() string {
	return "inmemory"
}

func (inMem *InMemoryStorage) Get(ctx context.Context, key string) (string, bool, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	value, ok := inMem.entries[key]
	return value, ok, nil
}

func (inMem *InMemoryStorage) Set(ctx context.Context, key string, value string) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	inMem.entries[key] = value
	return nil
}

func (inMem *InMemoryStorage) Update(ctx context.Context, key string, fn UpdateFunc) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	current, found := inMem.entries[key]
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	inMem.entries[key] = next
	return nil
}

func (inMem *InMemoryStorage) Close() error {
	return nil
}
