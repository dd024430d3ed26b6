package storage

import (
	"context"
	"fmt"

	"github.com/fatali-fataliyev/banking_portal/internal/config"
)

type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
	GetStorageType() string
	Close() error
}

var (
	_ Backend = (*InMemoryStorage)(nil)
	_ Backend = (*SQLiteStorage)(nil)
	_ Backend = (*MySQLStorage)(nil)
)

// Open builds the backend selected by cfg.StorageDriver.
func Open(cfg config.Config) (Backend, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMem:
		return NewInMemoryStorage(), nil
	case config.StorageDriverLite:
		return NewSQLiteStorage(cfg.SQLitePath)
	case config.StorageDriverMySQL:
		db, err := Init(cfg.MySQL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return NewMySQLStorage(db), nil
	}
	return nil, fmt.Errorf("unknown storage driver: %q", cfg.StorageDriver)
}
