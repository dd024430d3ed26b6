package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	appErrors "github.com/fatali-fataliyev/banking_portal/customErrors"
	"github.com/fatali-fataliyev/banking_portal/internal/contextutil"
	"github.com/fatali-fataliyev/banking_portal/logging"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type SQLiteStorage struct {
	db *gorm.DB
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %q: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	// one writer at a time keeps Update transactions from hitting SQLITE_BUSY
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&stateEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
	}

	logging.Logger.Infof("sqlite storage ready at %s", path)
	return &SQLiteStorage{db: db}, nil
}

func (lite *SQLiteStorage) GetStorageType() string {
	return "sqlite"
}

func (lite *SQLiteStorage) Get(ctx context.Context, key string) (string, bool, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	var entry stateEntry
	err := lite.db.WithContext(ctx).Where("state_key = ?", key).Take(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to read key '%s' in SQLiteStorage.Get() function | Error: %v", traceID, key, err)
		return "", false, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to read stored data, try again later.",
		}
	}
	return entry.Value, true, nil
}

func (lite *SQLiteStorage) Set(ctx context.Context, key string, value string) error {
	return lite.save(lite.db.WithContext(ctx), contextutil.TraceIDFromContext(ctx), key, value)
}

func (lite *SQLiteStorage) Update(ctx context.Context, key string, fn UpdateFunc) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	return lite.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry stateEntry
		found := true
		err := tx.Where("state_key = ?", key).Take(&entry).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				logging.Logger.Errorf("[TraceID=%s] | failed to read key '%s' in SQLiteStorage.Update() function | Error: %v", traceID, key, err)
				return appErrors.ErrorResponse{
					Code:    appErrors.ErrInternal,
					Message: "Failed to update stored data, try again later.",
				}
			}
			found = false
		}

		next, err := fn(entry.Value, found)
		if err != nil {
			return err
		}
		return lite.save(tx, traceID, key, next)
	})
}

func (lite *SQLiteStorage) save(db *gorm.DB, traceID string, key string, value string) error {
	entry := stateEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"state_value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to save key '%s' in SQLiteStorage.save() function | Error: %v", traceID, key, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to save data, try again later.",
		}
	}
	return nil
}

func (lite *SQLiteStorage) Close() error {
	sqlDB, err := lite.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
