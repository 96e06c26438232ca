package storage

import (
	"context"
	"errors"

	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps values in the kv_entries table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	logger.Debug("Reading key from database", map[string]interface{}{
		"key": key,
	})

	var entry model.KVEntry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		logger.Error("Failed to read key from database", err, map[string]interface{}{
			"key": key,
		})
		return nil, err
	}

	return entry.Value, nil
}

func (s *GormStore) Set(ctx context.Context, key string, value []byte) error {
	logger.Debug("Writing key to database", map[string]interface{}{
		"key":  key,
		"size": len(value),
	})

	entry := model.KVEntry{Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		logger.Error("Failed to write key to database", err, map[string]interface{}{
			"key": key,
		})
		return err
	}

	return nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	logger.Debug("Deleting key from database", map[string]interface{}{
		"key": key,
	})

	if err := s.db.WithContext(ctx).Where("entry_key = ?", key).Delete(&model.KVEntry{}).Error; err != nil {
		logger.Error("Failed to delete key from database", err, map[string]interface{}{
			"key": key,
		})
		return err
	}

	return nil
}
