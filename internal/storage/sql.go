package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type kvEntry struct {
	Key       string `gorm:"column:entry_key;primaryKey;size:191"`
	Value     string `gorm:"column:value;type:text"`
	UpdatedAt time.Time
}

func (kvEntry) TableName() string { return "kv_entries" }

type sqlSubstrate struct {
	db    *gorm.DB
	owned bool
}

// NewSQLSubstrate stores keys as rows of the kv_entries table, creating the
// table if it does not exist.
func NewSQLSubstrate(db *gorm.DB) (Substrate, error) {
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("migrating kv_entries: %w", err)
	}
	return &sqlSubstrate{db: db}, nil
}

// OpenSQLiteSubstrate opens (or creates) a SQLite database at path and
// returns a substrate over it. The substrate owns the connection; its Close
// releases the database file.
func OpenSQLiteSubstrate(path string) (Substrate, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("opening sqlite store: creating directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	sub, err := NewSQLSubstrate(db)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	sub.(*sqlSubstrate).owned = true
	return sub, nil
}

// Close releases the connection pool if the substrate opened it. A handle
// passed to NewSQLSubstrate stays with its caller. Closing twice is a no-op.
func (s *sqlSubstrate) Close() error {
	if !s.owned {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("closing sqlite store: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("closing sqlite store: %w", err)
	}
	return nil
}

func (s *sqlSubstrate) Get(key string) (string, bool, error) {
	var e kvEntry
	err := s.db.Where("entry_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return e.Value, true, nil
}

func (s *sqlSubstrate) Set(key, value string) error {
	e := kvEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}
