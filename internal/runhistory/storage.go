package runhistory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is a gorm-backed SQLite database of run and update history.
type Store struct {
	DB *gorm.DB
}

// Open creates or opens the run-history database at path (parent
// directories are created as needed) and migrates its schema.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("runhistory: create db directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("runhistory: open database: %w", err)
	}

	if err := db.AutoMigrate(&RunRecord{}, &UpdateRecord{}); err != nil {
		return nil, fmt.Errorf("runhistory: migrate schema: %w", err)
	}

	return &Store{DB: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordRun inserts a completed run's record.
func (s *Store) RecordRun(r RunRecord) error {
	return s.DB.Create(&r).Error
}

// RecentRuns returns the most recent limit run records, newest first.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	var out []RunRecord
	err := s.DB.Order("id desc").Limit(limit).Find(&out).Error
	return out, err
}

// RecordUpdate inserts a completed update's record.
func (s *Store) RecordUpdate(r UpdateRecord) error {
	return s.DB.Create(&r).Error
}

// RecentUpdates returns the most recent limit update records, newest first.
func (s *Store) RecentUpdates(limit int) ([]UpdateRecord, error) {
	var out []UpdateRecord
	err := s.DB.Order("id desc").Limit(limit).Find(&out).Error
	return out, err
}
