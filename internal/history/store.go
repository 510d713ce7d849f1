package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// record is the database row for an Entry
type record struct {
	ID        string `gorm:"primaryKey"`
	Path      string
	URL       string
	TakenAt   int64 `gorm:"index"`
	CreatedAt int64 `gorm:"autoCreateTime"`
}

func (record) TableName() string {
	return "screenshots"
}

// BeforeCreate hook to generate UUID
func (r *record) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.TakenAt == 0 {
		r.TakenAt = time.Now().UnixNano()
	}
	return nil
}

func (r record) entry() Entry {
	return Entry{
		ID:   r.ID,
		Path: r.Path,
		URL:  r.URL,
		Time: time.Unix(0, r.TakenAt),
	}
}

// SQLStore keeps history in a sqlite database
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLStore opens (creating if needed) the database at path
func OpenSQLStore(path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	return &SQLStore{db: db}, nil
}

// Save inserts the entry, filling in its ID and time when unset
func (s *SQLStore) Save(entry *Entry) error {
	r := record{
		ID:   entry.ID,
		Path: entry.Path,
		URL:  entry.URL,
	}
	if !entry.Time.IsZero() {
		r.TakenAt = entry.Time.UnixNano()
	}

	if err := s.db.Create(&r).Error; err != nil {
		return fmt.Errorf("failed to save history entry: %w", err)
	}

	entry.ID = r.ID
	entry.Time = time.Unix(0, r.TakenAt)
	return nil
}

// Recent returns up to n entries, newest first. n <= 0 returns everything.
func (s *SQLStore) Recent(n int) ([]Entry, error) {
	q := s.db.Order("taken_at DESC")
	if n > 0 {
		q = q.Limit(n)
	}

	var rows []record
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = r.entry()
	}
	return entries, nil
}

// Close releases the database handle
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
