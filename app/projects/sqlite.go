package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// projectRow is the gorm model of the projects table.
type projectRow struct {
	Payload       string    `gorm:"primaryKey;size:64"`
	FileRef       string    `gorm:"not null"`
	WatchURL      string    `gorm:"not null"`
	ChannelPostID int       `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null;index"`
}

func (projectRow) TableName() string { return "projects" }

func (r projectRow) record() Record {
	return Record{
		Payload:       r.Payload,
		FileRef:       r.FileRef,
		WatchURL:      r.WatchURL,
		ChannelPostID: r.ChannelPostID,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

// SQLiteStore persists records in an embedded SQLite database through gorm.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore migrates the projects table and returns the store.
func NewSQLiteStore(db *gorm.DB) (*SQLiteStore, error) {
	if err := db.AutoMigrate(&projectRow{}); err != nil {
		return nil, fmt.Errorf("projects: migrate sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, payload string) (Record, error) {
	var row projectRow
	err := s.db.WithContext(ctx).Where("payload = ?", payload).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("projects: get %q: %w", payload, err)
	}
	return row.record(), nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	var rows []projectRow
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("payload ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("projects: list: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, r Record) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	row := projectRow{
		Payload:       r.Payload,
		FileRef:       r.FileRef,
		WatchURL:      r.WatchURL,
		ChannelPostID: r.ChannelPostID,
		CreatedAt:     r.CreatedAt,
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return fmt.Errorf("projects: insert %q: %w", r.Payload, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}
