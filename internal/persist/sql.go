package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// StateRecord is one persisted claim session.
type StateRecord struct {
	Key       string `gorm:"column:claim_key;primaryKey;size:128"`
	Value     []byte
	ExpiresAt *time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (StateRecord) TableName() string {
	return "claim_states"
}

type SQLStore struct {
	db      *gorm.DB
	dialect string
	ttl     time.Duration
}

// OpenSQLStore connects with the postgres or sqlite driver and migrates the
// state table.
func OpenSQLStore(dialect, dsn string, ttl time.Duration) (*SQLStore, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(dialect) {
	case BackendPostgres:
		dialector = postgres.Open(dsn)
	case BackendSQLite:
		if dsn == "" {
			dsn = "file:flightclaim.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", dialect, err)
	}
	return NewSQLStore(db, dialect, ttl)
}

func NewSQLStore(db *gorm.DB, dialect string, ttl time.Duration) (*SQLStore, error) {
	if err := db.AutoMigrate(&StateRecord{}); err != nil {
		return nil, fmt.Errorf("migrate claim_states: %w", err)
	}
	return &SQLStore{db: db, dialect: strings.ToLower(dialect), ttl: ttl}, nil
}

func (s *SQLStore) Name() string {
	return s.dialect
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var rec StateRecord
	err := s.db.WithContext(ctx).Where("claim_key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}

	if rec.ExpiresAt != nil && time.Now().After(*rec.ExpiresAt) {
		if err := s.Remove(ctx, key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return rec.Value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	rec := StateRecord{Key: key, Value: value}
	if s.ttl > 0 {
		exp := time.Now().Add(s.ttl)
		rec.ExpiresAt = &exp
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "claim_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("claim_key = ?", key).Delete(&StateRecord{}).Error; err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
