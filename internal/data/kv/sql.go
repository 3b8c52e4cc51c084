package kv

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/yungbote/souling-backend/internal/platform/logger"
)

// SQLRecord is the single table backing every collection on sql backends.
type SQLRecord struct {
	Seq        int64          `gorm:"primaryKey;autoIncrement;column:seq"`
	Collection string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_kv_record_collection_id,priority:1;column:collection"`
	RecordID   string         `gorm:"type:varchar(320);not null;uniqueIndex:idx_kv_record_collection_id,priority:2;column:record_id"`
	Data       datatypes.JSON `gorm:"not null;column:data"`
	Version    int64          `gorm:"not null;default:1;column:version"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (SQLRecord) TableName() string { return "kv_record" }

const sqlScanPageSize = 200

type sqlEngine struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewSQL wraps an open gorm handle (sqlite or postgres). The table must
// already exist; see db.AutoMigrateAll.
func NewSQL(db *gorm.DB, baseLog *logger.Logger) Engine {
	return &sqlEngine{db: db, log: baseLog.With("repo", "SQLEngine")}
}

func (s *sqlEngine) Insert(ctx context.Context, collection, id string, data []byte) error {
	now := time.Now().UTC()
	rec := &SQLRecord{
		Collection: collection,
		RecordID:   id,
		Data:       datatypes.JSON(data),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *sqlEngine) get(ctx context.Context, collection, id string) (*SQLRecord, error) {
	var rec SQLRecord
	err := s.db.WithContext(ctx).
		Where("collection = ? AND record_id = ?", collection, id).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return &rec, nil
}

func (s *sqlEngine) Get(ctx context.Context, collection, id string) ([]byte, error) {
	rec, err := s.get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	return []byte(rec.Data), nil
}

// Scan pages by seq so no connection stays checked out while the caller
// consumes records.
func (s *sqlEngine) Scan(ctx context.Context, collection string) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		var last int64
		for {
			var page []SQLRecord
			err := s.db.WithContext(ctx).
				Where("collection = ? AND seq > ?", collection, last).
				Order("seq ASC").
				Limit(sqlScanPageSize).
				Find(&page).Error
			if err != nil {
				yield(Record{}, fmt.Errorf("scan %s: %w", collection, err))
				return
			}
			for _, rec := range page {
				if !yield(Record{ID: rec.RecordID, Data: []byte(rec.Data)}, nil) {
					return
				}
				last = rec.Seq
			}
			if len(page) < sqlScanPageSize {
				return
			}
		}
	}
}

// Update runs read-modify-write in one transaction. Postgres takes a row lock;
// the version check still guards dialects that ignore FOR UPDATE.
func (s *sqlEngine) Update(ctx context.Context, collection, id string, fn MutateFunc) ([]byte, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var next []byte
		applied := false
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			q := tx.Where("collection = ? AND record_id = ?", collection, id)
			if tx.Dialector.Name() == "postgres" {
				q = q.Clauses(clause.Locking{Strength: "UPDATE"})
			}
			var rec SQLRecord
			if err := q.Take(&rec).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			var err error
			next, err = fn([]byte(rec.Data))
			if err != nil {
				return err
			}
			res := tx.Model(&SQLRecord{}).
				Where("seq = ? AND version = ?", rec.Seq, rec.Version).
				Updates(map[string]interface{}{
					"data":       datatypes.JSON(next),
					"version":    rec.Version + 1,
					"updated_at": time.Now().UTC(),
				})
			if res.Error != nil {
				return res.Error
			}
			applied = res.RowsAffected == 1
			return nil
		})
		if err != nil {
			return nil, err
		}
		if applied {
			return next, nil
		}
		s.log.Debug("optimistic update lost race, retrying", "collection", collection, "attempt", attempt+1)
	}
	return nil, ErrConflict
}

func (s *sqlEngine) Delete(ctx context.Context, collection, id string) error {
	err := s.db.WithContext(ctx).
		Where("collection = ? AND record_id = ?", collection, id).
		Delete(&SQLRecord{}).Error
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *sqlEngine) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
