// Package indexer mirrors the chain's event log into SQL for querying and
// exports it as Parquet.
package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"eusko/core/events"
	"eusko/crypto"
)

const cursorName = "events"

// ErrDSNRequired is returned when no database location is configured.
var ErrDSNRequired = errors.New("indexer: database dsn must be configured")

// EventRow is one indexed chain event.
type EventRow struct {
	ID         string `gorm:"primaryKey;size:64"`
	Sequence   uint64 `gorm:"uniqueIndex;not null"`
	Height     uint64 `gorm:"index;not null"`
	TxHash     string `gorm:"size:66;index;not null"`
	Index      uint32 `gorm:"column:log_index;not null"`
	Type       string `gorm:"column:event_type;size:96;index;not null"`
	Attributes string `gorm:"type:text;not null"`
	Timestamp  int64  `gorm:"not null"`
}

func (EventRow) TableName() string { return "events" }

// EventAddress links an event to every address its attributes mention.
type EventAddress struct {
	EventID string `gorm:"primaryKey;size:64"`
	Address string `gorm:"primaryKey;size:96;index"`
}

func (EventAddress) TableName() string { return "event_addresses" }

// Cursor remembers the next log position to fetch.
type Cursor struct {
	Name string `gorm:"primaryKey;size:32"`
	Next uint64 `gorm:"not null"`
}

func (Cursor) TableName() string { return "cursors" }

// Store wraps the indexer database.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn. postgres:// and postgresql:// DSNs use the Postgres
// driver; anything else is treated as a SQLite path or URI.
func Open(dsn string) (*Store, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, ErrDSNRequired
	}
	var dialector gorm.Dialector
	if strings.HasPrefix(trimmed, "postgres://") || strings.HasPrefix(trimmed, "postgresql://") {
		dialector = postgres.Open(trimmed)
	} else {
		dialector = sqlite.Open(trimmed)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("indexer: open database: %w", err)
	}
	if err := db.AutoMigrate(&EventRow{}, &EventAddress{}, &Cursor{}); err != nil {
		return nil, fmt.Errorf("indexer: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Cursor returns the next sequence to fetch, zero for a fresh database.
func (s *Store) Cursor(ctx context.Context) (uint64, error) {
	var cur Cursor
	err := s.db.WithContext(ctx).Where("name = ?", cursorName).Take(&cur).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return cur.Next, nil
}

// Ingest stores records and advances the cursor to next in one transaction.
// Records already present (same event id) are counted as duplicates.
func (s *Store) Ingest(ctx context.Context, records []events.Record, next uint64) (indexed, duplicate int, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range records {
			row, err := toRow(rec)
			if err != nil {
				return err
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				duplicate++
				continue
			}
			indexed++
			if links := addressLinks(rec); len(links) > 0 {
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
					return err
				}
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"next"}),
		}).Create(&Cursor{Name: cursorName, Next: next}).Error
	})
	if err != nil {
		return 0, 0, err
	}
	return indexed, duplicate, nil
}

// Count reports the number of indexed events.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&EventRow{}).Count(&n).Error
	return n, err
}

// ByType lists events of eventType in log order.
func (s *Store) ByType(ctx context.Context, eventType string, limit int) ([]events.Record, error) {
	var rows []EventRow
	q := s.db.WithContext(ctx).Where("event_type = ?", eventType).Order("sequence")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return fromRows(rows)
}

// ByAddress lists events mentioning address, given in bech32 or hex form.
func (s *Store) ByAddress(ctx context.Context, address string, limit int) ([]events.Record, error) {
	addr, err := crypto.ParseAddress(address)
	if err != nil {
		return nil, err
	}
	var rows []EventRow
	q := s.db.WithContext(ctx).
		Joins("JOIN event_addresses ON event_addresses.event_id = events.id").
		Where("event_addresses.address = ?", addr.String()).
		Order("events.sequence")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return fromRows(rows)
}

// each walks every event in log order in batches.
func (s *Store) each(ctx context.Context, batch int, fn func([]EventRow) error) error {
	var rows []EventRow
	res := s.db.WithContext(ctx).Order("sequence").FindInBatches(&rows, batch, func(_ *gorm.DB, _ int) error {
		return fn(rows)
	})
	return res.Error
}

func toRow(rec events.Record) (EventRow, error) {
	attrs, err := json.Marshal(rec.Attributes)
	if err != nil {
		return EventRow{}, err
	}
	return EventRow{
		ID:         rec.ID,
		Sequence:   rec.Sequence,
		Height:     rec.Height,
		TxHash:     rec.TxHash.Hex(),
		Index:      rec.Index,
		Type:       rec.Type,
		Attributes: string(attrs),
		Timestamp:  rec.Timestamp,
	}, nil
}

func fromRows(rows []EventRow) ([]events.Record, error) {
	out := make([]events.Record, 0, len(rows))
	for _, row := range rows {
		rec := events.Record{
			Sequence:  row.Sequence,
			ID:        row.ID,
			Height:    row.Height,
			Index:     row.Index,
			Type:      row.Type,
			Timestamp: row.Timestamp,
		}
		if err := rec.TxHash.UnmarshalText([]byte(row.TxHash)); err != nil {
			return nil, fmt.Errorf("indexer: event %s: %w", row.ID, err)
		}
		if err := json.Unmarshal([]byte(row.Attributes), &rec.Attributes); err != nil {
			return nil, fmt.Errorf("indexer: event %s: %w", row.ID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// addressLinks extracts the distinct addresses among rec's attribute values.
func addressLinks(rec events.Record) []EventAddress {
	seen := make(map[string]struct{})
	var links []EventAddress
	for _, value := range rec.Attributes {
		addr, err := crypto.ParseAddress(value)
		if err != nil {
			continue
		}
		key := addr.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		links = append(links, EventAddress{EventID: rec.ID, Address: key})
	}
	return links
}
