package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cemleme/GRB-contracts/core/events"
)

// DefaultLimit caps a query without an explicit limit.
const DefaultLimit = 100

// MaxLimit caps every query.
const MaxLimit = 1000

// EventRecord is one persisted game event.
type EventRecord struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Seq        uint64            `gorm:"uniqueIndex;not null" json:"seq"`
	Type       string            `gorm:"size:64;index" json:"type"`
	User       string            `gorm:"size:42;index" json:"user"`
	Attributes map[string]string `gorm:"serializer:json" json:"attributes"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Filter narrows a query.
type Filter struct {
	User string
	Type string
	// AfterSeq returns records with a larger sequence only.
	AfterSeq uint64
	Limit    int
}

// Journal persists emitted events to sqlite through gorm.
type Journal struct {
	db  *gorm.DB
	log *slog.Logger

	mu  sync.Mutex
	seq uint64
	now func() time.Time
}

// Open opens (creating when needed) the sqlite database at path. ":memory:"
// keeps the journal in memory.
func Open(path string, log *slog.Logger) (*Journal, error) {
	dsn := strings.TrimSpace(path)
	if dsn == "" {
		return nil, errors.New("journal: path required")
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", dsn, err)
	}
	return New(db, log)
}

// New wraps an existing gorm handle and migrates the schema.
func New(db *gorm.DB, log *slog.Logger) (*Journal, error) {
	if db == nil {
		return nil, errors.New("journal: nil database")
	}
	if log == nil {
		log = slog.Default()
	}
	if err := db.AutoMigrate(&EventRecord{}); err != nil {
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	var last EventRecord
	res := db.Order("seq desc").Limit(1).Find(&last)
	if res.Error != nil {
		return nil, fmt.Errorf("journal: load sequence: %w", res.Error)
	}
	j := &Journal{db: db, log: log.With(slog.String("component", "journal")), now: time.Now}
	if res.RowsAffected > 0 {
		j.seq = last.Seq
	}
	return j, nil
}

// SetNowFunc overrides the timestamp source.
func (j *Journal) SetNowFunc(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	j.now = now
}

func record(evt events.Event) EventRecord {
	rec := EventRecord{Type: evt.EventType(), Attributes: map[string]string{}}
	if typed, ok := evt.(events.Typed); ok {
		if payload := typed.Event(); payload != nil {
			for k, v := range payload.Attributes {
				rec.Attributes[k] = v
			}
		}
	}
	rec.User = strings.ToLower(rec.Attributes["user"])
	return rec
}

// Append stores evts in order.
func (j *Journal) Append(ctx context.Context, evts ...events.Event) error {
	if len(evts) == 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	recs := make([]EventRecord, 0, len(evts))
	seq := j.seq
	for _, evt := range evts {
		if evt == nil {
			continue
		}
		seq++
		rec := record(evt)
		rec.ID = uuid.New()
		rec.Seq = seq
		rec.CreatedAt = j.now().UTC()
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return nil
	}
	if err := j.db.WithContext(ctx).Create(&recs).Error; err != nil {
		return fmt.Errorf("journal: append: %w", err)
	}
	j.seq = seq
	return nil
}

// Emit implements events.Emitter. Write failures are logged.
func (j *Journal) Emit(evt events.Event) {
	if err := j.Append(context.Background(), evt); err != nil {
		j.log.Error("persist event failed", slog.String("type", evt.EventType()), slog.Any("error", err))
	}
}

// Query returns matching records ordered by sequence.
func (j *Journal) Query(ctx context.Context, filter Filter) ([]EventRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	q := j.db.WithContext(ctx).Model(&EventRecord{}).Where("seq > ?", filter.AfterSeq)
	if user := strings.TrimSpace(filter.User); user != "" {
		q = q.Where("user = ?", strings.ToLower(user))
	}
	if typ := strings.TrimSpace(filter.Type); typ != "" {
		q = q.Where("type = ?", typ)
	}
	var out []EventRecord
	if err := q.Order("seq asc").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	return out, nil
}

// Count returns the number of stored records.
func (j *Journal) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := j.db.WithContext(ctx).Model(&EventRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("journal: count: %w", err)
	}
	return n, nil
}

// Close releases the underlying connection.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
