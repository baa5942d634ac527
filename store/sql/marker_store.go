package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

const defaultMarkerTTL = 14 * 24 * time.Hour

// MarkerStore persists processed-event markers keyed by the sender's event
// id. MarkIfNew relies on the primary key constraint for atomicity: two
// racing writers get exactly one successful insert.
type MarkerStore struct {
	db   *bun.DB
	repo repository.Repository[*processedEventRecord]
	now  func() time.Time
}

func NewMarkerStore(db *bun.DB) (*MarkerStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*processedEventRecord](db, processedEventHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid processed event repository wiring: %w", err)
		}
	}
	return &MarkerStore{
		db:   db,
		repo: repo,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (s *MarkerStore) Seen(ctx context.Context, eventID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: marker store is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return false, fmt.Errorf("sqlstore: event id is required")
	}
	return s.db.NewSelect().
		Model((*processedEventRecord)(nil)).
		Where("?TableAlias.event_id = ?", eventID).
		Where("?TableAlias.expires_at > ?", s.now()).
		Exists(ctx)
}

func (s *MarkerStore) MarkIfNew(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: marker store is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return false, fmt.Errorf("sqlstore: event id is required")
	}
	if ttl <= 0 {
		ttl = defaultMarkerTTL
	}
	now := s.now()

	var marked bool
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &processedEventRecord{
			EventID:   eventID,
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
		}
		if _, insertErr := tx.NewInsert().Model(record).Exec(ctx); insertErr != nil {
			if !isUniqueViolation(insertErr) {
				return insertErr
			}
			existing, findErr := findMarkerTx(ctx, tx, eventID)
			if findErr != nil {
				return findErr
			}
			if existing == nil {
				return insertErr
			}
			if now.Before(existing.ExpiresAt) {
				marked = false
				return nil
			}
			// Expired marker left behind between retention sweeps; reclaim it.
			existing.ExpiresAt = now.Add(ttl)
			existing.CreatedAt = now
			if _, updateErr := tx.NewUpdate().
				Model(existing).
				Where("event_id = ?", existing.EventID).
				Exec(ctx); updateErr != nil {
				return updateErr
			}
			marked = true
			return nil
		}
		marked = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return marked, nil
}

func (s *MarkerStore) PurgeExpired(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: marker store is not configured")
	}
	result, err := s.db.NewDelete().
		Model((*processedEventRecord)(nil)).
		Where("expires_at <= ?", s.now()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func findMarkerTx(ctx context.Context, tx bun.Tx, eventID string) (*processedEventRecord, error) {
	record := &processedEventRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.event_id = ?", strings.TrimSpace(eventID)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
