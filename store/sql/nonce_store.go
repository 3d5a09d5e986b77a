package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/giant-rabbit/lti-tool-provider/core"
)

const defaultNonceTTL = 5 * time.Minute

// NonceStore is the durable replay ledger. Claims survive restarts and are
// shared across instances pointing at the same database.
type NonceStore struct {
	db   *bun.DB
	repo repository.Repository[*nonceRecord]
	Now  func() time.Time
}

func (s *NonceStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if s == nil || s.repo == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: nonce store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return false, fmt.Errorf("sqlstore: nonce key is required")
	}
	if ttl <= 0 {
		ttl = defaultNonceTTL
	}
	now := s.now()

	records, _, err := s.repo.List(ctx,
		repository.SelectBy("nonce_key", "=", key),
	)
	if err != nil {
		return false, err
	}
	if len(records) > 0 {
		existing := records[0]
		if now.Before(existing.ExpiresAt) {
			return false, nil
		}
		existing.ExpiresAt = now.Add(ttl)
		if _, err := s.repo.Update(ctx, existing, repository.UpdateByID(existing.ID)); err != nil {
			return false, err
		}
		return true, nil
	}

	record := &nonceRecord{
		ID:        uuid.NewString(),
		NonceKey:  key,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if _, err := s.repo.Create(ctx, record); err != nil {
		return false, err
	}
	return true, nil
}

func (s *NonceStore) PurgeExpired(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: nonce store is not configured")
	}
	result, err := s.db.NewDelete().
		Model((*nonceRecord)(nil)).
		Where("expires_at <= ?", s.now()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(affected), nil
}

func (s *NonceStore) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

var _ core.ReplayLedger = (*NonceStore)(nil)
