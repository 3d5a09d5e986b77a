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

type ConsumerStore struct {
	db   *bun.DB
	repo repository.Repository[*consumerRecord]
}

// FindByKey resolves a 1.0a consumer. A miss is a boolean, not an error,
// matching the null-identity contract of the trust store.
func (s *ConsumerStore) FindByKey(ctx context.Context, key string) (core.Consumer, bool, error) {
	if s == nil || s.repo == nil {
		return core.Consumer{}, false, fmt.Errorf("sqlstore: consumer store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return core.Consumer{}, false, fmt.Errorf("sqlstore: consumer key is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("consumer_key", "=", key),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return core.Consumer{}, false, err
	}
	if len(records) == 0 {
		return core.Consumer{}, false, nil
	}
	return records[0].toDomain(), true, nil
}

// Create provisions a consumer record. Administrative surfaces use this;
// the verification path never writes.
func (s *ConsumerStore) Create(ctx context.Context, consumer core.Consumer) (core.Consumer, error) {
	if s == nil || s.repo == nil {
		return core.Consumer{}, fmt.Errorf("sqlstore: consumer store is not configured")
	}
	if strings.TrimSpace(consumer.Key) == "" {
		return core.Consumer{}, fmt.Errorf("sqlstore: consumer key is required")
	}
	if strings.TrimSpace(consumer.Secret) == "" {
		return core.Consumer{}, fmt.Errorf("sqlstore: consumer secret is required")
	}

	now := time.Now().UTC()
	record := &consumerRecord{
		ID:          strings.TrimSpace(consumer.ID),
		ConsumerKey: strings.TrimSpace(consumer.Key),
		Secret:      consumer.Secret,
		Name:        strings.TrimSpace(consumer.Name),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Consumer{}, err
	}
	return created.toDomain(), nil
}

var _ core.ConsumerStore = (*ConsumerStore)(nil)
