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

type UserStore struct {
	db   *bun.DB
	repo repository.Repository[*userRecord]
}

// Save upserts the user by name, replacing the stored attribute set with
// the staged one. The host identity system remains the source of truth for
// everything but the attributes this pipeline owns.
func (s *UserStore) Save(ctx context.Context, user *core.User) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: user store is not configured")
	}
	if user == nil {
		return fmt.Errorf("sqlstore: user is required")
	}
	name := strings.TrimSpace(user.Name)
	if name == "" {
		return fmt.Errorf("sqlstore: user name is required")
	}

	now := time.Now().UTC()
	attributes := make(map[string]string, len(user.Attributes))
	for key, value := range user.Attributes {
		attributes[key] = value
	}

	records, _, err := s.repo.List(ctx,
		repository.SelectBy("name", "=", name),
	)
	if err != nil {
		return err
	}
	if len(records) > 0 {
		existing := records[0]
		existing.Attributes = attributes
		existing.UpdatedAt = now
		if _, err := s.repo.Update(ctx, existing, repository.UpdateByID(existing.ID)); err != nil {
			return err
		}
		user.ID = existing.ID
		return nil
	}

	record := &userRecord{
		ID:         strings.TrimSpace(user.ID),
		Name:       name,
		Attributes: attributes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return err
	}
	user.ID = created.ID
	return nil
}

// FindByName loads a stored user, mostly for tests and administrative
// tooling.
func (s *UserStore) FindByName(ctx context.Context, name string) (core.User, bool, error) {
	if s == nil || s.repo == nil {
		return core.User{}, false, fmt.Errorf("sqlstore: user store is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return core.User{}, false, fmt.Errorf("sqlstore: user name is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("name", "=", name),
	)
	if err != nil {
		return core.User{}, false, err
	}
	if len(records) == 0 {
		return core.User{}, false, nil
	}
	return records[0].toDomain(), true, nil
}

var _ core.UserStore = (*UserStore)(nil)
