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

type RegistrationStore struct {
	db   *bun.DB
	repo repository.Repository[*registrationRecord]
}

func (s *RegistrationStore) FindByClientID(ctx context.Context, clientID string) (core.Registration, bool, error) {
	return s.findBy(ctx, "client_id", clientID)
}

func (s *RegistrationStore) FindByIssuer(ctx context.Context, issuer string) (core.Registration, bool, error) {
	return s.findBy(ctx, "issuer", issuer)
}

func (s *RegistrationStore) findBy(ctx context.Context, column string, value string) (core.Registration, bool, error) {
	if s == nil || s.repo == nil {
		return core.Registration{}, false, fmt.Errorf("sqlstore: registration store is not configured")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return core.Registration{}, false, fmt.Errorf("sqlstore: %s is required", column)
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy(column, "=", value),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return core.Registration{}, false, err
	}
	if len(records) == 0 {
		return core.Registration{}, false, nil
	}
	return records[0].toDomain(), true, nil
}

func (s *RegistrationStore) Create(ctx context.Context, registration core.Registration) (core.Registration, error) {
	if s == nil || s.repo == nil {
		return core.Registration{}, fmt.Errorf("sqlstore: registration store is not configured")
	}
	if strings.TrimSpace(registration.ClientID) == "" {
		return core.Registration{}, fmt.Errorf("sqlstore: client id is required")
	}
	if strings.TrimSpace(registration.Issuer) == "" {
		return core.Registration{}, fmt.Errorf("sqlstore: issuer is required")
	}

	now := time.Now().UTC()
	record := &registrationRecord{
		ID:             strings.TrimSpace(registration.ID),
		ClientID:       strings.TrimSpace(registration.ClientID),
		Issuer:         strings.TrimSpace(registration.Issuer),
		DeploymentID:   strings.TrimSpace(registration.DeploymentID),
		Name:           strings.TrimSpace(registration.Name),
		SharedSecret:   registration.SharedSecret,
		PlatformKeyPEM: registration.PlatformKeyPEM,
		ToolKeyPEM:     registration.ToolKeyPEM,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Registration{}, err
	}
	return created.toDomain(), nil
}

var _ core.RegistrationStore = (*RegistrationStore)(nil)
