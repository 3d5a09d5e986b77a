package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/giant-rabbit/lti-tool-provider/core"
)

type consumerRecord struct {
	bun.BaseModel `bun:"table:lti_consumers,alias:lc"`

	ID          string    `bun:"id,pk"`
	ConsumerKey string    `bun:"consumer_key,notnull"`
	Secret      string    `bun:"secret,notnull"`
	Name        string    `bun:"name"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *consumerRecord) toDomain() core.Consumer {
	if r == nil {
		return core.Consumer{}
	}
	return core.Consumer{
		ID:        r.ID,
		Key:       r.ConsumerKey,
		Secret:    r.Secret,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type registrationRecord struct {
	bun.BaseModel `bun:"table:lti_registrations,alias:lr"`

	ID             string    `bun:"id,pk"`
	ClientID       string    `bun:"client_id,notnull"`
	Issuer         string    `bun:"issuer,notnull"`
	DeploymentID   string    `bun:"deployment_id,notnull"`
	Name           string    `bun:"name"`
	SharedSecret   string    `bun:"shared_secret"`
	PlatformKeyPEM string    `bun:"platform_key_pem"`
	ToolKeyPEM     string    `bun:"tool_key_pem"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *registrationRecord) toDomain() core.Registration {
	if r == nil {
		return core.Registration{}
	}
	return core.Registration{
		ID:             r.ID,
		ClientID:       r.ClientID,
		Issuer:         r.Issuer,
		DeploymentID:   r.DeploymentID,
		Name:           r.Name,
		SharedSecret:   r.SharedSecret,
		PlatformKeyPEM: r.PlatformKeyPEM,
		ToolKeyPEM:     r.ToolKeyPEM,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type nonceRecord struct {
	bun.BaseModel `bun:"table:lti_nonces,alias:ln"`

	ID        string    `bun:"id,pk"`
	NonceKey  string    `bun:"nonce_key,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type userRecord struct {
	bun.BaseModel `bun:"table:lti_users,alias:lu"`

	ID         string            `bun:"id,pk"`
	Name       string            `bun:"name,notnull"`
	Attributes map[string]string `bun:"attributes,type:jsonb,notnull"`
	CreatedAt  time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time         `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *userRecord) toDomain() core.User {
	if r == nil {
		return core.User{}
	}
	attributes := make(map[string]string, len(r.Attributes))
	for name, value := range r.Attributes {
		attributes[name] = value
	}
	return core.User{
		ID:         r.ID,
		Name:       r.Name,
		Attributes: attributes,
	}
}
