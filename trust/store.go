package trust

import (
	"context"
	"fmt"
	"strings"

	"github.com/giant-rabbit/lti-tool-provider/core"
)

// Resolver is the read side of the platform trust store. Consumers and
// registrations are provisioned administratively; the resolver only looks
// them up for verification.
type Resolver struct {
	consumers     core.ConsumerStore
	registrations core.RegistrationStore
}

type Config struct {
	ConsumerStore     core.ConsumerStore
	RegistrationStore core.RegistrationStore
}

func NewResolver(cfg Config) *Resolver {
	return &Resolver{
		consumers:     cfg.ConsumerStore,
		registrations: cfg.RegistrationStore,
	}
}

// Lookup resolves the signing credential for a consumer key, reading the
// consumer table only: a 1.3 registration secret must never validate a
// 1.0a-signed request. A miss is not an error: the returned identity carries
// a nil secret so the caller can run verification against the null
// credential and fail deterministically.
func (r *Resolver) Lookup(ctx context.Context, key string) (core.Identity, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return core.Identity{}, fmt.Errorf("trust: consumer key is required")
	}
	if r == nil {
		return core.Identity{Key: key, Version: core.VersionV1P0}, nil
	}

	if r.consumers != nil {
		consumer, found, err := r.consumers.FindByKey(ctx, key)
		if err != nil {
			return core.Identity{}, fmt.Errorf("trust: consumer lookup failed: %w", err)
		}
		if found {
			return core.Identity{
				Key:     consumer.Key,
				Secret:  []byte(consumer.Secret),
				Version: core.VersionV1P0,
			}, nil
		}
	}

	return core.Identity{Key: key, Version: core.VersionV1P0}, nil
}

// LookupRegistration resolves a 1.3 registration by client id. Unlike
// Lookup, a miss here is an error: registration-scoped operations cannot
// proceed against a null identity.
func (r *Resolver) LookupRegistration(ctx context.Context, clientID string) (core.Registration, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return core.Registration{}, core.MissingFieldError("client_id")
	}
	if r == nil || r.registrations == nil {
		return core.Registration{}, core.UnknownRegistrationError(clientID)
	}
	registration, found, err := r.registrations.FindByClientID(ctx, clientID)
	if err != nil {
		return core.Registration{}, fmt.Errorf("trust: registration lookup failed: %w", err)
	}
	if !found {
		return core.Registration{}, core.UnknownRegistrationError(clientID)
	}
	return registration, nil
}

// LookupRegistrationByIssuer resolves a 1.3 registration by platform issuer.
func (r *Resolver) LookupRegistrationByIssuer(ctx context.Context, issuer string) (core.Registration, error) {
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return core.Registration{}, core.MissingFieldError("iss")
	}
	if r == nil || r.registrations == nil {
		return core.Registration{}, core.UnknownRegistrationError(issuer)
	}
	registration, found, err := r.registrations.FindByIssuer(ctx, issuer)
	if err != nil {
		return core.Registration{}, fmt.Errorf("trust: registration lookup failed: %w", err)
	}
	if !found {
		return core.Registration{}, core.UnknownRegistrationError(issuer)
	}
	return registration, nil
}

// LookupConsumer resolves a 1.0a consumer record, failing on a miss. Used by
// administrative surfaces rather than the verification path.
func (r *Resolver) LookupConsumer(ctx context.Context, key string) (core.Consumer, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return core.Consumer{}, core.MissingFieldError("oauth_consumer_key")
	}
	if r == nil || r.consumers == nil {
		return core.Consumer{}, core.UnknownConsumerError(key)
	}
	consumer, found, err := r.consumers.FindByKey(ctx, key)
	if err != nil {
		return core.Consumer{}, fmt.Errorf("trust: consumer lookup failed: %w", err)
	}
	if !found {
		return core.Consumer{}, core.UnknownConsumerError(key)
	}
	return consumer, nil
}
