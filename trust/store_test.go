package trust

import (
	"context"
	"errors"
	"testing"

	"github.com/giant-rabbit/lti-tool-provider/core"
)

type consumerStoreStub struct {
	consumers map[string]core.Consumer
	err       error
}

func (s *consumerStoreStub) FindByKey(_ context.Context, key string) (core.Consumer, bool, error) {
	if s.err != nil {
		return core.Consumer{}, false, s.err
	}
	consumer, ok := s.consumers[key]
	return consumer, ok, nil
}

type registrationStoreStub struct {
	byClientID map[string]core.Registration
	byIssuer   map[string]core.Registration
	err        error
}

func (s *registrationStoreStub) FindByClientID(_ context.Context, clientID string) (core.Registration, bool, error) {
	if s.err != nil {
		return core.Registration{}, false, s.err
	}
	registration, ok := s.byClientID[clientID]
	return registration, ok, nil
}

func (s *registrationStoreStub) FindByIssuer(_ context.Context, issuer string) (core.Registration, bool, error) {
	if s.err != nil {
		return core.Registration{}, false, s.err
	}
	registration, ok := s.byIssuer[issuer]
	return registration, ok, nil
}

func newTestResolver() *Resolver {
	return NewResolver(Config{
		ConsumerStore: &consumerStoreStub{consumers: map[string]core.Consumer{
			"key-1": {Key: "key-1", Secret: "secret-1"},
		}},
		RegistrationStore: &registrationStoreStub{
			byClientID: map[string]core.Registration{
				"client-1": {ClientID: "client-1", Issuer: "https://platform.example", SharedSecret: "reg-secret"},
			},
			byIssuer: map[string]core.Registration{
				"https://platform.example": {ClientID: "client-1", Issuer: "https://platform.example", SharedSecret: "reg-secret"},
			},
		},
	})
}

func TestResolver_Lookup_ConsumerHit(t *testing.T) {
	identity, err := newTestResolver().Lookup(context.Background(), "key-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if identity.Version != core.VersionV1P0 {
		t.Fatalf("expected V1P0 identity, got %q", identity.Version)
	}
	if string(identity.Secret) != "secret-1" {
		t.Fatalf("expected consumer secret, got %q", identity.Secret)
	}
	if !identity.HasSecret() {
		t.Fatalf("expected identity to carry a secret")
	}
}

func TestResolver_Lookup_IgnoresRegistrations(t *testing.T) {
	identity, err := newTestResolver().Lookup(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if identity.HasSecret() {
		t.Fatalf("expected registration credential to stay out of the consumer path, got %q", identity.Secret)
	}
	if identity.Version != core.VersionV1P0 {
		t.Fatalf("expected null 1.0a identity, got %q", identity.Version)
	}
}

func TestResolver_Lookup_MissReturnsNullIdentity(t *testing.T) {
	identity, err := newTestResolver().Lookup(context.Background(), "missing-key")
	if err != nil {
		t.Fatalf("expected lookup miss to be clean, got %v", err)
	}
	if identity.HasSecret() {
		t.Fatalf("expected null identity without secret")
	}
	if identity.Key != "missing-key" {
		t.Fatalf("expected requested key to be echoed, got %q", identity.Key)
	}
}

func TestResolver_Lookup_RequiresKey(t *testing.T) {
	if _, err := newTestResolver().Lookup(context.Background(), "  "); err == nil {
		t.Fatalf("expected empty key error")
	}
}

func TestResolver_Lookup_StoreErrorSurfaces(t *testing.T) {
	resolver := NewResolver(Config{
		ConsumerStore: &consumerStoreStub{err: errors.New("db down")},
	})
	if _, err := resolver.Lookup(context.Background(), "key-1"); err == nil {
		t.Fatalf("expected store failure to surface")
	}
}

func TestResolver_LookupRegistration(t *testing.T) {
	registration, err := newTestResolver().LookupRegistration(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("lookup registration: %v", err)
	}
	if registration.Issuer != "https://platform.example" {
		t.Fatalf("expected issuer, got %q", registration.Issuer)
	}
}

func TestResolver_LookupRegistration_MissIsAnError(t *testing.T) {
	_, err := newTestResolver().LookupRegistration(context.Background(), "nope")
	if !core.HasTextCode(err, core.ErrorUnknownRegistration) {
		t.Fatalf("expected unknown registration error, got %v", err)
	}
}

func TestResolver_LookupRegistration_RequiresClientID(t *testing.T) {
	_, err := newTestResolver().LookupRegistration(context.Background(), " ")
	if !core.HasTextCode(err, core.ErrorMissingField) {
		t.Fatalf("expected missing field error, got %v", err)
	}
}

func TestResolver_LookupRegistrationByIssuer(t *testing.T) {
	registration, err := newTestResolver().LookupRegistrationByIssuer(context.Background(), "https://platform.example")
	if err != nil {
		t.Fatalf("lookup by issuer: %v", err)
	}
	if registration.ClientID != "client-1" {
		t.Fatalf("expected client-1, got %q", registration.ClientID)
	}

	if _, err := newTestResolver().LookupRegistrationByIssuer(context.Background(), "https://other.example"); !core.HasTextCode(err, core.ErrorUnknownRegistration) {
		t.Fatalf("expected unknown registration error, got %v", err)
	}
}

func TestResolver_LookupConsumer(t *testing.T) {
	consumer, err := newTestResolver().LookupConsumer(context.Background(), "key-1")
	if err != nil {
		t.Fatalf("lookup consumer: %v", err)
	}
	if consumer.Secret != "secret-1" {
		t.Fatalf("expected consumer record, got %+v", consumer)
	}

	if _, err := newTestResolver().LookupConsumer(context.Background(), "nope"); !core.HasTextCode(err, core.ErrorUnknownConsumer) {
		t.Fatalf("expected unknown consumer error, got %v", err)
	}
}
