package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// ConsumerStore resolves legacy 1.0a consumers by key. A miss is reported
// through the boolean, not an error.
type ConsumerStore interface {
	FindByKey(ctx context.Context, key string) (Consumer, bool, error)
}

// RegistrationStore resolves 1.3 registrations.
type RegistrationStore interface {
	FindByClientID(ctx context.Context, clientID string) (Registration, bool, error)
	FindByIssuer(ctx context.Context, issuer string) (Registration, bool, error)
}

// UserStore persists the user record after a successful attribute sync. The
// host identity system owns user creation and resolution.
type UserStore interface {
	Save(ctx context.Context, user *User) error
}

// ErrorReporter relays an authentication or attribute-sync failure back
// toward the originating platform.
type ErrorReporter interface {
	SendError(ctx context.Context, message string, launch LaunchContext) error
}

// EntityResolver checks that a host entity referenced by a content-return
// request exists. A resolution error must deny access, never panic.
type EntityResolver interface {
	Resolve(ctx context.Context, entityType string, entityID string) (bool, error)
}

// ReplayLedger claims single-use verification keys. Claim returns false when
// the key was already claimed and is still live.
type ReplayLedger interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	PurgeExpired(ctx context.Context) (int, error)
}

// SignatureVerifier validates a 1.0a signed launch and returns its raw
// parameters as the verified payload.
type SignatureVerifier interface {
	Verify(ctx context.Context, req LaunchRequest) (map[string]any, error)
}

// TokenVerifier validates a 1.3 bearer token and returns the matched
// registration together with the decoded claim set.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Registration, map[string]any, error)
}

// AttributeSyncer runs the post-authentication attribute pipeline.
type AttributeSyncer interface {
	Sync(ctx context.Context, launch LaunchContext, user *User, mappings AttributeMappings) error
}

// AttributeListener observes the staged attributes event and may cancel the
// launch before persistence.
type AttributeListener interface {
	Name() string
	OnAttributes(ctx context.Context, event *AttributesEvent) error
}

// ReturnListener observes the built deep-linking message and may mutate it
// before the redirect form is rendered.
type ReturnListener interface {
	Name() string
	OnReturn(ctx context.Context, event *ReturnEvent) error
}

type StoreProvider interface {
	ConsumerStore() ConsumerStore
	RegistrationStore() RegistrationStore
	UserStore() UserStore
	NonceLedger() ReplayLedger
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}
