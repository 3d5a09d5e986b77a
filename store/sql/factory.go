package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/giant-rabbit/lti-tool-provider/core"
)

type RepositoryFactory struct {
	db *bun.DB

	consumerStore     *ConsumerStore
	registrationStore *RegistrationStore
	userStore         *UserStore
	nonceStore        *NonceStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.consumerStore != nil && f.registrationStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) ConsumerStore() core.ConsumerStore {
	if f == nil {
		return nil
	}
	return f.consumerStore
}

func (f *RepositoryFactory) RegistrationStore() core.RegistrationStore {
	if f == nil {
		return nil
	}
	return f.registrationStore
}

func (f *RepositoryFactory) UserStore() core.UserStore {
	if f == nil {
		return nil
	}
	return f.userStore
}

func (f *RepositoryFactory) NonceLedger() core.ReplayLedger {
	if f == nil {
		return nil
	}
	return f.nonceStore
}

// Consumers exposes the concrete store for provisioning surfaces.
func (f *RepositoryFactory) Consumers() *ConsumerStore {
	if f == nil {
		return nil
	}
	return f.consumerStore
}

// Registrations exposes the concrete store for provisioning surfaces.
func (f *RepositoryFactory) Registrations() *RegistrationStore {
	if f == nil {
		return nil
	}
	return f.registrationStore
}

// Users exposes the concrete store for tests and administrative tooling.
func (f *RepositoryFactory) Users() *UserStore {
	if f == nil {
		return nil
	}
	return f.userStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	consumerRepo := repository.NewRepository[*consumerRecord](f.db, consumerHandlers())
	if validator, ok := consumerRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid consumer repository wiring: %w", err)
		}
	}

	registrationRepo := repository.NewRepository[*registrationRecord](f.db, registrationHandlers())
	if validator, ok := registrationRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid registration repository wiring: %w", err)
		}
	}

	nonceRepo := repository.NewRepository[*nonceRecord](f.db, nonceHandlers())
	if validator, ok := nonceRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid nonce repository wiring: %w", err)
		}
	}

	userRepo := repository.NewRepository[*userRecord](f.db, userHandlers())
	if validator, ok := userRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid user repository wiring: %w", err)
		}
	}

	f.consumerStore = &ConsumerStore{db: f.db, repo: consumerRepo}
	f.registrationStore = &RegistrationStore{db: f.db, repo: registrationRepo}
	f.nonceStore = &NonceStore{db: f.db, repo: nonceRepo}
	f.userStore = &UserStore{db: f.db, repo: userRepo}
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}

var _ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
var _ core.StoreProvider = (*RepositoryFactory)(nil)
