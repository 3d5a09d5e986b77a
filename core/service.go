package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

var (
	ErrVerifierNotConfigured = errors.New("core: no verifier configured for launch")
	ErrSyncerNotConfigured   = errors.New("core: attribute syncer is not configured")
)

const nonceMaintenanceJobID = "lti.maintenance.nonce_purge"

type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	consumerStore     ConsumerStore
	registrationStore RegistrationStore
	userStore         UserStore
	nonceLedger       ReplayLedger
	errorReporter     ErrorReporter
	entityResolver    EntityResolver
	signatureVerifier SignatureVerifier
	tokenVerifier     TokenVerifier
	attributeSyncer   AttributeSyncer
	jobEnqueuer       JobEnqueuer
	hooks             *LaunchHookCoordinator
	mappings          AttributeMappings
	now               func() time.Time
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	ConsumerStore     ConsumerStore
	RegistrationStore RegistrationStore
	UserStore         UserStore
	NonceLedger       ReplayLedger
	ErrorReporter     ErrorReporter
	EntityResolver    EntityResolver
	SignatureVerifier SignatureVerifier
	TokenVerifier     TokenVerifier
	AttributeSyncer   AttributeSyncer
	JobEnqueuer       JobEnqueuer
	Hooks             *LaunchHookCoordinator
	Mappings          AttributeMappings
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("ltitool", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("ltitool"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.hooks == nil {
		builder.hooks = NewLaunchHookCoordinator()
	}
	if builder.now == nil {
		builder.now = func() time.Time { return time.Now().UTC() }
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if storesMissing(builder) && builder.repositoryFactory != nil {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			provider, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			adoptStores(&builder, provider)
		} else if provider, ok := builder.repositoryFactory.(StoreProvider); ok {
			adoptStores(&builder, provider)
		}
	}

	if builder.nonceLedger == nil {
		builder.nonceLedger = resolveReplayLedger(finalConfig.Replay)
	}

	for _, listener := range builder.attributeListeners {
		builder.hooks.RegisterAttributes(listener)
	}
	for _, listener := range builder.returnListeners {
		builder.hooks.RegisterReturn(listener)
	}

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		consumerStore:     builder.consumerStore,
		registrationStore: builder.registrationStore,
		userStore:         builder.userStore,
		nonceLedger:       builder.nonceLedger,
		errorReporter:     builder.errorReporter,
		entityResolver:    builder.entityResolver,
		signatureVerifier: builder.signatureVerifier,
		tokenVerifier:     builder.tokenVerifier,
		attributeSyncer:   builder.attributeSyncer,
		jobEnqueuer:       builder.jobEnqueuer,
		hooks:             builder.hooks,
		mappings:          builder.mappings,
		now:               builder.now,
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func storesMissing(builder serviceBuilder) bool {
	return builder.consumerStore == nil ||
		builder.registrationStore == nil ||
		builder.userStore == nil ||
		builder.nonceLedger == nil
}

func adoptStores(builder *serviceBuilder, provider StoreProvider) {
	if builder == nil || provider == nil {
		return
	}
	if builder.consumerStore == nil {
		builder.consumerStore = provider.ConsumerStore()
	}
	if builder.registrationStore == nil {
		builder.registrationStore = provider.RegistrationStore()
	}
	if builder.userStore == nil {
		builder.userStore = provider.UserStore()
	}
	if builder.nonceLedger == nil {
		builder.nonceLedger = provider.NonceLedger()
	}
}

func resolveReplayLedger(cfg ReplayConfig) ReplayLedger {
	mode := strings.TrimSpace(strings.ToLower(cfg.Mode))
	if mode == ReplayModeLedger {
		return NewMemoryReplayLedgerWithLimits(cfg.TTL(), cfg.MaxEntries)
	}
	return AcceptAllReplayLedger{}
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Hooks() *LaunchHookCoordinator {
	if s == nil {
		return nil
	}
	return s.hooks
}

func (s *Service) Mappings() AttributeMappings {
	if s == nil {
		return nil
	}
	return s.mappings
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		ConsumerStore:     s.consumerStore,
		RegistrationStore: s.registrationStore,
		UserStore:         s.userStore,
		NonceLedger:       s.nonceLedger,
		ErrorReporter:     s.errorReporter,
		EntityResolver:    s.entityResolver,
		SignatureVerifier: s.signatureVerifier,
		TokenVerifier:     s.tokenVerifier,
		AttributeSyncer:   s.attributeSyncer,
		JobEnqueuer:       s.jobEnqueuer,
		Hooks:             s.hooks,
		Mappings:          s.mappings,
	}
}

// VerifyLaunch authenticates an inbound launch. A bearer token selects the
// 1.3 path; a signed form post with oauth_consumer_key selects the 1.0a
// path. Anything else is rejected before touching the trust store.
func (s *Service) VerifyLaunch(ctx context.Context, req LaunchRequest) (launch LaunchContext, err error) {
	startedAt := s.clock()
	fields := map[string]any{
		"method": req.Method,
		"url":    req.URL,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "verify_launch", err, fields)
	}()

	if token := strings.TrimSpace(req.Token); token != "" {
		fields["version"] = string(VersionV1P3)
		if s.tokenVerifier == nil {
			err = s.mapError(ErrVerifierNotConfigured)
			return LaunchContext{}, err
		}
		registration, claims, verifyErr := s.tokenVerifier.Verify(ctx, token)
		if verifyErr != nil {
			err = s.mapError(verifyErr)
			return LaunchContext{}, err
		}
		fields["client_id"] = registration.ClientID
		launch, err = NewLaunchContext(VersionV1P3, claims)
		if err != nil {
			err = s.mapError(err)
			return LaunchContext{}, err
		}
		return launch, nil
	}

	if key := req.Param("oauth_consumer_key"); key != "" {
		fields["version"] = string(VersionV1P0)
		fields["consumer_key"] = key
		if s.signatureVerifier == nil {
			err = s.mapError(ErrVerifierNotConfigured)
			return LaunchContext{}, err
		}
		payload, verifyErr := s.signatureVerifier.Verify(ctx, req)
		if verifyErr != nil {
			err = s.mapError(verifyErr)
			return LaunchContext{}, err
		}
		launch, err = NewLaunchContext(VersionV1P0, payload)
		if err != nil {
			err = s.mapError(err)
			return LaunchContext{}, err
		}
		return launch, nil
	}

	err = MissingFieldError("oauth_consumer_key")
	return LaunchContext{}, err
}

// HandleLaunch verifies the launch and runs the attribute pipeline against
// the resolved local user. The returned context is the verified launch even
// when the pipeline cancels or fails; callers decide what to surface.
func (s *Service) HandleLaunch(ctx context.Context, req LaunchRequest, user *User) (LaunchContext, error) {
	launch, err := s.VerifyLaunch(ctx, req)
	if err != nil {
		return LaunchContext{}, err
	}
	if err := s.SyncAttributes(ctx, launch, user); err != nil {
		return launch, err
	}
	return launch, nil
}

func (s *Service) SyncAttributes(ctx context.Context, launch LaunchContext, user *User) (err error) {
	startedAt := s.clock()
	fields := map[string]any{
		"version": string(launch.Version()),
	}
	if user != nil {
		fields["user"] = user.Name
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "sync_attributes", err, fields)
	}()

	if s == nil || s.attributeSyncer == nil {
		err = s.mapError(ErrSyncerNotConfigured)
		return err
	}
	if syncErr := s.attributeSyncer.Sync(ctx, launch, user, s.mappings); syncErr != nil {
		err = s.mapError(syncErr)
		return err
	}
	return nil
}

// PurgeNonces drops expired replay-ledger entries and reports how many were
// removed.
func (s *Service) PurgeNonces(ctx context.Context) (int, error) {
	if s == nil || s.nonceLedger == nil {
		return 0, nil
	}
	purged, err := s.nonceLedger.PurgeExpired(ctx)
	if err != nil {
		return 0, s.mapError(err)
	}
	if purged > 0 {
		s.logInfo(ctx, "replay ledger purged", map[string]any{"purged": purged})
	}
	return purged, nil
}

// ScheduleNoncePurge enqueues the ledger maintenance job on the configured
// queue. Hosts without a job runner call PurgeNonces directly instead.
func (s *Service) ScheduleNoncePurge(ctx context.Context) error {
	if s == nil || s.jobEnqueuer == nil {
		return s.mapError(fmt.Errorf("core: job enqueuer is not configured"))
	}
	msg := &JobExecutionMessage{
		JobID:          nonceMaintenanceJobID,
		Parameters:     map[string]any{"service": s.config.ServiceName},
		IdempotencyKey: fmt.Sprintf("%s:%d", nonceMaintenanceJobID, s.clock().Unix()),
		DedupPolicy:    "drop",
	}
	if err := s.jobEnqueuer.Enqueue(ctx, msg); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *Service) clock() time.Time {
	if s == nil || s.now == nil {
		return time.Now().UTC()
	}
	return s.now()
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
