package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig      Config
	logger             Logger
	loggerProvider     LoggerProvider
	errorFactory       ErrorFactory
	errorMapper        ErrorMapper
	configProvider     ConfigProvider
	optionsResolver    OptionsResolver
	persistenceClient  any
	repositoryFactory  any
	consumerStore      ConsumerStore
	registrationStore  RegistrationStore
	userStore          UserStore
	nonceLedger        ReplayLedger
	errorReporter      ErrorReporter
	entityResolver     EntityResolver
	signatureVerifier  SignatureVerifier
	tokenVerifier      TokenVerifier
	attributeSyncer    AttributeSyncer
	jobEnqueuer        JobEnqueuer
	hooks              *LaunchHookCoordinator
	attributeListeners []AttributeListener
	returnListeners    []ReturnListener
	mappings           AttributeMappings
	now                func() time.Time
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithPersistenceClient(client any) Option {
	return func(b *serviceBuilder) {
		b.persistenceClient = client
	}
}

func WithRepositoryFactory(factory any) Option {
	return func(b *serviceBuilder) {
		b.repositoryFactory = factory
	}
}

func WithConsumerStore(store ConsumerStore) Option {
	return func(b *serviceBuilder) {
		b.consumerStore = store
	}
}

func WithRegistrationStore(store RegistrationStore) Option {
	return func(b *serviceBuilder) {
		b.registrationStore = store
	}
}

func WithUserStore(store UserStore) Option {
	return func(b *serviceBuilder) {
		b.userStore = store
	}
}

func WithReplayLedger(ledger ReplayLedger) Option {
	return func(b *serviceBuilder) {
		b.nonceLedger = ledger
	}
}

func WithErrorReporter(reporter ErrorReporter) Option {
	return func(b *serviceBuilder) {
		b.errorReporter = reporter
	}
}

func WithEntityResolver(resolver EntityResolver) Option {
	return func(b *serviceBuilder) {
		b.entityResolver = resolver
	}
}

func WithSignatureVerifier(verifier SignatureVerifier) Option {
	return func(b *serviceBuilder) {
		b.signatureVerifier = verifier
	}
}

func WithTokenVerifier(verifier TokenVerifier) Option {
	return func(b *serviceBuilder) {
		b.tokenVerifier = verifier
	}
}

func WithAttributeSyncer(syncer AttributeSyncer) Option {
	return func(b *serviceBuilder) {
		b.attributeSyncer = syncer
	}
}

func WithJobEnqueuer(enqueuer JobEnqueuer) Option {
	return func(b *serviceBuilder) {
		b.jobEnqueuer = enqueuer
	}
}

func WithHookCoordinator(hooks *LaunchHookCoordinator) Option {
	return func(b *serviceBuilder) {
		b.hooks = hooks
	}
}

func WithAttributeListener(listener AttributeListener) Option {
	return func(b *serviceBuilder) {
		if listener != nil {
			b.attributeListeners = append(b.attributeListeners, listener)
		}
	}
}

func WithReturnListener(listener ReturnListener) Option {
	return func(b *serviceBuilder) {
		if listener != nil {
			b.returnListeners = append(b.returnListeners, listener)
		}
	}
}

func WithAttributeMappings(mappings AttributeMappings) Option {
	return func(b *serviceBuilder) {
		b.mappings = mappings
	}
}

func WithRuntimeConfig(cfg Config) Option {
	return func(b *serviceBuilder) {
		b.runtimeConfig = cfg
	}
}

func WithNow(now func() time.Time) Option {
	return func(b *serviceBuilder) {
		b.now = now
	}
}

func defaultServiceBuilder(cfg Config) serviceBuilder {
	return serviceBuilder{runtimeConfig: cfg}
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(_ context.Context) (map[string]any, error) {
	out := map[string]any{}
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// NewStaticRawConfigLoader wraps a literal map as a raw config source,
// useful for hosts that already resolved configuration elsewhere.
func NewStaticRawConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || strings.TrimSpace(cfg.AnonymousUser) != "" {
		layer["anonymous_user"] = cfg.AnonymousUser
	}

	replay := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Replay.Mode) != "" {
		replay["mode"] = cfg.Replay.Mode
	}
	if includeZero || cfg.Replay.TTLSeconds > 0 {
		replay["ttl_seconds"] = cfg.Replay.TTLSeconds
	}
	if includeZero || cfg.Replay.MaxEntries > 0 {
		replay["max_entries"] = cfg.Replay.MaxEntries
	}
	if includeZero || cfg.Replay.ClockSkewSecond > 0 {
		replay["clock_skew_seconds"] = cfg.Replay.ClockSkewSecond
	}
	if len(replay) > 0 {
		layer["replay"] = replay
	}

	deepLinking := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.DeepLinking.LaunchURL) != "" {
		deepLinking["launch_url"] = cfg.DeepLinking.LaunchURL
	}
	if includeZero || cfg.DeepLinking.MessageTTLSeconds > 0 {
		deepLinking["message_ttl_seconds"] = cfg.DeepLinking.MessageTTLSeconds
	}
	if len(deepLinking) > 0 {
		layer["deep_linking"] = deepLinking
	}

	return layer
}
