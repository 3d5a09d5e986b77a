package ltitool

import "github.com/giant-rabbit/lti-tool-provider/core"

type Config = core.Config

type ReplayConfig = core.ReplayConfig

type DeepLinkingConfig = core.DeepLinkingConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type LaunchVersion = core.LaunchVersion

type LaunchRequest = core.LaunchRequest
type LaunchContext = core.LaunchContext
type User = core.User
type Consumer = core.Consumer
type Registration = core.Registration
type Identity = core.Identity
type AttributeMappings = core.AttributeMappings
type ReturnParams = core.ReturnParams
type ReturnMessage = core.ReturnMessage

type ConsumerStore = core.ConsumerStore
type RegistrationStore = core.RegistrationStore
type UserStore = core.UserStore
type ReplayLedger = core.ReplayLedger
type ErrorReporter = core.ErrorReporter
type EntityResolver = core.EntityResolver
type AttributeListener = core.AttributeListener
type ReturnListener = core.ReturnListener
type AttributesEvent = core.AttributesEvent
type ReturnEvent = core.ReturnEvent

const (
	VersionV1P0 = core.VersionV1P0
	VersionV1P3 = core.VersionV1P3
)

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConsumerStore     = core.WithConsumerStore
	WithRegistrationStore = core.WithRegistrationStore
	WithUserStore         = core.WithUserStore
	WithReplayLedger      = core.WithReplayLedger
	WithErrorReporter     = core.WithErrorReporter
	WithEntityResolver    = core.WithEntityResolver
	WithSignatureVerifier = core.WithSignatureVerifier
	WithTokenVerifier     = core.WithTokenVerifier
	WithAttributeSyncer   = core.WithAttributeSyncer
	WithJobEnqueuer       = core.WithJobEnqueuer
	WithHookCoordinator   = core.WithHookCoordinator
	WithAttributeListener = core.WithAttributeListener
	WithReturnListener    = core.WithReturnListener
	WithAttributeMappings = core.WithAttributeMappings
	WithRuntimeConfig     = core.WithRuntimeConfig
	WithNow               = core.WithNow
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
