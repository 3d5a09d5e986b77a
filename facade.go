package ltitool

import (
	"github.com/giant-rabbit/lti-tool-provider/adapters/gojob"
	"github.com/giant-rabbit/lti-tool-provider/auth"
	"github.com/giant-rabbit/lti-tool-provider/command"
	"github.com/giant-rabbit/lti-tool-provider/content"
	"github.com/giant-rabbit/lti-tool-provider/core"
	syncpipe "github.com/giant-rabbit/lti-tool-provider/sync"
	"github.com/giant-rabbit/lti-tool-provider/trust"
)

// LaunchService is the mutating surface the command facade dispatches to.
type LaunchService = command.MutatingService

// ReturnService builds signed content-return messages.
type ReturnService = command.ReturnBuildingService

// Commands groups the command handlers around a single service pair so hosts
// can register them with their dispatcher in one pass.
type Commands struct {
	VerifyLaunch   *command.VerifyLaunchCommand
	HandleLaunch   *command.HandleLaunchCommand
	SyncAttributes *command.SyncAttributesCommand
	BuildReturn    *command.BuildReturnCommand
	PurgeNonces    *command.PurgeNoncesCommand
}

// NewCommands wires the command handlers. The return builder is optional;
// hosts that never serve deep-linking returns pass nil and simply do not
// register BuildReturn.
func NewCommands(service LaunchService, builder ReturnService) Commands {
	return Commands{
		VerifyLaunch:   command.NewVerifyLaunchCommand(service),
		HandleLaunch:   command.NewHandleLaunchCommand(service),
		SyncAttributes: command.NewSyncAttributesCommand(service),
		BuildReturn:    command.NewBuildReturnCommand(builder),
		PurgeNonces:    command.NewPurgeNoncesCommand(service),
	}
}

// Facade bundles the fully wired service, its content-return surface, and the
// command handlers built on top of them.
type Facade struct {
	service     *core.Service
	builder     *content.Builder
	handler     *content.Handler
	maintenance *gojob.MaintenanceConsumer
	commands    Commands
}

func (f *Facade) Service() *core.Service {
	if f == nil {
		return nil
	}
	return f.service
}

func (f *Facade) ReturnBuilder() *content.Builder {
	if f == nil {
		return nil
	}
	return f.builder
}

// ReturnHandler serves the HTML auto-submit redirect for content returns.
func (f *Facade) ReturnHandler() *content.Handler {
	if f == nil {
		return nil
	}
	return f.handler
}

// MaintenanceConsumer drains nonce-purge messages for hosts that run the
// scheduled maintenance job through a queue.
func (f *Facade) MaintenanceConsumer() *gojob.MaintenanceConsumer {
	if f == nil {
		return nil
	}
	return f.maintenance
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

// New assembles a complete tool provider: the trust resolver over the
// configured stores, the 1.0a and 1.3 verification strategies, the attribute
// pipeline, the deep-linking return builder, and the command facade.
//
// Construction runs in two phases. The first resolves configuration and
// stores; the second rebuilds the service with the strategies that depend on
// them. Options that name a verifier or syncer explicitly win over the wired
// defaults.
func New(cfg Config, opts ...Option) (*Facade, error) {
	base, err := core.NewService(cfg, opts...)
	if err != nil {
		return nil, err
	}

	deps := base.Dependencies()
	resolved := base.Config()

	resolver := trust.NewResolver(trust.Config{
		ConsumerStore:     deps.ConsumerStore,
		RegistrationStore: deps.RegistrationStore,
	})

	wired := make([]Option, 0, len(opts)+8)
	wired = append(wired,
		core.WithConsumerStore(deps.ConsumerStore),
		core.WithRegistrationStore(deps.RegistrationStore),
		core.WithUserStore(deps.UserStore),
		core.WithReplayLedger(deps.NonceLedger),
		core.WithHookCoordinator(deps.Hooks),
	)

	if deps.SignatureVerifier == nil {
		wired = append(wired, core.WithSignatureVerifier(auth.NewSignatureStrategy(auth.SignatureStrategyConfig{
			Trust:     resolver,
			Replay:    deps.NonceLedger,
			ReplayTTL: resolved.Replay.TTL(),
			ClockSkew: resolved.Replay.ClockSkew(),
		})))
	}
	if deps.TokenVerifier == nil {
		wired = append(wired, core.WithTokenVerifier(auth.NewTokenStrategy(auth.TokenStrategyConfig{
			Trust:  resolver,
			Leeway: resolved.Replay.ClockSkew(),
		})))
	}
	if deps.AttributeSyncer == nil {
		wired = append(wired, core.WithAttributeSyncer(syncpipe.NewPipeline(syncpipe.PipelineConfig{
			AnonymousUser: resolved.AnonymousUser,
			Users:         deps.UserStore,
			Reporter:      deps.ErrorReporter,
			Hooks:         deps.Hooks,
			Logger:        deps.Logger,
		})))
	}

	service, err := core.NewService(cfg, append(append([]Option{}, opts...), wired...)...)
	if err != nil {
		return nil, err
	}

	signer := auth.NewDeepLinkSigner(auth.DeepLinkSignerConfig{
		MessageTTL: resolved.DeepLinking.MessageTTL(),
	})
	builder := content.NewBuilder(content.BuilderConfig{
		Trust:     resolver,
		Entities:  deps.EntityResolver,
		Signer:    signer,
		Hooks:     service.Hooks(),
		Logger:    deps.Logger,
		LaunchURL: resolved.DeepLinking.LaunchURL,
	})
	handler := content.NewHandler(content.HandlerConfig{
		Builder: builder,
		Logger:  deps.Logger,
	})

	maintenance := gojob.NewMaintenanceConsumer(gojob.MaintenanceConsumerConfig{
		Service:  service,
		Logger:   deps.Logger,
		Provider: deps.LoggerProvider,
	})

	return &Facade{
		service:     service,
		builder:     builder,
		handler:     handler,
		maintenance: maintenance,
		commands:    NewCommands(service, builder),
	}, nil
}
