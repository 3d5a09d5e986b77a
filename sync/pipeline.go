package sync

import (
	"context"
	"fmt"
	"sort"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/giant-rabbit/lti-tool-provider/core"
)

const defaultAnonymousUser = "ltiuser"

type PipelineConfig struct {
	AnonymousUser string
	Users         core.UserStore
	Reporter      core.ErrorReporter
	Hooks         *core.LaunchHookCoordinator
	Logger        core.Logger
}

// Pipeline copies launch attributes onto the local user after a verified
// launch. Staged values are visible to listeners before anything is saved;
// a cancelling listener aborts the save and reports the failure upstream.
type Pipeline struct {
	anonymousUser string
	users         core.UserStore
	reporter      core.ErrorReporter
	hooks         *core.LaunchHookCoordinator
	logger        core.Logger
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	anonymousUser := strings.TrimSpace(cfg.AnonymousUser)
	if anonymousUser == "" {
		anonymousUser = defaultAnonymousUser
	}
	hooks := cfg.Hooks
	if hooks == nil {
		hooks = core.NewLaunchHookCoordinator()
	}
	return &Pipeline{
		anonymousUser: anonymousUser,
		users:         cfg.Users,
		reporter:      cfg.Reporter,
		hooks:         hooks,
		logger:        glog.Ensure(cfg.Logger),
	}
}

func (p *Pipeline) Sync(ctx context.Context, launch core.LaunchContext, user *core.User, mappings core.AttributeMappings) error {
	if p == nil {
		return fmt.Errorf("sync: pipeline is required")
	}
	if user == nil {
		return fmt.Errorf("sync: user is required")
	}

	// The placeholder identity backs unauthenticated launches and never
	// receives platform attributes.
	if strings.TrimSpace(user.Name) == p.anonymousUser {
		p.logger.Debug("skipping attribute sync for anonymous user", "user", user.Name)
		return nil
	}

	mapping := mappings.ForVersion(launch.Version())
	if len(mapping) == 0 {
		p.logger.Debug("no attribute mapping for launch version", "version", string(launch.Version()))
		return nil
	}

	staged := p.stageAttributes(launch, user, mapping)

	event := core.NewAttributesEvent(launch, user)
	if err := p.hooks.DispatchAttributes(ctx, event); err != nil {
		return fmt.Errorf("sync: attributes dispatch failed: %w", err)
	}

	if event.Cancelled() {
		message := event.Message()
		if message == "" {
			message = "launch cancelled during attribute sync"
		}
		p.reportError(ctx, message, launch)
		p.logger.Error("attribute sync cancelled by listener",
			"user", user.Name,
			"version", string(launch.Version()),
			"message", message,
		)
		return core.LaunchCancelledError(message)
	}

	if p.users != nil {
		if err := p.users.Save(ctx, user); err != nil {
			return core.PersistenceError(err)
		}
	}

	p.logger.Info("attribute sync completed",
		"user", user.Name,
		"version", string(launch.Version()),
		"staged", staged,
	)
	return nil
}

func (p *Pipeline) stageAttributes(launch core.LaunchContext, user *core.User, mapping map[string]string) int {
	localNames := make([]string, 0, len(mapping))
	for localName := range mapping {
		localNames = append(localNames, localName)
	}
	sort.Strings(localNames)

	staged := 0
	for _, localName := range localNames {
		remoteName := strings.TrimSpace(mapping[localName])
		if remoteName == "" {
			continue
		}
		value, ok := launch.Attribute(remoteName)
		if !ok {
			continue
		}
		user.SetAttribute(localName, value)
		staged++
	}
	return staged
}

func (p *Pipeline) reportError(ctx context.Context, message string, launch core.LaunchContext) {
	if p.reporter == nil {
		return
	}
	if err := p.reporter.SendError(ctx, message, launch); err != nil {
		p.logger.Error("error report delivery failed", "error", err)
	}
}

var _ core.AttributeSyncer = (*Pipeline)(nil)
