package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/giant-rabbit/lti-tool-provider/core"
)

type MutatingService interface {
	VerifyLaunch(ctx context.Context, req core.LaunchRequest) (core.LaunchContext, error)
	HandleLaunch(ctx context.Context, req core.LaunchRequest, user *core.User) (core.LaunchContext, error)
	SyncAttributes(ctx context.Context, launch core.LaunchContext, user *core.User) error
	PurgeNonces(ctx context.Context) (int, error)
}

type ReturnBuildingService interface {
	BuildReturn(ctx context.Context, params core.ReturnParams) (*core.ReturnMessage, error)
}

type VerifyLaunchCommand struct {
	service MutatingService
}

func NewVerifyLaunchCommand(service MutatingService) *VerifyLaunchCommand {
	return &VerifyLaunchCommand{service: service}
}

func (c *VerifyLaunchCommand) Execute(ctx context.Context, msg VerifyLaunchMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: launch service is required")
	}
	out, err := c.service.VerifyLaunch(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type HandleLaunchCommand struct {
	service MutatingService
}

func NewHandleLaunchCommand(service MutatingService) *HandleLaunchCommand {
	return &HandleLaunchCommand{service: service}
}

func (c *HandleLaunchCommand) Execute(ctx context.Context, msg HandleLaunchMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: launch service is required")
	}
	out, err := c.service.HandleLaunch(ctx, msg.Request, msg.User)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SyncAttributesCommand struct {
	service MutatingService
}

func NewSyncAttributesCommand(service MutatingService) *SyncAttributesCommand {
	return &SyncAttributesCommand{service: service}
}

func (c *SyncAttributesCommand) Execute(ctx context.Context, msg SyncAttributesMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: attributes service is required")
	}
	return c.service.SyncAttributes(ctx, msg.Launch, msg.User)
}

type BuildReturnCommand struct {
	service ReturnBuildingService
}

func NewBuildReturnCommand(service ReturnBuildingService) *BuildReturnCommand {
	return &BuildReturnCommand{service: service}
}

func (c *BuildReturnCommand) Execute(ctx context.Context, msg BuildReturnMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: content return service is required")
	}
	out, err := c.service.BuildReturn(ctx, msg.Params)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type PurgeNoncesCommand struct {
	service MutatingService
}

func NewPurgeNoncesCommand(service MutatingService) *PurgeNoncesCommand {
	return &PurgeNoncesCommand{service: service}
}

func (c *PurgeNoncesCommand) Execute(ctx context.Context, msg PurgeNoncesMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: maintenance service is required")
	}
	out, err := c.service.PurgeNonces(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
