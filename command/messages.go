package command

import (
	"strings"

	"github.com/giant-rabbit/lti-tool-provider/core"
)

const (
	TypeVerifyLaunch   = "lti.command.launch.verify"
	TypeHandleLaunch   = "lti.command.launch.handle"
	TypeSyncAttributes = "lti.command.attributes.sync"
	TypeBuildReturn    = "lti.command.content.return"
	TypePurgeNonces    = "lti.command.nonces.purge"
)

type VerifyLaunchMessage struct {
	Request core.LaunchRequest
}

func (VerifyLaunchMessage) Type() string { return TypeVerifyLaunch }

func (m VerifyLaunchMessage) Validate() error {
	if strings.TrimSpace(m.Request.Token) == "" && m.Request.Param("oauth_consumer_key") == "" {
		return commandValidationError("request", "a launch token or signed form post is required")
	}
	return nil
}

type HandleLaunchMessage struct {
	Request core.LaunchRequest
	User    *core.User
}

func (HandleLaunchMessage) Type() string { return TypeHandleLaunch }

func (m HandleLaunchMessage) Validate() error {
	if err := (VerifyLaunchMessage{Request: m.Request}).Validate(); err != nil {
		return err
	}
	if m.User == nil {
		return commandValidationError("user", "a launch user is required")
	}
	return nil
}

type SyncAttributesMessage struct {
	Launch core.LaunchContext
	User   *core.User
}

func (SyncAttributesMessage) Type() string { return TypeSyncAttributes }

func (m SyncAttributesMessage) Validate() error {
	if !m.Launch.Version().Valid() {
		return commandValidationError("launch", "a verified launch context is required")
	}
	if m.User == nil {
		return commandValidationError("user", "a launch user is required")
	}
	return nil
}

type BuildReturnMessage struct {
	Params core.ReturnParams
}

func (BuildReturnMessage) Type() string { return TypeBuildReturn }

func (m BuildReturnMessage) Validate() error {
	if strings.TrimSpace(m.Params.ClientID) == "" {
		return commandValidationError("client_id", "client_id is required")
	}
	return nil
}

type PurgeNoncesMessage struct{}

func (PurgeNoncesMessage) Type() string { return TypePurgeNonces }

func (PurgeNoncesMessage) Validate() error { return nil }
