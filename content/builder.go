package content

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/giant-rabbit/lti-tool-provider/core"
)

// RegistrationResolver is the trust-store surface the builder needs.
type RegistrationResolver interface {
	LookupRegistration(ctx context.Context, clientID string) (core.Registration, error)
}

// MessageSigner issues the signed deep-linking response token.
type MessageSigner interface {
	Sign(registration core.Registration, extra map[string]any) (string, error)
}

type BuilderConfig struct {
	Trust     RegistrationResolver
	Entities  core.EntityResolver
	Signer    MessageSigner
	Hooks     *core.LaunchHookCoordinator
	Logger    core.Logger
	LaunchURL string
}

// Builder assembles signed deep-linking return messages. Authorization and
// message construction are separate steps so transport layers can gate
// access before doing any signing work.
type Builder struct {
	trust     RegistrationResolver
	entities  core.EntityResolver
	signer    MessageSigner
	hooks     *core.LaunchHookCoordinator
	logger    core.Logger
	launchURL string
}

func NewBuilder(cfg BuilderConfig) *Builder {
	hooks := cfg.Hooks
	if hooks == nil {
		hooks = core.NewLaunchHookCoordinator()
	}
	return &Builder{
		trust:     cfg.Trust,
		entities:  cfg.Entities,
		signer:    cfg.Signer,
		hooks:     hooks,
		logger:    glog.Ensure(cfg.Logger),
		launchURL: strings.TrimSpace(cfg.LaunchURL),
	}
}

// Authorize gates the return endpoint. The request must name a client, a
// return URL, and an entity the host can resolve; a resolver failure denies
// access rather than falling through.
func (b *Builder) Authorize(ctx context.Context, params core.ReturnParams) error {
	if b == nil {
		return accessDenied("content return builder is not configured")
	}
	if strings.TrimSpace(params.ClientID) == "" {
		return accessDenied("client_id is required")
	}
	if strings.TrimSpace(params.ReturnURL) == "" {
		return accessDenied("return is required")
	}
	entityType := strings.TrimSpace(params.EntityType)
	entityID := strings.TrimSpace(params.EntityID)
	if entityType == "" || entityID == "" {
		return accessDenied("entity reference is required")
	}
	if b.entities == nil {
		return accessDenied("entity resolver is not configured")
	}
	found, err := b.entities.Resolve(ctx, entityType, entityID)
	if err != nil {
		return accessDenied("entity resolution failed: " + err.Error())
	}
	if !found {
		return accessDenied(fmt.Sprintf("entity %s/%s does not exist", entityType, entityID))
	}
	return nil
}

// BuildReturn validates the request field by field, signs the deep-linking
// response for the matched registration, and gives return listeners a last
// chance to adjust the message before it is rendered.
func (b *Builder) BuildReturn(ctx context.Context, params core.ReturnParams) (*core.ReturnMessage, error) {
	if b == nil || b.signer == nil {
		return nil, core.BuildError(fmt.Errorf("content: message signer is not configured"))
	}

	clientID := strings.TrimSpace(params.ClientID)
	if clientID == "" {
		return nil, core.MissingFieldError("client_id")
	}
	returnURL := strings.TrimSpace(params.ReturnURL)
	if returnURL == "" {
		return nil, core.MissingFieldError("return")
	}
	entityType := strings.TrimSpace(params.EntityType)
	if entityType == "" {
		return nil, core.MissingFieldError("entityType")
	}
	entityID := strings.TrimSpace(params.EntityID)
	if entityID == "" {
		return nil, core.MissingFieldError("entityId")
	}

	if b.trust == nil {
		return nil, core.UnknownRegistrationError(clientID)
	}
	registration, err := b.trust.LookupRegistration(ctx, clientID)
	if err != nil {
		return nil, err
	}

	item, err := b.contentItem(params, entityType, entityID)
	if err != nil {
		return nil, err
	}

	token, err := b.signer.Sign(registration, map[string]any{
		"nonce":                 uuid.NewString(),
		core.ClaimContentItems: []map[string]any{item},
	})
	if err != nil {
		return nil, core.BuildError(err)
	}

	message := &core.ReturnMessage{
		TargetURL: returnURL,
		Token:     token,
	}
	if err := b.hooks.DispatchReturn(ctx, &core.ReturnEvent{Message: message}); err != nil {
		return nil, core.BuildError(err)
	}
	return message, nil
}

func (b *Builder) contentItem(params core.ReturnParams, entityType string, entityID string) (map[string]any, error) {
	item := map[string]any{
		"type":  "ltiResourceLink",
		"title": entityType + " " + entityID,
		"url":   joinLaunchURL(b.launchURL, entityType, entityID),
		"custom": map[string]any{
			"entity_type": entityType,
			"entity_id":   entityID,
		},
	}

	if icon := strings.TrimSpace(params.Icon); icon != "" {
		item["icon"] = map[string]any{"url": icon}
	}
	if thumbnail := strings.TrimSpace(params.Thumbnail); thumbnail != "" {
		item["thumbnail"] = map[string]any{"url": thumbnail}
	}

	for _, property := range []struct {
		name  string
		value string
	}{
		{"iframe", params.IFrame},
		{"custom", params.Custom},
		{"lineItem", params.LineItem},
		{"available", params.Available},
		{"submission", params.Submission},
	} {
		value := strings.TrimSpace(property.value)
		if value == "" {
			continue
		}
		decoded, err := decodeProperty(property.name, value)
		if err != nil {
			return nil, err
		}
		item[property.name] = decoded
	}
	return item, nil
}

func joinLaunchURL(launchURL string, entityType string, entityID string) string {
	base := strings.TrimRight(launchURL, "/")
	return base + "/" + entityType + "/" + entityID
}

// decodeProperty decodes a value that looks like a JSON object and passes
// anything else through untouched. Platforms send these fields in both
// shapes; only a malformed object is a hard failure.
func decodeProperty(name string, value string) (any, error) {
	if !strings.HasPrefix(value, "{") {
		return value, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(value), &decoded); err != nil {
		return nil, core.BuildError(fmt.Errorf("content: malformed %s property: %w", name, err))
	}
	return decoded, nil
}

func accessDenied(reason string) *goerrors.Error {
	return goerrors.New("content: "+reason, goerrors.CategoryAuthz)
}
