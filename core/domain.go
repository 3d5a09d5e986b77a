package core

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// LaunchVersion tags which LTI protocol carried a launch.
type LaunchVersion string

const (
	VersionV1P0 LaunchVersion = "V1P0"
	VersionV1P3 LaunchVersion = "V1P3"
)

func (v LaunchVersion) Valid() bool {
	switch v {
	case VersionV1P0, VersionV1P3:
		return true
	default:
		return false
	}
}

// Well-known 1.3 claim names used by the verifier and the return builder.
const (
	ClaimVersion      = "https://purl.imsglobal.org/spec/lti/claim/version"
	ClaimMessageType  = "https://purl.imsglobal.org/spec/lti/claim/message_type"
	ClaimDeploymentID = "https://purl.imsglobal.org/spec/lti/claim/deployment_id"
	ClaimContentItems = "https://purl.imsglobal.org/spec/lti-dl/claim/content_items"
	ClaimDeepLinkMsg  = "LtiDeepLinkingResponse"

	VersionClaimV1P3 = "1.3.0"
)

// Consumer is a legacy 1.0a platform identity keyed by a shared secret.
// Administrative configuration owns these records; the core only reads them.
type Consumer struct {
	ID        string
	Key       string
	Secret    string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Registration is a 1.3 platform identity. Key material is either a shared
// secret (HS256) or the platform's public key in PEM form (RS256). ToolKeyPEM
// holds the tool-side private key used to sign deep-linking responses.
type Registration struct {
	ID             string
	ClientID       string
	Issuer         string
	DeploymentID   string
	Name           string
	SharedSecret   string
	PlatformKeyPEM string
	ToolKeyPEM     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Identity is the trust-store lookup result. A nil Secret marks an unknown
// identity: verification proceeds against the null credential and fails
// deterministically instead of short-circuiting.
type Identity struct {
	Key     string
	Secret  []byte
	Version LaunchVersion
}

func (i Identity) HasSecret() bool {
	return len(i.Secret) > 0
}

// User is the local identity record the attribute pipeline stages onto.
type User struct {
	ID         string
	Name       string
	Attributes map[string]string
}

func (u *User) SetAttribute(name string, value string) {
	if u == nil {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if u.Attributes == nil {
		u.Attributes = map[string]string{}
	}
	u.Attributes[name] = value
}

func (u *User) Attribute(name string) (string, bool) {
	if u == nil || u.Attributes == nil {
		return "", false
	}
	value, ok := u.Attributes[strings.TrimSpace(name)]
	return value, ok
}

// AttributeMappings maps local attribute names to remote launch attribute
// names, keyed by protocol version. Loaded from host configuration and
// read-only to the pipeline.
type AttributeMappings map[LaunchVersion]map[string]string

func (m AttributeMappings) ForVersion(version LaunchVersion) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return m[version]
}

// LaunchRequest carries the raw inbound launch. A non-empty Token selects the
// 1.3 path; otherwise Method/URL/Params describe a 1.0a signed request.
type LaunchRequest struct {
	Method string
	URL    string
	Params url.Values
	Token  string
}

func (r LaunchRequest) Param(name string) string {
	if r.Params == nil {
		return ""
	}
	return strings.TrimSpace(r.Params.Get(name))
}

// ReturnParams is the validated input surface of the content-return endpoint.
type ReturnParams struct {
	ClientID   string
	ReturnURL  string
	EntityType string
	EntityID   string
	Icon       string
	Thumbnail  string
	IFrame     string
	Custom     string
	LineItem   string
	Available  string
	Submission string
}

// ReturnMessage is the signed deep-linking response addressed to the
// platform's return endpoint. Return listeners may replace the token or
// target before the redirect form is rendered.
type ReturnMessage struct {
	TargetURL string
	Token     string
}

// RedirectPayload is the rendered auto-submitting form the handler writes on
// a successful content return.
type RedirectPayload struct {
	HTML      string
	TargetURL string
}

// LaunchContext is the version-independent view over a verified launch
// payload. Immutable once constructed; downstream callers read attributes
// through Attribute and never branch on the version for data access.
type LaunchContext struct {
	version LaunchVersion
	values  map[string]any
}

func NewLaunchContext(version LaunchVersion, payload map[string]any) (LaunchContext, error) {
	if !version.Valid() {
		return LaunchContext{}, fmt.Errorf("core: unsupported launch version %q", version)
	}
	if payload == nil {
		return LaunchContext{}, fmt.Errorf("core: verified payload is required")
	}
	values := make(map[string]any, len(payload))
	for key, value := range payload {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		values[trimmed] = value
	}
	return LaunchContext{version: version, values: values}, nil
}

func (c LaunchContext) Version() LaunchVersion {
	return c.version
}

// Attribute resolves a raw parameter (1.0a) or claim (1.3) by name. Absence
// is a normal outcome reported through the boolean, never an error.
func (c LaunchContext) Attribute(name string) (string, bool) {
	if c.values == nil {
		return "", false
	}
	value, ok := c.values[strings.TrimSpace(name)]
	if !ok {
		return "", false
	}
	return attributeString(value), true
}

// Values returns a copy of the underlying attribute set, mostly for
// listeners that want to inspect the whole launch.
func (c LaunchContext) Values() map[string]any {
	out := make(map[string]any, len(c.values))
	for key, value := range c.values {
		out[key] = value
	}
	return out
}

func attributeString(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	case bool:
		return strconv.FormatBool(typed)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case float64:
		if typed == float64(int64(typed)) {
			return strconv.FormatInt(int64(typed), 10)
		}
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case fmt.Stringer:
		return strings.TrimSpace(typed.String())
	case nil:
		return ""
	default:
		if encoded, err := json.Marshal(typed); err == nil {
			return string(encoded)
		}
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}
