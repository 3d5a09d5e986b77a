package core

import (
	"net/url"
	"testing"
)

func TestLaunchVersion_Valid(t *testing.T) {
	if !VersionV1P0.Valid() || !VersionV1P3.Valid() {
		t.Fatalf("expected known versions to be valid")
	}
	if LaunchVersion("V2P0").Valid() {
		t.Fatalf("expected unknown version to be invalid")
	}
}

func TestNewLaunchContext_RejectsUnknownVersion(t *testing.T) {
	if _, err := NewLaunchContext(LaunchVersion("bogus"), map[string]any{}); err == nil {
		t.Fatalf("expected unsupported version error")
	}
}

func TestNewLaunchContext_RequiresPayload(t *testing.T) {
	if _, err := NewLaunchContext(VersionV1P0, nil); err == nil {
		t.Fatalf("expected payload required error")
	}
}

func TestLaunchContext_AttributeLookup(t *testing.T) {
	launch, err := NewLaunchContext(VersionV1P0, map[string]any{
		"lis_person_name_full": "Ada Lovelace",
		"roles":                "Instructor",
	})
	if err != nil {
		t.Fatalf("new launch context: %v", err)
	}

	if got := launch.Version(); got != VersionV1P0 {
		t.Fatalf("expected version V1P0, got %q", got)
	}

	value, ok := launch.Attribute("lis_person_name_full")
	if !ok || value != "Ada Lovelace" {
		t.Fatalf("expected attribute hit, got %q ok=%v", value, ok)
	}

	if _, ok := launch.Attribute("lis_person_contact_email_primary"); ok {
		t.Fatalf("expected absent attribute to report false, not error")
	}
}

func TestLaunchContext_AttributeCoercion(t *testing.T) {
	launch, err := NewLaunchContext(VersionV1P3, map[string]any{
		"count":   float64(3),
		"ratio":   2.5,
		"enabled": true,
		"nested":  map[string]any{"a": "b"},
		"blank":   nil,
	})
	if err != nil {
		t.Fatalf("new launch context: %v", err)
	}

	cases := map[string]string{
		"count":   "3",
		"ratio":   "2.5",
		"enabled": "true",
		"nested":  `{"a":"b"}`,
		"blank":   "",
	}
	for name, want := range cases {
		got, ok := launch.Attribute(name)
		if !ok {
			t.Fatalf("expected attribute %q to resolve", name)
		}
		if got != want {
			t.Fatalf("attribute %q: expected %q, got %q", name, want, got)
		}
	}
}

func TestLaunchContext_IsolatedFromSourcePayload(t *testing.T) {
	payload := map[string]any{"context_title": "Algebra"}
	launch, err := NewLaunchContext(VersionV1P0, payload)
	if err != nil {
		t.Fatalf("new launch context: %v", err)
	}

	payload["context_title"] = "mutated"
	if value, _ := launch.Attribute("context_title"); value != "Algebra" {
		t.Fatalf("expected context to be isolated from the source payload, got %q", value)
	}

	values := launch.Values()
	values["context_title"] = "mutated again"
	if value, _ := launch.Attribute("context_title"); value != "Algebra" {
		t.Fatalf("expected Values to return a copy, got %q", value)
	}
}

func TestUser_SetAttribute(t *testing.T) {
	user := &User{Name: "astudent"}
	user.SetAttribute("display_name", "A Student")
	user.SetAttribute("  ", "dropped")

	if value, ok := user.Attribute("display_name"); !ok || value != "A Student" {
		t.Fatalf("expected staged attribute, got %q ok=%v", value, ok)
	}
	if len(user.Attributes) != 1 {
		t.Fatalf("expected blank attribute names to be dropped, got %d entries", len(user.Attributes))
	}

	var missing *User
	missing.SetAttribute("display_name", "noop")
	if _, ok := missing.Attribute("display_name"); ok {
		t.Fatalf("expected nil user lookups to miss")
	}
}

func TestAttributeMappings_ForVersion(t *testing.T) {
	mappings := AttributeMappings{
		VersionV1P0: {"display_name": "lis_person_name_full"},
	}
	if got := mappings.ForVersion(VersionV1P0); len(got) != 1 {
		t.Fatalf("expected one mapping for V1P0, got %d", len(got))
	}
	if got := mappings.ForVersion(VersionV1P3); got != nil {
		t.Fatalf("expected no mapping for V1P3")
	}
	if got := AttributeMappings(nil).ForVersion(VersionV1P0); got != nil {
		t.Fatalf("expected nil mappings to report nil")
	}
}

func TestLaunchRequest_ParamTrims(t *testing.T) {
	req := LaunchRequest{Params: url.Values{"oauth_consumer_key": []string{"  key-1  "}}}
	if got := req.Param("oauth_consumer_key"); got != "key-1" {
		t.Fatalf("expected trimmed param, got %q", got)
	}
	if got := (LaunchRequest{}).Param("oauth_consumer_key"); got != "" {
		t.Fatalf("expected empty param on nil values, got %q", got)
	}
}
