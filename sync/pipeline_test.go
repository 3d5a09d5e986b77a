package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/giant-rabbit/lti-tool-provider/core"
)

type userStoreStub struct {
	saved []*core.User
	err   error
}

func (s *userStoreStub) Save(_ context.Context, user *core.User) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, user)
	return nil
}

type reporterStub struct {
	messages []string
	err      error
}

func (r *reporterStub) SendError(_ context.Context, message string, _ core.LaunchContext) error {
	r.messages = append(r.messages, message)
	return r.err
}

type attributeHookFunc struct {
	name string
	fn   func(context.Context, *core.AttributesEvent) error
}

func (h attributeHookFunc) Name() string { return h.name }

func (h attributeHookFunc) OnAttributes(ctx context.Context, event *core.AttributesEvent) error {
	if h.fn == nil {
		return nil
	}
	return h.fn(ctx, event)
}

func testMappings() core.AttributeMappings {
	return core.AttributeMappings{
		core.VersionV1P0: {
			"display_name": "lis_person_name_full",
			"email":        "lis_person_contact_email_primary",
		},
		core.VersionV1P3: {
			"display_name": "name",
		},
	}
}

func testLaunch(t *testing.T) core.LaunchContext {
	t.Helper()
	launch, err := core.NewLaunchContext(core.VersionV1P0, map[string]any{
		"lis_person_name_full": "Ada Lovelace",
		"roles":                "Instructor",
	})
	if err != nil {
		t.Fatalf("new launch context: %v", err)
	}
	return launch
}

func TestPipeline_Sync_StagesAndSaves(t *testing.T) {
	store := &userStoreStub{}
	pipeline := NewPipeline(PipelineConfig{Users: store})
	user := &core.User{Name: "astudent"}

	if err := pipeline.Sync(context.Background(), testLaunch(t), user, testMappings()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	if value, _ := user.Attribute("display_name"); value != "Ada Lovelace" {
		t.Fatalf("expected mapped attribute, got %q", value)
	}
	if _, ok := user.Attribute("email"); ok {
		t.Fatalf("expected absent remote attribute to stay unstaged")
	}
	if len(store.saved) != 1 || store.saved[0] != user {
		t.Fatalf("expected user to be saved once, got %d", len(store.saved))
	}
}

func TestPipeline_Sync_SkipsAnonymousUser(t *testing.T) {
	store := &userStoreStub{}
	pipeline := NewPipeline(PipelineConfig{Users: store})
	user := &core.User{Name: "ltiuser"}

	if err := pipeline.Sync(context.Background(), testLaunch(t), user, testMappings()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(user.Attributes) != 0 {
		t.Fatalf("expected no staged attributes for anonymous user, got %+v", user.Attributes)
	}
	if len(store.saved) != 0 {
		t.Fatalf("expected no save for anonymous user")
	}
}

func TestPipeline_Sync_CustomAnonymousName(t *testing.T) {
	store := &userStoreStub{}
	pipeline := NewPipeline(PipelineConfig{AnonymousUser: "guest", Users: store})

	if err := pipeline.Sync(context.Background(), testLaunch(t), &core.User{Name: "guest"}, testMappings()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatalf("expected configured anonymous name to skip the pipeline")
	}

	if err := pipeline.Sync(context.Background(), testLaunch(t), &core.User{Name: "ltiuser"}, testMappings()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected default name to sync when overridden, got %d saves", len(store.saved))
	}
}

func TestPipeline_Sync_SkipsWithoutVersionMapping(t *testing.T) {
	store := &userStoreStub{}
	pipeline := NewPipeline(PipelineConfig{Users: store})
	user := &core.User{Name: "astudent"}

	mappings := core.AttributeMappings{core.VersionV1P3: {"display_name": "name"}}
	if err := pipeline.Sync(context.Background(), testLaunch(t), user, mappings); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatalf("expected no save without a version mapping")
	}
}

func TestPipeline_Sync_ListenerSeesStagedValues(t *testing.T) {
	hooks := core.NewLaunchHookCoordinator()
	var seen string
	hooks.RegisterAttributes(attributeHookFunc{
		name: "observer",
		fn: func(_ context.Context, event *core.AttributesEvent) error {
			seen, _ = event.User.Attribute("display_name")
			return nil
		},
	})

	pipeline := NewPipeline(PipelineConfig{Users: &userStoreStub{}, Hooks: hooks})
	if err := pipeline.Sync(context.Background(), testLaunch(t), &core.User{Name: "astudent"}, testMappings()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if seen != "Ada Lovelace" {
		t.Fatalf("expected listener to observe staged value, got %q", seen)
	}
}

func TestPipeline_Sync_CancelBlocksSaveAndReports(t *testing.T) {
	hooks := core.NewLaunchHookCoordinator()
	hooks.RegisterAttributes(attributeHookFunc{
		name: "gate",
		fn: func(_ context.Context, event *core.AttributesEvent) error {
			event.Cancel("account is suspended")
			return nil
		},
	})

	store := &userStoreStub{}
	reporter := &reporterStub{}
	pipeline := NewPipeline(PipelineConfig{Users: store, Reporter: reporter, Hooks: hooks})

	err := pipeline.Sync(context.Background(), testLaunch(t), &core.User{Name: "astudent"}, testMappings())
	if !core.HasTextCode(err, core.ErrorLaunchCancelled) {
		t.Fatalf("expected launch cancelled error, got %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatalf("expected cancellation to block the save")
	}
	if len(reporter.messages) != 1 || reporter.messages[0] != "account is suspended" {
		t.Fatalf("expected cancellation message to be reported, got %+v", reporter.messages)
	}
}

func TestPipeline_Sync_CancelWithoutMessageUsesDefault(t *testing.T) {
	hooks := core.NewLaunchHookCoordinator()
	hooks.RegisterAttributes(attributeHookFunc{
		name: "gate",
		fn: func(_ context.Context, event *core.AttributesEvent) error {
			event.Cancel("")
			return nil
		},
	})

	reporter := &reporterStub{}
	pipeline := NewPipeline(PipelineConfig{Reporter: reporter, Hooks: hooks})

	err := pipeline.Sync(context.Background(), testLaunch(t), &core.User{Name: "astudent"}, testMappings())
	if !core.HasTextCode(err, core.ErrorLaunchCancelled) {
		t.Fatalf("expected launch cancelled error, got %v", err)
	}
	if len(reporter.messages) != 1 || reporter.messages[0] != "launch cancelled during attribute sync" {
		t.Fatalf("expected default cancellation message, got %+v", reporter.messages)
	}
}

func TestPipeline_Sync_ReporterFailureDoesNotMaskCancellation(t *testing.T) {
	hooks := core.NewLaunchHookCoordinator()
	hooks.RegisterAttributes(attributeHookFunc{
		name: "gate",
		fn: func(_ context.Context, event *core.AttributesEvent) error {
			event.Cancel("denied")
			return nil
		},
	})

	pipeline := NewPipeline(PipelineConfig{
		Reporter: &reporterStub{err: errors.New("report channel down")},
		Hooks:    hooks,
	})

	err := pipeline.Sync(context.Background(), testLaunch(t), &core.User{Name: "astudent"}, testMappings())
	if !core.HasTextCode(err, core.ErrorLaunchCancelled) {
		t.Fatalf("expected cancellation to surface despite reporter failure, got %v", err)
	}
}

func TestPipeline_Sync_ListenerErrorFailsDispatch(t *testing.T) {
	hooks := core.NewLaunchHookCoordinator()
	hooks.RegisterAttributes(attributeHookFunc{
		name: "broken",
		fn: func(context.Context, *core.AttributesEvent) error {
			return errors.New("listener exploded")
		},
	})

	store := &userStoreStub{}
	pipeline := NewPipeline(PipelineConfig{Users: store, Hooks: hooks})

	err := pipeline.Sync(context.Background(), testLaunch(t), &core.User{Name: "astudent"}, testMappings())
	if err == nil {
		t.Fatalf("expected listener failure to surface")
	}
	if len(store.saved) != 0 {
		t.Fatalf("expected dispatch failure to block the save")
	}
}

func TestPipeline_Sync_SaveFailureWrapsPersistenceError(t *testing.T) {
	pipeline := NewPipeline(PipelineConfig{Users: &userStoreStub{err: errors.New("disk full")}})

	err := pipeline.Sync(context.Background(), testLaunch(t), &core.User{Name: "astudent"}, testMappings())
	if !core.HasTextCode(err, core.ErrorPersistenceFailed) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestPipeline_Sync_RequiresUser(t *testing.T) {
	pipeline := NewPipeline(PipelineConfig{})
	if err := pipeline.Sync(context.Background(), testLaunch(t), nil, testMappings()); err == nil {
		t.Fatalf("expected user required error")
	}
}
