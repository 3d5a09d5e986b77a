package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// AttributesEvent wraps a launch context and the user carrying staged
// attribute writes. Listeners see the staged values and may override them or
// cancel the launch; the pipeline checks the cancellation flag after every
// listener has run.
type AttributesEvent struct {
	Context LaunchContext
	User    *User

	mu        sync.Mutex
	cancelled bool
	message   string
}

func NewAttributesEvent(launch LaunchContext, user *User) *AttributesEvent {
	return &AttributesEvent{
		Context: launch,
		User:    user,
	}
}

func (e *AttributesEvent) Cancel(message string) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelled = true
	if trimmed := strings.TrimSpace(message); trimmed != "" {
		e.message = trimmed
	}
}

func (e *AttributesEvent) Cancelled() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled
}

func (e *AttributesEvent) Message() string {
	if e == nil {
		return ""
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.message
}

// ReturnEvent carries the built deep-linking message so listeners can mutate
// it before the redirect form is rendered.
type ReturnEvent struct {
	Message *ReturnMessage
}

// LaunchHookCoordinator dispatches launch events to registered listeners
// synchronously, in registration order, within the launching request.
type LaunchHookCoordinator struct {
	mu         sync.RWMutex
	attributes []AttributeListener
	returns    []ReturnListener
}

func NewLaunchHookCoordinator() *LaunchHookCoordinator {
	return &LaunchHookCoordinator{
		attributes: make([]AttributeListener, 0),
		returns:    make([]ReturnListener, 0),
	}
}

func (c *LaunchHookCoordinator) RegisterAttributes(listener AttributeListener) {
	if c == nil || listener == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attributes = append(c.attributes, listener)
}

func (c *LaunchHookCoordinator) RegisterReturn(listener ReturnListener) {
	if c == nil || listener == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.returns = append(c.returns, listener)
}

// DispatchAttributes runs every attributes listener in order. The first
// listener error fails the dispatch; cancellation is not an error and is
// read from the event by the caller afterward.
func (c *LaunchHookCoordinator) DispatchAttributes(ctx context.Context, event *AttributesEvent) error {
	if event == nil {
		return fmt.Errorf("core: attributes event is required")
	}
	for _, listener := range c.attributeListeners() {
		if listener == nil {
			continue
		}
		if err := listener.OnAttributes(ctx, event); err != nil {
			return fmt.Errorf("core: attributes listener %q failed: %w", listenerName(listener.Name()), err)
		}
	}
	return nil
}

// DispatchReturn runs every return listener in order, failing fast.
func (c *LaunchHookCoordinator) DispatchReturn(ctx context.Context, event *ReturnEvent) error {
	if event == nil || event.Message == nil {
		return fmt.Errorf("core: return event message is required")
	}
	for _, listener := range c.returnListeners() {
		if listener == nil {
			continue
		}
		if err := listener.OnReturn(ctx, event); err != nil {
			return fmt.Errorf("core: return listener %q failed: %w", listenerName(listener.Name()), err)
		}
	}
	return nil
}

func (c *LaunchHookCoordinator) attributeListeners() []AttributeListener {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]AttributeListener, len(c.attributes))
	copy(out, c.attributes)
	return out
}

func (c *LaunchHookCoordinator) returnListeners() []ReturnListener {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ReturnListener, len(c.returns))
	copy(out, c.returns)
	return out
}

func listenerName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "unnamed"
	}
	return trimmed
}
