// Package form implements the lifecycle of a remote configuration form:
// hydrate from the device, edit locally, validate, and replace on the device.
package form

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/looplab/fsm"

	"cloupeer.io/supercar/internal/pkg/metrics"
	"cloupeer.io/supercar/internal/supercar/remote"
	"cloupeer.io/supercar/internal/supercar/route"
	"cloupeer.io/supercar/internal/supercar/schema"
	"cloupeer.io/supercar/pkg/log"
)

// Remote is the subset of the device client the controller needs.
type Remote interface {
	FetchResource(ctx context.Context, path string) (remote.Record, error)
	ReplaceResource(ctx context.Context, path string, record remote.Record) error
}

// Controller owns the state of one form surface. The same controller serves
// every target of its route. It is safe for concurrent use; the lock is not
// held during network calls.
type Controller struct {
	route  route.Route
	remote Remote

	mu      sync.Mutex
	fsm     *fsm.FSM
	target  string
	binding route.Binding
	schema  *schema.Schema
	fields  map[string]*Field
	lastErr error

	// generation moves on every deactivation. Results captured under an
	// older generation are stale.
	generation uint64
}

// NewController returns an uninitialized controller for r.
func NewController(r route.Route, rc Remote) *Controller {
	c := &Controller{
		route:  r,
		remote: rc,
	}
	c.fsm = c.newFSM()
	return c
}

// Activate binds the controller to target and hydrates it from the device.
// Switching to another resource discards the form state first. A failed fetch
// leaves the fields untouched and is returned.
func (c *Controller) Activate(ctx context.Context, target string) error {
	c.mu.Lock()
	binding, err := route.Resolve(c.route, target)
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		return err
	}

	if binding.Path != c.binding.Path {
		s, err := schema.Lookup(binding.Kind)
		if err != nil {
			c.mu.Unlock()
			return err
		}
		c.schema = s
		c.fields = emptyFields(s)
	}
	c.target = target
	c.binding = binding
	c.lastErr = nil
	generation, path := c.generation, binding.Path

	if err := c.fire(EventActivate); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	c.logger().Debug("Loading configuration", "path", path)
	record, err := c.remote.FetchResource(ctx, path)

	c.mu.Lock()
	defer c.mu.Unlock()

	event := EventHydrate
	if err != nil {
		event = EventFailHydration
	}
	// A fetch landing while a submit is in flight would overwrite the values
	// being sent.
	if c.stale(generation, path) || c.fsm.Cannot(event) {
		c.logger().Debug("Discarding stale configuration", "path", path)
		return ErrStale
	}

	if err != nil {
		c.lastErr = err
		c.logger().Error(err, "Failed to load configuration", "path", path)
		if ferr := c.fire(event); ferr != nil {
			return errors.Join(err, ferr)
		}
		return err
	}

	c.fields = hydrate(c.schema, record)
	c.lastErr = nil
	return c.fire(event)
}

// OnTargetChanged re-activates the controller when target resolves to another
// resource than the current one. It does nothing otherwise.
func (c *Controller) OnTargetChanged(ctx context.Context, target string) error {
	c.mu.Lock()
	binding, err := route.Resolve(c.route, target)
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		return err
	}
	unchanged := binding.Path == c.binding.Path && !c.fsm.Is(StateUninitialized)
	c.mu.Unlock()

	if unchanged {
		return nil
	}
	return c.Activate(ctx, target)
}

// Deactivate discards the form state. Results of calls still in flight are
// dropped when they arrive.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.target = ""
	c.binding = route.Binding{}
	c.schema = nil
	c.fields = nil
	c.lastErr = nil
	if err := c.fire(EventDeactivate); err != nil {
		c.logger().Error(err, "Failed to deactivate form")
	}
}

// Edit stores raw as the value of the named field and re-validates that field
// only. Invalid values are kept and flagged; they never block editing.
func (c *Controller) Edit(name, raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !slices.Contains(editableStates, c.fsm.Current()) {
		return fmt.Errorf("%w: form is %s", ErrNotEditable, c.fsm.Current())
	}

	spec, ok := c.schema.Field(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	f := c.fields[name]
	f.Raw = raw
	f.Dirty = true
	f.Err = schema.ValidateField(spec, raw)
	return nil
}

// Submit validates every field and, when all are valid, replaces the device
// resource with the full record. The field values are kept either way; a
// successful submit only clears the dirty flags.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()

	if c.fsm.Cannot(EventSubmit) {
		state := c.fsm.Current()
		c.mu.Unlock()
		return fmt.Errorf("%w: form is %s", ErrNotSubmittable, state)
	}

	kind := c.binding.Kind
	if err := c.fire(EventSubmit); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			err = verr
			c.lastErr = verr
			metrics.FormSubmissionsTotal.WithLabelValues(string(kind), "invalid").Inc()
		}
		c.mu.Unlock()
		return err
	}

	record, err := schema.Coerce(c.schema, c.values())
	if err != nil {
		// validateAll accepted the same values; this is unreachable.
		_ = c.fire(EventFailSubmit)
		c.mu.Unlock()
		return err
	}
	generation, path := c.generation, c.binding.Path
	c.mu.Unlock()

	c.logger().Debug("Submitting configuration", "path", path)
	err = c.remote.ReplaceResource(ctx, path, record)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stale(generation, path) {
		c.logger().Debug("Discarding stale submit result", "path", path)
		return ErrStale
	}

	// The device answered for the current resource, so the outcome is reported
	// even when a reload on the same resource started meanwhile. That reload
	// then owns the state until it settles.
	if err != nil {
		c.lastErr = err
		metrics.FormSubmissionsTotal.WithLabelValues(string(kind), "failed").Inc()
		c.logger().Error(err, "Failed to save configuration", "path", path)
		if c.fsm.Can(EventFailSubmit) {
			if ferr := c.fire(EventFailSubmit); ferr != nil {
				return errors.Join(err, ferr)
			}
		}
		return err
	}

	for _, f := range c.fields {
		f.Dirty = false
	}
	c.lastErr = nil
	metrics.FormSubmissionsTotal.WithLabelValues(string(kind), "success").Inc()
	c.logger().Info("Configuration saved", "path", path)
	if c.fsm.Can(EventSubmitted) {
		return c.fire(EventSubmitted)
	}
	return nil
}

// State returns the current state name.
func (c *Controller) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.Current()
}

// Snapshot returns a copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Route:  c.route,
		Target: c.target,
		Kind:   c.binding.Kind,
		Path:   c.binding.Path,
		State:  c.fsm.Current(),
		Err:    c.lastErr,
	}
	if c.schema == nil {
		return snap
	}

	snap.Fields = make([]FieldState, 0, len(c.schema.Fields))
	for _, spec := range c.schema.Fields {
		snap.Fields = append(snap.Fields, FieldState{Spec: spec, Field: *c.fields[spec.Name]})
	}
	return snap
}

// validateAll guards the submit event. It flags every field and cancels the
// transition when one of them is invalid. Called with c.mu held.
func (c *Controller) validateAll(_ context.Context, _ *fsm.Event) error {
	errs := schema.Validate(c.schema, c.values())
	for name, f := range c.fields {
		f.Err = errs[name]
	}
	if len(errs) > 0 {
		return &ValidationError{Kind: c.binding.Kind, Fields: errs}
	}
	return nil
}

// stale reports whether a result captured under generation for path belongs to
// a resource the controller has since left.
func (c *Controller) stale(generation uint64, path string) bool {
	return generation != c.generation || path != c.binding.Path
}

func (c *Controller) values() map[string]string {
	values := make(map[string]string, len(c.fields))
	for name, f := range c.fields {
		values[name] = f.Raw
	}
	return values
}

func (c *Controller) logger() log.Logger {
	return log.WithValues("route", c.route, "target", c.target)
}

func emptyFields(s *schema.Schema) map[string]*Field {
	fields := make(map[string]*Field, len(s.Fields))
	for _, spec := range s.Fields {
		fields[spec.Name] = &Field{}
	}
	return fields
}

// hydrate builds fresh field state from a device record. Record fields outside
// the schema are ignored and schema fields missing from the record stay empty.
func hydrate(s *schema.Schema, record remote.Record) map[string]*Field {
	fields := emptyFields(s)
	for _, spec := range s.Fields {
		v, ok := record[spec.Name]
		if !ok {
			continue
		}
		raw, ok := schema.FormatValue(v)
		if !ok {
			log.Warn("Ignoring non-numeric configuration value", "field", spec.Name)
			continue
		}
		fields[spec.Name] = &Field{Raw: raw, Err: schema.ValidateField(spec, raw)}
	}
	return fields
}
