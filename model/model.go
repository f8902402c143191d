// Package model implements the reactive Model orchestrator of spec.md §4.5: it composes a
// schema.Schema and a store.Store into a single façade supporting typed reads/writes,
// validation, (de)serialization, locking, and change subscription, the way the teacher's
// NewCollection (core/persistence/collection.go) composes a schema.Validator, an Executor,
// and an event bus into PersistenceCollectionInterface.
package model

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kowalski-labs/tyshemo/schema"
	"github.com/kowalski-labs/tyshemo/store"
	"github.com/kowalski-labs/tyshemo/tyerror"
	"go.uber.org/zap"
)

// ErrorHook is invoked with every TyError a Model operation produces, the centralized error
// routing point spec.md §7 calls for, mirroring schema.ErrorHandler at the Model layer.
type ErrorHook func(err *tyerror.TyError)

// StateHook is invoked with the model's raw field map whenever a caller asks for it via
// State(), letting an embedder intercept/augment the view a caller sees without changing
// what is actually stored.
type StateHook func(data map[string]any) map[string]any

// SchemaHook is invoked with the model's schema whenever a caller asks for it via Schema(),
// analogous to StateHook but for schema introspection, per spec.md §6's named schema() hook.
type SchemaHook func(sc *schema.Schema) *schema.Schema

// MetasHook is invoked with the model's field metas (by name) whenever a caller asks for
// them via Metas(), per spec.md §6's named metas() hook.
type MetasHook func(metas map[string]map[string]any) map[string]map[string]any

// SwitchHook fires after a successful Set, once the new value is committed to the Store,
// per spec.md §6's onSwitch hook: "switch" names the model transitioning from one state to
// the next, distinct from the lower-level per-path Store.Watch subscription.
type SwitchHook func(name string, value, old any)

// ParseHook pre-processes raw input before it reaches schema.Schema.Parse, in New/Restore/
// FromJSON, per spec.md §6's onParse hook — the point at which an embedder can normalize or
// migrate an incoming record shape before field-level parsing begins.
type ParseHook func(raw map[string]any) map[string]any

// ExportHook post-processes schema.Schema.Export's output before ToJSON marshals it, per
// spec.md §6's onExport hook — the mirror image of ParseHook at the output boundary.
type ExportHook func(data map[string]any) map[string]any

// Model is the orchestrator described in spec.md §4.5: Store holds the live data, Schema
// governs its shape, and Model itself plays the teacher's Collection role, with onError
// replacing the teacher's propagate-every-error-up style in favor of a single injectable
// sink (since a reactive model's writes happen throughout a UI's lifetime, not in one
// request/response cycle where returning an error to a caller is always sufficient).
type Model struct {
	mu     sync.RWMutex
	schema *schema.Schema
	store  *store.Store
	logger *zap.Logger

	locked  bool
	onError ErrorHook
	onState StateHook
	onSchema SchemaHook
	onMetas MetasHook
	onSwitch SwitchHook
	onParse ParseHook
	onExport ExportHook
}

// Option configures a new Model.
type Option func(*Model)

// WithLogger injects a *zap.Logger, falling back to zap.NewNop() when nil.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithErrorHook installs the error-routing sink every failing operation reports to.
func WithErrorHook(hook ErrorHook) Option {
	return func(m *Model) { m.onError = hook }
}

// WithStateHook installs the hook State() applies to the model's raw field map.
func WithStateHook(hook StateHook) Option {
	return func(m *Model) { m.onState = hook }
}

// WithSchemaHook installs the hook Schema() applies before returning the model's schema.
func WithSchemaHook(hook SchemaHook) Option {
	return func(m *Model) { m.onSchema = hook }
}

// WithMetasHook installs the hook Metas() applies before returning the model's field metas.
func WithMetasHook(hook MetasHook) Option {
	return func(m *Model) { m.onMetas = hook }
}

// WithSwitchHook installs the hook fired after every successful Set.
func WithSwitchHook(hook SwitchHook) Option {
	return func(m *Model) { m.onSwitch = hook }
}

// WithParseHook installs the hook New/Restore/FromJSON apply to raw input before parsing.
func WithParseHook(hook ParseHook) Option {
	return func(m *Model) { m.onParse = hook }
}

// WithExportHook installs the hook ToJSON applies to exported data before marshaling.
func WithExportHook(hook ExportHook) Option {
	return func(m *Model) { m.onExport = hook }
}

// New builds a Model over sc, parsing initial into a schema-conformant record (applying
// defaults/compute fields) and seeding the Store with it silently, so construction itself
// never triggers watcher dispatch. Computed fields are wired to their dependencies so a
// later write to a sibling field recomputes and republishes them through the Store, per
// spec.md §4.4/§8 scenario 3.
func New(sc *schema.Schema, initial map[string]any, opts ...Option) (*Model, error) {
	m := &Model{
		schema: sc,
		store:  store.New(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.onParse != nil {
		initial = m.onParse(initial)
	}

	data, err := sc.Parse(initial)
	if err != nil {
		return nil, fmt.Errorf("constructing model %q: %w", sc.Name, err)
	}

	m.store.Silent(func() {
		for k, v := range data {
			m.store.Set(k, v)
		}
	})

	m.wireComputedFields()

	return m, nil
}

// wireComputedFields discovers, for every Compute field, which sibling paths its computation
// reads (via Store.Track) and subscribes to each so a write to any of them recomputes and
// republishes the computed field's own value, per spec.md §4.4: "the tracker is used for
// compute fields, watch('*') patterns, and FieldView reactivity." Because FieldDef.Compute's
// signature (func(data any) any) takes a prebuilt map rather than reading the Store directly,
// the dependency set discovered here is every non-compute field read during one trial
// evaluation — a conservative but genuinely tracked superset of the fields the computation
// could possibly depend on, rather than a hand-specified list.
func (m *Model) wireComputedFields() {
	for name, fd := range m.schema.Fields {
		if fd.Compute == nil {
			continue
		}
		m.wireComputedField(name, fd)
	}
}

func (m *Model) wireComputedField(name string, fd *schema.FieldDef) {
	_, deps := m.store.Track(func() any {
		snapshot := map[string]any{}
		for field := range m.schema.Fields {
			if field == name {
				continue
			}
			if other := m.schema.Fields[field]; other.Compute != nil {
				continue
			}
			snapshot[field] = m.store.Get(field)
		}
		return fd.Compute(snapshot)
	})

	// recompute reads directly from the Store (which has its own locking) rather than going
	// through Model.mu: it runs synchronously inside the dispatch of the write that triggered
	// it, which may already hold Model.mu (see Set), and Model.mu is not reentrant.
	recompute := func(string, any, any) {
		snapshot := map[string]any{}
		for field, other := range m.schema.Fields {
			if field == name || other.Compute != nil {
				continue
			}
			snapshot[field] = m.store.Get(field)
		}
		value := fd.Compute(snapshot)
		m.store.Set(name, value)
	}
	for _, dep := range deps {
		m.store.Watch(dep, recompute)
	}
}

func (m *Model) reportError(err error) error {
	if err == nil {
		return nil
	}
	if tyErr, ok := err.(*tyerror.TyError); ok && m.onError != nil {
		m.onError(tyErr)
	}
	return err
}

// Get reads field name, applying its schema.FieldDef's Get hook/compute as usual.
func (m *Model) Get(name string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.schema.Get(m.snapshot(), name)
}

// Set writes value to field name, refusing the write entirely (tyerror.Locked) if the model
// is currently Locked. On success, fires the onSwitch hook (if any) with the field's old and
// new value, once the new value is committed to the Store.
func (m *Model) Set(name string, value any) error {
	m.mu.Lock()

	if m.locked {
		defer m.mu.Unlock()
		return m.reportError(tyerror.New(tyerror.Locked, value, m.schema.Name).WithPath(name))
	}

	data := m.snapshot()
	old := data[name]
	if err := m.schema.Set(data, name, value); err != nil {
		m.mu.Unlock()
		return m.reportError(err)
	}
	m.store.Set(name, data[name])
	newValue := data[name]
	onSwitch := m.onSwitch
	m.mu.Unlock()

	if onSwitch != nil {
		onSwitch(name, newValue, old)
	}
	return nil
}

// Update applies every key/value pair in patch via Set, stopping at the first error.
func (m *Model) Update(patch map[string]any) error {
	for k, v := range patch {
		if err := m.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the model's current data against its schema, without mutating anything.
// Multiple failing fields are joined into a single error message via schema.JoinIssues; the
// per-field breakdown is available through Views for callers that need structured access.
func (m *Model) Validate() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	issues := m.schema.Validate(m.snapshot())
	if len(issues) == 0 {
		return nil
	}
	for _, issue := range issues {
		m.reportError(issue.Err)
	}
	return fmt.Errorf("%s", schema.JoinIssues(issues))
}

// Restore replaces the model's entire data with a freshly parsed version of raw inside one
// Store.Batch: every field is written first, then watchers are notified once per changed
// field, per spec.md §4.5's restore/undo-adjacent bulk-write semantics.
func (m *Model) Restore(raw map[string]any) error {
	if m.onParse != nil {
		raw = m.onParse(raw)
	}

	data, err := m.schema.Parse(raw)
	if err != nil {
		return m.reportError(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.Batch(func() {
		for k, v := range data {
			m.store.Set(k, v)
		}
	})
	return nil
}

// FromJSON parses raw JSON into the model via Restore.
func (m *Model) FromJSON(raw []byte) error {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("model %q: decoding JSON: %w", m.schema.Name, err)
	}
	return m.Restore(data)
}

// ToJSON renders the model's exported (schema.Export) view as JSON, after applying the
// onExport hook (if any), the form an embedder would persist or transmit.
func (m *Model) ToJSON() ([]byte, error) {
	m.mu.RLock()
	exported := m.schema.Export(m.snapshot())
	onExport := m.onExport
	m.mu.RUnlock()

	if onExport != nil {
		exported = onExport(exported)
	}
	return json.Marshal(exported)
}

// Lock prevents further Set/Update calls from succeeding until Unlock is called, each
// rejected write reported as tyerror.Locked.
func (m *Model) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locked = true
}

// Unlock re-enables Set/Update.
func (m *Model) Unlock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locked = false
}

// Watch subscribes cb to changes on path (or every path, via "*"), delegating to the
// underlying Store.
func (m *Model) Watch(path string, cb func(path string, value, old any)) (unsubscribe func()) {
	return m.store.Watch(path, cb)
}

// State returns the model's current raw field map, passed through the onState hook (if any),
// per spec.md §6's named state() accessor.
func (m *Model) State() map[string]any {
	m.mu.RLock()
	data := m.snapshot()
	onState := m.onState
	m.mu.RUnlock()

	if onState != nil {
		return onState(data)
	}
	return data
}

// Schema returns the model's schema, passed through the onSchema hook (if any), per
// spec.md §6's named schema() accessor.
func (m *Model) Schema() *schema.Schema {
	if m.onSchema != nil {
		return m.onSchema(m.schema)
	}
	return m.schema
}

// Metas returns every field's Metas bag, keyed by field name, passed through the onMetas
// hook (if any), per spec.md §6's named metas() accessor.
func (m *Model) Metas() map[string]map[string]any {
	out := make(map[string]map[string]any, len(m.schema.Fields))
	for name, fd := range m.schema.Fields {
		out[name] = fd.Metas
	}
	if m.onMetas != nil {
		return m.onMetas(out)
	}
	return out
}

// Raw returns the model's current per-field values with no Get-hook transforms or Export
// projection applied, for callers (such as trace.TraceModel) that need to capture/restore
// the model's exact internal state rather than its external view.
func (m *Model) Raw() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]any, len(m.schema.Fields))
	for name := range m.schema.Fields {
		out[name] = m.store.Get(name)
	}
	return out
}

// snapshot must be called with mu held (read or write). It materializes the model's
// field values into a plain map suitable for schema.Schema methods, which operate on
// map[string]any rather than the Store directly.
func (m *Model) snapshot() map[string]any {
	out := map[string]any{}
	for name := range m.schema.Fields {
		out[name] = m.store.Get(name)
	}
	return out
}
