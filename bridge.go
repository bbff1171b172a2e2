package webbridge

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/pthm/webbridge/lib/debounce"
)

// Option configures a Bridge.
type Option func(*options)

type options struct {
	transport    Transport
	sources      []Source
	static       []Extension
	encoder      *Encoder
	logger       Logger
	clock        debounce.Clock
	delay        time.Duration
	dedupHistory int
	layout       LayoutRegion
}

// WithTransport sets the host transport for outbound messages.
// Without it the bridge runs standalone and outbound sends are no-ops.
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithSources sets the inbound sources. Defaults to the bridge's own
// window and document EventTargets.
func WithSources(sources ...Source) Option {
	return func(o *options) {
		o.sources = sources
	}
}

// WithStaticExtensions appends extensions installed after the configured ones.
func WithStaticExtensions(exts ...Extension) Option {
	return func(o *options) {
		o.static = append(o.static, exts...)
	}
}

// WithEncoder sets the message encoder. Defaults to JSON.
func WithEncoder(e *Encoder) Option {
	return func(o *options) {
		o.encoder = e
	}
}

// WithLogger sets the logger. Defaults to the package default logger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock sets the clock driving the state debounce.
func WithClock(c debounce.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithDebounce overrides the state debounce window (DefaultDebounce).
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.delay = d
	}
}

// WithDedupHistory sets how many recent action IDs are remembered.
// The default of one only drops immediate redeliveries.
func WithDedupHistory(n int) Option {
	return func(o *options) {
		o.dedupHistory = n
	}
}

// WithLayout sets the region measured for dynamic height. Height messages are
// only sent when the environment enables DynamicHeight.
func WithLayout(region LayoutRegion) Option {
	return func(o *options) {
		o.layout = region
	}
}

// EditorOptions is what the engine binding needs to create the editor.
type EditorOptions struct {
	Content    string
	Editable   bool
	Extensions []Extension
}

// Bridge connects one editor instance to the host.
//
// Lifecycle:
//
//	b, err := webbridge.New(reg, env, webbridge.WithTransport(t))
//	ed := engine.New(b.EditorOptions())   // binding calls b.OnCreate, b.OnUpdate, ...
//	b.Mount(ed)                           // subscribe to host messages
//	defer b.Unmount()
//
// The engine binding forwards the editor's lifecycle callbacks to OnCreate,
// OnUpdate, OnSelectionUpdate and OnTransaction. All handler callbacks run
// one at a time.
type Bridge struct {
	env      Env
	registry *Registry
	logger   Logger

	extensions []Extension
	warnings   []error

	outbound *Outbound
	emitter  *StateEmitter
	listener *Listener
	height   heightListener
	layout   LayoutRegion

	window   *EventTarget
	document *EventTarget

	// run serializes handler invocations (dispatch and state computation).
	run sync.Mutex

	mu     sync.Mutex
	editor Editor
}

// New creates a bridge for the handlers in reg and the host environment env.
//
// The extension configuration is parsed and matched against the handlers
// here. Mismatches never fail construction: they are logged and available
// from Warnings. New only fails for an unknown platform.
func New(reg *Registry, env Env, opts ...Option) (*Bridge, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	if err := env.Platform.validate(); err != nil {
		return nil, err
	}

	o := &options{delay: DefaultDebounce, dedupHistory: 1}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = defaultLogger
	}
	if o.encoder == nil {
		o.encoder = DefaultEncoder()
	}

	b := &Bridge{
		env:      env,
		logger:   o.logger,
		layout:   o.layout,
		window:   NewEventTarget("window"),
		document: NewEventTarget("document"),
	}

	registry, filterWarnings := reg.Filter(env.AllowedHandlers)
	registry.OnPanic = func(err *HandlerError) {
		b.logger.Error("webbridge: handler panicked", "handler", err.Handler, "op", err.Op, "panic", err.Value)
	}
	b.registry = registry
	for _, w := range filterWarnings {
		b.warn(w)
	}

	b.extensions = b.buildExtensions(o.static)

	b.outbound = NewOutbound(o.transport, o.encoder, o.logger)
	b.emitter = NewStateEmitter(
		b.computeState,
		b.outbound,
		debounce.New(o.delay, debounce.WithClock(o.clock)),
		o.logger,
	)

	sources := o.sources
	if sources == nil {
		sources = []Source{b.window, b.document}
	}
	b.listener = NewListener(sources, o.encoder, NewDeduper(o.dedupHistory), b.dispatch, o.logger)

	return b, nil
}

func (b *Bridge) buildExtensions(static []Extension) []Extension {
	cfg, errs := parseExtensionConfigMap(b.env.ExtensionConfigMap)
	for _, err := range errs {
		b.warn(err)
	}
	if cfg == nil {
		cfg = ExtensionConfigMap{}
	}

	configured, warnings := b.registry.Extensions(cfg)
	for _, w := range warnings {
		b.warn(w)
	}

	var exts []Extension
	if !b.env.DisableColorHighlight {
		exts = append(exts, HighlightSelection)
	}
	exts = append(exts, configured...)
	exts = append(exts, static...)
	return exts
}

func (b *Bridge) warn(err error) {
	b.warnings = append(b.warnings, err)
	var uc *UnknownCapabilityError
	if errors.As(err, &uc) {
		b.logger.Warn("webbridge: unknown capability", "name", uc.Name, "reason", uc.Reason)
		return
	}
	b.logger.Warn("webbridge: configuration ignored", "error", err)
}

// Env returns the environment the bridge was built with.
func (b *Bridge) Env() Env {
	return b.env
}

// Registry returns the effective registry (after the allow-list).
func (b *Bridge) Registry() *Registry {
	return b.registry
}

// Extensions returns the installed extensions in order: the selection
// highlight (unless disabled), configured handler extensions, then static ones.
func (b *Bridge) Extensions() []Extension {
	out := make([]Extension, len(b.extensions))
	copy(out, b.extensions)
	return out
}

// Warnings returns the configuration mismatches found at construction.
func (b *Bridge) Warnings() []error {
	out := make([]error, len(b.warnings))
	copy(out, b.warnings)
	return out
}

// EditorOptions returns the options for creating the editor.
func (b *Bridge) EditorOptions() EditorOptions {
	return EditorOptions{
		Content:    b.env.InitialContent,
		Editable:   b.env.Editable,
		Extensions: b.Extensions(),
	}
}

// Window returns the bridge's window event target.
func (b *Bridge) Window() *EventTarget {
	return b.window
}

// Document returns the bridge's document event target.
func (b *Bridge) Document() *EventTarget {
	return b.document
}

// Outbound returns the channel to the host.
func (b *Bridge) Outbound() *Outbound {
	return b.outbound
}

// Listener returns the inbound listener.
func (b *Bridge) Listener() *Listener {
	return b.listener
}

// Editor returns the mounted editor, or nil.
func (b *Bridge) Editor() Editor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.editor
}

// Send delivers a message to the host.
func (b *Bridge) Send(m Message) {
	b.outbound.Send(m)
}

// Mount binds the editor and subscribes to host messages. When dynamic height
// is enabled and a layout region was supplied, it also starts reporting the
// document height.
func (b *Bridge) Mount(ed Editor) {
	b.mu.Lock()
	b.editor = ed
	b.mu.Unlock()

	b.listener.Subscribe()

	if b.env.DynamicHeight && b.layout != nil {
		b.height.Connect(b.layout, b.outbound)
	}
}

// Unmount detaches from every inbound source, stops height reporting and
// drops a pending state update.
func (b *Bridge) Unmount() {
	b.listener.Unsubscribe()
	b.height.Disconnect()
	b.emitter.CancelPending()

	b.mu.Lock()
	b.editor = nil
	b.mu.Unlock()
}

// OnCreate is called by the engine binding once the editor exists.
func (b *Bridge) OnCreate(ed Editor) {
	b.setEditor(ed)
	b.emitter.Notify(TypeEditorReady)
	b.emitter.Trigger(ed)
}

// OnUpdate is called after the document content changed.
func (b *Bridge) OnUpdate(ed Editor) {
	b.emitter.Trigger(ed)
	b.emitter.Notify(TypeContentUpdate)
}

// OnSelectionUpdate is called after the selection changed.
func (b *Bridge) OnSelectionUpdate(ed Editor) {
	b.emitter.Trigger(ed)
}

// OnTransaction is called after any transaction was applied.
func (b *Bridge) OnTransaction(ed Editor) {
	b.emitter.Trigger(ed)
}

// FlushState sends a pending state update immediately.
//
// It must not be called from a handler's OnMessage: handler callbacks run
// under the same lock, so the call would deadlock. Reactions call
// OnTransaction instead, which schedules the update.
func (b *Bridge) FlushState() {
	b.emitter.Flush()
}

// State computes the current consolidated state without sending it.
// Like FlushState it must not be called from a handler's OnMessage; use
// Registry().State there.
func (b *Bridge) State() BridgeState {
	return b.computeState(b.Editor())
}

func (b *Bridge) setEditor(ed Editor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.editor == nil {
		b.editor = ed
	}
}

func (b *Bridge) computeState(ed Editor) BridgeState {
	b.run.Lock()
	defer b.run.Unlock()
	return b.registry.State(ed)
}

func (b *Bridge) dispatch(action json.RawMessage) {
	ed := b.Editor()
	if ed == nil {
		b.logger.Debug("webbridge: dropping action, no editor mounted")
		return
	}

	b.run.Lock()
	defer b.run.Unlock()
	b.registry.Dispatch(ed, action, b.outbound)
}
