// Package webbridge connects a rich-text editor running inside an embedded
// web view to its native host.
//
// The host and the document exchange small typed messages (Message) over a
// string transport. The document side runs a Bridge per editor instance:
//
//   - inbound, a Listener subscribes to the host's message sources, decodes
//     each event, drops immediate redeliveries and dispatches actions to the
//     registered handlers
//   - outbound, an Outbound channel posts editor-ready, content-update,
//     state-update and document-height messages to the host
//
// # Handlers
//
// Editor capabilities plug in as Handlers collected in a Registry. A handler
// has a name and optionally implements StateContributor, ActionHandler and
// ExtensionProvider:
//
//	reg := webbridge.NewRegistry(
//	    bridges.Core(),
//	    bridges.Mark("bold"),
//	    bridges.Mark("italic"),
//	)
//
// Registration order is significant. State contributions merge in order with
// later handlers winning on key collisions, and actions reach handlers in
// order. Names must be unique; Add panics otherwise.
//
// # Environment
//
// The host configures the document before the editor exists: initial content,
// editability, per-handler extension configuration, an optional handler
// allow-list, dynamic height and the selection highlight. Env carries these
// values; LoadEnv reads them from WEBBRIDGE_* variables and Page renders them
// as window globals for the script side.
//
//	env, err := webbridge.LoadEnv()
//	b, err := webbridge.New(reg, env, webbridge.WithTransport(t))
//
// Configuration entries that match no handler, or handlers that cannot use
// them, are reported through Warnings and logged; they never fail New.
//
// # State updates
//
// Editor changes trigger a consolidated state update, debounced so a burst of
// changes yields one message computed from the latest editor. Lifecycle
// notifications (editor-ready, content-update) are sent immediately.
//
// # Testing
//
// TestHarness wires a Bridge to a TestEditor, a Recorder transport and a
// manual clock, so tests drive actions and debounce windows deterministically.
package webbridge
