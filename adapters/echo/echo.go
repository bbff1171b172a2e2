// Package webbridgeecho serves a bridge's editor page and host endpoints on
// the Echo framework, for developing editors in a desktop browser.
//
// Mount onto an Echo instance:
//
//	e := echo.New()
//	b, _ := webbridge.New(reg, env)
//	host := webbridgeecho.Mount(e, b)
//
// Or onto a group sharing middleware:
//
//	g := e.Group("/editor", authMiddleware)
//	host := webbridgeecho.MountGroup(g, b)
//
// Routes, relative to the mount path (default "/"):
//
//	GET  {path}          the editor page
//	POST {path}message   deliver one encoded host message
//	GET  {path}ws        websocket carrying messages both ways
package webbridgeecho

import (
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/pthm/webbridge"
	webbridgews "github.com/pthm/webbridge/adapters/websocket"
)

// MaxMessageBytes bounds the body of a POSTed message.
const MaxMessageBytes = 1 << 20

// Option configures the Mount and MountGroup functions.
type Option func(*options)

type options struct {
	path   string
	page   webbridge.PageOptions
	logger webbridge.Logger
}

// WithPath sets the URL path prefix for the routes.
// Defaults to "/". The path should end with a slash.
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithPage customizes the rendered editor page.
func WithPage(page webbridge.PageOptions) Option {
	return func(o *options) {
		o.page = page
	}
}

// WithLogger sets the logger for the websocket hub.
func WithLogger(l webbridge.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Host is a mounted bridge.
type Host struct {
	Bridge *webbridge.Bridge
	Hub    *webbridgews.Hub
	path   string
	page   webbridge.PageOptions
}

// Path returns the mount path.
func (h *Host) Path() string {
	return h.path
}

// Mount registers the bridge routes on an Echo instance and makes the
// websocket hub the bridge's outbound transport.
func Mount(e *echo.Echo, b *webbridge.Bridge, opts ...Option) *Host {
	h := newHost(b, opts)
	e.GET(h.path, h.handlePage)
	e.POST(h.path+"message", h.handleMessage)
	e.GET(h.path+"ws", echo.WrapHandler(h.Hub.Handler()))
	return h
}

// MountGroup registers the bridge routes on an Echo group, so they share the
// group's middleware.
func MountGroup(g *echo.Group, b *webbridge.Bridge, opts ...Option) *Host {
	h := newHost(b, opts)
	g.GET(h.path, h.handlePage)
	g.POST(h.path+"message", h.handleMessage)
	g.GET(h.path+"ws", echo.WrapHandler(h.Hub.Handler()))
	return h
}

func newHost(b *webbridge.Bridge, opts []Option) *Host {
	o := &options{path: "/"}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = webbridge.NopLogger()
	}

	hub := webbridgews.NewHub(b.Window(), webbridgews.WithLogger(o.logger))
	b.Outbound().SetTransport(hub)

	return &Host{
		Bridge: b,
		Hub:    hub,
		path:   o.path,
		page:   o.page,
	}
}

func (h *Host) handlePage(c echo.Context) error {
	return Render(c, webbridge.Page(h.Bridge.Env(), h.page))
}

func (h *Host) handleMessage(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, MaxMessageBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	if len(body) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "empty message")
	}
	if len(body) > MaxMessageBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "message too large")
	}

	_ = h.Bridge.Window().PostMessage(string(body))
	return c.NoContent(http.StatusAccepted)
}

// Render writes a templ component to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return webbridgeecho.Render(c, webbridge.Page(env))
//	}
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Request().Context(), c.Response())
}
