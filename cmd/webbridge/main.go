package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pthm/webbridge"
	webbridgeecho "github.com/pthm/webbridge/adapters/echo"
	"github.com/pthm/webbridge/bridges"
	"github.com/pthm/webbridge/lib/encoding"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "encode":
		err = runEncode(os.Stdout, args)
	case "decode":
		err = runDecode(os.Stdout, args)
	case "serve":
		err = runServe(args)
	case "env":
		err = runEnv(os.Stdout)
	case "version":
		fmt.Printf("webbridge version %s\n", version)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `webbridge - editor web view message bridge

Usage:
  webbridge <command> [arguments]

Commands:
  encode [flags] <type> [payload]   Encode a message for the transport
  decode [flags] <message>          Decode a transport message
  serve [flags]                     Run a development host with an in-memory editor
  env                               List configuration variables and their values
  version                           Print version
  help                              Show this help

Flags for encode and decode:
  --codec json|msgpack              Transport codec (default json)
  --id <id>                         Message id (encode only; actions get a fresh one)

Flags for serve:
  --addr <addr>                     Listen address (default :8080)

Examples:
  webbridge encode action '{"type":"toggle-bold"}'
  webbridge decode '{"type":"editor-ready"}'
  WEBBRIDGE_INITIAL_CONTENT='<p>hi</p>' webbridge serve --addr :3000`)
}

func codecFlag(fs *flag.FlagSet) *string {
	return fs.String("codec", "json", "transport codec")
}

func lookupEncoder(name string) (*webbridge.Encoder, error) {
	codec := encoding.Lookup(name)
	if codec == nil {
		return nil, fmt.Errorf("unknown codec %q", name)
	}
	return webbridge.NewEncoder(codec), nil
}

func runEncode(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	codec := codecFlag(fs)
	id := fs.String("id", "", "message id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return errors.New("usage: webbridge encode [flags] <type> [payload]")
	}

	enc, err := lookupEncoder(*codec)
	if err != nil {
		return err
	}

	m := webbridge.Message{Type: webbridge.MessageType(fs.Arg(0)), ID: *id}
	if fs.NArg() == 2 {
		payload := json.RawMessage(fs.Arg(1))
		if !json.Valid(payload) {
			return fmt.Errorf("payload is not valid JSON: %s", payload)
		}
		m.Payload = payload
	}
	if m.IsAction() && m.ID == "" {
		m.ID = webbridge.IDGenerator()
	}

	out, err := enc.Encode(m)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	return nil
}

func runDecode(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	codec := codecFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: webbridge decode [flags] <message>")
	}

	enc, err := lookupEncoder(*codec)
	if err != nil {
		return err
	}

	m, err := enc.Decode(fs.Arg(0))
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(out))
	return nil
}

func runEnv(w io.Writer) error {
	env, err := webbridge.LoadEnv()
	if err != nil {
		return err
	}

	values := map[string]string{
		"INITIAL_CONTENT":             env.InitialContent,
		"EDITABLE":                    fmt.Sprint(env.Editable),
		"BRIDGE_EXTENSION_CONFIG_MAP": env.ExtensionConfigMap,
		"WHITELIST_BRIDGE_EXTENSIONS": strings.Join(env.AllowedHandlers, ","),
		"DYNAMIC_HEIGHT":              fmt.Sprint(env.DynamicHeight),
		"DISABLE_COLOR_HIGHLIGHT":     fmt.Sprint(env.DisableColorHighlight),
		"PLATFORM":                    string(env.Platform),
	}
	for _, key := range webbridge.EnvKeys() {
		fmt.Fprintf(w, "%s=%s\n", key, values[strings.TrimPrefix(key, webbridge.EnvPrefix)])
	}
	return nil
}

// liveEditor is the in-memory editor of the development host. Accepted
// commands fire the update callback the way an engine transaction would.
type liveEditor struct {
	*webbridge.TestEditor
	onChange func()
}

func (e *liveEditor) Command(name string, args ...any) bool {
	ok := e.TestEditor.Command(name, args...)
	if ok && e.onChange != nil {
		e.onChange()
	}
	return ok
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	webbridge.SetDefaultLogger(logger)

	env, err := webbridge.LoadEnv()
	if err != nil {
		return err
	}

	reg := webbridge.NewRegistry(
		bridges.Core(),
		bridges.Mark("bold"),
		bridges.Mark("italic"),
		bridges.Mark("underline"),
		bridges.Mark("strike"),
	)
	b, err := webbridge.New(reg, env, webbridge.WithLogger(logger))
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	webbridgeecho.Mount(e, b, webbridgeecho.WithLogger(logger))

	ed := &liveEditor{TestEditor: webbridge.NewTestEditor(env.InitialContent)}
	ed.Command("setEditable", env.Editable)
	ed.onChange = func() { b.OnUpdate(ed) }
	b.OnCreate(ed)
	b.Mount(ed)
	defer b.Unmount()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("webbridge: serving", "addr", *addr)
		if err := e.Start(*addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
