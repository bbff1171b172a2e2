package webbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// PageOptions customizes the document page.
type PageOptions struct {
	Title string
	// Scripts are URLs of the editor bundle, loaded after the globals are set.
	Scripts []string
	// CSS is appended to the page's base stylesheet.
	CSS string
}

// Page renders the document that hosts the editor inside the web view.
//
// The environment is exposed to the editor bundle as window globals
// (initialContent, editable, bridgeExtensionConfigMap, ...) so the script
// side can build its Env the same way LoadEnv does. With DynamicHeight the
// root element is wrapped in a .dynamic-height region for measurement.
func Page(e Env, opts ...PageOptions) templ.Component {
	var o PageOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Title == "" {
		o.Title = "Editor"
	}

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		globals, err := pageGlobals(e)
		if err != nil {
			return err
		}

		var b strings.Builder
		b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
		b.WriteString(`<meta charset="utf-8">` + "\n")
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1, maximum-scale=1, user-scalable=no">` + "\n")
		fmt.Fprintf(&b, "<title>%s</title>\n", templ.EscapeString(o.Title))
		b.WriteString("<style>\n")
		b.WriteString(pageCSS(e))
		if o.CSS != "" {
			b.WriteString(o.CSS)
			b.WriteString("\n")
		}
		b.WriteString("</style>\n")
		b.WriteString("<script>\n")
		b.WriteString(globals)
		b.WriteString("</script>\n")
		b.WriteString("</head>\n<body>\n")

		if e.DynamicHeight {
			b.WriteString(`<div class="dynamic-height"><div id="root"></div></div>` + "\n")
		} else {
			b.WriteString(`<div id="root"></div>` + "\n")
		}
		for _, src := range o.Scripts {
			fmt.Fprintf(&b, `<script src="%s"></script>`+"\n", templ.EscapeString(src))
		}
		b.WriteString("</body>\n</html>\n")

		_, err = io.WriteString(w, b.String())
		return err
	})
}

// pageGlobals renders one assignment per global. encoding/json escapes <, >
// and & so the values cannot close the script element.
func pageGlobals(e Env) (string, error) {
	extMap := strings.TrimSpace(e.ExtensionConfigMap)
	if extMap == "" {
		extMap = "{}"
	}

	allowed := e.AllowedHandlers
	if allowed == nil {
		allowed = []string{}
	}

	vars := []struct {
		name  string
		value any
	}{
		{"initialContent", e.InitialContent},
		{"editable", e.Editable},
		{"bridgeExtensionConfigMap", extMap},
		{"whiteListBridgeExtensions", allowed},
		{"dynamicHeight", e.DynamicHeight},
		{"disableColorHighlight", e.DisableColorHighlight},
		{"platform", string(e.Platform)},
	}

	var b strings.Builder
	for _, v := range vars {
		data, err := json.Marshal(v.value)
		if err != nil {
			return "", fmt.Errorf("webbridge: page global %s: %w", v.name, err)
		}
		fmt.Fprintf(&b, "window.%s = %s;\n", v.name, data)
	}
	return b.String(), nil
}

func pageCSS(e Env) string {
	var b strings.Builder
	b.WriteString("html, body { margin: 0; padding: 0; }\n")
	b.WriteString("#root { min-height: 100%; }\n")
	if e.DynamicHeight {
		b.WriteString(".dynamic-height { overflow: hidden; }\n")
	}
	if !e.DisableColorHighlight {
		fmt.Fprintf(&b, ".%s { background-color: %s; }\n", HighlightClass, HighlightColor)
	}
	return b.String()
}
