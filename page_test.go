package webbridge

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func renderPage(t *testing.T, e Env, opts ...PageOptions) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Page(e, opts...).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return buf.String()
}

func TestPage_Globals(t *testing.T) {
	e := DefaultEnv()
	e.InitialContent = `<p>hi</p><script>alert(1)</script>`
	e.ExtensionConfigMap = `{"bold":{}}`
	e.AllowedHandlers = []string{"core", "bold"}
	e.Platform = PlatformIOS

	html := renderPage(t, e)

	for _, want := range []string{
		`window.editable = true;`,
		`window.bridgeExtensionConfigMap = "{\"bold\":{}}";`,
		`window.whiteListBridgeExtensions = ["core","bold"];`,
		`window.dynamicHeight = false;`,
		`window.disableColorHighlight = false;`,
		`window.platform = "ios";`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}

	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("initial content was not escaped")
	}
	if strings.Count(html, "</script>") != 1 {
		t.Errorf("expected exactly one script element to close, got %d", strings.Count(html, "</script>"))
	}
}

func TestPage_Layout(t *testing.T) {
	tests := []struct {
		name        string
		env         Env
		contains    []string
		notContains []string
	}{
		{
			name:        "static height",
			env:         DefaultEnv(),
			contains:    []string{`<div id="root"></div>`, "#ACCEF7"},
			notContains: []string{"dynamic-height"},
		},
		{
			name:     "dynamic height",
			env:      Env{Editable: true, DynamicHeight: true, Platform: PlatformWeb},
			contains: []string{`<div class="dynamic-height"><div id="root"></div></div>`},
		},
		{
			name:        "highlight disabled",
			env:         Env{DisableColorHighlight: true, Platform: PlatformWeb},
			notContains: []string{"#ACCEF7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := renderPage(t, tt.env)
			for _, s := range tt.contains {
				if !strings.Contains(html, s) {
					t.Errorf("page missing %q", s)
				}
			}
			for _, s := range tt.notContains {
				if strings.Contains(html, s) {
					t.Errorf("page should not contain %q", s)
				}
			}
		})
	}
}

func TestPage_Options(t *testing.T) {
	html := renderPage(t, DefaultEnv(), PageOptions{
		Title:   "Notes & Drafts",
		Scripts: []string{"/static/editor.js"},
		CSS:     ".ProseMirror { padding: 8px; }",
	})

	for _, want := range []string{
		"<title>Notes &amp; Drafts</title>",
		`<script src="/static/editor.js"></script>`,
		".ProseMirror { padding: 8px; }",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}
