package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pthm/webbridge"
)

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name  string
		codec string
	}{
		{"json", "json"},
		{"msgpack", "msgpack"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var enc bytes.Buffer
			err := runEncode(&enc, []string{"--codec", tt.codec, "--id", "9", "action", `{"type":"toggle-bold"}`})
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}

			var dec bytes.Buffer
			if err := runDecode(&dec, []string{"--codec", tt.codec, strings.TrimSpace(enc.String())}); err != nil {
				t.Fatalf("decode failed: %v", err)
			}

			var m webbridge.Message
			if err := json.Unmarshal(dec.Bytes(), &m); err != nil {
				t.Fatalf("decode output is not JSON: %v", err)
			}
			if m.Type != webbridge.TypeAction || m.ID != "9" {
				t.Errorf("message = %+v", m)
			}
			var action map[string]string
			if err := m.DecodePayload(&action); err != nil {
				t.Fatalf("DecodePayload failed: %v", err)
			}
			if action["type"] != "toggle-bold" {
				t.Errorf("payload = %s", m.Payload)
			}
		})
	}
}

func TestEncode_ActionGetsID(t *testing.T) {
	var out bytes.Buffer
	if err := runEncode(&out, []string{"action"}); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	m, err := webbridge.DefaultEncoder().Decode(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if m.ID == "" {
		t.Error("expected a generated id")
	}
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no type", nil},
		{"bad payload", []string{"action", "{nope"}},
		{"bad codec", []string{"--codec", "xml", "action"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := runEncode(&bytes.Buffer{}, tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	err := runDecode(&bytes.Buffer{}, []string{`{"id":"1"}`})
	if !webbridge.IsMalformedMessage(err) {
		t.Errorf("err = %v, want malformed message", err)
	}
}

func TestEnv(t *testing.T) {
	t.Setenv("WEBBRIDGE_INITIAL_CONTENT", "<p>x</p>")
	t.Setenv("WEBBRIDGE_PLATFORM", "ios")

	var out bytes.Buffer
	if err := runEnv(&out); err != nil {
		t.Fatalf("env failed: %v", err)
	}
	for _, want := range []string{
		"WEBBRIDGE_INITIAL_CONTENT=<p>x</p>\n",
		"WEBBRIDGE_EDITABLE=true\n",
		"WEBBRIDGE_PLATFORM=ios\n",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestLiveEditor_FiresOnChange(t *testing.T) {
	changes := 0
	ed := &liveEditor{TestEditor: webbridge.NewTestEditor(""), onChange: func() { changes++ }}

	ed.Command("setContent", "<p>a</p>")
	ed.Command("unknown")

	if changes != 1 {
		t.Errorf("changes = %d, want 1", changes)
	}
}
