package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/timerelay-go/internal/cli/connection"
)

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML).(*YAMLFormatter); !ok {
		t.Error("expected YAMLFormatter")
	}
	if _, ok := NewFormatter(FormatText).(*TextFormatter); !ok {
		t.Error("expected TextFormatter")
	}
	if _, ok := NewFormatter("unknown").(*TextFormatter); !ok {
		t.Error("unknown format should default to text")
	}
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{"text", "json", "yaml"} {
		if !ValidFormat(f) {
			t.Errorf("ValidFormat(%q) = false", f)
		}
	}
	if ValidFormat("table") {
		t.Error(`ValidFormat("table") = true`)
	}
}

func TestTextFormatter_Format(t *testing.T) {
	tests := []struct {
		name  string
		reply *connection.Reply
		want  string
	}{
		{"status", &connection.Reply{Type: connection.ReplyStatus, Str: "OK"}, "OK\n"},
		{"error", &connection.Reply{Type: connection.ReplyError, Str: "ERR boom"}, "(error) ERR boom\n"},
		{"integer", &connection.Reply{Type: connection.ReplyInteger, Int: 7}, "(integer) 7\n"},
		{"bulk", &connection.Reply{Type: connection.ReplyBulk, Str: "a\r\nb"}, "\"a\\r\\nb\"\n"},
		{"nil", &connection.Reply{Type: connection.ReplyNil}, "(nil)\n"},
		{"empty array", &connection.Reply{Type: connection.ReplyArray}, "(empty array)\n"},
		{"array", &connection.Reply{Type: connection.ReplyArray, Elems: []*connection.Reply{
			{Type: connection.ReplyBulk, Str: "x"},
			{Type: connection.ReplyNil},
		}}, "1) \"x\"\n2) (nil)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&TextFormatter{}).Format(&buf, tt.reply); err != nil {
				t.Fatal(err)
			}
			if buf.String() != tt.want {
				t.Errorf("Format() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	err := (&JSONFormatter{}).Format(&buf, &connection.Reply{Type: connection.ReplyStatus, Str: "OK timeEventId:4"})
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if got["type"] != "status" || got["value"] != "OK timeEventId:4" {
		t.Errorf("decoded = %v", got)
	}
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	err := (&YAMLFormatter{}).Format(&buf, &connection.Reply{Type: connection.ReplyInteger, Int: 3})
	if err != nil {
		t.Fatal(err)
	}

	var got struct {
		Type  string `yaml:"type"`
		Value int    `yaml:"value"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML %q: %v", buf.String(), err)
	}
	if got.Type != "integer" || got.Value != 3 {
		t.Errorf("decoded = %+v", got)
	}
	if !strings.HasPrefix(buf.String(), "type: integer") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestView_Nil(t *testing.T) {
	v := View(&connection.Reply{Type: connection.ReplyNil})
	if v.Type != "nil" || v.Value != nil {
		t.Errorf("View() = %+v", v)
	}
}
