package output

import (
	"bytes"
	"strings"
	"testing"
)

type account struct {
	ID        int64   `json:"id"`
	LogonName string  `json:"logon_name"`
	Hash      string  `json:"password_hash,omitempty" table:"-"`
	RoleIDs   []int64 `json:"role_ids" table:"wide"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v, want %q (err %v)", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON, false).(*JSONFormatter); !ok {
		t.Error("json: expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML, false).(*YAMLFormatter); !ok {
		t.Error("yaml: expected YAMLFormatter")
	}
	tf, ok := NewFormatter(FormatTable, true).(*TableFormatter)
	if !ok || !tf.Wide {
		t.Errorf("table = %#v, want wide TableFormatter", tf)
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, account{ID: 1, LogonName: "admin"}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	want := "{\n  \"id\": 1,\n  \"logon_name\": \"admin\",\n  \"role_ids\": null\n}\n"
	if buf.String() != want {
		t.Fatalf("Format() = %q, want %q", buf.String(), want)
	}
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	data := []account{{ID: 1, LogonName: "admin", RoleIDs: []int64{1, 2}}}
	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"- id: 1", "logon_name: admin", "role_ids:", "- 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() = %q, missing %q", out, want)
		}
	}
}
