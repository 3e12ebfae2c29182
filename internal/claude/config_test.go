package claude

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStoreAt(filepath.Join(t.TempDir(), "claude_desktop_config.json"))
}

func TestReadMissingFile(t *testing.T) {
	store := tempStore(t)

	doc, err := store.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(doc.Servers) != 0 {
		t.Errorf("expected empty document, got %d servers", len(doc.Servers))
	}
}

func TestReadMalformed(t *testing.T) {
	store := tempStore(t)
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := store.Read()
	if err == nil {
		t.Fatal("expected error for malformed document")
	}
	if _, ok := err.(*IOError); !ok {
		t.Errorf("expected *IOError, got %T", err)
	}
}

func TestAddGetRoundTrip(t *testing.T) {
	store := tempStore(t)

	if err := store.Add("x", "cmd", []string{"--flag"}, map[string]string{"K": "V"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	cfg, err := store.Get("x")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cfg.Command != "cmd" {
		t.Errorf("command = %q; want %q", cfg.Command, "cmd")
	}
	if !reflect.DeepEqual(cfg.Args, []string{"--flag"}) {
		t.Errorf("args = %v; want %v", cfg.Args, []string{"--flag"})
	}
	if !reflect.DeepEqual(cfg.Env, map[string]string{"K": "V"}) {
		t.Errorf("env = %v; want %v", cfg.Env, map[string]string{"K": "V"})
	}

	// duplicate add fails
	if err := store.Add("x", "other", nil, nil); err == nil {
		t.Error("expected error adding duplicate name")
	}
}

func TestRemove(t *testing.T) {
	store := tempStore(t)

	removed, err := store.Remove("missing")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed {
		t.Error("removed should be false for missing entry")
	}

	if err := store.Add("x", "cmd", nil, nil); err != nil {
		t.Fatal(err)
	}
	removed, err = store.Remove("x")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !removed {
		t.Error("removed should be true")
	}

	if _, err := store.Get("x"); err == nil {
		t.Error("expected error getting removed entry")
	}
}

func TestUnknownKeysPreserved(t *testing.T) {
	store := tempStore(t)

	orig := `{
  "theme": "dark",
  "mcpServers": {
    "existing": {"command": "node", "args": ["server.js"]}
  },
  "window": {"width": 800}
}`
	if err := os.WriteFile(store.Path(), []byte(orig), 0644); err != nil {
		t.Fatal(err)
	}

	if err := store.Add("new", "docker", []string{"run"}, nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("rewritten document is not valid JSON: %v", err)
	}
	for _, key := range []string{"theme", "window", "mcpServers"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("key %q lost on rewrite", key)
		}
	}

	servers, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(servers) != 2 {
		t.Errorf("expected 2 servers, got %d", len(servers))
	}
	if servers["existing"].Command != "node" {
		t.Errorf("existing entry clobbered: %+v", servers["existing"])
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantValid bool
		wantErrs  int
		wantRef   string
	}{
		{
			name:      "valid document",
			content:   `{"mcpServers": {"a": {"command": "x", "args": ["-y"], "env": {"K": "V"}}}}`,
			wantValid: true,
		},
		{
			name:      "no servers key",
			content:   `{"theme": "dark"}`,
			wantValid: true,
		},
		{
			name:      "missing command",
			content:   `{"mcpServers": {"broken": {"args": []}}}`,
			wantValid: false,
			wantErrs:  1,
			wantRef:   "broken",
		},
		{
			name:      "wrong types",
			content:   `{"mcpServers": {"b": {"command": 1, "args": "no", "env": []}}}`,
			wantValid: false,
			wantErrs:  3,
			wantRef:   "b",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := tempStore(t)
			if err := os.WriteFile(store.Path(), []byte(tc.content), 0644); err != nil {
				t.Fatal(err)
			}

			result, err := store.Validate()
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if result.Valid != tc.wantValid {
				t.Errorf("valid = %v; want %v (errors: %v)", result.Valid, tc.wantValid, result.Errors)
			}
			if tc.wantErrs > 0 && len(result.Errors) != tc.wantErrs {
				t.Errorf("errors = %v; want %d", result.Errors, tc.wantErrs)
			}
			if tc.wantRef != "" {
				for _, e := range result.Errors {
					if !strings.Contains(e, tc.wantRef) {
						t.Errorf("error %q does not reference server %q", e, tc.wantRef)
					}
				}
			}
		})
	}
}
