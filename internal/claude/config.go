// Package claude reads and writes the external desktop client's persisted
// server list. The document's schema is owned by the client and may contain
// unrelated keys; every mutation is a full read-modify-write so those keys
// survive.
package claude

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/toolbridge/toolbridge/internal/log"
)

const configFileName = "claude_desktop_config.json"

// ServerConfig is one server entry in the external client's config.
type ServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

// Document is the external config file. Unknown top-level keys round-trip
// untouched through extra.
type Document struct {
	Servers map[string]ServerConfig

	extra map[string]json.RawMessage
}

func NewDocument() *Document {
	return &Document{
		Servers: make(map[string]ServerConfig),
	}
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.Servers = make(map[string]ServerConfig)
	if v, ok := raw["mcpServers"]; ok {
		if err := json.Unmarshal(v, &d.Servers); err != nil {
			return err
		}
		delete(raw, "mcpServers")
	}
	d.extra = raw
	return nil
}

func (d *Document) MarshalJSON() ([]byte, error) {
	raw := make(map[string]json.RawMessage, len(d.extra)+1)
	for k, v := range d.extra {
		raw[k] = v
	}

	servers := d.Servers
	if servers == nil {
		servers = map[string]ServerConfig{}
	}
	v, err := json.Marshal(servers)
	if err != nil {
		return nil, err
	}
	raw["mcpServers"] = v
	return json.Marshal(raw)
}

// IOError wraps a failure to read or write the external config file.
type IOError struct {
	Path string
	Err  error
}

func (r *IOError) Error() string {
	return fmt.Sprintf("config file %s: %v", r.Path, r.Err)
}

func (r *IOError) Unwrap() error {
	return r.Err
}

// Store provides read-modify-write access to the external config file.
type Store struct {
	mu sync.Mutex

	// explicit path, or "" to probe
	path string

	probed string
}

func NewStore() *Store {
	return &Store{}
}

// NewStoreAt uses a fixed path instead of probing; for tests and overrides.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// candidatePaths returns the conventional config locations for the current
// platform, most specific first.
func candidatePaths() []string {
	home, _ := os.UserHomeDir()

	switch runtime.GOOS {
	case "darwin":
		return []string{
			filepath.Join(home, "Library", "Application Support", "Claude", configFileName),
		}
	case "windows":
		return []string{
			filepath.Join(os.Getenv("APPDATA"), "Claude", configFileName),
		}
	default:
		return []string{
			filepath.Join(home, ".config", "Claude", configFileName),
			filepath.Join(home, ".config", "claude", configFileName),
		}
	}
}

// Path resolves the config file location: the first candidate that exists,
// falling back to the platform default. Pure discovery; safe to repeat.
func (s *Store) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolvePath()
}

func (s *Store) resolvePath() string {
	if s.path != "" {
		return s.path
	}
	if s.probed != "" {
		return s.probed
	}

	candidates := candidatePaths()
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			log.Debugf("found config file: %s\n", p)
			s.probed = p
			return p
		}
	}
	s.probed = candidates[0]
	return s.probed
}

// Invalidate drops the cached path so the next access re-probes; called when
// the file changes on disk.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probed = ""
}

// Read loads the full document. A missing file is not an error and yields an
// empty default document.
func (s *Store) Read() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) read() (*Document, error) {
	path := s.resolvePath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDocument(), nil
		}
		return nil, &IOError{Path: path, Err: err}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return &doc, nil
}

// Write overwrites the full document.
func (s *Store) Write(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(doc)
}

func (s *Store) write(doc *Document) error {
	path := s.resolvePath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &IOError{Path: path, Err: err}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &IOError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &IOError{Path: path, Err: err}
	}
	return nil
}

// Add inserts a server entry via a full read-modify-write cycle. Fails if
// the name is already present.
func (s *Store) Add(name, command string, args []string, env map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Servers[name]; ok {
		return fmt.Errorf("server %q already configured", name)
	}
	doc.Servers[name] = ServerConfig{
		Command: command,
		Args:    args,
		Env:     env,
	}
	return s.write(doc)
}

// Remove deletes a server entry. Reports whether an entry was removed.
func (s *Store) Remove(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return false, err
	}
	if _, ok := doc.Servers[name]; !ok {
		return false, nil
	}
	delete(doc.Servers, name)
	if err := s.write(doc); err != nil {
		return false, err
	}
	return true, nil
}

// Get returns one server entry.
func (s *Store) Get(name string) (*ServerConfig, error) {
	doc, err := s.Read()
	if err != nil {
		return nil, err
	}
	cfg, ok := doc.Servers[name]
	if !ok {
		return nil, fmt.Errorf("server %q not configured", name)
	}
	return &cfg, nil
}

// List returns all configured server entries.
func (s *Store) List() (map[string]ServerConfig, error) {
	doc, err := s.Read()
	if err != nil {
		return nil, err
	}
	return doc.Servers, nil
}
