package claude

import (
	"encoding/json"
	"fmt"
	"os"
)

// ValidationResult collects all shape violations found in the config file so
// a caller can report a complete diagnostic instead of the first failure.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Validate checks shape invariants of the config file: every server entry
// needs a string command, an array of string args, and an optional object
// env. A missing file validates as an empty document.
func (s *Store) Validate() (*ValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.resolvePath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ValidationResult{Valid: true}, nil
		}
		return nil, &IOError{Path: path, Err: err}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &IOError{Path: path, Err: err}
	}

	result := &ValidationResult{Valid: true}
	fail := func(format string, a ...interface{}) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, a...))
	}

	serversRaw, ok := raw["mcpServers"]
	if !ok {
		return result, nil
	}

	var servers map[string]json.RawMessage
	if err := json.Unmarshal(serversRaw, &servers); err != nil {
		fail("mcpServers is not an object")
		return result, nil
	}

	for name, entryRaw := range servers {
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(entryRaw, &entry); err != nil {
			fail("server %q: entry is not an object", name)
			continue
		}

		var errs []string

		cmdRaw, ok := entry["command"]
		if !ok {
			errs = append(errs, "missing command")
		} else {
			var cmd string
			if err := json.Unmarshal(cmdRaw, &cmd); err != nil {
				errs = append(errs, "command is not a string")
			}
		}

		if argsRaw, ok := entry["args"]; ok {
			var args []string
			if err := json.Unmarshal(argsRaw, &args); err != nil {
				errs = append(errs, "args is not an array of strings")
			}
		}

		if envRaw, ok := entry["env"]; ok {
			var env map[string]string
			if err := json.Unmarshal(envRaw, &env); err != nil {
				errs = append(errs, "env is not an object of strings")
			}
		}

		for _, e := range errs {
			fail("server %q: %s", name, e)
		}
	}

	return result, nil
}
