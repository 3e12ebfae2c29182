package bridge

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/toolbridge/toolbridge/internal/claude"
)

// fakeRuntime execs a no-op binary so runtime probes succeed without docker.
func fakeRuntime() *Runtime {
	return &Runtime{bin: "true", timeout: 5 * time.Second}
}

func newTestInstaller(t *testing.T) (*Installer, *Registry, *ToolRegistry, *fakeDialer, *claude.Store) {
	t.Helper()

	front := newFakeFront()
	dialer := newFakeDialer()
	runtime := fakeRuntime()
	registry := NewRegistry(dialer.dial, runtime)
	tools := NewToolRegistry(front, registry)
	store := claude.NewStoreAt(filepath.Join(t.TempDir(), "claude_desktop_config.json"))
	installer := NewInstaller(registry, tools, store, runtime)
	return installer, registry, tools, dialer, store
}

func TestInstallValidation(t *testing.T) {
	installer, _, _, _, _ := newTestInstaller(t)

	tests := []struct {
		name string
		opts InstallOptions
	}{
		{"missing name", InstallOptions{Package: "p", Origin: OriginNpm, Mode: ModeBridge}},
		{"missing package and endpoint", InstallOptions{Name: "x", Mode: ModeBridge}},
		{"bad origin", InstallOptions{Name: "x", Package: "p", Origin: "pip", Mode: ModeBridge}},
		{"bad mode", InstallOptions{Name: "x", Package: "p", Origin: OriginNpm, Mode: "detached"}},
		{"endpoint in direct mode", InstallOptions{Name: "x", Endpoint: "http://localhost:9", Mode: ModeDirect}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := installer.Install(context.Background(), &tc.opts); err == nil {
				t.Errorf("expected validation error for %+v", tc.opts)
			}
		})
	}
}

func TestInstallBridgeDuplicate(t *testing.T) {
	installer, _, _, dialer, _ := newTestInstaller(t)
	dialer.setTools("x", "t")

	opts := &InstallOptions{
		Name:    "x",
		Package: "some-package",
		Origin:  OriginNpm,
		Mode:    ModeBridge,
	}
	if _, err := installer.Install(context.Background(), opts); err != nil {
		t.Fatalf("install: %v", err)
	}

	_, err := installer.Install(context.Background(), opts)
	var dup *DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateNameError, got %v", err)
	}
}

func TestInstallBridgeAutoStart(t *testing.T) {
	installer, registry, _, dialer, _ := newTestInstaller(t)
	dialer.setTools("x", "alpha", "beta")

	result, err := installer.Install(context.Background(), &InstallOptions{
		Name:      "x",
		Package:   "some-package",
		Origin:    OriginNpm,
		Mode:      ModeBridge,
		AutoStart: true,
	})
	if err != nil {
		t.Fatalf("install: %v", err)
	}

	if !result.Started {
		t.Error("result.Started = false; want true")
	}
	if len(result.Tools) != 2 {
		t.Errorf("tools = %v; want 2 namespaced names", result.Tools)
	}
	for _, name := range result.Tools {
		if !strings.HasPrefix(name, "x_") {
			t.Errorf("tool %q not namespaced", name)
		}
	}
	if result.Command != "docker" {
		t.Errorf("command = %q; want docker", result.Command)
	}

	h, err := registry.Health("x")
	if err != nil {
		t.Fatal(err)
	}
	if h.Status != StatusRunning {
		t.Errorf("status = %s; want running", h.Status)
	}
}

func TestInstallBridgeStartFailureStaysVisible(t *testing.T) {
	installer, registry, _, dialer, _ := newTestInstaller(t)
	dialer.failures["x"] = errors.New("pull failed")

	_, err := installer.Install(context.Background(), &InstallOptions{
		Name:      "x",
		Package:   "some-package",
		Origin:    OriginNpm,
		Mode:      ModeBridge,
		AutoStart: true,
	})
	var launch *LaunchError
	if !errors.As(err, &launch) {
		t.Fatalf("expected LaunchError, got %v", err)
	}

	// not rolled back: the failed entry aids debugging
	h, err := registry.Health("x")
	if err != nil {
		t.Fatal(err)
	}
	if h.Status != StatusError {
		t.Errorf("status = %s; want error", h.Status)
	}
}

func TestInstallDirect(t *testing.T) {
	installer, _, _, _, store := newTestInstaller(t)

	result, err := installer.Install(context.Background(), &InstallOptions{
		Name:    "web",
		Package: "some-package",
		Origin:  OriginNpm,
		Mode:    ModeDirect,
		Env:     map[string]string{"API_KEY": "secret"},
	})
	if err != nil {
		t.Fatalf("install: %v", err)
	}

	if result.Note == "" {
		t.Error("direct install must tell the caller what to do next")
	}

	cfg, err := store.Get("web")
	if err != nil {
		t.Fatalf("config entry missing: %v", err)
	}
	if cfg.Command != "docker" {
		t.Errorf("command = %q; want docker", cfg.Command)
	}

	joined := " " + strings.Join(cfg.Args, " ") + " "
	// unsupervised containers are always hardened
	for _, tok := range []string{"--read-only", "--pids-limit", "-e API_KEY=secret"} {
		if !strings.Contains(joined, " "+tok+" ") {
			t.Errorf("args %v missing %q", cfg.Args, tok)
		}
	}

	// second install of the same name is rejected
	_, err = installer.Install(context.Background(), &InstallOptions{
		Name:    "web",
		Package: "other",
		Origin:  OriginNpm,
		Mode:    ModeDirect,
	})
	var dup *DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateNameError, got %v", err)
	}
}

func TestInstallEnvMerge(t *testing.T) {
	installer, _, _, _, store := newTestInstaller(t)

	_, err := installer.Install(context.Background(), &InstallOptions{
		Name:    "x",
		Package: "some-package",
		Origin:  OriginNpm,
		Mode:    ModeDirect,
		Env:     map[string]string{"NODE_NO_WARNINGS": "0"},
	})
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := store.Get("x")
	if err != nil {
		t.Fatal(err)
	}

	// install-time env wins over computed defaults; defaults fill the rest
	if cfg.Env["NODE_NO_WARNINGS"] != "0" {
		t.Errorf("NODE_NO_WARNINGS = %q; want install-time override", cfg.Env["NODE_NO_WARNINGS"])
	}
	if cfg.Env["NPM_CONFIG_UPDATE_NOTIFIER"] != "false" {
		t.Errorf("computed default missing: %v", cfg.Env)
	}
}

func TestInstallEndpointServer(t *testing.T) {
	installer, registry, _, dialer, _ := newTestInstaller(t)
	dialer.setTools("remote", "t")

	result, err := installer.Install(context.Background(), &InstallOptions{
		Name:      "remote",
		Endpoint:  "http://localhost:7777/mcp",
		Mode:      ModeBridge,
		AutoStart: true,
	})
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if result.Command != "" {
		t.Errorf("endpoint server should have no launch command, got %q", result.Command)
	}

	h, err := registry.Health("remote")
	if err != nil {
		t.Fatal(err)
	}
	if h.Status != StatusRunning {
		t.Errorf("status = %s; want running", h.Status)
	}
}
