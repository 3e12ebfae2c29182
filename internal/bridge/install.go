package bridge

import (
	"context"
	"fmt"

	"dario.cat/mergo"

	"github.com/toolbridge/toolbridge/internal/claude"
	"github.com/toolbridge/toolbridge/internal/log"
)

// InstallOptions describes one install request.
type InstallOptions struct {
	Name    string
	Package string
	Origin  Origin
	Mode    Mode

	// install-time environment, merged over computed defaults
	Env map[string]string

	// network-transport child server; bridge mode only
	Endpoint string

	AutoStart bool
}

// InstallResult describes what was installed and what the caller must do
// next.
type InstallResult struct {
	Name    string
	Mode    Mode
	Command string
	Args    []string
	Started bool
	Tools   []string
	Note    string
}

// defaults injected into every npm-origin container; install-time env wins.
var computedEnv = map[string]string{
	"NPM_CONFIG_UPDATE_NOTIFIER": "false",
	"NODE_NO_WARNINGS":           "1",
}

// Installer resolves an install request into bridge or direct mode and
// drives the registry, tool registry and config store in order.
type Installer struct {
	registry *Registry
	tools    *ToolRegistry
	store    *claude.Store
	runtime  *Runtime
}

func NewInstaller(registry *Registry, tools *ToolRegistry, store *claude.Store, runtime *Runtime) *Installer {
	return &Installer{
		registry: registry,
		tools:    tools,
		store:    store,
		runtime:  runtime,
	}
}

func (r *Installer) validate(opts *InstallOptions) error {
	if opts.Name == "" {
		return fmt.Errorf("server name is required")
	}
	if opts.Endpoint == "" && opts.Package == "" {
		return fmt.Errorf("package or endpoint is required")
	}
	if opts.Endpoint != "" && opts.Mode == ModeDirect {
		return fmt.Errorf("direct mode requires a launchable package, not an endpoint")
	}
	if opts.Package != "" {
		switch opts.Origin {
		case OriginImage, OriginNpm:
		default:
			return fmt.Errorf("invalid origin: %q", opts.Origin)
		}
	}
	switch opts.Mode {
	case ModeBridge, ModeDirect:
	default:
		return fmt.Errorf("invalid mode: %q", opts.Mode)
	}
	return nil
}

// Install performs the install. Any step failure aborts the remaining steps;
// a registry entry whose start failed stays visible in error state.
func (r *Installer) Install(ctx context.Context, opts *InstallOptions) (*InstallResult, error) {
	if err := r.validate(opts); err != nil {
		return nil, err
	}

	env := make(map[string]string, len(opts.Env))
	for k, v := range opts.Env {
		env[k] = v
	}
	if opts.Package != "" {
		if err := mergo.Merge(&env, computedEnv); err != nil {
			return nil, err
		}
	}

	if opts.Mode == ModeDirect {
		return r.installDirect(ctx, opts, env)
	}
	return r.installBridge(ctx, opts, env)
}

func (r *Installer) installBridge(ctx context.Context, opts *InstallOptions, env map[string]string) (*InstallResult, error) {
	server := &ManagedServer{
		Name:     opts.Name,
		Env:      env,
		Endpoint: opts.Endpoint,
	}

	if opts.Endpoint == "" {
		if err := r.runtime.Available(ctx); err != nil {
			return nil, err
		}
		server.Origin = opts.Origin
		server.Container = "toolbridge-" + opts.Name
		server.Command = BuildContainerArgs(opts.Package, server.Container, opts.Origin, ModeBridge, env)
	}

	if err := r.registry.Add(server); err != nil {
		return nil, err
	}

	result := &InstallResult{
		Name: opts.Name,
		Mode: ModeBridge,
	}
	result.Command, result.Args = SplitCommandArgs(server.Command)

	if opts.AutoStart {
		if err := r.registry.Start(ctx, opts.Name); err != nil {
			return nil, err
		}
		if err := r.tools.AddServerTools(ctx, opts.Name); err != nil {
			return nil, err
		}
		result.Started = true
		result.Tools = r.tools.ServerTools(opts.Name)
	}

	log.Infof("installed %s (bridge mode)\n", opts.Name)
	return result, nil
}

func (r *Installer) installDirect(ctx context.Context, opts *InstallOptions, env map[string]string) (*InstallResult, error) {
	if cfg, err := r.store.Get(opts.Name); err == nil && cfg != nil {
		return nil, &DuplicateNameError{Name: opts.Name}
	}

	if err := r.runtime.Available(ctx); err != nil {
		return nil, err
	}

	// direct-mode containers run unsupervised for the life of the external
	// client; hardening is always applied
	argv := BuildContainerArgs(opts.Package, "toolbridge-"+opts.Name, opts.Origin, ModeDirect, env)
	command, args := SplitCommandArgs(argv)

	if err := r.store.Add(opts.Name, command, args, env); err != nil {
		return nil, err
	}

	log.Infof("installed %s (direct mode)\n", opts.Name)
	return &InstallResult{
		Name:    opts.Name,
		Mode:    ModeDirect,
		Command: command,
		Args:    args,
		Note:    "restart the external client to pick up the new server",
	}, nil
}
