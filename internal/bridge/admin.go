package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// RegisterAdminTools binds the bridge's own management operations onto the
// front server so the calling client can drive installs and lifecycle
// without a side channel.
func RegisterAdminTools(front FrontServer, registry *Registry, tools *ToolRegistry, installer *Installer) {
	front.AddTool(
		mcp.NewTool("bridge_status",
			mcp.WithDescription("List all bridged servers and their tools"),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type entry struct {
				Name      string   `json:"name"`
				Status    Status   `json:"status"`
				Tools     []string `json:"tools,omitempty"`
				LastError string   `json:"lastError,omitempty"`
			}
			var entries []entry
			for _, info := range registry.List() {
				entries = append(entries, entry{
					Name:      info.Name,
					Status:    info.Status,
					Tools:     info.Tools,
					LastError: info.LastError,
				})
			}
			data, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(string(data)), nil
		},
	)

	front.AddTool(
		mcp.NewTool("bridge_install",
			mcp.WithDescription("Install a new server in bridge or direct mode"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Unique server name")),
			mcp.WithString("package", mcp.Description("npm package or container image")),
			mcp.WithString("origin", mcp.Description("Package origin: npm or image")),
			mcp.WithString("mode", mcp.Description("Install mode: bridge or direct")),
			mcp.WithString("endpoint", mcp.Description("Network endpoint of an already-running server")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			opts := &InstallOptions{
				Name:      name,
				Package:   req.GetString("package", ""),
				Origin:    Origin(req.GetString("origin", string(OriginNpm))),
				Mode:      Mode(req.GetString("mode", string(ModeBridge))),
				Endpoint:  req.GetString("endpoint", ""),
				AutoStart: true,
			}
			result, err := installer.Install(ctx, opts)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			data, _ := json.MarshalIndent(result, "", "  ")
			return mcp.NewToolResultText(string(data)), nil
		},
	)

	lifecycle := func(verb string, op func(ctx context.Context, name string) error) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := op(ctx, name); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("server %q %s", name, verb)), nil
		}
	}

	front.AddTool(
		mcp.NewTool("bridge_start",
			mcp.WithDescription("Start a stopped server and register its tools"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Server name")),
		),
		lifecycle("started", func(ctx context.Context, name string) error {
			if err := registry.Start(ctx, name); err != nil {
				return err
			}
			return tools.RefreshServerTools(ctx, name)
		}),
	)

	front.AddTool(
		mcp.NewTool("bridge_stop",
			mcp.WithDescription("Stop a running server; its tools become inert"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Server name")),
		),
		lifecycle("stopped", func(ctx context.Context, name string) error {
			return registry.Stop(ctx, name)
		}),
	)

	front.AddTool(
		mcp.NewTool("bridge_restart",
			mcp.WithDescription("Restart a server and refresh its tool list"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Server name")),
		),
		lifecycle("restarted", func(ctx context.Context, name string) error {
			if err := registry.Restart(ctx, name); err != nil {
				return err
			}
			return tools.RefreshServerTools(ctx, name)
		}),
	)

	front.AddTool(
		mcp.NewTool("bridge_remove",
			mcp.WithDescription("Stop and remove a server"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Server name")),
		),
		lifecycle("removed", func(ctx context.Context, name string) error {
			if err := registry.Remove(ctx, name); err != nil {
				return err
			}
			tools.RemoveServerTools(name)
			return nil
		}),
	)
}
