package bridge

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/toolbridge/toolbridge/internal/log"
)

// FrontServer is the front-facing protocol server tools are bound onto.
// *server.MCPServer satisfies it.
type FrontServer interface {
	AddTool(tool mcp.Tool, handler server.ToolHandlerFunc)
	DeleteTools(names ...string)
}

// ToolStats is a read-only aggregate for diagnostics and startup banners.
type ToolStats struct {
	TotalServers int
	TotalTools   int
	PerServer    map[string]int
}

// ToolRegistry binds tools discovered from running managed servers onto the
// front server under namespaced names and routes invocations back to the
// originating server.
type ToolRegistry struct {
	mu    sync.Mutex
	tools map[string][]string // server name -> namespaced tool names

	front       FrontServer
	registry    *Registry
	callTimeout time.Duration
}

func NewToolRegistry(front FrontServer, registry *Registry) *ToolRegistry {
	return &ToolRegistry{
		tools:       make(map[string][]string),
		front:       front,
		registry:    registry,
		callTimeout: 60 * time.Second,
	}
}

// SetCallTimeout bounds proxied tool calls. Zero disables the bound.
func (t *ToolRegistry) SetCallTimeout(d time.Duration) {
	t.callTimeout = d
}

// Namespaced returns the front-server name for a server's tool.
func Namespaced(server, tool string) string {
	return fmt.Sprintf("%s_%s", server, tool)
}

// AddServerTools queries the running server for its tool list and registers
// a namespaced handler for each tool on the front server.
func (t *ToolRegistry) AddServerTools(ctx context.Context, name string) error {
	session, err := t.registry.Session(name)
	if err != nil {
		return err
	}

	tools, err := session.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tools for %s: %v", name, err)
	}

	var registered []string
	for _, tool := range tools {
		proxied := tool
		proxied.Name = Namespaced(name, tool.Name)
		t.front.AddTool(proxied, t.makeHandler(name, tool.Name))
		registered = append(registered, proxied.Name)
		log.Debugf("registered tool %s\n", proxied.Name)
	}

	t.mu.Lock()
	t.tools[name] = registered
	t.mu.Unlock()

	log.Infof("registered %d tools for server %s\n", len(registered), name)
	return nil
}

// makeHandler returns the front-server handler for one proxied tool. The
// handler consults live registry state on every invocation, so a stopped or
// removed server yields a clean error result instead of a stale call.
func (t *ToolRegistry) makeHandler(serverName, toolName string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session, err := t.registry.Session(serverName)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if t.callTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t.callTimeout)
			defer cancel()
		}

		log.Debugf("calling %s on %s with %+v\n", toolName, serverName, req.GetArguments())

		result, err := session.CallTool(ctx, toolName, req.GetArguments())
		if err != nil {
			ierr := &InvocationError{Server: serverName, Tool: toolName, Err: err}
			return mcp.NewToolResultError(ierr.Error()), nil
		}
		return result, nil
	}
}

// RemoveServerTools clears the bookkeeping for a server and removes its
// registrations from the front server where the SDK allows it. Handlers that
// remain registered are inert: every invocation checks the registry first
// and reports "not running".
func (t *ToolRegistry) RemoveServerTools(name string) {
	t.mu.Lock()
	registered := t.tools[name]
	delete(t.tools, name)
	t.mu.Unlock()

	if len(registered) > 0 {
		t.front.DeleteTools(registered...)
	}
}

// RefreshServerTools re-registers a server's tools; used after restart since
// the new instance may expose a different tool set.
func (t *ToolRegistry) RefreshServerTools(ctx context.Context, name string) error {
	t.RemoveServerTools(name)
	return t.AddServerTools(ctx, name)
}

// Stats returns per-server and total tool counts.
func (t *ToolRegistry) Stats() ToolStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := ToolStats{
		PerServer: make(map[string]int, len(t.tools)),
	}
	for name, tools := range t.tools {
		stats.TotalServers++
		stats.TotalTools += len(tools)
		stats.PerServer[name] = len(tools)
	}
	return stats
}

// ServerTools returns the namespaced tool names bound for a server.
func (t *ToolRegistry) ServerTools(name string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	tools := append([]string(nil), t.tools[name]...)
	sort.Strings(tools)
	return tools
}

// ClearAll removes every tracked server's tools; used on shutdown.
func (t *ToolRegistry) ClearAll() {
	t.mu.Lock()
	names := make([]string, 0, len(t.tools))
	for name := range t.tools {
		names = append(names, name)
	}
	t.mu.Unlock()

	for _, name := range names {
		t.RemoveServerTools(name)
	}
}
