package bridge

import (
	"context"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/toolbridge/toolbridge/internal/log"
)

// ToolSession is a live connection to a child server. It exists only while
// the owning ManagedServer is running.
type ToolSession interface {
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
	Close() error
}

// Dialer establishes a session to a managed server. Injected into the
// registry so tests can substitute fakes.
type Dialer func(ctx context.Context, server *ManagedServer) (ToolSession, error)

// Dial launches or connects to the child server described by the entry:
// stdio for local launch commands, streamable HTTP for network endpoints.
func Dial(ctx context.Context, server *ManagedServer) (ToolSession, error) {
	var c *client.Client

	if server.Endpoint != "" {
		log.Debugf("connecting to %s at %s\n", server.Name, server.Endpoint)
		httpTransport, err := transport.NewStreamableHTTP(server.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP transport: %v", err)
		}
		c = client.NewClient(httpTransport)
	} else {
		if len(server.Command) == 0 {
			return nil, fmt.Errorf("server %q has no launch command", server.Name)
		}
		log.Debugf("launching %s: %v\n", server.Name, server.Command)
		stdioTransport := transport.NewStdio(server.Command[0], envList(server.Env), server.Command[1:]...)
		c = client.NewClient(stdioTransport)
	}

	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start client: %v", err)
	}

	if stderr, ok := client.GetStderr(c); ok {
		go drainStderr(server.Name, stderr)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "toolbridge",
		Version: "0.0.1",
	}
	initRequest.Params.Capabilities = mcp.ClientCapabilities{}

	serverInfo, err := c.Initialize(ctx, initRequest)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize: %v", err)
	}

	log.Debugf("connected to %s (version %s)\n",
		serverInfo.ServerInfo.Name,
		serverInfo.ServerInfo.Version)

	return &mcpSession{client: c}, nil
}

func drainStderr(name string, stderr io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := stderr.Read(buf)
		if n > 0 {
			log.Debugf("[%s] %s", name, buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				log.Errorf("[%s] error reading stderr: %v\n", name, err)
			}
			return
		}
	}
}

func envList(env map[string]string) []string {
	var list []string
	for k, v := range env {
		list = append(list, fmt.Sprintf("%s=%s", k, v))
	}
	return list
}

type mcpSession struct {
	client *client.Client
}

func (r *mcpSession) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	result, err := r.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %v", err)
	}
	return result.Tools, nil
}

func (r *mcpSession) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return r.client.CallTool(ctx, req)
}

func (r *mcpSession) Close() error {
	return r.client.Close()
}
