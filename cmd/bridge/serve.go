package bridge

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/toolbridge/toolbridge/internal/bridge"
	"github.com/toolbridge/toolbridge/internal/claude"
	"github.com/toolbridge/toolbridge/internal/log"
)

var serveCmd = &cobra.Command{
	Use:                   "serve",
	Short:                 "Start the bridge server",
	Long:                  `Start the front-facing MCP server, launch configured bridge servers and expose their tools under namespaced names.`,
	DisableFlagsInUseLine: true,
	DisableSuggestions:    true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunServe(args)
	},
}

func RunServe(args []string) error {
	setLogLevel()

	fileLog, err := setLogOutput()
	if err != nil {
		return err
	}
	defer func() {
		if fileLog != nil {
			fileLog.Close()
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithLogging(),
	)

	store := newStore()
	runtime := bridge.NewRuntime()
	registry := bridge.NewRegistry(nil, runtime)
	tools := bridge.NewToolRegistry(mcpServer, registry)
	installer := bridge.NewInstaller(registry, tools, store, runtime)

	bridge.RegisterAdminTools(mcpServer, registry, tools, installer)

	if d := viper.GetDuration("call_timeout"); d > 0 {
		tools.SetCallTimeout(d)
	}

	// report external edits; the next read starts from disk truth
	if err := store.Watch(ctx, func() {
		log.Infof("external client config changed on disk\n")
	}); err != nil {
		log.Debugf("config watch not available: %v\n", err)
	}

	// bring up configured servers; a failed server stays visible in error
	// state and does not block the rest
	for _, spec := range loadServerSpecs() {
		opts := &bridge.InstallOptions{
			Name:      spec.Name,
			Package:   spec.Package,
			Origin:    bridge.Origin(spec.Origin),
			Mode:      bridge.ModeBridge,
			Env:       spec.Env,
			Endpoint:  spec.Endpoint,
			AutoStart: true,
		}
		if opts.Origin == "" {
			opts.Origin = bridge.OriginNpm
		}
		if _, err := installer.Install(ctx, opts); err != nil {
			log.Errorf("failed to bring up server %s: %v\n", spec.Name, err)
		}
	}

	stats := tools.Stats()
	log.Infof("bridging %d servers, %d tools\n", stats.TotalServers, stats.TotalTools)

	// shutdown path: bookkeeping cleared, children stopped
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-done
		log.Infoln("shutting down...")
		tools.ClearAll()
		registry.StopAll(ctx)
		cancel()
		os.Exit(0)
	}()

	if config.Transport == "sse" {
		baseURL := fmt.Sprintf("http://%s:%v", config.Host, config.Port)
		addr := fmt.Sprintf(":%v", config.Port)

		sse := server.NewSSEServer(mcpServer, server.WithBaseURL(baseURL))

		log.Infof("SSE server listening on :%d\n", config.Port)

		if err := sse.Start(addr); err != nil {
			return fmt.Errorf("sse server error: %v", err)
		}
	} else {
		if err := server.ServeStdio(mcpServer); err != nil {
			return fmt.Errorf("stdio server error: %v", err)
		}
	}

	return nil
}

func addServeFlags(cmd *cobra.Command) {
	var defaultPort = 5048
	if v := os.Getenv("TOOLBRIDGE_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &defaultPort)
	}

	flags := cmd.Flags()

	flags.IntVar(&config.Port, "port", defaultPort, "Port to run the server")
	flags.StringVar(&config.Host, "host", "localhost", "Host to bind the server")

	flags.Var(newTransportValue("sse", &config.Transport), "transport", "Transport protocol to use: sse or stdio")

	flags.Duration("call-timeout", 0, "Timeout for proxied tool calls")
}

func init() {
	addServeFlags(serveCmd)

	// Bind the flags to viper using underscores
	serveCmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		viper.BindPFlag(key, f)
	})

	RootCmd.AddCommand(serveCmd)
}

func newStore() *claude.Store {
	if path := viper.GetString("client_config"); path != "" {
		return claude.NewStoreAt(path)
	}
	return claude.NewStore()
}
