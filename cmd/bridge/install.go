package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/toolbridge/toolbridge/internal"
	"github.com/toolbridge/toolbridge/internal/bridge"
	"github.com/toolbridge/toolbridge/internal/log"
)

var installCmd = &cobra.Command{
	Use:   "install NAME",
	Short: "Install a server",
	Long: `Install a server in bridge or direct mode.

Bridge mode records the server in the toolbridge config; serve launches it
and proxies its tools. Direct mode writes the server into the external
client's config file; the client launches and owns it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setLogLevel()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		name := args[0]
		pkg, _ := cmd.Flags().GetString("package")
		origin, _ := cmd.Flags().GetString("origin")
		endpoint, _ := cmd.Flags().GetString("endpoint")
		envFlags, _ := cmd.Flags().GetStringArray("env")

		env, err := parseEnvFlags(envFlags)
		if err != nil {
			return internal.NewUserInputErrorf("%v", err)
		}

		mode := bridge.Mode(installMode)

		if mode == bridge.ModeDirect {
			store := newStore()
			runtime := bridge.NewRuntime()
			registry := bridge.NewRegistry(nil, runtime)
			// direct mode never touches the tool registry
			installer := bridge.NewInstaller(registry, nil, store, runtime)

			result, err := installer.Install(ctx, &bridge.InstallOptions{
				Name:    name,
				Package: pkg,
				Origin:  bridge.Origin(origin),
				Mode:    mode,
				Env:     env,
			})
			if err != nil {
				return err
			}

			log.Printf("installed %s (direct mode)\n", result.Name)
			log.Printf("  command: %s %s\n", result.Command, strings.Join(result.Args, " "))
			if result.Note != "" {
				log.Printf("  note: %s\n", result.Note)
			}
			return nil
		}

		// bridge mode: record the server; serve brings it up
		specs := loadServerSpecs()
		for _, spec := range specs {
			if spec.Name == name {
				return internal.NewUserInputErrorf("server %q already configured", name)
			}
		}
		specs = append(specs, serverSpec{
			Name:     name,
			Package:  pkg,
			Origin:   origin,
			Endpoint: endpoint,
			Env:      env,
		})
		if err := saveServerSpecs(specs); err != nil {
			return err
		}

		log.Printf("installed %s (bridge mode); restart serve to launch it\n", name)
		return nil
	},
}

var installMode string

func init() {
	flags := installCmd.Flags()
	flags.String("package", "", "npm package or container image to install")
	flags.String("origin", "npm", "Package origin: npm or image")
	flags.String("endpoint", "", "Network endpoint of an already-running server (bridge mode)")
	flags.StringArray("env", nil, "Environment variable KEY=VALUE (repeatable)")
	flags.Var(newModeValue("bridge", &installMode), "mode", "Install mode: bridge or direct")

	RootCmd.AddCommand(installCmd)
}

func parseEnvFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(flags))
	for _, kv := range flags {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid env %q, expected KEY=VALUE", kv)
		}
		env[parts[0]] = parts[1]
	}
	return env, nil
}
