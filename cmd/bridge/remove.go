package bridge

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/toolbridge/toolbridge/internal"
	"github.com/toolbridge/toolbridge/internal/bridge"
	"github.com/toolbridge/toolbridge/internal/log"
)

var stopCmd = &cobra.Command{
	Use:   "stop NAME",
	Short: "Stop a server's container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setLogLevel()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		runtime := bridge.NewRuntime()
		if err := runtime.StopContainer(ctx, "toolbridge-"+args[0]); err != nil {
			return err
		}
		log.Printf("stopped %s\n", args[0])
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a server",
	Long:  `Remove a server from the toolbridge config or the external client config, and remove its container if present.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setLogLevel()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		name := args[0]
		found := false

		specs := loadServerSpecs()
		kept := specs[:0]
		for _, spec := range specs {
			if spec.Name == name {
				found = true
				continue
			}
			kept = append(kept, spec)
		}
		if found {
			if err := saveServerSpecs(kept); err != nil {
				return err
			}
		}

		store := newStore()
		removed, err := store.Remove(name)
		if err != nil {
			return err
		}
		found = found || removed

		if !found {
			return internal.NewUserInputErrorf("server %q not found", name)
		}

		runtime := bridge.NewRuntime()
		if err := runtime.RemoveContainer(ctx, "toolbridge-"+name); err != nil {
			log.Debugf("failed to remove container: %v\n", err)
		}

		log.Printf("removed %s\n", name)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(stopCmd)
	RootCmd.AddCommand(removeCmd)
}
