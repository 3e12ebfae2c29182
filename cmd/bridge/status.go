package bridge

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/toolbridge/toolbridge/internal/bridge"
	"github.com/toolbridge/toolbridge/internal/log"
)

var statusCmd = &cobra.Command{
	Use:   "status NAME",
	Short: "Show a server's container status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setLogLevel()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		runtime := bridge.NewRuntime()
		if err := runtime.Available(ctx); err != nil {
			return err
		}

		status, err := runtime.ContainerStatus(ctx, "toolbridge-"+args[0])
		if err != nil {
			return err
		}
		if status == "" {
			log.Printf("%s: no container\n", args[0])
			return nil
		}
		log.Printf("%s: %s\n", args[0], status)
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs NAME",
	Short: "Show a server's container logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setLogLevel()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		tail, _ := cmd.Flags().GetInt("tail")

		runtime := bridge.NewRuntime()
		out, err := runtime.ContainerLogs(ctx, "toolbridge-"+args[0], tail)
		if err != nil {
			return err
		}
		log.Print(out)
		return nil
	},
}

func init() {
	logsCmd.Flags().Int("tail", 100, "Number of log lines to show")

	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(logsCmd)
}
