package bridge

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/toolbridge/toolbridge/internal/log"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured servers",
	Long:  `List bridge-mode servers from the toolbridge config and direct-mode servers from the external client config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		setLogLevel()

		specs := loadServerSpecs()
		log.Printf("bridge servers: %d\n", len(specs))
		for _, spec := range specs {
			target := spec.Package
			if spec.Endpoint != "" {
				target = spec.Endpoint
			}
			log.Printf("  %s\t%s\n", spec.Name, target)
		}

		store := newStore()
		servers, err := store.List()
		if err != nil {
			return err
		}
		log.Printf("direct servers: %d (%s)\n", len(servers), store.Path())
		for name, cfg := range servers {
			log.Printf("  %s\t%s %s\n", name, cfg.Command, strings.Join(cfg.Args, " "))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(listCmd)
}
