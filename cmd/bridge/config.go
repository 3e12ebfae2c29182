package bridge

import (
	"github.com/spf13/cobra"

	"github.com/toolbridge/toolbridge/internal"
	"github.com/toolbridge/toolbridge/internal/log"
)

var configCmd = &cobra.Command{
	Use:                   "config",
	Short:                 "Inspect the external client config",
	DisableFlagsInUseLine: true,
	DisableSuggestions:    true,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the resolved config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Println(newStore().Path())
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file shape",
	RunE: func(cmd *cobra.Command, args []string) error {
		setLogLevel()

		store := newStore()
		result, err := store.Validate()
		if err != nil {
			return err
		}
		if result.Valid {
			log.Printf("%s: ok\n", store.Path())
			return nil
		}
		for _, e := range result.Errors {
			log.Errorf("%s\n", e)
		}
		return internal.NewUserInputErrorf("%d validation errors", len(result.Errors))
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configValidateCmd)

	RootCmd.AddCommand(configCmd)
}
