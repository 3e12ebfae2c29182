package bridge

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/toolbridge/toolbridge/internal"
	"github.com/toolbridge/toolbridge/internal/log"
)

var viper = internal.V

// var updated during build
var ServerName = "toolbridge"
var ServerVersion = internal.Version

type ServerConfig struct {
	Port      int
	Host      string
	Transport string

	// external client config file override
	ClientConfig string
}

var config = &ServerConfig{}

var RootCmd = &cobra.Command{
	Use:                   "toolbridge",
	Short:                 "Manage and bridge MCP servers",
	DisableFlagsInUseLine: true,
	DisableSuggestions:    true,
	SilenceUsage:          true,
	SilenceErrors:         true,
}

func init() {
	RootCmd.Flags().SortFlags = true
	RootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := RootCmd.PersistentFlags()
	flags.String("log", "", "Log all debugging information to a file")
	flags.Bool("verbose", false, "Show debugging information")
	flags.String("client-config", "", "Path of the external client config file")

	flags.MarkHidden("log")

	// Bind the flags to viper using underscores
	RootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		viper.BindPFlag(key, f)
	})

	viper.AutomaticEnv()
	viper.SetEnvPrefix("toolbridge")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	viper.SetConfigName("toolbridge")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir())
	viper.ReadInConfig()
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".toolbridge")
}

func setLogLevel() {
	debug := viper.GetBool("verbose")
	if debug {
		log.SetLogLevel(log.Verbose)
	}
}

func setLogOutput() (*log.FileWriter, error) {
	pathname := viper.GetString("log")
	if pathname != "" {
		f, err := log.NewFileWriter(pathname)
		if err != nil {
			return nil, err
		}
		log.SetLogOutput(f)
		return f, nil
	}
	return nil, nil
}
