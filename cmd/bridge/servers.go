package bridge

import (
	"os"
	"path/filepath"

	"github.com/toolbridge/toolbridge/internal/log"
)

// serverSpec is one bridge-mode server recorded in the toolbridge config
// file; serve brings these up on startup.
type serverSpec struct {
	Name     string            `mapstructure:"name" yaml:"name"`
	Package  string            `mapstructure:"package" yaml:"package,omitempty"`
	Origin   string            `mapstructure:"origin" yaml:"origin,omitempty"`
	Endpoint string            `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Env      map[string]string `mapstructure:"env" yaml:"env,omitempty"`
}

func loadServerSpecs() []serverSpec {
	var specs []serverSpec
	if err := viper.UnmarshalKey("servers", &specs); err != nil {
		log.Errorf("invalid servers config: %v\n", err)
		return nil
	}
	return specs
}

func saveServerSpecs(specs []serverSpec) error {
	viper.Set("servers", specs)

	path := viper.ConfigFileUsed()
	if path == "" {
		dir := configDir()
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		path = filepath.Join(dir, "toolbridge.yaml")
	}
	return viper.WriteConfigAs(path)
}
