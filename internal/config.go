package internal

import (
	"github.com/spf13/viper"
)

var Version = "0.0.1" // version of the toolbridge binary

// V is the shared viper instance all commands bind their flags to.
var V = viper.New()
