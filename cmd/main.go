package main

import (
	"github.com/toolbridge/toolbridge/cmd/bridge"
	"github.com/toolbridge/toolbridge/internal"
)

func main() {
	if err := bridge.RootCmd.Execute(); err != nil {
		internal.Exit(err)
	}
}
