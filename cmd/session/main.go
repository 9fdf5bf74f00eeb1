package main

import (
	"os"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/afero"
)

func main() {
	cmd := newRootCmd(envconfig.OsLookuper(), afero.NewOsFs())
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
