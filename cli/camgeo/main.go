// Package main is the camgeo command itself.
package main

import (
	"os"

	"go.viam.com/camerageometry/cli"
	"go.viam.com/camerageometry/logging"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		logging.NewLogger(app.Name, os.Stderr).Error(err)
		os.Exit(1)
	}
}
