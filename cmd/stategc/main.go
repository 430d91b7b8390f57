// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Command stategc garbage collects the stale nodes of a state database.
package main

import (
	"os"

	"github.com/ChainSafe/stategc/internal/log"
	"github.com/urfave/cli"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "cmd"))

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "stategc"
	app.Usage = "State database garbage collector"
	app.Version = "0.1.0"
	app.Flags = globalFlags
	app.Commands = []cli.Command{
		gcCommand,
		verifySafetyCommand,
		listStaleCommand,
		recycleBinCommand,
		seedCommand,
		dumpConfigCommand,
	}
	return app
}

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		logger.Critical(err.Error())
		os.Exit(1)
	}
}
