package main

import (
	"github.com/urfave/cli"
)

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "config, c",
		Usage: "Load configuration from `FILE` (defaults apply without one)",
	},
	cli.StringFlag{
		Name:  "bus",
		Usage: "Override the I2C bus name from the configuration",
	},
	cli.StringFlag{
		Name:  "log-level",
		Usage: "Override the log level (debug, info, warn or error)",
	},
}

var commands = []cli.Command{
	{
		Name:   "run",
		Usage:  "Poll the controller and handle the button until interrupted (default)",
		Action: runCommand,
	},
	{
		Name:   "status",
		Usage:  "Print the controller status once and exit",
		Action: statusCommand,
	},
	{
		Name:      "dump",
		Usage:     "Print the entries of an event record",
		ArgsUsage: "<record.cbor>",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "session",
				Usage: "Only print entries of the given session id",
			},
		},
		Action: dumpCommand,
	},
}
