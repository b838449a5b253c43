// Pdtrigger steps a CYPD3177 USB-PD sink through a table of fixed supply
// profiles with a push button, showing the selected profile on a row of LEDs.
//
// Without a configuration file it drives the first I2C bus with the default
// 5V, 9V, 12V, 15V and 20V profiles and runs without button or LEDs, which is
// useful to watch a controller. Pins, profiles, the Modbus status mirror and
// the event record are set up in a YAML file given with --config.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli"
)

func main() {
	log.SetFlags(0)

	app := cli.NewApp()
	app.Name = "pdtrigger"
	app.Usage = "select USB-PD profiles of a CYPD3177 sink with a button"
	app.Flags = globalFlags
	app.Commands = commands
	app.Action = runCommand

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
