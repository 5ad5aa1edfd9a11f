/*
Command-line tool for streaming block transforms.

Usage:

	$ blockform [<flags>] <subcommand> [<args> ...]

Use 'blockform help' to see more details.
*/
package main

import (
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/blockform/blockform/cli"
)

// build information, overridden at link time.
var (
	buildVersion = "v0-unofficial"
	buildInfo    = "unknown"
)

func main() {
	app := cli.NewApp()

	kingpinApp := kingpin.New("blockform", "Blockform - Streaming Block Transforms. See https://github.com/blockform/blockform for more information.")
	kingpinApp.Version(buildVersion + " build: " + buildInfo)

	app.Attach(kingpinApp)

	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))
}
