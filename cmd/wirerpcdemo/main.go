// Command wirerpcdemo is a thin harness over the wirerpc framework: a
// "serve" subcommand runs an Echo service and a "call" subcommand issues one
// RPC against it. It exists to exercise the CLI/format/color corner of the
// ambient stack, not to add framework behavior.
package main

import (
	"os"

	"github.com/mitchellh/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ui := newUI()

	c := cli.NewCLI("wirerpcdemo", "0.1.0")
	c.Args = args
	c.Autocomplete = true
	c.Commands = map[string]cli.CommandFactory{
		"serve": func() (cli.Command, error) { return &ServeCommand{UI: ui}, nil },
		"call":  func() (cli.Command, error) { return &CallCommand{UI: ui}, nil },
	}

	exitStatus, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
	}
	return exitStatus
}
