package main

import (
	"os"

	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
	"github.com/mitchellh/cli"
)

// newUI builds the demo's colorized terminal UI: a colorable.Writer wrapper
// so ANSI sequences render correctly on Windows consoles, matching the
// convention of piping a cli.BasicUi's Writer/ErrorWriter through
// mattn/go-colorable rather than os.Stdout/os.Stderr directly.
func newUI() *cli.ColoredUi {
	base := &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      colorable.NewColorableStdout(),
		ErrorWriter: colorable.NewColorableStderr(),
	}
	return &cli.ColoredUi{
		Ui:          base,
		OutputColor: cli.UiColorNone,
		InfoColor:   cli.UiColor{Code: int(color.FgCyan)},
		ErrorColor:  cli.UiColor{Code: int(color.FgRed)},
		WarnColor:   cli.UiColor{Code: int(color.FgYellow)},
	}
}
