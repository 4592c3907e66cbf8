// cmd/lc3vm is the command-line interface to the LC-3 simulator and tool suite.
package main

import (
	"context"
	"os"

	"github.com/cgrier/lc3vm/internal/cli"
	"github.com/cgrier/lc3vm/internal/cli/cmd"
)

var (
	commands = []cli.Command{
		cmd.Demo(),
		cmd.Executor(),
	}
)

// Entry point.
func main() {
	result :=
		cli.New(context.Background()).
			WithLogger(os.Stderr).
			WithCommands(commands).
			WithHelp(cmd.Help(commands)).
			Execute(os.Args[1:])

	os.Exit(result)
}
