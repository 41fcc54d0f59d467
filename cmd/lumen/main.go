// Command lumen is the CLI entrypoint: load a compiled module and run
// a cell, check a constraint set against the SMT layer, or drop into
// an interactive shell against a loaded module. Grounded on the
// teacher's cmd/hey/main.go (urfave/cli/v3 *cli.Command tree, a
// top-level "-a" interactive-shell flag, subcommands split one file
// per concern) generalized from "parse and execute PHP source" to
// "load and run a compiled lumen module", since the parser and CLI
// I/O wrappers are out of scope (spec section 1) and only the module
// format itself is specified.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/lumenforge/lumen/vm"
)

func main() {
	app := &cli.Command{
		Name:  "lumen",
		Usage: "lumen bytecode VM: run, verify, and format compiled modules",
		Commands: []*cli.Command{
			runCommand,
			verifyCommand,
			fmtCommand,
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "a",
				Aliases: []string{"interactive"},
				Usage:   "Run as interactive shell against a loaded module",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a lumen.yaml host configuration file",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("a") {
				return runREPL(cmd.Args().First(), cmd.String("config"))
			}
			return cli.ShowAppHelp(cmd)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "lumen: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a vm.Error's Kind to a distinct process exit code
// the way the teacher's ExecutionContext.ExitCode distinguishes a
// script's exit()/die() from an uncaught error -- 1 for an ordinary
// CLI/config failure, 2 for an instruction/fuel budget exhaustion, 3
// for every other VM runtime error.
func exitCodeFor(err error) int {
	if vm.IsInstructionLimitExceeded(err) || vm.IsFuelExhausted(err) {
		return 2
	}
	if _, ok := vm.AsError(err); ok {
		return 3
	}
	return 1
}
