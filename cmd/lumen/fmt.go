package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// The source formatter consumes a token stream and is an out-of-scope
// collaborator (spec section 1): this subcommand is a placeholder the
// way the teacher's runWebServer stubs out "-S" until the real
// implementation lands elsewhere.
var fmtCommand = &cli.Command{
	Name:      "fmt",
	Usage:     "Format a lumen source file (not yet implemented)",
	ArgsUsage: "<file>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		path := cmd.Args().First()
		fmt.Printf("lumen fmt: %s (formatter not yet implemented)\n", path)
		return nil
	},
}
