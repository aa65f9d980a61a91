package main

import (
	"fmt"
	"os"

	cli "github.com/urfave/cli/v2"
)

func main() {
	app := App()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// App builds the rrc CLI, mirroring the teacher's cmd/hlb/command.App
// shape: one top-level app, flags for the common path, action does the
// work directly rather than dispatching to subcommands.
func App() *cli.App {
	app := cli.NewApp()
	app.Name = "rrc"
	app.Usage = "compiles the hybrid surface language to its target dialect"
	app.Description = "source-to-source compiler: lexer, parser, lowerer, optimizer, emitter"
	app.ArgsUsage = "<input>"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output file path; stdout if unset",
		},
		&cli.BoolFlag{
			Name:  "no-runtime",
			Usage: "suppress the runtime preamble in the emitted output",
		},
		&cli.BoolFlag{Name: "O0", Usage: "no optimization (default)"},
		&cli.BoolFlag{Name: "O1", Usage: "safe local simplifications"},
		&cli.BoolFlag{Name: "O2", Usage: "aggressive substitution and branch simplification"},
		&cli.BoolFlag{
			Name:  "dump-hir",
			Usage: "print the lowered (and optimized) HIR as a tree to stderr before emitting",
		},
		&cli.BoolFlag{
			Name:  "watch",
			Usage: "recompile whenever the input file changes",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "print the source digest and optimization level to stderr",
		},
	}
	app.Action = compileAction
	return app
}
