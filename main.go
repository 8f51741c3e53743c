package main

import (
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/yiblet/haste/internal/cli"
	"github.com/yiblet/haste/internal/clipboard/sysboard"
)

func main() {
	var args cli.Args
	parser := arg.MustParse(&args)

	cliHandler, err := cli.NewWithArgs(&args, sysboard.New())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = cliHandler.Execute(&args)
	if closeErr := cliHandler.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		// argument errors get the usage line
		if args.Validate() != nil {
			fmt.Fprintln(os.Stderr)
			parser.WriteUsage(os.Stderr)
		}
		os.Exit(1)
	}
}
