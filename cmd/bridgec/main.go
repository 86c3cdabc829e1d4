package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/broady/bridgec/cmd/bridgec/internal/check"
	"github.com/broady/bridgec/cmd/bridgec/internal/compile"
	"github.com/broady/bridgec/passes"
)

type CLI struct {
	Verbose bool `help:"Log pass progress at debug level." short:"v"`

	Version VersionCmd  `cmd:"" help:"Print version information."`
	Compile compile.Cmd `cmd:"" help:"Check, lower and emit compilation units."`
	Check   check.Cmd   `cmd:"" help:"Report restriction violations without lowering."`
	Passes  PassesCmd   `cmd:"" help:"List the standard lowering passes in run order."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

type PassesCmd struct{}

func (c *PassesCmd) Run() error {
	for _, p := range passes.Default() {
		if reqs := p.Requires(); len(reqs) > 0 {
			fmt.Printf("%s (after %s)\n", p.Name(), strings.Join(reqs, ", "))
			continue
		}
		fmt.Println(p.Name())
	}
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("bridgec"),
		kong.Description("Checks and lowers interop-annotated compilation units."),
		kong.UsageOnError(),
	)
	err := ctx.Run(newLogger(cli.Verbose))
	ctx.FatalIfErrorf(err)
}
