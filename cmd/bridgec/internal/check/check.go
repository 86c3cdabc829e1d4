package check

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/broady/bridgec/checker"
	"github.com/broady/bridgec/cmd/bridgec/internal/input"
	"github.com/broady/bridgec/compiler"
	"github.com/broady/bridgec/diag"
)

type Cmd struct {
	Input string `arg:"" help:"JSON document or txtar archive of documents to check (- for stdin)."`

	Stdin  io.Reader `kong:"-"`
	Stdout io.Writer `kong:"-"`
}

func (c *Cmd) Run(logger *slog.Logger) error {
	stdin, stdout := c.Stdin, c.Stdout
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}

	arena, units, err := input.Load(c.Input, stdin)
	if err != nil {
		return err
	}
	if len(units) == 0 {
		return compiler.ErrNoUnits
	}

	problems := diag.New()
	checker.Check(arena, units, problems)
	problems.Report(context.Background(), logger)

	fmt.Fprintf(stdout, "✓ %d units checked\n", len(units))
	if n := len(problems.Warnings()); n > 0 {
		fmt.Fprintf(stdout, "! %d warnings\n", n)
	}
	if n := problems.ErrorCount(); n > 0 {
		return fmt.Errorf("%w: %d reported", compiler.ErrRestrictionViolations, n)
	}
	fmt.Fprintln(stdout, "✓ No restriction violations")
	return nil
}
