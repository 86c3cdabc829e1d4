package compile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/broady/bridgec/cmd/bridgec/internal/input"
	"github.com/broady/bridgec/compiler"
	"github.com/broady/bridgec/sink"
)

type Cmd struct {
	Input       string   `arg:"" help:"JSON document or txtar archive of documents to compile (- for stdin)."`
	Out         string   `arg:"" help:"Output directory for lowered documents."`
	Set         []string `help:"Set a config value (key=value, repeatable)." short:"s"`
	Parallelism int      `help:"Number of units lowered at once (overrides --set parallelism)." short:"j"`
	Verify      bool     `help:"Check tree invariants after every pass."`
	NoOverwrite bool     `help:"Fail instead of replacing existing output files."`
	Watch       bool     `help:"Recompile whenever the input file changes." short:"w"`

	// Stdin and Stdout default to the process streams.
	Stdin  io.Reader `kong:"-"`
	Stdout io.Writer `kong:"-"`
}

func (c *Cmd) Run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return c.run(ctx, logger)
}

func (c *Cmd) run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := c.config(logger)
	if err != nil {
		return err
	}
	if c.Stdin == nil {
		c.Stdin = os.Stdin
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}

	if !c.Watch {
		return c.compile(ctx, cfg)
	}
	if c.Input == "-" {
		return errors.New("--watch needs an input file")
	}
	if err := c.compile(ctx, cfg); err != nil {
		logger.ErrorContext(ctx, "compile failed", slog.Any("error", err))
	}
	return c.watch(ctx, cfg, logger)
}

func (c *Cmd) config(logger *slog.Logger) (*compiler.Config, error) {
	values, err := compiler.ParseSettings(c.Set)
	if err != nil {
		return nil, err
	}
	cfg, err := compiler.ConfigFromValues(values)
	if err != nil {
		return nil, err
	}
	if c.Parallelism > 0 {
		cfg.Parallelism = c.Parallelism
	}
	if c.Verify {
		cfg.Verify = true
	}
	cfg.Logger = logger
	return cfg, nil
}

func (c *Cmd) compile(ctx context.Context, cfg *compiler.Config) error {
	arena, units, err := input.Load(c.Input, c.Stdin)
	if err != nil {
		return err
	}

	out := sink.NewFilesystemSink(c.Out)
	out.Overwrite = !c.NoOverwrite
	result, err := compiler.Compile(ctx, arena, units, cfg, &compiler.JSONEmitter{Sink: out})
	if err != nil {
		return err
	}

	if n := len(result.Problems.Warnings()); n > 0 {
		fmt.Fprintf(c.Stdout, "! %d warnings\n", n)
	}
	fmt.Fprintf(c.Stdout, "✓ %d units lowered to %s\n", len(result.Units), c.Out)
	return nil
}

// watch recompiles on every write to the input until ctx is done. Failed
// runs are logged and do not stop the loop.
func (c *Cmd) watch(ctx context.Context, cfg *compiler.Config, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Editors often replace the file instead of writing it, so the
	// directory is watched.
	target := filepath.Clean(c.Input)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", c.Input, err)
	}
	logger.InfoContext(ctx, "watching for changes", slog.String("input", c.Input))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			logger.DebugContext(ctx, "input changed", slog.String("op", ev.Op.String()))
			if err := c.compile(ctx, cfg); err != nil {
				logger.ErrorContext(ctx, "compile failed", slog.Any("error", err))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "watch error", slog.Any("error", err))
		}
	}
}
