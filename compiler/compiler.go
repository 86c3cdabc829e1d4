// Package compiler drives a compilation run: it checks the units against
// the interop restrictions, lowers them through the pass pipeline and hands
// the results to an Emitter.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/broady/bridgec/ast"
	"github.com/broady/bridgec/checker"
	"github.com/broady/bridgec/diag"
	"github.com/broady/bridgec/passes"
)

var (
	// ErrRestrictionViolations is returned when the checker reports errors.
	// Nothing is lowered or emitted in that case.
	ErrRestrictionViolations = errors.New("restriction violations")

	// ErrNoUnits is returned when there is nothing to compile.
	ErrNoUnits = errors.New("no compilation units")
)

// Result describes a finished run.
type Result struct {
	// Problems holds the checker diagnostics.
	Problems *diag.Problems

	// Units are the lowered units in input order. It is empty if the run
	// stopped before lowering.
	Units []*ast.CompilationUnit
}

// Compile checks, lowers and emits units. A nil emitter lowers only.
// Malformed units are rejected with an *ast.InternalError before checking.
//
// Units are lowered concurrently up to cfg.Parallelism. Once a unit fails
// no further units are started, and the failures of the units already
// running are joined into the returned error. Emission happens after every
// unit is lowered, in input order.
func Compile(ctx context.Context, arena *ast.Arena, units []*ast.CompilationUnit, cfg *Config, emitter Emitter) (*Result, error) {
	if len(units) == 0 {
		return nil, ErrNoUnits
	}
	if cfg == nil {
		cfg = &Config{}
	}
	cfg = applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger

	result := &Result{Problems: diag.New()}
	for _, u := range units {
		if err := ast.Verify(u); err != nil {
			return result, fmt.Errorf("verify %s: %w", u.File, err)
		}
	}
	if !cfg.SkipCheck {
		if err := check(arena, units, result.Problems); err != nil {
			return result, err
		}
		result.Problems.Report(ctx, logger)
		if n := violations(result.Problems, cfg.FailOnWarnings); n > 0 {
			return result, fmt.Errorf("%w: %d reported", ErrRestrictionViolations, n)
		}
	}

	pipeline, err := passes.NewPipeline(cfg.pipeline()...)
	if err != nil {
		return result, fmt.Errorf("build pipeline: %w", err)
	}
	pipeline.Use(passes.LoggingInterceptor(logger))
	if cfg.Verify {
		pipeline.Use(passes.VerifyInterceptor())
	}

	if err := lower(ctx, pipeline, &passes.Env{Arena: arena, Logger: logger}, units, cfg.Parallelism); err != nil {
		return result, err
	}
	result.Units = units
	logger.InfoContext(ctx, "units lowered",
		slog.Int("units", len(units)),
		slog.Int("passes", len(pipeline.Passes())),
	)

	if emitter == nil || cfg.Format == "none" {
		return result, nil
	}
	for _, u := range units {
		if err := emitter.Emit(ctx, arena, u); err != nil {
			return result, fmt.Errorf("emit %s: %w", u.File, err)
		}
		logger.DebugContext(ctx, "unit emitted", slog.String("unit", u.File))
	}
	return result, nil
}

// check runs the checker, returning the internal error of a tree it cannot
// handle instead of panicking.
func check(arena *ast.Arena, units []*ast.CompilationUnit, problems *diag.Problems) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*ast.InternalError)
			if !ok {
				panic(r)
			}
			ie.Pass = "checker"
			err = ie
		}
	}()
	checker.Check(arena, units, problems)
	return nil
}

func violations(p *diag.Problems, warnings bool) int {
	n := p.ErrorCount()
	if warnings {
		n += len(p.Warnings())
	}
	return n
}

func lower(ctx context.Context, pipeline *passes.Pipeline, env *passes.Env, units []*ast.CompilationUnit, limit int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var (
		mu   sync.Mutex
		errs []error
	)
	for _, u := range units {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Go may have waited for a slot freed by a failing unit.
			if gctx.Err() != nil {
				return nil
			}
			if err := pipeline.Run(gctx, env, u); err != nil {
				err = fmt.Errorf("lower %s: %w", u.File, err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return err
			}
			return nil
		})
	}
	g.Wait()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	// The caller's context was cancelled without any unit failing.
	return ctx.Err()
}
