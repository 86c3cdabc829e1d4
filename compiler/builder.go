package compiler

import (
	"context"
	"log/slog"

	"github.com/broady/bridgec/ast"
	"github.com/broady/bridgec/passes"
	"github.com/broady/bridgec/sink"
)

// Builder provides a fluent API for a compilation run.
// Create with FromUnits and configure with method chaining.
//
// Example:
//
//	compiler.FromUnits(arena, units...).
//	    Parallelism(4).
//	    ToSink(ctx, sink.NewFilesystemSink("out"))
type Builder struct {
	arena *ast.Arena
	units []*ast.CompilationUnit
	cfg   Config
}

// FromUnits creates a Builder for units, whose types are interned in arena.
func FromUnits(arena *ast.Arena, units ...*ast.CompilationUnit) *Builder {
	return &Builder{arena: arena, units: units}
}

// WithConfig replaces the configuration. Later calls on the builder still
// apply on top of it.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithPass appends p to the pipeline, after the named passes.
func (b *Builder) WithPass(p passes.Pass) *Builder {
	b.cfg.ExtraPasses = append(b.cfg.ExtraPasses, p)
	return b
}

// Passes selects the named passes instead of the standard pipeline.
func (b *Builder) Passes(names ...string) *Builder {
	b.cfg.Passes = names
	return b
}

// Parallelism sets how many units are lowered at once.
func (b *Builder) Parallelism(n int) *Builder {
	b.cfg.Parallelism = n
	return b
}

// SkipCheck disables the restriction checker.
func (b *Builder) SkipCheck() *Builder {
	b.cfg.SkipCheck = true
	return b
}

// Verify checks tree invariants after every pass.
func (b *Builder) Verify() *Builder {
	b.cfg.Verify = true
	return b
}

// Logger sets the logger of the run.
func (b *Builder) Logger(l *slog.Logger) *Builder {
	b.cfg.Logger = l
	return b
}

// ToSink lowers the units and writes them as JSON documents to s.
// This is a terminal operation.
func (b *Builder) ToSink(ctx context.Context, s sink.OutputSink) (*Result, error) {
	return Compile(ctx, b.arena, b.units, &b.cfg, &JSONEmitter{Sink: s})
}

// ToDir lowers the units and writes them below dir.
func (b *Builder) ToDir(ctx context.Context, dir string) (*Result, error) {
	return b.ToSink(ctx, sink.NewFilesystemSink(dir))
}

// Lower checks and lowers the units in place without emitting them.
func (b *Builder) Lower(ctx context.Context) (*Result, error) {
	return Compile(ctx, b.arena, b.units, &b.cfg, nil)
}
