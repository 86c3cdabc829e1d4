// Package passes lowers checked compilation units one construct at a time.
//
// Each Pass rewrites a unit in place. A Pipeline runs passes in a fixed
// order and turns the internal errors they raise into returned errors.
// Interceptors wrap every pass run, the way handler interceptors wrap calls.
package passes

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-set/v3"

	"github.com/broady/bridgec/ast"
)

// Env is shared by every pass of one compilation run.
type Env struct {
	Arena  *ast.Arena
	Logger *slog.Logger

	mu         sync.Mutex
	companions map[*ast.MethodDescriptor]*ast.MethodDescriptor
}

// Pass is one lowering step.
type Pass interface {
	Name() string

	// Requires names the passes that must run earlier in the same pipeline.
	Requires() []string

	// Apply rewrites u. Invalid input shapes are reported with ast.Fatalf.
	Apply(env *Env, u *ast.CompilationUnit)
}

// RunFunc runs one pass over one unit.
type RunFunc func(ctx context.Context, env *Env, u *ast.CompilationUnit) error

// Interceptor wraps the run of pass p. It calls next to continue the chain.
type Interceptor func(ctx context.Context, p Pass, env *Env, u *ast.CompilationUnit, next RunFunc) error

// Pipeline is an ordered list of passes.
type Pipeline struct {
	passes       []Pass
	interceptors []Interceptor
}

// NewPipeline returns a pipeline running passes in order. It fails if a
// pass name repeats or a pass requires one that does not run before it.
func NewPipeline(passes ...Pass) (*Pipeline, error) {
	seen := set.New[string](len(passes))
	for _, p := range passes {
		for _, req := range p.Requires() {
			if !seen.Contains(req) {
				return nil, fmt.Errorf("pass %s requires %s to run before it", p.Name(), req)
			}
		}
		if !seen.Insert(p.Name()) {
			return nil, fmt.Errorf("pass %s appears twice", p.Name())
		}
	}
	return &Pipeline{passes: passes}, nil
}

// Use appends interceptors. The first interceptor added is the outermost.
func (p *Pipeline) Use(interceptors ...Interceptor) *Pipeline {
	p.interceptors = append(p.interceptors, interceptors...)
	return p
}

// Passes returns the passes in run order.
func (p *Pipeline) Passes() []Pass { return append([]Pass(nil), p.passes...) }

// Run applies every pass to u in order and stops at the first failure.
// Internal errors are returned as *ast.InternalError with the pass name
// set.
func (p *Pipeline) Run(ctx context.Context, env *Env, u *ast.CompilationUnit) error {
	for _, pass := range p.passes {
		run := chain(pass, p.interceptors, func(ctx context.Context, env *Env, u *ast.CompilationUnit) error {
			return apply(pass, env, u)
		})
		if err := run(ctx, env, u); err != nil {
			return err
		}
	}
	return nil
}

// chain combines interceptors around final. The first interceptor runs
// first.
func chain(pass Pass, interceptors []Interceptor, final RunFunc) RunFunc {
	run := final
	for i := len(interceptors) - 1; i >= 0; i-- {
		current, next := interceptors[i], run
		run = func(ctx context.Context, env *Env, u *ast.CompilationUnit) error {
			return current(ctx, pass, env, u, next)
		}
	}
	return run
}

func apply(p Pass, env *Env, u *ast.CompilationUnit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*ast.InternalError)
			if !ok {
				panic(r)
			}
			err = withPass(ie, p)
		}
	}()
	p.Apply(env, u)
	return nil
}

func withPass(ie *ast.InternalError, p Pass) *ast.InternalError {
	if ie.Pass == "" {
		ie.Pass = p.Name()
	}
	return ie
}

// Default returns the standard lowering order.
func Default() []Pass {
	return []Pass{
		NormalizeTryWithResources{},
		NormalizeLambdas{},
		NormalizeEnumClasses{},
		DevirtualizeOverlayMethods{},
		NormalizeConstructors{},
		InsertUnboxingConversions{},
		InsertWideningPrimitiveConversions{},
		InsertBoxingConversions{},
	}
}

// Lookup returns the standard pass with the given name.
func Lookup(name string) (Pass, bool) {
	for _, p := range Default() {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}
