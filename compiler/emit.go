package compiler

import (
	"context"
	"path"
	"strings"

	"github.com/broady/bridgec/ast"
	"github.com/broady/bridgec/ast/astjson"
	"github.com/broady/bridgec/sink"
)

// Emitter receives each lowered unit.
type Emitter interface {
	Emit(ctx context.Context, arena *ast.Arena, u *ast.CompilationUnit) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, arena *ast.Arena, u *ast.CompilationUnit) error

func (f EmitterFunc) Emit(ctx context.Context, arena *ast.Arena, u *ast.CompilationUnit) error {
	return f(ctx, arena, u)
}

// JSONEmitter writes every unit as an astjson document to Sink, at the path
// UnitPath returns.
type JSONEmitter struct {
	Sink sink.OutputSink
}

func (e *JSONEmitter) Emit(ctx context.Context, arena *ast.Arena, u *ast.CompilationUnit) error {
	data, err := astjson.Marshal(arena, u)
	if err != nil {
		return err
	}
	return e.Sink.WriteFile(ctx, UnitPath(u), append(data, '\n'))
}

// UnitPath returns the output path of u: the package as directories and
// the source file name with a .json extension, e.g. com/example/Foo.json.
func UnitPath(u *ast.CompilationUnit) string {
	base := path.Base(strings.ReplaceAll(u.File, `\`, "/"))
	if base == "." || base == "/" {
		base = "unit"
	}
	base = strings.TrimSuffix(base, path.Ext(base)) + ".json"
	if u.Package == "" {
		return base
	}
	return path.Join(strings.ReplaceAll(u.Package, ".", "/"), base)
}
