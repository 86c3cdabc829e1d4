package passes

import (
	"github.com/broady/bridgec/ast"
	"github.com/broady/bridgec/conversion"
)

// InsertBoxingConversions makes every primitive-to-reference conversion an
// explicit Box.valueOf(x) call. A primitive stored into a box of another
// kind, as in Byte b = 1, is first cast to the primitive type of the box.
type InsertBoxingConversions struct{}

func (InsertBoxingConversions) Name() string { return "InsertBoxingConversions" }

func (InsertBoxingConversions) Requires() []string {
	return []string{"InsertWideningPrimitiveConversions"}
}

func (InsertBoxingConversions) Apply(env *Env, u *ast.CompilationUnit) {
	arena := env.Arena
	r := &conversion.Rewriter{
		Arena: arena,
		TypeConversion: func(to, _ ast.TypeDescriptor, e ast.Expression) ast.Expression {
			return box(arena, to, e)
		},
		Cast: func(c *ast.CastExpression) ast.Expression {
			if _, ok := primitiveKind(c.Expr.TypeDescriptor()); !ok || ast.IsAnyPrimitive(c.Type) {
				return c
			}
			c.Expr = box(arena, c.Type, c.Expr)
			if ast.SameType(c.Expr.TypeDescriptor(), c.Type) {
				return c.Expr
			}
			return c
		},
	}
	r.Apply(u)
}

// box converts the primitive e to the reference type to.
func box(arena *ast.Arena, to ast.TypeDescriptor, e ast.Expression) ast.Expression {
	from, ok := primitiveKind(e.TypeDescriptor())
	if !ok || ast.IsAnyPrimitive(to) {
		return e
	}
	kind := from
	if target, ok := boxedKind(arena, to); ok && target != from {
		kind = target
		e = &ast.CastExpression{Positioned: ast.At(e.Pos()), Type: arena.Primitive(kind), Expr: e}
	}
	return &ast.MethodCall{Positioned: ast.At(e.Pos()), Target: arena.Known.ValueOf(kind), Args: []ast.Expression{e}}
}
