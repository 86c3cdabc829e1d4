package passes

import (
	"github.com/broady/bridgec/ast"
	"github.com/broady/bridgec/conversion"
)

// InsertWideningPrimitiveConversions makes every widening primitive
// conversion an explicit call to the runtime helper for the pair of types,
// such as Primitives.$widenIntToLong(x). Each widening site gets exactly one
// call typed as the target primitive, so running the pass again changes
// nothing.
type InsertWideningPrimitiveConversions struct{}

func (InsertWideningPrimitiveConversions) Name() string { return "InsertWideningPrimitiveConversions" }

func (InsertWideningPrimitiveConversions) Requires() []string {
	return []string{"InsertUnboxingConversions"}
}

func (InsertWideningPrimitiveConversions) Apply(env *Env, u *ast.CompilationUnit) {
	arena := env.Arena
	r := &conversion.Rewriter{
		Arena: arena,
		TypeConversion: func(to, _ ast.TypeDescriptor, e ast.Expression) ast.Expression {
			return widen(arena, to, e)
		},
		BinaryNumericPromotion: func(other ast.TypeDescriptor, operand ast.Expression) ast.Expression {
			a, ok := primitiveKind(operand.TypeDescriptor())
			if !ok {
				return operand
			}
			b, ok := conversion.PrimitiveKindOf(arena, other)
			if !ok {
				return operand
			}
			return widen(arena, arena.Primitive(ast.BinaryPromotion(a, b)), operand)
		},
		Cast: func(c *ast.CastExpression) ast.Expression {
			if to, ok := primitiveKind(c.Type); ok {
				if from, ok := primitiveKind(c.Expr.TypeDescriptor()); ok && to.IsWiderThan(from) {
					return widen(arena, c.Type, c.Expr)
				}
			}
			return c
		},
	}
	r.Apply(u)
}

func primitiveKind(t ast.TypeDescriptor) (ast.PrimitiveKind, bool) {
	p, ok := t.(*ast.PrimitiveDescriptor)
	if !ok || p.PrimitiveKind == ast.PrimitiveVoid {
		return 0, false
	}
	return p.PrimitiveKind, true
}

// widen converts e to the primitive type to when to is strictly wider than
// the type of e.
func widen(arena *ast.Arena, to ast.TypeDescriptor, e ast.Expression) ast.Expression {
	toKind, ok := primitiveKind(to)
	if !ok {
		return e
	}
	fromKind, ok := primitiveKind(e.TypeDescriptor())
	if !ok || !toKind.IsWiderThan(fromKind) {
		return e
	}
	helper := arena.Known.WideningMethod(fromKind, toKind)
	if helper == nil {
		ast.Fatalf(e, "no widening helper from %s to %s", fromKind, toKind)
	}
	return &ast.MethodCall{Positioned: ast.At(e.Pos()), Target: helper, Args: []ast.Expression{e}}
}
