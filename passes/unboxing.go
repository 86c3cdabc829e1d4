package passes

import (
	"github.com/broady/bridgec/ast"
	"github.com/broady/bridgec/conversion"
)

// InsertUnboxingConversions makes every boxed-to-primitive conversion an
// explicit xValue() call: in assignments, arguments and returns to
// primitive slots, in numeric and boolean operators, and in casts from
// boxes or from Object, Number and other supertypes of the boxes.
//
// Compound assignments and increments of boxed variables, fields and array
// elements are first expanded into plain assignments, so that the value
// stored back can be boxed by InsertBoxingConversions.
type InsertUnboxingConversions struct{}

func (InsertUnboxingConversions) Name() string       { return "InsertUnboxingConversions" }
func (InsertUnboxingConversions) Requires() []string { return nil }

func (InsertUnboxingConversions) Apply(env *Env, u *ast.CompilationUnit) {
	arena := env.Arena
	expandBoxedUpdates(arena, u)
	r := &conversion.Rewriter{
		Arena: arena,
		TypeConversion: func(to, _ ast.TypeDescriptor, e ast.Expression) ast.Expression {
			if !ast.IsAnyPrimitive(to) {
				return e
			}
			return unbox(arena, e)
		},
		BinaryNumericPromotion: func(_ ast.TypeDescriptor, operand ast.Expression) ast.Expression {
			return unbox(arena, operand)
		},
		Cast: func(c *ast.CastExpression) ast.Expression {
			to, ok := c.Type.(*ast.PrimitiveDescriptor)
			if !ok || ast.IsAnyPrimitive(c.Expr.TypeDescriptor()) {
				return c
			}
			if _, boxed := boxedKind(arena, c.Expr.TypeDescriptor()); !boxed {
				// (int) o is (int) (Integer) o.
				c.Expr = &ast.CastExpression{
					Positioned: c.Positioned,
					Type:       arena.Known.Boxes[to.PrimitiveKind].Descriptor(),
					Expr:       c.Expr,
				}
			}
			c.Expr = unbox(arena, c.Expr)
			if ast.SameType(c.Expr.TypeDescriptor(), to) {
				return c.Expr
			}
			return c
		},
	}
	r.Apply(u)
}

// boxedKind returns the primitive kind boxed by t, if t is a box.
func boxedKind(arena *ast.Arena, t ast.TypeDescriptor) (ast.PrimitiveKind, bool) {
	if _, ok := t.(*ast.DeclaredTypeDescriptor); !ok {
		return 0, false
	}
	return conversion.PrimitiveKindOf(arena, t)
}

// unbox returns e.xValue() if e is boxed, e otherwise.
func unbox(arena *ast.Arena, e ast.Expression) ast.Expression {
	kind, ok := boxedKind(arena, e.TypeDescriptor())
	if !ok {
		return e
	}
	return &ast.MethodCall{Positioned: ast.At(e.Pos()), Qualifier: e, Target: arena.Known.PrimitiveValue(kind)}
}

// expandBoxedUpdates rewrites x op= y and x++ on boxed x into
// x = (T) (x op y), where T is the primitive type x boxes. Qualifiers and
// indexes with side effects are saved in temporaries first, and a postfix
// update whose value is used yields the saved old value.
func expandBoxedUpdates(arena *ast.Arena, u *ast.CompilationUnit) {
	ast.Apply(u, nil, func(c *ast.Cursor) bool {
		switch n := c.Node().(type) {
		case *ast.BinaryExpression:
			if !n.Op.IsCompoundAssignment() {
				return true
			}
			if kind, ok := boxedKind(arena, n.Left.TypeDescriptor()); ok {
				temps, lhs := stabilize(n.Left)
				update := storeUpdate(arena, n, lhs, duplicate(lhs), n.Op.Underlying(), n.Right, kind)
				c.Replace(sequence(n, append(temps, update)...))
			}
		case *ast.UnaryExpression:
			if !n.Op.IsIncrementOrDecrement() {
				return true
			}
			kind, ok := boxedKind(arena, n.Operand.TypeDescriptor())
			if !ok {
				return true
			}
			op := ast.OpPlus
			if n.Op == ast.OpPreDecrement || n.Op == ast.OpPostDecrement {
				op = ast.OpMinus
			}
			temps, lhs := stabilize(n.Operand)
			if _, statement := c.Parent().(*ast.ExpressionStatement); !n.Op.IsPostfix() || statement {
				update := storeUpdate(arena, n, lhs, duplicate(lhs), op, intLiteral(arena, 1), kind)
				c.Replace(sequence(n, append(temps, update)...))
				return true
			}
			old := &ast.Variable{Name: "$value", Type: lhs.TypeDescriptor(), Final: true}
			update := storeUpdate(arena, n, lhs, old.Reference(), op, intLiteral(arena, 1), kind)
			c.Replace(sequence(n, append(temps, declaration(old, duplicate(lhs)), update, old.Reference())...))
		}
		return true
	})
}

// storeUpdate builds lhs = (T) (current op rhs).
func storeUpdate(arena *ast.Arena, n ast.Node, lhs, current ast.Expression, op ast.BinaryOperator, rhs ast.Expression, kind ast.PrimitiveKind) ast.Expression {
	value := &ast.BinaryExpression{
		Positioned: ast.At(n.Pos()),
		Type:       arena.Primitive(updateResultKind(arena, op, kind, rhs)),
		Op:         op,
		Left:       current,
		Right:      rhs,
	}
	var stored ast.Expression = value
	if value.Type.(*ast.PrimitiveDescriptor).PrimitiveKind != kind {
		stored = &ast.CastExpression{Positioned: value.Positioned, Type: arena.Primitive(kind), Expr: value}
	}
	return &ast.BinaryExpression{Positioned: value.Positioned, Type: lhs.TypeDescriptor(), Op: ast.OpAssign, Left: lhs, Right: stored}
}

// sequence returns the single expression in exprs, or a multi-expression
// evaluating all of them.
func sequence(n ast.Node, exprs ...ast.Expression) ast.Expression {
	if len(exprs) == 1 {
		return exprs[0]
	}
	return &ast.MultiExpression{Positioned: ast.At(n.Pos()), Exprs: exprs}
}

// stabilize saves the qualifier, array and index of lhs in temporaries
// unless they can be evaluated twice. It returns the temporary
// declarations and the location rewritten to use them.
func stabilize(lhs ast.Expression) ([]ast.Expression, ast.Expression) {
	var temps []ast.Expression
	save := func(name string, e ast.Expression) ast.Expression {
		if stable(e) {
			return e
		}
		v := &ast.Variable{Name: name, Type: e.TypeDescriptor(), Final: true}
		temps = append(temps, declaration(v, e))
		return v.Reference()
	}
	switch e := lhs.(type) {
	case *ast.FieldAccess:
		if e.Qualifier == nil {
			return nil, e
		}
		return temps, &ast.FieldAccess{Positioned: e.Positioned, Qualifier: save("$qualifier", e.Qualifier), Target: e.Target}
	case *ast.ArrayAccess:
		array := save("$array", e.Array)
		index := save("$index", e.Index)
		return temps, &ast.ArrayAccess{Positioned: e.Positioned, Array: array, Index: index}
	}
	return nil, lhs
}

// stable reports whether e can be evaluated twice without side effects.
func stable(e ast.Expression) bool {
	switch e := e.(type) {
	case *ast.VariableReference, *ast.ThisReference, *ast.NumberLiteral:
		return true
	case *ast.FieldAccess:
		return e.Qualifier == nil || stable(e.Qualifier)
	}
	return false
}

// updateResultKind returns the type of x op y when x has kind k.
func updateResultKind(arena *ast.Arena, op ast.BinaryOperator, k ast.PrimitiveKind, rhs ast.Expression) ast.PrimitiveKind {
	if k == ast.PrimitiveBoolean {
		return k
	}
	if op.IsShift() {
		return ast.UnaryPromotion(k)
	}
	other, ok := conversion.PrimitiveKindOf(arena, rhs.TypeDescriptor())
	if !ok {
		ast.Fatalf(rhs, "operand of type %s in update of a boxed %s", rhs.TypeDescriptor().ReadableName(), k)
	}
	return ast.BinaryPromotion(k, other)
}

// duplicate returns a second reference to the location lhs denotes, which
// must have been stabilized.
func duplicate(lhs ast.Expression) ast.Expression {
	switch e := lhs.(type) {
	case *ast.VariableReference:
		return e.Target.Reference()
	case *ast.ThisReference:
		return &ast.ThisReference{Type: e.Type}
	case *ast.NumberLiteral:
		return &ast.NumberLiteral{Type: e.Type, Value: e.Value}
	case *ast.FieldAccess:
		if e.Qualifier == nil {
			return fieldOf(nil, e.Target)
		}
		return fieldOf(duplicate(e.Qualifier), e.Target)
	case *ast.ArrayAccess:
		return &ast.ArrayAccess{Array: duplicate(e.Array), Index: duplicate(e.Index)}
	}
	ast.Fatalf(lhs, "cannot expand update of %T with side effects", lhs)
	return nil
}
