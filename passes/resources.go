package passes

import "github.com/broady/bridgec/ast"

// NormalizeTryWithResources rewrites try-with-resources statements into
// plain try statements that close the resources through the runtime's
// safeClose helper:
//
//	try (R1 r1 = a; R2 r2 = b) { body } catch (...) { ... }
//
// becomes
//
//	try {
//		R1 r1 = null;
//		R2 r2 = null;
//		Throwable $primaryExc = null;
//		try {
//			r1 = a;
//			r2 = b;
//			body
//		} catch (Throwable $exc) {
//			$primaryExc = $exc;
//			throw $exc;
//		} finally {
//			$primaryExc = Exceptions.safeClose(r2, $primaryExc);
//			$primaryExc = Exceptions.safeClose(r1, $primaryExc);
//			if ($primaryExc != null) throw $primaryExc;
//		}
//	} catch (...) { ... }
//
// The outer try is omitted when the statement has no catch or finally
// clause.
type NormalizeTryWithResources struct{}

func (NormalizeTryWithResources) Name() string       { return "NormalizeTryWithResources" }
func (NormalizeTryWithResources) Requires() []string { return nil }

func (NormalizeTryWithResources) Apply(env *Env, u *ast.CompilationUnit) {
	ast.Apply(u, nil, func(c *ast.Cursor) bool {
		if s, ok := c.Node().(*ast.TryStatement); ok && len(s.Resources) > 0 {
			c.Replace(lowerResources(env.Arena, s))
		}
		return true
	})
}

func lowerResources(arena *ast.Arena, s *ast.TryStatement) ast.Statement {
	known := arena.Known
	throwable := known.Throwable.Descriptor()

	var decls, opens []ast.Statement
	var resources []*ast.Variable
	for _, r := range s.Resources {
		switch r := r.(type) {
		case *ast.VariableDeclarationExpression:
			if len(r.Fragments) != 1 || r.Fragments[0].Initializer == nil {
				ast.Fatalf(r, "resource declaration must declare one initialized variable")
			}
			frag := r.Fragments[0]
			v := frag.Variable
			v.Final = false
			decls = append(decls, declare(v, null(arena)))
			opens = append(opens, ast.Stmt(assign(v.Reference(), frag.Initializer)))
			resources = append(resources, v)
		case *ast.VariableReference:
			resources = append(resources, r.Target)
		default:
			ast.Fatalf(r, "unexpected resource %T", r)
		}
	}

	primary := &ast.Variable{Name: "$primaryExc", Type: throwable}
	caught := &ast.Variable{Name: "$exc", Type: throwable, Final: true}
	rethrow := &ast.CatchClause{
		Exception: caught,
		Body: ast.NewBlock(
			ast.Stmt(assign(primary.Reference(), caught.Reference())),
			&ast.ThrowStatement{Expr: caught.Reference()},
		),
	}

	var closes []ast.Statement
	for i := len(resources) - 1; i >= 0; i-- {
		closeCall := &ast.MethodCall{
			Target: known.SafeClose(),
			Args:   []ast.Expression{resources[i].Reference(), primary.Reference()},
		}
		closes = append(closes, ast.Stmt(assign(primary.Reference(), closeCall)))
	}
	closes = append(closes, &ast.IfStatement{
		Cond: &ast.BinaryExpression{
			Type:  arena.Primitive(ast.PrimitiveBoolean),
			Op:    ast.OpNotEquals,
			Left:  primary.Reference(),
			Right: null(arena),
		},
		Then: &ast.ThrowStatement{Expr: primary.Reference()},
	})

	inner := &ast.TryStatement{
		Positioned: s.Positioned,
		Body:       ast.NewBlock(append(opens, s.Body.Statements...)...),
		Catches:    []*ast.CatchClause{rethrow},
		Finally:    ast.NewBlock(closes...),
	}
	stmts := append(decls, declare(primary, null(arena)), inner)

	if len(s.Catches) == 0 && s.Finally == nil {
		block := ast.NewBlock(stmts...)
		block.Positioned = s.Positioned
		return block
	}
	return &ast.TryStatement{
		Positioned: s.Positioned,
		Body:       ast.NewBlock(stmts...),
		Catches:    s.Catches,
		Finally:    s.Finally,
	}
}
