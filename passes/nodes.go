package passes

import "github.com/broady/bridgec/ast"

// typesOf returns every type of u, nested and anonymous types included, in
// traversal order.
func typesOf(u *ast.CompilationUnit) []*ast.Type {
	var types []*ast.Type
	ast.Inspect(u, func(n ast.Node) bool {
		if t, ok := n.(*ast.Type); ok {
			types = append(types, t)
		}
		return true
	})
	return types
}

func thisOf(d *ast.TypeDeclaration) *ast.ThisReference {
	return &ast.ThisReference{Type: d.Descriptor()}
}

func fieldOf(qualifier ast.Expression, f *ast.FieldDescriptor) *ast.FieldAccess {
	return &ast.FieldAccess{Qualifier: qualifier, Target: f}
}

func assign(lhs, rhs ast.Expression) *ast.BinaryExpression {
	return &ast.BinaryExpression{Type: lhs.TypeDescriptor(), Op: ast.OpAssign, Left: lhs, Right: rhs}
}

func declare(v *ast.Variable, init ast.Expression) *ast.ExpressionStatement {
	return ast.Stmt(declaration(v, init))
}

func declaration(v *ast.Variable, init ast.Expression) *ast.VariableDeclarationExpression {
	return &ast.VariableDeclarationExpression{
		Fragments: []*ast.VariableDeclarationFragment{{Variable: v, Initializer: init}},
	}
}

func null(arena *ast.Arena) *ast.NullLiteral { return &ast.NullLiteral{Type: arena.Null()} }

func intLiteral(arena *ast.Arena, v int) *ast.NumberLiteral {
	return &ast.NumberLiteral{Type: arena.Primitive(ast.PrimitiveInt), Value: float64(v)}
}

func stringLiteral(arena *ast.Arena, s string) *ast.StringLiteral {
	return &ast.StringLiteral{Type: arena.Known.String.Descriptor(), Value: s}
}

// superCall builds super(args...) to ctor, as seen from a subclass whose
// superclass is super.
func superCall(super *ast.DeclaredTypeDescriptor, ctor *ast.MethodDescriptor, args ...ast.Expression) *ast.ExpressionStatement {
	return ast.Stmt(&ast.MethodCall{Qualifier: &ast.SuperReference{Type: super}, Target: ctor, Args: args})
}

// parameter returns a fresh parameter variable.
func parameter(name string, t ast.TypeDescriptor) *ast.Variable {
	return &ast.Variable{Name: name, Type: t, Parameter: true}
}

// parameterDescriptors describes params in order.
func parameterDescriptors(params []*ast.Variable) []ast.ParameterDescriptor {
	descs := make([]ast.ParameterDescriptor, len(params))
	for i, p := range params {
		descs[i] = ast.ParameterDescriptor{Type: p.Type}
	}
	return descs
}

func references(vars []*ast.Variable) []ast.Expression {
	refs := make([]ast.Expression, len(vars))
	for i, v := range vars {
		refs[i] = v.Reference()
	}
	return refs
}

// prepend returns xs with head in front, without aliasing xs.
func prepend[T any](xs []T, head ...T) []T {
	return append(append(make([]T, 0, len(head)+len(xs)), head...), xs...)
}

// insertAt returns xs with x inserted at index i.
func insertAt[T any](xs []T, i int, x T) []T {
	xs = append(xs, x)
	copy(xs[i+1:], xs[i:])
	xs[i] = x
	return xs
}

// replaceThis replaces the references to the current instance in body,
// outside nested class bodies, with the result of with.
func replaceThis(body ast.Node, with func(*ast.ThisReference) ast.Expression) {
	ast.Apply(body, func(c *ast.Cursor) bool {
		switch n := c.Node().(type) {
		case *ast.Type:
			return false
		case *ast.ThisReference:
			c.Replace(with(n))
			return false
		}
		return true
	}, nil)
}
