// Package conversion locates the implicit conversion sites of a tree and
// hands each one to a pluggable policy.
//
// Four contexts are distinguished:
//
//   - type conversion: assignments, initializers, returns, arguments, array
//     values and conditions, where the target type is known;
//   - binary numeric promotion: both operands of numeric operators, where
//     the target is computed from the two operand types;
//   - casts;
//   - member qualifiers: receivers of field accesses and method calls,
//     which default policies leave untouched.
//
// Unary numeric promotion (array indices and dimensions, unary and shift
// operands) is presented as a type conversion to the promoted type.
package conversion

import "github.com/broady/bridgec/ast"

// Rewriter calls its hooks at every conversion site. A nil hook leaves the
// site unchanged; a hook returning its input leaves it unchanged too.
type Rewriter struct {
	// Arena resolves promoted primitive types and box declarations.
	Arena *ast.Arena

	// TypeConversion rewrites e where a value of type to is expected.
	// declared is the corresponding type before specialization, which
	// differs from to only for arguments of generic methods.
	TypeConversion func(to, declared ast.TypeDescriptor, e ast.Expression) ast.Expression

	// BinaryNumericPromotion rewrites one operand of a numeric binary
	// operator; other is the type of the opposite operand.
	BinaryNumericPromotion func(other ast.TypeDescriptor, operand ast.Expression) ast.Expression

	// Cast rewrites a cast expression. The result replaces the cast.
	Cast func(c *ast.CastExpression) ast.Expression

	// MemberQualifier rewrites the receiver of a member access; to is the
	// member's enclosing type.
	MemberQualifier func(to, declared ast.TypeDescriptor, e ast.Expression) ast.Expression

	// Shallow stops the traversal at class bodies nested below the root.
	Shallow bool
}

// Apply rewrites every conversion site under root, children first, and
// returns the possibly replaced root.
func (r *Rewriter) Apply(root ast.Node) ast.Node {
	var pre ast.ApplyFunc
	if r.Shallow {
		pre = func(c *ast.Cursor) bool {
			_, nested := c.Node().(*ast.Type)
			return !nested || c.Parent() == nil
		}
	}
	return ast.Apply(root, pre, r.post)
}

func (r *Rewriter) post(c *ast.Cursor) bool {
	switch n := c.Node().(type) {
	case *ast.Field:
		if n.Initializer != nil {
			n.Initializer = r.convert(n.Descriptor.Type, n.Descriptor.DeclarationDescriptor().Type, n.Initializer)
		}
	case *ast.VariableDeclarationFragment:
		if n.Initializer != nil {
			n.Initializer = r.convert(n.Variable.Type, n.Variable.Type, n.Initializer)
		}
	case *ast.ReturnStatement:
		if n.Expr != nil {
			if ret := c.ReturnType(); ret != nil && !ast.IsPrimitive(ret, ast.PrimitiveVoid) {
				n.Expr = r.convert(ret, declaredReturnType(c), n.Expr)
			}
		}
	case *ast.IfStatement:
		n.Cond = r.condition(n.Cond)
	case *ast.WhileStatement:
		n.Cond = r.condition(n.Cond)
	case *ast.ConditionalExpression:
		n.Cond = r.condition(n.Cond)
		n.Then = r.convert(n.Type, n.Type, n.Then)
		n.Else = r.convert(n.Type, n.Type, n.Else)
	case *ast.MethodCall:
		if n.Qualifier != nil && r.MemberQualifier != nil && !isSelfReference(n.Qualifier) {
			to := n.Target.Enclosing.Descriptor()
			n.Qualifier = r.qualifier(to, n.Target.DeclarationDescriptor().Enclosing.Descriptor(), n.Qualifier)
		}
		r.arguments(n.Target, n.Args)
	case *ast.NewInstance:
		r.arguments(n.Target, n.Args)
	case *ast.FieldAccess:
		if n.Qualifier != nil && r.MemberQualifier != nil && !isSelfReference(n.Qualifier) {
			to := n.Target.Enclosing.Descriptor()
			n.Qualifier = r.qualifier(to, n.Target.DeclarationDescriptor().Enclosing.Descriptor(), n.Qualifier)
		}
	case *ast.ArrayAccess:
		n.Index = r.unaryPromotion(n.Index)
	case *ast.NewArray:
		for i, d := range n.Dimensions {
			n.Dimensions[i] = r.unaryPromotion(d)
		}
	case *ast.ArrayLiteral:
		for i, v := range n.Values {
			n.Values[i] = r.convert(n.Type.Component, n.Type.Component, v)
		}
	case *ast.UnaryExpression:
		switch n.Op {
		case ast.OpNot:
			n.Operand = r.condition(n.Operand)
		case ast.OpNegate, ast.OpUnaryPlus, ast.OpComplement:
			n.Operand = r.unaryPromotion(n.Operand)
		}
	case *ast.BinaryExpression:
		r.binary(n)
	case *ast.CastExpression:
		if r.Cast != nil {
			if e := r.Cast(n); e != nil && e != ast.Expression(n) {
				c.Replace(e)
			}
		}
	}
	return true
}

func (r *Rewriter) binary(n *ast.BinaryExpression) {
	left, right := n.Left.TypeDescriptor(), n.Right.TypeDescriptor()
	switch {
	case n.Op == ast.OpAssign:
		n.Right = r.convert(left, left, n.Right)

	case n.Op.Underlying() == ast.OpPlus && (ast.IsString(left) || ast.IsString(right)):
		// String concatenation converts its operands on its own.

	case n.Op.IsShift():
		if !n.Op.IsAssignment() {
			n.Left = r.unaryPromotion(n.Left)
		}
		n.Right = r.unaryPromotion(n.Right)

	case n.Op.IsShortCircuit():
		n.Left = r.condition(n.Left)
		n.Right = r.condition(n.Right)

	case r.isNumeric(left) && r.isNumeric(right):
		if n.Op.IsEquality() && !ast.IsAnyPrimitive(left) && !ast.IsAnyPrimitive(right) {
			// Two boxes compare by identity.
			return
		}
		if !n.Op.IsAssignment() {
			n.Left = r.promote(right, n.Left)
		}
		n.Right = r.promote(left, n.Right)

	case r.isBoolean(left) && r.isBoolean(right):
		if n.Op.IsEquality() && !ast.IsAnyPrimitive(left) && !ast.IsAnyPrimitive(right) {
			return
		}
		boolean := r.Arena.Primitive(ast.PrimitiveBoolean)
		if !n.Op.IsAssignment() {
			n.Left = r.convert(boolean, boolean, n.Left)
		}
		n.Right = r.convert(boolean, boolean, n.Right)
	}
}

// arguments converts each argument to its parameter type. Trailing
// arguments of a varargs call convert to the component type unless a
// single array is passed in the varargs position.
func (r *Rewriter) arguments(target *ast.MethodDescriptor, args []ast.Expression) {
	params := target.Parameters
	declared := target.DeclarationDescriptor().Parameters
	n := len(params)
	for i, arg := range args {
		switch {
		case target.Varargs && i >= n-1 && !isVarargsArray(target, args):
			to := params[n-1].Type.(*ast.ArrayTypeDescriptor).Component
			decl := to
			if d, ok := declared[n-1].Type.(*ast.ArrayTypeDescriptor); ok {
				decl = d.Component
			}
			args[i] = r.convert(to, decl, arg)
		case i < n:
			args[i] = r.convert(params[i].Type, declared[i].Type, arg)
		default:
			ast.Fatalf(arg, "too many arguments for %s", target.ReadableName())
		}
	}
}

func isVarargsArray(target *ast.MethodDescriptor, args []ast.Expression) bool {
	n := len(target.Parameters)
	if len(args) != n {
		return false
	}
	last := args[n-1].TypeDescriptor()
	if _, ok := last.(*ast.NullTypeDescriptor); ok {
		return true
	}
	return ast.IsAssignableTo(last, target.Parameters[n-1].Type)
}

func (r *Rewriter) convert(to, declared ast.TypeDescriptor, e ast.Expression) ast.Expression {
	if r.TypeConversion == nil || e == nil {
		return e
	}
	return orig(e, r.TypeConversion(to, declared, e))
}

func (r *Rewriter) promote(other ast.TypeDescriptor, operand ast.Expression) ast.Expression {
	if r.BinaryNumericPromotion == nil {
		return operand
	}
	return orig(operand, r.BinaryNumericPromotion(other, operand))
}

func (r *Rewriter) qualifier(to, declared ast.TypeDescriptor, e ast.Expression) ast.Expression {
	return orig(e, r.MemberQualifier(to, declared, e))
}

// condition converts e to boolean.
func (r *Rewriter) condition(e ast.Expression) ast.Expression {
	boolean := r.Arena.Primitive(ast.PrimitiveBoolean)
	return r.convert(boolean, boolean, e)
}

// unaryPromotion converts a numeric operand to its promoted type.
func (r *Rewriter) unaryPromotion(e ast.Expression) ast.Expression {
	k, ok := r.PrimitiveKind(e.TypeDescriptor())
	if !ok || !k.IsNumeric() {
		return e
	}
	to := r.Arena.Primitive(ast.UnaryPromotion(k))
	return r.convert(to, to, e)
}

// PrimitiveKind returns the primitive kind of t, looking through boxes.
func (r *Rewriter) PrimitiveKind(t ast.TypeDescriptor) (ast.PrimitiveKind, bool) {
	return PrimitiveKindOf(r.Arena, t)
}

func (r *Rewriter) isNumeric(t ast.TypeDescriptor) bool {
	k, ok := r.PrimitiveKind(t)
	return ok && k.IsNumeric()
}

func (r *Rewriter) isBoolean(t ast.TypeDescriptor) bool {
	k, ok := r.PrimitiveKind(t)
	return ok && k == ast.PrimitiveBoolean
}

// PrimitiveKindOf returns the primitive kind of t, or of the primitive t
// boxes.
func PrimitiveKindOf(arena *ast.Arena, t ast.TypeDescriptor) (ast.PrimitiveKind, bool) {
	switch t := t.(type) {
	case *ast.PrimitiveDescriptor:
		return t.PrimitiveKind, t.PrimitiveKind != ast.PrimitiveVoid
	case *ast.DeclaredTypeDescriptor:
		return arena.Known.UnboxedKind(t.Decl)
	}
	return 0, false
}

func orig(e, rewritten ast.Expression) ast.Expression {
	if rewritten == nil {
		return e
	}
	return rewritten
}

func isSelfReference(e ast.Expression) bool {
	switch e.(type) {
	case *ast.ThisReference, *ast.SuperReference:
		return true
	}
	return false
}

func declaredReturnType(c *ast.Cursor) ast.TypeDescriptor {
	switch f := c.EnclosingFunction().(type) {
	case *ast.Method:
		return f.Descriptor.DeclarationDescriptor().Return
	case *ast.FunctionExpression:
		return f.Descriptor.DeclarationDescriptor().Return
	}
	return c.ReturnType()
}
