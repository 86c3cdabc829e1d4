package checker

import (
	"fmt"

	"github.com/broady/bridgec/ast"
)

// checkBodies applies the expression-level rules to every member of t in
// one traversal. Anonymous classes are checked as types of their own.
func (c *checker) checkBodies(t *ast.Type) {
	inspectBody(t, func(cur *ast.Cursor) {
		member := cur.EnclosingMember()
		switch n := cur.Node().(type) {
		case *ast.Variable:
			if !n.Parameter {
				c.errorIfEnumArray(n.Type, positionOf(n, member), fmt.Sprintf("Variable '%s'", n.Name))
			}
		case *ast.Method:
			c.checkSignatureArrays(n, n.Params, n.Descriptor, n.ReadableName())
		case *ast.FunctionExpression:
			c.checkSignatureArrays(n, n.Params, n.Descriptor, n.ReadableName())
			c.checkFunctionLambda(n)
		case *ast.Field:
			c.errorIfEnumArray(n.Descriptor.Type, n.Pos(), fmt.Sprintf("Field '%s'", n.Descriptor.ReadableName()))
		case *ast.FieldAccess:
			inferred, declared := n.Target.Type, n.Target.DeclarationDescriptor().Type
			if !ast.SameType(inferred, declared) {
				c.errorIfEnumArray(inferred, positionOf(member, n),
					fmt.Sprintf("Reference to field '%s'", n.Target.ReadableName()))
			}
		case *ast.MethodCall:
			inferred, declared := n.Target.Return, n.Target.DeclarationDescriptor().Return
			if !ast.SameType(inferred, declared) {
				c.errorIfEnumArray(inferred, positionOf(member, n),
					fmt.Sprintf("Returned type in call to method '%s'", n.Target.ReadableName()))
			}
			c.checkEnumMethodCall(n, member)
			c.checkSuperCallFromNativeSubclass(n, member)
			c.checkSystemProperty(n, member)
		case *ast.NewArray:
			c.errorIfEnumArray(n.Type, positionOf(member, n), fmt.Sprintf("Array creation '%s'", ast.Sprint(n)))
		case *ast.BinaryExpression:
			c.checkValueFieldAssignment(t, n, member)
		case *ast.InstanceOfExpression:
			c.checkInstanceOf(n, member)
		case *ast.CastExpression:
			if hasNonNativeEnumArray(n.Type) {
				c.problems.Error(positionOf(member, n), "Cannot cast to JsEnum array '%s'.", n.Type.ReadableName())
			}
		case *ast.TypeLiteral:
			if d := ast.DeclarationOf(n.Referenced); d != nil && d.IsBridgedEnum() && d.IsNative() {
				c.problems.Error(positionOf(n, member), "Cannot use native JsEnum literal '%s.class'.", n.Referenced.ReadableName())
			}
		}
	})
}

// checkSignatureArrays rejects bridged-enum arrays in parameters and the
// return type of a method or lambda.
func (c *checker) checkSignatureArrays(fn ast.Node, params []*ast.Variable, md *ast.MethodDescriptor, name string) {
	for _, p := range params {
		c.errorIfEnumArray(p.Type, positionOf(p, fn), fmt.Sprintf("Parameter '%s' in '%s'", p.Name, name))
	}
	if md == nil {
		return
	}
	c.errorIfEnumArray(md.Return, fn.Pos(), fmt.Sprintf("Return type of '%s'", name))
}

func (c *checker) checkInstanceOf(n *ast.InstanceOfExpression, member ast.Member) {
	pos := positionOf(n, member)
	test := n.Test
	d, _ := test.(*ast.DeclaredTypeDescriptor)
	switch {
	case d != nil && d.Decl.IsNative() && d.Decl.IsInterface():
		c.problems.Error(pos, "Cannot do instanceof against native JsType interface '%s'.", test.ReadableName())
	case d != nil && d.Decl.IsFunctionImplementation():
		c.problems.Error(pos, "Cannot do instanceof against JsFunction implementation '%s'.", test.ReadableName())
	case d != nil && d.Decl.IsBridgedEnum() && d.Decl.IsNative():
		c.problems.Error(pos, "Cannot do instanceof against native JsEnum '%s'.", test.ReadableName())
	case hasNonNativeEnumArray(test):
		c.problems.Error(pos, "Cannot do instanceof against JsEnum array '%s'.", test.ReadableName())
	}
}

// checkFunctionLambda rejects lambdas implementing a bridge function as part
// of an intersection type.
func (c *checker) checkFunctionLambda(fn *ast.FunctionExpression) {
	it, ok := fn.Type.(*ast.IntersectionTypeDescriptor)
	if !ok {
		return
	}
	for _, t := range it.Types {
		if d := ast.DeclarationOf(t); d != nil && d.IsBridgeFunction() {
			c.problems.Error(fn.Pos(), "JsFunction lambda can only implement the JsFunction interface.")
			return
		}
	}
}

func (c *checker) checkSystemProperty(call *ast.MethodCall, member ast.Member) {
	target := call.Target
	if target.Enclosing != c.arena.Known.System || target.Name != "getProperty" || len(call.Args) == 0 {
		return
	}
	if _, ok := call.Args[0].(*ast.StringLiteral); !ok {
		c.problems.Error(positionOf(call, member), "Method '%s' can only take a string literal as its first parameter", target.ReadableName())
	}
}

// checkSuperCallFromNativeSubclass rejects super.equals() and the like in
// instance methods of classes extending a native class.
func (c *checker) checkSuperCallFromNativeSubclass(call *ast.MethodCall, member ast.Member) {
	if _, ok := call.Qualifier.(*ast.SuperReference); !ok || member == nil {
		return
	}
	desc := member.MemberDescriptor()
	if desc == nil || member.IsStatic() {
		return
	}
	info := desc.Info()
	if info.Synthetic || info.IsOverlay() || !info.Enclosing.ExtendsNativeClass() {
		return
	}
	if m, ok := member.(*ast.Method); ok && m.IsConstructor() {
		return
	}
	if call.Target.IsOrOverridesObjectMethod() {
		c.problems.Error(positionOf(call, member), "Cannot use 'super' to call '%s' from a subclass of a native class.", call.Target.ReadableName())
	}
}
