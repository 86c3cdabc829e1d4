package ast

import "fmt"

// Verify checks the structural invariants every pass relies on: resolved
// types and targets, call arity, constructor delegation placement and
// return shapes. It reports the first violation as an *InternalError.
func Verify(root Node) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*InternalError)
			if !ok {
				panic(r)
			}
			err = ie
		}
	}()
	Apply(root, func(c *Cursor) bool {
		verifyNode(c)
		return true
	}, nil)
	return nil
}

func verifyNode(c *Cursor) {
	switch n := c.Node().(type) {
	case *Type:
		if n.Declaration == nil {
			Fatalf(n, "type without declaration")
		}
	case *Method:
		if n.Descriptor == nil {
			Fatalf(n, "method without descriptor")
		}
		if len(n.Params) != len(n.Descriptor.Parameters) {
			Fatalf(n, "%s declares %d parameters but its descriptor has %d",
				n.Descriptor.Name, len(n.Params), len(n.Descriptor.Parameters))
		}
	case *Field:
		if n.Descriptor == nil {
			Fatalf(n, "field without descriptor")
		}
	case *Variable:
		if n.Type == nil {
			Fatalf(n, "variable %s has no type", n.Name)
		}
	case *VariableReference:
		if n.Target == nil {
			Fatalf(n, "unresolved variable reference")
		}
	case *FieldAccess:
		if n.Target == nil {
			Fatalf(n, "unresolved field access")
		}
		if !n.Target.Static && n.Qualifier == nil {
			Fatalf(n, "instance field %s accessed without qualifier", n.Target.Name)
		}
	case *MethodCall:
		if n.Target == nil {
			Fatalf(n, "unresolved method call")
		}
		verifyArity(n, n.Target, n.Args)
		if IsConstructorInvocation(n) {
			verifyConstructorInvocation(c, n)
		} else if !n.Target.Static && n.Qualifier == nil {
			Fatalf(n, "instance method %s called without qualifier", n.Target.Name)
		}
	case *NewInstance:
		if n.Target == nil || !n.Target.Constructor {
			Fatalf(n, "instance creation without constructor")
		}
		verifyArity(n, n.Target, n.Args)
	case *ReturnStatement:
		ret := c.ReturnType()
		void := ret == nil || IsPrimitive(ret, PrimitiveVoid)
		if void && n.Expr != nil {
			Fatalf(n, "value returned from void function")
		}
		if !void && n.Expr == nil {
			Fatalf(n, "missing return value")
		}
	case Expression:
		if n.TypeDescriptor() == nil {
			Fatalf(n, "%T has no type", n)
		}
	}
}

func verifyArity(n Node, target *MethodDescriptor, args []Expression) {
	want := len(target.Parameters)
	if len(args) == want || (target.Varargs && len(args) >= want-1) {
		return
	}
	Fatalf(n, "%s expects %s, got %d", target.ReadableName(), plural(want, "argument"), len(args))
}

func verifyConstructorInvocation(c *Cursor, call *MethodCall) {
	m, ok := c.EnclosingMember().(*Method)
	if !ok || !m.IsConstructor() || ConstructorInvocation(m) != call {
		Fatalf(call, "constructor invocation outside the first statement of a constructor")
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
