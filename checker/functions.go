package checker

import "github.com/broady/bridgec/ast"

func (c *checker) checkBridgeFunction(t *ast.Type) {
	d := t.Declaration
	name := d.ReadableName()
	if !d.Functional {
		c.problems.Error(t.Pos(), "JsFunction '%s' has to be a functional interface.", name)
		return
	}
	if len(d.Interfaces) > 0 {
		c.problems.Error(t.Pos(), "JsFunction '%s' cannot extend other interfaces.", name)
	}
	if d.IsExposed() {
		c.problems.Error(t.Pos(), "'%s' cannot be both a JsFunction and a JsType at the same time.", name)
	}
	for _, m := range t.Members {
		c.checkMemberOfBridgeFunction(m)
	}
}

func (c *checker) checkMemberOfBridgeFunction(m ast.Member) {
	const what = "JsFunction interface"
	desc := m.MemberDescriptor()
	if desc == nil || desc.Info().Synthetic {
		return
	}
	if !c.checkNotExternalMember(m, what) {
		return
	}
	if desc.Info().External.Function {
		return
	}
	c.checkMustBeOverlay(m, what)
}

func (c *checker) checkFunctionImplementation(t *ast.Type) {
	d := t.Declaration
	name := d.ReadableName()
	if !d.Final && !d.Anonymous {
		c.problems.Error(t.Pos(), "JsFunction implementation '%s' must be final.", name)
	}
	if d.IsExposed() {
		c.problems.Error(t.Pos(), "'%s' cannot be both a JsFunction implementation and a JsType at the same time.", name)
	}
	if len(d.Interfaces) != 1 {
		c.problems.Error(t.Pos(), "JsFunction implementation '%s' cannot implement more than one interface.", name)
		return
	}
	if d.Super == nil || !ast.IsObject(d.Super) {
		c.problems.Error(t.Pos(), "JsFunction implementation '%s' cannot extend a class.", name)
		return
	}
	for _, m := range t.Members {
		if desc := m.MemberDescriptor(); desc != nil && desc.Info().Synthetic {
			continue
		}
		c.checkImplementableStatically(m, "JsFunction implementation")
	}
}

func (c *checker) checkBridgeFunctionSubtype(t *ast.Type) {
	for _, i := range t.Declaration.Interfaces {
		if i.Decl.IsBridgeFunction() {
			c.problems.Error(t.Pos(), "'%s' cannot extend JsFunction '%s'.", t.ReadableName(), i.ReadableName())
		}
	}
}

// checkImplementableStatically rejects members that would need dynamic
// dispatch in types whose members are emitted as plain functions.
func (c *checker) checkImplementableStatically(m ast.Member, what string) {
	if method, ok := m.(*ast.Method); ok {
		md := method.Descriptor
		for _, o := range md.Overrides {
			if !o.External.Function {
				c.problems.Error(m.Pos(), "%s method '%s' cannot override a supertype method.", what, md.ReadableName())
				return
			}
		}
		if md.Native {
			c.problems.Error(m.Pos(), "%s method '%s' cannot be native.", what, md.ReadableName())
			return
		}
		inspectBody(method, func(cur *ast.Cursor) {
			if _, ok := cur.Node().(*ast.SuperReference); !ok {
				return
			}
			if call, ok := cur.Parent().(*ast.MethodCall); ok && ast.IsConstructorInvocation(call) {
				// super(...) only initializes the instance.
				return
			}
			c.problems.Error(m.Pos(), "Cannot use 'super' in %s method '%s'.", what, md.ReadableName())
		})
	}
	c.checkNotExternalMember(m, what)
}

func (c *checker) checkNotExternalMember(m ast.Member, what string) bool {
	desc := m.MemberDescriptor()
	if desc == nil || !desc.Info().IsExternal() {
		return true
	}
	c.problems.Error(m.Pos(), "%s member '%s' cannot be JsMethod nor JsProperty nor JsConstructor.", what, readableName(m))
	return false
}

func (c *checker) checkMustBeOverlay(m ast.Member, what string) {
	desc := m.MemberDescriptor()
	if desc == nil || desc.Info().IsOverlay() {
		return
	}
	c.problems.Error(m.Pos(), "%s '%s' cannot declare non-JsOverlay member '%s'.",
		what, desc.Info().Enclosing.ReadableName(), readableName(m))
}
