package checker

import (
	"github.com/hashicorp/go-set/v3"

	"github.com/broady/bridgec/ast"
)

// checkExternalConstructors reports whether t's external constructor, if
// any, is the one every other constructor delegates to.
func (c *checker) checkExternalConstructors(t *ast.Type) bool {
	d := t.Declaration
	if d.IsNative() || !d.HasExternalConstructor() {
		return true
	}

	ctors := d.ExternalConstructors()
	if len(ctors) > 1 {
		c.problems.Error(t.Pos(), "More than one JsConstructor exists for '%s'.", t.ReadableName())
		return false
	}
	external := ctors[0]
	if primaryConstructor(t) != external {
		c.problems.Error(t.Pos(), "JsConstructor '%s' can be a JsConstructor only if all other constructors in the class "+
			"delegate to it.", external.ReadableName())
		return false
	}

	for _, ctor := range t.Constructors() {
		if ctor.Descriptor == external {
			continue
		}
		if !delegatesTo(t, ctor, external) {
			c.problems.Error(t.Pos(), "Constructor '%s' should delegate to the JsConstructor '%s'.",
				ctor.ReadableName(), external.ReadableName())
			return false
		}
	}
	return true
}

// delegatesTo reports whether the this(...) chain starting at ctor reaches
// target, directly or through other constructors of t.
func delegatesTo(t *ast.Type, ctor *ast.Method, target *ast.MethodDescriptor) bool {
	seen := set.New[*ast.Method](0)
	for ctor != nil && seen.Insert(ctor) {
		call := ast.ThisCall(ctor)
		if call == nil {
			return false
		}
		if call.Target == target || call.Target.External.Kind == ast.ExternalConstructor {
			return true
		}
		ctor = t.FindMethod(call.Target)
	}
	return false
}

// primaryConstructor returns the only constructor of t that does not
// delegate to this(...), or nil if there is not exactly one.
func primaryConstructor(t *ast.Type) *ast.MethodDescriptor {
	ctors := t.Constructors()
	if len(ctors) == 0 {
		// Only the implicit constructor.
		declared := t.Declaration.Constructors()
		if len(declared) != 1 {
			return nil
		}
		return declared[0]
	}

	var primary *ast.MethodDescriptor
	for _, ctor := range ctors {
		if ast.ThisCall(ctor) != nil {
			continue
		}
		if primary != nil {
			return nil
		}
		primary = ctor.Descriptor
	}
	return primary
}

// checkExternalConstructorSubtype requires subclasses of a class with an
// external constructor to reach it from their own external constructor.
func (c *checker) checkExternalConstructorSubtype(t *ast.Type) {
	d := t.Declaration
	if d.IsNative() || !d.IsExternalConstructorSubtype() {
		return
	}
	if !d.HasExternalConstructor() {
		c.problems.Error(t.Pos(), "Class '%s' should have a JsConstructor.", t.ReadableName())
		return
	}

	super := d.Super.Decl
	superCtor := super.ExternalConstructors()[0]

	ctor := externalConstructor(t)
	if ctor == nil {
		// The implicit constructor delegates to the default super constructor.
		def := super.DefaultConstructor()
		if def == nil || def.External.Kind != ast.ExternalConstructor {
			c.problems.Error(t.Pos(), "Implicit JsConstructor '%s' can only delegate to super JsConstructor '%s'.",
				d.ExternalConstructors()[0].ReadableName(), superCtor.ReadableName())
		}
		return
	}

	delegated := delegatedSuperConstructor(t, ctor)
	if delegated == nil || delegated.External.Kind != ast.ExternalConstructor {
		c.problems.Error(ctor.Pos(), "JsConstructor '%s' can only delegate to super JsConstructor '%s'.",
			ctor.ReadableName(), superCtor.ReadableName())
	}
}

func externalConstructor(t *ast.Type) *ast.Method {
	for _, ctor := range t.Constructors() {
		if ctor.Descriptor.External.Kind == ast.ExternalConstructor {
			return ctor
		}
	}
	return nil
}

// delegatedSuperConstructor follows the this(...) chain starting at ctor
// and returns the super constructor it ends in. A chain without an
// explicit super(...) ends in the default super constructor.
func delegatedSuperConstructor(t *ast.Type, ctor *ast.Method) *ast.MethodDescriptor {
	seen := set.New[*ast.Method](0)
	for ctor != nil && seen.Insert(ctor) {
		if call := ast.SuperCall(ctor); call != nil {
			return call.Target
		}
		call := ast.ThisCall(ctor)
		if call == nil {
			break
		}
		ctor = t.FindMethod(call.Target)
	}
	if d := t.Declaration; d.Super != nil {
		return d.Super.Decl.DefaultConstructor()
	}
	return nil
}
