package checker

import "github.com/broady/bridgec/ast"

// checkExposedType reports whether the remaining rules apply to the exposed
// type t.
func (c *checker) checkExposedType(t *ast.Type) bool {
	d := t.Declaration
	if d.Local {
		c.problems.Error(t.Pos(), "Local class '%s' cannot be a JsType.", d.ReadableName())
		return false
	}
	if d.IsNative() {
		return c.checkNativeType(t)
	}
	return true
}

func (c *checker) checkNativeType(t *ast.Type) bool {
	d := t.Declaration
	name := d.ReadableName()

	if d.IsEnum() || d.IsSubtypeOf(c.arena.Known.Enum) {
		c.problems.Error(t.Pos(), "Enum '%s' cannot be a native JsType. Use '@JsEnum(isNative = true)' instead.", name)
		return false
	}
	if d.CapturesEnclosingInstance {
		c.problems.Error(t.Pos(), "Non static inner class '%s' cannot be a native JsType.", name)
		return false
	}

	if d.Super != nil && !ast.IsObject(d.Super) && !d.Super.Decl.IsNative() {
		c.problems.Error(t.Pos(), "Native JsType '%s' can only extend native JsType classes.", name)
	}
	verb := "implement"
	if d.IsInterface() {
		verb = "extend"
	}
	for _, i := range d.Interfaces {
		if !i.Decl.IsNative() {
			c.problems.Error(t.Pos(), "Native JsType '%s' can only %s native JsType interfaces.", name, verb)
		}
	}

	if len(t.InitializerBlocks(false)) > 0 {
		c.problems.Error(t.Pos(), "Native JsType '%s' cannot have an instance initializer.", name)
	}
	return true
}

func (c *checker) checkTypeVariables(t *ast.Type) {
	for _, tv := range t.Declaration.TypeParameters {
		if ast.IsNonNativeBridgedEnum(ast.ToRaw(tv)) {
			c.problems.Error(t.Pos(), "Type '%s' cannot define a type variable with a JsEnum as a bound.", t.ReadableName())
			return
		}
	}
}

func (c *checker) checkSuperTypes(t *ast.Type) {
	d := t.Declaration
	// A bridged enum extends Enum parameterized by itself.
	if !d.IsBridgedEnum() && hasNonNativeEnumTypeArgument(d.Super) {
		c.problems.Error(t.Pos(), "Type '%s' cannot subclass a class parameterized by JsEnum.", t.ReadableName())
	}
	for _, i := range d.Interfaces {
		if hasNonNativeEnumTypeArgument(i) {
			c.problems.Error(t.Pos(), "Type '%s' cannot implement an interface parameterized by JsEnum.", t.ReadableName())
			break
		}
	}
}

func hasNonNativeEnumTypeArgument(t *ast.DeclaredTypeDescriptor) bool {
	if t == nil {
		return false
	}
	for _, arg := range t.Args {
		if ast.IsNonNativeBridgedEnum(ast.ToRaw(arg)) {
			return true
		}
	}
	return false
}

// hasNonNativeEnumArray reports whether t is, or is parameterized by, an
// array of non-native bridged enums.
func hasNonNativeEnumArray(t ast.TypeDescriptor) bool {
	if ast.IsNonNativeBridgedEnumArray(t) {
		return true
	}
	if d, ok := t.(*ast.DeclaredTypeDescriptor); ok {
		for _, arg := range d.Args {
			if hasNonNativeEnumArray(arg) {
				return true
			}
		}
	}
	return false
}

func (c *checker) errorIfEnumArray(t ast.TypeDescriptor, pos ast.SourcePosition, what string) {
	if hasNonNativeEnumArray(t) {
		c.problems.Error(pos, "%s cannot be of type '%s'.", what, t.ReadableName())
	}
}
