package checker

import (
	"strconv"
	"strings"

	"github.com/broady/bridgec/ast"
)

func (c *checker) checkMemberOfNativeType(m ast.Member) {
	info := m.MemberDescriptor().Info()
	if info.IsOverlay() {
		return
	}
	name := readableName(m)
	switch info.External.Kind {
	case ast.ExternalConstructor:
		if method, ok := m.(*ast.Method); ok && !method.IsEmpty() {
			c.problems.Error(m.Pos(), "Native JsType constructor '%s' cannot have non-empty method body.", name)
		}
	case ast.ExternalMethod, ast.ExternalGetter, ast.ExternalSetter:
		if !info.Abstract && !info.Native {
			c.problems.Error(m.Pos(), "Native JsType method '%s' should be native, abstract or JsOverlay.", name)
		}
	case ast.ExternalProperty:
		f, ok := m.(*ast.Field)
		switch {
		case !ok:
		case info.Final:
			c.problems.Error(m.Pos(), "Native JsType field '%s' cannot be final.", name)
		case f.Initializer != nil:
			c.problems.Error(m.Pos(), "Native JsType field '%s' cannot have initializer.", name)
		}
	case ast.ExternalNone:
		c.problems.Error(m.Pos(), "Native JsType member '%s' cannot have @JsIgnore.", name)
	case ast.ExternalUndefinedAccessor:
		// Reported by checkPropertyAccessor.
	}
}

func (c *checker) checkOverlay(m ast.Member) {
	info := m.MemberDescriptor().Info()
	name := readableName(m)
	enclosing := info.Enclosing

	if !enclosing.IsNative() && !enclosing.IsBridgeFunction() {
		c.problems.Error(m.Pos(), "JsOverlay '%s' can only be declared in a native type or @JsFunction interface.", name)
	}
	if info.IsExternal() {
		c.problems.Error(m.Pos(), "JsOverlay method '%s' cannot be nor override a JsProperty or a JsMethod.", name)
		return
	}

	switch m := m.(type) {
	case *ast.Method:
		if !enclosing.Final && !info.Final && !info.Static && info.Visibility != ast.Private && !m.Descriptor.Default {
			c.problems.Error(m.Pos(), "JsOverlay method '%s' cannot be non-final.", name)
			return
		}
	case *ast.Field:
		if !info.Static {
			c.problems.Error(m.Pos(), "JsOverlay field '%s' can only be static.", name)
		}
	}
	c.checkImplementableStatically(m, "JsOverlay")
}

func (c *checker) checkIllegalOverrides(m *ast.Method) {
	md := m.Descriptor
	for _, o := range md.Overrides {
		if o.IsOverlay() {
			c.problems.Error(m.Pos(), "Method '%s' cannot override a JsOverlay method '%s'.", md.ReadableName(), o.ReadableName())
			break
		}
	}
	if !ast.IsNonNativeBridgedEnum(md.Return) {
		return
	}
	for _, o := range md.Overrides {
		if !ast.IsBridgedEnum(ast.ToRaw(o.Return)) {
			c.problems.Error(m.Pos(), "Method '%s' returning JsEnum cannot override method '%s'.", md.ReadableName(), o.ReadableName())
			return
		}
	}
}

func (c *checker) checkNativeMethod(m *ast.Method) {
	md := m.Descriptor
	if isUnusableSuppressed(md.Info()) || md.IsExternal() {
		return
	}
	c.warnOnce(m, "[unusable-by-js] Native '%s' is exposed to JavaScript without @JsMethod.", md.ReadableName())
}

func (c *checker) checkAsyncMethod(m *ast.Method) {
	ret := m.Descriptor.Return
	if d, ok := ret.(*ast.DeclaredTypeDescriptor); ok {
		switch d.Decl.QualifiedExternalName() {
		case "IThenable", "Promise":
			return
		}
	}
	c.problems.Error(m.Pos(), "JsAsync method '%s' should return either 'IThenable' or 'Promise' but returns '%s'.",
		m.ReadableName(), ret.ReadableName())
}

// checkPropertyAccessor reports whether the remaining name checks apply to
// m.
func (c *checker) checkPropertyAccessor(m *ast.Method) bool {
	md := m.Descriptor
	kind := md.External.Kind
	switch kind {
	case ast.ExternalGetter, ast.ExternalSetter, ast.ExternalUndefinedAccessor:
	default:
		return true
	}
	if md.ExternalName() == "" {
		c.problems.Error(m.Pos(), "JsProperty '%s' should either follow Java Bean naming conventions or provide a name.", m.ReadableName())
		return false
	}

	switch kind {
	case ast.ExternalUndefinedAccessor:
		c.problems.Error(m.Pos(), "JsProperty '%s' should have a correct setter or getter signature.", m.ReadableName())
	case ast.ExternalGetter:
		if strings.HasPrefix(md.Name, "is") && !ast.IsPrimitive(md.Return, ast.PrimitiveBoolean) {
			c.problems.Error(m.Pos(), "JsProperty '%s' cannot have a non-boolean return.", m.ReadableName())
		}
	case ast.ExternalSetter:
		if md.Varargs {
			c.problems.Error(m.Pos(), "JsProperty '%s' cannot have a vararg parameter.", m.ReadableName())
		}
	}
	return true
}

func (c *checker) checkMethodParameters(m *ast.Method) {
	md := m.Descriptor
	name := m.ReadableName()
	varargs := m.VarargsParameter()

	hasOptional := false
	for i, p := range m.Params {
		if md.IsParameterOptional(i) {
			if ast.IsAnyPrimitive(p.Type) {
				c.problems.Error(m.Pos(), "JsOptional parameter '%s' in method '%s' cannot be of a primitive type.", p.Name, name)
			}
			if p == varargs {
				c.problems.Error(m.Pos(), "JsOptional parameter '%s' in method '%s' cannot be a varargs parameter.", p.Name, name)
			}
			hasOptional = true
			continue
		}
		if hasOptional && p != varargs {
			c.problems.Error(m.Pos(), "JsOptional parameter '%s' in method '%s' cannot precede parameters that are not JsOptional.",
				m.Params[i-1].Name, name)
			break
		}
	}
	if hasOptional && !md.IsExternalMethod() && md.External.Kind != ast.ExternalConstructor && !md.External.Function {
		c.problems.Error(m.Pos(), "JsOptional parameter in '%s' can only be declared in a JsMethod, a JsConstructor or a JsFunction.", name)
	}

	// Optional parameters stay optional in overrides.
	for _, o := range md.Overrides {
		for i := range o.Parameters {
			if !o.IsParameterOptional(i) || md.IsParameterOptional(i) {
				continue
			}
			param := "#" + strconv.Itoa(i)
			if i < len(m.Params) {
				param = m.Params[i].Name
			}
			c.problems.Error(m.Pos(), "Method '%s' should declare parameter '%s' as JsOptional", name, param)
			return
		}
	}
}
