package checker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/broady/bridgec/ast"
)

// isValidIdentifier reports whether name can be used unquoted as an
// external identifier.
func isValidIdentifier(name string) bool {
	if name == "" {
		return false
	}
	if first, _ := utf8.DecodeRuneInString(name); unicode.IsDigit(first) {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
			return false
		}
	}
	return true
}

// isValidQualifiedName reports whether name is a dot-separated path of
// identifiers.
func isValidQualifiedName(name string) bool {
	for _, part := range strings.Split(name, ".") {
		if !isValidIdentifier(part) {
			return false
		}
	}
	return true
}

func isGlobal(namespace string) bool { return namespace == ast.GlobalNamespace }

func (c *checker) checkTypeName(t *ast.Type) {
	d := t.Declaration
	if d.IsStarOrUnknown() {
		if !d.IsNative() || !d.IsInterface() || !isGlobal(d.ExternalNamespace()) {
			c.problems.Error(t.Pos(), "Only native interfaces in the global namespace can be named '%s'.", d.ExternalName())
		}
		return
	}
	if name := d.Interop.Name; name != "" && !isValidName(name, d.IsNative()) {
		c.errorInvalidName(t.Pos(), d.ReadableName(), "name", name)
	}
	if ns := d.Interop.Namespace; ns != "" && !isValidNamespace(ns) {
		c.errorInvalidName(t.Pos(), d.ReadableName(), "namespace", ns)
	}
}

// checkMemberName reports whether m has a usable external name and
// namespace.
func (c *checker) checkMemberName(m ast.Member) bool {
	if method, ok := m.(*ast.Method); ok && method.IsConstructor() {
		// Constructors take the name of their type, checked separately.
		return true
	}
	info := m.MemberDescriptor().Info()
	native := isNativeMember(info)

	if name := info.External.Name; name != "" && !isValidName(name, native) {
		c.errorInvalidName(m.Pos(), readableName(m), "name", name)
		return false
	}

	ns := info.External.Namespace
	if ns == "" || ns == info.Enclosing.QualifiedExternalName() {
		return true
	}
	if !info.Static {
		c.problems.Error(m.Pos(), "Instance member '%s' cannot declare a namespace.", readableName(m))
		return false
	}
	if !native {
		c.problems.Error(m.Pos(), "Non-native member '%s' cannot declare a namespace.", readableName(m))
		return false
	}
	if !isValidNamespace(ns) {
		c.errorInvalidName(m.Pos(), readableName(m), "namespace", ns)
		return false
	}
	return true
}

func isNativeMember(info *ast.MemberInfo) bool {
	return info.Native || info.Enclosing.IsNative()
}

func isValidName(name string, native bool) bool {
	return isValidIdentifier(name) || (native && isValidQualifiedName(name))
}

func isValidNamespace(ns string) bool {
	return isGlobal(ns) || isValidQualifiedName(ns)
}

func (c *checker) errorInvalidName(pos ast.SourcePosition, what, kind, name string) {
	c.problems.Error(pos, "'%s' has invalid %s '%s'.", what, kind, name)
}
