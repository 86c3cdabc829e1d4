package checker

import (
	"fmt"

	"github.com/broady/bridgec/ast"
)

// checkUnusable warns about externally visible members whose types have no
// faithful external representation.
func (c *checker) checkUnusable(m ast.Member) {
	if isUnusableSuppressed(m.MemberDescriptor().Info()) {
		return
	}
	switch m := m.(type) {
	case *ast.Field:
		t := m.Descriptor.Type
		if !ast.CanBeReferencedExternally(t) {
			c.warnUnusable(fmt.Sprintf("Type '%s' of field", t.ReadableName()), m)
		}
	case *ast.Method:
		if !ast.CanBeReferencedExternally(m.Descriptor.Return) {
			c.warnUnusable("Return type of", m)
		}
		varargs := m.VarargsParameter()
		for _, p := range m.Params {
			if p.UnusableSuppressed {
				continue
			}
			t := p.Type
			if a, ok := t.(*ast.ArrayTypeDescriptor); ok && p == varargs {
				t = a.Component
			}
			if !ast.CanBeReferencedExternally(t) {
				c.warnUnusable(fmt.Sprintf("Type of parameter '%s' in", p.Name), m)
			}
		}
	}
}

// isUnusableSuppressed reports whether the member, its type or any type
// enclosing it suppresses unusable warnings.
func isUnusableSuppressed(info *ast.MemberInfo) bool {
	if info.UnusableSuppressed {
		return true
	}
	for d := info.Enclosing; d != nil; d = d.Enclosing {
		if d.UnusableSuppressed {
			return true
		}
	}
	return false
}

func canBeReferencedExternally(info *ast.MemberInfo) bool {
	return info.IsExternal() || info.External.Function
}

func (c *checker) warnUnusable(prefix string, m ast.Member) {
	c.warnOnce(m, "[unusable-by-js] %s '%s' is not usable by but exposed to JavaScript.", prefix, readableName(m))
	c.unusableReported = true
}

// warnOnce reports a warning at n unless the same message was already
// reported there.
func (c *checker) warnOnce(n ast.Node, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !c.warned.Insert(n.Pos().String() + "\x00" + msg) {
		return
	}
	c.problems.Warning(n.Pos(), "%s", msg)
}
