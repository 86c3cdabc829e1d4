// Package checker enforces the restrictions on cross-language binding
// metadata before any lowering happens.
//
// Check walks every type of every unit, reports each violated rule to a
// diag.Problems log and never modifies the tree. Rules keep going after a
// violation unless the declaration is too malformed for the remaining rules
// of the same family to say anything useful.
package checker

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"

	"github.com/broady/bridgec/ast"
	"github.com/broady/bridgec/diag"
)

const suppressHint = "Suppress \"[unusable-by-js]\" warnings by adding a " +
	"`@SuppressWarnings(\"unusable-by-js\")` annotation to the corresponding member."

type checker struct {
	arena    *ast.Arena
	problems *diag.Problems

	// warned holds the unusable warnings already reported, keyed by member
	// and message.
	warned           *set.Set[string]
	unusableReported bool
}

// Check validates units against the interop restrictions. Violations are
// reported to problems; callers decide failure with problems.HasErrors.
func Check(arena *ast.Arena, units []*ast.CompilationUnit, problems *diag.Problems) {
	c := &checker{
		arena:    arena,
		problems: problems,
		warned:   set.New[string](0),
	}
	for _, u := range units {
		for _, t := range typesOf(u) {
			c.checkType(t)
		}
	}
	if c.unusableReported {
		problems.Info(suppressHint)
	}
}

// typesOf returns the named types of u followed, for each, by the anonymous
// classes created in its bodies.
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

func (c *checker) checkType(t *ast.Type) {
	d := t.Declaration

	if isExposedType(d) && !c.checkExposedType(t) {
		return
	}
	if d.IsBridgedEnum() {
		c.checkBridgedEnum(t)
	}
	if d.IsBridgedEnum() || isExposedType(d) {
		c.checkTypeName(t)
	}

	switch {
	case d.IsBridgeFunction():
		c.checkBridgeFunction(t)
	case d.IsFunctionImplementation():
		c.checkFunctionImplementation(t)
	default:
		c.checkBridgeFunctionSubtype(t)
		if c.checkExternalConstructors(t) {
			c.checkExternalConstructorSubtype(t)
		}
	}

	c.checkTypeVariables(t)
	c.checkSuperTypes(t)

	instanceNames := c.collectInstanceNames(d)
	staticNames := collectStaticNames(d)
	for _, m := range t.Members {
		c.checkMember(m, instanceNames, staticNames)
	}

	c.checkEnumAssignments(t)
	c.checkBodies(t)
}

func (c *checker) checkMember(m ast.Member, instanceNames, staticNames memberTable) {
	desc := m.MemberDescriptor()
	if desc == nil || desc.Info().Synthetic {
		return
	}
	info := desc.Info()
	enclosing := info.Enclosing

	if enclosing.IsNative() && isExposedType(enclosing) {
		c.checkMemberOfNativeType(m)
	}
	if info.IsOverlay() {
		c.checkOverlay(m)
	}

	if method, ok := m.(*ast.Method); ok {
		c.checkIllegalOverrides(method)
		c.checkMethodParameters(method)
		if info.Native {
			c.checkNativeMethod(method)
		}
		if info.External.Async {
			c.checkAsyncMethod(method)
		}
		if !c.checkPropertyAccessor(method) {
			return
		}
	}

	if canBeReferencedExternally(info) {
		c.checkUnusable(m)
	}

	if !c.checkMemberName(m) {
		// An invalid name would only cause cascading collision errors.
		return
	}

	if isInstanceExternalMember(desc) {
		c.checkNameCollisions(instanceNames, m)
	}
	if isStaticExternalMember(desc) {
		c.checkNameCollisions(staticNames, m)
	}
}

// isExposedType reports whether d is exposed, either explicitly or as a
// native declaration other than a bridged enum.
func isExposedType(d *ast.TypeDeclaration) bool {
	return d.IsExposed() || (d.IsNative() && !d.IsBridgedEnum())
}

// readableName returns the diagnostic name of a member.
func readableName(m ast.Member) string {
	switch m := m.(type) {
	case *ast.Field:
		return m.Descriptor.ReadableName()
	case *ast.Method:
		return m.ReadableName()
	case *ast.InitializerBlock:
		if m.Static {
			return "<static initializer>"
		}
		return "<initializer>"
	}
	return fmt.Sprintf("%T", m)
}

// positionOf returns the position of n, or of fallback when n has none.
func positionOf(n, fallback ast.Node) ast.SourcePosition {
	if n != nil {
		if p := n.Pos(); !p.IsZero() {
			return p
		}
	}
	if fallback == nil {
		return ast.SourcePosition{}
	}
	return fallback.Pos()
}

// inspectBody calls f for every node under root without entering nested
// class bodies.
func inspectBody(root ast.Node, f func(*ast.Cursor)) {
	ast.Apply(root, func(cur *ast.Cursor) bool {
		if _, nested := cur.Node().(*ast.Type); nested && cur.Parent() != nil {
			return false
		}
		f(cur)
		return true
	}, nil)
}
