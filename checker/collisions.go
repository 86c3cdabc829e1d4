package checker

import "github.com/broady/bridgec/ast"

// memberTable indexes externally visible members by external name. A
// member that overrides another replaces it.
type memberTable map[string][]ast.MemberDescriptor

func (t memberTable) add(desc ast.MemberDescriptor) {
	name := desc.Info().ExternalName()
	kept := t[name][:0]
	for _, e := range t[name] {
		if !overrides(desc, e) {
			kept = append(kept, e)
		}
	}
	t[name] = append(kept, desc)
}

func (t memberTable) remove(name string, desc ast.MemberDescriptor) {
	kept := t[name][:0]
	for _, e := range t[name] {
		if !ast.SameMember(e, desc) {
			kept = append(kept, e)
		}
	}
	t[name] = kept
}

func overrides(member, other ast.MemberDescriptor) bool {
	m, ok := member.(*ast.MethodDescriptor)
	if !ok {
		return false
	}
	o, ok := other.(*ast.MethodDescriptor)
	return ok && m.DeclarationDescriptor().IsOverride(o)
}

func isConstructor(desc ast.MemberDescriptor) bool {
	m, ok := desc.(*ast.MethodDescriptor)
	return ok && m.Constructor
}

func isInstanceExternalMember(desc ast.MemberDescriptor) bool {
	info := desc.Info()
	return !info.Static && !isConstructor(desc) && info.IsExternal() && !info.Synthetic
}

// Constructors are neither static nor instance members here; they are
// covered by the constructor rules.
func isStaticExternalMember(desc ast.MemberDescriptor) bool {
	info := desc.Info()
	return info.Static && info.IsExternal() && !info.Synthetic
}

// collectInstanceNames returns the instance members visible on d,
// inherited ones included.
func (c *checker) collectInstanceNames(d *ast.TypeDeclaration) memberTable {
	if d == nil {
		return memberTable{}
	}
	var super *ast.TypeDeclaration
	switch {
	case d.IsInterface() && !d.IsNative():
		// Interfaces see the members of Object.
		super = c.arena.Known.Object
	case d.Super != nil:
		super = d.Super.Decl
	}
	table := c.collectInstanceNames(super)
	for _, desc := range d.Members() {
		if isInstanceExternalMember(desc) {
			table.add(desc)
		}
	}
	return table
}

func collectStaticNames(d *ast.TypeDeclaration) memberTable {
	table := memberTable{}
	for _, desc := range d.Members() {
		if isStaticExternalMember(desc) {
			table.add(desc)
		}
	}
	return table
}

// checkNameCollisions reports m if another member already uses its
// external name. Each colliding pair is reported once.
func (c *checker) checkNameCollisions(table memberTable, m ast.Member) {
	c.checkOverrideConsistency(m)

	desc := m.MemberDescriptor()
	info := desc.Info()
	if isNativeMember(info) {
		return
	}
	name := info.ExternalName()

	var colliding []ast.MemberDescriptor
	for _, e := range table[name] {
		if !ast.SameMember(e, desc) && !isNativeMember(e.Info()) {
			colliding = append(colliding, e)
		}
	}
	if len(colliding) == 0 {
		return
	}

	other := colliding[0]
	if len(colliding) == 1 && isAccessorPair(desc, other) {
		if !c.checkPropertyConsistency(m.Pos(), desc.(*ast.MethodDescriptor), other.(*ast.MethodDescriptor)) {
			table.remove(name, desc)
		}
		return
	}

	c.problems.Error(m.Pos(), "'%s' and '%s' cannot both use the same JavaScript name '%s'.",
		desc.ReadableName(), other.ReadableName(), name)
	table.remove(name, desc)
}

func isAccessorPair(a, b ast.MemberDescriptor) bool {
	ai, bi := a.Info(), b.Info()
	return (ai.IsGetter() && bi.IsSetter()) || (ai.IsSetter() && bi.IsGetter())
}

func (c *checker) checkPropertyConsistency(pos ast.SourcePosition, this, that *ast.MethodDescriptor) bool {
	setter, getter := that, this
	if this.IsSetter() {
		setter, getter = this, that
	}
	if len(setter.Parameters) == 0 || !ast.SameBaseType(getter.Return, setter.Parameters[0].Type) {
		c.problems.Error(pos, "JsProperty setter '%s' and getter '%s' cannot have inconsistent types.",
			setter.ReadableName(), getter.ReadableName())
		return false
	}
	return true
}

// checkOverrideConsistency requires an external method to keep the kind
// and external name of the external methods it overrides.
func (c *checker) checkOverrideConsistency(m ast.Member) {
	method, ok := m.(*ast.Method)
	if !ok || !method.Descriptor.IsExternal() {
		return
	}
	md := method.Descriptor
	name := md.ExternalName()
	for _, o := range md.Overrides {
		if !o.IsExternal() {
			continue
		}
		if o.IsExternalMethod() != md.IsExternalMethod() {
			c.problems.Error(m.Pos(), "%s '%s' cannot override %s '%s'.",
				externalKindName(md), md.ReadableName(), externalKindName(o), o.ReadableName())
			return
		}
		if parent := o.ExternalName(); parent != name {
			c.problems.Error(m.Pos(), "'%s' cannot be assigned JavaScript name '%s' that is different from the "+
				"JavaScript name of a method it overrides ('%s' with JavaScript name '%s').",
				md.ReadableName(), name, o.ReadableName(), parent)
			return
		}
	}
}

func externalKindName(md *ast.MethodDescriptor) string {
	if md.IsExternalMethod() {
		return "JsMethod"
	}
	return "JsProperty"
}
