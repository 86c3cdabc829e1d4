package ast

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ExternalKind classifies how a member is bound on the external side.
type ExternalKind int

const (
	ExternalNone ExternalKind = iota
	ExternalMethod
	ExternalProperty
	ExternalGetter
	ExternalSetter
	ExternalConstructor

	// ExternalUndefinedAccessor is a method marked as a property accessor
	// whose signature is neither a getter nor a setter.
	ExternalUndefinedAccessor
)

// String returns the string representation of the external kind.
func (k ExternalKind) String() string {
	switch k {
	case ExternalNone:
		return "none"
	case ExternalMethod:
		return "method"
	case ExternalProperty:
		return "property"
	case ExternalGetter:
		return "getter"
	case ExternalSetter:
		return "setter"
	case ExternalConstructor:
		return "constructor"
	case ExternalUndefinedAccessor:
		return "undefined-accessor"
	default:
		return "unknown"
	}
}

// ExternalInfo is the cross-language binding of a member.
type ExternalInfo struct {
	Kind ExternalKind

	// Name overrides the derived external name. Empty inherits.
	Name string

	// Namespace is only legal on static native members. Empty inherits.
	Namespace string

	// Overlay marks a member with an in-language body attached to a native
	// type or bridge-function interface.
	Overlay bool

	Async bool

	// Function marks the single abstract method of a bridge-function
	// interface, or its implementation.
	Function bool
}

// MemberInfo holds the binding facts shared by methods and fields.
type MemberInfo struct {
	Name       string
	Enclosing  *TypeDeclaration
	Visibility Visibility

	Static    bool
	Final     bool
	Abstract  bool
	Native    bool
	Synthetic bool

	External           ExternalInfo
	UnusableSuppressed bool
}

// Info returns m itself. It lets MemberDescriptor implementations expose
// the shared fields through the interface.
func (m *MemberInfo) Info() *MemberInfo { return m }

// IsExternal reports whether the member has any external binding.
func (m *MemberInfo) IsExternal() bool { return m.External.Kind != ExternalNone }

// IsExternalMethod reports whether the member is bound as a method.
func (m *MemberInfo) IsExternalMethod() bool { return m.External.Kind == ExternalMethod }

// IsExternalProperty reports whether the member is bound as a property or a
// property accessor.
func (m *MemberInfo) IsExternalProperty() bool {
	switch m.External.Kind {
	case ExternalProperty, ExternalGetter, ExternalSetter, ExternalUndefinedAccessor:
		return true
	}
	return false
}

// IsGetter reports whether the member is a property getter.
func (m *MemberInfo) IsGetter() bool { return m.External.Kind == ExternalGetter }

// IsSetter reports whether the member is a property setter.
func (m *MemberInfo) IsSetter() bool { return m.External.Kind == ExternalSetter }

// IsOverlay reports whether the member is an overlay.
func (m *MemberInfo) IsOverlay() bool { return m.External.Overlay }

// ExternalName returns the simple external name, or "" when it cannot be
// derived (an unnamed accessor that does not follow bean naming).
func (m *MemberInfo) ExternalName() string {
	if m.External.Name != "" {
		return m.External.Name
	}
	switch m.External.Kind {
	case ExternalGetter:
		if n := trimAccessorPrefix(m.Name, "get"); n != "" {
			return n
		}
		return trimAccessorPrefix(m.Name, "is")
	case ExternalSetter:
		return trimAccessorPrefix(m.Name, "set")
	case ExternalUndefinedAccessor:
		return ""
	case ExternalConstructor:
		if m.Enclosing != nil {
			return m.Enclosing.ExternalName()
		}
	}
	return m.Name
}

// trimAccessorPrefix returns name without prefix and with its first rune
// lowered, or "" if name is not prefix followed by an upper-case rune.
func trimAccessorPrefix(name, prefix string) string {
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok || rest == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(rest)
	if !unicode.IsUpper(r) {
		return ""
	}
	return string(unicode.ToLower(r)) + rest[size:]
}

// MemberDescriptor is implemented by *MethodDescriptor and *FieldDescriptor.
type MemberDescriptor interface {
	Info() *MemberInfo

	// ReadableName returns the name used in diagnostics.
	ReadableName() string

	memberDescriptor()
}

// ParameterDescriptor describes one formal parameter.
type ParameterDescriptor struct {
	Type     TypeDescriptor
	Optional bool
}

// MethodDescriptor is the static binding of a method or constructor.
type MethodDescriptor struct {
	MemberInfo

	Parameters []ParameterDescriptor
	Return     TypeDescriptor

	Constructor bool
	Varargs     bool
	Default     bool

	// EnumSynthetic marks values() and valueOf() supplied for every enum.
	EnumSynthetic bool

	// Overrides lists the methods this one overrides. The links are
	// computed once by the front end and never re-resolved.
	Overrides []*MethodDescriptor

	// Declaration is the generic declaration this descriptor specializes,
	// or nil if it is the declaration itself.
	Declaration *MethodDescriptor
}

func (*MethodDescriptor) memberDescriptor() {}

// DeclarationDescriptor returns the unspecialized declaration.
func (m *MethodDescriptor) DeclarationDescriptor() *MethodDescriptor {
	if m.Declaration != nil {
		return m.Declaration
	}
	return m
}

// ReadableName returns Type.name(ParamType, ...).
func (m *MethodDescriptor) ReadableName() string {
	var b strings.Builder
	if m.Enclosing != nil {
		b.WriteString(m.Enclosing.ReadableName())
		b.WriteByte('.')
	}
	if m.Constructor && m.Enclosing != nil {
		b.WriteString(m.Enclosing.Name)
	} else {
		b.WriteString(m.Name)
	}
	b.WriteByte('(')
	for i, p := range m.Parameters {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Type.ReadableName())
	}
	b.WriteByte(')')
	return b.String()
}

// Signature returns name(erased.param.Types), the key used to match
// well-known methods independent of specialization.
func (m *MethodDescriptor) Signature() string {
	d := m.DeclarationDescriptor()
	params := make([]string, len(d.Parameters))
	for i, p := range d.Parameters {
		params[i] = ErasedName(p.Type)
	}
	return d.Name + "(" + strings.Join(params, ",") + ")"
}

// ParameterTypes returns the parameter types in order.
func (m *MethodDescriptor) ParameterTypes() []TypeDescriptor {
	types := make([]TypeDescriptor, len(m.Parameters))
	for i, p := range m.Parameters {
		types[i] = p.Type
	}
	return types
}

// IsParameterOptional reports whether parameter i is optional.
func (m *MethodDescriptor) IsParameterOptional(i int) bool {
	return i < len(m.Parameters) && m.Parameters[i].Optional
}

// IsOverride reports whether m overrides other, directly or through the
// declaration other specializes.
func (m *MethodDescriptor) IsOverride(other *MethodDescriptor) bool {
	target := other.DeclarationDescriptor()
	for _, o := range m.DeclarationDescriptor().Overrides {
		if o == other || o.DeclarationDescriptor() == target {
			return true
		}
	}
	return false
}

var objectMethodSignatures = map[string]bool{
	"equals(java.lang.Object)": true,
	"hashCode()":               true,
	"toString()":               true,
	"getClass()":               true,
}

// IsOrOverridesObjectMethod reports whether m is, or overrides, one of the
// instance methods of java.lang.Object.
func (m *MethodDescriptor) IsOrOverridesObjectMethod() bool {
	return !m.Static && !m.Constructor && objectMethodSignatures[m.Signature()]
}

// FieldDescriptor is the static binding of a field.
type FieldDescriptor struct {
	MemberInfo

	Type TypeDescriptor

	// EnumConstant marks the fields backing enum constants.
	EnumConstant bool

	// CompileTimeConstant marks static final fields initialized with a
	// constant expression, as determined by the front end.
	CompileTimeConstant bool

	// Declaration is the generic declaration this descriptor specializes,
	// or nil if it is the declaration itself.
	Declaration *FieldDescriptor
}

func (*FieldDescriptor) memberDescriptor() {}

// DeclarationDescriptor returns the unspecialized declaration.
func (f *FieldDescriptor) DeclarationDescriptor() *FieldDescriptor {
	if f.Declaration != nil {
		return f.Declaration
	}
	return f
}

// ReadableName returns Type.name.
func (f *FieldDescriptor) ReadableName() string {
	if f.Enclosing == nil {
		return f.Name
	}
	return f.Enclosing.ReadableName() + "." + f.Name
}

// IsValueField reports whether f is the value field of a bridged enum.
func (f *FieldDescriptor) IsValueField() bool {
	return f.Name == "value" && f.Enclosing != nil && f.Enclosing.IsBridgedEnum()
}

// SameMember reports whether a and b denote the same declared member.
func SameMember(a, b MemberDescriptor) bool {
	return declarationOf(a) == declarationOf(b)
}

func declarationOf(m MemberDescriptor) MemberDescriptor {
	switch m := m.(type) {
	case *MethodDescriptor:
		return m.DeclarationDescriptor()
	case *FieldDescriptor:
		return m.DeclarationDescriptor()
	}
	return m
}
