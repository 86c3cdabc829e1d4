package ast

// DeclKind is the syntactic kind of a type declaration.
type DeclKind int

const (
	Class DeclKind = iota
	Interface
	Enum
)

// String returns the keyword for the declaration kind.
func (k DeclKind) String() string {
	switch k {
	case Class:
		return "class"
	case Interface:
		return "interface"
	case Enum:
		return "enum"
	default:
		return "unknown"
	}
}

// Visibility is a member or type access level.
type Visibility int

const (
	Public Visibility = iota
	Protected
	PackagePrivate
	Private
)

// String returns the visibility keyword, or "package" for the default level.
func (v Visibility) String() string {
	switch v {
	case Public:
		return "public"
	case Protected:
		return "protected"
	case PackagePrivate:
		return "package"
	case Private:
		return "private"
	default:
		return "unknown"
	}
}

// GlobalNamespace is the external namespace of declarations that live on
// the global object.
const GlobalNamespace = "<global>"

// EnumBridge marks an enum whose constants are represented on the external
// side by plain values.
type EnumBridge struct {
	// CustomValue is set when each constant carries its own value in a
	// field named "value".
	CustomValue bool
}

// TypeInterop is the cross-language metadata of a type declaration.
type TypeInterop struct {
	// Exposed marks a type that is callable from or represents a value of
	// the external runtime.
	Exposed bool

	// Native marks a declaration implemented by the external runtime. The
	// source declaration is a signature-only stub.
	Native bool

	// BridgeFunction marks an interface represented by a plain external
	// function.
	BridgeFunction bool

	// Enum is non-nil for bridged enums.
	Enum *EnumBridge

	// Name is the external simple name. Empty inherits the source name.
	Name string

	// Namespace is the external namespace. Empty inherits the enclosing
	// type's qualified external name, or the package for top-level types.
	Namespace string
}

// TypeDeclaration holds the declaration-site facts of a named type. It is
// referenced by every DeclaredTypeDescriptor of the type.
type TypeDeclaration struct {
	Package   string
	Name      string
	Enclosing *TypeDeclaration

	Kind       DeclKind
	Visibility Visibility

	Final                     bool
	Abstract                  bool
	Local                     bool
	Anonymous                 bool
	CapturesEnclosingInstance bool

	// Functional marks an interface with a single abstract method.
	Functional bool

	Super          *DeclaredTypeDescriptor
	Interfaces     []*DeclaredTypeDescriptor
	TypeParameters []*TypeVariableDescriptor

	Methods []*MethodDescriptor
	Fields  []*FieldDescriptor

	Interop            TypeInterop
	UnusableSuppressed bool

	self *DeclaredTypeDescriptor
}

// QualifiedName returns the package-qualified source name, with nested
// types separated by dots.
func (d *TypeDeclaration) QualifiedName() string {
	if d.Enclosing != nil {
		return d.Enclosing.QualifiedName() + "." + d.Name
	}
	if d.Package == "" {
		return d.Name
	}
	return d.Package + "." + d.Name
}

// ReadableName returns the source name including enclosing types but not
// the package.
func (d *TypeDeclaration) ReadableName() string {
	if d.Enclosing != nil {
		return d.Enclosing.ReadableName() + "." + d.Name
	}
	return d.Name
}

// Descriptor returns the unparameterized descriptor of the declaration.
func (d *TypeDeclaration) Descriptor() *DeclaredTypeDescriptor {
	if d.self == nil {
		Fatalf(nil, "type %s was not declared in an arena", d.QualifiedName())
	}
	return d.self
}

func (d *TypeDeclaration) IsInterface() bool { return d.Kind == Interface }
func (d *TypeDeclaration) IsEnum() bool      { return d.Kind == Enum }
func (d *TypeDeclaration) IsNative() bool    { return d.Interop.Native }
func (d *TypeDeclaration) IsExposed() bool   { return d.Interop.Exposed }

// IsBridgeFunction reports whether d is a bridge-function interface.
func (d *TypeDeclaration) IsBridgeFunction() bool {
	return d.Interop.BridgeFunction && d.Kind == Interface
}

// IsBridgedEnum reports whether d carries bridged-enum metadata.
func (d *TypeDeclaration) IsBridgedEnum() bool { return d.Interop.Enum != nil }

// HasCustomValue reports whether d is a custom-valued bridged enum.
func (d *TypeDeclaration) HasCustomValue() bool {
	return d.Interop.Enum != nil && d.Interop.Enum.CustomValue
}

// SupportsComparable reports whether the bridged enum keeps compareTo and
// the Comparable supertype. Only plain, non-native bridged enums do.
func (d *TypeDeclaration) SupportsComparable() bool {
	return d.IsBridgedEnum() && !d.IsNative() && !d.HasCustomValue()
}

// SupportsOrdinal reports whether ordinal() is meaningful on the bridged
// enum.
func (d *TypeDeclaration) SupportsOrdinal() bool { return d.SupportsComparable() }

// EnumFlavor describes the bridged-enum flavor for diagnostics.
func (d *TypeDeclaration) EnumFlavor() string {
	switch {
	case d.IsNative():
		return "Native JsEnum"
	case d.HasCustomValue():
		return "Custom-valued JsEnum"
	default:
		return "Non-custom-valued JsEnum"
	}
}

// IsFunctionImplementation reports whether d is a class implementing a
// bridge-function interface.
func (d *TypeDeclaration) IsFunctionImplementation() bool {
	if d.Kind == Interface {
		return false
	}
	for _, i := range d.Interfaces {
		if i.Decl.IsBridgeFunction() {
			return true
		}
	}
	return false
}

// IsStarOrUnknown reports whether the external name is one of the special
// names "*" or "?".
func (d *TypeDeclaration) IsStarOrUnknown() bool {
	return d.Interop.Name == "*" || d.Interop.Name == "?"
}

// ExternalName returns the simple external name.
func (d *TypeDeclaration) ExternalName() string {
	if d.Interop.Name != "" {
		return d.Interop.Name
	}
	return d.Name
}

// ExternalNamespace returns the effective external namespace.
func (d *TypeDeclaration) ExternalNamespace() string {
	switch {
	case d.Interop.Namespace != "":
		return d.Interop.Namespace
	case d.Enclosing != nil:
		return d.Enclosing.QualifiedExternalName()
	default:
		return d.Package
	}
}

// QualifiedExternalName returns namespace.name, or just the name for
// declarations in the global namespace.
func (d *TypeDeclaration) QualifiedExternalName() string {
	ns := d.ExternalNamespace()
	if ns == GlobalNamespace || ns == "" {
		return d.ExternalName()
	}
	return ns + "." + d.ExternalName()
}

// Constructors returns the declared constructor descriptors.
func (d *TypeDeclaration) Constructors() []*MethodDescriptor {
	var ctors []*MethodDescriptor
	for _, m := range d.Methods {
		if m.Constructor {
			ctors = append(ctors, m)
		}
	}
	return ctors
}

// DefaultConstructor returns the zero-argument constructor, or nil.
func (d *TypeDeclaration) DefaultConstructor() *MethodDescriptor {
	for _, m := range d.Constructors() {
		if len(m.Parameters) == 0 {
			return m
		}
	}
	return nil
}

// ExternalConstructors returns the constructors bound as the external
// constructor.
func (d *TypeDeclaration) ExternalConstructors() []*MethodDescriptor {
	var ctors []*MethodDescriptor
	for _, m := range d.Constructors() {
		if m.External.Kind == ExternalConstructor {
			ctors = append(ctors, m)
		}
	}
	return ctors
}

// HasExternalConstructor reports whether any constructor is externally
// bound.
func (d *TypeDeclaration) HasExternalConstructor() bool {
	return len(d.ExternalConstructors()) > 0
}

// IsExternalConstructorSubtype reports whether the superclass declares an
// external constructor.
func (d *TypeDeclaration) IsExternalConstructorSubtype() bool {
	return d.Super != nil && !d.Super.Decl.IsNative() && d.Super.Decl.HasExternalConstructor()
}

// ExtendsNativeClass reports whether some superclass is a native class.
func (d *TypeDeclaration) ExtendsNativeClass() bool {
	for s := d.Super; s != nil; s = s.Decl.Super {
		if s.Decl.IsNative() && s.Decl.Kind == Class {
			return true
		}
	}
	return false
}

// ValueField returns the field named "value" of a bridged enum, or nil.
func (d *TypeDeclaration) ValueField() *FieldDescriptor {
	if !d.IsBridgedEnum() {
		return nil
	}
	return d.Field("value")
}

// Field returns the declared field with the given name, or nil.
func (d *TypeDeclaration) Field(name string) *FieldDescriptor {
	for _, f := range d.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Method returns the first declared method with the given name and number
// of parameters, or nil.
func (d *TypeDeclaration) Method(name string, arity int) *MethodDescriptor {
	for _, m := range d.Methods {
		if m.Name == name && len(m.Parameters) == arity {
			return m
		}
	}
	return nil
}

// AddMethod appends m to the declared methods and makes d its enclosing
// type.
func (d *TypeDeclaration) AddMethod(m *MethodDescriptor) *MethodDescriptor {
	m.Enclosing = d
	d.Methods = append(d.Methods, m)
	return m
}

// AddField appends f to the declared fields and makes d its enclosing type.
func (d *TypeDeclaration) AddField(f *FieldDescriptor) *FieldDescriptor {
	f.Enclosing = d
	d.Fields = append(d.Fields, f)
	return f
}

// RemoveMethod drops m from the declared methods.
func (d *TypeDeclaration) RemoveMethod(m *MethodDescriptor) {
	for i, x := range d.Methods {
		if x == m {
			d.Methods = append(d.Methods[:i], d.Methods[i+1:]...)
			return
		}
	}
}

// Members returns the declared method and field descriptors, fields first.
func (d *TypeDeclaration) Members() []MemberDescriptor {
	members := make([]MemberDescriptor, 0, len(d.Fields)+len(d.Methods))
	for _, f := range d.Fields {
		members = append(members, f)
	}
	for _, m := range d.Methods {
		members = append(members, m)
	}
	return members
}

// IsSubtypeOf reports whether d is other or inherits from it.
func (d *TypeDeclaration) IsSubtypeOf(other *TypeDeclaration) bool {
	if d == other {
		return true
	}
	if d.Super != nil && d.Super.Decl.IsSubtypeOf(other) {
		return true
	}
	for _, i := range d.Interfaces {
		if i.Decl.IsSubtypeOf(other) {
			return true
		}
	}
	return false
}
