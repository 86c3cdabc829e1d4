package ast

import (
	"fmt"
	"strings"
	"sync"
)

// Arena owns the canonical descriptors of one compilation run. Equal
// primitive, array and parameterized types obtained from the same arena are
// pointer-identical. Arenas are never shared between runs.
type Arena struct {
	mu         sync.Mutex
	primitives [numPrimitiveKinds]*PrimitiveDescriptor
	null       *NullTypeDescriptor
	arrays     map[TypeDescriptor]*ArrayTypeDescriptor
	declared   map[string]*DeclaredTypeDescriptor
	decls      map[string]*TypeDeclaration
	order      []*TypeDeclaration
	builtins   int

	// Known holds the declarations the passes and the checker refer to by
	// name.
	Known *Known
}

// NewArena returns an arena pre-populated with the core library and
// runtime declarations.
func NewArena() *Arena {
	a := &Arena{
		null:     &NullTypeDescriptor{},
		arrays:   make(map[TypeDescriptor]*ArrayTypeDescriptor),
		declared: make(map[string]*DeclaredTypeDescriptor),
		decls:    make(map[string]*TypeDeclaration),
	}
	for k := range a.primitives {
		a.primitives[k] = &PrimitiveDescriptor{PrimitiveKind: PrimitiveKind(k)}
	}
	a.Known = newKnown(a)
	a.builtins = len(a.order)
	return a
}

// Primitive returns the descriptor for k.
func (a *Arena) Primitive(k PrimitiveKind) *PrimitiveDescriptor { return a.primitives[k] }

// Null returns the null type.
func (a *Arena) Null() *NullTypeDescriptor { return a.null }

// Array returns the array type with the given component.
func (a *Arena) Array(component TypeDescriptor) *ArrayTypeDescriptor {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.arrays[component]; ok {
		return t
	}
	t := &ArrayTypeDescriptor{Component: component}
	a.arrays[component] = t
	return t
}

// ArrayOf returns component with dims array dimensions.
func (a *Arena) ArrayOf(component TypeDescriptor, dims int) *ArrayTypeDescriptor {
	t := a.Array(component)
	for i := 1; i < dims; i++ {
		t = a.Array(t)
	}
	return t
}

// Declared returns decl parameterized by args. Without arguments it returns
// the declaration's own descriptor.
func (a *Arena) Declared(decl *TypeDeclaration, args ...TypeDescriptor) *DeclaredTypeDescriptor {
	if len(args) == 0 {
		return decl.Descriptor()
	}
	key := fmt.Sprintf("%p", decl)
	for _, arg := range args {
		key += fmt.Sprintf(",%p", arg)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.declared[key]; ok {
		return t
	}
	t := &DeclaredTypeDescriptor{Decl: decl, Args: args}
	a.declared[key] = t
	return t
}

// TypeVariable returns a fresh type variable. A nil bound means Object.
func (a *Arena) TypeVariable(name string, bound TypeDescriptor) *TypeVariableDescriptor {
	if bound == nil {
		bound = a.Known.Object.Descriptor()
	}
	return &TypeVariableDescriptor{Name: name, Bound: bound}
}

// Intersection returns A & B & ...
func (a *Arena) Intersection(types ...TypeDescriptor) *IntersectionTypeDescriptor {
	return &IntersectionTypeDescriptor{Types: types}
}

// Declare registers decl under its qualified name and makes it the
// enclosing type of its members. Declaring a second type with the same
// name is an error.
func (a *Arena) Declare(decl *TypeDeclaration) (*TypeDeclaration, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	name := decl.QualifiedName()
	if _, ok := a.decls[name]; ok {
		return nil, fmt.Errorf("type %s already declared", name)
	}
	decl.self = &DeclaredTypeDescriptor{Decl: decl}
	for _, m := range decl.Methods {
		m.Enclosing = decl
	}
	for _, f := range decl.Fields {
		f.Enclosing = decl
	}
	a.decls[name] = decl
	a.order = append(a.order, decl)
	return decl, nil
}

// MustDeclare is like Declare but panics on error. It is meant for types
// synthesized by passes, whose names are unique by construction.
func (a *Arena) MustDeclare(decl *TypeDeclaration) *TypeDeclaration {
	d, err := a.Declare(decl)
	if err != nil {
		Fatalf(nil, "%v", err)
	}
	return d
}

// Lookup returns the declaration with the given qualified name, or nil.
func (a *Arena) Lookup(qualifiedName string) *TypeDeclaration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.decls[qualifiedName]
}

// Declarations returns every declared type in declaration order.
func (a *Arena) Declarations() []*TypeDeclaration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*TypeDeclaration(nil), a.order...)
}

// IsBuiltin reports whether d is one of the core declarations added by
// NewArena.
func (a *Arena) IsBuiltin(d *TypeDeclaration) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, b := range a.order[:a.builtins] {
		if b == d {
			return true
		}
	}
	return false
}

// Known holds the core library and runtime declarations.
type Known struct {
	Object        *TypeDeclaration
	String        *TypeDeclaration
	Class         *TypeDeclaration
	Serializable  *TypeDeclaration
	Comparable    *TypeDeclaration
	Number        *TypeDeclaration
	Enum          *TypeDeclaration
	Throwable     *TypeDeclaration
	AutoCloseable *TypeDeclaration
	System        *TypeDeclaration

	// Boxes maps a primitive kind to its box class.
	Boxes map[PrimitiveKind]*TypeDeclaration

	// Primitives is the runtime class holding the widening helpers.
	Primitives *TypeDeclaration

	// Exceptions is the runtime class holding the resource-closing helper.
	Exceptions *TypeDeclaration

	widening map[[2]PrimitiveKind]*MethodDescriptor
}

func newKnown(a *Arena) *Known {
	k := &Known{Boxes: make(map[PrimitiveKind]*TypeDeclaration), widening: make(map[[2]PrimitiveKind]*MethodDescriptor)}
	p := a.Primitive
	void := p(PrimitiveVoid)

	declare := func(pkg, name string, kind DeclKind, super *TypeDeclaration, ifaces ...*TypeDeclaration) *TypeDeclaration {
		d := &TypeDeclaration{Package: pkg, Name: name, Kind: kind}
		if super != nil {
			d.Super = super.Descriptor()
		}
		for _, i := range ifaces {
			d.Interfaces = append(d.Interfaces, i.Descriptor())
		}
		return a.MustDeclare(d)
	}
	method := func(d *TypeDeclaration, name string, ret TypeDescriptor, params ...TypeDescriptor) *MethodDescriptor {
		m := &MethodDescriptor{MemberInfo: MemberInfo{Name: name}, Return: ret}
		for _, t := range params {
			m.Parameters = append(m.Parameters, ParameterDescriptor{Type: t})
		}
		return d.AddMethod(m)
	}
	ctor := func(d *TypeDeclaration, params ...TypeDescriptor) *MethodDescriptor {
		m := method(d, "<init>", void, params...)
		m.Constructor = true
		return m
	}

	k.Object = declare("java.lang", "Object", Class, nil)
	object := k.Object.Descriptor()
	ctor(k.Object)
	method(k.Object, "equals", p(PrimitiveBoolean), object).External.Kind = ExternalMethod
	method(k.Object, "hashCode", p(PrimitiveInt)).External.Kind = ExternalMethod

	k.Serializable = declare("java.io", "Serializable", Interface, nil)
	k.Comparable = declare("java.lang", "Comparable", Interface, nil)
	cmpT := &TypeVariableDescriptor{Name: "T", Bound: object}
	k.Comparable.TypeParameters = []*TypeVariableDescriptor{cmpT}
	method(k.Comparable, "compareTo", p(PrimitiveInt), cmpT).Abstract = true

	k.String = declare("java.lang", "String", Class, k.Object, k.Serializable, k.Comparable)
	k.String.Final = true
	method(k.Object, "toString", k.String.Descriptor()).External.Kind = ExternalMethod
	k.Class = declare("java.lang", "Class", Class, k.Object)
	k.Class.Final = true

	k.Number = declare("java.lang", "Number", Class, k.Object, k.Serializable)
	k.Number.Abstract = true
	ctor(k.Number)

	k.Enum = declare("java.lang", "Enum", Class, k.Object, k.Comparable, k.Serializable)
	k.Enum.Abstract = true
	enumE := &TypeVariableDescriptor{Name: "E", Bound: k.Enum.Descriptor()}
	k.Enum.TypeParameters = []*TypeVariableDescriptor{enumE}
	enumCtor := ctor(k.Enum, k.String.Descriptor(), p(PrimitiveInt))
	enumCtor.Visibility = Protected
	method(k.Enum, "name", k.String.Descriptor()).Final = true
	method(k.Enum, "ordinal", p(PrimitiveInt)).Final = true
	method(k.Enum, "compareTo", p(PrimitiveInt), enumE).Final = true

	k.Throwable = declare("java.lang", "Throwable", Class, k.Object, k.Serializable)
	ctor(k.Throwable)
	ctor(k.Throwable, k.String.Descriptor())
	method(k.Throwable, "getMessage", k.String.Descriptor())
	method(k.Throwable, "addSuppressed", void, k.Throwable.Descriptor()).Final = true
	method(k.Throwable, "getSuppressed", a.Array(k.Throwable.Descriptor())).Final = true

	k.AutoCloseable = declare("java.lang", "AutoCloseable", Interface, nil)
	method(k.AutoCloseable, "close", void).Abstract = true

	k.System = declare("java.lang", "System", Class, k.Object)
	k.System.Final = true
	method(k.System, "getProperty", k.String.Descriptor(), k.String.Descriptor()).Static = true

	for kind := PrimitiveBoolean; kind < PrimitiveVoid; kind++ {
		super := k.Object
		if kind.IsNumeric() && kind != PrimitiveChar {
			super = k.Number
		}
		name := strings.TrimPrefix(kind.BoxedName(), "java.lang.")
		box := declare("java.lang", name, Class, super, k.Serializable, k.Comparable)
		box.Final = true
		valueOf := method(box, "valueOf", box.Descriptor(), p(kind))
		valueOf.Static = true
		method(box, kind.String()+"Value", p(kind))
		k.Boxes[kind] = box
	}

	k.Primitives = declare("javaemul.internal", "Primitives", Class, k.Object)
	k.Primitives.Final = true
	for from := PrimitiveByte; from <= PrimitiveDouble; from++ {
		for to := PrimitiveByte; to <= PrimitiveDouble; to++ {
			if !to.IsWiderThan(from) {
				continue
			}
			name := "$widen" + capitalize(from.String()) + "To" + capitalize(to.String())
			m := method(k.Primitives, name, p(to), p(from))
			m.Static = true
			m.Synthetic = true
			k.widening[[2]PrimitiveKind{from, to}] = m
		}
	}

	k.Exceptions = declare("javaemul.internal", "Exceptions", Class, k.Object)
	k.Exceptions.Final = true
	safeClose := method(k.Exceptions, "safeClose", k.Throwable.Descriptor(), k.AutoCloseable.Descriptor(), k.Throwable.Descriptor())
	safeClose.Static = true
	safeClose.Synthetic = true

	return k
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// WideningMethod returns the runtime helper converting from to to, or nil
// if to is not strictly wider.
func (k *Known) WideningMethod(from, to PrimitiveKind) *MethodDescriptor {
	return k.widening[[2]PrimitiveKind{from, to}]
}

// SafeClose returns Exceptions.safeClose(AutoCloseable, Throwable).
func (k *Known) SafeClose() *MethodDescriptor { return k.Exceptions.Method("safeClose", 2) }

// UnboxedKind returns the primitive kind boxed by d.
func (k *Known) UnboxedKind(d *TypeDeclaration) (PrimitiveKind, bool) {
	for kind, box := range k.Boxes {
		if box == d {
			return kind, true
		}
	}
	return 0, false
}

// ValueOf returns Box.valueOf for kind.
func (k *Known) ValueOf(kind PrimitiveKind) *MethodDescriptor {
	return k.Boxes[kind].Method("valueOf", 1)
}

// PrimitiveValue returns the xxxValue() accessor of the box for kind.
func (k *Known) PrimitiveValue(kind PrimitiveKind) *MethodDescriptor {
	return k.Boxes[kind].Method(kind.String()+"Value", 0)
}
