// Package ast defines the typed tree that the lowering pipeline operates on.
//
// A front end produces compilation units whose expressions carry resolved
// type descriptors and whose references point at declaring descriptors or
// variables. Descriptors are owned by an Arena for the duration of one
// compilation run; nodes are owned by their enclosing Type or unit and are
// rewritten in place by the passes.
package ast

import "strings"

// DescriptorKind identifies the category of a type descriptor.
type DescriptorKind int

const (
	KindPrimitive    DescriptorKind = iota // boolean, numeric and void types
	KindDeclared                           // class, interface or enum, possibly parameterized
	KindArray                              // T[]
	KindTypeVariable                       // type parameter of a generic declaration
	KindIntersection                       // A & B, only seen on lambdas and bounds
	KindNull                               // type of the null literal
)

// String returns the string representation of the descriptor kind.
func (k DescriptorKind) String() string {
	switch k {
	case KindPrimitive:
		return "Primitive"
	case KindDeclared:
		return "Declared"
	case KindArray:
		return "Array"
	case KindTypeVariable:
		return "TypeVariable"
	case KindIntersection:
		return "Intersection"
	case KindNull:
		return "Null"
	default:
		return "Unknown"
	}
}

// TypeDescriptor is the base interface for all type descriptors.
type TypeDescriptor interface {
	// Kind returns the descriptor kind for type switching.
	Kind() DescriptorKind

	// ReadableName returns the name used in diagnostics.
	ReadableName() string

	// Ensure only types in this package can implement TypeDescriptor.
	sealed()
}

// DeclaredTypeDescriptor is a reference to a class, interface or enum,
// optionally with type arguments.
type DeclaredTypeDescriptor struct {
	Decl *TypeDeclaration
	Args []TypeDescriptor
}

// Kind returns KindDeclared.
func (d *DeclaredTypeDescriptor) Kind() DescriptorKind { return KindDeclared }

// ReadableName returns the source name with type arguments.
func (d *DeclaredTypeDescriptor) ReadableName() string {
	if len(d.Args) == 0 {
		return d.Decl.ReadableName()
	}
	args := make([]string, len(d.Args))
	for i, a := range d.Args {
		args[i] = a.ReadableName()
	}
	return d.Decl.ReadableName() + "<" + strings.Join(args, ", ") + ">"
}

func (*DeclaredTypeDescriptor) sealed() {}

// ArrayTypeDescriptor is a one-dimensional array; multi-dimensional arrays
// nest.
type ArrayTypeDescriptor struct {
	Component TypeDescriptor
}

// Kind returns KindArray.
func (d *ArrayTypeDescriptor) Kind() DescriptorKind { return KindArray }

// ReadableName returns the component name followed by [].
func (d *ArrayTypeDescriptor) ReadableName() string {
	return d.Component.ReadableName() + "[]"
}

// Leaf returns the innermost non-array component.
func (d *ArrayTypeDescriptor) Leaf() TypeDescriptor {
	t := d.Component
	for {
		a, ok := t.(*ArrayTypeDescriptor)
		if !ok {
			return t
		}
		t = a.Component
	}
}

// Dimensions returns the nesting depth.
func (d *ArrayTypeDescriptor) Dimensions() int {
	n := 1
	for t := d.Component; ; n++ {
		a, ok := t.(*ArrayTypeDescriptor)
		if !ok {
			return n
		}
		t = a.Component
	}
}

func (*ArrayTypeDescriptor) sealed() {}

// TypeVariableDescriptor is a type parameter. Type variables are compared by
// identity.
type TypeVariableDescriptor struct {
	Name string

	// Bound is the upper bound. Arena.TypeVariable defaults it to Object.
	Bound TypeDescriptor
}

// Kind returns KindTypeVariable.
func (d *TypeVariableDescriptor) Kind() DescriptorKind { return KindTypeVariable }

// ReadableName returns the variable name.
func (d *TypeVariableDescriptor) ReadableName() string { return d.Name }

func (*TypeVariableDescriptor) sealed() {}

// IntersectionTypeDescriptor is A & B & ...
type IntersectionTypeDescriptor struct {
	Types []TypeDescriptor
}

// Kind returns KindIntersection.
func (d *IntersectionTypeDescriptor) Kind() DescriptorKind { return KindIntersection }

// ReadableName joins the component names with " & ".
func (d *IntersectionTypeDescriptor) ReadableName() string {
	names := make([]string, len(d.Types))
	for i, t := range d.Types {
		names[i] = t.ReadableName()
	}
	return strings.Join(names, " & ")
}

func (*IntersectionTypeDescriptor) sealed() {}

// NullTypeDescriptor is the type of the null literal.
type NullTypeDescriptor struct{}

// Kind returns KindNull.
func (d *NullTypeDescriptor) Kind() DescriptorKind { return KindNull }

// ReadableName returns "null".
func (d *NullTypeDescriptor) ReadableName() string { return "null" }

func (*NullTypeDescriptor) sealed() {}
