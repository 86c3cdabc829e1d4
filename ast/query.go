package ast

// Structural queries over descriptors and nodes. None of them mutate the
// tree.

const (
	objectName       = "java.lang.Object"
	stringName       = "java.lang.String"
	serializableName = "java.io.Serializable"
	comparableName   = "java.lang.Comparable"
	cloneableName    = "java.lang.Cloneable"
)

// IsDeclared reports whether t is a declared type with the given qualified
// name.
func IsDeclared(t TypeDescriptor, qualifiedName string) bool {
	d, ok := t.(*DeclaredTypeDescriptor)
	return ok && d.Decl.QualifiedName() == qualifiedName
}

func IsObject(t TypeDescriptor) bool       { return IsDeclared(t, objectName) }
func IsString(t TypeDescriptor) bool       { return IsDeclared(t, stringName) }
func IsSerializable(t TypeDescriptor) bool { return IsDeclared(t, serializableName) }
func IsComparable(t TypeDescriptor) bool   { return IsDeclared(t, comparableName) }

// IsPrimitive reports whether t is the primitive kind k.
func IsPrimitive(t TypeDescriptor, k PrimitiveKind) bool {
	p, ok := t.(*PrimitiveDescriptor)
	return ok && p.PrimitiveKind == k
}

// IsAnyPrimitive reports whether t is a primitive type.
func IsAnyPrimitive(t TypeDescriptor) bool {
	_, ok := t.(*PrimitiveDescriptor)
	return ok
}

// IsNumericPrimitive reports whether t is a numeric primitive.
func IsNumericPrimitive(t TypeDescriptor) bool {
	p, ok := t.(*PrimitiveDescriptor)
	return ok && p.IsNumeric()
}

// DeclarationOf returns the declaration behind t, looking through type
// variables to their bound. It returns nil for other kinds.
func DeclarationOf(t TypeDescriptor) *TypeDeclaration {
	switch t := t.(type) {
	case *DeclaredTypeDescriptor:
		return t.Decl
	case *TypeVariableDescriptor:
		if t.Bound != nil {
			return DeclarationOf(t.Bound)
		}
	}
	return nil
}

// ToRaw returns the erasure of t. Erased arrays are not interned; compare
// them with SameType.
func ToRaw(t TypeDescriptor) TypeDescriptor {
	switch t := t.(type) {
	case *DeclaredTypeDescriptor:
		if len(t.Args) == 0 {
			return t
		}
		return t.Decl.Descriptor()
	case *ArrayTypeDescriptor:
		raw := ToRaw(t.Component)
		if raw == t.Component {
			return t
		}
		return &ArrayTypeDescriptor{Component: raw}
	case *TypeVariableDescriptor:
		if t.Bound == nil {
			return t
		}
		return ToRaw(t.Bound)
	case *IntersectionTypeDescriptor:
		if len(t.Types) == 0 {
			return t
		}
		return ToRaw(t.Types[0])
	}
	return t
}

// ErasedName returns the qualified name of the erasure of t, as used in
// method signatures.
func ErasedName(t TypeDescriptor) string {
	switch raw := ToRaw(t).(type) {
	case *PrimitiveDescriptor:
		return raw.PrimitiveKind.String()
	case *DeclaredTypeDescriptor:
		return raw.Decl.QualifiedName()
	case *ArrayTypeDescriptor:
		return ErasedName(raw.Component) + "[]"
	case *TypeVariableDescriptor:
		return objectName
	}
	return t.ReadableName()
}

// SameType reports whether a and b denote the same type.
func SameType(a, b TypeDescriptor) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	switch a := a.(type) {
	case *PrimitiveDescriptor:
		b, ok := b.(*PrimitiveDescriptor)
		return ok && a.PrimitiveKind == b.PrimitiveKind
	case *DeclaredTypeDescriptor:
		b, ok := b.(*DeclaredTypeDescriptor)
		if !ok || a.Decl != b.Decl || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !SameType(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case *ArrayTypeDescriptor:
		b, ok := b.(*ArrayTypeDescriptor)
		return ok && SameType(a.Component, b.Component)
	case *IntersectionTypeDescriptor:
		b, ok := b.(*IntersectionTypeDescriptor)
		if !ok || len(a.Types) != len(b.Types) {
			return false
		}
		for i := range a.Types {
			if !SameType(a.Types[i], b.Types[i]) {
				return false
			}
		}
		return true
	case *NullTypeDescriptor:
		_, ok := b.(*NullTypeDescriptor)
		return ok
	}
	return false
}

// SameBaseType reports whether a and b have the same erasure.
func SameBaseType(a, b TypeDescriptor) bool { return SameType(ToRaw(a), ToRaw(b)) }

// IsSubtype reports whether sub is a subtype of super. Type arguments are
// ignored. Primitive types are only subtypes of themselves.
func IsSubtype(sub, super TypeDescriptor) bool {
	if SameType(sub, super) {
		return true
	}
	if it, ok := super.(*IntersectionTypeDescriptor); ok {
		for _, t := range it.Types {
			if !IsSubtype(sub, t) {
				return false
			}
		}
		return true
	}
	switch sub := sub.(type) {
	case *PrimitiveDescriptor:
		return false
	case *NullTypeDescriptor:
		return !IsAnyPrimitive(super)
	case *TypeVariableDescriptor:
		if _, ok := super.(*TypeVariableDescriptor); ok {
			return false
		}
		return sub.Bound != nil && IsSubtype(sub.Bound, super)
	case *IntersectionTypeDescriptor:
		for _, t := range sub.Types {
			if IsSubtype(t, super) {
				return true
			}
		}
		return false
	case *ArrayTypeDescriptor:
		if IsObject(super) || IsSerializable(super) || IsDeclared(super, cloneableName) {
			return true
		}
		s, ok := super.(*ArrayTypeDescriptor)
		if !ok {
			return false
		}
		if IsAnyPrimitive(sub.Component) || IsAnyPrimitive(s.Component) {
			return SameType(sub.Component, s.Component)
		}
		return IsSubtype(sub.Component, s.Component)
	case *DeclaredTypeDescriptor:
		if IsObject(super) {
			return true
		}
		s, ok := super.(*DeclaredTypeDescriptor)
		return ok && sub.Decl.IsSubtypeOf(s.Decl)
	}
	return false
}

// IsAssignableTo reports whether a value of type from can be stored in a
// slot of type to without any conversion. Between primitives only identity
// qualifies.
func IsAssignableTo(from, to TypeDescriptor) bool {
	return IsSubtype(ToRaw(from), ToRaw(to))
}

// IsBridgedEnum reports whether t is a bridged enum type.
func IsBridgedEnum(t TypeDescriptor) bool {
	d, ok := t.(*DeclaredTypeDescriptor)
	return ok && d.Decl.IsBridgedEnum()
}

// IsNonNativeBridgedEnum reports whether t is a bridged enum implemented by
// generated code.
func IsNonNativeBridgedEnum(t TypeDescriptor) bool {
	d, ok := t.(*DeclaredTypeDescriptor)
	return ok && d.Decl.IsBridgedEnum() && !d.Decl.IsNative()
}

// IsNonNativeBridgedEnumArray reports whether t is an array whose leaf
// component is a non-native bridged enum.
func IsNonNativeBridgedEnumArray(t TypeDescriptor) bool {
	a, ok := t.(*ArrayTypeDescriptor)
	return ok && IsNonNativeBridgedEnum(ToRaw(a.Leaf()))
}

// CanBeReferencedExternally reports whether values of type t have a
// faithful representation on the external side.
func CanBeReferencedExternally(t TypeDescriptor) bool {
	switch t := t.(type) {
	case *PrimitiveDescriptor:
		return t.PrimitiveKind != PrimitiveLong
	case *ArrayTypeDescriptor:
		return CanBeReferencedExternally(t.Component)
	case *DeclaredTypeDescriptor:
		d := t.Decl
		if d.IsExposed() || d.IsNative() || d.IsBridgeFunction() || d.IsBridgedEnum() {
			return true
		}
		switch d.QualifiedName() {
		case objectName, stringName, "java.lang.Double", "java.lang.Boolean", "java.lang.Void":
			return true
		}
		return false
	case *TypeVariableDescriptor, *NullTypeDescriptor:
		return true
	case *IntersectionTypeDescriptor:
		for _, c := range t.Types {
			if CanBeReferencedExternally(c) {
				return true
			}
		}
	}
	return false
}

// HasDefaultConstructor reports whether instances of decl can be created
// without arguments: either no constructor is declared or one takes no
// parameters.
func HasDefaultConstructor(decl *TypeDeclaration) bool {
	ctors := decl.Constructors()
	return len(ctors) == 0 || decl.DefaultConstructor() != nil
}

// ConstructorInvocation returns the this(...) or super(...) call that
// starts the body of ctor, or nil.
func ConstructorInvocation(ctor *Method) *MethodCall {
	if ctor.Body == nil || len(ctor.Body.Statements) == 0 {
		return nil
	}
	s, ok := ctor.Body.Statements[0].(*ExpressionStatement)
	if !ok {
		return nil
	}
	call, ok := s.Expr.(*MethodCall)
	if !ok || !IsConstructorInvocation(call) {
		return nil
	}
	return call
}

// IsConstructorInvocation reports whether call is this(...) or super(...).
func IsConstructorInvocation(call *MethodCall) bool {
	if !call.Target.Constructor {
		return false
	}
	switch call.Qualifier.(type) {
	case *ThisReference, *SuperReference:
		return true
	}
	return false
}

// ThisCall returns the this(...) delegation of ctor, or nil.
func ThisCall(ctor *Method) *MethodCall {
	call := ConstructorInvocation(ctor)
	if call == nil {
		return nil
	}
	if _, ok := call.Qualifier.(*ThisReference); !ok {
		return nil
	}
	return call
}

// SuperCall returns the super(...) call of ctor, or nil.
func SuperCall(ctor *Method) *MethodCall {
	call := ConstructorInvocation(ctor)
	if call == nil {
		return nil
	}
	if _, ok := call.Qualifier.(*SuperReference); !ok {
		return nil
	}
	return call
}

// IsCompileTimeConstant reports whether e is a constant expression: a
// literal, a reference to a constant field, or an operator, cast or
// conditional applied to constant expressions.
func IsCompileTimeConstant(e Expression) bool {
	switch e := e.(type) {
	case *NumberLiteral, *BooleanLiteral, *StringLiteral:
		return true
	case *FieldAccess:
		return e.Target.Static && e.Target.CompileTimeConstant
	case *UnaryExpression:
		return !e.Op.IsIncrementOrDecrement() && IsCompileTimeConstant(e.Operand)
	case *BinaryExpression:
		return !e.Op.IsAssignment() && IsCompileTimeConstant(e.Left) && IsCompileTimeConstant(e.Right)
	case *CastExpression:
		return (IsAnyPrimitive(e.Type) || IsString(e.Type)) && IsCompileTimeConstant(e.Expr)
	case *ConditionalExpression:
		return IsCompileTimeConstant(e.Cond) && IsCompileTimeConstant(e.Then) && IsCompileTimeConstant(e.Else)
	}
	return false
}
