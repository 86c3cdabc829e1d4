package ast

// PrimitiveKind identifies a primitive type.
type PrimitiveKind int

const (
	PrimitiveBoolean PrimitiveKind = iota
	PrimitiveByte
	PrimitiveShort
	PrimitiveChar
	PrimitiveInt
	PrimitiveLong
	PrimitiveFloat
	PrimitiveDouble
	PrimitiveVoid

	numPrimitiveKinds
)

// String returns the source keyword for the primitive kind.
func (k PrimitiveKind) String() string {
	switch k {
	case PrimitiveBoolean:
		return "boolean"
	case PrimitiveByte:
		return "byte"
	case PrimitiveShort:
		return "short"
	case PrimitiveChar:
		return "char"
	case PrimitiveInt:
		return "int"
	case PrimitiveLong:
		return "long"
	case PrimitiveFloat:
		return "float"
	case PrimitiveDouble:
		return "double"
	case PrimitiveVoid:
		return "void"
	default:
		return "unknown"
	}
}

// ParsePrimitiveKind is the inverse of PrimitiveKind.String.
func ParsePrimitiveKind(s string) (PrimitiveKind, bool) {
	for k := PrimitiveBoolean; k < numPrimitiveKinds; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// IsNumeric reports whether values of this kind take part in numeric
// promotion. char counts as numeric.
func (k PrimitiveKind) IsNumeric() bool {
	return k >= PrimitiveByte && k <= PrimitiveDouble
}

// wideningRank orders numeric kinds for widening. short and char share a
// rank, so neither is wider than the other.
func (k PrimitiveKind) wideningRank() int {
	switch k {
	case PrimitiveByte:
		return 1
	case PrimitiveShort, PrimitiveChar:
		return 2
	case PrimitiveInt:
		return 3
	case PrimitiveLong:
		return 4
	case PrimitiveFloat:
		return 5
	case PrimitiveDouble:
		return 6
	default:
		return 0
	}
}

// IsWiderThan reports whether k is strictly wider than other. Both must be
// numeric.
func (k PrimitiveKind) IsWiderThan(other PrimitiveKind) bool {
	if !k.IsNumeric() || !other.IsNumeric() {
		return false
	}
	return k.wideningRank() > other.wideningRank()
}

// BoxedName returns the qualified name of the box class for k.
func (k PrimitiveKind) BoxedName() string {
	switch k {
	case PrimitiveBoolean:
		return "java.lang.Boolean"
	case PrimitiveByte:
		return "java.lang.Byte"
	case PrimitiveShort:
		return "java.lang.Short"
	case PrimitiveChar:
		return "java.lang.Character"
	case PrimitiveInt:
		return "java.lang.Integer"
	case PrimitiveLong:
		return "java.lang.Long"
	case PrimitiveFloat:
		return "java.lang.Float"
	case PrimitiveDouble:
		return "java.lang.Double"
	case PrimitiveVoid:
		return "java.lang.Void"
	default:
		return ""
	}
}

// BinaryPromotion returns the type both operands of a numeric binary
// operator are converted to: byte, short and char promote to int, otherwise
// the wider of the two.
func BinaryPromotion(a, b PrimitiveKind) PrimitiveKind {
	switch {
	case a == PrimitiveDouble || b == PrimitiveDouble:
		return PrimitiveDouble
	case a == PrimitiveFloat || b == PrimitiveFloat:
		return PrimitiveFloat
	case a == PrimitiveLong || b == PrimitiveLong:
		return PrimitiveLong
	default:
		return PrimitiveInt
	}
}

// UnaryPromotion returns the promoted type of a lone numeric operand.
func UnaryPromotion(k PrimitiveKind) PrimitiveKind {
	switch k {
	case PrimitiveByte, PrimitiveShort, PrimitiveChar:
		return PrimitiveInt
	default:
		return k
	}
}

// PrimitiveDescriptor is a primitive type. Instances are owned by an Arena.
type PrimitiveDescriptor struct {
	PrimitiveKind PrimitiveKind
}

// Kind returns KindPrimitive.
func (d *PrimitiveDescriptor) Kind() DescriptorKind { return KindPrimitive }

// ReadableName returns the source keyword.
func (d *PrimitiveDescriptor) ReadableName() string { return d.PrimitiveKind.String() }

// IsNumeric reports whether d is a numeric primitive.
func (d *PrimitiveDescriptor) IsNumeric() bool { return d.PrimitiveKind.IsNumeric() }

// IsWiderThan reports whether d is strictly wider than other.
func (d *PrimitiveDescriptor) IsWiderThan(other *PrimitiveDescriptor) bool {
	return d.PrimitiveKind.IsWiderThan(other.PrimitiveKind)
}

func (*PrimitiveDescriptor) sealed() {}
