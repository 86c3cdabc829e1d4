package interp

import (
	"fmt"
	"math"
	"strconv"

	"github.com/broady/bridgec/ast"
)

// Value is a runtime value: nil, bool, int64 (every integral kind, char
// included), float64 (float and double), string, *Object, *Array or
// *Closure. Boxed primitives are represented by the primitive itself.
type Value any

// Object is an instance of a declared class.
type Object struct {
	Class  *ast.TypeDeclaration
	fields map[*ast.FieldDescriptor]Value

	// Set by the Throwable constructors.
	message    Value
	suppressed []*Object

	// Set by the Enum constructor.
	enumName string
	ordinal  int64

	// scope is the frame an anonymous class instance was created in. Its
	// own members read the enclosing locals through it.
	scope *frame
}

// Field returns the value stored in f, or its zero value.
func (o *Object) Field(f *ast.FieldDescriptor) Value {
	if v, ok := o.fields[f.DeclarationDescriptor()]; ok {
		return v
	}
	return zero(f.Type)
}

func (o *Object) set(f *ast.FieldDescriptor, v Value) {
	if o.fields == nil {
		o.fields = make(map[*ast.FieldDescriptor]Value)
	}
	o.fields[f.DeclarationDescriptor()] = v
}

// Message returns the detail message of a Throwable.
func (o *Object) Message() Value { return o.message }

// Suppressed returns the exceptions suppressed by a Throwable.
func (o *Object) Suppressed() []*Object { return o.suppressed }

func (o *Object) String() string {
	return o.Class.ReadableName() + "@" + fmt.Sprintf("%p", o)
}

// Array is an array instance.
type Array struct {
	Type  *ast.ArrayTypeDescriptor
	Elems []Value
}

// Closure is an unlowered lambda together with the frame it was created in.
type Closure struct {
	Fn    *ast.FunctionExpression
	frame *frame
}

// Thrown is the error returned while an exception propagates.
type Thrown struct {
	Exception *Object
}

func (t *Thrown) Error() string {
	msg := "uncaught " + t.Exception.Class.QualifiedName()
	if s, ok := t.Exception.message.(string); ok {
		msg += ": " + s
	}
	return msg
}

// zero returns the default value of a slot of type t.
func zero(t ast.TypeDescriptor) Value {
	p, ok := t.(*ast.PrimitiveDescriptor)
	if !ok {
		return nil
	}
	switch k := p.PrimitiveKind; {
	case k == ast.PrimitiveBoolean:
		return false
	case k == ast.PrimitiveFloat || k == ast.PrimitiveDouble:
		return float64(0)
	case k.IsNumeric():
		return int64(0)
	}
	return nil
}

// coerce converts v to the representation of kind k, applying the
// source language's primitive conversion rules.
func coerce(v Value, k ast.PrimitiveKind) Value {
	switch k {
	case ast.PrimitiveBoolean:
		return v
	case ast.PrimitiveFloat:
		return float64(float32(toFloat(v)))
	case ast.PrimitiveDouble:
		return toFloat(v)
	case ast.PrimitiveLong:
		return toLong(v)
	case ast.PrimitiveInt:
		return int64(int32(toInt(v)))
	case ast.PrimitiveShort:
		return int64(int16(toInt(v)))
	case ast.PrimitiveByte:
		return int64(int8(toInt(v)))
	case ast.PrimitiveChar:
		return int64(uint16(toInt(v)))
	}
	return v
}

// coerceTo converts v for storage in a slot of type t. Reference slots
// keep v as is.
func coerceTo(v Value, t ast.TypeDescriptor) Value {
	if p, ok := t.(*ast.PrimitiveDescriptor); ok && v != nil {
		return coerce(v, p.PrimitiveKind)
	}
	return v
}

func toFloat(v Value) float64 {
	switch v := v.(type) {
	case int64:
		return float64(v)
	case float64:
		return v
	}
	panic(fmt.Sprintf("interp: %T is not numeric", v))
}

// toLong converts to a 64-bit integer, saturating floating-point values.
func toLong(v Value) int64 {
	switch v := v.(type) {
	case int64:
		return v
	case float64:
		switch {
		case math.IsNaN(v):
			return 0
		case v >= math.MaxInt64:
			return math.MaxInt64
		case v <= math.MinInt64:
			return math.MinInt64
		}
		return int64(v)
	}
	panic(fmt.Sprintf("interp: %T is not numeric", v))
}

// toInt converts to a 32-bit integer range before narrowing, saturating
// floating-point values.
func toInt(v Value) int64 {
	f, ok := v.(float64)
	if !ok {
		return toLong(v)
	}
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int64(f)
}

// stringOf formats v the way string concatenation does. t is the static
// type of the operand.
func stringOf(v Value, t ast.TypeDescriptor) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case int64:
		if ast.IsPrimitive(t, ast.PrimitiveChar) {
			return string(rune(v))
		}
		return strconv.FormatInt(v, 10)
	case float64:
		switch {
		case math.IsNaN(v):
			return "NaN"
		case math.IsInf(v, 1):
			return "Infinity"
		case math.IsInf(v, -1):
			return "-Infinity"
		case v == math.Trunc(v) && math.Abs(v) < 1e7:
			return strconv.FormatFloat(v, 'f', 1, 64)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	case *Object:
		return v.String()
	}
	return fmt.Sprint(v)
}
