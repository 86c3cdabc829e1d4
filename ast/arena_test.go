package ast

import "testing"

func TestArena_Interning(t *testing.T) {
	a := NewArena()
	if a.Primitive(PrimitiveInt) != a.Primitive(PrimitiveInt) {
		t.Error("primitive descriptors are not interned")
	}
	intArr := a.Array(a.Primitive(PrimitiveInt))
	if a.Array(a.Primitive(PrimitiveInt)) != intArr {
		t.Error("array descriptors are not interned")
	}
	if a.ArrayOf(a.Primitive(PrimitiveInt), 2) != a.Array(intArr) {
		t.Error("ArrayOf does not nest interned arrays")
	}
	str := a.Known.String.Descriptor()
	cmp1 := a.Declared(a.Known.Comparable, str)
	cmp2 := a.Declared(a.Known.Comparable, str)
	if cmp1 != cmp2 {
		t.Error("parameterized descriptors are not interned")
	}
	if a.Declared(a.Known.Comparable) != a.Known.Comparable.Descriptor() {
		t.Error("Declared without arguments should return the raw descriptor")
	}
}

func TestArena_SeparateRuns(t *testing.T) {
	a, b := NewArena(), NewArena()
	if a.Primitive(PrimitiveInt) == b.Primitive(PrimitiveInt) {
		t.Error("arenas share descriptors")
	}
	if !SameType(a.Primitive(PrimitiveInt), b.Primitive(PrimitiveInt)) {
		t.Error("equal primitives from different arenas should compare structurally equal")
	}
}

func TestArena_Declare(t *testing.T) {
	a := NewArena()
	d := &TypeDeclaration{Package: "p", Name: "A", Kind: Class, Super: a.Known.Object.Descriptor()}
	m := &MethodDescriptor{MemberInfo: MemberInfo{Name: "m"}, Return: a.Primitive(PrimitiveVoid)}
	d.Methods = append(d.Methods, m)
	if _, err := a.Declare(d); err != nil {
		t.Fatal(err)
	}
	if m.Enclosing != d {
		t.Error("Declare did not set the enclosing type of members")
	}
	if a.Lookup("p.A") != d {
		t.Error("Lookup(p.A) did not find the declaration")
	}
	if _, err := a.Declare(&TypeDeclaration{Package: "p", Name: "A"}); err == nil {
		t.Error("duplicate declaration accepted")
	}
}

func TestKnown_WideningMethods(t *testing.T) {
	a := NewArena()
	for from := PrimitiveByte; from <= PrimitiveDouble; from++ {
		for to := PrimitiveByte; to <= PrimitiveDouble; to++ {
			m := a.Known.WideningMethod(from, to)
			if to.IsWiderThan(from) != (m != nil) {
				t.Errorf("WideningMethod(%s, %s) = %v", from, to, m)
				continue
			}
			if m != nil && !IsPrimitive(m.Return, to) {
				t.Errorf("%s returns %s, want %s", m.Name, m.Return.ReadableName(), to)
			}
		}
	}
	if m := a.Known.WideningMethod(PrimitiveInt, PrimitiveLong); m.Name != "$widenIntToLong" {
		t.Errorf("got %s, want $widenIntToLong", m.Name)
	}
}

func TestKnown_Boxes(t *testing.T) {
	a := NewArena()
	for kind, box := range a.Known.Boxes {
		if box.QualifiedName() != kind.BoxedName() {
			t.Errorf("box of %s is %s", kind, box.QualifiedName())
		}
		got, ok := a.Known.UnboxedKind(box)
		if !ok || got != kind {
			t.Errorf("UnboxedKind(%s) = %v, %v", box.Name, got, ok)
		}
		if a.Known.ValueOf(kind) == nil || a.Known.PrimitiveValue(kind) == nil {
			t.Errorf("%s is missing valueOf or %sValue", box.Name, kind)
		}
	}
	if !a.Known.Boxes[PrimitiveInt].IsSubtypeOf(a.Known.Number) {
		t.Error("Integer should extend Number")
	}
	if a.Known.Boxes[PrimitiveBoolean].IsSubtypeOf(a.Known.Number) {
		t.Error("Boolean should not extend Number")
	}
}
