package checker

import (
	"github.com/broady/bridgec/ast"
	"github.com/broady/bridgec/conversion"
)

// Bridged enums come in three flavors:
//
//	                   | value field | constructor | Comparable | ordinal()
//	non-custom-valued  |             |             |     x      |     x
//	custom-valued      |      x      |      x      |            |
//	native             |      x      |             |            |
func (c *checker) checkBridgedEnum(t *ast.Type) {
	d := t.Declaration
	name := t.ReadableName()

	if !d.IsEnum() {
		c.problems.Error(t.Pos(), "JsEnum '%s' has to be an enum type.", name)
		return
	}
	if d.IsExposed() {
		c.problems.Error(t.Pos(), "'%s' cannot be both a JsEnum and a JsType at the same time.", name)
	}

	valueField := enumValueField(t)
	switch {
	case valueField == nil && d.HasCustomValue():
		c.problems.Error(t.Pos(), "Custom-valued JsEnum '%s' does not have a field named 'value'.", name)
	case valueField != nil && !d.HasCustomValue():
		c.problems.Error(t.Pos(), "Non-custom-valued JsEnum '%s' cannot have a field named 'value'.", name)
	}

	if len(t.Constructors()) == 0 && requiresConstructor(d) {
		c.problems.Error(t.Pos(), "Custom-valued JsEnum '%s' should have a constructor.", name)
	}
	if len(d.Interfaces) > 0 {
		c.problems.Error(t.Pos(), "JsEnum '%s' cannot implement any interface.", name)
	}

	for _, m := range t.Members {
		if desc := m.MemberDescriptor(); desc != nil && desc.Info().IsOverlay() {
			continue
		}
		c.checkMemberOfBridgedEnum(t, m, valueField)
	}
}

func enumValueField(t *ast.Type) *ast.Field {
	for _, f := range t.Fields() {
		if f.Descriptor.IsValueField() {
			return f
		}
	}
	return nil
}

func requiresConstructor(d *ast.TypeDeclaration) bool {
	return d.HasCustomValue() && !d.IsNative()
}

func (c *checker) checkMemberOfBridgedEnum(t *ast.Type, m ast.Member, valueField *ast.Field) {
	switch m := m.(type) {
	case *ast.Field:
		switch {
		case m.Descriptor.EnumConstant:
			c.checkEnumConstant(t, m)
		case m.Descriptor.IsValueField():
			c.checkValueField(m)
		case !m.Descriptor.Static:
			c.problems.Error(m.Pos(), "JsEnum '%s' cannot have instance field '%s'.", t.ReadableName(), m.Descriptor.ReadableName())
		default:
			if t.Declaration.IsNative() {
				c.checkMustBeOverlay(m, "Native JsEnum")
			}
			c.checkImplementableStatically(m, "JsEnum")
		}
	case *ast.InitializerBlock:
		if !m.Static {
			c.problems.Error(m.Pos(), "JsEnum '%s' cannot have an instance initializer.", t.ReadableName())
		}
	case *ast.Method:
		if m.IsConstructor() {
			var valueType ast.TypeDescriptor
			if valueField != nil {
				valueType = valueField.Descriptor.Type
			}
			c.checkEnumConstructor(t, m, valueType)
		} else if t.Declaration.IsNative() {
			c.checkMustBeOverlay(m, "Native JsEnum")
		}
		c.checkImplementableStatically(m, "JsEnum")
	}
}

func (c *checker) checkEnumConstant(t *ast.Type, f *ast.Field) {
	init, ok := f.Initializer.(*ast.NewInstance)
	if f.Initializer == nil {
		return
	}
	if !ok || init.Body != nil || !ast.SameBaseType(f.Initializer.TypeDescriptor(), t.Descriptor()) {
		c.problems.Error(f.Pos(), "JsEnum constant '%s' cannot have a class body.", f.Descriptor.ReadableName())
		return
	}
	if !t.Declaration.HasCustomValue() {
		// A value field on a non-custom-valued enum is already an error.
		return
	}
	if len(init.Args) != 1 {
		return
	}
	if !ast.IsCompileTimeConstant(init.Args[0]) {
		c.problems.Error(f.Pos(), "Custom-valued JsEnum constant '%s' cannot have a non-literal value.", f.Descriptor.ReadableName())
	}
}

func (c *checker) checkValueField(f *ast.Field) {
	fd := f.Descriptor
	if !fd.Enclosing.HasCustomValue() {
		return
	}
	what := "Custom-valued JsEnum value field '" + fd.ReadableName() + "'"

	if fd.Static || fd.IsOverlay() || fd.IsExternal() {
		c.problems.Error(f.Pos(), "%s cannot be static nor JsOverlay nor JsMethod nor JsProperty.", what)
	}
	if !isCustomValueType(fd.Type) {
		c.problems.Error(f.Pos(), "%s cannot have the type '%s'.", what, fd.Type.ReadableName())
	}
	if f.Initializer != nil {
		c.problems.Error(f.Pos(), "%s cannot have initializer.", what)
	}
}

// isCustomValueType reports whether t can carry the value of a
// custom-valued enum: any primitive except long, or String.
func isCustomValueType(t ast.TypeDescriptor) bool {
	if ast.IsAnyPrimitive(t) {
		return !ast.IsPrimitive(t, ast.PrimitiveLong) && !ast.IsPrimitive(t, ast.PrimitiveVoid)
	}
	return ast.IsString(t)
}

func (c *checker) checkEnumConstructor(t *ast.Type, ctor *ast.Method, valueType ast.TypeDescriptor) {
	d := t.Declaration
	if !requiresConstructor(d) {
		c.problems.Error(ctor.Pos(), "%s '%s' cannot have constructor '%s'.", d.EnumFlavor(), d.ReadableName(), ctor.ReadableName())
		return
	}
	if isValueConstructor(d, ctor, valueType) {
		return
	}
	c.problems.Error(ctor.Pos(), "Custom-valued JsEnum constructor '%s' should have one parameter of the value type "+
		"and its body should only be the assignment to the value field.", ctor.ReadableName())
}

// isValueConstructor reports whether ctor has the only legal shape for a
// custom-valued enum constructor:
//
//	E(T value) { [super();] this.value = value; }
func isValueConstructor(d *ast.TypeDeclaration, ctor *ast.Method, valueType ast.TypeDescriptor) bool {
	md := ctor.Descriptor
	if len(md.Parameters) != 1 || len(ctor.Params) != 1 || !ast.SameBaseType(md.Parameters[0].Type, valueType) {
		return false
	}
	i := 0
	if ast.SuperCall(ctor) != nil {
		i = 1
	}
	if ctor.Body == nil || len(ctor.Body.Statements) != i+1 {
		return false
	}

	s, ok := ctor.Body.Statements[i].(*ast.ExpressionStatement)
	if !ok {
		return false
	}
	assign, ok := s.Expr.(*ast.BinaryExpression)
	if !ok || assign.Op != ast.OpAssign {
		return false
	}
	lhs, ok := assign.Left.(*ast.FieldAccess)
	if !ok {
		return false
	}
	rhs, ok := assign.Right.(*ast.VariableReference)
	if !ok {
		return false
	}
	switch lhs.Qualifier.(type) {
	case nil, *ast.ThisReference:
	default:
		return false
	}
	return lhs.Target.Enclosing == d && lhs.Target.IsValueField() && rhs.Target == ctor.Params[0]
}

// checkEnumMethodCall rejects calls to methods a bridged enum cannot
// support at run time.
func (c *checker) checkEnumMethodCall(call *ast.MethodCall, member ast.Member) {
	target := call.Target
	var qualifier ast.TypeDescriptor
	switch {
	case target.Static:
		qualifier = target.Enclosing.Descriptor()
	case call.Qualifier != nil:
		qualifier = call.Qualifier.TypeDescriptor()
	default:
		return
	}
	q, ok := qualifier.(*ast.DeclaredTypeDescriptor)
	if !ok || !q.Decl.IsBridgedEnum() {
		return
	}
	if target.Enclosing.IsBridgedEnum() && !target.EnumSynthetic {
		// Methods declared by the enum itself are callable.
		return
	}
	if target.IsOrOverridesObjectMethod() {
		return
	}

	what := "JsEnum"
	switch target.Signature() {
	case "compareTo(java.lang.Enum)":
		if q.Decl.SupportsComparable() {
			return
		}
		what = q.Decl.EnumFlavor()
	case "ordinal()":
		if q.Decl.SupportsOrdinal() {
			return
		}
		what = q.Decl.EnumFlavor()
	}
	c.problems.Error(positionOf(call, member), "%s '%s' does not support '%s'.", what, q.ReadableName(), target.ReadableName())
}

// checkEnumAssignments rejects implicit conversions of bridged enums to
// supertypes they do not have at run time. Conversion sites carry no
// position of their own, so errors are reported at the member.
func (c *checker) checkEnumAssignments(t *ast.Type) {
	for _, m := range t.Members {
		pos := m.Pos()
		r := &conversion.Rewriter{
			Arena:   c.arena,
			Shallow: true,
			TypeConversion: func(to, _ ast.TypeDescriptor, e ast.Expression) ast.Expression {
				c.checkEnumAssignment(pos, to, e)
				return e
			},
		}
		r.Apply(m)
	}
}

func (c *checker) checkEnumAssignment(pos ast.SourcePosition, to ast.TypeDescriptor, e ast.Expression) {
	from, ok := e.TypeDescriptor().(*ast.DeclaredTypeDescriptor)
	if !ok || !from.Decl.IsBridgedEnum() || ast.IsBridgedEnum(to) {
		return
	}
	raw := ast.ToRaw(to)
	if ast.IsObject(raw) || ast.IsSerializable(raw) {
		return
	}
	what := "JsEnum"
	if ast.IsComparable(raw) {
		if from.Decl.SupportsComparable() {
			return
		}
		what = from.Decl.EnumFlavor()
	}
	c.problems.Error(pos, "%s '%s' cannot be assigned to '%s'.", what, from.ReadableName(), to.ReadableName())
}

// checkValueFieldAssignment rejects writes to the value field outside the
// enum's own constructors, whose shape is checked separately.
func (c *checker) checkValueFieldAssignment(t *ast.Type, n *ast.BinaryExpression, member ast.Member) {
	if !n.Op.IsAssignment() {
		return
	}
	lhs, ok := n.Left.(*ast.FieldAccess)
	if !ok || !lhs.Target.IsValueField() {
		return
	}
	if m, ok := member.(*ast.Method); ok && m.IsConstructor() && m.Descriptor.Enclosing.IsBridgedEnum() {
		return
	}
	c.problems.Error(positionOf(lhs, t), "Custom-valued JsEnum value field '%s' cannot be assigned.", lhs.Target.ReadableName())
}
