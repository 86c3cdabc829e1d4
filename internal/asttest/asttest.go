// Package asttest builds typed trees for tests with a fluent API.
// It is import-cycle safe for every package except ast itself.
package asttest

import (
	"fmt"

	"github.com/broady/bridgec/ast"
)

// Builder creates declarations, members and expressions backed by one
// arena. Every type and member gets a distinct source position so that
// diagnostics can be told apart.
type Builder struct {
	Arena *ast.Arena
	pkg   string
	file  string
	line  int
	types []*TypeBuilder
}

// New returns a builder for the package pkg with a fresh arena.
func New(pkg string) *Builder {
	return &Builder{Arena: ast.NewArena(), pkg: pkg, file: "Test.java"}
}

// File sets the file name used in positions and in Unit.
func (b *Builder) File(name string) *Builder {
	b.file = name
	return b
}

func (b *Builder) pos() ast.Positioned {
	b.line++
	return ast.At(ast.SourcePosition{File: b.file, Line: b.line, Column: 1})
}

// Prim returns the primitive type k.
func (b *Builder) Prim(k ast.PrimitiveKind) *ast.PrimitiveDescriptor { return b.Arena.Primitive(k) }

func (b *Builder) Boolean() *ast.PrimitiveDescriptor { return b.Prim(ast.PrimitiveBoolean) }
func (b *Builder) Int() *ast.PrimitiveDescriptor     { return b.Prim(ast.PrimitiveInt) }
func (b *Builder) Long() *ast.PrimitiveDescriptor    { return b.Prim(ast.PrimitiveLong) }
func (b *Builder) Double() *ast.PrimitiveDescriptor  { return b.Prim(ast.PrimitiveDouble) }
func (b *Builder) Void() *ast.PrimitiveDescriptor    { return b.Prim(ast.PrimitiveVoid) }

// Object returns java.lang.Object.
func (b *Builder) Object() *ast.DeclaredTypeDescriptor { return b.Arena.Known.Object.Descriptor() }

// StringType returns java.lang.String.
func (b *Builder) StringType() *ast.DeclaredTypeDescriptor { return b.Arena.Known.String.Descriptor() }

// Box returns the box class of k.
func (b *Builder) Box(k ast.PrimitiveKind) *ast.DeclaredTypeDescriptor {
	return b.Arena.Known.Boxes[k].Descriptor()
}

// Array returns component[].
func (b *Builder) Array(component ast.TypeDescriptor) *ast.ArrayTypeDescriptor {
	return b.Arena.Array(component)
}

// TypeBuilder configures one declared type and its member container.
type TypeBuilder struct {
	b    *Builder
	Decl *ast.TypeDeclaration
	Type *ast.Type
}

// Class declares a top-level class extending Object.
func (b *Builder) Class(name string) *TypeBuilder {
	return b.declare(&ast.TypeDeclaration{
		Package: b.pkg,
		Name:    name,
		Kind:    ast.Class,
		Super:   b.Object(),
	})
}

// Interface declares a top-level interface.
func (b *Builder) Interface(name string) *TypeBuilder {
	return b.declare(&ast.TypeDeclaration{Package: b.pkg, Name: name, Kind: ast.Interface})
}

// Enum declares a top-level enum extending Enum<name>.
func (b *Builder) Enum(name string) *TypeBuilder {
	tb := b.declare(&ast.TypeDeclaration{Package: b.pkg, Name: name, Kind: ast.Enum, Final: true})
	tb.Decl.Super = b.Arena.Declared(b.Arena.Known.Enum, tb.Decl.Descriptor())
	return tb
}

// Nested declares a class nested in outer.
func (b *Builder) Nested(outer *TypeBuilder, name string) *TypeBuilder {
	return b.declare(&ast.TypeDeclaration{
		Package:   b.pkg,
		Name:      name,
		Enclosing: outer.Decl,
		Kind:      ast.Class,
		Super:     b.Object(),
	})
}

func (b *Builder) declare(d *ast.TypeDeclaration) *TypeBuilder {
	b.Arena.MustDeclare(d)
	tb := &TypeBuilder{b: b, Decl: d, Type: &ast.Type{Positioned: b.pos(), Declaration: d}}
	b.types = append(b.types, tb)
	return tb
}

// Unit returns a compilation unit holding every named type built so far in
// declaration order. Anonymous classes are reachable only through the
// NewInstance that creates them.
func (b *Builder) Unit() *ast.CompilationUnit {
	u := &ast.CompilationUnit{Package: b.pkg, File: b.file}
	for _, tb := range b.types {
		if !tb.Decl.Anonymous {
			u.AddType(tb.Type)
		}
	}
	return u
}

// Anonymous declares an anonymous class implementing iface, or extending
// Object when iface is nil.
func (b *Builder) Anonymous(name string, iface *ast.DeclaredTypeDescriptor) *TypeBuilder {
	tb := b.Class(name)
	tb.Decl.Anonymous = true
	tb.Decl.Final = true
	if iface != nil {
		tb.Decl.Interfaces = append(tb.Decl.Interfaces, iface)
	}
	return tb
}

// Descriptor returns the type's own descriptor.
func (t *TypeBuilder) Descriptor() *ast.DeclaredTypeDescriptor { return t.Decl.Descriptor() }

// Extends sets the superclass.
func (t *TypeBuilder) Extends(super *TypeBuilder) *TypeBuilder {
	t.Decl.Super = super.Descriptor()
	return t
}

// ExtendsType sets a possibly parameterized superclass.
func (t *TypeBuilder) ExtendsType(super *ast.DeclaredTypeDescriptor) *TypeBuilder {
	t.Decl.Super = super
	return t
}

// Implements adds superinterfaces.
func (t *TypeBuilder) Implements(ifaces ...*ast.DeclaredTypeDescriptor) *TypeBuilder {
	t.Decl.Interfaces = append(t.Decl.Interfaces, ifaces...)
	return t
}

// Final marks the type final.
func (t *TypeBuilder) Final() *TypeBuilder {
	t.Decl.Final = true
	return t
}

// Native marks the type as implemented externally.
func (t *TypeBuilder) Native() *TypeBuilder {
	t.Decl.Interop.Native = true
	return t
}

// Exposed marks the type as exposed, with an optional external name and
// namespace.
func (t *TypeBuilder) Exposed(nameAndNamespace ...string) *TypeBuilder {
	t.Decl.Interop.Exposed = true
	if len(nameAndNamespace) > 0 {
		t.Decl.Interop.Name = nameAndNamespace[0]
	}
	if len(nameAndNamespace) > 1 {
		t.Decl.Interop.Namespace = nameAndNamespace[1]
	}
	return t
}

// BridgeFunction marks an interface as a bridge function. The interface is
// also marked functional.
func (t *TypeBuilder) BridgeFunction() *TypeBuilder {
	t.Decl.Interop.BridgeFunction = true
	t.Decl.Functional = true
	return t
}

// BridgedEnum marks the type as a bridged enum.
func (t *TypeBuilder) BridgedEnum(customValue bool) *TypeBuilder {
	t.Decl.Interop.Enum = &ast.EnumBridge{CustomValue: customValue}
	return t
}

// Suppressed suppresses unusable warnings for the type and its members.
func (t *TypeBuilder) Suppressed() *TypeBuilder {
	t.Decl.UnusableSuppressed = true
	return t
}

// Field adds an instance field.
func (t *TypeBuilder) Field(name string, typ ast.TypeDescriptor, init ast.Expression) *FieldBuilder {
	fd := t.Decl.AddField(&ast.FieldDescriptor{MemberInfo: ast.MemberInfo{Name: name}, Type: typ})
	f := &ast.Field{Positioned: t.b.pos(), Descriptor: fd, Initializer: init}
	t.Type.AddMember(f)
	return &FieldBuilder{Field: f}
}

// StaticField adds a static field.
func (t *TypeBuilder) StaticField(name string, typ ast.TypeDescriptor, init ast.Expression) *FieldBuilder {
	fb := t.Field(name, typ, init)
	fb.Field.Descriptor.Static = true
	return fb
}

// Constant adds an enum constant created by calling ctor with args. A nil
// ctor leaves the initializer empty.
func (t *TypeBuilder) Constant(name string, ctor *MethodBuilder, args ...ast.Expression) *FieldBuilder {
	var init ast.Expression
	if ctor != nil {
		init = &ast.NewInstance{Target: ctor.Descriptor(), Args: args}
	}
	fb := t.StaticField(name, t.Descriptor(), init)
	fb.Field.Descriptor.EnumConstant = true
	fb.Field.Descriptor.Final = true
	return fb
}

// Method adds an instance method with the given return type and
// parameters. The body is empty until Body is called.
func (t *TypeBuilder) Method(name string, ret ast.TypeDescriptor, params ...*ast.Variable) *MethodBuilder {
	md := &ast.MethodDescriptor{MemberInfo: ast.MemberInfo{Name: name}, Return: ret}
	for _, p := range params {
		md.Parameters = append(md.Parameters, ast.ParameterDescriptor{Type: p.Type})
	}
	t.Decl.AddMethod(md)
	m := &ast.Method{Positioned: t.b.pos(), Descriptor: md, Params: params, Body: ast.NewBlock()}
	t.Type.AddMember(m)
	return &MethodBuilder{b: t.b, Method: m}
}

// Constructor adds a constructor.
func (t *TypeBuilder) Constructor(params ...*ast.Variable) *MethodBuilder {
	mb := t.Method("<init>", t.b.Void(), params...)
	mb.Method.Descriptor.Constructor = true
	return mb
}

// Initializer adds an initializer block.
func (t *TypeBuilder) Initializer(static bool, stmts ...ast.Statement) *ast.InitializerBlock {
	ib := &ast.InitializerBlock{Positioned: t.b.pos(), Static: static, Body: ast.NewBlock(stmts...)}
	t.Type.AddMember(ib)
	return ib
}

// This returns a reference to the current instance.
func (t *TypeBuilder) This() *ast.ThisReference {
	return &ast.ThisReference{Type: t.Descriptor()}
}

// FieldBuilder configures a field.
type FieldBuilder struct {
	Field *ast.Field
}

// Descriptor returns the field descriptor.
func (f *FieldBuilder) Descriptor() *ast.FieldDescriptor { return f.Field.Descriptor }

// External binds the field as an external property, optionally renamed.
func (f *FieldBuilder) External(name ...string) *FieldBuilder {
	f.Field.Descriptor.External.Kind = ast.ExternalProperty
	if len(name) > 0 {
		f.Field.Descriptor.External.Name = name[0]
	}
	return f
}

// Final marks the field final.
func (f *FieldBuilder) Final() *FieldBuilder {
	f.Field.Descriptor.Final = true
	return f
}

// CompileTimeConstant marks the field final with a constant initializer.
func (f *FieldBuilder) CompileTimeConstant() *FieldBuilder {
	f.Field.Descriptor.Final = true
	f.Field.Descriptor.CompileTimeConstant = true
	return f
}

// Overlay marks the field as an overlay.
func (f *FieldBuilder) Overlay() *FieldBuilder {
	f.Field.Descriptor.External.Overlay = true
	return f
}

// MethodBuilder configures a method or constructor.
type MethodBuilder struct {
	b      *Builder
	Method *ast.Method
}

// Descriptor returns the method descriptor.
func (m *MethodBuilder) Descriptor() *ast.MethodDescriptor { return m.Method.Descriptor }

// Body replaces the body.
func (m *MethodBuilder) Body(stmts ...ast.Statement) *MethodBuilder {
	m.Method.Body = ast.NewBlock(stmts...)
	return m
}

// NoBody removes the body, as for abstract and native methods.
func (m *MethodBuilder) NoBody() *MethodBuilder {
	m.Method.Body = nil
	return m
}

// Static marks the method static.
func (m *MethodBuilder) Static() *MethodBuilder {
	m.Method.Descriptor.Static = true
	return m
}

// Final marks the method final.
func (m *MethodBuilder) Final() *MethodBuilder {
	m.Method.Descriptor.Final = true
	return m
}

// Private makes the method private.
func (m *MethodBuilder) Private() *MethodBuilder {
	m.Method.Descriptor.Visibility = ast.Private
	return m
}

// Abstract marks the method abstract and removes its body.
func (m *MethodBuilder) Abstract() *MethodBuilder {
	m.Method.Descriptor.Abstract = true
	return m.NoBody()
}

// Native marks the method native and removes its body.
func (m *MethodBuilder) Native() *MethodBuilder {
	m.Method.Descriptor.Native = true
	return m.NoBody()
}

// External binds the member with the given kind and optional name.
func (m *MethodBuilder) External(kind ast.ExternalKind, name ...string) *MethodBuilder {
	m.Method.Descriptor.External.Kind = kind
	if len(name) > 0 {
		m.Method.Descriptor.External.Name = name[0]
	}
	return m
}

// Overlay marks the method as an overlay.
func (m *MethodBuilder) Overlay() *MethodBuilder {
	m.Method.Descriptor.External.Overlay = true
	return m
}

// Function marks the method as the function of a bridge-function interface
// or of one of its implementations.
func (m *MethodBuilder) Function() *MethodBuilder {
	m.Method.Descriptor.External.Function = true
	return m
}

// Async marks the method async.
func (m *MethodBuilder) Async() *MethodBuilder {
	m.Method.Descriptor.External.Async = true
	return m
}

// Varargs marks the last parameter variadic.
func (m *MethodBuilder) Varargs() *MethodBuilder {
	m.Method.Descriptor.Varargs = true
	return m
}

// Optional marks the parameters at the given indices optional.
func (m *MethodBuilder) Optional(indices ...int) *MethodBuilder {
	for _, i := range indices {
		m.Method.Descriptor.Parameters[i].Optional = true
	}
	return m
}

// Overrides records the methods this one overrides.
func (m *MethodBuilder) Overrides(overridden ...*ast.MethodDescriptor) *MethodBuilder {
	m.Method.Descriptor.Overrides = append(m.Method.Descriptor.Overrides, overridden...)
	return m
}

// Param returns a new parameter variable.
func (b *Builder) Param(name string, typ ast.TypeDescriptor) *ast.Variable {
	return &ast.Variable{Name: name, Type: typ, Parameter: true}
}

// Local returns a new local variable.
func (b *Builder) Local(name string, typ ast.TypeDescriptor) *ast.Variable {
	return &ast.Variable{Name: name, Type: typ}
}

// Lit returns a numeric literal of kind k.
func (b *Builder) Lit(k ast.PrimitiveKind, v float64) *ast.NumberLiteral {
	return &ast.NumberLiteral{Type: b.Prim(k), Value: v}
}

// IntLit returns an int literal.
func (b *Builder) IntLit(v int) *ast.NumberLiteral { return b.Lit(ast.PrimitiveInt, float64(v)) }

// Str returns a string literal.
func (b *Builder) Str(s string) *ast.StringLiteral {
	return &ast.StringLiteral{Type: b.StringType(), Value: s}
}

// Bool returns a boolean literal.
func (b *Builder) Bool(v bool) *ast.BooleanLiteral {
	return &ast.BooleanLiteral{Type: b.Boolean(), Value: v}
}

// Null returns the null literal.
func (b *Builder) Null() *ast.NullLiteral { return &ast.NullLiteral{Type: b.Arena.Null()} }

// Ref returns a reference to v.
func (b *Builder) Ref(v *ast.Variable) *ast.VariableReference { return v.Reference() }

// Binary builds l op r and computes its type the way the front end would.
func (b *Builder) Binary(op ast.BinaryOperator, l, r ast.Expression) *ast.BinaryExpression {
	return &ast.BinaryExpression{Type: b.binaryType(op, l, r), Op: op, Left: l, Right: r}
}

// Assign builds l = r.
func (b *Builder) Assign(l, r ast.Expression) *ast.BinaryExpression {
	return b.Binary(ast.OpAssign, l, r)
}

func (b *Builder) binaryType(op ast.BinaryOperator, l, r ast.Expression) ast.TypeDescriptor {
	lt, rt := l.TypeDescriptor(), r.TypeDescriptor()
	switch {
	case op.IsAssignment():
		return lt
	case op.IsRelational() || op.IsEquality() || op.IsShortCircuit():
		return b.Boolean()
	case op == ast.OpPlus && (ast.IsString(lt) || ast.IsString(rt)):
		return b.StringType()
	}
	lk, lok := b.kind(lt)
	rk, rok := b.kind(rt)
	switch {
	case !lok || !rok:
		panic(fmt.Sprintf("asttest: operands of %s have no primitive type", op))
	case lk == ast.PrimitiveBoolean:
		return b.Boolean()
	case op.IsShift():
		return b.Prim(ast.UnaryPromotion(lk))
	default:
		return b.Prim(ast.BinaryPromotion(lk, rk))
	}
}

func (b *Builder) kind(t ast.TypeDescriptor) (ast.PrimitiveKind, bool) {
	switch t := t.(type) {
	case *ast.PrimitiveDescriptor:
		return t.PrimitiveKind, true
	case *ast.DeclaredTypeDescriptor:
		return b.Arena.Known.UnboxedKind(t.Decl)
	}
	return 0, false
}

// Unary builds op operand, typed as its promoted operand for numeric
// operators.
func (b *Builder) Unary(op ast.UnaryOperator, operand ast.Expression) *ast.UnaryExpression {
	t := operand.TypeDescriptor()
	if k, ok := b.kind(t); ok && k.IsNumeric() && !op.IsIncrementOrDecrement() {
		t = b.Prim(ast.UnaryPromotion(k))
	}
	if op == ast.OpNot {
		t = b.Boolean()
	}
	return &ast.UnaryExpression{Type: t, Op: op, Operand: operand}
}

// Call invokes target on qualifier. Static calls pass a nil qualifier.
func (b *Builder) Call(qualifier ast.Expression, target *ast.MethodDescriptor, args ...ast.Expression) *ast.MethodCall {
	return &ast.MethodCall{Qualifier: qualifier, Target: target, Args: args}
}

// New creates an instance through ctor.
func (b *Builder) New(ctor *ast.MethodDescriptor, args ...ast.Expression) *ast.NewInstance {
	return &ast.NewInstance{Target: ctor, Args: args}
}

// ThisCall builds this(args...) for the type enclosing ctor.
func (b *Builder) ThisCall(ctor *ast.MethodDescriptor, args ...ast.Expression) *ast.ExpressionStatement {
	return ast.Stmt(&ast.MethodCall{Qualifier: &ast.ThisReference{Type: ctor.Enclosing.Descriptor()}, Target: ctor, Args: args})
}

// SuperCall builds super(args...) invoking ctor.
func (b *Builder) SuperCall(ctor *ast.MethodDescriptor, args ...ast.Expression) *ast.ExpressionStatement {
	return ast.Stmt(&ast.MethodCall{Qualifier: &ast.SuperReference{Type: ctor.Enclosing.Descriptor()}, Target: ctor, Args: args})
}

// Get reads field f of qualifier.
func (b *Builder) Get(qualifier ast.Expression, f *ast.FieldDescriptor) *ast.FieldAccess {
	return &ast.FieldAccess{Qualifier: qualifier, Target: f}
}

// Cast builds (t) e.
func (b *Builder) Cast(t ast.TypeDescriptor, e ast.Expression) *ast.CastExpression {
	return &ast.CastExpression{Type: t, Expr: e}
}

// InstanceOf builds e instanceof t.
func (b *Builder) InstanceOf(e ast.Expression, t ast.TypeDescriptor) *ast.InstanceOfExpression {
	return &ast.InstanceOfExpression{Type: b.Boolean(), Expr: e, Test: t}
}

// Declare builds the declaration of v with an optional initializer.
func (b *Builder) Declare(v *ast.Variable, init ast.Expression) *ast.ExpressionStatement {
	return ast.Stmt(&ast.VariableDeclarationExpression{
		Fragments: []*ast.VariableDeclarationFragment{{Variable: v, Initializer: init}},
	})
}

// DeclareExpr is like Declare but returns the bare expression, as used for
// try-with-resources.
func (b *Builder) DeclareExpr(v *ast.Variable, init ast.Expression) *ast.VariableDeclarationExpression {
	return b.Declare(v, init).Expr.(*ast.VariableDeclarationExpression)
}

// Return builds a return statement.
func (b *Builder) Return(e ast.Expression) *ast.ReturnStatement { return &ast.ReturnStatement{Expr: e} }

// Throw builds a throw statement.
func (b *Builder) Throw(e ast.Expression) *ast.ThrowStatement { return &ast.ThrowStatement{Expr: e} }

// NewArray builds new component[dims...].
func (b *Builder) NewArray(t *ast.ArrayTypeDescriptor, dims ...ast.Expression) *ast.NewArray {
	return &ast.NewArray{Type: t, Dimensions: dims}
}

// Lambda builds a function expression implementing md of iface.
func (b *Builder) Lambda(iface ast.TypeDescriptor, md *ast.MethodDescriptor, params []*ast.Variable, stmts ...ast.Statement) *ast.FunctionExpression {
	return &ast.FunctionExpression{Type: iface, Descriptor: md, Params: params, Body: ast.NewBlock(stmts...)}
}
