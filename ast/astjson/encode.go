package astjson

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/broady/bridgec/ast"
)

// Encode writes units as one document, together with the declarations of
// every type they define. Types referenced but defined elsewhere are
// written by name only and must be known to the decoder.
func Encode(w io.Writer, arena *ast.Arena, units ...*ast.CompilationUnit) error {
	e := newEncoder(arena)
	doc := e.document(units)
	if e.err != nil {
		return fmt.Errorf("astjson: %w", e.err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Marshal is like Encode but returns the document.
func Marshal(arena *ast.Arena, units ...*ast.CompilationUnit) ([]byte, error) {
	e := newEncoder(arena)
	doc := e.document(units)
	if e.err != nil {
		return nil, fmt.Errorf("astjson: %w", e.err)
	}
	return json.MarshalIndent(doc, "", "  ")
}

type encoder struct {
	arena  *ast.Arena
	vars   map[*ast.Variable]int
	owners map[*ast.TypeVariableDescriptor]*ast.TypeDeclaration
	err    error
}

func newEncoder(arena *ast.Arena) *encoder {
	e := &encoder{
		arena:  arena,
		vars:   make(map[*ast.Variable]int),
		owners: make(map[*ast.TypeVariableDescriptor]*ast.TypeDeclaration),
	}
	for _, d := range arena.Declarations() {
		for _, tv := range d.TypeParameters {
			e.owners[tv] = d
		}
	}
	return e
}

// fail records the first error. Encoding continues so the caller sees a
// single, earliest failure.
func (e *encoder) fail(format string, args ...any) {
	if e.err == nil {
		e.err = fmt.Errorf(format, args...)
	}
}

func (e *encoder) document(units []*ast.CompilationUnit) *document {
	defined := make(map[*ast.TypeDeclaration]bool)
	for _, u := range units {
		ast.Inspect(u, func(n ast.Node) bool {
			if t, ok := n.(*ast.Type); ok {
				defined[t.Declaration] = true
			}
			return true
		})
	}

	doc := &document{Version: Version}
	// Arena order puts enclosing types before the types nested in them.
	for _, d := range e.arena.Declarations() {
		if defined[d] {
			doc.Declarations = append(doc.Declarations, e.declaration(d))
		}
	}
	for _, u := range units {
		doc.Units = append(doc.Units, e.unit(u))
	}
	return doc
}

func (e *encoder) position(p ast.SourcePosition) *position {
	if p.IsZero() {
		return nil
	}
	return &position{File: p.File, Line: p.Line, Column: p.Column}
}

func (e *encoder) typeRef(t ast.TypeDescriptor) *typeRef {
	switch t := t.(type) {
	case nil:
		return nil
	case *ast.PrimitiveDescriptor:
		return &typeRef{Kind: typePrimitive, Name: t.PrimitiveKind.String()}
	case *ast.DeclaredTypeDescriptor:
		return &typeRef{Kind: typeDeclared, Name: t.Decl.QualifiedName(), Args: e.typeRefs(t.Args)}
	case *ast.ArrayTypeDescriptor:
		return &typeRef{Kind: typeArray, Component: e.typeRef(t.Component)}
	case *ast.TypeVariableDescriptor:
		owner, ok := e.owners[t]
		if !ok {
			e.fail("type variable %s has no declaring type", t.Name)
			return nil
		}
		return &typeRef{Kind: typeVariable, Name: t.Name, Owner: owner.QualifiedName()}
	case *ast.IntersectionTypeDescriptor:
		return &typeRef{Kind: typeIntersection, Args: e.typeRefs(t.Types)}
	case *ast.NullTypeDescriptor:
		return &typeRef{Kind: typeNull}
	}
	e.fail("unsupported type descriptor %T", t)
	return nil
}

func (e *encoder) typeRefs(ts []ast.TypeDescriptor) []*typeRef {
	if len(ts) == 0 {
		return nil
	}
	refs := make([]*typeRef, len(ts))
	for i, t := range ts {
		refs[i] = e.typeRef(t)
	}
	return refs
}

func (e *encoder) methodRef(m *ast.MethodDescriptor) *memberRef {
	if m == nil {
		return nil
	}
	decl := m.DeclarationDescriptor()
	if decl.Enclosing == nil {
		e.fail("method %s has no enclosing type", m.Name)
		return nil
	}
	for i, candidate := range decl.Enclosing.Methods {
		if candidate != decl {
			continue
		}
		ref := &memberRef{Owner: decl.Enclosing.QualifiedName(), Index: i}
		if m != decl {
			ref.Specialized = true
			for _, p := range m.Parameters {
				ref.Parameters = append(ref.Parameters, e.typeRef(p.Type))
			}
			ref.Return = e.typeRef(m.Return)
		}
		return ref
	}
	e.fail("method %s is not declared by %s", m.ReadableName(), decl.Enclosing.QualifiedName())
	return nil
}

func (e *encoder) fieldRef(f *ast.FieldDescriptor) *memberRef {
	decl := f.DeclarationDescriptor()
	if decl.Enclosing == nil {
		e.fail("field %s has no enclosing type", f.Name)
		return nil
	}
	for i, candidate := range decl.Enclosing.Fields {
		if candidate != decl {
			continue
		}
		ref := &memberRef{Owner: decl.Enclosing.QualifiedName(), Index: i}
		if f != decl {
			ref.Specialized = true
			ref.Type = e.typeRef(f.Type)
		}
		return ref
	}
	e.fail("field %s is not declared by %s", f.ReadableName(), decl.Enclosing.QualifiedName())
	return nil
}

func (e *encoder) declaration(d *ast.TypeDeclaration) *declaration {
	w := &declaration{
		Package:                   d.Package,
		Name:                      d.Name,
		Kind:                      d.Kind.String(),
		Visibility:                d.Visibility.String(),
		Final:                     d.Final,
		Abstract:                  d.Abstract,
		Local:                     d.Local,
		Anonymous:                 d.Anonymous,
		CapturesEnclosingInstance: d.CapturesEnclosingInstance,
		Functional:                d.Functional,
		UnusableSuppressed:        d.UnusableSuppressed,
	}
	if d.Enclosing != nil {
		w.Enclosing = d.Enclosing.QualifiedName()
	}
	for _, tv := range d.TypeParameters {
		w.TypeParameters = append(w.TypeParameters, &typeParameter{Name: tv.Name, Bound: e.typeRef(tv.Bound)})
	}
	if d.Super != nil {
		w.Super = e.typeRef(d.Super)
	}
	for _, i := range d.Interfaces {
		w.Interfaces = append(w.Interfaces, e.typeRef(i))
	}
	for _, m := range d.Methods {
		wm := &method{
			member:        e.member(&m.MemberInfo),
			Return:        e.typeRef(m.Return),
			Constructor:   m.Constructor,
			Varargs:       m.Varargs,
			Default:       m.Default,
			EnumSynthetic: m.EnumSynthetic,
		}
		for _, p := range m.Parameters {
			wm.Parameters = append(wm.Parameters, &parameter{Type: e.typeRef(p.Type), Optional: p.Optional})
		}
		for _, o := range m.Overrides {
			wm.Overrides = append(wm.Overrides, e.methodRef(o))
		}
		w.Methods = append(w.Methods, wm)
	}
	for _, f := range d.Fields {
		w.Fields = append(w.Fields, &field{
			member:              e.member(&f.MemberInfo),
			Type:                e.typeRef(f.Type),
			EnumConstant:        f.EnumConstant,
			CompileTimeConstant: f.CompileTimeConstant,
		})
	}
	in := d.Interop
	if in != (ast.TypeInterop{}) {
		w.Interop = &interop{
			Exposed:        in.Exposed,
			Native:         in.Native,
			BridgeFunction: in.BridgeFunction,
			Name:           in.Name,
			Namespace:      in.Namespace,
		}
		if in.Enum != nil {
			w.Interop.Enum = &enumBridge{CustomValue: in.Enum.CustomValue}
		}
	}
	return w
}

func (e *encoder) member(m *ast.MemberInfo) member {
	w := member{
		Name:               m.Name,
		Visibility:         m.Visibility.String(),
		Static:             m.Static,
		Final:              m.Final,
		Abstract:           m.Abstract,
		Native:             m.Native,
		Synthetic:          m.Synthetic,
		UnusableSuppressed: m.UnusableSuppressed,
	}
	if x := m.External; x != (ast.ExternalInfo{}) {
		w.External = &external{
			Kind:      x.Kind.String(),
			Name:      x.Name,
			Namespace: x.Namespace,
			Overlay:   x.Overlay,
			Async:     x.Async,
			Function:  x.Function,
		}
	}
	return w
}

func (e *encoder) unit(u *ast.CompilationUnit) *unit {
	w := &unit{Package: u.Package, File: u.File, Pos: e.position(u.Pos())}
	for _, t := range u.Types {
		w.Types = append(w.Types, e.typeNode(t))
	}
	return w
}

func (e *encoder) typeNode(t *ast.Type) *typeNode {
	w := &typeNode{Pos: e.position(t.Pos()), Declaration: t.Declaration.QualifiedName()}
	for _, m := range t.Members {
		switch m := m.(type) {
		case *ast.Field:
			w.Members = append(w.Members, &memberNode{
				Kind:        memberField,
				Pos:         e.position(m.Pos()),
				Ref:         e.fieldRef(m.Descriptor),
				Initializer: e.expr(m.Initializer),
			})
		case *ast.Method:
			w.Members = append(w.Members, &memberNode{
				Kind:   memberMethod,
				Pos:    e.position(m.Pos()),
				Ref:    e.methodRef(m.Descriptor),
				Params: e.variables(m.Params),
				Body:   e.block(m.Body),
			})
		case *ast.InitializerBlock:
			w.Members = append(w.Members, &memberNode{
				Kind:   memberInitializer,
				Pos:    e.position(m.Pos()),
				Body:   e.block(m.Body),
				Static: m.Static,
			})
		}
	}
	return w
}

func (e *encoder) varID(v *ast.Variable) int {
	id, ok := e.vars[v]
	if !ok {
		id = len(e.vars) + 1
		e.vars[v] = id
	}
	return id
}

func (e *encoder) variable(v *ast.Variable) *variable {
	if v == nil {
		return nil
	}
	return &variable{
		ID:                 e.varID(v),
		Pos:                e.position(v.Pos()),
		Name:               v.Name,
		Type:               e.typeRef(v.Type),
		Parameter:          v.Parameter,
		Final:              v.Final,
		UnusableSuppressed: v.UnusableSuppressed,
	}
}

func (e *encoder) variables(vs []*ast.Variable) []*variable {
	var w []*variable
	for _, v := range vs {
		w = append(w, e.variable(v))
	}
	return w
}

func (e *encoder) block(b *ast.Block) *node {
	if b == nil {
		return nil
	}
	w := &node{Kind: kindBlock, Pos: e.position(b.Pos())}
	for _, s := range b.Statements {
		w.Statements = append(w.Statements, e.stmt(s))
	}
	return w
}

func (e *encoder) stmt(s ast.Statement) *node {
	switch s := s.(type) {
	case nil:
		return nil
	case *ast.Block:
		return e.block(s)
	case *ast.ExpressionStatement:
		return &node{Kind: kindExpression, Pos: e.position(s.Pos()), Expr: e.expr(s.Expr)}
	case *ast.ReturnStatement:
		return &node{Kind: kindReturn, Pos: e.position(s.Pos()), Expr: e.expr(s.Expr)}
	case *ast.IfStatement:
		return &node{Kind: kindIf, Pos: e.position(s.Pos()), Cond: e.expr(s.Cond), Then: e.stmt(s.Then), Else: e.stmt(s.Else)}
	case *ast.WhileStatement:
		return &node{Kind: kindWhile, Pos: e.position(s.Pos()), Cond: e.expr(s.Cond), Body: e.stmt(s.Body)}
	case *ast.ThrowStatement:
		return &node{Kind: kindThrow, Pos: e.position(s.Pos()), Expr: e.expr(s.Expr)}
	case *ast.TryStatement:
		w := &node{Kind: kindTry, Pos: e.position(s.Pos()), Body: e.block(s.Body), Finally: e.block(s.Finally)}
		w.Resources = e.exprs(s.Resources)
		for _, c := range s.Catches {
			w.Catches = append(w.Catches, &catchClause{
				Pos:       e.position(c.Pos()),
				Exception: e.variable(c.Exception),
				Body:      e.block(c.Body),
			})
		}
		return w
	}
	e.fail("unsupported statement %T", s)
	return nil
}

func (e *encoder) exprs(es []ast.Expression) []*node {
	var w []*node
	for _, x := range es {
		w = append(w, e.expr(x))
	}
	return w
}

func (e *encoder) expr(x ast.Expression) *node {
	if x == nil {
		return nil
	}
	w := &node{Pos: e.position(x.Pos())}
	switch x := x.(type) {
	case *ast.NumberLiteral:
		w.Kind, w.Type = kindNumber, e.typeRef(x.Type)
		v := x.Value
		w.Number = &v
	case *ast.BooleanLiteral:
		w.Kind, w.Type = kindBoolean, e.typeRef(x.Type)
		v := x.Value
		w.Bool = &v
	case *ast.StringLiteral:
		w.Kind, w.Type = kindString, e.typeRef(x.Type)
		v := x.Value
		w.String = &v
	case *ast.NullLiteral:
		w.Kind, w.Type = kindNull, e.typeRef(x.Type)
	case *ast.TypeLiteral:
		w.Kind, w.Type, w.Test = kindTypeLiteral, e.typeRef(x.Type), e.typeRef(x.Referenced)
	case *ast.VariableReference:
		w.Kind = kindVariable
		id := e.varID(x.Target)
		w.Var = &id
	case *ast.ThisReference:
		w.Kind, w.Type = kindThis, e.typeRef(x.Type)
	case *ast.SuperReference:
		w.Kind, w.Type = kindSuper, e.typeRef(x.Type)
	case *ast.FieldAccess:
		w.Kind, w.Qualifier, w.Field = kindFieldAccess, e.expr(x.Qualifier), e.fieldRef(x.Target)
	case *ast.MethodCall:
		w.Kind, w.Qualifier, w.Method, w.Args = kindCall, e.expr(x.Qualifier), e.methodRef(x.Target), e.exprs(x.Args)
	case *ast.NewInstance:
		w.Kind, w.Qualifier, w.Method, w.Args = kindNew, e.expr(x.Qualifier), e.methodRef(x.Target), e.exprs(x.Args)
		if x.Type != nil {
			w.Type = e.typeRef(x.Type)
		}
		if x.Body != nil {
			w.Class = e.typeNode(x.Body)
		}
	case *ast.NewArray:
		w.Kind, w.Type, w.Dimensions = kindNewArray, e.typeRef(x.Type), e.exprs(x.Dimensions)
		if x.Initializer != nil {
			w.Initializer = e.expr(x.Initializer)
		}
	case *ast.ArrayLiteral:
		w.Kind, w.Type, w.Values = kindArrayLiteral, e.typeRef(x.Type), e.exprs(x.Values)
	case *ast.ArrayAccess:
		w.Kind, w.Array, w.Index = kindArrayAccess, e.expr(x.Array), e.expr(x.Index)
	case *ast.BinaryExpression:
		w.Kind, w.Type, w.Op = kindBinary, e.typeRef(x.Type), x.Op.String()
		w.Left, w.Right = e.expr(x.Left), e.expr(x.Right)
	case *ast.UnaryExpression:
		w.Kind, w.Type, w.Op, w.Expr = kindUnary, e.typeRef(x.Type), x.Op.String(), e.expr(x.Operand)
	case *ast.CastExpression:
		w.Kind, w.Type, w.Expr = kindCast, e.typeRef(x.Type), e.expr(x.Expr)
	case *ast.InstanceOfExpression:
		w.Kind, w.Type, w.Expr, w.Test = kindInstanceOf, e.typeRef(x.Type), e.expr(x.Expr), e.typeRef(x.Test)
	case *ast.ConditionalExpression:
		w.Kind, w.Type = kindConditional, e.typeRef(x.Type)
		w.Cond, w.Then, w.Else = e.expr(x.Cond), e.expr(x.Then), e.expr(x.Else)
	case *ast.FunctionExpression:
		w.Kind, w.Type, w.Method = kindFunction, e.typeRef(x.Type), e.methodRef(x.Descriptor)
		w.Params, w.Body = e.variables(x.Params), e.block(x.Body)
	case *ast.VariableDeclarationExpression:
		w.Kind = kindDeclaration
		for _, f := range x.Fragments {
			w.Fragments = append(w.Fragments, &fragment{
				Pos:         e.position(f.Pos()),
				Variable:    e.variable(f.Variable),
				Initializer: e.expr(f.Initializer),
			})
		}
	case *ast.MultiExpression:
		w.Kind, w.Exprs = kindMulti, e.exprs(x.Exprs)
	default:
		e.fail("unsupported expression %T", x)
		return nil
	}
	return w
}
