package astjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/tools/txtar"

	"github.com/broady/bridgec/ast"
)

// ErrVersion is returned for documents written in another format version.
var ErrVersion = errors.New("astjson: unsupported document version")

// Decode reads one document into a fresh arena.
func Decode(r io.Reader) (*ast.Arena, []*ast.CompilationUnit, error) {
	doc, err := parse(r)
	if err != nil {
		return nil, nil, err
	}
	return decodeDocuments(doc)
}

// DecodeArchive reads a txtar archive holding one document per file, as
// produced for a multi-file compilation. All documents share one arena, so
// a unit may refer to types defined in any file of the archive.
func DecodeArchive(data []byte) (*ast.Arena, []*ast.CompilationUnit, error) {
	a := txtar.Parse(data)
	if len(a.Files) == 0 {
		return nil, nil, errors.New("astjson: archive holds no documents")
	}
	docs := make([]*document, len(a.Files))
	for i, f := range a.Files {
		doc, err := parse(bytes.NewReader(f.Data))
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		docs[i] = doc
	}
	return decodeDocuments(docs...)
}

func parse(r io.Reader) (*document, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("astjson: %w", err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("%w %d", ErrVersion, doc.Version)
	}
	return &doc, nil
}

func decodeDocuments(docs ...*document) (*ast.Arena, []*ast.CompilationUnit, error) {
	d := &decoder{
		arena:   ast.NewArena(),
		vars:    make(map[int]*ast.Variable),
		defined: make(map[int]bool),
	}
	// Declarations first, in three rounds, so that a document may refer
	// to any type or member of any other document.
	var decls []*ast.TypeDeclaration
	var wires []*declaration
	for _, doc := range docs {
		for _, w := range doc.Declarations {
			decls = append(decls, d.declare(w))
			wires = append(wires, w)
		}
	}
	if d.err != nil {
		return nil, nil, fmt.Errorf("astjson: %w", d.err)
	}
	for i, decl := range decls {
		d.typeParameters(decl, wires[i])
	}
	for i, decl := range decls {
		d.members(decl, wires[i])
	}
	for i, decl := range decls {
		d.overrides(decl, wires[i])
	}

	var units []*ast.CompilationUnit
	for _, doc := range docs {
		for _, w := range doc.Units {
			units = append(units, d.unit(w))
			for id := range d.vars {
				if !d.defined[id] {
					d.fail("variable %d is referenced but never declared", id)
				}
			}
			// A variable never outlives its unit.
			clear(d.vars)
			clear(d.defined)
		}
	}
	if d.err != nil {
		return nil, nil, fmt.Errorf("astjson: %w", d.err)
	}
	return d.arena, units, nil
}

type decoder struct {
	arena   *ast.Arena
	vars    map[int]*ast.Variable
	defined map[int]bool
	err     error
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf(format, args...)
	}
}

func (d *decoder) position(p *position) ast.Positioned {
	if p == nil {
		return ast.Positioned{}
	}
	return ast.At(ast.SourcePosition{File: p.File, Line: p.Line, Column: p.Column})
}

func (d *decoder) lookup(name string) *ast.TypeDeclaration {
	decl := d.arena.Lookup(name)
	if decl == nil {
		d.fail("unknown type %s", name)
	}
	return decl
}

func (d *decoder) declare(w *declaration) *ast.TypeDeclaration {
	decl := &ast.TypeDeclaration{
		Package:                   w.Package,
		Name:                      w.Name,
		Kind:                      parseDeclKind(d, w.Kind),
		Visibility:                parseVisibility(d, w.Visibility),
		Final:                     w.Final,
		Abstract:                  w.Abstract,
		Local:                     w.Local,
		Anonymous:                 w.Anonymous,
		CapturesEnclosingInstance: w.CapturesEnclosingInstance,
		Functional:                w.Functional,
		UnusableSuppressed:        w.UnusableSuppressed,
	}
	if w.Enclosing != "" {
		decl.Enclosing = d.lookup(w.Enclosing)
	}
	if in := w.Interop; in != nil {
		decl.Interop = ast.TypeInterop{
			Exposed:        in.Exposed,
			Native:         in.Native,
			BridgeFunction: in.BridgeFunction,
			Name:           in.Name,
			Namespace:      in.Namespace,
		}
		if in.Enum != nil {
			decl.Interop.Enum = &ast.EnumBridge{CustomValue: in.Enum.CustomValue}
		}
	}
	if d.err != nil {
		return decl
	}
	if _, err := d.arena.Declare(decl); err != nil {
		d.fail("%v", err)
	}
	return decl
}

func (d *decoder) typeParameters(decl *ast.TypeDeclaration, w *declaration) {
	for _, tp := range w.TypeParameters {
		decl.TypeParameters = append(decl.TypeParameters, d.arena.TypeVariable(tp.Name, nil))
	}
}

func (d *decoder) members(decl *ast.TypeDeclaration, w *declaration) {
	for i, tp := range w.TypeParameters {
		if tp.Bound != nil {
			decl.TypeParameters[i].Bound = d.typeRef(tp.Bound)
		}
	}
	if w.Super != nil {
		decl.Super = d.declaredRef(w.Super)
	}
	for _, i := range w.Interfaces {
		decl.Interfaces = append(decl.Interfaces, d.declaredRef(i))
	}
	for _, wm := range w.Methods {
		m := &ast.MethodDescriptor{
			MemberInfo:    d.member(&wm.member),
			Return:        d.typeRef(wm.Return),
			Constructor:   wm.Constructor,
			Varargs:       wm.Varargs,
			Default:       wm.Default,
			EnumSynthetic: wm.EnumSynthetic,
		}
		for _, p := range wm.Parameters {
			m.Parameters = append(m.Parameters, ast.ParameterDescriptor{Type: d.typeRef(p.Type), Optional: p.Optional})
		}
		decl.AddMethod(m)
	}
	for _, wf := range w.Fields {
		decl.AddField(&ast.FieldDescriptor{
			MemberInfo:          d.member(&wf.member),
			Type:                d.typeRef(wf.Type),
			EnumConstant:        wf.EnumConstant,
			CompileTimeConstant: wf.CompileTimeConstant,
		})
	}
}

func (d *decoder) overrides(decl *ast.TypeDeclaration, w *declaration) {
	for i, wm := range w.Methods {
		for _, ref := range wm.Overrides {
			if o := d.methodRef(ref); o != nil {
				decl.Methods[i].Overrides = append(decl.Methods[i].Overrides, o)
			}
		}
	}
}

func (d *decoder) member(w *member) ast.MemberInfo {
	m := ast.MemberInfo{
		Name:               w.Name,
		Visibility:         parseVisibility(d, w.Visibility),
		Static:             w.Static,
		Final:              w.Final,
		Abstract:           w.Abstract,
		Native:             w.Native,
		Synthetic:          w.Synthetic,
		UnusableSuppressed: w.UnusableSuppressed,
	}
	if x := w.External; x != nil {
		m.External = ast.ExternalInfo{
			Kind:      parseExternalKind(d, x.Kind),
			Name:      x.Name,
			Namespace: x.Namespace,
			Overlay:   x.Overlay,
			Async:     x.Async,
			Function:  x.Function,
		}
	}
	return m
}

func (d *decoder) typeRef(w *typeRef) ast.TypeDescriptor {
	if w == nil {
		d.fail("missing type")
		return nil
	}
	switch w.Kind {
	case typePrimitive:
		k, ok := ast.ParsePrimitiveKind(w.Name)
		if !ok {
			d.fail("unknown primitive type %q", w.Name)
			return nil
		}
		return d.arena.Primitive(k)
	case typeDeclared:
		return d.declaredRef(w)
	case typeArray:
		c := d.typeRef(w.Component)
		if c == nil {
			return nil
		}
		return d.arena.Array(c)
	case typeVariable:
		owner := d.lookup(w.Owner)
		if owner == nil {
			return nil
		}
		for _, tv := range owner.TypeParameters {
			if tv.Name == w.Name {
				return tv
			}
		}
		d.fail("type %s has no type parameter %s", w.Owner, w.Name)
		return nil
	case typeIntersection:
		return d.arena.Intersection(d.typeRefs(w.Args)...)
	case typeNull:
		return d.arena.Null()
	}
	d.fail("unknown type kind %q", w.Kind)
	return nil
}

func (d *decoder) typeRefs(ws []*typeRef) []ast.TypeDescriptor {
	var ts []ast.TypeDescriptor
	for _, w := range ws {
		ts = append(ts, d.typeRef(w))
	}
	return ts
}

func (d *decoder) declaredRef(w *typeRef) *ast.DeclaredTypeDescriptor {
	if w.Kind != typeDeclared {
		d.fail("expected a declared type, got %q", w.Kind)
		return nil
	}
	decl := d.lookup(w.Name)
	if decl == nil {
		return nil
	}
	return d.arena.Declared(decl, d.typeRefs(w.Args)...)
}

func (d *decoder) arrayRef(w *typeRef) *ast.ArrayTypeDescriptor {
	a, ok := d.typeRef(w).(*ast.ArrayTypeDescriptor)
	if !ok {
		d.fail("expected an array type")
	}
	return a
}

func (d *decoder) methodRef(w *memberRef) *ast.MethodDescriptor {
	if w == nil {
		d.fail("missing method reference")
		return nil
	}
	owner := d.lookup(w.Owner)
	if owner == nil {
		return nil
	}
	if w.Index < 0 || w.Index >= len(owner.Methods) {
		d.fail("%s has no method %d", w.Owner, w.Index)
		return nil
	}
	m := owner.Methods[w.Index]
	if !w.Specialized {
		return m
	}
	s := *m
	s.Declaration = m
	s.Parameters = nil
	for i, p := range w.Parameters {
		var optional bool
		if i < len(m.Parameters) {
			optional = m.Parameters[i].Optional
		}
		s.Parameters = append(s.Parameters, ast.ParameterDescriptor{Type: d.typeRef(p), Optional: optional})
	}
	s.Return = d.typeRef(w.Return)
	return &s
}

func (d *decoder) fieldRef(w *memberRef) *ast.FieldDescriptor {
	if w == nil {
		d.fail("missing field reference")
		return nil
	}
	owner := d.lookup(w.Owner)
	if owner == nil {
		return nil
	}
	if w.Index < 0 || w.Index >= len(owner.Fields) {
		d.fail("%s has no field %d", w.Owner, w.Index)
		return nil
	}
	f := owner.Fields[w.Index]
	if !w.Specialized {
		return f
	}
	s := *f
	s.Declaration = f
	s.Type = d.typeRef(w.Type)
	return &s
}

func (d *decoder) unit(w *unit) *ast.CompilationUnit {
	u := &ast.CompilationUnit{Positioned: d.position(w.Pos), Package: w.Package, File: w.File}
	for _, t := range w.Types {
		u.AddType(d.typeNode(t))
	}
	return u
}

func (d *decoder) typeNode(w *typeNode) *ast.Type {
	t := &ast.Type{Positioned: d.position(w.Pos), Declaration: d.lookup(w.Declaration)}
	for _, m := range w.Members {
		switch m.Kind {
		case memberField:
			t.AddMember(&ast.Field{
				Positioned:  d.position(m.Pos),
				Descriptor:  d.fieldRef(m.Ref),
				Initializer: d.expr(m.Initializer),
			})
		case memberMethod:
			t.AddMember(&ast.Method{
				Positioned: d.position(m.Pos),
				Descriptor: d.methodRef(m.Ref),
				Params:     d.variables(m.Params),
				Body:       d.block(m.Body),
			})
		case memberInitializer:
			t.AddMember(&ast.InitializerBlock{
				Positioned: d.position(m.Pos),
				Static:     m.Static,
				Body:       d.block(m.Body),
			})
		default:
			d.fail("unknown member kind %q", m.Kind)
		}
	}
	return t
}

// ref returns the variable with the given id, creating it if its
// declaration has not been seen yet.
func (d *decoder) ref(id int) *ast.Variable {
	v, ok := d.vars[id]
	if !ok {
		v = &ast.Variable{}
		d.vars[id] = v
	}
	return v
}

func (d *decoder) variable(w *variable) *ast.Variable {
	if w == nil {
		d.fail("missing variable")
		return nil
	}
	if d.defined[w.ID] {
		d.fail("variable %d declared twice", w.ID)
	}
	d.defined[w.ID] = true
	v := d.ref(w.ID)
	v.Positioned = d.position(w.Pos)
	v.Name = w.Name
	v.Type = d.typeRef(w.Type)
	v.Parameter = w.Parameter
	v.Final = w.Final
	v.UnusableSuppressed = w.UnusableSuppressed
	return v
}

func (d *decoder) variables(ws []*variable) []*ast.Variable {
	var vs []*ast.Variable
	for _, w := range ws {
		vs = append(vs, d.variable(w))
	}
	return vs
}

func (d *decoder) block(w *node) *ast.Block {
	if w == nil {
		return nil
	}
	if w.Kind != kindBlock {
		d.fail("expected a block, got %q", w.Kind)
		return nil
	}
	b := &ast.Block{Positioned: d.position(w.Pos)}
	for _, s := range w.Statements {
		b.Statements = append(b.Statements, d.stmt(s))
	}
	return b
}

func (d *decoder) stmt(w *node) ast.Statement {
	if w == nil {
		return nil
	}
	pos := d.position(w.Pos)
	switch w.Kind {
	case kindBlock:
		return d.block(w)
	case kindExpression:
		return &ast.ExpressionStatement{Positioned: pos, Expr: d.expr(w.Expr)}
	case kindReturn:
		return &ast.ReturnStatement{Positioned: pos, Expr: d.expr(w.Expr)}
	case kindIf:
		return &ast.IfStatement{Positioned: pos, Cond: d.expr(w.Cond), Then: d.stmt(w.Then), Else: d.stmt(w.Else)}
	case kindWhile:
		return &ast.WhileStatement{Positioned: pos, Cond: d.expr(w.Cond), Body: d.stmt(w.Body)}
	case kindThrow:
		return &ast.ThrowStatement{Positioned: pos, Expr: d.expr(w.Expr)}
	case kindTry:
		s := &ast.TryStatement{Positioned: pos, Resources: d.exprs(w.Resources), Body: d.block(w.Body), Finally: d.block(w.Finally)}
		for _, c := range w.Catches {
			s.Catches = append(s.Catches, &ast.CatchClause{
				Positioned: d.position(c.Pos),
				Exception:  d.variable(c.Exception),
				Body:       d.block(c.Body),
			})
		}
		return s
	}
	d.fail("unknown statement kind %q", w.Kind)
	return nil
}

func (d *decoder) exprs(ws []*node) []ast.Expression {
	var es []ast.Expression
	for _, w := range ws {
		es = append(es, d.expr(w))
	}
	return es
}

func (d *decoder) expr(w *node) ast.Expression {
	if w == nil {
		return nil
	}
	pos := d.position(w.Pos)
	switch w.Kind {
	case kindNumber:
		p, ok := d.typeRef(w.Type).(*ast.PrimitiveDescriptor)
		if !ok || w.Number == nil {
			d.fail("malformed number literal")
			return nil
		}
		return &ast.NumberLiteral{Positioned: pos, Type: p, Value: *w.Number}
	case kindBoolean:
		if w.Bool == nil {
			d.fail("malformed boolean literal")
			return nil
		}
		return &ast.BooleanLiteral{Positioned: pos, Type: d.typeRef(w.Type), Value: *w.Bool}
	case kindString:
		if w.String == nil {
			d.fail("malformed string literal")
			return nil
		}
		return &ast.StringLiteral{Positioned: pos, Type: d.typeRef(w.Type), Value: *w.String}
	case kindNull:
		return &ast.NullLiteral{Positioned: pos, Type: d.typeRef(w.Type)}
	case kindTypeLiteral:
		return &ast.TypeLiteral{Positioned: pos, Type: d.typeRef(w.Type), Referenced: d.typeRef(w.Test)}
	case kindVariable:
		if w.Var == nil {
			d.fail("variable reference without id")
			return nil
		}
		return &ast.VariableReference{Positioned: pos, Target: d.ref(*w.Var)}
	case kindThis:
		return &ast.ThisReference{Positioned: pos, Type: d.typeRef(w.Type)}
	case kindSuper:
		return &ast.SuperReference{Positioned: pos, Type: d.typeRef(w.Type)}
	case kindFieldAccess:
		return &ast.FieldAccess{Positioned: pos, Qualifier: d.expr(w.Qualifier), Target: d.fieldRef(w.Field)}
	case kindCall:
		return &ast.MethodCall{Positioned: pos, Qualifier: d.expr(w.Qualifier), Target: d.methodRef(w.Method), Args: d.exprs(w.Args)}
	case kindNew:
		n := &ast.NewInstance{Positioned: pos, Qualifier: d.expr(w.Qualifier), Target: d.methodRef(w.Method), Args: d.exprs(w.Args)}
		if w.Type != nil {
			n.Type = d.declaredRef(w.Type)
		}
		if w.Class != nil {
			n.Body = d.typeNode(w.Class)
		}
		return n
	case kindNewArray:
		n := &ast.NewArray{Positioned: pos, Type: d.arrayRef(w.Type), Dimensions: d.exprs(w.Dimensions)}
		if w.Initializer != nil {
			lit, ok := d.expr(w.Initializer).(*ast.ArrayLiteral)
			if !ok {
				d.fail("array initializer is not an array literal")
			}
			n.Initializer = lit
		}
		return n
	case kindArrayLiteral:
		return &ast.ArrayLiteral{Positioned: pos, Type: d.arrayRef(w.Type), Values: d.exprs(w.Values)}
	case kindArrayAccess:
		return &ast.ArrayAccess{Positioned: pos, Array: d.expr(w.Array), Index: d.expr(w.Index)}
	case kindBinary:
		op, ok := ast.ParseBinaryOperator(w.Op)
		if !ok {
			d.fail("unknown binary operator %q", w.Op)
		}
		return &ast.BinaryExpression{Positioned: pos, Type: d.typeRef(w.Type), Op: op, Left: d.expr(w.Left), Right: d.expr(w.Right)}
	case kindUnary:
		op, ok := ast.ParseUnaryOperator(w.Op)
		if !ok {
			d.fail("unknown unary operator %q", w.Op)
		}
		return &ast.UnaryExpression{Positioned: pos, Type: d.typeRef(w.Type), Op: op, Operand: d.expr(w.Expr)}
	case kindCast:
		return &ast.CastExpression{Positioned: pos, Type: d.typeRef(w.Type), Expr: d.expr(w.Expr)}
	case kindInstanceOf:
		return &ast.InstanceOfExpression{Positioned: pos, Type: d.typeRef(w.Type), Expr: d.expr(w.Expr), Test: d.typeRef(w.Test)}
	case kindConditional:
		return &ast.ConditionalExpression{Positioned: pos, Type: d.typeRef(w.Type), Cond: d.expr(w.Cond), Then: d.expr(w.Then), Else: d.expr(w.Else)}
	case kindFunction:
		return &ast.FunctionExpression{
			Positioned: pos,
			Type:       d.typeRef(w.Type),
			Descriptor: d.methodRef(w.Method),
			Params:     d.variables(w.Params),
			Body:       d.block(w.Body),
		}
	case kindDeclaration:
		decl := &ast.VariableDeclarationExpression{Positioned: pos}
		for _, f := range w.Fragments {
			decl.Fragments = append(decl.Fragments, &ast.VariableDeclarationFragment{
				Positioned:  d.position(f.Pos),
				Variable:    d.variable(f.Variable),
				Initializer: d.expr(f.Initializer),
			})
		}
		return decl
	case kindMulti:
		return &ast.MultiExpression{Positioned: pos, Exprs: d.exprs(w.Exprs)}
	}
	d.fail("unknown expression kind %q", w.Kind)
	return nil
}

func parseDeclKind(d *decoder, s string) ast.DeclKind {
	for k := ast.Class; k <= ast.Enum; k++ {
		if k.String() == s {
			return k
		}
	}
	d.fail("unknown declaration kind %q", s)
	return ast.Class
}

func parseVisibility(d *decoder, s string) ast.Visibility {
	for v := ast.Public; v <= ast.Private; v++ {
		if v.String() == s {
			return v
		}
	}
	d.fail("unknown visibility %q", s)
	return ast.Public
}

func parseExternalKind(d *decoder, s string) ast.ExternalKind {
	for k := ast.ExternalNone; k <= ast.ExternalUndefinedAccessor; k++ {
		if k.String() == s {
			return k
		}
	}
	d.fail("unknown external kind %q", s)
	return ast.ExternalNone
}
