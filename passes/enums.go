package passes

import "github.com/broady/bridgec/ast"

// NormalizeEnumClasses makes the name and ordinal of enum constants
// explicit. Every constructor takes two leading parameters, $name and
// $ordinal, and passes them to the Enum constructor; every constant passes
// its own name and position. A synthetic $VALUES array holds the constants
// and values() returns a fresh copy of it.
//
// Bridged enums are represented by plain values on the external side and
// are not rewritten.
type NormalizeEnumClasses struct{}

func (NormalizeEnumClasses) Name() string       { return "NormalizeEnumClasses" }
func (NormalizeEnumClasses) Requires() []string { return nil }

func (NormalizeEnumClasses) Apply(env *Env, u *ast.CompilationUnit) {
	for _, t := range typesOf(u) {
		if d := t.Declaration; d.IsEnum() && !d.IsBridgedEnum() {
			normalizeEnum(env, t)
		}
	}
}

func normalizeEnum(env *Env, t *ast.Type) {
	d := t.Declaration
	arena := env.Arena
	known := arena.Known
	def := ensureConstructors(env, t)

	var constants []*ast.Field
	for _, f := range t.Fields() {
		if f.Descriptor.EnumConstant {
			constants = append(constants, f)
		}
	}
	for i, f := range constants {
		var creation *ast.NewInstance
		switch init := f.Initializer.(type) {
		case nil:
			if def == nil {
				ast.Fatalf(f, "enum constant %s needs a default constructor", f.Descriptor.Name)
			}
			creation = &ast.NewInstance{Positioned: f.Positioned, Target: def}
		case *ast.NewInstance:
			creation = init
		default:
			ast.Fatalf(f, "enum constant %s is initialized by %T", f.Descriptor.Name, init)
		}
		creation.Args = prepend[ast.Expression](creation.Args, stringLiteral(arena, f.Descriptor.Name), intLiteral(arena, i))
		f.Initializer = creation
	}

	enumCtor := known.Enum.Method("<init>", 2)
	str := known.String.Descriptor()
	integer := arena.Primitive(ast.PrimitiveInt)
	for _, m := range t.Constructors() {
		name := parameter("$name", str)
		ordinal := parameter("$ordinal", integer)
		m.Params = prepend(m.Params, name, ordinal)
		m.Descriptor.Parameters = prepend(m.Descriptor.Parameters,
			ast.ParameterDescriptor{Type: str}, ast.ParameterDescriptor{Type: integer})
		if m.Body == nil {
			m.Body = ast.NewBlock()
		}

		if call := ast.ThisCall(m); call != nil {
			call.Args = prepend[ast.Expression](call.Args, name.Reference(), ordinal.Reference())
			continue
		}
		if ast.SuperCall(m) != nil {
			ast.Fatalf(m, "enum constructor %s calls super", m.ReadableName())
		}
		call := superCall(d.Super, enumCtor, name.Reference(), ordinal.Reference())
		m.Body.Statements = prepend(m.Body.Statements, ast.Statement(call))
	}

	addValues(arena, t, constants)
}

// ensureConstructors gives every declared constructor of t a member,
// declaring an implicit one when there is none, and returns the default
// constructor before any parameter is added.
func ensureConstructors(env *Env, t *ast.Type) *ast.MethodDescriptor {
	d := t.Declaration
	env.defaultConstructor(d)
	for _, ctor := range d.Constructors() {
		if t.FindMethod(ctor) == nil {
			if len(ctor.Parameters) > 0 {
				ast.Fatalf(t, "constructor %s has no body", ctor.ReadableName())
			}
			t.AddMember(&ast.Method{Positioned: t.Positioned, Descriptor: ctor, Body: ast.NewBlock()})
		}
	}
	return d.DefaultConstructor()
}

// addValues declares $VALUES after the last constant and implements
// values().
func addValues(arena *ast.Arena, t *ast.Type, constants []*ast.Field) {
	d := t.Declaration
	arrayType := arena.Array(d.Descriptor())

	valuesField := d.AddField(&ast.FieldDescriptor{
		MemberInfo: ast.MemberInfo{Name: "$VALUES", Visibility: ast.Private, Static: true, Final: true, Synthetic: true},
		Type:       arrayType,
	})
	all := &ast.ArrayLiteral{Type: arrayType}
	for _, c := range constants {
		all.Values = append(all.Values, fieldOf(nil, c.Descriptor))
	}
	field := &ast.Field{
		Positioned:  t.Positioned,
		Descriptor:  valuesField,
		Initializer: &ast.NewArray{Type: arrayType, Initializer: all},
	}
	at := 0
	for i, m := range t.Members {
		if f, ok := m.(*ast.Field); ok && f.Descriptor.EnumConstant {
			at = i + 1
		}
	}
	t.Members = insertAt(t.Members, at, ast.Member(field))

	values := d.Method("values", 0)
	if values == nil || !values.Static {
		values = d.AddMethod(&ast.MethodDescriptor{
			MemberInfo:    ast.MemberInfo{Name: "values", Visibility: ast.Public, Static: true},
			Return:        arrayType,
			EnumSynthetic: true,
		})
	}
	method := t.FindMethod(values)
	if method == nil {
		method = &ast.Method{Positioned: t.Positioned, Descriptor: values}
		t.AddMember(method)
	}
	clone := &ast.ArrayLiteral{Type: arrayType}
	for i := range constants {
		clone.Values = append(clone.Values, &ast.ArrayAccess{
			Array: fieldOf(nil, valuesField),
			Index: intLiteral(arena, i),
		})
	}
	method.Body = ast.NewBlock(&ast.ReturnStatement{Expr: &ast.NewArray{Type: arrayType, Initializer: clone}})
}
