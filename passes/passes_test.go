package passes_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/broady/bridgec/ast"
	"github.com/broady/bridgec/internal/asttest"
	"github.com/broady/bridgec/internal/interp"
	"github.com/broady/bridgec/passes"
)

// lower runs ps over u, verifying the tree after every pass.
func lower(t *testing.T, arena *ast.Arena, u *ast.CompilationUnit, ps ...passes.Pass) {
	t.Helper()
	p, err := passes.NewPipeline(ps...)
	require.NoError(t, err)
	p.Use(passes.VerifyInterceptor())
	require.NoError(t, p.Run(context.Background(), &passes.Env{Arena: arena}, u))
}

// lowerErr is like lower but returns the internal error of the run.
func lowerErr(t *testing.T, arena *ast.Arena, u *ast.CompilationUnit, ps ...passes.Pass) *ast.InternalError {
	t.Helper()
	p, err := passes.NewPipeline(ps...)
	require.NoError(t, err)
	err = p.Run(context.Background(), &passes.Env{Arena: arena}, u)
	var ie *ast.InternalError
	require.ErrorAs(t, err, &ie)
	return ie
}

// callStatic runs the static method m with a fresh interpreter.
func callStatic(t *testing.T, arena *ast.Arena, u *ast.CompilationUnit, m *ast.MethodDescriptor, args ...interp.Value) interp.Value {
	t.Helper()
	v, err := interp.New(arena, u).Call(m, nil, args...)
	require.NoError(t, err)
	return v
}

func countCalls(root ast.Node, match func(*ast.MethodDescriptor) bool) int {
	n := 0
	ast.Inspect(root, func(node ast.Node) bool {
		if call, ok := node.(*ast.MethodCall); ok && match(call.Target) {
			n++
		}
		return true
	})
	return n
}

func count[T ast.Node](root ast.Node) int {
	n := 0
	ast.Inspect(root, func(node ast.Node) bool {
		if _, ok := node.(T); ok {
			n++
		}
		return true
	})
	return n
}

func TestNormalizeTryWithResources(t *testing.T) {
	type fixture struct {
		b          *asttest.Builder
		u          *ast.CompilationUnit
		closeOrder *ast.MethodDescriptor
		suppressed *ast.MethodDescriptor
		combined   *ast.MethodDescriptor
		log        *ast.FieldDescriptor
	}
	build := func() fixture {
		b := asttest.New("p")
		known := b.Arena.Known
		str := b.StringType()

		res := b.Class("Res").Implements(known.AutoCloseable.Descriptor())
		log := res.StaticField("log", str, b.Str("")).Descriptor()
		name := res.Field("name", str, nil).Descriptor()
		fail := res.Field("fail", b.Boolean(), nil).Descriptor()
		n, f := b.Param("n", str), b.Param("f", b.Boolean())
		ctor := res.Constructor(n, f).Body(
			ast.Stmt(b.Assign(b.Get(res.This(), name), b.Ref(n))),
			ast.Stmt(b.Assign(b.Get(res.This(), fail), b.Ref(f))),
		)
		res.Method("close", b.Void()).Overrides(known.AutoCloseable.Method("close", 0)).Body(
			ast.Stmt(b.Assign(b.Get(nil, log), b.Binary(ast.OpPlus, b.Get(nil, log), b.Get(res.This(), name)))),
			&ast.IfStatement{
				Cond: b.Get(res.This(), fail),
				Then: b.Throw(b.New(known.Throwable.Method("<init>", 1), b.Get(res.This(), name))),
			},
		)
		open := func(v *ast.Variable, label string, fails bool) ast.Expression {
			v.Final = true
			return b.DeclareExpr(v, b.New(ctor.Descriptor(), b.Str(label), b.Bool(fails)))
		}

		main := b.Class("Main")
		closeOrder := main.Method("closeOrder", str).Static().Body(
			&ast.TryStatement{
				Resources: []ast.Expression{
					open(b.Local("a", res.Descriptor()), "A", false),
					open(b.Local("b", res.Descriptor()), "B", false),
				},
				Body: ast.NewBlock(),
			},
			b.Return(b.Get(nil, log)),
		)
		caught := b.Local("t", known.Throwable.Descriptor())
		suppressed := main.Method("suppressed", known.Throwable.Descriptor()).Static().Body(
			&ast.TryStatement{
				Resources: []ast.Expression{open(b.Local("a", res.Descriptor()), "A", true)},
				Body: ast.NewBlock(
					b.Throw(b.New(known.Throwable.Method("<init>", 1), b.Str("body"))),
				),
				Catches: []*ast.CatchClause{{Exception: caught, Body: ast.NewBlock(b.Return(b.Ref(caught)))}},
			},
			b.Return(b.Null()),
		)
		// Two resources, a throwing body, and a throwing close of the
		// resource closed last.
		caughtAll := b.Local("t", known.Throwable.Descriptor())
		combined := main.Method("combined", known.Throwable.Descriptor()).Static().Body(
			&ast.TryStatement{
				Resources: []ast.Expression{
					open(b.Local("a", res.Descriptor()), "A", true),
					open(b.Local("b", res.Descriptor()), "B", false),
				},
				Body: ast.NewBlock(
					b.Throw(b.New(known.Throwable.Method("<init>", 1), b.Str("body"))),
				),
				Catches: []*ast.CatchClause{{Exception: caughtAll, Body: ast.NewBlock(b.Return(b.Ref(caughtAll)))}},
			},
			b.Return(b.Null()),
		)
		return fixture{
			b:          b,
			u:          b.Unit(),
			closeOrder: closeOrder.Descriptor(),
			suppressed: suppressed.Descriptor(),
			combined:   combined.Descriptor(),
			log:        log,
		}
	}

	check := func(t *testing.T, fx fixture) {
		t.Helper()
		require.Equal(t, "BA", callStatic(t, fx.b.Arena, fx.u, fx.closeOrder))

		got := callStatic(t, fx.b.Arena, fx.u, fx.suppressed)
		exc, ok := got.(*interp.Object)
		require.True(t, ok, "got %T", got)
		require.Equal(t, "body", exc.Message())
		require.Len(t, exc.Suppressed(), 1)
		require.Equal(t, "A", exc.Suppressed()[0].Message())

		in := interp.New(fx.b.Arena, fx.u)
		got, err := in.Call(fx.combined, nil)
		require.NoError(t, err)
		exc, ok = got.(*interp.Object)
		require.True(t, ok, "got %T", got)
		require.Equal(t, "body", exc.Message())
		require.Len(t, exc.Suppressed(), 1)
		require.Equal(t, "A", exc.Suppressed()[0].Message())
		order, err := in.Static(fx.log)
		require.NoError(t, err)
		require.Equal(t, "BA", order)
	}

	t.Run("source", func(t *testing.T) {
		check(t, build())
	})
	t.Run("lowered", func(t *testing.T) {
		fx := build()
		lower(t, fx.b.Arena, fx.u, passes.NormalizeTryWithResources{})

		ast.Inspect(fx.u, func(n ast.Node) bool {
			if s, ok := n.(*ast.TryStatement); ok {
				require.Empty(t, s.Resources)
			}
			return true
		})
		safeClose := fx.b.Arena.Known.SafeClose()
		require.Equal(t, 5, countCalls(fx.u, func(m *ast.MethodDescriptor) bool { return m == safeClose }))
		check(t, fx)
	})
}

func TestNormalizeLambdas(t *testing.T) {
	type fixture struct {
		b      *asttest.Builder
		u      *ast.CompilationUnit
		adder  *asttest.TypeBuilder
		ctor   *ast.MethodDescriptor
		method *ast.MethodDescriptor
	}
	build := func() fixture {
		b := asttest.New("p")
		op := b.Interface("IntOp")
		op.Decl.Functional = true
		apply := op.Method("apply", b.Int(), b.Param("x", b.Int())).Abstract()

		adder := b.Class("Adder")
		base := adder.Field("base", b.Int(), nil).Descriptor()
		init := b.Param("base", b.Int())
		ctor := adder.Constructor(init).Body(ast.Stmt(b.Assign(b.Get(adder.This(), base), b.Ref(init))))

		k := b.Param("k", b.Int())
		x := b.Param("x", b.Int())
		f := b.Local("f", op.Descriptor())
		sum := b.Binary(ast.OpPlus, b.Binary(ast.OpPlus, b.Ref(x), b.Get(adder.This(), base)), b.Ref(k))
		run := adder.Method("run", b.Int(), k).Body(
			b.Declare(f, b.Lambda(op.Descriptor(), apply.Descriptor(), []*ast.Variable{x}, b.Return(sum))),
			b.Return(b.Call(b.Ref(f), apply.Descriptor(), b.IntLit(2))),
		)
		return fixture{b: b, u: b.Unit(), adder: adder, ctor: ctor.Descriptor(), method: run.Descriptor()}
	}
	run := func(t *testing.T, fx fixture) interp.Value {
		t.Helper()
		in := interp.New(fx.b.Arena, fx.u)
		obj, err := in.NewInstance(fx.ctor, int64(40))
		require.NoError(t, err)
		v, err := in.Call(fx.method, obj, int64(1))
		require.NoError(t, err)
		return v
	}

	require.Equal(t, int64(43), run(t, build()))

	fx := build()
	lower(t, fx.b.Arena, fx.u, passes.NormalizeLambdas{})
	require.Zero(t, count[*ast.FunctionExpression](fx.u))

	adaptor := fx.b.Arena.Lookup("p.Adder.$Lambda$1")
	require.NotNil(t, adaptor)
	require.Same(t, fx.adder.Decl, adaptor.Enclosing)
	require.NotNil(t, adaptor.Field("$this"))
	require.NotNil(t, adaptor.Field("$k"))
	require.Nil(t, adaptor.Field("$x"))
	require.Equal(t, int64(43), run(t, fx))
}

func TestNormalizeLambdas_BridgeFunctionKept(t *testing.T) {
	b := asttest.New("p")
	fn := b.Interface("Callback").BridgeFunction()
	call := fn.Method("call", b.Void()).Abstract().Function()
	c := b.Class("C")
	v := b.Local("cb", fn.Descriptor())
	c.Method("m", b.Void()).Body(b.Declare(v, b.Lambda(fn.Descriptor(), call.Descriptor(), nil)))
	u := b.Unit()

	lower(t, b.Arena, u, passes.NormalizeLambdas{})
	require.Equal(t, 1, count[*ast.FunctionExpression](u))
	require.Len(t, u.Types, 2)
}

func TestNormalizeLambdas_ClassBodyCaptures(t *testing.T) {
	build := func() (*asttest.Builder, *ast.CompilationUnit, *ast.MethodDescriptor) {
		b := asttest.New("p")
		source := b.Interface("Source")
		get := source.Method("get", b.Int()).Abstract()
		factory := b.Interface("Factory")
		factory.Decl.Functional = true
		create := factory.Method("create", source.Descriptor()).Abstract()

		// run(k) { Factory f = () -> new Source() { int get() { return k + 1; } }; return f.create().get(); }
		k := b.Param("k", b.Int())
		anon := b.Anonymous("Main$1", source.Descriptor())
		anon.Method("get", b.Int()).Overrides(get.Descriptor()).Body(
			b.Return(b.Binary(ast.OpPlus, b.Ref(k), b.IntLit(1))),
		)
		creation := &ast.NewInstance{Type: anon.Descriptor(), Target: b.Arena.Known.Object.DefaultConstructor(), Body: anon.Type}
		f := b.Local("f", factory.Descriptor())
		run := b.Class("Main").Method("run", b.Int(), k).Static().Body(
			b.Declare(f, b.Lambda(factory.Descriptor(), create.Descriptor(), nil, b.Return(creation))),
			b.Return(b.Call(b.Call(b.Ref(f), create.Descriptor()), get.Descriptor())),
		)
		return b, b.Unit(), run.Descriptor()
	}

	b, u, run := build()
	require.Equal(t, int64(42), callStatic(t, b.Arena, u, run, int64(41)))

	b, u, run = build()
	lower(t, b.Arena, u, passes.Default()...)
	require.Zero(t, count[*ast.FunctionExpression](u))
	adaptor := b.Arena.Lookup("p.Main.$Lambda$1")
	require.NotNil(t, adaptor)
	require.NotNil(t, adaptor.Field("$k"))
	require.Equal(t, int64(42), callStatic(t, b.Arena, u, run, int64(41)))
}

func TestNormalizeEnumClasses(t *testing.T) {
	b := asttest.New("p")
	color := b.Enum("Color")
	weight := color.Field("weight", b.Int(), nil).Descriptor()
	w := b.Param("w", b.Int())
	withWeight := color.Constructor(w).Private().Body(
		ast.Stmt(b.Assign(b.Get(color.This(), weight), b.Ref(w))),
	)
	def := color.Constructor().Private()
	def.Body(b.ThisCall(withWeight.Descriptor(), b.IntLit(1)))
	red := color.Constant("RED", nil).Descriptor()
	green := color.Constant("GREEN", withWeight, b.IntLit(7)).Descriptor()
	u := b.Unit()

	lower(t, b.Arena, u, passes.NormalizeEnumClasses{})

	require.Len(t, withWeight.Descriptor().Parameters, 3)
	require.Len(t, def.Descriptor().Parameters, 2)
	values := color.Decl.Method("values", 0)
	require.NotNil(t, values)
	require.True(t, values.Static)
	require.NotNil(t, color.Decl.Field("$VALUES"))

	in := interp.New(b.Arena, u)
	known := b.Arena.Known
	tests := []struct {
		field   *ast.FieldDescriptor
		name    string
		ordinal int64
		weight  int64
	}{
		{red, "RED", 0, 1},
		{green, "GREEN", 1, 7},
	}
	var constants []interp.Value
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := in.Static(tt.field)
			require.NoError(t, err)
			obj, ok := v.(*interp.Object)
			require.True(t, ok, "got %T", v)
			constants = append(constants, obj)

			name, err := in.Call(known.Enum.Method("name", 0), obj)
			require.NoError(t, err)
			require.Equal(t, tt.name, name)
			ordinal, err := in.Call(known.Enum.Method("ordinal", 0), obj)
			require.NoError(t, err)
			require.Equal(t, tt.ordinal, ordinal)
			require.Equal(t, tt.weight, obj.Field(weight))
		})
	}

	got, err := in.Call(values, nil)
	require.NoError(t, err)
	arr, ok := got.(*interp.Array)
	require.True(t, ok, "got %T", got)
	require.Equal(t, constants, arr.Elems)

	again, err := in.Call(values, nil)
	require.NoError(t, err)
	require.NotSame(t, arr, again, "values() must return a fresh array")
}

func TestDevirtualizeOverlayMethods(t *testing.T) {
	type fixture struct {
		b   *asttest.Builder
		u   *ast.CompilationUnit
		fn  *asttest.TypeBuilder
		run *ast.MethodDescriptor
	}
	build := func() fixture {
		b := asttest.New("p")
		fn := b.Interface("Fn").BridgeFunction()
		call := fn.Method("call", b.Int(), b.Param("x", b.Int())).Abstract().Function()
		x := b.Param("x", b.Int())
		twice := fn.Method("twice", b.Int(), x).Overlay().Body(
			b.Return(b.Call(fn.This(), call.Descriptor(), b.Call(fn.This(), call.Descriptor(), b.Ref(x)))),
		)

		lx := b.Param("x", b.Int())
		f := b.Local("f", fn.Descriptor())
		main := b.Class("Main")
		run := main.Method("run", b.Int()).Static().Body(
			b.Declare(f, b.Lambda(fn.Descriptor(), call.Descriptor(), []*ast.Variable{lx},
				b.Return(b.Binary(ast.OpPlus, b.Ref(lx), b.IntLit(1))))),
			b.Return(b.Call(b.Ref(f), twice.Descriptor(), b.IntLit(1))),
		)
		return fixture{b: b, u: b.Unit(), fn: fn, run: run.Descriptor()}
	}

	src := build()
	require.Equal(t, int64(3), callStatic(t, src.b.Arena, src.u, src.run))

	fx := build()
	lower(t, fx.b.Arena, fx.u, passes.NormalizeLambdas{}, passes.DevirtualizeOverlayMethods{})

	for _, m := range fx.fn.Type.Methods() {
		require.NotEqual(t, "twice", m.Descriptor.Name)
	}
	holder := fx.b.Arena.Lookup("p.Fn.$Overlay")
	require.NotNil(t, holder)
	companion := holder.Method("twice", 2)
	require.NotNil(t, companion)
	require.True(t, companion.Static)
	require.Equal(t, 1, countCalls(fx.u, func(m *ast.MethodDescriptor) bool { return m == companion }))
	require.Equal(t, int64(3), callStatic(t, fx.b.Arena, fx.u, fx.run))
}

func TestNormalizeConstructors(t *testing.T) {
	type fixture struct {
		b        *asttest.Builder
		u        *ast.CompilationUnit
		c        *asttest.TypeBuilder
		one, two *asttest.MethodBuilder
		a, y     *ast.FieldDescriptor
		inits    *ast.FieldDescriptor
	}
	build := func() fixture {
		b := asttest.New("p")
		c := b.Class("C")
		a := c.Field("a", b.Int(), nil).Descriptor()
		y := c.Field("y", b.Int(), nil).Descriptor()
		inits := c.Field("inits", b.Int(), b.IntLit(0)).Descriptor()
		get := func(f *ast.FieldDescriptor) *ast.FieldAccess { return b.Get(c.This(), f) }
		c.Initializer(false, ast.Stmt(b.Assign(get(inits), b.Binary(ast.OpPlus, get(inits), b.IntLit(1)))))

		p1, p2 := b.Param("x", b.Int()), b.Param("y", b.Int())
		two := c.Constructor(p1, p2).Body(
			ast.Stmt(b.Assign(get(a), b.Ref(p1))),
			ast.Stmt(b.Assign(get(y), b.Ref(p2))),
		)
		q := b.Param("x", b.Int())
		one := c.Constructor(q).Body(b.ThisCall(two.Descriptor(), b.Ref(q), b.IntLit(10)))
		return fixture{b: b, u: b.Unit(), c: c, one: one, two: two, a: a, y: y, inits: inits}
	}
	check := func(t *testing.T, fx fixture) {
		t.Helper()
		in := interp.New(fx.b.Arena, fx.u)
		viaOne, err := in.NewInstance(fx.one.Descriptor(), int64(5))
		require.NoError(t, err)
		viaTwo, err := in.NewInstance(fx.two.Descriptor(), int64(5), int64(10))
		require.NoError(t, err)
		for _, obj := range []*interp.Object{viaOne, viaTwo} {
			require.Equal(t, int64(5), obj.Field(fx.a))
			require.Equal(t, int64(10), obj.Field(fx.y))
			require.Equal(t, int64(1), obj.Field(fx.inits), "initialization must run once")
		}
	}

	check(t, build())

	fx := build()
	lower(t, fx.b.Arena, fx.u, passes.NormalizeLambdas{}, passes.NormalizeEnumClasses{}, passes.NormalizeConstructors{})

	init := fx.c.Decl.Method("$init", 0)
	require.NotNil(t, init)
	require.Empty(t, fx.c.Type.InitializerBlocks(false))
	require.Equal(t, 1, countCalls(fx.u, func(m *ast.MethodDescriptor) bool { return m == init }))

	require.NotNil(t, ast.ThisCall(fx.one.Method))
	require.Len(t, fx.one.Method.Body.Statements, 1)
	require.NotNil(t, ast.SuperCall(fx.two.Method))
	second := fx.two.Method.Body.Statements[1].(*ast.ExpressionStatement).Expr.(*ast.MethodCall)
	require.Same(t, init, second.Target)
	check(t, fx)
}

func TestNormalizeConstructors_Errors(t *testing.T) {
	t.Run("delegation cycle", func(t *testing.T) {
		b := asttest.New("p")
		d := b.Class("D")
		x := b.Param("x", b.Int())
		withX := d.Constructor(x)
		def := d.Constructor().Body(b.ThisCall(withX.Descriptor(), b.IntLit(1)))
		withX.Body(b.ThisCall(def.Descriptor()))

		ie := lowerErr(t, b.Arena, b.Unit(), passes.NormalizeLambdas{}, passes.NormalizeEnumClasses{}, passes.NormalizeConstructors{})
		require.Equal(t, "NormalizeConstructors", ie.Pass)
		require.Contains(t, ie.Message, "constructor delegation cycle")
	})
	t.Run("misplaced invocation", func(t *testing.T) {
		b := asttest.New("p")
		d := b.Class("D")
		d.Method("m", b.Void()).Body(b.SuperCall(b.Arena.Known.Object.DefaultConstructor()))

		ie := lowerErr(t, b.Arena, b.Unit(), passes.NormalizeLambdas{}, passes.NormalizeEnumClasses{}, passes.NormalizeConstructors{})
		require.Contains(t, ie.Message, "is not the first statement of a constructor")
	})
}

func TestInsertWideningPrimitiveConversions(t *testing.T) {
	numeric := []ast.PrimitiveKind{
		ast.PrimitiveByte, ast.PrimitiveShort, ast.PrimitiveChar, ast.PrimitiveInt,
		ast.PrimitiveLong, ast.PrimitiveFloat, ast.PrimitiveDouble,
	}
	for _, from := range numeric {
		for _, to := range numeric {
			if from != to && !to.IsWiderThan(from) {
				continue
			}
			t.Run(fmt.Sprintf("%s to %s", from, to), func(t *testing.T) {
				b := asttest.New("p")
				x := b.Param("x", b.Prim(from))
				m := b.Class("C").Method("convert", b.Prim(to), x).Static().Body(b.Return(b.Ref(x)))
				u := b.Unit()

				lower(t, b.Arena, u, passes.InsertUnboxingConversions{}, passes.InsertWideningPrimitiveConversions{})
				isHelper := func(md *ast.MethodDescriptor) bool { return md.Enclosing == b.Arena.Known.Primitives }
				want := 0
				if to.IsWiderThan(from) {
					want = 1
				}
				require.Equal(t, want, countCalls(u, isHelper))

				ret := m.Method.Body.Statements[0].(*ast.ReturnStatement)
				require.Same(t, b.Prim(to), ret.Expr.TypeDescriptor())

				passes.InsertWideningPrimitiveConversions{}.Apply(&passes.Env{Arena: b.Arena}, u)
				require.Equal(t, want, countCalls(u, isHelper), "second run must not change the tree")

				var arg, result interp.Value = int64(3), int64(3)
				if from == ast.PrimitiveFloat || from == ast.PrimitiveDouble {
					arg = float64(3)
				}
				if to == ast.PrimitiveFloat || to == ast.PrimitiveDouble {
					result = float64(3)
				}
				require.Equal(t, result, callStatic(t, b.Arena, u, m.Descriptor(), arg))
			})
		}
	}
}

func TestInsertWideningPrimitiveConversions_Cast(t *testing.T) {
	b := asttest.New("p")
	x := b.Param("x", b.Int())
	m := b.Class("C").Method("m", b.Long(), x).Static().Body(b.Return(b.Cast(b.Long(), b.Ref(x))))
	u := b.Unit()

	lower(t, b.Arena, u, passes.InsertUnboxingConversions{}, passes.InsertWideningPrimitiveConversions{})
	ret := m.Method.Body.Statements[0].(*ast.ReturnStatement)
	call, ok := ret.Expr.(*ast.MethodCall)
	require.True(t, ok, "got %T", ret.Expr)
	require.Same(t, b.Arena.Known.WideningMethod(ast.PrimitiveInt, ast.PrimitiveLong), call.Target)
	require.Zero(t, count[*ast.CastExpression](u))
}

func TestBoxingPipeline(t *testing.T) {
	build := func() (*asttest.Builder, *ast.CompilationUnit, *ast.MethodDescriptor) {
		b := asttest.New("p")
		integer := b.Box(ast.PrimitiveInt)
		boxed := b.Param("boxed", integer)
		counter := b.Local("counter", integer)
		total := b.Local("total", b.Long())
		o := b.Local("o", b.Object())
		run := b.Class("Main").Method("run", b.Long(), boxed).Static().Body(
			b.Declare(counter, b.IntLit(0)),
			ast.Stmt(b.Unary(ast.OpPostIncrement, b.Ref(counter))),
			ast.Stmt(b.Binary(ast.OpPlusAssign, b.Ref(counter), b.IntLit(2))),
			b.Declare(total, b.Binary(ast.OpPlus, b.Ref(boxed), b.Ref(counter))),
			b.Declare(o, b.Ref(total)),
			b.Return(b.Cast(b.Box(ast.PrimitiveLong), b.Ref(o))),
		)
		return b, b.Unit(), run.Descriptor()
	}

	b, u, run := build()
	require.Equal(t, int64(44), callStatic(t, b.Arena, u, run, int64(41)))

	b, u, run = build()
	lower(t, b.Arena, u, passes.Default()...)
	known := b.Arena.Known
	is := func(want *ast.MethodDescriptor) func(*ast.MethodDescriptor) bool {
		return func(m *ast.MethodDescriptor) bool { return m == want }
	}
	require.Equal(t, 3, countCalls(u, is(known.ValueOf(ast.PrimitiveInt))))
	require.Equal(t, 1, countCalls(u, is(known.ValueOf(ast.PrimitiveLong))))
	require.Equal(t, 4, countCalls(u, is(known.PrimitiveValue(ast.PrimitiveInt))))
	require.Equal(t, 1, countCalls(u, is(known.PrimitiveValue(ast.PrimitiveLong))))
	require.Equal(t, 1, countCalls(u, is(known.WideningMethod(ast.PrimitiveInt, ast.PrimitiveLong))))
	ast.Inspect(u, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.UnaryExpression:
			require.False(t, n.Op.IsIncrementOrDecrement(), "boxed increment left in place")
		case *ast.BinaryExpression:
			require.False(t, n.Op.IsCompoundAssignment(), "boxed compound assignment left in place")
		}
		return true
	})
	require.Equal(t, int64(44), callStatic(t, b.Arena, u, run, int64(41)))
}

func TestInsertUnboxingConversions_UsedUpdates(t *testing.T) {
	build := func() (*asttest.Builder, *ast.CompilationUnit, *ast.MethodDescriptor, *ast.MethodDescriptor) {
		b := asttest.New("p")
		integer := b.Box(ast.PrimitiveInt)
		main := b.Class("Main")

		// int y = x++; return y * 10 + x;
		x, y := b.Param("x", integer), b.Local("y", b.Int())
		postfix := main.Method("postfix", b.Int(), x).Static().Body(
			b.Declare(y, b.Unary(ast.OpPostIncrement, b.Ref(x))),
			b.Return(b.Binary(ast.OpPlus, b.Binary(ast.OpTimes, b.Ref(y), b.IntLit(10)), b.Ref(x))),
		)

		// a[i++] += 5; Integer old = a[i]++;
		a, i, old := b.Local("a", b.Array(integer)), b.Local("i", b.Int()), b.Local("old", integer)
		elem := func(index ast.Expression) *ast.ArrayAccess { return &ast.ArrayAccess{Array: b.Ref(a), Index: index} }
		indexed := main.Method("indexed", b.Int()).Static().Body(
			b.Declare(a, b.NewArray(b.Array(integer), b.IntLit(2))),
			b.Declare(i, b.IntLit(0)),
			ast.Stmt(b.Assign(elem(b.IntLit(0)), b.IntLit(7))),
			ast.Stmt(b.Assign(elem(b.IntLit(1)), b.IntLit(20))),
			ast.Stmt(b.Binary(ast.OpPlusAssign, elem(b.Unary(ast.OpPostIncrement, b.Ref(i))), b.IntLit(5))),
			b.Declare(old, b.Unary(ast.OpPostIncrement, elem(b.Ref(i)))),
			b.Return(b.Binary(ast.OpPlus,
				b.Binary(ast.OpPlus, b.Binary(ast.OpTimes, b.Ref(i), b.IntLit(10000)), b.Binary(ast.OpTimes, elem(b.IntLit(0)), b.IntLit(100))),
				b.Binary(ast.OpPlus, b.Ref(old), b.Binary(ast.OpTimes, elem(b.IntLit(1)), b.IntLit(1000))))),
		)
		return b, b.Unit(), postfix.Descriptor(), indexed.Descriptor()
	}
	// i = 1, a = {12, 21}, old = 20.
	const wantIndexed = int64(10000 + 1200 + 20 + 21000)

	b, u, postfix, indexed := build()
	require.Equal(t, int64(45), callStatic(t, b.Arena, u, postfix, int64(4)))
	require.Equal(t, wantIndexed, callStatic(t, b.Arena, u, indexed))

	b, u, postfix, indexed = build()
	lower(t, b.Arena, u, passes.Default()...)
	require.Equal(t, 3, count[*ast.MultiExpression](u))
	ast.Inspect(u, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.UnaryExpression:
			if n.Op.IsIncrementOrDecrement() {
				require.True(t, ast.IsAnyPrimitive(n.Operand.TypeDescriptor()), "boxed %s left in place", n.Op)
			}
		case *ast.BinaryExpression:
			require.False(t, n.Op.IsCompoundAssignment(), "boxed compound assignment left in place")
		}
		return true
	})
	require.Equal(t, int64(45), callStatic(t, b.Arena, u, postfix, int64(4)))
	require.Equal(t, wantIndexed, callStatic(t, b.Arena, u, indexed))
}

func TestInsertBoxingConversions_NarrowingConstant(t *testing.T) {
	b := asttest.New("p")
	v := b.Local("v", b.Box(ast.PrimitiveByte))
	m := b.Class("C").Method("m", b.Void()).Static().Body(b.Declare(v, b.IntLit(7)))
	u := b.Unit()

	lower(t, b.Arena, u, passes.InsertUnboxingConversions{}, passes.InsertWideningPrimitiveConversions{}, passes.InsertBoxingConversions{})
	decl := m.Method.Body.Statements[0].(*ast.ExpressionStatement).Expr.(*ast.VariableDeclarationExpression)
	call, ok := decl.Fragments[0].Initializer.(*ast.MethodCall)
	require.True(t, ok, "got %T", decl.Fragments[0].Initializer)
	require.Same(t, b.Arena.Known.ValueOf(ast.PrimitiveByte), call.Target)
	cast, ok := call.Args[0].(*ast.CastExpression)
	require.True(t, ok, "got %T", call.Args[0])
	require.Same(t, b.Prim(ast.PrimitiveByte), cast.Type)
}
