package interp_test

import (
	"testing"

	"github.com/broady/bridgec/ast"
	"github.com/broady/bridgec/internal/asttest"
	"github.com/broady/bridgec/internal/interp"
)

func TestConstructorInitializationOrder(t *testing.T) {
	b := asttest.New("p")
	c := b.Class("Counter")
	n := c.Field("n", b.Int(), b.IntLit(1)).Descriptor()
	get := func() ast.Expression { return b.Get(c.This(), n) }
	c.Initializer(false, ast.Stmt(b.Assign(get(), b.Binary(ast.OpTimes, get(), b.IntLit(10)))))
	def := c.Constructor()
	k := b.Param("k", b.Int())
	withK := c.Constructor(k).Body(
		b.ThisCall(def.Descriptor()),
		ast.Stmt(b.Assign(get(), b.Binary(ast.OpPlus, get(), b.Ref(k)))),
	)

	in := interp.New(b.Arena, b.Unit())
	obj, err := in.NewInstance(withK.Descriptor(), int64(5))
	if err != nil {
		t.Fatal(err)
	}
	if got := obj.Field(n); got != int64(15) {
		t.Errorf("n = %v, want 15", got)
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		expr func(b *asttest.Builder) ast.Expression
		want interp.Value
	}{
		{
			name: "int overflow wraps",
			expr: func(b *asttest.Builder) ast.Expression {
				return b.Binary(ast.OpPlus, b.IntLit(2147483647), b.IntLit(1))
			},
			want: int64(-2147483648),
		},
		{
			name: "long does not wrap at 32 bits",
			expr: func(b *asttest.Builder) ast.Expression {
				return b.Binary(ast.OpPlus, b.Lit(ast.PrimitiveLong, 2147483647), b.IntLit(1))
			},
			want: int64(2147483648),
		},
		{
			name: "integer division truncates",
			expr: func(b *asttest.Builder) ast.Expression {
				return b.Binary(ast.OpDivide, b.IntLit(-7), b.IntLit(2))
			},
			want: int64(-3),
		},
		{
			name: "mixed promotes to double",
			expr: func(b *asttest.Builder) ast.Expression {
				return b.Binary(ast.OpDivide, b.IntLit(7), b.Lit(ast.PrimitiveDouble, 2))
			},
			want: 3.5,
		},
		{
			name: "string concatenation",
			expr: func(b *asttest.Builder) ast.Expression {
				s := b.Binary(ast.OpPlus, b.Str("v"), b.Lit(ast.PrimitiveChar, 'x'))
				return b.Binary(ast.OpPlus, s, b.Lit(ast.PrimitiveDouble, 1))
			},
			want: "vx1.0",
		},
		{
			name: "unsigned shift",
			expr: func(b *asttest.Builder) ast.Expression {
				return b.Binary(ast.OpUnsignedRightShift, b.IntLit(-1), b.IntLit(28))
			},
			want: int64(15),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := asttest.New("p")
			expr := tt.expr(b)
			c := b.Class("Calc")
			m := c.Method("calc", expr.TypeDescriptor()).Static().Body(b.Return(expr))

			got, err := interp.New(b.Arena, b.Unit()).Call(m.Descriptor(), nil)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestLambdaCapturesLocals(t *testing.T) {
	b := asttest.New("p")
	fn := b.Interface("IntOp")
	fn.Decl.Functional = true
	x := b.Param("x", b.Int())
	apply := fn.Method("apply", b.Int(), x).Abstract()

	base := b.Param("base", b.Int())
	f := b.Local("f", fn.Descriptor())
	lx := b.Param("x", b.Int())
	lambda := b.Lambda(fn.Descriptor(), apply.Descriptor(), []*ast.Variable{lx},
		b.Return(b.Binary(ast.OpPlus, b.Ref(lx), b.Ref(base))))
	c := b.Class("Runner")
	run := c.Method("run", b.Int(), base).Static().Body(
		b.Declare(f, lambda),
		b.Return(b.Call(b.Ref(f), apply.Descriptor(), b.IntLit(2))),
	)

	got, err := interp.New(b.Arena, b.Unit()).Call(run.Descriptor(), nil, int64(40))
	if err != nil {
		t.Fatal(err)
	}
	if got != int64(42) {
		t.Errorf("run(40) = %v, want 42", got)
	}
}

func TestUncaughtException(t *testing.T) {
	b := asttest.New("p")
	throwable := b.Arena.Known.Throwable
	c := b.Class("Thrower")
	m := c.Method("fail", b.Void()).Static().Body(
		b.Throw(b.New(throwable.Method("<init>", 1), b.Str("boom"))),
	)

	_, err := interp.New(b.Arena, b.Unit()).Call(m.Descriptor(), nil)
	exc, ok := interp.AsThrown(err)
	if !ok {
		t.Fatalf("err = %v, want a thrown exception", err)
	}
	if exc.Message() != "boom" {
		t.Errorf("message = %v, want boom", exc.Message())
	}
}
