package astjson_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/broady/bridgec/ast"
	"github.com/broady/bridgec/ast/astjson"
	"github.com/broady/bridgec/internal/asttest"
	"github.com/broady/bridgec/internal/interp"
	"github.com/broady/bridgec/passes"
)

// counter builds a class exercising most node kinds. Counter.run(3)
// returns 21.
func counter() (*asttest.Builder, *ast.CompilationUnit) {
	b := asttest.New("p").File("Counter.java")
	op := b.Interface("IntOp")
	op.Decl.Functional = true
	apply := op.Method("apply", b.Int(), b.Param("x", b.Int())).Abstract()

	c := b.Class("Counter")
	total := c.StaticField("total", b.Long(), b.Lit(ast.PrimitiveLong, 0)).Descriptor()
	step := c.Field("step", b.Int(), b.IntLit(2)).Descriptor()
	c.Initializer(false, ast.Stmt(b.Assign(b.Get(c.This(), step), b.Binary(ast.OpTimes, b.Get(c.This(), step), b.IntLit(3)))))
	c.Constructor()

	n := b.Param("n", b.Int())
	x := b.Param("x", b.Int())
	i := b.Local("i", b.Int())
	f := b.Local("f", op.Descriptor())
	values := b.Local("values", b.Array(b.Int()))
	at := func() *ast.ArrayAccess { return &ast.ArrayAccess{Array: b.Ref(values), Index: b.Ref(i)} }
	c.Method("run", b.Long(), n).Body(
		b.Declare(f, b.Lambda(op.Descriptor(), apply.Descriptor(), []*ast.Variable{x},
			b.Return(b.Binary(ast.OpPlus, b.Ref(x), b.Get(c.This(), step))))),
		b.Declare(i, b.IntLit(0)),
		b.Declare(values, b.NewArray(b.Array(b.Int()), b.Ref(n))),
		&ast.WhileStatement{
			Cond: b.Binary(ast.OpLess, b.Ref(i), b.Ref(n)),
			Body: ast.NewBlock(
				ast.Stmt(b.Assign(at(), b.Call(b.Ref(f), apply.Descriptor(), b.Ref(i)))),
				ast.Stmt(b.Binary(ast.OpPlusAssign, b.Get(nil, total), at())),
				ast.Stmt(b.Unary(ast.OpPostIncrement, b.Ref(i))),
			),
		},
		&ast.IfStatement{
			Cond: b.Binary(ast.OpConditionalOr,
				b.Binary(ast.OpNotEquals, b.Ref(f), b.Null()),
				b.InstanceOf(b.Ref(values), b.Object())),
			Then: b.Return(b.Get(nil, total)),
		},
		b.Throw(b.New(b.Arena.Known.Throwable.Method("<init>", 1), b.Str("unreachable"))),
	)
	return b, b.Unit()
}

func run(t *testing.T, arena *ast.Arena, u *ast.CompilationUnit) interp.Value {
	t.Helper()
	c := arena.Lookup("p.Counter")
	if c == nil {
		t.Fatal("p.Counter not declared")
	}
	in := interp.New(arena, u)
	obj, err := in.NewInstance(c.DefaultConstructor())
	if err != nil {
		t.Fatalf("new Counter: %v", err)
	}
	v, err := in.Call(c.Method("run", 1), obj, int64(3))
	if err != nil {
		t.Fatalf("Counter.run: %v", err)
	}
	return v
}

func roundTrip(t *testing.T, arena *ast.Arena, u *ast.CompilationUnit) (*ast.Arena, *ast.CompilationUnit) {
	t.Helper()
	var buf bytes.Buffer
	if err := astjson.Encode(&buf, arena, u); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, units, err := astjson.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("Decode returned %d units, want 1", len(units))
	}
	return decoded, units[0]
}

func TestRoundTrip(t *testing.T) {
	b, u := counter()
	arena, got := roundTrip(t, b.Arena, u)

	if got.File != "Counter.java" || got.Package != "p" {
		t.Errorf("unit = %s/%s, want p/Counter.java", got.Package, got.File)
	}
	if len(got.Types) != len(u.Types) {
		t.Fatalf("got %d types, want %d", len(got.Types), len(u.Types))
	}
	for i := range u.Types {
		if want, have := ast.Sprint(u.Types[i]), ast.Sprint(got.Types[i]); want != have {
			t.Errorf("type %d differs after round trip\nwant:\n%s\ngot:\n%s", i, want, have)
		}
		if want, have := u.Types[i].Pos(), got.Types[i].Pos(); want != have {
			t.Errorf("type %d at %v, want %v", i, have, want)
		}
	}

	// Known members keep their identity in the decoding arena.
	throw := got.Types[1].Methods()[1].Body.Statements[5].(*ast.ThrowStatement)
	if ctor := throw.Expr.(*ast.NewInstance).Target; ctor != arena.Known.Throwable.Method("<init>", 1) {
		t.Errorf("Throwable constructor decoded as %s, not the known descriptor", ctor.ReadableName())
	}

	if want, have := run(t, b.Arena, u), run(t, arena, got); want != have {
		t.Errorf("run(3) = %v after round trip, want %v", have, want)
	}
}

func TestRoundTrip_Variables(t *testing.T) {
	b, u := counter()
	_, got := roundTrip(t, b.Arena, u)

	runMethod := got.Types[1].Methods()[1]
	param := runMethod.Params[0]
	refs := 0
	ast.Inspect(runMethod.Body, func(n ast.Node) bool {
		if r, ok := n.(*ast.VariableReference); ok && r.Target.Name == "n" {
			if r.Target != param {
				t.Errorf("reference to n does not point at the parameter")
			}
			refs++
		}
		return true
	})
	if refs != 2 {
		t.Errorf("found %d references to n, want 2", refs)
	}
}

func TestRoundTrip_Lowered(t *testing.T) {
	b, u := counter()
	want := run(t, b.Arena, u)

	p, err := passes.NewPipeline(passes.Default()...)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Run(context.Background(), &passes.Env{Arena: b.Arena}, u); err != nil {
		t.Fatalf("lowering: %v", err)
	}
	arena, got := roundTrip(t, b.Arena, u)
	if arena.Lookup("p.Counter.$Lambda$1") == nil {
		t.Error("lambda adaptor not declared after decoding")
	}
	if have := run(t, arena, got); have != want {
		t.Errorf("run(3) = %v, want %v", have, want)
	}
}

func TestDecodeArchive(t *testing.T) {
	b := asttest.New("p")
	base := b.Class("Base")
	base.Method("id", b.Int()).Body(b.Return(b.IntLit(7)))
	derived := b.Class("Derived").Extends(base)
	derived.Method("id", b.Int()).Overrides(base.Decl.Method("id", 0)).Body(b.Return(b.IntLit(8)))

	unitOf := func(tb *asttest.TypeBuilder) *ast.CompilationUnit {
		u := &ast.CompilationUnit{Package: "p", File: tb.Decl.Name + ".java"}
		u.AddType(tb.Type)
		return u
	}
	archive := &txtar.Archive{Comment: []byte("two units\n")}
	// Derived comes first; its supertype is defined by the second file.
	for _, tb := range []*asttest.TypeBuilder{derived, base} {
		data, err := astjson.Marshal(b.Arena, unitOf(tb))
		if err != nil {
			t.Fatalf("Marshal %s: %v", tb.Decl.Name, err)
		}
		archive.Files = append(archive.Files, txtar.File{Name: tb.Decl.Name + ".json", Data: append(data, '\n')})
	}

	arena, units, err := astjson.DecodeArchive(txtar.Format(archive))
	if err != nil {
		t.Fatalf("DecodeArchive: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("got %d units, want 2", len(units))
	}
	d, bd := arena.Lookup("p.Derived"), arena.Lookup("p.Base")
	if d == nil || bd == nil {
		t.Fatal("declarations missing after decoding")
	}
	if d.Super.Decl != bd {
		t.Errorf("Derived extends %s, want the decoded Base", d.Super.ReadableName())
	}
	if o := d.Method("id", 0).Overrides; len(o) != 1 || o[0] != bd.Method("id", 0) {
		t.Errorf("Derived.id overrides %v, want Base.id", o)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
		is      error
	}{
		{
			name:  "version",
			input: `{"version": 2, "units": []}`,
			is:    astjson.ErrVersion,
		},
		{
			name:    "unknown field",
			input:   `{"version": 1, "units": [], "extra": true}`,
			wantErr: `unknown field "extra"`,
		},
		{
			name:    "unknown type",
			input:   `{"version": 1, "units": [{"file": "A.java", "types": [{"declaration": "p.Missing"}]}]}`,
			wantErr: "unknown type p.Missing",
		},
		{
			name: "unknown enclosing type",
			input: `{"version": 1, "declarations": [
				{"package": "p", "name": "Inner", "enclosing": "p.Outer", "kind": "class", "visibility": "public"}
			], "units": []}`,
			wantErr: "unknown type p.Outer",
		},
		{
			name: "undeclared variable",
			input: `{"version": 1, "units": [{"file": "A.java", "types": [{
				"declaration": "java.lang.Object",
				"members": [{"kind": "initializer", "static": true, "body": {"kind": "block", "statements": [
					{"kind": "expression", "expr": {"kind": "variable", "var": 9}}
				]}}]
			}]}]}`,
			wantErr: "variable 9 is referenced but never declared",
		},
		{
			name: "method index out of range",
			input: `{"version": 1, "units": [{"file": "A.java", "types": [{
				"declaration": "java.lang.Object",
				"members": [{"kind": "method", "ref": {"owner": "java.lang.Object", "index": 99}}]
			}]}]}`,
			wantErr: "java.lang.Object has no method 99",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := astjson.Decode(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("Decode succeeded, want error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("error %v is not %v", err, tt.is)
			}
			if tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeArchive_Empty(t *testing.T) {
	if _, _, err := astjson.DecodeArchive([]byte("just a comment\n")); err == nil {
		t.Error("DecodeArchive of an archive without files succeeded")
	}
}
