package compiler_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/broady/bridgec/ast"
	"github.com/broady/bridgec/ast/astjson"
	"github.com/broady/bridgec/compiler"
	"github.com/broady/bridgec/internal/asttest"
	"github.com/broady/bridgec/internal/interp"
	"github.com/broady/bridgec/passes"
	"github.com/broady/bridgec/sink"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// unitOf puts the type built by tb into its own unit.
func unitOf(tb *asttest.TypeBuilder) *ast.CompilationUnit {
	u := &ast.CompilationUnit{Package: tb.Decl.Package, File: tb.Decl.Name + ".java"}
	u.AddType(tb.Type)
	return u
}

// accumulator declares class name with a static run(Integer) that returns
// its argument plus 3, using boxed arithmetic.
func accumulator(b *asttest.Builder, name string) *asttest.TypeBuilder {
	integer := b.Box(ast.PrimitiveInt)
	boxed := b.Param("boxed", integer)
	counter := b.Local("counter", integer)
	total := b.Local("total", b.Long())
	c := b.Class(name)
	c.Method("run", b.Long(), boxed).Static().Body(
		b.Declare(counter, b.IntLit(0)),
		ast.Stmt(b.Unary(ast.OpPostIncrement, b.Ref(counter))),
		ast.Stmt(b.Binary(ast.OpPlusAssign, b.Ref(counter), b.IntLit(2))),
		b.Declare(total, b.Binary(ast.OpPlus, b.Ref(boxed), b.Ref(counter))),
		b.Return(b.Ref(total)),
	)
	return c
}

// cyclic declares a class whose constructors delegate to each other, which
// lowering rejects.
func cyclic(b *asttest.Builder, name string) *asttest.TypeBuilder {
	d := b.Class(name)
	x := b.Param("x", b.Int())
	withX := d.Constructor(x)
	def := d.Constructor().Body(b.ThisCall(withX.Descriptor(), b.IntLit(1)))
	withX.Body(b.ThisCall(def.Descriptor()))
	return d
}

func countCalls(root ast.Node, target *ast.MethodDescriptor) int {
	n := 0
	ast.Inspect(root, func(node ast.Node) bool {
		if call, ok := node.(*ast.MethodCall); ok && call.Target == target {
			n++
		}
		return true
	})
	return n
}

func TestCompile_ToSink(t *testing.T) {
	b := asttest.New("com.example")
	u := unitOf(accumulator(b, "Main"))

	out := sink.NewMemorySink()
	res, err := compiler.FromUnits(b.Arena, u).Verify().Logger(discard).ToSink(context.Background(), out)
	require.NoError(t, err)
	require.Empty(t, res.Problems.Errors())
	require.Equal(t, []*ast.CompilationUnit{u}, res.Units)
	require.Equal(t, []string{"com/example/Main.json"}, out.Paths())

	arena, units, err := astjson.DecodeArchive(out.Archive())
	require.NoError(t, err)
	require.Len(t, units, 1)
	main := arena.Lookup("com.example.Main")
	require.NotNil(t, main)
	require.Equal(t, 3, countCalls(units[0], arena.Known.ValueOf(ast.PrimitiveInt)))

	v, err := interp.New(arena, units...).Call(main.Method("run", 1), nil, int64(41))
	require.NoError(t, err)
	require.Equal(t, int64(44), v)
}

func TestCompile_Parallel(t *testing.T) {
	b := asttest.New("p")
	names := []string{"A", "B", "C", "D", "E", "F"}
	var units []*ast.CompilationUnit
	for _, name := range names {
		units = append(units, unitOf(accumulator(b, name)))
	}

	out := sink.NewMemorySink()
	res, err := compiler.FromUnits(b.Arena, units...).Parallelism(4).Logger(discard).ToSink(context.Background(), out)
	require.NoError(t, err)
	require.Len(t, res.Units, len(names))
	require.Equal(t, []string{"p/A.json", "p/B.json", "p/C.json", "p/D.json", "p/E.json", "p/F.json"}, out.Paths())

	in := interp.New(b.Arena, units...)
	for _, name := range names {
		v, err := in.Call(b.Arena.Lookup("p."+name).Method("run", 1), nil, int64(1))
		require.NoError(t, err, name)
		require.Equal(t, int64(4), v, name)
	}
}

func TestCompile_RestrictionViolations(t *testing.T) {
	b := asttest.New("p")
	e := b.Enum("E").BridgedEnum(false)
	e.Field("value", b.Int(), nil)
	e.Constant("A", e.Constructor())
	main := accumulator(b, "Main")

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	out := sink.NewMemorySink()
	res, err := compiler.FromUnits(b.Arena, unitOf(e), unitOf(main)).Logger(logger).ToSink(context.Background(), out)
	require.ErrorIs(t, err, compiler.ErrRestrictionViolations)
	require.Len(t, res.Problems.Errors(), 2)
	require.Nil(t, res.Units)
	require.Empty(t, out.Paths())
	require.Zero(t, countCalls(main.Type, b.Arena.Known.ValueOf(ast.PrimitiveInt)), "unit lowered despite violations")
	require.Contains(t, logs.String(), "level=ERROR")
	require.Contains(t, logs.String(), "cannot have a field named 'value'")

	// The same input lowers when the checker is skipped.
	_, err = compiler.FromUnits(b.Arena, unitOf(main)).SkipCheck().Logger(discard).Lower(context.Background())
	require.NoError(t, err)
}

func TestCompile_FailOnWarnings(t *testing.T) {
	b := asttest.New("p")
	c := b.Class("C")
	c.Method("m", b.Void()).Native()
	units := []*ast.CompilationUnit{unitOf(c)}

	res, err := compiler.Compile(context.Background(), b.Arena, units, &compiler.Config{Logger: discard}, nil)
	require.NoError(t, err)
	require.Len(t, res.Problems.Warnings(), 1)

	_, err = compiler.Compile(context.Background(), b.Arena, units, &compiler.Config{Logger: discard, FailOnWarnings: true}, nil)
	require.ErrorIs(t, err, compiler.ErrRestrictionViolations)
	require.ErrorContains(t, err, "1 reported")
}

func TestCompile_NoUnits(t *testing.T) {
	_, err := compiler.Compile(context.Background(), ast.NewArena(), nil, nil, nil)
	require.ErrorIs(t, err, compiler.ErrNoUnits)
}

func TestCompile_InternalError(t *testing.T) {
	b := asttest.New("p")
	broken := unitOf(cyclic(b, "Broken"))
	main := unitOf(accumulator(b, "Main"))

	out := sink.NewMemorySink()
	res, err := compiler.FromUnits(b.Arena, broken, main).Logger(discard).ToSink(context.Background(), out)
	require.Error(t, err)
	require.Contains(t, err.Error(), "lower Broken.java")
	var ie *ast.InternalError
	require.ErrorAs(t, err, &ie)
	require.Equal(t, "NormalizeConstructors", ie.Pass)
	require.Nil(t, res.Units)
	require.Empty(t, out.Paths())

	// Units after the failing one are not started.
	require.Zero(t, countCalls(main, b.Arena.Known.ValueOf(ast.PrimitiveInt)))
}

func TestCompile_MalformedInput(t *testing.T) {
	b := asttest.New("p")
	c := b.Class("C")
	f := c.Method("f", b.Void()).Static().Body()
	c.Method("m", b.Void()).Static().Body(
		ast.Stmt(b.Call(nil, f.Descriptor(), b.IntLit(1))),
	)

	var res *compiler.Result
	var err error
	require.NotPanics(t, func() {
		res, err = compiler.FromUnits(b.Arena, unitOf(c)).Logger(discard).Lower(context.Background())
	})
	var ie *ast.InternalError
	require.ErrorAs(t, err, &ie)
	require.Contains(t, err.Error(), "verify C.java")
	require.Contains(t, ie.Message, "expects 0 arguments, got 1")
	require.Nil(t, res.Units)
}

func TestCompile_Cancelled(t *testing.T) {
	b := asttest.New("p")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := compiler.FromUnits(b.Arena, unitOf(accumulator(b, "Main"))).Logger(discard).Lower(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

// recordPass records the units it runs over.
type recordPass struct {
	mu    *sync.Mutex
	files *[]string
}

func (recordPass) Name() string       { return "Record" }
func (recordPass) Requires() []string { return []string{"NormalizeLambdas"} }
func (p recordPass) Apply(_ *passes.Env, u *ast.CompilationUnit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.files = append(*p.files, u.File)
}

func TestCompile_Passes(t *testing.T) {
	var (
		mu    sync.Mutex
		files []string
	)
	record := recordPass{mu: &mu, files: &files}

	t.Run("named and extra", func(t *testing.T) {
		b := asttest.New("p")
		main := unitOf(accumulator(b, "Main"))
		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

		res, err := compiler.FromUnits(b.Arena, main).
			Passes("NormalizeTryWithResources", "NormalizeLambdas").
			WithPass(record).
			Logger(logger).
			Lower(context.Background())
		require.NoError(t, err)
		require.Len(t, res.Units, 1)
		require.Equal(t, []string{"Main.java"}, files)
		require.Zero(t, countCalls(main, b.Arena.Known.ValueOf(ast.PrimitiveInt)), "boxing ran but was not selected")
		require.Contains(t, logs.String(), "pass=NormalizeLambdas")
		require.Contains(t, logs.String(), "pass=Record")
		require.NotContains(t, logs.String(), "pass=InsertBoxingConversions")
	})

	t.Run("missing requirement", func(t *testing.T) {
		b := asttest.New("p")
		_, err := compiler.FromUnits(b.Arena, unitOf(accumulator(b, "Main"))).
			Passes("NormalizeTryWithResources").
			WithPass(record).
			Logger(discard).
			Lower(context.Background())
		require.ErrorContains(t, err, "Record requires NormalizeLambdas")
	})

	t.Run("unknown pass", func(t *testing.T) {
		b := asttest.New("p")
		_, err := compiler.FromUnits(b.Arena, unitOf(accumulator(b, "Main"))).
			Passes("InlineEverything").
			Logger(discard).
			Lower(context.Background())
		require.ErrorContains(t, err, `unknown pass "InlineEverything"`)
	})
}

func TestCompile_FormatNone(t *testing.T) {
	b := asttest.New("p")
	out := sink.NewMemorySink()
	res, err := compiler.FromUnits(b.Arena, unitOf(accumulator(b, "Main"))).
		WithConfig(compiler.Config{Format: "none"}).
		Logger(discard).
		ToSink(context.Background(), out)
	require.NoError(t, err)
	require.Len(t, res.Units, 1)
	require.Empty(t, out.Paths())
}

func TestConfigFromValues(t *testing.T) {
	tests := []struct {
		name     string
		settings []string
		want     compiler.Config
		wantErr  string
	}{
		{
			name:     "empty",
			settings: nil,
			want:     compiler.Config{},
		},
		{
			name:     "all fields",
			settings: []string{"parallelism=4", "passes=NormalizeLambdas,NormalizeConstructors", "verify=true", "skip-check=true", "fail-on-warnings=true", "format=none"},
			want: compiler.Config{
				Parallelism:    4,
				Passes:         []string{"NormalizeLambdas", "NormalizeConstructors"},
				Verify:         true,
				SkipCheck:      true,
				FailOnWarnings: true,
				Format:         "none",
			},
		},
		{
			name:     "repeated pass key",
			settings: []string{"passes=NormalizeLambdas", "passes=InsertBoxingConversions"},
			want:     compiler.Config{Passes: []string{"NormalizeLambdas", "InsertBoxingConversions"}},
		},
		{
			name:     "unknown key",
			settings: []string{"optimize=true"},
			wantErr:  "decode settings",
		},
		{
			name:     "bad number",
			settings: []string{"parallelism=many"},
			wantErr:  "decode settings",
		},
		{
			name:     "negative parallelism",
			settings: []string{"parallelism=-1"},
			wantErr:  "invalid config",
		},
		{
			name:     "unknown format",
			settings: []string{"format=xml"},
			wantErr:  "invalid config",
		},
		{
			name:     "unknown pass",
			settings: []string{"passes=Inline"},
			wantErr:  `unknown pass "Inline"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := compiler.ParseSettings(tt.settings)
			require.NoError(t, err)
			cfg, err := compiler.ConfigFromValues(values)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, *cfg)
		})
	}
}

func TestParseSettings(t *testing.T) {
	values, err := compiler.ParseSettings([]string{" parallelism = 2", "verify=true"})
	require.NoError(t, err)
	require.Equal(t, url.Values{"parallelism": {"2"}, "verify": {"true"}}, values)

	for _, bad := range []string{"verify", "=true"} {
		_, err := compiler.ParseSettings([]string{bad})
		require.ErrorContains(t, err, "malformed setting", bad)
	}
}

func TestUnitPath(t *testing.T) {
	tests := []struct {
		pkg, file, want string
	}{
		{"com.example", "Foo.java", "com/example/Foo.json"},
		{"com.example", "src/com/example/Foo.java", "com/example/Foo.json"},
		{"", "Foo.java", "Foo.json"},
		{"p", `src\p\Bar.java`, "p/Bar.json"},
		{"p", "", "p/unit.json"},
		{"p", "NoExtension", "p/NoExtension.json"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			u := &ast.CompilationUnit{Package: tt.pkg, File: tt.file}
			require.Equal(t, tt.want, compiler.UnitPath(u))
			require.NoError(t, sink.ValidatePath(compiler.UnitPath(u)))
		})
	}
}
