package compile

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/tools/txtar"

	"github.com/broady/bridgec/ast"
	"github.com/broady/bridgec/ast/astjson"
	"github.com/broady/bridgec/internal/asttest"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// document returns a JSON document with class p.Greeter, whose static
// twice(Integer) returns its boxed argument doubled.
func document(t *testing.T) []byte {
	t.Helper()
	return documentFor(t, "Greeter")
}

func documentFor(t *testing.T, class string) []byte {
	t.Helper()
	b := asttest.New("p").File(class + ".java")
	x := b.Param("x", b.Box(ast.PrimitiveInt))
	b.Class(class).Method("twice", b.Int(), x).Static().Body(
		b.Return(b.Binary(ast.OpTimes, b.Ref(x), b.IntLit(2))),
	)
	data, err := astjson.Marshal(b.Arena, b.Unit())
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestCmd(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	if err := os.WriteFile(in, document(t), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")

	var stdout bytes.Buffer
	cmd := &Cmd{Input: in, Out: out, Set: []string{"verify=true"}, Parallelism: 2, Stdout: &stdout}
	if err := cmd.Run(discard); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := stdout.String(); !strings.Contains(got, "1 units lowered") {
		t.Errorf("stdout = %q", got)
	}

	f, err := os.Open(filepath.Join(out, "p", "Greeter.json"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	arena, units, err := astjson.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("got %d units, want 1", len(units))
	}
	calls := 0
	ast.Inspect(units[0], func(n ast.Node) bool {
		if c, ok := n.(*ast.MethodCall); ok && c.Target == arena.Known.PrimitiveValue(ast.PrimitiveInt) {
			calls++
		}
		return true
	})
	if calls != 1 {
		t.Errorf("got %d intValue calls in the output, want 1", calls)
	}

	// A second run replaces the output unless told otherwise.
	if err := cmd.Run(discard); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	cmd.NoOverwrite = true
	if err := cmd.Run(discard); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Run without overwrite = %v, want an already exists error", err)
	}
}

func TestCmd_Stdin(t *testing.T) {
	archive := txtar.Format(&txtar.Archive{Files: []txtar.File{
		{Name: "Greeter.json", Data: append(document(t), '\n')},
	}})
	out := t.TempDir()

	var stdout bytes.Buffer
	cmd := &Cmd{Input: "-", Out: out, Stdin: bytes.NewReader(archive), Stdout: &stdout}
	if err := cmd.Run(discard); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "p", "Greeter.json")); err != nil {
		t.Error(err)
	}
}

func TestCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	if err := os.WriteFile(in, document(t), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cmd     Cmd
		wantErr string
	}{
		{
			name:    "missing input",
			cmd:     Cmd{Input: filepath.Join(dir, "missing.json"), Out: dir},
			wantErr: "read input",
		},
		{
			name:    "malformed setting",
			cmd:     Cmd{Input: in, Out: dir, Set: []string{"verify"}},
			wantErr: "malformed setting",
		},
		{
			name:    "unknown setting",
			cmd:     Cmd{Input: in, Out: dir, Set: []string{"speed=fast"}},
			wantErr: "decode settings",
		},
		{
			name:    "unknown pass",
			cmd:     Cmd{Input: in, Out: dir, Set: []string{"passes=Inline"}},
			wantErr: `unknown pass "Inline"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cmd.Stdout = io.Discard
			err := tt.cmd.Run(discard)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Run = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCmd_Watch(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	if err := os.WriteFile(in, document(t), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	cmd := &Cmd{Input: in, Out: out, Watch: true, Stdout: io.Discard}
	go func() { done <- cmd.run(ctx, discard) }()

	waitFor := func(path string) bool {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if _, err := os.Stat(path); err == nil {
				return true
			}
			time.Sleep(20 * time.Millisecond)
		}
		return false
	}
	if !waitFor(filepath.Join(out, "p", "Greeter.json")) {
		t.Fatal("initial compile produced no output")
	}

	// The watcher may start after the first write, so keep rewriting
	// until the new unit shows up.
	other := documentFor(t, "Other")
	rewrite := time.NewTicker(100 * time.Millisecond)
	defer rewrite.Stop()
	deadline := time.After(5 * time.Second)
	for found := false; !found; {
		select {
		case <-rewrite.C:
			if err := os.WriteFile(in, other, 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := os.Stat(filepath.Join(out, "p", "Other.json"))
			found = err == nil
		case <-deadline:
			t.Fatal("changed input was not recompiled")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run = %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestCmd_WatchStdin(t *testing.T) {
	cmd := &Cmd{Input: "-", Out: t.TempDir(), Watch: true, Stdin: strings.NewReader(""), Stdout: io.Discard}
	if err := cmd.run(context.Background(), discard); err == nil || !strings.Contains(err.Error(), "needs an input file") {
		t.Errorf("run = %v, want an input file error", err)
	}
}
