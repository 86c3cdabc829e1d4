package diag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/broady/bridgec/ast"
)

func TestProblems_Ordering(t *testing.T) {
	p := New()
	pos := ast.SourcePosition{File: "A.java", Line: 3, Column: 5}
	p.Warning(pos, "first %d", 1)
	p.Error(pos, "second")
	p.Info("third")

	entries := p.Entries()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	want := []string{
		"A.java:3:5: warning: first 1",
		"A.java:3:5: error: second",
		"info: third",
	}
	for i, e := range entries {
		if got := e.String(); got != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got, want[i])
		}
	}
	if !p.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
	if got := p.ErrorCount(); got != 1 {
		t.Errorf("ErrorCount() = %d, want 1", got)
	}
}

func TestProblems_WarningsDoNotFail(t *testing.T) {
	p := New()
	p.Warning(ast.SourcePosition{}, "w")
	p.Info("i")
	if p.HasErrors() {
		t.Error("warnings and infos must not fail the run")
	}
	if got := p.Warnings(); len(got) != 1 || got[0] != "w" {
		t.Errorf("Warnings() = %v", got)
	}
}

func TestProblems_ConcurrentAppends(t *testing.T) {
	p := New()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				p.Error(ast.SourcePosition{File: "f", Line: g + 1}, "%d-%d", g, i)
			}
		}(g)
	}
	wg.Wait()

	if got := p.ErrorCount(); got != 400 {
		t.Fatalf("ErrorCount() = %d, want 400", got)
	}
	// Entries from one goroutine keep their relative order.
	next := make(map[int]int)
	for _, e := range p.Entries() {
		g := e.Position.Line - 1
		var gotG, gotI int
		if _, err := fmt.Sscanf(e.Message, "%d-%d", &gotG, &gotI); err != nil {
			t.Fatal(err)
		}
		if gotI != next[g] {
			t.Fatalf("goroutine %d: got entry %d, want %d", g, gotI, next[g])
		}
		next[g]++
	}
}

func TestProblems_Report(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	p := New()
	p.Error(ast.SourcePosition{File: "A.java", Line: 1}, "bad")
	p.Info("hint")
	p.Report(context.Background(), logger)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2: %s", len(lines), buf.String())
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first["level"] != "ERROR" || first["msg"] != "bad" || first["position"] != "A.java:1" {
		t.Errorf("unexpected log entry: %v", first)
	}
	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if _, ok := second["position"]; ok {
		t.Errorf("info entry should not carry a position: %v", second)
	}
}
