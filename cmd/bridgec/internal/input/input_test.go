package input

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/broady/bridgec/ast"
	"github.com/broady/bridgec/ast/astjson"
	"github.com/broady/bridgec/internal/asttest"
)

func documents(t *testing.T) (single, archive []byte) {
	t.Helper()
	b := asttest.New("p")
	a := b.Class("A")
	c := b.Class("B").Extends(a)

	var files []txtar.File
	for _, tb := range []*asttest.TypeBuilder{a, c} {
		u := &ast.CompilationUnit{Package: "p", File: tb.Decl.Name + ".java"}
		u.AddType(tb.Type)
		data, err := astjson.Marshal(b.Arena, u)
		if err != nil {
			t.Fatal(err)
		}
		files = append(files, txtar.File{Name: tb.Decl.Name + ".json", Data: append(data, '\n')})
	}
	single, err := astjson.Marshal(b.Arena, b.Unit())
	if err != nil {
		t.Fatal(err)
	}
	return single, txtar.Format(&txtar.Archive{Files: files})
}

func TestParse(t *testing.T) {
	single, archive := documents(t)
	tests := []struct {
		name      string
		data      []byte
		wantUnits int
		wantErr   string
	}{
		{name: "document", data: single, wantUnits: 1},
		{name: "indented document", data: append([]byte("\n  "), single...), wantUnits: 1},
		{name: "archive", data: archive, wantUnits: 2},
		{name: "empty", data: nil, wantErr: "astjson"},
		{name: "garbage document", data: []byte("{nope"), wantErr: "astjson"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arena, units, err := Parse(tt.data)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Parse = %v, want error containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(units) != tt.wantUnits {
				t.Fatalf("got %d units, want %d", len(units), tt.wantUnits)
			}
			if arena.Lookup("p.B").Super.Decl != arena.Lookup("p.A") {
				t.Error("p.B does not extend p.A after decoding")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	single, _ := documents(t)
	path := filepath.Join(t.TempDir(), "units.json")
	if err := os.WriteFile(path, single, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, units, err := Load(path, nil); err != nil || len(units) != 1 {
		t.Errorf("Load(file) = %d units, %v", len(units), err)
	}
	if _, units, err := Load("-", strings.NewReader(string(single))); err != nil || len(units) != 1 {
		t.Errorf("Load(stdin) = %d units, %v", len(units), err)
	}
	if _, _, err := Load(filepath.Join(t.TempDir(), "missing.json"), nil); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}
