package sink

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/tools/txtar"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "file", path: "Foo.json"},
		{name: "nested", path: "com/example/Foo.json"},
		{name: "dots in name", path: "com/example/Foo..json"},
		{name: "empty", path: "", wantErr: "empty"},
		{name: "absolute", path: "/tmp/Foo.json", wantErr: "absolute"},
		{name: "drive letter", path: "C:/Foo.json", wantErr: "absolute"},
		{name: "backslash", path: `com\Foo.json`, wantErr: "backslashes"},
		{name: "parent", path: "../Foo.json", wantErr: "traversal"},
		{name: "inner parent", path: "com/../Foo.json", wantErr: "traversal"},
		{name: "dot prefix", path: "./Foo.json", wantErr: "not clean"},
		{name: "double slash", path: "com//Foo.json", wantErr: "not clean"},
		{name: "trailing slash", path: "com/", wantErr: "not clean"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidatePath(%q) = %v, want nil", tt.path, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidatePath(%q) = %v, want error containing %q", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestMemorySink(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink()

	content := []byte(`{"version": 1}`)
	if err := s.WriteFile(ctx, "p/B.json", content); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteFile(ctx, "p/A.json", []byte("{}\n")); err != nil {
		t.Fatal(err)
	}
	content[0] = 'X'
	if got := s.Get("p/B.json"); string(got) != `{"version": 1}` {
		t.Errorf("stored content changed with the caller's slice: %q", got)
	}
	s.Get("p/B.json")[0] = 'Y'
	if got := s.Get("p/B.json"); got[0] != '{' {
		t.Errorf("Get returned the stored slice")
	}
	if got := s.Get("missing.json"); got != nil {
		t.Errorf("Get(missing) = %q, want nil", got)
	}
	if got, want := fmt.Sprint(s.Paths()), "[p/A.json p/B.json]"; got != want {
		t.Errorf("Paths() = %s, want %s", got, want)
	}

	if err := s.WriteFile(ctx, "../escape.json", nil); err == nil {
		t.Error("WriteFile accepted a traversing path")
	}
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.WriteFile(cancelled, "late.json", nil); err == nil {
		t.Error("WriteFile succeeded with a cancelled context")
	}

	s.Reset()
	if len(s.Paths()) != 0 {
		t.Errorf("Reset left %v", s.Paths())
	}
}

func TestMemorySink_Archive(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink()
	s.WriteFile(ctx, "b.json", []byte(`{"b": true}`))
	s.WriteFile(ctx, "a.json", []byte("{\"a\": true}\n"))

	a := txtar.Parse(s.Archive())
	if len(a.Files) != 2 {
		t.Fatalf("archive holds %d files, want 2", len(a.Files))
	}
	if a.Files[0].Name != "a.json" || a.Files[1].Name != "b.json" {
		t.Errorf("archive order = %s, %s", a.Files[0].Name, a.Files[1].Name)
	}
	if got := string(a.Files[1].Data); got != "{\"b\": true}\n" {
		t.Errorf("b.json = %q", got)
	}
}

func TestMemorySink_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.WriteFile(ctx, fmt.Sprintf("u/%02d.json", i), []byte("{}")); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if n := len(s.Paths()); n != 50 {
		t.Errorf("got %d files, want 50", n)
	}
}

func TestFilesystemSink(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewFilesystemSink(root)

	if err := s.WriteFile(ctx, "com/example/Foo.json", []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteFile(ctx, "com/example/Foo.json", []byte("second")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(root, "com", "example", "Foo.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q, want %q", got, "second")
	}

	info, err := os.Stat(filepath.Join(root, "com", "example", "Foo.json"))
	if err != nil {
		t.Fatal(err)
	}
	if mode := info.Mode().Perm(); mode != 0o644 {
		t.Errorf("mode = %v, want 0644", mode)
	}

	entries, err := os.ReadDir(filepath.Join(root, "com", "example"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".bridgec-") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestFilesystemSink_NoOverwrite(t *testing.T) {
	ctx := context.Background()
	s := &FilesystemSink{Root: t.TempDir(), Mode: 0o600}

	if err := s.WriteFile(ctx, "Foo.json", []byte("first")); err != nil {
		t.Fatal(err)
	}
	err := s.WriteFile(ctx, "Foo.json", []byte("second"))
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("second write = %v, want an already exists error", err)
	}
	got, err := os.ReadFile(filepath.Join(s.Root, "Foo.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("first")) {
		t.Errorf("content = %q, want the first write", got)
	}
	info, err := os.Stat(filepath.Join(s.Root, "Foo.json"))
	if err != nil {
		t.Fatal(err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("mode = %v, want 0600", mode)
	}
}

func TestFilesystemSink_Rejects(t *testing.T) {
	ctx := context.Background()
	s := NewFilesystemSink(t.TempDir())
	for _, path := range []string{"", "/abs.json", "../up.json", "a/../../up.json"} {
		if err := s.WriteFile(ctx, path, []byte("x")); err == nil {
			t.Errorf("WriteFile(%q) succeeded", path)
		}
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.WriteFile(cancelled, "late.json", []byte("x")); err == nil {
		t.Error("WriteFile succeeded with a cancelled context")
	}
}
