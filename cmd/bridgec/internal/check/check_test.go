package check

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/broady/bridgec/ast/astjson"
	"github.com/broady/bridgec/compiler"
	"github.com/broady/bridgec/internal/asttest"
)

func TestCmd(t *testing.T) {
	tests := []struct {
		name       string
		build      func(b *asttest.Builder)
		wantErr    error
		wantStdout []string
		wantLog    string
	}{
		{
			name: "clean",
			build: func(b *asttest.Builder) {
				b.Class("C").Method("m", b.Void()).Body()
			},
			wantStdout: []string{"1 units checked", "No restriction violations"},
		},
		{
			name: "warning",
			build: func(b *asttest.Builder) {
				b.Class("C").Method("m", b.Void()).Native()
			},
			wantStdout: []string{"1 warnings", "No restriction violations"},
			wantLog:    "level=WARN",
		},
		{
			name: "violation",
			build: func(b *asttest.Builder) {
				e := b.Enum("E").BridgedEnum(false)
				e.Field("value", b.Int(), nil)
			},
			wantErr:    compiler.ErrRestrictionViolations,
			wantStdout: []string{"1 units checked"},
			wantLog:    "cannot have a field named 'value'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := asttest.New("p")
			tt.build(b)
			data, err := astjson.Marshal(b.Arena, b.Unit())
			if err != nil {
				t.Fatal(err)
			}

			var stdout, logs bytes.Buffer
			cmd := &Cmd{Input: "-", Stdin: bytes.NewReader(data), Stdout: &stdout}
			err = cmd.Run(slog.New(slog.NewTextHandler(&logs, nil)))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run = %v, want %v", err, tt.wantErr)
			}
			for _, want := range tt.wantStdout {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("stdout %q does not contain %q", stdout.String(), want)
				}
			}
			if !strings.Contains(logs.String(), tt.wantLog) {
				t.Errorf("logs %q do not contain %q", logs.String(), tt.wantLog)
			}
		})
	}
}

func TestCmd_Empty(t *testing.T) {
	cmd := &Cmd{Input: "-", Stdin: strings.NewReader(`{"version": 1, "units": []}`), Stdout: io.Discard}
	if err := cmd.Run(slog.New(slog.NewTextHandler(io.Discard, nil))); !errors.Is(err, compiler.ErrNoUnits) {
		t.Errorf("Run = %v, want ErrNoUnits", err)
	}
}
