// Package input loads the compilation units given on the command line.
package input

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/broady/bridgec/ast"
	"github.com/broady/bridgec/ast/astjson"
)

// Load reads the units stored at path, or on stdin when path is "-".
// The file holds either one JSON document or a txtar archive of them.
func Load(path string, stdin io.Reader) (*ast.Arena, []*ast.CompilationUnit, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read input: %w", err)
	}

	arena, units, err := Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return arena, units, nil
}

// Parse decodes data as a JSON document if it starts with an object, and
// as a txtar archive otherwise.
func Parse(data []byte) (*ast.Arena, []*ast.CompilationUnit, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return astjson.Decode(bytes.NewReader(data))
	}
	return astjson.DecodeArchive(data)
}
