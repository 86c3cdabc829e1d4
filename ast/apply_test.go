package ast_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/broady/bridgec/ast"
	"github.com/broady/bridgec/internal/asttest"
)

func TestApply_ReplaceInPreVisitsReplacement(t *testing.T) {
	b := asttest.New("p")
	x := b.Local("x", b.Int())
	y := b.Local("y", b.Int())
	stmt := ast.Stmt(b.Assign(b.Ref(x), b.IntLit(1)))

	var visited []string
	ast.Apply(stmt, func(c *ast.Cursor) bool {
		if lit, ok := c.Node().(*ast.NumberLiteral); ok && lit.Value == 1 {
			c.Replace(b.Binary(ast.OpPlus, b.Ref(y), b.IntLit(2)))
		}
		visited = append(visited, ast.Sprint(c.Node()))
		return true
	}, nil)

	if got, want := ast.Sprint(stmt), "x = (y + 2);"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	// The children of the replacement are visited.
	if !contains(visited, "y") || !contains(visited, "2") {
		t.Errorf("replacement children not visited: %v", visited)
	}
}

func TestApply_PostOrderAndParent(t *testing.T) {
	b := asttest.New("p")
	x := b.Local("x", b.Int())
	stmt := ast.Stmt(b.Binary(ast.OpPlus, b.Ref(x), b.IntLit(3)))

	var order []string
	ast.Apply(stmt, nil, func(c *ast.Cursor) bool {
		switch n := c.Node().(type) {
		case *ast.VariableReference:
			if _, ok := c.Parent().(*ast.BinaryExpression); !ok || c.Name() != "Left" {
				t.Errorf("parent of x = %T.%s", c.Parent(), c.Name())
			}
			order = append(order, n.Target.Name)
		case *ast.NumberLiteral:
			order = append(order, "3")
		case *ast.BinaryExpression:
			order = append(order, "+")
		}
		return true
	})
	if got := strings.Join(order, " "); got != "x 3 +" {
		t.Errorf("post order = %q, want %q", got, "x 3 +")
	}
}

func TestApply_PostFalseStops(t *testing.T) {
	b := asttest.New("p")
	block := ast.NewBlock(
		ast.Stmt(b.IntLit(1)),
		ast.Stmt(b.IntLit(2)),
	)
	var seen int
	ast.Apply(block, nil, func(c *ast.Cursor) bool {
		if _, ok := c.Node().(*ast.NumberLiteral); ok {
			seen++
			return false
		}
		return true
	})
	if seen != 1 {
		t.Errorf("traversal continued after post returned false: saw %d literals", seen)
	}
}

func TestApply_MismatchedReplacementIsFatal(t *testing.T) {
	b := asttest.New("p")
	stmt := ast.Stmt(b.IntLit(1))

	defer func() {
		r := recover()
		var ie *ast.InternalError
		err, _ := r.(error)
		if !errors.As(err, &ie) {
			t.Fatalf("recovered %v, want *ast.InternalError", r)
		}
		if !strings.Contains(ie.Message, "cannot be stored") {
			t.Errorf("unexpected message %q", ie.Message)
		}
	}()
	ast.Apply(stmt, func(c *ast.Cursor) bool {
		if _, ok := c.Node().(*ast.NumberLiteral); ok {
			c.Replace(ast.NewBlock())
		}
		return true
	}, nil)
}

func TestCursor_Enclosing(t *testing.T) {
	b := asttest.New("p")
	c := b.Class("C")
	i := b.Param("i", b.Int())
	m := c.Method("m", b.Long(), i).Body(b.Return(b.Ref(i)))

	var ret ast.TypeDescriptor
	var member ast.Member
	var typ *ast.Type
	ast.Apply(b.Unit(), func(cur *ast.Cursor) bool {
		if _, ok := cur.Node().(*ast.ReturnStatement); ok {
			ret = cur.ReturnType()
			member = cur.EnclosingMember()
			typ = cur.EnclosingType()
		}
		return true
	}, nil)
	if !ast.IsPrimitive(ret, ast.PrimitiveLong) {
		t.Errorf("ReturnType() = %v, want long", ret)
	}
	if member != m.Method {
		t.Errorf("EnclosingMember() = %v", member)
	}
	if typ != c.Type {
		t.Errorf("EnclosingType() = %v", typ)
	}
}

func TestInspect_SkipsChildren(t *testing.T) {
	b := asttest.New("p")
	c := b.Class("C")
	c.Method("m", b.Void()).Body(ast.Stmt(b.IntLit(7)))

	var literals int
	ast.Inspect(b.Unit(), func(n ast.Node) bool {
		if _, ok := n.(*ast.Method); ok {
			return false
		}
		if _, ok := n.(*ast.NumberLiteral); ok {
			literals++
		}
		return true
	})
	if literals != 0 {
		t.Errorf("Inspect visited %d literals inside a skipped method", literals)
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
