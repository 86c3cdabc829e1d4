package interp

import (
	"fmt"

	"github.com/broady/bridgec/ast"
)

// frame holds the variables of one activation. Lambda frames chain to the
// frame they were created in.
type frame struct {
	this   Value
	vars   map[*ast.Variable]*Value
	parent *frame
}

func (f *frame) declare(v *ast.Variable, val Value) {
	if f.vars == nil {
		f.vars = make(map[*ast.Variable]*Value)
	}
	f.vars[v] = &val
}

func (f *frame) lookup(v *ast.Variable) (*Value, error) {
	for ; f != nil; f = f.parent {
		if slot, ok := f.vars[v]; ok {
			return slot, nil
		}
	}
	return nil, fmt.Errorf("interp: variable %s is not in scope", v.Name)
}

// completion is the outcome of a statement that did not throw.
type completion struct {
	returned bool
	value    Value
}

func (in *Interpreter) execBlock(f *frame, b *ast.Block) (completion, error) {
	if b == nil {
		return completion{}, nil
	}
	return in.execStatements(f, b.Statements)
}

func (in *Interpreter) execStatements(f *frame, stmts []ast.Statement) (completion, error) {
	for _, s := range stmts {
		c, err := in.exec(f, s)
		if err != nil || c.returned {
			return c, err
		}
	}
	return completion{}, nil
}

func (in *Interpreter) exec(f *frame, s ast.Statement) (completion, error) {
	switch s := s.(type) {
	case *ast.Block:
		return in.execBlock(f, s)
	case *ast.ExpressionStatement:
		_, err := in.eval(f, s.Expr)
		return completion{}, err
	case *ast.ReturnStatement:
		if s.Expr == nil {
			return completion{returned: true}, nil
		}
		v, err := in.eval(f, s.Expr)
		return completion{returned: true, value: v}, err
	case *ast.IfStatement:
		cond, err := in.eval(f, s.Cond)
		if err != nil {
			return completion{}, err
		}
		if cond.(bool) {
			return in.exec(f, s.Then)
		}
		if s.Else != nil {
			return in.exec(f, s.Else)
		}
		return completion{}, nil
	case *ast.WhileStatement:
		for {
			cond, err := in.eval(f, s.Cond)
			if err != nil || !cond.(bool) {
				return completion{}, err
			}
			c, err := in.exec(f, s.Body)
			if err != nil || c.returned {
				return c, err
			}
		}
	case *ast.ThrowStatement:
		v, err := in.eval(f, s.Expr)
		if err != nil {
			return completion{}, err
		}
		exc, ok := v.(*Object)
		if !ok {
			return completion{}, fmt.Errorf("interp: throw of %T", v)
		}
		return completion{}, &Thrown{Exception: exc}
	case *ast.TryStatement:
		return in.execTry(f, s)
	}
	return completion{}, fmt.Errorf("interp: unexpected statement %T", s)
}

func (in *Interpreter) execTry(f *frame, s *ast.TryStatement) (completion, error) {
	var c completion
	var err error
	if len(s.Resources) > 0 {
		c, err = in.execWithResources(f, s.Resources, s.Body)
	} else {
		c, err = in.execBlock(f, s.Body)
	}

	if exc, ok := AsThrown(err); ok {
		for _, cc := range s.Catches {
			if !ast.IsSubtype(exc.Class.Descriptor(), cc.Exception.Type) {
				continue
			}
			f.declare(cc.Exception, exc)
			c, err = in.execBlock(f, cc.Body)
			break
		}
	}

	if s.Finally != nil {
		fc, ferr := in.execBlock(f, s.Finally)
		if ferr != nil || fc.returned {
			return fc, ferr
		}
	}
	return c, err
}

// execWithResources opens resources in order, runs body and closes the
// opened resources in reverse order. An exception thrown by close is
// suppressed by an exception already propagating.
func (in *Interpreter) execWithResources(f *frame, resources []ast.Expression, body *ast.Block) (completion, error) {
	var opened []Value
	var c completion
	var err error
	for _, r := range resources {
		var v Value
		v, err = in.eval(f, r)
		if err != nil {
			break
		}
		if d, ok := r.(*ast.VariableDeclarationExpression); ok {
			slot, lerr := f.lookup(d.Fragments[0].Variable)
			if lerr != nil {
				return completion{}, lerr
			}
			v = *slot
		}
		opened = append(opened, v)
	}
	if err == nil {
		c, err = in.execBlock(f, body)
	}

	closeMethod := in.arena.Known.AutoCloseable.Method("close", 0)
	for i := len(opened) - 1; i >= 0; i-- {
		if opened[i] == nil {
			continue
		}
		_, cerr := in.callVirtual(closeMethod, opened[i], nil)
		if cerr == nil {
			continue
		}
		primary, ok := AsThrown(err)
		closeExc, closeOK := AsThrown(cerr)
		switch {
		case ok && closeOK:
			primary.suppressed = append(primary.suppressed, closeExc)
		case err == nil:
			c, err = completion{}, cerr
		}
	}
	return c, err
}
