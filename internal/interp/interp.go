// Package interp evaluates typed trees directly. Tests use it to show that
// a lowered tree behaves like the tree it was lowered from.
//
// The evaluator follows the source language's semantics for the constructs
// the passes produce and consume: constructor chaining with implicit super
// calls and instance initialization, try-with-resources, lambdas as
// closures, and the runtime helpers the passes call. It is not a complete
// virtual machine: boxed values have no identity and there is no string
// library.
package interp

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-set/v3"

	"github.com/broady/bridgec/ast"
)

// Interpreter runs the code of a set of compilation units.
type Interpreter struct {
	arena       *ast.Arena
	types       map[*ast.TypeDeclaration]*ast.Type
	statics     map[*ast.FieldDescriptor]Value
	initialized *set.Set[*ast.TypeDeclaration]
	builtins    map[*ast.MethodDescriptor]builtin
}

// New returns an interpreter for the types of units, anonymous and nested
// classes included.
func New(arena *ast.Arena, units ...*ast.CompilationUnit) *Interpreter {
	in := &Interpreter{
		arena:       arena,
		types:       make(map[*ast.TypeDeclaration]*ast.Type),
		statics:     make(map[*ast.FieldDescriptor]Value),
		initialized: set.New[*ast.TypeDeclaration](0),
	}
	for _, u := range units {
		ast.Inspect(u, func(n ast.Node) bool {
			if t, ok := n.(*ast.Type); ok {
				in.types[t.Declaration] = t
			}
			return true
		})
	}
	in.builtins = builtins(arena.Known)
	return in
}

// NewInstance creates an instance of ctor's class.
func (in *Interpreter) NewInstance(ctor *ast.MethodDescriptor, args ...Value) (*Object, error) {
	if err := in.ensureInitialized(ctor.Enclosing); err != nil {
		return nil, err
	}
	obj := &Object{Class: ctor.Enclosing}
	if err := in.construct(ctor, obj, args); err != nil {
		return nil, err
	}
	return obj, nil
}

// Call invokes target. Static methods take a nil receiver; instance
// methods dispatch on the receiver's class.
func (in *Interpreter) Call(target *ast.MethodDescriptor, receiver Value, args ...Value) (Value, error) {
	if target.Static {
		if err := in.ensureInitialized(target.Enclosing); err != nil {
			return nil, err
		}
		return in.invoke(target, in.implementation(target, target.Enclosing), nil, args)
	}
	return in.callVirtual(target, receiver, args)
}

// Static returns the value of a static field, initializing its class first.
func (in *Interpreter) Static(f *ast.FieldDescriptor) (Value, error) {
	if err := in.ensureInitialized(f.Enclosing); err != nil {
		return nil, err
	}
	return in.static(f), nil
}

func (in *Interpreter) static(f *ast.FieldDescriptor) Value {
	if v, ok := in.statics[f.DeclarationDescriptor()]; ok {
		return v
	}
	return zero(f.Type)
}

// ensureInitialized runs the static initialization of d once, superclass
// first.
func (in *Interpreter) ensureInitialized(d *ast.TypeDeclaration) error {
	if d == nil || !in.initialized.Insert(d) {
		return nil
	}
	if d.Super != nil {
		if err := in.ensureInitialized(d.Super.Decl); err != nil {
			return err
		}
	}
	t := in.types[d]
	if t == nil {
		return nil
	}
	f := &frame{}
	for _, m := range t.Members {
		switch m := m.(type) {
		case *ast.Field:
			if !m.Descriptor.Static || m.Initializer == nil {
				continue
			}
			v, err := in.eval(f, m.Initializer)
			if err != nil {
				return err
			}
			in.statics[m.Descriptor.DeclarationDescriptor()] = coerceTo(v, m.Descriptor.Type)
		case *ast.InitializerBlock:
			if !m.Static {
				continue
			}
			if _, err := in.execBlock(f, m.Body); err != nil {
				return err
			}
		}
	}
	return nil
}

// implementation returns the method implementing target for an object of
// class d, searching d and its superclasses, then the default methods of
// their interfaces.
func (in *Interpreter) implementation(target *ast.MethodDescriptor, d *ast.TypeDeclaration) *ast.Method {
	var ifaces []*ast.TypeDeclaration
	for c := d; c != nil; c = superOf(c) {
		if m := in.declaredImplementation(target, c); m != nil {
			return m
		}
		for _, i := range c.Interfaces {
			ifaces = append(ifaces, i.Decl)
		}
	}
	seen := set.New[*ast.TypeDeclaration](0)
	for len(ifaces) > 0 {
		i := ifaces[0]
		ifaces = ifaces[1:]
		if !seen.Insert(i) {
			continue
		}
		if m := in.declaredImplementation(target, i); m != nil {
			return m
		}
		for _, s := range i.Interfaces {
			ifaces = append(ifaces, s.Decl)
		}
	}
	return nil
}

func (in *Interpreter) declaredImplementation(target *ast.MethodDescriptor, d *ast.TypeDeclaration) *ast.Method {
	t := in.types[d]
	if t == nil {
		return nil
	}
	for _, m := range t.Methods() {
		if m.Body != nil && implements(m.Descriptor, target) {
			return m
		}
	}
	return nil
}

func superOf(d *ast.TypeDeclaration) *ast.TypeDeclaration {
	if d.Super == nil {
		return nil
	}
	return d.Super.Decl
}

func implements(m, target *ast.MethodDescriptor) bool {
	if m == target || m.DeclarationDescriptor() == target.DeclarationDescriptor() {
		return true
	}
	if m.Static || m.Constructor || target.Static || target.Constructor {
		return false
	}
	if m.Visibility == ast.Private || target.Visibility == ast.Private {
		return false
	}
	return m.IsOverride(target) || m.Signature() == target.Signature()
}

func (in *Interpreter) callVirtual(target *ast.MethodDescriptor, receiver Value, args []Value) (Value, error) {
	switch r := receiver.(type) {
	case nil:
		return nil, fmt.Errorf("interp: %s called on null", target.ReadableName())
	case *Closure:
		if d := ast.DeclarationOf(r.Fn.Type); d != nil {
			if m := in.implementation(target, d); m != nil {
				return in.invoke(target, m, r, args)
			}
		}
		return in.callClosure(r, args)
	case *Object:
		if m := in.implementation(target, r.Class); m != nil {
			return in.invoke(target, m, r, args)
		}
	}
	return in.invoke(target, nil, receiver, args)
}

// invoke runs m, or the builtin for target when m is nil.
func (in *Interpreter) invoke(target *ast.MethodDescriptor, m *ast.Method, this Value, args []Value) (Value, error) {
	if m == nil {
		b, ok := in.builtins[target.DeclarationDescriptor()]
		if !ok {
			return nil, fmt.Errorf("interp: no implementation of %s", target.ReadableName())
		}
		return b(in, this, args)
	}
	f := memberFrame(m.Descriptor.Enclosing, this)
	in.bind(f, m.Descriptor, m.Params, args)
	c, err := in.execBlock(f, m.Body)
	if err != nil {
		return nil, err
	}
	return c.value, nil
}

// memberFrame returns a frame for running a member of d on this.
func memberFrame(d *ast.TypeDeclaration, this Value) *frame {
	f := &frame{this: this}
	if obj, ok := this.(*Object); ok && obj.Class == d {
		f.parent = obj.scope
	}
	return f
}

func (in *Interpreter) callClosure(c *Closure, args []Value) (Value, error) {
	f := &frame{this: c.frame.this, parent: c.frame}
	in.bind(f, c.Fn.Descriptor, c.Fn.Params, args)
	comp, err := in.execBlock(f, c.Fn.Body)
	if err != nil {
		return nil, err
	}
	return comp.value, nil
}

// bind declares params in f, packing trailing varargs arguments.
func (in *Interpreter) bind(f *frame, md *ast.MethodDescriptor, params []*ast.Variable, args []Value) {
	n := len(params)
	if md.Varargs && n > 0 && !(len(args) == n && isArray(args[n-1])) {
		t := params[n-1].Type.(*ast.ArrayTypeDescriptor)
		rest := &Array{Type: t}
		for _, a := range args[n-1:] {
			rest.Elems = append(rest.Elems, coerceTo(a, t.Component))
		}
		args = append(args[:n-1:n-1], rest)
	}
	for i, p := range params {
		var v Value
		if i < len(args) {
			v = args[i]
		}
		f.declare(p, coerceTo(v, p.Type))
	}
}

func isArray(v Value) bool {
	_, ok := v.(*Array)
	return ok || v == nil
}

// construct runs ctor on obj: the delegation or super call, then the
// instance initialization of the class unless the constructor delegates to
// this(...), then the rest of the body.
func (in *Interpreter) construct(ctor *ast.MethodDescriptor, obj *Object, args []Value) error {
	d := ctor.Enclosing
	t := in.types[d]
	var m *ast.Method
	if t != nil {
		m = t.FindMethod(ctor)
	}
	if m == nil {
		if b, ok := in.builtins[ctor.DeclarationDescriptor()]; ok {
			_, err := b(in, obj, args)
			return err
		}
		// An implicit constructor.
		if err := in.implicitSuper(d, obj); err != nil {
			return err
		}
		return in.initInstance(d, obj)
	}

	f := memberFrame(d, obj)
	in.bind(f, ctor, m.Params, args)
	stmts := m.Body.Statements
	call := ast.ConstructorInvocation(m)
	if call != nil {
		if _, err := in.eval(f, call); err != nil {
			return err
		}
		stmts = stmts[1:]
	} else if err := in.implicitSuper(d, obj); err != nil {
		return err
	}
	if ast.ThisCall(m) == nil {
		if err := in.initInstance(d, obj); err != nil {
			return err
		}
	}
	_, err := in.execStatements(f, stmts)
	return err
}

func (in *Interpreter) implicitSuper(d *ast.TypeDeclaration, obj *Object) error {
	s := superOf(d)
	if s == nil {
		return nil
	}
	def := s.DefaultConstructor()
	if def == nil {
		return nil
	}
	return in.construct(def, obj, nil)
}

// initInstance runs the instance field initializers and initializer blocks
// of d in declaration order.
func (in *Interpreter) initInstance(d *ast.TypeDeclaration, obj *Object) error {
	t := in.types[d]
	if t == nil {
		return nil
	}
	f := memberFrame(d, obj)
	for _, m := range t.Members {
		switch m := m.(type) {
		case *ast.Field:
			if m.Descriptor.Static || m.Initializer == nil {
				continue
			}
			v, err := in.eval(f, m.Initializer)
			if err != nil {
				return err
			}
			obj.set(m.Descriptor, coerceTo(v, m.Descriptor.Type))
		case *ast.InitializerBlock:
			if m.Static {
				continue
			}
			if _, err := in.execBlock(f, m.Body); err != nil {
				return err
			}
		}
	}
	return nil
}

// throw returns a Thrown error for a new exception of class d.
func (in *Interpreter) throw(d *ast.TypeDeclaration, message string) error {
	return &Thrown{Exception: &Object{Class: d, message: message}}
}

// AsThrown returns the exception carried by err, if any.
func AsThrown(err error) (*Object, bool) {
	var t *Thrown
	if errors.As(err, &t) {
		return t.Exception, true
	}
	return nil, false
}
