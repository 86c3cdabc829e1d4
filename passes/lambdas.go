package passes

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"

	"github.com/broady/bridgec/ast"
)

// NormalizeLambdas replaces each lambda with the creation of a synthetic
// adaptor class implementing the lambda's functional interface. Captured
// variables, and the enclosing instance when the body refers to it, become
// final fields initialized by the adaptor's constructor.
//
// Lambdas typed as bridge-function interfaces are already plain functions
// on the external side and are left alone.
type NormalizeLambdas struct{}

func (NormalizeLambdas) Name() string       { return "NormalizeLambdas" }
func (NormalizeLambdas) Requires() []string { return nil }

func (NormalizeLambdas) Apply(env *Env, u *ast.CompilationUnit) {
	var adaptors []*ast.Type
	ast.Apply(u, nil, func(c *ast.Cursor) bool {
		fn, ok := c.Node().(*ast.FunctionExpression)
		if !ok || isBridgeFunctionType(fn.Type) {
			return true
		}
		enclosing := c.EnclosingType()
		if enclosing == nil {
			ast.Fatalf(fn, "lambda outside of a type")
		}
		adaptor, creation := lambdaAdaptor(env.Arena, enclosing.Declaration, fn)
		adaptors = append(adaptors, adaptor)
		c.Replace(creation)
		return true
	})
	for _, t := range adaptors {
		u.AddType(t)
	}
}

func isBridgeFunctionType(t ast.TypeDescriptor) bool {
	for _, d := range functionalInterfaces(t) {
		if d.Decl.IsBridgeFunction() {
			return true
		}
	}
	return false
}

// functionalInterfaces returns the interfaces a lambda of type t
// implements.
func functionalInterfaces(t ast.TypeDescriptor) []*ast.DeclaredTypeDescriptor {
	switch t := t.(type) {
	case *ast.DeclaredTypeDescriptor:
		return []*ast.DeclaredTypeDescriptor{t}
	case *ast.IntersectionTypeDescriptor:
		var ifaces []*ast.DeclaredTypeDescriptor
		for _, c := range t.Types {
			if d, ok := c.(*ast.DeclaredTypeDescriptor); ok && d.Decl.IsInterface() {
				ifaces = append(ifaces, d)
			}
		}
		return ifaces
	}
	return nil
}

// captures returns the variables fn reads from enclosing scopes, in order of
// first reference, and whether fn refers to the enclosing instance. Reads
// from class bodies nested in fn count as captures of fn.
func captures(fn *ast.FunctionExpression) (vars []*ast.Variable, this bool) {
	declared := set.New[*ast.Variable](0)
	ast.Inspect(fn, func(n ast.Node) bool {
		if v, ok := n.(*ast.Variable); ok {
			declared.Insert(v)
		}
		return true
	})

	seen := set.New[*ast.Variable](0)
	capture := func(ref *ast.VariableReference) {
		if !declared.Contains(ref.Target) && seen.Insert(ref.Target) {
			vars = append(vars, ref.Target)
		}
	}
	ast.Apply(fn.Body, func(c *ast.Cursor) bool {
		switch n := c.Node().(type) {
		case *ast.Type:
			ast.Inspect(n, func(n ast.Node) bool {
				if ref, ok := n.(*ast.VariableReference); ok {
					capture(ref)
				}
				return true
			})
			return false
		case *ast.SuperReference:
			ast.Fatalf(n, "super reference in a lambda body")
		case *ast.ThisReference:
			this = true
		case *ast.VariableReference:
			capture(n)
		}
		return true
	}, nil)
	return vars, this
}

// lambdaAdaptor declares the adaptor class for fn, nested in enclosing, and
// returns it with the expression creating it.
func lambdaAdaptor(arena *ast.Arena, enclosing *ast.TypeDeclaration, fn *ast.FunctionExpression) (*ast.Type, *ast.NewInstance) {
	captured, usesThis := captures(fn)

	d := arena.MustDeclare(&ast.TypeDeclaration{
		Package:    enclosing.Package,
		Name:       adaptorName(arena, enclosing),
		Enclosing:  enclosing,
		Kind:       ast.Class,
		Visibility: ast.Private,
		Final:      true,
		Super:      arena.Known.Object.Descriptor(),
		Interfaces: functionalInterfaces(fn.Type),
	})
	t := &ast.Type{Positioned: fn.Positioned, Declaration: d}

	var params []*ast.Variable
	var args []ast.Expression
	body := []ast.Statement{superCall(d.Super, arena.Known.Object.DefaultConstructor())}
	capture := func(name string, typ ast.TypeDescriptor, arg ast.Expression) *ast.FieldDescriptor {
		f := d.AddField(&ast.FieldDescriptor{
			MemberInfo: ast.MemberInfo{Name: name, Visibility: ast.Private, Final: true, Synthetic: true},
			Type:       typ,
		})
		t.AddMember(&ast.Field{Positioned: fn.Positioned, Descriptor: f})
		p := parameter(name, typ)
		p.Final = true
		params = append(params, p)
		body = append(body, ast.Stmt(assign(fieldOf(thisOf(d), f), p.Reference())))
		args = append(args, arg)
		return f
	}

	var outer *ast.FieldDescriptor
	if usesThis {
		outer = capture("$this", enclosing.Descriptor(), thisOf(enclosing))
	}
	fields := make(map[*ast.Variable]*ast.FieldDescriptor, len(captured))
	for _, v := range captured {
		fields[v] = capture("$"+v.Name, v.Type, v.Reference())
	}

	ctor := d.AddMethod(&ast.MethodDescriptor{
		MemberInfo:  ast.MemberInfo{Name: "<init>", Synthetic: true},
		Parameters:  parameterDescriptors(params),
		Return:      arena.Primitive(ast.PrimitiveVoid),
		Constructor: true,
	})
	t.AddMember(&ast.Method{Positioned: fn.Positioned, Descriptor: ctor, Params: params, Body: ast.NewBlock(body...)})

	// Class bodies in fn read captured variables through final locals of
	// the implementing method, initialized from the adaptor's fields.
	var copies []ast.Statement
	locals := make(map[*ast.Variable]*ast.Variable)
	ast.Apply(fn.Body, func(c *ast.Cursor) bool {
		switch n := c.Node().(type) {
		case *ast.Type:
			ast.Apply(n, func(c *ast.Cursor) bool {
				ref, ok := c.Node().(*ast.VariableReference)
				if !ok {
					return true
				}
				f, ok := fields[ref.Target]
				if !ok {
					return true
				}
				local, ok := locals[ref.Target]
				if !ok {
					local = &ast.Variable{Positioned: ref.Target.Positioned, Name: ref.Target.Name, Type: ref.Target.Type, Final: true}
					locals[ref.Target] = local
					copies = append(copies, declare(local, fieldOf(thisOf(d), f)))
				}
				c.Replace(local.Reference())
				return false
			}, nil)
			return false
		case *ast.ThisReference:
			if n.Type.Kind() != ast.KindDeclared || ast.DeclarationOf(n.Type) != enclosing {
				ast.Fatalf(n, "qualified this of %s in a lambda body", n.Type.ReadableName())
			}
			c.Replace(fieldOf(thisOf(d), outer))
			return false
		case *ast.VariableReference:
			if f, ok := fields[n.Target]; ok {
				c.Replace(fieldOf(thisOf(d), f))
				return false
			}
		}
		return true
	}, nil)

	fn.Body.Statements = prepend(fn.Body.Statements, copies...)

	impl := d.AddMethod(&ast.MethodDescriptor{
		MemberInfo: ast.MemberInfo{Name: fn.Descriptor.Name, Visibility: ast.Public},
		Parameters: parameterDescriptors(fn.Params),
		Return:     fn.Descriptor.Return,
		Varargs:    fn.Descriptor.Varargs,
		Overrides:  []*ast.MethodDescriptor{fn.Descriptor},
	})
	t.AddMember(&ast.Method{Positioned: fn.Positioned, Descriptor: impl, Params: fn.Params, Body: fn.Body})

	return t, &ast.NewInstance{Positioned: fn.Positioned, Target: ctor, Args: args}
}

// adaptorName returns the first $Lambda$n name not yet declared in
// enclosing.
func adaptorName(arena *ast.Arena, enclosing *ast.TypeDeclaration) string {
	for n := 1; ; n++ {
		name := fmt.Sprintf("$Lambda$%d", n)
		if arena.Lookup(enclosing.QualifiedName()+"."+name) == nil {
			return name
		}
	}
}
