package passes

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"

	"github.com/broady/bridgec/ast"
)

// NormalizeConstructors makes object construction explicit:
//
//   - instance field initializers and instance initializer blocks move, in
//     declaration order, into a private synthetic $init method;
//   - every class gets at least one constructor member;
//   - constructors that do not delegate to this(...) start with an explicit
//     super(...) call followed by this.$init();
//   - anonymous classes get a constructor forwarding the creation arguments
//     to the superclass constructor.
//
// Each construction therefore runs $init exactly once, right after the
// superclass is initialized. Constructor calls outside the first statement
// of a constructor and this(...) delegation cycles are internal errors.
type NormalizeConstructors struct{}

func (NormalizeConstructors) Name() string { return "NormalizeConstructors" }

func (NormalizeConstructors) Requires() []string {
	return []string{"NormalizeLambdas", "NormalizeEnumClasses"}
}

func (NormalizeConstructors) Apply(env *Env, u *ast.CompilationUnit) {
	checkConstructorInvocations(u)
	retargetAnonymousCreations(env, u)

	var classes []*ast.Type
	for _, t := range typesOf(u) {
		d := t.Declaration
		if d.IsInterface() || d.IsBridgedEnum() || d.IsNative() {
			continue
		}
		classes = append(classes, t)
		if len(t.Constructors()) == 0 {
			if ctor := env.defaultConstructor(d); ctor != nil && t.FindMethod(ctor) == nil {
				t.AddMember(&ast.Method{Positioned: t.Positioned, Descriptor: ctor, Body: ast.NewBlock()})
			}
		}
	}
	for _, t := range classes {
		init := extractInitializers(env.Arena, t)
		checkDelegationCycles(t)
		for _, m := range t.Constructors() {
			if m.Body == nil {
				m.Body = ast.NewBlock()
			}
			if ast.ThisCall(m) != nil {
				continue
			}
			at := 0
			if ast.SuperCall(m) != nil {
				at = 1
			} else if sup := t.Declaration.Super; sup != nil {
				def := sup.Decl.DefaultConstructor()
				if def == nil && len(sup.Decl.Constructors()) == 0 {
					def = env.defaultConstructor(sup.Decl)
				}
				if def == nil {
					ast.Fatalf(m, "%s has no default constructor for the implicit super call of %s",
						sup.ReadableName(), m.ReadableName())
				}
				m.Body.Statements = prepend(m.Body.Statements, ast.Statement(superCall(sup, def)))
				at = 1
			}
			if init != nil {
				call := ast.Stmt(&ast.MethodCall{Qualifier: thisOf(t.Declaration), Target: init})
				m.Body.Statements = insertAt(m.Body.Statements, at, ast.Statement(call))
			}
		}
	}
}

// defaultConstructor returns the zero-argument constructor of d, declaring
// the implicit one when d declares no constructor at all. Declarations are
// shared between units, so the check and the insertion are serialized.
func (e *Env) defaultConstructor(d *ast.TypeDeclaration) *ast.MethodDescriptor {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ctor := d.DefaultConstructor(); ctor != nil || len(d.Constructors()) > 0 {
		return ctor
	}
	visibility := d.Visibility
	if d.IsEnum() {
		visibility = ast.Private
	}
	return d.AddMethod(&ast.MethodDescriptor{
		MemberInfo:  ast.MemberInfo{Name: "<init>", Visibility: visibility},
		Return:      e.Arena.Primitive(ast.PrimitiveVoid),
		Constructor: true,
	})
}

// checkConstructorInvocations fails on this(...) and super(...) calls that
// are not the first statement of a constructor.
func checkConstructorInvocations(u *ast.CompilationUnit) {
	leading := set.New[*ast.MethodCall](0)
	for _, t := range typesOf(u) {
		for _, m := range t.Constructors() {
			if call := ast.ConstructorInvocation(m); call != nil {
				leading.Insert(call)
			}
		}
	}
	ast.Inspect(u, func(n ast.Node) bool {
		if call, ok := n.(*ast.MethodCall); ok && ast.IsConstructorInvocation(call) && !leading.Contains(call) {
			ast.Fatalf(call, "call to %s is not the first statement of a constructor", call.Target.ReadableName())
		}
		return true
	})
}

// retargetAnonymousCreations gives each anonymous class created in u a
// constructor with the parameters of the superclass constructor it was
// created with, and makes the creation call it.
func retargetAnonymousCreations(env *Env, u *ast.CompilationUnit) {
	ast.Inspect(u, func(n ast.Node) bool {
		creation, ok := n.(*ast.NewInstance)
		if !ok || creation.Body == nil {
			return true
		}
		d := creation.Body.Declaration
		target := creation.Target
		if target.Enclosing == d {
			return true
		}

		params := make([]*ast.Variable, len(target.Parameters))
		for i, p := range target.Parameters {
			params[i] = parameter(fmt.Sprintf("$p%d", i), p.Type)
		}
		ctor := d.AddMethod(&ast.MethodDescriptor{
			MemberInfo:  ast.MemberInfo{Name: "<init>", Visibility: ast.PackagePrivate, Synthetic: true},
			Parameters:  parameterDescriptors(params),
			Return:      env.Arena.Primitive(ast.PrimitiveVoid),
			Constructor: true,
			Varargs:     target.Varargs,
		})
		super := d.Super
		if super == nil {
			ast.Fatalf(creation.Body, "anonymous class %s has no superclass", d.ReadableName())
		}
		body := ast.NewBlock(superCall(super, target, references(params)...))
		creation.Body.AddMember(&ast.Method{Positioned: creation.Body.Positioned, Descriptor: ctor, Params: params, Body: body})
		creation.Target = ctor
		return true
	})
}

// extractInitializers moves the instance initialization of t into a new
// $init method and returns its descriptor, or nil when t has none.
func extractInitializers(arena *ast.Arena, t *ast.Type) *ast.MethodDescriptor {
	d := t.Declaration
	var stmts []ast.Statement
	var moved []ast.Member
	for _, m := range t.Members {
		switch m := m.(type) {
		case *ast.Field:
			if m.Descriptor.Static || m.Initializer == nil {
				continue
			}
			lhs := fieldOf(thisOf(d), m.Descriptor)
			stmts = append(stmts, ast.Stmt(assign(lhs, m.Initializer)))
			m.Initializer = nil
		case *ast.InitializerBlock:
			if m.Static {
				continue
			}
			stmts = append(stmts, m.Body)
			moved = append(moved, m)
		}
	}
	for _, m := range moved {
		t.RemoveMember(m)
	}
	if len(stmts) == 0 {
		return nil
	}
	init := d.AddMethod(&ast.MethodDescriptor{
		MemberInfo: ast.MemberInfo{Name: "$init", Visibility: ast.Private, Synthetic: true},
		Return:     arena.Primitive(ast.PrimitiveVoid),
	})
	t.AddMember(&ast.Method{Positioned: t.Positioned, Descriptor: init, Body: ast.NewBlock(stmts...)})
	return init
}

// checkDelegationCycles fails if following this(...) calls from any
// constructor of t comes back to a constructor already visited.
func checkDelegationCycles(t *ast.Type) {
	for _, start := range t.Constructors() {
		visited := set.New[*ast.Method](0)
		for m := start; m != nil; {
			if !visited.Insert(m) {
				ast.Fatalf(start, "constructor delegation cycle through %s", m.ReadableName())
			}
			call := ast.ThisCall(m)
			if call == nil {
				break
			}
			next := t.FindMethod(call.Target.DeclarationDescriptor())
			if next == nil {
				ast.Fatalf(call, "delegation to %s, which has no body in %s", call.Target.ReadableName(), t.ReadableName())
			}
			m = next
		}
	}
}
