package passes

import "github.com/broady/bridgec/ast"

// DevirtualizeOverlayMethods moves the instance overlay methods of native
// types and bridge-function interfaces into a static companion class,
// Owner.$Overlay, where the receiver is an explicit first parameter named
// $thisArg. Every call to such a method becomes a static call to its
// companion.
//
// Values of these types are plain external objects or functions with no
// place to hang the method, so the call must be resolved statically.
type DevirtualizeOverlayMethods struct{}

func (DevirtualizeOverlayMethods) Name() string       { return "DevirtualizeOverlayMethods" }
func (DevirtualizeOverlayMethods) Requires() []string { return []string{"NormalizeLambdas"} }

func (DevirtualizeOverlayMethods) Apply(env *Env, u *ast.CompilationUnit) {
	var holders []*ast.Type
	for _, t := range typesOf(u) {
		d := t.Declaration
		if !d.IsNative() && !d.IsBridgeFunction() {
			continue
		}
		var holder *ast.Type
		for _, m := range t.Methods() {
			if !isDevirtualized(m.Descriptor) {
				continue
			}
			if m.Body == nil {
				ast.Fatalf(m, "overlay method %s has no body", m.ReadableName())
			}
			companion := env.companion(m.Descriptor)
			if holder == nil {
				holder = &ast.Type{Positioned: t.Positioned, Declaration: companion.Enclosing}
				holders = append(holders, holder)
			}

			thisArg := parameter("$thisArg", d.Descriptor())
			thisArg.Final = true
			replaceThis(m.Body, func(n *ast.ThisReference) ast.Expression {
				if ast.DeclarationOf(n.Type) != d {
					ast.Fatalf(n, "qualified this of %s in overlay method", n.Type.ReadableName())
				}
				return thisArg.Reference()
			})
			holder.AddMember(&ast.Method{
				Positioned: m.Positioned,
				Descriptor: companion,
				Params:     prepend(m.Params, thisArg),
				Body:       m.Body,
			})
			t.RemoveMember(m)
		}
	}
	for _, h := range holders {
		u.AddType(h)
	}

	ast.Apply(u, nil, func(c *ast.Cursor) bool {
		call, ok := c.Node().(*ast.MethodCall)
		if !ok || !isDevirtualized(call.Target.DeclarationDescriptor()) {
			return true
		}
		switch q := call.Qualifier.(type) {
		case nil:
			ast.Fatalf(call, "unqualified call to overlay method %s", call.Target.ReadableName())
		case *ast.SuperReference:
			ast.Fatalf(q, "super call to overlay method %s", call.Target.ReadableName())
		}
		companion := env.companion(call.Target)
		static := &ast.MethodCall{
			Positioned: call.Positioned,
			Target:     companion,
			Args:       prepend(call.Args, call.Qualifier),
		}
		if ret := call.Target.Return; ast.IsPrimitive(ret, ast.PrimitiveVoid) || ast.SameType(ret, companion.Return) {
			c.Replace(static)
		} else {
			c.Replace(&ast.CastExpression{Positioned: call.Positioned, Type: ret, Expr: static})
		}
		return true
	})
}

// isDevirtualized reports whether calls to md are rewritten to its static
// companion.
func isDevirtualized(md *ast.MethodDescriptor) bool {
	if !md.IsOverlay() || md.Static || md.Constructor || md.Enclosing == nil {
		return false
	}
	return md.Enclosing.IsNative() || md.Enclosing.IsBridgeFunction()
}

// companion returns the static method standing in for the overlay method
// md, declaring it and its holder class on first use.
func (e *Env) companion(md *ast.MethodDescriptor) *ast.MethodDescriptor {
	md = md.DeclarationDescriptor()
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.companions[md]; ok {
		return c
	}
	if e.companions == nil {
		e.companions = make(map[*ast.MethodDescriptor]*ast.MethodDescriptor)
	}

	owner := md.Enclosing
	holder := e.Arena.Lookup(owner.QualifiedName() + ".$Overlay")
	if holder == nil {
		holder = e.Arena.MustDeclare(&ast.TypeDeclaration{
			Package:    owner.Package,
			Name:       "$Overlay",
			Enclosing:  owner,
			Kind:       ast.Class,
			Visibility: ast.Public,
			Final:      true,
			Super:      e.Arena.Known.Object.Descriptor(),
		})
	}
	c := holder.AddMethod(&ast.MethodDescriptor{
		MemberInfo: ast.MemberInfo{Name: md.Name, Visibility: md.Visibility, Static: true, Synthetic: true},
		Parameters: prepend(md.Parameters, ast.ParameterDescriptor{Type: owner.Descriptor()}),
		Return:     md.Return,
		Varargs:    md.Varargs,
	})
	e.companions[md] = c
	return c
}
