package ast

// ApplyFunc is invoked by Apply for each node. Returning false from a pre
// function skips the node's children and its post call; returning false
// from a post function stops the traversal.
type ApplyFunc func(*Cursor) bool

// Cursor describes the node being visited and the slot that holds it.
type Cursor struct {
	app    *application
	parent Node
	name   string
	index  int
	node   Node
	set    func(Node)
}

// Node returns the current node, after any replacement.
func (c *Cursor) Node() Node { return c.node }

// Parent returns the node holding the current slot, or nil at the root.
func (c *Cursor) Parent() Node { return c.parent }

// Name returns the name of the parent field holding the current node.
func (c *Cursor) Name() string { return c.name }

// Index returns the position within a slice field, or -1.
func (c *Cursor) Index() int { return c.index }

// Replace stores n in the current slot. When called from a pre function the
// children of n are visited instead of those of the original node. Storing
// a node of the wrong category (a statement in an expression slot, say) is
// an internal error.
func (c *Cursor) Replace(n Node) {
	if n == nil {
		Fatalf(c.node, "cannot replace %s with nil", c.name)
	}
	c.set(n)
	c.node = n
}

// EnclosingType returns the innermost Type strictly enclosing the current
// node.
func (c *Cursor) EnclosingType() *Type {
	for i := len(c.app.stack) - 1; i >= 0; i-- {
		if t, ok := c.app.stack[i].(*Type); ok {
			return t
		}
	}
	return nil
}

// EnclosingMember returns the innermost Member strictly enclosing the
// current node.
func (c *Cursor) EnclosingMember() Member {
	for i := len(c.app.stack) - 1; i >= 0; i-- {
		if m, ok := c.app.stack[i].(Member); ok {
			return m
		}
	}
	return nil
}

// EnclosingFunction returns the innermost *Method or *FunctionExpression
// strictly enclosing the current node.
func (c *Cursor) EnclosingFunction() Node {
	for i := len(c.app.stack) - 1; i >= 0; i-- {
		switch n := c.app.stack[i].(type) {
		case *Method, *FunctionExpression:
			return n
		}
	}
	return nil
}

// ReturnType returns the declared return type of the enclosing function.
func (c *Cursor) ReturnType() TypeDescriptor {
	switch f := c.EnclosingFunction().(type) {
	case *Method:
		return f.Descriptor.Return
	case *FunctionExpression:
		return f.Descriptor.Return
	}
	return nil
}

type application struct {
	pre, post ApplyFunc
	cursor    Cursor
	stack     []Node
}

var abort = new(int)

// Apply traverses root depth-first, calling pre before and post after each
// node's children. It returns the possibly replaced root. Every node kind
// of this package is handled; an unknown node is an internal error.
func Apply(root Node, pre, post ApplyFunc) (result Node) {
	result = root
	defer func() {
		if r := recover(); r != nil && r != abort {
			panic(r)
		}
	}()
	a := &application{pre: pre, post: post}
	a.apply(nil, "Root", -1, root, func(n Node) { result = n })
	return result
}

// Inspect calls f for each node in depth-first order. If f returns false the
// node's children are skipped.
func Inspect(root Node, f func(Node) bool) {
	Apply(root, func(c *Cursor) bool { return f(c.Node()) }, nil)
}

func (a *application) apply(parent Node, name string, index int, n Node, set func(Node)) {
	saved := a.cursor
	a.cursor = Cursor{app: a, parent: parent, name: name, index: index, node: n, set: set}
	if a.pre == nil || a.pre(&a.cursor) {
		n = a.cursor.node
		a.stack = append(a.stack, n)
		a.walk(n)
		a.stack = a.stack[:len(a.stack)-1]
		if a.post != nil && !a.post(&a.cursor) {
			panic(abort)
		}
	}
	a.cursor = saved
}

func as[T Node](r Node, parent Node, name string) T {
	t, ok := r.(T)
	if !ok {
		Fatalf(r, "%T cannot be stored in %T.%s", r, parent, name)
	}
	return t
}

func (a *application) expr(parent Node, name string, e Expression, set func(Expression)) {
	if e == nil {
		return
	}
	a.apply(parent, name, -1, e, func(r Node) { set(as[Expression](r, parent, name)) })
}

func (a *application) exprs(parent Node, name string, list []Expression) {
	for i := range list {
		a.apply(parent, name, i, list[i], func(r Node) { list[i] = as[Expression](r, parent, name) })
	}
}

func (a *application) stmt(parent Node, name string, s Statement, set func(Statement)) {
	if s == nil {
		return
	}
	a.apply(parent, name, -1, s, func(r Node) { set(as[Statement](r, parent, name)) })
}

func (a *application) block(parent Node, name string, b *Block, set func(*Block)) {
	if b == nil {
		return
	}
	a.apply(parent, name, -1, b, func(r Node) { set(as[*Block](r, parent, name)) })
}

func (a *application) variable(parent Node, name string, v *Variable, set func(*Variable)) {
	if v == nil {
		return
	}
	a.apply(parent, name, -1, v, func(r Node) { set(as[*Variable](r, parent, name)) })
}

func (a *application) variables(parent Node, name string, list []*Variable) {
	for i := range list {
		a.apply(parent, name, i, list[i], func(r Node) { list[i] = as[*Variable](r, parent, name) })
	}
}

func (a *application) walk(n Node) {
	switch n := n.(type) {
	case *CompilationUnit:
		for i := range n.Types {
			a.apply(n, "Types", i, n.Types[i], func(r Node) { n.Types[i] = as[*Type](r, n, "Types") })
		}
	case *Type:
		for i := range n.Members {
			a.apply(n, "Members", i, n.Members[i], func(r Node) { n.Members[i] = as[Member](r, n, "Members") })
		}
	case *Field:
		a.expr(n, "Initializer", n.Initializer, func(e Expression) { n.Initializer = e })
	case *Method:
		a.variables(n, "Params", n.Params)
		a.block(n, "Body", n.Body, func(b *Block) { n.Body = b })
	case *InitializerBlock:
		a.block(n, "Body", n.Body, func(b *Block) { n.Body = b })
	case *Variable:

	// Statements.
	case *Block:
		for i := range n.Statements {
			a.apply(n, "Statements", i, n.Statements[i], func(r Node) { n.Statements[i] = as[Statement](r, n, "Statements") })
		}
	case *ExpressionStatement:
		a.expr(n, "Expr", n.Expr, func(e Expression) { n.Expr = e })
	case *ReturnStatement:
		a.expr(n, "Expr", n.Expr, func(e Expression) { n.Expr = e })
	case *IfStatement:
		a.expr(n, "Cond", n.Cond, func(e Expression) { n.Cond = e })
		a.stmt(n, "Then", n.Then, func(s Statement) { n.Then = s })
		a.stmt(n, "Else", n.Else, func(s Statement) { n.Else = s })
	case *WhileStatement:
		a.expr(n, "Cond", n.Cond, func(e Expression) { n.Cond = e })
		a.stmt(n, "Body", n.Body, func(s Statement) { n.Body = s })
	case *ThrowStatement:
		a.expr(n, "Expr", n.Expr, func(e Expression) { n.Expr = e })
	case *TryStatement:
		a.exprs(n, "Resources", n.Resources)
		a.block(n, "Body", n.Body, func(b *Block) { n.Body = b })
		for i := range n.Catches {
			a.apply(n, "Catches", i, n.Catches[i], func(r Node) { n.Catches[i] = as[*CatchClause](r, n, "Catches") })
		}
		a.block(n, "Finally", n.Finally, func(b *Block) { n.Finally = b })
	case *CatchClause:
		a.variable(n, "Exception", n.Exception, func(v *Variable) { n.Exception = v })
		a.block(n, "Body", n.Body, func(b *Block) { n.Body = b })

	// Leaf expressions.
	case *NumberLiteral, *BooleanLiteral, *StringLiteral, *NullLiteral, *TypeLiteral,
		*VariableReference, *ThisReference, *SuperReference:

	// Compound expressions.
	case *FieldAccess:
		a.expr(n, "Qualifier", n.Qualifier, func(e Expression) { n.Qualifier = e })
	case *MethodCall:
		a.expr(n, "Qualifier", n.Qualifier, func(e Expression) { n.Qualifier = e })
		a.exprs(n, "Args", n.Args)
	case *NewInstance:
		a.expr(n, "Qualifier", n.Qualifier, func(e Expression) { n.Qualifier = e })
		a.exprs(n, "Args", n.Args)
		if n.Body != nil {
			a.apply(n, "Body", -1, n.Body, func(r Node) { n.Body = as[*Type](r, n, "Body") })
		}
	case *NewArray:
		a.exprs(n, "Dimensions", n.Dimensions)
		if n.Initializer != nil {
			a.apply(n, "Initializer", -1, n.Initializer, func(r Node) { n.Initializer = as[*ArrayLiteral](r, n, "Initializer") })
		}
	case *ArrayLiteral:
		a.exprs(n, "Values", n.Values)
	case *ArrayAccess:
		a.expr(n, "Array", n.Array, func(e Expression) { n.Array = e })
		a.expr(n, "Index", n.Index, func(e Expression) { n.Index = e })
	case *BinaryExpression:
		a.expr(n, "Left", n.Left, func(e Expression) { n.Left = e })
		a.expr(n, "Right", n.Right, func(e Expression) { n.Right = e })
	case *UnaryExpression:
		a.expr(n, "Operand", n.Operand, func(e Expression) { n.Operand = e })
	case *CastExpression:
		a.expr(n, "Expr", n.Expr, func(e Expression) { n.Expr = e })
	case *InstanceOfExpression:
		a.expr(n, "Expr", n.Expr, func(e Expression) { n.Expr = e })
	case *ConditionalExpression:
		a.expr(n, "Cond", n.Cond, func(e Expression) { n.Cond = e })
		a.expr(n, "Then", n.Then, func(e Expression) { n.Then = e })
		a.expr(n, "Else", n.Else, func(e Expression) { n.Else = e })
	case *FunctionExpression:
		a.variables(n, "Params", n.Params)
		a.block(n, "Body", n.Body, func(b *Block) { n.Body = b })
	case *VariableDeclarationExpression:
		for i := range n.Fragments {
			a.apply(n, "Fragments", i, n.Fragments[i], func(r Node) {
				n.Fragments[i] = as[*VariableDeclarationFragment](r, n, "Fragments")
			})
		}
	case *VariableDeclarationFragment:
		a.variable(n, "Variable", n.Variable, func(v *Variable) { n.Variable = v })
		a.expr(n, "Initializer", n.Initializer, func(e Expression) { n.Initializer = e })
	case *MultiExpression:
		a.exprs(n, "Exprs", n.Exprs)

	default:
		Fatalf(n, "unexpected node type %T", n)
	}
}
