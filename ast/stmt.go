package ast

// Block is a braced statement list.
type Block struct {
	Positioned
	Statements []Statement
}

// NewBlock returns a block holding stmts.
func NewBlock(stmts ...Statement) *Block { return &Block{Statements: stmts} }

// ExpressionStatement evaluates an expression for its effect.
type ExpressionStatement struct {
	Positioned
	Expr Expression
}

// ReturnStatement returns from the enclosing method or lambda. Expr is nil
// in void contexts.
type ReturnStatement struct {
	Positioned
	Expr Expression
}

// IfStatement is if (Cond) Then else Else. Else may be nil.
type IfStatement struct {
	Positioned
	Cond Expression
	Then Statement
	Else Statement
}

// WhileStatement is while (Cond) Body.
type WhileStatement struct {
	Positioned
	Cond Expression
	Body Statement
}

// ThrowStatement throws a Throwable.
type ThrowStatement struct {
	Positioned
	Expr Expression
}

// TryStatement is try, try-catch-finally or try-with-resources. Each
// resource is a single-variable VariableDeclarationExpression or a
// VariableReference to an effectively final variable.
type TryStatement struct {
	Positioned
	Resources []Expression
	Body      *Block
	Catches   []*CatchClause
	Finally   *Block
}

// CatchClause binds the caught exception to Exception.
type CatchClause struct {
	Positioned
	Exception *Variable
	Body      *Block
}

func (*Block) stmtNode()               {}
func (*ExpressionStatement) stmtNode() {}
func (*ReturnStatement) stmtNode()     {}
func (*IfStatement) stmtNode()         {}
func (*WhileStatement) stmtNode()      {}
func (*ThrowStatement) stmtNode()      {}
func (*TryStatement) stmtNode()        {}

// Stmt wraps e in an ExpressionStatement.
func Stmt(e Expression) *ExpressionStatement { return &ExpressionStatement{Expr: e} }
