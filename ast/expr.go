package ast

// NumberLiteral is a numeric or char literal. Integral kinds hold integral
// values.
type NumberLiteral struct {
	Positioned
	Type  *PrimitiveDescriptor
	Value float64
}

// BooleanLiteral is true or false.
type BooleanLiteral struct {
	Positioned
	Type  TypeDescriptor
	Value bool
}

// StringLiteral is a string constant.
type StringLiteral struct {
	Positioned
	Type  TypeDescriptor
	Value string
}

// NullLiteral is null.
type NullLiteral struct {
	Positioned
	Type TypeDescriptor
}

// TypeLiteral is T.class.
type TypeLiteral struct {
	Positioned
	Type       TypeDescriptor
	Referenced TypeDescriptor
}

// VariableReference reads or writes a variable.
type VariableReference struct {
	Positioned
	Target *Variable
}

// ThisReference is this, or Outer.this.
type ThisReference struct {
	Positioned
	Type TypeDescriptor
}

// SuperReference is super as a method call qualifier.
type SuperReference struct {
	Positioned
	Type TypeDescriptor
}

// FieldAccess reads or writes a field. Qualifier is nil for static fields.
type FieldAccess struct {
	Positioned
	Qualifier Expression
	Target    *FieldDescriptor
}

// MethodCall invokes a method. A call to a constructor qualified by this or
// super is a constructor delegation and may only be the first statement of
// a constructor.
type MethodCall struct {
	Positioned
	Qualifier Expression
	Target    *MethodDescriptor
	Args      []Expression
}

// NewInstance creates an object. Body is the class body of an anonymous
// class.
type NewInstance struct {
	Positioned

	// Type is the parameterized type created. Nil means the raw type of the
	// constructor's enclosing declaration.
	Type *DeclaredTypeDescriptor

	// Qualifier is the enclosing instance of an inner class, if explicit.
	Qualifier Expression

	Target *MethodDescriptor
	Args   []Expression
	Body   *Type
}

// NewArray creates an array from dimensions or from an initializer.
type NewArray struct {
	Positioned
	Type        *ArrayTypeDescriptor
	Dimensions  []Expression
	Initializer *ArrayLiteral
}

// ArrayLiteral is {a, b, c}.
type ArrayLiteral struct {
	Positioned
	Type   *ArrayTypeDescriptor
	Values []Expression
}

// ArrayAccess is a[i].
type ArrayAccess struct {
	Positioned
	Array Expression
	Index Expression
}

// BinaryExpression covers arithmetic, comparison, logical and assignment
// operators.
type BinaryExpression struct {
	Positioned
	Type  TypeDescriptor
	Op    BinaryOperator
	Left  Expression
	Right Expression
}

// UnaryExpression covers prefix and postfix operators.
type UnaryExpression struct {
	Positioned
	Type    TypeDescriptor
	Op      UnaryOperator
	Operand Expression
}

// CastExpression is (T) e.
type CastExpression struct {
	Positioned
	Type TypeDescriptor
	Expr Expression
}

// InstanceOfExpression is e instanceof T.
type InstanceOfExpression struct {
	Positioned
	Type TypeDescriptor
	Expr Expression
	Test TypeDescriptor
}

// ConditionalExpression is c ? a : b.
type ConditionalExpression struct {
	Positioned
	Type TypeDescriptor
	Cond Expression
	Then Expression
	Else Expression
}

// FunctionExpression is a lambda. Type is the functional interface (or an
// intersection containing it) and Descriptor the abstract method it
// implements.
type FunctionExpression struct {
	Positioned
	Type       TypeDescriptor
	Descriptor *MethodDescriptor
	Params     []*Variable
	Body       *Block
}

// ReadableName describes the lambda for diagnostics.
func (f *FunctionExpression) ReadableName() string {
	return "<lambda implementing " + f.Descriptor.ReadableName() + ">"
}

// VariableDeclarationExpression declares one or more locals.
type VariableDeclarationExpression struct {
	Positioned
	Fragments []*VariableDeclarationFragment
}

// VariableDeclarationFragment declares one variable with an optional
// initializer.
type VariableDeclarationFragment struct {
	Positioned
	Variable    *Variable
	Initializer Expression
}

// MultiExpression evaluates its expressions in order and yields the last.
type MultiExpression struct {
	Positioned
	Exprs []Expression
}

func (e *NumberLiteral) TypeDescriptor() TypeDescriptor         { return e.Type }
func (e *BooleanLiteral) TypeDescriptor() TypeDescriptor        { return e.Type }
func (e *StringLiteral) TypeDescriptor() TypeDescriptor         { return e.Type }
func (e *NullLiteral) TypeDescriptor() TypeDescriptor           { return e.Type }
func (e *TypeLiteral) TypeDescriptor() TypeDescriptor           { return e.Type }
func (e *VariableReference) TypeDescriptor() TypeDescriptor     { return e.Target.Type }
func (e *ThisReference) TypeDescriptor() TypeDescriptor         { return e.Type }
func (e *SuperReference) TypeDescriptor() TypeDescriptor        { return e.Type }
func (e *FieldAccess) TypeDescriptor() TypeDescriptor           { return e.Target.Type }
func (e *MethodCall) TypeDescriptor() TypeDescriptor            { return e.Target.Return }
func (e *NewArray) TypeDescriptor() TypeDescriptor              { return e.Type }
func (e *ArrayLiteral) TypeDescriptor() TypeDescriptor          { return e.Type }
func (e *BinaryExpression) TypeDescriptor() TypeDescriptor      { return e.Type }
func (e *UnaryExpression) TypeDescriptor() TypeDescriptor       { return e.Type }
func (e *CastExpression) TypeDescriptor() TypeDescriptor        { return e.Type }
func (e *InstanceOfExpression) TypeDescriptor() TypeDescriptor  { return e.Type }
func (e *ConditionalExpression) TypeDescriptor() TypeDescriptor { return e.Type }
func (e *FunctionExpression) TypeDescriptor() TypeDescriptor    { return e.Type }

func (e *NewInstance) TypeDescriptor() TypeDescriptor {
	if e.Type != nil {
		return e.Type
	}
	return e.Target.Enclosing.Descriptor()
}

func (e *ArrayAccess) TypeDescriptor() TypeDescriptor {
	if a, ok := e.Array.TypeDescriptor().(*ArrayTypeDescriptor); ok {
		return a.Component
	}
	Fatalf(e, "array access on non-array type %s", e.Array.TypeDescriptor().ReadableName())
	return nil
}

// TypeDescriptor returns the type of the first declared variable.
func (e *VariableDeclarationExpression) TypeDescriptor() TypeDescriptor {
	if len(e.Fragments) == 0 {
		return nil
	}
	return e.Fragments[0].Variable.Type
}

func (e *MultiExpression) TypeDescriptor() TypeDescriptor {
	if len(e.Exprs) == 0 {
		return nil
	}
	return e.Exprs[len(e.Exprs)-1].TypeDescriptor()
}

func (*NumberLiteral) exprNode()                 {}
func (*BooleanLiteral) exprNode()                {}
func (*StringLiteral) exprNode()                 {}
func (*NullLiteral) exprNode()                   {}
func (*TypeLiteral) exprNode()                   {}
func (*VariableReference) exprNode()             {}
func (*ThisReference) exprNode()                 {}
func (*SuperReference) exprNode()                {}
func (*FieldAccess) exprNode()                   {}
func (*MethodCall) exprNode()                    {}
func (*NewInstance) exprNode()                   {}
func (*NewArray) exprNode()                      {}
func (*ArrayLiteral) exprNode()                  {}
func (*ArrayAccess) exprNode()                   {}
func (*BinaryExpression) exprNode()              {}
func (*UnaryExpression) exprNode()               {}
func (*CastExpression) exprNode()                {}
func (*InstanceOfExpression) exprNode()          {}
func (*ConditionalExpression) exprNode()         {}
func (*FunctionExpression) exprNode()            {}
func (*VariableDeclarationExpression) exprNode() {}
func (*MultiExpression) exprNode()               {}
