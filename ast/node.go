package ast

// Node is implemented by every tree node.
type Node interface {
	Pos() SourcePosition
	node()
}

// Positioned is embedded by every node and carries its source position.
type Positioned struct {
	Position SourcePosition
}

// At returns a Positioned for p.
func At(p SourcePosition) Positioned { return Positioned{Position: p} }

// Pos returns the node's source position.
func (p *Positioned) Pos() SourcePosition { return p.Position }

func (*Positioned) node() {}

// Expression is a node that produces a value of a resolved type.
type Expression interface {
	Node
	TypeDescriptor() TypeDescriptor
	exprNode()
}

// Statement is a node executed for its effect.
type Statement interface {
	Node
	stmtNode()
}

// Member is a Field, Method or InitializerBlock of a Type.
type Member interface {
	Node

	// MemberDescriptor returns the member's static binding, or nil for
	// initializer blocks.
	MemberDescriptor() MemberDescriptor

	IsStatic() bool
	memberNode()
}

// Variable is a local, parameter or synthetic binding. Variables are
// compared by identity; two variables with the same name are unrelated.
type Variable struct {
	Positioned
	Name               string
	Type               TypeDescriptor
	Parameter          bool
	Final              bool
	UnusableSuppressed bool
}

// Reference returns a new reference to v.
func (v *Variable) Reference() *VariableReference { return &VariableReference{Target: v} }

// CompilationUnit is the tree produced for one source file.
type CompilationUnit struct {
	Positioned
	Package string
	File    string
	Types   []*Type
}

// AddType appends t to the unit.
func (u *CompilationUnit) AddType(t *Type) { u.Types = append(u.Types, t) }

// Type is the member container of one declared type.
type Type struct {
	Positioned
	Declaration *TypeDeclaration
	Members     []Member
}

// Descriptor returns the unparameterized descriptor of the declared type.
func (t *Type) Descriptor() *DeclaredTypeDescriptor { return t.Declaration.Descriptor() }

// ReadableName returns the declaration's readable name.
func (t *Type) ReadableName() string { return t.Declaration.ReadableName() }

// Fields returns the field members in declaration order.
func (t *Type) Fields() []*Field {
	var fields []*Field
	for _, m := range t.Members {
		if f, ok := m.(*Field); ok {
			fields = append(fields, f)
		}
	}
	return fields
}

// Methods returns the method members, constructors included.
func (t *Type) Methods() []*Method {
	var methods []*Method
	for _, m := range t.Members {
		if x, ok := m.(*Method); ok {
			methods = append(methods, x)
		}
	}
	return methods
}

// Constructors returns the constructor members.
func (t *Type) Constructors() []*Method {
	var ctors []*Method
	for _, m := range t.Methods() {
		if m.Descriptor.Constructor {
			ctors = append(ctors, m)
		}
	}
	return ctors
}

// InitializerBlocks returns the static or instance initializer blocks.
func (t *Type) InitializerBlocks(static bool) []*InitializerBlock {
	var blocks []*InitializerBlock
	for _, m := range t.Members {
		if b, ok := m.(*InitializerBlock); ok && b.Static == static {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// FindMethod returns the member implementing md, or nil.
func (t *Type) FindMethod(md *MethodDescriptor) *Method {
	for _, m := range t.Methods() {
		if m.Descriptor == md {
			return m
		}
	}
	return nil
}

// AddMember appends m.
func (t *Type) AddMember(m Member) { t.Members = append(t.Members, m) }

// RemoveMember drops m.
func (t *Type) RemoveMember(m Member) {
	for i, x := range t.Members {
		if x == m {
			t.Members = append(t.Members[:i], t.Members[i+1:]...)
			return
		}
	}
}

// Field is a field declaration.
type Field struct {
	Positioned
	Descriptor  *FieldDescriptor
	Initializer Expression
}

func (f *Field) MemberDescriptor() MemberDescriptor { return f.Descriptor }
func (f *Field) IsStatic() bool                     { return f.Descriptor.Static }
func (*Field) memberNode()                          {}

// Method is a method or constructor declaration. Body is nil for abstract
// and native methods.
type Method struct {
	Positioned
	Descriptor *MethodDescriptor
	Params     []*Variable
	Body       *Block
}

func (m *Method) MemberDescriptor() MemberDescriptor { return m.Descriptor }
func (m *Method) IsStatic() bool                     { return m.Descriptor.Static }
func (*Method) memberNode()                          {}

// IsConstructor reports whether m is a constructor.
func (m *Method) IsConstructor() bool { return m.Descriptor.Constructor }

// IsEmpty reports whether m has no statements.
func (m *Method) IsEmpty() bool { return m.Body == nil || len(m.Body.Statements) == 0 }

// ReadableName returns the descriptor's readable name.
func (m *Method) ReadableName() string { return m.Descriptor.ReadableName() }

// VarargsParameter returns the trailing variadic parameter, or nil.
func (m *Method) VarargsParameter() *Variable {
	if !m.Descriptor.Varargs || len(m.Params) == 0 {
		return nil
	}
	return m.Params[len(m.Params)-1]
}

// InitializerBlock is a static or instance initializer.
type InitializerBlock struct {
	Positioned
	Static bool
	Body   *Block
}

func (*InitializerBlock) MemberDescriptor() MemberDescriptor { return nil }
func (b *InitializerBlock) IsStatic() bool                   { return b.Static }
func (*InitializerBlock) memberNode()                        {}
