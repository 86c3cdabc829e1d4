// Package astjson is the JSON interchange format for compilation units.
//
// The front end hands typed units to the core as JSON documents and the
// lowered units are written back in the same format for the external
// emitter. A document carries the declarations of the types it defines and
// the units themselves. References to types are by qualified name,
// references to members are by declaring type and index, and references to
// variables are by a document-scoped id, so the pointer identities the
// passes rely on survive a round trip.
//
// Core library declarations are never written; every decoding arena starts
// with them.
package astjson

// Version is the document format version written by Encode. Decode rejects
// other versions.
const Version = 1

type document struct {
	Version      int            `json:"version"`
	Declarations []*declaration `json:"declarations,omitempty"`
	Units        []*unit        `json:"units"`
}

type position struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// typeRef kinds.
const (
	typePrimitive    = "primitive"
	typeDeclared     = "declared"
	typeArray        = "array"
	typeVariable     = "typeVariable"
	typeIntersection = "intersection"
	typeNull         = "null"
)

type typeRef struct {
	Kind string `json:"kind"`

	// Name is the primitive keyword, the qualified name of a declared type
	// or the name of a type variable.
	Name string `json:"name,omitempty"`

	// Owner is the qualified name of the type declaring a type variable.
	Owner string `json:"owner,omitempty"`

	// Args holds type arguments or intersection components.
	Args      []*typeRef `json:"args,omitempty"`
	Component *typeRef   `json:"component,omitempty"`
}

// memberRef points at Methods[Index] or Fields[Index] of Owner. A
// specialized reference carries its own signature and decodes to a
// descriptor whose Declaration is the referenced member.
type memberRef struct {
	Owner string `json:"owner"`
	Index int    `json:"index"`

	Specialized bool       `json:"specialized,omitempty"`
	Parameters  []*typeRef `json:"parameters,omitempty"`
	Return      *typeRef   `json:"return,omitempty"`
	Type        *typeRef   `json:"type,omitempty"`
}

type declaration struct {
	Package    string `json:"package,omitempty"`
	Name       string `json:"name"`
	Enclosing  string `json:"enclosing,omitempty"`
	Kind       string `json:"kind"`
	Visibility string `json:"visibility"`

	Final                     bool `json:"final,omitempty"`
	Abstract                  bool `json:"abstract,omitempty"`
	Local                     bool `json:"local,omitempty"`
	Anonymous                 bool `json:"anonymous,omitempty"`
	CapturesEnclosingInstance bool `json:"capturesEnclosingInstance,omitempty"`
	Functional                bool `json:"functional,omitempty"`

	TypeParameters []*typeParameter `json:"typeParameters,omitempty"`
	Super          *typeRef         `json:"super,omitempty"`
	Interfaces     []*typeRef       `json:"interfaces,omitempty"`

	Methods []*method `json:"methods,omitempty"`
	Fields  []*field  `json:"fields,omitempty"`

	Interop            *interop `json:"interop,omitempty"`
	UnusableSuppressed bool     `json:"unusableSuppressed,omitempty"`
}

type typeParameter struct {
	Name  string   `json:"name"`
	Bound *typeRef `json:"bound,omitempty"`
}

type interop struct {
	Exposed        bool        `json:"exposed,omitempty"`
	Native         bool        `json:"native,omitempty"`
	BridgeFunction bool        `json:"bridgeFunction,omitempty"`
	Enum           *enumBridge `json:"enum,omitempty"`
	Name           string      `json:"name,omitempty"`
	Namespace      string      `json:"namespace,omitempty"`
}

type enumBridge struct {
	CustomValue bool `json:"customValue,omitempty"`
}

type member struct {
	Name       string `json:"name"`
	Visibility string `json:"visibility"`

	Static    bool `json:"static,omitempty"`
	Final     bool `json:"final,omitempty"`
	Abstract  bool `json:"abstract,omitempty"`
	Native    bool `json:"native,omitempty"`
	Synthetic bool `json:"synthetic,omitempty"`

	External           *external `json:"external,omitempty"`
	UnusableSuppressed bool      `json:"unusableSuppressed,omitempty"`
}

type external struct {
	Kind      string `json:"kind"`
	Name      string `json:"name,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Overlay   bool   `json:"overlay,omitempty"`
	Async     bool   `json:"async,omitempty"`
	Function  bool   `json:"function,omitempty"`
}

type method struct {
	member

	Parameters    []*parameter `json:"parameters,omitempty"`
	Return        *typeRef     `json:"return"`
	Constructor   bool         `json:"constructor,omitempty"`
	Varargs       bool         `json:"varargs,omitempty"`
	Default       bool         `json:"default,omitempty"`
	EnumSynthetic bool         `json:"enumSynthetic,omitempty"`
	Overrides     []*memberRef `json:"overrides,omitempty"`
}

type parameter struct {
	Type     *typeRef `json:"type"`
	Optional bool     `json:"optional,omitempty"`
}

type field struct {
	member

	Type                *typeRef `json:"type"`
	EnumConstant        bool     `json:"enumConstant,omitempty"`
	CompileTimeConstant bool     `json:"compileTimeConstant,omitempty"`
}

type unit struct {
	Package string      `json:"package,omitempty"`
	File    string      `json:"file"`
	Pos     *position   `json:"pos,omitempty"`
	Types   []*typeNode `json:"types"`
}

type typeNode struct {
	Pos         *position     `json:"pos,omitempty"`
	Declaration string        `json:"declaration"`
	Members     []*memberNode `json:"members,omitempty"`
}

// memberNode kinds.
const (
	memberField       = "field"
	memberMethod      = "method"
	memberInitializer = "initializer"
)

type memberNode struct {
	Kind string    `json:"kind"`
	Pos  *position `json:"pos,omitempty"`

	// Ref is the field or method descriptor.
	Ref *memberRef `json:"ref,omitempty"`

	Initializer *node       `json:"initializer,omitempty"`
	Params      []*variable `json:"params,omitempty"`
	Body        *node       `json:"body,omitempty"`
	Static      bool        `json:"static,omitempty"`
}

type variable struct {
	ID                 int       `json:"id"`
	Pos                *position `json:"pos,omitempty"`
	Name               string    `json:"name"`
	Type               *typeRef  `json:"type"`
	Parameter          bool      `json:"parameter,omitempty"`
	Final              bool      `json:"final,omitempty"`
	UnusableSuppressed bool      `json:"unusableSuppressed,omitempty"`
}

// node kinds.
const (
	kindNumber       = "number"
	kindBoolean      = "boolean"
	kindString       = "string"
	kindNull         = "null"
	kindTypeLiteral  = "typeLiteral"
	kindVariable     = "variable"
	kindThis         = "this"
	kindSuper        = "super"
	kindFieldAccess  = "fieldAccess"
	kindCall         = "call"
	kindNew          = "new"
	kindNewArray     = "newArray"
	kindArrayLiteral = "arrayLiteral"
	kindArrayAccess  = "arrayAccess"
	kindBinary       = "binary"
	kindUnary        = "unary"
	kindCast         = "cast"
	kindInstanceOf   = "instanceOf"
	kindConditional  = "conditional"
	kindFunction     = "function"
	kindDeclaration  = "declaration"
	kindMulti        = "multi"

	kindBlock      = "block"
	kindExpression = "expression"
	kindReturn     = "return"
	kindIf         = "if"
	kindWhile      = "while"
	kindThrow      = "throw"
	kindTry        = "try"
)

// node is an expression or statement. Kind decides which of the other
// fields are meaningful.
type node struct {
	Kind string    `json:"kind"`
	Pos  *position `json:"pos,omitempty"`
	Type *typeRef  `json:"type,omitempty"`

	Number *float64 `json:"number,omitempty"`
	Bool   *bool    `json:"bool,omitempty"`
	String *string  `json:"string,omitempty"`
	Op     string   `json:"op,omitempty"`

	// Test is the type of instanceof and the referenced type of a type
	// literal.
	Test *typeRef `json:"test,omitempty"`

	Var    *int       `json:"var,omitempty"`
	Field  *memberRef `json:"field,omitempty"`
	Method *memberRef `json:"method,omitempty"`

	Qualifier *node `json:"qualifier,omitempty"`
	Expr      *node `json:"expr,omitempty"`
	Left      *node `json:"left,omitempty"`
	Right     *node `json:"right,omitempty"`
	Array     *node `json:"array,omitempty"`
	Index     *node `json:"index,omitempty"`
	Cond      *node `json:"cond,omitempty"`
	Then      *node `json:"then,omitempty"`
	Else      *node `json:"else,omitempty"`

	Args        []*node   `json:"args,omitempty"`
	Dimensions  []*node   `json:"dimensions,omitempty"`
	Values      []*node   `json:"values,omitempty"`
	Exprs       []*node   `json:"exprs,omitempty"`
	Initializer *node     `json:"initializer,omitempty"`
	Class       *typeNode `json:"class,omitempty"`

	Params     []*variable    `json:"params,omitempty"`
	Body       *node          `json:"body,omitempty"`
	Statements []*node        `json:"statements,omitempty"`
	Fragments  []*fragment    `json:"fragments,omitempty"`
	Resources  []*node        `json:"resources,omitempty"`
	Catches    []*catchClause `json:"catches,omitempty"`
	Finally    *node          `json:"finally,omitempty"`
}

type fragment struct {
	Pos         *position `json:"pos,omitempty"`
	Variable    *variable `json:"variable"`
	Initializer *node     `json:"initializer,omitempty"`
}

type catchClause struct {
	Pos       *position `json:"pos,omitempty"`
	Exception *variable `json:"exception"`
	Body      *node     `json:"body"`
}
