package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Sprint renders n as source-like text for diagnostics and tests. The
// output is not meant to be parsed.
func Sprint(n Node) string {
	p := &printer{}
	p.node(n)
	return p.b.String()
}

type printer struct {
	b      strings.Builder
	indent int
}

func (p *printer) printf(format string, args ...any) { fmt.Fprintf(&p.b, format, args...) }

func (p *printer) newline() {
	p.b.WriteByte('\n')
	p.b.WriteString(strings.Repeat("  ", p.indent))
}

func (p *printer) node(n Node) {
	switch n := n.(type) {
	case nil:
		p.printf("<nil>")
	case *CompilationUnit:
		p.printf("package %s;", n.Package)
		for _, t := range n.Types {
			p.newline()
			p.newline()
			p.node(t)
		}
	case *Type:
		d := n.Declaration
		p.printf("%s %s", d.Kind, d.ReadableName())
		if d.Super != nil && !IsObject(d.Super) {
			p.printf(" extends %s", d.Super.ReadableName())
		}
		for i, iface := range d.Interfaces {
			if i == 0 {
				p.printf(" implements ")
			} else {
				p.printf(", ")
			}
			p.printf("%s", iface.ReadableName())
		}
		p.printf(" {")
		p.indent++
		for _, m := range n.Members {
			p.newline()
			p.node(m)
		}
		p.indent--
		p.newline()
		p.printf("}")
	case *Field:
		if n.Descriptor.Static {
			p.printf("static ")
		}
		p.printf("%s %s", n.Descriptor.Type.ReadableName(), n.Descriptor.Name)
		if n.Initializer != nil {
			p.printf(" = ")
			p.node(n.Initializer)
		}
		p.printf(";")
	case *Method:
		md := n.Descriptor
		if md.Static {
			p.printf("static ")
		}
		if md.Constructor {
			p.printf("%s(", md.Enclosing.Name)
		} else {
			p.printf("%s %s(", md.Return.ReadableName(), md.Name)
		}
		for i, v := range n.Params {
			if i > 0 {
				p.printf(", ")
			}
			p.printf("%s %s", v.Type.ReadableName(), v.Name)
		}
		p.printf(")")
		if n.Body == nil {
			p.printf(";")
			return
		}
		p.printf(" ")
		p.node(n.Body)
	case *InitializerBlock:
		if n.Static {
			p.printf("static ")
		}
		p.node(n.Body)
	case *Variable:
		p.printf("%s %s", n.Type.ReadableName(), n.Name)

	case *Block:
		p.printf("{")
		p.indent++
		for _, s := range n.Statements {
			p.newline()
			p.node(s)
		}
		p.indent--
		p.newline()
		p.printf("}")
	case *ExpressionStatement:
		p.node(n.Expr)
		p.printf(";")
	case *ReturnStatement:
		p.printf("return")
		if n.Expr != nil {
			p.printf(" ")
			p.node(n.Expr)
		}
		p.printf(";")
	case *IfStatement:
		p.printf("if (")
		p.node(n.Cond)
		p.printf(") ")
		p.node(n.Then)
		if n.Else != nil {
			p.printf(" else ")
			p.node(n.Else)
		}
	case *WhileStatement:
		p.printf("while (")
		p.node(n.Cond)
		p.printf(") ")
		p.node(n.Body)
	case *ThrowStatement:
		p.printf("throw ")
		p.node(n.Expr)
		p.printf(";")
	case *TryStatement:
		p.printf("try ")
		if len(n.Resources) > 0 {
			p.printf("(")
			for i, r := range n.Resources {
				if i > 0 {
					p.printf("; ")
				}
				p.node(r)
			}
			p.printf(") ")
		}
		p.node(n.Body)
		for _, c := range n.Catches {
			p.printf(" ")
			p.node(c)
		}
		if n.Finally != nil {
			p.printf(" finally ")
			p.node(n.Finally)
		}
	case *CatchClause:
		p.printf("catch (")
		p.node(n.Exception)
		p.printf(") ")
		p.node(n.Body)

	case *NumberLiteral:
		p.printf("%s", formatNumber(n))
	case *BooleanLiteral:
		p.printf("%t", n.Value)
	case *StringLiteral:
		p.printf("%s", strconv.Quote(n.Value))
	case *NullLiteral:
		p.printf("null")
	case *TypeLiteral:
		p.printf("%s.class", n.Referenced.ReadableName())
	case *VariableReference:
		p.printf("%s", n.Target.Name)
	case *ThisReference:
		p.printf("this")
	case *SuperReference:
		p.printf("super")
	case *FieldAccess:
		p.qualifier(n.Qualifier, n.Target.Enclosing, n.Target.Static)
		p.printf("%s", n.Target.Name)
	case *MethodCall:
		if IsConstructorInvocation(n) {
			p.node(n.Qualifier)
		} else {
			p.qualifier(n.Qualifier, n.Target.Enclosing, n.Target.Static)
			p.printf("%s", n.Target.Name)
		}
		p.args(n.Args)
	case *NewInstance:
		if n.Qualifier != nil {
			p.node(n.Qualifier)
			p.printf(".")
		}
		p.printf("new %s", n.TypeDescriptor().ReadableName())
		p.args(n.Args)
		if n.Body != nil {
			p.printf(" ")
			p.node(n.Body)
		}
	case *NewArray:
		if n.Initializer != nil {
			p.printf("new %s ", n.Type.ReadableName())
			p.node(n.Initializer)
			return
		}
		p.printf("new %s", n.Type.Leaf().ReadableName())
		for i := 0; i < n.Type.Dimensions(); i++ {
			p.printf("[")
			if i < len(n.Dimensions) {
				p.node(n.Dimensions[i])
			}
			p.printf("]")
		}
	case *ArrayLiteral:
		p.printf("{")
		p.list(n.Values)
		p.printf("}")
	case *ArrayAccess:
		p.node(n.Array)
		p.printf("[")
		p.node(n.Index)
		p.printf("]")
	case *BinaryExpression:
		p.operand(n.Left)
		p.printf(" %s ", n.Op)
		p.operand(n.Right)
	case *UnaryExpression:
		switch n.Op {
		case OpPostIncrement, OpPostDecrement:
			p.operand(n.Operand)
			p.printf("%s", strings.TrimPrefix(n.Op.String(), "x"))
		case OpPreIncrement, OpPreDecrement:
			p.printf("%s", strings.TrimSuffix(n.Op.String(), "x"))
			p.operand(n.Operand)
		default:
			p.printf("%s", n.Op)
			p.operand(n.Operand)
		}
	case *CastExpression:
		p.printf("(%s) ", n.Type.ReadableName())
		p.operand(n.Expr)
	case *InstanceOfExpression:
		p.operand(n.Expr)
		p.printf(" instanceof %s", n.Test.ReadableName())
	case *ConditionalExpression:
		p.operand(n.Cond)
		p.printf(" ? ")
		p.operand(n.Then)
		p.printf(" : ")
		p.operand(n.Else)
	case *FunctionExpression:
		p.printf("(")
		for i, v := range n.Params {
			if i > 0 {
				p.printf(", ")
			}
			p.printf("%s", v.Name)
		}
		p.printf(") -> ")
		p.node(n.Body)
	case *VariableDeclarationExpression:
		for i, f := range n.Fragments {
			if i > 0 {
				p.printf(", ")
			}
			p.node(f)
		}
	case *VariableDeclarationFragment:
		p.node(n.Variable)
		if n.Initializer != nil {
			p.printf(" = ")
			p.node(n.Initializer)
		}
	case *MultiExpression:
		p.printf("(")
		p.list(n.Exprs)
		p.printf(")")
	default:
		p.printf("<%T>", n)
	}
}

func (p *printer) qualifier(q Expression, enclosing *TypeDeclaration, static bool) {
	switch {
	case q != nil:
		p.operand(q)
		p.printf(".")
	case static && enclosing != nil:
		p.printf("%s.", enclosing.ReadableName())
	}
}

func (p *printer) operand(e Expression) {
	switch e.(type) {
	case *BinaryExpression, *ConditionalExpression, *CastExpression, *InstanceOfExpression:
		p.printf("(")
		p.node(e)
		p.printf(")")
	default:
		p.node(e)
	}
}

func (p *printer) args(args []Expression) {
	p.printf("(")
	p.list(args)
	p.printf(")")
}

func (p *printer) list(exprs []Expression) {
	for i, e := range exprs {
		if i > 0 {
			p.printf(", ")
		}
		p.node(e)
	}
}

func formatNumber(n *NumberLiteral) string {
	switch n.Type.PrimitiveKind {
	case PrimitiveFloat, PrimitiveDouble:
		s := strconv.FormatFloat(n.Value, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		if n.Type.PrimitiveKind == PrimitiveFloat {
			s += "f"
		}
		return s
	case PrimitiveLong:
		return strconv.FormatInt(int64(n.Value), 10) + "L"
	case PrimitiveChar:
		return strconv.QuoteRune(rune(n.Value))
	default:
		return strconv.FormatInt(int64(n.Value), 10)
	}
}
