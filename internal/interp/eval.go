package interp

import (
	"fmt"
	"math"

	"github.com/broady/bridgec/ast"
	"github.com/broady/bridgec/conversion"
)

func (in *Interpreter) eval(f *frame, e ast.Expression) (Value, error) {
	switch e := e.(type) {
	case *ast.NumberLiteral:
		return coerce(e.Value, e.Type.PrimitiveKind), nil
	case *ast.BooleanLiteral:
		return e.Value, nil
	case *ast.StringLiteral:
		return e.Value, nil
	case *ast.NullLiteral:
		return nil, nil
	case *ast.TypeLiteral:
		return e.Referenced.ReadableName(), nil
	case *ast.ThisReference:
		return f.this, nil
	case *ast.VariableReference:
		slot, err := f.lookup(e.Target)
		if err != nil {
			return nil, err
		}
		return *slot, nil
	case *ast.FieldAccess:
		return in.evalFieldAccess(f, e)
	case *ast.MethodCall:
		return in.evalCall(f, e)
	case *ast.NewInstance:
		return in.evalNewInstance(f, e)
	case *ast.NewArray:
		return in.evalNewArray(f, e)
	case *ast.ArrayLiteral:
		return in.evalArrayLiteral(f, e)
	case *ast.ArrayAccess:
		a, i, err := in.evalIndex(f, e)
		if err != nil {
			return nil, err
		}
		return a.Elems[i], nil
	case *ast.BinaryExpression:
		return in.evalBinary(f, e)
	case *ast.UnaryExpression:
		return in.evalUnary(f, e)
	case *ast.CastExpression:
		v, err := in.eval(f, e.Expr)
		if err != nil {
			return nil, err
		}
		if k, ok := in.kindOf(e.Type); ok && v != nil {
			return coerce(v, k), nil
		}
		return v, nil
	case *ast.InstanceOfExpression:
		v, err := in.eval(f, e.Expr)
		if err != nil {
			return nil, err
		}
		obj, ok := v.(*Object)
		return ok && ast.IsSubtype(obj.Class.Descriptor(), e.Test), nil
	case *ast.ConditionalExpression:
		cond, err := in.eval(f, e.Cond)
		if err != nil {
			return nil, err
		}
		if cond.(bool) {
			return in.eval(f, e.Then)
		}
		return in.eval(f, e.Else)
	case *ast.FunctionExpression:
		return &Closure{Fn: e, frame: f}, nil
	case *ast.VariableDeclarationExpression:
		for _, frag := range e.Fragments {
			v := zero(frag.Variable.Type)
			if frag.Initializer != nil {
				var err error
				if v, err = in.eval(f, frag.Initializer); err != nil {
					return nil, err
				}
			}
			f.declare(frag.Variable, coerceTo(v, frag.Variable.Type))
		}
		return nil, nil
	case *ast.MultiExpression:
		var v Value
		for _, x := range e.Exprs {
			var err error
			if v, err = in.eval(f, x); err != nil {
				return nil, err
			}
		}
		return v, nil
	}
	return nil, fmt.Errorf("interp: unexpected expression %T", e)
}

func (in *Interpreter) kindOf(t ast.TypeDescriptor) (ast.PrimitiveKind, bool) {
	return conversion.PrimitiveKindOf(in.arena, t)
}

func (in *Interpreter) evalArgs(f *frame, args []ast.Expression) ([]Value, error) {
	vals := make([]Value, len(args))
	for i, a := range args {
		v, err := in.eval(f, a)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (in *Interpreter) evalFieldAccess(f *frame, e *ast.FieldAccess) (Value, error) {
	if e.Target.Static {
		return in.Static(e.Target)
	}
	q, err := in.eval(f, e.Qualifier)
	if err != nil {
		return nil, err
	}
	obj, ok := q.(*Object)
	if !ok {
		return nil, fmt.Errorf("interp: field %s read from %T", e.Target.Name, q)
	}
	return obj.Field(e.Target), nil
}

func (in *Interpreter) evalCall(f *frame, e *ast.MethodCall) (Value, error) {
	target := e.Target
	if ast.IsConstructorInvocation(e) {
		args, err := in.evalArgs(f, e.Args)
		if err != nil {
			return nil, err
		}
		obj, ok := f.this.(*Object)
		if !ok {
			return nil, fmt.Errorf("interp: constructor invocation without an instance")
		}
		return nil, in.construct(target, obj, args)
	}
	if target.Static {
		args, err := in.evalArgs(f, e.Args)
		if err != nil {
			return nil, err
		}
		return in.Call(target, nil, args...)
	}

	var receiver Value
	if e.Qualifier != nil {
		var err error
		if receiver, err = in.eval(f, e.Qualifier); err != nil {
			return nil, err
		}
	} else {
		receiver = f.this
	}
	args, err := in.evalArgs(f, e.Args)
	if err != nil {
		return nil, err
	}
	if _, super := e.Qualifier.(*ast.SuperReference); super {
		return in.invoke(target, in.implementation(target, target.Enclosing), receiver, args)
	}
	return in.callVirtual(target, receiver, args)
}

func (in *Interpreter) evalNewInstance(f *frame, e *ast.NewInstance) (Value, error) {
	args, err := in.evalArgs(f, e.Args)
	if err != nil {
		return nil, err
	}
	class := e.Target.Enclosing
	if e.Body != nil {
		class = e.Body.Declaration
	}
	if err := in.ensureInitialized(class); err != nil {
		return nil, err
	}
	obj := &Object{Class: class}
	if e.Body != nil {
		obj.scope = f
	}
	if err := in.construct(e.Target, obj, args); err != nil {
		return nil, err
	}
	if class != e.Target.Enclosing {
		// The implicit constructor of an anonymous class.
		if err := in.initInstance(class, obj); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func (in *Interpreter) evalNewArray(f *frame, e *ast.NewArray) (Value, error) {
	if e.Initializer != nil {
		return in.evalArrayLiteral(f, e.Initializer)
	}
	dims := make([]int64, len(e.Dimensions))
	for i, d := range e.Dimensions {
		v, err := in.eval(f, d)
		if err != nil {
			return nil, err
		}
		dims[i] = toLong(v)
	}
	return newArray(e.Type, dims), nil
}

func newArray(t *ast.ArrayTypeDescriptor, dims []int64) *Array {
	a := &Array{Type: t, Elems: make([]Value, dims[0])}
	for i := range a.Elems {
		if inner, ok := t.Component.(*ast.ArrayTypeDescriptor); ok && len(dims) > 1 {
			a.Elems[i] = newArray(inner, dims[1:])
		} else {
			a.Elems[i] = zero(t.Component)
		}
	}
	return a
}

func (in *Interpreter) evalArrayLiteral(f *frame, e *ast.ArrayLiteral) (Value, error) {
	a := &Array{Type: e.Type, Elems: make([]Value, len(e.Values))}
	for i, x := range e.Values {
		v, err := in.eval(f, x)
		if err != nil {
			return nil, err
		}
		a.Elems[i] = coerceTo(v, e.Type.Component)
	}
	return a, nil
}

func (in *Interpreter) evalIndex(f *frame, e *ast.ArrayAccess) (*Array, int64, error) {
	av, err := in.eval(f, e.Array)
	if err != nil {
		return nil, 0, err
	}
	iv, err := in.eval(f, e.Index)
	if err != nil {
		return nil, 0, err
	}
	a, ok := av.(*Array)
	if !ok {
		return nil, 0, fmt.Errorf("interp: index into %T", av)
	}
	i := toLong(iv)
	if i < 0 || i >= int64(len(a.Elems)) {
		return nil, 0, fmt.Errorf("interp: index %d out of bounds for length %d", i, len(a.Elems))
	}
	return a, i, nil
}

// lvalue is an assignable location.
type lvalue struct {
	typ   ast.TypeDescriptor
	load  func() Value
	store func(Value)
}

func (in *Interpreter) evalLvalue(f *frame, e ast.Expression) (lvalue, error) {
	switch e := e.(type) {
	case *ast.VariableReference:
		slot, err := f.lookup(e.Target)
		if err != nil {
			return lvalue{}, err
		}
		return lvalue{e.Target.Type, func() Value { return *slot }, func(v Value) { *slot = v }}, nil
	case *ast.FieldAccess:
		fd := e.Target.DeclarationDescriptor()
		if e.Target.Static {
			if err := in.ensureInitialized(e.Target.Enclosing); err != nil {
				return lvalue{}, err
			}
			return lvalue{e.Target.Type, func() Value { return in.static(fd) }, func(v Value) { in.statics[fd] = v }}, nil
		}
		q, err := in.eval(f, e.Qualifier)
		if err != nil {
			return lvalue{}, err
		}
		obj, ok := q.(*Object)
		if !ok {
			return lvalue{}, fmt.Errorf("interp: field %s written on %T", e.Target.Name, q)
		}
		return lvalue{e.Target.Type, func() Value { return obj.Field(fd) }, func(v Value) { obj.set(fd, v) }}, nil
	case *ast.ArrayAccess:
		a, i, err := in.evalIndex(f, e)
		if err != nil {
			return lvalue{}, err
		}
		return lvalue{a.Type.Component, func() Value { return a.Elems[i] }, func(v Value) { a.Elems[i] = v }}, nil
	}
	return lvalue{}, fmt.Errorf("interp: %T is not assignable", e)
}

func (in *Interpreter) evalBinary(f *frame, e *ast.BinaryExpression) (Value, error) {
	if e.Op.IsAssignment() {
		lv, err := in.evalLvalue(f, e.Left)
		if err != nil {
			return nil, err
		}
		var v Value
		if e.Op == ast.OpAssign {
			if v, err = in.eval(f, e.Right); err != nil {
				return nil, err
			}
		} else {
			r, err := in.eval(f, e.Right)
			if err != nil {
				return nil, err
			}
			if v, err = in.operate(e.Op.Underlying(), lv.load(), r, e.Left.TypeDescriptor(), e.Right.TypeDescriptor(), lv.typ); err != nil {
				return nil, err
			}
		}
		v = coerceTo(v, lv.typ)
		lv.store(v)
		return v, nil
	}

	l, err := in.eval(f, e.Left)
	if err != nil {
		return nil, err
	}
	if e.Op.IsShortCircuit() {
		if l.(bool) == (e.Op == ast.OpConditionalOr) {
			return l, nil
		}
		return in.eval(f, e.Right)
	}
	r, err := in.eval(f, e.Right)
	if err != nil {
		return nil, err
	}
	return in.operate(e.Op, l, r, e.Left.TypeDescriptor(), e.Right.TypeDescriptor(), e.Type)
}

// operate applies a non-assignment binary operator. lt and rt are the
// static operand types and result the static result type.
func (in *Interpreter) operate(op ast.BinaryOperator, l, r Value, lt, rt, result ast.TypeDescriptor) (Value, error) {
	if op == ast.OpPlus && ast.IsString(result) {
		return stringOf(l, lt) + stringOf(r, rt), nil
	}
	lk, lok := in.kindOf(lt)
	rk, rok := in.kindOf(rt)
	if op.IsEquality() {
		if lok && rok && lk.IsNumeric() && rk.IsNumeric() && (ast.IsAnyPrimitive(lt) || ast.IsAnyPrimitive(rt)) {
			k := ast.BinaryPromotion(lk, rk)
			eq := compare(coerce(l, k), coerce(r, k)) == 0 && !isNaN(l) && !isNaN(r)
			return eq == (op == ast.OpEquals), nil
		}
		return (l == r) == (op == ast.OpEquals), nil
	}
	if !lok || !rok {
		return nil, fmt.Errorf("interp: operator %s on %s and %s", op, lt.ReadableName(), rt.ReadableName())
	}
	if lk == ast.PrimitiveBoolean {
		lb, rb := l.(bool), r.(bool)
		switch op {
		case ast.OpBitAnd:
			return lb && rb, nil
		case ast.OpBitOr:
			return lb || rb, nil
		case ast.OpBitXor:
			return lb != rb, nil
		}
		return nil, fmt.Errorf("interp: operator %s on booleans", op)
	}
	if op.IsShift() {
		return shift(op, coerce(l, ast.UnaryPromotion(lk)).(int64), toLong(r), ast.UnaryPromotion(lk)), nil
	}
	k := ast.BinaryPromotion(lk, rk)
	a, b := coerce(l, k), coerce(r, k)
	if op.IsRelational() {
		if isNaN(a) || isNaN(b) {
			return false, nil
		}
		c := compare(a, b)
		switch op {
		case ast.OpLess:
			return c < 0, nil
		case ast.OpGreater:
			return c > 0, nil
		case ast.OpLessEquals:
			return c <= 0, nil
		default:
			return c >= 0, nil
		}
	}
	if k == ast.PrimitiveFloat || k == ast.PrimitiveDouble {
		x, y := a.(float64), b.(float64)
		var v float64
		switch op {
		case ast.OpPlus:
			v = x + y
		case ast.OpMinus:
			v = x - y
		case ast.OpTimes:
			v = x * y
		case ast.OpDivide:
			v = x / y
		case ast.OpRemainder:
			v = math.Mod(x, y)
		default:
			return nil, fmt.Errorf("interp: operator %s on %s", op, k)
		}
		return coerce(v, k), nil
	}
	x, y := a.(int64), b.(int64)
	var v int64
	switch op {
	case ast.OpPlus:
		v = x + y
	case ast.OpMinus:
		v = x - y
	case ast.OpTimes:
		v = x * y
	case ast.OpDivide, ast.OpRemainder:
		if y == 0 {
			return nil, in.throw(in.arena.Known.Throwable, "/ by zero")
		}
		if op == ast.OpDivide {
			v = x / y
		} else {
			v = x % y
		}
	case ast.OpBitAnd:
		v = x & y
	case ast.OpBitOr:
		v = x | y
	case ast.OpBitXor:
		v = x ^ y
	default:
		return nil, fmt.Errorf("interp: operator %s on %s", op, k)
	}
	return coerce(v, k), nil
}

func shift(op ast.BinaryOperator, x, n int64, k ast.PrimitiveKind) Value {
	if k == ast.PrimitiveLong {
		n &= 63
		switch op.Underlying() {
		case ast.OpLeftShift:
			return x << n
		case ast.OpRightShift:
			return x >> n
		default:
			return int64(uint64(x) >> n)
		}
	}
	n &= 31
	switch op.Underlying() {
	case ast.OpLeftShift:
		return int64(int32(x << n))
	case ast.OpRightShift:
		return int64(int32(x) >> n)
	default:
		return int64(int32(uint32(x) >> n))
	}
}

func isNaN(v Value) bool {
	f, ok := v.(float64)
	return ok && math.IsNaN(f)
}

func compare(a, b Value) int {
	switch a := a.(type) {
	case int64:
		b := b.(int64)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	case float64:
		b := b.(float64)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	return 0
}

func (in *Interpreter) evalUnary(f *frame, e *ast.UnaryExpression) (Value, error) {
	if e.Op.IsIncrementOrDecrement() {
		lv, err := in.evalLvalue(f, e.Operand)
		if err != nil {
			return nil, err
		}
		old := lv.load()
		k, ok := in.kindOf(lv.typ)
		if !ok {
			return nil, fmt.Errorf("interp: %s on %s", e.Op, lv.typ.ReadableName())
		}
		delta := int64(1)
		if e.Op == ast.OpPreDecrement || e.Op == ast.OpPostDecrement {
			delta = -1
		}
		var updated Value
		if k == ast.PrimitiveFloat || k == ast.PrimitiveDouble {
			updated = coerce(toFloat(old)+float64(delta), k)
		} else {
			updated = coerce(toLong(old)+delta, k)
		}
		lv.store(updated)
		if e.Op.IsPostfix() {
			return old, nil
		}
		return updated, nil
	}

	v, err := in.eval(f, e.Operand)
	if err != nil {
		return nil, err
	}
	if e.Op == ast.OpNot {
		return !v.(bool), nil
	}
	k, ok := in.kindOf(e.Type)
	if !ok {
		return nil, fmt.Errorf("interp: %s on %s", e.Op, e.Type.ReadableName())
	}
	v = coerce(v, k)
	switch e.Op {
	case ast.OpNegate:
		if x, ok := v.(float64); ok {
			return -x, nil
		}
		return coerce(-v.(int64), k), nil
	case ast.OpComplement:
		return coerce(^v.(int64), k), nil
	}
	return v, nil
}
