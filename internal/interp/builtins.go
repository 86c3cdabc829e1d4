package interp

import (
	"fmt"

	"github.com/broady/bridgec/ast"
)

// builtin implements a method of the core library or the runtime.
type builtin func(in *Interpreter, this Value, args []Value) (Value, error)

func builtins(k *ast.Known) map[*ast.MethodDescriptor]builtin {
	b := make(map[*ast.MethodDescriptor]builtin)
	method := func(d *ast.TypeDeclaration, name string, arity int, fn builtin) {
		m := d.Method(name, arity)
		if m == nil {
			panic(fmt.Sprintf("interp: %s has no method %s/%d", d.QualifiedName(), name, arity))
		}
		b[m] = fn
	}

	method(k.Object, "<init>", 0, func(*Interpreter, Value, []Value) (Value, error) { return nil, nil })
	method(k.Object, "equals", 1, func(_ *Interpreter, this Value, args []Value) (Value, error) {
		return this == args[0], nil
	})
	// Hash codes are not observable in the trees under test.
	method(k.Object, "hashCode", 0, func(*Interpreter, Value, []Value) (Value, error) { return int64(0), nil })
	method(k.Object, "toString", 0, func(_ *Interpreter, this Value, _ []Value) (Value, error) {
		return stringOf(this, nil), nil
	})

	method(k.Throwable, "<init>", 0, func(*Interpreter, Value, []Value) (Value, error) { return nil, nil })
	method(k.Throwable, "<init>", 1, func(_ *Interpreter, this Value, args []Value) (Value, error) {
		this.(*Object).message = args[0]
		return nil, nil
	})
	method(k.Throwable, "getMessage", 0, func(_ *Interpreter, this Value, _ []Value) (Value, error) {
		return this.(*Object).message, nil
	})
	method(k.Throwable, "addSuppressed", 1, func(_ *Interpreter, this Value, args []Value) (Value, error) {
		exc, ok := args[0].(*Object)
		if !ok {
			return nil, fmt.Errorf("interp: addSuppressed(%T)", args[0])
		}
		t := this.(*Object)
		t.suppressed = append(t.suppressed, exc)
		return nil, nil
	})
	method(k.Throwable, "getSuppressed", 0, func(in *Interpreter, this Value, _ []Value) (Value, error) {
		a := &Array{Type: in.arena.Array(k.Throwable.Descriptor())}
		for _, s := range this.(*Object).suppressed {
			a.Elems = append(a.Elems, s)
		}
		return a, nil
	})

	method(k.Enum, "<init>", 2, func(_ *Interpreter, this Value, args []Value) (Value, error) {
		o := this.(*Object)
		o.enumName, _ = args[0].(string)
		o.ordinal = toLong(args[1])
		return nil, nil
	})
	method(k.Enum, "name", 0, func(_ *Interpreter, this Value, _ []Value) (Value, error) {
		return this.(*Object).enumName, nil
	})
	method(k.Enum, "ordinal", 0, func(_ *Interpreter, this Value, _ []Value) (Value, error) {
		return this.(*Object).ordinal, nil
	})
	method(k.Enum, "compareTo", 1, func(_ *Interpreter, this Value, args []Value) (Value, error) {
		other, ok := args[0].(*Object)
		if !ok {
			return nil, fmt.Errorf("interp: compareTo(%T)", args[0])
		}
		return this.(*Object).ordinal - other.ordinal, nil
	})

	method(k.System, "getProperty", 1, func(*Interpreter, Value, []Value) (Value, error) { return nil, nil })

	for kind, box := range k.Boxes {
		kind := kind
		method(box, "valueOf", 1, func(_ *Interpreter, _ Value, args []Value) (Value, error) {
			return coerce(args[0], kind), nil
		})
		method(box, kind.String()+"Value", 0, func(_ *Interpreter, this Value, _ []Value) (Value, error) {
			if this == nil {
				return nil, fmt.Errorf("interp: unboxing null")
			}
			return coerce(this, kind), nil
		})
	}

	for _, m := range k.Primitives.Methods {
		to := m.Return.(*ast.PrimitiveDescriptor).PrimitiveKind
		b[m] = func(_ *Interpreter, _ Value, args []Value) (Value, error) {
			return coerce(args[0], to), nil
		}
	}

	b[k.SafeClose()] = safeClose
	return b
}

// safeClose closes resource, if any, and returns the exception to
// propagate: primary when set, with a close failure recorded as suppressed,
// otherwise the close failure.
func safeClose(in *Interpreter, _ Value, args []Value) (Value, error) {
	resource, primary := args[0], args[1]
	if resource == nil {
		return primary, nil
	}
	closeMethod := in.arena.Known.AutoCloseable.Method("close", 0)
	_, err := in.callVirtual(closeMethod, resource, nil)
	if err == nil {
		return primary, nil
	}
	exc, ok := AsThrown(err)
	if !ok {
		return nil, err
	}
	if primary == nil {
		return exc, nil
	}
	p := primary.(*Object)
	p.suppressed = append(p.suppressed, exc)
	return p, nil
}
