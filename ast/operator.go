package ast

// BinaryOperator is the operator of a BinaryExpression.
type BinaryOperator int

const (
	OpAssign BinaryOperator = iota
	OpPlusAssign
	OpMinusAssign
	OpTimesAssign
	OpDivideAssign
	OpRemainderAssign
	OpLeftShiftAssign
	OpRightShiftAssign
	OpUnsignedRightShiftAssign
	OpBitAndAssign
	OpBitOrAssign
	OpBitXorAssign

	OpPlus
	OpMinus
	OpTimes
	OpDivide
	OpRemainder
	OpLeftShift
	OpRightShift
	OpUnsignedRightShift
	OpBitAnd
	OpBitOr
	OpBitXor
	OpLess
	OpGreater
	OpLessEquals
	OpGreaterEquals
	OpEquals
	OpNotEquals
	OpConditionalAnd
	OpConditionalOr

	numBinaryOperators
)

var binaryOperatorSymbols = [...]string{
	OpAssign:                   "=",
	OpPlusAssign:               "+=",
	OpMinusAssign:              "-=",
	OpTimesAssign:              "*=",
	OpDivideAssign:             "/=",
	OpRemainderAssign:          "%=",
	OpLeftShiftAssign:          "<<=",
	OpRightShiftAssign:         ">>=",
	OpUnsignedRightShiftAssign: ">>>=",
	OpBitAndAssign:             "&=",
	OpBitOrAssign:              "|=",
	OpBitXorAssign:             "^=",
	OpPlus:                     "+",
	OpMinus:                    "-",
	OpTimes:                    "*",
	OpDivide:                   "/",
	OpRemainder:                "%",
	OpLeftShift:                "<<",
	OpRightShift:               ">>",
	OpUnsignedRightShift:       ">>>",
	OpLess:                     "<",
	OpGreater:                  ">",
	OpLessEquals:               "<=",
	OpGreaterEquals:            ">=",
	OpEquals:                   "==",
	OpNotEquals:                "!=",
	OpBitAnd:                   "&",
	OpBitOr:                    "|",
	OpBitXor:                   "^",
	OpConditionalAnd:           "&&",
	OpConditionalOr:            "||",
}

// String returns the operator symbol.
func (op BinaryOperator) String() string {
	if op < 0 || op >= numBinaryOperators {
		return "?"
	}
	return binaryOperatorSymbols[op]
}

// ParseBinaryOperator is the inverse of BinaryOperator.String.
func ParseBinaryOperator(s string) (BinaryOperator, bool) {
	for op := OpAssign; op < numBinaryOperators; op++ {
		if binaryOperatorSymbols[op] == s {
			return op, true
		}
	}
	return 0, false
}

// IsAssignment reports whether op is = or a compound assignment.
func (op BinaryOperator) IsAssignment() bool { return op >= OpAssign && op <= OpBitXorAssign }

// IsCompoundAssignment reports whether op is a compound assignment such as
// +=.
func (op BinaryOperator) IsCompoundAssignment() bool {
	return op > OpAssign && op <= OpBitXorAssign
}

// Underlying returns the arithmetic operator of a compound assignment, or
// op itself.
func (op BinaryOperator) Underlying() BinaryOperator {
	if !op.IsCompoundAssignment() {
		return op
	}
	return op - OpPlusAssign + OpPlus
}

// IsShift reports whether op is a shift, ignoring assignment.
func (op BinaryOperator) IsShift() bool {
	switch op.Underlying() {
	case OpLeftShift, OpRightShift, OpUnsignedRightShift:
		return true
	}
	return false
}

// IsRelational reports whether op compares two numbers.
func (op BinaryOperator) IsRelational() bool {
	return op >= OpLess && op <= OpGreaterEquals
}

// IsEquality reports whether op is == or !=.
func (op BinaryOperator) IsEquality() bool { return op == OpEquals || op == OpNotEquals }

// IsBitwise reports whether op is &, | or ^, ignoring assignment.
func (op BinaryOperator) IsBitwise() bool {
	switch op.Underlying() {
	case OpBitAnd, OpBitOr, OpBitXor:
		return true
	}
	return false
}

// IsShortCircuit reports whether op is && or ||.
func (op BinaryOperator) IsShortCircuit() bool {
	return op == OpConditionalAnd || op == OpConditionalOr
}

// IsArithmetic reports whether op is + - * / %, ignoring assignment.
func (op BinaryOperator) IsArithmetic() bool {
	u := op.Underlying()
	return u >= OpPlus && u <= OpRemainder
}

// UnaryOperator is the operator of a UnaryExpression.
type UnaryOperator int

const (
	OpUnaryPlus UnaryOperator = iota
	OpNegate
	OpNot
	OpComplement
	OpPreIncrement
	OpPreDecrement
	OpPostIncrement
	OpPostDecrement

	numUnaryOperators
)

var unaryOperatorNames = [...]string{
	OpUnaryPlus:     "+",
	OpNegate:        "-",
	OpNot:           "!",
	OpComplement:    "~",
	OpPreIncrement:  "++x",
	OpPreDecrement:  "--x",
	OpPostIncrement: "x++",
	OpPostDecrement: "x--",
}

// String returns the operator name; increments and decrements show the
// operand position as x.
func (op UnaryOperator) String() string {
	if op < 0 || op >= numUnaryOperators {
		return "?"
	}
	return unaryOperatorNames[op]
}

// ParseUnaryOperator is the inverse of UnaryOperator.String.
func ParseUnaryOperator(s string) (UnaryOperator, bool) {
	for op := OpUnaryPlus; op < numUnaryOperators; op++ {
		if unaryOperatorNames[op] == s {
			return op, true
		}
	}
	return 0, false
}

// IsIncrementOrDecrement reports whether op updates its operand.
func (op UnaryOperator) IsIncrementOrDecrement() bool { return op >= OpPreIncrement }

// IsPostfix reports whether op is written after its operand.
func (op UnaryOperator) IsPostfix() bool {
	return op == OpPostIncrement || op == OpPostDecrement
}
