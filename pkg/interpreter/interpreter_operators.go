package interpreter

import (
	"math"
	"strings"

	"scrum/interpreter-go/pkg/ast"
	"scrum/interpreter-go/pkg/impediment"
	"scrum/interpreter-go/pkg/runtime"
)

func applyBinary(op ast.BinaryOperator, left, right runtime.Value) (runtime.Value, error) {
	switch op {
	case ast.OpAdd:
		return add(left, right)
	case ast.OpMul:
		return multiply(left, right)
	case ast.OpSub, ast.OpDiv, ast.OpFloorDiv, ast.OpMod:
		return arithmetic(op, left, right)
	case ast.OpLess, ast.OpGreater, ast.OpLessEq, ast.OpGreaterEq:
		return compare(op, left, right)
	case ast.OpEq:
		return runtime.Logical(runtime.Equal(left, right)), nil
	case ast.OpNotEq:
		return runtime.Logical(!runtime.Equal(left, right)), nil
	case ast.OpAnd, ast.OpOr:
		return logical(op, left, right)
	default:
		return nil, impediment.NewRuntimeError(impediment.Unknown, "unsupported binary operator %s", op)
	}
}

// add sums numbers, concatenates arrays into a new array when either side is
// one, and otherwise joins textual forms.
func add(left, right runtime.Value) (runtime.Value, error) {
	if l, ok := left.(runtime.NumericValue); ok {
		if r, ok := right.(runtime.NumericValue); ok {
			return runtime.NumericValue{Val: l.Val + r.Val}, nil
		}
	}
	la, leftArr := left.(*runtime.ArrayValue)
	ra, rightArr := right.(*runtime.ArrayValue)
	if leftArr || rightArr {
		out := make([]runtime.Value, 0)
		out = appendOperand(out, la, left, leftArr)
		out = appendOperand(out, ra, right, rightArr)
		return runtime.NewArray(out), nil
	}
	return runtime.TextValue{Val: runtime.Format(left) + runtime.Format(right)}, nil
}

func appendOperand(out []runtime.Value, arr *runtime.ArrayValue, v runtime.Value, isArr bool) []runtime.Value {
	if isArr {
		return append(out, arr.Elements...)
	}
	return append(out, v)
}

// multiply also repeats text when the other side is a number.
func multiply(left, right runtime.Value) (runtime.Value, error) {
	if text, ok := left.(runtime.TextValue); ok {
		if n, ok := right.(runtime.NumericValue); ok {
			return repeat(text.Val, n.Val), nil
		}
	}
	if n, ok := left.(runtime.NumericValue); ok {
		if text, ok := right.(runtime.TextValue); ok {
			return repeat(text.Val, n.Val), nil
		}
	}
	return arithmetic(ast.OpMul, left, right)
}

func repeat(s string, times float64) runtime.Value {
	n := int(math.Trunc(times))
	if n < 0 {
		n = 0
	}
	return runtime.TextValue{Val: strings.Repeat(s, n)}
}

func arithmetic(op ast.BinaryOperator, left, right runtime.Value) (runtime.Value, error) {
	l, r, err := numericOperands(op, left, right)
	if err != nil {
		return nil, err
	}
	switch op {
	case ast.OpSub:
		return runtime.NumericValue{Val: l - r}, nil
	case ast.OpMul:
		return runtime.NumericValue{Val: l * r}, nil
	}
	if r == 0 {
		return nil, impediment.NewRuntimeError(impediment.Arithmetic, "Division by zero is not allowed")
	}
	switch op {
	case ast.OpDiv:
		return runtime.NumericValue{Val: l / r}, nil
	case ast.OpFloorDiv:
		return runtime.NumericValue{Val: math.Floor(l / r)}, nil
	default:
		return runtime.NumericValue{Val: math.Mod(l, r)}, nil
	}
}

func numericOperands(op ast.BinaryOperator, left, right runtime.Value) (float64, float64, error) {
	if isNull(left) || isNull(right) {
		return 0, 0, impediment.NewRuntimeError(impediment.Arithmetic, "Unable to perform `%s` with null value", op)
	}
	l, lok := left.(runtime.NumericValue)
	r, rok := right.(runtime.NumericValue)
	if !lok || !rok {
		return 0, 0, impediment.NewRuntimeError(impediment.Type, "Unable to perform `%s` for `%s` and `%s`", op, runtime.Format(left), runtime.Format(right))
	}
	return l.Val, r.Val, nil
}

func compare(op ast.BinaryOperator, left, right runtime.Value) (runtime.Value, error) {
	c, err := runtime.Compare(left, right)
	if err != nil {
		return nil, err
	}
	switch op {
	case ast.OpLess:
		return runtime.Logical(c < 0), nil
	case ast.OpGreater:
		return runtime.Logical(c > 0), nil
	case ast.OpLessEq:
		return runtime.Logical(c <= 0), nil
	default:
		return runtime.Logical(c >= 0), nil
	}
}

func logical(op ast.BinaryOperator, left, right runtime.Value) (runtime.Value, error) {
	l, lok := left.(runtime.LogicalValue)
	r, rok := right.(runtime.LogicalValue)
	if !lok || !rok {
		return nil, impediment.NewRuntimeError(impediment.Type, "Unable to perform `%s` for non logical values `%s` and `%s`", op, runtime.Format(left), runtime.Format(right))
	}
	if op == ast.OpAnd {
		return runtime.Logical(l.Val && r.Val), nil
	}
	return runtime.Logical(l.Val || r.Val), nil
}

func isNull(v runtime.Value) bool {
	return v == nil || v.Kind() == runtime.KindNull
}
