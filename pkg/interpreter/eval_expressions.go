package interpreter

import (
	"math"

	"scrum/interpreter-go/pkg/ast"
	"scrum/interpreter-go/pkg/impediment"
	"scrum/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evaluateExpression(node ast.Expression) (runtime.Value, error) {
	switch n := node.(type) {
	case nil:
		return runtime.Null, nil
	case *ast.NumberLiteral:
		return runtime.NumericValue{Val: n.Value}, nil
	case *ast.TextLiteral:
		return runtime.TextValue{Val: n.Value}, nil
	case *ast.LogicalLiteral:
		return runtime.Logical(n.Value), nil
	case *ast.NullLiteral:
		return runtime.Null, nil
	case *ast.ArrayLiteral:
		return i.evaluateArrayLiteral(n)
	case *ast.Variable:
		return i.evaluateVariable(n)
	case *ast.This:
		if r := i.receiver(); r != nil {
			return r, nil
		}
		return nil, impediment.NewRuntimeError(impediment.Name, "`this` is only available inside an EPIC")
	case *ast.BinaryExpression:
		return i.evaluateBinaryExpression(n)
	case *ast.UnaryExpression:
		return i.evaluateUnaryExpression(n)
	case *ast.IndexExpression:
		return i.evaluateIndexExpression(n)
	case *ast.Assignment:
		return i.evaluateAssignment(n)
	case *ast.MemberAccess:
		return i.evaluateMemberAccess(n)
	case *ast.Call:
		return i.evaluateCall(n)
	case *ast.New:
		return i.evaluateNew(n)
	default:
		return nil, impediment.NewRuntimeError(impediment.Unknown, "unsupported expression type: %s", n.NodeType())
	}
}

func (i *Interpreter) evaluateArrayLiteral(n *ast.ArrayLiteral) (runtime.Value, error) {
	values, err := i.evaluateAll(n.Elements)
	if err != nil {
		return nil, err
	}
	return runtime.NewArray(values), nil
}

func (i *Interpreter) evaluateAll(exprs []ast.Expression) ([]runtime.Value, error) {
	values := make([]runtime.Value, 0, len(exprs))
	for _, expr := range exprs {
		val, err := i.evaluateExpression(expr)
		if err != nil {
			return nil, err
		}
		values = append(values, val)
	}
	return values, nil
}

func (i *Interpreter) evaluateVariable(n *ast.Variable) (runtime.Value, error) {
	val, ok := i.mem.Get(i.currentMemory(), n.Name)
	if !ok {
		return nil, impediment.NewRuntimeError(impediment.Name, "Variable is not defined: %s", n.Name)
	}
	return val, nil
}

func (i *Interpreter) evaluateUnaryExpression(n *ast.UnaryExpression) (runtime.Value, error) {
	operand, err := i.evaluateExpression(n.Operand)
	if err != nil {
		return nil, err
	}
	logical, ok := operand.(runtime.LogicalValue)
	if !ok {
		return nil, impediment.NewRuntimeError(impediment.Type, "Unable to perform NOT operator for non logical value `%s`", runtime.Format(operand))
	}
	return runtime.Logical(!logical.Val), nil
}

func (i *Interpreter) evaluateBinaryExpression(n *ast.BinaryExpression) (runtime.Value, error) {
	if n.Operator == ast.OpAppend {
		return i.evaluateAppend(n)
	}
	left, err := i.evaluateExpression(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evaluateExpression(n.Right)
	if err != nil {
		return nil, err
	}
	return applyBinary(n.Operator, left, right)
}

// evaluateAppend pushes the right value onto an array on the left and yields
// the left side re-read. A non-array left side is left unchanged.
func (i *Interpreter) evaluateAppend(n *ast.BinaryExpression) (runtime.Value, error) {
	left, err := i.evaluateExpression(n.Left)
	if err != nil {
		return nil, err
	}
	if arr, ok := left.(*runtime.ArrayValue); ok {
		right, err := i.evaluateExpression(n.Right)
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, right)
	}
	return i.evaluateExpression(n.Left)
}

func (i *Interpreter) evaluateIndexExpression(n *ast.IndexExpression) (runtime.Value, error) {
	arr, idx, err := i.resolveIndex(n)
	if err != nil {
		return nil, err
	}
	return arr.Elements[idx], nil
}

// resolveIndex evaluates the array and a bounds-checked, truncated index.
func (i *Interpreter) resolveIndex(n *ast.IndexExpression) (*runtime.ArrayValue, int, error) {
	target, err := i.evaluateExpression(n.Array)
	if err != nil {
		return nil, 0, err
	}
	arr, ok := target.(*runtime.ArrayValue)
	if !ok {
		return nil, 0, impediment.NewRuntimeError(impediment.Type, "Cannot index non array value `%s`", runtime.Format(target))
	}
	indexVal, err := i.evaluateExpression(n.Index)
	if err != nil {
		return nil, 0, err
	}
	num, ok := indexVal.(runtime.NumericValue)
	if !ok {
		return nil, 0, impediment.NewRuntimeError(impediment.Type, "Array index must be numeric, got `%s`", runtime.Format(indexVal))
	}
	idx := int(math.Trunc(num.Val))
	if idx < 0 || idx >= len(arr.Elements) {
		return nil, 0, impediment.NewRuntimeError(impediment.Property, "Index %d is out of range for array of length %d", idx, len(arr.Elements))
	}
	return arr, idx, nil
}

// evaluateAssignment stores the value in the target and yields the target
// re-read.
func (i *Interpreter) evaluateAssignment(n *ast.Assignment) (runtime.Value, error) {
	val, err := i.evaluateExpression(n.Value)
	if err != nil {
		return nil, err
	}
	switch target := n.Target.(type) {
	case *ast.Variable:
		i.mem.Set(i.currentMemory(), target.Name, val)
	case *ast.IndexExpression:
		arr, idx, err := i.resolveIndex(target)
		if err != nil {
			return nil, err
		}
		arr.Elements[idx] = val
	case *ast.MemberAccess:
		if target.Call != nil {
			return nil, impediment.NewRuntimeError(impediment.Property, "Cannot assign to the result of %s", target.Name)
		}
		inst, err := i.evaluateInstance(target.Object, target.Name)
		if err != nil {
			return nil, err
		}
		i.mem.SetLocal(inst.Scope, target.Name, val)
	default:
		return nil, impediment.NewRuntimeError(impediment.Unknown, "unsupported assignment target: %s", n.Target.NodeType())
	}
	return i.evaluateExpression(n.Target)
}
