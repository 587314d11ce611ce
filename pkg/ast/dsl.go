package ast

// Short constructors for building trees by hand, mostly in tests.

func Num(v float64) *NumberLiteral { return NewNumberLiteral(v) }

func Str(v string) *TextLiteral { return NewTextLiteral(v) }

func Bool(v bool) *LogicalLiteral { return NewLogicalLiteral(v) }

func ID(name string) *Variable { return NewVariable(name) }

func Arr(elements ...Expression) *ArrayLiteral { return NewArrayLiteral(elements) }

func Bin(op BinaryOperator, left, right Expression) *BinaryExpression {
	return NewBinaryExpression(op, left, right)
}

func Index(array, index Expression) *IndexExpression { return NewIndexExpression(array, index) }

func Assign(target AssignmentTarget, value Expression) *Assignment {
	return NewAssignment(target, value)
}

func Member(object Expression, name string) *MemberAccess {
	return NewMemberAccess(object, name, nil)
}

func CallFn(name string, args ...Expression) *Call { return NewCall(name, args, len(args) > 0) }

func Stmt(expr Expression) *ExpressionStatement { return NewExpressionStatement(expr) }

func Program(stmts ...Statement) *Block { return NewBlock(stmts, 0) }
