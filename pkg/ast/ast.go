package ast

type NodeType string

const (
	NodeNumberLiteral       NodeType = "NumberLiteral"
	NodeTextLiteral         NodeType = "TextLiteral"
	NodeLogicalLiteral      NodeType = "LogicalLiteral"
	NodeNullLiteral         NodeType = "NullLiteral"
	NodeArrayLiteral        NodeType = "ArrayLiteral"
	NodeVariable            NodeType = "Variable"
	NodeThis                NodeType = "This"
	NodeBinaryExpression    NodeType = "BinaryExpression"
	NodeUnaryExpression     NodeType = "UnaryExpression"
	NodeIndexExpression     NodeType = "IndexExpression"
	NodeAssignment          NodeType = "Assignment"
	NodeMemberAccess        NodeType = "MemberAccess"
	NodeCall                NodeType = "Call"
	NodeNew                 NodeType = "New"
	NodeBlock               NodeType = "Block"
	NodeExpressionStatement NodeType = "ExpressionStatement"
	NodeSay                 NodeType = "Say"
	NodeAsk                 NodeType = "Ask"
	NodeCondition           NodeType = "Condition"
	NodeCountedLoop         NodeType = "CountedLoop"
	NodeIterateLoop         NodeType = "IterateLoop"
	NodeWhileLoop           NodeType = "WhileLoop"
	NodeBreak               NodeType = "Break"
	NodeNext                NodeType = "Next"
	NodeReturn              NodeType = "Return"
	NodeClassDeclaration    NodeType = "ClassDeclaration"
	NodeFunctionDeclaration NodeType = "FunctionDeclaration"
	NodeApiDeclaration      NodeType = "ApiDeclaration"
	NodeBaseStatement       NodeType = "BaseStatement"
	NodeEndpoint            NodeType = "Endpoint"
	NodeIntentBlock         NodeType = "IntentBlock"
)

// ScopeID addresses a definition scope held by the runtime arena.
type ScopeID int

// NoScope marks the absence of a definition scope (the root has no parent).
const NoScope ScopeID = -1

type Node interface {
	NodeType() NodeType
	Line() int
	isNode()
}

type nodeImpl struct {
	Type    NodeType `json:"type"`
	SrcLine int      `json:"line,omitempty"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (n nodeImpl) Line() int          { return n.SrcLine }
func (nodeImpl) isNode()              {}

func (n *nodeImpl) setLine(line int) { n.SrcLine = line }

// SetLine records the source line a node was parsed from.
func SetLine[T Node](node T, line int) T {
	if s, ok := any(node).(interface{ setLine(int) }); ok {
		s.setLine(line)
	}
	return node
}

// Marker interfaces.

type Expression interface {
	Node
	expressionNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

// AssignmentTarget is implemented by the expressions that may appear on the
// left of IS.
type AssignmentTarget interface {
	Expression
	assignmentTargetNode()
}

type assignmentTargetMarker struct{}

func (assignmentTargetMarker) assignmentTargetNode() {}

// Literals

type NumberLiteral struct {
	nodeImpl
	expressionMarker

	Value float64 `json:"value"`
}

func NewNumberLiteral(value float64) *NumberLiteral {
	return &NumberLiteral{nodeImpl: newNodeImpl(NodeNumberLiteral), Value: value}
}

type TextLiteral struct {
	nodeImpl
	expressionMarker

	Value string `json:"value"`
}

func NewTextLiteral(value string) *TextLiteral {
	return &TextLiteral{nodeImpl: newNodeImpl(NodeTextLiteral), Value: value}
}

type LogicalLiteral struct {
	nodeImpl
	expressionMarker

	Value bool `json:"value"`
}

func NewLogicalLiteral(value bool) *LogicalLiteral {
	return &LogicalLiteral{nodeImpl: newNodeImpl(NodeLogicalLiteral), Value: value}
}

type NullLiteral struct {
	nodeImpl
	expressionMarker
}

func NewNullLiteral() *NullLiteral {
	return &NullLiteral{nodeImpl: newNodeImpl(NodeNullLiteral)}
}

// ArrayLiteral evaluates to a fresh array every time it runs.
type ArrayLiteral struct {
	nodeImpl
	expressionMarker

	Elements []Expression `json:"elements"`
}

func NewArrayLiteral(elements []Expression) *ArrayLiteral {
	return &ArrayLiteral{nodeImpl: newNodeImpl(NodeArrayLiteral), Elements: elements}
}

// Names

type Variable struct {
	nodeImpl
	expressionMarker
	assignmentTargetMarker

	Name string `json:"name"`
}

func NewVariable(name string) *Variable {
	return &Variable{nodeImpl: newNodeImpl(NodeVariable), Name: name}
}

type This struct {
	nodeImpl
	expressionMarker
}

func NewThis() *This {
	return &This{nodeImpl: newNodeImpl(NodeThis)}
}

// Operators

type BinaryOperator string

const (
	OpAdd       BinaryOperator = "+"
	OpSub       BinaryOperator = "-"
	OpMul       BinaryOperator = "*"
	OpDiv       BinaryOperator = "/"
	OpFloorDiv  BinaryOperator = "//"
	OpMod       BinaryOperator = "%"
	OpLess      BinaryOperator = "<"
	OpGreater   BinaryOperator = ">"
	OpLessEq    BinaryOperator = "<="
	OpGreaterEq BinaryOperator = ">="
	OpEq        BinaryOperator = "=="
	OpNotEq     BinaryOperator = "!="
	OpAnd       BinaryOperator = "AND"
	OpOr        BinaryOperator = "OR"
	OpAppend    BinaryOperator = "ADDING"
)

type BinaryExpression struct {
	nodeImpl
	expressionMarker

	Operator BinaryOperator `json:"operator"`
	Left     Expression     `json:"left"`
	Right    Expression     `json:"right"`
}

func NewBinaryExpression(operator BinaryOperator, left, right Expression) *BinaryExpression {
	return &BinaryExpression{nodeImpl: newNodeImpl(NodeBinaryExpression), Operator: operator, Left: left, Right: right}
}

type IndexExpression struct {
	nodeImpl
	expressionMarker
	assignmentTargetMarker

	Array Expression `json:"array"`
	Index Expression `json:"index"`
}

func NewIndexExpression(array, index Expression) *IndexExpression {
	return &IndexExpression{nodeImpl: newNodeImpl(NodeIndexExpression), Array: array, Index: index}
}

type UnaryOperator string

const OpNot UnaryOperator = "!"

type UnaryExpression struct {
	nodeImpl
	expressionMarker

	Operator UnaryOperator `json:"operator"`
	Operand  Expression    `json:"operand"`
}

func NewUnaryExpression(operator UnaryOperator, operand Expression) *UnaryExpression {
	return &UnaryExpression{nodeImpl: newNodeImpl(NodeUnaryExpression), Operator: operator, Operand: operand}
}

type Assignment struct {
	nodeImpl
	expressionMarker

	Target AssignmentTarget `json:"target"`
	Value  Expression       `json:"value"`
}

func NewAssignment(target AssignmentTarget, value Expression) *Assignment {
	return &Assignment{nodeImpl: newNodeImpl(NodeAssignment), Target: target, Value: value}
}

// MemberAccess reads a field (Call == nil) or invokes a method on an instance.
type MemberAccess struct {
	nodeImpl
	expressionMarker
	assignmentTargetMarker

	Object Expression `json:"object"`
	Name   string     `json:"name"`
	Call   *Call      `json:"call,omitempty"`
}

func NewMemberAccess(object Expression, name string, call *Call) *MemberAccess {
	return &MemberAccess{nodeImpl: newNodeImpl(NodeMemberAccess), Object: object, Name: name, Call: call}
}

// Call invokes a USER STORY. HasArgs records whether a USING group was given.
type Call struct {
	nodeImpl
	expressionMarker

	Name    string       `json:"name"`
	Args    []Expression `json:"args,omitempty"`
	HasArgs bool         `json:"hasArgs,omitempty"`
}

func NewCall(name string, args []Expression, hasArgs bool) *Call {
	return &Call{nodeImpl: newNodeImpl(NodeCall), Name: name, Args: args, HasArgs: hasArgs}
}

type New struct {
	nodeImpl
	expressionMarker

	Class string       `json:"class"`
	Args  []Expression `json:"args,omitempty"`
}

func NewNew(class string, args []Expression) *New {
	return &New{nodeImpl: newNodeImpl(NodeNew), Class: class, Args: args}
}
