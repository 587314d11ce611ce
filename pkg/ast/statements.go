package ast

// Block is an ordered statement list bound to the definition scope its
// declarations were registered in.
type Block struct {
	nodeImpl
	statementMarker

	Statements []Statement `json:"statements"`
	Scope      ScopeID     `json:"scope"`
}

func NewBlock(statements []Statement, scope ScopeID) *Block {
	return &Block{nodeImpl: newNodeImpl(NodeBlock), Statements: statements, Scope: scope}
}

type ExpressionStatement struct {
	nodeImpl
	statementMarker

	Expression Expression `json:"expression"`
}

func NewExpressionStatement(expr Expression) *ExpressionStatement {
	return &ExpressionStatement{nodeImpl: newNodeImpl(NodeExpressionStatement), Expression: expr}
}

// Console

type Say struct {
	nodeImpl
	statementMarker

	Value Expression `json:"value"`
}

func NewSay(value Expression) *Say {
	return &Say{nodeImpl: newNodeImpl(NodeSay), Value: value}
}

type Ask struct {
	nodeImpl
	statementMarker

	Name string `json:"name"`
}

func NewAsk(name string) *Ask {
	return &Ask{nodeImpl: newNodeImpl(NodeAsk), Name: name}
}

// Control flow

// Case pairs a condition with the body run when it is the first true one.
// ELSE is parsed as a case whose condition is the literal true.
type Case struct {
	Condition Expression `json:"condition"`
	Body      *Block     `json:"body"`
}

type Condition struct {
	nodeImpl
	statementMarker

	Cases []*Case `json:"cases"`
}

func NewCondition(cases []*Case) *Condition {
	return &Condition{nodeImpl: newNodeImpl(NodeCondition), Cases: cases}
}

// CountedLoop runs Body with Var stepping from Lower towards Upper
// (exclusive). Step is nil when no `by` clause was written.
type CountedLoop struct {
	nodeImpl
	statementMarker

	Var   string     `json:"var"`
	Lower Expression `json:"lower"`
	Upper Expression `json:"upper"`
	Step  Expression `json:"step,omitempty"`
	Body  *Block     `json:"body"`
}

func NewCountedLoop(variable string, lower, upper, step Expression, body *Block) *CountedLoop {
	return &CountedLoop{nodeImpl: newNodeImpl(NodeCountedLoop), Var: variable, Lower: lower, Upper: upper, Step: step, Body: body}
}

type IterateLoop struct {
	nodeImpl
	statementMarker

	Var      string     `json:"var"`
	Iterable Expression `json:"iterable"`
	Body     *Block     `json:"body"`
}

func NewIterateLoop(variable string, iterable Expression, body *Block) *IterateLoop {
	return &IterateLoop{nodeImpl: newNodeImpl(NodeIterateLoop), Var: variable, Iterable: iterable, Body: body}
}

type WhileLoop struct {
	nodeImpl
	statementMarker

	Condition Expression `json:"condition"`
	Body      *Block     `json:"body"`
}

func NewWhileLoop(condition Expression, body *Block) *WhileLoop {
	return &WhileLoop{nodeImpl: newNodeImpl(NodeWhileLoop), Condition: condition, Body: body}
}

type Break struct {
	nodeImpl
	statementMarker
}

func NewBreak() *Break {
	return &Break{nodeImpl: newNodeImpl(NodeBreak)}
}

type Next struct {
	nodeImpl
	statementMarker
}

func NewNext() *Next {
	return &Next{nodeImpl: newNodeImpl(NodeNext)}
}

type Return struct {
	nodeImpl
	statementMarker

	Value Expression `json:"value"`
}

func NewReturn(value Expression) *Return {
	return &Return{nodeImpl: newNodeImpl(NodeReturn), Value: value}
}

// IntentBlock holds natural-language text awaiting code generation. Scope is
// the definition scope generated code is parsed against.
type IntentBlock struct {
	nodeImpl
	statementMarker

	Text  string  `json:"text"`
	Scope ScopeID `json:"scope"`
}

func NewIntentBlock(text string, scope ScopeID) *IntentBlock {
	return &IntentBlock{nodeImpl: newNodeImpl(NodeIntentBlock), Text: text, Scope: scope}
}
