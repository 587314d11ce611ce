package parser

import (
	"slices"

	"scrum/interpreter-go/pkg/ast"
	"scrum/interpreter-go/pkg/impediment"
	"scrum/interpreter-go/pkg/lexer"
)

// binaryLevels lists binary operators from loosest to tightest binding. IS
// sits below all of them and unary/postfix forms above.
var binaryLevels = [][]string{
	{"<<", "ADDING"},
	{"OR"},
	{"AND"},
	{"=", "==", "!="},
	{"<", ">", "<=", ">="},
	{"+", "-"},
	{"*", "/", "//", "%"},
}

var binaryOperators = map[string]ast.BinaryOperator{
	"<<":     ast.OpAppend,
	"ADDING": ast.OpAppend,
	"OR":     ast.OpOr,
	"AND":    ast.OpAnd,
	"=":      ast.OpEq,
	"==":     ast.OpEq,
	"!=":     ast.OpNotEq,
	"<":      ast.OpLess,
	">":      ast.OpGreater,
	"<=":     ast.OpLessEq,
	">=":     ast.OpGreaterEq,
	"+":      ast.OpAdd,
	"-":      ast.OpSub,
	"*":      ast.OpMul,
	"/":      ast.OpDiv,
	"//":     ast.OpFloorDiv,
	"%":      ast.OpMod,
}

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseAssignment()
}

// parseAssignment handles `target IS value`, which is right-associative.
func (p *Parser) parseAssignment() (ast.Expression, error) {
	left, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if !p.cur.Peek(lexer.Operator, "IS") {
		return left, nil
	}
	tok := p.cur.Advance()
	target, ok := left.(ast.AssignmentTarget)
	if !ok {
		p.cur.Back()
		return nil, p.cur.Errorf(impediment.CodeSyntaxExpression, "Cannot assign to %s; expected a variable, an index or a member", left.NodeType())
	}
	value, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return ast.SetLine(ast.NewAssignment(target, value), tok.Line), nil
}

func (p *Parser) parseBinary(level int) (ast.Expression, error) {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.cur.PeekToken()
		if !ok || tok.Kind != lexer.Operator || !slices.Contains(binaryLevels[level], tok.Text) {
			return left, nil
		}
		p.cur.Advance()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = ast.SetLine(ast.NewBinaryExpression(binaryOperators[tok.Text], left, right), tok.Line)
	}
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	tok, ok := p.cur.PeekToken()
	if ok && tok.Is(lexer.Operator, "!") {
		p.cur.Advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.SetLine(ast.NewUnaryExpression(ast.OpNot, operand), tok.Line), nil
	}
	if ok && tok.Is(lexer.Operator, "-") {
		// -expr is read as 0 - expr
		p.cur.Advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		zero := ast.SetLine(ast.NewNumberLiteral(0), tok.Line)
		return ast.SetLine(ast.NewBinaryExpression(ast.OpSub, zero, operand), tok.Line), nil
	}
	return p.parsePostfix()
}

// parsePostfix applies member access (`obj :: name [USING [...]]`) and
// indexing (`arr[i]`) to a primary expression.
func (p *Parser) parsePostfix() (ast.Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.cur.Peek(lexer.Operator, "::"):
			tok := p.cur.Advance()
			name, err := p.cur.Next(lexer.Variable)
			if err != nil {
				return nil, err
			}
			var call *ast.Call
			if p.cur.Peek(lexer.GroupDivider, "USING [") {
				args, err := p.parseArguments()
				if err != nil {
					return nil, err
				}
				call = ast.SetLine(ast.NewCall(name.Text, args, true), name.Line)
			}
			expr = ast.SetLine(ast.NewMemberAccess(expr, name.Text, call), tok.Line)
		case p.cur.Peek(lexer.GroupDivider, "["):
			tok := p.cur.Advance()
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.cur.Next(lexer.GroupDivider, "]"); err != nil {
				return nil, err
			}
			expr = ast.SetLine(ast.NewIndexExpression(expr, index), tok.Line)
		default:
			return expr, nil
		}
	}
}

// parseArguments reads `USING [a, b]`.
func (p *Parser) parseArguments() ([]ast.Expression, error) {
	if _, err := p.cur.Next(lexer.GroupDivider, "USING ["); err != nil {
		return nil, err
	}
	return p.parseList("]")
}

// parseList reads comma separated expressions up to and including closer.
func (p *Parser) parseList(closer string) ([]ast.Expression, error) {
	items := []ast.Expression{}
	for !p.cur.Peek(lexer.GroupDivider, closer) {
		if p.cur.AtEnd() {
			_, err := p.cur.Next(lexer.GroupDivider, closer)
			return nil, err
		}
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.cur.Peek(lexer.GroupDivider, ",") {
			p.cur.Advance()
		} else if !p.cur.Peek(lexer.GroupDivider, closer) {
			_, err := p.cur.Next(lexer.GroupDivider, ",", closer)
			return nil, err
		}
	}
	p.cur.Advance()
	return items, nil
}
