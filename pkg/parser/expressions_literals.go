package parser

import (
	"strconv"

	"scrum/interpreter-go/pkg/ast"
	"scrum/interpreter-go/pkg/impediment"
	"scrum/interpreter-go/pkg/lexer"
)

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok, ok := p.cur.PeekToken()
	if !ok {
		return nil, p.cur.Errorf(impediment.CodeSyntaxExpression, "Expected an expression but found %s", endOfInput)
	}

	switch tok.Kind {
	case lexer.Numeric:
		p.cur.Advance()
		val, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			p.cur.Back()
			return nil, p.cur.Errorf(impediment.CodeSyntaxExpression, "Invalid number %q", tok.Text)
		}
		return ast.SetLine(ast.NewNumberLiteral(val), tok.Line), nil
	case lexer.Text:
		p.cur.Advance()
		return ast.SetLine(ast.NewTextLiteral(tok.Text), tok.Line), nil
	case lexer.Logical:
		p.cur.Advance()
		return ast.SetLine(ast.NewLogicalLiteral(tok.Text == "true"), tok.Line), nil
	case lexer.Null:
		p.cur.Advance()
		return ast.SetLine(ast.NewNullLiteral(), tok.Line), nil
	case lexer.This:
		p.cur.Advance()
		return ast.SetLine(ast.NewThis(), tok.Line), nil
	case lexer.Variable:
		p.cur.Advance()
		return p.parseName(tok)
	case lexer.GroupDivider:
		if tok.Text == "{" {
			p.cur.Advance()
			elements, err := p.parseList("}")
			if err != nil {
				return nil, err
			}
			return ast.SetLine(ast.NewArrayLiteral(elements), tok.Line), nil
		}
	case lexer.Operator:
		switch tok.Text {
		case "(":
			p.cur.Advance()
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.cur.Next(lexer.Operator, ")"); err != nil {
				return nil, err
			}
			return expr, nil
		case "NEW":
			p.cur.Advance()
			return p.parseNew(tok)
		}
	}
	return nil, p.cur.Errorf(impediment.CodeSyntaxExpression, "Unexpected %s in expression", p.cur.describe())
}

// parseName decides between a call and a variable. A name followed by
// `USING [` is always a call; a bare name is a call only when a USER STORY of
// that name is already visible from the current definition scope.
func (p *Parser) parseName(tok lexer.Token) (ast.Expression, error) {
	if p.cur.Peek(lexer.GroupDivider, "USING [") {
		args, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		return ast.SetLine(ast.NewCall(tok.Text, args, true), tok.Line), nil
	}
	if _, ok := p.defs.LookupFunction(p.scope(), tok.Text); ok {
		return ast.SetLine(ast.NewCall(tok.Text, nil, false), tok.Line), nil
	}
	return ast.SetLine(ast.NewVariable(tok.Text), tok.Line), nil
}

// parseNew reads `NEW Name [USING [args]]`.
func (p *Parser) parseNew(start lexer.Token) (ast.Expression, error) {
	name, err := p.cur.Next(lexer.Variable)
	if err != nil {
		return nil, err
	}
	var args []ast.Expression
	if p.cur.Peek(lexer.GroupDivider, "USING [") {
		if args, err = p.parseArguments(); err != nil {
			return nil, err
		}
	}
	return ast.SetLine(ast.NewNew(name.Text, args), start.Line), nil
}
