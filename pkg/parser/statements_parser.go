package parser

import (
	"scrum/interpreter-go/pkg/ast"
	"scrum/interpreter-go/pkg/impediment"
	"scrum/interpreter-go/pkg/lexer"
)

func (p *Parser) parseSay() (ast.Statement, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return ast.NewSay(expr), nil
}

func (p *Parser) parseAsk() (ast.Statement, error) {
	tok, err := p.cur.Next(lexer.Variable)
	if err != nil {
		return nil, err
	}
	return ast.NewAsk(tok.Text), nil
}

func (p *Parser) parseReturn() (ast.Statement, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return ast.NewReturn(expr), nil
}

// parseCondition reads IF ... [ELSEIF ...]* [ELSE ...] END IF. Every case
// body gets its own definition scope; ELSE is a case whose condition is true.
func (p *Parser) parseCondition(start lexer.Token) (ast.Statement, error) {
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	line := start.Line
	var cases []*ast.Case
	sawElse := false
	for {
		body, err := p.parseChildBlock(line)
		if err != nil {
			return nil, err
		}
		cases = append(cases, &ast.Case{Condition: cond, Body: body})

		tok, ok := p.cur.PeekToken()
		if !ok || !tok.Is(lexer.Keyword, "ELSEIF", "ELSE", "END IF") {
			return nil, p.expectCloser("END IF", "IF", start.Line, impediment.CodeSyntaxStructure)
		}
		if sawElse && tok.Text != "END IF" {
			return nil, p.cur.Errorf(impediment.CodeSyntaxStructure, "%s cannot follow the ELSE of the IF opened at line %d", tok.Text, start.Line)
		}
		p.cur.Advance()
		line = tok.Line
		switch tok.Text {
		case "END IF":
			return ast.NewCondition(cases), nil
		case "ELSEIF":
			if cond, err = p.parseExpression(); err != nil {
				return nil, err
			}
		case "ELSE":
			sawElse = true
			cond = ast.SetLine(ast.NewLogicalLiteral(true), tok.Line)
		}
	}
}

// parseLoop picks the loop form from what follows the head expression:
//
//	I WANT TO ITERATE i FOR RANGE 0 TILL 10 by 2   counted
//	I WANT TO ITERATE item FOR RANGE items         iterate over
//	I WANT TO ITERATE x < 10                       while
func (p *Parser) parseLoop(start lexer.Token) (ast.Statement, error) {
	head, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	build := func(body *ast.Block) ast.Statement {
		return ast.NewWhileLoop(head, body)
	}
	if variable, ok := head.(*ast.Variable); ok && p.cur.Peek(lexer.Keyword, "FOR RANGE") {
		p.cur.Advance()
		lower, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.cur.Peek(lexer.GroupDivider, "TILL", "..") {
			p.cur.Advance()
			upper, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			var step ast.Expression
			if p.cur.Peek(lexer.Keyword, "by") {
				p.cur.Advance()
				if step, err = p.parseExpression(); err != nil {
					return nil, err
				}
			}
			build = func(body *ast.Block) ast.Statement {
				return ast.NewCountedLoop(variable.Name, lower, upper, step, body)
			}
		} else {
			build = func(body *ast.Block) ast.Statement {
				return ast.NewIterateLoop(variable.Name, lower, body)
			}
		}
	}

	body, err := p.parseChildBlock(start.Line)
	if err != nil {
		return nil, err
	}
	if err := p.expectCloser("END OF ITERATION", "loop", start.Line, impediment.CodeSyntaxStructure); err != nil {
		return nil, err
	}
	return build(body), nil
}

// parseIntent reads the raw text captured by the lexer between #INTENT and
// #END INTENT.
func (p *Parser) parseIntent() (ast.Statement, error) {
	text := ""
	if p.cur.Peek(lexer.Text) {
		text = p.cur.Advance().Text
	}
	if _, err := p.cur.Next(lexer.Keyword, lexer.IntentEnd); err != nil {
		return nil, err
	}
	return ast.NewIntentBlock(text, p.scope()), nil
}
