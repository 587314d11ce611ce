package parser

import (
	"strings"

	"scrum/interpreter-go/pkg/ast"
	"scrum/interpreter-go/pkg/impediment"
	"scrum/interpreter-go/pkg/lexer"
	"scrum/interpreter-go/pkg/runtime"
)

// parseParams reads an optional `USING [a, b]` parameter list.
func (p *Parser) parseParams() ([]string, error) {
	if !p.cur.Peek(lexer.GroupDivider, "USING [") {
		return nil, nil
	}
	p.cur.Advance()
	var params []string
	for !p.cur.Peek(lexer.GroupDivider, "]") {
		tok, err := p.cur.Next(lexer.Variable)
		if err != nil {
			return nil, err
		}
		params = append(params, tok.Text)
		if p.cur.Peek(lexer.GroupDivider, ",") {
			p.cur.Advance()
		}
	}
	p.cur.Advance()
	return params, nil
}

// parseClass reads an EPIC. The class is registered before its body is parsed
// so the body may refer to it.
func (p *Parser) parseClass(start lexer.Token) (ast.Statement, error) {
	name, err := p.definitionName()
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	scope := p.defs.NewScope(p.scope())
	body := ast.SetLine(ast.NewBlock(nil, scope), start.Line)
	p.defs.DefineClass(p.scope(), &runtime.ClassDefinition{Name: name, Params: params, Body: body, Scope: scope})

	if body.Statements, err = p.parseBlockIn(scope); err != nil {
		return nil, err
	}
	if err := p.expectCloser("END OF EPIC", "EPIC "+name, start.Line, impediment.CodeSyntaxStructure); err != nil {
		return nil, err
	}
	return ast.NewClassDeclaration(name, params, body), nil
}

// parseFunction reads a USER STORY, registering it first so recursive calls
// resolve while the body is parsed.
func (p *Parser) parseFunction(start lexer.Token) (ast.Statement, error) {
	name, err := p.definitionName()
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	scope := p.defs.NewScope(p.scope())
	body := ast.SetLine(ast.NewBlock(nil, scope), start.Line)
	p.defs.DefineFunction(p.scope(), &runtime.FunctionDefinition{Name: name, Params: params, Body: body, Scope: scope})

	if body.Statements, err = p.parseBlockIn(scope); err != nil {
		return nil, err
	}
	if err := p.expectCloser("END OF STORY", "USER STORY "+name, start.Line, impediment.CodeSyntaxStructure); err != nil {
		return nil, err
	}
	return ast.NewFunctionDeclaration(name, params, body), nil
}

func (p *Parser) parseDefinition(start lexer.Token) (ast.Statement, error) {
	switch {
	case p.cur.Peek(lexer.Keyword, "API"):
		p.cur.Advance()
		return p.parseAPI(start)
	case p.cur.Peek(lexer.Keyword, "ENDPOINT"):
		p.cur.Advance()
		return p.parseEndpoint(start)
	default:
		return nil, p.cur.Errorf(impediment.CodeSyntaxEndpoint, "Expected API or ENDPOINT after 'I WANT TO DEFINE', got: %s", p.cur.describe())
	}
}

// parseAPI reads `I WANT TO DEFINE API "Name" [BASE IS "/p"] ... END OF API`.
// Endpoints declared in the body attach to the API.
func (p *Parser) parseAPI(start lexer.Token) (ast.Statement, error) {
	name, err := p.definitionName()
	if err != nil {
		return nil, err
	}
	scope := p.defs.NewScope(p.scope())
	body := ast.SetLine(ast.NewBlock(nil, scope), start.Line)
	def := &runtime.ApiDefinition{Name: name, Body: body, Scope: scope}
	if p.cur.Peek(lexer.Keyword, "BASE") {
		p.cur.Advance()
		if def.BasePath, err = p.propertyValue(); err != nil {
			return nil, err
		}
	}
	p.defs.DefineAPI(p.scope(), def)

	p.apis = append(p.apis, def)
	body.Statements, err = p.parseBlockIn(scope)
	p.apis = p.apis[:len(p.apis)-1]
	if err != nil {
		return nil, err
	}
	if err := p.expectCloser("END OF API", "API "+name, start.Line, impediment.CodeSyntaxStructure); err != nil {
		return nil, err
	}
	return ast.NewApiDeclaration(name, def.BasePath, body), nil
}

// parseBase handles `BASE IS "/p"` written as a statement of an API body.
func (p *Parser) parseBase() (ast.Statement, error) {
	if len(p.apis) == 0 {
		p.cur.Back()
		return nil, p.cur.Errorf(impediment.CodeSyntaxStructure, "BASE is only allowed inside an API definition")
	}
	path, err := p.propertyValue()
	if err != nil {
		return nil, err
	}
	p.apis[len(p.apis)-1].BasePath = path
	return ast.NewBaseStatement(path), nil
}

// parseEndpoint reads an endpoint's properties in any order followed by an
// optional WHEN REQUEST handler.
func (p *Parser) parseEndpoint(start lexer.Token) (ast.Statement, error) {
	if len(p.apis) == 0 {
		return nil, p.cur.Errorf(impediment.CodeSyntaxEndpoint, "ENDPOINT must be declared inside an API definition")
	}
	name, err := p.definitionName()
	if err != nil {
		return nil, err
	}
	ep := ast.NewEndpoint(name)

	for !p.cur.Peek(lexer.Keyword, "END OF ENDPOINT", "WHEN") {
		tok, ok := p.cur.PeekToken()
		if !ok {
			return nil, p.expectCloser("END OF ENDPOINT", "ENDPOINT "+name, start.Line, impediment.CodeSyntaxEndpoint)
		}
		switch {
		case tok.Is(lexer.Keyword, "METHOD"):
			p.cur.Advance()
			ep.Method, err = p.propertyValue()
		case tok.Is(lexer.Keyword, "PATH"):
			p.cur.Advance()
			ep.Path, err = p.propertyValue()
		case tok.Is(lexer.Keyword, "RETURNS"):
			p.cur.Advance()
			ep.Returns, err = p.propertyValue()
		case tok.Is(lexer.Keyword, "QUERY_PARAMS"):
			p.cur.Advance()
			ep.QueryParams, err = p.parseQueryParams()
		default:
			return nil, p.cur.Errorf(impediment.CodeSyntaxEndpoint, "Unexpected token in endpoint definition: %s", tok.Text)
		}
		if err != nil {
			return nil, endpointError(err)
		}
	}

	scope := ast.NoScope
	if p.cur.Peek(lexer.Keyword, "WHEN") {
		p.cur.Advance()
		if _, err := p.cur.Next(lexer.Keyword, "REQUEST"); err != nil {
			return nil, endpointError(err)
		}
		if ep.Handler, err = p.parseChildBlock(start.Line); err != nil {
			return nil, err
		}
		scope = ep.Handler.Scope
		if err := p.expectCloser("END WHEN", "WHEN REQUEST handler", start.Line, impediment.CodeSyntaxEndpoint); err != nil {
			return nil, err
		}
	}
	if err := p.expectCloser("END OF ENDPOINT", "ENDPOINT "+name, start.Line, impediment.CodeSyntaxEndpoint); err != nil {
		return nil, err
	}

	api := p.apis[len(p.apis)-1]
	api.Endpoints = append(api.Endpoints, &runtime.EndpointDefinition{
		Name:        name,
		Method:      ep.Method,
		Path:        ep.Path,
		QueryParams: ep.QueryParams,
		Returns:     ep.Returns,
		Handler:     ep.Handler,
		Scope:       scope,
	})
	return ep, nil
}

// propertyValue reads `IS "value"`.
func (p *Parser) propertyValue() (string, error) {
	if _, err := p.cur.Next(lexer.Operator, "IS"); err != nil {
		return "", err
	}
	tok, err := p.cur.Next(lexer.Text)
	if err != nil {
		return "", err
	}
	return tok.Text, nil
}

// parseQueryParams reads `IS|ARE { "a", "b" }`.
func (p *Parser) parseQueryParams() ([]string, error) {
	if !p.cur.Peek(lexer.Operator, "IS") && !p.cur.Peek(lexer.Keyword, "ARE") {
		return nil, p.cur.Errorf(impediment.CodeSyntaxEndpoint, "Expected IS or ARE after QUERY_PARAMS")
	}
	p.cur.Advance()
	if _, err := p.cur.Next(lexer.GroupDivider, "{"); err != nil {
		return nil, err
	}
	var params []string
	for !p.cur.Peek(lexer.GroupDivider, "}") {
		tok, err := p.cur.Next(lexer.Text)
		if err != nil {
			return nil, err
		}
		params = append(params, strings.TrimSpace(tok.Text))
		if p.cur.Peek(lexer.GroupDivider, ",") {
			p.cur.Advance()
		}
	}
	p.cur.Advance()
	return params, nil
}

// endpointError re-tags cursor errors raised inside an endpoint definition.
func endpointError(err error) error {
	if syntaxErr, ok := err.(*impediment.SyntaxError); ok && syntaxErr.Code == impediment.CodeSyntaxUnexpected {
		syntaxErr.Code = impediment.CodeSyntaxEndpoint
	}
	return err
}
