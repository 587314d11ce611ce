package parser

import (
	"errors"
	"strings"

	"scrum/interpreter-go/pkg/ast"
	"scrum/interpreter-go/pkg/impediment"
	"scrum/interpreter-go/pkg/lexer"
	"scrum/interpreter-go/pkg/runtime"
)

// closers end the statement stream of the block they belong to.
var closers = []string{
	"ELSE", "ELSEIF", "end", "END OF STORY", "END OF EPIC", "END IF",
	"END OF ITERATION", "END OF API", "END OF ENDPOINT", "END WHEN",
}

// Parser builds the executable tree and registers EPIC, USER STORY and API
// definitions as it goes, so later code can resolve calls to them.
type Parser struct {
	cur    *Cursor
	defs   *runtime.Definitions
	scopes []ast.ScopeID
	apis   []*runtime.ApiDefinition
}

// Parse reads a whole program whose top-level definitions are registered in
// root. Tokens left after the last statement are a syntax error.
func Parse(tokens []lexer.Token, defs *runtime.Definitions, root ast.ScopeID) (*ast.Block, error) {
	p := &Parser{cur: NewCursor(tokens), defs: defs, scopes: []ast.ScopeID{root}}
	stmts, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	if !p.cur.AtEnd() {
		tok, _ := p.cur.PeekToken()
		if tok.Kind == lexer.Keyword {
			return nil, p.cur.Errorf(impediment.CodeSyntaxStructure, "`%s` has no matching opening block", tok.Text)
		}
		return nil, p.cur.Errorf(impediment.CodeSyntaxUnexpected, "Statement can't start with %s", p.cur.describe())
	}
	return ast.NewBlock(stmts, root), nil
}

// ParseSource tokenizes and parses source in one step.
func ParseSource(source string, defs *runtime.Definitions, root ast.ScopeID) (*ast.Block, error) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, defs, root)
}

// IsIncomplete reports whether err was raised because the input ended inside
// an unfinished construct, i.e. more lines could complete it.
func IsIncomplete(err error) bool {
	var syntaxErr *impediment.SyntaxError
	return errors.As(err, &syntaxErr) && syntaxErr.Kind == endOfInput
}

func (p *Parser) scope() ast.ScopeID {
	return p.scopes[len(p.scopes)-1]
}

// parseBlockIn parses statements with scope as the current definition scope.
func (p *Parser) parseBlockIn(scope ast.ScopeID) ([]ast.Statement, error) {
	p.scopes = append(p.scopes, scope)
	defer func() { p.scopes = p.scopes[:len(p.scopes)-1] }()
	return p.parseStatements()
}

// parseChildBlock parses a body in a fresh definition scope nested under the
// current one.
func (p *Parser) parseChildBlock(line int) (*ast.Block, error) {
	scope := p.defs.NewScope(p.scope())
	stmts, err := p.parseBlockIn(scope)
	if err != nil {
		return nil, err
	}
	return ast.SetLine(ast.NewBlock(stmts, scope), line), nil
}

func (p *Parser) parseStatements() ([]ast.Statement, error) {
	var stmts []ast.Statement
	for p.hasNextStatement() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *Parser) hasNextStatement() bool {
	tok, ok := p.cur.PeekToken()
	if !ok {
		return false
	}
	switch tok.Kind {
	case lexer.Keyword:
		return !tok.Is(lexer.Keyword, closers...)
	case lexer.Operator, lexer.Variable, lexer.This, lexer.Numeric, lexer.Text, lexer.Logical, lexer.Null:
		return true
	case lexer.GroupDivider:
		return tok.Text == "{"
	default:
		return false
	}
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	tok := p.cur.Advance()
	if tok.Kind != lexer.Keyword {
		p.cur.Back()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return ast.SetLine(ast.NewExpressionStatement(expr), tok.Line), nil
	}

	var (
		stmt ast.Statement
		err  error
	)
	switch tok.Text {
	case "SAY":
		stmt, err = p.parseSay()
	case "ASK":
		stmt, err = p.parseAsk()
	case "IF":
		stmt, err = p.parseCondition(tok)
	case "EPIC":
		stmt, err = p.parseClass(tok)
	case "USER STORY":
		stmt, err = p.parseFunction(tok)
	case "I WANT TO DEFINE":
		stmt, err = p.parseDefinition(tok)
	case "BASE":
		stmt, err = p.parseBase()
	case "RETURN ANSWER":
		stmt, err = p.parseReturn()
	case "RESPOND":
		if _, err = p.cur.Next(lexer.Keyword, "WITH"); err == nil {
			stmt, err = p.parseReturn()
		}
	case "I WANT TO ITERATE":
		stmt, err = p.parseLoop(tok)
	case "break":
		stmt = ast.NewBreak()
	case "next":
		stmt = ast.NewNext()
	case lexer.IntentStart:
		stmt, err = p.parseIntent()
	default:
		p.cur.Back()
		return nil, p.cur.Errorf(impediment.CodeSyntaxUnexpected, "Failed to parse a keyword: %s", tok.Text)
	}
	if err != nil {
		return nil, err
	}
	return ast.SetLine(stmt, tok.Line), nil
}

// definitionName reads a quoted EPIC/USER STORY/API name; spaces become
// underscores so the name can be written as an identifier.
func (p *Parser) definitionName() (string, error) {
	tok, err := p.cur.Next(lexer.Text)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(tok.Text, " ", "_"), nil
}

// expectCloser consumes the keyword that ends a construct opened at line.
func (p *Parser) expectCloser(closer, construct string, line int, code impediment.Code) error {
	if p.cur.Peek(lexer.Keyword, closer) {
		p.cur.Advance()
		return nil
	}
	err := p.cur.Errorf(code, "Expected `%s` to close the %s opened at line %d but found %s", closer, construct, line, p.cur.describe())
	return err
}
