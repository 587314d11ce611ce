package parser_test

import (
	"errors"
	"strings"
	"testing"

	"scrum/interpreter-go/pkg/ast"
	"scrum/interpreter-go/pkg/impediment"
	"scrum/interpreter-go/pkg/parser"
	"scrum/interpreter-go/pkg/runtime"
)

func parse(t *testing.T, source string) (*ast.Block, *runtime.Definitions) {
	t.Helper()
	defs := runtime.NewDefinitions()
	root := defs.NewScope(ast.NoScope)
	block, err := parser.ParseSource(source, defs, root)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return block, defs
}

func parseErr(t *testing.T, source string) *impediment.SyntaxError {
	t.Helper()
	defs := runtime.NewDefinitions()
	_, err := parser.ParseSource(source, defs, defs.NewScope(ast.NoScope))
	var syntaxErr *impediment.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected syntax error, got %v", err)
	}
	return syntaxErr
}

func lines(src ...string) string {
	return strings.Join(src, "\n")
}

func TestParseAssignment(t *testing.T) {
	block, _ := parse(t, "a IS 2 + 5")
	if len(block.Statements) != 1 {
		t.Fatalf("expected one statement, got %d", len(block.Statements))
	}
	stmt, ok := block.Statements[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected expression statement, got %T", block.Statements[0])
	}
	assign, ok := stmt.Expression.(*ast.Assignment)
	if !ok {
		t.Fatalf("expected assignment, got %T", stmt.Expression)
	}
	if v, ok := assign.Target.(*ast.Variable); !ok || v.Name != "a" {
		t.Fatalf("unexpected target %#v", assign.Target)
	}
	sum, ok := assign.Value.(*ast.BinaryExpression)
	if !ok || sum.Operator != ast.OpAdd {
		t.Fatalf("expected addition, got %#v", assign.Value)
	}
	left, lok := sum.Left.(*ast.NumberLiteral)
	right, rok := sum.Right.(*ast.NumberLiteral)
	if !lok || !rok || left.Value != 2 || right.Value != 5 {
		t.Fatalf("unexpected operands %#v %#v", sum.Left, sum.Right)
	}
	if stmt.Line() != 1 {
		t.Fatalf("expected line 1, got %d", stmt.Line())
	}
}

func TestParsePrecedence(t *testing.T) {
	block, _ := parse(t, "x IS 1 + 2 * 3 > 6 AND done OR fallback")
	assign := block.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.Assignment)
	or, ok := assign.Value.(*ast.BinaryExpression)
	if !ok || or.Operator != ast.OpOr {
		t.Fatalf("expected OR at the root, got %#v", assign.Value)
	}
	and := or.Left.(*ast.BinaryExpression)
	if and.Operator != ast.OpAnd {
		t.Fatalf("expected AND under OR, got %s", and.Operator)
	}
	cmp := and.Left.(*ast.BinaryExpression)
	if cmp.Operator != ast.OpGreater {
		t.Fatalf("expected comparison under AND, got %s", cmp.Operator)
	}
	add := cmp.Left.(*ast.BinaryExpression)
	if add.Operator != ast.OpAdd {
		t.Fatalf("expected addition, got %s", add.Operator)
	}
	if mul, ok := add.Right.(*ast.BinaryExpression); !ok || mul.Operator != ast.OpMul {
		t.Fatalf("expected multiplication to bind tighter, got %#v", add.Right)
	}
}

func TestParseAssignmentIsRightAssociative(t *testing.T) {
	block, _ := parse(t, "a IS b IS 3")
	outer := block.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.Assignment)
	if _, ok := outer.Value.(*ast.Assignment); !ok {
		t.Fatalf("expected nested assignment, got %T", outer.Value)
	}
}

func TestParseAppendBindsLooserThanAddition(t *testing.T) {
	block, _ := parse(t, "x ADDING 1 + 2")
	expr := block.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.BinaryExpression)
	if expr.Operator != ast.OpAppend {
		t.Fatalf("expected append at the root, got %s", expr.Operator)
	}
	if _, ok := expr.Right.(*ast.BinaryExpression); !ok {
		t.Fatalf("expected addition on the right, got %T", expr.Right)
	}
}

func TestParseMemberAccessAndIndex(t *testing.T) {
	block, _ := parse(t, lines(
		`p IS NEW Person USING ["Ada", 36]`,
		`SAY p :: name`,
		`SAY p :: greet USING ["hi"]`,
		`items[0] IS p :: age`,
	))
	if len(block.Statements) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(block.Statements))
	}
	newExpr := block.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.Assignment).Value.(*ast.New)
	if newExpr.Class != "Person" || len(newExpr.Args) != 2 {
		t.Fatalf("unexpected instantiation %#v", newExpr)
	}
	field := block.Statements[1].(*ast.Say).Value.(*ast.MemberAccess)
	if field.Name != "name" || field.Call != nil {
		t.Fatalf("unexpected field access %#v", field)
	}
	method := block.Statements[2].(*ast.Say).Value.(*ast.MemberAccess)
	if method.Call == nil || method.Call.Name != "greet" || len(method.Call.Args) != 1 {
		t.Fatalf("unexpected method call %#v", method)
	}
	assign := block.Statements[3].(*ast.ExpressionStatement).Expression.(*ast.Assignment)
	if _, ok := assign.Target.(*ast.IndexExpression); !ok {
		t.Fatalf("expected index target, got %T", assign.Target)
	}
}

func TestParseCondition(t *testing.T) {
	block, _ := parse(t, lines(
		"IF a > 5",
		`  SAY "big"`,
		"ELSEIF a >= 1",
		`  SAY "small"`,
		"ELSE",
		`  SAY "none"`,
		"END IF",
	))
	cond, ok := block.Statements[0].(*ast.Condition)
	if !ok {
		t.Fatalf("expected condition, got %T", block.Statements[0])
	}
	if len(cond.Cases) != 3 {
		t.Fatalf("expected 3 cases, got %d", len(cond.Cases))
	}
	if lit, ok := cond.Cases[2].Condition.(*ast.LogicalLiteral); !ok || !lit.Value {
		t.Fatalf("expected ELSE to become true, got %#v", cond.Cases[2].Condition)
	}
	if cond.Cases[0].Body.Scope == cond.Cases[1].Body.Scope {
		t.Fatalf("each case body needs its own definition scope")
	}
}

func TestParseRegistersStoryBeforeBody(t *testing.T) {
	block, defs := parse(t, lines(
		"SAY tick",
		`USER STORY "tick"`,
		"  tick",
		"END OF STORY",
		"tick",
	))
	if _, ok := block.Statements[0].(*ast.Say).Value.(*ast.Variable); !ok {
		t.Fatalf("a name used before its story is declared must stay a variable")
	}
	decl := block.Statements[1].(*ast.FunctionDeclaration)
	inner := decl.Body.Statements[0].(*ast.ExpressionStatement).Expression
	if call, ok := inner.(*ast.Call); !ok || call.HasArgs {
		t.Fatalf("expected bare recursive call, got %#v", inner)
	}
	if _, ok := block.Statements[2].(*ast.ExpressionStatement).Expression.(*ast.Call); !ok {
		t.Fatalf("expected call after declaration")
	}
	def, ok := defs.LookupFunction(0, "tick")
	if !ok || def.Body != decl.Body {
		t.Fatalf("function definition not registered with its body")
	}
}

func TestParseClassWithSpacesInName(t *testing.T) {
	_, defs := parse(t, lines(
		`EPIC "Team Member" USING [name, role]`,
		`  USER STORY "describe"`,
		`    RETURN ANSWER name + " " + role`,
		`  END OF STORY`,
		`END OF EPIC`,
	))
	class, ok := defs.LookupClass(0, "Team_Member")
	if !ok {
		t.Fatalf("expected Team_Member to be registered")
	}
	if strings.Join(class.Params, ",") != "name,role" {
		t.Fatalf("unexpected params %v", class.Params)
	}
	if _, ok := defs.LookupFunction(class.Scope, "describe"); !ok {
		t.Fatalf("method not registered in class scope")
	}
	if _, ok := defs.LookupFunction(0, "describe"); ok {
		t.Fatalf("method leaked into the root scope")
	}
}

func TestParseLoops(t *testing.T) {
	block, _ := parse(t, lines(
		"I WANT TO ITERATE i FOR RANGE 0 TILL 10 by 2",
		"  SAY i",
		"END OF ITERATION",
		"I WANT TO ITERATE j FOR RANGE 1..5",
		"END OF ITERATION",
		"I WANT TO ITERATE item FOR RANGE items",
		"  next",
		"END OF ITERATION",
		"I WANT TO ITERATE x < 3",
		"  break",
		"END OF ITERATION",
	))
	counted, ok := block.Statements[0].(*ast.CountedLoop)
	if !ok || counted.Var != "i" || counted.Step == nil {
		t.Fatalf("expected counted loop with step, got %#v", block.Statements[0])
	}
	if loop, ok := block.Statements[1].(*ast.CountedLoop); !ok || loop.Step != nil {
		t.Fatalf("expected counted loop without step, got %#v", block.Statements[1])
	}
	if loop, ok := block.Statements[2].(*ast.IterateLoop); !ok || loop.Var != "item" {
		t.Fatalf("expected iterate loop, got %#v", block.Statements[2])
	}
	if _, ok := block.Statements[2].(*ast.IterateLoop).Body.Statements[0].(*ast.Next); !ok {
		t.Fatalf("expected next statement in body")
	}
	if _, ok := block.Statements[3].(*ast.WhileLoop); !ok {
		t.Fatalf("expected while loop, got %T", block.Statements[3])
	}
}

func TestParseAPIWithEndpoints(t *testing.T) {
	block, defs := parse(t, lines(
		`I WANT TO DEFINE API "Users" BASE IS "/api"`,
		`  I WANT TO DEFINE ENDPOINT "list users"`,
		`    METHOD IS "GET"`,
		`    PATH IS "/users"`,
		`    QUERY_PARAMS ARE { "limit", "offset" }`,
		`    RETURNS IS "Array"`,
		`  END OF ENDPOINT`,
		`  I WANT TO DEFINE ENDPOINT "get user"`,
		`    PATH IS "/users/{id}"`,
		`    METHOD IS "GET"`,
		`    WHEN REQUEST`,
		`      RESPOND WITH id`,
		`    END WHEN`,
		`  END OF ENDPOINT`,
		`END OF API`,
	))
	decl := block.Statements[0].(*ast.ApiDeclaration)
	if decl.BasePath != "/api" {
		t.Fatalf("unexpected base %q", decl.BasePath)
	}
	api, ok := defs.LookupAPI(0, "Users")
	if !ok || len(api.Endpoints) != 2 {
		t.Fatalf("expected 2 endpoints, got %#v", api)
	}
	list := api.Endpoints[0]
	if list.Name != "list_users" || list.Executable() || strings.Join(list.QueryParams, ",") != "limit,offset" {
		t.Fatalf("unexpected declarative endpoint %#v", list)
	}
	get := api.Endpoints[1]
	if !get.Executable() || get.Path != "/users/{id}" || get.Scope == ast.NoScope {
		t.Fatalf("unexpected executable endpoint %#v", get)
	}
	if _, ok := get.Handler.Statements[0].(*ast.Return); !ok {
		t.Fatalf("expected RESPOND WITH to parse as a return, got %T", get.Handler.Statements[0])
	}
}

func TestParseIntentBlockRecordsScope(t *testing.T) {
	block, _ := parse(t, lines(
		`USER STORY "helper"`,
		"  #INTENT",
		"  say hello to the team",
		"  #END INTENT",
		"END OF STORY",
	))
	decl := block.Statements[0].(*ast.FunctionDeclaration)
	intent, ok := decl.Body.Statements[0].(*ast.IntentBlock)
	if !ok {
		t.Fatalf("expected intent block, got %T", decl.Body.Statements[0])
	}
	if intent.Scope != decl.Body.Scope || !strings.Contains(intent.Text, "say hello") {
		t.Fatalf("unexpected intent %#v", intent)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name   string
		source string
		code   impediment.Code
		line   int
	}{
		{"stray closer", "SAY 1\nEND IF", impediment.CodeSyntaxStructure, 2},
		{"endpoint outside api", `I WANT TO DEFINE ENDPOINT "x"` + "\nEND OF ENDPOINT", impediment.CodeSyntaxEndpoint, 1},
		{"unknown endpoint property", lines(`I WANT TO DEFINE API "A"`, `I WANT TO DEFINE ENDPOINT "x"`, `SAY 1`, `END OF ENDPOINT`, `END OF API`), impediment.CodeSyntaxEndpoint, 3},
		{"bad assignment target", "3 IS 4", impediment.CodeSyntaxExpression, 1},
		{"unfinished epic", "EPIC \"A\"\nSAY 1\nEND OF STORY", impediment.CodeSyntaxStructure, 3},
		{"bad keyword", "scenario", impediment.CodeSyntaxUnexpected, 1},
		{"elseif after else", lines("IF a", "SAY 1", "ELSE", "SAY 2", "ELSEIF b", "SAY 3", "END IF"), impediment.CodeSyntaxStructure, 5},
		{"second else", lines("IF a", "SAY 1", "ELSE", "SAY 2", "ELSE", "SAY 3", "END IF"), impediment.CodeSyntaxStructure, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := parseErr(t, tc.source)
			if err.Code != tc.code {
				t.Fatalf("expected code %s, got %s (%v)", tc.code, err.Code, err)
			}
			if err.Line != tc.line {
				t.Fatalf("expected line %d, got %d (%v)", tc.line, err.Line, err)
			}
		})
	}
}

func TestIsIncomplete(t *testing.T) {
	defs := runtime.NewDefinitions()
	_, err := parser.ParseSource("IF x > 1\n  SAY x", defs, defs.NewScope(ast.NoScope))
	if !parser.IsIncomplete(err) {
		t.Fatalf("expected unterminated IF to be incomplete, got %v", err)
	}
	_, err = parser.ParseSource("SAY 1\nEND IF", defs, defs.NewScope(ast.NoScope))
	if parser.IsIncomplete(err) {
		t.Fatalf("stray closer must not be reported as incomplete")
	}
}
