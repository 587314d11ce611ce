package interpreter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"scrum/interpreter-go/pkg/ast"
	"scrum/interpreter-go/pkg/impediment"
	"scrum/interpreter-go/pkg/runtime"
)

func lines(src ...string) string {
	return strings.Join(src, "\n")
}

func runProgram(t *testing.T, source, input string) (*Interpreter, string, error) {
	t.Helper()
	var out bytes.Buffer
	interp := New(WithOutput(&out), WithInput(strings.NewReader(input)))
	err := interp.Run(context.Background(), source)
	return interp, out.String(), err
}

func mustRun(t *testing.T, source string) (*Interpreter, string) {
	t.Helper()
	interp, out, err := runProgram(t, source, "")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return interp, out
}

func runtimeErr(t *testing.T, source string) *impediment.RuntimeError {
	t.Helper()
	_, _, err := runProgram(t, source, "")
	var rtErr *impediment.RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("expected runtime error, got %v", err)
	}
	return rtErr
}

func lookupNumber(t *testing.T, interp *Interpreter, name string) float64 {
	t.Helper()
	val, ok := interp.Lookup(name)
	if !ok {
		t.Fatalf("expected %s to be bound", name)
	}
	num, ok := val.(runtime.NumericValue)
	if !ok {
		t.Fatalf("expected %s to be numeric, got %#v", name, val)
	}
	return num.Val
}

func TestSayHelloWorld(t *testing.T) {
	_, out := mustRun(t, `SAY "Hello World"`)
	if out != "Hello World\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestAssignmentOfSum(t *testing.T) {
	interp, _ := mustRun(t, "a IS 2 + 5")
	if got := lookupNumber(t, interp, "a"); got != 7 {
		t.Fatalf("expected a == 7, got %v", got)
	}
}

func TestAssignmentYieldsStoredValue(t *testing.T) {
	interp, out := mustRun(t, lines("a IS b IS 4", "SAY a + b"))
	if out != "8\n" || lookupNumber(t, interp, "b") != 4 {
		t.Fatalf("unexpected chained assignment result %q", out)
	}
}

func TestConditionRunsOnlyFirstTrueBranch(t *testing.T) {
	_, out := mustRun(t, lines(
		"a IS 10",
		"IF a > 5",
		`  SAY "big"`,
		"ELSEIF missing > 1",
		`  SAY "never"`,
		"ELSE",
		`  SAY "none"`,
		"END IF",
	))
	if out != "big\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestConditionFallsThroughToElse(t *testing.T) {
	_, out := mustRun(t, lines(
		"a IS 0",
		"IF a > 5",
		`  SAY "big"`,
		"ELSEIF a >= 1",
		`  SAY "small"`,
		"ELSE",
		`  SAY "none"`,
		"END IF",
	))
	if out != "none\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestDivision(t *testing.T) {
	_, out := mustRun(t, "SAY 6 / 3")
	if out != "2\n" {
		t.Fatalf("expected 2, got %q", out)
	}
	rtErr := runtimeErr(t, "SAY 6 / 0")
	if rtErr.Category != impediment.Arithmetic || rtErr.Line != 1 {
		t.Fatalf("expected arithmetic error on line 1, got %#v", rtErr)
	}
	if rtErr.Message != "Division by zero is not allowed" {
		t.Fatalf("unexpected message %q", rtErr.Message)
	}
}

func TestArithmeticOperators(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"1 / 2", "0.5"},
		{"7 // 2", "3"},
		{"7 % 4", "3"},
		{"2 + 3 * 4", "14"},
		{"10 - 4 - 3", "3"},
		{`"ab" * 3`, "ababab"},
		{`2 * "x"`, "xx"},
		{`"n=" + 5`, "n=5"},
		{`"flag " + true`, "flag true"},
		{"1 < 2 AND 3 > 2", "true"},
		{"1 == 2 OR !false", "true"},
		{`"a" < "b"`, "true"},
		{`1 == "1"`, "true"},
		{"null == null", "true"},
		{"null != 0", "true"},
		{"{1, 2} == {1, 2}", "true"},
	}
	for _, tc := range cases {
		_, out := mustRun(t, "SAY "+tc.expr)
		if got := strings.TrimSuffix(out, "\n"); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.expr, tc.want, got)
		}
	}
}

func TestAppendMutatesArray(t *testing.T) {
	_, out := mustRun(t, lines(
		"x IS {1, 2}",
		"x ADDING 3",
		"SAY x",
	))
	if out != "[1, 2, 3]\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestArrayConcatenationDoesNotMutate(t *testing.T) {
	_, out := mustRun(t, lines(
		"l IS {1,2}",
		"y IS l + {3}",
		"SAY y",
		"SAY l",
		"SAY 0 + l",
	))
	if out != "[1, 2, 3]\n[1, 2]\n[0, 1, 2]\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestArraysShareReferences(t *testing.T) {
	_, out := mustRun(t, lines(
		"a IS {1, 2}",
		"b IS a",
		"b[0] IS 9",
		"SAY a",
		"SAY a[1.7]",
	))
	if out != "[9, 2]\n2\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCountedLoopBreakStopsImmediately(t *testing.T) {
	interp, out := mustRun(t, lines(
		"I WANT TO ITERATE i FOR RANGE 0 TILL 10",
		"  IF i == 3",
		"    break",
		"  END IF",
		"  SAY i",
		"END OF ITERATION",
	))
	if out != "0\n1\n2\n" {
		t.Fatalf("unexpected output %q", out)
	}
	if got := lookupNumber(t, interp, "i"); got != 3 {
		t.Fatalf("expected loop variable to stay at 3, got %v", got)
	}
}

func TestCountedLoopNextStillSteps(t *testing.T) {
	_, out := mustRun(t, lines(
		"I WANT TO ITERATE i FOR RANGE 0 TILL 5",
		"  IF i % 2 == 0",
		"    next",
		"  END IF",
		"  SAY i",
		"END OF ITERATION",
	))
	if out != "1\n3\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCountedLoopSteps(t *testing.T) {
	_, out := mustRun(t, lines(
		"I WANT TO ITERATE i FOR RANGE 0 TILL 7 by 3",
		"  SAY i",
		"END OF ITERATION",
		"I WANT TO ITERATE j FOR RANGE 3..0 by -1",
		"  SAY j",
		"END OF ITERATION",
	))
	if out != "0\n3\n6\n3\n2\n1\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestWhileLoop(t *testing.T) {
	interp, _ := mustRun(t, lines(
		"n IS 0",
		"I WANT TO ITERATE n < 3",
		"  n IS n + 1",
		"END OF ITERATION",
	))
	if got := lookupNumber(t, interp, "n"); got != 3 {
		t.Fatalf("expected n == 3, got %v", got)
	}
}

func TestLoopBodyScopeIsDiscarded(t *testing.T) {
	interp, _ := mustRun(t, lines(
		"I WANT TO ITERATE v FOR RANGE {1, 2}",
		"  inner IS v",
		"END OF ITERATION",
	))
	if _, ok := interp.Lookup("inner"); ok {
		t.Fatalf("variables created in a loop body must not leak")
	}
	if interp.Memory().Live() != 1 {
		t.Fatalf("expected only the global scope to stay live, got %d", interp.Memory().Live())
	}
}

func TestEpicConstructorRoundTrip(t *testing.T) {
	_, out := mustRun(t, lines(
		`EPIC "Person" USING [name, age]`,
		`END OF EPIC`,
		`p IS NEW Person USING ["Ada"]`,
		`SAY p :: name`,
		`SAY p :: age`,
		`p :: age IS 36`,
		`SAY p`,
	))
	if out != "Ada\nnull\nPerson [ name = Ada, age = 36 ]\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestEpicMethodsUpdateFields(t *testing.T) {
	_, out := mustRun(t, lines(
		`EPIC "Counter" USING [count]`,
		`  USER STORY "increment" USING [amount]`,
		`    count IS count + amount`,
		`    RETURN ANSWER count`,
		`  END OF STORY`,
		`  USER STORY "twice"`,
		`    increment USING [1]`,
		`    RETURN ANSWER increment USING [1]`,
		`  END OF STORY`,
		`END OF EPIC`,
		`c IS NEW Counter USING [0]`,
		`SAY c :: increment USING [5]`,
		`SAY c :: twice`,
		`SAY c :: count`,
	))
	if out != "5\n7\n7\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestEpicBodyRunsOnInstantiation(t *testing.T) {
	_, out := mustRun(t, lines(
		`EPIC "Team" USING [name]`,
		`  members IS {}`,
		`  SAY "created " + this :: name`,
		`END OF EPIC`,
		`a IS NEW Team USING ["red"]`,
		`b IS NEW Team USING ["blue"]`,
		`a :: members ADDING "x"`,
		`SAY a :: members`,
		`SAY b :: members`,
	))
	if out != "created red\ncreated blue\n[x]\n[]\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestIterateOverInstanceFields(t *testing.T) {
	_, out := mustRun(t, lines(
		`EPIC "Pair" USING [left, right]`,
		`END OF EPIC`,
		`I WANT TO ITERATE v FOR RANGE NEW Pair USING [1, "two"]`,
		`  SAY v`,
		`END OF ITERATION`,
	))
	if out != "1\ntwo\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRecursiveStoryWithCountedLoop(t *testing.T) {
	_, out := mustRun(t, lines(
		`USER STORY "sum to" USING [n]`,
		`  IF n == 0`,
		`    RETURN ANSWER 0`,
		`  END IF`,
		`  total IS 0`,
		`  I WANT TO ITERATE k FOR RANGE 0 TILL n`,
		`    total IS total + 1`,
		`  END OF ITERATION`,
		`  RETURN ANSWER total + sum_to USING [n - 1]`,
		`END OF STORY`,
		`SAY sum_to USING [4]`,
	))
	if out != "10\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestReturnInsideLoopLeavesStory(t *testing.T) {
	_, out := mustRun(t, lines(
		`USER STORY "first big" USING [xs]`,
		`  I WANT TO ITERATE v FOR RANGE xs`,
		`    IF v > 10`,
		`      RETURN ANSWER v`,
		`    END IF`,
		`  END OF ITERATION`,
		`  RETURN ANSWER null`,
		`END OF STORY`,
		`SAY first_big USING [{3, 12, 40}]`,
		`SAY first_big USING [{1}]`,
	))
	if out != "12\nnull\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestStoryArityIsPermissive(t *testing.T) {
	_, out := mustRun(t, lines(
		`USER STORY "show" USING [a, b]`,
		`  SAY a`,
		`  SAY b`,
		`END OF STORY`,
		`show USING [1]`,
		`show USING [1, 2, 3]`,
	))
	if out != "1\nnull\n1\n2\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestStoriesDoNotSeeCallerVariables(t *testing.T) {
	rtErr := runtimeErr(t, lines(
		`secret IS 1`,
		`USER STORY "peek"`,
		`  RETURN ANSWER secret`,
		`END OF STORY`,
		`SAY peek`,
	))
	if rtErr.Category != impediment.Name || rtErr.Line != 3 || rtErr.Story != "peek" {
		t.Fatalf("unexpected error %#v", rtErr)
	}
}

func TestAskClassifiesInput(t *testing.T) {
	_, out, err := runProgram(t, lines(
		"ASK team_size",
		"ASK name",
		"ASK flag",
		"SAY team_size + 1",
		"SAY name",
		"SAY flag AND true",
	), "42\nhello\ntrue\n")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := `Enter "team size" >>> Enter "name" >>> Enter "flag" >>> ` + "43\nhello\ntrue\n"
	if out != want {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestAskWithoutInputFails(t *testing.T) {
	_, _, err := runProgram(t, "ASK x", "")
	var rtErr *impediment.RuntimeError
	if !errors.As(err, &rtErr) || rtErr.Category != impediment.Unknown {
		t.Fatalf("expected unknown runtime error, got %v", err)
	}
}

type scriptedPrompter struct {
	answers []string
	prompts []string
}

func (s *scriptedPrompter) ReadLine() (string, error) {
	return s.PromptLine("")
}

func (s *scriptedPrompter) PromptLine(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.answers) == 0 {
		return "", io.EOF
	}
	line := s.answers[0]
	s.answers = s.answers[1:]
	return line, nil
}

func TestAskHandsPromptToLinePrompter(t *testing.T) {
	var out bytes.Buffer
	input := &scriptedPrompter{answers: []string{"8"}}
	interp := New(WithOutput(&out), WithLineReader(input))
	if err := interp.Run(context.Background(), lines("ASK sprint_days", "SAY sprint_days * 2")); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out.String() != "16\n" {
		t.Fatalf("prompt must not be written to the output, got %q", out.String())
	}
	if len(input.prompts) != 1 || input.prompts[0] != `Enter "sprint days" >>> ` {
		t.Fatalf("unexpected prompts %q", input.prompts)
	}

	err := interp.Run(context.Background(), "ASK more")
	var rtErr *impediment.RuntimeError
	if !errors.As(err, &rtErr) || !errors.Is(err, io.EOF) {
		t.Fatalf("expected no input error wrapping EOF, got %v", err)
	}
}

func TestRuntimeErrorCategories(t *testing.T) {
	cases := []struct {
		name     string
		source   string
		category impediment.Category
	}{
		{"unbound variable", "SAY missing", impediment.Name},
		{"this outside epic", "SAY this", impediment.Name},
		{"undefined story", "missing USING [1]", impediment.Name},
		{"undefined epic", "x IS NEW Ghost", impediment.Name},
		{"null compare", "SAY null < 1", impediment.Type},
		{"non logical condition", lines("IF 1", "SAY 1", "END IF"), impediment.Type},
		{"non logical and", "SAY true AND 1", impediment.Type},
		{"non logical not", "SAY !1", impediment.Type},
		{"text subtraction", `SAY "a" - 1`, impediment.Type},
		{"null arithmetic", "SAY null - 1", impediment.Arithmetic},
		{"modulo by zero", "SAY 1 % 0", impediment.Arithmetic},
		{"index non array", "SAY 5[0]", impediment.Type},
		{"index out of range", lines("x IS {1}", "SAY x[3]"), impediment.Property},
		{"member of non instance", "SAY 5 :: name", impediment.Property},
		{"non iterable", lines("I WANT TO ITERATE v FOR RANGE 5", "END OF ITERATION"), impediment.Iteration},
		{"unprocessed intent", lines("#INTENT", "say hi", "#END INTENT"), impediment.Unknown},
	}
	for _, tc := range cases {
		rtErr := runtimeErr(t, tc.source)
		if rtErr.Category != tc.category {
			t.Fatalf("%s: expected %s error, got %s (%v)", tc.name, tc.category, rtErr.Category, rtErr)
		}
	}
}

func TestUnboundVariableMessage(t *testing.T) {
	rtErr := runtimeErr(t, "SAY x")
	if rtErr.Message != "Variable is not defined: x" {
		t.Fatalf("unexpected message %q", rtErr.Message)
	}
}

func TestMissingMemberIsPropertyError(t *testing.T) {
	rtErr := runtimeErr(t, lines(
		`EPIC "Person" USING [name]`,
		`END OF EPIC`,
		`p IS NEW Person USING ["Ada"]`,
		`SAY p :: age`,
	))
	if rtErr.Category != impediment.Property || rtErr.Line != 4 {
		t.Fatalf("unexpected error %#v", rtErr)
	}
}

func TestErrorLocationInsideMethod(t *testing.T) {
	rtErr := runtimeErr(t, lines(
		`EPIC "Sprint" USING [days]`,
		`  USER STORY "velocity" USING [points]`,
		`    RETURN ANSWER points / days`,
		`  END OF STORY`,
		`END OF EPIC`,
		`s IS NEW Sprint USING [0]`,
		`SAY s :: velocity USING [10]`,
	))
	if rtErr.Line != 3 || rtErr.Epic != "Sprint" || rtErr.Story != "velocity" {
		t.Fatalf("unexpected location %#v", rtErr)
	}
	if rtErr.Snippet != "RETURN ANSWER points / days" {
		t.Fatalf("unexpected snippet %q", rtErr.Snippet)
	}
}

func TestRuntimeErrorUnwindsScopeStacks(t *testing.T) {
	var out bytes.Buffer
	interp := New(WithOutput(&out))
	ctx := context.Background()
	err := interp.Run(ctx, lines(
		`EPIC "Sprint" USING [days]`,
		`  USER STORY "burndown" USING [points]`,
		`    I WANT TO ITERATE d FOR RANGE {1, 2}`,
		`      left IS points / days`,
		`    END OF ITERATION`,
		`  END OF STORY`,
		`END OF EPIC`,
		`s IS NEW Sprint USING [0]`,
	))
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	live := interp.Memory().Live()

	err = interp.Run(ctx, "SAY s :: burndown USING [10]")
	var rtErr *impediment.RuntimeError
	if !errors.As(err, &rtErr) || rtErr.Category != impediment.Arithmetic {
		t.Fatalf("expected arithmetic error, got %v", err)
	}
	if len(interp.defStack) != 1 || len(interp.memStack) != 1 || len(interp.receivers) != 0 {
		t.Fatalf("stacks not unwound: defs=%d mem=%d receivers=%d", len(interp.defStack), len(interp.memStack), len(interp.receivers))
	}
	if interp.depth != 0 || interp.epic != "" || interp.story != "" {
		t.Fatalf("call context not restored: depth=%d epic=%q story=%q", interp.depth, interp.epic, interp.story)
	}
	if got := interp.Memory().Live(); got != live {
		t.Fatalf("expected %d live memory scopes after the failure, got %d", live, got)
	}

	err = interp.Run(ctx, "SAY this")
	if !errors.As(err, &rtErr) || rtErr.Category != impediment.Name {
		t.Fatalf("this must be unbound at the top level again, got %v", err)
	}
}

func TestUnboundedRecursionIsReported(t *testing.T) {
	rtErr := runtimeErr(t, lines(
		`USER STORY "forever"`,
		`  forever`,
		`END OF STORY`,
		`forever`,
	))
	if !strings.Contains(rtErr.Message, "Maximum call depth") {
		t.Fatalf("unexpected error %v", rtErr)
	}
}

func TestSyntaxErrorsStopBeforeExecution(t *testing.T) {
	_, out, err := runProgram(t, lines(`SAY "first"`, "END OF EPIC"), "")
	var syntaxErr *impediment.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected syntax error, got %v", err)
	}
	if out != "" {
		t.Fatalf("nothing may run after a syntax error, got %q", out)
	}
}

func TestDefinitionsPersistAcrossRuns(t *testing.T) {
	var out bytes.Buffer
	interp := New(WithOutput(&out))
	ctx := context.Background()
	if err := interp.Run(ctx, lines(`USER STORY "double" USING [n]`, `  RETURN ANSWER n * 2`, `END OF STORY`, `base IS 20`)); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if err := interp.Run(ctx, "SAY double USING [base + 1]"); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if out.String() != "42\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
	if strings.Join(interp.Globals(), ",") != "base" {
		t.Fatalf("unexpected globals %v", interp.Globals())
	}
}

func TestExecuteHandBuiltProgram(t *testing.T) {
	interp := New(WithOutput(&bytes.Buffer{}))
	program := ast.Program(
		ast.Stmt(ast.Assign(ast.ID("xs"), ast.Arr(ast.Num(1), ast.Num(2)))),
		ast.Stmt(ast.Assign(ast.Index(ast.ID("xs"), ast.Num(1)), ast.Bin(ast.OpMul, ast.Num(3), ast.Num(4)))),
		ast.Stmt(ast.Assign(ast.ID("label"), ast.Bin(ast.OpAdd, ast.Str("n"), ast.Bool(true)))),
	)
	if err := interp.Execute(program); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	xs, _ := interp.Lookup("xs")
	if got := runtime.Format(xs); got != "[1, 12]" {
		t.Fatalf("unexpected xs %s", got)
	}
	label, _ := interp.Lookup("label")
	if got := runtime.Format(label); got != "ntrue" {
		t.Fatalf("unexpected label %s", got)
	}
}

func TestInvokeEndpoint(t *testing.T) {
	interp, _ := mustRun(t, lines(
		`I WANT TO DEFINE API "Users" BASE IS "/api"`,
		`  I WANT TO DEFINE ENDPOINT "get user"`,
		`    METHOD IS "GET"`,
		`    PATH IS "/users/{id}"`,
		`    WHEN REQUEST`,
		`      RESPOND WITH id + 1`,
		`    END WHEN`,
		`  END OF ENDPOINT`,
		`  I WANT TO DEFINE ENDPOINT "ping"`,
		`    METHOD IS "POST"`,
		`    PATH IS "/ping"`,
		`    WHEN REQUEST`,
		`      seen IS true`,
		`    END WHEN`,
		`  END OF ENDPOINT`,
		`  I WANT TO DEFINE ENDPOINT "docs"`,
		`    PATH IS "/docs"`,
		`  END OF ENDPOINT`,
		`END OF API`,
	))
	api, ok := interp.Definitions().LookupAPI(interp.RootScope(), "Users")
	if !ok || len(api.Endpoints) != 3 {
		t.Fatalf("expected API with three endpoints, got %#v", api)
	}
	val, err := interp.InvokeEndpoint(api.Endpoints[0], map[string]runtime.Value{"id": runtime.NumericValue{Val: 41}})
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if runtime.Format(val) != "42" {
		t.Fatalf("unexpected response %#v", val)
	}
	val, err = interp.InvokeEndpoint(api.Endpoints[1], nil)
	if err != nil || val != nil {
		t.Fatalf("expected no response, got %#v (%v)", val, err)
	}
	if _, ok := interp.Lookup("seen"); ok {
		t.Fatalf("handler variables must not leak into globals")
	}
	if _, err := interp.InvokeEndpoint(api.Endpoints[2], nil); err == nil {
		t.Fatalf("expected declarative endpoint to be rejected")
	}
}

type fakePreprocessor struct {
	calls int
}

func (f *fakePreprocessor) Process(_ context.Context, program *ast.Block, _ *runtime.Definitions) error {
	f.calls++
	for idx, stmt := range program.Statements {
		if _, ok := stmt.(*ast.IntentBlock); ok {
			program.Statements[idx] = ast.NewSay(ast.Str("from intent"))
		}
	}
	return nil
}

func TestRunAppliesPreprocessor(t *testing.T) {
	var out bytes.Buffer
	pre := &fakePreprocessor{}
	interp := New(WithOutput(&out), WithPreprocessor(pre))
	if err := interp.Run(context.Background(), lines("#INTENT", "greet everyone", "#END INTENT")); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if pre.calls != 1 || out.String() != "from intent\n" {
		t.Fatalf("unexpected preprocessing result %d %q", pre.calls, out.String())
	}
}
