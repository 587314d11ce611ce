package interpreter

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"scrum/interpreter-go/pkg/ast"
	"scrum/interpreter-go/pkg/impediment"
	"scrum/interpreter-go/pkg/lexer"
	"scrum/interpreter-go/pkg/parser"
	"scrum/interpreter-go/pkg/runtime"
)

// maxCallDepth bounds USER STORY recursion.
const maxCallDepth = 4096

// LineReader supplies input lines to ASK.
type LineReader interface {
	ReadLine() (string, error)
}

// LinePrompter is a LineReader that draws the ASK prompt itself, the way a
// line editor owning the terminal does. ASK then writes nothing to the output.
type LinePrompter interface {
	LineReader
	PromptLine(prompt string) (string, error)
}

// Preprocessor rewrites intent blocks into ordinary statements before a
// program runs.
type Preprocessor interface {
	Process(ctx context.Context, program *ast.Block, defs *runtime.Definitions) error
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput directs SAY and ASK prompts to w.
func WithOutput(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

// WithInput reads ASK answers from r, one line at a time.
func WithInput(r io.Reader) Option {
	return func(i *Interpreter) { i.in = &readerLines{r: bufio.NewReader(r)} }
}

// WithLineReader reads ASK answers from a custom source such as a line editor.
func WithLineReader(lr LineReader) Option {
	return func(i *Interpreter) { i.in = lr }
}

// WithPreprocessor enables intent processing in Run.
func WithPreprocessor(p Preprocessor) Option {
	return func(i *Interpreter) { i.pre = p }
}

// signals carries return, break and next between statements. A signal is
// cleared only by the construct that consumes it.
type signals struct {
	returning   bool
	returnValue runtime.Value
	breaking    bool
	nexting     bool
}

func (s *signals) raised() bool {
	return s.returning || s.breaking || s.nexting
}

func (s *signals) reset() {
	*s = signals{}
}

// Interpreter owns all evaluation state: the definition and memory arenas,
// the active scope and receiver stacks, control-flow signals and console I/O.
type Interpreter struct {
	defs   *runtime.Definitions
	mem    *runtime.Memory
	root   ast.ScopeID
	global runtime.MemoryID

	defStack  []ast.ScopeID
	memStack  []runtime.MemoryID
	receivers []*runtime.InstanceValue
	signals   signals
	depth     int

	epic  string
	story string

	out    io.Writer
	in     LineReader
	pre    Preprocessor
	source string
}

// New returns an interpreter with an empty root definition scope and global
// memory scope. Output defaults to stdout and input to stdin.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		defs: runtime.NewDefinitions(),
		mem:  runtime.NewMemory(),
		out:  os.Stdout,
	}
	i.root = i.defs.NewScope(ast.NoScope)
	i.global = i.mem.Alloc(runtime.NoMemory)
	i.defStack = []ast.ScopeID{i.root}
	i.memStack = []runtime.MemoryID{i.global}
	for _, opt := range opts {
		opt(i)
	}
	if i.in == nil {
		WithInput(os.Stdin)(i)
	}
	return i
}

// Definitions exposes the definition arena.
func (i *Interpreter) Definitions() *runtime.Definitions {
	return i.defs
}

// Memory exposes the memory arena.
func (i *Interpreter) Memory() *runtime.Memory {
	return i.mem
}

// RootScope is the definition scope top-level declarations live in.
func (i *Interpreter) RootScope() ast.ScopeID {
	return i.root
}

// Lookup reads a global variable.
func (i *Interpreter) Lookup(name string) (runtime.Value, bool) {
	return i.mem.Get(i.global, name)
}

// Globals lists the global variable names in sorted order.
func (i *Interpreter) Globals() []string {
	return i.mem.Names(i.global)
}

// Run tokenizes, parses, preprocesses and executes source. Definitions and
// globals persist across calls, so several sources can share one program.
func (i *Interpreter) Run(ctx context.Context, source string) error {
	program, err := i.Parse(source)
	if err != nil {
		return err
	}
	if i.pre != nil {
		if err := i.pre.Process(ctx, program, i.defs); err != nil {
			return err
		}
	}
	return i.Execute(program)
}

// Parse lexes and parses source against the root scope without executing
// anything. Declarations are registered as a side effect.
func (i *Interpreter) Parse(source string) (*ast.Block, error) {
	i.source = source
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, impediment.AttachSource(err, source)
	}
	program, err := parser.Parse(tokens, i.defs, i.root)
	if err != nil {
		return nil, impediment.AttachSource(err, source)
	}
	return program, nil
}

// Execute runs a parsed program in the global memory scope. Signals left
// over at the top level (a stray break or return) are discarded.
func (i *Interpreter) Execute(program *ast.Block) error {
	defer i.signals.reset()
	return i.executeBlock(program)
}

// InvokeEndpoint runs an endpoint handler in its definition scope and a fresh
// memory scope holding bindings. The value is nil when the handler did not
// respond with anything.
func (i *Interpreter) InvokeEndpoint(ep *runtime.EndpointDefinition, bindings map[string]runtime.Value) (runtime.Value, error) {
	if !ep.Executable() {
		return nil, impediment.NewRuntimeError(impediment.Unknown, "Endpoint %s has no WHEN REQUEST handler", ep.Name)
	}
	scope := i.mem.Alloc(runtime.NoMemory)
	defer i.mem.Release(scope)
	for name, value := range bindings {
		i.mem.SetLocal(scope, name, value)
	}
	defer i.enterMemory(scope)()
	defer i.withStory(ep.Name)()

	err := i.executeBlock(ep.Handler)
	result := i.signals.returnValue
	returned := i.signals.returning
	i.signals.reset()
	if err != nil {
		return nil, err
	}
	if !returned {
		return nil, nil
	}
	return result, nil
}

//-----------------------------------------------------------------------------
// Scope stacks. Every push returns its matching pop so callers can defer it.
//-----------------------------------------------------------------------------

func (i *Interpreter) currentDefinitionScope() ast.ScopeID {
	return i.defStack[len(i.defStack)-1]
}

func (i *Interpreter) currentMemory() runtime.MemoryID {
	return i.memStack[len(i.memStack)-1]
}

func (i *Interpreter) enterDefinitionScope(id ast.ScopeID) func() {
	i.defStack = append(i.defStack, id)
	depth := len(i.defStack) - 1
	return func() { i.defStack = i.defStack[:depth] }
}

func (i *Interpreter) enterMemory(id runtime.MemoryID) func() {
	i.memStack = append(i.memStack, id)
	depth := len(i.memStack) - 1
	return func() { i.memStack = i.memStack[:depth] }
}

// enterChildMemory allocates a scope nested under the current one and
// releases it on exit.
func (i *Interpreter) enterChildMemory() func() {
	id := i.mem.Alloc(i.currentMemory())
	leave := i.enterMemory(id)
	return func() {
		leave()
		i.mem.Release(id)
	}
}

func (i *Interpreter) enterReceiver(inst *runtime.InstanceValue) func() {
	i.receivers = append(i.receivers, inst)
	depth := len(i.receivers) - 1
	prevEpic := i.epic
	i.epic = inst.Class.Name
	return func() {
		i.receivers = i.receivers[:depth]
		i.epic = prevEpic
	}
}

func (i *Interpreter) receiver() *runtime.InstanceValue {
	if len(i.receivers) == 0 {
		return nil
	}
	return i.receivers[len(i.receivers)-1]
}

func (i *Interpreter) withStory(name string) func() {
	prev := i.story
	i.story = name
	return func() { i.story = prev }
}

// located fills in where a runtime error happened the first time it passes
// through a statement. Errors that are not language errors are wrapped.
func (i *Interpreter) located(err error, line int) error {
	var rtErr *impediment.RuntimeError
	if !errors.As(err, &rtErr) {
		var syntaxErr *impediment.SyntaxError
		var tokenErr *impediment.TokenError
		if errors.As(err, &syntaxErr) || errors.As(err, &tokenErr) {
			return err
		}
		rtErr = &impediment.RuntimeError{Category: impediment.Unknown, Message: err.Error(), Err: err}
		err = rtErr
	}
	if rtErr.Line == 0 {
		rtErr.Line = line
		rtErr.Snippet = impediment.SourceLine(i.source, line)
		rtErr.Epic = i.epic
		rtErr.Story = i.story
	}
	return err
}

type readerLines struct {
	r *bufio.Reader
}

func (l *readerLines) ReadLine() (string, error) {
	line, err := l.r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
