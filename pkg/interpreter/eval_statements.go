package interpreter

import (
	"fmt"
	"io"
	"strings"

	"scrum/interpreter-go/pkg/ast"
	"scrum/interpreter-go/pkg/impediment"
	"scrum/interpreter-go/pkg/runtime"
)

// executeBlock runs statements in order inside the block's definition scope.
// It stops as soon as a signal is raised and leaves the signal for the
// construct that consumes it.
func (i *Interpreter) executeBlock(block *ast.Block) error {
	if block == nil {
		return nil
	}
	defer i.enterDefinitionScope(block.Scope)()
	for _, stmt := range block.Statements {
		if err := i.executeStatement(stmt); err != nil {
			return i.located(err, stmt.Line())
		}
		if i.signals.raised() {
			return nil
		}
	}
	return nil
}

func (i *Interpreter) executeStatement(node ast.Statement) error {
	switch n := node.(type) {
	case *ast.ExpressionStatement:
		_, err := i.evaluateExpression(n.Expression)
		return err
	case *ast.Say:
		return i.executeSay(n)
	case *ast.Ask:
		return i.executeAsk(n)
	case *ast.Condition:
		return i.executeCondition(n)
	case *ast.CountedLoop:
		return i.runLoop(&countedLoop{interp: i, node: n}, n.Body)
	case *ast.IterateLoop:
		return i.runLoop(&iterateLoop{interp: i, node: n}, n.Body)
	case *ast.WhileLoop:
		return i.runLoop(&whileLoop{interp: i, node: n}, n.Body)
	case *ast.Break:
		i.signals.breaking = true
		return nil
	case *ast.Next:
		i.signals.nexting = true
		return nil
	case *ast.Return:
		val, err := i.evaluateExpression(n.Value)
		if err != nil {
			return err
		}
		i.signals.returning = true
		i.signals.returnValue = val
		return nil
	case *ast.Block:
		return i.executeBlock(n)
	case *ast.ClassDeclaration, *ast.FunctionDeclaration, *ast.ApiDeclaration, *ast.BaseStatement, *ast.Endpoint:
		// registered while parsing
		return nil
	case *ast.IntentBlock:
		return impediment.NewRuntimeError(impediment.Unknown, "Intent block was not processed before execution")
	default:
		return impediment.NewRuntimeError(impediment.Unknown, "unsupported statement type: %s", n.NodeType())
	}
}

func (i *Interpreter) executeSay(n *ast.Say) error {
	val, err := i.evaluateExpression(n.Value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(i.out, runtime.Format(val))
	return err
}

// executeAsk prompts with the variable name, reads a line and binds it as a
// number, a logical or text, in that order of preference.
func (i *Interpreter) executeAsk(n *ast.Ask) error {
	prompt := fmt.Sprintf("Enter %q >>> ", strings.ReplaceAll(n.Name, "_", " "))
	var line string
	var err error
	if lp, ok := i.in.(LinePrompter); ok {
		line, err = lp.PromptLine(prompt)
	} else {
		if _, err := io.WriteString(i.out, prompt); err != nil {
			return err
		}
		line, err = i.in.ReadLine()
	}
	if err != nil {
		return &impediment.RuntimeError{
			Category: impediment.Unknown,
			Message:  fmt.Sprintf("No input available for %s", n.Name),
			Err:      err,
		}
	}
	i.mem.Set(i.currentMemory(), n.Name, runtime.Classify(line))
	return nil
}

// executeCondition runs the body of the first case whose condition is true.
// Later conditions are not evaluated.
func (i *Interpreter) executeCondition(n *ast.Condition) error {
	for _, c := range n.Cases {
		ok, err := i.evaluateLogical(c.Condition)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		leave := i.enterChildMemory()
		defer leave()
		return i.executeBlock(c.Body)
	}
	return nil
}

func (i *Interpreter) evaluateLogical(expr ast.Expression) (bool, error) {
	val, err := i.evaluateExpression(expr)
	if err != nil {
		return false, err
	}
	logical, ok := val.(runtime.LogicalValue)
	if !ok {
		return false, impediment.NewRuntimeError(impediment.Type, "Cannot compare non logical value %s", runtime.Format(val))
	}
	return logical.Val, nil
}
