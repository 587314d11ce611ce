package interpreter

import (
	"scrum/interpreter-go/pkg/ast"
	"scrum/interpreter-go/pkg/impediment"
	"scrum/interpreter-go/pkg/runtime"
)

// loopDriver supplies the steps of the shared loop template.
type loopDriver interface {
	init() error
	hasNext() (bool, error)
	preIncrement() error
	postIncrement() error
}

// runLoop drives init, then hasNext / preIncrement / body / postIncrement
// until hasNext is false or the body breaks. next skips the rest of the body
// but still runs postIncrement. A return leaves the loop with the signal set.
func (i *Interpreter) runLoop(d loopDriver, body *ast.Block) error {
	if err := d.init(); err != nil {
		return err
	}
	for {
		more, err := d.hasNext()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		if err := d.preIncrement(); err != nil {
			return err
		}
		if err := i.runLoopBody(body); err != nil {
			return err
		}
		if i.signals.breaking {
			i.signals.breaking = false
			return nil
		}
		if i.signals.returning {
			return nil
		}
		i.signals.nexting = false
		if err := d.postIncrement(); err != nil {
			return err
		}
	}
}

func (i *Interpreter) runLoopBody(body *ast.Block) error {
	leave := i.enterChildMemory()
	defer leave()
	return i.executeBlock(body)
}

// countedLoop binds Var to Lower and steps it while it stays below Upper
// (above Upper when the step is negative). Upper and the step are evaluated
// on every check so the body may move them.
type countedLoop struct {
	interp *Interpreter
	node   *ast.CountedLoop
}

func (l *countedLoop) init() error {
	lower, err := l.interp.evaluateExpression(l.node.Lower)
	if err != nil {
		return err
	}
	l.interp.mem.Set(l.interp.currentMemory(), l.node.Var, lower)
	return nil
}

func (l *countedLoop) step() (runtime.Value, error) {
	if l.node.Step == nil {
		return runtime.NumericValue{Val: 1}, nil
	}
	return l.interp.evaluateExpression(l.node.Step)
}

func (l *countedLoop) hasNext() (bool, error) {
	current, ok := l.interp.mem.Get(l.interp.currentMemory(), l.node.Var)
	if !ok {
		return false, impediment.NewRuntimeError(impediment.Name, "Loop variable is not defined: %s", l.node.Var)
	}
	upper, err := l.interp.evaluateExpression(l.node.Upper)
	if err != nil {
		return false, err
	}
	step, err := l.step()
	if err != nil {
		return false, err
	}
	cmp, err := runtime.Compare(current, upper)
	if err != nil {
		return false, err
	}
	if n, ok := step.(runtime.NumericValue); ok && n.Val < 0 {
		return cmp > 0, nil
	}
	return cmp < 0, nil
}

func (l *countedLoop) preIncrement() error { return nil }

func (l *countedLoop) postIncrement() error {
	current, _ := l.interp.mem.Get(l.interp.currentMemory(), l.node.Var)
	step, err := l.step()
	if err != nil {
		return err
	}
	next, err := add(current, step)
	if err != nil {
		return err
	}
	l.interp.mem.Set(l.interp.currentMemory(), l.node.Var, next)
	return nil
}

// iterateLoop binds Var to each element of an array or each constructor field
// of an instance.
type iterateLoop struct {
	interp *Interpreter
	node   *ast.IterateLoop
	it     *runtime.Iterator
}

func (l *iterateLoop) init() error {
	val, err := l.interp.evaluateExpression(l.node.Iterable)
	if err != nil {
		return err
	}
	it, ok := runtime.Iterate(val)
	if !ok {
		return impediment.NewRuntimeError(impediment.Iteration, "Unable to loop non iterable value `%s`", runtime.Format(val))
	}
	l.it = it
	return nil
}

func (l *iterateLoop) hasNext() (bool, error) { return l.it.HasNext(), nil }

func (l *iterateLoop) preIncrement() error {
	l.interp.mem.Set(l.interp.currentMemory(), l.node.Var, l.it.Next())
	return nil
}

func (l *iterateLoop) postIncrement() error { return nil }

type whileLoop struct {
	interp *Interpreter
	node   *ast.WhileLoop
}

func (l *whileLoop) init() error { return nil }

func (l *whileLoop) hasNext() (bool, error) { return l.interp.evaluateLogical(l.node.Condition) }

func (l *whileLoop) preIncrement() error { return nil }

func (l *whileLoop) postIncrement() error { return nil }
