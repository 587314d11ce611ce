package interpreter

import (
	"scrum/interpreter-go/pkg/ast"
	"scrum/interpreter-go/pkg/impediment"
	"scrum/interpreter-go/pkg/runtime"
)

// evaluateCall invokes a USER STORY by bare name. Inside a method, a sibling
// method of the receiver's EPIC is called on the same receiver.
func (i *Interpreter) evaluateCall(n *ast.Call) (runtime.Value, error) {
	args, err := i.evaluateAll(n.Args)
	if err != nil {
		return nil, err
	}
	fn, ok := i.defs.LookupFunction(i.currentDefinitionScope(), n.Name)
	if !ok {
		return nil, impediment.NewRuntimeError(impediment.Name, "USER STORY (function) is not defined: %s", n.Name)
	}
	if recv := i.receiver(); recv != nil && i.isMethodOf(fn, recv.Class) {
		return i.callFunction(fn, args, recv)
	}
	return i.callFunction(fn, args, nil)
}

func (i *Interpreter) isMethodOf(fn *runtime.FunctionDefinition, class *runtime.ClassDefinition) bool {
	return i.defs.Parent(fn.Scope) == class.Scope
}

// callFunction runs fn in a fresh activation scope. Methods get an activation
// nested under the receiver's field scope so fields read by bare name.
// Missing arguments bind to null; extra arguments are dropped.
func (i *Interpreter) callFunction(fn *runtime.FunctionDefinition, args []runtime.Value, recv *runtime.InstanceValue) (runtime.Value, error) {
	leaveCall, err := i.enterCall(fn.Name)
	if err != nil {
		return nil, err
	}
	defer leaveCall()

	parent := runtime.NoMemory
	if recv != nil {
		parent = recv.Scope
		defer i.enterReceiver(recv)()
	}
	activation := i.mem.Alloc(parent)
	defer i.mem.Release(activation)
	bindParams(i.mem, activation, fn.Params, args)

	defer i.enterMemory(activation)()
	defer i.withStory(fn.Name)()

	err = i.executeBlock(fn.Body)
	result := i.signals.returnValue
	i.signals.reset()
	if err != nil {
		return nil, err
	}
	if result == nil {
		return runtime.Null, nil
	}
	return result, nil
}

// evaluateNew instantiates an EPIC: constructor parameters become fields and
// the class body runs with the instance as receiver.
func (i *Interpreter) evaluateNew(n *ast.New) (runtime.Value, error) {
	args, err := i.evaluateAll(n.Args)
	if err != nil {
		return nil, err
	}
	class, ok := i.defs.LookupClass(i.currentDefinitionScope(), n.Class)
	if !ok {
		return nil, impediment.NewRuntimeError(impediment.Name, "EPIC (class) is not defined: %s", n.Class)
	}
	leaveCall, err := i.enterCall(class.Name)
	if err != nil {
		return nil, err
	}
	defer leaveCall()

	inst := i.mem.NewInstance(class)
	bindParams(i.mem, inst.Scope, class.Params, args)

	leaveMemory := i.enterMemory(inst.Scope)
	leaveReceiver := i.enterReceiver(inst)
	err = i.executeBlock(class.Body)
	leaveReceiver()
	leaveMemory()
	i.signals.reset()
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// evaluateMemberAccess reads a field or calls a method. Without USING a field
// wins over a method of the same name.
func (i *Interpreter) evaluateMemberAccess(n *ast.MemberAccess) (runtime.Value, error) {
	inst, err := i.evaluateInstance(n.Object, n.Name)
	if err != nil {
		return nil, err
	}
	var args []runtime.Value
	if n.Call != nil {
		if args, err = i.evaluateAll(n.Call.Args); err != nil {
			return nil, err
		}
	} else if val, ok := i.mem.Local(inst.Scope, n.Name); ok {
		return val, nil
	}
	fn, ok := i.defs.LookupFunction(inst.Class.Scope, n.Name)
	if !ok || !i.isMethodOf(fn, inst.Class) {
		return nil, impediment.NewRuntimeError(impediment.Property, "%s has no property or USER STORY named %s", inst.Class.Name, n.Name)
	}
	return i.callFunction(fn, args, inst)
}

func (i *Interpreter) evaluateInstance(object ast.Expression, member string) (*runtime.InstanceValue, error) {
	val, err := i.evaluateExpression(object)
	if err != nil {
		return nil, err
	}
	inst, ok := val.(*runtime.InstanceValue)
	if !ok {
		return nil, impediment.NewRuntimeError(impediment.Property, "Cannot access %s of non EPIC value `%s`", member, runtime.Format(val))
	}
	return inst, nil
}

// enterCall bounds the nesting of calls and instantiations.
func (i *Interpreter) enterCall(name string) (func(), error) {
	if i.depth >= maxCallDepth {
		return nil, impediment.NewRuntimeError(impediment.Unknown, "Maximum call depth of %d exceeded in %s", maxCallDepth, name)
	}
	i.depth++
	return func() { i.depth-- }, nil
}

func bindParams(mem *runtime.Memory, scope runtime.MemoryID, params []string, args []runtime.Value) {
	for idx, param := range params {
		val := runtime.Null
		if idx < len(args) {
			val = args[idx]
		}
		mem.SetLocal(scope, param, val)
	}
}
