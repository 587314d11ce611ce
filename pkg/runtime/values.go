package runtime

import "fmt"

// Kind identifies the runtime value category.
type Kind int

const (
	KindNumeric Kind = iota
	KindText
	KindLogical
	KindNull
	KindArray
	KindInstance
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	case KindLogical:
		return "logical"
	case KindNull:
		return "null"
	case KindArray:
		return "array"
	case KindInstance:
		return "instance"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NumericValue struct {
	Val float64
}

func (v NumericValue) Kind() Kind { return KindNumeric }

type TextValue struct {
	Val string
}

func (v TextValue) Kind() Kind { return KindText }

type LogicalValue struct {
	Val bool
}

func (v LogicalValue) Kind() Kind { return KindLogical }

type NullValue struct{}

func (NullValue) Kind() Kind { return KindNull }

// Null is the single null value.
var Null Value = NullValue{}

var (
	True  Value = LogicalValue{Val: true}
	False Value = LogicalValue{Val: false}
)

// Logical returns the shared logical value for b.
func Logical(b bool) Value {
	if b {
		return True
	}
	return False
}

//-----------------------------------------------------------------------------
// Composites
//-----------------------------------------------------------------------------

// ArrayValue is mutable: appends and index writes are visible through every
// binding that holds the same array.
type ArrayValue struct {
	Elements []Value
}

func (v *ArrayValue) Kind() Kind { return KindArray }

func NewArray(elements []Value) *ArrayValue {
	if elements == nil {
		elements = []Value{}
	}
	return &ArrayValue{Elements: elements}
}

// InstanceValue is an EPIC instance. Its fields live in a memory scope that is
// never released; fields aliases that scope's bindings.
type InstanceValue struct {
	Class  *ClassDefinition
	Scope  MemoryID
	fields map[string]Value
}

func (v *InstanceValue) Kind() Kind { return KindInstance }

// Field reads a field without consulting the memory arena.
func (v *InstanceValue) Field(name string) (Value, bool) {
	val, ok := v.fields[name]
	return val, ok
}

// ConstructorValues returns the values of the constructor parameters in
// declaration order. Unset parameters read as Null.
func (v *InstanceValue) ConstructorValues() []Value {
	out := make([]Value, 0, len(v.Class.Params))
	for _, param := range v.Class.Params {
		val, ok := v.fields[param]
		if !ok || val == nil {
			val = Null
		}
		out = append(out, val)
	}
	return out
}
