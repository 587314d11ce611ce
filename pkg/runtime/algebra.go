package runtime

import (
	"cmp"
	"math"
	"strconv"
	"strings"

	"scrum/interpreter-go/pkg/impediment"
)

// Format renders the textual form used by SAY and by text coercion.
func Format(v Value) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case NumericValue:
		return FormatNumber(val.Val)
	case TextValue:
		return val.Val
	case LogicalValue:
		if val.Val {
			return "true"
		}
		return "false"
	case NullValue:
		return "null"
	case *ArrayValue:
		parts := make([]string, len(val.Elements))
		for i, el := range val.Elements {
			parts[i] = Format(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *InstanceValue:
		var b strings.Builder
		b.WriteString(val.Class.Name)
		b.WriteString(" [ ")
		for i, param := range val.Class.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(param)
			b.WriteString(" = ")
			field, _ := val.Field(param)
			b.WriteString(Format(field))
		}
		b.WriteString(" ]")
		return b.String()
	default:
		return "<unknown>"
	}
}

// FormatNumber prints integral values without a fractional part.
func FormatNumber(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Equal implements == for every pair of values. Null only equals null; values
// of the same kind compare by payload and mixed kinds by their textual form.
func Equal(a, b Value) bool {
	a, b = orNull(a), orNull(b)
	if a.Kind() == KindNull || b.Kind() == KindNull {
		return a.Kind() == b.Kind()
	}
	if a.Kind() != b.Kind() {
		return Format(a) == Format(b)
	}
	switch left := a.(type) {
	case NumericValue:
		return left.Val == b.(NumericValue).Val
	case TextValue:
		return left.Val == b.(TextValue).Val
	case LogicalValue:
		return left.Val == b.(LogicalValue).Val
	case *ArrayValue:
		right := b.(*ArrayValue)
		if len(left.Elements) != len(right.Elements) {
			return false
		}
		for i := range left.Elements {
			if !Equal(left.Elements[i], right.Elements[i]) {
				return false
			}
		}
		return true
	case *InstanceValue:
		right := b.(*InstanceValue)
		if left == right {
			return true
		}
		if left.Class.Name != right.Class.Name {
			return false
		}
		lv, rv := left.ConstructorValues(), right.ConstructorValues()
		for i := range lv {
			if !Equal(lv[i], rv[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare orders two values for < > <= >=. Numbers, texts and logicals use
// their natural order; other combinations compare textual forms.
func Compare(a, b Value) (int, error) {
	a, b = orNull(a), orNull(b)
	if a.Kind() == KindNull || b.Kind() == KindNull {
		return 0, impediment.NewRuntimeError(impediment.Type, "Cannot compare null value")
	}
	switch left := a.(type) {
	case NumericValue:
		if right, ok := b.(NumericValue); ok {
			return cmp.Compare(left.Val, right.Val), nil
		}
	case TextValue:
		if right, ok := b.(TextValue); ok {
			return strings.Compare(left.Val, right.Val), nil
		}
	case LogicalValue:
		if right, ok := b.(LogicalValue); ok {
			return cmp.Compare(boolRank(left.Val), boolRank(right.Val)), nil
		}
	}
	return strings.Compare(Format(a), Format(b)), nil
}

// Iterator walks an iterable value. It is restartable through Reset.
type Iterator struct {
	items []Value
	pos   int
}

func (it *Iterator) HasNext() bool { return it.pos < len(it.items) }

func (it *Iterator) Next() Value {
	v := it.items[it.pos]
	it.pos++
	return v
}

func (it *Iterator) Reset() { it.pos = 0 }

// Iterate returns an iterator over an array's elements or an instance's
// constructor fields. Other values are not iterable.
func Iterate(v Value) (*Iterator, bool) {
	switch val := v.(type) {
	case *ArrayValue:
		return &Iterator{items: val.Elements}, true
	case *InstanceValue:
		return &Iterator{items: val.ConstructorValues()}, true
	default:
		return nil, false
	}
}

// Classify converts console or request text into a value: numeric literal
// first, then logical literal, else text.
func Classify(input string) Value {
	trimmed := strings.TrimSpace(input)
	if isNumericLiteral(trimmed) {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return NumericValue{Val: f}
		}
	}
	switch trimmed {
	case "true":
		return True
	case "false":
		return False
	}
	return TextValue{Val: input}
}

func isNumericLiteral(s string) bool {
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	intPart, frac, hasDot := strings.Cut(s, ".")
	if hasDot && frac == "" {
		return false
	}
	if !hasDot && intPart == "" {
		return false
	}
	return allDigits(intPart) && allDigits(frac)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func orNull(v Value) Value {
	if v == nil {
		return Null
	}
	return v
}
