package runtime

import (
	"errors"
	"testing"

	"scrum/interpreter-go/pkg/ast"
	"scrum/interpreter-go/pkg/impediment"
)

func TestMemorySetWalksChainBeforeDefiningLocally(t *testing.T) {
	mem := NewMemory()
	outer := mem.Alloc(NoMemory)
	inner := mem.Alloc(outer)

	mem.SetLocal(outer, "count", NumericValue{Val: 1})
	mem.Set(inner, "count", NumericValue{Val: 2})
	mem.Set(inner, "fresh", TextValue{Val: "x"})

	if v, _ := mem.Local(outer, "count"); !Equal(v, NumericValue{Val: 2}) {
		t.Fatalf("expected outer count to be updated, got %#v", v)
	}
	if _, ok := mem.Local(outer, "fresh"); ok {
		t.Fatalf("unbound name leaked into the parent scope")
	}
	if v, ok := mem.Get(inner, "fresh"); !ok || Format(v) != "x" {
		t.Fatalf("expected local binding, got %#v", v)
	}
	if names := mem.Names(inner); len(names) != 1 || names[0] != "fresh" {
		t.Fatalf("unexpected local names %v", names)
	}
}

func TestMemoryReleaseRecyclesSlots(t *testing.T) {
	mem := NewMemory()
	root := mem.Alloc(NoMemory)
	child := mem.Alloc(root)
	mem.SetLocal(child, "tmp", Null)
	mem.Release(child)

	if _, ok := mem.Get(child, "tmp"); ok {
		t.Fatalf("released scope still resolves bindings")
	}
	again := mem.Alloc(NoMemory)
	if again != child {
		t.Fatalf("expected slot %d to be reused, got %d", child, again)
	}
	if _, ok := mem.Local(again, "tmp"); ok {
		t.Fatalf("recycled scope kept old bindings")
	}
	if mem.Parent(again) != NoMemory {
		t.Fatalf("recycled scope kept old parent")
	}
	if mem.Live() != 2 {
		t.Fatalf("expected 2 live scopes, got %d", mem.Live())
	}
}

func TestInstanceFieldsAliasMemoryScope(t *testing.T) {
	mem := NewMemory()
	class := &ClassDefinition{Name: "Person", Params: []string{"name", "age"}}
	inst := mem.NewInstance(class)
	mem.SetLocal(inst.Scope, "name", TextValue{Val: "Ada"})

	if got := Format(inst); got != "Person [ name = Ada, age = null ]" {
		t.Fatalf("unexpected instance text %q", got)
	}
	values := inst.ConstructorValues()
	if len(values) != 2 || values[1] != Null {
		t.Fatalf("expected missing field to read as null, got %#v", values)
	}
}

func TestDefinitionsLookupWalksParents(t *testing.T) {
	defs := NewDefinitions()
	root := defs.NewScope(ast.NoScope)
	child := defs.NewScope(root)

	defs.DefineFunction(root, &FunctionDefinition{Name: "greet"})
	defs.DefineClass(child, &ClassDefinition{Name: "Person"})

	if _, ok := defs.LookupFunction(child, "greet"); !ok {
		t.Fatalf("expected child scope to see parent function")
	}
	if _, ok := defs.LookupClass(root, "Person"); ok {
		t.Fatalf("parent scope must not see child class")
	}

	second := &FunctionDefinition{Name: "greet", Params: []string{"who"}}
	defs.DefineFunction(root, second)
	if got, _ := defs.LookupFunction(root, "greet"); got != second {
		t.Fatalf("expected last registration to win")
	}
	if names := defs.Functions(root); len(names) != 1 || names[0] != "greet" {
		t.Fatalf("unexpected function listing %v", names)
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		value Value
		want  string
	}{
		{NumericValue{Val: 34}, "34"},
		{NumericValue{Val: 0.5}, "0.5"},
		{NumericValue{Val: -3}, "-3"},
		{TextValue{Val: "hi"}, "hi"},
		{True, "true"},
		{Null, "null"},
		{NewArray([]Value{NumericValue{Val: -1}, NumericValue{Val: 40}, TextValue{Val: "a"}}), "[-1, 40, a]"},
		{NewArray(nil), "[]"},
	}
	for _, tc := range cases {
		if got := Format(tc.value); got != tc.want {
			t.Fatalf("Format(%#v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestEqual(t *testing.T) {
	cases := []struct {
		a, b Value
		want bool
	}{
		{Null, Null, true},
		{Null, TextValue{Val: "null"}, false},
		{NumericValue{Val: 2}, NumericValue{Val: 2}, true},
		{NumericValue{Val: 2}, TextValue{Val: "2"}, true},
		{True, TextValue{Val: "true"}, true},
		{NewArray([]Value{NumericValue{Val: 1}}), NewArray([]Value{NumericValue{Val: 1}}), true},
		{NewArray([]Value{NumericValue{Val: 1}}), NewArray([]Value{NumericValue{Val: 2}}), false},
	}
	for _, tc := range cases {
		if got := Equal(tc.a, tc.b); got != tc.want {
			t.Fatalf("Equal(%#v, %#v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCompare(t *testing.T) {
	if c, err := Compare(NumericValue{Val: 2}, NumericValue{Val: 10}); err != nil || c >= 0 {
		t.Fatalf("expected 2 < 10, got %d (%v)", c, err)
	}
	if c, err := Compare(TextValue{Val: "b"}, TextValue{Val: "a"}); err != nil || c <= 0 {
		t.Fatalf("expected b > a, got %d (%v)", c, err)
	}
	_, err := Compare(Null, NumericValue{Val: 1})
	var rtErr *impediment.RuntimeError
	if !errors.As(err, &rtErr) || rtErr.Category != impediment.Type {
		t.Fatalf("expected type impediment comparing null, got %v", err)
	}
}

func TestIterate(t *testing.T) {
	arr := NewArray([]Value{NumericValue{Val: 1}, NumericValue{Val: 2}})
	it, ok := Iterate(arr)
	if !ok {
		t.Fatalf("array should be iterable")
	}
	var seen []string
	for it.HasNext() {
		seen = append(seen, Format(it.Next()))
	}
	it.Reset()
	if len(seen) != 2 || !it.HasNext() {
		t.Fatalf("unexpected iteration %v", seen)
	}
	if _, ok := Iterate(TextValue{Val: "abc"}); ok {
		t.Fatalf("text must not be iterable")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
	}{
		{"42", KindNumeric},
		{"-3.5", KindNumeric},
		{".5", KindNumeric},
		{"true", KindLogical},
		{"false", KindLogical},
		{"hello", KindText},
		{"4a", KindText},
		{"", KindText},
	}
	for _, tc := range cases {
		if got := Classify(tc.in); got.Kind() != tc.kind {
			t.Fatalf("Classify(%q) kind = %s, want %s", tc.in, got.Kind(), tc.kind)
		}
	}
}
