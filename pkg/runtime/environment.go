package runtime

import "sort"

// MemoryID addresses a memory scope in a Memory arena.
type MemoryID int

// NoMemory is the parent of unparented scopes.
const NoMemory MemoryID = -1

type memoryScope struct {
	values map[string]Value
	parent MemoryID
	live   bool
}

// Memory is an arena of variable scopes. A scope's parent is fixed when it is
// allocated; released slots are recycled.
type Memory struct {
	scopes []memoryScope
	free   []MemoryID
}

func NewMemory() *Memory {
	return &Memory{}
}

// Alloc creates a scope nested under parent (NoMemory for none).
func (m *Memory) Alloc(parent MemoryID) MemoryID {
	scope := memoryScope{values: make(map[string]Value), parent: parent, live: true}
	if n := len(m.free); n > 0 {
		id := m.free[n-1]
		m.free = m.free[:n-1]
		m.scopes[id] = scope
		return id
	}
	m.scopes = append(m.scopes, scope)
	return MemoryID(len(m.scopes) - 1)
}

// Release returns a scope's slot to the arena. Handles to it become invalid.
func (m *Memory) Release(id MemoryID) {
	if !m.valid(id) {
		return
	}
	m.scopes[id] = memoryScope{parent: NoMemory}
	m.free = append(m.free, id)
}

// NewInstance allocates the unparented field scope of a class instance.
func (m *Memory) NewInstance(class *ClassDefinition) *InstanceValue {
	id := m.Alloc(NoMemory)
	return &InstanceValue{Class: class, Scope: id, fields: m.scopes[id].values}
}

// Parent exposes the scope's parent (NoMemory when unparented).
func (m *Memory) Parent(id MemoryID) MemoryID {
	if !m.valid(id) {
		return NoMemory
	}
	return m.scopes[id].parent
}

// Get retrieves a binding, searching outward through the scope chain.
func (m *Memory) Get(id MemoryID, name string) (Value, bool) {
	for m.valid(id) {
		if v, ok := m.scopes[id].values[name]; ok {
			return v, true
		}
		id = m.scopes[id].parent
	}
	return nil, false
}

// Local retrieves a binding from the given scope only.
func (m *Memory) Local(id MemoryID, name string) (Value, bool) {
	if !m.valid(id) {
		return nil, false
	}
	v, ok := m.scopes[id].values[name]
	return v, ok
}

// SetLocal inserts or shadows a binding in the given scope.
func (m *Memory) SetLocal(id MemoryID, name string, value Value) {
	if !m.valid(id) {
		return
	}
	m.scopes[id].values[name] = value
}

// Set updates the first existing binding up the chain, or creates a local
// binding when the name is not bound anywhere.
func (m *Memory) Set(id MemoryID, name string, value Value) {
	for cur := id; m.valid(cur); cur = m.scopes[cur].parent {
		if _, ok := m.scopes[cur].values[name]; ok {
			m.scopes[cur].values[name] = value
			return
		}
	}
	m.SetLocal(id, name, value)
}

// Names returns the scope's own bindings in sorted order.
func (m *Memory) Names(id MemoryID) []string {
	if !m.valid(id) {
		return nil
	}
	keys := make([]string, 0, len(m.scopes[id].values))
	for k := range m.scopes[id].values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Live reports the number of allocated, unreleased scopes.
func (m *Memory) Live() int {
	return len(m.scopes) - len(m.free)
}

func (m *Memory) valid(id MemoryID) bool {
	return id >= 0 && int(id) < len(m.scopes) && m.scopes[id].live
}
