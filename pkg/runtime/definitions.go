package runtime

import (
	"sort"

	"scrum/interpreter-go/pkg/ast"
)

// ClassDefinition is a registered EPIC. Scope is the definition scope its
// body was parsed in.
type ClassDefinition struct {
	Name   string
	Params []string
	Body   *ast.Block
	Scope  ast.ScopeID
}

// FunctionDefinition is a registered USER STORY.
type FunctionDefinition struct {
	Name   string
	Params []string
	Body   *ast.Block
	Scope  ast.ScopeID
}

// ApiDefinition is a registered API with the endpoints declared in its body.
type ApiDefinition struct {
	Name      string
	BasePath  string
	Body      *ast.Block
	Scope     ast.ScopeID
	Endpoints []*EndpointDefinition
}

// EndpointDefinition describes one route. Handler is nil for endpoints that
// only declare metadata.
type EndpointDefinition struct {
	Name        string
	Method      string
	Path        string
	QueryParams []string
	Returns     string
	Handler     *ast.Block
	Scope       ast.ScopeID
}

// Executable reports whether the endpoint carries a WHEN REQUEST handler.
func (e *EndpointDefinition) Executable() bool {
	return e.Handler != nil
}

type definitionScope struct {
	parent    ast.ScopeID
	classes   map[string]*ClassDefinition
	functions map[string]*FunctionDefinition
	apis      map[string]*ApiDefinition
}

// Definitions is an append-only arena of lexically nested definition scopes.
type Definitions struct {
	scopes []*definitionScope
}

func NewDefinitions() *Definitions {
	return &Definitions{}
}

// NewScope creates a scope nested under parent (ast.NoScope for a root).
func (d *Definitions) NewScope(parent ast.ScopeID) ast.ScopeID {
	d.scopes = append(d.scopes, &definitionScope{
		parent:    parent,
		classes:   make(map[string]*ClassDefinition),
		functions: make(map[string]*FunctionDefinition),
		apis:      make(map[string]*ApiDefinition),
	})
	return ast.ScopeID(len(d.scopes) - 1)
}

// Parent returns the scope's parent, or ast.NoScope.
func (d *Definitions) Parent(id ast.ScopeID) ast.ScopeID {
	if s := d.scope(id); s != nil {
		return s.parent
	}
	return ast.NoScope
}

// Later registrations under the same name replace earlier ones.

func (d *Definitions) DefineClass(id ast.ScopeID, def *ClassDefinition) {
	if s := d.scope(id); s != nil {
		s.classes[def.Name] = def
	}
}

func (d *Definitions) DefineFunction(id ast.ScopeID, def *FunctionDefinition) {
	if s := d.scope(id); s != nil {
		s.functions[def.Name] = def
	}
}

func (d *Definitions) DefineAPI(id ast.ScopeID, def *ApiDefinition) {
	if s := d.scope(id); s != nil {
		s.apis[def.Name] = def
	}
}

func (d *Definitions) LookupClass(id ast.ScopeID, name string) (*ClassDefinition, bool) {
	for s := d.scope(id); s != nil; s = d.scope(s.parent) {
		if def, ok := s.classes[name]; ok {
			return def, true
		}
	}
	return nil, false
}

func (d *Definitions) LookupFunction(id ast.ScopeID, name string) (*FunctionDefinition, bool) {
	for s := d.scope(id); s != nil; s = d.scope(s.parent) {
		if def, ok := s.functions[name]; ok {
			return def, true
		}
	}
	return nil, false
}

func (d *Definitions) LookupAPI(id ast.ScopeID, name string) (*ApiDefinition, bool) {
	for s := d.scope(id); s != nil; s = d.scope(s.parent) {
		if def, ok := s.apis[name]; ok {
			return def, true
		}
	}
	return nil, false
}

// Functions lists the names of the scope's own functions in sorted order.
func (d *Definitions) Functions(id ast.ScopeID) []string {
	s := d.scope(id)
	if s == nil {
		return nil
	}
	return sortedKeys(s.functions)
}

// Classes lists the names of the scope's own classes in sorted order.
func (d *Definitions) Classes(id ast.ScopeID) []string {
	s := d.scope(id)
	if s == nil {
		return nil
	}
	return sortedKeys(s.classes)
}

// APIs lists the scope's own APIs sorted by name.
func (d *Definitions) APIs(id ast.ScopeID) []*ApiDefinition {
	s := d.scope(id)
	if s == nil {
		return nil
	}
	out := make([]*ApiDefinition, 0, len(s.apis))
	for _, name := range sortedKeys(s.apis) {
		out = append(out, s.apis[name])
	}
	return out
}

func (d *Definitions) scope(id ast.ScopeID) *definitionScope {
	if id < 0 || int(id) >= len(d.scopes) {
		return nil
	}
	return d.scopes[id]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
