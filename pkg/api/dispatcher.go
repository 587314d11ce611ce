// Package api dispatches requests to the endpoints declared by SCRUM
// programs with I WANT TO DEFINE API.
package api

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"scrum/interpreter-go/pkg/interpreter"
	"scrum/interpreter-go/pkg/runtime"
)

var (
	ErrAPINotFound = errors.New("API not found")
	ErrNoEndpoint  = errors.New("No matching endpoint found for path")
)

// Request is one call against a registered API.
type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Body   string
}

// Response carries the handler's answer. Body is Text "Success" when the
// handler did not respond with a value.
type Response struct {
	Status int
	Body   runtime.Value
}

type route struct {
	endpoint *runtime.EndpointDefinition
	pattern  *regexp.Regexp
	params   []string
}

type registeredAPI struct {
	def    *runtime.ApiDefinition
	routes []route
}

// Dispatcher matches requests to executable endpoints and runs their
// handlers on one interpreter. Calls are serialized.
type Dispatcher struct {
	interp *interpreter.Interpreter

	mu   sync.Mutex
	apis map[string]*registeredAPI
}

func New(interp *interpreter.Interpreter) *Dispatcher {
	return &Dispatcher{interp: interp, apis: make(map[string]*registeredAPI)}
}

// Register compiles the API's executable endpoints. Registering a name again
// replaces the earlier API.
func (d *Dispatcher) Register(def *runtime.ApiDefinition) error {
	reg := &registeredAPI{def: def}
	for _, ep := range def.Endpoints {
		if !ep.Executable() {
			continue
		}
		pattern, params, err := compilePath(ep.Path)
		if err != nil {
			return fmt.Errorf("endpoint %s: %w", ep.Name, err)
		}
		reg.routes = append(reg.routes, route{endpoint: ep, pattern: pattern, params: params})
	}
	d.mu.Lock()
	d.apis[def.Name] = reg
	d.mu.Unlock()
	return nil
}

// RegisterAll registers every API declared at the top level of the
// interpreter's program.
func (d *Dispatcher) RegisterAll() error {
	for _, def := range d.interp.Definitions().APIs(d.interp.RootScope()) {
		if err := d.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns a registered API definition.
func (d *Dispatcher) Lookup(name string) (*runtime.ApiDefinition, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	reg, ok := d.apis[name]
	if !ok {
		return nil, false
	}
	return reg.def, true
}

// Invoke runs the first executable endpoint of apiName whose method and path
// template match req.
func (d *Dispatcher) Invoke(ctx context.Context, apiName string, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	reg, ok := d.apis[apiName]
	if !ok {
		return Response{}, fmt.Errorf("%w: %s", ErrAPINotFound, apiName)
	}
	for _, candidate := range candidatePaths(reg.def.BasePath, req.Path) {
		for _, r := range reg.routes {
			if !methodMatches(r.endpoint.Method, req.Method) {
				continue
			}
			values, ok := r.match(candidate)
			if !ok {
				continue
			}
			return d.run(r.endpoint, bindings(r.endpoint, values, req))
		}
	}
	return Response{}, fmt.Errorf("%w: %s", ErrNoEndpoint, req.Path)
}

func (d *Dispatcher) run(ep *runtime.EndpointDefinition, binds map[string]runtime.Value) (Response, error) {
	val, err := d.interp.InvokeEndpoint(ep, binds)
	if err != nil {
		return Response{}, fmt.Errorf("endpoint %s: %w", ep.Name, err)
	}
	if val == nil {
		val = runtime.TextValue{Val: "Success"}
	}
	return Response{Status: 200, Body: val}, nil
}

func bindings(ep *runtime.EndpointDefinition, pathValues map[string]string, req Request) map[string]runtime.Value {
	out := make(map[string]runtime.Value, len(pathValues)+len(ep.QueryParams)+1)
	for _, name := range ep.QueryParams {
		if raw, ok := req.Query[name]; ok {
			out[name] = runtime.Classify(raw)
		} else {
			out[name] = runtime.Null
		}
	}
	for name, raw := range pathValues {
		out[name] = runtime.Classify(raw)
	}
	out["body"] = runtime.TextValue{Val: req.Body}
	return out
}

func methodMatches(declared, requested string) bool {
	return declared == "" || requested == "" || strings.EqualFold(declared, requested)
}

// candidatePaths yields the path as given and, when it starts with the API
// base, the path relative to the base.
func candidatePaths(base, path string) []string {
	paths := []string{path}
	base = strings.TrimRight(base, "/")
	if base != "" && strings.HasPrefix(path, base) {
		rel := strings.TrimPrefix(path, base)
		if rel == "" || strings.HasPrefix(rel, "/") {
			if rel == "" {
				rel = "/"
			}
			paths = append(paths, rel)
		}
	}
	return paths
}

var paramPattern = regexp.MustCompile(`\{([^}]+)\}`)

// compilePath turns "/users/{id}" into an anchored pattern with one group per
// parameter.
func compilePath(template string) (*regexp.Regexp, []string, error) {
	var b strings.Builder
	var params []string
	b.WriteString("^")
	last := 0
	for _, loc := range paramPattern.FindAllStringSubmatchIndex(template, -1) {
		b.WriteString(regexp.QuoteMeta(template[last:loc[0]]))
		b.WriteString("([^/]+)")
		params = append(params, template[loc[2]:loc[3]])
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(template[last:]))
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, nil, err
	}
	return re, params, nil
}

func (r route) match(path string) (map[string]string, bool) {
	m := r.pattern.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	values := make(map[string]string, len(r.params))
	for i, name := range r.params {
		values[name] = m[i+1]
	}
	return values, true
}
