package ast

// Declarations. These are registered with the definition arena while parsing,
// so executing them does nothing; they stay in the tree so the bodies can be
// walked (intent preprocessing, tooling).

type ClassDeclaration struct {
	nodeImpl
	statementMarker

	Name   string   `json:"name"`
	Params []string `json:"params,omitempty"`
	Body   *Block   `json:"body"`
}

func NewClassDeclaration(name string, params []string, body *Block) *ClassDeclaration {
	return &ClassDeclaration{nodeImpl: newNodeImpl(NodeClassDeclaration), Name: name, Params: params, Body: body}
}

type FunctionDeclaration struct {
	nodeImpl
	statementMarker

	Name   string   `json:"name"`
	Params []string `json:"params,omitempty"`
	Body   *Block   `json:"body"`
}

func NewFunctionDeclaration(name string, params []string, body *Block) *FunctionDeclaration {
	return &FunctionDeclaration{nodeImpl: newNodeImpl(NodeFunctionDeclaration), Name: name, Params: params, Body: body}
}

type ApiDeclaration struct {
	nodeImpl
	statementMarker

	Name     string `json:"name"`
	BasePath string `json:"basePath,omitempty"`
	Body     *Block `json:"body"`
}

func NewApiDeclaration(name, basePath string, body *Block) *ApiDeclaration {
	return &ApiDeclaration{nodeImpl: newNodeImpl(NodeApiDeclaration), Name: name, BasePath: basePath, Body: body}
}

// BaseStatement is `BASE IS "/path"` written inside an API body.
type BaseStatement struct {
	nodeImpl
	statementMarker

	Path string `json:"path"`
}

func NewBaseStatement(path string) *BaseStatement {
	return &BaseStatement{nodeImpl: newNodeImpl(NodeBaseStatement), Path: path}
}

// Endpoint declares one route of an API. Handler is nil for purely
// declarative endpoints.
type Endpoint struct {
	nodeImpl
	statementMarker

	Name        string   `json:"name"`
	Method      string   `json:"method,omitempty"`
	Path        string   `json:"path,omitempty"`
	QueryParams []string `json:"queryParams,omitempty"`
	Returns     string   `json:"returns,omitempty"`
	Handler     *Block   `json:"handler,omitempty"`
}

func NewEndpoint(name string) *Endpoint {
	return &Endpoint{nodeImpl: newNodeImpl(NodeEndpoint), Name: name}
}
