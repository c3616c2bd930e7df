package ast

import "pyrs/report"

// The abstract interface for all AST nodes.
type ASTNode interface {
	// The text span of the AST.
	Span() *report.TextSpan
}

// A utility base struct for all AST nodes.
type ASTBase struct {
	// The span over which the AST node occurs.
	span *report.TextSpan
}

// NewASTBaseOn creates a new AST base with the given span.
func NewASTBaseOn(span *report.TextSpan) ASTBase {
	return ASTBase{span: span}
}

// NewASTBaseOver creates a new AST base spanning over two spans.
func NewASTBaseOver(start, end *report.TextSpan) ASTBase {
	return ASTBase{span: report.NewSpanOver(start, end)}
}

func (ab ASTBase) Span() *report.TextSpan {
	return ab.span
}

// -----------------------------------------------------------------------------

// SourceUnit is a single parsed source file: the ordered sequence of its
// top-level declarations.  Source units are never mutated once parsed.
type SourceUnit struct {
	// The absolute path to the file.
	AbsPath string

	// The path shown to the user in diagnostics.
	ReprPath string

	// The top-level declarations in source order.  Each declaration is an
	// import directive, a function definition, or a top-level statement.
	Decls []ASTNode
}

// Imports returns the import directives of the unit in source order.
func (su *SourceUnit) Imports() []*ImportDirective {
	var imports []*ImportDirective
	for _, decl := range su.Decls {
		if imp, ok := decl.(*ImportDirective); ok {
			imports = append(imports, imp)
		}
	}

	return imports
}

// Funcs returns the top-level function definitions of the unit in source
// order.
func (su *SourceUnit) Funcs() []*FuncDef {
	var funcs []*FuncDef
	for _, decl := range su.Decls {
		if fd, ok := decl.(*FuncDef); ok {
			funcs = append(funcs, fd)
		}
	}

	return funcs
}

// Func looks up a top-level function by name.
func (su *SourceUnit) Func(name string) (*FuncDef, bool) {
	for _, fd := range su.Funcs() {
		if fd.Name == name {
			return fd, true
		}
	}

	return nil, false
}

// -----------------------------------------------------------------------------

// ImportDirective is a single imported module.  `import a, b` produces one
// directive per module and `from m import x` produces a directive for `m`.
type ImportDirective struct {
	ASTBase

	// The full dotted module name: eg. `concurrent.futures`.
	Module string

	// The name the module is bound to, if any: eg. `np` in `import numpy as
	// np`.  This is empty for `from` imports.
	Alias string

	// The names imported by a `from` import.
	Names []string
}

// FuncDef is a function definition.  It also appears as a statement when a
// function is defined inside another function.
type FuncDef struct {
	ASTBase

	Name       string
	Params     []*Param
	Returns    Expr
	Body       []Stmt
	Decorators []*Decorator
}

// ParamNames returns the names of the function's parameters in order.
func (fd *FuncDef) ParamNames() []string {
	names := make([]string, len(fd.Params))
	for i, param := range fd.Params {
		names[i] = param.Name
	}

	return names
}

// HasDecorator returns whether the function is decorated with a decorator of
// the given name.
func (fd *FuncDef) HasDecorator(name string) bool {
	for _, dec := range fd.Decorators {
		if dec.Name == name {
			return true
		}
	}

	return false
}

// Param is a single function parameter.
type Param struct {
	ASTBase

	Name string

	// The annotation and default value of the parameter.  Both may be nil.
	Annotation Expr
	Default    Expr
}

// Decorator is a function decorator such as `@memoize` or `@lru_cache(None)`.
type Decorator struct {
	ASTBase

	// The dotted name of the decorator.
	Name string

	// The arguments of a called decorator.  Both are nil unless the
	// decorator is called.
	Args     []Expr
	Keywords []*Keyword
}
