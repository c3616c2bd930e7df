package resolve

import (
	"github.com/samber/lo"

	"pyrs/ast"
)

// importTable maps source module names to the target declaration each one
// requires.  Lookup is by exact module name only.
var importTable = map[string]string{
	"numpy":              "use ndarray as np;",
	"collections":        "use std::collections::HashMap;",
	"concurrent.futures": "use rayon::prelude::*;",
	"multiprocessing":    "use rayon::prelude::*;",
	"threading":          "use rayon::prelude::*;",
}

// Baseline is the set of declarations every generated program carries,
// regardless of what the source imports.
var Baseline = []string{
	"use std::collections::HashMap;",
	"use rayon::prelude::*;",
}

// Resolver is responsible for turning the imports of a source unit into target
// import declarations.  It accumulates the ordered, duplicate-free set of
// declarations the generated program needs.  A resolver is created once per
// transpilation.
type Resolver struct {
	// The accumulated declarations in insertion order.
	decls []string

	// The import directives that no declaration was found for.
	dropped []*ast.ImportDirective
}

// NewResolver creates a new resolver seeded with the baseline declarations.
func NewResolver() *Resolver {
	r := &Resolver{}
	for _, decl := range Baseline {
		r.Require(decl)
	}

	return r
}

// Lookup returns the declaration a module maps to without recording anything.
func Lookup(module string) (string, bool) {
	decl, ok := importTable[module]
	return decl, ok
}

// Resolve resolves a single import directive.  If the module is known, its
// declaration is added to the accumulated set (at most once) and returned.
// Unknown modules are not an error: they are recorded as dropped and ok is
// false.
func (r *Resolver) Resolve(dir *ast.ImportDirective) (decl string, ok bool) {
	decl, ok = Lookup(dir.Module)
	if !ok {
		r.dropped = append(r.dropped, dir)
		return "", false
	}

	r.Require(decl)
	return decl, true
}

// ResolveUnit resolves every import directive of a source unit in order.
func (r *Resolver) ResolveUnit(unit *ast.SourceUnit) {
	for _, dir := range unit.Imports() {
		r.Resolve(dir)
	}
}

// Require adds a declaration to the accumulated set if it is not already
// present.
func (r *Resolver) Require(decl string) {
	if !lo.Contains(r.decls, decl) {
		r.decls = append(r.decls, decl)
	}
}

// Imports returns the accumulated declarations in insertion order.
func (r *Resolver) Imports() []string {
	return append([]string(nil), r.decls...)
}

// Dropped returns the import directives which had no mapping.
func (r *Resolver) Dropped() []*ast.ImportDirective {
	return r.dropped
}
