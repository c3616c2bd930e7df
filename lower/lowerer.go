package lower

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"pyrs/ast"
	"pyrs/ir"
	"pyrs/optimize"
	"pyrs/report"
	"pyrs/typing"
)

// UnsupportedConstructError is returned when a function uses a construct that
// has no mapping into the target language.
type UnsupportedConstructError struct {
	// The name of the construct: eg. `list literal`.
	Construct string

	// The function containing the construct.
	Func string

	Span *report.TextSpan
}

func (e *UnsupportedConstructError) Error() string {
	if e.Span == nil {
		return fmt.Sprintf("unsupported construct in `%s`: %s", e.Func, e.Construct)
	}

	return fmt.Sprintf("%s: unsupported construct in `%s`: %s", e.Span, e.Func, e.Construct)
}

// LoweredFunc is the result of lowering a single function.
type LoweredFunc struct {
	// The source name of the function.
	Name string

	// The target identifier of the function.
	Ident string

	Signature typing.Signature

	// Void indicates that the function returns no value.
	Void bool

	// The items implementing the function: the function itself preceded by
	// any static items it uses.
	Items []ir.Item

	// The use declarations the items require.
	Imports []string
}

// Env describes the functions that lowered code may call.
type Env struct {
	funcs map[string]*ast.FuncDef
}

// NewEnv creates the environment of the functions of a unit.
func NewEnv(unit *ast.SourceUnit) *Env {
	env := &Env{funcs: make(map[string]*ast.FuncDef)}
	for _, fd := range unit.Funcs() {
		env.funcs[fd.Name] = fd
	}

	return env
}

// memoImport is the declaration required by memo tables.
const memoImport = "use std::sync::{Mutex, OnceLock};"

// hashMapImport is the declaration required to name `HashMap`.
const hashMapImport = "use std::collections::HashMap;"

// -----------------------------------------------------------------------------

// Lowerer is the construct responsible for converting a single function
// into the target IR.  Lowerers are used once.
type Lowerer struct {
	env   *Env
	fd    *ast.FuncDef
	sig   typing.Signature
	flags optimize.Flags

	// num is the numeric type label that literals are given.
	num typing.Type

	// void indicates that the function returns no value.
	void bool

	// scopes is the stack of local variable scopes.  Each scope maps the
	// source name of a variable to its local.
	scopes []map[string]*local

	// names is the set of all names used by the function.  Generated names
	// are chosen to avoid them.
	names map[string]struct{}

	// loopDepth is the number of loops enclosing the current statement.
	loopDepth int
}

// local is a local variable.
type local struct {
	ident string
	kind  valueKind
}

// valueKind classifies the values produced by expressions.
type valueKind int

// Enumeration of value kinds.
const (
	kindNumber valueKind = iota
	kindBool
)

// LowerFunc lowers a function of a unit with the given signature and
// optimization flags.  The environment supplies the functions it may call; a
// nil environment only knows the function itself.
func LowerFunc(env *Env, fd *ast.FuncDef, sig typing.Signature, flags optimize.Flags) (lf *LoweredFunc, err error) {
	defer report.CatchErrors(&err)

	if env == nil {
		env = &Env{funcs: map[string]*ast.FuncDef{fd.Name: fd}}
	}

	l := &Lowerer{
		env:   env,
		fd:    fd,
		sig:   sig,
		flags: flags,
		void:  !optimize.ReturnsValue(fd),
		names: make(map[string]struct{}),
	}

	// Every value of a function shares one numeric type.
	num, ok := sig.Uniform()
	if !ok {
		l.unsupported(fd.Span(), "signature mixing numeric types")
	}
	l.num = num

	return l.lower(), nil
}

// Ident returns the target identifier of a source function or variable name.
func Ident(name string) string {
	if name == "main" {
		return "main_"
	}

	if _, ok := rawKeywords[name]; ok {
		return "r#" + name
	}

	if _, ok := strictKeywords[name]; ok {
		return name + "_"
	}

	return name
}

// rawKeywords are target keywords that can be used as raw identifiers.
var rawKeywords = map[string]struct{}{
	"as": {}, "async": {}, "await": {}, "box": {}, "const": {}, "dyn": {},
	"enum": {}, "extern": {}, "fn": {}, "impl": {}, "let": {}, "loop": {},
	"macro": {}, "match": {}, "mod": {}, "move": {}, "mut": {}, "priv": {},
	"pub": {}, "ref": {}, "static": {}, "struct": {}, "trait": {}, "true": {},
	"false": {}, "type": {}, "typeof": {}, "unsafe": {}, "unsized": {},
	"use": {}, "virtual": {}, "where": {}, "abstract": {}, "become": {},
	"do": {}, "final": {}, "override": {}, "try": {}, "union": {}, "yield": {},
	"gen": {},
}

// strictKeywords are target keywords that can't be raw identifiers.
var strictKeywords = map[string]struct{}{
	"self": {}, "Self": {}, "super": {}, "crate": {},
}

// -----------------------------------------------------------------------------

// lower builds the lowered function.
func (l *Lowerer) lower() *LoweredFunc {
	l.collectNames()

	lf := &LoweredFunc{
		Name:      l.fd.Name,
		Ident:     Ident(l.fd.Name),
		Signature: l.sig,
		Void:      l.void,
	}

	if len(l.sig.Params) != len(l.fd.Params) {
		panic(fmt.Errorf("signature of `%s` has %d parameters, expected %d", l.fd.Name, len(l.sig.Params), len(l.fd.Params)))
	}

	assigned := assignedNames(l.fd.Body)

	def := &ir.FuncDef{Name: lf.Ident}
	l.pushScope()
	for i, param := range l.fd.Params {
		ident := Ident(param.Name)
		l.define(param.Name, ident, kindNumber)

		_, mut := assigned[param.Name]
		def.Params = append(def.Params, ir.Param{
			Name: ident,
			Mut:  mut,
			Type: ir.Named(l.sig.Params[i].Name()),
		})
	}

	if !l.void {
		def.Return = ir.Named(l.sig.Return.Name())
	}

	body := l.lowerBody()
	l.popScope()

	switch {
	case l.flags.Memoize && l.void:
		l.unsupported(l.fd.Span(), "memoization of a function that returns no value")
	case l.flags.Memoize:
		static, wrapped := l.memoize(body)
		lf.Items = append(lf.Items, static)
		lf.Imports = append(lf.Imports, hashMapImport, memoImport)
		body = wrapped
	case l.flags.Parallel:
		body = l.parallelize(body)
	}

	def.Body = body
	lf.Items = append(lf.Items, def)
	return lf
}

// lowerBody lowers the body of the function including the declarations of
// any hoisted variables.
func (l *Lowerer) lowerBody() *ir.Block {
	// Variables first assigned inside a nested block are declared at the
	// start of the function so they stay visible after the block.
	var decls []ir.Stmt
	for _, hv := range hoistedVars(l.fd.Body) {
		if l.lookup(hv.name) != nil {
			continue
		}

		kind := kindNumber
		if hv.isBool {
			kind = kindBool
		}

		ident := Ident(hv.name)
		l.define(hv.name, ident, kind)
		decls = append(decls, &ir.Let{Names: []string{ident}, Mut: true, Type: l.kindType(kind)})
	}

	block := &ir.Block{Stmts: append(decls, l.lowerStmts(l.fd.Body)...)}

	if !l.void && !terminates(l.fd.Body) {
		block.Tail = &ir.Macro{
			Name: "unreachable",
			Args: []ir.Expr{&ir.Lit{Text: strconv.Quote(l.fd.Name + " returned no value")}},
		}
	}

	return block
}

// memoName returns the name of the function's memo table.  Functions whose
// names differ only in case are numbered in the order of their names.
func (l *Lowerer) memoName() string {
	upper := func(name string) string {
		return strings.ToUpper(strings.TrimPrefix(Ident(name), "r#"))
	}

	base := upper(l.fd.Name)

	var alike []string
	for name := range l.env.funcs {
		if upper(name) == base {
			alike = append(alike, name)
		}
	}

	if len(alike) <= 1 {
		return base + "_MEMO"
	}

	slices.Sort(alike)
	return fmt.Sprintf("%s_%d_MEMO", base, slices.Index(alike, l.fd.Name)+1)
}

// memoize wraps the body of the function in the lookup and population of its
// memo table.  It returns the static memo table and the new body.
func (l *Lowerer) memoize(body *ir.Block) (*ir.Static, *ir.Block) {
	ret := ir.Named(l.sig.Return.Name())

	keyTypes := make([]*ir.Type, len(l.sig.Params))
	keyElems := make([]ir.Expr, len(l.fd.Params))
	for i, param := range l.fd.Params {
		keyTypes[i] = ir.Named(l.sig.Params[i].Name())
		keyElems[i] = ir.ID(Ident(param.Name))
	}

	staticName := l.memoName()
	static := &ir.Static{
		Name: staticName,
		Type: ir.Generic("OnceLock",
			ir.Generic("Mutex",
				ir.Generic("HashMap", ir.TupleOf(keyTypes...), ret),
			),
		),
		Init: ir.CallPath("OnceLock::new"),
	}

	memo, key, cached := l.fresh("memo"), l.fresh("key"), l.fresh("cached")
	hit, result := l.fresh("hit"), l.fresh("result")

	var compute ir.Expr
	if l.flags.Parallel {
		compute = l.parallelize(body).Tail
	} else {
		compute = &ir.Call{Func: &ir.Closure{Return: ret, Body: body}}
	}

	locked := func() ir.Expr {
		return ir.Method(ir.Method(ir.ID(memo), "lock"), "unwrap")
	}

	wrapped := &ir.Block{
		Stmts: []ir.Stmt{
			&ir.Let{Names: []string{memo}, Value: ir.Method(
				ir.ID(staticName),
				"get_or_init",
				&ir.Closure{Expr: ir.CallPath("Mutex::new", ir.CallPath("HashMap::new"))},
			)},
			&ir.Let{Names: []string{key}, Value: &ir.Tuple{Elems: keyElems}},
			&ir.Let{Names: []string{cached}, Value: ir.Method(
				ir.Method(locked(), "get", &ir.Ref{X: ir.ID(key)}),
				"copied",
			)},
			&ir.If{
				Cond:    ir.ID(cached),
				Pattern: "Some(" + hit + ")",
				Then:    &ir.Block{Stmts: []ir.Stmt{&ir.Return{Value: ir.ID(hit)}}},
			},
			&ir.Let{Names: []string{result}, Value: compute},
			&ir.ExprStmt{X: ir.Method(locked(), "insert", ir.ID(key), ir.ID(result))},
		},
		Tail: ir.ID(result),
	}

	return static, wrapped
}

// parallelize wraps the body of the function in a fork/join scope.  All work
// spawned in the scope is joined before the function returns.
func (l *Lowerer) parallelize(body *ir.Block) *ir.Block {
	scope := &ir.Closure{Params: []string{"_s"}, Body: body}

	if l.void {
		return &ir.Block{Stmts: []ir.Stmt{&ir.ExprStmt{X: ir.CallPath("rayon::scope", scope)}}}
	}

	scope.Return = ir.Named(l.sig.Return.Name())
	return ir.Tail(ir.CallPath("rayon::scope", scope))
}

// -----------------------------------------------------------------------------

// unsupported raises an unsupported construct error.
func (l *Lowerer) unsupported(span *report.TextSpan, construct string, args ...interface{}) {
	panic(&UnsupportedConstructError{
		Construct: fmt.Sprintf(construct, args...),
		Func:      l.fd.Name,
		Span:      span,
	})
}

// pushScope pushes a scope onto the local scope stack.
func (l *Lowerer) pushScope() {
	l.scopes = append(l.scopes, make(map[string]*local))
}

// popScope pops a scope from the local scope stack.
func (l *Lowerer) popScope() {
	l.scopes = l.scopes[:len(l.scopes)-1]
}

// define defines a new local variable in the current scope.
func (l *Lowerer) define(name, ident string, kind valueKind) *local {
	loc := &local{ident: ident, kind: kind}
	l.scopes[len(l.scopes)-1][name] = loc
	return loc
}

// lookup finds a local variable by name.  It returns nil if no variable is
// visible.
func (l *Lowerer) lookup(name string) *local {
	// scopes in reverse order to implement shadowing
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if loc, ok := l.scopes[i][name]; ok {
			return loc
		}
	}

	return nil
}

// collectNames records every name used by the function.
func (l *Lowerer) collectNames() {
	for name := range l.env.funcs {
		l.names[Ident(name)] = struct{}{}
	}

	for _, param := range l.fd.Params {
		l.names[Ident(param.Name)] = struct{}{}
	}

	for _, stmt := range l.fd.Body {
		ast.Inspect(stmt, func(node ast.ASTNode) bool {
			if name, ok := node.(*ast.Name); ok {
				l.names[Ident(name.Name)] = struct{}{}
			}

			return true
		})
	}
}

// fresh returns a generated name starting with base which collides with no
// other name in the function.
func (l *Lowerer) fresh(base string) string {
	name := base
	for i := 1; ; i++ {
		if _, ok := l.names[name]; !ok {
			break
		}

		name = base + "_" + strconv.Itoa(i)
	}

	l.names[name] = struct{}{}
	return name
}
