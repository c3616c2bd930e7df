package lower

import (
	"pyrs/ast"
	"pyrs/ir"
)

// lowerStmts lowers a sequence of statements in source order.
func (l *Lowerer) lowerStmts(stmts []ast.Stmt) []ir.Stmt {
	var result []ir.Stmt
	for _, stmt := range stmts {
		result = append(result, l.lowerStmt(stmt)...)
	}

	return result
}

// lowerBlock lowers a nested block of statements in a new scope.
func (l *Lowerer) lowerBlock(stmts []ast.Stmt) *ir.Block {
	l.pushScope()
	defer l.popScope()

	return &ir.Block{Stmts: l.lowerStmts(stmts)}
}

// lowerStmt lowers a single statement.  Some statements, such as `pass`,
// lower to nothing and chained assignments lower to several statements.
func (l *Lowerer) lowerStmt(stmt ast.Stmt) []ir.Stmt {
	switch v := stmt.(type) {
	case *ast.Pass:
		return nil
	case *ast.ExprStmt:
		// bare strings, such as docstrings, have no effect
		if _, ok := v.X.(*ast.StringLit); ok {
			return nil
		}

		if call, ok := v.X.(*ast.Call); ok {
			return []ir.Stmt{&ir.ExprStmt{X: l.lowerCall(call, true)}}
		}

		x, _ := l.lowerExpr(v.X)
		return []ir.Stmt{&ir.ExprStmt{X: x}}
	case *ast.Return:
		return []ir.Stmt{l.lowerReturn(v)}
	case *ast.If:
		return []ir.Stmt{l.lowerIf(v)}
	case *ast.While:
		if len(v.Else) > 0 {
			l.unsupported(v.Span(), "`else` clause on a loop")
		}

		loop := &ir.While{}
		if lit, ok := v.Cond.(*ast.BoolLit); !ok || !lit.Value {
			loop.Cond = l.lowerCond(v.Cond)
		}

		l.loopDepth++
		loop.Body = l.lowerBlock(v.Body)
		l.loopDepth--

		return []ir.Stmt{loop}
	case *ast.For:
		return []ir.Stmt{l.lowerFor(v)}
	case *ast.Break:
		if l.loopDepth == 0 {
			l.unsupported(v.Span(), "`break` outside of a loop")
		}

		return []ir.Stmt{&ir.Break{}}
	case *ast.Continue:
		if l.loopDepth == 0 {
			l.unsupported(v.Span(), "`continue` outside of a loop")
		}

		return []ir.Stmt{&ir.Continue{}}
	case *ast.Assign:
		return l.lowerAssign(v)
	case *ast.AugAssign:
		return []ir.Stmt{l.lowerAugAssign(v)}
	case *ast.Global:
		l.unsupported(v.Span(), "`global` declaration")
	case *ast.FuncDef:
		l.unsupported(v.Span(), "nested function definition")
	default:
		l.unsupported(stmt.Span(), "statement")
	}

	return nil
}

func (l *Lowerer) lowerReturn(ret *ast.Return) ir.Stmt {
	if ret.Value == nil {
		if !l.void {
			l.unsupported(ret.Span(), "bare `return` in a function that returns a value")
		}

		return &ir.Return{}
	}

	value, kind := l.lowerExpr(ret.Value)
	if kind != kindNumber {
		l.unsupported(ret.Value.Span(), "return of a boolean value")
	}

	return &ir.Return{Value: value}
}

func (l *Lowerer) lowerIf(stmt *ast.If) *ir.If {
	result := &ir.If{
		Cond: l.lowerCond(stmt.Cond),
		Then: l.lowerBlock(stmt.Body),
	}

	if len(stmt.Else) == 1 {
		if elif, ok := stmt.Else[0].(*ast.If); ok && elif.Elif {
			result.Else = l.lowerIf(elif)
			return result
		}
	}

	if len(stmt.Else) > 0 {
		result.Else = l.lowerBlock(stmt.Else)
	}

	return result
}

// lowerFor lowers a for loop.  The only supported iterable is `range`.
func (l *Lowerer) lowerFor(stmt *ast.For) *ir.For {
	if len(stmt.Else) > 0 {
		l.unsupported(stmt.Span(), "`else` clause on a loop")
	}

	target, ok := stmt.Target.(*ast.Name)
	if !ok {
		l.unsupported(stmt.Target.Span(), "loop target other than a name")
	}

	call, ok := stmt.Iter.(*ast.Call)
	if name, isName := callName(call); !ok || !isName || name != "range" {
		l.unsupported(stmt.Iter.Span(), "iteration over anything other than `range`")
	}

	loop := &ir.For{Iter: l.lowerRange(call)}

	_, loop.Mut = assignedNames(stmt.Body)[target.Name]

	l.pushScope()
	loop.Var = l.define(target.Name, Ident(target.Name), kindNumber).ident

	l.loopDepth++
	loop.Body = &ir.Block{Stmts: l.lowerStmts(stmt.Body)}
	l.loopDepth--

	l.popScope()
	return loop
}

// lowerRange lowers a call to `range` into a target range expression.
func (l *Lowerer) lowerRange(call *ast.Call) ir.Expr {
	if l.num.IsFloat() {
		l.unsupported(call.Span(), "`range` in a `%s` function", l.num.Name())
	}

	if len(call.Keywords) > 0 {
		l.unsupported(call.Keywords[0].Span(), "keyword arguments")
	}

	args := make([]ir.Expr, len(call.Args))
	for i, arg := range call.Args {
		args[i] = l.lowerNumber(arg)
	}

	switch len(args) {
	case 1:
		return &ir.Range{Start: &ir.Lit{Text: "0"}, End: args[0]}
	case 2:
		return &ir.Range{Start: args[0], End: args[1]}
	case 3:
		step, isLit := intLitValue(call.Args[2])
		if !isLit {
			return ir.Method(
				&ir.Range{Start: args[0], End: args[1]},
				"step_by",
				&ir.Cast{X: args[2], Type: ir.Named("usize")},
			)
		}

		switch step.Sign() {
		case 0:
			l.unsupported(call.Args[2].Span(), "`range` with a zero step")
		case 1:
			return ir.Method(
				&ir.Range{Start: args[0], End: args[1]},
				"step_by",
				&ir.Lit{Text: step.String()},
			)
		}

		// A negative step counts down from the start to just above the end.
		return ir.Method(
			ir.Method(
				&ir.Range{
					Start:     &ir.Binary{Op: "+", Lhs: args[1], Rhs: &ir.Lit{Text: "1"}},
					End:       args[0],
					Inclusive: true,
				},
				"rev",
			),
			"step_by",
			&ir.Lit{Text: step.Neg(step).String()},
		)
	default:
		l.unsupported(call.Span(), "`range` with %d arguments", len(args))
	}

	return nil
}

// -----------------------------------------------------------------------------

func (l *Lowerer) lowerAssign(stmt *ast.Assign) []ir.Stmt {
	if stmt.Value == nil {
		l.unsupported(stmt.Span(), "annotation without a value")
	}

	if tuple, ok := stmt.Targets[0].(*ast.TupleLit); ok {
		if len(stmt.Targets) > 1 {
			l.unsupported(stmt.Span(), "chained tuple assignment")
		}

		return []ir.Stmt{l.lowerTupleAssign(tuple, stmt.Value)}
	}

	value, kind := l.lowerExpr(stmt.Value)

	// `a = b = v` assigns `v` to `a` and then `a` to `b`
	var result []ir.Stmt
	for _, target := range stmt.Targets {
		name := l.targetName(target)
		result = append(result, l.assignName(name, value, kind))
		value = ir.ID(l.lookup(name.Name).ident)
	}

	return result
}

// targetName returns the name assigned by an assignment target.
func (l *Lowerer) targetName(target ast.Expr) *ast.Name {
	switch v := target.(type) {
	case *ast.Name:
		return v
	case *ast.Attribute:
		l.unsupported(v.Span(), "assignment to an attribute")
	case *ast.Subscript:
		l.unsupported(v.Span(), "assignment through a subscript")
	default:
		l.unsupported(v.Span(), "assignment to a composite target")
	}

	return nil
}

// assignName assigns a value to a name, defining it if it is not yet bound.
func (l *Lowerer) assignName(name *ast.Name, value ir.Expr, kind valueKind) ir.Stmt {
	if loc := l.lookup(name.Name); loc != nil {
		if loc.kind != kind {
			l.unsupported(name.Span(), "assignment changing the type of `%s`", name.Name)
		}

		return &ir.Assign{Target: ir.ID(loc.ident), Op: "=", Value: value}
	}

	loc := l.define(name.Name, Ident(name.Name), kind)
	return &ir.Let{Names: []string{loc.ident}, Mut: true, Type: l.kindType(kind), Value: value}
}

// lowerTupleAssign lowers an assignment such as `a, b = b, a + b`.  All of the
// values are evaluated before any name is assigned.
func (l *Lowerer) lowerTupleAssign(target *ast.TupleLit, value ast.Expr) ir.Stmt {
	tuple, ok := value.(*ast.TupleLit)
	if !ok {
		l.unsupported(value.Span(), "tuple unpacking of a non-tuple value")
	}

	if len(tuple.Elems) != len(target.Elems) {
		l.unsupported(value.Span(), "tuple unpacking of %d values into %d names", len(tuple.Elems), len(target.Elems))
	}

	values := make([]ir.Expr, len(tuple.Elems))
	kinds := make([]valueKind, len(tuple.Elems))
	for i, elem := range tuple.Elems {
		values[i], kinds[i] = l.lowerExpr(elem)
	}

	names := make([]*ast.Name, len(target.Elems))
	bound := 0
	for i, elem := range target.Elems {
		names[i] = l.targetName(elem)

		if loc := l.lookup(names[i].Name); loc != nil {
			if loc.kind != kinds[i] {
				l.unsupported(names[i].Span(), "assignment changing the type of `%s`", names[i].Name)
			}

			bound++
		}
	}

	switch bound {
	case len(names):
		targets := make([]ir.Expr, len(names))
		for i, name := range names {
			targets[i] = ir.ID(l.lookup(name.Name).ident)
		}

		return &ir.Assign{Target: &ir.Tuple{Elems: targets}, Op: "=", Value: &ir.Tuple{Elems: values}}
	case 0:
		idents := make([]string, len(names))
		types := make([]*ir.Type, len(names))
		for i, name := range names {
			idents[i] = l.define(name.Name, Ident(name.Name), kinds[i]).ident
			types[i] = l.kindType(kinds[i])
		}

		return &ir.Let{Names: idents, Mut: true, Type: ir.TupleOf(types...), Value: &ir.Tuple{Elems: values}}
	default:
		l.unsupported(target.Span(), "tuple assignment mixing new and existing names")
	}

	return nil
}

// kindType returns the type of local variables holding values of a kind.
func (l *Lowerer) kindType(kind valueKind) *ir.Type {
	if kind == kindBool {
		return ir.Named("bool")
	}

	return ir.Named(l.num.Name())
}

// compoundOps are the augmented assignment operators with a direct compound
// assignment in the target language.  Floor division and modulo are not among
// them since the target truncates.
var compoundOps = map[string]string{
	"+":  "+=",
	"-":  "-=",
	"*":  "*=",
	"/":  "/=",
	"<<": "<<=",
	">>": ">>=",
	"&":  "&=",
	"|":  "|=",
	"^":  "^=",
}

func (l *Lowerer) lowerAugAssign(stmt *ast.AugAssign) ir.Stmt {
	name := l.targetName(stmt.Target)

	loc := l.lookup(name.Name)
	if loc == nil {
		l.unsupported(name.Span(), "augmented assignment to unbound name `%s`", name.Name)
	}

	if loc.kind != kindNumber {
		l.unsupported(name.Span(), "arithmetic on a boolean value")
	}

	value := l.lowerNumber(stmt.Value)

	// True division only exists on floats and is rejected by arith otherwise.
	if compound, ok := compoundOps[stmt.Op.Name]; ok && (stmt.Op.Name != "/" || l.num.IsFloat()) {
		l.checkBitwise(stmt.Op)
		return &ir.Assign{Target: ir.ID(loc.ident), Op: compound, Value: value}
	}

	return &ir.Assign{
		Target: ir.ID(loc.ident),
		Op:     "=",
		Value:  l.arith(stmt.Op, ir.ID(loc.ident), value),
	}
}

// -----------------------------------------------------------------------------

// hoistedVar is a variable which must be declared at the start of a function.
type hoistedVar struct {
	name   string
	isBool bool
}

// hoistedVars returns the variables of a function body whose first assignment
// is inside a nested block in order of first assignment.
func hoistedVars(body []ast.Stmt) []hoistedVar {
	seen := make(map[string]struct{})
	var result []hoistedVar

	var visit func(stmts []ast.Stmt, nested bool)
	bind := func(target, value ast.Expr, nested bool) {
		name, ok := target.(*ast.Name)
		if !ok {
			return
		}

		if _, ok := seen[name.Name]; ok {
			return
		}

		seen[name.Name] = struct{}{}
		if nested {
			result = append(result, hoistedVar{name: name.Name, isBool: isBoolExpr(value)})
		}
	}

	visit = func(stmts []ast.Stmt, nested bool) {
		for _, stmt := range stmts {
			switch v := stmt.(type) {
			case *ast.Assign:
				for _, target := range v.Targets {
					if tuple, ok := target.(*ast.TupleLit); ok {
						values, _ := v.Value.(*ast.TupleLit)
						for i, elem := range tuple.Elems {
							var value ast.Expr
							if values != nil && i < len(values.Elems) {
								value = values.Elems[i]
							}

							bind(elem, value, nested)
						}
					} else {
						bind(target, v.Value, nested)
					}
				}
			case *ast.If:
				visit(v.Body, true)
				visit(v.Else, true)
			case *ast.While:
				visit(v.Body, true)
			case *ast.For:
				visit(v.Body, true)
			}
		}
	}

	visit(body, false)
	return result
}

// isBoolExpr returns whether an expression evidently produces a boolean.
func isBoolExpr(expr ast.Expr) bool {
	switch v := expr.(type) {
	case *ast.BoolLit, *ast.Compare:
		return true
	case *ast.UnaryOp:
		return v.Op.Name == "not"
	case *ast.BoolOp:
		return isBoolExpr(v.Lhs) && isBoolExpr(v.Rhs)
	}

	return false
}

// assignedNames returns the set of names assigned anywhere in a block.
func assignedNames(stmts []ast.Stmt) map[string]struct{} {
	names := make(map[string]struct{})

	var addTarget func(target ast.Expr)
	addTarget = func(target ast.Expr) {
		switch v := target.(type) {
		case *ast.Name:
			names[v.Name] = struct{}{}
		case *ast.TupleLit:
			for _, elem := range v.Elems {
				addTarget(elem)
			}
		}
	}

	for _, stmt := range stmts {
		ast.Inspect(stmt, func(node ast.ASTNode) bool {
			switch v := node.(type) {
			case *ast.Assign:
				for _, target := range v.Targets {
					addTarget(target)
				}
			case *ast.AugAssign:
				addTarget(v.Target)
			case *ast.For:
				addTarget(v.Target)
			}

			return true
		})
	}

	return names
}

// terminates returns whether control can never reach the end of a block.
func terminates(stmts []ast.Stmt) bool {
	if len(stmts) == 0 {
		return false
	}

	switch v := stmts[len(stmts)-1].(type) {
	case *ast.Return:
		return true
	case *ast.If:
		return len(v.Else) > 0 && terminates(v.Body) && terminates(v.Else)
	case *ast.While:
		lit, ok := v.Cond.(*ast.BoolLit)
		return ok && lit.Value && !breaks(v.Body)
	}

	return false
}

// breaks returns whether a loop body contains a `break` of that loop.
func breaks(stmts []ast.Stmt) bool {
	for _, stmt := range stmts {
		switch v := stmt.(type) {
		case *ast.Break:
			return true
		case *ast.If:
			if breaks(v.Body) || breaks(v.Else) {
				return true
			}
		}
	}

	return false
}
