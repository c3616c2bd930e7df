package lower

import (
	"math/big"
	"strconv"
	"strings"

	"pyrs/ast"
	"pyrs/ir"
	"pyrs/optimize"
)

// lowerExpr lowers an expression in a value context.
func (l *Lowerer) lowerExpr(expr ast.Expr) (ir.Expr, valueKind) {
	switch v := expr.(type) {
	case *ast.Name:
		if loc := l.lookup(v.Name); loc != nil {
			return ir.ID(loc.ident), loc.kind
		}

		if _, ok := l.env.funcs[v.Name]; ok {
			l.unsupported(v.Span(), "function `%s` used as a value", v.Name)
		}

		l.unsupported(v.Span(), "reference to unknown name `%s`", v.Name)
	case *ast.IntLit:
		return l.lowerIntLit(v), kindNumber
	case *ast.FloatLit:
		if !l.num.IsFloat() {
			l.unsupported(v.Span(), "float literal in a `%s` function", l.num.Name())
		}

		return &ir.Lit{Text: floatText(v.Value)}, kindNumber
	case *ast.BoolLit:
		if v.Value {
			return &ir.Lit{Text: "true"}, kindBool
		}

		return &ir.Lit{Text: "false"}, kindBool
	case *ast.NoneLit:
		l.unsupported(v.Span(), "`None`")
	case *ast.StringLit:
		l.unsupported(v.Span(), "string literal")
	case *ast.UnaryOp:
		return l.lowerUnary(v)
	case *ast.BinaryOp:
		return l.lowerBinary(v), kindNumber
	case *ast.BoolOp:
		lhs, lkind := l.lowerExpr(v.Lhs)
		rhs, rkind := l.lowerExpr(v.Rhs)
		if lkind != kindBool || rkind != kindBool {
			l.unsupported(v.Span(), "`%s` over non-boolean values", v.Op.Name)
		}

		return &ir.Binary{Op: boolOps[v.Op.Name], Lhs: lhs, Rhs: rhs}, kindBool
	case *ast.Compare:
		return l.lowerCompare(v), kindBool
	case *ast.IfExpr:
		cond := l.lowerCond(v.Cond)
		then, tkind := l.lowerExpr(v.Then)
		els, ekind := l.lowerExpr(v.Else)
		if tkind != ekind {
			l.unsupported(v.Span(), "conditional expression with branches of different types")
		}

		return &ir.IfExpr{Cond: cond, Then: ir.Tail(then), Else: ir.Tail(els)}, tkind
	case *ast.Call:
		return l.lowerCall(v, false), kindNumber
	case *ast.Attribute:
		l.unsupported(v.Span(), "attribute access")
	case *ast.Subscript:
		l.unsupported(v.Span(), "subscript")
	case *ast.ListLit:
		l.unsupported(v.Span(), "list literal")
	case *ast.TupleLit:
		l.unsupported(v.Span(), "tuple")
	case *ast.DictLit:
		l.unsupported(v.Span(), "dict literal")
	default:
		l.unsupported(expr.Span(), "expression")
	}

	return nil, kindNumber
}

// lowerNumber lowers an expression which must produce a number.
func (l *Lowerer) lowerNumber(expr ast.Expr) ir.Expr {
	result, kind := l.lowerExpr(expr)
	if kind != kindNumber {
		l.unsupported(expr.Span(), "arithmetic on a boolean value")
	}

	return result
}

// lowerCond lowers an expression used as a condition.  Numbers are true when
// they are nonzero.
func (l *Lowerer) lowerCond(expr ast.Expr) ir.Expr {
	switch v := expr.(type) {
	case *ast.BoolOp:
		return &ir.Binary{Op: boolOps[v.Op.Name], Lhs: l.lowerCond(v.Lhs), Rhs: l.lowerCond(v.Rhs)}
	case *ast.UnaryOp:
		if v.Op.Name == "not" {
			result, _ := l.lowerUnary(v)
			return result
		}
	}

	result, kind := l.lowerExpr(expr)
	if kind == kindNumber {
		return &ir.Binary{Op: "!=", Lhs: result, Rhs: l.zero()}
	}

	return result
}

var boolOps = map[string]string{
	"and": "&&",
	"or":  "||",
}

// -----------------------------------------------------------------------------

// lowerIntLit lowers an integer literal to the function's numeric type.
func (l *Lowerer) lowerIntLit(lit *ast.IntLit) ir.Expr {
	value, ok := new(big.Int).SetString(lit.Value, 0)
	if !ok {
		l.unsupported(lit.Span(), "integer literal `%s`", lit.Value)
	}

	if l.num.IsFloat() {
		return &ir.Lit{Text: value.String() + ".0"}
	}

	if bits := intBits[l.num.Name()]; value.BitLen() >= bits {
		l.unsupported(lit.Span(), "integer literal `%s` out of range for `%s`", lit.Value, l.num.Name())
	}

	return &ir.Lit{Text: value.String()}
}

// intBits is the width of each integer type.
var intBits = map[string]int{
	"i32":  32,
	"i64":  64,
	"i128": 128,
}

// intLitValue returns the value of a possibly negated integer literal.
func intLitValue(expr ast.Expr) (*big.Int, bool) {
	switch v := expr.(type) {
	case *ast.IntLit:
		return new(big.Int).SetString(v.Value, 0)
	case *ast.UnaryOp:
		if v.Op.Name == "-" {
			if value, ok := intLitValue(v.Operand); ok {
				return value.Neg(value), true
			}
		}
	}

	return nil, false
}

// floatText returns the target spelling of a float literal.  The mantissa
// always has digits on both sides of its decimal point.
func floatText(value string) string {
	mantissa, exponent := value, ""
	if i := strings.IndexAny(value, "eE"); i >= 0 {
		mantissa, exponent = value[:i], value[i:]
	}

	switch {
	case !strings.Contains(mantissa, "."):
		mantissa += ".0"
	case strings.HasPrefix(mantissa, "."):
		mantissa = "0" + mantissa
	case strings.HasSuffix(mantissa, "."):
		mantissa += "0"
	}

	return mantissa + exponent
}

// zero returns the zero literal of the function's numeric type.
func (l *Lowerer) zero() ir.Expr {
	if l.num.IsFloat() {
		return &ir.Lit{Text: "0.0"}
	}

	return &ir.Lit{Text: "0"}
}

// receiver returns an expression suitable as the receiver of a method call.
// Literal receivers, including the leftmost literal of an operation, are given
// an explicit type suffix.
func (l *Lowerer) receiver(expr ir.Expr) ir.Expr {
	switch v := expr.(type) {
	case *ir.Lit:
		return &ir.Lit{Text: v.Text + "_" + l.num.Name()}
	case *ir.Unary:
		if lit, ok := v.X.(*ir.Lit); ok {
			return &ir.Unary{Op: v.Op, X: l.receiver(lit)}
		}
	case *ir.Binary:
		// The leftmost operand decides the type of an arithmetic expression.
		return &ir.Binary{Op: v.Op, Lhs: l.receiver(v.Lhs), Rhs: v.Rhs}
	}

	return expr
}

// -----------------------------------------------------------------------------

func (l *Lowerer) lowerUnary(op *ast.UnaryOp) (ir.Expr, valueKind) {
	switch op.Op.Name {
	case "not":
		if _, ok := op.Operand.(*ast.BoolOp); ok {
			return &ir.Unary{Op: "!", X: l.lowerCond(op.Operand)}, kindBool
		}

		operand, kind := l.lowerExpr(op.Operand)
		if kind == kindNumber {
			return &ir.Binary{Op: "==", Lhs: operand, Rhs: l.zero()}, kindBool
		}

		return &ir.Unary{Op: "!", X: operand}, kindBool
	case "-":
		return &ir.Unary{Op: "-", X: l.lowerNumber(op.Operand)}, kindNumber
	case "+":
		return l.lowerNumber(op.Operand), kindNumber
	default:
		// `~`
		l.checkBitwise(op.Op)
		return &ir.Unary{Op: "!", X: l.lowerNumber(op.Operand)}, kindNumber
	}
}

// lowerBinary lowers an arithmetic or bitwise operation.  In parallel
// functions, an operation over two calls of unit functions evaluates the
// calls in parallel.
func (l *Lowerer) lowerBinary(op *ast.BinaryOp) ir.Expr {
	lhs := l.lowerNumber(op.Lhs)
	rhs := l.lowerNumber(op.Rhs)

	if !l.flags.Parallel || !l.isUnitCall(op.Lhs) || !l.isUnitCall(op.Rhs) {
		return l.arith(op.Op, lhs, rhs)
	}

	a, b := l.fresh("a"), l.fresh("b")
	return &ir.BlockExpr{Block: &ir.Block{
		Stmts: []ir.Stmt{
			&ir.Let{
				Names: []string{a, b},
				Value: ir.CallPath("rayon::join", &ir.Closure{Expr: lhs}, &ir.Closure{Expr: rhs}),
			},
		},
		Tail: l.arith(op.Op, ir.ID(a), ir.ID(b)),
	}}
}

// isUnitCall returns whether an expression is a call of a function of the
// unit.
func (l *Lowerer) isUnitCall(expr ast.Expr) bool {
	call, ok := expr.(*ast.Call)
	if !ok {
		return false
	}

	name, ok := call.CalleeName()
	if !ok {
		return false
	}

	_, ok = l.env.funcs[name]
	return ok
}

// directOps are the arithmetic operators with the same spelling and meaning
// in the target language.
var directOps = map[string]struct{}{
	"+": {}, "-": {}, "*": {},
	"<<": {}, ">>": {}, "&": {}, "|": {}, "^": {},
}

// arith applies an arithmetic or bitwise operator to two lowered operands.
func (l *Lowerer) arith(op *ast.Oper, lhs, rhs ir.Expr) ir.Expr {
	l.checkBitwise(op)

	if _, ok := directOps[op.Name]; ok {
		return &ir.Binary{Op: op.Name, Lhs: lhs, Rhs: rhs}
	}

	switch op.Name {
	case "/":
		if !l.num.IsFloat() {
			l.unsupported(op.Span, "true division `/` on `%s` (use `//`)", l.num.Name())
		}

		return &ir.Binary{Op: "/", Lhs: lhs, Rhs: rhs}
	case "//":
		if l.num.IsFloat() {
			return ir.Method(&ir.Binary{Op: "/", Lhs: lhs, Rhs: rhs}, "floor")
		}

		return l.flooring(lhs, rhs, "div_euclid", l.floorDiv)
	case "%":
		return l.flooring(lhs, rhs, "rem_euclid", l.floorMod)
	case "**":
		if l.num.IsFloat() {
			return ir.Method(l.receiver(lhs), "powf", rhs)
		}

		return ir.Method(l.receiver(lhs), "pow", &ir.Cast{X: rhs, Type: ir.Named("u32")})
	}

	l.unsupported(op.Span, "operator `%s`", op.Name)
	return nil
}

// flooring lowers an operator rounding its quotient towards negative
// infinity.  Euclidean division agrees with it for positive divisors, so a
// positive literal divisor uses the euclidean method.  Any other divisor binds
// both operands and corrects the truncated result by the signs.
func (l *Lowerer) flooring(lhs, rhs ir.Expr, euclid string, correct func(a, b string) (*ir.Let, ir.Expr)) ir.Expr {
	if isPositiveLit(rhs) {
		return ir.Method(l.receiver(lhs), euclid, rhs)
	}

	a, b := l.fresh("a"), l.fresh("b")
	res, tail := correct(a, b)
	return &ir.BlockExpr{Block: &ir.Block{
		Stmts: []ir.Stmt{
			&ir.Let{Names: []string{a}, Value: lhs},
			&ir.Let{Names: []string{b}, Value: rhs},
			res,
		},
		Tail: tail,
	}}
}

// floorDiv binds the truncated quotient of a by b and rounds it down.
func (l *Lowerer) floorDiv(a, b string) (*ir.Let, ir.Expr) {
	q := l.fresh("q")
	rem := &ir.Binary{Op: "%", Lhs: ir.ID(a), Rhs: ir.ID(b)}
	return &ir.Let{Names: []string{q}, Value: &ir.Binary{Op: "/", Lhs: ir.ID(a), Rhs: ir.ID(b)}},
		l.signCorrection(rem, b, ir.ID(q), &ir.Binary{Op: "-", Lhs: ir.ID(q), Rhs: &ir.Lit{Text: "1"}})
}

// floorMod binds the truncated remainder of a by b and gives it the sign of
// b.
func (l *Lowerer) floorMod(a, b string) (*ir.Let, ir.Expr) {
	r := l.fresh("r")
	return &ir.Let{Names: []string{r}, Value: &ir.Binary{Op: "%", Lhs: ir.ID(a), Rhs: ir.ID(b)}},
		l.signCorrection(ir.ID(r), b, ir.ID(r), &ir.Binary{Op: "+", Lhs: ir.ID(r), Rhs: ir.ID(b)})
}

// signCorrection yields fixed in place of res when the remainder rem is
// nonzero and its sign differs from that of the divisor b.
func (l *Lowerer) signCorrection(rem ir.Expr, b string, res, fixed ir.Expr) ir.Expr {
	cond := &ir.Binary{
		Op:  "&&",
		Lhs: &ir.Binary{Op: "!=", Lhs: rem, Rhs: l.zero()},
		Rhs: &ir.Binary{
			Op:  "!=",
			Lhs: &ir.Binary{Op: "<", Lhs: rem, Rhs: l.zero()},
			Rhs: &ir.Binary{Op: "<", Lhs: ir.ID(b), Rhs: l.zero()},
		},
	}

	return &ir.IfExpr{Cond: cond, Then: ir.Tail(fixed), Else: ir.Tail(res)}
}

// isPositiveLit returns whether a lowered expression is a positive numeric
// literal.
func isPositiveLit(expr ir.Expr) bool {
	lit, ok := expr.(*ir.Lit)
	if !ok {
		return false
	}

	value, err := strconv.ParseFloat(lit.Text, 64)
	return err == nil && value > 0
}

// bitwiseOps are the operators only defined on integers.
var bitwiseOps = map[string]struct{}{
	"<<": {}, ">>": {}, "&": {}, "|": {}, "^": {}, "~": {},
}

// checkBitwise rejects bitwise operators in float functions.
func (l *Lowerer) checkBitwise(op *ast.Oper) {
	if _, ok := bitwiseOps[op.Name]; ok && l.num.IsFloat() {
		l.unsupported(op.Span, "bitwise operator `%s` on `%s`", op.Name, l.num.Name())
	}
}

// compareOps are the supported comparison operators.
var compareOps = map[string]struct{}{
	"==": {}, "!=": {}, "<": {}, ">": {}, "<=": {}, ">=": {},
}

// lowerCompare lowers a comparison.  Chained comparisons become a conjunction
// of pairwise comparisons.
func (l *Lowerer) lowerCompare(cmp *ast.Compare) ir.Expr {
	for _, op := range cmp.Ops {
		if _, ok := compareOps[op.Name]; !ok {
			l.unsupported(op.Span, "`%s` comparison", op.Name)
		}
	}

	operands := make([]ir.Expr, len(cmp.Exprs))
	for i, expr := range cmp.Exprs {
		operands[i], _ = l.lowerExpr(expr)
	}

	return l.chain(cmp.Ops, operands)
}

// chain joins the comparisons of a chain.  A middle operand that is not a
// plain value is bound once, inside a block which is only entered when the
// comparisons before it hold.
func (l *Lowerer) chain(ops []*ast.Oper, operands []ir.Expr) ir.Expr {
	var result ir.Expr
	lhs := operands[0]
	for i, op := range ops {
		rhs := operands[i+1]

		if i+1 < len(ops) && !isPlainValue(rhs) {
			var stmts []ir.Stmt

			// The left operand of the chain is evaluated before the middle.
			if i == 0 && !isPlainValue(lhs) {
				first := l.fresh("lhs")
				stmts = append(stmts, &ir.Let{Names: []string{first}, Value: lhs})
				lhs = ir.ID(first)
			}

			mid := l.fresh("mid")
			stmts = append(stmts, &ir.Let{Names: []string{mid}, Value: rhs})

			rest := append([]ir.Expr{lhs, ir.ID(mid)}, operands[i+2:]...)
			return conjoin(result, &ir.BlockExpr{Block: &ir.Block{
				Stmts: stmts,
				Tail:  l.chain(ops[i:], rest),
			}})
		}

		result = conjoin(result, &ir.Binary{Op: op.Name, Lhs: lhs, Rhs: rhs})
		lhs = rhs
	}

	return result
}

// conjoin returns the conjunction of two conditions.  A nil lhs is true.
func conjoin(lhs, rhs ir.Expr) ir.Expr {
	if lhs == nil {
		return rhs
	}

	return &ir.Binary{Op: "&&", Lhs: lhs, Rhs: rhs}
}

// isPlainValue returns whether evaluating a lowered expression more than once
// is free of cost and effects.
func isPlainValue(expr ir.Expr) bool {
	switch v := expr.(type) {
	case *ir.Lit, *ir.Ident:
		return true
	case *ir.Unary:
		return isPlainValue(v.X)
	}

	return false
}

// -----------------------------------------------------------------------------

// lowerCall lowers a call.  Calls producing no value are only allowed as
// statements.
func (l *Lowerer) lowerCall(call *ast.Call, isStmt bool) ir.Expr {
	name, ok := call.CalleeName()
	if !ok {
		if attr, isAttr := call.Func.(*ast.Attribute); isAttr {
			l.unsupported(call.Span(), "method call `%s`", attr.Attr)
		}

		l.unsupported(call.Span(), "call of a computed function")
	}

	if len(call.Keywords) > 0 {
		l.unsupported(call.Keywords[0].Span(), "keyword arguments")
	}

	if fd, ok := l.env.funcs[name]; ok {
		return l.lowerUnitCall(call, fd, isStmt)
	}

	switch name {
	case "abs":
		if len(call.Args) != 1 {
			l.unsupported(call.Span(), "`abs` with %d arguments", len(call.Args))
		}

		return ir.Method(l.receiver(l.lowerNumber(call.Args[0])), "abs")
	case "min", "max":
		if len(call.Args) < 2 {
			l.unsupported(call.Span(), "`%s` over an iterable", name)
		}

		result := l.receiver(l.lowerNumber(call.Args[0]))
		for _, arg := range call.Args[1:] {
			result = ir.Method(result, name, l.lowerNumber(arg))
		}

		return result
	case "print":
		if !isStmt {
			l.unsupported(call.Span(), "use of `print` as a value")
		}

		return l.lowerPrint(call)
	}

	l.unsupported(call.Span(), "call to unsupported function `%s`", name)
	return nil
}

// lowerUnitCall lowers a call of a function of the unit.  Missing arguments
// are filled in from parameter defaults.
func (l *Lowerer) lowerUnitCall(call *ast.Call, fd *ast.FuncDef, isStmt bool) ir.Expr {
	if len(call.Args) > len(fd.Params) {
		l.unsupported(call.Span(), "call to `%s` with %d arguments, expected %d", fd.Name, len(call.Args), len(fd.Params))
	}

	if !isStmt && !l.returnsValue(fd) {
		l.unsupported(call.Span(), "use of `%s`, which returns no value", fd.Name)
	}

	args := make([]ir.Expr, len(fd.Params))
	for i, param := range fd.Params {
		switch {
		case i < len(call.Args):
			args[i] = l.lowerNumber(call.Args[i])
		case param.Default != nil:
			args[i] = l.lowerNumber(param.Default)
		default:
			l.unsupported(call.Span(), "call to `%s` missing argument `%s`", fd.Name, param.Name)
		}
	}

	return &ir.Call{Func: ir.ID(Ident(fd.Name)), Args: args}
}

// returnsValue returns whether a unit function returns a value.
func (l *Lowerer) returnsValue(fd *ast.FuncDef) bool {
	if fd == l.fd {
		return !l.void
	}

	return optimize.ReturnsValue(fd)
}

// lowerPrint lowers a call to `print` into a formatted print.  String literal
// arguments are written directly into the format string.
func (l *Lowerer) lowerPrint(call *ast.Call) ir.Expr {
	var parts []string
	var args []ir.Expr

	for _, arg := range call.Args {
		if str, ok := arg.(*ast.StringLit); ok {
			parts = append(parts, formatEscape(str.Value))
			continue
		}

		value, _ := l.lowerExpr(arg)
		parts = append(parts, "{}")
		args = append(args, value)
	}

	if len(parts) == 0 {
		return &ir.Macro{Name: "println"}
	}

	format := &ir.Lit{Text: rustString(strings.Join(parts, " "))}
	return &ir.Macro{Name: "println", Args: append([]ir.Expr{format}, args...)}
}

// formatEscape escapes the braces of text placed in a format string.
func formatEscape(s string) string {
	return strings.NewReplacer("{", "{{", "}", "}}").Replace(s)
}

// rustString returns a target string literal with the given contents.
func rustString(s string) string {
	sb := strings.Builder{}
	sb.WriteRune('"')

	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case 0:
			sb.WriteString(`\0`)
		default:
			sb.WriteRune(r)
		}
	}

	sb.WriteRune('"')
	return sb.String()
}

// callName returns the callee name of a possibly nil call.
func callName(call *ast.Call) (string, bool) {
	if call == nil {
		return "", false
	}

	return call.CalleeName()
}
