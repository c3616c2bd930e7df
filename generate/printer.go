package generate

import (
	"strings"

	"pyrs/ir"
)

// indentUnit is the text of one level of indentation.
const indentUnit = "    "

// printer is responsible for converting the IR of a file into target source
// text.  The output depends only on the IR.
type printer struct {
	sb     strings.Builder
	indent int
}

// Print returns the source text of a file.
func Print(file *ir.File) string {
	p := &printer{}

	for _, attr := range file.Attrs {
		p.sb.WriteString("#![")
		p.sb.WriteString(attr)
		p.sb.WriteString("]\n")
	}

	if len(file.Uses) > 0 {
		p.separate()

		for _, use := range file.Uses {
			p.sb.WriteString(use)
			p.sb.WriteRune('\n')
		}
	}

	for _, item := range file.Items {
		p.separate()
		p.printItem(item)
	}

	return p.sb.String()
}

// printItem returns the source text of a single item.
func printItem(item ir.Item) string {
	p := &printer{}
	p.printItem(item)
	return p.sb.String()
}

// separate writes a blank line if anything has been written.
func (p *printer) separate() {
	if p.sb.Len() > 0 {
		p.sb.WriteRune('\n')
	}
}

// startLine writes the indentation of a new line.
func (p *printer) startLine() {
	for i := 0; i < p.indent; i++ {
		p.sb.WriteString(indentUnit)
	}
}

// -----------------------------------------------------------------------------

func (p *printer) printItem(item ir.Item) {
	switch v := item.(type) {
	case *ir.FuncDef:
		p.sb.WriteString("fn ")
		p.sb.WriteString(v.Name)
		p.sb.WriteRune('(')
		for i, param := range v.Params {
			if i > 0 {
				p.sb.WriteString(", ")
			}

			p.printBinding([]string{param.Name}, param.Mut)
			p.sb.WriteString(": ")
			p.sb.WriteString(param.Type.Repr())
		}
		p.sb.WriteString(") ")

		if v.Return != nil {
			p.sb.WriteString("-> ")
			p.sb.WriteString(v.Return.Repr())
			p.sb.WriteRune(' ')
		}

		p.printBlock(v.Body)
		p.sb.WriteRune('\n')
	case *ir.Static:
		p.sb.WriteString("static ")
		p.sb.WriteString(v.Name)
		p.sb.WriteString(": ")
		p.sb.WriteString(v.Type.Repr())
		p.sb.WriteString(" = ")
		p.printExpr(v.Init)
		p.sb.WriteString(";\n")
	}
}

// printBlock writes a braced block.  The opening brace is written at the
// current position and the closing brace is left unterminated.
func (p *printer) printBlock(block *ir.Block) {
	if len(block.Stmts) == 0 && block.Tail == nil {
		p.sb.WriteString("{}")
		return
	}

	p.sb.WriteString("{\n")
	p.indent++

	for _, stmt := range block.Stmts {
		p.startLine()
		p.printStmt(stmt)
		p.sb.WriteRune('\n')
	}

	if block.Tail != nil {
		p.startLine()
		p.printExpr(block.Tail)
		p.sb.WriteRune('\n')
	}

	p.indent--
	p.startLine()
	p.sb.WriteRune('}')
}

// -----------------------------------------------------------------------------

func (p *printer) printStmt(stmt ir.Stmt) {
	switch v := stmt.(type) {
	case *ir.Let:
		p.sb.WriteString("let ")
		p.printBinding(v.Names, v.Mut)

		if v.Type != nil {
			p.sb.WriteString(": ")
			p.sb.WriteString(v.Type.Repr())
		}

		if v.Value != nil {
			p.sb.WriteString(" = ")
			p.printExpr(v.Value)
		}

		p.sb.WriteRune(';')
	case *ir.Assign:
		p.printExpr(v.Target)
		p.sb.WriteRune(' ')
		p.sb.WriteString(v.Op)
		p.sb.WriteRune(' ')
		p.printExpr(v.Value)
		p.sb.WriteRune(';')
	case *ir.ExprStmt:
		p.printExpr(v.X)
		p.sb.WriteRune(';')
	case *ir.If:
		p.printIf(v)
	case *ir.While:
		if v.Cond == nil {
			p.sb.WriteString("loop ")
		} else {
			p.sb.WriteString("while ")
			p.printExpr(v.Cond)
			p.sb.WriteRune(' ')
		}

		p.printBlock(v.Body)
	case *ir.For:
		p.sb.WriteString("for ")
		p.printBinding([]string{v.Var}, v.Mut)
		p.sb.WriteString(" in ")
		p.printExpr(v.Iter)
		p.sb.WriteRune(' ')
		p.printBlock(v.Body)
	case *ir.Return:
		if v.Value == nil {
			p.sb.WriteString("return;")
		} else {
			p.sb.WriteString("return ")
			p.printExpr(v.Value)
			p.sb.WriteRune(';')
		}
	case *ir.Break:
		p.sb.WriteString("break;")
	case *ir.Continue:
		p.sb.WriteString("continue;")
	case *ir.Block:
		p.printBlock(v)
	}
}

// printBinding writes the pattern binding one or more names.
func (p *printer) printBinding(names []string, mut bool) {
	if len(names) > 1 {
		p.sb.WriteRune('(')
	}

	for i, name := range names {
		if i > 0 {
			p.sb.WriteString(", ")
		}

		if mut {
			p.sb.WriteString("mut ")
		}

		p.sb.WriteString(name)
	}

	if len(names) > 1 {
		p.sb.WriteRune(')')
	}
}

func (p *printer) printIf(stmt *ir.If) {
	p.sb.WriteString("if ")
	if stmt.Pattern != "" {
		p.sb.WriteString("let ")
		p.sb.WriteString(stmt.Pattern)
		p.sb.WriteString(" = ")
	}

	p.printExpr(stmt.Cond)
	p.sb.WriteRune(' ')
	p.printBlock(stmt.Then)

	switch v := stmt.Else.(type) {
	case *ir.If:
		p.sb.WriteString(" else ")
		p.printIf(v)
	case *ir.Block:
		p.sb.WriteString(" else ")
		p.printBlock(v)
	}
}

// -----------------------------------------------------------------------------

// Enumeration of expression precedences from loosest to tightest binding.
const (
	precLowest = iota
	precOr
	precAnd
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdditive
	precMultiplicative
	precCast
	precUnary
	precPostfix
	precAtom
)

var binaryPrecs = map[string]int{
	"||": precOr,
	"&&": precAnd,
	"==": precCompare,
	"!=": precCompare,
	"<":  precCompare,
	">":  precCompare,
	"<=": precCompare,
	">=": precCompare,
	"|":  precBitOr,
	"^":  precBitXor,
	"&":  precBitAnd,
	"<<": precShift,
	">>": precShift,
	"+":  precAdditive,
	"-":  precAdditive,
	"*":  precMultiplicative,
	"/":  precMultiplicative,
	"%":  precMultiplicative,
}

// precOf returns the precedence of an expression.
func precOf(expr ir.Expr) int {
	switch v := expr.(type) {
	case *ir.Binary:
		return binaryPrecs[v.Op]
	case *ir.Cast:
		return precCast
	case *ir.Unary, *ir.Ref:
		return precUnary
	case *ir.Call, *ir.MethodCall:
		return precPostfix
	case *ir.Lit, *ir.Ident, *ir.Macro, *ir.Tuple:
		return precAtom
	default:
		// closures, blocks, conditionals, and ranges
		return precLowest
	}
}

// printOperand writes an expression, parenthesizing it if its precedence is
// below the given minimum.
func (p *printer) printOperand(expr ir.Expr, minPrec int) {
	if precOf(expr) < minPrec {
		p.sb.WriteRune('(')
		p.printExpr(expr)
		p.sb.WriteRune(')')
	} else {
		p.printExpr(expr)
	}
}

func (p *printer) printExpr(expr ir.Expr) {
	switch v := expr.(type) {
	case *ir.Lit:
		p.sb.WriteString(v.Text)
	case *ir.Ident:
		p.sb.WriteString(v.Name)
	case *ir.Unary:
		p.sb.WriteString(v.Op)
		p.printOperand(v.X, precUnary)
	case *ir.Ref:
		p.sb.WriteRune('&')
		p.printOperand(v.X, precUnary)
	case *ir.Binary:
		prec := binaryPrecs[v.Op]

		// Comparisons do not chain and a cast followed by `<` reads as the
		// start of generic arguments.
		lhsPrec, rhsPrec := prec, prec+1
		if prec == precCompare {
			lhsPrec = prec + 1
		}

		if _, ok := v.Lhs.(*ir.Cast); ok && (v.Op == "<" || v.Op == "<<") {
			lhsPrec = precUnary
		}

		p.printOperand(v.Lhs, lhsPrec)
		p.sb.WriteRune(' ')
		p.sb.WriteString(v.Op)
		p.sb.WriteRune(' ')
		p.printOperand(v.Rhs, rhsPrec)
	case *ir.Cast:
		p.printOperand(v.X, precCast)
		p.sb.WriteString(" as ")
		p.sb.WriteString(v.Type.Repr())
	case *ir.Call:
		p.printOperand(v.Func, precPostfix)
		p.printArgs(v.Args)
	case *ir.MethodCall:
		p.printOperand(v.Recv, precPostfix)
		p.sb.WriteRune('.')
		p.sb.WriteString(v.Method)
		p.printArgs(v.Args)
	case *ir.Macro:
		p.sb.WriteString(v.Name)
		p.sb.WriteRune('!')
		p.printArgs(v.Args)
	case *ir.Closure:
		p.sb.WriteRune('|')
		p.sb.WriteString(strings.Join(v.Params, ", "))
		p.sb.WriteString("| ")

		if v.Body == nil {
			p.printExpr(v.Expr)
		} else {
			if v.Return != nil {
				p.sb.WriteString("-> ")
				p.sb.WriteString(v.Return.Repr())
				p.sb.WriteRune(' ')
			}

			p.printBlock(v.Body)
		}
	case *ir.IfExpr:
		p.sb.WriteString("if ")
		p.printExpr(v.Cond)
		p.sb.WriteRune(' ')

		if isInline(v.Then) && isInline(v.Else) {
			p.sb.WriteString("{ ")
			p.printExpr(v.Then.Tail)
			p.sb.WriteString(" } else { ")
			p.printExpr(v.Else.Tail)
			p.sb.WriteString(" }")
		} else {
			p.printBlock(v.Then)
			p.sb.WriteString(" else ")
			p.printBlock(v.Else)
		}
	case *ir.BlockExpr:
		p.printBlock(v.Block)
	case *ir.Tuple:
		p.sb.WriteRune('(')
		for i, elem := range v.Elems {
			if i > 0 {
				p.sb.WriteString(", ")
			}

			p.printExpr(elem)
		}

		if len(v.Elems) == 1 {
			p.sb.WriteRune(',')
		}
		p.sb.WriteRune(')')
	case *ir.Range:
		p.printOperand(v.Start, precOr)
		if v.Inclusive {
			p.sb.WriteString("..=")
		} else {
			p.sb.WriteString("..")
		}
		p.printOperand(v.End, precOr)
	}
}

func (p *printer) printArgs(args []ir.Expr) {
	p.sb.WriteRune('(')
	for i, arg := range args {
		if i > 0 {
			p.sb.WriteString(", ")
		}

		p.printExpr(arg)
	}
	p.sb.WriteRune(')')
}

// isInline returns whether a block can be printed on a single line: it has
// no statements and its tail contains no blocks.
func isInline(block *ir.Block) bool {
	return len(block.Stmts) == 0 && block.Tail != nil && !containsBlock(block.Tail)
}

func containsBlock(expr ir.Expr) bool {
	switch v := expr.(type) {
	case *ir.BlockExpr, *ir.IfExpr:
		return true
	case *ir.Closure:
		return v.Body != nil || containsBlock(v.Expr)
	case *ir.Unary:
		return containsBlock(v.X)
	case *ir.Ref:
		return containsBlock(v.X)
	case *ir.Binary:
		return containsBlock(v.Lhs) || containsBlock(v.Rhs)
	case *ir.Cast:
		return containsBlock(v.X)
	case *ir.Call:
		return containsBlock(v.Func) || anyContainsBlock(v.Args)
	case *ir.MethodCall:
		return containsBlock(v.Recv) || anyContainsBlock(v.Args)
	case *ir.Macro:
		return anyContainsBlock(v.Args)
	case *ir.Tuple:
		return anyContainsBlock(v.Elems)
	case *ir.Range:
		return containsBlock(v.Start) || containsBlock(v.End)
	}

	return false
}

func anyContainsBlock(exprs []ir.Expr) bool {
	for _, expr := range exprs {
		if containsBlock(expr) {
			return true
		}
	}

	return false
}
