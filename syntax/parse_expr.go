package syntax

import (
	"strings"

	"pyrs/ast"
	"pyrs/report"
)

// expr_list := expr {',' expr} [','] ;
func (p *Parser) parseExprList() ast.Expr {
	first := p.parseExpr()
	if !p.has(TOK_COMMA) {
		return first
	}

	exprs := []ast.Expr{first}
	for p.has(TOK_COMMA) {
		p.next()

		// Trailing comma.
		if !p.startsExpr() {
			break
		}

		exprs = append(exprs, p.parseExpr())
	}

	return &ast.TupleLit{
		ASTBase: ast.NewASTBaseOver(first.Span(), p.lookbehind.Span),
		Elems:   exprs,
	}
}

// startsExpr returns whether the current token can begin an expression.
func (p *Parser) startsExpr() bool {
	return p.hasOneOf(
		TOK_IDENT, TOK_INTLIT, TOK_FLOATLIT, TOK_STRINGLIT,
		TOK_TRUE, TOK_FALSE, TOK_NONE,
		TOK_LPAREN, TOK_LBRACKET, TOK_LBRACE,
		TOK_MINUS, TOK_PLUS, TOK_COMPL, TOK_NOT,
	)
}

// expr := or_expr ['if' or_expr 'else' expr] ;
func (p *Parser) parseExpr() ast.Expr {
	then := p.parseOrExpr()

	if p.has(TOK_IF) {
		p.next()
		cond := p.parseOrExpr()

		p.want(TOK_ELSE)
		els := p.parseExpr()

		return &ast.IfExpr{
			ASTBase: ast.NewASTBaseOver(then.Span(), els.Span()),
			Cond:    cond,
			Then:    then,
			Else:    els,
		}
	}

	return then
}

// or_expr := and_expr {'or' and_expr} ;
func (p *Parser) parseOrExpr() ast.Expr {
	lhs := p.parseAndExpr()

	for p.has(TOK_OR) {
		op := p.operOf(p.tok)
		p.next()

		rhs := p.parseAndExpr()
		lhs = &ast.BoolOp{
			ASTBase: ast.NewASTBaseOver(lhs.Span(), rhs.Span()),
			Op:      op,
			Lhs:     lhs,
			Rhs:     rhs,
		}
	}

	return lhs
}

// and_expr := not_expr {'and' not_expr} ;
func (p *Parser) parseAndExpr() ast.Expr {
	lhs := p.parseNotExpr()

	for p.has(TOK_AND) {
		op := p.operOf(p.tok)
		p.next()

		rhs := p.parseNotExpr()
		lhs = &ast.BoolOp{
			ASTBase: ast.NewASTBaseOver(lhs.Span(), rhs.Span()),
			Op:      op,
			Lhs:     lhs,
			Rhs:     rhs,
		}
	}

	return lhs
}

// not_expr := 'not' not_expr | comparison ;
func (p *Parser) parseNotExpr() ast.Expr {
	if p.has(TOK_NOT) {
		op := p.operOf(p.tok)
		p.next()

		operand := p.parseNotExpr()
		return &ast.UnaryOp{
			ASTBase: ast.NewASTBaseOver(op.Span, operand.Span()),
			Op:      op,
			Operand: operand,
		}
	}

	return p.parseComparison()
}

// comparison := bin_op_expr {comp_op bin_op_expr} ;
// comp_op := '<' | '>' | '==' | '>=' | '<=' | '!=' | 'in' | 'not' 'in'
// | 'is' | 'is' 'not' ;
func (p *Parser) parseComparison() ast.Expr {
	first := p.parseBinOpExpr()

	exprs := []ast.Expr{first}
	var ops []*ast.Oper
	for {
		var op *ast.Oper

		switch p.tok.Kind {
		case TOK_LT, TOK_GT, TOK_EQ, TOK_GTEQ, TOK_LTEQ, TOK_NEQ, TOK_IN:
			op = p.operOf(p.tok)
			p.next()
		case TOK_NOT:
			startSpan := p.tok.Span
			p.next()

			inTok := p.want(TOK_IN)
			op = &ast.Oper{Name: "not in", Span: report.NewSpanOver(startSpan, inTok.Span)}
		case TOK_IS:
			op = p.operOf(p.tok)
			p.next()

			if p.has(TOK_NOT) {
				op = &ast.Oper{Name: "is not", Span: report.NewSpanOver(op.Span, p.tok.Span)}
				p.next()
			}
		}

		if op == nil {
			break
		}

		ops = append(ops, op)
		exprs = append(exprs, p.parseBinOpExpr())
	}

	if len(ops) == 0 {
		return first
	}

	return &ast.Compare{
		ASTBase: ast.NewASTBaseOver(first.Span(), exprs[len(exprs)-1].Span()),
		Exprs:   exprs,
		Ops:     ops,
	}
}

// -----------------------------------------------------------------------------

// bin_op_expr := or_bin_expr ;
// or_bin_expr := xor_expr {'|' xor_expr} ;
// xor_expr := and_bin_expr {'^' and_bin_expr} ;
// and_bin_expr := shift_expr {'&' shift_expr} ;
// shift_expr := arith_expr {('<<' | '>>') arith_expr} ;
// arith_expr := term {('+' | '-') term} ;
// term := unary_expr {('*' | '/' | '//' | '%') unary_expr} ;
func (p *Parser) parseBinOpExpr() ast.Expr {
	return p.precedenceParse(p.parseUnaryExpr(), len(precTable))
}

// precTable is the operator precedence table for binary operators. The table is
// ordered highest to lowest precedence.
var precTable = [][]int{
	{TOK_STAR, TOK_DIV, TOK_FLOORDIV, TOK_MOD},
	{TOK_PLUS, TOK_MINUS},
	{TOK_LSHIFT, TOK_RSHIFT},
	{TOK_BWAND},
	{TOK_BWXOR},
	{TOK_BWOR},
}

// precedenceParse is a helper function used to perform operator precedence
// parsing for binary operators.  Only operators of the first maxPrec levels of
// the precedence table are consumed.
func (p *Parser) precedenceParse(lhs ast.Expr, maxPrec int) ast.Expr {
	for {
		// Check to see if the lookahead matches any of the operators at or
		// above our precedence level.
		var opTok *Token
		var opPrec int
		for prec, precLevel := range precTable[:maxPrec] {
			if p.hasOneOf(precLevel...) {
				opTok = p.tok
				opPrec = prec
				break
			}
		}

		// No matching operator.
		if opTok == nil {
			return lhs
		}

		p.next()
		rhs := p.parseUnaryExpr()

		// Any operators of a strictly higher precedence bind to the right
		// operand first.
		for p.hasHigherPrec(opPrec) {
			rhs = p.precedenceParse(rhs, opPrec)
		}

		lhs = &ast.BinaryOp{
			ASTBase: ast.NewASTBaseOver(lhs.Span(), rhs.Span()),
			Op:      p.operOf(opTok),
			Lhs:     lhs,
			Rhs:     rhs,
		}
	}
}

// hasHigherPrec returns whether the parser is on a binary operator whose
// precedence level is strictly higher than prec.
func (p *Parser) hasHigherPrec(prec int) bool {
	for _, precLevel := range precTable[:prec] {
		if p.hasOneOf(precLevel...) {
			return true
		}
	}

	return false
}

// -----------------------------------------------------------------------------

// unary_expr := ('-' | '+' | '~') unary_expr | power_expr ;
func (p *Parser) parseUnaryExpr() ast.Expr {
	if p.hasOneOf(TOK_MINUS, TOK_PLUS, TOK_COMPL) {
		op := p.operOf(p.tok)
		p.next()

		operand := p.parseUnaryExpr()
		return &ast.UnaryOp{
			ASTBase: ast.NewASTBaseOver(op.Span, operand.Span()),
			Op:      op,
			Operand: operand,
		}
	}

	return p.parsePowerExpr()
}

// power_expr := atom_expr ['**' unary_expr] ;
func (p *Parser) parsePowerExpr() ast.Expr {
	base := p.parseAtomExpr()

	if p.has(TOK_POW) {
		op := p.operOf(p.tok)
		p.next()

		exp := p.parseUnaryExpr()
		return &ast.BinaryOp{
			ASTBase: ast.NewASTBaseOver(base.Span(), exp.Span()),
			Op:      op,
			Lhs:     base,
			Rhs:     exp,
		}
	}

	return base
}

// atom_expr := atom {trailer} ;
// trailer := '(' [call_args] ')' | '[' expr_list ']' | '.' 'IDENT' ;
func (p *Parser) parseAtomExpr() ast.Expr {
	expr := p.parseAtom()

	for {
		switch p.tok.Kind {
		case TOK_LPAREN:
			p.next()

			args, keywords := p.parseCallArgs()
			expr = &ast.Call{
				ASTBase:  ast.NewASTBaseOver(expr.Span(), p.lookbehind.Span),
				Func:     expr,
				Args:     args,
				Keywords: keywords,
			}
		case TOK_LBRACKET:
			p.next()

			index := p.parseExprList()
			if p.has(TOK_COLON) {
				p.error(p.tok.Span, "slices are not supported")
			}

			p.want(TOK_RBRACKET)
			expr = &ast.Subscript{
				ASTBase: ast.NewASTBaseOver(expr.Span(), p.lookbehind.Span),
				Value:   expr,
				Index:   index,
			}
		case TOK_DOT:
			p.next()

			attrTok := p.want(TOK_IDENT)
			expr = &ast.Attribute{
				ASTBase: ast.NewASTBaseOver(expr.Span(), attrTok.Span),
				Value:   expr,
				Attr:    attrTok.Value,
			}
		default:
			return expr
		}
	}
}

// call_args := call_arg {',' call_arg} [','] ;
// call_arg := expr | 'IDENT' '=' expr ;
//
// The closing parenthesis is consumed.
func (p *Parser) parseCallArgs() ([]ast.Expr, []*ast.Keyword) {
	var args []ast.Expr
	var keywords []*ast.Keyword

	for !p.has(TOK_RPAREN) {
		if p.hasOneOf(TOK_STAR, TOK_POW) {
			p.error(p.tok.Span, "argument unpacking is not supported")
		}

		arg := p.parseExpr()

		if name, ok := arg.(*ast.Name); ok && p.has(TOK_ASSIGN) {
			p.next()

			value := p.parseExpr()
			keywords = append(keywords, &ast.Keyword{
				ASTBase: ast.NewASTBaseOver(name.Span(), value.Span()),
				Name:    name.Name,
				Value:   value,
			})
		} else if len(keywords) > 0 {
			p.error(arg.Span(), "positional argument follows keyword argument")
		} else {
			args = append(args, arg)
		}

		if p.has(TOK_COMMA) {
			p.next()
			continue
		}

		break
	}

	p.want(TOK_RPAREN)
	return args, keywords
}

// atom := 'IDENT' | 'INTLIT' | 'FLOATLIT' | 'STRINGLIT' {'STRINGLIT'}
// | 'True' | 'False' | 'None' | tuple_or_paren | list | dict ;
// tuple_or_paren := '(' [expr {',' expr} [',']] ')' ;
// list := '[' [expr {',' expr} [',']] ']' ;
// dict := '{' [expr ':' expr {',' expr ':' expr} [',']] '}' ;
func (p *Parser) parseAtom() ast.Expr {
	tok := p.tok

	switch tok.Kind {
	case TOK_IDENT:
		p.next()
		return &ast.Name{ASTBase: ast.NewASTBaseOn(tok.Span), Name: tok.Value}
	case TOK_INTLIT:
		p.next()
		return &ast.IntLit{ASTBase: ast.NewASTBaseOn(tok.Span), Value: tok.Value}
	case TOK_FLOATLIT:
		p.next()
		return &ast.FloatLit{ASTBase: ast.NewASTBaseOn(tok.Span), Value: tok.Value}
	case TOK_TRUE, TOK_FALSE:
		p.next()
		return &ast.BoolLit{ASTBase: ast.NewASTBaseOn(tok.Span), Value: tok.Kind == TOK_TRUE}
	case TOK_NONE:
		p.next()
		return &ast.NoneLit{ASTBase: ast.NewASTBaseOn(tok.Span)}
	case TOK_STRINGLIT:
		{
			// Adjacent string literals are concatenated.
			sb := strings.Builder{}
			for p.has(TOK_STRINGLIT) {
				sb.WriteString(p.tok.Value)
				p.next()
			}

			return &ast.StringLit{
				ASTBase: ast.NewASTBaseOver(tok.Span, p.lookbehind.Span),
				Value:   sb.String(),
			}
		}
	case TOK_LPAREN:
		{
			p.next()

			elems, trailingComma := p.parseSeqElems(TOK_RPAREN)
			closeSpan := p.want(TOK_RPAREN).Span

			if len(elems) == 1 && !trailingComma {
				return elems[0]
			}

			return &ast.TupleLit{
				ASTBase: ast.NewASTBaseOver(tok.Span, closeSpan),
				Elems:   elems,
			}
		}
	case TOK_LBRACKET:
		{
			p.next()

			elems, _ := p.parseSeqElems(TOK_RBRACKET)
			closeSpan := p.want(TOK_RBRACKET).Span

			return &ast.ListLit{
				ASTBase: ast.NewASTBaseOver(tok.Span, closeSpan),
				Elems:   elems,
			}
		}
	case TOK_LBRACE:
		{
			p.next()

			dict := &ast.DictLit{}
			for !p.has(TOK_RBRACE) {
				dict.Keys = append(dict.Keys, p.parseExpr())
				p.want(TOK_COLON)
				dict.Values = append(dict.Values, p.parseExpr())

				if p.has(TOK_COMMA) {
					p.next()
					continue
				}

				break
			}

			closeSpan := p.want(TOK_RBRACE).Span
			dict.ASTBase = ast.NewASTBaseOver(tok.Span, closeSpan)
			return dict
		}
	}

	p.reject()
	return nil
}

// parseSeqElems parses the comma-separated elements of a tuple or list up to
// but not including the closing token.  It returns whether the final element
// was followed by a comma.
func (p *Parser) parseSeqElems(closer int) ([]ast.Expr, bool) {
	var elems []ast.Expr
	trailingComma := false

	for !p.has(closer) {
		elems = append(elems, p.parseExpr())
		trailingComma = false

		if p.has(TOK_COMMA) {
			p.next()
			trailingComma = true
			continue
		}

		break
	}

	return elems, trailingComma
}

// operOf creates an AST operator from an operator token.
func (p *Parser) operOf(tok *Token) *ast.Oper {
	return &ast.Oper{Name: tok.Value, Span: tok.Span}
}
