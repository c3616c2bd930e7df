package syntax

import (
	"strings"

	"pyrs/ast"
	"pyrs/report"
)

// block := ':' ('NEWLINE' 'INDENT' stmt {stmt} 'DEDENT' | simple_stmts) ;
func (p *Parser) parseBlock() []ast.Stmt {
	p.want(TOK_COLON)

	if !p.has(TOK_NEWLINE) {
		return p.parseSimpleStmts()
	}

	p.next()
	p.want(TOK_INDENT)

	var stmts []ast.Stmt
	for !p.has(TOK_DEDENT) {
		stmts = append(stmts, p.parseStmt()...)
	}

	p.next()
	return stmts
}

// stmt := if_stmt | while_stmt | for_stmt | func_def | simple_stmts ;
func (p *Parser) parseStmt() []ast.Stmt {
	switch p.tok.Kind {
	case TOK_IF:
		return []ast.Stmt{p.parseIfStmt()}
	case TOK_WHILE:
		return []ast.Stmt{p.parseWhileStmt()}
	case TOK_FOR:
		return []ast.Stmt{p.parseForStmt()}
	case TOK_DEF, TOK_ATSIGN:
		return []ast.Stmt{p.parseFuncDef()}
	case TOK_IMPORT, TOK_FROM:
		p.error(p.tok.Span, "imports are only supported at the top level of a file")
	case TOK_INDENT:
		p.error(p.tok.Span, "unexpected indent")
	}

	return p.parseSimpleStmts()
}

// simple_stmts := simple_stmt {';' simple_stmt} [';'] 'NEWLINE' ;
func (p *Parser) parseSimpleStmts() []ast.Stmt {
	var stmts []ast.Stmt

	for {
		stmts = append(stmts, p.parseSimpleStmt())

		if p.has(TOK_SEMI) {
			p.next()

			if p.has(TOK_NEWLINE) {
				break
			}

			continue
		}

		break
	}

	p.want(TOK_NEWLINE)
	return stmts
}

// simple_stmt := 'pass' | 'break' | 'continue' | return_stmt | global_stmt
// | expr_assign_stmt ;
// return_stmt := 'return' [expr_list] ;
// global_stmt := 'global' 'IDENT' {',' 'IDENT'} ;
func (p *Parser) parseSimpleStmt() ast.Stmt {
	switch p.tok.Kind {
	case TOK_PASS:
		p.next()
		return &ast.Pass{ASTBase: ast.NewASTBaseOn(p.lookbehind.Span)}
	case TOK_BREAK:
		p.next()
		return &ast.Break{ASTBase: ast.NewASTBaseOn(p.lookbehind.Span)}
	case TOK_CONTINUE:
		p.next()
		return &ast.Continue{ASTBase: ast.NewASTBaseOn(p.lookbehind.Span)}
	case TOK_RETURN:
		{
			p.next()
			startSpan := p.lookbehind.Span

			var value ast.Expr
			if p.startsExpr() {
				value = p.parseExprList()
			}

			return &ast.Return{
				ASTBase: ast.NewASTBaseOver(startSpan, p.lookbehind.Span),
				Value:   value,
			}
		}
	case TOK_GLOBAL:
		{
			p.next()
			startSpan := p.lookbehind.Span

			names := []string{p.want(TOK_IDENT).Value}
			for p.has(TOK_COMMA) {
				p.next()
				names = append(names, p.want(TOK_IDENT).Value)
			}

			return &ast.Global{
				ASTBase: ast.NewASTBaseOver(startSpan, p.lookbehind.Span),
				Names:   names,
			}
		}
	case TOK_RESERVED:
		p.error(p.tok.Span, "`%s` is not supported", p.tok.Value)
	}

	return p.parseExprAssignStmt()
}

// expr_assign_stmt := expr_list {'=' expr_list}
// | expr_list 'AUGASSIGN' expr_list
// | expr ':' expr ['=' expr_list] ;
func (p *Parser) parseExprAssignStmt() ast.Stmt {
	first := p.parseExprList()

	switch p.tok.Kind {
	case TOK_ASSIGN:
		exprs := []ast.Expr{first}
		for p.has(TOK_ASSIGN) {
			p.next()
			exprs = append(exprs, p.parseExprList())
		}

		targets := exprs[:len(exprs)-1]
		for _, target := range targets {
			p.checkAssignable(target, true)
		}

		value := exprs[len(exprs)-1]
		return &ast.Assign{
			ASTBase: ast.NewASTBaseOver(first.Span(), value.Span()),
			Targets: targets,
			Value:   value,
		}
	case TOK_AUGASSIGN:
		p.checkAssignable(first, false)

		opTok := p.tok
		p.next()

		value := p.parseExprList()
		return &ast.AugAssign{
			ASTBase: ast.NewASTBaseOver(first.Span(), value.Span()),
			Target:  first,
			Op: &ast.Oper{
				Name: strings.TrimSuffix(opTok.Value, "="),
				Span: opTok.Span,
			},
			Value: value,
		}
	case TOK_COLON:
		p.checkAssignable(first, false)
		p.next()

		assign := &ast.Assign{
			Targets:    []ast.Expr{first},
			Annotation: p.parseExpr(),
		}

		if p.has(TOK_ASSIGN) {
			p.next()
			assign.Value = p.parseExprList()
		}

		assign.ASTBase = ast.NewASTBaseOver(first.Span(), p.lookbehind.Span)
		return assign
	}

	return &ast.ExprStmt{
		ASTBase: ast.NewASTBaseOn(first.Span()),
		X:       first,
	}
}

// checkAssignable raises an error if the given expression cannot be assigned
// to.  Tuples and lists are only allowed as plain assignment targets.
func (p *Parser) checkAssignable(expr ast.Expr, allowUnpack bool) {
	switch v := expr.(type) {
	case *ast.Name, *ast.Attribute, *ast.Subscript:
		return
	case *ast.TupleLit:
		if allowUnpack {
			for _, elem := range v.Elems {
				p.checkAssignable(elem, true)
			}

			return
		}
	case *ast.ListLit:
		if allowUnpack {
			for _, elem := range v.Elems {
				p.checkAssignable(elem, true)
			}

			return
		}
	}

	p.error(expr.Span(), "cannot assign to expression")
}

// blockEnd returns the span of the last statement of a block.  Blocks are
// never empty.
func blockEnd(stmts []ast.Stmt) *report.TextSpan {
	return stmts[len(stmts)-1].Span()
}

// -----------------------------------------------------------------------------

// if_stmt := 'if' expr block {'elif' expr block} ['else' block] ;
func (p *Parser) parseIfStmt() *ast.If {
	elif := p.has(TOK_ELIF)
	startSpan := p.tok.Span
	p.next()

	cond := p.parseExpr()
	body := p.parseBlock()

	var elseBody []ast.Stmt
	if p.has(TOK_ELIF) {
		elseBody = []ast.Stmt{p.parseIfStmt()}
	} else if p.has(TOK_ELSE) {
		p.next()
		elseBody = p.parseBlock()
	}

	endSpan := blockEnd(body)
	if elseBody != nil {
		endSpan = blockEnd(elseBody)
	}

	return &ast.If{
		ASTBase: ast.NewASTBaseOver(startSpan, endSpan),
		Cond:    cond,
		Body:    body,
		Else:    elseBody,
		Elif:    elif,
	}
}

// while_stmt := 'while' expr block ['else' block] ;
func (p *Parser) parseWhileStmt() *ast.While {
	startSpan := p.want(TOK_WHILE).Span

	cond := p.parseExpr()
	body := p.parseBlock()

	var elseBody []ast.Stmt
	if p.has(TOK_ELSE) {
		p.next()
		elseBody = p.parseBlock()
	}

	endSpan := blockEnd(body)
	if elseBody != nil {
		endSpan = blockEnd(elseBody)
	}

	return &ast.While{
		ASTBase: ast.NewASTBaseOver(startSpan, endSpan),
		Cond:    cond,
		Body:    body,
		Else:    elseBody,
	}
}

// for_stmt := 'for' target_list 'in' expr_list block ['else' block] ;
// target_list := atom_expr {',' atom_expr} ;
func (p *Parser) parseForStmt() *ast.For {
	startSpan := p.want(TOK_FOR).Span

	targets := []ast.Expr{p.parseAtomExpr()}
	for p.has(TOK_COMMA) {
		p.next()
		targets = append(targets, p.parseAtomExpr())
	}

	var target ast.Expr
	if len(targets) == 1 {
		target = targets[0]
	} else {
		target = &ast.TupleLit{
			ASTBase: ast.NewASTBaseOver(targets[0].Span(), targets[len(targets)-1].Span()),
			Elems:   targets,
		}
	}

	p.checkAssignable(target, true)
	p.want(TOK_IN)

	iter := p.parseExprList()
	body := p.parseBlock()

	var elseBody []ast.Stmt
	if p.has(TOK_ELSE) {
		p.next()
		elseBody = p.parseBlock()
	}

	endSpan := blockEnd(body)
	if elseBody != nil {
		endSpan = blockEnd(elseBody)
	}

	return &ast.For{
		ASTBase: ast.NewASTBaseOver(startSpan, endSpan),
		Target:  target,
		Iter:    iter,
		Body:    body,
		Else:    elseBody,
	}
}
