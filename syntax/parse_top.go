package syntax

import (
	"strings"

	"pyrs/ast"
)

// file := {import_stmt | from_stmt | stmt} 'EOF' ;
func (p *Parser) parseFile() []ast.ASTNode {
	var decls []ast.ASTNode

	for !p.has(TOK_EOF) {
		switch p.tok.Kind {
		case TOK_IMPORT:
			for _, imp := range p.parseImportStmt() {
				decls = append(decls, imp)
			}
		case TOK_FROM:
			decls = append(decls, p.parseFromStmt())
		default:
			for _, stmt := range p.parseStmt() {
				decls = append(decls, stmt)
			}
		}
	}

	return decls
}

// import_stmt := 'import' import_elem {',' import_elem} 'NEWLINE' ;
// import_elem := dotted_name ['as' 'IDENT'] ;
func (p *Parser) parseImportStmt() []*ast.ImportDirective {
	p.want(TOK_IMPORT)

	var imports []*ast.ImportDirective
	for {
		startSpan := p.tok.Span
		module := p.parseDottedName()

		var alias string
		if p.has(TOK_AS) {
			p.next()
			alias = p.want(TOK_IDENT).Value
		}

		imports = append(imports, &ast.ImportDirective{
			ASTBase: ast.NewASTBaseOver(startSpan, p.lookbehind.Span),
			Module:  module,
			Alias:   alias,
		})

		if p.has(TOK_COMMA) {
			p.next()
			continue
		}

		break
	}

	p.want(TOK_NEWLINE)
	return imports
}

// from_stmt := 'from' dotted_name 'import' ('*' | from_names | '(' from_names ')') 'NEWLINE' ;
// from_names := 'IDENT' ['as' 'IDENT'] {',' 'IDENT' ['as' 'IDENT']} ;
func (p *Parser) parseFromStmt() *ast.ImportDirective {
	startSpan := p.want(TOK_FROM).Span

	if p.has(TOK_DOT) {
		p.error(p.tok.Span, "relative imports are not supported")
	}

	module := p.parseDottedName()
	p.want(TOK_IMPORT)

	var names []string
	if p.has(TOK_STAR) {
		p.next()
		names = append(names, "*")
	} else {
		parens := p.has(TOK_LPAREN)
		if parens {
			p.next()
		}

		for {
			names = append(names, p.want(TOK_IDENT).Value)

			if p.has(TOK_AS) {
				p.next()
				p.want(TOK_IDENT)
			}

			if p.has(TOK_COMMA) {
				p.next()

				if parens && p.has(TOK_RPAREN) {
					break
				}

				continue
			}

			break
		}

		if parens {
			p.want(TOK_RPAREN)
		}
	}

	imp := &ast.ImportDirective{
		ASTBase: ast.NewASTBaseOver(startSpan, p.lookbehind.Span),
		Module:  module,
		Names:   names,
	}

	p.want(TOK_NEWLINE)
	return imp
}

// dotted_name := 'IDENT' {'.' 'IDENT'} ;
func (p *Parser) parseDottedName() string {
	parts := []string{p.want(TOK_IDENT).Value}

	for p.has(TOK_DOT) {
		p.next()
		parts = append(parts, p.want(TOK_IDENT).Value)
	}

	return strings.Join(parts, ".")
}

// -----------------------------------------------------------------------------

// func_def := {decorator} 'def' 'IDENT' '(' [params] ')' ['->' expr] block ;
// params := param {',' param} [','] ;
// param := 'IDENT' [':' expr] ['=' expr] ;
func (p *Parser) parseFuncDef() *ast.FuncDef {
	decorators := p.parseDecorators()

	startSpan := p.tok.Span
	if len(decorators) > 0 {
		startSpan = decorators[0].Span()
	}

	p.want(TOK_DEF)
	name := p.want(TOK_IDENT).Value

	p.want(TOK_LPAREN)

	var params []*ast.Param
	for !p.has(TOK_RPAREN) {
		if p.hasOneOf(TOK_STAR, TOK_POW) {
			p.error(p.tok.Span, "variadic parameters are not supported")
		}

		nameTok := p.want(TOK_IDENT)
		for _, param := range params {
			if param.Name == nameTok.Value {
				p.error(nameTok.Span, "duplicate parameter `%s`", nameTok.Value)
			}
		}

		var annot, dflt ast.Expr
		if p.has(TOK_COLON) {
			p.next()
			annot = p.parseExpr()
		}

		if p.has(TOK_ASSIGN) {
			p.next()
			dflt = p.parseExpr()
		}

		params = append(params, &ast.Param{
			ASTBase:    ast.NewASTBaseOver(nameTok.Span, p.lookbehind.Span),
			Name:       nameTok.Value,
			Annotation: annot,
			Default:    dflt,
		})

		if p.has(TOK_COMMA) {
			p.next()
			continue
		}

		break
	}

	p.want(TOK_RPAREN)

	var returns ast.Expr
	if p.has(TOK_ARROW) {
		p.next()
		returns = p.parseExpr()
	}

	body := p.parseBlock()

	return &ast.FuncDef{
		ASTBase:    ast.NewASTBaseOver(startSpan, blockEnd(body)),
		Name:       name,
		Params:     params,
		Returns:    returns,
		Body:       body,
		Decorators: decorators,
	}
}

// decorator := '@' dotted_name ['(' [call_args] ')'] 'NEWLINE' ;
func (p *Parser) parseDecorators() []*ast.Decorator {
	var decorators []*ast.Decorator

	for p.has(TOK_ATSIGN) {
		startSpan := p.tok.Span
		p.next()

		dec := &ast.Decorator{Name: p.parseDottedName()}
		if p.has(TOK_LPAREN) {
			p.next()
			dec.Args, dec.Keywords = p.parseCallArgs()

			// Distinguish `@d()` from `@d`.
			if dec.Args == nil {
				dec.Args = []ast.Expr{}
			}
		}

		dec.ASTBase = ast.NewASTBaseOver(startSpan, p.lookbehind.Span)
		decorators = append(decorators, dec)

		p.want(TOK_NEWLINE)
	}

	return decorators
}
