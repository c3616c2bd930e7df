package syntax

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"pyrs/ast"
	"pyrs/report"
)

// NOTE: All parsing functions (that are not utility/API functions) are
// commented with the EBNF notation of the grammar they parse.

// Parser is responsible for parsing a single source file into an AST.  It is a
// recursive descent parser: all parsing functions assume that they begin with
// the parser centered on the first token of their production and must consume
// all tokens (including the last) of their production, leaving the parser on
// the next token.  Errors are raised as panics and caught by `Parse`.
type Parser struct {
	// The lexer this parser is using to lex the source file.
	lexer *Lexer

	// The current token the parser is positioned on.
	tok *Token

	// The token the parser was positioned on before the current token.
	lookbehind *Token
}

// NewParser creates a new parser reading from the given reader.
func NewParser(r *bufio.Reader) *Parser {
	return &Parser{lexer: NewLexer(r)}
}

// Parse parses a source file read from r.  The absolute and displayed paths are
// recorded in the returned source unit.  Syntax errors are returned as
// `*report.LocalCompileError`.
func Parse(absPath, reprPath string, r io.Reader) (unit *ast.SourceUnit, err error) {
	defer report.CatchErrors(&err)

	p := NewParser(bufio.NewReader(r))
	p.next()

	decls := p.parseFile()

	return &ast.SourceUnit{
		AbsPath:  absPath,
		ReprPath: reprPath,
		Decls:    decls,
	}, nil
}

// ParseFile opens and parses the source file at the given path.  The path is
// used as the displayed path of the unit.
func ParseFile(path string) (*ast.SourceUnit, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(absPath, path, f)
}

// -----------------------------------------------------------------------------

// next moves the parser forward one token.
func (p *Parser) next() {
	tok, err := p.lexer.NextToken()
	if err != nil {
		panic(err)
	}

	p.lookbehind = p.tok
	p.tok = tok
}

// has returns whether the parser is on a token of the given kind.
func (p *Parser) has(kind int) bool {
	return p.tok.Kind == kind
}

// hasOneOf returns whether the parser is on a token of one of the given kinds.
func (p *Parser) hasOneOf(kinds ...int) bool {
	for _, kind := range kinds {
		if p.tok.Kind == kind {
			return true
		}
	}

	return false
}

// want asserts that the parser is on a token of the given kind and moves the
// parser forward.  It returns the matched token.  If the token does not match,
// the token is rejected.
func (p *Parser) want(kind int) *Token {
	if !p.has(kind) {
		p.reject()
	}

	p.next()
	return p.lookbehind
}

// -----------------------------------------------------------------------------

// reject raises an unexpected token error on the current token.
func (p *Parser) reject() {
	p.error(p.tok.Span, "unexpected %s", p.tok.describe())
}

// error raises an error on the given span.
func (p *Parser) error(span *report.TextSpan, msg string, args ...interface{}) {
	panic(report.Raise(span, msg, args...))
}
