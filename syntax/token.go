package syntax

import "pyrs/report"

// Token represents a single lexical token.
type Token struct {
	// The kind of the token.  This must be one of the enumerated token kinds.
	Kind int

	// The string value of the token.
	Value string

	// The text span over which the token exists.  This may not directly
	// correspond to its value: eg. the value of a string token has the leading
	// quotes trimmed off for convenience.
	Span *report.TextSpan
}

// Enumeration of token kinds.
const (
	TOK_DEF = iota
	TOK_RETURN
	TOK_PASS
	TOK_GLOBAL

	TOK_IF
	TOK_ELIF
	TOK_ELSE
	TOK_WHILE
	TOK_FOR
	TOK_IN
	TOK_BREAK
	TOK_CONTINUE

	TOK_IMPORT
	TOK_FROM
	TOK_AS

	TOK_AND
	TOK_OR
	TOK_NOT
	TOK_IS

	TOK_TRUE
	TOK_FALSE
	TOK_NONE

	// Keywords of the source language that have no place in the subset.
	TOK_RESERVED

	TOK_PLUS
	TOK_MINUS
	TOK_STAR
	TOK_DIV
	TOK_FLOORDIV
	TOK_MOD
	TOK_POW

	TOK_BWAND
	TOK_BWOR
	TOK_BWXOR
	TOK_COMPL
	TOK_LSHIFT
	TOK_RSHIFT

	TOK_EQ
	TOK_NEQ
	TOK_LT
	TOK_GT
	TOK_LTEQ
	TOK_GTEQ

	TOK_ASSIGN
	TOK_AUGASSIGN
	TOK_BANG

	TOK_LPAREN
	TOK_RPAREN
	TOK_LBRACKET
	TOK_RBRACKET
	TOK_LBRACE
	TOK_RBRACE
	TOK_COMMA
	TOK_DOT
	TOK_COLON
	TOK_SEMI
	TOK_ATSIGN
	TOK_ARROW

	TOK_IDENT
	TOK_INTLIT
	TOK_FLOATLIT
	TOK_STRINGLIT

	TOK_NEWLINE
	TOK_INDENT
	TOK_DEDENT
	TOK_EOF
)

// tokenNames gives readable names to the tokens whose value is not their
// spelling.
var tokenNames = map[int]string{
	TOK_NEWLINE: "newline",
	TOK_INDENT:  "indent",
	TOK_DEDENT:  "dedent",
	TOK_EOF:     "end of file",
}

// describe returns a description of the token suitable for error messages.
func (t *Token) describe() string {
	if name, ok := tokenNames[t.Kind]; ok {
		return name
	}

	return "`" + t.Value + "`"
}
