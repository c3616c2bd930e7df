package syntax

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"pyrs/report"
)

// Lexer is responsible for tokenizing a source file.  Indentation is
// significant: the lexer emits NEWLINE tokens at the end of each logical line
// and INDENT and DEDENT tokens whenever the indentation level changes.  Line
// breaks inside brackets do not end a logical line.
type Lexer struct {
	file    *bufio.Reader
	tokBuff *strings.Builder

	line, col           int
	startLine, startCol int

	// The stack of enclosing indentation levels.  The bottom level is always
	// zero.
	indents []int

	// Tokens that have been lexed but not yet returned: eg. when a line
	// closes several blocks at once.
	pending []*Token

	// The current nesting depth of `(`, `[`, and `{`.
	parenDepth int

	// Whether the lexer is positioned at the start of a logical line.
	atLineStart bool

	// The kind of the last token returned or -1 if no token has been returned.
	lastKind int

	// Whether the closing tokens of the file have been queued.
	finished bool
}

// NewLexer creates a new lexer for the given source file.
func NewLexer(file *bufio.Reader) *Lexer {
	return &Lexer{
		file:        file,
		tokBuff:     &strings.Builder{},
		indents:     []int{0},
		atLineStart: true,
		lastKind:    -1,
	}
}

// NextToken retrieves the next token from the input file. If the file has
// ended, this will be an EOF token.
func (l *Lexer) NextToken() (*Token, error) {
	tok, err := l.nextToken()
	if err != nil {
		return nil, err
	}

	l.lastKind = tok.Kind
	return tok, nil
}

func (l *Lexer) nextToken() (*Token, error) {
	if len(l.pending) > 0 {
		return l.popPending(), nil
	}

	if l.atLineStart && l.parenDepth == 0 {
		if err := l.lexIndentation(); err != nil {
			return nil, err
		}

		if len(l.pending) > 0 {
			return l.popPending(), nil
		}
	}

	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		} else if c == -1 {
			return l.finish(), nil
		}

		switch c {
		case ' ', '\t', '\r', '\v', '\f':
			l.skip()
		case '#':
			if err := l.skipComment(); err != nil {
				return nil, err
			}
		case '\\':
			if err := l.skipLineContinuation(); err != nil {
				return nil, err
			}
		case '\n':
			l.mark()
			l.skip()

			if l.parenDepth > 0 {
				continue
			}

			l.atLineStart = true
			return l.makeToken(TOK_NEWLINE), nil
		case '"', '\'':
			return l.lexStringLit(c)
		default:
			if isDecimalDigit(c) {
				return l.lexNumericLit()
			} else if isFirstIdentChar(c) {
				return l.lexIdentOrKeyword()
			} else {
				return l.lexPunctOrOper()
			}
		}
	}
}

// -----------------------------------------------------------------------------

// lexIndentation measures the indentation of the next non-blank line and
// queues any INDENT or DEDENT tokens it produces.  Blank and comment-only
// lines are skipped entirely.
func (l *Lexer) lexIndentation() error {
	for {
		c, err := l.peek()
		if err != nil {
			return err
		}

		if c == ' ' || c == '\t' || c == '\f' || c == '\r' || c == '\n' {
			l.skip()
		} else if c == '#' {
			if err := l.skipComment(); err != nil {
				return err
			}
		} else if c == -1 {
			return nil
		} else {
			break
		}
	}

	l.atLineStart = false
	l.mark()

	indent := l.col
	top := l.indents[len(l.indents)-1]

	if indent > top {
		l.indents = append(l.indents, indent)
		l.pending = append(l.pending, l.makeToken(TOK_INDENT))
		return nil
	}

	for indent < top {
		l.indents = l.indents[:len(l.indents)-1]
		l.pending = append(l.pending, l.makeToken(TOK_DEDENT))
		top = l.indents[len(l.indents)-1]
	}

	if indent != top {
		return report.Raise(l.getSpan(), "unindent does not match any outer indentation level")
	}

	return nil
}

// finish queues the tokens closing the file: a final NEWLINE if the last line
// was not terminated and a DEDENT for every open block.  Once the queue is
// drained, it returns EOF tokens.
func (l *Lexer) finish() *Token {
	if !l.finished {
		l.finished = true
		l.mark()

		if l.lastKind != -1 && l.lastKind != TOK_NEWLINE && l.lastKind != TOK_DEDENT {
			l.pending = append(l.pending, l.makeToken(TOK_NEWLINE))
		}

		for len(l.indents) > 1 {
			l.indents = l.indents[:len(l.indents)-1]
			l.pending = append(l.pending, l.makeToken(TOK_DEDENT))
		}
	}

	if len(l.pending) > 0 {
		return l.popPending()
	}

	l.mark()
	return l.makeToken(TOK_EOF)
}

// popPending removes and returns the first pending token.
func (l *Lexer) popPending() *Token {
	tok := l.pending[0]
	l.pending = l.pending[1:]
	return tok
}

// skipComment skips a `#` comment up to but not including the newline.
func (l *Lexer) skipComment() error {
	for {
		c, err := l.peek()
		if err != nil {
			return err
		} else if c == '\n' || c == -1 {
			return nil
		}

		l.skip()
	}
}

// skipLineContinuation skips a `\` that joins two physical lines.
func (l *Lexer) skipLineContinuation() error {
	l.mark()
	l.skip()

	c, err := l.skip()
	if err != nil {
		return err
	}

	if c == '\r' {
		if c, err = l.skip(); err != nil {
			return err
		}
	}

	if c != '\n' {
		return report.Raise(l.getSpan(), "unexpected character after line continuation character")
	}

	return nil
}

// -----------------------------------------------------------------------------

// symbolPatterns maps symbol strings (patterns) to their punctuation/operator
// token kind.  Every prefix of a pattern must itself be a pattern.
var symbolPatterns = map[string]int{
	"+":  TOK_PLUS,
	"-":  TOK_MINUS,
	"*":  TOK_STAR,
	"/":  TOK_DIV,
	"//": TOK_FLOORDIV,
	"%":  TOK_MOD,
	"**": TOK_POW,

	"&":  TOK_BWAND,
	"|":  TOK_BWOR,
	"^":  TOK_BWXOR,
	"~":  TOK_COMPL,
	"<<": TOK_LSHIFT,
	">>": TOK_RSHIFT,

	"==": TOK_EQ,
	"!=": TOK_NEQ,
	"<":  TOK_LT,
	"<=": TOK_LTEQ,
	">":  TOK_GT,
	">=": TOK_GTEQ,
	"!":  TOK_BANG,

	"=":   TOK_ASSIGN,
	"+=":  TOK_AUGASSIGN,
	"-=":  TOK_AUGASSIGN,
	"*=":  TOK_AUGASSIGN,
	"/=":  TOK_AUGASSIGN,
	"//=": TOK_AUGASSIGN,
	"%=":  TOK_AUGASSIGN,
	"**=": TOK_AUGASSIGN,
	"&=":  TOK_AUGASSIGN,
	"|=":  TOK_AUGASSIGN,
	"^=":  TOK_AUGASSIGN,
	"<<=": TOK_AUGASSIGN,
	">>=": TOK_AUGASSIGN,

	"(":  TOK_LPAREN,
	")":  TOK_RPAREN,
	"[":  TOK_LBRACKET,
	"]":  TOK_RBRACKET,
	"{":  TOK_LBRACE,
	"}":  TOK_RBRACE,
	",":  TOK_COMMA,
	".":  TOK_DOT,
	":":  TOK_COLON,
	";":  TOK_SEMI,
	"@":  TOK_ATSIGN,
	"->": TOK_ARROW,
}

// lexPunctOrOper lexes a punctuation or operator symbol.
func (l *Lexer) lexPunctOrOper() (*Token, error) {
	l.mark()
	l.eat()

	kind, ok := symbolPatterns[l.tokBuff.String()]
	if !ok {
		return nil, report.Raise(l.getSpan(), "unknown rune")
	}

	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		}

		if c == -1 {
			break
		}

		if _kind, ok := symbolPatterns[l.tokBuff.String()+string(c)]; ok {
			l.eat()
			kind = _kind
		} else {
			break
		}
	}

	switch kind {
	case TOK_LPAREN, TOK_LBRACKET, TOK_LBRACE:
		l.parenDepth++
	case TOK_RPAREN, TOK_RBRACKET, TOK_RBRACE:
		if l.parenDepth > 0 {
			l.parenDepth--
		}
	}

	return l.makeToken(kind), nil
}

// -----------------------------------------------------------------------------

// keywordPatterns maps keyword strings (patterns) to their keyword token kind.
var keywordPatterns = map[string]int{
	"def":    TOK_DEF,
	"return": TOK_RETURN,
	"pass":   TOK_PASS,
	"global": TOK_GLOBAL,

	"if":       TOK_IF,
	"elif":     TOK_ELIF,
	"else":     TOK_ELSE,
	"while":    TOK_WHILE,
	"for":      TOK_FOR,
	"in":       TOK_IN,
	"break":    TOK_BREAK,
	"continue": TOK_CONTINUE,

	"import": TOK_IMPORT,
	"from":   TOK_FROM,
	"as":     TOK_AS,

	"and": TOK_AND,
	"or":  TOK_OR,
	"not": TOK_NOT,
	"is":  TOK_IS,

	"True":  TOK_TRUE,
	"False": TOK_FALSE,
	"None":  TOK_NONE,

	"class":    TOK_RESERVED,
	"lambda":   TOK_RESERVED,
	"try":      TOK_RESERVED,
	"except":   TOK_RESERVED,
	"finally":  TOK_RESERVED,
	"raise":    TOK_RESERVED,
	"with":     TOK_RESERVED,
	"yield":    TOK_RESERVED,
	"async":    TOK_RESERVED,
	"await":    TOK_RESERVED,
	"del":      TOK_RESERVED,
	"assert":   TOK_RESERVED,
	"nonlocal": TOK_RESERVED,
}

// lexIdentOrKeyword lexes an identifier or a keyword.
func (l *Lexer) lexIdentOrKeyword() (*Token, error) {
	l.mark()
	l.eat()

	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		} else if !isFirstIdentChar(c) && !isDecimalDigit(c) {
			break
		}

		l.eat()
	}

	var kind int
	if _kind, ok := keywordPatterns[l.tokBuff.String()]; ok {
		kind = _kind
	} else {
		kind = TOK_IDENT
	}

	return l.makeToken(kind), nil
}

// -----------------------------------------------------------------------------

// lexNumericLit lexes an integer or floating-point literal.  Underscores are
// removed from the token's value.
func (l *Lexer) lexNumericLit() (*Token, error) {
	l.mark()
	c, _ := l.eat()

	if c == '0' {
		next, err := l.peek()
		if err != nil {
			return nil, err
		}

		switch next {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			l.eat()
			return l.lexBasedIntLit(unicode.ToLower(next))
		}
	}

	kind := TOK_INTLIT
	if _, err := l.eatDigits(isDecimalDigit); err != nil {
		return nil, err
	}

	c, err := l.peek()
	if err != nil {
		return nil, err
	}

	if c == '.' {
		l.eat()
		kind = TOK_FLOATLIT

		if _, err := l.eatDigits(isDecimalDigit); err != nil {
			return nil, err
		}

		if c, err = l.peek(); err != nil {
			return nil, err
		}
	}

	if c == 'e' || c == 'E' {
		l.eat()
		kind = TOK_FLOATLIT

		if c, err = l.peek(); err != nil {
			return nil, err
		} else if c == '+' || c == '-' {
			l.eat()
		}

		if n, err := l.eatDigits(isDecimalDigit); err != nil {
			return nil, err
		} else if n == 0 {
			return nil, report.Raise(l.getSpan(), "incomplete numeric literal")
		}
	}

	return l.finishNumericLit(kind)
}

// lexBasedIntLit lexes the digits of a hexadecimal, octal, or binary integer
// literal.  The base prefix has already been consumed.
func (l *Lexer) lexBasedIntLit(prefix rune) (*Token, error) {
	var isDigit func(rune) bool
	switch prefix {
	case 'x':
		isDigit = isHexDigit
	case 'o':
		isDigit = func(c rune) bool { return '0' <= c && c <= '7' }
	default:
		isDigit = func(c rune) bool { return c == '0' || c == '1' }
	}

	if n, err := l.eatDigits(isDigit); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, report.Raise(l.getSpan(), "incomplete numeric literal")
	}

	return l.finishNumericLit(TOK_INTLIT)
}

// finishNumericLit checks that a numeric literal is not directly followed by
// an identifier character and builds its token.
func (l *Lexer) finishNumericLit(kind int) (*Token, error) {
	c, err := l.peek()
	if err != nil {
		return nil, err
	}

	if isFirstIdentChar(c) || isDecimalDigit(c) {
		l.eat()
		return nil, report.Raise(l.getSpan(), "invalid numeric literal")
	}

	tok := l.makeToken(kind)
	tok.Value = strings.ToLower(strings.ReplaceAll(tok.Value, "_", ""))
	return tok, nil
}

// eatDigits consumes a run of digits and underscores.  It returns the number
// of digits consumed.
func (l *Lexer) eatDigits(isDigit func(rune) bool) (int, error) {
	n := 0
	for {
		c, err := l.peek()
		if err != nil {
			return 0, err
		}

		if isDigit(c) {
			n++
		} else if c != '_' {
			return n, nil
		}

		l.eat()
	}
}

// -----------------------------------------------------------------------------

// lexStringLit lexes a single or triple quoted string literal.  Common escape
// sequences are decoded; unknown escapes are kept verbatim.
func (l *Lexer) lexStringLit(quote rune) (*Token, error) {
	l.mark()
	l.skip()

	c, err := l.peek()
	if err != nil {
		return nil, err
	}

	triple := false
	if c == quote {
		l.skip()

		if c, err = l.peek(); err != nil {
			return nil, err
		} else if c != quote {
			// Empty string.
			return l.makeToken(TOK_STRINGLIT), nil
		}

		l.skip()
		triple = true
	}

	// The number of consecutive closing quotes seen in a triple quoted string.
	closing := 0

	for {
		c, err := l.skip()
		if err != nil {
			return nil, err
		}

		switch c {
		case -1:
			return nil, report.Raise(l.getSpan(), "unclosed string literal")
		case quote:
			if !triple {
				return l.makeToken(TOK_STRINGLIT), nil
			}

			closing++
			if closing == 3 {
				tok := l.makeToken(TOK_STRINGLIT)
				tok.Value = tok.Value[:len(tok.Value)-2]
				return tok, nil
			}

			l.tokBuff.WriteRune(c)
			continue
		case '\\':
			if err := l.eatEscapeSequence(); err != nil {
				return nil, err
			}
		case '\n':
			if !triple {
				return nil, report.Raise(l.getSpan(), "standard string cannot contain a newline")
			}

			l.tokBuff.WriteRune(c)
		default:
			l.tokBuff.WriteRune(c)
		}

		closing = 0
	}
}

// escapeSequences maps the decoded escape sequences to their values.
var escapeSequences = map[rune]rune{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'0':  0,
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
}

// eatEscapeSequence decodes an escape sequence into the token buffer.  This
// assumes the leading `\` has already been consumed.
func (l *Lexer) eatEscapeSequence() error {
	c, err := l.skip()
	if err != nil {
		return err
	}

	switch c {
	case -1:
		return report.Raise(l.getSpan(), "expected escape sequence not end of file")
	case '\n':
		// Escaped newlines are elided.
	default:
		if value, ok := escapeSequences[c]; ok {
			l.tokBuff.WriteRune(value)
		} else {
			l.tokBuff.WriteRune('\\')
			l.tokBuff.WriteRune(c)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// mark sets the lexer's stored start line and column to its current position.
func (l *Lexer) mark() {
	l.startLine = l.line
	l.startCol = l.col
}

// makeToken produces a new token of the given kind from the lexer's state and
// resets the lexer to begin building the next token.
func (l *Lexer) makeToken(kind int) *Token {
	value := l.tokBuff.String()
	l.tokBuff.Reset()

	return &Token{
		Kind:  kind,
		Value: value,
		Span:  l.getSpan(),
	}
}

// getSpan calculates a text span based on the lexer's current state.
func (l *Lexer) getSpan() *report.TextSpan {
	return &report.TextSpan{
		StartLine: l.startLine,
		StartCol:  l.startCol,
		EndLine:   l.line,
		EndCol:    l.col,
	}
}

// -----------------------------------------------------------------------------

// eat moves the lexer forward one rune and writes the rune to the token buffer.
// If the lexer encounters an EOF, -1 is returned as the rune value.
func (l *Lexer) eat() (rune, error) {
	c, _, err := l.file.ReadRune()
	if err != nil {
		if err == io.EOF {
			return -1, nil
		}

		return 0, err
	}

	l.updatePos(c)
	l.tokBuff.WriteRune(c)

	return c, nil
}

// skip moves the lexer forward one rune but does not write the rune to the
// token buffer.  If the lexer encounters an EOF, -1 is returned as the rune
// value.
func (l *Lexer) skip() (rune, error) {
	c, _, err := l.file.ReadRune()
	if err != nil {
		if err == io.EOF {
			return -1, nil
		}

		return 0, err
	}

	l.updatePos(c)

	return c, nil
}

// peek returns the next rune in the file without moving the lexer forward or
// writing the rune to the token buffer.  If the lexer encounters an EOF, -1 is
// returned as rune value.
func (l *Lexer) peek() (rune, error) {
	c, _, err := l.file.ReadRune()
	if err != nil {
		if err == io.EOF {
			return -1, nil
		}

		return 0, err
	}

	if err = l.file.UnreadRune(); err != nil {
		return 0, err
	}

	return c, nil
}

// updatePos updates the lexer's position based on input character.
func (l *Lexer) updatePos(c rune) {
	switch c {
	case '\n':
		l.line++
		l.col = 0
	case '\t':
		l.col += 4
	default:
		l.col++
	}
}

// -----------------------------------------------------------------------------

// isDecimalDigit returns whether c is a decimal digit.
func isDecimalDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

// isHexDigit returns whether  c is a hexadecimal digit.
func isHexDigit(c rune) bool {
	return isDecimalDigit(c) || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// isFirstIdentChar returns whether c could be the first rune of an identifier.
func isFirstIdentChar(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}
