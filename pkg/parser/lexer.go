package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/setsuna-lang/setsuna/pkg/types"
)

const eof = -1

// Lexer converts Setsuna source text into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
//
// Newlines are significant in Setsuna and are emitted as TokenNewline;
// the parser decides where they act as expression separators.
type Lexer struct {
	input    string // Input string being scanned
	filename string // Filename reported in token locations
	length   int    // Length of input string
	start    int    // Start position of current token
	current  int    // Current position in input
	width    int    // Width of last rune read
	line     int    // Current line, 1-based
	col      int    // Current column, 1-based
	prevLine int    // Line before the last rune was read
	prevCol  int    // Column before the last rune was read
	tokLine  int    // Line of the token being scanned
	tokCol   int    // Column of the token being scanned
	err      error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The filename is only used for token locations and may be empty.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input, filename string) *Lexer {
	return &Lexer{
		input:    input,
		filename: filename,
		length:   len(input),
		line:     1,
		col:      1,
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all
// subsequent calls.
func (l *Lexer) Next() Token {
	l.skipBlank()

	l.tokLine = l.line
	l.tokCol = l.col

	ch := l.nextRune()
	if ch == eof {
		return l.eofToken()
	}

	if ch == '\n' {
		return l.newToken(TokenNewline)
	}

	// The ellipsis is the only three-character symbol. A lone ".." is
	// not part of the language.
	if ch == '.' {
		if l.acceptRune('.') {
			if l.acceptRune('.') {
				return l.newToken(TokenEllipsis)
			}
			return l.error(types.ErrUnexpectedChar, "Unexpected character '..'")
		}
		return l.newToken(TokenDot)
	}

	// Check for two-character symbols first (e.g., ==, =>, %{)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	// Check for single-character symbols
	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	// String literals
	if ch == '"' {
		l.ignore()
		return l.scanString()
	}

	// Number literals
	if isDigit(ch) {
		l.backup()
		return l.scanNumber()
	}

	// Format strings: an 'f' immediately followed by a double quote
	if ch == 'f' && l.current < l.length && l.input[l.current] == '"' {
		l.nextRune()
		l.ignore()
		return l.scanFString()
	}

	// Identifiers and keywords
	if isIdentStart(ch) {
		l.backup()
		return l.scanIdent()
	}

	return l.error(types.ErrUnexpectedChar, fmt.Sprintf("Unexpected character %q", ch))
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// Balanced reports whether every bracket opened in src is closed.
// Brackets inside string literals and comments do not count. The REPL
// uses this to decide whether to prompt for a continuation line.
func Balanced(src string) bool {
	l := NewLexer(src, "")
	depth := 0
	for {
		t := l.Next()
		switch t.Type {
		case TokenEOF, TokenError:
			return depth <= 0
		case TokenParenOpen, TokenBraceOpen, TokenBracketOpen, TokenMapOpen:
			depth++
		case TokenParenClose, TokenBraceClose, TokenBracketClose:
			depth--
		}
	}
}

// scanString reads a string literal from the current position.
// The opening quote has already been consumed. Escape sequences are
// decoded here, so the token value is the final string content.
func (l *Lexer) scanString() Token {
	var sb strings.Builder
	for {
		ch := l.nextRune()
		switch ch {
		case '"':
			t := l.newToken(TokenString)
			t.Value = sb.String()
			return t
		case '\\':
			esc := l.nextRune()
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case '\\':
				sb.WriteRune('\\')
			case '"':
				sb.WriteRune('"')
			case eof:
				return l.error(types.ErrStringNotClosed, "Unterminated string literal")
			default:
				// Unknown escapes keep the character as-is
				sb.WriteRune(esc)
			}
		case '\n', eof:
			return l.error(types.ErrStringNotClosed, "Unterminated string literal")
		default:
			sb.WriteRune(ch)
		}
	}
}

// scanFString reads a format string literal from the current position.
// The opening quote has already been consumed. The token value is the
// raw inner text; the parser splits it into literal and hole parts.
func (l *Lexer) scanFString() Token {
	for {
		switch l.nextRune() {
		case '"':
			l.backup()
			t := l.newToken(TokenFString)
			l.nextRune()
			l.ignore()
			return t
		case '\\':
			if r := l.nextRune(); r == eof {
				return l.error(types.ErrFStringNotClosed, "Unterminated format string")
			}
		case '\n', eof:
			return l.error(types.ErrFStringNotClosed, "Unterminated format string")
		}
	}
}

// scanNumber reads a number literal from the current position.
// A dot only makes the number a float when followed by a digit, so
// "1.abs()" lexes as an integer, a dot, and a call.
func (l *Lexer) scanNumber() Token {
	l.acceptAll(isDigit)

	if l.current+1 < l.length && l.input[l.current] == '.' && isDigit(rune(l.input[l.current+1])) {
		l.nextRune()
		l.acceptAll(isDigit)
		return l.newToken(TokenFloat)
	}

	t := l.newToken(TokenInt)
	if _, err := strconv.ParseInt(t.Value, 10, 64); err != nil {
		l.tokLine, l.tokCol = t.Loc.Line, t.Loc.Column
		return l.error(types.ErrNumberOutOfRange, fmt.Sprintf("Integer literal out of range: %s", t.Value))
	}
	return t
}

// scanIdent reads an identifier or keyword from the current position.
func (l *Lexer) scanIdent() Token {
	l.acceptAll(isIdentPart)

	t := l.newToken(TokenIdent)
	if tt := lookupKeyword(t.Value); tt > 0 {
		t.Type = tt
	}
	return t
}

// Helper methods

func (l *Lexer) eofToken() Token {
	return Token{
		Type: TokenEOF,
		Loc:  l.loc(),
	}
}

func (l *Lexer) error(code types.ErrorCode, message string) Token {
	t := l.newToken(TokenError)
	l.err = &types.Error{
		Code:     code,
		Message:  message,
		Location: t.Loc,
		Token:    t.Value,
	}
	return t
}

func (l *Lexer) loc() types.SourceLocation {
	return types.SourceLocation{
		Filename: l.filename,
		Line:     l.tokLine,
		Column:   l.tokCol,
	}
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:  tt,
		Value: l.input[l.start:l.current],
		Loc:   l.loc(),
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	l.prevLine, l.prevCol = l.line, l.col
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
	if l.width > 0 {
		l.line, l.col = l.prevLine, l.prevCol
	}
	l.width = 0
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// skipBlank skips spaces, tabs, carriage returns and line comments.
// Newlines are significant and are left for Next to tokenize.
func (l *Lexer) skipBlank() {
	for {
		l.acceptAll(isBlank)
		if l.current+1 < l.length && l.input[l.current] == '/' && l.input[l.current+1] == '/' {
			for {
				ch := l.nextRune()
				if ch == eof {
					break
				}
				if ch == '\n' {
					l.backup()
					break
				}
			}
			continue
		}
		break
	}
	l.ignore()
}

// Character classification functions

func isBlank(r rune) bool {
	switch r {
	case ' ', '\t', '\r', '\v':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
