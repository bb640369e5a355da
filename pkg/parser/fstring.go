package parser

import (
	"strings"

	"github.com/setsuna-lang/setsuna/pkg/types"
)

// parseFString splits a format string token into literal and expression
// parts. The token value is the raw inner text of f"...": escape
// sequences are decoded here, and each {expr} hole is parsed as a
// complete expression.
func (p *Parser) parseFString(tok Token) (types.Expr, error) {
	raw := tok.Value
	node := &types.InterpString{Location: tok.Loc}

	var text strings.Builder
	flushText := func() {
		if text.Len() > 0 {
			node.Parts = append(node.Parts, types.InterpPart{Text: text.String()})
			text.Reset()
		}
	}

	// Column of the first inner character: past the f and the quote.
	baseCol := tok.Loc.Column + 2

	i := 0
	for i < len(raw) {
		switch raw[i] {
		case '\\':
			if i+1 >= len(raw) {
				text.WriteByte('\\')
				i++
				continue
			}
			switch raw[i+1] {
			case 'n':
				text.WriteByte('\n')
			case 't':
				text.WriteByte('\t')
			case 'r':
				text.WriteByte('\r')
			case '\\':
				text.WriteByte('\\')
			case '"':
				text.WriteByte('"')
			case '{':
				text.WriteByte('{')
			case '}':
				text.WriteByte('}')
			default:
				text.WriteByte(raw[i+1])
			}
			i += 2

		case '{':
			end, err := p.findHoleEnd(raw, i, tok)
			if err != nil {
				return nil, err
			}
			inner := raw[i+1 : end]

			holeLoc := types.SourceLocation{
				Filename: tok.Loc.Filename,
				Line:     tok.Loc.Line,
				Column:   baseCol + i + 1,
			}
			expr, err := parseHole(inner, holeLoc, p.opts)
			if err != nil {
				return nil, err
			}

			flushText()
			node.Parts = append(node.Parts, types.InterpPart{Expr: expr})
			i = end + 1

		case '}':
			return nil, &types.Error{
				Code:     types.ErrUnbalancedHole,
				Message:  "Unmatched '}' in format string",
				Location: tok.Loc,
			}

		default:
			text.WriteByte(raw[i])
			i++
		}
	}

	flushText()
	return node, nil
}

// findHoleEnd returns the index of the '}' closing the hole opened at
// start. Braces inside nested string literals do not count.
func (p *Parser) findHoleEnd(raw string, start int, tok Token) (int, error) {
	depth := 0
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		case '"':
			for i++; i < len(raw); i++ {
				if raw[i] == '\\' {
					i++
					continue
				}
				if raw[i] == '"' {
					break
				}
			}
		}
	}
	return 0, &types.Error{
		Code:     types.ErrUnbalancedHole,
		Message:  "Unmatched '{' in format string",
		Location: tok.Loc,
	}
}

// parseHole parses the expression inside a format string hole.
func parseHole(src string, loc types.SourceLocation, opts Options) (types.Expr, error) {
	sub := NewParser(src, WithFilename(loc.Filename), WithMaxDepth(opts.MaxDepth))
	if sub.lexErr != nil {
		return nil, sub.lexErr
	}

	sub.skipSeps()
	expr, err := sub.parseExpr()
	if err != nil {
		return nil, err
	}
	sub.skipSeps()
	if !sub.at(TokenEOF) {
		return nil, &types.Error{
			Code:     types.ErrUnexpectedToken,
			Message:  "Unexpected token after format string expression",
			Location: loc,
		}
	}
	return expr, nil
}
