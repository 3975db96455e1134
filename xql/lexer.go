package xql

import "github.com/Konsultn-Engineering/xqlorm/ast"

// lexer splits XQL source into raw tokens. Words, numbers and strings come
// out as TokenWord and TokenConstant; the categorizer assigns the final
// types.
type lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char, 0 at end of input
	depth   int  // open brackets
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readChar()
	return l
}

// Tokenize scans an XQL source into tokens.
func Tokenize(input string) ([]ast.Token, error) {
	l := newLexer(input)
	var tokens []ast.Token
	for {
		tok, done, err := l.next()
		if err != nil {
			return nil, err
		}
		if done {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

func (l *lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *lexer) next() (ast.Token, bool, error) {
	l.skipWhitespace()
	start := l.pos

	switch {
	case l.ch == 0 && l.pos >= len(l.input):
		if l.depth > 0 {
			return ast.Token{}, false, &ast.Error{
				Err: ast.ErrUnbalancedBracket, Pos: len(l.input), Text: "(",
				Detail: "bracket never closed",
			}
		}
		return ast.Token{}, true, nil
	case isLetter(l.ch):
		return l.readWord(), false, nil
	case isDigit(l.ch), l.ch == '-' && isDigit(l.peekChar()):
		tok, err := l.readNumber()
		return tok, false, err
	case l.ch == '\'':
		tok, err := l.readString()
		return tok, false, err
	}

	tok := ast.Token{Pos: start}
	switch l.ch {
	case '>', '<':
		tok.Type, tok.Text = ast.TokenOperator, string(l.ch)
		if l.peekChar() == '=' {
			l.readChar()
			tok.Text += "="
		}
	case '!':
		tok.Type, tok.Text = ast.TokenOperator, "!"
		if l.peekChar() == '=' {
			l.readChar()
			tok.Text = "!="
		}
	case '=', '&', '|', '%':
		// Only the doubled forms are operators.
		c := l.ch
		if l.peekChar() != c {
			return tok, false, &ast.Error{Err: ast.ErrInvalidToken, Pos: start, Text: string(c)}
		}
		l.readChar()
		tok.Type, tok.Text = ast.TokenOperator, string([]byte{c, c})
	case '.', ',', ':':
		tok.Type, tok.Text = ast.TokenPunctuation, string(l.ch)
	case '(':
		l.depth++
		tok.Type, tok.Text = ast.TokenBracket, "("
	case ')':
		if l.depth == 0 {
			return tok, false, &ast.Error{
				Err: ast.ErrUnbalancedBracket, Pos: start, Text: ")",
				Detail: "closing bracket without opening bracket",
			}
		}
		l.depth--
		tok.Type, tok.Text = ast.TokenBracket, ")"
	default:
		return tok, false, &ast.Error{Err: ast.ErrInvalidToken, Pos: start, Text: string(l.ch)}
	}

	l.readChar()
	return tok, false, nil
}

func (l *lexer) readWord() ast.Token {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return ast.Token{Type: ast.TokenWord, Text: l.input[start:l.pos], Pos: start}
}

func (l *lexer) readNumber() (ast.Token, error) {
	start := l.pos
	if l.ch == '-' {
		l.readChar()
	}
	seenPoint := false
	for isDigit(l.ch) || l.ch == '.' {
		if l.ch == '.' {
			if seenPoint {
				return ast.Token{}, &ast.Error{
					Err: ast.ErrInvalidToken, Pos: l.pos, Text: l.input[start : l.pos+1],
					Detail: "number with more than one decimal point",
				}
			}
			seenPoint = true
		}
		l.readChar()
	}
	return ast.Token{Type: ast.TokenConstant, Text: l.input[start:l.pos], Pos: start}, nil
}

func (l *lexer) readString() (ast.Token, error) {
	start := l.pos
	l.readChar()
	for l.ch != '\'' {
		if l.ch == 0 && l.pos >= len(l.input) {
			return ast.Token{}, &ast.Error{
				Err: ast.ErrUnterminatedString, Pos: start, Text: l.input[start:],
			}
		}
		l.readChar()
	}
	l.readChar()
	return ast.Token{Type: ast.TokenConstant, Text: l.input[start:l.pos], Pos: start}, nil
}

func isLetter(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
