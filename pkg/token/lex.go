package token

import (
	"strings"
)

// SplitLine splits one physical line into tokens. A quoted token ends at the
// first matching quote that is followed by whitespace or the end of the line.
// An unquoted '#' at the start of a token begins a comment.
func SplitLine(line string) ([]Token, error) {
	var out []Token
	i := 0
	for i < len(line) {
		for i < len(line) && isSpace(line[i]) {
			i++
		}
		if i >= len(line) {
			break
		}
		switch c := line[i]; c {
		case '#':
			return out, nil
		case '\'', '"':
			end := closingQuote(line, i+1, c)
			if end < 0 {
				return nil, &MalformedValue{Kind: KindString, Token: line[i:], Reason: "unterminated quote"}
			}
			out = append(out, Token{Value: line[i+1 : end], Quoted: true})
			i = end + 1
		default:
			start := i
			for i < len(line) && !isSpace(line[i]) {
				i++
			}
			out = append(out, Token{Value: line[start:i]})
		}
	}
	return out, nil
}

func closingQuote(line string, from int, q byte) int {
	for j := from; j < len(line); j++ {
		if line[j] == q && (j+1 == len(line) || isSpace(line[j+1])) {
			return j
		}
	}
	return -1
}

// Line is one physical line with its 1-based number.
type Line struct {
	Num  int
	Text string
}

// Trimmed returns the line without surrounding whitespace.
func (l Line) Trimmed() string {
	return strings.TrimSpace(l.Text)
}

// IsBlank reports an empty or whitespace-only line.
func (l Line) IsBlank() bool {
	return l.Trimmed() == ""
}

// IsSeparator reports a cosmetic '#' line ("#", "#   #"), excluding the
// "##" terminator.
func (l Line) IsSeparator() bool {
	t := l.Trimmed()
	return strings.HasPrefix(t, "#") && t != "##"
}

// IsTextFieldStart reports a line opening a semicolon text field.
func (l Line) IsTextFieldStart() bool {
	return strings.HasPrefix(l.Text, ";")
}

// Scanner walks the lines of a record.
type Scanner struct {
	lines []string
	pos   int
}

// NewScanner splits text into lines, accepting both \n and \r\n endings.
func NewScanner(text string) *Scanner {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return &Scanner{lines: lines}
}

// Peek returns the next line without consuming it.
func (s *Scanner) Peek() (Line, bool) {
	if s.pos >= len(s.lines) {
		return Line{Num: s.pos + 1}, false
	}
	return Line{Num: s.pos + 1, Text: s.lines[s.pos]}, true
}

// PeekAt returns the line offset lines after the next one without consuming
// anything. PeekAt(0) is Peek.
func (s *Scanner) PeekAt(offset int) (Line, bool) {
	i := s.pos + offset
	if offset < 0 || i >= len(s.lines) {
		return Line{Num: i + 1}, false
	}
	return Line{Num: i + 1, Text: s.lines[i]}, true
}

// Next consumes and returns the next line.
func (s *Scanner) Next() (Line, bool) {
	l, ok := s.Peek()
	if ok {
		s.pos++
	}
	return l, ok
}

// LineNum is the number of the line that Peek would return.
func (s *Scanner) LineNum() int {
	return s.pos + 1
}

// SkipCosmetic consumes blank and separator lines.
func (s *Scanner) SkipCosmetic() {
	for {
		l, ok := s.Peek()
		if !ok || !(l.IsBlank() || l.IsSeparator()) {
			return
		}
		s.pos++
	}
}

// ReadTextField consumes a semicolon text field starting at the next line.
// It returns the field and any tokens following the closing semicolon.
func (s *Scanner) ReadTextField() (Token, []Token, error) {
	first, ok := s.Next()
	if !ok || !first.IsTextFieldStart() {
		return Token{}, nil, &MalformedValue{Kind: KindString, Token: first.Text, Reason: "expected text field"}
	}
	parts := []string{first.Text[1:]}
	for {
		l, ok := s.Next()
		if !ok {
			return Token{}, nil, &MalformedValue{Kind: KindString, Token: parts[0], Reason: "unterminated text field"}
		}
		if l.IsTextFieldStart() {
			rest, err := SplitLine(l.Text[1:])
			if err != nil {
				return Token{}, nil, err
			}
			return Token{Value: strings.Join(parts, "\n"), Quoted: true}, rest, nil
		}
		parts = append(parts, l.Text)
	}
}
