package memendpoint

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRI
	tokPName
	tokVar
	tokString
	tokLangTag
	tokDatatypeMark
	tokNumber
	tokBool
	tokBlankNode
	tokA
	tokKeyword
	tokPunct
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of query"
	case tokIRI:
		return "IRI"
	case tokPName:
		return "prefixed name"
	case tokVar:
		return "variable"
	case tokString:
		return "string"
	case tokLangTag:
		return "language tag"
	case tokDatatypeMark:
		return "^^"
	case tokNumber:
		return "number"
	case tokBool:
		return "boolean"
	case tokBlankNode:
		return "blank node"
	case tokA:
		return "'a'"
	case tokKeyword:
		return "keyword"
	case tokPunct:
		return "punctuation"
	default:
		return "unknown token"
	}
}

// token is one lexeme. For strings, Text is the unescaped value; for IRIs
// it is the content between the angle brackets; for variables the name
// without the sigil.
type token struct {
	Kind tokenKind
	Text string
	Pos  int
}

func (t token) String() string {
	if t.Kind == tokEOF {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s %q at offset %d", t.Kind, t.Text, t.Pos)
}

// isKeyword reports whether t is the keyword kw, case-insensitively.
func (t token) isKeyword(kw string) bool {
	return t.Kind == tokKeyword && strings.EqualFold(t.Text, kw)
}

func (t token) isPunct(p string) bool {
	return t.Kind == tokPunct && t.Text == p
}

// tokenize splits a query into tokens, ending with tokEOF.
func tokenize(input string) ([]token, error) {
	s := &scanner{input: input}
	var tokens []token
	for {
		tok, err := s.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == tokEOF {
			return tokens, nil
		}
	}
}

type scanner struct {
	input string
	pos   int
}

func (s *scanner) nextToken() (token, error) {
	s.skipWSAndComments()
	start := s.pos
	if s.pos >= len(s.input) {
		return token{Kind: tokEOF, Pos: start}, nil
	}

	ch := s.input[s.pos]
	switch {
	case ch == '<':
		return s.scanIRIRef()
	case ch == '"' || ch == '\'':
		return s.scanString()
	case ch == '@':
		return s.scanLangTag()
	case ch == '^' && s.match("^^"):
		s.pos += 2
		return token{Kind: tokDatatypeMark, Text: "^^", Pos: start}, nil
	case ch == '?' || ch == '$':
		return s.scanVar()
	case s.match("_:"):
		return s.scanBlankNode()
	case strings.IndexByte("{}.;,*()", ch) >= 0:
		s.pos++
		return token{Kind: tokPunct, Text: string(ch), Pos: start}, nil
	}
	return s.scanWord()
}

func (s *scanner) scanIRIRef() (token, error) {
	start := s.pos
	end := strings.IndexByte(s.input[s.pos+1:], '>')
	if end < 0 {
		return token{}, fmt.Errorf("unterminated IRI at offset %d", start)
	}
	iri := s.input[s.pos+1 : s.pos+1+end]
	if strings.ContainsAny(iri, " \t\r\n") {
		return token{}, fmt.Errorf("whitespace in IRI at offset %d", start)
	}
	s.pos += end + 2
	return token{Kind: tokIRI, Text: iri, Pos: start}, nil
}

func (s *scanner) scanString() (token, error) {
	start := s.pos
	quote := s.input[s.pos]
	long := strings.Repeat(string(quote), 3)
	if s.match(long) {
		end := strings.Index(s.input[s.pos+3:], long)
		if end < 0 {
			return token{}, fmt.Errorf("unterminated long string at offset %d", start)
		}
		raw := s.input[s.pos+3 : s.pos+3+end]
		s.pos += end + 6
		val, err := unescapeString(raw)
		if err != nil {
			return token{}, fmt.Errorf("string at offset %d: %w", start, err)
		}
		return token{Kind: tokString, Text: val, Pos: start}, nil
	}

	s.pos++
	for s.pos < len(s.input) {
		switch s.input[s.pos] {
		case '\\':
			s.pos += 2
			continue
		case '\n', '\r':
			return token{}, fmt.Errorf("line break in string at offset %d", start)
		case quote:
			raw := s.input[start+1 : s.pos]
			s.pos++
			val, err := unescapeString(raw)
			if err != nil {
				return token{}, fmt.Errorf("string at offset %d: %w", start, err)
			}
			return token{Kind: tokString, Text: val, Pos: start}, nil
		}
		s.pos++
	}
	return token{}, fmt.Errorf("unterminated string at offset %d", start)
}

func (s *scanner) scanLangTag() (token, error) {
	start := s.pos
	s.pos++ // consume '@'
	for s.pos < len(s.input) && (isAlnum(s.input[s.pos]) || s.input[s.pos] == '-') {
		s.pos++
	}
	if s.pos == start+1 {
		return token{}, fmt.Errorf("empty language tag at offset %d", start)
	}
	return token{Kind: tokLangTag, Text: s.input[start+1 : s.pos], Pos: start}, nil
}

func (s *scanner) scanVar() (token, error) {
	start := s.pos
	s.pos++ // consume sigil
	for s.pos < len(s.input) && (isAlnum(s.input[s.pos]) || s.input[s.pos] == '_' || s.input[s.pos] == '-') {
		s.pos++
	}
	if s.pos == start+1 {
		return token{}, fmt.Errorf("empty variable name at offset %d", start)
	}
	return token{Kind: tokVar, Text: s.input[start+1 : s.pos], Pos: start}, nil
}

func (s *scanner) scanBlankNode() (token, error) {
	start := s.pos
	s.pos += 2
	for s.pos < len(s.input) && !s.atTerminator() {
		s.pos++
	}
	return token{Kind: tokBlankNode, Text: s.input[start+2 : s.pos], Pos: start}, nil
}

func (s *scanner) scanWord() (token, error) {
	start := s.pos
	for s.pos < len(s.input) && !s.atTerminator() {
		s.pos++
	}
	word := s.input[start:s.pos]
	if word == "" {
		r, _ := utf8.DecodeRuneInString(s.input[s.pos:])
		return token{}, fmt.Errorf("unexpected character %q at offset %d", r, start)
	}

	switch {
	case word == "a":
		return token{Kind: tokA, Text: word, Pos: start}, nil
	case word == "true" || word == "false":
		return token{Kind: tokBool, Text: word, Pos: start}, nil
	case strings.Contains(word, ":"):
		return token{Kind: tokPName, Text: word, Pos: start}, nil
	case isNumeric(word):
		return token{Kind: tokNumber, Text: word, Pos: start}, nil
	}
	for i := 0; i < len(word); i++ {
		if !isAlnum(word[i]) && word[i] != '_' && word[i] != '-' {
			return token{}, fmt.Errorf("unexpected %q at offset %d", word, start)
		}
	}
	return token{Kind: tokKeyword, Text: word, Pos: start}, nil
}

// atTerminator reports whether the byte at pos ends a bare word.
// A '.' ends a word unless a name character follows it ("1.5", "ex:a.b").
func (s *scanner) atTerminator() bool {
	ch := s.input[s.pos]
	switch ch {
	case ' ', '\t', '\r', '\n', '{', '}', ';', ',', '(', ')', '<', '"', '\'', '#', '@', '^':
		return true
	case '.':
		return s.pos+1 >= len(s.input) || !isAlnum(s.input[s.pos+1])
	}
	return false
}

func (s *scanner) skipWSAndComments() {
	for s.pos < len(s.input) {
		switch s.input[s.pos] {
		case ' ', '\t', '\r', '\n':
			s.pos++
		case '#':
			for s.pos < len(s.input) && s.input[s.pos] != '\n' {
				s.pos++
			}
		default:
			return
		}
	}
}

func (s *scanner) match(prefix string) bool {
	return strings.HasPrefix(s.input[s.pos:], prefix)
}

func isAlnum(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || ch >= 0x80
}

func isNumeric(word string) bool {
	_, err := strconv.ParseFloat(word, 64)
	return err == nil && strings.IndexFunc(word, func(r rune) bool {
		return !strings.ContainsRune("0123456789+-.eE", r)
	}) < 0
}

// unescapeString resolves SPARQL string escapes (ECHAR and UCHAR).
func unescapeString(raw string) (string, error) {
	if !strings.Contains(raw, `\`) {
		return raw, nil
	}
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if ch != '\\' {
			b.WriteByte(ch)
			continue
		}
		i++
		if i >= len(raw) {
			return "", fmt.Errorf("dangling escape")
		}
		switch raw[i] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case '"', '\'', '\\':
			b.WriteByte(raw[i])
		case 'u', 'U':
			n := 4
			if raw[i] == 'U' {
				n = 8
			}
			if i+n >= len(raw) {
				return "", fmt.Errorf("short \\%c escape", raw[i])
			}
			code, err := strconv.ParseUint(raw[i+1:i+1+n], 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid \\%c escape: %w", raw[i], err)
			}
			b.WriteRune(rune(code))
			i += n
		default:
			return "", fmt.Errorf("invalid escape \\%c", raw[i])
		}
	}
	return b.String(), nil
}
