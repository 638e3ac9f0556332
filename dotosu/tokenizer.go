package dotosu

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	headerPrefix = "osu file format v"
	maxLine      = 1024 * 1024
)

// Token is one meaningful line of a beatmap file together with the
// section it belongs to. Section is the header name without brackets.
type Token struct {
	Section string
	Text    string
	Line    int
}

// Tokenizer streams the lines of a beatmap file. Blank lines, comments
// and section headers are consumed; only content lines are emitted.
// It holds a single line in memory at a time.
//
// A byte-order mark selects the encoding: UTF-8 and UTF-16 input is
// accepted, anything else must already be valid UTF-8.
type Tokenizer struct {
	sc      *bufio.Scanner
	section string
	version int
	line    int
	tok     Token
	err     error
}

func NewTokenizer(r io.Reader) *Tokenizer {
	tr := transform.NewReader(r, unicode.BOMOverride(transform.Nop))
	sc := bufio.NewScanner(tr)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Tokenizer{sc: sc}
}

// Scan advances to the next content line. It returns false at the end of
// input or on the first error, which Err then reports.
func (t *Tokenizer) Scan() bool {
	if t.err != nil {
		return false
	}
	for t.sc.Scan() {
		t.line++
		raw := t.sc.Text()
		if !utf8.ValidString(raw) {
			t.err = &ParseError{Kind: ErrEncoding, Section: t.section, Line: t.line, Text: strings.ToValidUTF8(raw, "�")}
			return false
		}
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "//") {
			continue
		}

		if t.version == 0 {
			v, ok := parseHeader(text)
			if !ok {
				t.err = &ParseError{Kind: ErrVersionUnsupported, Line: t.line, Text: text}
				return false
			}
			t.version = v
			continue
		}

		if len(text) > 2 && text[0] == '[' && text[len(text)-1] == ']' {
			t.section = strings.TrimSpace(text[1 : len(text)-1])
			continue
		}
		if t.section == "" {
			t.err = &ParseError{Kind: ErrMalformedSection, Line: t.line, Text: text}
			return false
		}

		t.tok = Token{Section: t.section, Text: text, Line: t.line}
		return true
	}

	if err := t.sc.Err(); err != nil {
		t.err = fmt.Errorf("dotosu: line %d: %w", t.line+1, err)
	} else if t.version == 0 {
		t.err = &ParseError{Kind: ErrVersionUnsupported, Line: t.line, Text: "missing format header"}
	}
	return false
}

func (t *Tokenizer) Token() Token { return t.tok }

// Version is the format version from the header line, 0 until it is read.
func (t *Tokenizer) Version() int { return t.version }

func (t *Tokenizer) Err() error { return t.err }

// Tokens returns the remaining tokens as a sequence. An error, if any, is
// yielded last with a zero Token.
func (t *Tokenizer) Tokens() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		for t.Scan() {
			if !yield(t.tok, nil) {
				return
			}
		}
		if t.err != nil {
			yield(Token{}, t.err)
		}
	}
}

func parseHeader(line string) (int, bool) {
	if len(line) < len(headerPrefix) || !strings.EqualFold(line[:len(headerPrefix)], headerPrefix) {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(line[len(headerPrefix):]))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
