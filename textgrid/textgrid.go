// Package textgrid reads Praat TextGrid annotation files.
//
// Both the long ("xmin = 0") and the short (bare values) text layouts are
// accepted. The reader flattens either layout into the same value stream:
// quoted strings, numbers and <exists>/<absent> flags, ignoring keys.
package textgrid

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
)

// ErrMalformed is returned for input that does not follow the TextGrid layout.
var ErrMalformed = errors.New("textgrid: malformed")

const (
	ClassInterval = "IntervalTier"
	ClassPoint    = "TextTier"
)

type Interval struct {
	XMin float64 `json:"xmin"`
	XMax float64 `json:"xmax"`
	Mark string  `json:"mark"`
}

type Point struct {
	Time float64 `json:"time"`
	Mark string  `json:"mark"`
}

type Tier struct {
	Class     string
	Name      string
	XMin      float64
	XMax      float64
	Intervals []Interval
	Points    []Point
}

// Labeled returns the intervals whose mark is not empty, in file order.
// Unlabeled intervals are the silences of a silence-annotated tier.
func (t *Tier) Labeled() []Interval {
	out := make([]Interval, 0, len(t.Intervals))
	for _, iv := range t.Intervals {
		if iv.Mark != "" {
			out = append(out, iv)
		}
	}
	return out
}

type TextGrid struct {
	XMin  float64
	XMax  float64
	Tiers []Tier
}

// Tier looks a tier up by name; "" selects the first tier.
func (g *TextGrid) Tier(name string) (*Tier, error) {
	if len(g.Tiers) == 0 {
		return nil, fmt.Errorf("%w: no tiers", ErrMalformed)
	}
	if name == "" {
		return &g.Tiers[0], nil
	}
	for i := range g.Tiers {
		if g.Tiers[i].Name == name {
			return &g.Tiers[i], nil
		}
	}
	return nil, fmt.Errorf("textgrid: tier %q not found", name)
}

func ReadFile(path string) (*TextGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*TextGrid, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(raw)
	if err != nil {
		return nil, err
	}
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	return build(&stream{toks: toks})
}

// decodeText turns UTF-16 (with BOM) into UTF-8; Praat writes either.
func decodeText(raw []byte) ([]byte, error) {
	var order binary.ByteOrder
	switch {
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		order = binary.BigEndian
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		order = binary.LittleEndian
	default:
		return bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF}), nil
	}
	raw = raw[2:]
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("%w: odd UTF-16 length", ErrMalformed)
	}
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = order.Uint16(raw[2*i:])
	}
	var buf bytes.Buffer
	for _, r := range utf16.Decode(units) {
		buf.WriteRune(r)
	}
	return buf.Bytes(), nil
}

type tokKind int

const (
	tokString tokKind = iota
	tokNumber
	tokFlag
)

type token struct {
	kind tokKind
	text string
}

func isLetter(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

func tokenize(b []byte) ([]token, error) {
	var out []token
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == '"':
			// "" inside a string is an escaped quote
			var s []byte
			i++
			for {
				if i >= len(b) {
					return nil, fmt.Errorf("%w: unterminated string", ErrMalformed)
				}
				if b[i] == '"' {
					if i+1 < len(b) && b[i+1] == '"' {
						s = append(s, '"')
						i += 2
						continue
					}
					i++
					break
				}
				s = append(s, b[i])
				i++
			}
			if !utf8.Valid(s) {
				return nil, fmt.Errorf("%w: invalid UTF-8 in string", ErrMalformed)
			}
			out = append(out, token{kind: tokString, text: string(s)})
		case c == '<':
			j := bytes.IndexByte(b[i:], '>')
			if j < 0 {
				return nil, fmt.Errorf("%w: unterminated flag", ErrMalformed)
			}
			out = append(out, token{kind: tokFlag, text: string(b[i+1 : i+j])})
			i += j + 1
		case c == '[':
			// item [3]: index brackets carry no value
			j := bytes.IndexByte(b[i:], ']')
			if j < 0 {
				return nil, fmt.Errorf("%w: unterminated index", ErrMalformed)
			}
			i += j + 1
		case c == '!':
			for i < len(b) && b[i] != '\n' {
				i++
			}
		case isLetter(c):
			for i < len(b) && (isLetter(b[i]) || isDigit(b[i]) || b[i] == '?') {
				i++
			}
		case isDigit(c) || ((c == '-' || c == '+' || c == '.') && i+1 < len(b) && (isDigit(b[i+1]) || b[i+1] == '.')):
			j := i + 1
			for j < len(b) && (isDigit(b[j]) || b[j] == '.' || b[j] == 'e' || b[j] == 'E' ||
				((b[j] == '-' || b[j] == '+') && (b[j-1] == 'e' || b[j-1] == 'E'))) {
				j++
			}
			out = append(out, token{kind: tokNumber, text: string(b[i:j])})
			i = j
		default:
			i++
		}
	}
	return out, nil
}

type stream struct {
	toks []token
	pos  int
}

func (s *stream) next(kind tokKind, what string) (token, error) {
	if s.pos >= len(s.toks) {
		return token{}, fmt.Errorf("%w: unexpected end of file reading %s", ErrMalformed, what)
	}
	t := s.toks[s.pos]
	if t.kind != kind {
		return token{}, fmt.Errorf("%w: %s: unexpected value %q", ErrMalformed, what, t.text)
	}
	s.pos++
	return t, nil
}

func (s *stream) str(what string) (string, error) {
	t, err := s.next(tokString, what)
	return t.text, err
}

func (s *stream) num(what string) (float64, error) {
	t, err := s.next(tokNumber, what)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(t.text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformed, what, err)
	}
	return f, nil
}

func (s *stream) count(what string) (int, error) {
	f, err := s.num(what)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(int(f)) {
		return 0, fmt.Errorf("%w: %s: bad count %v", ErrMalformed, what, f)
	}
	return int(f), nil
}

func build(s *stream) (*TextGrid, error) {
	ft, err := s.str("file type")
	if err != nil {
		return nil, err
	}
	if ft != "ooTextFile" && ft != "ooTextFile short" {
		return nil, fmt.Errorf("%w: file type %q", ErrMalformed, ft)
	}
	class, err := s.str("object class")
	if err != nil {
		return nil, err
	}
	if class != "TextGrid" {
		return nil, fmt.Errorf("%w: object class %q", ErrMalformed, class)
	}

	g := &TextGrid{}
	if g.XMin, err = s.num("xmin"); err != nil {
		return nil, err
	}
	if g.XMax, err = s.num("xmax"); err != nil {
		return nil, err
	}
	flag, err := s.next(tokFlag, "tiers flag")
	if err != nil {
		return nil, err
	}
	if flag.text != "exists" {
		return g, nil
	}
	n, err := s.count("tier count")
	if err != nil {
		return nil, err
	}
	g.Tiers = make([]Tier, 0, n)
	for i := 0; i < n; i++ {
		t, err := buildTier(s)
		if err != nil {
			return nil, fmt.Errorf("tier %d: %w", i+1, err)
		}
		g.Tiers = append(g.Tiers, t)
	}
	return g, nil
}

func buildTier(s *stream) (Tier, error) {
	var t Tier
	var err error
	if t.Class, err = s.str("tier class"); err != nil {
		return t, err
	}
	if t.Name, err = s.str("tier name"); err != nil {
		return t, err
	}
	if t.XMin, err = s.num("tier xmin"); err != nil {
		return t, err
	}
	if t.XMax, err = s.num("tier xmax"); err != nil {
		return t, err
	}
	n, err := s.count("tier size")
	if err != nil {
		return t, err
	}
	switch t.Class {
	case ClassInterval:
		t.Intervals = make([]Interval, 0, n)
		for i := 0; i < n; i++ {
			var iv Interval
			if iv.XMin, err = s.num("interval xmin"); err != nil {
				return t, err
			}
			if iv.XMax, err = s.num("interval xmax"); err != nil {
				return t, err
			}
			if iv.Mark, err = s.str("interval text"); err != nil {
				return t, err
			}
			if iv.XMax < iv.XMin {
				return t, fmt.Errorf("%w: interval %d ends before it starts", ErrMalformed, i+1)
			}
			t.Intervals = append(t.Intervals, iv)
		}
	case ClassPoint:
		t.Points = make([]Point, 0, n)
		for i := 0; i < n; i++ {
			var p Point
			if p.Time, err = s.num("point time"); err != nil {
				return t, err
			}
			if p.Mark, err = s.str("point mark"); err != nil {
				return t, err
			}
			t.Points = append(t.Points, p)
		}
	default:
		return t, fmt.Errorf("%w: tier class %q", ErrMalformed, t.Class)
	}
	return t, nil
}
