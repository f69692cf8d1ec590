// Package mutator rewrites locator attribute values in page markup.
//
// The core is a pure function, Rewrite, that maps (markup, pairs) to new
// markup. It only touches data-testid values that match a pair's From name
// exactly; every other byte of the input is copied through unchanged, so
// rewriting in one direction and then the other is byte-identical to the
// original source.
//
// Mutator applies Rewrite to the template files declared for a page on disk,
// and Render applies it to already rendered markup for a given direction.
package mutator

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html"

	"github.com/roach88/driftbench/internal/locator"
)

// Stats counts what a rewrite saw, keyed by locator name.
type Stats struct {
	// Replaced counts substitutions made, keyed by the pair's From name.
	Replaced map[locator.Name]int

	// Targets counts attributes that already carried a pair's To name
	// before rewriting, keyed by the To name.
	Targets map[locator.Name]int
}

func newStats() Stats {
	return Stats{
		Replaced: make(map[locator.Name]int),
		Targets:  make(map[locator.Name]int),
	}
}

// Total returns the number of substitutions made.
func (s Stats) Total() int {
	n := 0
	for _, c := range s.Replaced {
		n += c
	}
	return n
}

func (s Stats) merge(other Stats) {
	for k, v := range other.Replaced {
		s.Replaced[k] += v
	}
	for k, v := range other.Targets {
		s.Targets[k] += v
	}
}

// Rewrite replaces every data-testid value equal to a pair's From with the
// pair's To. Each tag is rewritten at most once, so pairs never chain.
//
// The input is tokenized with golang.org/x/net/html and each token's raw
// bytes are copied to the output; only the attribute value span of matching
// tags changes. Template actions ({{...}}) pass through as text.
func Rewrite(src []byte, pairs []locator.Pair) ([]byte, Stats, error) {
	stats := newStats()

	lookup := make(map[string]locator.Name, len(pairs))
	targets := make(map[string]locator.Name, len(pairs))
	for _, p := range pairs {
		lookup[string(p.From)] = p.To
		targets[string(p.To)] = p.To
	}

	var out bytes.Buffer
	out.Grow(len(src))

	z := html.NewTokenizer(bytes.NewReader(src))
	for {
		tt := z.Next()
		// Raw is only valid until the next tokenizer call.
		raw := append([]byte(nil), z.Raw()...)

		if tt == html.ErrorToken {
			out.Write(raw)
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return nil, stats, fmt.Errorf("tokenize markup: %w", z.Err())
		}

		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(raw)
			continue
		}

		value, ok := testID(z)
		if !ok {
			out.Write(raw)
			continue
		}

		if to, match := targets[value]; match {
			stats.Targets[to]++
		}

		to, match := lookup[value]
		if !match {
			out.Write(raw)
			continue
		}

		rewritten, replaced := replaceAttrValue(raw, value, string(to))
		if !replaced {
			return nil, stats, fmt.Errorf("cannot rewrite %s=%q in %q: value is escaped or malformed", locator.Attribute, value, raw)
		}
		out.Write(rewritten)
		stats.Replaced[locator.Name(value)]++
	}

	return out.Bytes(), stats, nil
}

// Render is the pure form of a mutation: it returns markup with the page's
// rename map applied in dir. The input is not modified.
func Render(src []byte, maps *locator.RenameMaps, page locator.Page, dir locator.Direction) ([]byte, error) {
	pairs, err := maps.Pairs(page, dir)
	if err != nil {
		return nil, err
	}
	out, _, err := Rewrite(src, pairs)
	return out, err
}

// testID returns the first data-testid value of the current tag.
func testID(z *html.Tokenizer) (string, bool) {
	_, hasAttr := z.TagName()
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		if string(key) == locator.Attribute {
			return string(val), true
		}
	}
	return "", false
}

// replaceAttrValue swaps the value of the first data-testid attribute in a
// raw start tag when it equals from. The tag is walked attribute by
// attribute the way the tokenizer reads it, so text inside other
// attributes' values is never matched. Names compare case-insensitively.
func replaceAttrValue(raw []byte, from, to string) ([]byte, bool) {
	k := 0
	if k < len(raw) && raw[k] == '<' {
		k++
	}
	for k < len(raw) && !isSpace(raw[k]) && raw[k] != '/' && raw[k] != '>' {
		k++
	}

	for k < len(raw) {
		for k < len(raw) && (isSpace(raw[k]) || raw[k] == '/') {
			k++
		}
		if k >= len(raw) || raw[k] == '>' {
			return raw, false
		}

		nameStart := k
		for k < len(raw) {
			c := raw[k]
			if isSpace(c) || c == '/' || c == '>' || (c == '=' && k > nameStart) {
				break
			}
			k++
		}
		name := raw[nameStart:k]

		v := k
		for v < len(raw) && isSpace(raw[v]) {
			v++
		}
		if v >= len(raw) || raw[v] != '=' {
			if bytes.EqualFold(name, []byte(locator.Attribute)) {
				return raw, false
			}
			continue
		}
		v++
		for v < len(raw) && isSpace(raw[v]) {
			v++
		}
		if v >= len(raw) {
			return raw, false
		}

		start, end := v, v
		if q := raw[v]; q == '"' || q == '\'' {
			start = v + 1
			e := bytes.IndexByte(raw[start:], q)
			if e < 0 {
				return raw, false
			}
			end = start + e
			k = end + 1
		} else {
			for end < len(raw) && !isSpace(raw[end]) && raw[end] != '>' &&
				!(raw[end] == '/' && end+1 < len(raw) && raw[end+1] == '>') {
				end++
			}
			k = end
		}

		if !bytes.EqualFold(name, []byte(locator.Attribute)) {
			continue
		}
		if string(raw[start:end]) != from {
			return raw, false
		}

		out := make([]byte, 0, len(raw)-len(from)+len(to))
		out = append(out, raw[:start]...)
		out = append(out, to...)
		out = append(out, raw[end:]...)
		return out, true
	}
	return raw, false
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}
