package hyperjson

import (
	"errors"
	"math"
	"strconv"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

const (
	// maxRecursionDepth bounds array/object nesting.  The limit is enforced
	// with an explicit counter so inputs with millions of opening brackets
	// fail fast instead of growing the native stack without bound.
	maxRecursionDepth = 1024

	keyCacheSlots  = 512
	keyCacheMaxLen = 64

	minParseBuffer = 4096
)

// parseBufferLimit caps the estimated working allocation for a single parse.
// Exceeding it produces the fixed out-of-memory decode error.  Tests lower it
// to exercise the guard.
var parseBufferLimit int64 = math.MaxInt64

// parseBufferCapacity estimates the worst-case working buffer for an n-byte
// document, rounded up to a multiple of minParseBuffer.
func parseBufferCapacity(n int) int64 {
	return (int64(n)/2*24 + 256 + minParseBuffer - 1) &^ (minParseBuffer - 1)
}

// decodeState holds all per-call working memory.  States are pooled and
// checked out exclusively for the duration of one call, so concurrent and
// reentrant calls never share a scratch buffer or key cache.
type decodeState struct {
	data    []byte
	pos     int
	depth   int
	scratch []byte
	keys    map[uint64]string
}

var decodePool = sync.Pool{
	New: func() any {
		return &decodeState{
			scratch: make([]byte, 0, 256),
			keys:    make(map[uint64]string, 16),
		}
	},
}

func unmarshal(data []byte) (any, error) {
	if parseBufferCapacity(len(data)) > parseBufferLimit {
		return nil, &DecodeError{
			msg:    "Not enough memory to allocate buffer for parsing",
			Line:   1,
			Column: 1,
			Char:   0,
		}
	}

	d := decodePool.Get().(*decodeState)
	d.data = data
	d.pos = 0
	d.depth = 0

	v, err := d.document()

	d.data = nil
	if len(d.keys) >= keyCacheSlots {
		d.keys = make(map[uint64]string, 16)
	}
	if cap(d.scratch) > 1<<20 {
		d.scratch = make([]byte, 0, 256)
	}
	decodePool.Put(d)

	return v, err
}

func (d *decodeState) document() (any, error) {
	d.skipWhitespace()
	if d.pos >= len(d.data) {
		return nil, d.errorAt("unexpected end of data", d.pos)
	}
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	d.skipWhitespace()
	if d.pos != len(d.data) {
		return nil, d.errorAt("unexpected content after document", d.pos)
	}
	return v, nil
}

func (d *decodeState) errorAt(msg string, pos int) error {
	return newDecodeError(msg, d.data, pos)
}

func (d *decodeState) skipWhitespace() {
	for d.pos < len(d.data) {
		switch d.data[d.pos] {
		case ' ', '\t', '\n', '\r':
			d.pos++
		default:
			return
		}
	}
}

// value parses the value beginning at d.pos, which the caller has positioned
// on a non-whitespace byte.
func (d *decodeState) value() (any, error) {
	switch d.data[d.pos] {
	case '{':
		return d.object()
	case '[':
		return d.array()
	case '"':
		b, err := d.stringBytes()
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case 't':
		return d.literal("true", true)
	case 'f':
		return d.literal("false", false)
	case 'n':
		return d.literal("null", nil)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return d.number()
	default:
		// Covers NaN, Infinity and any other nonstandard literal.
		return nil, d.errorAt("unexpected character", d.pos)
	}
}

func (d *decodeState) literal(lit string, v any) (any, error) {
	if len(d.data)-d.pos < len(lit) || string(d.data[d.pos:d.pos+len(lit)]) != lit {
		return nil, d.errorAt("invalid literal", d.pos)
	}
	d.pos += len(lit)
	return v, nil
}

func (d *decodeState) array() (any, error) {
	d.depth++
	if d.depth > maxRecursionDepth {
		return nil, d.errorAt("recursion limit exceeded", d.pos)
	}
	defer func() { d.depth-- }()

	d.pos++ // consume '['
	d.skipWhitespace()
	if d.pos >= len(d.data) {
		return nil, d.errorAt("unexpected end of data", d.pos)
	}
	if d.data[d.pos] == ']' {
		d.pos++
		return []any{}, nil
	}

	arr := make([]any, 0, 8)
	for {
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)

		d.skipWhitespace()
		if d.pos >= len(d.data) {
			return nil, d.errorAt("unexpected end of data", d.pos)
		}
		switch d.data[d.pos] {
		case ',':
			d.pos++
			d.skipWhitespace()
			if d.pos >= len(d.data) {
				return nil, d.errorAt("unexpected end of data", d.pos)
			}
		case ']':
			d.pos++
			return arr, nil
		default:
			return nil, d.errorAt("expecting value-separator or end of array", d.pos)
		}
	}
}

func (d *decodeState) object() (any, error) {
	d.depth++
	if d.depth > maxRecursionDepth {
		return nil, d.errorAt("recursion limit exceeded", d.pos)
	}
	defer func() { d.depth-- }()

	d.pos++ // consume '{'
	d.skipWhitespace()
	if d.pos >= len(d.data) {
		return nil, d.errorAt("unexpected end of data", d.pos)
	}
	if d.data[d.pos] == '}' {
		d.pos++
		return Object{}, nil
	}

	obj := make(Object, 0, 8)
	// Linear duplicate scan for small objects; switch to an index map once
	// the object is large enough for the scan to matter.
	var index map[string]int

	for {
		if d.data[d.pos] != '"' {
			return nil, d.errorAt("expecting key", d.pos)
		}
		kb, err := d.stringBytes()
		if err != nil {
			return nil, err
		}
		key := d.intern(kb)

		d.skipWhitespace()
		if d.pos >= len(d.data) {
			return nil, d.errorAt("unexpected end of data", d.pos)
		}
		if d.data[d.pos] != ':' {
			return nil, d.errorAt("expecting name-separator", d.pos)
		}
		d.pos++
		d.skipWhitespace()
		if d.pos >= len(d.data) {
			return nil, d.errorAt("unexpected end of data", d.pos)
		}

		v, err := d.value()
		if err != nil {
			return nil, err
		}

		// Duplicate keys: keep the first position, last value wins.
		if index != nil {
			if i, ok := index[key]; ok {
				obj[i].Value = v
			} else {
				index[key] = len(obj)
				obj = append(obj, Member{Key: key, Value: v})
			}
		} else {
			dup := false
			for i := range obj {
				if obj[i].Key == key {
					obj[i].Value = v
					dup = true
					break
				}
			}
			if !dup {
				obj = append(obj, Member{Key: key, Value: v})
				if len(obj) > 16 {
					index = make(map[string]int, 2*len(obj))
					for i := range obj {
						index[obj[i].Key] = i
					}
				}
			}
		}

		d.skipWhitespace()
		if d.pos >= len(d.data) {
			return nil, d.errorAt("unexpected end of data", d.pos)
		}
		switch d.data[d.pos] {
		case ',':
			d.pos++
			d.skipWhitespace()
			if d.pos >= len(d.data) {
				return nil, d.errorAt("unexpected end of data", d.pos)
			}
		case '}':
			d.pos++
			return obj, nil
		default:
			return nil, d.errorAt("expecting value-separator or end of object", d.pos)
		}
	}
}

// intern returns key bytes as a string, reusing a previously-built string for
// repeated short keys.  The cache is keyed by xxhash and bounded; it belongs
// to this call's scratch state, never to a shared global table.
func (d *decodeState) intern(b []byte) string {
	if len(b) > keyCacheMaxLen {
		return string(b)
	}
	h := xxhash.Sum64(b)
	if s, ok := d.keys[h]; ok && s == string(b) {
		return s
	}
	s := string(b)
	if len(d.keys) < keyCacheSlots {
		d.keys[h] = s
	}
	return s
}

// stringBytes parses the string starting at the '"' at d.pos and returns its
// contents.  The returned slice aliases either the input or d.scratch and is
// only valid until the next parse step; callers convert or intern it
// immediately.
func (d *decodeState) stringBytes() ([]byte, error) {
	data := d.data
	start := d.pos + 1
	i := start
	for i < len(data) {
		c := data[i]
		switch {
		case c == '"':
			d.pos = i + 1
			return data[start:i], nil
		case c == '\\':
			return d.stringSlow(start, i)
		case c < 0x20:
			return nil, d.errorAt("invalid control character in string", i)
		case c < utf8.RuneSelf:
			i++
		default:
			r, size := utf8.DecodeRune(data[i:])
			if r == utf8.RuneError && size == 1 {
				// Rejects overlong forms and raw-encoded surrogates.
				return nil, d.errorAt("invalid UTF-8 in string", i)
			}
			i += size
		}
	}
	return nil, d.errorAt("unexpected end of string", len(data))
}

// stringSlow continues string parsing from the first backslash, unescaping
// into the scratch buffer.
func (d *decodeState) stringSlow(start, i int) ([]byte, error) {
	data := d.data
	buf := append(d.scratch[:0], data[start:i]...)
	for i < len(data) {
		c := data[i]
		switch {
		case c == '"':
			d.pos = i + 1
			d.scratch = buf
			return buf, nil
		case c == '\\':
			var err error
			buf, i, err = d.unescape(buf, i)
			if err != nil {
				return nil, err
			}
		case c < 0x20:
			return nil, d.errorAt("invalid control character in string", i)
		case c < utf8.RuneSelf:
			buf = append(buf, c)
			i++
		default:
			r, size := utf8.DecodeRune(data[i:])
			if r == utf8.RuneError && size == 1 {
				return nil, d.errorAt("invalid UTF-8 in string", i)
			}
			buf = append(buf, data[i:i+size]...)
			i += size
		}
	}
	return nil, d.errorAt("unexpected end of string", len(data))
}

// unescape handles the escape sequence at data[i] and returns the position
// after it.
func (d *decodeState) unescape(buf []byte, i int) ([]byte, int, error) {
	data := d.data
	if i+1 >= len(data) {
		return nil, 0, d.errorAt("unexpected end of string", len(data))
	}
	switch data[i+1] {
	case '"':
		return append(buf, '"'), i + 2, nil
	case '\\':
		return append(buf, '\\'), i + 2, nil
	case '/':
		return append(buf, '/'), i + 2, nil
	case 'b':
		return append(buf, '\b'), i + 2, nil
	case 'f':
		return append(buf, '\f'), i + 2, nil
	case 'n':
		return append(buf, '\n'), i + 2, nil
	case 'r':
		return append(buf, '\r'), i + 2, nil
	case 't':
		return append(buf, '\t'), i + 2, nil
	case 'u':
		if i+6 > len(data) {
			return nil, 0, d.errorAt("unexpected end of string", len(data))
		}
		u1, ok := hex4(data[i+2 : i+6])
		if !ok {
			return nil, 0, d.errorAt("invalid \\u escape", i)
		}
		if utf16.IsSurrogate(u1) {
			if u1 >= 0xDC00 {
				return nil, 0, d.errorAt("unpaired low surrogate", i)
			}
			if i+12 > len(data) || data[i+6] != '\\' || data[i+7] != 'u' {
				return nil, 0, d.errorAt("unpaired high surrogate", i)
			}
			u2, ok := hex4(data[i+8 : i+12])
			if !ok || u2 < 0xDC00 || u2 > 0xDFFF {
				return nil, 0, d.errorAt("unpaired high surrogate", i)
			}
			return utf8.AppendRune(buf, utf16.DecodeRune(u1, u2)), i + 12, nil
		}
		return utf8.AppendRune(buf, u1), i + 6, nil
	default:
		return nil, 0, d.errorAt("invalid escape", i)
	}
}

func hex4(b []byte) (rune, bool) {
	var r rune
	for _, c := range b {
		r <<= 4
		switch {
		case c >= '0' && c <= '9':
			r |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			r |= rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			r |= rune(c-'A') + 10
		default:
			return 0, false
		}
	}
	return r, true
}

// number parses the numeric literal at d.pos.  Integers that fit int64 or
// uint64 are preserved exactly; anything larger is an error rather than a
// silent float conversion.
func (d *decodeState) number() (any, error) {
	data := d.data
	start := d.pos
	i := d.pos
	if data[i] == '-' {
		i++
	}

	// Integer part: a single zero or a nonzero digit run.
	if i >= len(data) || data[i] < '0' || data[i] > '9' {
		return nil, d.errorAt("invalid number", start)
	}
	if data[i] == '0' {
		i++
	} else {
		for i < len(data) && data[i] >= '0' && data[i] <= '9' {
			i++
		}
	}

	isFloat := false
	if i < len(data) && data[i] == '.' {
		isFloat = true
		i++
		digits := 0
		for i < len(data) && data[i] >= '0' && data[i] <= '9' {
			i++
			digits++
		}
		if digits == 0 {
			return nil, d.errorAt("invalid number", start)
		}
	}
	if i < len(data) && (data[i] == 'e' || data[i] == 'E') {
		isFloat = true
		i++
		if i < len(data) && (data[i] == '+' || data[i] == '-') {
			i++
		}
		digits := 0
		for i < len(data) && data[i] >= '0' && data[i] <= '9' {
			i++
			digits++
		}
		if digits == 0 {
			return nil, d.errorAt("invalid number", start)
		}
	}

	lit := string(data[start:i])
	d.pos = i

	if !isFloat {
		if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return n, nil
		}
		if lit[0] != '-' {
			if u, err := strconv.ParseUint(lit, 10, 64); err == nil {
				return u, nil
			}
		}
		return nil, d.errorAt("number out of range", start)
	}

	f, err := strconv.ParseFloat(lit, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, d.errorAt("invalid number", start)
	}
	return f, nil
}
