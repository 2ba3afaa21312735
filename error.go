package hyperjson

import (
	"fmt"
	"unicode/utf8"
)

// DecodeError records a failure to parse JSON input.  Line and Column are
// 1-based; Char is the 0-based character (rune) offset of the failure.
type DecodeError struct {
	msg    string
	Line   int
	Column int
	Char   int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: line %d column %d (char %d)", e.msg, e.Line, e.Column, e.Char)
}

// EncodeError records a failure to serialize a value.  It may wrap an error
// returned by a fallback function.
type EncodeError struct {
	msg string
	err error
}

func (e *EncodeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *EncodeError) Unwrap() error { return e.err }

// newDecodeError locates the byte offset pos within data and fills in the
// human-readable position.  The character offset counts runes, not bytes, so
// positions line up with text editors rather than buffers.
func newDecodeError(msg string, data []byte, pos int) *DecodeError {
	if pos > len(data) {
		pos = len(data)
	}
	line := 1
	col := 1
	char := 0
	for i := 0; i < pos; {
		r, size := utf8.DecodeRune(data[i:])
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		char++
		if size == 0 {
			break
		}
		i += size
	}
	return &DecodeError{msg: msg, Line: line, Column: col, Char: char}
}

func newEncodeError(msg string) *EncodeError { return &EncodeError{msg: msg} }
