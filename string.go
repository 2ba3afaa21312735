package hyperjson

import "unicode/utf8"

const hexDigits = "0123456789abcdef"

// needEscape marks ASCII bytes that cannot appear verbatim inside a JSON
// string: the quote, the backslash, and all control characters.
var needEscape [utf8.RuneSelf]bool

func init() {
	for c := 0; c < 0x20; c++ {
		needEscape[c] = true
	}
	needEscape['"'] = true
	needEscape['\\'] = true
}

// appendString appends s as a quoted JSON string.  Control characters use
// the short escapes where JSON defines them and \u00xx otherwise.  Input
// must be valid UTF-8; any surrogate or malformed sequence is a hard error,
// never a lossy substitution.
func appendString(dst []byte, s string) ([]byte, error) {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(s); {
		if b := s[i]; b < utf8.RuneSelf {
			if !needEscape[b] {
				i++
				continue
			}
			dst = append(dst, s[start:i]...)
			switch b {
			case '"':
				dst = append(dst, '\\', '"')
			case '\\':
				dst = append(dst, '\\', '\\')
			case '\b':
				dst = append(dst, '\\', 'b')
			case '\f':
				dst = append(dst, '\\', 'f')
			case '\n':
				dst = append(dst, '\\', 'n')
			case '\r':
				dst = append(dst, '\\', 'r')
			case '\t':
				dst = append(dst, '\\', 't')
			default:
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[b>>4], hexDigits[b&0xf])
			}
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return nil, newEncodeError("str is not valid UTF-8: surrogates not allowed")
		}
		i += size
	}
	dst = append(dst, s[start:]...)
	return append(dst, '"'), nil
}
