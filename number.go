package hyperjson

import (
	"math"
	"strconv"
	"strings"
)

// maxSafeInteger is the largest integer magnitude a double represents
// exactly, 2^53-1.  OptStrictInteger rejects anything beyond it.
const maxSafeInteger = 1<<53 - 1

func (e *encodeState) appendInt(n int64) error {
	if e.opt&OptStrictInteger != 0 && (n > maxSafeInteger || n < -maxSafeInteger) {
		return newEncodeError("Integer exceeds 53-bit range")
	}
	e.buf = strconv.AppendInt(e.buf, n, 10)
	return nil
}

func (e *encodeState) appendUint(n uint64) error {
	if e.opt&OptStrictInteger != 0 && n > maxSafeInteger {
		return newEncodeError("Integer exceeds 53-bit range")
	}
	e.buf = strconv.AppendUint(e.buf, n, 10)
	return nil
}

// appendFloat writes the shortest decimal that round-trips to f.  Fixed
// notation is used for magnitudes in [1e-4, 1e16) and scientific notation
// outside it; strconv's own 'g' cutover is much lower and would put a
// seven-digit integer part into scientific form.  Integral results get a
// ".0" suffix so they re-decode as floats.  Non-finite values encode as
// null; the encoder never emits non-finite literal tokens.
func (e *encodeState) appendFloat(f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		e.buf = append(e.buf, "null"...)
		return
	}
	start := len(e.buf)
	e.buf = strconv.AppendFloat(e.buf, f, floatFormat(f), -1, 64)
	if !strings.ContainsAny(string(e.buf[start:]), ".eE") {
		e.buf = append(e.buf, '.', '0')
	}
}

// appendFloat32 is appendFloat at single precision, so float32 values print
// their own shortest form rather than the float64 expansion.
func (e *encodeState) appendFloat32(f float32) {
	f64 := float64(f)
	if math.IsNaN(f64) || math.IsInf(f64, 0) {
		e.buf = append(e.buf, "null"...)
		return
	}
	start := len(e.buf)
	e.buf = strconv.AppendFloat(e.buf, f64, floatFormat(f64), -1, 32)
	if !strings.ContainsAny(string(e.buf[start:]), ".eE") {
		e.buf = append(e.buf, '.', '0')
	}
}

func floatFormat(f float64) byte {
	if abs := math.Abs(f); abs == 0 || (abs >= 1e-4 && abs < 1e16) {
		return 'f'
	}
	return 'e'
}
