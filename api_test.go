package hyperjson

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const loadsRecursionLimit = 1024

func TestVersion(t *testing.T) {
	t.Parallel()
	require.Regexp(t, regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`), Version)
}

func TestUnmarshalTrailingWhitespace(t *testing.T) {
	t.Parallel()
	got, err := UnmarshalString("{}\n\t ")
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(Object{}, got))
}

func TestUnmarshalTrailingInvalid(t *testing.T) {
	t.Parallel()
	_, err := UnmarshalString("{}\n\t a")
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestSimpleRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   any
		want any
	}{
		{int64(1), int64(1)},
		{1.0, 1.0},
		{int64(-1), int64(-1)},
		{nil, nil},
		{"str", "str"},
		{true, true},
		{false, false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, roundTrip(t, c.in))
	}
}

func TestRecursionLimitArray(t *testing.T) {
	t.Parallel()

	// Exactly at the limit succeeds.
	ok := strings.Repeat("[", loadsRecursionLimit) + strings.Repeat("]", loadsRecursionLimit)
	_, err := UnmarshalString(ok)
	require.NoError(t, err)

	// One level beyond fails.
	n := loadsRecursionLimit + 1
	bad := strings.Repeat("[", n) + strings.Repeat("]", n)
	_, err = UnmarshalString(bad)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestRecursionLimitPartial(t *testing.T) {
	t.Parallel()

	// Millions of opening brackets with no close: the depth counter must
	// short-circuit long before the input is consumed.
	_, err := UnmarshalString(strings.Repeat("[", 1024*1024))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Contains(t, err.Error(), "recursion limit exceeded")
}

func TestRecursionLimitObject(t *testing.T) {
	t.Parallel()

	n := loadsRecursionLimit
	bad := strings.Repeat(`{"key":`, n) + `{"key":true}` + strings.Repeat("}", n)
	_, err := UnmarshalString(bad)
	var de *DecodeError
	require.ErrorAs(t, err, &de)

	ok := strings.Repeat(`{"key":`, n-1) + `{"key":true}` + strings.Repeat("}", n-1)
	_, err = UnmarshalString(ok)
	require.NoError(t, err)
}

func TestRecursionLimitMixed(t *testing.T) {
	t.Parallel()

	n := loadsRecursionLimit
	bad := "[" + strings.Repeat(`{"key":`, n) + `{"key":true}` + strings.Repeat("}", n) + "]"
	_, err := UnmarshalString(bad)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestRecursionLimitPretty(t *testing.T) {
	t.Parallel()

	// The limit counts containers, not tokens: interleaved pretty
	// whitespace must not change where it triggers.
	n := loadsRecursionLimit + 1
	bad := strings.Repeat("[\n  ", n) + strings.Repeat("]", n)
	_, err := UnmarshalString(bad)
	var de *DecodeError
	require.ErrorAs(t, err, &de)

	objBad := strings.Repeat("{\n  \"key\":", loadsRecursionLimit) + `{"key":true}` +
		strings.Repeat("}", loadsRecursionLimit)
	_, err = UnmarshalString(objBad)
	require.ErrorAs(t, err, &de)

	ok := strings.Repeat("[\n  ", loadsRecursionLimit) + strings.Repeat("]", loadsRecursionLimit)
	_, err = UnmarshalString(ok)
	require.NoError(t, err)
}

func TestOptionValidation(t *testing.T) {
	t.Parallel()

	for _, opt := range []Opt{-1, 1 << 12, 1 << 40} {
		_, err := MarshalOpt(true, nil, opt)
		var ee *EncodeError
		require.ErrorAs(t, err, &ee, "opt %d", opt)
		require.Equal(t, "Invalid opts", ee.Error())
	}

	// Every combination inside the flag range is accepted.
	for _, opt := range []Opt{0, optAll - 1, OptIndent2 | OptAppendNewline} {
		_, err := MarshalOpt([]any{}, nil, opt)
		require.NoError(t, err, "opt %d", opt)
	}
}

func TestOptsMultiple(t *testing.T) {
	t.Parallel()

	out, err := MarshalOpt(
		[]any{int64(1), naiveTime(2000, 1, 1, 2, 3, 4)},
		nil,
		OptStrictInteger|OptNaiveUTC,
	)
	require.NoError(t, err)
	require.Equal(t, `[1,"2000-01-01T02:03:04+00:00"]`, string(out))
}

func TestMarshalBufferGrowth(t *testing.T) {
	t.Parallel()

	// Single values larger than any initial buffer capacity: growth must
	// not truncate or corrupt across boundaries.
	a := strings.Repeat("a", 900)
	b := strings.Repeat("b", 4096)
	c := strings.Repeat("c", 4096*4096)
	out, err := Marshal([]any{a, b, c})
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf(`["%s","%s","%s"]`, a, b, c), string(out))
}

func TestMarshalIdempotent(t *testing.T) {
	t.Parallel()

	values := []any{
		Object{{Key: "z", Value: int64(1)}, {Key: "a", Value: []any{true, nil}}},
		map[string]any{"gamma": 1.5, "alpha": "x", "beta": []any{int64(1)}},
	}
	for _, v := range values {
		first, err := Marshal(v)
		require.NoError(t, err)
		for i := 0; i < 8; i++ {
			again, err := Marshal(v)
			require.NoError(t, err)
			require.Equal(t, first, again)
		}
	}
}

func TestUnmarshalStringAndBytesAgree(t *testing.T) {
	t.Parallel()

	doc := `{"a":[1,2.5,"x"],"b":null}`
	fromString, err := UnmarshalString(doc)
	require.NoError(t, err)
	fromBytes, err := Unmarshal([]byte(doc))
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(fromString, fromBytes))
}
