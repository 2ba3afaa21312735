package hyperjson

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeErrorAs(t *testing.T) {
	t.Parallel()

	_, err := Unmarshal([]byte(`{,}`))
	require.Error(t, err)
	wrapped := fmt.Errorf("wrapped: %w", err)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	require.True(t, errors.As(wrapped, &de))
}

func TestDecodeErrorPosition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		label              string
		input              string
		line, column, char int
	}{
		{"first line", "[NaN]", 1, 2, 1},
		{"after newline", "{}\n\t a", 2, 3, 5},
		{"multibyte offset", `["東京", NaN]`, 1, 8, 7},
	}
	for _, c := range cases {
		c := c
		t.Run(c.label, func(t *testing.T) {
			t.Parallel()
			_, err := UnmarshalString(c.input)
			var de *DecodeError
			require.ErrorAs(t, err, &de)
			require.Equal(t, c.line, de.Line)
			require.Equal(t, c.column, de.Column)
			require.Equal(t, c.char, de.Char)
			require.Contains(t, de.Error(),
				fmt.Sprintf("line %d column %d (char %d)", c.line, c.column, c.char))
		})
	}
}

func TestEncodeErrorAs(t *testing.T) {
	t.Parallel()

	_, err := Marshal(make(chan int))
	require.Error(t, err)

	var ee *EncodeError
	require.True(t, errors.As(err, &ee))
	require.Contains(t, ee.Error(), "Type is not JSON serializable")
}

func TestEncodeErrorUnwrap(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("fallback refused")
	def := func(v any) (any, error) { return nil, sentinel }
	_, err := MarshalOpt(complex(1, 2), def, 0)

	var ee *EncodeError
	require.ErrorAs(t, err, &ee)
	require.ErrorIs(t, err, sentinel)
}
