package hyperjson

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// naiveTime builds a wall-clock time in time.Local, the closest Go analog of
// a zone-naive timestamp.
func naiveTime(y int, mo time.Month, d, h, mi, s int) time.Time {
	return time.Date(y, mo, d, h, mi, s, 0, time.Local)
}

type decodeTestCase struct {
	label  string
	input  string
	want   any
	errStr string
}

func testDecode(t *testing.T, cases []decodeTestCase) {
	t.Helper()

	for _, c := range cases {
		c := c
		t.Run(c.label, func(t *testing.T) {
			t.Parallel()

			got, err := UnmarshalString(c.input)
			if c.errStr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), c.errStr)
				var de *DecodeError
				require.ErrorAs(t, err, &de)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("decoded value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type encodeTestCase struct {
	label  string
	value  any
	opt    Opt
	want   string
	errStr string
}

func testEncode(t *testing.T, cases []encodeTestCase) {
	t.Helper()

	for _, c := range cases {
		c := c
		t.Run(c.label, func(t *testing.T) {
			t.Parallel()

			got, err := MarshalOpt(c.value, nil, c.opt)
			if c.errStr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), c.errStr)
				var ee *EncodeError
				require.ErrorAs(t, err, &ee)
				require.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, c.want, string(got))
		})
	}
}

// roundTrip encodes v, decodes the result, and returns the re-decoded value.
func roundTrip(t *testing.T, v any) any {
	t.Helper()
	data, err := Marshal(v)
	require.NoError(t, err)
	got, err := Unmarshal(data)
	require.NoError(t, err)
	return got
}
