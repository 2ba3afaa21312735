package hyperjson

// Opt is a bitset of independent encoder behavior flags.  Flags combine with
// bitwise OR and never interfere with one another.  MarshalOpt rejects values
// outside 0..optAll before doing any encoding work.
type Opt int64

const (
	// OptIndent2 pretty-prints with two-space indentation and ": " / ",\n"
	// separators instead of the compact default.
	OptIndent2 Opt = 1 << 0

	// OptNaiveUTC treats a wall-clock time in time.Local as UTC when
	// serializing, instead of using the host zone offset.
	OptNaiveUTC Opt = 1 << 1

	// OptNonStrKeys encodes maps whose keys are integers, unsigned integers,
	// floats or bools by stringifying the keys.  Without it such maps are an
	// encode error.
	OptNonStrKeys Opt = 1 << 2

	// OptOmitMicroseconds drops the subsecond component from time output.
	OptOmitMicroseconds Opt = 1 << 3

	// OptPassthroughDatetime routes time.Time values to the fallback
	// function instead of encoding them as ISO 8601.
	OptPassthroughDatetime Opt = 1 << 5

	// OptSerializeNumeric encodes typed numeric slices and arrays
	// ([]float64, []int32, ...) as JSON arrays.  Without it they are handed
	// to the fallback function.
	OptSerializeNumeric Opt = 1 << 7

	// OptSortKeys emits Object members sorted by key.  Built-in maps are
	// always emitted key-sorted regardless of this flag.
	OptSortKeys Opt = 1 << 8

	// OptStrictInteger rejects integers whose magnitude exceeds 2^53-1, the
	// largest range a double represents exactly.
	OptStrictInteger Opt = 1 << 9

	// OptUTCZ writes a UTC offset as "Z" rather than "+00:00".
	OptUTCZ Opt = 1 << 10

	// OptAppendNewline appends a single '\n' after the document.
	OptAppendNewline Opt = 1 << 11
)

// Bits 1<<4 and 1<<6 are reserved.  optAll bounds the accepted option range.
const optAll Opt = 1 << 12
