package hyperjson

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// maxEncodeDepth bounds container nesting on the encode side, which also
	// terminates encoding of cyclic value graphs.
	maxEncodeDepth = 1024

	// maxDefaultDepth bounds nested fallback invocations, so a fallback that
	// keeps returning unsupported values terminates with an error.
	maxDefaultDepth = 254
)

// DefaultFunc is the fallback invoked for a value of a type the encoder does
// not natively understand.  Its result is re-encoded under the same rules.
// An error return, or an unencodable result, surfaces as *EncodeError.
type DefaultFunc func(v any) (any, error)

// encodeState holds all per-call working memory for one Marshal.  States are
// pooled and checked out exclusively, so concurrent and reentrant calls never
// share an output buffer.
type encodeState struct {
	buf      []byte
	opt      Opt
	def      DefaultFunc
	depth    int
	fallback int
}

var encodePool = sync.Pool{
	New: func() any { return &encodeState{buf: make([]byte, 0, 1024)} },
}

func marshal(v any, def DefaultFunc, opt Opt) ([]byte, error) {
	// Option validation happens before any encoding work.
	if opt < 0 || opt >= optAll {
		return nil, newEncodeError("Invalid opts")
	}

	e := encodePool.Get().(*encodeState)
	e.buf = e.buf[:0]
	e.opt = opt
	e.def = def
	e.depth = 0
	e.fallback = 0

	err := e.encode(v)

	var out []byte
	if err == nil {
		if opt&OptAppendNewline != 0 {
			e.buf = append(e.buf, '\n')
		}
		out = make([]byte, len(e.buf))
		copy(out, e.buf)
	}

	e.def = nil
	if cap(e.buf) > 1<<20 {
		e.buf = make([]byte, 0, 1024)
	}
	encodePool.Put(e)

	if err != nil {
		return nil, err
	}
	return out, nil
}

// encode dispatches on the concrete type of v.  The probe order is closed
// and deterministic: the common scalar and container types first, then the
// unlikely types, then reflection for named types, then the fallback.
func (e *encodeState) encode(v any) error {
	switch x := v.(type) {
	case nil:
		e.buf = append(e.buf, "null"...)
	case string:
		var err error
		e.buf, err = appendString(e.buf, x)
		return err
	case bool:
		if x {
			e.buf = append(e.buf, "true"...)
		} else {
			e.buf = append(e.buf, "false"...)
		}
	case int:
		return e.appendInt(int64(x))
	case int64:
		return e.appendInt(x)
	case int32:
		return e.appendInt(int64(x))
	case int16:
		return e.appendInt(int64(x))
	case int8:
		return e.appendInt(int64(x))
	case uint:
		return e.appendUint(uint64(x))
	case uint64:
		return e.appendUint(x)
	case uint32:
		return e.appendUint(uint64(x))
	case uint16:
		return e.appendUint(uint64(x))
	case uint8:
		return e.appendUint(uint64(x))
	case float64:
		e.appendFloat(x)
	case float32:
		e.appendFloat32(x)
	case []any:
		return e.encodeArray(x)
	case map[string]any:
		return e.encodeMap(x)
	case Object:
		return e.encodeMembers(x, true)
	case time.Time:
		if e.opt&OptPassthroughDatetime != 0 {
			return e.encodeDefault(x)
		}
		e.encodeTime(x)
	case uuid.UUID:
		e.buf = append(e.buf, '"')
		e.buf = append(e.buf, x.String()...)
		e.buf = append(e.buf, '"')
	case Fragment:
		// Spliced verbatim; the caller vouches for validity.
		e.buf = append(e.buf, x...)
	case []byte:
		return newEncodeError("Type is not JSON serializable: []byte")
	default:
		return e.encodeReflect(v)
	}
	return nil
}

func (e *encodeState) pretty() bool { return e.opt&OptIndent2 != 0 }

func (e *encodeState) newlineIndent() {
	e.buf = append(e.buf, '\n')
	for i := 0; i < e.depth; i++ {
		e.buf = append(e.buf, ' ', ' ')
	}
}

func (e *encodeState) encodeArray(a []any) error {
	e.depth++
	if e.depth > maxEncodeDepth {
		return newEncodeError("Recursion limit reached")
	}
	e.buf = append(e.buf, '[')
	if len(a) == 0 {
		e.buf = append(e.buf, ']')
		e.depth--
		return nil
	}
	for i, v := range a {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		if e.pretty() {
			e.newlineIndent()
		}
		if err := e.encode(v); err != nil {
			return err
		}
	}
	e.depth--
	if e.pretty() {
		e.newlineIndent()
	}
	e.buf = append(e.buf, ']')
	return nil
}

// encodeMembers writes an object from ordered members.  sortable objects
// honor OptSortKeys; members synthesized from maps or structs arrive in
// their fixed order and are not re-sorted.
func (e *encodeState) encodeMembers(obj Object, sortable bool) error {
	e.depth++
	if e.depth > maxEncodeDepth {
		return newEncodeError("Recursion limit reached")
	}
	e.buf = append(e.buf, '{')
	if len(obj) == 0 {
		e.buf = append(e.buf, '}')
		e.depth--
		return nil
	}
	if sortable && e.opt&OptSortKeys != 0 {
		sorted := make(Object, len(obj))
		copy(sorted, obj)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
		obj = sorted
	}
	for i := range obj {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		if e.pretty() {
			e.newlineIndent()
		}
		var err error
		e.buf, err = appendString(e.buf, obj[i].Key)
		if err != nil {
			return err
		}
		if e.pretty() {
			e.buf = append(e.buf, ':', ' ')
		} else {
			e.buf = append(e.buf, ':')
		}
		if err := e.encode(obj[i].Value); err != nil {
			return err
		}
	}
	e.depth--
	if e.pretty() {
		e.newlineIndent()
	}
	e.buf = append(e.buf, '}')
	return nil
}

// encodeMap emits a built-in map with its keys sorted.  Go map iteration is
// randomized, and encode output must be byte-identical across calls.
func (e *encodeState) encodeMap(m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	obj := make(Object, len(keys))
	for i, k := range keys {
		obj[i] = Member{Key: k, Value: m[k]}
	}
	return e.encodeMembers(obj, false)
}

// encodeTime writes t as ISO 8601 with a numeric offset, microseconds only
// when present.
func (e *encodeState) encodeTime(t time.Time) {
	if e.opt&OptNaiveUTC != 0 && t.Location() == time.Local {
		y, mo, d := t.Date()
		h, mi, s := t.Clock()
		t = time.Date(y, mo, d, h, mi, s, t.Nanosecond(), time.UTC)
	}
	e.buf = append(e.buf, '"')
	e.buf = t.AppendFormat(e.buf, "2006-01-02T15:04:05")
	if us := t.Nanosecond() / 1000; us != 0 && e.opt&OptOmitMicroseconds == 0 {
		e.buf = append(e.buf, '.')
		e.buf = appendPadded(e.buf, us, 6)
	}
	_, off := t.Zone()
	if off == 0 && e.opt&OptUTCZ != 0 {
		e.buf = append(e.buf, 'Z')
	} else {
		sign := byte('+')
		if off < 0 {
			sign = '-'
			off = -off
		}
		e.buf = append(e.buf, sign)
		e.buf = appendPadded(e.buf, off/3600, 2)
		e.buf = append(e.buf, ':')
		e.buf = appendPadded(e.buf, (off%3600)/60, 2)
	}
	e.buf = append(e.buf, '"')
}

func appendPadded(dst []byte, n, width int) []byte {
	var tmp [8]byte
	i := len(tmp)
	for n > 0 {
		i--
		tmp[i] = byte('0' + n%10)
		n /= 10
	}
	for pad := width - (len(tmp) - i); pad > 0; pad-- {
		dst = append(dst, '0')
	}
	return append(dst, tmp[i:]...)
}

// encodeReflect handles named types: named basic kinds encode like their
// underlying kind, structs encode their exported fields in declaration
// order, string-keyed maps encode natively, and typed numeric slices are
// gated behind OptSerializeNumeric.  Anything else goes to the fallback.
func (e *encodeState) encodeReflect(v any) error {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			e.buf = append(e.buf, "true"...)
		} else {
			e.buf = append(e.buf, "false"...)
		}
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.appendInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return e.appendUint(rv.Uint())
	case reflect.Float32:
		e.appendFloat32(float32(rv.Float()))
		return nil
	case reflect.Float64:
		e.appendFloat(rv.Float())
		return nil
	case reflect.String:
		var err error
		e.buf, err = appendString(e.buf, rv.String())
		return err
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			e.buf = append(e.buf, "null"...)
			return nil
		}
		return e.encode(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		elem := rv.Type().Elem().Kind()
		if elem == reflect.Uint8 && rv.Kind() == reflect.Slice {
			return newEncodeError(fmt.Sprintf("Type is not JSON serializable: %T", v))
		}
		if isNumericKind(elem) && e.opt&OptSerializeNumeric == 0 {
			return e.encodeDefault(v)
		}
		arr := make([]any, rv.Len())
		for i := range arr {
			arr[i] = rv.Index(i).Interface()
		}
		return e.encodeArray(arr)
	case reflect.Map:
		return e.encodeReflectMap(rv, v)
	case reflect.Struct:
		return e.encodeStruct(rv)
	default:
		return e.encodeDefault(v)
	}
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func (e *encodeState) encodeReflectMap(rv reflect.Value, v any) error {
	keyKind := rv.Type().Key().Kind()
	if keyKind != reflect.String && e.opt&OptNonStrKeys == 0 {
		return newEncodeError("Dict key must be str")
	}
	obj := make(Object, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key()
		var key string
		switch keyKind {
		case reflect.String:
			key = k.String()
		case reflect.Bool:
			key = strconv.FormatBool(k.Bool())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			key = strconv.FormatInt(k.Int(), 10)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			key = strconv.FormatUint(k.Uint(), 10)
		case reflect.Float32, reflect.Float64:
			key = strconv.FormatFloat(k.Float(), 'g', -1, 64)
		default:
			return newEncodeError(fmt.Sprintf("Dict key must be str, not %s", rv.Type().Key()))
		}
		obj = append(obj, Member{Key: key, Value: iter.Value().Interface()})
	}
	sort.Slice(obj, func(i, j int) bool { return obj[i].Key < obj[j].Key })
	return e.encodeMembers(obj, false)
}

// encodeStruct emits exported fields in declaration order.  A `json` tag
// renames a field; "-" omits it.
func (e *encodeState) encodeStruct(rv reflect.Value) error {
	t := rv.Type()
	obj := make(Object, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		obj = append(obj, Member{Key: name, Value: rv.Field(i).Interface()})
	}
	return e.encodeMembers(obj, false)
}

func (e *encodeState) encodeDefault(v any) error {
	if e.def == nil {
		return newEncodeError(fmt.Sprintf("Type is not JSON serializable: %T", v))
	}
	if e.fallback >= maxDefaultDepth {
		return newEncodeError("default serializer exceeds recursion limit")
	}
	e.fallback++
	defer func() { e.fallback-- }()
	nv, err := e.def(v)
	if err != nil {
		return &EncodeError{msg: fmt.Sprintf("Type is not JSON serializable: %T", v), err: err}
	}
	return e.encode(nv)
}
