package hyperjson

// Member is a single key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is an insertion-ordered JSON object.  Unmarshal produces Objects so
// that re-encoding a document preserves the key order it was read with.
// Duplicate keys in input collapse to a single member at the position of the
// first occurrence, holding the last value.
type Object []Member

// Get returns the value for key and whether the key is present.
func (o Object) Get(key string) (any, bool) {
	for i := range o {
		if o[i].Key == key {
			return o[i].Value, true
		}
	}
	return nil, false
}

// Fragment is a pre-serialized span of JSON spliced into encoder output
// byte-for-byte with no validation or escaping.  The caller is responsible
// for supplying valid JSON.  The bytes are only borrowed for the duration of
// the Marshal call.
type Fragment []byte
