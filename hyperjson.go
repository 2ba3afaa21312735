// Copyright 2025 the hyperjson authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package hyperjson

// Version is the library version.
const Version = "1.0.0"

// Unmarshal parses a complete JSON document and returns its value tree:
// nil, bool, int64, uint64, float64, string, []any or Object.  Leading and
// trailing whitespace is permitted; any other trailing content is an error.
// Failures are reported as *DecodeError.
func Unmarshal(data []byte) (any, error) {
	return unmarshal(data)
}

// UnmarshalString is Unmarshal for text input.
func UnmarshalString(data string) (any, error) {
	return unmarshal([]byte(data))
}

// Marshal encodes v as compact UTF-8 JSON bytes with default behavior.
// Failures are reported as *EncodeError, and no partial output is ever
// returned.
func Marshal(v any) ([]byte, error) {
	return marshal(v, nil, 0)
}

// MarshalOpt encodes v with a fallback function for unsupported types and an
// Opt bitset.  def may be nil and opt may be zero; an opt outside the valid
// flag range is an *EncodeError before any encoding work begins.
func MarshalOpt(v any, def DefaultFunc, opt Opt) ([]byte, error) {
	return marshal(v, def, opt)
}
