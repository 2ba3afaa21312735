// Copyright 2025 the hyperjson authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package hyperjson is a fast, strict, whole-document JSON codec.  It decodes
// UTF-8 JSON text into a dynamic value tree and encodes Go values back to
// UTF-8 JSON bytes.  Only strict RFC 8259 JSON is accepted: NaN and Infinity
// literals, lone surrogates, invalid UTF-8, unescaped control characters and
// trailing content are all errors.
//
// Decoding
//
// Unmarshal and UnmarshalString convert a complete JSON document into a value
// tree built from nil, bool, int64, uint64, float64, string, []any and
// Object.  JSON objects decode to Object, an insertion-ordered member slice,
// so a document re-encodes with its keys in the order they were read.
// Container nesting is limited to 1024 levels and is enforced with an
// explicit depth counter, so pathological inputs fail fast instead of
// exhausting the stack.  Decode failures are reported as *DecodeError with
// the line, column and character offset of the offending input.
//
// Encoding
//
// Marshal encodes with default behavior.  MarshalOpt additionally takes a
// fallback function for unsupported types and an Opt bitset of independent
// behavior flags (pretty-printing, key sorting, strict 53-bit integers,
// datetime handling and others).  Floats are written in their shortest
// round-tripping decimal form; non-finite floats encode as null.  Encode
// failures are reported as *EncodeError and never produce partial output.
//
// Every call is self-contained: scratch buffers are pooled but checked out
// exclusively per call, so the package is safe for concurrent use and for
// reentrant use from inside a fallback function.
package hyperjson
