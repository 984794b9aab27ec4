// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package document defines the canonical tree that every prototype front end
// produces. A Document is one of Object, Array, Null, Bool, Int, Long, Double,
// String or Opaque, and the kind of a scalar is fixed at conversion time so
// that downstream deserializers can discriminate on it.
//
// # Ordering
//
// Object keeps its keys in first-insertion order. Re-setting an existing key
// replaces the value in place. JSON output follows the same order, which keeps
// fixtures stable across runs.
//
// # cty bridge
//
// FromCty and ToCty translate between Documents and go-cty values. The HCL
// front end evaluates `data` expressions to cty and converts them with FromCty;
// ToCty exposes already loaded prototypes to HCL expressions, and Decode binds
// a Document onto a Go struct through gocty.
package document
