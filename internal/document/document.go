package document

import (
	"fmt"
	"math"
)

// Kind discriminates the variants of a Document.
type Kind int

const (
	KindObject Kind = iota
	KindArray
	KindNull
	KindBool
	KindInt
	KindLong
	KindDouble
	KindString
	KindOpaque
)

var kindNames = [...]string{"object", "array", "null", "bool", "int", "long", "double", "string", "opaque"}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Document is a node of the canonical tree.
type Document interface {
	Kind() Kind
	MarshalJSON() ([]byte, error)
}

// Array is an ordered sequence of Documents.
type Array []Document

// Null is the absent value.
type Null struct{}

// Bool is a boolean scalar.
type Bool bool

// Int is a number that fits in 32 bits.
type Int int32

// Long is an integral number that needs 64 bits.
type Long int64

// Double is any other number.
type Double float64

// String is a text scalar.
type String string

// Opaque carries a host value through the tree without interpretation.
type Opaque struct {
	Value any
}

func (*Object) Kind() Kind { return KindObject }
func (Array) Kind() Kind   { return KindArray }
func (Null) Kind() Kind    { return KindNull }
func (Bool) Kind() Kind    { return KindBool }
func (Int) Kind() Kind     { return KindInt }
func (Long) Kind() Kind    { return KindLong }
func (Double) Kind() Kind  { return KindDouble }
func (String) Kind() Kind  { return KindString }
func (Opaque) Kind() Kind  { return KindOpaque }

// Number classifies a numeric value. Integral values inside the 32-bit range
// become Int, other integral values inside the 64-bit range become Long, and
// everything else (fractions, NaN, infinities, huge magnitudes) is a Double.
// The order of the checks is significant: 3.0 is an Int, not a Double.
func Number(f float64) Document {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		if f >= math.MinInt32 && f <= math.MaxInt32 {
			return Int(int32(f))
		}
		// 2^63 is the first float64 outside the int64 range.
		if f >= math.MinInt64 && f < 1<<63 {
			return Long(int64(f))
		}
	}
	return Double(f)
}

// Object is a string-keyed mapping that remembers first-insertion order.
type Object struct {
	keys   []string
	values map[string]Document
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]Document)}
}

// Set stores v under key. An existing key keeps its position.
func (o *Object) Set(key string, v Document) {
	if o.values == nil {
		o.values = make(map[string]Document)
	}
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Document, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in insertion order. The slice is a copy.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// Range calls fn for every entry in insertion order until fn returns false.
func (o *Object) Range(fn func(key string, v Document) bool) {
	for _, k := range o.keys {
		if !fn(k, o.values[k]) {
			return
		}
	}
}

// Equal reports whether both objects hold equal entries in the same order.
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}
	if len(o.keys) != len(other.keys) {
		return false
	}
	for i, k := range o.keys {
		if other.keys[i] != k {
			return false
		}
		if !Equal(o.values[k], other.values[k]) {
			return false
		}
	}
	return true
}

// Equal compares two Documents structurally, including scalar kinds: Int(1)
// and Long(1) are different. Opaque values compare with ==, so opaque
// payloads of non-comparable types are never equal.
func Equal(a, b Document) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case *Object:
		return av.Equal(b.(*Object))
	case Array:
		bv := b.(Array)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Opaque:
		defer func() { _ = recover() }()
		return av.Value == b.(Opaque).Value
	case Double:
		bv := b.(Double)
		return av == bv || (math.IsNaN(float64(av)) && math.IsNaN(float64(bv)))
	default:
		return a == b
	}
}
