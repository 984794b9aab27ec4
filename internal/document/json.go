package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// MarshalJSON writes the entries in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshal(o.values[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		val, err := marshal(v)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		buf.Write(val)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

func (b Bool) MarshalJSON() ([]byte, error) { return []byte(strconv.FormatBool(bool(b))), nil }

func (i Int) MarshalJSON() ([]byte, error) { return []byte(strconv.FormatInt(int64(i), 10)), nil }

func (l Long) MarshalJSON() ([]byte, error) { return []byte(strconv.FormatInt(int64(l), 10)), nil }

func (d Double) MarshalJSON() ([]byte, error) {
	f := float64(d)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("unsupported double value %v", f)
	}
	return json.Marshal(f)
}

func (s String) MarshalJSON() ([]byte, error) { return json.Marshal(string(s)) }

func (o Opaque) MarshalJSON() ([]byte, error) { return json.Marshal(o.Value) }

// marshal treats a nil Document as null.
func marshal(d Document) ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	return d.MarshalJSON()
}

// Encode renders d as JSON, indented when indent is not empty.
func Encode(d Document, indent string) ([]byte, error) {
	raw, err := marshal(d)
	if err != nil {
		return nil, err
	}
	if indent == "" {
		return raw, nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
