package document

import (
	"fmt"
	"math"
	"math/big"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// FromCty converts a cty.Value into a Document. Numbers follow the same
// Int, Long, Double priority as Number. Object and map attributes come out in
// the lexical order cty iterates them. Unknown values cannot be represented
// and fail the conversion.
func FromCty(v cty.Value) (Document, error) {
	v, _ = v.UnmarkDeep()
	return fromCty(v, cty.Path{})
}

func fromCty(v cty.Value, path cty.Path) (Document, error) {
	if !v.IsKnown() {
		return nil, path.NewErrorf("value is not known")
	}
	if v.IsNull() {
		return Null{}, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return String(v.AsString()), nil

	case ty == cty.Bool:
		return Bool(v.True()), nil

	case ty == cty.Number:
		return bigNumber(v.AsBigFloat()), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		arr := make(Array, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			d, err := fromCty(elem, path.Index(key))
			if err != nil {
				return nil, err
			}
			arr = append(arr, d)
		}
		return arr, nil

	case ty.IsObjectType() || ty.IsMapType():
		obj := NewObject()
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			name := key.AsString()
			d, err := fromCty(elem, path.GetAttr(name))
			if err != nil {
				return nil, err
			}
			obj.Set(name, d)
		}
		return obj, nil

	case ty.IsCapsuleType():
		return Opaque{Value: v.EncapsulatedValue()}, nil

	default:
		return nil, path.NewErrorf("unsupported type %s", ty.FriendlyName())
	}
}

func bigNumber(f *big.Float) Document {
	if f.IsInt() {
		if i, acc := f.Int64(); acc == big.Exact {
			if i >= math.MinInt32 && i <= math.MaxInt32 {
				return Int(int32(i))
			}
			return Long(i)
		}
	}
	d, _ := f.Float64()
	return Double(d)
}

// ToCty converts a Document into a cty.Value. Arrays become tuples and
// Objects become object values so that heterogeneous data survives. Opaque
// payloads have no cty form and are rejected.
func ToCty(d Document) (cty.Value, error) {
	return toCty(d, cty.Path{})
}

func toCty(d Document, path cty.Path) (cty.Value, error) {
	switch v := d.(type) {
	case nil, Null:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case Bool:
		return cty.BoolVal(bool(v)), nil
	case Int:
		return cty.NumberIntVal(int64(v)), nil
	case Long:
		return cty.NumberIntVal(int64(v)), nil
	case Double:
		if math.IsNaN(float64(v)) {
			return cty.NilVal, path.NewErrorf("NaN has no cty representation")
		}
		return cty.NumberFloatVal(float64(v)), nil
	case String:
		return cty.StringVal(string(v)), nil
	case Array:
		if len(v) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(v))
		for i, elem := range v {
			ev, err := toCty(elem, path.IndexInt(i))
			if err != nil {
				return cty.NilVal, err
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	case *Object:
		if v.Len() == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, v.Len())
		var err error
		v.Range(func(key string, elem Document) bool {
			var ev cty.Value
			ev, err = toCty(elem, path.GetAttr(key))
			attrs[key] = ev
			return err == nil
		})
		if err != nil {
			return cty.NilVal, err
		}
		return cty.ObjectVal(attrs), nil
	case Opaque:
		return cty.NilVal, path.NewErrorf("opaque value of type %T has no cty representation", v.Value)
	default:
		return cty.NilVal, path.NewErrorf("unsupported document %T", d)
	}
}

// Decode binds d onto the value pointed to by target, converting through the
// cty type implied by the target, e.g. a struct with `cty:"name"` tags.
func Decode(d Document, target any) error {
	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() {
		return fmt.Errorf("target for decoding must be a non-nil pointer, got %T", target)
	}

	val, err := ToCty(d)
	if err != nil {
		return err
	}

	impliedType, err := gocty.ImpliedType(ptr.Elem().Interface())
	if err != nil {
		return gocty.FromCtyValue(val, target)
	}

	converted, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}
	return gocty.FromCtyValue(converted, target)
}
