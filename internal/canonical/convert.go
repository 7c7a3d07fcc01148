package canonical

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// FromAny folds an arbitrary Go value into the closed value algebra,
// rejecting functions, channels, and cyclic graphs with an *EncodeError.
//
// Structs are folded using their `json` tags (name, "-", "omitempty") so
// that domain types such as Batch round-trip through the same field
// names their on-disk JSON representation uses. Types implementing
// json.Marshaler (e.g. time.Time) are folded via their JSON
// representation so that, for example, timestamps canonicalize the same
// way regardless of whether they arrive as a time.Time or as a decoded
// RFC3339 string.
func FromAny(v any) (Value, error) {
	seen := map[uintptr]bool{}
	return fromAny(reflect.ValueOf(v), "$", seen)
}

func fromAny(rv reflect.Value, path string, seen map[uintptr]bool) (Value, error) {
	if !rv.IsValid() {
		return Null(), nil
	}

	// Unwrap interfaces.
	for rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Null(), nil
		}
		rv = rv.Elem()
	}

	// json.Number decodes to KindNumber directly.
	if num, ok := rv.Interface().(json.Number); ok {
		f, err := num.Float64()
		if err != nil {
			return Value{}, &EncodeError{Path: path, Reason: "invalid json.Number: " + err.Error()}
		}
		return Float(f), nil
	}

	if marshaler, ok := asJSONMarshaler(rv); ok {
		raw, err := marshaler.MarshalJSON()
		if err != nil {
			return Value{}, &EncodeError{Path: path, Reason: "MarshalJSON: " + err.Error()}
		}
		var generic any
		dec := json.NewDecoder(strings.NewReader(string(raw)))
		dec.UseNumber()
		if err := dec.Decode(&generic); err != nil {
			return Value{}, &EncodeError{Path: path, Reason: "decode MarshalJSON output: " + err.Error()}
		}
		return fromAny(reflect.ValueOf(generic), path, seen)
	}

	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return Null(), nil
		}
		ptr := rv.Pointer()
		if seen[ptr] {
			return Value{}, &EncodeError{Path: path, Reason: "cyclic reference"}
		}
		seen[ptr] = true
		defer delete(seen, ptr)
		return fromAny(rv.Elem(), path, seen)

	case reflect.Bool:
		return Bool(rv.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int(int64(rv.Uint())), nil

	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil

	case reflect.String:
		return String(rv.String()), nil

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice {
			if rv.IsNil() {
				return Seq(), nil
			}
			ptr := rv.Pointer()
			if rv.Len() > 0 {
				if seen[ptr] {
					return Value{}, &EncodeError{Path: path, Reason: "cyclic reference"}
				}
				seen[ptr] = true
				defer delete(seen, ptr)
			}
		}
		items := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := fromAny(rv.Index(i), fmt.Sprintf("%s[%d]", path, i), seen)
			if err != nil {
				return Value{}, err
			}
			items[i] = item
		}
		return Seq(items...), nil

	case reflect.Map:
		if rv.IsNil() {
			return Map(nil), nil
		}
		ptr := rv.Pointer()
		if seen[ptr] {
			return Value{}, &EncodeError{Path: path, Reason: "cyclic reference"}
		}
		seen[ptr] = true
		defer delete(seen, ptr)
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, &EncodeError{Path: path, Reason: "map keys must be strings"}
		}
		out := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			val, err := fromAny(iter.Value(), path+"."+k, seen)
			if err != nil {
				return Value{}, err
			}
			out[k] = val
		}
		return Value{kind: KindMap, m: out}, nil

	case reflect.Struct:
		return structToValue(rv, path, seen)

	default:
		return Value{}, &EncodeError{Path: path, Reason: fmt.Sprintf("unsupported kind %s", rv.Kind())}
	}
}

func asJSONMarshaler(rv reflect.Value) (json.Marshaler, bool) {
	if !rv.IsValid() || !rv.CanInterface() {
		return nil, false
	}
	if m, ok := rv.Interface().(json.Marshaler); ok {
		return m, true
	}
	if rv.Kind() != reflect.Ptr && rv.CanAddr() {
		if m, ok := rv.Addr().Interface().(json.Marshaler); ok {
			return m, true
		}
	}
	return nil, false
}

func structToValue(rv reflect.Value, path string, seen map[uintptr]bool) (Value, error) {
	t := rv.Type()
	out := make(map[string]Value, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" && !field.Anonymous {
			continue // unexported
		}
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts := parseTag(tag)
		if name == "" {
			name = field.Name
		}
		fv := rv.Field(i)
		if opts.omitempty && isEmptyValue(fv) {
			continue
		}
		val, err := fromAny(fv, path+"."+name, seen)
		if err != nil {
			return Value{}, err
		}
		out[name] = val
	}
	return Value{kind: KindMap, m: out}, nil
}

type tagOptions struct{ omitempty bool }

func parseTag(tag string) (string, tagOptions) {
	parts := strings.Split(tag, ",")
	name := parts[0]
	var opts tagOptions
	for _, p := range parts[1:] {
		if p == "omitempty" {
			opts.omitempty = true
		}
	}
	return name, opts
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	}
	return false
}
