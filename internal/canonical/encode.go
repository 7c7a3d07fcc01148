package canonical

import (
	"bytes"
	"sort"
	"strconv"
)

// Encode serializes v to its canonical byte form: mapping keys sorted
// by code point, numbers formatted as their mathematical value,
// sequences preserving order, UTF-8 output.
func Encode(v Value) []byte {
	var buf bytes.Buffer
	encodeInto(&buf, v)
	return buf.Bytes()
}

// Marshal folds v into the closed value algebra and returns its
// canonical byte form.
func Marshal(v any) ([]byte, error) {
	val, err := FromAny(v)
	if err != nil {
		return nil, err
	}
	return Encode(val), nil
}

func encodeInto(buf *bytes.Buffer, v Value) {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		buf.WriteString(formatNumber(v.n))
	case KindString:
		encodeString(buf, v.s)
	case KindSeq:
		buf.WriteByte('[')
		for i, item := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeInto(buf, item)
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeString(buf, k)
			buf.WriteByte(':')
			encodeInto(buf, v.m[k])
		}
		buf.WriteByte('}')
	}
}

// formatNumber renders f as its mathematical value: whole numbers as
// bare digits, everything else in the shortest round-tripping decimal
// form. strconv.FormatFloat with precision -1 already drops the
// trailing ".0" for exact integers, which is what gives canonical(1) ==
// canonical(1.0).
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// encodeString writes s using standard JSON string escaping, matching
// encoding/json's quoting rules so output stays valid JSON.
func encodeString(buf *bytes.Buffer, s string) {
	b, _ := marshalQuoted(s)
	buf.Write(b)
}
