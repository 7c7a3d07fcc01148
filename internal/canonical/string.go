package canonical

import (
	"bytes"
	"encoding/json"
)

// marshalQuoted returns s as a JSON-quoted, escaped string literal.
// encoding/json's string escaping already matches standard JSON
// string syntax, so there is no benefit to hand-rolling the escape
// table here. HTML-safe escaping is disabled so
// '<', '>', and '&' round-trip as themselves rather than as
// backslash-u escapes (the form encoding/json uses by default), keeping output stable across encoding/json versions.
func marshalQuoted(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	return bytes.TrimSuffix(out, []byte("\n")), nil
}
