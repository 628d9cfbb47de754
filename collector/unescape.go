package collector

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// unescapeJSON rewrites raw so that \uXXXX escapes in strings become literal
// characters. Key order, whitespace-free layout and number text are kept.
func unescapeJSON(raw []byte) (json.RawMessage, error) {
	if !bytes.Contains(raw, []byte(`\`)) {
		return json.RawMessage(raw), nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	type container struct {
		object bool
		n      int // tokens written so far, keys included
	}
	var (
		out   bytes.Buffer
		stack []container
	)

	separate := func() {
		if len(stack) == 0 {
			return
		}
		top := &stack[len(stack)-1]
		switch {
		case top.object && top.n%2 == 1:
			out.WriteByte(':')
		case top.n > 0:
			out.WriteByte(',')
		}
		top.n++
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}

		switch t := tok.(type) {
		case json.Delim:
			if t == '{' || t == '[' {
				separate()
				stack = append(stack, container{object: t == '{'})
			} else {
				stack = stack[:len(stack)-1]
			}
			out.WriteByte(byte(t))
		case string:
			separate()
			if err := writeString(&out, t); err != nil {
				return nil, err
			}
		case json.Number:
			separate()
			out.WriteString(t.String())
		case bool:
			separate()
			if t {
				out.WriteString("true")
			} else {
				out.WriteString("false")
			}
		case nil:
			separate()
			out.WriteString("null")
		}
	}

	return json.RawMessage(out.Bytes()), nil
}

// writeString quotes s leaving <, > and & unescaped
func writeString(out *bytes.Buffer, s string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode string: %w", err)
	}
	out.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return nil
}
