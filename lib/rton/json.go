// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rton

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
)

// nonFinitePrefix marks the quoted stand-ins ParseJSON substitutes for
// the bare NaN, Infinity and -Infinity literals.
const nonFinitePrefix = "\x00rton-float:"

// ParseJSON parses JSON text into an Object, keeping key order and
// duplicate keys. Comments and trailing commas are accepted, as are the
// NaN, Infinity and -Infinity literals MarshalJSON writes. Integers
// stay integers; numbers with a fraction or exponent become Float64.
func ParseJSON(data []byte) (Object, error) {
	text := quoteNonFinite(jsonc.ToJSON(data))
	decoder := json.NewDecoder(bytes.NewReader(text))
	decoder.UseNumber()

	token, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("rton: parsing JSON: %w", err)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("rton: JSON document must be an object")
	}
	root, err := parseObject(decoder)
	if err != nil {
		return nil, fmt.Errorf("rton: parsing JSON: %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("rton: parsing JSON: data after the root object")
	}
	return root, nil
}

// errNestedTooDeep is returned unwrapped through every level of the
// parse so the error stays short.
var errNestedTooDeep = fmt.Errorf("containers nested deeper than %d", MaxDepth)

type jsonParser struct {
	decoder *json.Decoder
	depth   int
}

func parseObject(decoder *json.Decoder) (Object, error) {
	p := &jsonParser{decoder: decoder, depth: 1}
	return p.object()
}

func (p *jsonParser) object() (Object, error) {
	object := Object{}
	for p.decoder.More() {
		token, err := p.decoder.Token()
		if err != nil {
			return nil, err
		}
		key, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("object key %v is not a string", token)
		}
		value, err := p.value()
		if errors.Is(err, errNestedTooDeep) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("%q: %w", key, err)
		}
		object = append(object, Pair{Key: key, Value: value})
	}
	// Closing brace.
	if _, err := p.decoder.Token(); err != nil {
		return nil, err
	}
	return object, nil
}

func (p *jsonParser) array() (Array, error) {
	array := Array{}
	for p.decoder.More() {
		value, err := p.value()
		if errors.Is(err, errNestedTooDeep) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", len(array), err)
		}
		array = append(array, value)
	}
	if _, err := p.decoder.Token(); err != nil {
		return nil, err
	}
	return array, nil
}

func (p *jsonParser) value() (Value, error) {
	token, err := p.decoder.Token()
	if err != nil {
		return nil, err
	}
	switch token := token.(type) {
	case json.Delim:
		if token != '{' && token != '[' {
			return nil, fmt.Errorf("unexpected %v", token)
		}
		if p.depth >= MaxDepth {
			return nil, errNestedTooDeep
		}
		p.depth++
		defer func() { p.depth-- }()
		if token == '{' {
			return p.object()
		}
		return p.array()
	case string:
		if literal, ok := strings.CutPrefix(token, nonFinitePrefix); ok {
			return Float64(nonFiniteValue(literal)), nil
		}
		return String(token), nil
	case json.Number:
		return parseNumber(string(token))
	case bool:
		return Bool(token), nil
	case nil:
		return Null{}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", token)
}

func parseNumber(text string) (Value, error) {
	if strings.ContainsAny(text, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("number %s: %w", text, err)
		}
		return Float64(f), nil
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return IntOf(n), nil
	}
	u, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("integer %s is outside the 64-bit range RTON integers can hold", text)
	}
	return UintOf(u), nil
}

func nonFiniteValue(literal string) float64 {
	switch literal {
	case "Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	return math.NaN()
}

// quoteNonFinite rewrites bare NaN, Infinity and -Infinity literals
// outside string literals into marked strings encoding/json accepts.
func quoteNonFinite(data []byte) []byte {
	if !bytes.Contains(data, []byte("NaN")) && !bytes.Contains(data, []byte("Infinity")) {
		return data
	}
	var out bytes.Buffer
	inString, escaped := false, false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out.WriteByte(c)
			continue
		}
		matched := false
		for _, literal := range []string{"-Infinity", "Infinity", "NaN"} {
			if bytes.HasPrefix(data[i:], []byte(literal)) {
				// JSON spelling of nonFinitePrefix.
				out.WriteString(`"\u0000rton-float:` + literal + `"`)
				i += len(literal) - 1
				matched = true
				break
			}
		}
		if !matched {
			out.WriteByte(c)
		}
	}
	return out.Bytes()
}

// MarshalJSON renders root as JSON with one pair or element per line,
// indented by indent per level. Key order and duplicate keys are kept.
// Floats always carry a fraction or exponent so they parse back as
// floats; non-finite floats are written as NaN, Infinity or -Infinity.
func MarshalJSON(root Object, indent string) ([]byte, error) {
	w := &jsonWriter{indent: indent}
	if err := w.object(root, 0); err != nil {
		return nil, err
	}
	w.buf.WriteByte('\n')
	return w.buf.Bytes(), nil
}

type jsonWriter struct {
	buf    bytes.Buffer
	indent string
}

func (w *jsonWriter) newline(depth int) {
	w.buf.WriteByte('\n')
	for range depth {
		w.buf.WriteString(w.indent)
	}
}

func (w *jsonWriter) object(object Object, depth int) error {
	if len(object) == 0 {
		w.buf.WriteString("{}")
		return nil
	}
	w.buf.WriteByte('{')
	for i, pair := range object {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		w.newline(depth + 1)
		if err := w.string(pair.Key); err != nil {
			return err
		}
		w.buf.WriteString(": ")
		if err := w.value(pair.Value, depth+1); err != nil {
			return fmt.Errorf("%q: %w", pair.Key, err)
		}
	}
	w.newline(depth)
	w.buf.WriteByte('}')
	return nil
}

func (w *jsonWriter) value(v Value, depth int) error {
	switch v := v.(type) {
	case Null:
		w.buf.WriteString("null")
	case Bool:
		w.buf.WriteString(strconv.FormatBool(bool(v)))
	case Int:
		w.buf.WriteString(v.String())
	case Float32:
		w.float(float64(v))
	case Float64:
		w.float(float64(v))
	case String:
		return w.string(string(v))
	case Reference:
		return w.string(v.String())
	case Array:
		if len(v) == 0 {
			w.buf.WriteString("[]")
			return nil
		}
		w.buf.WriteByte('[')
		for i, element := range v {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			w.newline(depth + 1)
			if err := w.value(element, depth+1); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		w.newline(depth)
		w.buf.WriteByte(']')
	case Object:
		return w.object(v, depth)
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

func (w *jsonWriter) string(s string) error {
	var quoted bytes.Buffer
	encoder := json.NewEncoder(&quoted)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(s); err != nil {
		return err
	}
	w.buf.Write(bytes.TrimSuffix(quoted.Bytes(), []byte("\n")))
	return nil
}

// float formats like the shortest round-trip representation, switching
// to exponent form for very large or very small magnitudes.
func (w *jsonWriter) float(f float64) {
	switch {
	case math.IsNaN(f):
		w.buf.WriteString("NaN")
		return
	case math.IsInf(f, 1):
		w.buf.WriteString("Infinity")
		return
	case math.IsInf(f, -1):
		w.buf.WriteString("-Infinity")
		return
	}
	magnitude := math.Abs(f)
	if magnitude != 0 && (magnitude >= 1e16 || magnitude < 1e-4) {
		w.buf.WriteString(strconv.FormatFloat(f, 'e', -1, 64))
		return
	}
	text := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(text, ".") {
		text += ".0"
	}
	w.buf.WriteString(text)
}
