package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/jsonc"
	"github.com/tidwall/pretty"
)

// ParseJSON parses JSON (comments and trailing commas allowed) whose
// top-level value must be an object.
func ParseJSON(data []byte) (*Document, error) {
	tree, err := ParseValue(data)
	if err != nil {
		return nil, err
	}
	doc, ok := tree.(*Document)
	if !ok {
		return nil, &SyntaxError{Msg: fmt.Sprintf("top-level value is %s, want object", KindOf(tree))}
	}
	return doc, nil
}

// ParseValue parses any JSON value into a tree value. Comments and trailing
// commas are stripped first.
func ParseValue(data []byte) (any, error) {
	// jsonc keeps offsets and line breaks, so positions map back to data.
	clean := jsonc.ToJSON(data)

	dec := json.NewDecoder(bytes.NewReader(clean))
	dec.UseNumber()

	tree, err := decodeValue(dec)
	if err != nil {
		return nil, syntaxError(data, dec.InputOffset(), err)
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = fmt.Errorf("unexpected %v after top-level value", tok)
		}
		return nil, syntaxError(data, dec.InputOffset(), err)
	}
	return tree, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		doc := New()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("expected object key, got %v", keyTok)
			}
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			doc.fields.Set(key, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return doc, nil
	case '[':
		arr := []any{}
		for dec.More() {
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected %q", rune(delim))
	}
}

func syntaxError(data []byte, offset int64, err error) *SyntaxError {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		offset = se.Offset
	}
	line, col := position(data, offset)
	return &SyntaxError{Line: line, Column: col, Msg: err.Error(), Err: err}
}

func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

type jsonFormat struct{}

func (jsonFormat) Name() string { return "json" }

func (jsonFormat) Parse(data []byte) (*Document, error) {
	return ParseJSON(data)
}

// Render writes doc as indented JSON. Comments are written as // lines above
// their key, which ParseJSON accepts on the way back in.
func (jsonFormat) Render(doc *Document, indent string) ([]byte, error) {
	var buf bytes.Buffer
	if err := renderObject(&buf, doc, indent, ""); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func renderObject(buf *bytes.Buffer, doc *Document, indent, prefix string) error {
	if doc.Len() == 0 {
		buf.WriteString("{}")
		return nil
	}
	inner := prefix + indent
	buf.WriteString("{\n")
	i := 0
	for pair := doc.fields.Oldest(); pair != nil; pair = pair.Next() {
		if i > 0 {
			buf.WriteString(",\n")
		}
		i++
		if c := doc.comments[pair.Key]; c != "" {
			for _, line := range strings.Split(c, "\n") {
				buf.WriteString(inner)
				buf.WriteString("// ")
				buf.WriteString(line)
				buf.WriteByte('\n')
			}
		}
		key, err := marshalValue(pair.Key)
		if err != nil {
			return err
		}
		buf.WriteString(inner)
		buf.Write(key)
		buf.WriteString(": ")
		if err := renderValue(buf, pair.Value, indent, inner); err != nil {
			return fmt.Errorf("key %q: %w", pair.Key, err)
		}
	}
	buf.WriteByte('\n')
	buf.WriteString(prefix)
	buf.WriteByte('}')
	return nil
}

func renderValue(buf *bytes.Buffer, v any, indent, prefix string) error {
	if child, ok := v.(*Document); ok {
		return renderObject(buf, child, indent, prefix)
	}
	raw, err := marshalValue(v)
	if err != nil {
		return err
	}
	if _, ok := v.([]any); !ok {
		buf.Write(raw)
		return nil
	}
	out := pretty.PrettyOptions(raw, &pretty.Options{
		Width:    80,
		Indent:   indent,
		SortKeys: false,
	})
	out = bytes.TrimRight(out, "\n")
	buf.Write(bytes.ReplaceAll(out, []byte("\n"), []byte("\n"+prefix)))
	return nil
}
