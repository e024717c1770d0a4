// Package document provides the ordered tree configuration files are read
// into and the Serializer that converts between trees and Go values.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Document is an ordered JSON object. Values stored in a document are always
// tree values: *Document, []any, string, bool, json.Number or nil.
type Document struct {
	fields   *orderedmap.OrderedMap[string, any]
	comments map[string]string
}

// New returns an empty document.
func New() *Document {
	return &Document{
		fields:   orderedmap.New[string, any](),
		comments: make(map[string]string),
	}
}

// Len returns the number of keys.
func (d *Document) Len() int {
	return d.fields.Len()
}

// Keys returns the keys in document order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, d.fields.Len())
	for pair := d.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Range calls fn for each key in document order until fn returns false.
func (d *Document) Range(fn func(key string, value any) bool) {
	for pair := d.fields.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Get returns the raw tree value stored under key.
func (d *Document) Get(key string) (any, bool) {
	return d.fields.Get(key)
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	_, ok := d.fields.Get(key)
	return ok
}

// Put stores value under key. Go values are converted to tree values, so
// Put(key, 3) stores json.Number("3"). An existing key keeps its position.
func (d *Document) Put(key string, value any) {
	d.fields.Set(key, normalize(value))
}

// PutComment stores value under key and attaches comment to it.
func (d *Document) PutComment(key string, value any, comment string) {
	d.Put(key, value)
	d.SetComment(key, comment)
}

// Comment returns the comment attached to key.
func (d *Document) Comment(key string) string {
	return d.comments[key]
}

// SetComment attaches comment to key. An empty comment removes it.
func (d *Document) SetComment(key, comment string) {
	if comment == "" {
		delete(d.comments, key)
		return
	}
	d.comments[key] = comment
}

// Remove deletes key and its comment. It reports whether key was present.
func (d *Document) Remove(key string) bool {
	delete(d.comments, key)
	_, ok := d.fields.Delete(key)
	return ok
}

// Rename moves the value and comment stored under oldKey to newKey, keeping
// the position of oldKey. An existing newKey is replaced.
func (d *Document) Rename(oldKey, newKey string) bool {
	value, ok := d.fields.Get(oldKey)
	if !ok {
		return false
	}
	if oldKey == newKey {
		return true
	}
	comment := d.comments[oldKey]
	d.Remove(newKey)
	d.fields.Set(newKey, value)
	_ = d.fields.MoveAfter(newKey, oldKey)
	d.Remove(oldKey)
	d.SetComment(newKey, comment)
	return true
}

// Int returns the integer stored under key, or def when the key is missing
// or not a number. Fractional numbers are truncated and numbers outside the
// int range saturate at math.MinInt or math.MaxInt.
func (d *Document) Int(key string, def int) int {
	n, ok := d.number(key)
	if !ok {
		return def
	}
	if i, err := n.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
		return int(i)
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	switch {
	case math.IsNaN(f):
		return def
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	case err != nil:
		return def
	}
	return int(f)
}

// Float returns the number stored under key, or def.
func (d *Document) Float(key string, def float64) float64 {
	n, ok := d.number(key)
	if !ok {
		return def
	}
	f, err := n.Float64()
	if err != nil {
		return def
	}
	return f
}

// String returns the string stored under key, or def.
func (d *Document) String(key string, def string) string {
	v, ok := d.fields.Get(key)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// Bool returns the boolean stored under key, or def.
func (d *Document) Bool(key string, def bool) bool {
	v, ok := d.fields.Get(key)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// Object returns the nested document stored under key.
func (d *Document) Object(key string) (*Document, bool) {
	v, ok := d.fields.Get(key)
	if !ok {
		return nil, false
	}
	child, ok := v.(*Document)
	return child, ok
}

func (d *Document) number(key string) (json.Number, bool) {
	v, ok := d.fields.Get(key)
	if !ok {
		return "", false
	}
	n, ok := v.(json.Number)
	return n, ok
}

// Clone returns a deep copy of the document, comments included.
func (d *Document) Clone() *Document {
	out := New()
	for pair := d.fields.Oldest(); pair != nil; pair = pair.Next() {
		out.fields.Set(pair.Key, cloneValue(pair.Value))
	}
	for k, c := range d.comments {
		out.comments[k] = c
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Document:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = cloneValue(elem)
		}
		return out
	default:
		return t
	}
}

// MarshalJSON encodes the document as a compact JSON object in key order.
// Comments are not part of the JSON encoding.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for pair := d.fields.Oldest(); pair != nil; pair = pair.Next() {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		key, err := marshalValue(pair.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalValue(pair.Value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", pair.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the document's contents with the JSON object in data.
func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

// KindOf names the shape of a tree value, for diagnostics.
func KindOf(v any) string {
	switch v.(type) {
	case *Document:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// marshalValue is json.Marshal without HTML escaping and trailing newline.
func marshalValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// normalize converts a Go value into a tree value.
func normalize(v any) any {
	switch t := v.(type) {
	case nil, string, bool, json.Number, *Document:
		return t
	case int:
		return json.Number(strconv.FormatInt(int64(t), 10))
	case int8:
		return json.Number(strconv.FormatInt(int64(t), 10))
	case int16:
		return json.Number(strconv.FormatInt(int64(t), 10))
	case int32:
		return json.Number(strconv.FormatInt(int64(t), 10))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case uint:
		return json.Number(strconv.FormatUint(uint64(t), 10))
	case uint8:
		return json.Number(strconv.FormatUint(uint64(t), 10))
	case uint16:
		return json.Number(strconv.FormatUint(uint64(t), 10))
	case uint32:
		return json.Number(strconv.FormatUint(uint64(t), 10))
	case uint64:
		return json.Number(strconv.FormatUint(t, 10))
	case float32:
		return formatFloat(float64(t), 32)
	case float64:
		return formatFloat(t, 64)
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = normalize(elem)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		doc := New()
		for _, k := range keys {
			doc.Put(k, t[k])
		}
		return doc
	default:
		data, err := marshalValue(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		tree, err := ParseValue(data)
		if err != nil {
			return fmt.Sprint(t)
		}
		return tree
	}
}

// formatFloat keeps a fractional part on integral floats so the number still
// reads as a float once written out.
func formatFloat(f float64, bits int) any {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if _, err := strconv.ParseFloat(s, 64); err != nil || s == "NaN" || s == "+Inf" || s == "-Inf" {
		return s
	}
	if !bytes.ContainsAny([]byte(s), ".eE") {
		s += ".0"
	}
	return json.Number(s)
}
