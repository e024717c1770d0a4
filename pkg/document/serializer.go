package document

import (
	"bytes"
	"encoding/json"
)

// EncodeHook adjusts a freshly encoded document before it is written.
type EncodeHook func(doc *Document) error

// DecodeHook adjusts a document before it is decoded into a Go value.
type DecodeHook func(doc *Document) error

// Builder collects serializer settings. Configurators receive the builder
// before Build is called, so every call customizes exactly one Serializer.
type Builder struct {
	format   Format
	indent   string
	comments map[string]string
	encode   []EncodeHook
	decode   []DecodeHook
}

// NewBuilder returns a builder for tab-indented JSON.
func NewBuilder() *Builder {
	return &Builder{
		format:   JSON,
		indent:   "\t",
		comments: make(map[string]string),
	}
}

// Format sets the text format.
func (b *Builder) Format(f Format) *Builder {
	if f != nil {
		b.format = f
	}
	return b
}

// Indent sets the indentation unit used when rendering.
func (b *Builder) Indent(indent string) *Builder {
	b.indent = indent
	return b
}

// Comment attaches text to a top-level key whenever that key is encoded.
func (b *Builder) Comment(key, text string) *Builder {
	b.comments[key] = text
	return b
}

// OnEncode appends a hook run after encoding, in registration order.
func (b *Builder) OnEncode(hook EncodeHook) *Builder {
	b.encode = append(b.encode, hook)
	return b
}

// OnDecode appends a hook run before decoding, in registration order.
func (b *Builder) OnDecode(hook DecodeHook) *Builder {
	b.decode = append(b.decode, hook)
	return b
}

// Build returns a Serializer with a snapshot of the builder's settings.
func (b *Builder) Build() *Serializer {
	s := &Serializer{
		format:   b.format,
		indent:   b.indent,
		comments: make(map[string]string, len(b.comments)),
		encode:   append([]EncodeHook(nil), b.encode...),
		decode:   append([]DecodeHook(nil), b.decode...),
	}
	for k, v := range b.comments {
		s.comments[k] = v
	}
	return s
}

// Serializer converts between Go values, documents and text.
type Serializer struct {
	format   Format
	indent   string
	comments map[string]string
	encode   []EncodeHook
	decode   []DecodeHook
}

// Format returns the serializer's text format.
func (s *Serializer) Format() Format {
	return s.format
}

// Parse reads text into a document.
func (s *Serializer) Parse(data []byte) (*Document, error) {
	return s.format.Parse(data)
}

// Render writes a document as text.
func (s *Serializer) Render(doc *Document) ([]byte, error) {
	return s.format.Render(doc, s.indent)
}

// ToTree converts any Go value into a tree value using its JSON encoding.
func (s *Serializer) ToTree(v any) (any, error) {
	data, err := marshalValue(v)
	if err != nil {
		return nil, err
	}
	return ParseValue(data)
}

// FromTree decodes a tree value into target.
func (s *Serializer) FromTree(tree any, target any) error {
	data, err := marshalValue(tree)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// Encode converts v into a tree value. Object-shaped values come back as a
// *Document with builder comments and encode hooks applied; anything else is
// returned as-is so the caller can reject it.
func (s *Serializer) Encode(v any) (any, error) {
	tree, err := s.ToTree(v)
	if err != nil {
		return nil, err
	}
	doc, ok := tree.(*Document)
	if !ok {
		return tree, nil
	}
	for key, text := range s.comments {
		if doc.Has(key) && doc.Comment(key) == "" {
			doc.SetComment(key, text)
		}
	}
	for _, hook := range s.encode {
		if err := hook(doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Decode strictly decodes doc into target: unknown keys and mismatched types
// are errors. doc itself is left untouched.
func (s *Serializer) Decode(doc *Document, target any) error {
	prepared := doc.Clone()
	for _, hook := range s.decode {
		if err := hook(prepared); err != nil {
			return err
		}
	}
	data, err := prepared.MarshalJSON()
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

// DecodeLenient decodes whatever it can of doc into target, one key at a
// time, and returns the keys it had to skip: those whose value does not fit
// their field and those that match no field at all. Decode hook failures are
// ignored.
func (s *Serializer) DecodeLenient(doc *Document, target any) []string {
	prepared := doc.Clone()
	for _, hook := range s.decode {
		_ = hook(prepared)
	}

	var skipped []string
	prepared.Range(func(key string, value any) bool {
		single := New()
		single.fields.Set(key, value)
		data, err := single.MarshalJSON()
		if err == nil {
			dec := json.NewDecoder(bytes.NewReader(data))
			dec.DisallowUnknownFields()
			err = dec.Decode(target)
		}
		if err != nil {
			skipped = append(skipped, key)
		}
		return true
	})
	return skipped
}
