package datasets

import (
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Crater is one metadata record from data_rec.json. The raw JSON is kept as
// loaded; Decode, Fields and Number give typed views of it.
type Crater struct {
	raw jsoniter.RawMessage
}

// NewCrater wraps an encoded JSON record.
func NewCrater(raw []byte) Crater {
	return Crater{raw: append(jsoniter.RawMessage(nil), raw...)}
}

// Raw returns the record's JSON. The returned slice must not be modified.
func (c Crater) Raw() []byte { return c.raw }

// MarshalJSON returns the record as loaded.
func (c Crater) MarshalJSON() ([]byte, error) {
	if len(c.raw) == 0 {
		return []byte("null"), nil
	}
	return c.raw, nil
}

// Decode unmarshals the record into v.
func (c Crater) Decode(v any) error {
	return errors.WithStack(json.Unmarshal(c.raw, v))
}

// Fields decodes the record as a JSON object.
func (c Crater) Fields() (map[string]any, error) {
	var fields map[string]any
	if err := c.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Number returns the numeric field key of the record, if there is one.
func (c Crater) Number(key string) (float64, bool) {
	it := json.BorrowIterator(c.raw)
	defer json.ReturnIterator(it)
	if it.WhatIsNext() != jsoniter.ObjectValue {
		return 0, false
	}
	for field := it.ReadObject(); field != ""; field = it.ReadObject() {
		if field != key {
			it.Skip()
			continue
		}
		if it.WhatIsNext() != jsoniter.NumberValue {
			return 0, false
		}
		v := it.ReadFloat64()
		return v, it.Error == nil
	}
	return 0, false
}

// ParseCraters reads a JSON array of records from r, in order.
func ParseCraters(r io.Reader) ([]Crater, error) {
	var raws []jsoniter.RawMessage
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, errors.Wrap(err, "failed to parse crater records")
	}
	craters := make([]Crater, len(raws))
	for i, raw := range raws {
		craters[i] = Crater{raw: raw}
	}
	return craters, nil
}

// LoadCraters reads the crater records file at path.
func LoadCraters(path string) ([]Crater, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open crater records %q", path)
	}
	defer func() { _ = f.Close() }()
	craters, err := ParseCraters(f)
	if err != nil {
		return nil, errors.Wrapf(err, "in %q", path)
	}
	return craters, nil
}
