package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack serializes values using vmihailenco/msgpack/v5.
// The zero value is ready to use and reads `msgpack` struct tags.
//
// Set Tag to reuse another struct tag for field names (e.g. "json"), so a
// record does not need a second set of annotations.
type Msgpack[V any] struct {
	Tag string
}

var _ Codec[struct{}] = Msgpack[struct{}]{}

func (c Msgpack[V]) Encode(v V) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if c.Tag != "" {
		enc.SetCustomStructTag(c.Tag)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	if c.Tag != "" {
		dec.SetCustomStructTag(c.Tag)
	}
	err := dec.Decode(&v)
	return v, err
}
