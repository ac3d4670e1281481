// Package codec serializes records to the bytes stored by a provider.
//
// Every codec here round-trips a pointer record type: decoding into a nil
// *T allocates a fresh value, so callers can use Codec[*User] directly.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
