package codec

import "fmt"

// SizeError reports a payload over the configured limit.
type SizeError struct {
	Op    string // "encode" or "decode"
	Size  int
	Limit int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("codec: %s payload too large: %d > %d", e.Op, e.Size, e.Limit)
}

// LimitCodec wraps another codec and rejects payloads larger than Max bytes
// on both directions. Records that grow past Max are never cached, and
// oversized entries written by another process are never decoded.
// Max <= 0 disables the check.
type LimitCodec[V any] struct {
	Inner Codec[V]
	Max   int
}

func (c LimitCodec[V]) Encode(v V) ([]byte, error) {
	b, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	if c.Max > 0 && len(b) > c.Max {
		return nil, &SizeError{Op: "encode", Size: len(b), Limit: c.Max}
	}
	return b, nil
}

func (c LimitCodec[V]) Decode(b []byte) (V, error) {
	if c.Max > 0 && len(b) > c.Max {
		var zero V
		return zero, &SizeError{Op: "decode", Size: len(b), Limit: c.Max}
	}
	return c.Inner.Decode(b)
}
