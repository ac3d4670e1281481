package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version     byte = 2
	kindValue   byte = 1
	kindMissing byte = 3
)

var (
	ErrCorrupt = errors.New("castore: corrupt entry")
	magic4     = [...]byte{'C', 'A', 'S', 'T'}
)

const headerLen = 4 + 1 + 1 + 8 + 4

// Entry is a decoded cache entry.
// Missing entries are tombstones: the store reported no row for the key.
type Entry struct {
	Gen     uint64
	Missing bool
	Payload []byte
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// EncodeValue frames an encoded record.
//
//	magic(4) | ver(1) | kind(1) | gen(u64 be) | vlen(u32 be) | payload(vlen)
func EncodeValue(gen uint64, payload []byte) []byte {
	return encode(kindValue, gen, payload)
}

// EncodeMissing frames a tombstone. It carries no payload.
func EncodeMissing(gen uint64) []byte {
	return encode(kindMissing, gen, nil)
}

func encode(kind byte, gen uint64, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(headerLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kind)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], gen)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// Decode parses a framed entry. Trailing bytes, unknown kinds and
// payload-carrying tombstones are all reported as ErrCorrupt.
func Decode(b []byte) (Entry, error) {
	if len(b) < headerLen || !hasMagic(b) || b[4] != version {
		return Entry{}, ErrCorrupt
	}
	kind := b[5]
	if kind != kindValue && kind != kindMissing {
		return Entry{}, ErrCorrupt
	}

	off := 6
	gen := binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off {
		return Entry{}, ErrCorrupt
	}
	if kind == kindMissing {
		if vlen != 0 {
			return Entry{}, ErrCorrupt
		}
		return Entry{Gen: gen, Missing: true}, nil
	}
	return Entry{Gen: gen, Payload: b[off : off+vlen]}, nil
}
