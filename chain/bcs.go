package chain

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// bcsWriter writes the ledger's canonical binary encoding: little-endian
// integers, ULEB128 lengths and enum tags.
type bcsWriter struct {
	buf bytes.Buffer
	err error
}

func (w *bcsWriter) uleb128(v uint64) {
	for v >= 0x80 {
		w.buf.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	w.buf.WriteByte(byte(v))
}

func (w *bcsWriter) u8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *bcsWriter) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *bcsWriter) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *bcsWriter) boolean(v bool) {
	if v {
		w.u8(1)
		return
	}
	w.u8(0)
}

func (w *bcsWriter) bytes(b []byte) {
	w.uleb128(uint64(len(b)))
	w.buf.Write(b)
}

func (w *bcsWriter) str(s string) {
	w.bytes([]byte(s))
}

func (w *bcsWriter) address(addr string) {
	b, err := AddressBytes(addr)
	if err != nil {
		w.fail(err)
		b = make([]byte, AddressLength)
	}
	w.buf.Write(b)
}

// digest writes a base58 object digest as a length-prefixed 32 byte vector.
func (w *bcsWriter) digest(d string) {
	b := base58.Decode(d)
	if len(b) != 32 {
		w.fail(fmt.Errorf("invalid object digest %q", d))
		b = make([]byte, 32)
	}
	w.bytes(b)
}

func (w *bcsWriter) objectRef(ref ObjectRef) {
	w.address(ref.ObjectID)
	w.u64(ref.Version)
	w.digest(ref.Digest)
}

func (w *bcsWriter) typeTag(t TypeTag) {
	w.uleb128(uint64(t.Kind))
	switch t.Kind {
	case TagVector:
		w.typeTag(*t.Elem)
	case TagStruct:
		w.address(t.Struct.Address)
		w.str(t.Struct.Module)
		w.str(t.Struct.Name)
		w.uleb128(uint64(len(t.Struct.TypeParams)))
		for _, p := range t.Struct.TypeParams {
			w.typeTag(p)
		}
	}
}

func (w *bcsWriter) argument(a Argument) {
	w.uleb128(uint64(a.Kind))
	switch a.Kind {
	case ArgInput, ArgResult:
		w.u16(a.Index)
	case ArgNestedResult:
		w.u16(a.Index)
		w.u16(a.Nested)
	}
}

func (w *bcsWriter) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}
