package oat

import (
	"github.com/sirkon/errors"

	"github.com/sirkon/oatbuild/internal/byteop"
)

// classTable таблица смещений таблиц методов, по одному элементу
// на каждое определение класса в соответствующем dex-файле.
type classTable struct {
	offsets []uint32
}

func newClassTable(numClassDefs int) *classTable {
	return &classTable{
		offsets: make([]uint32, numClassDefs),
	}
}

func (t *classTable) sizeOf() uint64 {
	return 4 * uint64(len(t.offsets))
}

func (t *classTable) encode(dst []byte) []byte {
	return byteop.AppendUint32s(dst, t.offsets)
}

func (t *classTable) updateChecksum(h *Header) {
	h.UpdateChecksum(t.encode(nil))
}

func (t *classTable) write(sink Sink, scratch *[]byte) error {
	buf := t.encode((*scratch)[:0])
	*scratch = buf

	if err := sink.WriteAll(buf); err != nil {
		return errors.Wrap(err, "write method table offsets")
	}

	return nil
}
