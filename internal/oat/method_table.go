package oat

import (
	"github.com/sirkon/errors"

	"github.com/sirkon/oatbuild/internal/byteop"
)

// MethodRecord рассчитанные для одного метода смещения и данные кадра.
// Порядок полей повторяет дисковый.
type MethodRecord struct {
	CodeOffset         uint32
	FrameSize          uint32
	CoreSpillMask      uint32
	FpSpillMask        uint32
	MappingTableOffset uint32
	VmapTableOffset    uint32
	InvokeStubOffset   uint32
}

func (r *MethodRecord) encode(dst []byte) []byte {
	return byteop.AppendUint32s(dst, []uint32{
		r.CodeOffset,
		r.FrameSize,
		r.CoreSpillMask,
		r.FpSpillMask,
		r.MappingTableOffset,
		r.VmapTableOffset,
		r.InvokeStubOffset,
	})
}

// methodTable записи методов одного класса в порядке объявления:
// сначала прямые методы, затем виртуальные. У класса без данных
// класса таблица пуста.
type methodTable struct {
	records []MethodRecord
}

func newMethodTable(numMethods int) *methodTable {
	return &methodTable{
		records: make([]MethodRecord, numMethods),
	}
}

func (t *methodTable) sizeOf() uint64 {
	return methodRecordSize * uint64(len(t.records))
}

func (t *methodTable) encode(dst []byte) []byte {
	for i := range t.records {
		dst = t.records[i].encode(dst)
	}

	return dst
}

func (t *methodTable) updateChecksum(h *Header) {
	h.UpdateChecksum(t.encode(nil))
}

func (t *methodTable) write(sink Sink, scratch *[]byte) error {
	buf := t.encode((*scratch)[:0])
	*scratch = buf

	if err := sink.WriteAll(buf); err != nil {
		return errors.Wrap(err, "write method records")
	}

	return nil
}
