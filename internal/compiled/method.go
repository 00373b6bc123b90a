package compiled

import (
	"github.com/sirkon/oatbuild/internal/types"
)

// Method результат компиляции одного метода: машинный код
// и сопроводительные таблицы. Все слайсы отдаются без копирования,
// владеет ими компилятор и они не должны меняться до конца записи.
type Method struct {
	isa types.InstructionSet

	code          []byte
	frameSize     uint32
	coreSpillMask uint32
	fpSpillMask   uint32
	mappingTable  []uint32
	vmapTable     []uint16
}

// NewMethod конструктор скомпилированного метода.
func NewMethod(
	isa types.InstructionSet,
	code []byte,
	frameSize uint32,
	coreSpillMask uint32,
	fpSpillMask uint32,
	mappingTable []uint32,
	vmapTable []uint16,
) *Method {
	return &Method{
		isa:           isa,
		code:          code,
		frameSize:     frameSize,
		coreSpillMask: coreSpillMask,
		fpSpillMask:   fpSpillMask,
		mappingTable:  mappingTable,
		vmapTable:     vmapTable,
	}
}

// Code машинный код метода.
func (m *Method) Code() []byte {
	return m.code
}

// CodeDelta поправка смещения кода для системы команд метода.
func (m *Method) CodeDelta() uint32 {
	return m.isa.CodeDelta()
}

// AlignCode выравнивание смещения под начало кода метода.
func (m *Method) AlignCode(offset uint64) uint64 {
	return AlignCode(offset, m.isa)
}

// FrameSize размер кадра стека метода в байтах.
func (m *Method) FrameSize() uint32 {
	return m.frameSize
}

// CoreSpillMask маска сохраняемых целочисленных регистров.
func (m *Method) CoreSpillMask() uint32 {
	return m.coreSpillMask
}

// FpSpillMask маска сохраняемых вещественных регистров.
func (m *Method) FpSpillMask() uint32 {
	return m.fpSpillMask
}

// MappingTable таблица соответствия машинных адресов исходным позициям.
func (m *Method) MappingTable() []uint32 {
	return m.mappingTable
}

// VmapTable таблица раскладки виртуальных регистров.
func (m *Method) VmapTable() []uint16 {
	return m.vmapTable
}

// AlignCode выравнивание смещения под начало кода для данной системы команд.
func AlignCode(offset uint64, isa types.InstructionSet) uint64 {
	align := uint64(isa.CodeAlignment())
	return (offset + align - 1) &^ (align - 1)
}
