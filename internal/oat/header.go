package oat

import (
	"encoding/binary"
	"hash"
	"hash/adler32"

	"github.com/sirkon/oatbuild/internal/types"
)

// Header заголовок контейнера фиксированного размера. Несёт скользящую
// контрольную сумму всех логически входящих в файл байтов кроме
// выравнивающих прорех. Из заголовка в сумму входят только неизменные
// поля, контрольная сумма и смещение исполняемой области в неё не входят.
type Header struct {
	isa              types.InstructionSet
	dexFileCount     uint32
	executableOffset uint32

	sum hash.Hash32
}

// NewHeader конструктор заголовка. Неизменные поля — магия, версия,
// система команд и число dex-файлов — сразу прогоняются через
// контрольную сумму.
func NewHeader(isa types.InstructionSet, dexFileCount int) *Header {
	res := &Header{
		isa:          isa,
		dexFileCount: uint32(dexFileCount),
		sum:          adler32.New(),
	}

	res.UpdateChecksum(oatMagic[:])
	res.UpdateChecksum(oatVersion[:])
	res.UpdateChecksumUint32(uint32(isa))
	res.UpdateChecksumUint32(res.dexFileCount)

	return res
}

// UpdateChecksum прогон данных через скользящую контрольную сумму.
func (h *Header) UpdateChecksum(p []byte) {
	_, _ = h.sum.Write(p)
}

// UpdateChecksumUint32 прогон одного 32-битного слова через
// контрольную сумму в его дисковом представлении.
func (h *Header) UpdateChecksumUint32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.sum.Write(buf[:])
}

// Checksum текущее значение контрольной суммы.
func (h *Header) Checksum() uint32 {
	return h.sum.Sum32()
}

// InstructionSet система команд контейнера.
func (h *Header) InstructionSet() types.InstructionSet {
	return h.isa
}

// DexFileCount число dex-файлов в контейнере.
func (h *Header) DexFileCount() uint32 {
	return h.dexFileCount
}

// ExecutableOffset смещение первого байта исполняемой области.
func (h *Header) ExecutableOffset() uint32 {
	return h.executableOffset
}

// SetExecutableOffset задание смещения исполняемой области.
// Вызывающий обязан дать смещение кратное размеру страницы.
func (h *Header) SetExecutableOffset(offset uint32) {
	h.executableOffset = offset
}

// SizeOf размер заголовка на диске.
func (h *Header) SizeOf() uint64 {
	return headerSize
}

// Encode дисковое представление заголовка.
func (h *Header) Encode() []byte {
	res := make([]byte, 0, headerSize)
	res = append(res, oatMagic[:]...)
	res = append(res, oatVersion[:]...)
	res = binary.LittleEndian.AppendUint32(res, h.Checksum())
	res = binary.LittleEndian.AppendUint32(res, uint32(h.isa))
	res = binary.LittleEndian.AppendUint32(res, h.dexFileCount)
	res = binary.LittleEndian.AppendUint32(res, h.executableOffset)

	return res
}
