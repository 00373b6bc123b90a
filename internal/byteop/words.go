package byteop

import "encoding/binary"

// AppendUint32s кодирует слайс 32-битных слов в хвост dst и возвращает результат.
func AppendUint32s(dst []byte, src []uint32) []byte {
	for _, v := range src {
		dst = binary.LittleEndian.AppendUint32(dst, v)
	}

	return dst
}

// AppendUint16s кодирует слайс 16-битных слов в хвост dst и возвращает результат.
func AppendUint16s(dst []byte, src []uint16) []byte {
	for _, v := range src {
		dst = binary.LittleEndian.AppendUint16(dst, v)
	}

	return dst
}
