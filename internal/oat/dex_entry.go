package oat

import (
	"encoding/binary"

	"github.com/sirkon/errors"

	"github.com/sirkon/oatbuild/internal/dexfile"
)

// dexEntry элемент каталога контейнера, по одному на входной dex-файл:
// путь до файла, его контрольная сумма и смещение таблицы классов.
type dexEntry struct {
	location         []byte
	dexChecksum      uint32
	classTableOffset uint32
}

func newDexEntry(df *dexfile.File) *dexEntry {
	return &dexEntry{
		location:    []byte(df.Location()),
		dexChecksum: df.HeaderChecksum(),
	}
}

func (e *dexEntry) sizeOf() uint64 {
	return 4 + uint64(len(e.location)) + 4 + 4
}

func (e *dexEntry) updateChecksum(h *Header) {
	h.UpdateChecksumUint32(uint32(len(e.location)))
	h.UpdateChecksum(e.location)
	h.UpdateChecksumUint32(e.dexChecksum)
	h.UpdateChecksumUint32(e.classTableOffset)
}

func (e *dexEntry) write(sink Sink) error {
	var word [4]byte

	binary.LittleEndian.PutUint32(word[:], uint32(len(e.location)))
	if err := sink.WriteAll(word[:]); err != nil {
		return errors.Wrap(err, "write dex file location length")
	}
	if err := sink.WriteAll(e.location); err != nil {
		return errors.Wrap(err, "write dex file location")
	}
	binary.LittleEndian.PutUint32(word[:], e.dexChecksum)
	if err := sink.WriteAll(word[:]); err != nil {
		return errors.Wrap(err, "write dex file checksum")
	}
	binary.LittleEndian.PutUint32(word[:], e.classTableOffset)
	if err := sink.WriteAll(word[:]); err != nil {
		return errors.Wrap(err, "write class table offset")
	}

	return nil
}
