package oat

import (
	"encoding/binary"

	"github.com/sirkon/errors"

	"github.com/sirkon/oatbuild/internal/byteop"
	"github.com/sirkon/oatbuild/internal/compiled"
	"github.com/sirkon/oatbuild/internal/dexfile"
)

// Второй проход. Обход входов повторяет первый байт в байт, вместо
// продвижения курсора раскладки идёт запись в приёмник. На каждом шаге
// текущая позиция приёмника сверяется со смещением рассчитанным первым
// проходом, расхождение означает ошибку и прерывает запись.

func (w *Writer) writeTables(sink Sink) error {
	for _, entry := range w.entries {
		if err := entry.write(sink); err != nil {
			return errors.Wrap(err, "write dex file entry").Str("dex-location", string(entry.location))
		}
	}
	for i, table := range w.classTables {
		if err := table.write(sink, &w.scratch); err != nil {
			return errors.Wrap(err, "write class table").Int("dex-file-index", i)
		}
	}
	for i, table := range w.methodTables {
		if err := table.write(sink, &w.scratch); err != nil {
			return errors.Wrap(err, "write method table").Int("class-index", i)
		}
	}

	return nil
}

// seekExecutable продвижение приёмника через выравнивающую прореху
// до начала исполняемой области. Сами байты прорехи не пишутся.
func (w *Writer) seekExecutable(sink Sink) (uint64, error) {
	pos, err := sink.SeekRelative(int64(w.padLen))
	if err != nil {
		return 0, errors.Wrap(err, "seek over the alignment gap").Uint64("gap-length", w.padLen)
	}

	if uint64(pos) != uint64(w.header.ExecutableOffset()) {
		return 0, errSinkSeek(pos, uint64(w.header.ExecutableOffset()))
	}

	return uint64(pos), nil
}

func (w *Writer) writeCode(sink Sink, cursor uint64) error {
	classIndex := 0
	for _, df := range w.dexFiles {
		for classDefIndex := 0; classDefIndex < df.NumClassDefs(); classDefIndex++ {
			var err error
			cursor, err = w.writeCodeClassDef(sink, cursor, classIndex, df, classDefIndex)
			if err != nil {
				return errors.Wrap(err, "write class code").
					Str("dex-location", df.Location()).
					Int("class-def-index", classDefIndex)
			}

			classIndex++
		}
	}

	return nil
}

func (w *Writer) writeCodeClassDef(
	sink Sink,
	cursor uint64,
	classIndex int,
	df *dexfile.File,
	classDefIndex int,
) (uint64, error) {
	classData := df.ClassData(df.ClassDef(classDefIndex))
	if classData == nil {
		return cursor, nil
	}

	it, err := dexfile.NewClassDataIterator(classData)
	if err != nil {
		return 0, errors.Wrap(err, "read class data")
	}

	for it.HasNextStaticField() || it.HasNextInstanceField() {
		if err := it.Next(); err != nil {
			return 0, errors.Wrap(err, "skip fields")
		}
	}

	methodIndexInClass := 0
	for it.HasNextDirectMethod() {
		isStatic := it.MemberAccessFlags()&dexfile.AccStatic != 0
		cursor, err = w.writeCodeMethod(sink, cursor, classIndex, methodIndexInClass, isStatic, it.MemberIndex(), df)
		if err != nil {
			return 0, err
		}

		methodIndexInClass++
		if err := it.Next(); err != nil {
			return 0, errors.Wrap(err, "advance over a direct method")
		}
	}
	for it.HasNextVirtualMethod() {
		cursor, err = w.writeCodeMethod(sink, cursor, classIndex, methodIndexInClass, false, it.MemberIndex(), df)
		if err != nil {
			return 0, err
		}

		methodIndexInClass++
		if err := it.Next(); err != nil {
			return 0, errors.Wrap(err, "advance over a virtual method")
		}
	}

	return cursor, nil
}

func (w *Writer) writeCodeMethod(
	sink Sink,
	cursor uint64,
	classIndex int,
	methodIndexInClass int,
	isStatic bool,
	methodIdx uint32,
	df *dexfile.File,
) (uint64, error) {
	rec := w.methodTables[classIndex].records[methodIndexInClass]
	ref := compiled.MethodRef{File: df, Index: methodIdx}
	method := w.compiler.GetCompiledMethod(ref)

	var frameSize, coreSpillMask, fpSpillMask uint32

	if method != nil {
		var err error
		cursor, err = w.alignCode(sink, cursor, method.AlignCode(cursor), ref)
		if err != nil {
			return 0, err
		}

		code := method.Code()
		expected := uint32(cursor) + method.CodeDelta()
		recorded, known := w.dedup.lookupCode(code)
		if known && expected != rec.CodeOffset {
			// Повтор уже записанного кода, байты не выводятся
			// и позиция не двигается.
			if !(len(code) == 0 && rec.CodeOffset == 0) && recorded != rec.CodeOffset {
				return 0, errLayoutMismatch("deduplicated method code", uint64(recorded), uint64(rec.CodeOffset), ref)
			}
		} else {
			if !(len(code) == 0 && rec.CodeOffset == 0) && expected != rec.CodeOffset {
				return 0, errLayoutMismatch("method code", uint64(expected), uint64(rec.CodeOffset), ref)
			}

			if err := sink.WriteAll(code); err != nil {
				return 0, errSinkWrite(err, "method code", ref, sink)
			}
			cursor += uint64(len(code))
		}

		frameSize = method.FrameSize()
		coreSpillMask = method.CoreSpillMask()
		fpSpillMask = method.FpSpillMask()
	}

	var word [4]byte
	binary.LittleEndian.PutUint32(word[:], frameSize)
	if err := sink.WriteAll(word[:]); err != nil {
		return 0, errSinkWrite(err, "method frame size", ref, sink)
	}
	cursor += 4

	binary.LittleEndian.PutUint32(word[:], coreSpillMask)
	if err := sink.WriteAll(word[:]); err != nil {
		return 0, errSinkWrite(err, "method core spill mask", ref, sink)
	}
	cursor += 4

	binary.LittleEndian.PutUint32(word[:], fpSpillMask)
	if err := sink.WriteAll(word[:]); err != nil {
		return 0, errSinkWrite(err, "method fp spill mask", ref, sink)
	}
	cursor += 4

	if method != nil {
		raw := byteop.AppendUint32s(nil, method.MappingTable())
		recorded, known := w.dedup.lookupMapping(raw)
		if known && uint32(cursor) != rec.MappingTableOffset {
			if !(len(raw) == 0 && rec.MappingTableOffset == 0) && recorded != rec.MappingTableOffset {
				return 0, errLayoutMismatch("deduplicated mapping table", uint64(recorded), uint64(rec.MappingTableOffset), ref)
			}
		} else {
			if !(len(raw) == 0 && rec.MappingTableOffset == 0) && uint32(cursor) != rec.MappingTableOffset {
				return 0, errLayoutMismatch("mapping table", cursor, uint64(rec.MappingTableOffset), ref)
			}

			if err := sink.WriteAll(raw); err != nil {
				return 0, errSinkWrite(err, "mapping table", ref, sink)
			}
			cursor += uint64(len(raw))
		}

		raw = byteop.AppendUint16s(nil, method.VmapTable())
		recorded, known = w.dedup.lookupVmap(raw)
		if known && uint32(cursor) != rec.VmapTableOffset {
			if !(len(raw) == 0 && rec.VmapTableOffset == 0) && recorded != rec.VmapTableOffset {
				return 0, errLayoutMismatch("deduplicated vmap table", uint64(recorded), uint64(rec.VmapTableOffset), ref)
			}
		} else {
			if !(len(raw) == 0 && rec.VmapTableOffset == 0) && uint32(cursor) != rec.VmapTableOffset {
				return 0, errLayoutMismatch("vmap table", cursor, uint64(rec.VmapTableOffset), ref)
			}

			if err := sink.WriteAll(raw); err != nil {
				return 0, errSinkWrite(err, "vmap table", ref, sink)
			}
			cursor += uint64(len(raw))
		}
	}

	shorty := df.MethodShorty(methodIdx)
	if stub := w.compiler.FindInvokeStub(isStatic, shorty); stub != nil {
		var err error
		cursor, err = w.alignCode(sink, cursor, compiled.AlignCode(cursor, w.compiler.InstructionSet()), ref)
		if err != nil {
			return 0, err
		}

		code := stub.Code()
		recorded, known := w.dedup.lookupCode(code)
		if known && uint32(cursor) != rec.InvokeStubOffset {
			if !(len(code) == 0 && rec.InvokeStubOffset == 0) && recorded != rec.InvokeStubOffset {
				return 0, errLayoutMismatch("deduplicated invoke stub", uint64(recorded), uint64(rec.InvokeStubOffset), ref)
			}
		} else {
			if !(len(code) == 0 && rec.InvokeStubOffset == 0) && uint32(cursor) != rec.InvokeStubOffset {
				return 0, errLayoutMismatch("invoke stub", cursor, uint64(rec.InvokeStubOffset), ref)
			}

			if err := sink.WriteAll(code); err != nil {
				return 0, errSinkWrite(err, "invoke stub code", ref, sink)
			}
			cursor += uint64(len(code))
		}
	}

	pos, err := sink.SeekRelative(0)
	if err != nil {
		return 0, errors.Wrap(err, "read back the sink position").Stg("method", ref)
	}
	if uint64(pos) != cursor {
		return 0, errors.New("emit cursor diverged from the sink position").
			Uint64("emit-cursor", cursor).
			Int64("sink-position", pos).
			Stg("method", ref)
	}

	return cursor, nil
}

// alignCode продвижение приёмника перемещением до выровненного начала
// кода. Выравнивание на месте обходится без обращений к приёмнику.
func (w *Writer) alignCode(sink Sink, cursor, aligned uint64, ref compiled.MethodRef) (uint64, error) {
	if aligned == cursor {
		return cursor, nil
	}

	pos, err := sink.SeekRelative(int64(aligned - cursor))
	if err != nil {
		return 0, errors.Wrap(err, "seek to align code").Stg("method", ref)
	}
	if uint64(pos) != aligned {
		return 0, errSinkSeek(pos, aligned)
	}

	return aligned, nil
}
