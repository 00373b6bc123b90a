package oat

import (
	"github.com/sirkon/errors"

	"github.com/sirkon/oatbuild/internal/byteop"
	"github.com/sirkon/oatbuild/internal/compiled"
	"github.com/sirkon/oatbuild/internal/dexfile"
)

// Первый проход. Шесть фаз, каждая двигает курсор смещения дальше:
// заголовок, каталог dex-файлов, таблицы классов, таблицы методов,
// выравнивание исполняемой области и раскладка кода по методам.
// Через контрольную сумму идут каталог, таблицы классов, затем по
// каждому классу его код и таблицы, а после них таблица методов класса,
// уже с окончательными записями. Поэтому таблицы методов попадают в
// сумму позже, чем лежат в файле.

func (w *Writer) initHeader() uint64 {
	w.header = NewHeader(w.compiler.InstructionSet(), len(w.dexFiles))
	return w.header.SizeOf()
}

func (w *Writer) initDexEntries(offset uint64) uint64 {
	for _, df := range w.dexFiles {
		entry := newDexEntry(df)
		w.entries = append(w.entries, entry)
		offset += entry.sizeOf()
	}

	return offset
}

func (w *Writer) initClassTables(offset uint64) uint64 {
	for i, df := range w.dexFiles {
		w.entries[i].classTableOffset = uint32(offset)
		w.entries[i].updateChecksum(w.header)

		table := newClassTable(df.NumClassDefs())
		w.classTables = append(w.classTables, table)
		offset += table.sizeOf()
	}

	return offset
}

func (w *Writer) initMethodTables(offset uint64) (uint64, error) {
	for i, df := range w.dexFiles {
		for classDefIndex := 0; classDefIndex < df.NumClassDefs(); classDefIndex++ {
			w.classTables[i].offsets[classDefIndex] = uint32(offset)

			numMethods := 0
			classData := df.ClassData(df.ClassDef(classDefIndex))
			if classData != nil {
				it, err := dexfile.NewClassDataIterator(classData)
				if err != nil {
					return 0, errors.Wrap(err, "read class data").
						Str("dex-location", df.Location()).
						Int("class-def-index", classDefIndex)
				}

				numMethods = it.NumDirectMethods() + it.NumVirtualMethods()
			}

			table := newMethodTable(numMethods)
			w.methodTables = append(w.methodTables, table)
			offset += table.sizeOf()
		}

		w.classTables[i].updateChecksum(w.header)
	}

	return offset, nil
}

func (w *Writer) initCode(offset uint64) uint64 {
	prePad := offset
	offset = alignUp(offset, PageSize)
	w.padLen = offset - prePad
	w.header.SetExecutableOffset(uint32(offset))

	return offset
}

func (w *Writer) initCodeDexFiles(offset uint64) (uint64, error) {
	classIndex := 0
	for _, df := range w.dexFiles {
		var err error
		offset, classIndex, err = w.initCodeDexFile(offset, classIndex, df)
		if err != nil {
			return 0, errors.Wrap(err, "lay out dex file").Str("dex-location", df.Location())
		}
	}

	return offset, nil
}

func (w *Writer) initCodeDexFile(offset uint64, classIndex int, df *dexfile.File) (uint64, int, error) {
	for classDefIndex := 0; classDefIndex < df.NumClassDefs(); classDefIndex++ {
		var err error
		offset, err = w.initCodeClassDef(offset, classIndex, df, classDefIndex)
		if err != nil {
			return 0, 0, errors.Wrap(err, "lay out class").Int("class-def-index", classDefIndex)
		}

		w.methodTables[classIndex].updateChecksum(w.header)
		classIndex++
	}

	return offset, classIndex, nil
}

func (w *Writer) initCodeClassDef(offset uint64, classIndex int, df *dexfile.File, classDefIndex int) (uint64, error) {
	classData := df.ClassData(df.ClassDef(classDefIndex))
	if classData == nil {
		// Пустой класс, вроде маркерного интерфейса.
		return offset, nil
	}

	it, err := dexfile.NewClassDataIterator(classData)
	if err != nil {
		return 0, errors.Wrap(err, "read class data")
	}

	// Поля пропускаются целиком.
	for it.HasNextStaticField() || it.HasNextInstanceField() {
		if err := it.Next(); err != nil {
			return 0, errors.Wrap(err, "skip fields")
		}
	}

	methodIndexInClass := 0
	for it.HasNextDirectMethod() {
		isStatic := it.MemberAccessFlags()&dexfile.AccStatic != 0
		offset, err = w.layoutMethod(offset, classIndex, methodIndexInClass, isStatic, true, it.MemberIndex(), df)
		if err != nil {
			return 0, err
		}

		methodIndexInClass++
		if err := it.Next(); err != nil {
			return 0, errors.Wrap(err, "advance over a direct method")
		}
	}
	for it.HasNextVirtualMethod() {
		offset, err = w.layoutMethod(offset, classIndex, methodIndexInClass, false, false, it.MemberIndex(), df)
		if err != nil {
			return 0, err
		}

		methodIndexInClass++
		if err := it.Next(); err != nil {
			return 0, errors.Wrap(err, "advance over a virtual method")
		}
	}

	return offset, nil
}

func (w *Writer) layoutMethod(
	offset uint64,
	classIndex int,
	methodIndexInClass int,
	isStatic bool,
	isDirect bool,
	methodIdx uint32,
	df *dexfile.File,
) (uint64, error) {
	rec := &w.methodTables[classIndex].records[methodIndexInClass]
	rec.FrameSize = DefaultStackAlignment

	ref := compiled.MethodRef{File: df, Index: methodIdx}
	method := w.compiler.GetCompiledMethod(ref)

	if method != nil {
		offset = method.AlignCode(offset)

		code := method.Code()
		codeOffset := uint32(0)
		if len(code) != 0 {
			codeOffset = uint32(offset) + method.CodeDelta()
		}

		if prev, ok := w.dedup.lookupCode(code); ok {
			rec.CodeOffset = prev
		} else {
			rec.CodeOffset = codeOffset
			w.dedup.insertCode(code, codeOffset)
			offset += uint64(len(code))
			w.header.UpdateChecksum(code)
		}

		rec.FrameSize = method.FrameSize()
		rec.CoreSpillMask = method.CoreSpillMask()
		rec.FpSpillMask = method.FpSpillMask()
	}

	// Три слова кадра пишутся для каждого метода, даже абстрактного.
	offset += 4
	w.header.UpdateChecksumUint32(rec.FrameSize)
	offset += 4
	w.header.UpdateChecksumUint32(rec.CoreSpillMask)
	offset += 4
	w.header.UpdateChecksumUint32(rec.FpSpillMask)

	if method != nil {
		raw := byteop.AppendUint32s(nil, method.MappingTable())
		mappingOffset := uint32(0)
		if len(raw) != 0 {
			mappingOffset = uint32(offset)
		}
		if prev, ok := w.dedup.lookupMapping(raw); ok {
			rec.MappingTableOffset = prev
		} else {
			rec.MappingTableOffset = mappingOffset
			w.dedup.insertMapping(raw, mappingOffset)
			offset += uint64(len(raw))
			w.header.UpdateChecksum(raw)
		}

		raw = byteop.AppendUint16s(nil, method.VmapTable())
		vmapOffset := uint32(0)
		if len(raw) != 0 {
			vmapOffset = uint32(offset)
		}
		if prev, ok := w.dedup.lookupVmap(raw); ok {
			rec.VmapTableOffset = prev
		} else {
			rec.VmapTableOffset = vmapOffset
			w.dedup.insertVmap(raw, vmapOffset)
			offset += uint64(len(raw))
			w.header.UpdateChecksum(raw)
		}
	}

	shorty := df.MethodShorty(methodIdx)
	if stub := w.compiler.FindInvokeStub(isStatic, shorty); stub != nil {
		offset = compiled.AlignCode(offset, w.compiler.InstructionSet())

		code := stub.Code()
		stubOffset := uint32(0)
		if len(code) != 0 {
			stubOffset = uint32(offset)
		}

		// Трамплины делят индекс с кодом методов и могут совпасть с ним.
		if prev, ok := w.dedup.lookupCode(code); ok {
			rec.InvokeStubOffset = prev
		} else {
			rec.InvokeStubOffset = stubOffset
			w.dedup.insertCode(code, stubOffset)
			offset += uint64(len(code))
			w.header.UpdateChecksum(code)
		}
	}

	if w.compiler.IsImage() {
		meta, err := w.meta.ResolveMethod(df, methodIdx, isDirect)
		if err != nil {
			return 0, errors.Wrap(err, "resolve a runtime method to fill offsets").Stg("method", ref)
		}

		meta.SetFrameSize(rec.FrameSize)
		meta.SetCoreSpillMask(rec.CoreSpillMask)
		meta.SetFpSpillMask(rec.FpSpillMask)
		meta.SetCodeOffset(rec.CodeOffset)
		meta.SetMappingTableOffset(rec.MappingTableOffset)
		meta.SetVmapTableOffset(rec.VmapTableOffset)
		meta.SetInvokeStubOffset(rec.InvokeStubOffset)
	}

	w.methodCount++
	return offset, nil
}

func alignUp(v uint64, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
