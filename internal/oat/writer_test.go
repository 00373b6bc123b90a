package oat

import (
	"encoding/binary"
	"hash/adler32"
	"testing"

	"github.com/sirkon/deepequal"
	"github.com/sirkon/errors"

	"github.com/sirkon/oatbuild/internal/compiled"
	"github.com/sirkon/oatbuild/internal/dexfile"
	"github.com/sirkon/oatbuild/internal/tlog"
	"github.com/sirkon/oatbuild/internal/types"
)

func TestLayoutSingleAbstractMethod(t *testing.T) {
	df := singleClassDex("classes.dex", 0xCAFEBABE, []string{"V"}, dexfile.Class{
		Virtual: []dexfile.Method{{Index: 0, AccessFlags: 0x0400}},
	})

	w, err := NewWriter([]*dexfile.File{df}, newTestCompiler(types.ISArm))
	if err != nil {
		tlog.Error(t, errors.Wrap(err, "compute layout"))
		return
	}

	// Заголовок 24, элемент каталога 23, таблица классов 4,
	// таблица методов 28, затем выравнивание и 12 байт кадра.
	if w.header.ExecutableOffset() != PageSize {
		t.Errorf("expected executable offset %d, got %d", PageSize, w.header.ExecutableOffset())
	}
	if w.padLen != PageSize-79 {
		t.Errorf("expected %d padding bytes, got %d", PageSize-79, w.padLen)
	}
	if w.Size() != PageSize+12 {
		t.Errorf("expected file size %d, got %d", PageSize+12, w.Size())
	}

	expected := MethodRecord{
		CodeOffset:    0,
		FrameSize:     DefaultStackAlignment,
		CoreSpillMask: 0,
		FpSpillMask:   0,
	}
	deepequal.SideBySide(t, "method record", expected, w.methodTables[0].records[0])
}

func TestLayoutChecksum(t *testing.T) {
	const location = "classes.dex"
	const dexChecksum = 0x12345678

	df := singleClassDex(location, dexChecksum, []string{"V"}, dexfile.Class{
		Virtual: []dexfile.Method{{Index: 0, AccessFlags: 0x0400}},
	})

	w, err := NewWriter([]*dexfile.File{df}, newTestCompiler(types.ISArm))
	if err != nil {
		tlog.Error(t, errors.Wrap(err, "compute layout"))
		return
	}

	// Независимый пересчёт в порядке прогона через сумму: неизменные поля
	// заголовка, элемент каталога, таблица классов, слова кадра и
	// таблица методов.
	sum := adler32.New()
	u32 := func(v uint32) {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], v)
		_, _ = sum.Write(buf[:])
	}
	_, _ = sum.Write(oatMagic[:])
	_, _ = sum.Write(oatVersion[:])
	u32(uint32(types.ISArm))
	u32(1)
	u32(uint32(len(location)))
	_, _ = sum.Write([]byte(location))
	u32(dexChecksum)
	u32(47) // смещение таблицы классов
	u32(51) // смещение таблицы методов
	u32(DefaultStackAlignment)
	u32(0)
	u32(0)
	rec := MethodRecord{FrameSize: DefaultStackAlignment}
	_, _ = sum.Write(rec.encode(nil))

	if w.header.Checksum() != sum.Sum32() {
		t.Errorf("expected checksum %08x, got %08x", sum.Sum32(), w.header.Checksum())
	}
}

func TestLayoutDedupIdenticalCode(t *testing.T) {
	code := []byte{0xDE, 0xAD, 0xBE, 0xEF, 1, 2, 3, 4}
	mapping := []uint32{1, 2}
	vmap := []uint16{3}

	df := singleClassDex("classes.dex", 1, []string{"V", "V"}, dexfile.Class{
		Direct: []dexfile.Method{
			{Index: 0, AccessFlags: dexfile.AccStatic},
			{Index: 1, AccessFlags: dexfile.AccStatic},
		},
	})

	comp := newTestCompiler(types.ISArm)
	comp.addMethod(df, 0, compiled.NewMethod(types.ISArm, code, 64, 0x10, 0, mapping, vmap))
	comp.addMethod(df, 1, compiled.NewMethod(types.ISArm, code, 64, 0x10, 0, mapping, vmap))

	w, err := NewWriter([]*dexfile.File{df}, comp)
	if err != nil {
		tlog.Error(t, errors.Wrap(err, "compute layout"))
		return
	}

	first := w.methodTables[0].records[0]
	second := w.methodTables[0].records[1]

	if first.CodeOffset != PageSize {
		t.Errorf("expected the first code offset %d, got %d", PageSize, first.CodeOffset)
	}
	if second.CodeOffset != first.CodeOffset {
		t.Errorf("expected deduplicated code offset %d, got %d", first.CodeOffset, second.CodeOffset)
	}
	if second.MappingTableOffset != first.MappingTableOffset {
		t.Errorf(
			"expected deduplicated mapping table offset %d, got %d",
			first.MappingTableOffset,
			second.MappingTableOffset,
		)
	}
	if second.VmapTableOffset != first.VmapTableOffset {
		t.Errorf("expected deduplicated vmap table offset %d, got %d", first.VmapTableOffset, second.VmapTableOffset)
	}

	if w.dedup.uniqueCodeSize() != len(code) {
		t.Errorf("expected %d unique code bytes, got %d", len(code), w.dedup.uniqueCodeSize())
	}
}

func TestLayoutThumbDelta(t *testing.T) {
	code := []byte{0x70, 0x47, 0, 0, 0, 0, 0, 0}

	df := singleClassDex("classes.dex", 1, []string{"V"}, dexfile.Class{
		Direct: []dexfile.Method{{Index: 0, AccessFlags: dexfile.AccStatic}},
	})

	comp := newTestCompiler(types.ISThumb2)
	comp.addMethod(df, 0, compiled.NewMethod(types.ISThumb2, code, 32, 0, 0, nil, nil))

	w, err := NewWriter([]*dexfile.File{df}, comp)
	if err != nil {
		tlog.Error(t, errors.Wrap(err, "compute layout"))
		return
	}

	rec := w.methodTables[0].records[0]
	if rec.CodeOffset != PageSize+1 {
		t.Errorf("expected thumb code offset %d, got %d", PageSize+1, rec.CodeOffset)
	}
	if rec.CodeOffset%2 != 1 {
		t.Errorf("thumb code offset must be odd, got %d", rec.CodeOffset)
	}
}

func TestLayoutEmptyClass(t *testing.T) {
	b := dexfile.NewBuilder("classes.dex", 7)
	b.AddMethodID("V")
	b.AddClass(dexfile.Class{NoData: true})
	b.AddClass(dexfile.Class{
		Virtual: []dexfile.Method{{Index: 0, AccessFlags: 0x0400}},
	})
	df := b.Build()

	w, err := NewWriter([]*dexfile.File{df}, newTestCompiler(types.ISArm))
	if err != nil {
		tlog.Error(t, errors.Wrap(err, "compute layout"))
		return
	}

	if len(w.methodTables[0].records) != 0 {
		t.Errorf("expected an empty method table, got %d records", len(w.methodTables[0].records))
	}
	if w.classTables[0].offsets[0] != w.classTables[0].offsets[1] {
		t.Errorf(
			"an empty method table must not consume space: %d != %d",
			w.classTables[0].offsets[0],
			w.classTables[0].offsets[1],
		)
	}
}

func TestLayoutTwoDexFiles(t *testing.T) {
	a := singleClassDex("a.dex", 1, []string{"V"}, dexfile.Class{
		Virtual: []dexfile.Method{{Index: 0, AccessFlags: 0x0400}},
	})
	b := singleClassDex("b.dex", 2, []string{"V"}, dexfile.Class{
		Virtual: []dexfile.Method{{Index: 0, AccessFlags: 0x0400}},
	})

	w, err := NewWriter([]*dexfile.File{a, b}, newTestCompiler(types.ISArm))
	if err != nil {
		tlog.Error(t, errors.Wrap(err, "compute layout"))
		return
	}

	// Каталог лежит подряд за заголовком, за ним обе таблицы классов
	// впритык, затем обе таблицы методов впритык.
	if w.entries[0].classTableOffset != 58 {
		t.Errorf("expected the first class table at 58, got %d", w.entries[0].classTableOffset)
	}
	if w.entries[1].classTableOffset != 62 {
		t.Errorf("expected the second class table at 62, got %d", w.entries[1].classTableOffset)
	}
	if w.classTables[0].offsets[0] != 66 {
		t.Errorf("expected the first method table at 66, got %d", w.classTables[0].offsets[0])
	}
	if w.classTables[1].offsets[0] != 94 {
		t.Errorf("expected the second method table at 94, got %d", w.classTables[1].offsets[0])
	}
	if w.header.ExecutableOffset()%PageSize != 0 {
		t.Errorf("executable offset %d is not page aligned", w.header.ExecutableOffset())
	}
}

func TestLayoutStubSharesCodeIndex(t *testing.T) {
	code := []byte{0xDE, 0xAD, 0xBE, 0xEF, 5, 6, 7, 8}

	df := singleClassDex("classes.dex", 1, []string{"V"}, dexfile.Class{
		Direct: []dexfile.Method{{Index: 0, AccessFlags: dexfile.AccStatic}},
	})

	comp := newTestCompiler(types.ISArm)
	comp.addMethod(df, 0, compiled.NewMethod(types.ISArm, code, 32, 0, 0, nil, nil))
	comp.addStub(true, "V", compiled.NewInvokeStub(code))

	w, err := NewWriter([]*dexfile.File{df}, comp)
	if err != nil {
		tlog.Error(t, errors.Wrap(err, "compute layout"))
		return
	}

	rec := w.methodTables[0].records[0]
	if rec.InvokeStubOffset != rec.CodeOffset {
		t.Errorf(
			"a stub with the same bytes must alias the method code: stub %d, code %d",
			rec.InvokeStubOffset,
			rec.CodeOffset,
		)
	}
}

func TestLayoutMonotoneOffsets(t *testing.T) {
	code := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	df := singleClassDex("classes.dex", 1, []string{"V", "I"}, dexfile.Class{
		Direct:  []dexfile.Method{{Index: 0, AccessFlags: dexfile.AccStatic}},
		Virtual: []dexfile.Method{{Index: 1, AccessFlags: 0}},
	})

	comp := newTestCompiler(types.ISArm)
	comp.addMethod(df, 0, compiled.NewMethod(types.ISArm, code, 32, 0, 0, []uint32{9}, []uint16{4}))
	comp.addStub(true, "V", compiled.NewInvokeStub([]byte{0xFE, 0xED, 0xFA, 0xCE}))

	w, err := NewWriter([]*dexfile.File{df}, comp)
	if err != nil {
		tlog.Error(t, errors.Wrap(err, "compute layout"))
		return
	}

	exec := w.header.ExecutableOffset()
	for _, table := range w.methodTables {
		for _, rec := range table.records {
			for _, offset := range []uint32{
				rec.CodeOffset,
				rec.MappingTableOffset,
				rec.VmapTableOffset,
				rec.InvokeStubOffset,
			} {
				if offset != 0 && offset < exec {
					t.Errorf("offset %d points before the executable region at %d", offset, exec)
				}
			}
		}
	}
}

func TestLayoutImageBackfill(t *testing.T) {
	code := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	df := singleClassDex("classes.dex", 1, []string{"V"}, dexfile.Class{
		Direct: []dexfile.Method{{Index: 0, AccessFlags: dexfile.AccStatic}},
	})

	comp := newTestCompiler(types.ISArm)
	comp.image = true
	comp.addMethod(df, 0, compiled.NewMethod(types.ISArm, code, 48, 0x11, 0x2, []uint32{7}, []uint16{9}))

	meta := &metadataRecorder{}
	w, err := NewWriter(
		[]*dexfile.File{df},
		comp,
		WithMethodMetadataSink(metadataResolver{rec: meta}),
	)
	if err != nil {
		tlog.Error(t, errors.Wrap(err, "compute layout"))
		return
	}

	expected := w.methodTables[0].records[0]
	actual := MethodRecord{
		CodeOffset:         meta.codeOffset,
		FrameSize:          meta.frameSize,
		CoreSpillMask:      meta.coreSpillMask,
		FpSpillMask:        meta.fpSpillMask,
		MappingTableOffset: meta.mappingTableOffset,
		VmapTableOffset:    meta.vmapTableOffset,
		InvokeStubOffset:   meta.invokeStubOffset,
	}
	deepequal.SideBySide(t, "backfilled metadata", expected, actual)
}

func TestLayoutImageWithoutMetadataSink(t *testing.T) {
	df := singleClassDex("classes.dex", 1, []string{"V"}, dexfile.Class{
		Direct: []dexfile.Method{{Index: 0, AccessFlags: dexfile.AccStatic}},
	})

	comp := newTestCompiler(types.ISArm)
	comp.image = true

	if _, err := NewWriter([]*dexfile.File{df}, comp); err == nil {
		t.Error("image compilation without a metadata sink must be rejected")
	}
}

type metadataRecorder struct {
	frameSize          uint32
	coreSpillMask      uint32
	fpSpillMask        uint32
	codeOffset         uint32
	mappingTableOffset uint32
	vmapTableOffset    uint32
	invokeStubOffset   uint32
}

func (r *metadataRecorder) SetFrameSize(v uint32)          { r.frameSize = v }
func (r *metadataRecorder) SetCoreSpillMask(v uint32)      { r.coreSpillMask = v }
func (r *metadataRecorder) SetFpSpillMask(v uint32)        { r.fpSpillMask = v }
func (r *metadataRecorder) SetCodeOffset(v uint32)         { r.codeOffset = v }
func (r *metadataRecorder) SetMappingTableOffset(v uint32) { r.mappingTableOffset = v }
func (r *metadataRecorder) SetVmapTableOffset(v uint32)    { r.vmapTableOffset = v }
func (r *metadataRecorder) SetInvokeStubOffset(v uint32)   { r.invokeStubOffset = v }

type metadataResolver struct {
	rec *metadataRecorder
}

func (r metadataResolver) ResolveMethod(df *dexfile.File, methodIdx uint32, isDirect bool) (MethodMetadata, error) {
	return r.rec, nil
}
