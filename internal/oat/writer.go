package oat

import (
	"github.com/sirkon/errors"

	"github.com/sirkon/oatbuild/internal/compiled"
	"github.com/sirkon/oatbuild/internal/dexfile"
	"github.com/sirkon/oatbuild/internal/logging"
)

// Writer двухпроходная запись контейнера со скомпилированными методами.
// Первый проход — расчёт раскладки — выполняется в конструкторе и
// вычисляет все смещения вместе с контрольной суммой. Второй проход,
// Write, выводит байты в приёмник строго в том же порядке сверяя
// позицию с рассчитанной.
type Writer struct {
	dexFiles []*dexfile.File
	compiler compiled.Compiler
	log      logging.Logger
	meta     MethodMetadataSink

	header       *Header
	entries      []*dexEntry
	classTables  []*classTable
	methodTables []*methodTable
	dedup        *dedupIndex

	padLen      uint64
	size        uint64
	methodCount int

	scratch []byte
}

// NewWriter конструктор писалки. Здесь же происходит расчёт раскладки
// по всем методам всех классов каждого dex-файла, после возврата
// заголовок несёт окончательную контрольную сумму будущего файла.
func NewWriter(dexFiles []*dexfile.File, compiler compiled.Compiler, opts ...WriterOption) (*Writer, error) {
	res := &Writer{
		dexFiles: dexFiles,
		compiler: compiler,
		log:      logging.Nop{},
		dedup:    newDedupIndex(),
	}

	for _, opt := range opts {
		if err := opt.apply(res); err != nil {
			return nil, errors.Wrap(err, "apply "+opt.String())
		}
	}

	if compiler.IsImage() && res.meta == nil {
		return nil, errors.New("image compilation requires a method metadata sink")
	}

	offset := res.initHeader()
	offset = res.initDexEntries(offset)
	offset = res.initClassTables(offset)
	offset, err := res.initMethodTables(offset)
	if err != nil {
		return nil, errors.Wrap(err, "lay out method tables")
	}
	offset = res.initCode(offset)
	offset, err = res.initCodeDexFiles(offset)
	if err != nil {
		return nil, errors.Wrap(err, "lay out method code")
	}
	res.size = offset

	res.log.LayoutDone(res.size, res.methodCount, res.dedup.uniqueCodeSize())

	return res, nil
}

// Write расчёт раскладки и запись контейнера одним вызовом.
func Write(sink Sink, dexFiles []*dexfile.File, compiler compiled.Compiler, opts ...WriterOption) error {
	w, err := NewWriter(dexFiles, compiler, opts...)
	if err != nil {
		return errors.Wrap(err, "compute the container layout")
	}

	return w.Write(sink)
}

// Size полный размер будущего файла в байтах.
func (w *Writer) Size() uint64 {
	return w.size
}

// Header заголовок контейнера.
func (w *Writer) Header() *Header {
	return w.header
}

// Write запись образа в приёмник. Приёмник обязан стоять на нулевой
// позиции. Первая же ошибка записи или перемещения прерывает вывод,
// частичный файл остаётся за вызывающим.
func (w *Writer) Write(sink Sink) error {
	if err := w.write(sink); err != nil {
		w.log.EmitFailed(sink.Name(), err)
		return err
	}

	return nil
}

func (w *Writer) write(sink Sink) error {
	if err := sink.WriteAll(w.header.Encode()); err != nil {
		return errors.Wrap(err, "write header").Str("sink", sink.Name())
	}

	if err := w.writeTables(sink); err != nil {
		return errors.Wrap(err, "write tables").Str("sink", sink.Name())
	}

	cursor, err := w.seekExecutable(sink)
	if err != nil {
		return errors.Wrap(err, "seek to the executable region").Str("sink", sink.Name())
	}

	if err := w.writeCode(sink, cursor); err != nil {
		return errors.Wrap(err, "write code").Str("sink", sink.Name())
	}

	return nil
}
