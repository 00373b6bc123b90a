package oatio

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/sirkon/errors"
)

// File приёмник байтов поверх файла с буферизацией записи
// и поддержкой относительных перемещений.
type File struct {
	file *os.File

	buf []byte
	pos int64

	failed bool

	commitName string
	errlog     func(err error)
}

// New конструктор приёмника. Запись идёт во временный файл рядом
// с именем назначения, перенос на место происходит в Commit.
func New(name string, opts ...Option) (*File, error) {
	res := &File{
		commitName: name,
		errlog:     func(err error) {},
	}
	for _, opt := range opts {
		if err := opt.apply(res); err != nil {
			return nil, errors.Wrap(err, "apply "+opt.String())
		}
	}
	if res.buf == nil {
		res.buf = make([]byte, 0, defaultBufferSize)
	}

	tmp := name + "." + uuid.NewString() + ".tmp"
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "create temporary output file")
	}
	res.file = file

	return res, nil
}

// NewFile альтернативный конструктор поверх готового файлового объекта
// с данной текущей позицией. Владение файлом переходит приёмнику.
func NewFile(file *os.File, pos uint64, opts ...Option) (*File, error) {
	res := &File{
		file:   file,
		pos:    int64(pos),
		errlog: func(err error) {},
	}
	for _, opt := range opts {
		if err := opt.apply(res); err != nil {
			return nil, errors.Wrap(err, "apply "+opt.String())
		}
	}
	if res.buf == nil {
		res.buf = make([]byte, 0, defaultBufferSize)
	}

	return res, nil
}

// WriteAll запись всех данных p. Либо данные целиком приняты,
// либо возвращается ошибка и приёмник далее непригоден.
func (f *File) WriteAll(p []byte) (err error) {
	if f.failed {
		return errSinkFailed
	}

	defer func() {
		if err != nil {
			f.failed = true
		}
	}()

	if len(f.buf)+len(p) > cap(f.buf) {
		if err := f.flush(); err != nil {
			return errors.Wrap(err, "flush buffered data to release buffer")
		}
	}

	if len(p) > cap(f.buf) {
		// Кусок больше буфера, нет смысла гонять его через буфер.
		if _, err := f.file.Write(p); err != nil {
			return errors.Wrap(err, "write data past the buffer")
		}
		f.pos += int64(len(p))
		return nil
	}

	f.buf = append(f.buf, p...)
	f.pos += int64(len(p))
	return nil
}

// SeekRelative перемещение позиции записи на delta байтов вперёд
// или назад. Возвращает новую абсолютную позицию.
func (f *File) SeekRelative(delta int64) (int64, error) {
	if f.failed {
		return 0, errSinkFailed
	}

	if delta == 0 && len(f.buf) == 0 {
		return f.pos, nil
	}

	if err := f.flush(); err != nil {
		f.failed = true
		return 0, errors.Wrap(err, "flush buffered data before seek")
	}

	pos, err := f.file.Seek(delta, io.SeekCurrent)
	if err != nil {
		f.failed = true
		return 0, errors.Wrap(err, "seek the underlying file").Int64("seek-delta", delta)
	}
	f.pos = pos

	return pos, nil
}

// Pos текущая абсолютная позиция записи с учётом буфера.
func (f *File) Pos() int64 {
	return f.pos
}

// Name имя файла приёмника.
func (f *File) Name() string {
	if f.commitName != "" {
		return f.commitName
	}

	return f.file.Name()
}

// Flush принудительный сброс буфера.
func (f *File) Flush() error {
	if f.failed {
		return errSinkFailed
	}

	if err := f.flush(); err != nil {
		f.failed = true
		return err
	}

	return nil
}

// Close закрытие приёмника после сброса буфера. Временный файл
// остаётся на диске как есть, за уборку отвечает вызывающий.
func (f *File) Close() error {
	if err := f.flush(); err != nil {
		return errors.Wrap(err, "flush buffer")
	}

	if err := f.file.Close(); err != nil {
		return errors.Wrap(err, "close file")
	}

	return nil
}

// Commit сброс буфера, закрытие и перенос временного файла на
// имя назначения. Допустим только для приёмников созданных New.
func (f *File) Commit() error {
	if f.commitName == "" {
		return errors.New("this sink was not created with a commit name")
	}

	tmp := f.file.Name()
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close before rename")
	}

	if err := os.Rename(tmp, f.commitName); err != nil {
		return errors.Wrap(err, "rename temporary file to destination")
	}

	return nil
}

func (f *File) flush() error {
	if len(f.buf) == 0 {
		return nil
	}

	if _, err := f.file.Write(f.buf); err != nil {
		f.errlog(err)
		return err
	}
	f.buf = f.buf[:0]

	return nil
}
