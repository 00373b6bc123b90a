package oatio

import (
	"fmt"

	"github.com/sirkon/errors"
)

const defaultBufferSize = 4096

// Option опция создания приёмника.
type Option interface {
	String() string
	apply(f *File) error
}

// BufferSize задаёт размер буфера записи в байтах.
func BufferSize(size int) Option {
	return bufferSize(size)
}

// Logger задаёт логирование ошибок записи на диск.
func Logger(log func(err error)) Option {
	return loggerOption{log: log}
}

type bufferSize int

func (o bufferSize) String() string {
	return fmt.Sprintf("set sink buffer size to %d bytes", int(o))
}

func (o bufferSize) apply(f *File) error {
	if o <= 0 {
		return errors.Newf("buffer size must be positive, got %d", int(o))
	}

	f.buf = make([]byte, 0, int(o))
	return nil
}

type loggerOption struct {
	log func(err error)
}

func (o loggerOption) String() string {
	return "set sink error logger"
}

func (o loggerOption) apply(f *File) error {
	if o.log == nil {
		return errors.New("logger must not be nil")
	}

	f.errlog = o.log
	return nil
}
