package oat

import (
	"github.com/sirkon/errors"

	"github.com/sirkon/oatbuild/internal/logging"
)

// WriterOption опция создания писалки.
type WriterOption interface {
	String() string
	apply(w *Writer) error
}

// WithLogger задаёт логирование жизненного цикла записи.
func WithLogger(log logging.Logger) WriterOption {
	return loggerOption{log: log}
}

// WithMethodMetadataSink задаёт приёмник обратной записи смещений
// в методы времени выполнения. Обязателен при сборке образа.
func WithMethodMetadataSink(meta MethodMetadataSink) WriterOption {
	return metadataSinkOption{meta: meta}
}

type loggerOption struct {
	log logging.Logger
}

func (o loggerOption) String() string {
	return "set writer logger"
}

func (o loggerOption) apply(w *Writer) error {
	if o.log == nil {
		return errors.New("logger must not be nil")
	}

	w.log = o.log
	return nil
}

type metadataSinkOption struct {
	meta MethodMetadataSink
}

func (o metadataSinkOption) String() string {
	return "set method metadata sink"
}

func (o metadataSinkOption) apply(w *Writer) error {
	if o.meta == nil {
		return errors.New("method metadata sink must not be nil")
	}

	w.meta = o.meta
	return nil
}
