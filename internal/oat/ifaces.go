package oat

import "github.com/sirkon/oatbuild/internal/dexfile"

// Sink позиционный приёмник байтов. Владеет им вызывающий,
// запись оставляет частичный вывод на его совести.
type Sink interface {
	// WriteAll запись всех данных либо ошибка.
	WriteAll(p []byte) error

	// SeekRelative перемещение позиции записи на delta байтов.
	// Возвращает новую абсолютную позицию.
	SeekRelative(delta int64) (int64, error)

	// Name имя приёмника для сообщений об ошибках.
	Name() string
}

// MethodMetadata метод времени выполнения принимающий обратную
// запись рассчитанных смещений при сборке загрузочного образа.
type MethodMetadata interface {
	SetFrameSize(v uint32)
	SetCoreSpillMask(v uint32)
	SetFpSpillMask(v uint32)
	SetCodeOffset(v uint32)
	SetMappingTableOffset(v uint32)
	SetVmapTableOffset(v uint32)
	SetInvokeStubOffset(v uint32)
}

// MethodMetadataSink разрешение методов времени выполнения для
// обратной записи. Внедряется опцией только при сборке образа.
type MethodMetadataSink interface {
	ResolveMethod(df *dexfile.File, methodIdx uint32, isDirect bool) (MethodMetadata, error)
}
