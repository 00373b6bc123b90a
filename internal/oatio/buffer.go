package oatio

import (
	"github.com/sirkon/errors"

	"github.com/sirkon/oatbuild/internal/byteop"
)

// Buffer приёмник байтов в памяти. Используется в тестах и там,
// где образ собирается целиком до сброса на диск.
type Buffer struct {
	name string
	data []byte
	pos  int64
}

// NewBuffer конструктор приёмника в памяти с данным именем.
func NewBuffer(name string) *Buffer {
	return &Buffer{
		name: name,
	}
}

// WriteAll запись всех данных p по текущей позиции.
// Разрыв между концом данных и позицией заполняется нулями.
func (b *Buffer) WriteAll(p []byte) error {
	end := b.pos + int64(len(p))
	for int64(len(b.data)) < end {
		b.data = append(b.data, 0)
	}
	copy(b.data[b.pos:end], p)
	b.pos = end

	return nil
}

// SeekRelative перемещение позиции на delta байтов.
// Возвращает новую абсолютную позицию.
func (b *Buffer) SeekRelative(delta int64) (int64, error) {
	pos := b.pos + delta
	if pos < 0 {
		return 0, errors.New("seek before the data start").
			Int64("seek-delta", delta).
			Int64("position", b.pos)
	}
	b.pos = pos

	return pos, nil
}

// Pos текущая позиция записи.
func (b *Buffer) Pos() int64 {
	return b.pos
}

// Name имя приёмника.
func (b *Buffer) Name() string {
	return b.name
}

// Bytes копия собранных данных.
func (b *Buffer) Bytes() []byte {
	return byteop.Clone(b.data)
}

// Len длина собранных данных.
func (b *Buffer) Len() int {
	return len(b.data)
}
