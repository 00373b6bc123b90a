package dexfile

import (
	"encoding/binary"

	"github.com/sirkon/varsize"
	"golang.org/x/exp/slices"
)

// Field описание поля класса для сборки данных класса.
type Field struct {
	Index       uint32
	AccessFlags uint32
}

// Method описание метода класса для сборки данных класса.
type Method struct {
	Index       uint32
	AccessFlags uint32
	CodeOff     uint32
}

// Class описание класса для сборки. Класс с выставленным NoData
// не получает данных класса вовсе, как маркерный интерфейс.
type Class struct {
	NoData bool

	StaticFields   []Field
	InstanceFields []Field
	Direct         []Method
	Virtual        []Method
}

// Builder сборка dex-файла в памяти.
type Builder struct {
	location string
	checksum uint32
	shorties []string
	classes  []ClassDef
}

// NewBuilder конструктор сборки dex-файла с данным путём
// и контрольной суммой заголовка.
func NewBuilder(location string, checksum uint32) *Builder {
	return &Builder{
		location: location,
		checksum: checksum,
	}
}

// AddMethodID регистрация идентификатора метода с данной сигнатурой.
// Возвращается индекс метода в файле.
func (b *Builder) AddMethodID(shorty string) uint32 {
	b.shorties = append(b.shorties, shorty)
	return uint32(len(b.shorties) - 1)
}

// AddClass добавление определения класса. Члены класса могут быть
// даны в произвольном порядке, при кодировании они сортируются
// по индексу как того требуют дельты.
func (b *Builder) AddClass(c Class) {
	if c.NoData {
		b.classes = append(b.classes, ClassDef{})
		return
	}

	b.classes = append(b.classes, ClassDef{classData: encodeClassData(c)})
}

// Build сборка файла. Сборщик после этого использовать нельзя.
func (b *Builder) Build() *File {
	return &File{
		location: b.location,
		checksum: b.checksum,
		shorties: b.shorties,
		classes:  b.classes,
	}
}

func encodeClassData(c Class) []byte {
	static := sortedFields(c.StaticFields)
	instance := sortedFields(c.InstanceFields)
	direct := sortedMethods(c.Direct)
	virtual := sortedMethods(c.Virtual)

	size := varsize.Uint(uint64(len(static))) +
		varsize.Uint(uint64(len(instance))) +
		varsize.Uint(uint64(len(direct))) +
		varsize.Uint(uint64(len(virtual)))
	size += fieldsSize(static) + fieldsSize(instance)
	size += methodsSize(direct) + methodsSize(virtual)

	dst := make([]byte, 0, size)
	dst = binary.AppendUvarint(dst, uint64(len(static)))
	dst = binary.AppendUvarint(dst, uint64(len(instance)))
	dst = binary.AppendUvarint(dst, uint64(len(direct)))
	dst = binary.AppendUvarint(dst, uint64(len(virtual)))
	dst = appendFields(dst, static)
	dst = appendFields(dst, instance)
	dst = appendMethods(dst, direct)
	dst = appendMethods(dst, virtual)

	return dst
}

func sortedFields(src []Field) []Field {
	res := slices.Clone(src)
	slices.SortFunc(res, func(a, b Field) bool {
		return a.Index < b.Index
	})

	return res
}

func sortedMethods(src []Method) []Method {
	res := slices.Clone(src)
	slices.SortFunc(res, func(a, b Method) bool {
		return a.Index < b.Index
	})

	return res
}

func fieldsSize(src []Field) int {
	var res int
	prev := uint32(0)
	for i, f := range src {
		res += varsize.Uint(uint64(indexDelta(i, f.Index, prev)))
		res += varsize.Uint(uint64(f.AccessFlags))
		prev = f.Index
	}

	return res
}

func methodsSize(src []Method) int {
	var res int
	prev := uint32(0)
	for i, m := range src {
		res += varsize.Uint(uint64(indexDelta(i, m.Index, prev)))
		res += varsize.Uint(uint64(m.AccessFlags))
		res += varsize.Uint(uint64(m.CodeOff))
		prev = m.Index
	}

	return res
}

func appendFields(dst []byte, src []Field) []byte {
	prev := uint32(0)
	for i, f := range src {
		dst = binary.AppendUvarint(dst, uint64(indexDelta(i, f.Index, prev)))
		dst = binary.AppendUvarint(dst, uint64(f.AccessFlags))
		prev = f.Index
	}

	return dst
}

func appendMethods(dst []byte, src []Method) []byte {
	prev := uint32(0)
	for i, m := range src {
		dst = binary.AppendUvarint(dst, uint64(indexDelta(i, m.Index, prev)))
		dst = binary.AppendUvarint(dst, uint64(m.AccessFlags))
		dst = binary.AppendUvarint(dst, uint64(m.CodeOff))
		prev = m.Index
	}

	return dst
}

func indexDelta(i int, cur, prev uint32) uint32 {
	if i == 0 {
		return cur
	}

	return cur - prev
}
