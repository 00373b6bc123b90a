package dexfile

import (
	"github.com/sirkon/errors"

	"github.com/sirkon/oatbuild/internal/uvarints"
)

// ClassDataIterator последовательный обход данных класса в каноническом
// порядке: статические поля, поля экземпляра, прямые методы, виртуальные
// методы. Индексы членов закодированы дельтами в ULEB128, дельты
// сбрасываются на границах секций.
//
// Сразу после создания итератор стоит на первом элементе, если тот есть.
// Next переводит его на следующий.
type ClassDataIterator struct {
	rest []byte

	numStatic   uint64
	numInstance uint64
	numDirect   uint64
	numVirtual  uint64

	pos       uint64
	memberIdx uint64
	flags     uint64
	codeOff   uint64
}

// NewClassDataIterator создание итератора по данному потоку данных класса.
func NewClassDataIterator(data []byte) (*ClassDataIterator, error) {
	it := &ClassDataIterator{
		rest: data,
	}

	var err error
	if it.numStatic, it.rest, err = uvarints.Read(it.rest); err != nil {
		return nil, errors.Wrap(err, "decode static fields count")
	}
	if it.numInstance, it.rest, err = uvarints.Read(it.rest); err != nil {
		return nil, errors.Wrap(err, "decode instance fields count")
	}
	if it.numDirect, it.rest, err = uvarints.Read(it.rest); err != nil {
		return nil, errors.Wrap(err, "decode direct methods count")
	}
	if it.numVirtual, it.rest, err = uvarints.Read(it.rest); err != nil {
		return nil, errors.Wrap(err, "decode virtual methods count")
	}

	if it.total() != 0 {
		if err := it.readMember(); err != nil {
			return nil, errors.Wrap(err, "decode first member")
		}
	}

	return it, nil
}

// NumDirectMethods количество прямых методов класса.
func (it *ClassDataIterator) NumDirectMethods() int {
	return int(it.numDirect)
}

// NumVirtualMethods количество виртуальных методов класса.
func (it *ClassDataIterator) NumVirtualMethods() int {
	return int(it.numVirtual)
}

// HasNext истина если обход ещё не завершён.
func (it *ClassDataIterator) HasNext() bool {
	return it.pos < it.total()
}

// HasNextStaticField истина если текущий элемент — статическое поле.
func (it *ClassDataIterator) HasNextStaticField() bool {
	return it.pos < it.numStatic
}

// HasNextInstanceField истина если текущий элемент — поле экземпляра.
func (it *ClassDataIterator) HasNextInstanceField() bool {
	return it.pos >= it.numStatic && it.pos < it.numStatic+it.numInstance
}

// HasNextDirectMethod истина если текущий элемент — прямой метод.
func (it *ClassDataIterator) HasNextDirectMethod() bool {
	return it.pos >= it.numStatic+it.numInstance &&
		it.pos < it.numStatic+it.numInstance+it.numDirect
}

// HasNextVirtualMethod истина если текущий элемент — виртуальный метод.
func (it *ClassDataIterator) HasNextVirtualMethod() bool {
	return it.pos >= it.numStatic+it.numInstance+it.numDirect && it.pos < it.total()
}

// MemberAccessFlags флаги доступа текущего члена класса.
func (it *ClassDataIterator) MemberAccessFlags() uint32 {
	return uint32(it.flags)
}

// MemberIndex индекс текущего члена класса в его dex-файле.
func (it *ClassDataIterator) MemberIndex() uint32 {
	return uint32(it.memberIdx)
}

// Next переход к следующему члену класса.
func (it *ClassDataIterator) Next() error {
	it.pos++
	if it.pos >= it.total() {
		return nil
	}

	switch it.pos {
	case it.numStatic, it.numStatic + it.numInstance, it.numStatic + it.numInstance + it.numDirect:
		// Граница секции, дельты индексов начинаются заново.
		it.memberIdx = 0
	}

	if err := it.readMember(); err != nil {
		return errors.Wrap(err, "decode member").Uint64("member-position", it.pos)
	}

	return nil
}

func (it *ClassDataIterator) total() uint64 {
	return it.numStatic + it.numInstance + it.numDirect + it.numVirtual
}

func (it *ClassDataIterator) readMember() error {
	var diff uint64
	var err error

	if diff, it.rest, err = uvarints.Read(it.rest); err != nil {
		return errors.Wrap(err, "decode member index delta")
	}
	it.memberIdx += diff

	if it.flags, it.rest, err = uvarints.Read(it.rest); err != nil {
		return errors.Wrap(err, "decode member access flags")
	}

	if it.pos >= it.numStatic+it.numInstance {
		if it.codeOff, it.rest, err = uvarints.Read(it.rest); err != nil {
			return errors.Wrap(err, "decode method code offset")
		}
	}

	return nil
}
