package compiled

import (
	"fmt"

	"github.com/sirkon/oatbuild/internal/dexfile"
	"github.com/sirkon/oatbuild/internal/types"
)

// MethodRef ссылка на метод в конкретном dex-файле.
type MethodRef struct {
	File  *dexfile.File
	Index uint32
}

// String человекочитаемое представление метода для сообщений об ошибках.
func (r MethodRef) String() string {
	if r.File == nil {
		return fmt.Sprintf("method %d", r.Index)
	}

	if int(r.Index) < r.File.NumMethodIDs() {
		return fmt.Sprintf("method %d %s from %s", r.Index, r.File.MethodShorty(r.Index), r.File.Location())
	}

	return fmt.Sprintf("method %d from %s", r.Index, r.File.Location())
}

// Compiler оракул с результатами компиляции. Реализация лежит вне
// пакета, записи важно лишь чтобы выданные объекты не менялись
// между расчётом раскладки и записью.
type Compiler interface {
	// GetCompiledMethod скомпилированный метод или nil если
	// метод не компилировался, например абстрактный.
	GetCompiledMethod(ref MethodRef) *Method

	// FindInvokeStub трамплин вызова под данную сигнатуру или nil.
	FindInvokeStub(isStatic bool, shorty string) *InvokeStub

	// InstructionSet целевая система команд.
	InstructionSet() types.InstructionSet

	// IsImage истина если собирается загрузочный образ и нужна
	// обратная запись смещений в методы времени выполнения.
	IsImage() bool
}
