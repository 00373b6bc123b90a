package logging

// Logger абстракция предназначенная для логирования в строго определённых
// ситуациях жизненного цикла записи контейнера. Реализация логирования
// остаётся за пользователем библиотеки.
type Logger interface {
	// LayoutDone расчёт раскладки завершён: общий размер будущего
	// файла, число методов и объём уникального кода в байтах.
	LayoutDone(fileSize uint64, methods int, uniqueCodeBytes int)

	// EmitFailed запись в данный приёмник оборвалась с ошибкой.
	EmitFailed(sinkName string, err error)
}

// Nop реализация Logger не делающая ничего.
type Nop struct{}

// LayoutDone для реализации Logger.
func (Nop) LayoutDone(fileSize uint64, methods int, uniqueCodeBytes int) {}

// EmitFailed для реализации Logger.
func (Nop) EmitFailed(sinkName string, err error) {}
