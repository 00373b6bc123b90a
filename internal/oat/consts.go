package oat

const (
	// PageSize размер страницы целевой платформы. Исполняемая область
	// файла начинается строго с границы страницы.
	PageSize = 4096

	// DefaultStackAlignment выравнивание стека платформы. Используется
	// как размер кадра для методов без скомпилированного тела.
	DefaultStackAlignment = 16

	// headerSize размер заголовка контейнера на диске.
	headerSize = 24

	// methodRecordSize размер одной записи метода на диске, семь слов.
	methodRecordSize = 28
)

var (
	oatMagic   = [4]byte{'o', 'a', 't', '\n'}
	oatVersion = [4]byte{'0', '0', '1', 0}
)
