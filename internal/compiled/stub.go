package compiled

// InvokeStub трамплин вызова, переводящий обращение из интерпретатора
// в скомпилированный код. Выбирается по паре (is-static, shorty).
type InvokeStub struct {
	code []byte
}

// NewInvokeStub конструктор трамплина с данным кодом.
func NewInvokeStub(code []byte) *InvokeStub {
	return &InvokeStub{
		code: code,
	}
}

// Code машинный код трамплина.
func (s *InvokeStub) Code() []byte {
	return s.code
}
