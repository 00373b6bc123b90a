package oatio

import "github.com/sirkon/errors"

// errSinkFailed приёмник уже сломан прошлой ошибкой записи или перемещения.
var errSinkFailed = errors.Const("sink is in a failed state")
