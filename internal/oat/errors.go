package oat

import (
	"fmt"

	"github.com/sirkon/errors"

	"github.com/sirkon/oatbuild/internal/compiled"
)

func errSinkWrite(err error, what string, ref compiled.MethodRef, sink Sink) error {
	return errors.Wrapf(err, "write %s", what).
		Stg("method", ref).
		Str("sink", sink.Name())
}

func errSinkSeek(actual int64, expected uint64) error {
	return errors.New("seek landed at an unexpected position").
		Int64("actual-position", actual).
		Uint64("expected-position", expected)
}

func errLayoutMismatch(what string, emit, layout uint64, ref compiled.MethodRef) error {
	return errors.New(fmt.Sprintf("%s offset diverged from the computed layout", what)).
		Uint64("emit-offset", emit).
		Uint64("layout-offset", layout).
		Stg("method", ref)
}
