package oat

import "golang.org/x/exp/maps"

// dedupIndex три индекса повторяющихся блобов: машинный код,
// таблицы соответствия и таблицы виртуальных регистров. Ключ —
// содержимое блоба в его дисковом представлении, значением служит
// смещение первого вхождения в файл. Код методов и трамплины
// вызова делят один индекс и могут совпадать между собой.
type dedupIndex struct {
	code    map[string]uint32
	mapping map[string]uint32
	vmap    map[string]uint32
}

func newDedupIndex() *dedupIndex {
	return &dedupIndex{
		code:    map[string]uint32{},
		mapping: map[string]uint32{},
		vmap:    map[string]uint32{},
	}
}

func (d *dedupIndex) lookupCode(code []byte) (uint32, bool) {
	res, ok := d.code[string(code)]
	return res, ok
}

func (d *dedupIndex) insertCode(code []byte, offset uint32) {
	d.code[string(code)] = offset
}

func (d *dedupIndex) lookupMapping(raw []byte) (uint32, bool) {
	res, ok := d.mapping[string(raw)]
	return res, ok
}

func (d *dedupIndex) insertMapping(raw []byte, offset uint32) {
	d.mapping[string(raw)] = offset
}

func (d *dedupIndex) lookupVmap(raw []byte) (uint32, bool) {
	res, ok := d.vmap[string(raw)]
	return res, ok
}

func (d *dedupIndex) insertVmap(raw []byte, offset uint32) {
	d.vmap[string(raw)] = offset
}

// uniqueCodeSize суммарный объём уникального кода в байтах.
func (d *dedupIndex) uniqueCodeSize() int {
	var res int
	for _, key := range maps.Keys(d.code) {
		res += len(key)
	}

	return res
}
