package oat

import (
	"fmt"

	"github.com/sirkon/oatbuild/internal/compiled"
	"github.com/sirkon/oatbuild/internal/dexfile"
	"github.com/sirkon/oatbuild/internal/types"
)

// testCompiler ручная реализация компилятора для тестов:
// методы и трамплины задаются напрямую.
type testCompiler struct {
	isa     types.InstructionSet
	image   bool
	methods map[string]*compiled.Method
	stubs   map[string]*compiled.InvokeStub
}

func newTestCompiler(isa types.InstructionSet) *testCompiler {
	return &testCompiler{
		isa:     isa,
		methods: map[string]*compiled.Method{},
		stubs:   map[string]*compiled.InvokeStub{},
	}
}

func (c *testCompiler) addMethod(df *dexfile.File, idx uint32, m *compiled.Method) {
	c.methods[methodKey(df, idx)] = m
}

func (c *testCompiler) addStub(isStatic bool, shorty string, stub *compiled.InvokeStub) {
	c.stubs[stubKey(isStatic, shorty)] = stub
}

func (c *testCompiler) GetCompiledMethod(ref compiled.MethodRef) *compiled.Method {
	return c.methods[methodKey(ref.File, ref.Index)]
}

func (c *testCompiler) FindInvokeStub(isStatic bool, shorty string) *compiled.InvokeStub {
	return c.stubs[stubKey(isStatic, shorty)]
}

func (c *testCompiler) InstructionSet() types.InstructionSet {
	return c.isa
}

func (c *testCompiler) IsImage() bool {
	return c.image
}

func methodKey(df *dexfile.File, idx uint32) string {
	return fmt.Sprintf("%s#%d", df.Location(), idx)
}

func stubKey(isStatic bool, shorty string) string {
	return fmt.Sprintf("%t/%s", isStatic, shorty)
}

// singleClassDex dex-файл с единственным классом.
func singleClassDex(location string, checksum uint32, shorties []string, class dexfile.Class) *dexfile.File {
	b := dexfile.NewBuilder(location, checksum)
	for _, shorty := range shorties {
		b.AddMethodID(shorty)
	}
	b.AddClass(class)

	return b.Build()
}
