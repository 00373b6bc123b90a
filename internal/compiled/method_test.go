package compiled

import (
	"testing"

	"github.com/sirkon/oatbuild/internal/types"
)

func TestAlignCode(t *testing.T) {
	tests := []struct {
		name     string
		offset   uint64
		isa      types.InstructionSet
		expected uint64
	}{
		{
			name:     "arm-aligned",
			offset:   4096,
			isa:      types.ISArm,
			expected: 4096,
		},
		{
			name:     "arm-unaligned",
			offset:   4097,
			isa:      types.ISArm,
			expected: 4104,
		},
		{
			name:     "thumb2-unaligned",
			offset:   15,
			isa:      types.ISThumb2,
			expected: 16,
		},
		{
			name:     "x86-unaligned",
			offset:   17,
			isa:      types.ISX86,
			expected: 32,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AlignCode(tt.offset, tt.isa); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestMethodAccessors(t *testing.T) {
	code := []byte{1, 2, 3, 4}
	m := NewMethod(types.ISThumb2, code, 32, 0x10, 0x2, []uint32{5}, []uint16{6})

	if m.CodeDelta() != 1 {
		t.Errorf("expected thumb2 code delta 1, got %d", m.CodeDelta())
	}
	if m.AlignCode(9) != 16 {
		t.Errorf("expected aligned offset 16, got %d", m.AlignCode(9))
	}
	if m.FrameSize() != 32 || m.CoreSpillMask() != 0x10 || m.FpSpillMask() != 0x2 {
		t.Error("frame data accessors diverge from the constructor arguments")
	}

	arm := NewMethod(types.ISArm, code, 32, 0, 0, nil, nil)
	if arm.CodeDelta() != 0 {
		t.Errorf("expected arm code delta 0, got %d", arm.CodeDelta())
	}
}
