package vm

import "testing"

func TestSignExtend(t *testing.T) {
	cases := []struct {
		name  string
		w     Word
		width uint
		want  int16
	}{
		{"imm5 -5", 0b11011, 5, -5},
		{"imm5 15", 0b01111, 5, 15},
		{"offset6 -1", 0b111111, 6, -1},
		{"offset6 31", 0b011111, 6, 31},
		{"offset9 -256", 0b1_00000000, 9, -256},
		{"offset9 255", 0b0_11111111, 9, 255},
		{"offset11 -1024", 0b100_00000000, 11, -1024},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			got := int16(signExtend(tc.w, tc.width))
			if got != tc.want {
				t.Errorf("signExtend(%#b, %d): want %d got %d", tc.w, tc.width, tc.want, got)
			}
		})
	}
}

func TestGPRString(t *testing.T) {
	if SP.String() != "SP" {
		t.Errorf("SP: want SP got %s", SP.String())
	}

	if R0.String() != "R0" {
		t.Errorf("R0: want R0 got %s", R0.String())
	}
}
