package monitor

import (
	"fmt"

	"github.com/cgrier/lc3vm/internal/vm"
)

// SystemImage is the assembled OS ROM, ready to be copied into a machine's
// memory starting at address 0.
type SystemImage struct {
	words []vm.Word
}

// NewSystemImage builds the OS ROM image.
func NewSystemImage() (*SystemImage, error) {
	words, err := Build()
	if err != nil {
		return nil, fmt.Errorf("monitor: build system image: %w", err)
	}

	return &SystemImage{words: words}, nil
}

// Load copies the image into cpu's memory starting at address 0, bypassing
// access checks the same way the object loader does: installing the OS
// image is a host-level operation, not a guest memory access.
func (img *SystemImage) Load(cpu *vm.LC3) error {
	for addr, w := range img.words {
		if err := cpu.Mem.Store(vm.Word(addr), w); err != nil {
			return fmt.Errorf("monitor: load system image at %#04x: %w", addr, err)
		}
	}

	return nil
}

// WithSystemImage installs img into the machine during New's early option
// pass, before the default boot state is assigned.
func WithSystemImage(img *SystemImage) vm.OptionFn {
	return func(cpu *vm.LC3, late bool) error {
		if late {
			return nil
		}

		return img.Load(cpu)
	}
}

// WithDefaultSystemImage builds and installs the standard OS ROM.
func WithDefaultSystemImage() vm.OptionFn {
	return func(cpu *vm.LC3, late bool) error {
		if late {
			return nil
		}

		img, err := NewSystemImage()
		if err != nil {
			return err
		}

		return img.Load(cpu)
	}
}
