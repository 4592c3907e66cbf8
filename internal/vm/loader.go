package vm

import "fmt"

// ObjectCode is a decoded object file: an origin address and the words to place starting there.
type ObjectCode struct {
	Orig Word
	Code []Word
}

// ReadObjectCode decodes a big-endian object stream: the first word is the origin, every
// subsequent word is placed at consecutive addresses from there. A trailing odd byte is ignored.
func ReadObjectCode(b []byte) (ObjectCode, error) {
	if len(b) < 2 {
		return ObjectCode{}, fmt.Errorf("%w: object file too short", ErrObjectFormat)
	}

	n := len(b) / 2
	words := make([]Word, n)

	for i := 0; i < n; i++ {
		words[i] = Word(b[2*i])<<8 | Word(b[2*i+1])
	}

	return ObjectCode{Orig: words[0], Code: words[1:]}, nil
}

// Loader places decoded object code into a machine's memory, bypassing access checks -- loading
// a program is a host-level operation, not a guest memory access.
type Loader struct {
	vm *LC3
}

func NewLoader(vm *LC3) *Loader { return &Loader{vm: vm} }

// Load writes obj.Code starting at obj.Orig, truncating at the top of the address space, and
// returns the origin so a caller loading several files can treat the last one as "main".
func (l *Loader) Load(obj ObjectCode) (Word, error) {
	addr := obj.Orig

	for _, w := range obj.Code {
		l.vm.Mem.poke(addr, w)

		if addr == 0xFFFF {
			break
		}

		addr++
	}

	return obj.Orig, nil
}
