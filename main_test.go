package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/cgrier/lc3vm/internal/log"
	"github.com/cgrier/lc3vm/internal/monitor"
	"github.com/cgrier/lc3vm/internal/vm"
)

// timeout bounds how long the test waits for the machine to halt. A correctly
// assembled OS image halts in well under this.
const timeout = 1 * time.Second

func TestMain(t *testing.T) {
	log.LogLevel.Set(log.Error)

	machine := vm.New(monitor.WithDefaultSystemImage())

	loader := vm.NewLoader(machine)
	code := vm.ObjectCode{
		Orig: vm.UserSpaceLow,
		Code: []vm.Word{
			vm.NewInstruction(vm.OpLEA, vm.Word(vm.R0)<<9|0x0002).Encode(),
			vm.NewInstruction(vm.OpTRAP, 0x22).Encode(), // PUTS
			vm.NewInstruction(vm.OpTRAP, 0x25).Encode(), // HALT
			'O', 'K', 0,
		},
	}

	if _, err := loader.Load(code); err != nil {
		t.Fatalf("load: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()

	if err := machine.Run(ctx); err != nil {
		t.Fatalf("run: %s, elapsed: %s", err, time.Since(start))
	}

	if machine.Mem.Running() {
		t.Errorf("want machine halted after TRAP HALT, elapsed: %s", time.Since(start))
	}

	if got := string(machine.Mem.Output()); got[:2] != "OK" {
		t.Errorf("output: want it to start with %q got %q", "OK", got)
	}
}
