package kernel

/*
 * svm - Kernel test set: boot, scheduling, heap allocator.
 *
 * Copyright 2026, svm contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

import (
	"errors"
	"testing"

	"github.com/rcornwell/svm/internal/cpu"
	"github.com/rcornwell/svm/internal/memory"
	"github.com/rcornwell/svm/internal/process"
)

func intImage() []int32 {
	return []int32{int32(cpu.Int), cpu.SoftwareInterruptVector}
}

func loopImage() []int32 {
	return []int32{int32(cpu.Jmp), 0}
}

func TestParseScheduler(t *testing.T) {
	cases := map[string]Scheduler{
		"FirstComeFirstServed": FirstComeFirstServed,
		"ShortestJob":          ShortestJob,
		"RoundRobin":           RoundRobin,
		"Priority":             Priority,
	}
	for name, want := range cases {
		got, err := ParseScheduler(name)
		if err != nil {
			t.Errorf("ParseScheduler(%q) returned error: %v", name, err)
		}
		if got != want {
			t.Errorf("ParseScheduler(%q) = %v, want %v", name, got, want)
		}
	}

	if _, err := ParseScheduler("Nonexistent"); err == nil {
		t.Error("ParseScheduler(\"Nonexistent\") succeeded, want error")
	}
}

func TestHeapAllocateFreeRoundTrip(t *testing.T) {
	k := Boot(FirstComeFirstServed, nil, nil)

	addr1, err := k.AllocateMemory(10)
	if err != nil {
		t.Fatalf("AllocateMemory(10) failed: %v", err)
	}
	addr2, err := k.AllocateMemory(20)
	if err != nil {
		t.Fatalf("AllocateMemory(20) failed: %v", err)
	}
	if addr1 == addr2 {
		t.Fatalf("two allocations returned the same address: %d", addr1)
	}

	// The allocator must hand back a block the caller can use in full
	// without colliding with its own header or its neighbor's.
	for i := 0; i < 10; i++ {
		k.board.Memory.WritePhysical(addr1+i, int32(100+i))
	}
	for i := 0; i < 20; i++ {
		k.board.Memory.WritePhysical(addr2+i, int32(200+i))
	}
	for i := 0; i < 10; i++ {
		if got := k.board.Memory.ReadPhysical(addr1 + i); got != int32(100+i) {
			t.Errorf("addr1 cell %d clobbered: got %d", i, got)
		}
	}

	k.FreeMemory(addr1)
	k.FreeMemory(addr2)

	// After freeing both, the free list should have re-merged enough to
	// satisfy a request spanning nearly all of RAM.
	if _, err := k.AllocateMemory(memory.RamSize - 100); err != nil {
		t.Errorf("AllocateMemory after freeing everything failed: %v", err)
	}
}

func TestAllocateMemoryExhaustion(t *testing.T) {
	k := Boot(FirstComeFirstServed, nil, nil)

	addr, err := k.AllocateMemory(memory.RamSize)
	if !errors.Is(err, ErrHeapExhausted) {
		t.Errorf("AllocateMemory(oversized) error = %v, want ErrHeapExhausted", err)
	}
	if addr != NoFreeLargeEnoughBlock {
		t.Errorf("AllocateMemory(oversized) addr = %d, want NoFreeLargeEnoughBlock", addr)
	}
}

func TestFirstComeFirstServedTerminatesAllProcesses(t *testing.T) {
	k := Boot(FirstComeFirstServed, [][]int32{intImage(), intImage()}, nil)

	k.Board().Run()

	for _, p := range k.Processes() {
		if p.State != process.Terminated {
			t.Errorf("process %d State = %v, want Terminated", p.ID, p.State)
		}
	}
	if k.Board().Running() {
		t.Error("board still running after every process terminated")
	}
}

func TestShortestJobSchedulesSmallestFirst(t *testing.T) {
	images := [][]int32{
		{0, 0, 0, 0, 0},       // 5 cells
		{0},                   // 1 cell: shortest
		{0, 0, 0},             // 3 cells
	}
	k := Boot(ShortestJob, images, nil)

	procs := k.Processes()
	if procs[0].State != process.Created {
		t.Errorf("process 0 (longest) State = %v, want Created", procs[0].State)
	}
	if procs[1].State != process.Running {
		t.Errorf("process 1 (shortest) State = %v, want Running", procs[1].State)
	}
	if procs[2].State != process.Created {
		t.Errorf("process 2 (middle) State = %v, want Created", procs[2].State)
	}
}

func TestRoundRobinPreemptsAfterQuantum(t *testing.T) {
	k := Boot(RoundRobin, [][]int32{loopImage(), loopImage()}, nil)
	k.Board().Start()

	for i := 0; i <= MaxCyclesBeforePreemption; i++ {
		k.Board().Step()
	}

	procs := k.Processes()
	if procs[0].State != process.Ready {
		t.Errorf("process 0 State after quantum = %v, want Ready", procs[0].State)
	}
	if procs[1].State != process.Running {
		t.Errorf("process 1 State after quantum = %v, want Running", procs[1].State)
	}
}

func TestRoundRobinSingleProcessTerminates(t *testing.T) {
	k := Boot(RoundRobin, [][]int32{intImage()}, nil)

	k.Board().Run()

	if got := k.Processes()[0].State; got != process.Terminated {
		t.Errorf("process State = %v, want Terminated", got)
	}
	if k.Board().Running() {
		t.Error("board still running after its only process terminated")
	}
}

func TestPriorityAgesDownToNextProcess(t *testing.T) {
	configs := []ProcessConfig{{Priority: 10}, {Priority: 5}}
	k := Boot(Priority, [][]int32{loopImage(), loopImage()}, configs)
	k.Board().Start()

	// p0 starts 5 points above p1; it takes 6 quantum expirations (one
	// decrement each) for p0's aged priority to fall strictly below p1's.
	for i := 0; i < 6*(MaxCyclesBeforePreemption+1); i++ {
		k.Board().Step()
	}

	procs := k.Processes()
	if procs[0].State != process.Ready {
		t.Errorf("process 0 State = %v, want Ready", procs[0].State)
	}
	if procs[0].Priority != 4 {
		t.Errorf("process 0 Priority = %d, want 4", procs[0].Priority)
	}
	if procs[1].State != process.Running {
		t.Errorf("process 1 State = %v, want Running", procs[1].State)
	}
}

// TestAllocateMemoryExactFitSingleNodeDoesNotDoubleAllocate exercises the
// boundary where a request exactly matches the size of the only (therefore
// self-looping) free-list node: the allocator must not hand the block out
// while still reporting it free, which would let a later call return
// overlapping memory.
func TestAllocateMemoryExactFitSingleNodeDoesNotDoubleAllocate(t *testing.T) {
	k := Boot(FirstComeFirstServed, nil, nil)

	if _, err := k.AllocateMemory(memory.RamSize - 4); err != nil {
		t.Fatalf("exact-fit AllocateMemory failed: %v", err)
	}

	if addr, err := k.AllocateMemory(1); !errors.Is(err, ErrHeapExhausted) {
		t.Errorf("AllocateMemory after exact-fit consumption = (%d, %v), want ErrHeapExhausted", addr, err)
	}
}

func TestKillUnknownProcess(t *testing.T) {
	k := Boot(FirstComeFirstServed, [][]int32{loopImage()}, nil)

	if err := k.Kill(999); err == nil {
		t.Error("Kill(999) succeeded, want error for a nonexistent pid")
	}
}

func TestKillRunningProcessSwitchesToNext(t *testing.T) {
	k := Boot(FirstComeFirstServed, [][]int32{loopImage(), loopImage()}, nil)
	running := k.Processes()[0]

	if err := k.Kill(running.ID); err != nil {
		t.Fatalf("Kill(running) failed: %v", err)
	}

	if running.State != process.Terminated {
		t.Errorf("killed process State = %v, want Terminated", running.State)
	}
	if got := k.Processes()[1].State; got != process.Running {
		t.Errorf("next process State = %v, want Running", got)
	}
	if err := k.Kill(running.ID); err == nil {
		t.Error("Kill on an already-terminated process succeeded, want error")
	}
}

// TestKillNonTopPriorityProcess exercises PriorityQueue.Remove: killing a
// Priority-scheduled process that is not the running, highest-priority one
// must splice it out of the heap directly rather than going through the
// isr_3 path, leaving the running process undisturbed.
func TestKillNonTopPriorityProcess(t *testing.T) {
	configs := []ProcessConfig{{Priority: 9}, {Priority: 5}, {Priority: 1}}
	k := Boot(Priority, [][]int32{loopImage(), loopImage(), loopImage()}, configs)

	procs := k.Processes()
	if procs[0].State != process.Running {
		t.Fatalf("process 0 State = %v, want Running", procs[0].State)
	}

	if err := k.Kill(procs[2].ID); err != nil {
		t.Fatalf("Kill(non-top) failed: %v", err)
	}

	if procs[2].State != process.Terminated {
		t.Errorf("killed process State = %v, want Terminated", procs[2].State)
	}
	if procs[0].State != process.Running {
		t.Errorf("running process State = %v, want Running (unaffected)", procs[0].State)
	}
	if procs[1].State == process.Terminated {
		t.Error("uninvolved process was terminated by an unrelated Kill")
	}
}

func TestPriorityTerminatesToNextHighest(t *testing.T) {
	configs := []ProcessConfig{{Priority: 1}, {Priority: 9}}
	k := Boot(Priority, [][]int32{loopImage(), intImage()}, configs)
	k.Board().Start()

	// p1 (priority 9) runs first; its INT terminates it and control falls
	// through to p0 (priority 1), the only process left. p0's image loops
	// forever, so drive exactly one Step rather than Run (which would
	// never return).
	k.Board().Step()

	procs := k.Processes()
	if procs[1].State != process.Terminated {
		t.Errorf("process 1 State = %v, want Terminated", procs[1].State)
	}
	if procs[0].State != process.Running {
		t.Errorf("process 0 State = %v, want Running", procs[0].State)
	}
	if !k.Board().Running() {
		t.Error("board stopped even though process 0 is still runnable")
	}
}
