// Package kernel implements process scheduling, the kernel heap allocator,
// and the boot sequence that wires a Board into a running multi-process
// machine.
package kernel

/*
 * svm - Kernel: boot, scheduling, heap allocator, process creation.
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
	"fmt"
	"log/slog"

	"github.com/rcornwell/svm/internal/board"
	"github.com/rcornwell/svm/internal/memory"
	"github.com/rcornwell/svm/internal/process"
)

// Scheduler selects which of the four policies governs timer/software
// interrupt handling and process enqueue order.
type Scheduler int

const (
	FirstComeFirstServed Scheduler = iota
	ShortestJob
	RoundRobin
	Priority
)

func (s Scheduler) String() string {
	switch s {
	case FirstComeFirstServed:
		return "FirstComeFirstServed"
	case ShortestJob:
		return "ShortestJob"
	case RoundRobin:
		return "RoundRobin"
	case Priority:
		return "Priority"
	default:
		return "Undefined"
	}
}

// ParseScheduler maps a config-file scheduler name onto a Scheduler value.
func ParseScheduler(name string) (Scheduler, error) {
	switch name {
	case "FirstComeFirstServed":
		return FirstComeFirstServed, nil
	case "ShortestJob":
		return ShortestJob, nil
	case "RoundRobin":
		return RoundRobin, nil
	case "Priority":
		return Priority, nil
	default:
		return 0, fmt.Errorf("kernel: unknown scheduler %q", name)
	}
}

// MaxCyclesBeforePreemption is one quantum for RoundRobin and Priority.
const MaxCyclesBeforePreemption = 100

// NoFreeLargeEnoughBlock is AllocateMemory's failure sentinel.
const NoFreeLargeEnoughBlock = -1

// ErrHeapExhausted is returned by AllocateMemory when no free block is
// large enough to satisfy the request.
var ErrHeapExhausted = errors.New("kernel: no free block large enough")

// ProcessConfig overrides a process's scheduling defaults. The zero value
// defaults to priority 0 and an instruction-count budget equal to the
// image length.
type ProcessConfig struct {
	Priority          int
	InstructionBudget int
}

// Kernel owns the process tables, the active scheduler's bookkeeping, the
// kernel's own page table (through which all heap free-list bookkeeping is
// addressed) and the Board it drives.
type Kernel struct {
	board *board.Board

	scheduler  Scheduler
	ready      *process.Queue
	priorities *process.PriorityQueue

	currentIndex       int
	cyclesSincePreempt int
	nextProcessID      int
	kernelPageTable    *memory.PageTable
	lastFreeBlock      int

	all []*process.Process // every process created, for introspection only
}

// Boot constructs a Board, initializes the heap free list, installs the
// page-fault handler, creates one process per image, selects the initial
// Running process and installs the scheduler's isr_0/isr_3 handlers. It
// does not start the Board running — callers drive that via Board().Run()
// (or Step(), for the interactive console), matching this design's split
// between boot-time wiring and the outer driver loop's own contract.
func Boot(scheduler Scheduler, images [][]int32, configs []ProcessConfig) *Kernel {
	k := &Kernel{
		board:           board.New(),
		scheduler:       scheduler,
		ready:           process.NewQueue(),
		priorities:      process.NewPriorityQueue(),
		kernelPageTable: memory.NewPageTable(),
	}

	// Boot step 1: initialize the heap free list. The header write itself
	// goes through Translate against the kernel's own page table, so it is
	// the very first fault the machine takes — consistent with every other
	// free-list access being routed through the MMU (see AllocateMemory).
	k.lastFreeBlock = 0
	k.writeCell(0, 0)
	k.writeCell(1, int32(memory.RamSize-2))

	// Boot step 2: install the page-fault handler.
	k.board.PIC.OnPageFault = k.handlePageFault

	// Boot step 3: create one process per executable image.
	for i, image := range images {
		var cfg ProcessConfig
		if i < len(configs) {
			cfg = configs[i]
		}
		if err := k.createProcess(image, cfg); err != nil {
			slog.Error("kernel: failed to create process", "error", err)
		}
	}

	// Boot step 4: select the initial Running process.
	k.selectInitial()

	// Boot step 5: install isr_0/isr_3 for the chosen policy.
	k.installHandlers()

	return k
}

// Board returns the machine this kernel drives.
func (k *Kernel) Board() *board.Board {
	return k.board
}

// Processes returns every process created since Boot, in creation order,
// for the interactive console's `ps` command. The slice reflects each
// process's State field as of the last context switch or termination.
func (k *Kernel) Processes() []*process.Process {
	return k.all
}

// Scheduler reports the policy this kernel was booted with.
func (k *Kernel) Scheduler() Scheduler {
	return k.scheduler
}

// CreateProcess allocates memory for image, loads it, and enqueues a new
// process per the active scheduler's ordering. Priority and the
// instruction-count hint default to zero/image-length; use
// CreateProcessWithConfig to override them.
func (k *Kernel) CreateProcess(image []int32) error {
	return k.createProcess(image, ProcessConfig{})
}

// CreateProcessWithConfig is CreateProcess with explicit scheduling hints.
func (k *Kernel) CreateProcessWithConfig(image []int32, cfg ProcessConfig) error {
	return k.createProcess(image, cfg)
}

func (k *Kernel) createProcess(image []int32, cfg ProcessConfig) error {
	start, err := k.AllocateMemory(len(image))
	if err != nil {
		slog.Error("kernel: failed to allocate memory", "size", len(image))
		return err
	}

	k.board.Memory.LoadImage(start, image)

	count := cfg.InstructionBudget
	if count == 0 {
		count = len(image)
	}

	p := process.New(k.nextProcessID, start, start+len(image), cfg.Priority, count)
	k.nextProcessID++
	p.Registers.IP = start
	k.all = append(k.all, p)

	switch k.scheduler {
	case FirstComeFirstServed, RoundRobin:
		k.ready.PushBack(p)
	case ShortestJob:
		k.ready.PushBack(p)
		k.ready.SortByInstructionCount()
	case Priority:
		k.priorities.Push(p)
	}
	return nil
}

func (k *Kernel) selectInitial() {
	switch k.scheduler {
	case FirstComeFirstServed, ShortestJob, RoundRobin:
		if k.ready.Empty() {
			k.board.Stop()
			return
		}
		k.currentIndex = 0
		k.switchTo(k.ready.At(0))
	case Priority:
		if k.priorities.Empty() {
			k.board.Stop()
			return
		}
		k.switchTo(k.priorities.Peek())
	}
}

func (k *Kernel) installHandlers() {
	switch k.scheduler {
	case FirstComeFirstServed, ShortestJob:
		k.board.PIC.OnTimer = func() {}
		k.board.PIC.OnSoftware = k.queueSoftwareInterrupt
	case RoundRobin:
		k.board.PIC.OnTimer = k.roundRobinTimer
		k.board.PIC.OnSoftware = k.roundRobinSoftware
	case Priority:
		k.board.PIC.OnTimer = k.priorityTimer
		k.board.PIC.OnSoftware = k.prioritySoftware
	}
}

// switchTo performs a context switch into p: swap the MMU's current page
// table, load p's saved registers into the CPU, mark p Running.
func (k *Kernel) switchTo(p *process.Process) {
	k.board.Memory.SetCurrentPageTable(p.PageTable)
	k.board.CPU.Registers = p.Registers
	p.State = process.Running
}

func (k *Kernel) freeProcess(p *process.Process) {
	k.FreeMemory(p.MemoryStart)
	p.State = process.Terminated
}

// queueSoftwareInterrupt is isr_3 for FirstComeFirstServed and ShortestJob:
// both run identically — FCFS/SJF only differ in CreateProcess's enqueue
// ordering.
func (k *Kernel) queueSoftwareInterrupt() {
	if k.ready.Empty() {
		return
	}
	k.freeProcess(k.ready.At(0))
	k.ready.RemoveAt(0)
	if k.ready.Empty() {
		k.board.Stop()
		return
	}
	k.switchTo(k.ready.At(0))
}

func (k *Kernel) roundRobinTimer() {
	k.cyclesSincePreempt++
	if k.cyclesSincePreempt <= MaxCyclesBeforePreemption {
		return
	}

	current := k.ready.At(k.currentIndex)
	current.Registers = k.board.CPU.Registers
	current.State = process.Ready

	if k.currentIndex < k.ready.Len()-1 {
		k.currentIndex++
	} else {
		k.currentIndex = 0
	}

	k.switchTo(k.ready.At(k.currentIndex))
	k.cyclesSincePreempt = 0
}

func (k *Kernel) roundRobinSoftware() {
	if k.ready.Empty() {
		return
	}
	k.freeProcess(k.ready.At(k.currentIndex))
	k.ready.RemoveAt(k.currentIndex)
	if k.ready.Empty() {
		k.board.Stop()
		return
	}
	if k.currentIndex >= k.ready.Len() {
		k.currentIndex = 0
	}
	k.switchTo(k.ready.At(k.currentIndex))
}

func (k *Kernel) priorityTimer() {
	k.cyclesSincePreempt++
	if k.cyclesSincePreempt <= MaxCyclesBeforePreemption {
		return
	}

	top := k.priorities.Peek()
	top.Registers = k.board.CPU.Registers
	top.State = process.Ready
	k.priorities.Update(top, top.Priority-1)

	next := k.priorities.Peek()
	k.switchTo(next)
	k.cyclesSincePreempt = 0
}

func (k *Kernel) prioritySoftware() {
	if k.priorities.Empty() {
		return
	}
	top := k.priorities.Peek()
	k.freeProcess(top)
	k.priorities.Pop()
	if k.priorities.Empty() {
		k.board.Stop()
		return
	}
	k.switchTo(k.priorities.Peek())
}

// Kill terminates the process identified by pid, wherever it sits in the
// active scheduler's bookkeeping. A Running target is terminated through
// the same isr_3 handler a software interrupt would use, so the resulting
// context switch follows the exact path Boot already relies on;
// a Ready target is spliced out of the scheduler's own queue without ever
// being switched in.
func (k *Kernel) Kill(pid int) error {
	var p *process.Process
	for _, candidate := range k.all {
		if candidate.ID == pid {
			p = candidate
			break
		}
	}
	if p == nil {
		return fmt.Errorf("kernel: no such process %d", pid)
	}
	if p.State == process.Terminated {
		return fmt.Errorf("kernel: process %d already terminated", pid)
	}

	switch k.scheduler {
	case FirstComeFirstServed, ShortestJob:
		if p.State == process.Running {
			k.queueSoftwareInterrupt()
			return nil
		}
		k.removeFromReady(p)
	case RoundRobin:
		if p.State == process.Running {
			k.roundRobinSoftware()
			return nil
		}
		k.removeFromReady(p)
	case Priority:
		if p == k.priorities.Peek() {
			k.prioritySoftware()
			return nil
		}
		k.freeProcess(p)
		k.priorities.Remove(p)
	}
	return nil
}

// removeFromReady splices a Ready (not Running) process out of the ready
// queue, adjusting currentIndex so the scheduler's notion of "current slot"
// still names the same process it did before the splice.
func (k *Kernel) removeFromReady(p *process.Process) {
	for i := 0; i < k.ready.Len(); i++ {
		if k.ready.At(i) != p {
			continue
		}
		k.freeProcess(p)
		k.ready.RemoveAt(i)
		if i < k.currentIndex {
			k.currentIndex--
		}
		return
	}
}

// handlePageFault is isr_4: read the faulting page index from register a,
// acquire a frame, and map it. Out of physical memory is fatal: log and
// stop the board, since this design supports no eviction policy.
func (k *Kernel) handlePageFault() {
	page := int(k.board.CPU.Registers.A)
	slog.Debug("kernel: page fault", "page", page)
	k.mapFault(k.board.Memory.CurrentPageTable(), page)
}

func (k *Kernel) mapFault(pt *memory.PageTable, page int) bool {
	frame := k.board.Memory.AcquirePreferredFrame(page)
	if frame == memory.InvalidPage {
		slog.Error("kernel: out of physical memory")
		k.board.Stop()
		return false
	}
	pt.Set(page, frame)
	return true
}

// translateKernel resolves a virtual heap-bookkeeping address through the
// kernel's own page table, demand-mapping a frame on a miss through the
// same mapFault the page-fault handler uses and re-translating at once
// (unlike the CPU, which retries on its next Step), then restores whatever
// page table was current beforehand. Every free-list cell access — AllocateMemory and
// FreeMemory alike — goes through this, never through raw physical
// indexing.
func (k *Kernel) translateKernel(vaddr int) (int, bool) {
	previous := k.board.Memory.CurrentPageTable()
	k.board.Memory.SetCurrentPageTable(k.kernelPageTable)
	defer k.board.Memory.SetCurrentPageTable(previous)

	paddr, ok := k.board.Memory.Translate(vaddr)
	if ok {
		return paddr, true
	}

	page, _ := memory.PageIndexAndOffset(vaddr)
	if !k.mapFault(k.kernelPageTable, page) {
		return 0, false
	}
	return k.board.Memory.Translate(vaddr)
}

func (k *Kernel) readCell(vaddr int) int32 {
	paddr, ok := k.translateKernel(vaddr)
	if !ok {
		return 0
	}
	return k.board.Memory.ReadPhysical(paddr)
}

func (k *Kernel) writeCell(vaddr int, value int32) {
	paddr, ok := k.translateKernel(vaddr)
	if !ok {
		return
	}
	k.board.Memory.WritePhysical(paddr, value)
}

// AllocateMemory finds the first free block, walking the circular free
// list from the next-fit cursor, large enough to hold units cells plus a
// 2-cell header, and returns the physical address of the payload. An
// exact-fit block is unlinked outright; an oversized block is split, with
// the new allocation carved from its tail so the cursor's own node shrinks
// in place. Returns NoFreeLargeEnoughBlock/ErrHeapExhausted if the walk
// returns to its starting node without success.
func (k *Kernel) AllocateMemory(units int) (int, error) {
	units += 2

	previous := k.lastFreeBlock
	current := int(k.readCell(previous))

	for {
		size := int(k.readCell(current + 1))
		if size >= units {
			if size == units {
				if previous == current {
					// current is the only node left, self-looping: there is
					// nothing to unlink it into. Collapse it to a permanent
					// size-0 sentinel instead, per the free list's
					// never-truncated invariant.
					k.writeCell(current+1, 0)
				} else {
					k.writeCell(previous, k.readCell(current))
					k.lastFreeBlock = int(k.readCell(current))
				}
			} else {
				k.writeCell(current+1, int32(size-units))
				k.lastFreeBlock = current
				current += size - units + 2
				k.writeCell(current+1, int32(units-2))
			}
			paddr, ok := k.translateKernel(current + 2)
			if !ok {
				return NoFreeLargeEnoughBlock, ErrHeapExhausted
			}
			return paddr, nil
		}

		if current == k.lastFreeBlock {
			return NoFreeLargeEnoughBlock, ErrHeapExhausted
		}
		previous = current
		current = int(k.readCell(current))
	}
}

// FreeMemory returns the block at physicalAddress (as returned by a prior
// AllocateMemory) to the free list, merging with either neighbor that is
// contiguous with it. The freed block's header, AllocateMemory's next/size
// bookkeeping and every other free-list cell share one virtual-index space
// because the page-fault handler prefers mapping each heap page to the
// identically-numbered physical frame (see Memory.AcquirePreferredFrame) —
// so a caller-held physical address and this allocator's own virtual
// indices are the same number and can be compared directly.
func (k *Kernel) FreeMemory(physicalAddress int) {
	header := physicalAddress - 2
	size := int(k.readCell(physicalAddress - 1))

	current := k.lastFreeBlock
	for {
		next := int(k.readCell(current))
		if current < next {
			if header > current && header < next {
				break
			}
		} else if header > current || header < next {
			break
		}
		current = next
	}

	next := int(k.readCell(current))
	if header+size+2 == next {
		size += int(k.readCell(next+1)) + 2
		k.writeCell(header, k.readCell(next))
	} else {
		k.writeCell(header, int32(next))
	}
	k.writeCell(header+1, int32(size))

	if currentSize := int(k.readCell(current + 1)); current+currentSize+2 == header {
		k.writeCell(current+1, int32(currentSize+size+2))
		k.writeCell(current, k.readCell(header))
	} else {
		k.writeCell(current, int32(header))
	}

	k.lastFreeBlock = current
}
