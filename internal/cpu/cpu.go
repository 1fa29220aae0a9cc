// Package cpu implements the simulated machine's fetch-decode-execute
// cycle: registers, the opcode dispatch table, and one instruction's worth
// of work per Step.
package cpu

/*
 * svm - CPU: registers, opcode dispatch, Step.
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
	"log/slog"

	"github.com/rcornwell/svm/internal/memory"
	"github.com/rcornwell/svm/internal/pic"
)

// Opcodes. Each instruction occupies two cells: opcode at ip, operand at
// ip+1.
const (
	MovA uint8 = 0x10
	MovB uint8 = 0x11
	MovC uint8 = 0x12
	Jmp  uint8 = 0x20
	Int  uint8 = 0x30
	LdA  uint8 = 0x40
	LdB  uint8 = 0x41
	LdC  uint8 = 0x42
	StA  uint8 = 0x50
	StB  uint8 = 0x51
	StC  uint8 = 0x52
)

// SoftwareInterruptVector is the only INT operand the PIC currently
// recognizes; other vectors are reserved.
const SoftwareInterruptVector = 1

// Registers holds the CPU's architectural state. ip is a virtual address
// into the running process's address space, except during instruction
// fetch, which reads physical RAM directly at ip (see CPU.Step).
type Registers struct {
	A, B, C int32
	Flags   int32
	IP      int
	SP      int
}

// CPU is the fetch-decode-execute engine. It holds no process state of its
// own beyond the architectural Registers; the kernel saves/restores
// Registers across context switches.
type CPU struct {
	Registers Registers

	mem *memory.Memory
	pic *pic.PIC

	table [256]func(cpu *CPU, operand int32)
}

// New returns a CPU wired to mem and pic. The opcode dispatch table is
// built once at construction as a per-opcode function table, even though
// only a handful of the 256 slots are populated.
func New(mem *memory.Memory, pic *pic.PIC) *CPU {
	c := &CPU{mem: mem, pic: pic}
	c.table[MovA] = (*CPU).execMovA
	c.table[MovB] = (*CPU).execMovB
	c.table[MovC] = (*CPU).execMovC
	c.table[Jmp] = (*CPU).execJmp
	c.table[Int] = (*CPU).execInt
	c.table[LdA] = (*CPU).execLdA
	c.table[LdB] = (*CPU).execLdB
	c.table[LdC] = (*CPU).execLdC
	c.table[StA] = (*CPU).execStA
	c.table[StB] = (*CPU).execStB
	c.table[StC] = (*CPU).execStC
	return c
}

// Step executes exactly one instruction. Instruction fetch reads physical
// RAM directly at the current ip: executables are loaded into a physically
// contiguous block and ip starts at that physical address. Operand
// addresses for LDx/STx are virtual and go through the MMU.
func (c *CPU) Step() {
	ip := c.Registers.IP
	opcode := uint8(c.mem.ReadPhysical(ip))
	operand := c.mem.ReadPhysical(ip + 1)

	fn := c.table[opcode]
	if fn == nil {
		slog.Error("cpu: invalid opcode, skipping", "opcode", opcode, "ip", ip)
		c.Registers.IP += 2
		return
	}
	fn(c, operand)
}

func (c *CPU) execMovA(operand int32) { c.Registers.A = operand; c.Registers.IP += 2 }
func (c *CPU) execMovB(operand int32) { c.Registers.B = operand; c.Registers.IP += 2 }
func (c *CPU) execMovC(operand int32) { c.Registers.C = operand; c.Registers.IP += 2 }

func (c *CPU) execJmp(operand int32) {
	c.Registers.IP += int(operand)
}

func (c *CPU) execInt(operand int32) {
	// IP must advance before RaiseSoftware runs: the handler may context
	// switch, in which case c.Registers no longer belongs to this process
	// and advancing it afterward would corrupt whichever process got
	// switched in.
	c.Registers.IP += 2
	if operand == SoftwareInterruptVector {
		c.pic.RaiseSoftware()
	}
}

// translate resolves a virtual operand address, raising a page fault on a
// miss. On a hit it returns the physical index and true; ip is advanced by
// the caller only on a hit. A miss only asks the page-fault handler to map
// the page — it does not re-translate and complete the load within the same
// Step, so the instruction is a no-op this Step and retries, as a hit, on
// the next one.
func (c *CPU) translate(vaddr int32) (int, bool) {
	paddr, ok := c.mem.Translate(int(vaddr))
	if ok {
		return paddr, true
	}

	page, _ := memory.PageIndexAndOffset(int(vaddr))
	savedA := c.Registers.A
	c.Registers.A = int32(page)
	c.pic.RaisePageFault()
	c.Registers.A = savedA

	return 0, false
}

func (c *CPU) execLdA(operand int32) {
	if paddr, ok := c.translate(operand); ok {
		c.Registers.A = c.mem.ReadPhysical(paddr)
		c.Registers.IP += 2
	}
}

func (c *CPU) execLdB(operand int32) {
	if paddr, ok := c.translate(operand); ok {
		c.Registers.B = c.mem.ReadPhysical(paddr)
		c.Registers.IP += 2
	}
}

func (c *CPU) execLdC(operand int32) {
	if paddr, ok := c.translate(operand); ok {
		c.Registers.C = c.mem.ReadPhysical(paddr)
		c.Registers.IP += 2
	}
}

func (c *CPU) execStA(operand int32) {
	if paddr, ok := c.translate(operand); ok {
		c.mem.WritePhysical(paddr, c.Registers.A)
		c.Registers.IP += 2
	}
}

func (c *CPU) execStB(operand int32) {
	if paddr, ok := c.translate(operand); ok {
		c.mem.WritePhysical(paddr, c.Registers.B)
		c.Registers.IP += 2
	}
}

func (c *CPU) execStC(operand int32) {
	if paddr, ok := c.translate(operand); ok {
		c.mem.WritePhysical(paddr, c.Registers.C)
		c.Registers.IP += 2
	}
}
