package cpu

/*
 * svm - CPU test set.
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
	"testing"

	"github.com/rcornwell/svm/internal/memory"
	"github.com/rcornwell/svm/internal/pic"
)

func newTestCPU() (*CPU, *memory.Memory, *pic.PIC) {
	mem := memory.New()
	p := pic.New()
	c := New(mem, p)
	return c, mem, p
}

func TestMovOpcodes(t *testing.T) {
	c, mem, _ := newTestCPU()
	mem.WritePhysical(0, int32(MovA))
	mem.WritePhysical(1, 11)
	mem.WritePhysical(2, int32(MovB))
	mem.WritePhysical(3, 22)
	mem.WritePhysical(4, int32(MovC))
	mem.WritePhysical(5, 33)

	c.Step()
	c.Step()
	c.Step()

	if c.Registers.A != 11 || c.Registers.B != 22 || c.Registers.C != 33 {
		t.Errorf("Registers = %+v, want A=11 B=22 C=33", c.Registers)
	}
	if c.Registers.IP != 6 {
		t.Errorf("IP = %d, want 6", c.Registers.IP)
	}
}

func TestJmp(t *testing.T) {
	c, mem, _ := newTestCPU()
	mem.WritePhysical(0, int32(Jmp))
	mem.WritePhysical(1, 10)

	c.Step()

	if c.Registers.IP != 10 {
		t.Errorf("IP = %d, want 10", c.Registers.IP)
	}
}

func TestInvalidOpcodeSkips(t *testing.T) {
	c, mem, _ := newTestCPU()
	mem.WritePhysical(0, 0xff)
	mem.WritePhysical(1, 0)

	c.Step()

	if c.Registers.IP != 2 {
		t.Errorf("IP = %d, want 2", c.Registers.IP)
	}
}

func TestIntRaisesSoftwareInterrupt(t *testing.T) {
	c, mem, p := newTestCPU()
	fired := false
	p.OnSoftware = func() { fired = true }

	mem.WritePhysical(0, int32(Int))
	mem.WritePhysical(1, SoftwareInterruptVector)

	c.Step()

	if !fired {
		t.Error("INT 1 did not raise the software interrupt handler")
	}
	if c.Registers.IP != 2 {
		t.Errorf("IP = %d, want 2", c.Registers.IP)
	}
}

func TestIntIgnoresUnknownVector(t *testing.T) {
	c, mem, p := newTestCPU()
	fired := false
	p.OnSoftware = func() { fired = true }

	mem.WritePhysical(0, int32(Int))
	mem.WritePhysical(1, 99)

	c.Step()

	if fired {
		t.Error("INT with an unrecognized vector raised the software interrupt handler")
	}
}

// TestLdAPageFaultRetry exercises a page fault taken mid-instruction: LdA
// operand 200 (page 1) is unmapped, so the first Step only maps the page via
// the fault handler and leaves IP unadvanced; the instruction completes only
// on the immediate next Step, once the translation is a hit.
func TestLdAPageFaultRetry(t *testing.T) {
	c, mem, p := newTestCPU()
	pt := memory.NewPageTable()
	mem.SetCurrentPageTable(pt)

	faulted := false
	p.OnPageFault = func() {
		faulted = true
		page := int(c.Registers.A)
		frame := mem.AcquireFrame()
		pt.Set(page, frame)
		mem.WritePhysical(frame*memory.PageSize+72, 42)
	}

	const operandVAddr = 200 // page 1, offset 72: unmapped at Step time
	mem.WritePhysical(0, int32(LdA))
	mem.WritePhysical(1, operandVAddr)

	c.Step()

	if !faulted {
		t.Fatal("LdA on an unmapped page did not raise a page fault")
	}
	if c.Registers.IP != 0 {
		t.Errorf("IP after faulting Step = %d, want 0 (instruction must not complete this Step)", c.Registers.IP)
	}
	if pt.Get(1) == memory.InvalidPage {
		t.Error("page 1 still unmapped after the fault handler ran")
	}

	c.Step()

	if c.Registers.IP != 2 {
		t.Errorf("IP after retry Step = %d, want 2", c.Registers.IP)
	}
	if c.Registers.A != 42 {
		t.Errorf("A after retry Step = %d, want 42 (load should complete on retry)", c.Registers.A)
	}
}

func TestStAThenLdARoundTrip(t *testing.T) {
	c, mem, p := newTestCPU()
	pt := memory.NewPageTable()
	mem.SetCurrentPageTable(pt)
	pt.Set(0, mem.AcquireFrame())
	p.OnPageFault = func() { t.Fatal("unexpected page fault: page 0 is already mapped") }

	mem.WritePhysical(0, int32(MovA))
	mem.WritePhysical(1, 55)
	mem.WritePhysical(2, int32(StA))
	mem.WritePhysical(3, 10)
	mem.WritePhysical(4, int32(LdB))
	mem.WritePhysical(5, 10)

	c.Step()
	c.Step()
	c.Step()

	if c.Registers.B != 55 {
		t.Errorf("B = %d, want 55 (StA then LdB round trip)", c.Registers.B)
	}
}
