// Package board aggregates Memory, the PIC and the CPU into the single
// master loop that drives the simulated machine one instruction at a time.
package board

/*
 * svm - Board: aggregates Memory, PIC, CPU; runs the master loop.
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
	"github.com/rcornwell/svm/internal/cpu"
	"github.com/rcornwell/svm/internal/memory"
	"github.com/rcornwell/svm/internal/pic"
)

// Board is the outer driver: one Memory, one PIC, one CPU, and a running
// flag. It does not itself poll software interrupts; those are raised by
// the CPU's INT opcode from within Step.
type Board struct {
	Memory *memory.Memory
	PIC    *pic.PIC
	CPU    *cpu.CPU

	running bool
}

// New wires a fresh Memory, PIC and CPU together. The board is not running
// until Run or Start is called.
func New() *Board {
	mem := memory.New()
	p := pic.New()
	c := cpu.New(mem, p)
	return &Board{Memory: mem, PIC: p, CPU: c}
}

// Run is the master loop: while running, fire the timer interrupt, then
// execute one CPU instruction. It returns once Stop has been called; the
// simulation is single-threaded and cooperative, so Run must be driven by
// only one goroutine at a time.
func (b *Board) Run() {
	b.running = true
	for b.running {
		b.PIC.RaiseTimer()
		if !b.running {
			return
		}
		b.CPU.Step()
	}
}

// Step runs a single timer-interrupt-then-instruction cycle, for the
// interactive console's `step` command and for tests that need
// instruction-level control instead of Run's blocking loop.
func (b *Board) Step() {
	if !b.running {
		return
	}
	b.PIC.RaiseTimer()
	if !b.running {
		return
	}
	b.CPU.Step()
}

// Start marks the board running, for callers (the interactive console,
// tests) that drive Step themselves instead of calling Run.
func (b *Board) Start() {
	b.running = true
}

// Stop ends the master loop after the current iteration.
func (b *Board) Stop() {
	b.running = false
}

// Running reports whether the board is still executing.
func (b *Board) Running() bool {
	return b.running
}
