// Package pic implements the programmable interrupt controller: a small
// set of installable handler slots the kernel wires up at boot, and pure
// synchronous dispatch invoked from the CPU's instruction cycle.
package pic

/*
 * svm - Programmable interrupt controller.
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

// PIC holds one handler per recognized interrupt vector. Handlers run
// synchronously on the simulated CPU's own thread; an unassigned handler is
// a no-op. The kernel installs OnTimer/OnSoftware once at boot (isr_0,
// isr_3) and OnPageFault (isr_4) before any process is created.
type PIC struct {
	OnTimer     func() // isr_0: timer tick, fired once per Board loop iteration.
	OnSoftware  func() // isr_3: software trap, raised by INT 1.
	OnPageFault func() // isr_4: page miss on a memory operand.
}

// New returns a PIC with every handler unassigned.
func New() *PIC {
	return &PIC{}
}

// RaiseTimer invokes the timer handler, if any.
func (p *PIC) RaiseTimer() {
	if p.OnTimer != nil {
		p.OnTimer()
	}
}

// RaiseSoftware invokes the software-interrupt handler, if any.
func (p *PIC) RaiseSoftware() {
	if p.OnSoftware != nil {
		p.OnSoftware()
	}
}

// RaisePageFault invokes the page-fault handler, if any.
func (p *PIC) RaisePageFault() {
	if p.OnPageFault != nil {
		p.OnPageFault()
	}
}
