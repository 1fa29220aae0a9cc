// Package memory implements the simulated machine's physical RAM, its
// per-frame allocator, and the page tables used to translate virtual
// addresses for the running process.
package memory

/*
 * svm - Physical memory, frame allocator and page tables.
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

import "log/slog"

const (
	// RamSize is the total number of addressable cells.
	RamSize = 65536
	// PageSize is the number of cells per page/frame.
	PageSize = 128
	// FrameCount is the number of physical frames RAM is divided into.
	FrameCount = RamSize / PageSize
	// InvalidPage is the page-table sentinel meaning "not mapped".
	InvalidPage = -1
)

// Memory is the machine's physical RAM plus its frame allocator. There is
// exactly one Memory per machine; it is shared by the CPU, the PIC's
// page-fault handler and the kernel's heap allocator.
type Memory struct {
	ram     [RamSize]int32
	frames  []int // free frame indices, LIFO
	current *PageTable
}

// New returns a Memory with every frame free and no current page table.
func New() *Memory {
	m := &Memory{
		frames: make([]int, 0, FrameCount),
	}
	for i := FrameCount - 1; i >= 0; i-- {
		m.frames = append(m.frames, i)
	}
	return m
}

// SetCurrentPageTable points the MMU at pt. Called on every context switch.
func (m *Memory) SetCurrentPageTable(pt *PageTable) {
	m.current = pt
}

// CurrentPageTable returns the page table the MMU currently translates
// through.
func (m *Memory) CurrentPageTable() *PageTable {
	return m.current
}

// PageIndexAndOffset splits a virtual address into its page index and
// in-page offset. Total function; never errors.
func PageIndexAndOffset(v int) (page, offset int) {
	return v / PageSize, v % PageSize
}

// ReadPhysical reads one cell at a physical index.
func (m *Memory) ReadPhysical(addr int) int32 {
	return m.ram[addr]
}

// WritePhysical writes one cell at a physical index.
func (m *Memory) WritePhysical(addr int, v int32) {
	m.ram[addr] = v
}

// LoadImage copies cells into physical RAM starting at start.
func (m *Memory) LoadImage(start int, image []int32) {
	copy(m.ram[start:start+len(image)], image)
}

// AcquireFrame removes and returns a free frame index, or InvalidPage if the
// pool is exhausted.
func (m *Memory) AcquireFrame() int {
	n := len(m.frames)
	if n == 0 {
		slog.Error("memory: out of physical frames")
		return InvalidPage
	}
	f := m.frames[n-1]
	m.frames = m.frames[:n-1]
	return f
}

// AcquirePreferredFrame removes and returns frame if it is currently free,
// falling back to AcquireFrame's ordinary LIFO pop otherwise. The kernel's
// page-fault handler uses this so that a freshly mapped virtual page
// coincides with the same-numbered physical frame whenever possible,
// keeping the kernel heap's virtual bookkeeping indices and the physical
// addresses handed back by AllocateMemory numerically identical.
func (m *Memory) AcquirePreferredFrame(frame int) int {
	for i, f := range m.frames {
		if f == frame {
			m.frames = append(m.frames[:i], m.frames[i+1:]...)
			return f
		}
	}
	return m.AcquireFrame()
}

// ReleaseFrame returns a frame to the pool. Releasing a frame that is not
// currently acquired is a caller error.
func (m *Memory) ReleaseFrame(frame int) {
	m.frames = append(m.frames, frame)
}

// FreeFrameCount reports how many frames are currently unmapped, used by
// tests.
func (m *Memory) FreeFrameCount() int {
	return len(m.frames)
}

// Translate resolves a virtual address through the current page table,
// returning the physical index and whether the page was mapped. Callers in
// the CPU and kernel are responsible for raising a page fault on a miss.
func (m *Memory) Translate(vaddr int) (paddr int, ok bool) {
	page, offset := PageIndexAndOffset(vaddr)
	frame := m.current.Get(page)
	if frame == InvalidPage {
		return 0, false
	}
	return offset + PageSize*frame, true
}

// PageTable maps virtual page index to physical frame index, one slot per
// page, InvalidPage where unmapped.
type PageTable struct {
	entries []int
}

// NewPageTable returns an empty page table: every entry InvalidPage.
func NewPageTable() *PageTable {
	pt := &PageTable{entries: make([]int, FrameCount)}
	for i := range pt.entries {
		pt.entries[i] = InvalidPage
	}
	return pt
}

// Get returns the frame mapped at page, or InvalidPage.
func (pt *PageTable) Get(page int) int {
	return pt.entries[page]
}

// Set maps page to frame (or InvalidPage to unmap it).
func (pt *PageTable) Set(page, frame int) {
	pt.entries[page] = frame
}
