// Package process defines the kernel's process-control-block record and
// the indexed priority queue used by the Priority scheduler.
package process

/*
 * svm - Process control block and priority queue.
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
	"container/heap"

	"github.com/rcornwell/svm/internal/cpu"
	"github.com/rcornwell/svm/internal/memory"
)

// State is a process's scheduling state.
type State int

const (
	Created State = iota
	Ready
	Running
	Waiting
	Terminated
)

func (s State) String() string {
	switch s {
	case Created:
		return "new"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Waiting:
		return "waiting"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Process is the kernel's process control block: identity, the physical
// memory extent its image occupies, its page table, its saved register
// file, and the scheduling fields the four policies read.
type Process struct {
	ID                         int
	MemoryStart, MemoryEnd     int
	Priority                   int
	SequentialInstructionCount int
	Registers                  cpu.Registers
	PageTable                  *memory.PageTable
	State                      State

	index int // position in the priority heap; maintained by container/heap
}

// New returns a process in the Created state with an empty page table,
// ready to be enqueued by a scheduler. priority and instructionCount are
// whatever the caller passes; zero values are valid.
func New(id, start, end, priority, instructionCount int) *Process {
	return &Process{
		ID:                         id,
		MemoryStart:                start,
		MemoryEnd:                  end,
		Priority:                   priority,
		SequentialInstructionCount: instructionCount,
		PageTable:                  memory.NewPageTable(),
		State:                      Created,
	}
}

// Queue is a FIFO of processes, used by FirstComeFirstServed, ShortestJob
// (which keeps it sorted by SequentialInstructionCount) and RoundRobin
// (which treats it as a circular buffer via an external cursor).
type Queue struct {
	items []*Process
}

func NewQueue() *Queue { return &Queue{} }

func (q *Queue) PushBack(p *Process) { q.items = append(q.items, p) }

func (q *Queue) Len() int { return len(q.items) }

func (q *Queue) Empty() bool { return len(q.items) == 0 }

func (q *Queue) At(i int) *Process { return q.items[i] }

// RemoveAt removes and returns the process at index i, preserving order of
// the remainder.
func (q *Queue) RemoveAt(i int) *Process {
	p := q.items[i]
	q.items = append(q.items[:i], q.items[i+1:]...)
	return p
}

// SortByInstructionCount re-sorts the queue ascending by
// SequentialInstructionCount; used by CreateProcess under ShortestJob.
func (q *Queue) SortByInstructionCount() {
	// insertion sort: queues stay small (a handful of processes) in this
	// machine, and insertion sort keeps the already-sorted prefix cheap to
	// extend on every CreateProcess call.
	for i := 1; i < len(q.items); i++ {
		for j := i; j > 0 && q.items[j].SequentialInstructionCount < q.items[j-1].SequentialInstructionCount; j-- {
			q.items[j], q.items[j-1] = q.items[j-1], q.items[j]
		}
	}
}

// PriorityQueue is an indexed binary heap of processes ordered by Priority
// (higher first, ties broken by lower ID, i.e. creation order), supporting in-place
// priority updates: ageing the running process's priority mutates it where
// it already sits in the heap and restores the heap invariant, without
// removing and reinserting a copy.
type PriorityQueue struct {
	h priorityHeap
}

func NewPriorityQueue() *PriorityQueue {
	return &PriorityQueue{}
}

func (pq *PriorityQueue) Len() int { return pq.h.Len() }

func (pq *PriorityQueue) Empty() bool { return pq.h.Len() == 0 }

// Push inserts p into the queue.
func (pq *PriorityQueue) Push(p *Process) {
	heap.Push(&pq.h, p)
}

// Peek returns the highest-priority process without removing it.
func (pq *PriorityQueue) Peek() *Process {
	return pq.h[0]
}

// Pop removes and returns the highest-priority process.
func (pq *PriorityQueue) Pop() *Process {
	return heap.Pop(&pq.h).(*Process)
}

// Update changes p's priority in place and restores the heap invariant. p
// must currently be in the queue.
func (pq *PriorityQueue) Update(p *Process, newPriority int) {
	p.Priority = newPriority
	heap.Fix(&pq.h, p.index)
}

// Remove deletes p from the queue (used when terminating a process that is
// not necessarily at the top).
func (pq *PriorityQueue) Remove(p *Process) {
	heap.Remove(&pq.h, p.index)
}

type priorityHeap []*Process

func (h priorityHeap) Len() int { return len(h) }

func (h priorityHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority // higher priority first
	}
	// ID is assigned once, in creation order, and never mutated — unlike
	// index, which Swap overwrites with each process's current heap slot
	// and so cannot also serve as a stable tie-break.
	return h[i].ID < h[j].ID // earlier creation first
}

func (h priorityHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *priorityHeap) Push(x any) {
	p := x.(*Process)
	p.index = len(*h)
	*h = append(*h, p)
}

func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	old[n-1] = nil
	p.index = -1
	*h = old[:n-1]
	return p
}
