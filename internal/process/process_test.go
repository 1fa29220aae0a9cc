package process

/*
 * svm - Process control block and priority queue test set.
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

import "testing"

func TestQueueFIFOOrder(t *testing.T) {
	q := NewQueue()
	q.PushBack(New(1, 0, 0, 0, 0))
	q.PushBack(New(2, 0, 0, 0, 0))
	q.PushBack(New(3, 0, 0, 0, 0))

	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", q.Len())
	}
	if q.At(0).ID != 1 || q.At(1).ID != 2 || q.At(2).ID != 3 {
		t.Errorf("order not preserved: %d %d %d", q.At(0).ID, q.At(1).ID, q.At(2).ID)
	}

	removed := q.RemoveAt(1)
	if removed.ID != 2 {
		t.Errorf("RemoveAt(1).ID = %d, want 2", removed.ID)
	}
	if q.Len() != 2 || q.At(0).ID != 1 || q.At(1).ID != 3 {
		t.Errorf("queue after removal = %d %d, want 1 3", q.At(0).ID, q.At(1).ID)
	}
}

func TestQueueSortByInstructionCount(t *testing.T) {
	q := NewQueue()
	q.PushBack(New(1, 0, 0, 0, 30))
	q.PushBack(New(2, 0, 0, 0, 10))
	q.PushBack(New(3, 0, 0, 0, 20))

	q.SortByInstructionCount()

	if q.At(0).ID != 2 || q.At(1).ID != 3 || q.At(2).ID != 1 {
		t.Errorf("order after sort = %d %d %d, want 2 3 1", q.At(0).ID, q.At(1).ID, q.At(2).ID)
	}
}

func TestPriorityQueueOrdersByPriorityThenInsertion(t *testing.T) {
	pq := NewPriorityQueue()
	pq.Push(New(1, 0, 0, 5, 0))
	pq.Push(New(2, 0, 0, 9, 0))
	pq.Push(New(3, 0, 0, 9, 0))

	if got := pq.Peek().ID; got != 2 {
		t.Errorf("Peek().ID = %d, want 2 (highest priority, earliest insertion)", got)
	}

	first := pq.Pop()
	second := pq.Pop()
	third := pq.Pop()
	if first.ID != 2 || second.ID != 3 || third.ID != 1 {
		t.Errorf("pop order = %d %d %d, want 2 3 1", first.ID, second.ID, third.ID)
	}
}

func TestPriorityQueueUpdateReordersInPlace(t *testing.T) {
	pq := NewPriorityQueue()
	a := New(1, 0, 0, 10, 0)
	b := New(2, 0, 0, 5, 0)
	pq.Push(a)
	pq.Push(b)

	if got := pq.Peek().ID; got != 1 {
		t.Fatalf("Peek().ID = %d, want 1", got)
	}

	pq.Update(a, 1) // age a below b
	if got := pq.Peek().ID; got != 2 {
		t.Errorf("Peek().ID after Update = %d, want 2", got)
	}
	if pq.Len() != 2 {
		t.Errorf("Len() after Update = %d, want 2", pq.Len())
	}
}
