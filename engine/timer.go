package engine

import "container/heap"

type timer struct {
	engine  *Engine
	due     int64
	seq     uint64
	fn      func()
	stopped bool
	fired   bool
	index   int
}

// Stop implements modal.Timer. It reports whether the call prevented the
// callback from running.
func (t *timer) Stop() bool {
	e := t.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	if t.index >= 0 {
		heap.Remove(&e.timers, t.index)
	}
	return true
}

// timerQueue orders timers by due frame, then by scheduling order.
type timerQueue []*timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// popDue removes and returns every timer due at or before frame, marking
// them fired.
func (q *timerQueue) popDue(frame int64) []*timer {
	var due []*timer
	for q.Len() > 0 && (*q)[0].due <= frame {
		t := heap.Pop(q).(*timer)
		t.fired = true
		due = append(due, t)
	}
	return due
}
