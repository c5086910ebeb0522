package production

import (
	"container/heap"
	"time"
)

// jobHeap is a min-heap of jobs ordered by EndTime, so the job that
// finishes soonest is always on top. The manager drains it on every
// update to find brews and roasts that are due.
type jobHeap []*Job

func (h jobHeap) Len() int {
	return len(h)
}

func (h jobHeap) Less(i, j int) bool {
	// Earlier end time = higher priority (min-heap)
	return h[i].EndTime.Before(h[j].EndTime)
}

func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *jobHeap) Push(x any) {
	*h = append(*h, x.(*Job))
}

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	job := old[n-1]
	old[n-1] = nil // Avoid memory leak
	*h = old[0 : n-1]
	return job
}

// peek returns the job with the earliest end time without removing it.
// Returns nil if the heap is empty.
func (h *jobHeap) peek() *Job {
	if len(*h) == 0 {
		return nil
	}
	return (*h)[0]
}

// remove removes a job from the heap by ID. Returns true if found and removed.
func (h *jobHeap) remove(id JobID) bool {
	for i, job := range *h {
		if job.ID == id {
			heap.Remove(h, i)
			return true
		}
	}
	return false
}

// newJobHeap creates an empty job heap.
func newJobHeap() *jobHeap {
	h := &jobHeap{}
	heap.Init(h)
	return h
}

// popDue extracts every job whose EndTime has passed by now, in
// completion order (earliest first).
func (h *jobHeap) popDue(now time.Time) []*Job {
	var due []*Job

	for {
		job := h.peek()
		if job == nil {
			break
		}

		// If the earliest job isn't due yet, none are
		if now.Before(job.EndTime) {
			break
		}

		heap.Pop(h)
		due = append(due, job)
	}

	return due
}
