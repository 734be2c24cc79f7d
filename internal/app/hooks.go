package app

import "sync"

// hookQueue runs jobs one at a time in the order they were pushed. A worker
// goroutine is started on demand and exits once the queue drains.
type hookQueue struct {
	mu      sync.Mutex
	pending []func()
	running bool
}

// push appends job and starts a worker if none is running. wg tracks the
// worker so callers can wait for queued jobs to finish.
func (q *hookQueue) push(job func(), wg *sync.WaitGroup) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, job)
	if q.running {
		return
	}
	q.running = true
	wg.Add(1)
	go q.drain(wg)
}

func (q *hookQueue) drain(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		job := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		job()
	}
}
