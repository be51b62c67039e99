// Package timer schedules delayed callbacks keyed by a string, so a
// pending task can be cancelled when the condition that scheduled it
// goes away (a player rejoining an empty room, for instance).
package timer

import (
	"container/heap"
	"sync"
	"time"
)

type task struct {
	key      string
	execute  time.Time
	callback func()
	index    int
}

type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	return q[i].execute.Before(q[j].execute)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x interface{}) {
	n := len(*q)
	t := x.(*task)
	t.index = n
	*q = append(*q, t)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	t := old[n-1]
	t.index = -1
	*q = old[0 : n-1]
	return t
}

// Manager runs due callbacks from a background goroutine. Callbacks run
// in their own goroutine so a slow one cannot delay the rest.
type Manager struct {
	queue    taskQueue
	byKey    map[string]*task
	mutex    sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewManager() *Manager {
	m := &Manager{
		queue:    make(taskQueue, 0),
		byKey:    make(map[string]*task),
		stopChan: make(chan struct{}),
	}
	heap.Init(&m.queue)
	go m.process()
	return m
}

// Schedule queues callback to run after delay. Scheduling with a key
// that already has a pending task replaces it.
func (m *Manager) Schedule(key string, delay time.Duration, callback func()) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if existing, ok := m.byKey[key]; ok {
		heap.Remove(&m.queue, existing.index)
	}

	t := &task{
		key:      key,
		execute:  time.Now().Add(delay),
		callback: callback,
	}
	m.byKey[key] = t
	heap.Push(&m.queue, t)
}

// Cancel drops a pending task. Cancelling an unknown key is a no-op.
func (m *Manager) Cancel(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if t, ok := m.byKey[key]; ok {
		heap.Remove(&m.queue, t.index)
		delete(m.byKey, key)
	}
}

// Pending reports whether key has a task that has not fired yet.
func (m *Manager) Pending(key string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	_, ok := m.byKey[key]
	return ok
}

// Stop halts the background goroutine. Pending tasks never fire.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
}

func (m *Manager) process() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mutex.Lock()
			now := time.Now()
			var due []*task
			for m.queue.Len() > 0 {
				t := m.queue[0]
				if t.execute.After(now) {
					break
				}
				heap.Pop(&m.queue)
				delete(m.byKey, t.key)
				due = append(due, t)
			}
			m.mutex.Unlock()

			for _, t := range due {
				go t.callback()
			}

		case <-m.stopChan:
			return
		}
	}
}
