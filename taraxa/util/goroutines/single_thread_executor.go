package goroutines

import (
	"errors"
	"sync"
)

var ErrExecutorClosed = errors.New("executor closed")

// SingleThreadExecutor runs submitted tasks one at a time, in submission
// order, on a dedicated goroutine.
type SingleThreadExecutor struct {
	tasks  chan func()
	done   chan struct{}
	lock   sync.RWMutex
	closed bool
}

func (self *SingleThreadExecutor) Init(buffer_size uint32) *SingleThreadExecutor {
	self.tasks = make(chan func(), buffer_size)
	self.done = make(chan struct{})
	go func() {
		defer close(self.done)
		for t := range self.tasks {
			t()
		}
	}()
	return self
}

func (self *SingleThreadExecutor) Submit(task func()) error {
	self.lock.RLock()
	defer self.lock.RUnlock()
	if self.closed {
		return ErrExecutorClosed
	}
	self.tasks <- task
	return nil
}

// Do runs task on the executor goroutine and waits for it to finish.
func (self *SingleThreadExecutor) Do(task func()) error {
	finished := make(chan struct{})
	if err := self.Submit(func() {
		defer close(finished)
		task()
	}); err != nil {
		return err
	}
	<-finished
	return nil
}

// Close rejects new tasks and waits until the queued ones have run.
func (self *SingleThreadExecutor) Close() {
	self.lock.Lock()
	if !self.closed {
		self.closed = true
		close(self.tasks)
	}
	self.lock.Unlock()
	<-self.done
}
