package goroutines

import "sync"

// GoroutineGroup runs submitted tasks on a fixed number of goroutines, in no
// particular order.
type GoroutineGroup struct {
	tasks   chan func()
	running sync.WaitGroup
	once    sync.Once
}

func (self *GoroutineGroup) Init(goroutine_count uint32, buffer_size uint32) *GoroutineGroup {
	self.tasks = make(chan func(), buffer_size)
	self.running.Add(int(goroutine_count))
	for i := uint32(0); i < goroutine_count; i++ {
		go func() {
			defer self.running.Done()
			for task := range self.tasks {
				task()
			}
		}()
	}
	return self
}

// Submit must not be called after Close.
func (self *GoroutineGroup) Submit(task func()) {
	self.tasks <- task
}

// RunAll runs every task on the group and waits for all of them.
func (self *GoroutineGroup) RunAll(tasks ...func()) {
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for _, t := range tasks {
		t := t
		self.Submit(func() {
			defer wg.Done()
			t()
		})
	}
	wg.Wait()
}

func (self *GoroutineGroup) Close() {
	self.once.Do(func() { close(self.tasks) })
	self.running.Wait()
}
