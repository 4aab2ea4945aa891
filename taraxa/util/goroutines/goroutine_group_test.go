package goroutines

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunAll(t *testing.T) {
	group := new(GoroutineGroup).Init(4, 2)
	defer group.Close()
	var sum int64
	tasks := make([]func(), 100)
	for i := range tasks {
		i := int64(i)
		tasks[i] = func() { atomic.AddInt64(&sum, i) }
	}
	group.RunAll(tasks...)
	assert.Equal(t, int64(4950), atomic.LoadInt64(&sum))
	group.RunAll()
}

func TestGroupCloseRunsQueued(t *testing.T) {
	group := new(GoroutineGroup).Init(2, 16)
	var ran int64
	for i := 0; i < 16; i++ {
		group.Submit(func() { atomic.AddInt64(&ran, 1) })
	}
	group.Close()
	assert.Equal(t, int64(16), ran)
	group.Close()
}
