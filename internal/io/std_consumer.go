package io

import (
	"sync"

	"github.com/golang/glog"
)

// Processes a single work unit. worker identifies the consumer running it, so that callers can keep
// per worker accumulators without locking.
type WorkFunc func(worker int, work *WorkUnit) error

type StandardConsumer struct {
	id     int
	doWork WorkFunc
}

func NewStandardConsumer(id int, doWork WorkFunc) *StandardConsumer {
	return &StandardConsumer{
		id:     id,
		doWork: doWork,
	}
}

// Continually consumes WorkUnits submitted to a work channel until the channel is closed or an error is
// raised. In this last case submits the error to the error channel and keeps draining the work channel
// so that the producer is never blocked.
func (c *StandardConsumer) Consume(workchan chan *WorkUnit, errchan chan error, waitGroup *sync.WaitGroup) {
	failed := false
	for work := range workchan {
		if failed {
			continue
		}
		if err := c.doWork(c.id, work); err != nil {
			glog.Errorf("worker %d failed on unit %d [%d,%d): %v", c.id, work.Index, work.Start, work.End, err)
			errchan <- err
			failed = true
		}
	}

	// signal waitgroup finished work
	waitGroup.Done()
}
