package io

import (
	"errors"
	"runtime"
	"sync"
)

// Worker pool shared by the atlas packer and the classification stage
type Pool struct {
	numConsumers int
}

// Creates a pool with the given number of consumers, a consumer per CPU if workers is not positive
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Pool{numConsumers: workers}
}

func (p *Pool) Workers() int {
	return p.numConsumers
}

// Splits [0, total) in chunks of chunkSize and runs doWork on every chunk, blocking until all of them are
// processed. Returns the errors raised by the consumers, if any.
func (p *Pool) Run(total int, chunkSize int, doWork WorkFunc) error {
	if total <= 0 {
		return nil
	}

	// init channel where to submit work with a buffer 5 times greater than the number of consumers
	workChannel := make(chan *WorkUnit, p.numConsumers*5)

	// every consumer reports at most one error so the buffer never blocks
	errorChannel := make(chan error, p.numConsumers)

	var waitGroup sync.WaitGroup

	waitGroup.Add(1)
	producer := NewStandardProducer(total, chunkSize)
	go producer.Produce(workChannel, &waitGroup)

	for i := 0; i < p.numConsumers; i++ {
		waitGroup.Add(1)
		consumer := NewStandardConsumer(i, doWork)
		go consumer.Consume(workChannel, errorChannel, &waitGroup)
	}

	// wait for producers and consumers to finish
	waitGroup.Wait()
	close(errorChannel)

	var errs []error
	for err := range errorChannel {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Chunk size giving every consumer about unitsPerWorker work units over total items
func (p *Pool) ChunkSize(total int, unitsPerWorker int) int {
	if unitsPerWorker < 1 {
		unitsPerWorker = 1
	}
	size := total / (p.numConsumers * unitsPerWorker)
	if size < 1 {
		return 1
	}
	return size
}
