package io

import "sync"

type StandardProducer struct {
	total     int
	chunkSize int
}

// Creates a producer that splits the range [0, total) into work units of at most chunkSize items
func NewStandardProducer(total int, chunkSize int) *StandardProducer {
	if chunkSize < 1 {
		chunkSize = 1
	}
	return &StandardProducer{
		total:     total,
		chunkSize: chunkSize,
	}
}

// Submits WorkUnits covering the whole range to the provided workchannel.
// Closes the channel when all work is submitted.
func (p *StandardProducer) Produce(work chan *WorkUnit, wg *sync.WaitGroup) {
	index := 0
	for start := 0; start < p.total; start += p.chunkSize {
		end := start + p.chunkSize
		if end > p.total {
			end = p.total
		}
		work <- &WorkUnit{
			Index: index,
			Start: start,
			End:   end,
		}
		index++
	}
	close(work)
	wg.Done()
}

// Number of work units the producer submits
func (p *StandardProducer) NumberOfUnits() int {
	return (p.total + p.chunkSize - 1) / p.chunkSize
}
