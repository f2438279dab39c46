package io

// Contains the minimal data needed by a consumer to process a contiguous block of items, e.g. a
// chunk of source points or a band of atlas rows. The range is half open: [Start, End).
type WorkUnit struct {
	Index int
	Start int
	End   int
}

func (w *WorkUnit) Len() int {
	return w.End - w.Start
}
