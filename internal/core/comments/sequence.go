package comments

import "sync/atomic"

// Sequence issues monotonically increasing positive local identifiers.
// Identifiers are process-local correlation keys, never reused and never
// persisted across runs. Comments and replies each get their own Sequence so
// the two numbering spaces stay independent.
type Sequence struct {
	n atomic.Int64
}

// NewSequence returns a sequence whose first Next call yields 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns a fresh identifier strictly greater than any issued before.
func (s *Sequence) Next() int64 {
	return s.n.Add(1)
}

// Last returns the most recently issued identifier, or 0 if none.
func (s *Sequence) Last() int64 {
	return s.n.Load()
}
