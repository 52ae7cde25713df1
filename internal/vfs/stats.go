package vfs

import "sync/atomic"

// Statistics is an immutable view of notification stream health accumulated
// between two resets.
type Statistics struct {
	ReceivedEventCount      int
	UnknownEventEncountered bool
	// LastError is the first stream error recorded since the previous
	// reset. Later errors before the reset are dropped.
	LastError error
}

// accumulator is the live counterpart of Statistics. Updates copy the
// current value and install the successor with a compare-and-swap retry
// loop; snapshotAndReset swaps in a fresh zero value. The swap is the
// linearization point: every update lands in exactly one of the returned
// snapshot and the new accumulator.
type accumulator struct {
	current atomic.Pointer[Statistics]
}

func newAccumulator() *accumulator {
	acc := &accumulator{}
	acc.current.Store(&Statistics{})
	return acc
}

func (a *accumulator) recordEvent() {
	for {
		old := a.current.Load()
		next := *old
		next.ReceivedEventCount++
		if a.current.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (a *accumulator) recordUnknownEvent() {
	for {
		old := a.current.Load()
		if old.UnknownEventEncountered {
			return
		}
		next := *old
		next.UnknownEventEncountered = true
		if a.current.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (a *accumulator) recordError(err error) {
	if err == nil {
		return
	}
	for {
		old := a.current.Load()
		if old.LastError != nil {
			return
		}
		next := *old
		next.LastError = err
		if a.current.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (a *accumulator) snapshotAndReset() Statistics {
	return *a.current.Swap(&Statistics{})
}
