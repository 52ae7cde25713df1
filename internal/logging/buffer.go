package logging

import "sync"

// Buffer retains the most recent log entries in a fixed-size ring.
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
	start   int
	count   int
}

func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = 1
	}
	return &Buffer{
		entries: make([]Entry, size),
	}
}

func (b *Buffer) Add(entry Entry) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count < len(b.entries) {
		index := (b.start + b.count) % len(b.entries)
		b.entries[index] = entry
		b.count++
		return
	}

	b.entries[b.start] = entry
	b.start = (b.start + 1) % len(b.entries)
}

// List returns retained entries in arrival order, oldest first.
func (b *Buffer) List() []Entry {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}
	out := make([]Entry, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.entries[(b.start+i)%len(b.entries)]
	}
	return out
}

func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
