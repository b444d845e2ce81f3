package utils

import (
	"casino-monitor/src/models"
)

// -----------------------------------------------------------------------------
// RingBuffer is a fixed-size circular buffer of finalized rounds.
// Capacity never changes after construction.
// -----------------------------------------------------------------------------

type RingBuffer struct {
	data     []models.MHistoryEntry
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewRingBuffer creates a new buffer with fixed capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 100
	}

	return &RingBuffer{
		data:     make([]models.MHistoryEntry, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Append writes entry at the head. When the buffer is full the oldest entry
// is overwritten and returned with evicted=true.
func (rb *RingBuffer) Append(entry models.MHistoryEntry) (old models.MHistoryEntry, evicted bool) {
	if rb.size == rb.capacity {
		old = rb.data[rb.index]
		evicted = true
	}

	rb.data[rb.index] = entry
	rb.index = (rb.index + 1) % rb.capacity

	if rb.size < rb.capacity {
		rb.size++
	}
	return old, evicted
}

// -----------------------------------------------------------------------------

// GetLatest returns the n newest entries, oldest first
func (rb *RingBuffer) GetLatest(n int) []models.MHistoryEntry {
	if rb.size == 0 || n <= 0 {
		return []models.MHistoryEntry{}
	}

	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make([]models.MHistoryEntry, count)

	// Latest entry sits at index-1
	startIdx := (rb.index - count + rb.capacity) % rb.capacity

	for i := 0; i < count; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}

	return result
}

// -----------------------------------------------------------------------------

// GetAll returns all entries in insertion order (oldest to newest)
func (rb *RingBuffer) GetAll() []models.MHistoryEntry {
	return rb.GetLatest(rb.size)
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (rb *RingBuffer) Size() int {
	return rb.size
}

// -----------------------------------------------------------------------------

// Capacity returns buffer capacity (fixed)
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer
func (rb *RingBuffer) Clear() {
	for i := range rb.data {
		rb.data[i] = models.MHistoryEntry{}
	}
	rb.index = 0
	rb.size = 0
}
