package audio

import (
	"fmt"
	"sync"
	"time"
)

// Buffer accumulates audio segments for one session between transcription
// passes. Segments are kept strictly in arrival order; the assembled artifact
// depends on byte-order fidelity.
type Buffer struct {
	maxSegmentBytes  int
	maxBufferedBytes int

	// Segment storage since the last reset
	segments      [][]byte
	bufferedBytes int

	// Totals since session start (survive Reset)
	totalSegments int
	totalBytes    int

	lastUpdate time.Time

	mu sync.Mutex
}

// BufferStats represents buffer statistics for monitoring
type BufferStats struct {
	PendingSegments int       `json:"pending_segments"`
	PendingBytes    int       `json:"pending_bytes"`
	TotalSegments   int       `json:"total_segments"`
	TotalBytes      int       `json:"total_bytes"`
	LastUpdate      time.Time `json:"last_update"`
}

// NewBuffer creates a new segment buffer with the given size caps.
// A non-positive cap disables that limit.
func NewBuffer(maxSegmentBytes, maxBufferedBytes int) *Buffer {
	return &Buffer{
		maxSegmentBytes:  maxSegmentBytes,
		maxBufferedBytes: maxBufferedBytes,
		segments:         make([][]byte, 0, 16),
		lastUpdate:       time.Now(),
	}
}

// Append adds one segment to the buffer. The data is copied, so the caller
// may reuse its slice. Rejected segments leave the buffer unchanged.
func (b *Buffer) Append(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(data) == 0 {
		return fmt.Errorf("cannot append empty segment")
	}

	if b.maxSegmentBytes > 0 && len(data) > b.maxSegmentBytes {
		return fmt.Errorf("segment of %d bytes exceeds limit of %d bytes", len(data), b.maxSegmentBytes)
	}

	if b.maxBufferedBytes > 0 && b.bufferedBytes+len(data) > b.maxBufferedBytes {
		return fmt.Errorf("buffer full: %d bytes buffered, segment of %d bytes exceeds limit of %d bytes",
			b.bufferedBytes, len(data), b.maxBufferedBytes)
	}

	segment := make([]byte, len(data))
	copy(segment, data)

	b.segments = append(b.segments, segment)
	b.bufferedBytes += len(segment)
	b.totalSegments++
	b.totalBytes += len(segment)
	b.lastUpdate = time.Now()

	return nil
}

// Assemble concatenates the buffered segments into one artifact in arrival
// order. The buffer is not modified; call Reset afterwards to drop the
// segments. An empty buffer yields ErrEmptyInput.
func (b *Buffer) Assemble() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Assemble(b.segments)
}

// Reset discards all buffered segments. Session-lifetime totals are kept so
// the trigger policy can still count segments since session start.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.segments = b.segments[:0]
	b.bufferedBytes = 0
	b.lastUpdate = time.Now()
}

// SegmentCount returns the number of segments buffered since the last reset
func (b *Buffer) SegmentCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.segments)
}

// BufferedBytes returns the total size of the segments buffered since the last reset
func (b *Buffer) BufferedBytes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bufferedBytes
}

// TotalSegments returns the number of segments appended over the buffer's lifetime
func (b *Buffer) TotalSegments() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalSegments
}

// GetStats returns a snapshot of buffer statistics for monitoring
func (b *Buffer) GetStats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BufferStats{
		PendingSegments: len(b.segments),
		PendingBytes:    b.bufferedBytes,
		TotalSegments:   b.totalSegments,
		TotalBytes:      b.totalBytes,
		LastUpdate:      b.lastUpdate,
	}
}
