// ABOUTME: Cross-thread staging ring buffer for microphone samples
// ABOUTME: Decouples the input device callback from the tap's mixing callback
package staging

import (
	"sync"

	"github.com/tapmix-audio/tapmix-go/internal/audio"
)

// BufferSeconds is the staging capacity between the two callback domains.
// Two seconds absorbs any realistic clock drift between independently
// clocked devices without unbounded growth.
const BufferSeconds = 2

// Buffer is a fixed-capacity circular buffer of interleaved float32 samples.
// The input device callback writes, the tap device callback reads. Neither
// side ever blocks: writes overwrite the oldest unread samples when full,
// reads zero-fill when the buffer runs dry. The single mutex is held only
// for bounded cursor arithmetic and sample copies, never for allocation
// or I/O, which keeps both real-time callbacks safe.
type Buffer struct {
	mu       sync.Mutex
	storage  []float32
	readPos  int
	writePos int
	count    int
}

// New creates a buffer with the given capacity in samples.
func New(capacity int) *Buffer {
	return &Buffer{storage: make([]float32, capacity)}
}

// NewForFormat creates a buffer sized for BufferSeconds of the session format.
func NewForFormat(f audio.Format) *Buffer {
	return New(BufferSeconds * f.SamplesPerSecond())
}

// Write appends samples, overwriting the oldest unread data when full.
// It never fails and never blocks on the reader.
func (b *Buffer) Write(samples []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := len(b.storage)
	for _, s := range samples {
		b.storage[b.writePos] = s
		b.writePos = (b.writePos + 1) % size
		if b.count == size {
			// Reader fell behind; drop the oldest sample.
			b.readPos = (b.readPos + 1) % size
		} else {
			b.count++
		}
	}
}

// Read fills dst with available samples and zero-fills the remainder,
// returning how many real samples were copied. This is the sole place
// underrun is handled.
func (b *Buffer) Read(dst []float32) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := len(b.storage)
	read := 0
	for read < len(dst) && b.count > 0 {
		dst[read] = b.storage[b.readPos]
		b.readPos = (b.readPos + 1) % size
		b.count--
		read++
	}

	for i := read; i < len(dst); i++ {
		dst[i] = 0
	}

	return read
}

// Available returns the number of samples ready to read.
func (b *Buffer) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Capacity returns the total sample capacity.
func (b *Buffer) Capacity() int {
	return len(b.storage)
}
