// ABOUTME: Tests for the staging ring buffer
// ABOUTME: Tests zero-fill reads, overwrite semantics and cursor bounds
package staging

import (
	"testing"

	"github.com/tapmix-audio/tapmix-go/internal/audio"
)

func TestReadReturnsMinOfRequestedAndAvailable(t *testing.T) {
	b := New(16)
	b.Write([]float32{1, 2, 3, 4})

	dst := make([]float32, 8)
	n := b.Read(dst)

	if n != 4 {
		t.Fatalf("expected 4 real samples, got %d", n)
	}
	for i := 0; i < 4; i++ {
		if dst[i] != float32(i+1) {
			t.Errorf("sample %d: expected %d, got %f", i, i+1, dst[i])
		}
	}
	for i := 4; i < 8; i++ {
		if dst[i] != 0 {
			t.Errorf("sample %d: expected zero-fill, got %f", i, dst[i])
		}
	}
}

func TestReadEmptyBufferZeroFills(t *testing.T) {
	b := New(16)
	dst := []float32{9, 9, 9, 9}

	n := b.Read(dst)

	if n != 0 {
		t.Fatalf("expected 0 real samples, got %d", n)
	}
	for i, s := range dst {
		if s != 0 {
			t.Errorf("sample %d: expected 0, got %f", i, s)
		}
	}
}

func TestWriteOverwritesOldestWhenFull(t *testing.T) {
	b := New(4)

	// capacity + k samples: the k oldest must be unrecoverable.
	b.Write([]float32{1, 2, 3, 4, 5, 6})

	if b.Available() != 4 {
		t.Fatalf("expected exactly capacity samples available, got %d", b.Available())
	}

	dst := make([]float32, 4)
	n := b.Read(dst)
	if n != 4 {
		t.Fatalf("expected 4 samples, got %d", n)
	}
	expected := []float32{3, 4, 5, 6}
	for i := range expected {
		if dst[i] != expected[i] {
			t.Errorf("sample %d: expected %f, got %f", i, expected[i], dst[i])
		}
	}
}

func TestCursorsStayInBounds(t *testing.T) {
	b := New(7)
	dst := make([]float32, 5)

	for i := 0; i < 100; i++ {
		b.Write([]float32{1, 2, 3})
		b.Read(dst)

		if b.readPos < 0 || b.readPos >= 7 {
			t.Fatalf("readPos out of bounds: %d", b.readPos)
		}
		if b.writePos < 0 || b.writePos >= 7 {
			t.Fatalf("writePos out of bounds: %d", b.writePos)
		}
		if b.count < 0 || b.count > 7 {
			t.Fatalf("count out of bounds: %d", b.count)
		}
	}
}

func TestInterleavedWriteRead(t *testing.T) {
	b := New(64)
	next := float32(0)
	expect := float32(0)

	for round := 0; round < 50; round++ {
		chunk := make([]float32, 5)
		for i := range chunk {
			chunk[i] = next
			next++
		}
		b.Write(chunk)

		dst := make([]float32, 5)
		n := b.Read(dst)
		for i := 0; i < n; i++ {
			if dst[i] != expect {
				t.Fatalf("round %d sample %d: expected %f, got %f", round, i, expect, dst[i])
			}
			expect++
		}
	}
}

func TestNewForFormatCapacity(t *testing.T) {
	f := audio.Format{SampleRate: 48000, Channels: 2, BitsPerSample: 32, Float: true}
	b := NewForFormat(f)

	if b.Capacity() != 2*48000*2 {
		t.Errorf("expected 2s capacity (192000), got %d", b.Capacity())
	}
}
