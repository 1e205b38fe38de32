// ABOUTME: Tests for the streaming container writers
// ABOUTME: Verifies headers, size patching, counters and playback validity after close
package writer

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tapmix-audio/tapmix-go/internal/audio"
)

func floatFormat() audio.Format {
	return audio.Format{SampleRate: 48000, Channels: 2, BitsPerSample: 32, Float: true}
}

func intFormat() audio.Format {
	return audio.Format{SampleRate: 48000, Channels: 2, BitsPerSample: 16, Float: false}
}

func TestWAVWriteAndFinalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := NewWAV(path, floatFormat())
	if err != nil {
		t.Fatalf("NewWAV: %v", err)
	}

	// One second of stereo audio in 10ms batches.
	batch := make([]float32, 480*2)
	for i := range batch {
		batch[i] = 0.25
	}
	for i := 0; i < 100; i++ {
		if err := w.WriteFrames(batch); err != nil {
			t.Fatalf("WriteFrames: %v", err)
		}
	}

	if w.FramesWritten() != 48000 {
		t.Errorf("expected 48000 frames, got %d", w.FramesWritten())
	}
	if got := w.Duration(); got != time.Second {
		t.Errorf("expected 1s duration, got %v", got)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	dataSize := 48000 * 2 * 4
	if len(data) != wavHeaderSize+dataSize {
		t.Fatalf("expected %d bytes on disk, got %d", wavHeaderSize+dataSize, len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(data[4:]); got != uint32(36+dataSize) {
		t.Errorf("RIFF size not patched: got %d", got)
	}
	if got := binary.LittleEndian.Uint16(data[20:]); got != wavFormatFloat {
		t.Errorf("expected float format tag, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(data[24:]); got != 48000 {
		t.Errorf("expected 48000 sample rate, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(data[wavDataSizeOffset:]); got != uint32(dataSize) {
		t.Errorf("data size not patched: got %d", got)
	}

	// First sample survives the trip to disk.
	first := math.Float32frombits(binary.LittleEndian.Uint32(data[wavHeaderSize:]))
	if first != 0.25 {
		t.Errorf("expected first sample 0.25, got %f", first)
	}
}

func TestWAVInt16Encoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := NewWAV(path, intFormat())
	if err != nil {
		t.Fatalf("NewWAV: %v", err)
	}

	if err := w.WriteFrames([]float32{1, -1, 0.5, 0}); err != nil {
		t.Fatalf("WriteFrames: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got := binary.LittleEndian.Uint16(data[20:]); got != wavFormatPCM {
		t.Errorf("expected PCM format tag, got %d", got)
	}
	if got := int16(binary.LittleEndian.Uint16(data[wavHeaderSize:])); got != 32767 {
		t.Errorf("expected full-scale 32767, got %d", got)
	}
	if got := int16(binary.LittleEndian.Uint16(data[wavHeaderSize+2:])); got != -32767 {
		t.Errorf("expected -32767, got %d", got)
	}
}

func TestWAVFileInvalidBeforeClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := NewWAV(path, floatFormat())
	if err != nil {
		t.Fatalf("NewWAV: %v", err)
	}
	if err := w.WriteFrames([]float32{0.1, 0.1}); err != nil {
		t.Fatalf("WriteFrames: %v", err)
	}

	// Before Close the size fields are still zero.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) >= 8 && binary.LittleEndian.Uint32(data[4:]) != 0 {
		t.Error("RIFF size should be unpatched before Close")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.WriteFrames([]float32{0.1, 0.1}); err == nil {
		t.Error("expected error writing after Close")
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close should be idempotent: %v", err)
	}
}

func TestCAFWriteAndFinalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.caf")
	w, err := NewCAF(path, floatFormat())
	if err != nil {
		t.Fatalf("NewCAF: %v", err)
	}

	batch := make([]float32, 480*2)
	for i := 0; i < 10; i++ {
		if err := w.WriteFrames(batch); err != nil {
			t.Fatalf("WriteFrames: %v", err)
		}
	}
	if w.FramesWritten() != 4800 {
		t.Errorf("expected 4800 frames, got %d", w.FramesWritten())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data[0:4]) != "caff" {
		t.Error("missing caff magic")
	}
	if string(data[8:12]) != "desc" {
		t.Error("missing desc chunk")
	}
	rate := math.Float64frombits(binary.BigEndian.Uint64(data[20:]))
	if rate != 48000 {
		t.Errorf("expected 48000 sample rate, got %f", rate)
	}
	if string(data[28:32]) != "lpcm" {
		t.Error("missing lpcm format id")
	}

	audioBytes := int64(4800 * 2 * 4)
	if got := binary.BigEndian.Uint64(data[cafDataSizeOffset:]); got != uint64(4+audioBytes) {
		t.Errorf("data chunk size not patched: got %d", got)
	}
	if int64(len(data)) != int64(cafHeaderSize)+audioBytes {
		t.Errorf("expected %d bytes on disk, got %d", int64(cafHeaderSize)+audioBytes, len(data))
	}
}

func TestOpenSelectsContainer(t *testing.T) {
	dir := t.TempDir()

	w, err := Open("wav", filepath.Join(dir, "a.wav"), floatFormat())
	if err != nil {
		t.Fatalf("Open wav: %v", err)
	}
	if _, ok := w.(*WAVWriter); !ok {
		t.Errorf("expected WAVWriter, got %T", w)
	}
	w.Close()

	w, err = Open("caf", filepath.Join(dir, "a.caf"), floatFormat())
	if err != nil {
		t.Fatalf("Open caf: %v", err)
	}
	if _, ok := w.(*CAFWriter); !ok {
		t.Errorf("expected CAFWriter, got %T", w)
	}
	w.Close()

	if _, err := Open("mp3", filepath.Join(dir, "a.mp3"), floatFormat()); err == nil {
		t.Error("expected error for unsupported container")
	}
}
