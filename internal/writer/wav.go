// ABOUTME: Streaming WAV container writer
// ABOUTME: Appends PCM frames incrementally and patches RIFF sizes on close
package writer

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/tapmix-audio/tapmix-go/internal/audio"
)

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3

	wavRiffSizeOffset = 4
	wavDataSizeOffset = 40
	wavHeaderSize     = 44
)

// WAVWriter streams interleaved samples into a RIFF/WAVE file. Size fields
// are written as zero and patched on Close.
type WAVWriter struct {
	path    string
	format  audio.Format
	file    *os.File
	buf     *bufio.Writer
	scratch []byte

	frames uint64
	bytes  int64
	closed bool
}

// NewWAV opens path for writing and emits the provisional header.
func NewWAV(path string, format audio.Format) (*WAVWriter, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid output format: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w := &WAVWriter{
		path:   path,
		format: format,
		file:   f,
		buf:    bufio.NewWriter(f),
	}
	if err := w.writeHeader(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return w, nil
}

func (w *WAVWriter) writeHeader() error {
	formatTag := uint16(wavFormatPCM)
	if w.format.Float {
		formatTag = wavFormatFloat
	}
	byteRate := uint32(w.format.SampleRate) * uint32(w.format.BytesPerFrame())

	header := make([]byte, 0, wavHeaderSize)
	header = append(header, "RIFF"...)
	header = binary.LittleEndian.AppendUint32(header, 0) // patched on Close
	header = append(header, "WAVE"...)
	header = append(header, "fmt "...)
	header = binary.LittleEndian.AppendUint32(header, 16)
	header = binary.LittleEndian.AppendUint16(header, formatTag)
	header = binary.LittleEndian.AppendUint16(header, uint16(w.format.Channels))
	header = binary.LittleEndian.AppendUint32(header, uint32(w.format.SampleRate))
	header = binary.LittleEndian.AppendUint32(header, byteRate)
	header = binary.LittleEndian.AppendUint16(header, uint16(w.format.BytesPerFrame()))
	header = binary.LittleEndian.AppendUint16(header, uint16(w.format.BitsPerSample))
	header = append(header, "data"...)
	header = binary.LittleEndian.AppendUint32(header, 0) // patched on Close

	if _, err := w.buf.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// WriteFrames appends a batch of interleaved samples.
func (w *WAVWriter) WriteFrames(samples []float32) error {
	if w.closed {
		return fmt.Errorf("write to closed writer: %s", w.path)
	}

	need := len(samples) * w.format.BytesPerSample()
	if cap(w.scratch) < need {
		w.scratch = make([]byte, need)
	}
	out := w.scratch[:need]

	if w.format.Float {
		audio.Float32ToBytes(samples, out)
	} else {
		for i, s := range samples {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(audio.SampleToInt16(s)))
		}
	}

	if _, err := w.buf.Write(out); err != nil {
		return fmt.Errorf("failed to write frames: %w", err)
	}

	w.frames += uint64(len(samples) / int(w.format.Channels))
	w.bytes += int64(need)
	return nil
}

// Close flushes pending data and patches the RIFF and data chunk sizes.
// Only after Close does the file become valid for playback.
func (w *WAVWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush output: %w", err)
	}

	sizes := make([]byte, 4)
	binary.LittleEndian.PutUint32(sizes, uint32(36+w.bytes))
	if _, err := w.file.WriteAt(sizes, wavRiffSizeOffset); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to finalize RIFF size: %w", err)
	}
	binary.LittleEndian.PutUint32(sizes, uint32(w.bytes))
	if _, err := w.file.WriteAt(sizes, wavDataSizeOffset); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to finalize data size: %w", err)
	}

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}

func (w *WAVWriter) Path() string { return w.path }

func (w *WAVWriter) FramesWritten() uint64 { return w.frames }

func (w *WAVWriter) BytesWritten() int64 { return int64(wavHeaderSize) + w.bytes }

// Duration reports the recorded time represented by the written frames.
func (w *WAVWriter) Duration() time.Duration {
	if w.format.SampleRate <= 0 {
		return 0
	}
	seconds := float64(w.frames) / w.format.SampleRate
	return time.Duration(seconds * float64(time.Second))
}
