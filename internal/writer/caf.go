// ABOUTME: Streaming CAF container writer
// ABOUTME: Appends LPCM frames into a Core Audio Format file with the size patched on close
package writer

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/tapmix-audio/tapmix-go/internal/audio"
)

const (
	cafFlagFloat        = 1
	cafFlagLittleEndian = 2

	// File header (8) + desc chunk header (12) + desc payload (32) +
	// data chunk type (4) = offset of the data chunk's size field.
	cafDataSizeOffset = 56
	cafHeaderSize     = 68 // through the data chunk's edit count
)

// CAFWriter streams interleaved samples into a Core Audio Format file. The
// data chunk is written with the unknown-size marker (-1) and patched with
// the real size on Close.
type CAFWriter struct {
	path    string
	format  audio.Format
	file    *os.File
	buf     *bufio.Writer
	scratch []byte

	frames uint64
	bytes  int64
	closed bool
}

// NewCAF opens path for writing and emits the file header, the stream
// description and the open-ended data chunk.
func NewCAF(path string, format audio.Format) (*CAFWriter, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid output format: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w := &CAFWriter{
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

func (w *CAFWriter) writeHeader() error {
	formatFlags := uint32(cafFlagLittleEndian)
	if w.format.Float {
		formatFlags |= cafFlagFloat
	}

	// CAF is big-endian throughout its structure.
	header := make([]byte, 0, cafHeaderSize)
	header = append(header, "caff"...)
	header = binary.BigEndian.AppendUint16(header, 1) // file version
	header = binary.BigEndian.AppendUint16(header, 0) // file flags

	header = append(header, "desc"...)
	header = binary.BigEndian.AppendUint64(header, 32)
	header = binary.BigEndian.AppendUint64(header, math.Float64bits(w.format.SampleRate))
	header = append(header, "lpcm"...)
	header = binary.BigEndian.AppendUint32(header, formatFlags)
	header = binary.BigEndian.AppendUint32(header, uint32(w.format.BytesPerFrame())) // bytes per packet
	header = binary.BigEndian.AppendUint32(header, 1)                                // frames per packet
	header = binary.BigEndian.AppendUint32(header, w.format.Channels)
	header = binary.BigEndian.AppendUint32(header, w.format.BitsPerSample)

	header = append(header, "data"...)
	header = binary.BigEndian.AppendUint64(header, math.MaxUint64) // -1: size unknown until Close
	header = binary.BigEndian.AppendUint32(header, 0)              // edit count

	if _, err := w.buf.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// WriteFrames appends a batch of interleaved samples.
func (w *CAFWriter) WriteFrames(samples []float32) error {
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

// Close flushes pending data and patches the data chunk size (edit count
// plus audio bytes).
func (w *CAFWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush output: %w", err)
	}

	size := make([]byte, 8)
	binary.BigEndian.PutUint64(size, uint64(4+w.bytes))
	if _, err := w.file.WriteAt(size, cafDataSizeOffset); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to finalize data size: %w", err)
	}

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}

func (w *CAFWriter) Path() string { return w.path }

func (w *CAFWriter) FramesWritten() uint64 { return w.frames }

func (w *CAFWriter) BytesWritten() int64 { return int64(cafHeaderSize) + w.bytes }

// Duration reports the recorded time represented by the written frames.
func (w *CAFWriter) Duration() time.Duration {
	if w.format.SampleRate <= 0 {
		return 0
	}
	seconds := float64(w.frames) / w.format.SampleRate
	return time.Duration(seconds * float64(time.Second))
}
