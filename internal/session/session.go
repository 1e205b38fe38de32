// ABOUTME: Recording session orchestration
// ABOUTME: Owns component lifecycle, the state machine and the notification surface
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/tapmix-audio/tapmix-go/internal/audio"
	"github.com/tapmix-audio/tapmix-go/internal/capture"
	"github.com/tapmix-audio/tapmix-go/internal/mixer"
	"github.com/tapmix-audio/tapmix-go/internal/staging"
	"github.com/tapmix-audio/tapmix-go/internal/writer"
)

// State is the session lifecycle state.
type State int32

const (
	StateIdle State = iota
	StatePreparing
	StateCapturing
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreparing:
		return "preparing"
	case StateCapturing:
		return "capturing"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// Tap is the driving capture source of a session: the system tap in mixed and
// system modes, the microphone itself in mic mode. Its callback paces the
// whole pipeline.
type Tap interface {
	Bind() error
	Format() audio.Format
	SetDataFunc(capture.DataFunc)
	Start() error
	Stop() error
	Close() error
}

// Devices creates the capture sources for a session. Injected so the core
// runs against fakes in tests.
type Devices interface {
	NewTap(target capture.Target) Tap
	NewInput(buf *staging.Buffer, format audio.Format) (capture.Source, error)
}

// Record modes. Mixed combines the tap with the microphone; System and Mic
// record a single source through the same pipeline.
const (
	ModeMixed  = "mixed"
	ModeSystem = "system"
	ModeMic    = "mic"
)

// Config configures a recorder.
type Config struct {
	OutputDir      string
	Container      string // "wav" or "caf"
	Encoding       string // "float32" or "int16"
	Mode           string // "mixed", "system" or "mic"; empty means mixed
	InputBackend   string // "malgo" or "portaudio"
	InputDevice    string
	ProcessFilters []string
}

// Result describes a finished recording.
type Result struct {
	Path            string
	DurationSeconds float64
	SizeBytes       int64
}

// Callbacks is the notification surface toward the surrounding application.
// All fields are optional. OnLevel fires on the tap's callback cadence.
type Callbacks struct {
	OnLevel    func(level float64)
	OnStatus   func(status string)
	OnComplete func(result Result)
	OnError    func(err error)
}

// Option configures optional recorder collaborators.
type Option func(*Recorder)

// WithLogger injects a logger.
func WithLogger(l Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

// WithDevices injects a device factory.
func WithDevices(d Devices) Option {
	return func(r *Recorder) { r.devices = d }
}

// WithProcessLister injects the process registry used for enumeration.
func WithProcessLister(l capture.ProcessLister) Option {
	return func(r *Recorder) { r.lister = l }
}

// WithWriterOpener injects the output writer factory.
func WithWriterOpener(open WriterOpener) Option {
	return func(r *Recorder) { r.openWriter = open }
}

// WriterOpener creates the session's output writer.
type WriterOpener func(container, path string, format audio.Format) (writer.Writer, error)

type defaultDevices struct {
	cfg Config
}

func (d defaultDevices) NewTap(target capture.Target) Tap {
	if d.cfg.Mode == ModeMic {
		return capture.NewMicSource(d.cfg.InputDevice)
	}
	return capture.NewTapSource(target)
}

func (d defaultDevices) NewInput(buf *staging.Buffer, format audio.Format) (capture.Source, error) {
	return capture.NewInput(d.cfg.InputBackend, buf, format, d.cfg.InputDevice)
}

// Recorder orchestrates one recording session at a time:
// resolve target -> bind tap -> open writer -> start input -> start tap,
// with the reverse, ordered teardown on Stop. A failed Start never leaves
// partially running components behind.
type Recorder struct {
	cfg     Config
	cb      Callbacks
	logger  Logger
	devices Devices
	lister  capture.ProcessLister
	enum    *capture.Enumerator

	openWriter WriterOpener

	state       atomic.Int32
	writeFailed atomic.Bool
	errorSent   atomic.Bool

	mu    sync.Mutex
	tap   Tap
	input capture.Source
	mix   *mixer.Mixer
	out   writer.Writer
	batch []float32
}

// New creates a recorder. Without options it talks to the real devices.
func New(cfg Config, cb Callbacks, opts ...Option) *Recorder {
	r := &Recorder{cfg: cfg, cb: cb}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = NewStdLogger(false)
	}
	if r.devices == nil {
		r.devices = defaultDevices{cfg: cfg}
	}
	if r.openWriter == nil {
		r.openWriter = writer.Open
	}
	r.enum = capture.NewEnumerator(r.lister, cfg.ProcessFilters)
	return r
}

// SetCallbacks replaces the notification callbacks. Only valid while the
// session is Idle.
func (r *Recorder) SetCallbacks(cb Callbacks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State() == StateIdle {
		r.cb = cb
	}
}

// Entities returns a snapshot of capturable entities.
func (r *Recorder) Entities() []capture.Entity {
	return r.enum.Entities()
}

// State returns the current session state.
func (r *Recorder) State() State {
	return State(r.state.Load())
}

// IsRunning reports whether a session is being prepared or capturing.
func (r *Recorder) IsRunning() bool {
	s := r.State()
	return s == StatePreparing || s == StateCapturing
}

// Start begins a recording of the given target entity. SystemMixdownID (0)
// records the whole system output. Returns ErrAlreadyRecording unless the
// session is Idle; any setup failure tears down everything already started
// and leaves the session Idle, ready for a retry.
func (r *Recorder) Start(targetID int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.state.CompareAndSwap(int32(StateIdle), int32(StatePreparing)) {
		return ErrAlreadyRecording
	}
	r.writeFailed.Store(false)
	r.errorSent.Store(false)

	if err := r.prepare(targetID); err != nil {
		r.state.Store(int32(StateIdle))
		r.logger.Errorf("session start failed: %v", err)
		return err
	}

	r.status("Recording starting")
	return nil
}

// prepare runs the ordered setup chain under r.mu. Each failure path unwinds
// all components acquired before it.
func (r *Recorder) prepare(targetID int32) error {
	switch r.cfg.Mode {
	case "", ModeMixed, ModeSystem, ModeMic:
	default:
		return fmt.Errorf("unknown record mode: %s", r.cfg.Mode)
	}

	target, err := r.enum.Resolve(targetID)
	if err != nil {
		return err
	}

	tap := r.devices.NewTap(target)
	if err := tap.Bind(); err != nil {
		tap.Close()
		return err
	}

	format := tap.Format()
	if err := format.Validate(); err != nil {
		tap.Close()
		return fmt.Errorf("tap reported unusable format: %w", err)
	}

	outFormat := format
	if r.cfg.Encoding == "int16" {
		outFormat.BitsPerSample = 16
		outFormat.Float = false
	}

	if r.cfg.OutputDir != "" {
		if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
			tap.Close()
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	ext := r.cfg.Container
	if ext == "" {
		ext = "wav"
	}
	path := filepath.Join(r.cfg.OutputDir, fmt.Sprintf("recording-%s.%s", shortID(), ext))

	out, err := r.openWriter(r.cfg.Container, path, outFormat)
	if err != nil {
		tap.Close()
		return err
	}

	// Single-source modes skip the microphone graph entirely; the driving
	// source's samples pass straight through to the writer.
	var input capture.Source
	if r.cfg.Mode == "" || r.cfg.Mode == ModeMixed {
		buf := staging.NewForFormat(format)
		input, err = r.devices.NewInput(buf, format)
		if err != nil {
			out.Close()
			os.Remove(path)
			tap.Close()
			return err
		}
		if err := input.Start(); err != nil {
			input.Close()
			out.Close()
			os.Remove(path)
			tap.Close()
			return err
		}
		r.mix = mixer.New(buf)
	} else {
		r.mix = mixer.NewPassthrough()
	}

	r.tap = tap
	r.input = input
	r.out = out
	r.batch = nil

	tap.SetDataFunc(r.onTapFrames)
	if err := tap.Start(); err != nil {
		if input != nil {
			input.Stop()
			input.Close()
		}
		out.Close()
		os.Remove(path)
		tap.Close()
		r.tap, r.input, r.mix, r.out = nil, nil, nil, nil
		return err
	}

	r.logger.Infof("Recording to %s (%s, target: %s)", path, format, target.Name)
	return nil
}

// onTapFrames is the tap device's hardware callback: it mixes the staged
// microphone samples into the tap batch, appends the result to the writer
// and reports the level. It must stay allocation-light and never block.
func (r *Recorder) onTapFrames(samples []float32, frames int) {
	if r.writeFailed.Load() {
		return
	}

	// The first real callback moves the session into Capturing.
	if r.state.CompareAndSwap(int32(StatePreparing), int32(StateCapturing)) {
		r.status("Recording")
	}
	if State(r.state.Load()) != StateCapturing {
		return
	}

	if cap(r.batch) < len(samples) {
		r.batch = make([]float32, len(samples))
	}
	batch := r.batch[:len(samples)]

	level := r.mix.Mix(samples, batch)

	if err := r.out.WriteFrames(batch); err != nil {
		if r.writeFailed.CompareAndSwap(false, true) {
			r.logger.Errorf("write failed, force-stopping session: %v", err)
			// Teardown must not run on the device's real-time thread.
			go r.fail(fmt.Errorf("output write failed: %w", err))
		}
		return
	}

	if r.cb.OnLevel != nil {
		r.cb.OnLevel(level)
	}
}

// Stop ends the session: tap first (halting mixer invocations), then the
// local input, then the writer. Blocking, ordered teardown; a Stop from
// Idle is a no-op.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.State()
	if s == StateIdle || s == StateStopping {
		return
	}
	r.state.Store(int32(StateStopping))
	r.status("Recording stopping")

	r.tap.Stop()
	r.tap.Close()
	if r.input != nil {
		r.input.Stop()
		r.input.Close()
	}

	path := r.out.Path()
	duration := r.out.Duration()
	size := r.out.BytesWritten()
	closeErr := r.out.Close()

	failed := r.writeFailed.Load()
	r.tap, r.input, r.mix, r.out, r.batch = nil, nil, nil, nil, nil
	r.state.Store(int32(StateIdle))

	if closeErr != nil {
		r.logger.Errorf("failed to finalize %s: %v", path, closeErr)
		r.reportError(closeErr)
		return
	}
	if failed {
		r.status("Recording failed")
		return
	}

	r.logger.Infof("Recording complete: %s (%.2fs, %d bytes)", path, duration.Seconds(), size)
	r.status("Recording complete")
	if r.cb.OnComplete != nil {
		r.cb.OnComplete(Result{
			Path:            path,
			DurationSeconds: duration.Seconds(),
			SizeBytes:       size,
		})
	}
}

// fail surfaces a fatal runtime error and force-stops the session.
func (r *Recorder) fail(err error) {
	r.reportError(err)
	r.Stop()
}

// reportError fires OnError at most once per session. A write failure and the
// finalize error it usually drags along must not surface as two errors.
func (r *Recorder) reportError(err error) {
	if r.errorSent.CompareAndSwap(false, true) && r.cb.OnError != nil {
		r.cb.OnError(err)
	}
}

func (r *Recorder) status(s string) {
	if r.cb.OnStatus != nil {
		r.cb.OnStatus(s)
	}
}

func shortID() string {
	return uuid.New().String()[:8]
}
