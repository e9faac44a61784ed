package framecap

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// State identifies where the capture pipeline is in its lifecycle.
type State int32

const (
	// StateIdle means no capture has been started yet.
	StateIdle State = iota

	// StateReadbackInFlight means the GPU copy has been submitted and its
	// completion is pending.
	StateReadbackInFlight

	// StateEncodePending means the pixels are in host memory and encoding
	// runs next.
	StateEncodePending

	// StateWritePending means encoded bytes are ready and the file write
	// runs next.
	StateWritePending

	// StateDone means the capture reached its terminal state, successfully
	// or not. A new capture may be started from here.
	StateDone
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReadbackInFlight:
		return "readback-in-flight"
	case StateEncodePending:
		return "encode-pending"
	case StateWritePending:
		return "write-pending"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ReadbackResult is the completion message of an asynchronous GPU-to-host
// copy. Exactly one is delivered per started copy.
type ReadbackResult struct {
	// Buffer holds the copied pixels with tight rows. Nil when Err is set.
	Buffer *PixelBuffer

	// Err reports a copy that was submitted but did not complete.
	// It wraps ErrCopyFailed.
	Err error
}

// TextureReader starts asynchronous copies of a GPU texture into host
// memory. internal/gpu provides the HAL-backed implementation; tests
// substitute fakes.
//
// ReadTexture returns a channel that delivers exactly one ReadbackResult
// when the copy completes. Failures detected before the copy is submitted
// (staging buffer allocation) are returned synchronously, wrapping
// ErrResourceAllocation, and the channel is nil.
type TextureReader interface {
	ReadTexture() (<-chan ReadbackResult, error)
}

// CaptureRequest names one capture.
type CaptureRequest struct {
	// BaseName is the output file name stem. Empty means "capture".
	BaseName string

	// Format selects the image encoding.
	Format ImageFormat
}

// CaptureOutcome is the terminal result of one capture.
type CaptureOutcome struct {
	// Path is the written file. Set only on success.
	Path string

	// Err is the failure that short-circuited the capture. Nil on success.
	Err error
}

// Pipeline drives one capture at a time through readback, encode, and
// write.
//
// A capture moves through the states Idle -> ReadbackInFlight ->
// EncodePending -> WritePending -> Done. Any stage failure skips straight
// to Done carrying the error; the pipeline accepts a new Capture once Done
// is reached. At most one capture is in flight: Capture returns
// ErrCaptureInProgress while an earlier one has not finished.
//
// All stages after submission run on a worker goroutine, so a capture
// never blocks the render loop. Directory setup overlaps the GPU copy and
// both must complete before any pixel is touched.
type Pipeline struct {
	reader TextureReader
	writer *Writer

	// Encoding adjusts the encode stage. Set it before the first Capture;
	// the worker goroutine reads it without synchronization.
	Encoding EncodeOptions

	// Logger, when set, receives this pipeline's log records instead of
	// the package logger. Set it before the first Capture.
	Logger *slog.Logger

	state     atomic.Int32
	cancelled atomic.Bool
}

// NewPipeline builds a pipeline around a texture reader and a writer.
// A nil writer targets the current directory with default settings.
func NewPipeline(reader TextureReader, writer *Writer) *Pipeline {
	if writer == nil {
		writer = &Writer{}
	}
	return &Pipeline{reader: reader, writer: writer}
}

// State returns the pipeline's current lifecycle state.
func (p *Pipeline) State() State { return State(p.state.Load()) }

// logger returns the injected logger, or the package logger when none is
// set.
func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return Logger()
}

// Cancel marks the in-flight capture as cancelled. The worker observes the
// flag between stages and finishes with ErrCancelled instead of writing a
// file. Cancellation is best effort: a capture past its last check still
// completes. Calling Cancel with no capture in flight has no effect.
func (p *Pipeline) Cancel() { p.cancelled.Store(true) }

// Capture starts a new capture and returns a channel that delivers its
// terminal outcome. The channel is buffered, receives exactly one value,
// and is closed afterwards.
//
// Capture returns ErrCaptureInProgress when an earlier capture has not
// reached Done. Readback failures detected before GPU submission (wrapping
// ErrResourceAllocation) are returned synchronously with a nil channel; the
// pipeline is ready for a new Capture immediately.
func (p *Pipeline) Capture(req CaptureRequest) (<-chan CaptureOutcome, error) {
	if p.reader == nil {
		return nil, fmt.Errorf("framecap: pipeline has no texture reader")
	}
	if !p.state.CompareAndSwap(int32(StateIdle), int32(StateReadbackInFlight)) &&
		!p.state.CompareAndSwap(int32(StateDone), int32(StateReadbackInFlight)) {
		return nil, ErrCaptureInProgress
	}
	p.cancelled.Store(false)
	start := time.Now()

	copyCh, err := p.reader.ReadTexture()
	if err != nil {
		p.state.Store(int32(StateDone))
		return nil, err
	}

	p.logger().Debug("capture started", "base", req.BaseName, "format", req.Format)

	outcome := make(chan CaptureOutcome, 1)
	go p.run(req, start, copyCh, outcome)
	return outcome, nil
}

// run executes the post-submission stages on a worker goroutine.
func (p *Pipeline) run(req CaptureRequest, start time.Time, copyCh <-chan ReadbackResult, outcome chan<- CaptureOutcome) {
	fail := func(err error) {
		p.state.Store(int32(StateDone))
		p.logger().Debug("capture failed", "base", req.BaseName, "err", err)
		outcome <- CaptureOutcome{Err: err}
		close(outcome)
	}

	// Directory setup runs concurrently with the GPU copy. Join both legs
	// before encoding so neither failure mode is masked by the other.
	dirCh := make(chan error, 1)
	go func() { dirCh <- p.writer.EnsureDir() }()

	res := <-copyCh
	dirErr := <-dirCh

	p.state.Store(int32(StateEncodePending))
	switch {
	case res.Err != nil:
		fail(res.Err)
		return
	case dirErr != nil:
		fail(dirErr)
		return
	case p.cancelled.Load():
		fail(ErrCancelled)
		return
	}

	data, err := EncodeWith(res.Buffer, req.Format, p.Encoding)
	if err != nil {
		fail(err)
		return
	}

	p.state.Store(int32(StateWritePending))
	if p.cancelled.Load() {
		fail(ErrCancelled)
		return
	}

	path, err := p.writer.Write(req.BaseName, req.Format, data)
	if err != nil {
		fail(err)
		return
	}

	p.state.Store(int32(StateDone))
	// Log before handing over the outcome: once the send completes the
	// caller owns the capture, and nothing pipeline-side may still be
	// running behind it.
	p.logger().Info("capture written",
		"path", path,
		"format", req.Format,
		"width", res.Buffer.Width,
		"height", res.Buffer.Height,
		"elapsed", time.Since(start))
	outcome <- CaptureOutcome{Path: path}
	close(outcome)
}
