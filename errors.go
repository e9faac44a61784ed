package framecap

import "errors"

// Sentinel errors for the capture pipeline. Each stage reports failures
// wrapped around one of these so callers can dispatch with errors.Is.
var (
	// ErrResourceAllocation is returned when a GPU resource needed for
	// readback (typically the staging buffer) could not be created. It is
	// reported synchronously, before any work is submitted to the GPU.
	ErrResourceAllocation = errors.New("framecap: GPU resource allocation failed")

	// ErrCopyFailed is returned when a submitted GPU copy did not complete,
	// either because submission failed or the device never signaled the
	// fence. It is delivered through the readback completion channel.
	ErrCopyFailed = errors.New("framecap: GPU copy failed")

	// ErrEncode is returned when pixel data cannot be encoded to the
	// requested image format, including zero-sized or malformed buffers.
	ErrEncode = errors.New("framecap: image encode failed")

	// ErrDirectoryCreate is returned when the output directory could not
	// be created.
	ErrDirectoryCreate = errors.New("framecap: output directory create failed")

	// ErrWrite is returned when the encoded image could not be written
	// to disk.
	ErrWrite = errors.New("framecap: file write failed")

	// ErrCaptureInProgress is returned by Pipeline.Capture while a previous
	// capture has not yet reached its terminal state. Only one capture is
	// in flight at a time.
	ErrCaptureInProgress = errors.New("framecap: capture already in progress")

	// ErrCancelled is returned as the capture outcome when Cancel was
	// called before the pipeline finished. No file is written.
	ErrCancelled = errors.New("framecap: capture cancelled")
)
