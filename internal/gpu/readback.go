package gpu

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framecap"
)

const (
	// copyPitchAlignment is the row alignment required for
	// texture-to-buffer copies (WebGPU and DX12 mandate 256).
	copyPitchAlignment = 256

	// gpuWaitTimeout bounds fence waits so a hung device cannot stall a
	// capture forever.
	gpuWaitTimeout = 5 * time.Second
)

// alignRowBytes rounds bytesPerRow up to the copy pitch alignment.
func alignRowBytes(bytesPerRow uint32) uint32 {
	return (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

// Readback copies texture contents from GPU memory into CPU pixel buffers.
//
// The staging buffer is reused across reads and grows when a larger texture
// comes along. A mutex serializes reads: it is taken when a read starts and
// released by the completion goroutine, so the staging buffer is never
// shared between two in-flight copies.
type Readback struct {
	device hal.Device
	queue  hal.Queue

	mu          sync.Mutex
	staging     hal.Buffer
	stagingSize uint64
}

// NewReadback creates a Readback for a device and queue. The staging buffer
// is allocated lazily on first read.
func NewReadback(device hal.Device, queue hal.Queue) *Readback {
	return &Readback{device: device, queue: queue}
}

// Read starts an asynchronous copy of the texture into CPU memory and
// returns a channel that delivers exactly one result. Failures preparing
// GPU resources, before any work reaches the queue, are returned
// synchronously and wrap framecap.ErrResourceAllocation. Failures from
// submission onward arrive through the channel and wrap
// framecap.ErrCopyFailed.
func (r *Readback) Read(t *Texture) (<-chan framecap.ReadbackResult, error) {
	pf := t.PixelFormat()
	bpp := pf.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("%w: texture format %v has no CPU pixel layout",
			framecap.ErrResourceAllocation, t.format)
	}
	bytesPerRow := t.width * uint32(bpp)
	alignedBytesPerRow := alignRowBytes(bytesPerRow)
	size := uint64(alignedBytesPerRow) * uint64(t.height)

	// Held until the completion goroutine finishes.
	r.mu.Lock()

	if err := r.ensureStaging(size); err != nil {
		r.mu.Unlock()
		return nil, err
	}

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "readback_encoder",
	})
	if err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: create command encoder: %v", framecap.ErrResourceAllocation, err)
	}
	if err := encoder.BeginEncoding("readback"); err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: begin encoding: %v", framecap.ErrResourceAllocation, err)
	}

	if t.renderTarget {
		// After a frame the target sits in attachment layout;
		// CopyTextureToBuffer requires transfer-source. This is a no-op on
		// backends without explicit layouts.
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: t.tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		}})
	}

	encoder.CopyTextureToBuffer(t.tex, r.staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: t.height},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	}})

	if t.renderTarget {
		// Back to attachment layout so the next frame's pass is valid.
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: t.tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageCopySrc,
				NewUsage: gputypes.TextureUsageRenderAttachment,
			},
		}})
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: end encoding: %v", framecap.ErrResourceAllocation, err)
	}

	fence, err := r.device.CreateFence()
	if err != nil {
		r.device.FreeCommandBuffer(cmdBuf)
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: create fence: %v", framecap.ErrResourceAllocation, err)
	}

	ch := make(chan framecap.ReadbackResult, 1)
	go r.complete(ch, t, fence, cmdBuf, bytesPerRow, alignedBytesPerRow)
	return ch, nil
}

// complete submits the recorded copy, waits for the fence, maps the staging
// buffer, and delivers the result. It runs on its own goroutine and releases
// the mutex taken by Read.
func (r *Readback) complete(ch chan<- framecap.ReadbackResult, t *Texture, fence hal.Fence, cmdBuf hal.CommandBuffer, bytesPerRow, alignedBytesPerRow uint32) {
	defer r.mu.Unlock()
	defer r.device.FreeCommandBuffer(cmdBuf)
	defer r.device.DestroyFence(fence)

	fail := func(err error) {
		slogger().Debug("readback failed", "err", err)
		ch <- framecap.ReadbackResult{Err: err}
		close(ch)
	}

	if err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		fail(fmt.Errorf("%w: submit: %v", framecap.ErrCopyFailed, err))
		return
	}
	fenceOK, err := r.device.Wait(fence, 1, gpuWaitTimeout)
	if err != nil || !fenceOK {
		fail(fmt.Errorf("%w: wait for GPU: ok=%v err=%v", framecap.ErrCopyFailed, fenceOK, err))
		return
	}

	raw := make([]byte, uint64(alignedBytesPerRow)*uint64(t.height))
	if err := r.queue.ReadBuffer(r.staging, 0, raw); err != nil {
		fail(fmt.Errorf("%w: map staging buffer: %v", framecap.ErrCopyFailed, err))
		return
	}

	buf := framecap.NewPixelBuffer(int(t.width), int(t.height), t.PixelFormat())
	stripRowPadding(buf.Data, raw, bytesPerRow, alignedBytesPerRow, t.height)

	slogger().Debug("readback complete",
		"width", t.width, "height", t.height, "bytes", len(buf.Data))
	ch <- framecap.ReadbackResult{Buffer: buf}
	close(ch)
}

// ensureStaging guarantees the staging buffer holds at least size bytes.
// Grow-only: smaller reads reuse the current buffer as is. Callers must
// hold r.mu.
func (r *Readback) ensureStaging(size uint64) error {
	if r.staging != nil && r.stagingSize >= size {
		return nil
	}
	if r.staging != nil {
		r.device.DestroyBuffer(r.staging)
		r.staging = nil
		r.stagingSize = 0
	}
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "readback_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("%w: staging buffer (%d bytes): %v", framecap.ErrResourceAllocation, size, err)
	}
	r.staging = buf
	r.stagingSize = size
	return nil
}

// Destroy releases the staging buffer. It must not be called while a read
// is in flight.
func (r *Readback) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.staging != nil {
		r.device.DestroyBuffer(r.staging)
		r.staging = nil
		r.stagingSize = 0
	}
}

// stripRowPadding copies pixel rows from src, laid out with an aligned
// stride, into dst with a tight stride.
func stripRowPadding(dst, src []byte, bytesPerRow, alignedBytesPerRow, rows uint32) {
	if alignedBytesPerRow == bytesPerRow {
		// No padding — fast path.
		copy(dst, src[:uint64(bytesPerRow)*uint64(rows)])
		return
	}
	for row := uint32(0); row < rows; row++ {
		srcOff := uint64(row) * uint64(alignedBytesPerRow)
		dstOff := uint64(row) * uint64(bytesPerRow)
		copy(dst[dstOff:dstOff+uint64(bytesPerRow)], src[srcOff:srcOff+uint64(bytesPerRow)])
	}
}

// TextureSource pairs a Readback with one Texture, satisfying
// framecap.TextureReader so the capture pipeline can pull frames without
// knowing about the HAL.
type TextureSource struct {
	Readback *Readback
	Texture  *Texture
}

var _ framecap.TextureReader = (*TextureSource)(nil)

// ReadTexture implements framecap.TextureReader.
func (s *TextureSource) ReadTexture() (<-chan framecap.ReadbackResult, error) {
	return s.Readback.Read(s.Texture)
}
