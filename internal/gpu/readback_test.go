package gpu

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framecap"
)

func TestAlignRowBytes(t *testing.T) {
	tests := []struct {
		in, want uint32
	}{
		{0, 0},
		{1, 256},
		{255, 256},
		{256, 256},
		{257, 512},
		{400, 512}, // 100 RGBA pixels
		{1024, 1024},
	}
	for _, tt := range tests {
		if got := alignRowBytes(tt.in); got != tt.want {
			t.Errorf("alignRowBytes(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestStripRowPadding(t *testing.T) {
	const (
		rows        = 3
		bytesPerRow = 4
		aligned     = 8
	)
	src := make([]byte, rows*aligned)
	for row := 0; row < rows; row++ {
		for i := 0; i < bytesPerRow; i++ {
			src[row*aligned+i] = byte(row*10 + i)
		}
		// Padding bytes must never reach dst.
		for i := bytesPerRow; i < aligned; i++ {
			src[row*aligned+i] = 0xEE
		}
	}

	dst := make([]byte, rows*bytesPerRow)
	stripRowPadding(dst, src, bytesPerRow, aligned, rows)

	want := []byte{0, 1, 2, 3, 10, 11, 12, 13, 20, 21, 22, 23}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst[%d] = %d, want %d", i, dst[i], want[i])
		}
	}
}

func TestStripRowPaddingTightStride(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	dst := make([]byte, len(src))
	stripRowPadding(dst, src, 4, 4, 2)
	for i := range src {
		if dst[i] != src[i] {
			t.Fatalf("dst[%d] = %d, want %d", i, dst[i], src[i])
		}
	}
}

func TestReadbackTightBuffer(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	tex, err := CreateSourceTexture(device, queue, framecap.NewTestCard(16, 16))
	if err != nil {
		t.Fatalf("CreateSourceTexture failed: %v", err)
	}
	defer tex.Destroy(device)

	rb := NewReadback(device, queue)
	defer rb.Destroy()

	ch, err := rb.Read(tex)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	res := <-ch
	if res.Err != nil {
		t.Fatalf("readback failed: %v", res.Err)
	}

	buf := res.Buffer
	if buf.Width != 16 || buf.Height != 16 {
		t.Errorf("expected 16x16 buffer, got %dx%d", buf.Width, buf.Height)
	}
	if buf.BytesPerRow != 16*4 {
		t.Errorf("expected tight stride 64, got %d", buf.BytesPerRow)
	}
	if len(buf.Data) != buf.Height*buf.BytesPerRow {
		t.Errorf("expected %d data bytes, got %d", buf.Height*buf.BytesPerRow, len(buf.Data))
	}
	if buf.Format != framecap.PixelFormatRGBA8 {
		t.Errorf("expected PixelFormatRGBA8, got %v", buf.Format)
	}
	if buf.Order != framecap.OrderRGB || buf.Alpha != framecap.AlphaLast {
		t.Errorf("expected RGB/alpha-last layout, got %v/%v", buf.Order, buf.Alpha)
	}

	// Exactly one result, then the channel closes.
	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after one result")
	}
}

func TestReadbackBGRALayout(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	target, err := CreateRenderTarget(device, 32, 8, gputypes.TextureFormatBGRA8Unorm)
	if err != nil {
		t.Fatalf("CreateRenderTarget failed: %v", err)
	}
	defer target.Destroy(device)

	rb := NewReadback(device, queue)
	defer rb.Destroy()

	ch, err := rb.Read(target)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	res := <-ch
	if res.Err != nil {
		t.Fatalf("readback failed: %v", res.Err)
	}

	if res.Buffer.Format != framecap.PixelFormatBGRA8 {
		t.Errorf("expected PixelFormatBGRA8, got %v", res.Buffer.Format)
	}
	if res.Buffer.Order != framecap.OrderBGR {
		t.Errorf("expected OrderBGR, got %v", res.Buffer.Order)
	}
	if res.Buffer.Alpha != framecap.AlphaLast {
		t.Errorf("expected AlphaLast, got %v", res.Buffer.Alpha)
	}
}

func TestReadbackRejectsUnmappedFormat(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	rb := NewReadback(device, queue)
	defer rb.Destroy()

	// A depth texture has no CPU pixel layout; the failure is synchronous,
	// before anything reaches the queue.
	tex := &Texture{width: 4, height: 4, format: gputypes.TextureFormatDepth24PlusStencil8}
	ch, err := rb.Read(tex)
	if err == nil {
		t.Fatal("expected synchronous error for unmapped texture format")
	}
	if !errors.Is(err, framecap.ErrResourceAllocation) {
		t.Errorf("expected ErrResourceAllocation, got %v", err)
	}
	if ch != nil {
		t.Error("expected nil channel on synchronous failure")
	}
}

func TestReadbackStagingReuse(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	small, err := CreateSourceTexture(device, queue, framecap.NewTestCard(8, 8))
	if err != nil {
		t.Fatalf("CreateSourceTexture failed: %v", err)
	}
	defer small.Destroy(device)

	big, err := CreateSourceTexture(device, queue, framecap.NewTestCard(64, 64))
	if err != nil {
		t.Fatalf("CreateSourceTexture failed: %v", err)
	}
	defer big.Destroy(device)

	rb := NewReadback(device, queue)
	defer rb.Destroy()

	drain := func(tex *Texture) {
		t.Helper()
		ch, err := rb.Read(tex)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if res := <-ch; res.Err != nil {
			t.Fatalf("readback failed: %v", res.Err)
		}
	}

	drain(small)
	firstStaging := rb.staging
	firstSize := rb.stagingSize
	if firstStaging == nil {
		t.Fatal("expected staging buffer after first read")
	}

	// An equal-size read reuses the buffer.
	drain(small)
	if rb.staging != firstStaging {
		t.Error("staging buffer was recreated for an equal-size read")
	}

	// A larger texture grows it.
	drain(big)
	if rb.stagingSize <= firstSize {
		t.Errorf("expected staging to grow beyond %d bytes, got %d", firstSize, rb.stagingSize)
	}

	// Growth is one-way: a small read keeps the big buffer.
	grown := rb.stagingSize
	drain(small)
	if rb.stagingSize != grown {
		t.Error("staging buffer shrank on a smaller read")
	}
}

func TestReadbackConcurrentReads(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	tex, err := CreateSourceTexture(device, queue, framecap.NewTestCard(16, 16))
	if err != nil {
		t.Fatalf("CreateSourceTexture failed: %v", err)
	}
	defer tex.Destroy(device)

	rb := NewReadback(device, queue)
	defer rb.Destroy()

	const readers = 8
	var wg sync.WaitGroup
	errs := make(chan error, readers)
	for range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, err := rb.Read(tex)
			if err != nil {
				errs <- err
				return
			}
			if res := <-ch; res.Err != nil {
				errs <- res.Err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent read failed: %v", err)
	}
}

func TestReadbackDestroy(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	rb := NewReadback(device, queue)

	// Destroy before any read should not panic.
	rb.Destroy()

	tex, err := CreateSourceTexture(device, queue, framecap.NewTestCard(8, 8))
	if err != nil {
		t.Fatalf("CreateSourceTexture failed: %v", err)
	}
	defer tex.Destroy(device)

	ch, err := rb.Read(tex)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	<-ch

	rb.Destroy()
	if rb.staging != nil || rb.stagingSize != 0 {
		t.Error("expected staging buffer released after Destroy")
	}

	// Double-destroy should be safe.
	rb.Destroy()
}

func TestTextureSourceReadTexture(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	tex, err := CreateSourceTexture(device, queue, framecap.NewTestCard(4, 4))
	if err != nil {
		t.Fatalf("CreateSourceTexture failed: %v", err)
	}
	defer tex.Destroy(device)

	rb := NewReadback(device, queue)
	defer rb.Destroy()

	var reader framecap.TextureReader = &TextureSource{Readback: rb, Texture: tex}

	ch, err := reader.ReadTexture()
	if err != nil {
		t.Fatalf("ReadTexture failed: %v", err)
	}
	res := <-ch
	if res.Err != nil {
		t.Fatalf("readback failed: %v", res.Err)
	}
	if res.Buffer.Width != 4 || res.Buffer.Height != 4 {
		t.Errorf("expected 4x4 buffer, got %dx%d", res.Buffer.Width, res.Buffer.Height)
	}
}
