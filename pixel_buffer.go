package framecap

import (
	"fmt"
	"image"
)

// PixelBuffer is a rectangular block of pixels read back from GPU memory.
//
// The buffer owns its Data slice: readback copies GPU memory into a fresh
// allocation, so a PixelBuffer stays valid after the staging buffer it came
// from is reused or destroyed.
//
// Channel layout travels with the pixels. Order and Alpha describe how the
// bytes of each texel are arranged; the encoder normalizes from that
// description instead of assuming one layout per image format.
type PixelBuffer struct {
	// Width and Height are the buffer dimensions in pixels.
	Width  int
	Height int

	// BytesPerRow is the stride between the starts of consecutive rows.
	// Readback produces tight rows (Width * BytesPerPixel); larger strides
	// are accepted for buffers constructed elsewhere.
	BytesPerRow int

	// Format identifies the texel layout.
	Format PixelFormat

	// Order is the color channel sequence within a texel.
	Order ChannelOrder

	// Alpha is the alpha channel position within a texel.
	Alpha AlphaPosition

	// Data holds the pixel bytes, row-major, top row first.
	Data []byte
}

// NewPixelBuffer allocates a zeroed buffer with tight rows and the format's
// natural channel layout.
func NewPixelBuffer(width, height int, format PixelFormat) *PixelBuffer {
	order, alpha := format.Layout()
	stride := width * format.BytesPerPixel()
	return &PixelBuffer{
		Width:       width,
		Height:      height,
		BytesPerRow: stride,
		Format:      format,
		Order:       order,
		Alpha:       alpha,
		Data:        make([]byte, stride*height),
	}
}

// Validate checks that the dimensions, stride, and data length are
// consistent. Every pipeline stage that consumes a PixelBuffer validates
// it first.
func (b *PixelBuffer) Validate() error {
	if b == nil {
		return fmt.Errorf("framecap: nil pixel buffer")
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("framecap: invalid dimensions %dx%d", b.Width, b.Height)
	}
	bpp := b.Format.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("framecap: unknown pixel format")
	}
	if b.BytesPerRow < b.Width*bpp {
		return fmt.Errorf("framecap: stride %d shorter than row of %d pixels (%d bytes)",
			b.BytesPerRow, b.Width, b.Width*bpp)
	}
	if len(b.Data) != b.BytesPerRow*b.Height {
		return fmt.Errorf("framecap: data length %d, want %d (stride %d x %d rows)",
			len(b.Data), b.BytesPerRow*b.Height, b.BytesPerRow, b.Height)
	}
	return nil
}

// Bounds returns the pixel rectangle covered by the buffer.
func (b *PixelBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// Clone returns a deep copy of the buffer.
func (b *PixelBuffer) Clone() *PixelBuffer {
	c := *b
	c.Data = make([]byte, len(b.Data))
	copy(c.Data, b.Data)
	return &c
}
