package framecap

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ImageFormat selects the still-image container for encoded captures.
type ImageFormat uint8

const (
	// ImagePNG encodes lossless PNG. This is the default capture format.
	ImagePNG ImageFormat = iota

	// ImageJPEG encodes lossy JPEG. See EncodeOptions.JPEGQuality.
	ImageJPEG

	// ImageBMP encodes uncompressed BMP.
	ImageBMP

	// ImageTIFF encodes uncompressed TIFF.
	ImageTIFF
)

// Ext returns the conventional file extension, without the dot.
func (f ImageFormat) Ext() string {
	switch f {
	case ImageJPEG:
		return "jpg"
	case ImageBMP:
		return "bmp"
	case ImageTIFF:
		return "tiff"
	default:
		return "png"
	}
}

// String returns the format name for logging.
func (f ImageFormat) String() string {
	switch f {
	case ImagePNG:
		return "PNG"
	case ImageJPEG:
		return "JPEG"
	case ImageBMP:
		return "BMP"
	case ImageTIFF:
		return "TIFF"
	default:
		return fmt.Sprintf("ImageFormat(%d)", uint8(f))
	}
}

// ParseImageFormat maps a user-supplied name ("png", "jpg", ...) to an
// ImageFormat. Matching is case-insensitive.
func ParseImageFormat(s string) (ImageFormat, error) {
	switch strings.ToLower(s) {
	case "png":
		return ImagePNG, nil
	case "jpeg", "jpg":
		return ImageJPEG, nil
	case "bmp":
		return ImageBMP, nil
	case "tiff", "tif":
		return ImageTIFF, nil
	default:
		return ImagePNG, fmt.Errorf("framecap: unknown image format %q", s)
	}
}

// DefaultJPEGQuality is used when EncodeOptions.JPEGQuality is zero.
const DefaultJPEGQuality = 90

// EncodeOptions adjusts encoder behavior. The zero value selects defaults
// for every field.
type EncodeOptions struct {
	// JPEGQuality is the JPEG quality in [1, 100]. Zero means
	// DefaultJPEGQuality. Ignored by lossless formats.
	JPEGQuality int
}

// Encode converts a pixel buffer to an encoded image using default options.
func Encode(buf *PixelBuffer, format ImageFormat) ([]byte, error) {
	return EncodeWith(buf, format, EncodeOptions{})
}

// EncodeWith converts a pixel buffer to an encoded image.
//
// Encoding is synchronous and CPU-only; the capture pipeline calls it from
// its worker goroutine after readback completes. Invalid buffers (zero
// dimensions, short data, unknown formats) are rejected with ErrEncode
// before any encoder runs.
func EncodeWith(buf *PixelBuffer, format ImageFormat, opts EncodeOptions) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	img, err := buf.toImage()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	var out bytes.Buffer
	switch format {
	case ImagePNG:
		err = png.Encode(&out, img)
	case ImageJPEG:
		q := opts.JPEGQuality
		if q == 0 {
			q = DefaultJPEGQuality
		}
		if q < 1 || q > 100 {
			return nil, fmt.Errorf("%w: JPEG quality %d out of range [1,100]", ErrEncode, q)
		}
		err = jpeg.Encode(&out, img, &jpeg.Options{Quality: q})
	case ImageBMP:
		err = bmp.Encode(&out, img)
	case ImageTIFF:
		err = tiff.Encode(&out, img, nil)
	default:
		return nil, fmt.Errorf("%w: unknown image format %d", ErrEncode, uint8(format))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return out.Bytes(), nil
}

// toImage converts the pixel bytes to a stdlib image for encoding.
//
// Four-channel 8-bit data maps to NRGBA so the encoders see straight
// (non-premultiplied) alpha and the bytes survive a PNG or BMP round trip
// unchanged. R8 maps to Gray. Float formats have no still-image
// representation here.
func (b *PixelBuffer) toImage() (image.Image, error) {
	switch b.Format {
	case PixelFormatR8:
		img := image.NewGray(b.Bounds())
		for y := 0; y < b.Height; y++ {
			src := b.Data[y*b.BytesPerRow:]
			copy(img.Pix[y*img.Stride:], src[:b.Width])
		}
		return img, nil

	case PixelFormatRGBA8, PixelFormatBGRA8:
		img := image.NewNRGBA(b.Bounds())
		if b.Order == OrderRGB && b.Alpha == AlphaLast {
			// Already RGBA — copy rows without swizzling.
			for y := 0; y < b.Height; y++ {
				src := b.Data[y*b.BytesPerRow:]
				copy(img.Pix[y*img.Stride:], src[:b.Width*4])
			}
			return img, nil
		}
		ri, gi, bi, ai := channelIndices(b.Order, b.Alpha)
		for y := 0; y < b.Height; y++ {
			src := b.Data[y*b.BytesPerRow:]
			row := img.Pix[y*img.Stride:]
			for x := 0; x < b.Width; x++ {
				s := src[x*4 : x*4+4]
				d := row[x*4 : x*4+4]
				d[0], d[1], d[2], d[3] = s[ri], s[gi], s[bi], s[ai]
			}
		}
		return img, nil

	default:
		return nil, fmt.Errorf("framecap: cannot encode %s pixels to a still image", b.Format)
	}
}

// channelIndices returns the byte offsets of R, G, B, and A within a
// 4-byte texel for the given channel layout.
func channelIndices(order ChannelOrder, alpha AlphaPosition) (r, g, b, a int) {
	base := 0
	if alpha == AlphaFirst {
		a = 0
		base = 1
	} else {
		a = 3
	}
	if order == OrderBGR {
		return base + 2, base + 1, base, a
	}
	return base, base + 1, base + 2, a
}
