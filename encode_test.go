package framecap

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// decodeToNRGBA decodes encoded image bytes and normalizes every pixel to
// straight-alpha NRGBA for comparison.
func decodeToNRGBA(t *testing.T, data []byte, format ImageFormat) *image.NRGBA {
	t.Helper()

	var (
		img image.Image
		err error
	)
	switch format {
	case ImagePNG:
		img, err = png.Decode(bytes.NewReader(data))
	case ImageJPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	case ImageBMP:
		img, err = bmp.Decode(bytes.NewReader(data))
	case ImageTIFF:
		img, err = tiff.Decode(bytes.NewReader(data))
	default:
		t.Fatalf("no decoder for %v", format)
	}
	if err != nil {
		t.Fatalf("decode %v: %v", format, err)
	}

	out := image.NewNRGBA(img.Bounds())
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			out.Set(x, y, color.NRGBAModel.Convert(img.At(x, y)))
		}
	}
	return out
}

func TestEncodePNGSinglePixelExact(t *testing.T) {
	buf := NewPixelBuffer(1, 1, PixelFormatRGBA8)
	copy(buf.Data, []byte{128, 0, 128, 255})

	data, err := Encode(buf, ImagePNG)
	if err != nil {
		t.Fatalf("Encode() = %v", err)
	}

	img := decodeToNRGBA(t, data, ImagePNG)
	want := color.NRGBA{R: 128, G: 0, B: 128, A: 255}
	if got := img.NRGBAAt(0, 0); got != want {
		t.Errorf("decoded pixel = %v, want %v", got, want)
	}
}

func TestEncodeLosslessRoundTrip(t *testing.T) {
	// PNG, BMP, and TIFF must reproduce opaque pixel content exactly.
	src := NewTestCard(33, 17)

	for _, format := range []ImageFormat{ImagePNG, ImageBMP, ImageTIFF} {
		t.Run(format.String(), func(t *testing.T) {
			data, err := Encode(src, format)
			if err != nil {
				t.Fatalf("Encode() = %v", err)
			}

			img := decodeToNRGBA(t, data, format)
			if img.Bounds() != src.Bounds() {
				t.Fatalf("decoded bounds = %v, want %v", img.Bounds(), src.Bounds())
			}
			for y := 0; y < src.Height; y++ {
				for x := 0; x < src.Width; x++ {
					i := y*src.BytesPerRow + x*4
					want := color.NRGBA{
						R: src.Data[i+0],
						G: src.Data[i+1],
						B: src.Data[i+2],
						A: src.Data[i+3],
					}
					if got := img.NRGBAAt(x, y); got != want {
						t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
					}
				}
			}
		})
	}
}

func TestEncodePNGPreservesAlpha(t *testing.T) {
	buf := NewPixelBuffer(2, 1, PixelFormatRGBA8)
	copy(buf.Data, []byte{
		255, 0, 0, 128, // semi-transparent red
		0, 255, 0, 0, // fully transparent green
	})

	data, err := Encode(buf, ImagePNG)
	if err != nil {
		t.Fatalf("Encode() = %v", err)
	}

	// PNG stores straight alpha, so the exact channel values survive.
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() = %v", err)
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		t.Fatalf("decoded type = %T, want *image.NRGBA", img)
	}
	if !bytes.Equal(nrgba.Pix, buf.Data) {
		t.Errorf("decoded pixels = %v, want %v", nrgba.Pix, buf.Data)
	}
}

func TestEncodeChannelLayouts(t *testing.T) {
	// The same logical pixel, described under every supported channel
	// layout, must encode to the same image. Layout is configuration the
	// encoder consumes, not a property of the output format.
	want := color.NRGBA{R: 10, G: 20, B: 30, A: 200}

	tests := []struct {
		name  string
		order ChannelOrder
		alpha AlphaPosition
		texel []byte
	}{
		{"RGBA", OrderRGB, AlphaLast, []byte{10, 20, 30, 200}},
		{"BGRA", OrderBGR, AlphaLast, []byte{30, 20, 10, 200}},
		{"ARGB", OrderRGB, AlphaFirst, []byte{200, 10, 20, 30}},
		{"ABGR", OrderBGR, AlphaFirst, []byte{200, 30, 20, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &PixelBuffer{
				Width:       1,
				Height:      1,
				BytesPerRow: 4,
				Format:      PixelFormatRGBA8,
				Order:       tt.order,
				Alpha:       tt.alpha,
				Data:        tt.texel,
			}
			data, err := Encode(buf, ImagePNG)
			if err != nil {
				t.Fatalf("Encode() = %v", err)
			}
			img := decodeToNRGBA(t, data, ImagePNG)
			if got := img.NRGBAAt(0, 0); got != want {
				t.Errorf("decoded pixel = %v, want %v", got, want)
			}
		})
	}
}

func TestEncodePaddedStrideMatchesTight(t *testing.T) {
	tight := NewTestCard(5, 3)

	// Same pixels behind a padded stride, as a readback with row
	// alignment padding would produce before stripping.
	const stride = 32
	padded := &PixelBuffer{
		Width:       tight.Width,
		Height:      tight.Height,
		BytesPerRow: stride,
		Format:      tight.Format,
		Order:       tight.Order,
		Alpha:       tight.Alpha,
		Data:        make([]byte, stride*tight.Height),
	}
	for y := 0; y < tight.Height; y++ {
		copy(padded.Data[y*stride:], tight.Data[y*tight.BytesPerRow:(y+1)*tight.BytesPerRow])
	}

	a, err := Encode(tight, ImagePNG)
	if err != nil {
		t.Fatalf("Encode(tight) = %v", err)
	}
	b, err := Encode(padded, ImagePNG)
	if err != nil {
		t.Fatalf("Encode(padded) = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("padded stride encoded differently from tight stride")
	}
}

func TestEncodeGrayscale(t *testing.T) {
	buf := NewPixelBuffer(4, 2, PixelFormatR8)
	copy(buf.Data, []byte{0, 64, 128, 255, 10, 20, 30, 40})

	data, err := Encode(buf, ImagePNG)
	if err != nil {
		t.Fatalf("Encode() = %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() = %v", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("decoded type = %T, want *image.Gray", img)
	}
	if !bytes.Equal(gray.Pix, buf.Data) {
		t.Errorf("decoded pixels = %v, want %v", gray.Pix, buf.Data)
	}
}

func TestEncodeJPEG(t *testing.T) {
	src := NewTestCard(32, 32)

	data, err := Encode(src, ImageJPEG)
	if err != nil {
		t.Fatalf("Encode() = %v", err)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("jpeg.DecodeConfig() = %v", err)
	}
	if cfg.Width != 32 || cfg.Height != 32 {
		t.Errorf("decoded size = %dx%d, want 32x32", cfg.Width, cfg.Height)
	}
}

func TestEncodeJPEGQuality(t *testing.T) {
	src := NewTestCard(64, 64)

	low, err := EncodeWith(src, ImageJPEG, EncodeOptions{JPEGQuality: 10})
	if err != nil {
		t.Fatalf("EncodeWith(quality 10) = %v", err)
	}
	high, err := EncodeWith(src, ImageJPEG, EncodeOptions{JPEGQuality: 95})
	if err != nil {
		t.Fatalf("EncodeWith(quality 95) = %v", err)
	}
	if bytes.Equal(low, high) {
		t.Error("quality 10 and quality 95 produced identical output")
	}
}

func TestEncodeJPEGQualityOutOfRange(t *testing.T) {
	src := NewTestCard(4, 4)
	for _, q := range []int{-1, 101} {
		if _, err := EncodeWith(src, ImageJPEG, EncodeOptions{JPEGQuality: q}); !errors.Is(err, ErrEncode) {
			t.Errorf("EncodeWith(quality %d) = %v, want ErrEncode", q, err)
		}
	}
}

func TestEncodeRejectsInvalidBuffers(t *testing.T) {
	tests := []struct {
		name string
		buf  *PixelBuffer
	}{
		{"nil buffer", nil},
		{"zero width", &PixelBuffer{Width: 0, Height: 4, Format: PixelFormatRGBA8}},
		{"zero height", &PixelBuffer{Width: 4, Height: 0, Format: PixelFormatRGBA8}},
		{"nil data", &PixelBuffer{Width: 2, Height: 2, BytesPerRow: 8, Format: PixelFormatRGBA8}},
		{"unknown format", &PixelBuffer{Width: 2, Height: 2, BytesPerRow: 8, Data: make([]byte, 16)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Encode(tt.buf, ImagePNG); !errors.Is(err, ErrEncode) {
				t.Errorf("Encode() = %v, want ErrEncode", err)
			}
		})
	}
}

func TestEncodeRejectsFloatFormats(t *testing.T) {
	for _, f := range []PixelFormat{PixelFormatRGBA16F, PixelFormatRGBA32F} {
		buf := NewPixelBuffer(2, 2, f)
		if _, err := Encode(buf, ImagePNG); !errors.Is(err, ErrEncode) {
			t.Errorf("Encode(%v) = %v, want ErrEncode", f, err)
		}
	}
}

func TestEncodeRejectsUnknownImageFormat(t *testing.T) {
	buf := NewTestCard(2, 2)
	if _, err := Encode(buf, ImageFormat(99)); !errors.Is(err, ErrEncode) {
		t.Errorf("Encode(ImageFormat(99)) = %v, want ErrEncode", err)
	}
}

func TestParseImageFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ImageFormat
		wantErr bool
	}{
		{"png", ImagePNG, false},
		{"PNG", ImagePNG, false},
		{"jpeg", ImageJPEG, false},
		{"jpg", ImageJPEG, false},
		{"bmp", ImageBMP, false},
		{"tiff", ImageTIFF, false},
		{"tif", ImageTIFF, false},
		{"webp", ImagePNG, true},
		{"", ImagePNG, true},
	}
	for _, tt := range tests {
		got, err := ParseImageFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseImageFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseImageFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestImageFormatExt(t *testing.T) {
	tests := []struct {
		format ImageFormat
		want   string
	}{
		{ImagePNG, "png"},
		{ImageJPEG, "jpg"},
		{ImageBMP, "bmp"},
		{ImageTIFF, "tiff"},
	}
	for _, tt := range tests {
		if got := tt.format.Ext(); got != tt.want {
			t.Errorf("%v.Ext() = %q, want %q", tt.format, got, tt.want)
		}
	}
}
