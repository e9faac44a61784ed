package framecap

// PixelFormat identifies the memory layout of a single texel as it comes
// back from GPU memory. The zero value is PixelFormatUnknown.
type PixelFormat uint8

const (
	// PixelFormatUnknown is an unrecognized or unset format.
	PixelFormatUnknown PixelFormat = iota

	// PixelFormatR8 is a single 8-bit channel.
	PixelFormatR8

	// PixelFormatRG8 is two 8-bit channels.
	PixelFormatRG8

	// PixelFormatRGBA8 is four 8-bit channels, red first, alpha last.
	PixelFormatRGBA8

	// PixelFormatBGRA8 is four 8-bit channels, blue first, alpha last.
	// Swapchain and render-target textures commonly use this layout.
	PixelFormatBGRA8

	// PixelFormatRGBA16F is four 16-bit float channels.
	PixelFormatRGBA16F

	// PixelFormatRGBA32F is four 32-bit float channels.
	PixelFormatRGBA32F
)

// BytesPerPixel returns the size of one texel in bytes, or 0 for
// PixelFormatUnknown. The readback stage sizes staging buffers and row
// strides from this value.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatR8:
		return 1
	case PixelFormatRG8:
		return 2
	case PixelFormatRGBA8, PixelFormatBGRA8:
		return 4
	case PixelFormatRGBA16F:
		return 8
	case PixelFormatRGBA32F:
		return 16
	default:
		return 0
	}
}

// String returns the format name for logging.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatR8:
		return "R8"
	case PixelFormatRG8:
		return "RG8"
	case PixelFormatRGBA8:
		return "RGBA8"
	case PixelFormatBGRA8:
		return "BGRA8"
	case PixelFormatRGBA16F:
		return "RGBA16F"
	case PixelFormatRGBA32F:
		return "RGBA32F"
	default:
		return "Unknown"
	}
}

// Layout returns the natural channel order and alpha position for the
// format. Single- and dual-channel formats report OrderRGB/AlphaLast; the
// values are meaningless for them and ignored by the encoder.
func (f PixelFormat) Layout() (ChannelOrder, AlphaPosition) {
	if f == PixelFormatBGRA8 {
		return OrderBGR, AlphaLast
	}
	return OrderRGB, AlphaLast
}

// ChannelOrder is the in-memory sequence of the color channels. Alpha is
// described separately by AlphaPosition; together they cover the common
// 32-bit layouts (RGBA, BGRA, ARGB, ABGR) with two orthogonal knobs.
type ChannelOrder uint8

const (
	// OrderRGB stores red before green before blue.
	OrderRGB ChannelOrder = iota

	// OrderBGR stores blue before green before red.
	OrderBGR
)

// String returns the order name for logging.
func (o ChannelOrder) String() string {
	if o == OrderBGR {
		return "BGR"
	}
	return "RGB"
}

// AlphaPosition locates the alpha channel relative to the color channels.
type AlphaPosition uint8

const (
	// AlphaLast stores alpha after the color channels (RGBA, BGRA).
	AlphaLast AlphaPosition = iota

	// AlphaFirst stores alpha before the color channels (ARGB, ABGR).
	AlphaFirst
)

// String returns the position name for logging.
func (a AlphaPosition) String() string {
	if a == AlphaFirst {
		return "first"
	}
	return "last"
}
