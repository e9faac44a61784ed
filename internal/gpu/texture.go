package gpu

import (
	"fmt"

	"github.com/gogpu/framecap"
	"github.com/gogpu/framecap/render"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Texture bundles a HAL texture with its default view and the metadata the
// readback stage needs.
type Texture struct {
	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32
	format gputypes.TextureFormat

	// renderTarget marks textures used as color attachments. Readback
	// inserts usage transitions around the copy only for those.
	renderTarget bool
}

// Width returns the texture width in pixels.
func (t *Texture) Width() uint32 { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() uint32 { return t.height }

// Format returns the HAL texture format.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// View returns the texture's default view.
func (t *Texture) View() hal.TextureView { return t.view }

// PixelFormat reports the host-side layout of one texel as
// CopyTextureToBuffer produces it.
func (t *Texture) PixelFormat() framecap.PixelFormat { return pixelFormat(t.format) }

// Destroy releases the view and texture. Safe to call more than once.
func (t *Texture) Destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// CreateSourceTexture creates a sampled texture and uploads the buffer's
// pixels to it. The texture is usable as a shader binding and as a copy
// source, so it can be captured directly without being rendered first.
func CreateSourceTexture(device hal.Device, queue hal.Queue, buf *framecap.PixelBuffer) (*Texture, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	format, err := halFormat(buf.Format)
	if err != nil {
		return nil, err
	}
	w, h := uint32(buf.Width), uint32(buf.Height)

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "capture_source",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage: gputypes.TextureUsageTextureBinding |
			gputypes.TextureUsageCopyDst |
			gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create source texture: %w", err)
	}

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "capture_source_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("create source texture view: %w", err)
	}

	queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		buf.Data,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: uint32(buf.BytesPerRow), RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)

	return &Texture{tex: tex, view: view, width: w, height: h, format: format}, nil
}

// halTextureUsage maps host-facing usage flags to their HAL equivalents.
func halTextureUsage(u render.TextureUsage) gputypes.TextureUsage {
	var out gputypes.TextureUsage
	if u&render.TextureUsageCopySrc != 0 {
		out |= gputypes.TextureUsageCopySrc
	}
	if u&render.TextureUsageCopyDst != 0 {
		out |= gputypes.TextureUsageCopyDst
	}
	if u&render.TextureUsageTextureBinding != 0 {
		out |= gputypes.TextureUsageTextureBinding
	}
	if u&render.TextureUsageStorageBinding != 0 {
		out |= gputypes.TextureUsageStorageBinding
	}
	if u&render.TextureUsageRenderAttachment != 0 {
		out |= gputypes.TextureUsageRenderAttachment
	}
	return out
}

// CreateTarget creates the offscreen texture a render.TargetDescriptor
// describes. Hosts hand framecap a descriptor instead of HAL usage bits;
// the mapping to the device happens here.
func CreateTarget(device hal.Device, desc render.TargetDescriptor) (*Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("target size %dx%d must be nonzero", desc.Width, desc.Height)
	}
	usage := halTextureUsage(desc.Usage)
	if usage == 0 {
		return nil, fmt.Errorf("target usage is empty")
	}
	label := desc.Label
	if label == "" {
		label = "capture_target"
	}

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create render target: %w", err)
	}

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: label + "_view",
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("create render target view: %w", err)
	}

	return &Texture{
		tex:          tex,
		view:         view,
		width:        desc.Width,
		height:       desc.Height,
		format:       desc.Format,
		renderTarget: desc.Usage&render.TextureUsageRenderAttachment != 0,
	}, nil
}

// CreateRenderTarget creates a texture renderable as a color attachment and
// copyable into a staging buffer for readback.
func CreateRenderTarget(device hal.Device, width, height uint32, format gputypes.TextureFormat) (*Texture, error) {
	return CreateTarget(device, render.DefaultTargetDescriptor(width, height, format))
}

// halFormat maps a host pixel format to the HAL texture format used to
// create textures with that texel layout.
func halFormat(f framecap.PixelFormat) (gputypes.TextureFormat, error) {
	switch f {
	case framecap.PixelFormatR8:
		return gputypes.TextureFormatR8Unorm, nil
	case framecap.PixelFormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case framecap.PixelFormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm, nil
	case framecap.PixelFormatRGBA32F:
		return gputypes.TextureFormatRGBA32Float, nil
	default:
		return gputypes.TextureFormatUndefined, fmt.Errorf("no HAL texture format for %v", f)
	}
}

// pixelFormat maps a HAL texture format back to the host-side layout of the
// bytes a buffer copy produces for it. Srgb variants share the layout of
// their linear counterparts.
func pixelFormat(f gputypes.TextureFormat) framecap.PixelFormat {
	switch f {
	case gputypes.TextureFormatR8Unorm:
		return framecap.PixelFormatR8
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
		return framecap.PixelFormatRGBA8
	case gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		return framecap.PixelFormatBGRA8
	case gputypes.TextureFormatRGBA32Float:
		return framecap.PixelFormatRGBA32F
	default:
		return framecap.PixelFormatUnknown
	}
}
