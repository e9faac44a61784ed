// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
//
// This interface is the primary integration point between framecap and GPU
// frameworks like gogpu. The host application (e.g., gogpu.App) implements
// DeviceHandle and passes it to framecap, which renders into and reads back
// from the shared device.
//
// Key principle: framecap RECEIVES the device from the host, it does NOT
// create one (the standalone capdemo binary is the one exception). This
// enables:
//   - Shared GPU resources between framecap and the host application
//   - Capturing frames the host itself rendered
//   - Consistent resource teardown owned by the host
//
// Example implementation in gogpu:
//
//	type contextDeviceHandle struct {
//	    ctx *gogpu.Context
//	}
//
//	func (h *contextDeviceHandle) Device() gpucontext.Device {
//	    return h.ctx.device
//	}
//
//	func (h *contextDeviceHandle) Queue() gpucontext.Queue {
//	    return h.ctx.queue
//	}
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, providing a
// framecap-specific name for the interface while maintaining full
// compatibility with the gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider

// TargetDescriptor describes the offscreen texture a capture renders into
// and copies out of. Capture targets are always single-sample 2D textures;
// the readback path copies mip level zero of a single layer.
type TargetDescriptor struct {
	// Label is an optional debug label for the target.
	Label string

	// Width is the target width in pixels.
	Width uint32

	// Height is the target height in pixels.
	Height uint32

	// Format is the target pixel format. BGRA8 matches the common
	// swapchain layout, so captures swizzle the same way a window
	// capture would.
	Format gputypes.TextureFormat

	// Usage specifies how the target will be used.
	Usage TextureUsage
}

// TextureUsage specifies how a texture can be used.
// These flags can be combined with bitwise OR.
type TextureUsage uint32

const (
	// TextureUsageCopySrc allows the texture to be used as a copy source.
	TextureUsageCopySrc TextureUsage = 1 << iota

	// TextureUsageCopyDst allows the texture to be used as a copy destination.
	TextureUsageCopyDst

	// TextureUsageTextureBinding allows the texture to be used in a texture binding.
	TextureUsageTextureBinding

	// TextureUsageStorageBinding allows the texture to be used in a storage binding.
	TextureUsageStorageBinding

	// TextureUsageRenderAttachment allows the texture to be used as a render attachment.
	TextureUsageRenderAttachment
)

// DefaultTargetDescriptor returns a TargetDescriptor for a capturable
// render target. Only Width, Height, and Format need to be set. CopySrc is
// part of the default usage: a target that cannot be copied out of GPU
// memory cannot be captured.
func DefaultTargetDescriptor(width, height uint32, format gputypes.TextureFormat) TargetDescriptor {
	return TargetDescriptor{
		Width:  width,
		Height: height,
		Format: format,
		Usage:  TextureUsageRenderAttachment | TextureUsageCopySrc,
	}
}

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Used in tests and CPU-only code paths where no GPU is available.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// AdapterInfo returns zero-valued adapter info for the null device.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{}
}

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}
