// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render provides the integration layer between framecap and GPU
// frameworks.
//
// This package defines the abstractions for device integration, allowing
// framecap to capture GPU surfaces provided by host applications (like
// gogpu.App) without the host importing wgpu/hal directly.
//
// # Key Principle
//
// framecap RECEIVES a GPU device from the host application, it does NOT
// create its own. This follows the Vello/femtovg/Skia pattern where the
// library is injected with GPU resources rather than managing them itself.
// The standalone capdemo binary, which brings up its own headless device,
// is the one exception.
//
// # Core Types
//
//   - DeviceHandle: Provides GPU device access from the host application
//   - TargetDescriptor: Describes the offscreen texture a capture renders
//     into and copies out of
//   - NullDeviceHandle: Nil-returning handle for tests and CPU-only paths
//
// # Usage
//
// Integration with gogpu:
//
//	app := gogpu.NewApp(gogpu.Config{...})
//
//	app.OnInit(func(gc *gogpu.Context) {
//	    // framecap receives the GPU device from gogpu
//	    desc := render.DefaultTargetDescriptor(800, 600, gc.SurfaceFormat())
//	    setUpCapture(gc.DeviceHandle(), desc)
//	})
//
// # Thread Safety
//
// DeviceHandle implementations are owned by the host; framecap serializes
// its own access to the device they lend.
//
// # References
//
//   - Vello DeviceProvider pattern: https://github.com/AhornGraphics/vello
//   - femtovg Renderer trait: https://github.com/AhornGraphics/femtovg
//   - Skia GrDirectContext: https://skia.org/docs/user/api/
package render
