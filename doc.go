// Package framecap captures GPU frame content to still-image files.
//
// # Overview
//
// framecap renders into a GPU texture via the GoGPU HAL, reads the
// framebuffer (or any copyable source texture) back from GPU memory, and
// encodes the pixels to an image file on disk. It is organized as a small
// capture pipeline:
//
//	readback -> encode -> write
//
// The readback stage is asynchronous: the GPU copy is submitted on the
// caller's goroutine and its completion is delivered on a worker goroutine,
// while directory setup for the output file proceeds concurrently. Encoding
// and writing happen off the render loop, so a capture never stalls frame
// presentation.
//
// # Quick Start
//
//	w := &framecap.Writer{Dir: "captures"}
//	p := framecap.NewPipeline(reader, w) // reader copies a texture to host memory
//
//	outcome, err := p.Capture(framecap.CaptureRequest{
//	    BaseName: "frame",
//	    Format:   framecap.ImagePNG,
//	})
//	if err != nil {
//	    // a capture is already in flight, or GPU resources could not be allocated
//	}
//	res := <-outcome
//	fmt.Println("wrote", res.Path)
//
// The reader is any implementation of [TextureReader]; cmd/capdemo wires one
// backed by a HAL device and either the rendered framebuffer or a static
// source texture.
//
// # Architecture
//
// The library is organized into:
//   - Public API: PixelBuffer, Encode, Writer, Pipeline
//   - Internal: gpu (HAL device, fullscreen quad renderer, texture readback)
//   - Demo: cmd/capdemo (renders a test card and captures it on demand)
//
// # Pixel Layout
//
// Readback preserves the channel order of the source texture. PixelBuffer
// records the order (RGB or BGR) and the alpha position (first or last)
// alongside the raw bytes, and the encoder normalizes from that description.
// Channel layout is data the encoder consumes, not something hard-coded per
// image format.
package framecap

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
