// Command capdemo renders a procedural test card to a GPU framebuffer and
// captures it to a still-image file.
//
// Every frame draws the test card over the whole offscreen target as a
// fullscreen textured quad. On the final frame the render loop observes the
// pending capture trigger, reads the framebuffer back from GPU memory,
// encodes it, and writes a timestamped file under the output directory.
// With -source=texture the static uploaded texture is captured instead of
// the rendered framebuffer.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framecap"
	"github.com/gogpu/framecap/internal/gpu"
	"github.com/gogpu/framecap/render"
)

func main() {
	var (
		width   = flag.Int("width", 800, "render target width")
		height  = flag.Int("height", 600, "render target height")
		outDir  = flag.String("out", "captures", "output directory")
		base    = flag.String("base", "frame", "output file name stem")
		format  = flag.String("format", "png", "image format (png, jpg, bmp, tiff)")
		frames  = flag.Int("frames", 3, "frames to render")
		quality = flag.Int("quality", framecap.DefaultJPEGQuality, "JPEG quality (1-100)")
		source  = flag.String("source", "framebuffer", "capture source (framebuffer or texture)")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	framecap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	imgFormat, err := framecap.ParseImageFormat(*format)
	if err != nil {
		log.Fatalf("Bad -format: %v", err)
	}
	if *source != "framebuffer" && *source != "texture" {
		log.Fatalf("Bad -source: %q (want framebuffer or texture)", *source)
	}
	if *frames < 1 {
		log.Fatalf("Bad -frames: %d (want at least 1)", *frames)
	}

	ctx, err := gpu.NewContext()
	if err != nil {
		log.Fatalf("GPU init failed: %v", err)
	}
	defer ctx.Close()
	device, queue := ctx.Device(), ctx.Queue()

	// Upload the procedural test card.
	src, err := gpu.CreateSourceTexture(device, queue, framecap.NewTestCard(*width, *height))
	if err != nil {
		log.Fatalf("Upload test card failed: %v", err)
	}
	defer src.Destroy(device)

	// BGRA offscreen target, the common swapchain layout, so the capture
	// path swizzles the same way a window capture would. The default
	// descriptor usage already includes CopySrc for readback.
	desc := render.DefaultTargetDescriptor(uint32(*width), uint32(*height), gputypes.TextureFormatBGRA8Unorm)
	desc.Label = "capdemo_target"
	target, err := gpu.CreateTarget(device, desc)
	if err != nil {
		log.Fatalf("Create render target failed: %v", err)
	}
	defer target.Destroy(device)

	quad, err := gpu.NewQuadRenderer(device, queue, src, gputypes.TextureFormatBGRA8Unorm)
	if err != nil {
		log.Fatalf("Create quad renderer failed: %v", err)
	}
	defer quad.Destroy()

	readback := gpu.NewReadback(device, queue)
	defer readback.Destroy()

	captureTex := target
	if *source == "texture" {
		captureTex = src
	}
	pipeline := framecap.NewPipeline(
		&gpu.TextureSource{Readback: readback, Texture: captureTex},
		&framecap.Writer{Dir: *outDir},
	)
	pipeline.Encoding = framecap.EncodeOptions{JPEGQuality: *quality}

	// The render loop owns the trigger: it is armed for the final frame,
	// observed once, and reset when the capture starts.
	var outcome <-chan framecap.CaptureOutcome
	capturePending := false
	clearColor := gputypes.Color{R: 0.07, G: 0.07, B: 0.1, A: 1}

	for frame := 0; frame < *frames; frame++ {
		if frame == *frames-1 {
			capturePending = true
		}

		if err := quad.RenderFrame(target, clearColor); err != nil {
			log.Fatalf("Render frame %d failed: %v", frame, err)
		}

		if capturePending {
			capturePending = false
			outcome, err = pipeline.Capture(framecap.CaptureRequest{
				BaseName: *base,
				Format:   imgFormat,
			})
			if err != nil {
				log.Fatalf("Capture failed to start: %v", err)
			}
		}
	}

	res := <-outcome
	if res.Err != nil {
		log.Fatalf("Capture failed: %v", res.Err)
	}
	log.Printf("Capture saved to %s (%dx%d %s, source=%s)\n",
		res.Path, *width, *height, imgFormat, *source)
}
