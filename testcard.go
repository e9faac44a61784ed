package framecap

// NewTestCard generates a procedural RGBA8 test pattern: a horizontal red
// gradient, a vertical green gradient, and a blue checkerboard, fully
// opaque. cmd/capdemo uploads it as the static source texture; tests use
// it as stable pixel content for round trips.
func NewTestCard(width, height int) *PixelBuffer {
	b := NewPixelBuffer(width, height, PixelFormatRGBA8)
	const tile = 16
	for y := 0; y < height; y++ {
		row := b.Data[y*b.BytesPerRow:]
		for x := 0; x < width; x++ {
			i := x * 4
			row[i+0] = uint8(x * 255 / max(width-1, 1))
			row[i+1] = uint8(y * 255 / max(height-1, 1))
			if (x/tile+y/tile)%2 == 0 {
				row[i+2] = 0xFF
			}
			row[i+3] = 0xFF
		}
	}
	return b
}
