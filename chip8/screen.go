package chip8

// Display dimensions in pixels.
const (
	Width  = 64
	Height = 32
)

// FrameBuffer is the monochrome CHIP-8 display.
// Coordinates wrap around both edges.
type FrameBuffer struct {
	pix [Width * Height]bool
}

// Pixel is one entry of a FrameBuffer snapshot.
type Pixel struct {
	X, Y int
	On   bool
}

func index(x, y int) int {
	x %= Width
	if x < 0 {
		x += Width
	}
	y %= Height
	if y < 0 {
		y += Height
	}
	return y*Width + x
}

// Set writes the pixel at (x, y) and reports a collision.
// Writing on to a lit pixel turns it off and reports true; writing on to a
// dark pixel lights it. Writing off always darkens the pixel.
func (f *FrameBuffer) Set(x, y int, on bool) (collision bool) {
	i := index(x, y)
	if on && f.pix[i] {
		f.pix[i] = false
		return true
	}
	f.pix[i] = on
	return false
}

// At reports whether the pixel at (x, y) is lit.
func (f *FrameBuffer) At(x, y int) bool { return f.pix[index(x, y)] }

// Clear turns every pixel off.
func (f *FrameBuffer) Clear() { f.pix = [Width * Height]bool{} }

// Pixels returns a fresh row-major snapshot of every pixel.
func (f *FrameBuffer) Pixels() []Pixel {
	ps := make([]Pixel, 0, len(f.pix))
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			ps = append(ps, Pixel{X: x, Y: y, On: f.pix[y*Width+x]})
		}
	}
	return ps
}
