package console

// Color is one RGB pixel value on the 8x8 matrix.
type Color struct {
	R, G, B byte
}

// Matrix palette.
var (
	ColorOff    = Color{}
	ColorWhite  = Color{R: 64, G: 64, B: 64}
	ColorOrange = Color{R: 64, G: 16}
	ColorGreen  = Color{G: 64}
	ColorRed    = Color{R: 64}
	ColorYellow = Color{R: 64, G: 64}
)

// Display is the sink the console renders to. The actual LED matrix
// driver lives outside this module; implementations adapt it.
type Display interface {
	// SetPixel stages one pixel. Out-of-range coordinates are ignored.
	SetPixel(row, col int, c Color)
	// Fill stages every pixel with the same color.
	Fill(c Color)
	// Clear stages every pixel off.
	Clear()
	// ShowText stages a short text message, e.g. a game result.
	ShowText(text string, c Color)
	// Flush pushes staged changes to the device.
	Flush()
}

// NopDisplay discards everything. Used when no matrix is attached.
type NopDisplay struct{}

func (NopDisplay) SetPixel(row, col int, c Color) {}
func (NopDisplay) Fill(c Color)                   {}
func (NopDisplay) Clear()                         {}
func (NopDisplay) ShowText(text string, c Color)  {}
func (NopDisplay) Flush()                         {}

// GridDisplay keeps the staged frame in memory. It backs tests and
// can feed a remote rendering of the matrix.
type GridDisplay struct {
	Pixels  [8][8]Color
	Texts   []string
	Flushes int
}

// SetPixel implements Display.
func (d *GridDisplay) SetPixel(row, col int, c Color) {
	if row < 0 || row >= 8 || col < 0 || col >= 8 {
		return
	}
	d.Pixels[row][col] = c
}

// Fill implements Display.
func (d *GridDisplay) Fill(c Color) {
	for row := range d.Pixels {
		for col := range d.Pixels[row] {
			d.Pixels[row][col] = c
		}
	}
}

// Clear implements Display.
func (d *GridDisplay) Clear() {
	d.Fill(ColorOff)
}

// ShowText implements Display.
func (d *GridDisplay) ShowText(text string, c Color) {
	d.Texts = append(d.Texts, text)
}

// Flush implements Display.
func (d *GridDisplay) Flush() {
	d.Flushes++
}
