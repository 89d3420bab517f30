// Package canvas implements the drawing surface: a fixed-size raster that
// pointer strokes paint discs onto.
package canvas

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/nfnt/resize"
)

const (
	// Size is the width and height of the raster in device pixels.
	Size = 280
	// BrushRadius is the radius of the disc painted for every stroke point.
	BrushRadius = 12
)

var (
	Background = color.RGBA{A: 0xff}
	Stroke     = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Point is a position in either screen or raster-local space.
type Point struct {
	X, Y float64
}

// ToLocal maps a screen position into raster-local space given the on-screen
// top-left corner of the canvas.
func ToLocal(screen, origin Point) Point {
	return Point{X: screen.X - origin.X, Y: screen.Y - origin.Y}
}

// Surface is not safe for concurrent use.
type Surface struct {
	img     *image.RGBA
	drawing bool
}

func New() *Surface {
	s := &Surface{img: image.NewRGBA(image.Rect(0, 0, Size, Size))}
	s.Initialize()
	return s
}

// Initialize paints the whole raster with the background colour.
func (s *Surface) Initialize() {
	s.Fill(Background)
}

// Clear resets the raster and ends any stroke in progress.
func (s *Surface) Clear() {
	s.drawing = false
	s.Initialize()
}

func (s *Surface) Fill(c color.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

func (s *Surface) BeginStroke(p Point) {
	s.drawing = true
	s.ContinueStroke(p)
}

// ContinueStroke paints a disc at p while a stroke is active. Parts of the
// disc that fall outside the raster are dropped.
func (s *Surface) ContinueStroke(p Point) {
	if !s.drawing {
		return
	}
	s.paintDisc(p)
}

func (s *Surface) EndStroke() {
	s.drawing = false
}

func (s *Surface) Drawing() bool {
	return s.drawing
}

// Image returns the live raster. Callers must not retain it across mutations.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

func (s *Surface) Snapshot() *image.RGBA {
	out := image.NewRGBA(s.img.Rect)
	copy(out.Pix, s.img.Pix)
	return out
}

// Load replaces the raster with img, scaled to Size×Size. Transparent areas
// end up as background.
func (s *Surface) Load(img image.Image) {
	b := img.Bounds()
	if b.Dx() != Size || b.Dy() != Size {
		img = resize.Resize(Size, Size, img, resize.Lanczos3)
		b = img.Bounds()
	}
	s.Clear()
	draw.Draw(s.img, s.img.Bounds(), img, b.Min, draw.Over)
}

// Invert flips every colour channel, turning dark-on-light scans into the
// light-on-dark form the classifier expects.
func (s *Surface) Invert() {
	for i := 0; i < len(s.img.Pix); i += 4 {
		s.img.Pix[i] = 0xff - s.img.Pix[i]
		s.img.Pix[i+1] = 0xff - s.img.Pix[i+1]
		s.img.Pix[i+2] = 0xff - s.img.Pix[i+2]
	}
}
