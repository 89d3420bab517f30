// Package features reduces a raster to the 8×8 intensity grid the digit
// classifier consumes.
package features

import (
	"image"
	"image/color"
)

const (
	// GridSize is the number of blocks along each side of the grid.
	GridSize = 8
	// Cells is the length of every feature vector.
	Cells = GridSize * GridSize
	// MaxValue is the top of the normalised range; zero is the bottom.
	MaxValue = 16.0
)

// Grid holds one normalised block mean per cell, row-major.
type Grid [Cells]float64

// Extract averages the red channel of each block of img and rescales the
// mean from 0–255 to 0–MaxValue. The image is split into GridSize×GridSize
// equal blocks; any remainder pixels on the right and bottom edges are
// ignored.
func Extract(img image.Image) Grid {
	var g Grid
	b := img.Bounds()
	bw, bh := b.Dx()/GridSize, b.Dy()/GridSize
	if bw == 0 || bh == 0 {
		return g
	}

	red := redReader(img)
	count := float64(bw * bh)
	for row := 0; row < GridSize; row++ {
		for col := 0; col < GridSize; col++ {
			var total float64
			y0 := b.Min.Y + row*bh
			x0 := b.Min.X + col*bw
			for y := y0; y < y0+bh; y++ {
				for x := x0; x < x0+bw; x++ {
					total += float64(red(x, y))
				}
			}
			g[row*GridSize+col] = total / count / 255 * MaxValue
		}
	}
	return g
}

// redReader returns the 8-bit non-premultiplied red value at (x, y).
func redReader(img image.Image) func(x, y int) uint8 {
	switch m := img.(type) {
	case *image.RGBA:
		return func(x, y int) uint8 {
			i := m.PixOffset(x, y)
			a := m.Pix[i+3]
			if a == 0xff || a == 0 {
				return m.Pix[i]
			}
			return uint8(uint16(m.Pix[i]) * 0xff / uint16(a))
		}
	case *image.NRGBA:
		return func(x, y int) uint8 {
			return m.Pix[m.PixOffset(x, y)]
		}
	}
	return func(x, y int) uint8 {
		return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA).R
	}
}

// Slice returns the grid values as a slice, in order.
func (g Grid) Slice() []float64 {
	return g[:]
}

// Float32 converts the grid for tensor inputs.
func (g Grid) Float32() []float32 {
	out := make([]float32, Cells)
	for i, v := range g {
		out[i] = float32(v)
	}
	return out
}
