package canvas

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// kappa places cubic Bézier control points so four segments approximate a
// circle.
const kappa = 0.5522847498307936

// paintDisc rasterises an anti-aliased disc into a mask the size of its
// bounding box and composites it onto the raster. draw.DrawMask clips the box
// to the raster, so off-canvas points are harmless.
func (s *Surface) paintDisc(p Point) {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
		return
	}
	r := float64(BrushRadius)
	box := image.Rect(
		int(math.Floor(p.X-r)), int(math.Floor(p.Y-r)),
		int(math.Ceil(p.X+r)), int(math.Ceil(p.Y+r)),
	)
	if !box.Overlaps(s.img.Bounds()) {
		return
	}

	w, h := box.Dx(), box.Dy()
	cx := float32(p.X - float64(box.Min.X))
	cy := float32(p.Y - float64(box.Min.Y))
	rr := float32(r)
	k := float32(kappa * r)

	z := vector.NewRasterizer(w, h)
	z.MoveTo(cx+rr, cy)
	z.CubeTo(cx+rr, cy+k, cx+k, cy+rr, cx, cy+rr)
	z.CubeTo(cx-k, cy+rr, cx-rr, cy+k, cx-rr, cy)
	z.CubeTo(cx-rr, cy-k, cx-k, cy-rr, cx, cy-rr)
	z.CubeTo(cx+k, cy-rr, cx+rr, cy-k, cx+rr, cy)
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	draw.DrawMask(s.img, box, image.NewUniform(Stroke), image.Point{}, mask, image.Point{}, draw.Over)
}
