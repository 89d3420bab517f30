package canvas

import (
	"image"
	"image/color"
	"testing"
)

func countStroked(img *image.RGBA) int {
	n := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			n++
		}
	}
	return n
}

// isStroke allows for anti-aliasing rounding on covered pixels.
func isStroke(c color.RGBA) bool {
	return c.R >= 0xf0 && c.G >= 0xf0 && c.B >= 0xf0
}

func TestNewIsBackground(t *testing.T) {
	s := New()
	if got := s.Image().Bounds(); got != image.Rect(0, 0, Size, Size) {
		t.Fatalf("bounds = %v", got)
	}
	if n := countStroked(s.Image()); n != 0 {
		t.Errorf("%d painted pixels on a fresh surface", n)
	}
	if c := s.Image().RGBAAt(10, 10); c != Background {
		t.Errorf("pixel = %v, want %v", c, Background)
	}
}

func TestStrokeLifecycle(t *testing.T) {
	s := New()

	s.ContinueStroke(Point{X: 140, Y: 140})
	if n := countStroked(s.Image()); n != 0 {
		t.Fatalf("move without pointer-down painted %d pixels", n)
	}

	s.BeginStroke(Point{X: 140, Y: 140})
	if !s.Drawing() {
		t.Fatal("not drawing after BeginStroke")
	}
	if c := s.Image().RGBAAt(140, 140); !isStroke(c) {
		t.Errorf("centre pixel = %v, want %v", c, Stroke)
	}
	dot := countStroked(s.Image())
	if dot == 0 {
		t.Fatal("pointer-down left no dot")
	}

	s.ContinueStroke(Point{X: 60, Y: 60})
	if c := s.Image().RGBAAt(60, 60); !isStroke(c) {
		t.Errorf("stroke pixel = %v, want %v", c, Stroke)
	}

	s.EndStroke()
	s.ContinueStroke(Point{X: 220, Y: 220})
	if c := s.Image().RGBAAt(220, 220); c != Background {
		t.Errorf("pixel after EndStroke = %v, want background", c)
	}
}

func TestDiscRadius(t *testing.T) {
	s := New()
	s.BeginStroke(Point{X: 100.5, Y: 100.5})

	img := s.Image()
	// Pixel centres well inside the radius are fully covered, those well
	// outside untouched.
	if c := img.RGBAAt(100+BrushRadius-2, 100); !isStroke(c) {
		t.Errorf("inside pixel = %v", c)
	}
	if c := img.RGBAAt(100+BrushRadius+2, 100); c != Background {
		t.Errorf("outside pixel = %v", c)
	}

	area := countStroked(img)
	// π·12² ≈ 452, plus a ring of partially covered edge pixels.
	if area < 400 || area > 600 {
		t.Errorf("disc covers %d pixels", area)
	}
}

func TestOffCanvasStrokes(t *testing.T) {
	s := New()
	s.BeginStroke(Point{X: 140, Y: 140})
	before := s.Snapshot()

	for _, p := range []Point{
		{X: -500, Y: -500},
		{X: 10000, Y: 140},
		{X: 140, Y: -40},
	} {
		s.ContinueStroke(p)
	}
	if n, m := countStroked(before), countStroked(s.Image()); n != m {
		t.Errorf("far off-canvas strokes changed %d pixels", m-n)
	}

	// A disc straddling the corner is clipped, not dropped.
	s.ContinueStroke(Point{X: -4, Y: -4})
	if c := s.Image().RGBAAt(0, 0); !isStroke(c) {
		t.Errorf("corner pixel = %v, want stroke", c)
	}
	if c := s.Image().RGBAAt(140, 140); !isStroke(c) {
		t.Errorf("in-bounds stroke lost: %v", c)
	}
}

func TestClear(t *testing.T) {
	s := New()
	s.BeginStroke(Point{X: 20, Y: 20})
	s.Clear()
	if s.Drawing() {
		t.Error("still drawing after Clear")
	}
	if n := countStroked(s.Image()); n != 0 {
		t.Errorf("%d painted pixels after Clear", n)
	}
}

func TestToLocal(t *testing.T) {
	got := ToLocal(Point{X: 150, Y: 90.5}, Point{X: 100, Y: 40})
	if want := (Point{X: 50, Y: 50.5}); got != want {
		t.Errorf("ToLocal = %v, want %v", got, want)
	}
}

func TestLoadScales(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 28, 28))
	for y := 0; y < 28; y++ {
		for x := 14; x < 28; x++ {
			src.Set(x, y, color.White)
		}
	}

	s := New()
	s.BeginStroke(Point{X: 10, Y: 10})
	s.Load(src)

	if s.Drawing() {
		t.Error("Load left a stroke active")
	}
	if got := s.Image().Bounds(); got != image.Rect(0, 0, Size, Size) {
		t.Fatalf("bounds = %v", got)
	}
	if c := s.Image().RGBAAt(10, 140); c.R > 10 {
		t.Errorf("left half pixel = %v, want dark", c)
	}
	if c := s.Image().RGBAAt(270, 140); c.R < 245 {
		t.Errorf("right half pixel = %v, want bright", c)
	}
}

func TestInvert(t *testing.T) {
	s := New()
	s.Invert()
	if c := s.Image().RGBAAt(5, 5); c != Stroke {
		t.Errorf("inverted background = %v, want %v", c, Stroke)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := New()
	snap := s.Snapshot()
	s.BeginStroke(Point{X: 140, Y: 140})
	if n := countStroked(snap); n != 0 {
		t.Errorf("snapshot changed with the surface: %d pixels", n)
	}
}
