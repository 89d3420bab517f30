package desktop

import "github.com/Brownie44l1/digit-sketchpad/internal/canvas"

// pointerSink receives the pointer events a browser canvas would fire.
type pointerSink interface {
	PointerDown(p canvas.Point)
	PointerMove(p canvas.Point)
	PointerUp()
	PointerLeave()
}

// pointerTracker turns polled mouse state into discrete pointer events.
// Leaving the canvas ends the stroke even with the button held; a new press
// inside the canvas is needed to resume.
type pointerTracker struct {
	origin      canvas.Point
	wasPressed  bool
	down        bool
	lastLocal   canvas.Point
	initialized bool
}

func (t *pointerTracker) step(sink pointerSink, pressed bool, cursor canvas.Point) {
	local := canvas.ToLocal(cursor, t.origin)
	inside := local.X >= 0 && local.Y >= 0 && local.X < canvas.Size && local.Y < canvas.Size
	justPressed := pressed && !t.wasPressed
	moved := !t.initialized || local != t.lastLocal
	t.wasPressed = pressed
	t.lastLocal = local
	t.initialized = true

	switch {
	case !inside:
		if t.down {
			t.down = false
			sink.PointerLeave()
		}
	case justPressed:
		t.down = true
		sink.PointerDown(local)
	case pressed && t.down && moved:
		sink.PointerMove(local)
	case !pressed && t.down:
		t.down = false
		sink.PointerUp()
	}
}
