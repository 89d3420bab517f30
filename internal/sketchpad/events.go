package sketchpad

import (
	"fmt"
	"math"

	"github.com/Brownie44l1/digit-sketchpad/internal/canvas"
)

type PointerEventType string

const (
	PointerDownEvent  PointerEventType = "down"
	PointerMoveEvent  PointerEventType = "move"
	PointerUpEvent    PointerEventType = "up"
	PointerLeaveEvent PointerEventType = "leave"
)

// PointerEvent is a pointer event in screen coordinates together with the
// on-screen top-left corner of the canvas at the time it fired.
type PointerEvent struct {
	Type PointerEventType `json:"type"`
	X    float64          `json:"x"`
	Y    float64          `json:"y"`
	Left float64          `json:"left"`
	Top  float64          `json:"top"`
}

func (e PointerEvent) Local() canvas.Point {
	return canvas.ToLocal(canvas.Point{X: e.X, Y: e.Y}, canvas.Point{X: e.Left, Y: e.Top})
}

func (e PointerEvent) validate() error {
	switch e.Type {
	case PointerDownEvent, PointerMoveEvent, PointerUpEvent, PointerLeaveEvent:
	default:
		return fmt.Errorf("unknown pointer event type %q", e.Type)
	}
	for _, v := range []float64{e.X, e.Y, e.Left, e.Top} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite coordinate in %s event", e.Type)
		}
	}
	return nil
}

func validateAll(events []PointerEvent) error {
	for i, ev := range events {
		if err := ev.validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}
