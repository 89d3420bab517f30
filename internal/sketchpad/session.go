// Package sketchpad ties the drawing surface, the view state and a
// classifier together behind one lock. Front ends feed it pointer events and
// button presses and render whatever State returns.
package sketchpad

import (
	"context"
	"image"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Brownie44l1/digit-sketchpad/internal/canvas"
	"github.com/Brownie44l1/digit-sketchpad/internal/features"
	"github.com/Brownie44l1/digit-sketchpad/internal/predict"
	"github.com/Brownie44l1/digit-sketchpad/internal/view"
)

type Session struct {
	mu         sync.Mutex
	surface    *canvas.Surface
	state      view.State
	classifier predict.Classifier
	logger     zerolog.Logger
}

func New(classifier predict.Classifier, logger zerolog.Logger) *Session {
	return &Session{
		surface:    canvas.New(),
		state:      view.Initial(),
		classifier: classifier,
		logger:     logger,
	}
}

func (s *Session) PointerDown(p canvas.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface.BeginStroke(p)
}

func (s *Session) PointerMove(p canvas.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface.ContinueStroke(p)
}

func (s *Session) PointerUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface.EndStroke()
}

// PointerLeave ends the stroke the same way a release does.
func (s *Session) PointerLeave() {
	s.PointerUp()
}

// Apply replays a batch of pointer events in order under a single lock.
func (s *Session) Apply(events []PointerEvent) error {
	if err := validateAll(events); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(events)
	return nil
}

func (s *Session) apply(events []PointerEvent) {
	for _, ev := range events {
		p := ev.Local()
		switch ev.Type {
		case PointerDownEvent:
			s.surface.BeginStroke(p)
		case PointerMoveEvent:
			s.surface.ContinueStroke(p)
		case PointerUpEvent, PointerLeaveEvent:
			s.surface.EndStroke()
		}
	}
}

// Clear wipes the raster and resets the view.
func (s *Session) Clear() view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface.Clear()
	s.state = s.state.Reset()
	return s.state
}

// Predict classifies the current drawing. The classifier runs without the
// lock held, so drawing and further predictions may proceed meanwhile; only
// the latest request's outcome reaches the view.
func (s *Session) Predict(ctx context.Context) view.State {
	state, _ := s.PredictAfter(ctx, nil)
	return state
}

// PredictAfter applies events and classifies the result, with no other
// stroke or clear able to land in between. Invalid events leave the session
// untouched.
func (s *Session) PredictAfter(ctx context.Context, events []PointerEvent) (view.State, error) {
	if err := validateAll(events); err != nil {
		return s.State(), err
	}

	s.mu.Lock()
	s.apply(events)
	grid := features.Extract(s.surface.Image())
	var seq uint64
	s.state, seq = s.state.Begin()
	s.mu.Unlock()

	return s.finish(ctx, seq, grid), nil
}

// PredictImage replaces the drawing with img and classifies it. When invert
// is set the image is treated as dark ink on a light background.
func (s *Session) PredictImage(ctx context.Context, img image.Image, invert bool) view.State {
	s.mu.Lock()
	s.surface.Load(img)
	if invert {
		s.surface.Invert()
	}
	grid := features.Extract(s.surface.Image())
	var seq uint64
	s.state, seq = s.state.Begin()
	s.mu.Unlock()

	return s.finish(ctx, seq, grid)
}

func (s *Session) finish(ctx context.Context, seq uint64, grid features.Grid) view.State {
	res, err := s.classifier.Predict(ctx, grid)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.state.Seq {
		s.logger.Debug().Err(err).Uint64("seq", seq).Uint64("latest", s.state.Seq).Msg("dropping stale prediction")
		return s.state
	}
	if err != nil {
		s.logger.Warn().Err(err).Uint64("seq", seq).Msg("prediction failed")
		s.state = s.state.ShowError(seq, predict.Message(err))
		return s.state
	}
	s.state = s.state.ShowResult(seq, res)
	return s.state
}

func (s *Session) State() view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot copies the raster for rendering outside the lock.
func (s *Session) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface.Snapshot()
}
