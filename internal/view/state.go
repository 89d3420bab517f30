// Package view holds what the sketchpad shows: the last prediction, its
// probabilities and any error. Transitions are pure functions on State.
package view

import (
	"fmt"

	"github.com/Brownie44l1/digit-sketchpad/internal/predict"
)

// State is a value; reducers return a modified copy.
type State struct {
	HasPrediction bool      `json:"has_prediction"`
	Prediction    int       `json:"prediction"`
	Probabilities []float64 `json:"probabilities"`
	Error         string    `json:"error,omitempty"`
	Pending       bool      `json:"pending"`
	// Seq identifies the latest prediction request. Responses carrying an
	// older number are dropped.
	Seq uint64 `json:"seq"`
}

func Initial() State {
	return State{Probabilities: make([]float64, predict.NumClasses)}
}

// Begin marks a new request as in flight and returns the sequence number its
// response must present.
func (s State) Begin() (State, uint64) {
	s.Seq++
	s.Pending = true
	s.Error = ""
	return s, s.Seq
}

func (s State) ShowResult(seq uint64, res *predict.Result) State {
	if seq != s.Seq {
		return s
	}
	s.HasPrediction = true
	s.Prediction = res.Prediction
	s.Probabilities = append([]float64(nil), res.Probabilities...)
	s.Error = ""
	s.Pending = false
	return s
}

// ShowError records msg and keeps the last good prediction on screen.
func (s State) ShowError(seq uint64, msg string) State {
	if seq != s.Seq {
		return s
	}
	s.Error = msg
	s.Pending = false
	return s
}

// Reset returns to the initial display and invalidates in-flight requests.
func (s State) Reset() State {
	next := Initial()
	next.Seq = s.Seq + 1
	return next
}

// Label is the predicted digit, or an em dash when there is none.
func (s State) Label() string {
	if !s.HasPrediction {
		return "—"
	}
	return fmt.Sprint(s.Prediction)
}

// Bar is one row of the probability chart.
type Bar struct {
	Index   int
	Value   float64
	Percent string
}

// Bars lists one bar per class. Values are clamped to [0,1] so a bad
// classifier cannot draw outside the chart.
func (s State) Bars() []Bar {
	bars := make([]Bar, len(s.Probabilities))
	for i, p := range s.Probabilities {
		p = clamp01(p)
		bars[i] = Bar{Index: i, Value: p, Percent: FormatPercent(p)}
	}
	return bars
}

func clamp01(p float64) float64 {
	switch {
	case p > 1:
		return 1
	case p >= 0:
		return p
	}
	return 0
}

// FormatPercent renders a probability in [0,1] as a percentage with one
// decimal, e.g. 1 → "100.0%".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}
