package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Brownie44l1/digit-sketchpad/internal/features"
	"github.com/Brownie44l1/digit-sketchpad/internal/predict"
)

// Metadata describes an exported digit model.
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	// Softmax is set when the graph emits logits rather than probabilities.
	Softmax bool `json:"softmax"`
}

func LoadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("parse metadata: %w", err)
	}
	if metadata.InputName == "" {
		metadata.InputName = "input"
	}
	if metadata.OutputName == "" {
		metadata.OutputName = "output"
	}
	if err := metadata.Validate(); err != nil {
		return Metadata{}, err
	}
	return metadata, nil
}

// Validate checks that the model takes one feature grid and scores every
// digit class.
func (m Metadata) Validate() error {
	if n := elements(m.InputShape); n != features.Cells {
		return fmt.Errorf("input shape %v has %d elements, want %d", m.InputShape, n, features.Cells)
	}
	if n := elements(m.OutputShape); n != predict.NumClasses {
		return fmt.Errorf("output shape %v has %d elements, want %d", m.OutputShape, n, predict.NumClasses)
	}
	if len(m.Classes) != 0 && len(m.Classes) != predict.NumClasses {
		return fmt.Errorf("metadata lists %d classes, want %d", len(m.Classes), predict.NumClasses)
	}
	return nil
}

func elements(shape []int64) int64 {
	if len(shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, dim := range shape {
		n *= dim
	}
	return n
}
