package ml

import (
	"errors"
	"fmt"
	"math"
)

// StandardScaler centers each feature on its fitted mean and divides by its
// fitted scale.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *StandardScaler) Width() int {
	return len(s.Mean)
}

func (s *StandardScaler) Transform(features []float64) ([]float64, error) {
	if len(s.Mean) == 0 {
		return nil, ErrNotLoaded
	}
	if err := checkWidth(features, len(s.Mean)); err != nil {
		return nil, err
	}
	result := make([]float64, len(features))
	for i, value := range features {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		result[i] = (value - s.Mean[i]) / scale
	}
	return result, nil
}

func (s *StandardScaler) Save(path string) error {
	if len(s.Mean) == 0 {
		return ErrNotLoaded
	}
	return writeArtifact(path, s)
}

func (s *StandardScaler) Load(path string) error {
	var loaded StandardScaler
	if err := readArtifact(path, &loaded); err != nil {
		return err
	}
	if err := loaded.validate(); err != nil {
		return fmt.Errorf("standard scaler %s: %w", path, err)
	}
	*s = loaded
	return nil
}

func (s *StandardScaler) validate() error {
	if len(s.Mean) == 0 {
		return errors.New("mean is empty")
	}
	if len(s.Mean) != len(s.Scale) {
		return errors.New("mean/scale length mismatch")
	}
	return finite(s.Mean, s.Scale)
}

// MinMaxScaler maps each feature onto [0, 1] using its fitted bounds.
type MinMaxScaler struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

func (s *MinMaxScaler) Width() int {
	return len(s.Min)
}

func (s *MinMaxScaler) Transform(features []float64) ([]float64, error) {
	if len(s.Min) == 0 {
		return nil, ErrNotLoaded
	}
	return NormalizeVector(features, s.Min, s.Max)
}

func (s *MinMaxScaler) Save(path string) error {
	if len(s.Min) == 0 {
		return ErrNotLoaded
	}
	return writeArtifact(path, s)
}

func (s *MinMaxScaler) Load(path string) error {
	var loaded MinMaxScaler
	if err := readArtifact(path, &loaded); err != nil {
		return err
	}
	if len(loaded.Min) == 0 {
		return fmt.Errorf("minmax scaler %s: min is empty", path)
	}
	if len(loaded.Min) != len(loaded.Max) {
		return fmt.Errorf("minmax scaler %s: min/max length mismatch", path)
	}
	if err := finite(loaded.Min, loaded.Max); err != nil {
		return fmt.Errorf("minmax scaler %s: %w", path, err)
	}
	*s = loaded
	return nil
}

func NormalizeFeature(value, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (value - min) / (max - min)
}

func NormalizeVector(values []float64, mins []float64, maxs []float64) ([]float64, error) {
	if len(values) != len(mins) || len(values) != len(maxs) {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrLengthMismatch, len(values), len(mins))
	}
	result := make([]float64, len(values))
	for i := range values {
		result[i] = NormalizeFeature(values[i], mins[i], maxs[i])
	}
	return result, nil
}

func finite(series ...[]float64) error {
	for _, values := range series {
		for _, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.New("non-finite parameter")
			}
		}
	}
	return nil
}
