package ml

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FieldKind distinguishes integer counts from continuous inputs.
type FieldKind string

const (
	KindFloat FieldKind = "float"
	KindInt   FieldKind = "int"
)

// Field describes one input of the feature vector.
type Field struct {
	Name    string    `json:"name"`
	Label   string    `json:"label"`
	Kind    FieldKind `json:"type"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Default float64   `json:"default"`
}

// Schema lists the inputs in the order the scaler and classifier were fitted on.
var Schema = []Field{
	{Name: "RevolvingUtilizationOfUnsecuredLines", Label: "Revolving Utilization", Kind: KindFloat, Min: 0, Max: 10, Default: 0.5},
	{Name: "age", Label: "Age", Kind: KindInt, Min: 18, Max: 120, Default: 35},
	{Name: "NumberOfTime30-59DaysPastDueNotWorse", Label: "30-59 Days Past Due", Kind: KindInt, Min: 0, Max: 98, Default: 0},
	{Name: "DebtRatio", Label: "Debt Ratio", Kind: KindFloat, Min: 0, Max: 10000, Default: 100},
	{Name: "MonthlyIncome", Label: "Monthly Income", Kind: KindFloat, Min: 0, Max: 200000, Default: 5000},
	{Name: "NumberOfOpenCreditLinesAndLoans", Label: "Open Credit Lines", Kind: KindInt, Min: 0, Max: 60, Default: 10},
	{Name: "NumberOfTimes90DaysLate", Label: "90 Days Late", Kind: KindInt, Min: 0, Max: 98, Default: 0},
	{Name: "NumberRealEstateLoansOrLines", Label: "Real Estate Loans", Kind: KindInt, Min: 0, Max: 20, Default: 1},
	{Name: "NumberOfTime60-89DaysPastDueNotWorse", Label: "60-89 Days Past Due", Kind: KindInt, Min: 0, Max: 98, Default: 0},
	{Name: "NumberOfDependents", Label: "Dependents", Kind: KindInt, Min: 0, Max: 20, Default: 1},
}

// FeatureCount is the width every artifact must have been fitted on.
const FeatureCount = 10

// ValidationError reports an input that the schema rejects.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// FeatureVector is an immutable, schema-ordered set of raw inputs.
type FeatureVector struct {
	values []float64
}

func FeatureNames() []string {
	names := make([]string, len(Schema))
	for i, f := range Schema {
		names[i] = f.Name
	}
	return names
}

// FieldIndex returns the position of name in Schema, or -1.
func FieldIndex(name string) int {
	for i, f := range Schema {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func DefaultFeatures() FeatureVector {
	values := make([]float64, len(Schema))
	for i, f := range Schema {
		values[i] = f.Default
	}
	return FeatureVector{values: values}
}

// NewFeatureVector builds a vector from named values. Missing fields take
// their defaults; unknown names and out-of-range values are rejected.
func NewFeatureVector(named map[string]float64) (FeatureVector, error) {
	for name := range named {
		if FieldIndex(name) < 0 {
			return FeatureVector{}, &ValidationError{Field: name, Reason: "unknown field"}
		}
	}
	values := make([]float64, len(Schema))
	for i, f := range Schema {
		value, ok := named[f.Name]
		if !ok {
			value = f.Default
		}
		if err := f.check(value); err != nil {
			return FeatureVector{}, err
		}
		values[i] = value
	}
	return FeatureVector{values: values}, nil
}

// FeatureVectorFromSlice validates a schema-ordered slice.
func FeatureVectorFromSlice(values []float64) (FeatureVector, error) {
	if len(values) != len(Schema) {
		return FeatureVector{}, fmt.Errorf("%w: got %d values, want %d", ErrLengthMismatch, len(values), len(Schema))
	}
	for i, f := range Schema {
		if err := f.check(values[i]); err != nil {
			return FeatureVector{}, err
		}
	}
	return FeatureVector{values: append([]float64(nil), values...)}, nil
}

func (f Field) check(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &ValidationError{Field: f.Name, Reason: "not a finite number"}
	}
	if value < f.Min || value > f.Max {
		return &ValidationError{
			Field:  f.Name,
			Reason: fmt.Sprintf("%s outside [%s, %s]", formatFloat(value), formatFloat(f.Min), formatFloat(f.Max)),
		}
	}
	if f.Kind == KindInt && value != math.Trunc(value) {
		return &ValidationError{Field: f.Name, Reason: "must be a whole number"}
	}
	return nil
}

func (f Field) clamp(value float64) float64 {
	if math.IsNaN(value) {
		return f.Default
	}
	if f.Kind == KindInt {
		value = math.Round(value)
	}
	return math.Max(f.Min, math.Min(f.Max, value))
}

// ClampFeatures builds a vector from named values, forcing each one into its
// range instead of rejecting it. Unknown names are still an error.
func ClampFeatures(named map[string]float64) (FeatureVector, error) {
	values := make([]float64, len(Schema))
	for i, f := range Schema {
		values[i] = f.Default
	}
	for name, value := range named {
		idx := FieldIndex(name)
		if idx < 0 {
			return FeatureVector{}, &ValidationError{Field: name, Reason: "unknown field"}
		}
		values[idx] = Schema[idx].clamp(value)
	}
	return FeatureVector{values: values}, nil
}

// Values returns a copy of the raw inputs in schema order.
func (v FeatureVector) Values() []float64 {
	return append([]float64(nil), v.values...)
}

func (v FeatureVector) Len() int {
	return len(v.values)
}

// Get returns the value of the named field.
func (v FeatureVector) Get(name string) (float64, bool) {
	idx := FieldIndex(name)
	if idx < 0 || idx >= len(v.values) {
		return 0, false
	}
	return v.values[idx], true
}

// Map returns the inputs keyed by field name.
func (v FeatureVector) Map() map[string]float64 {
	out := make(map[string]float64, len(v.values))
	for i, value := range v.values {
		out[Schema[i].Name] = value
	}
	return out
}

// Key is a stable textual form of the vector, suitable as a cache key.
func (v FeatureVector) Key() string {
	return VectorKey(v.values)
}

func VectorKey(values []float64) string {
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = strconv.FormatFloat(value, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}
