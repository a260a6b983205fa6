package ml

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func leaf(v float64) *float64 { return &v }

func sampleBooster() BoosterDump {
	return BoosterDump{
		BaseScore: 0.5,
		Objective: "binary:logistic",
		Trees: []DumpNode{
			{
				NodeID: 0, Split: "f1", SplitCondition: 30, Yes: 1, No: 2, Missing: 1,
				Children: []DumpNode{
					{NodeID: 1, Leaf: leaf(0.4)},
					{NodeID: 2, Leaf: leaf(-0.4)},
				},
			},
			{
				NodeID: 0, Split: "NumberOfTimes90DaysLate", SplitCondition: 1, Yes: 1, No: 2, Missing: 2,
				Children: []DumpNode{
					{NodeID: 1, Leaf: leaf(-0.2)},
					{NodeID: 2, Leaf: leaf(1.1)},
				},
			},
		},
	}
}

func TestGradientBoostedPredict(t *testing.T) {
	model, err := NewGradientBoosted(sampleBooster())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	young := []float64{0, 25, 0, 0, 0, 0, 0, 0, 0, 0}
	margin, err := model.Margin(young)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(margin-0.2) > 1e-12 {
		t.Fatalf("expected margin 0.2, got %v", margin)
	}
	proba, _ := model.PredictProba(young)
	if math.Abs(proba-1/(1+math.Exp(-0.2))) > 1e-12 {
		t.Fatalf("unexpected probability %v", proba)
	}
	if label, _ := model.Predict(young); label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}

	older := []float64{0, 45, 0, 0, 0, 0, 0, 0, 0, 0}
	if label, _ := model.Predict(older); label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}
}

func TestGradientBoostedMissingValue(t *testing.T) {
	model, err := NewGradientBoosted(sampleBooster())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	margin, err := model.Margin([]float64{0, math.NaN(), 0, 0, 0, 0, math.NaN(), 0, 0, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(margin-1.5) > 1e-12 {
		t.Fatalf("expected margin 1.5, got %v", margin)
	}
}

func TestGradientBoostedShortVector(t *testing.T) {
	model, _ := NewGradientBoosted(sampleBooster())
	if _, err := model.PredictProba([]float64{0, 1}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected length mismatch, got %v", err)
	}
}

func TestGradientBoostedRejectsBadDumps(t *testing.T) {
	dump := sampleBooster()
	dump.Objective = "reg:squarederror"
	if _, err := NewGradientBoosted(dump); err == nil {
		t.Fatal("expected error for regression objective")
	}

	dump = sampleBooster()
	dump.Trees[0].Yes = 7
	if _, err := NewGradientBoosted(dump); err == nil {
		t.Fatal("expected error for dangling child")
	}

	dump = sampleBooster()
	dump.Trees[1].Split = "Salary"
	if _, err := NewGradientBoosted(dump); err == nil {
		t.Fatal("expected error for unknown feature")
	}
}

func TestGradientBoostedLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xgb_model.json")
	if err := writeArtifact(path, sampleBooster()); err != nil {
		t.Fatal(err)
	}
	model := &GradientBoosted{}
	if err := model.Load(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.MaxFeatureIndex() != 6 {
		t.Fatalf("expected max feature 6, got %d", model.MaxFeatureIndex())
	}
}

func TestGradientBoostedComparesInFloat32(t *testing.T) {
	cut := float64(float32(0.1))
	model, err := NewGradientBoosted(BoosterDump{
		BaseScore: 0.5,
		Trees: []DumpNode{{
			NodeID: 0, Split: "f0", SplitCondition: cut, Yes: 1, No: 2, Missing: 1,
			Children: []DumpNode{
				{NodeID: 1, Leaf: leaf(-1)},
				{NodeID: 2, Leaf: leaf(1)},
			},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 0.1 < float32(0.1) in float64, but the two are equal in float32
	margin, err := model.Margin([]float64{0.1, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if margin != 1 {
		t.Fatalf("expected the no branch (margin 1), got %v", margin)
	}

	margin, _ = model.Margin([]float64{0.09, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	if margin != -1 {
		t.Fatalf("expected the yes branch (margin -1), got %v", margin)
	}
}
