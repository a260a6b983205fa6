package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"creditrisk/ml"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifacts(t *testing.T) (modelPath, scalerPath string) {
	t.Helper()
	dir := t.TempDir()
	late := 0.9
	onTime := -1.4

	scaler := ml.StandardScaler{Mean: make([]float64, ml.FeatureCount), Scale: make([]float64, ml.FeatureCount)}
	for i := range scaler.Scale {
		scaler.Scale[i] = 1
	}
	booster := ml.BoosterDump{
		BaseScore: 0.5,
		Objective: "binary:logistic",
		Trees: []ml.DumpNode{{
			NodeID: 0, Split: "NumberOfTimes90DaysLate", SplitCondition: 1, Yes: 1, No: 2, Missing: 1,
			Children: []ml.DumpNode{{NodeID: 1, Leaf: &onTime}, {NodeID: 2, Leaf: &late}},
		}},
	}

	modelPath = filepath.Join(dir, "xgb_model.json")
	scalerPath = filepath.Join(dir, "scaler.json")
	for path, v := range map[string]interface{}{modelPath: booster, scalerPath: scaler} {
		payload, err := json.Marshal(v)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, payload, 0o600))
	}
	return modelPath, scalerPath
}

func TestPredictCommand(t *testing.T) {
	modelPath, scalerPath := writeArtifacts(t)

	var out bytes.Buffer
	err := newApp(&out).Run([]string{"predict", "--model", modelPath, "--scaler", scalerPath, "--NumberOfTimes90DaysLate", "2"})
	require.NoError(t, err)
	assert.Equal(t, "High Credit Risk Detected! Probability: 71.09%\n", out.String())

	out.Reset()
	err = newApp(&out).Run([]string{"predict", "--model", modelPath, "--scaler", scalerPath, "--json"})
	require.NoError(t, err)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &payload))
	assert.Equal(t, "LowRisk", payload["label"])
}

func TestPredictCommandValidation(t *testing.T) {
	modelPath, scalerPath := writeArtifacts(t)

	var out bytes.Buffer
	err := newApp(&out).Run([]string{"predict", "--model", modelPath, "--scaler", scalerPath, "--age", "12"})
	var verr *ml.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "age", verr.Field)

	err = newApp(&out).Run([]string{"predict", "--model", modelPath, "--scaler", scalerPath, "--age", "12", "--clamp"})
	assert.NoError(t, err)
}

func TestPredictCommandMissingArtifact(t *testing.T) {
	_, scalerPath := writeArtifacts(t)

	var out bytes.Buffer
	err := newApp(&out).Run([]string{"predict", "--model", filepath.Join(t.TempDir(), "absent.json"), "--scaler", scalerPath})
	require.Error(t, err)
	assert.ErrorIs(t, err, ml.ErrArtifactMissing)
}
