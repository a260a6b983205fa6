package ml

import (
	"fmt"
)

const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"

	ClassifierXGBoost = "xgboost"
	ClassifierTree    = "tree"
)

func LoadScaler(kind, path string) (Scaler, error) {
	switch kind {
	case ScalerStandard, "":
		scaler := &StandardScaler{}
		if err := scaler.Load(path); err != nil {
			return nil, err
		}
		return scaler, nil
	case ScalerMinMax:
		scaler := &MinMaxScaler{}
		if err := scaler.Load(path); err != nil {
			return nil, err
		}
		return scaler, nil
	default:
		return nil, fmt.Errorf("%w: scaler %q", ErrUnsupportedKind, kind)
	}
}

func LoadClassifier(kind, path string) (Classifier, error) {
	switch kind {
	case ClassifierXGBoost, "":
		model := &GradientBoosted{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	case ClassifierTree:
		model := &DecisionTree{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("%w: classifier %q", ErrUnsupportedKind, kind)
	}
}

// CheckScaler verifies that the scaler was fitted on the schema width.
func CheckScaler(scaler Scaler) error {
	if scaler.Width() != FeatureCount {
		return fmt.Errorf("%w: scaler fitted on %d features, want %d", ErrLengthMismatch, scaler.Width(), FeatureCount)
	}
	return nil
}

// CheckCompatible verifies the scaler width and that the classifier never
// reads past it.
func CheckCompatible(scaler Scaler, classifier Classifier) error {
	if err := CheckScaler(scaler); err != nil {
		return err
	}
	if indexed, ok := classifier.(interface{ MaxFeatureIndex() int }); ok {
		if max := indexed.MaxFeatureIndex(); max >= scaler.Width() {
			return fmt.Errorf("%w: classifier reads feature %d of %d", ErrLengthMismatch, max, scaler.Width())
		}
	}
	return nil
}
