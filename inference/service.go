// Package inference owns the loaded scaler and classifier and scores one
// feature vector per call.
package inference

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"creditrisk/config"
	"creditrisk/ml"
	"creditrisk/monitoring"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Service is safe for concurrent use. The scaler and classifier are never
// mutated after construction.
type Service struct {
	scaler     ml.Scaler
	classifier ml.Classifier
	artifacts  []Artifact

	cacheSize int
	cache     *lru.Cache[string, Result]
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithCacheSize memoizes up to size results. Zero disables the cache.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		s.cacheSize = size
	}
}

// New wraps already loaded artifacts.
func New(scaler ml.Scaler, classifier ml.Classifier, opts ...Option) (*Service, error) {
	if scaler == nil || classifier == nil {
		return nil, errors.New("scaler and classifier are required")
	}
	if err := ml.CheckCompatible(scaler, classifier); err != nil {
		return nil, err
	}
	s := &Service{
		scaler:     scaler,
		classifier: classifier,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cacheSize > 0 {
		cache, err := lru.New[string, Result](s.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Load reads both artifacts named by cfg. Any failure is a *StartupError.
func Load(cfg config.ModelConfig, opts ...Option) (*Service, error) {
	scaler, err := ml.LoadScaler(cfg.ScalerKind, cfg.ScalerPath)
	if err != nil {
		return nil, &StartupError{Artifact: "scaler", Path: cfg.ScalerPath, Err: err}
	}
	if err := ml.CheckScaler(scaler); err != nil {
		return nil, &StartupError{Artifact: "scaler", Path: cfg.ScalerPath, Err: err}
	}
	classifier, err := ml.LoadClassifier(cfg.ClassifierKind, cfg.ClassifierPath)
	if err != nil {
		return nil, &StartupError{Artifact: "classifier", Path: cfg.ClassifierPath, Err: err}
	}
	if err := ml.CheckCompatible(scaler, classifier); err != nil {
		return nil, &StartupError{Artifact: "classifier", Path: cfg.ClassifierPath, Err: err}
	}

	opts = append([]Option{WithCacheSize(cfg.CacheSize)}, opts...)
	s, err := New(scaler, classifier, opts...)
	if err != nil {
		return nil, &StartupError{Artifact: "classifier", Path: cfg.ClassifierPath, Err: err}
	}

	for _, a := range []Artifact{
		{Name: "scaler", Kind: kindOrDefault(cfg.ScalerKind, ml.ScalerStandard), Path: cfg.ScalerPath},
		{Name: "classifier", Kind: kindOrDefault(cfg.ClassifierKind, ml.ClassifierXGBoost), Path: cfg.ClassifierPath},
	} {
		digest, err := fileDigest(a.Path)
		if err != nil {
			return nil, &StartupError{Artifact: a.Name, Path: a.Path, Err: err}
		}
		a.SHA256 = digest
		s.artifacts = append(s.artifacts, a)
		s.logger.Info("artifact loaded",
			zap.String("artifact", a.Name),
			zap.String("kind", a.Kind),
			zap.String("path", a.Path),
			zap.String("sha256", a.SHA256),
		)
	}
	return s, nil
}

// Artifacts describes the files the service was loaded from. It is empty for
// services built with New.
func (s *Service) Artifacts() []Artifact {
	return append([]Artifact(nil), s.artifacts...)
}

// Predict scores a validated feature vector.
func (s *Service) Predict(ctx context.Context, features ml.FeatureVector) (Result, error) {
	return s.PredictValues(ctx, features.Values())
}

// PredictValues scores a raw schema-ordered slice. A slice of the wrong
// length, or any failure inside the scaler or classifier, is returned as a
// *PredictionError.
func (s *Service) PredictValues(ctx context.Context, values []float64) (result Result, err error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(values) != ml.FeatureCount {
		s.metrics.ObserveFailure(stageValidate)
		return Result{}, &PredictionError{
			Stage: stageValidate,
			Err:   fmt.Errorf("%w: got %d values, want %d", ml.ErrLengthMismatch, len(values), ml.FeatureCount),
		}
	}

	start := time.Now()
	key := ml.VectorKey(values)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			// hits count as predictions too
			s.metrics.ObserveCacheHit()
			s.metrics.ObservePrediction(cached.Label.String(), cached.Probability, time.Since(start))
			return cached, nil
		}
	}

	stage := stageScale
	defer func() {
		if r := recover(); r != nil {
			err = &PredictionError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			var perr *PredictionError
			if errors.As(err, &perr) {
				s.metrics.ObserveFailure(perr.Stage)
			}
			s.logger.Warn("prediction failed", zap.Error(err))
		}
	}()

	scaled, err := s.scaler.Transform(append([]float64(nil), values...))
	if err != nil {
		return Result{}, &PredictionError{Stage: stage, Err: err}
	}

	stage = stageClassify
	label, err := s.classifier.Predict(scaled)
	if err != nil {
		return Result{}, &PredictionError{Stage: stage, Err: err}
	}
	probability, err := s.classifier.PredictProba(scaled)
	if err != nil {
		return Result{}, &PredictionError{Stage: stage, Err: err}
	}
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		return Result{}, &PredictionError{Stage: stage, Err: fmt.Errorf("probability %v outside [0, 1]", probability)}
	}
	if label != int(LowRisk) && label != int(HighRisk) {
		return Result{}, &PredictionError{Stage: stage, Err: fmt.Errorf("classifier returned label %d", label)}
	}

	result = Result{Label: Label(label), Probability: probability}
	s.metrics.ObservePrediction(result.Label.String(), probability, time.Since(start))
	if s.cache != nil {
		s.cache.Add(key, result)
	}
	s.logger.Debug("prediction",
		zap.Stringer("label", result.Label),
		zap.Float64("probability", probability),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func kindOrDefault(kind, fallback string) string {
	if kind == "" {
		return fallback
	}
	return kind
}
