// Package config loads the YAML configuration shared by the server and the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"creditrisk/logging"
	"creditrisk/ml"

	"gopkg.in/yaml.v2"
)

type Config struct {
	HTTP  HTTPConfig     `yaml:"http"`
	Model ModelConfig    `yaml:"model"`
	Log   logging.Config `yaml:"log"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

type ModelConfig struct {
	ClassifierPath string `yaml:"classifier_path"`
	ClassifierKind string `yaml:"classifier_kind"`
	ScalerPath     string `yaml:"scaler_path"`
	ScalerKind     string `yaml:"scaler_kind"`
	CacheSize      int    `yaml:"cache_size"`
	WatchArtifacts bool   `yaml:"watch_artifacts"`
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:           8080,
			Timeout:        30 * time.Second,
			AllowedOrigins: []string{"*"},
			MaxBodyBytes:   1 << 16,
		},
		Model: ModelConfig{
			ClassifierPath: "xgb_model.json",
			ClassifierKind: ml.ClassifierXGBoost,
			ScalerPath:     "scaler.json",
			ScalerKind:     ml.ScalerStandard,
			CacheSize:      1024,
		},
		Log: logging.Config{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path over the defaults. Relative artifact and log paths are
// resolved against the directory holding the config file.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	config.Model.ClassifierPath = resolve(dir, config.Model.ClassifierPath)
	config.Model.ScalerPath = resolve(dir, config.Model.ScalerPath)
	config.Log.File = resolve(dir, config.Log.File)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http.timeout must be positive"))
	}
	if c.Model.ClassifierPath == "" {
		errs = append(errs, errors.New("model.classifier_path is required"))
	}
	if c.Model.ScalerPath == "" {
		errs = append(errs, errors.New("model.scaler_path is required"))
	}
	if c.Model.CacheSize < 0 {
		errs = append(errs, errors.New("model.cache_size must not be negative"))
	}
	return errors.Join(errs...)
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
