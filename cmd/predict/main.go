package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"creditrisk/config"
	"creditrisk/inference"
	"creditrisk/ml"

	"github.com/urfave/cli/v2"
	"golang.org/x/text/language"
)

var (
	version = "v0.0.1-default"

	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to the YAML config (optional when --model and --scaler are given)",
		Value: "config.yaml",
	}
	modelFlag = &cli.StringFlag{
		Name:  "model",
		Usage: "Classifier artifact path, overrides the config",
	}
	modelKindFlag = &cli.StringFlag{
		Name:  "model-kind",
		Usage: "Classifier artifact kind [xgboost, tree]",
	}
	scalerFlag = &cli.StringFlag{
		Name:  "scaler",
		Usage: "Scaler artifact path, overrides the config",
	}
	scalerKindFlag = &cli.StringFlag{
		Name:  "scaler-kind",
		Usage: "Scaler artifact kind [standard, minmax]",
	}
	clampFlag = &cli.BoolFlag{
		Name:  "clamp",
		Usage: "Force out-of-range inputs into range instead of failing",
	}
	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the result as JSON",
	}
	langFlag = &cli.StringFlag{
		Name:  "lang",
		Usage: "BCP 47 language used to format the probability",
		Value: "en",
	}
)

func main() {
	app := newApp(os.Stdout)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	flags := []cli.Flag{configFlag, modelFlag, modelKindFlag, scalerFlag, scalerKindFlag, clampFlag, jsonFlag, langFlag}
	for _, f := range ml.Schema {
		flags = append(flags, &cli.Float64Flag{
			Name:     f.Name,
			Usage:    fmt.Sprintf("%s (%s, %v to %v)", f.Label, f.Kind, f.Min, f.Max),
			Value:    f.Default,
			Category: "features",
		})
	}

	return &cli.App{
		Name:     "predict",
		Version:  version,
		Compiled: time.Now(),
		Usage:    "Score one customer against the credit risk model",
		Flags:    flags,
		Writer:   out,
		Action: func(c *cli.Context) error {
			return run(c, out)
		},
	}
}

func run(c *cli.Context, out io.Writer) error {
	modelConfig, err := resolveModelConfig(c)
	if err != nil {
		return err
	}

	named := make(map[string]float64)
	for _, f := range ml.Schema {
		if c.IsSet(f.Name) {
			named[f.Name] = c.Float64(f.Name)
		}
	}
	var features ml.FeatureVector
	if c.Bool(clampFlag.Name) {
		features, err = ml.ClampFeatures(named)
	} else {
		features, err = ml.NewFeatureVector(named)
	}
	if err != nil {
		return err
	}

	service, err := inference.Load(modelConfig)
	if err != nil {
		return err
	}
	result, err := service.Predict(c.Context, features)
	if err != nil {
		return err
	}

	tag, err := language.Parse(c.String(langFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid --lang: %w", err)
	}
	if c.Bool(jsonFlag.Name) {
		return json.NewEncoder(out).Encode(map[string]interface{}{
			"label":       result.Label,
			"probability": result.Probability,
			"message":     result.Message(tag),
		})
	}
	_, err = fmt.Fprintln(out, result.Message(tag))
	return err
}

func resolveModelConfig(c *cli.Context) (config.ModelConfig, error) {
	cfg := config.Default()
	loaded, err := config.Load(c.String(configFlag.Name))
	switch {
	case err == nil:
		cfg = loaded
	case errors.Is(err, fs.ErrNotExist) && !c.IsSet(configFlag.Name):
		// flags alone are enough
	default:
		return config.ModelConfig{}, err
	}

	model := cfg.Model
	if c.IsSet(modelFlag.Name) {
		model.ClassifierPath = c.String(modelFlag.Name)
	}
	if c.IsSet(modelKindFlag.Name) {
		model.ClassifierKind = c.String(modelKindFlag.Name)
	}
	if c.IsSet(scalerFlag.Name) {
		model.ScalerPath = c.String(scalerFlag.Name)
	}
	if c.IsSet(scalerKindFlag.Name) {
		model.ScalerKind = c.String(scalerKindFlag.Name)
	}
	model.CacheSize = 0
	return model, nil
}
