package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"creditrisk/inference"
	"creditrisk/ml"

	"go.uber.org/zap"
)

type fakePredictor struct {
	result inference.Result
	err    error
	got    ml.FeatureVector
	panic  bool
}

func (f *fakePredictor) Predict(ctx context.Context, features ml.FeatureVector) (inference.Result, error) {
	if f.panic {
		panic("boom")
	}
	f.got = features
	return f.result, f.err
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return payload
}

func postPredict(handler http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHandlePredict(t *testing.T) {
	predictor := &fakePredictor{result: inference.Result{Label: inference.HighRisk, Probability: 0.875}}
	mux := http.NewServeMux()
	RegisterHandlers(mux, predictor)

	w := postPredict(mux, "/api/predict", `{"age": 29, "NumberOfTimes90DaysLate": 4, "MonthlyIncome": null}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	payload := decodeBody(t, w)
	if payload["label"] != "HighRisk" {
		t.Fatalf("unexpected label: %v", payload["label"])
	}
	if payload["probability"].(float64) != 0.875 {
		t.Fatalf("unexpected probability: %v", payload["probability"])
	}
	if payload["message"] != "High Credit Risk Detected! Probability: 87.50%" {
		t.Fatalf("unexpected message: %v", payload["message"])
	}

	if age, _ := predictor.got.Get("age"); age != 29 {
		t.Fatalf("expected age 29, got %v", age)
	}
	if income, _ := predictor.got.Get("MonthlyIncome"); income != 5000 {
		t.Fatalf("expected default income, got %v", income)
	}
}

func TestHandlePredictValidation(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux, &fakePredictor{})

	cases := map[string]string{
		"out of range":  `{"age": 12}`,
		"unknown field": `{"salary": 12}`,
		"fractional":    `{"NumberOfDependents": 1.5}`,
		"not a number":  `{"age": "old"}`,
		"not an object": `[1, 2, 3]`,
		"broken":        `{"age":`,
		"second object": `{"age": 30} {}`,
		"trailing junk": `{"age": 30} {"age": 500} garbage`,
	}
	for name, body := range cases {
		w := postPredict(mux, "/api/predict", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, w.Code)
		}
		if decodeBody(t, w)["error"] == "" {
			t.Fatalf("%s: expected error message", name)
		}
	}
}

func TestHandlePredictClamp(t *testing.T) {
	predictor := &fakePredictor{result: inference.Result{Label: inference.LowRisk, Probability: 0.1}}
	mux := http.NewServeMux()
	RegisterHandlers(mux, predictor)

	w := postPredict(mux, "/api/predict?clamp=true", `{"age": 150, "DebtRatio": -3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if age, _ := predictor.got.Get("age"); age != 120 {
		t.Fatalf("expected clamped age 120, got %v", age)
	}
	if ratio, _ := predictor.got.Get("DebtRatio"); ratio != 0 {
		t.Fatalf("expected clamped ratio 0, got %v", ratio)
	}
}

func TestHandlePredictError(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux, &fakePredictor{err: &inference.PredictionError{Stage: "classify", Err: errors.New("shape mismatch")}})

	w := postPredict(mux, "/api/predict", `{}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if !strings.Contains(decodeBody(t, w)["error"].(string), "shape mismatch") {
		t.Fatalf("expected cause in error: %s", w.Body.String())
	}

	mux = http.NewServeMux()
	RegisterHandlers(mux, &fakePredictor{err: errors.New("unexpected")})
	if w := postPredict(mux, "/api/predict", `{}`); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestHandlerChain(t *testing.T) {
	config := DefaultServerConfig()
	config.MaxBodyBytes = 64
	handler := NewHandler(config, &fakePredictor{panic: true}, nil, zap.NewNop())

	w := postPredict(handler, "/api/predict", `{}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected security headers")
	}

	big := `{"age": 30` + strings.Repeat(" ", 128) + `}`
	if w := postPredict(handler, "/api/predict", big); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}
