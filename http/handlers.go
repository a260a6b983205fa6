package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"creditrisk/inference"
	"creditrisk/ml"

	"golang.org/x/text/language"
)

var supportedLanguages = language.NewMatcher([]language.Tag{
	language.English,
	language.German,
	language.French,
})

type predictResponse struct {
	Label       inference.Label `json:"label"`
	Probability float64         `json:"probability"`
	Message     string          `json:"message"`
}

type handlers struct {
	predictor Predictor
}

func RegisterHandlers(mux *http.ServeMux, predictor Predictor) {
	h := &handlers{predictor: predictor}
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/schema", handleSchema)
	mux.HandleFunc("POST /api/predict", h.handlePredict)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fields": ml.Schema,
	})
}

// handlePredict accepts a JSON object keyed by field name. Missing or null
// fields take their defaults; ?clamp=true forces values into range instead of
// rejecting them.
func (h *handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	var body map[string]*float64
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(&body)
	if err == nil {
		// exactly one object per request
		if _, tokErr := dec.Token(); tokErr != io.EOF {
			err = tokErr
			if err == nil {
				err = errors.New("unexpected data after JSON object")
			}
		}
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	named := make(map[string]float64, len(body))
	for name, value := range body {
		if value != nil {
			named[name] = *value
		}
	}

	clamp, _ := strconv.ParseBool(r.URL.Query().Get("clamp"))
	var features ml.FeatureVector
	if clamp {
		features, err = ml.ClampFeatures(named)
	} else {
		features, err = ml.NewFeatureVector(named)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.predictor.Predict(r.Context(), features)
	if err != nil {
		var perr *inference.PredictionError
		switch {
		case errors.As(err, &perr):
			writeError(w, http.StatusUnprocessableEntity, perr.Error())
		case r.Context().Err() != nil:
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	tag, _ := language.MatchStrings(supportedLanguages, r.Header.Get("Accept-Language"))
	writeJSON(w, http.StatusOK, predictResponse{
		Label:       result.Label,
		Probability: result.Probability,
		Message:     result.Message(tag),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
