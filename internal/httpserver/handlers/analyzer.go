package handlers

import (
	"net/http"

	"github.com/clipbook/clipbook/internal/httpserver/deps"
)

type contentRequest struct {
	Content string `json:"content"`
}

type explainResponse struct {
	Explanation string `json:"explanation"`
}

type optimizeResponse struct {
	Suggestions string `json:"suggestions"`
}

type relatedResponse struct {
	Queries []string `json:"queries"`
}

type analyzerStatusResponse struct {
	Available bool   `json:"available"`
	State     string `json:"state"`
	Model     string `json:"model,omitempty"`
}

// Explain returns a natural-language explanation of the posted
// content. An absent analyzer answers with its sentinel string, never
// an error status.
func Explain(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, explainResponse{
			Explanation: d.Analyzer.Explain(r.Context(), req.Content),
		})
	}
}

// Optimize returns improvement suggestions for the posted content.
func Optimize(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, optimizeResponse{
			Suggestions: d.Analyzer.SuggestOptimizations(r.Context(), req.Content),
		})
	}
}

// Related returns follow-up search queries for the posted content.
func Related(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, relatedResponse{
			Queries: d.Analyzer.RelatedQueries(r.Context(), req.Content),
		})
	}
}

// AnalyzerStatus reports the availability state machine's view of the
// external analyzer.
func AnalyzerStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, analyzerStatusResponse{
			Available: d.Analyzer.Available(),
			State:     d.Analyzer.State().String(),
			Model:     d.Analyzer.Model(),
		})
	}
}
