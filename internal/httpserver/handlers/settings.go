package handlers

import (
	"net/http"

	"github.com/clipbook/clipbook/internal/domain"
	"github.com/clipbook/clipbook/internal/httpserver/deps"
)

type settingsResponse struct {
	Settings domain.Settings `json:"settings"`
}

// GetSettings returns the current user settings.
func GetSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, settingsResponse{Settings: d.Library.Settings()})
	}
}

// UpdateSettings merges a partial settings patch and returns the
// result. Omitted fields keep their current values.
func UpdateSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch domain.SettingsPatch
		if err := decodeJSON(w, r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, settingsResponse{
			Settings: d.Library.UpdateSettings(r.Context(), patch),
		})
	}
}
