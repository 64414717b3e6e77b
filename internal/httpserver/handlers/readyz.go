package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/clipbook/clipbook/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Redis string `json:"redis"`
}

// Readyz reports whether the daemon can serve durably: memory always
// can, but a dead Redis means writes are only buffered, so readiness
// follows the store.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redisStatus := "ok"
		ready := true

		if d.RedisClient == nil {
			redisStatus = "not configured"
			ready = false
		} else {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.RedisClient.Ping(ctx).Err(); err != nil {
				redisStatus = "unreachable"
				ready = false
			}
		}

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, readyzResponse{Ready: ready, Redis: redisStatus})
	}
}
