// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package api

import (
	"net/http"

	"github.com/goccy/go-json"
)

// errorResponse is the JSON envelope for every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
