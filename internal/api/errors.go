package api

import (
	"encoding/json"
	"net/http"

	"reach/workflowd/internal/wferrors"
)

// writeDetail writes the {"detail": ...} error envelope spec §7 requires.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// writeEngineError maps a domain error to its HTTP status and detail.
func writeEngineError(w http.ResponseWriter, err error) {
	if we, ok := wferrors.As(err); ok {
		writeDetail(w, we.Code.HTTPStatus(), we.Detail())
		return
	}
	writeDetail(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
