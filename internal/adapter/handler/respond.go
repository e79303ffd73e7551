package handler

import (
	"encoding/json"
	"net/http"

	"github.com/altuslabsxyz/alert-dispatch/internal/adapter/dto"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// dispatchStatus maps a dispatch result to a response code.
// Only retryable failures produce a 5xx so the sender retries the group.
func dispatchStatus(out *dto.DispatchOutput) int {
	for _, r := range out.Results {
		if r.Retryable {
			return http.StatusBadGateway
		}
	}
	return http.StatusOK
}
