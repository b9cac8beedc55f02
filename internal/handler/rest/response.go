package hrest

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/sheikh-saqib/customer-ledger/internal/ledger"
)

type errorBody struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to 400 and everything else to 500.
func (h *LedgerRestHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := ledger.KindOf(err)
	if kind == "Internal" {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Kind: kind, Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusBadRequest, errorBody{Kind: kind, Error: err.Error()})
}
