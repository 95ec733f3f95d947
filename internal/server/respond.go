package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrResp is the JSON error envelope
type ErrResp struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func respond(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Default().Error("respond: failed to encode response", "error", err)
		}
	}
}

func respondError(w http.ResponseWriter, status int, code, msg string) {
	e := ErrResp{}
	e.Error.Code = code
	e.Error.Message = msg
	respond(w, status, e)
}
