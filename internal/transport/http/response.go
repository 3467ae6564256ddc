package http

import (
	"context"
	"errors"
	"net/http"

	"coding-trivia-service/internal/domain"
	"coding-trivia-service/pkg/logger"
	json "github.com/bytedance/sonic"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Success       bool   `json:"success"`
	Data          any    `json:"data,omitempty"`
	Message       string `json:"message,omitempty"`
	ParticipantID *int64 `json:"participantId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	data, err := json.Marshal(body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.ConfigDefault.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeError maps service errors onto status codes. Anything unrecognised is a 500
// whose details stay in the log.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrRoundNotFound):
		writeMessage(w, http.StatusNotFound, "round not found")
	case errors.Is(err, domain.ErrParticipantNotFound):
		writeMessage(w, http.StatusNotFound, "participant not found")
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeMessage(w, http.StatusConflict, "email already registered")
	case errors.Is(err, context.DeadlineExceeded):
		h.log.Warn(r.Context(), "request timed out", logger.String("path", r.URL.Path), logger.Error(err))
		writeMessage(w, http.StatusGatewayTimeout, "request timed out")
	default:
		h.log.Error(r.Context(), "request failed", logger.String("path", r.URL.Path), logger.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
