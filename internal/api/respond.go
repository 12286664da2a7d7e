package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/abhisek/quizmastery/internal/quiz"
)

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageBody{Message: msg})
}

// statusFor maps engine errors to HTTP statuses. Anything unrecognized is a
// server error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, quiz.ErrAlreadyMastered):
		return http.StatusForbidden
	case errors.Is(err, quiz.ErrNoActiveSession), errors.Is(err, quiz.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, quiz.ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
