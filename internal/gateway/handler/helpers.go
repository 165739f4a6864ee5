package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"opsgate/internal/command"
	"opsgate/internal/confirm"
	"opsgate/internal/interpret"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}

// respondError maps domain errors onto HTTP statuses and stable error codes.
func respondError(w http.ResponseWriter, err error) {
	var (
		validationErr *command.ValidationError
		noMatchErr    *interpret.NoMatchError
		unavailErr    *interpret.UnavailableError
		outputErr     *interpret.OutputError
		notFoundErr   *confirm.TokenNotFoundError
		decidedErr    *confirm.AlreadyDecidedError
		expiredErr    *confirm.ExpiredError
	)
	switch {
	case errors.Is(err, interpret.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, "empty_input", err.Error())
	case errors.Is(err, confirm.ErrBadDecision):
		writeError(w, http.StatusBadRequest, "bad_decision", err.Error())
	case errors.As(err, &outputErr):
		writeError(w, http.StatusBadGateway, "model_output_invalid", err.Error())
	case errors.As(err, &unavailErr):
		writeError(w, http.StatusBadGateway, "model_unavailable", err.Error())
	case errors.As(err, &noMatchErr):
		writeError(w, http.StatusUnprocessableEntity, "no_match", err.Error())
	case errors.As(err, &validationErr):
		writeError(w, http.StatusUnprocessableEntity, "invalid_command", err.Error())
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, "token_not_found", err.Error())
	case errors.As(err, &decidedErr):
		writeError(w, http.StatusConflict, "already_decided", err.Error())
	case errors.As(err, &expiredErr):
		writeError(w, http.StatusGone, "confirmation_expired", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// HandleHealth reports liveness.
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
