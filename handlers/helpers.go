package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/hackathon-registration/services"
)

type jsonResponse map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

// errorResponse writes the failure envelope the client expects:
// {"success": false, "message": "..."}.
func errorResponse(w http.ResponseWriter, status int, message string) {
	env := jsonResponse{"success": false, "message": message}
	if err := writeJSON(w, status, env); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func badRequestResponse(w http.ResponseWriter, err error) {
	errorResponse(w, http.StatusBadRequest, err.Error())
}

func conflictResponse(w http.ResponseWriter, message string) {
	errorResponse(w, http.StatusConflict, message)
}

func notFoundResponse(w http.ResponseWriter, message string) {
	errorResponse(w, http.StatusNotFound, message)
}

func serverErrorResponse(w http.ResponseWriter, logger *slog.Logger, err error) {
	// The real error stays in the server log; the client gets a generic line.
	logger.Error("internal server error", slog.Any("error", err))
	errorResponse(w, http.StatusInternalServerError, "An unexpected server error occurred.")
}

// mapServiceErrorToHTTP converts service-layer errors into HTTP responses.
func mapServiceErrorToHTTP(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrRegistrationNotFound):
		notFoundResponse(w, err.Error())

	case errors.Is(err, services.ErrTeamNameTaken):
		conflictResponse(w, err.Error())

	case errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrParticipantCount),
		errors.Is(err, services.ErrParticipantInvalid),
		errors.Is(err, services.ErrNoFemaleParticipant),
		errors.Is(err, services.ErrIDCardMissing),
		errors.Is(err, services.ErrIDCardUnsupported):
		badRequestResponse(w, err)

	default:
		// Upstream failures (store, object storage) and anything unexpected.
		serverErrorResponse(w, logger, err)
	}
}
