package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/hackathon-registration/models"
	"github.com/Dosada05/hackathon-registration/services"
)

// maxRegisterBytes caps a registration submission: six id-card images at
// 5 MiB each plus headroom for the form fields.
const maxRegisterBytes = 6*5<<20 + 1<<20

// RegistrationService is the part of the service layer the handler needs.
type RegistrationService interface {
	CheckNameAvailable(ctx context.Context, name string) (bool, error)
	Register(ctx context.Context, teamName string, participants []services.ParticipantInput, files []services.IDCardFile) (string, error)
	GetRegistration(ctx context.Context, registrationID string) (*models.Team, error)
}

type RegistrationHandler struct {
	service RegistrationService
	logger  *slog.Logger
}

func NewRegistrationHandler(service RegistrationService, logger *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		service: service,
		logger:  logger,
	}
}

// Test is the liveness probe.
func (h *RegistrationHandler) Test(w http.ResponseWriter, r *http.Request) {
	response := jsonResponse{"message": "Server is running correctly!"}
	if err := writeJSON(w, http.StatusOK, response); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// CheckTeamName is the advisory availability probe. Absence of the name
// simply means available; the endpoint never reports not-found.
func (h *RegistrationHandler) CheckTeamName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		badRequestResponse(w, errors.New("missing team name in URL path"))
		return
	}

	available, err := h.service.CheckNameAvailable(r.Context(), name)
	if err != nil {
		serverErrorResponse(w, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"available": available}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// Register accepts the multipart registration form: teamName, a JSON-encoded
// participants array, and up to six idCards file parts correlated with the
// participants by position.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRegisterBytes)

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		badRequestResponse(w, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	teamName := r.FormValue("teamName")

	participantsJSON := r.FormValue("participants")
	if participantsJSON == "" {
		badRequestResponse(w, errors.New("participants field is required"))
		return
	}
	var participants []services.ParticipantInput
	if err := json.Unmarshal([]byte(participantsJSON), &participants); err != nil {
		badRequestResponse(w, fmt.Errorf("participants field contains invalid JSON: %w", err))
		return
	}

	var files []services.IDCardFile
	if r.MultipartForm != nil {
		headers := r.MultipartForm.File["idCards"]
		if len(headers) > services.TeamSize {
			badRequestResponse(w, fmt.Errorf("at most %d id cards are accepted", services.TeamSize))
			return
		}
		for _, header := range headers {
			file, err := header.Open()
			if err != nil {
				badRequestResponse(w, fmt.Errorf("failed to read id card %q: %w", header.Filename, err))
				return
			}
			defer file.Close()

			files = append(files, services.IDCardFile{
				Reader:      file,
				ContentType: header.Header.Get("Content-Type"),
				Filename:    header.Filename,
			})
		}
	}

	registrationID, err := h.service.Register(r.Context(), teamName, participants, files)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	response := jsonResponse{
		"success":        true,
		"registrationId": registrationID,
	}
	if err := writeJSON(w, http.StatusCreated, response); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// GetRegistration returns a registered team with its roster by registration
// identifier.
func (h *RegistrationHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "registrationId")
	if registrationID == "" {
		badRequestResponse(w, errors.New("missing registration id in URL path"))
		return
	}

	team, err := h.service.GetRegistration(r.Context(), registrationID)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}
