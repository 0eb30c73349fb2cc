package services

import "errors"

// Errors shared between the service layer and the HTTP mapping.
var (
	// Resource lookups
	ErrRegistrationNotFound = errors.New("registration not found")

	// Validation and business rules
	ErrTeamNameRequired    = errors.New("team name is required")
	ErrParticipantCount    = errors.New("a team must have exactly 6 participants")
	ErrParticipantInvalid  = errors.New("participant details are incomplete or invalid")
	ErrNoFemaleParticipant = errors.New("at least one participant must be female")
	ErrIDCardMissing       = errors.New("id card file is missing for a participant")
	ErrIDCardUnsupported   = errors.New("id card must be a jpg, png or gif image")

	// Conflicts
	ErrTeamNameTaken = errors.New("team name has just been taken")

	// Collaborator failures
	ErrUploadFailed = errors.New("failed to store id card")
)
