package models

import "time"

type Team struct {
	ID             int       `json:"id" db:"id"`
	TeamName       string    `json:"team_name" db:"team_name"`
	RegistrationID string    `json:"registration_id" db:"registration_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	Participants []Participant `json:"participants,omitempty" db:"-"`
}
