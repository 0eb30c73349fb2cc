package models

import "time"

type Department string

const (
	DepartmentCS    Department = "CS"
	DepartmentIT    Department = "IT"
	DepartmentBT    Department = "BT"
	DepartmentBAMMC Department = "BAMMC"
)

func (d Department) Valid() bool {
	switch d {
	case DepartmentCS, DepartmentIT, DepartmentBT, DepartmentBAMMC:
		return true
	}
	return false
}

type Year string

const (
	YearFY Year = "FY"
	YearSY Year = "SY"
	YearTY Year = "TY"
)

func (y Year) Valid() bool {
	switch y {
	case YearFY, YearSY, YearTY:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

type Participant struct {
	ID          int        `json:"id" db:"id"`
	TeamID      int        `json:"team_id" db:"team_id"`
	Name        string     `json:"name" db:"name"`
	RollNumber  string     `json:"roll_number" db:"roll_number"`
	Department  Department `json:"department" db:"department"`
	Year        Year       `json:"year" db:"year"`
	Gender      Gender     `json:"gender" db:"gender"`
	PhoneNumber string     `json:"phone_number" db:"phone_number"`
	IDCardURL   string     `json:"id_card_url" db:"id_card_url"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}
