package models

import "time"

type Grievance struct {
	ID        int       `json:"id"`
	By        int       `json:"by"`
	Against   int       `json:"against"`
	Text      string    `json:"text"`
	Images    [][]byte  `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRef is the counterparty as rendered in listings.
type UserRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GrievanceView is a grievance joined with the counterparty's display
// name. For grievances filed by the viewer the counterparty is the
// target; for grievances against the viewer it is the filer.
type GrievanceView struct {
	ID           int       `json:"id"`
	Text         string    `json:"text"`
	Counterparty UserRef   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
