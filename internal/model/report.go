package model

import "time"

// Report status and priority values set by the persistence layer on create.
const (
	StatusPending  = "pending"
	PriorityNormal = "normal"
)

// Report is the persisted citizen incident report.
// This is a pure domain model with no database-specific dependencies or tags.
// Rows are created once by the capture pipeline; later mutations (triage,
// assignment) belong to the agent/admin workflows outside this service.
type Report struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Description     *string   `json:"description"`
	Status          string    `json:"status"`
	Priority        string    `json:"priority"`
	AudioURL        *string   `json:"audio_url"`
	ImageURL        *string   `json:"image_url"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	CommuneID       *string   `json:"commune_id"`
	CitizenName     *string   `json:"citizen_name"`
	Phone           *string   `json:"phone"`
	SubmitterUserID *string   `json:"submitter_user_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// ReportInput carries the fields of a report create. Latitude and Longitude
// are pointers so the repository can tell "absent" from a zero coordinate
// when it is called directly by collaborators other than the orchestrator.
type ReportInput struct {
	Type            string
	Description     *string
	Latitude        *float64
	Longitude       *float64
	AudioURL        *string
	ImageURL        *string
	CommuneID       *string
	CitizenName     *string
	Phone           *string
	SubmitterUserID *string
}
