package domain

import "time"

type EventType string

const (
	EventJobPublished         EventType = "job.published"
	EventJobClosed            EventType = "job.closed"
	EventApplicationSubmitted EventType = "application.submitted"
	EventApplicationReviewed  EventType = "application.reviewed"
)

// Event is a lifecycle notice fanned out to subscribers such as the
// analytics sink.
type Event struct {
	Type          EventType `json:"type"`
	JobID         uint      `json:"job_id"`
	ApplicationID uint      `json:"application_id,omitempty"`
	ActorID       uint      `json:"actor_id,omitempty"`
	Status        string    `json:"status"`
	Title         string    `json:"title"`
	CompanyName   string    `json:"company_name"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Notification is an email handed to a dispatcher.
type Notification struct {
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	From       string   `json:"from"`
	Recipients []string `json:"recipients"`
}
