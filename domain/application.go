package domain

import (
	"fmt"
	"strings"
	"time"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationReviewed ApplicationStatus = "reviewed"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// ReviewStatuses are the statuses a staff review may set. Pending is only
// ever the initial state.
var ReviewStatuses = []ApplicationStatus{ApplicationReviewed, ApplicationAccepted, ApplicationRejected}

// ParseReviewStatus validates a requested review outcome.
func ParseReviewStatus(s string) (ApplicationStatus, error) {
	for _, st := range ReviewStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	names := make([]string, len(ReviewStatuses))
	for i, st := range ReviewStatuses {
		names[i] = string(st)
	}
	verr := NewValidationError("Invalid status. Must be one of: " + strings.Join(names, ", "))
	verr.Add("status", verr.Message)
	return "", verr
}

// JobApplication is one user's submission against a job. (job, applicant)
// is unique at the storage layer.
type JobApplication struct {
	ID          uint              `gorm:"primaryKey"`
	JobID       uint              `gorm:"not null;uniqueIndex:uq_application_job_applicant,priority:1"`
	Job         Job               `gorm:"constraint:OnDelete:CASCADE"`
	ApplicantID uint              `gorm:"not null;uniqueIndex:uq_application_job_applicant,priority:2;index"`
	Applicant   User              `gorm:"constraint:OnDelete:CASCADE"`
	CoverLetter string            `gorm:"type:text"`
	ResumeURL   *string           `gorm:"size:200"`
	Status      ApplicationStatus `gorm:"size:20;not null;default:pending;index"`
	AppliedAt   time.Time         `gorm:"autoCreateTime"`
	ReviewedAt  *time.Time
}

func (a JobApplication) String() string {
	return fmt.Sprintf("%s applied for %s", a.Applicant.Email, a.Job.Title)
}

// ApplicationFields is what an applicant submits.
type ApplicationFields struct {
	CoverLetter string `json:"cover_letter" form:"cover_letter"`
	ResumeURL   string `json:"resume_url" form:"resume_url" validate:"omitempty,url,max=200"`
}

func (f ApplicationFields) Validate() error {
	verr := validateStruct(f)
	if verr.Empty() {
		return nil
	}
	return verr
}

// ResumeURLPtr returns nil for an empty resume URL.
func (f ApplicationFields) ResumeURLPtr() *string {
	u := strings.TrimSpace(f.ResumeURL)
	if u == "" {
		return nil
	}
	return &u
}
