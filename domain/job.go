package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type JobStatus string

const (
	JobDraft     JobStatus = "draft"
	JobPublished JobStatus = "published"
	JobClosed    JobStatus = "closed"
)

// JobStatuses lists every job status in lifecycle order.
var JobStatuses = []JobStatus{JobDraft, JobPublished, JobClosed}

func (s JobStatus) Valid() bool {
	switch s {
	case JobDraft, JobPublished, JobClosed:
		return true
	}
	return false
}

// CanTransitionTo reports whether an edit may move a job from s to next.
// Closed is terminal, and nothing returns to draft.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case JobDraft:
		return next == JobPublished || next == JobClosed
	case JobPublished:
		return next == JobClosed
	}
	return false
}

// Job is a posted position.
type Job struct {
	ID          uint                `gorm:"primaryKey"`
	Title       string              `gorm:"size:200;not null"`
	Description string              `gorm:"type:text;not null"`
	CompanyName string              `gorm:"size:100;not null;index"`
	Location    string              `gorm:"size:100;not null"`
	SalaryMin   decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	SalaryMax   decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	Status      JobStatus           `gorm:"size:20;not null;default:draft;index:idx_jobs_status_created,priority:1"`
	CategoryID  *uint               `gorm:"index"`
	Category    *JobCategory        `gorm:"constraint:OnDelete:SET NULL"`
	CreatedByID uint                `gorm:"not null;index"`
	CreatedBy   User                `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"index:idx_jobs_status_created,priority:2"`
	UpdatedAt   time.Time
	PublishedAt *time.Time
}

func (j Job) String() string {
	return fmt.Sprintf("%s at %s", j.Title, j.CompanyName)
}

// Fields returns the editable part of j.
func (j *Job) Fields() JobFields {
	return JobFields{
		Title:       j.Title,
		Description: j.Description,
		CompanyName: j.CompanyName,
		Location:    j.Location,
		SalaryMin:   j.SalaryMin,
		SalaryMax:   j.SalaryMax,
		Status:      j.Status,
		CategoryID:  j.CategoryID,
	}
}

// Apply copies f onto j.
func (j *Job) Apply(f JobFields) {
	j.Title = f.Title
	j.Description = f.Description
	j.CompanyName = f.CompanyName
	j.Location = f.Location
	j.SalaryMin = f.SalaryMin
	j.SalaryMax = f.SalaryMax
	j.Status = f.Status
	j.CategoryID = f.CategoryID
}

// JobFields is the writable surface of a job, shared by the JSON API and
// the HTML form.
type JobFields struct {
	Title       string              `json:"title" form:"title" validate:"required,singleline,max=200"`
	Description string              `json:"description" form:"description" validate:"required"`
	CompanyName string              `json:"company_name" form:"company_name" validate:"required,singleline,max=100"`
	Location    string              `json:"location" form:"location" validate:"required,singleline,max=100"`
	SalaryMin   decimal.NullDecimal `json:"salary_min" form:"-" validate:"-"`
	SalaryMax   decimal.NullDecimal `json:"salary_max" form:"-" validate:"-"`
	Status      JobStatus           `json:"status" form:"status" validate:"omitempty,oneof=draft published closed"`
	CategoryID  *uint               `json:"category_id" form:"-" validate:"-"`
}

// Validate checks field constraints and the salary range.
func (f JobFields) Validate() error {
	verr := validateStruct(f)
	if f.SalaryMin.Valid && f.SalaryMin.Decimal.IsNegative() {
		verr.Add("salary_min", "Ensure this value is greater than or equal to 0.")
	}
	if f.SalaryMin.Valid && f.SalaryMax.Valid && f.SalaryMin.Decimal.GreaterThan(f.SalaryMax.Decimal) {
		verr.Add("salary_max", "Maximum salary must be greater than minimum salary")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// JobStatistics counts applications for one job by status.
type JobStatistics struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
}
