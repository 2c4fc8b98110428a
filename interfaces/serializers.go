package interfaces

import (
	"time"

	"github.com/shopspring/decimal"

	"jobboard/domain"
)

type jobResponse struct {
	ID             uint                `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	CompanyName    string              `json:"company_name"`
	Location       string              `json:"location"`
	SalaryMin      *string             `json:"salary_min"`
	SalaryMax      *string             `json:"salary_max"`
	Status         domain.JobStatus    `json:"status"`
	Category       *domain.JobCategory `json:"category"`
	CreatedByEmail string              `json:"created_by_email"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	PublishedAt    *time.Time          `json:"published_at"`
}

func newJobResponse(j *domain.Job) jobResponse {
	return jobResponse{
		ID:             j.ID,
		Title:          j.Title,
		Description:    j.Description,
		CompanyName:    j.CompanyName,
		Location:       j.Location,
		SalaryMin:      money(j.SalaryMin),
		SalaryMax:      money(j.SalaryMax),
		Status:         j.Status,
		Category:       j.Category,
		CreatedByEmail: j.CreatedBy.Email,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
		PublishedAt:    j.PublishedAt,
	}
}

// money renders a salary with two decimal places, or nil.
func money(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(2)
	return &s
}

type applicationResponse struct {
	ID             uint                     `json:"id"`
	Job            uint                     `json:"job"`
	JobTitle       string                   `json:"job_title"`
	Applicant      uint                     `json:"applicant"`
	ApplicantEmail string                   `json:"applicant_email"`
	CoverLetter    string                   `json:"cover_letter"`
	ResumeURL      *string                  `json:"resume_url"`
	Status         domain.ApplicationStatus `json:"status"`
	AppliedAt      time.Time                `json:"applied_at"`
	ReviewedAt     *time.Time               `json:"reviewed_at"`
}

func newApplicationResponse(a *domain.JobApplication) applicationResponse {
	return applicationResponse{
		ID:             a.ID,
		Job:            a.JobID,
		JobTitle:       a.Job.Title,
		Applicant:      a.ApplicantID,
		ApplicantEmail: a.Applicant.Email,
		CoverLetter:    a.CoverLetter,
		ResumeURL:      a.ResumeURL,
		Status:         a.Status,
		AppliedAt:      a.AppliedAt,
		ReviewedAt:     a.ReviewedAt,
	}
}

// pageResponse is the envelope for paginated listings.
type pageResponse struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Results  any   `json:"results"`
}

func newJobPage(list *domain.JobList) pageResponse {
	results := make([]jobResponse, 0, len(list.Jobs))
	for i := range list.Jobs {
		results = append(results, newJobResponse(&list.Jobs[i]))
	}
	return pageResponse{Count: list.Count, Page: list.Page.Number, PageSize: list.Page.Size, Results: results}
}

func newApplicationPage(list *domain.ApplicationList) pageResponse {
	results := make([]applicationResponse, 0, len(list.Applications))
	for i := range list.Applications {
		results = append(results, newApplicationResponse(&list.Applications[i]))
	}
	return pageResponse{Count: list.Count, Page: list.Page.Number, PageSize: list.Page.Size, Results: results}
}
