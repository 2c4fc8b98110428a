package domain

import "github.com/shopspring/decimal"

// Visibility is the default-visibility policy a listing is built under.
type Visibility int

const (
	// PublishedOnly always restricts to published jobs and ignores any
	// requested status.
	PublishedOnly Visibility = iota
	// StatusFilter honors a requested status and defaults to published.
	// Non-published statuses are limited to what the actor may manage.
	StatusFilter
)

// Page selects a 1-based page of results.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps p to a valid page using size when p.Size is unset and
// max as the upper bound on the page size.
func (p Page) Normalize(size, max int) Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = size
	}
	if max > 0 && p.Size > max {
		p.Size = max
	}
	return p
}

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// JobQuery is a listing request as received from an interface.
type JobQuery struct {
	Status     string
	Search     string
	CategoryID *uint
	MinSalary  decimal.NullDecimal
	MaxSalary  decimal.NullDecimal
	Visibility Visibility
	Page       Page
}

// JobFilter is a resolved listing: every field is applied as-is by the
// repository.
type JobFilter struct {
	Status     JobStatus
	Search     string
	CategoryID *uint
	MinSalary  decimal.NullDecimal
	MaxSalary  decimal.NullDecimal
	OwnerID    *uint
	// None short-circuits to an empty result.
	None bool
}

// ApplicationFilter scopes an application listing.
type ApplicationFilter struct {
	ApplicantID *uint
	JobID       *uint
	Status      ApplicationStatus
}

// JobList is one page of jobs with the total match count.
type JobList struct {
	Jobs  []Job
	Count int64
	Page  Page
}

type ApplicationList struct {
	Applications []JobApplication
	Count        int64
	Page         Page
}
