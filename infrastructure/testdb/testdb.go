// Package testdb provides an in-memory SQLite database and fixtures for
// tests across packages.
package testdb

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"jobboard/config"
	"jobboard/domain"
	"jobboard/infrastructure"
)

var seq atomic.Int64

// New opens a migrated, empty database private to t.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	db, err := infrastructure.NewDatabase(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    dsn,
	}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// User inserts a user whose token hash is derived from its email.
func User(t testing.TB, db *gorm.DB, email string, staff bool) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, IsStaff: staff, TokenHash: "hash-" + email}
	require.NoError(t, db.Create(u).Error)
	return u
}

func Category(t testing.TB, db *gorm.DB, name string) *domain.JobCategory {
	t.Helper()
	c := &domain.JobCategory{Name: name, Description: name + " roles"}
	require.NoError(t, db.Create(c).Error)
	return c
}

// JobOption customizes a fixture job before it is inserted.
type JobOption func(*domain.Job)

func WithTitle(title string) JobOption {
	return func(j *domain.Job) { j.Title = title }
}

func WithCompany(company string) JobOption {
	return func(j *domain.Job) { j.CompanyName = company }
}

func WithDescription(description string) JobOption {
	return func(j *domain.Job) { j.Description = description }
}

func WithCategory(c *domain.JobCategory) JobOption {
	return func(j *domain.Job) { j.CategoryID = &c.ID }
}

func WithSalary(min, max int64) JobOption {
	return func(j *domain.Job) {
		j.SalaryMin = decimal.NewNullDecimal(decimal.NewFromInt(min))
		j.SalaryMax = decimal.NewNullDecimal(decimal.NewFromInt(max))
	}
}

func Job(t testing.TB, db *gorm.DB, owner *domain.User, status domain.JobStatus, opts ...JobOption) *domain.Job {
	t.Helper()
	j := &domain.Job{
		Title:       "Software Engineer",
		Description: "Write and review code",
		CompanyName: "Acme",
		Location:    "Remote",
		Status:      status,
		CreatedByID: owner.ID,
	}
	if status == domain.JobPublished {
		at := time.Now().UTC()
		j.PublishedAt = &at
	}
	for _, opt := range opts {
		opt(j)
	}
	require.NoError(t, db.Omit("Category", "CreatedBy").Create(j).Error)
	return j
}

func Application(t testing.TB, db *gorm.DB, job *domain.Job, applicant *domain.User, status domain.ApplicationStatus) *domain.JobApplication {
	t.Helper()
	a := &domain.JobApplication{
		JobID:       job.ID,
		ApplicantID: applicant.ID,
		CoverLetter: "I am interested",
		Status:      status,
		AppliedAt:   time.Now().UTC(),
	}
	require.NoError(t, db.Omit("Job", "Applicant").Create(a).Error)
	return a
}
