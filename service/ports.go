// Package service holds the job board's operations. Every rule about who
// may do what, and which status changes are legal, lives here so the JSON
// API, the HTML pages and the CLI behave the same.
package service

import (
	"context"
	"time"

	"jobboard/domain"
)

type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, id uint) (*domain.Job, error)
	List(ctx context.Context, f domain.JobFilter, page domain.Page) ([]domain.Job, int64, error)
	Update(ctx context.Context, job *domain.Job) error
	Delete(ctx context.Context, id uint) error
	Publish(ctx context.Context, id uint, at time.Time) (bool, error)
	Close(ctx context.Context, id uint) (bool, error)
	Statistics(ctx context.Context, id uint) (domain.JobStatistics, error)
}

type ApplicationStore interface {
	CreateForOpenJob(ctx context.Context, app *domain.JobApplication) error
	Get(ctx context.Context, id uint) (*domain.JobApplication, error)
	List(ctx context.Context, f domain.ApplicationFilter, page domain.Page) ([]domain.JobApplication, int64, error)
	SetStatus(ctx context.Context, id uint, status domain.ApplicationStatus, at time.Time) error
	Delete(ctx context.Context, id uint) error
}

type CategoryStore interface {
	List(ctx context.Context) ([]domain.JobCategory, error)
	Get(ctx context.Context, id uint) (*domain.JobCategory, error)
	Create(ctx context.Context, c *domain.JobCategory) error
	Delete(ctx context.Context, id uint) error
}

type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id uint) (*domain.User, error)
	GetByTokenHash(ctx context.Context, hash string) (*domain.User, error)
}

// Dispatcher delivers an email notification.
type Dispatcher interface {
	Dispatch(ctx context.Context, n domain.Notification) error
}

// EventPublisher fans out lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, e domain.Event) error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.Event) error { return nil }

// Paging holds default and maximum page sizes.
type Paging struct {
	Size int
	Max  int
}
