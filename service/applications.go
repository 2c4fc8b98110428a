package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"jobboard/domain"
)

// ApplicationService implements submission and review of applications.
type ApplicationService struct {
	apps     ApplicationStore
	notifier *NotificationService
	events   EventPublisher
	paging   Paging
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewApplicationService(apps ApplicationStore, notifier *NotificationService, events EventPublisher, paging Paging, log *zap.SugaredLogger) *ApplicationService {
	if events == nil {
		events = NopPublisher{}
	}
	return &ApplicationService{
		apps:     apps,
		notifier: notifier,
		events:   events,
		paging:   paging,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Apply submits actor's application to a published job and notifies the
// job owner. A notification failure is returned to the caller; the
// application itself is already stored at that point.
func (s *ApplicationService) Apply(ctx context.Context, actor domain.Actor, jobID uint, f domain.ApplicationFields) (*domain.JobApplication, error) {
	if !actor.IsAuthenticated {
		return nil, domain.ErrLoginRequired
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	app := &domain.JobApplication{
		JobID:       jobID,
		ApplicantID: actor.UserID,
		CoverLetter: f.CoverLetter,
		ResumeURL:   f.ResumeURLPtr(),
		Status:      domain.ApplicationPending,
		AppliedAt:   s.now(),
	}
	if err := s.apps.CreateForOpenJob(ctx, app); err != nil {
		return nil, err
	}
	s.log.Infow("Application submitted", "application_id", app.ID, "job_id", jobID, "user_id", actor.UserID)

	stored, err := s.apps.Get(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventApplicationSubmitted, stored, actor.UserID)

	if s.notifier != nil {
		if err := s.notifier.NotifyApplication(ctx, stored); err != nil {
			return stored, errors.Wrapf(err, "notify owner of job %d", jobID)
		}
	}
	return stored, nil
}

// List returns actor's own applications, or every application for staff.
func (s *ApplicationService) List(ctx context.Context, actor domain.Actor, page domain.Page) (*domain.ApplicationList, error) {
	if !actor.IsAuthenticated {
		return nil, domain.ErrLoginRequired
	}
	var f domain.ApplicationFilter
	if !actor.IsStaff {
		applicant := actor.UserID
		f.ApplicantID = &applicant
	}
	return s.list(ctx, f, page)
}

// Mine returns actor's own applications regardless of staff status.
func (s *ApplicationService) Mine(ctx context.Context, actor domain.Actor, page domain.Page) (*domain.ApplicationList, error) {
	if !actor.IsAuthenticated {
		return nil, domain.ErrLoginRequired
	}
	applicant := actor.UserID
	return s.list(ctx, domain.ApplicationFilter{ApplicantID: &applicant}, page)
}

func (s *ApplicationService) list(ctx context.Context, f domain.ApplicationFilter, page domain.Page) (*domain.ApplicationList, error) {
	page = page.Normalize(s.paging.Size, s.paging.Max)
	apps, count, err := s.apps.List(ctx, f, page)
	if err != nil {
		return nil, err
	}
	return &domain.ApplicationList{Applications: apps, Count: count, Page: page}, nil
}

// Get returns an application visible to actor. Other users' applications
// are reported as missing.
func (s *ApplicationService) Get(ctx context.Context, actor domain.Actor, id uint) (*domain.JobApplication, error) {
	if !actor.IsAuthenticated {
		return nil, domain.ErrLoginRequired
	}
	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff && !actor.Owns(app.ApplicantID) {
		return nil, domain.NotFound("application", id)
	}
	return app, nil
}

// Review sets a staff decision on an application and stamps reviewed_at.
func (s *ApplicationService) Review(ctx context.Context, actor domain.Actor, id uint, status string) (*domain.JobApplication, error) {
	if !actor.IsAuthenticated {
		return nil, domain.ErrLoginRequired
	}
	if !actor.IsStaff {
		return nil, domain.ErrStaffOnly
	}
	if _, err := s.apps.Get(ctx, id); err != nil {
		return nil, err
	}
	next, err := domain.ParseReviewStatus(status)
	if err != nil {
		return nil, err
	}

	if err := s.apps.SetStatus(ctx, id, next, s.now()); err != nil {
		return nil, err
	}
	s.log.Infow("Application reviewed", "application_id", id, "user_id", actor.UserID, "status", next)

	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventApplicationReviewed, app, actor.UserID)
	return app, nil
}

// Withdraw deletes an application visible to actor.
func (s *ApplicationService) Withdraw(ctx context.Context, actor domain.Actor, id uint) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.apps.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Infow("Application withdrawn", "application_id", id, "user_id", actor.UserID)
	return nil
}

func (s *ApplicationService) emit(ctx context.Context, t domain.EventType, app *domain.JobApplication, actorID uint) {
	e := domain.Event{
		Type:          t,
		JobID:         app.JobID,
		ApplicationID: app.ID,
		ActorID:       actorID,
		Status:        string(app.Status),
		Title:         app.Job.Title,
		CompanyName:   app.Job.CompanyName,
		OccurredAt:    s.now(),
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warnw("Event publish failed", "application_id", app.ID, "subject", t, "error", err)
	}
}
