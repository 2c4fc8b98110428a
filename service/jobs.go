package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"jobboard/domain"
)

// JobService implements listing, authoring and status transitions of jobs.
type JobService struct {
	jobs       JobStore
	categories CategoryStore
	events     EventPublisher
	paging     Paging
	log        *zap.SugaredLogger
	now        func() time.Time
}

func NewJobService(jobs JobStore, categories CategoryStore, events EventPublisher, paging Paging, log *zap.SugaredLogger) *JobService {
	if events == nil {
		events = NopPublisher{}
	}
	return &JobService{
		jobs:       jobs,
		categories: categories,
		events:     events,
		paging:     paging,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// BuildJobFilter resolves a listing request into a storage filter under the
// query's visibility policy. A status the actor may not see, or one that is
// not a job status at all, yields an empty listing.
func BuildJobFilter(actor domain.Actor, q domain.JobQuery) domain.JobFilter {
	f := domain.JobFilter{
		Status:     domain.JobPublished,
		Search:     strings.TrimSpace(q.Search),
		CategoryID: q.CategoryID,
		MinSalary:  q.MinSalary,
		MaxSalary:  q.MaxSalary,
	}
	if q.Visibility == domain.PublishedOnly || q.Status == "" {
		return f
	}

	status := domain.JobStatus(q.Status)
	switch {
	case !status.Valid():
		f.None = true
	case status == domain.JobPublished:
	case actor.IsStaff:
		f.Status = status
	case actor.IsAuthenticated:
		f.Status = status
		owner := actor.UserID
		f.OwnerID = &owner
	default:
		f.None = true
	}
	return f
}

// List returns one page of jobs visible to actor.
func (s *JobService) List(ctx context.Context, actor domain.Actor, q domain.JobQuery) (*domain.JobList, error) {
	page := q.Page.Normalize(s.paging.Size, s.paging.Max)
	jobs, count, err := s.jobs.List(ctx, BuildJobFilter(actor, q), page)
	if err != nil {
		return nil, err
	}
	return &domain.JobList{Jobs: jobs, Count: count, Page: page}, nil
}

// Get returns a job if actor may see it. Unpublished jobs are reported as
// missing to everyone but their owner and staff.
func (s *JobService) Get(ctx context.Context, actor domain.Actor, id uint) (*domain.Job, error) {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobPublished && !actor.CanManage(job.CreatedByID) {
		return nil, domain.NotFound("job", id)
	}
	return job, nil
}

// GetPublished returns a job only while it is published.
func (s *JobService) GetPublished(ctx context.Context, id uint) (*domain.Job, error) {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobPublished {
		return nil, domain.NotFound("job", id)
	}
	return job, nil
}

// GetForEdit returns a job actor may modify.
func (s *JobService) GetForEdit(ctx context.Context, actor domain.Actor, id uint) (*domain.Job, error) {
	if !actor.IsAuthenticated {
		return nil, domain.ErrLoginRequired
	}
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(job.CreatedByID) {
		return nil, domain.ErrNotOwner
	}
	return job, nil
}

// Create stores a new job owned by actor. Jobs start as drafts unless a
// status is given.
func (s *JobService) Create(ctx context.Context, actor domain.Actor, f domain.JobFields) (*domain.Job, error) {
	if !actor.IsAuthenticated {
		return nil, domain.ErrLoginRequired
	}
	if f.Status == "" {
		f.Status = domain.JobDraft
	}
	if err := s.validate(ctx, f); err != nil {
		return nil, err
	}

	job := &domain.Job{CreatedByID: actor.UserID}
	job.Apply(f)
	if job.Status == domain.JobPublished {
		at := s.now()
		job.PublishedAt = &at
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	s.log.Infow("Job created", "job_id", job.ID, "user_id", actor.UserID, "status", job.Status)

	if job.Status != domain.JobDraft {
		s.emit(ctx, statusEvent(job.Status), job, actor.UserID)
	}
	return s.jobs.Get(ctx, job.ID)
}

// Update replaces the editable fields of a job. An empty status keeps the
// current one; other status changes must follow the job lifecycle.
func (s *JobService) Update(ctx context.Context, actor domain.Actor, id uint, f domain.JobFields) (*domain.Job, error) {
	job, err := s.GetForEdit(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if f.Status == "" {
		f.Status = job.Status
	}
	if err := s.validate(ctx, f); err != nil {
		return nil, err
	}
	if !job.Status.CanTransitionTo(f.Status) {
		return nil, domain.FieldError("status",
			fmt.Sprintf("A %s job cannot be moved to %s.", job.Status, f.Status))
	}

	previous := job.Status
	job.Apply(f)
	if job.Status == domain.JobPublished && job.PublishedAt == nil {
		at := s.now()
		job.PublishedAt = &at
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, err
	}
	s.log.Infow("Job updated", "job_id", job.ID, "user_id", actor.UserID, "status", job.Status)

	if previous != job.Status {
		s.emit(ctx, statusEvent(job.Status), job, actor.UserID)
	}
	return s.jobs.Get(ctx, job.ID)
}

// Delete removes a job and its applications.
func (s *JobService) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	if _, err := s.GetForEdit(ctx, actor, id); err != nil {
		return err
	}
	if err := s.jobs.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Infow("Job deleted", "job_id", id, "user_id", actor.UserID)
	return nil
}

// Publish moves a draft job to published and stamps published_at. It
// reports false, without error, when the job is missing or not a draft.
func (s *JobService) Publish(ctx context.Context, id uint) (bool, error) {
	ok, err := s.jobs.Publish(ctx, id, s.now())
	if err != nil || !ok {
		return false, err
	}
	s.log.Infow("Job published", "job_id", id)
	if job, err := s.jobs.Get(ctx, id); err == nil {
		s.emit(ctx, domain.EventJobPublished, job, 0)
	}
	return true, nil
}

// Close sets a job to closed from any status. It reports false, without
// error, only when the job is missing.
func (s *JobService) Close(ctx context.Context, id uint) (bool, error) {
	ok, err := s.jobs.Close(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	s.log.Infow("Job closed", "job_id", id)
	if job, err := s.jobs.Get(ctx, id); err == nil {
		s.emit(ctx, domain.EventJobClosed, job, 0)
	}
	return true, nil
}

// PublishAs is Publish restricted to the job's owner and staff.
func (s *JobService) PublishAs(ctx context.Context, actor domain.Actor, id uint) (bool, error) {
	if _, err := s.GetForEdit(ctx, actor, id); err != nil {
		return false, err
	}
	return s.Publish(ctx, id)
}

// CloseAs is Close restricted to the job's owner and staff.
func (s *JobService) CloseAs(ctx context.Context, actor domain.Actor, id uint) (bool, error) {
	if _, err := s.GetForEdit(ctx, actor, id); err != nil {
		return false, err
	}
	return s.Close(ctx, id)
}

// Statistics counts a job's applications by status.
func (s *JobService) Statistics(ctx context.Context, id uint) (domain.JobStatistics, error) {
	return s.jobs.Statistics(ctx, id)
}

// StatisticsAs is Statistics restricted to the job's owner and staff.
func (s *JobService) StatisticsAs(ctx context.Context, actor domain.Actor, id uint) (domain.JobStatistics, error) {
	if _, err := s.GetForEdit(ctx, actor, id); err != nil {
		return domain.JobStatistics{}, err
	}
	return s.jobs.Statistics(ctx, id)
}

func (s *JobService) validate(ctx context.Context, f domain.JobFields) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.CategoryID == nil {
		return nil
	}
	if _, err := s.categories.Get(ctx, *f.CategoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.FieldError("category_id",
				fmt.Sprintf("Invalid pk %q - object does not exist.", fmt.Sprint(*f.CategoryID)))
		}
		return err
	}
	return nil
}

func (s *JobService) emit(ctx context.Context, t domain.EventType, job *domain.Job, actorID uint) {
	e := domain.Event{
		Type:        t,
		JobID:       job.ID,
		ActorID:     actorID,
		Status:      string(job.Status),
		Title:       job.Title,
		CompanyName: job.CompanyName,
		OccurredAt:  s.now(),
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warnw("Event publish failed", "job_id", job.ID, "subject", t, "error", err)
	}
}

func statusEvent(st domain.JobStatus) domain.EventType {
	if st == domain.JobClosed {
		return domain.EventJobClosed
	}
	return domain.EventJobPublished
}
