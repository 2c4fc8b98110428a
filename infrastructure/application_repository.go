package infrastructure

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobboard/domain"
)

// ApplicationRepository stores job applications through gorm.
type ApplicationRepository struct {
	DB *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{DB: db}
}

// CreateForOpenJob inserts app if its job is published. The job row is
// locked for the duration of the insert, and the unique index on
// (job_id, applicant_id) is the authority on duplicates.
func (r *ApplicationRepository) CreateForOpenJob(ctx context.Context, app *domain.JobApplication) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job domain.Job
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status").
			First(&job, app.JobID).Error
		if err != nil {
			return notFound(err, "job", app.JobID)
		}
		if job.Status != domain.JobPublished {
			return domain.ErrJobNotOpen
		}

		if err := tx.Omit(clause.Associations).Create(app).Error; err != nil {
			if isDuplicateKey(err) {
				return domain.ErrAlreadyApplied
			}
			return errors.Wrap(err, "create application")
		}
		return nil
	})
}

func (r *ApplicationRepository) Get(ctx context.Context, id uint) (*domain.JobApplication, error) {
	var app domain.JobApplication
	err := r.DB.WithContext(ctx).
		Preload("Job").
		Preload("Job.CreatedBy").
		Preload("Applicant").
		First(&app, id).Error
	if err != nil {
		return nil, notFound(err, "application", id)
	}
	return &app, nil
}

// List returns one page of applications, most recent first.
func (r *ApplicationRepository) List(ctx context.Context, f domain.ApplicationFilter, page domain.Page) ([]domain.JobApplication, int64, error) {
	scope := func(q *gorm.DB) *gorm.DB {
		if f.ApplicantID != nil {
			q = q.Where("applicant_id = ?", *f.ApplicantID)
		}
		if f.JobID != nil {
			q = q.Where("job_id = ?", *f.JobID)
		}
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		return q
	}

	var count int64
	if err := r.DB.WithContext(ctx).Model(&domain.JobApplication{}).Scopes(scope).Count(&count).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count applications")
	}

	apps := []domain.JobApplication{}
	err := r.DB.WithContext(ctx).
		Scopes(scope).
		Preload("Job").
		Preload("Applicant").
		Order("applied_at DESC").
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&apps).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list applications")
	}
	return apps, count, nil
}

// SetStatus records a review outcome. Callers check existence first.
func (r *ApplicationRepository) SetStatus(ctx context.Context, id uint, status domain.ApplicationStatus, at time.Time) error {
	res := r.DB.WithContext(ctx).Model(&domain.JobApplication{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "reviewed_at": at})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "review application %d", id)
	}
	return nil
}

func (r *ApplicationRepository) Delete(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&domain.JobApplication{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete application %d", id)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("application", id)
	}
	return nil
}
