package infrastructure

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobboard/domain"
)

// JobRepository stores jobs through gorm.
type JobRepository struct {
	DB *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{DB: db}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(job).Error; err != nil {
		return errors.Wrap(err, "create job")
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id uint) (*domain.Job, error) {
	var job domain.Job
	err := r.DB.WithContext(ctx).
		Preload("Category").
		Preload("CreatedBy").
		First(&job, id).Error
	if err != nil {
		return nil, notFound(err, "job", id)
	}
	return &job, nil
}

// List returns one page of jobs matching f, most recently created first.
func (r *JobRepository) List(ctx context.Context, f domain.JobFilter, page domain.Page) ([]domain.Job, int64, error) {
	if f.None {
		return []domain.Job{}, 0, nil
	}

	var count int64
	if err := r.DB.WithContext(ctx).Model(&domain.Job{}).Scopes(jobFilterScope(f)).Count(&count).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count jobs")
	}

	jobs := []domain.Job{}
	err := r.DB.WithContext(ctx).
		Scopes(jobFilterScope(f)).
		Preload("Category").
		Preload("CreatedBy").
		Order("created_at DESC").
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&jobs).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list jobs")
	}
	return jobs, count, nil
}

func jobFilterScope(f domain.JobFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if f.Search != "" {
			like := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
			q = q.Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!' OR LOWER(company_name) LIKE ? ESCAPE '!')",
				like, like, like)
		}
		if f.CategoryID != nil {
			q = q.Where("category_id = ?", *f.CategoryID)
		}
		if f.MinSalary.Valid {
			q = q.Where("salary_min >= ?", f.MinSalary.Decimal)
		}
		if f.MaxSalary.Valid {
			q = q.Where("salary_max <= ?", f.MaxSalary.Decimal)
		}
		if f.OwnerID != nil {
			q = q.Where("created_by_id = ?", *f.OwnerID)
		}
		return q
	}
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Update writes the editable columns of job.
func (r *JobRepository) Update(ctx context.Context, job *domain.Job) error {
	job.UpdatedAt = r.DB.NowFunc()
	res := r.DB.WithContext(ctx).Model(job).
		Select("title", "description", "company_name", "location", "salary_min", "salary_max",
			"status", "category_id", "published_at", "updated_at").
		Updates(job)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "update job %d", job.ID)
	}
	return nil
}

// Delete removes a job and its applications.
func (r *JobRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&domain.JobApplication{}).Error; err != nil {
			return errors.Wrapf(err, "delete applications of job %d", id)
		}
		res := tx.Delete(&domain.Job{}, id)
		if res.Error != nil {
			return errors.Wrapf(res.Error, "delete job %d", id)
		}
		if res.RowsAffected == 0 {
			return domain.NotFound("job", id)
		}
		return nil
	})
}

// Publish moves a draft job to published in a single conditional update.
// It reports false when the job is missing or not a draft.
func (r *JobRepository) Publish(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&domain.Job{}).
		Where("id = ? AND status = ?", id, domain.JobDraft).
		Updates(map[string]any{"status": domain.JobPublished, "published_at": at})
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "publish job %d", id)
	}
	return res.RowsAffected == 1, nil
}

// Close sets a job to closed whatever its current status. It reports false
// only when the job does not exist.
func (r *JobRepository) Close(ctx context.Context, id uint) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&domain.Job{}).
		Where("id = ?", id).
		Update("status", domain.JobClosed)
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "close job %d", id)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	// MySQL reports zero affected rows when nothing changed.
	return r.exists(ctx, id)
}

func (r *JobRepository) exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&domain.Job{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errors.Wrapf(err, "check job %d", id)
	}
	return count > 0, nil
}

// Statistics counts applications of a job by status.
func (r *JobRepository) Statistics(ctx context.Context, id uint) (domain.JobStatistics, error) {
	var stats domain.JobStatistics
	ok, err := r.exists(ctx, id)
	if err != nil {
		return stats, err
	}
	if !ok {
		return stats, domain.NotFound("job", id)
	}

	var rows []struct {
		Status domain.ApplicationStatus
		N      int64
	}
	err = r.DB.WithContext(ctx).Model(&domain.JobApplication{}).
		Select("status, COUNT(*) AS n").
		Where("job_id = ?", id).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return stats, errors.Wrapf(err, "count applications of job %d", id)
	}

	for _, row := range rows {
		stats.Total += row.N
		switch row.Status {
		case domain.ApplicationPending:
			stats.Pending = row.N
		case domain.ApplicationAccepted:
			stats.Accepted = row.N
		case domain.ApplicationRejected:
			stats.Rejected = row.N
		}
	}
	return stats, nil
}
