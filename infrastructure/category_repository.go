package infrastructure

import (
	"context"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"

	"jobboard/domain"
)

type CategoryRepository struct {
	DB *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

// List returns every category ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]domain.JobCategory, error) {
	categories := []domain.JobCategory{}
	if err := r.DB.WithContext(ctx).Order("name").Order("id").Find(&categories).Error; err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return categories, nil
}

func (r *CategoryRepository) Get(ctx context.Context, id uint) (*domain.JobCategory, error) {
	var c domain.JobCategory
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, "category", id)
	}
	return &c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.JobCategory) error {
	if err := r.DB.WithContext(ctx).Create(c).Error; err != nil {
		return errors.Wrap(err, "create category")
	}
	return nil
}

// Delete removes a category and detaches its jobs.
func (r *CategoryRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&domain.Job{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error
		if err != nil {
			return errors.Wrapf(err, "detach jobs from category %d", id)
		}
		res := tx.Delete(&domain.JobCategory{}, id)
		if res.Error != nil {
			return errors.Wrapf(res.Error, "delete category %d", id)
		}
		if res.RowsAffected == 0 {
			return domain.NotFound("category", id)
		}
		return nil
	})
}
