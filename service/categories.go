package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"jobboard/domain"
)

type CategoryService struct {
	categories CategoryStore
	log        *zap.SugaredLogger
}

func NewCategoryService(categories CategoryStore, log *zap.SugaredLogger) *CategoryService {
	return &CategoryService{categories: categories, log: log}
}

func (s *CategoryService) List(ctx context.Context) ([]domain.JobCategory, error) {
	return s.categories.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*domain.JobCategory, error) {
	return s.categories.Get(ctx, id)
}

func (s *CategoryService) Create(ctx context.Context, name, description string) (*domain.JobCategory, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, domain.FieldError("name", "This field is required.")
	case len(name) > 100:
		return nil, domain.FieldError("name", "Ensure this field has no more than 100 characters.")
	}
	c := &domain.JobCategory{Name: name, Description: description}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log.Infow("Category created", "category_id", c.ID)
	return c, nil
}

// Delete removes a category; its jobs are kept without a category.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Infow("Category deleted", "category_id", id)
	return nil
}
