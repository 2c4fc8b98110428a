package service_test

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"jobboard/domain"
	"jobboard/infrastructure"
	"jobboard/infrastructure/testdb"
	"jobboard/service"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, n domain.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, n)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	db         *gorm.DB
	jobs       *service.JobService
	apps       *service.ApplicationService
	categories *service.CategoryService
	users      *service.UserService
	dispatcher *recordingDispatcher
	events     *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t)
	log := zaptest.NewLogger(t).Sugar()
	paging := service.Paging{Size: 20, Max: 100}

	jobRepo := infrastructure.NewJobRepository(db)
	appRepo := infrastructure.NewApplicationRepository(db)
	catRepo := infrastructure.NewCategoryRepository(db)

	f := &fixture{
		db:         db,
		dispatcher: &recordingDispatcher{},
		events:     &recordingPublisher{},
	}
	notifier := service.NewNotificationService(appRepo, f.dispatcher, "")
	f.jobs = service.NewJobService(jobRepo, catRepo, f.events, paging, log)
	f.apps = service.NewApplicationService(appRepo, notifier, f.events, paging, log)
	f.categories = service.NewCategoryService(catRepo, log)
	f.users = service.NewUserService(infrastructure.NewUserRepository(db))
	return f
}

func (f *fixture) actor(t *testing.T, email string, staff bool) (*domain.User, domain.Actor) {
	t.Helper()
	u := testdb.User(t, f.db, email, staff)
	return u, domain.ActorFor(u)
}

func validFields() domain.JobFields {
	return domain.JobFields{
		Title:       "Backend Engineer",
		Description: "Build APIs",
		CompanyName: "Acme",
		Location:    "Berlin",
	}
}
