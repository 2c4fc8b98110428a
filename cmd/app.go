package main

import (
	"github.com/cockroachdb/errors"
	"gorm.io/gorm"

	"jobboard/config"
	"jobboard/infrastructure"
	"jobboard/interfaces"
	"jobboard/logger"
	"jobboard/service"
)

// app holds the wired services for one command invocation.
type app struct {
	db       *gorm.DB
	services interfaces.Services
	closers  []func()
}

// newApp connects the database and builds every service. With notify
// false, notifications are only logged so admin commands never need a
// broker or mail server.
func newApp(cfg *config.Config, notify bool) (*app, error) {
	db, err := infrastructure.NewDatabase(cfg.Database, logger.ComponentLogger("database"))
	if err != nil {
		return nil, err
	}
	a := &app{db: db}
	a.closers = append(a.closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	var dispatcher service.Dispatcher = infrastructure.LogMailer{Log: logger.ComponentLogger("mailer")}
	if notify {
		dispatcher, err = a.newDispatcher(cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	events, err := a.newEventPublisher(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	jobRepo := infrastructure.NewJobRepository(db)
	appRepo := infrastructure.NewApplicationRepository(db)
	catRepo := infrastructure.NewCategoryRepository(db)
	paging := service.Paging{Size: cfg.API.PageSize, Max: cfg.API.MaxPageSize}
	notifier := service.NewNotificationService(appRepo, dispatcher, cfg.Notify.FromEmail)

	a.services = interfaces.Services{
		Jobs:         service.NewJobService(jobRepo, catRepo, events, paging, logger.ComponentLogger("jobs")),
		Applications: service.NewApplicationService(appRepo, notifier, events, paging, logger.ComponentLogger("applications")),
		Categories:   service.NewCategoryService(catRepo, logger.ComponentLogger("categories")),
		Users:        service.NewUserService(infrastructure.NewUserRepository(db)),
	}
	return a, nil
}

func (a *app) newDispatcher(cfg *config.Config) (service.Dispatcher, error) {
	log := logger.ComponentLogger("mailer")
	switch cfg.Notify.Transport {
	case config.TransportRabbitMQ:
		rmq, err := infrastructure.NewRabbitMQ(cfg.Notify.RabbitMQURL, cfg.Notify.Queue, log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rmq.Close() })
		return rmq, nil
	case config.TransportSMTP:
		return infrastructure.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password), nil
	case config.TransportLog:
		return infrastructure.LogMailer{Log: log}, nil
	default:
		return nil, errors.Newf("unknown notify transport %q", cfg.Notify.Transport)
	}
}

func (a *app) newEventPublisher(cfg *config.Config) (service.EventPublisher, error) {
	if cfg.Events.NATSURL == "" {
		return service.NopPublisher{}, nil
	}
	bus, err := infrastructure.NewNATSEventBus(cfg.Events.NATSURL, cfg.Events.SubjectPrefix, logger.ComponentLogger("events"))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, bus.Close)
	return bus, nil
}

// Close releases connections in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
