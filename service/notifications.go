package service

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"jobboard/domain"
)

// DefaultFromEmail is used when no sender is configured.
const DefaultFromEmail = "noreply@example.com"

// NotificationService tells job owners about new applications.
type NotificationService struct {
	apps       ApplicationStore
	dispatcher Dispatcher
	from       string
}

func NewNotificationService(apps ApplicationStore, dispatcher Dispatcher, from string) *NotificationService {
	if from == "" {
		from = DefaultFromEmail
	}
	return &NotificationService{apps: apps, dispatcher: dispatcher, from: from}
}

// SendApplicationNotification loads an application and notifies the owner
// of its job. Dispatcher errors are returned unchanged in kind.
func (s *NotificationService) SendApplicationNotification(ctx context.Context, applicationID uint) error {
	app, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		return err
	}
	return s.NotifyApplication(ctx, app)
}

// NotifyApplication notifies the owner of app's job. app must have Job,
// Job.CreatedBy and Applicant loaded.
func (s *NotificationService) NotifyApplication(ctx context.Context, app *domain.JobApplication) error {
	n := ApplicationNotification(app, s.from)
	if len(n.Recipients) == 0 || n.Recipients[0] == "" {
		return errors.Newf("job %d has no owner email", app.JobID)
	}
	return s.dispatcher.Dispatch(ctx, n)
}

// ApplicationNotification builds the email sent to a job owner.
func ApplicationNotification(app *domain.JobApplication, from string) domain.Notification {
	title := app.Job.Title
	return domain.Notification{
		Subject: fmt.Sprintf("New application for %s", title),
		Body: fmt.Sprintf("You have received a new application from %s for the position %s.",
			app.Applicant.Email, title),
		From:       from,
		Recipients: []string{app.Job.CreatedBy.Email},
	}
}
