package service

import (
	"context"
	"fmt"
	"strings"

	"soulbalance/internal/data"
	"soulbalance/internal/logger"
)

// ContactInput is a submission of the contact form.
type ContactInput struct {
	FirstName string `form:"first_name" validate:"min=2"`
	LastName  string `form:"last_name" validate:"min=2"`
	Email     string `form:"email" validate:"required,email"`
	Phone     string `form:"phone" validate:"omitempty,phone"`
	Subject   string `form:"subject" validate:"required"`
	Message   string `form:"message" validate:"min=10,max=2000"`
	IPAddress string `form:"-" validate:"-"`
}

var contactMessages = messages{
	"first_name":  "First name must be at least 2 characters",
	"last_name":   "Last name must be at least 2 characters",
	"email":       "Please enter a valid email address",
	"phone":       "Please enter a valid phone number",
	"subject":     "Please select a subject",
	"message":     "Message must be at least 10 characters",
	"message.max": "Message must be 2000 characters or less",
}

// trimmed returns a copy of the input with surrounding whitespace removed.
func (in ContactInput) trimmed() ContactInput {
	return ContactInput{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Subject:   strings.TrimSpace(in.Subject),
		Message:   strings.TrimSpace(in.Message),
		IPAddress: in.IPAddress,
	}
}

// ContactService validates, stores and forwards contact messages.
type ContactService struct {
	repo     ContactRepository
	notifier Notifier
	log      logger.Logger
}

// NewContactService creates a ContactService. A nil notifier disables e-mail.
func NewContactService(repo ContactRepository, notifier Notifier, log logger.Logger) *ContactService {
	return &ContactService{repo: repo, notifier: notifier, log: log}
}

// ValidateContact returns every problem with the input keyed by form field.
func ValidateContact(in ContactInput) map[string]string {
	errs := map[string]string{}
	for _, fe := range check(in.trimmed(), contactMessages) {
		errs[fe.Field] = fe.Message
	}
	return errs
}

// Submit stores a valid message and notifies the site owner. Notification
// failures are logged and do not fail the submission.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) error {
	if errs := ValidateContact(in); len(errs) > 0 {
		return newError(ErrInvalid, "Please correct the errors in the form")
	}
	in = in.trimmed()
	m := &data.ContactMessage{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Subject:   in.Subject,
		Message:   in.Message,
		IPAddress: in.IPAddress,
	}
	if err := s.repo.SaveMessage(ctx, m); err != nil {
		return fmt.Errorf("save contact message: %w", err)
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyContact(ctx, m); err != nil {
			s.log.Error(err, "Failed to send contact notification")
		}
	}
	return nil
}
