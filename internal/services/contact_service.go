package services

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"chapel-site/internal/domain/chat"
	"chapel-site/internal/domain/contact"
	"chapel-site/internal/repository"
	chapel_errors "chapel-site/pkg/errors"
	"chapel-site/pkg/logger"

	"go.uber.org/zap"
)

const maxContactMessageLen = 5000

type ContactService struct {
	repo repository.ContactRepository
	log  *logger.Logger
}

func NewContactService(repo repository.ContactRepository, l *logger.Logger) *ContactService {
	return &ContactService{repo: repo, log: orNopLogger(l)}
}

type ContactInput struct {
	Name     string
	Email    string
	Phone    string
	Message  string
	RemoteIP string
}

func (s *ContactService) Submit(ctx context.Context, in ContactInput) (contact.Submission, error) {
	sub := contact.Submission{
		Name:     sanitizeText(in.Name),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:    strings.TrimSpace(in.Phone),
		Message:  sanitizeText(in.Message),
		RemoteIP: in.RemoteIP,
	}
	if sub.Name == "" || sub.Message == "" || utf8.RuneCountInString(sub.Message) > maxContactMessageLen {
		return contact.Submission{}, chapel_errors.ErrInvalidInput
	}
	if sub.Email == "" && sub.Phone == "" {
		return contact.Submission{}, chapel_errors.ErrInvalidInput
	}
	if sub.Email != "" {
		if _, err := mail.ParseAddress(sub.Email); err != nil {
			return contact.Submission{}, chapel_errors.ErrInvalidInput
		}
	}

	if err := s.repo.Create(ctx, &sub); err != nil {
		return contact.Submission{}, err
	}
	s.log.InfoCtx(ctx, "contact submission received", zap.Uint64("contact_id", sub.ID))
	return sub, nil
}

func (s *ContactService) List(ctx context.Context, actor chat.Actor, page, limit int) ([]contact.Submission, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, chapel_errors.ErrForbidden
	}
	return s.repo.List(ctx, page, limit)
}
