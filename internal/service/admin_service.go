package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vbonduro/clandphoto/internal/domain"
)

// ErrWrongPassword is returned when the master password does not match.
var ErrWrongPassword = errors.New("incorrect master password")

// adminRecords is the subset of RecordService that AdminService requires.
type adminRecords interface {
	AddAdmin(ctx context.Context, name, email string) (*domain.User, error)
	ClearData(ctx context.Context) error
}

// AdminService gates super-admin actions behind the master password. The
// password is compared in plain text and protects nothing beyond the UI:
// every caller can reach these endpoints without it.
type AdminService struct {
	records  adminRecords
	password string
	logger   *slog.Logger
}

func NewAdminService(records adminRecords, password string, logger *slog.Logger) *AdminService {
	return &AdminService{
		records:  records,
		password: password,
		logger:   logger.With("component", "admin"),
	}
}

// Unlock checks the master password.
func (s *AdminService) Unlock(password string) error {
	if s.password == "" || password != s.password {
		s.logger.Warn("master password rejected")
		return ErrWrongPassword
	}
	return nil
}

func (s *AdminService) CreateAdmin(ctx context.Context, password, name, email string) (*domain.User, error) {
	if err := s.Unlock(password); err != nil {
		return nil, err
	}
	return s.records.AddAdmin(ctx, name, email)
}

// ClearData wipes photos and users. It requires the password again.
func (s *AdminService) ClearData(ctx context.Context, password string) error {
	if err := s.Unlock(password); err != nil {
		return err
	}
	return s.records.ClearData(ctx)
}
