package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/clandphoto/internal/domain"
	"github.com/vbonduro/clandphoto/internal/seed"
)

var ErrInvalidInput = errors.New("invalid input")

// FallbackUserID identifies the stand-in user reported when no users exist.
const FallbackUserID = "admin-fallback"

// userRepository is the subset of store.UserStore that RecordService requires.
type userRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	UpdateStatus(ctx context.Context, id string, status domain.UserStatus) error
	Delete(ctx context.Context, id string) error
	DeleteAllExcept(ctx context.Context, keepID string) error
	CountByStatus(ctx context.Context, status domain.UserStatus) (int, error)
	RecordAccess(ctx context.Context, id string, at time.Time) error
}

// photoRepository is the subset of store.PhotoStore that RecordService requires.
type photoRepository interface {
	Append(ctx context.Context, p domain.PhotoEntry) error
	GetByID(ctx context.Context, id string) (*domain.PhotoEntry, error)
	List(ctx context.Context) ([]*domain.PhotoEntry, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

// RecordService owns the users and committed photo records.
type RecordService struct {
	users   userRepository
	photos  photoRepository
	primary *domain.User
	logger  *slog.Logger
	now     func() time.Time
}

func NewRecordService(users userRepository, photos photoRepository, logger *slog.Logger) *RecordService {
	return &RecordService{
		users:  users,
		photos: photos,
		logger: logger.With("component", "records"),
		now:    time.Now,
	}
}

// Seed loads fixtures into the empty stores. The first administrator in the
// fixtures becomes the primary admin that ClearData keeps.
func (s *RecordService) Seed(ctx context.Context, f *seed.Fixtures) error {
	now := s.now()
	for _, u := range f.Users(now) {
		if err := s.users.Create(ctx, u); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.ID, err)
		}
	}
	for _, p := range f.Photos(now) {
		if err := s.photos.Append(ctx, p); err != nil {
			return fmt.Errorf("failed to seed photo %s: %w", p.ID, err)
		}
	}
	s.primary = f.PrimaryAdmin(now)
	s.logger.Info("seed data loaded", "users", len(f.UserFixtures), "photos", len(f.PhotoFixtures))
	return nil
}

// Append stores a finalized record. It satisfies workflow.RecordSink.
func (s *RecordService) Append(ctx context.Context, p domain.PhotoEntry) error {
	if p.ID == "" {
		return fmt.Errorf("%w: photo id is required", ErrInvalidInput)
	}
	if err := s.photos.Append(ctx, p); err != nil {
		return fmt.Errorf("failed to append photo: %w", err)
	}
	s.logger.Info("photo added", "photo_id", p.ID, "user_id", p.UserID)
	return nil
}

func (s *RecordService) AddPhoto(ctx context.Context, p domain.PhotoEntry) error {
	return s.Append(ctx, p)
}

func (s *RecordService) RemovePhoto(ctx context.Context, id string) error {
	if err := s.photos.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("photo removed", "photo_id", id)
	return nil
}

func (s *RecordService) GetPhoto(ctx context.Context, id string) (*domain.PhotoEntry, error) {
	return s.photos.GetByID(ctx, id)
}

// ListPhotos returns photos in insertion order.
func (s *RecordService) ListPhotos(ctx context.Context) ([]*domain.PhotoEntry, error) {
	return s.photos.List(ctx)
}

// AddUser registers a user awaiting approval.
func (s *RecordService) AddUser(ctx context.Context, name, email string, role domain.Role) (*domain.User, error) {
	return s.createUser(ctx, name, email, role, domain.StatusPending)
}

// AddAdmin registers an administrator with immediate access.
func (s *RecordService) AddAdmin(ctx context.Context, name, email string) (*domain.User, error) {
	return s.createUser(ctx, name, email, domain.RoleAdmin, domain.StatusActive)
}

func (s *RecordService) createUser(ctx context.Context, name, email string, role domain.Role, status domain.UserStatus) (*domain.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrInvalidInput)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	u := &domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      role,
		AvatarURL: AvatarURL(name),
		Status:    status,
		CreatedAt: s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("user added", "user_id", u.ID, "role", u.Role, "status", u.Status)
	return u, nil
}

// AvatarURL is the generated placeholder avatar for a display name.
func AvatarURL(name string) string {
	return "https://picsum.photos/seed/" + url.PathEscape(name) + "/200"
}

func (s *RecordService) RemoveUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user removed", "user_id", id)
	return nil
}

func (s *RecordService) UpdateUserStatus(ctx context.Context, id string, status domain.UserStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if err := s.users.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("user status updated", "user_id", id, "status", status)
	return nil
}

func (s *RecordService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *RecordService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *RecordService) PendingUserCount(ctx context.Context) (int, error) {
	return s.users.CountByStatus(ctx, domain.StatusPending)
}

// RecordAccess appends an access event for the user. The fallback user has
// no row and is ignored.
func (s *RecordService) RecordAccess(ctx context.Context, userID string) error {
	if userID == FallbackUserID {
		return nil
	}
	return s.users.RecordAccess(ctx, userID, s.now())
}

// CurrentUser is the user the session acts as: the first registered user,
// or a fallback administrator when there are none.
func (s *RecordService) CurrentUser(ctx context.Context) (*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) > 0 {
		return users[0], nil
	}
	return &domain.User{
		ID:        FallbackUserID,
		Name:      "System Admin",
		Email:     "admin@system",
		Role:      domain.RoleAdmin,
		Status:    domain.StatusActive,
		CreatedAt: s.now(),
	}, nil
}

// ClearData removes every photo and every user except the primary admin,
// restoring the primary admin if it had been deleted.
func (s *RecordService) ClearData(ctx context.Context) error {
	if err := s.photos.DeleteAll(ctx); err != nil {
		return err
	}

	if s.primary == nil {
		if err := s.users.DeleteAllExcept(ctx, ""); err != nil {
			return err
		}
		s.logger.Warn("all data cleared")
		return nil
	}

	if err := s.users.DeleteAllExcept(ctx, s.primary.ID); err != nil {
		return err
	}
	existing, err := s.users.GetByID(ctx, s.primary.ID)
	if err != nil {
		return fmt.Errorf("failed to get primary admin: %w", err)
	}
	if existing == nil {
		admin := *s.primary
		admin.AccessLogs = nil
		if err := s.users.Create(ctx, &admin); err != nil {
			return fmt.Errorf("failed to restore primary admin: %w", err)
		}
	}
	s.logger.Warn("all data cleared", "kept_user_id", s.primary.ID)
	return nil
}
