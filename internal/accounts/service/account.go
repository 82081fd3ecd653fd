package service

import (
	"context"
	"errors"
	"strconv"

	accountserrors "hotelbooking/internal/accounts/errors"
	"hotelbooking/internal/accounts/repository"
	"hotelbooking/internal/accounts/validator"
	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/sanitizer"
	"hotelbooking/pkg/validation"

	"golang.org/x/crypto/bcrypt"
)

const badCredentials = "These credentials do not match our records."

type AccountService interface {
	Register(ctx context.Context, reg *model.Registration) (*model.User, error)
	Authenticate(ctx context.Context, creds *model.Credentials) (*model.User, error)
	AuthenticateAdmin(ctx context.Context, creds *model.Credentials) (*model.Admin, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	UpdateProfile(ctx context.Context, id int64, update *model.ProfileUpdate) (*model.User, error)
	ChangePassword(ctx context.Context, id int64, change *model.PasswordChange) error
	// EnsureAdmin creates admin with password unless the username exists.
	EnsureAdmin(ctx context.Context, admin *model.Admin, password string) (bool, error)
}

type accountService struct {
	users     repository.UserRepository
	admins    repository.AdminRepository
	validator *validator.AccountValidator
	cost      int
	dummyHash []byte
	log       *logger.Logger
}

// NewAccountService hashes passwords with bcrypt at cost. Unknown logins
// are still compared against a throwaway hash so both paths take the same
// time.
func NewAccountService(
	users repository.UserRepository,
	admins repository.AdminRepository,
	validator *validator.AccountValidator,
	cost int,
	log *logger.Logger,
) (AccountService, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		return nil, err
	}
	return &accountService{
		users:     users,
		admins:    admins,
		validator: validator,
		cost:      cost,
		dummyHash: dummy,
		log:       log,
	}, nil
}

func (s *accountService) Register(ctx context.Context, reg *model.Registration) (*model.User, error) {
	reg.Name = sanitizer.NormalizeName(reg.Name)
	reg.Email = sanitizer.NormalizeEmail(reg.Email)
	reg.Phone = sanitizer.NormalizePhone(reg.Phone)

	if errs := s.validator.ValidateRegistration(reg); errs.Any() {
		return nil, errs.Err("")
	}

	hash, err := s.hash(reg.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Name: reg.Name, Email: reg.Email, Phone: reg.Phone, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, accountserrors.ErrDuplicateEmail) {
			return nil, duplicateEmail()
		}
		s.log.Error("Failed to register user", "email", reg.Email, "error", err)
		return nil, apperrors.Internal("Failed to create account", err)
	}

	s.log.Info("User registered", "user_id", user.ID)
	return user, nil
}

func (s *accountService) Authenticate(ctx context.Context, creds *model.Credentials) (*model.User, error) {
	creds.Login = sanitizer.NormalizeEmail(creds.Login)
	if errs := s.validator.ValidateCredentials(creds); errs.Any() {
		return nil, errs.Err("")
	}

	user, err := s.users.FindByEmail(ctx, creds.Login)
	if err != nil && !errors.Is(err, accountserrors.ErrUserNotFound) {
		s.log.Error("Failed to load user for login", "error", err)
		return nil, apperrors.Internal("Failed to sign in", err)
	}
	if user == nil {
		s.burn(creds.Password)
		return nil, invalidCredentials()
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		s.log.Warn("Failed customer login", "user_id", user.ID)
		return nil, invalidCredentials()
	}
	return user, nil
}

func (s *accountService) AuthenticateAdmin(ctx context.Context, creds *model.Credentials) (*model.Admin, error) {
	creds.Login = sanitizer.NormalizeUsername(creds.Login)
	if errs := s.validator.ValidateCredentials(creds); errs.Any() {
		return nil, errs.Err("")
	}

	admin, err := s.admins.FindByUsername(ctx, creds.Login)
	if err != nil && !errors.Is(err, accountserrors.ErrAdminNotFound) {
		s.log.Error("Failed to load admin for login", "error", err)
		return nil, apperrors.Internal("Failed to sign in", err)
	}
	if admin == nil {
		s.burn(creds.Password)
		return nil, invalidCredentials()
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(creds.Password)) != nil {
		s.log.Warn("Failed admin login", "admin_id", admin.ID)
		return nil, invalidCredentials()
	}

	if err := s.admins.TouchLastLogin(ctx, admin.ID); err != nil {
		s.log.Warn("Failed to record admin login", "admin_id", admin.ID, "error", err)
	}
	return admin, nil
}

func (s *accountService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id, "Failed to load account")
	}
	return user, nil
}

func (s *accountService) UpdateProfile(ctx context.Context, id int64, update *model.ProfileUpdate) (*model.User, error) {
	update.Name = sanitizer.NormalizeName(update.Name)
	update.Email = sanitizer.NormalizeEmail(update.Email)
	update.Phone = sanitizer.NormalizePhone(update.Phone)

	if errs := s.validator.ValidateProfile(update); errs.Any() {
		return nil, errs.Err("")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id, "Failed to load account")
	}
	user.Name, user.Email, user.Phone = update.Name, update.Email, update.Phone
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, accountserrors.ErrDuplicateEmail) {
			return nil, duplicateEmail()
		}
		return nil, s.mapError(err, id, "Failed to update profile")
	}
	return user, nil
}

func (s *accountService) ChangePassword(ctx context.Context, id int64, change *model.PasswordChange) error {
	if errs := s.validator.ValidatePasswordChange(change); errs.Any() {
		return errs.Err("")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return s.mapError(err, id, "Failed to load account")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(change.Current)) != nil {
		return validation.FieldErrors{"current_password": "The current password is incorrect"}.Err("")
	}

	hash, err := s.hash(change.Password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return s.mapError(err, id, "Failed to update password")
	}
	s.log.Info("User changed password", "user_id", id)
	return nil
}

func (s *accountService) EnsureAdmin(ctx context.Context, admin *model.Admin, password string) (bool, error) {
	admin.Username = sanitizer.NormalizeUsername(admin.Username)
	admin.Email = sanitizer.NormalizeEmail(admin.Email)

	_, err := s.admins.FindByUsername(ctx, admin.Username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, accountserrors.ErrAdminNotFound) {
		return false, apperrors.Internal("Failed to look up admin", err)
	}

	if admin.PasswordHash, err = s.hash(password); err != nil {
		return false, err
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, accountserrors.ErrDuplicateUsername) {
			return false, nil
		}
		return false, apperrors.Internal("Failed to create admin", err)
	}
	return true, nil
}

func (s *accountService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperrors.Internal("Failed to hash password", err)
	}
	return string(hash), nil
}

func (s *accountService) burn(password string) {
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

func (s *accountService) mapError(err error, id int64, message string) error {
	if errors.Is(err, accountserrors.ErrUserNotFound) {
		return apperrors.NotFoundWithID("User", strconv.FormatInt(id, 10))
	}
	if apperrors.IsAppError(err) {
		return err
	}
	s.log.Error(message, "user_id", id, "error", err)
	return apperrors.Internal(message, err)
}

func invalidCredentials() error {
	return validation.FieldErrors{"login": badCredentials}.Err(badCredentials)
}

func duplicateEmail() error {
	return validation.FieldErrors{"email": "This email address is already registered"}.Err("")
}
