package service

import (
	"context"
	"testing"

	accountserrors "hotelbooking/internal/accounts/errors"
	"hotelbooking/internal/accounts/validator"
	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"

	"golang.org/x/crypto/bcrypt"
)

type mockUserRepository struct {
	users map[int64]*model.User
}

func newMockUsers() *mockUserRepository {
	return &mockUserRepository{users: map[int64]*model.User{}}
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return accountserrors.ErrDuplicateEmail
		}
	}
	user.ID = int64(len(m.users) + 1)
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, accountserrors.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, accountserrors.ErrUserNotFound
}

func (m *mockUserRepository) Update(ctx context.Context, user *model.User) error {
	for id, u := range m.users {
		if id != user.ID && u.Email == user.Email {
			return accountserrors.ErrDuplicateEmail
		}
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return accountserrors.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

type mockAdminRepository struct {
	admins  map[string]*model.Admin
	touched []int64
}

func (m *mockAdminRepository) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	if a, ok := m.admins[username]; ok {
		return a, nil
	}
	return nil, accountserrors.ErrAdminNotFound
}

func (m *mockAdminRepository) FindByID(ctx context.Context, id int64) (*model.Admin, error) {
	for _, a := range m.admins {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, accountserrors.ErrAdminNotFound
}

func (m *mockAdminRepository) Create(ctx context.Context, admin *model.Admin) error {
	admin.ID = int64(len(m.admins) + 1)
	m.admins[admin.Username] = admin
	return nil
}

func (m *mockAdminRepository) TouchLastLogin(ctx context.Context, id int64) error {
	m.touched = append(m.touched, id)
	return nil
}

func newTestService(t *testing.T, users *mockUserRepository, admins *mockAdminRepository) AccountService {
	t.Helper()
	log := logger.Discard()
	svc, err := NewAccountService(users, admins, validator.NewAccountValidator(log), bcrypt.MinCost, log)
	if err != nil {
		t.Fatalf("NewAccountService: %v", err)
	}
	return svc
}

func registration() *model.Registration {
	return &model.Registration{
		Name:            "  Ada   Guest ",
		Email:           "Ada@Example.com ",
		Phone:           "(650) 253-0000",
		Password:        "harbor2025",
		PasswordConfirm: "harbor2025",
	}
}

func assertField(t *testing.T, err error, field string) {
	t.Helper()
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if _, ok := appErr.FieldErrors()[field]; !ok {
		t.Errorf("expected a message for %q, got %v", field, appErr.FieldErrors())
	}
}

func TestAccountService_Register(t *testing.T) {
	users := newMockUsers()
	svc := newTestService(t, users, &mockAdminRepository{admins: map[string]*model.Admin{}})
	ctx := context.Background()

	user, err := svc.Register(ctx, registration())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Name != "Ada Guest" || user.Email != "ada@example.com" || user.Phone != "+16502530000" {
		t.Errorf("registration not normalized: %+v", user)
	}
	if user.PasswordHash == "harbor2025" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("harbor2025")) != nil {
		t.Error("password must be stored as a bcrypt hash")
	}

	_, err = svc.Register(ctx, registration())
	assertField(t, err, "email")
}

func TestAccountService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *model.Registration)
		field  string
	}{
		{"short password", func(r *model.Registration) { r.Password, r.PasswordConfirm = "a1", "a1" }, "password"},
		{"password without digit", func(r *model.Registration) { r.Password, r.PasswordConfirm = "harborview", "harborview" }, "password"},
		{"confirmation mismatch", func(r *model.Registration) { r.PasswordConfirm = "harbor2026" }, "password_confirmation"},
		{"bad email", func(r *model.Registration) { r.Email = "not-an-email" }, "email"},
		{"missing name", func(r *model.Registration) { r.Name = " " }, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, newMockUsers(), &mockAdminRepository{admins: map[string]*model.Admin{}})
			reg := registration()
			tt.modify(reg)
			_, err := svc.Register(context.Background(), reg)
			assertField(t, err, tt.field)
		})
	}
}

func TestAccountService_Authenticate(t *testing.T) {
	users := newMockUsers()
	svc := newTestService(t, users, &mockAdminRepository{admins: map[string]*model.Admin{}})
	ctx := context.Background()
	if _, err := svc.Register(ctx, registration()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name     string
		login    string
		password string
		wantOK   bool
	}{
		{"valid, email case ignored", "ADA@example.com", "harbor2025", true},
		{"wrong password", "ada@example.com", "harbor2026", false},
		{"unknown email", "bob@example.com", "harbor2025", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Authenticate(ctx, &model.Credentials{Login: tt.login, Password: tt.password})
			if tt.wantOK {
				if err != nil || user == nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			assertField(t, err, "login")
		})
	}
}

func TestAccountService_AuthenticateAdmin(t *testing.T) {
	admins := &mockAdminRepository{admins: map[string]*model.Admin{}}
	svc := newTestService(t, newMockUsers(), admins)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, &model.Admin{Username: "Manager", Email: "m@example.com", Name: "Manager", Role: model.AdminRoleManager}, "harbor2025")
	if err != nil || !created {
		t.Fatalf("EnsureAdmin: created=%v err=%v", created, err)
	}
	created, err = svc.EnsureAdmin(ctx, &model.Admin{Username: "manager", Role: model.AdminRoleManager}, "other1234")
	if err != nil || created {
		t.Fatalf("second EnsureAdmin must be a no-op: created=%v err=%v", created, err)
	}

	admin, err := svc.AuthenticateAdmin(ctx, &model.Credentials{Login: " MANAGER ", Password: "harbor2025"})
	if err != nil {
		t.Fatalf("AuthenticateAdmin: %v", err)
	}
	if admin.Role != model.AdminRoleManager || len(admins.touched) != 1 {
		t.Errorf("unexpected admin %+v, touched %v", admin, admins.touched)
	}

	_, err = svc.AuthenticateAdmin(ctx, &model.Credentials{Login: "manager", Password: "other1234"})
	assertField(t, err, "login")
}

func TestAccountService_UpdateProfile(t *testing.T) {
	users := newMockUsers()
	svc := newTestService(t, users, &mockAdminRepository{admins: map[string]*model.Admin{}})
	ctx := context.Background()

	ada, _ := svc.Register(ctx, registration())
	bob := registration()
	bob.Email = "bob@example.com"
	if _, err := svc.Register(ctx, bob); err != nil {
		t.Fatalf("Register: %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, ada.ID, &model.ProfileUpdate{Name: "Ada Lovelace", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Name != "Ada Lovelace" {
		t.Errorf("Name = %q", updated.Name)
	}

	_, err = svc.UpdateProfile(ctx, ada.ID, &model.ProfileUpdate{Name: "Ada", Email: "BOB@example.com"})
	assertField(t, err, "email")

	_, err = svc.UpdateProfile(ctx, 99, &model.ProfileUpdate{Name: "Nobody", Email: "n@example.com"})
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestAccountService_ChangePassword(t *testing.T) {
	users := newMockUsers()
	svc := newTestService(t, users, &mockAdminRepository{admins: map[string]*model.Admin{}})
	ctx := context.Background()
	ada, _ := svc.Register(ctx, registration())

	err := svc.ChangePassword(ctx, ada.ID, &model.PasswordChange{Current: "wrong", Password: "newharbor1", PasswordConfirm: "newharbor1"})
	assertField(t, err, "current_password")

	if err := svc.ChangePassword(ctx, ada.ID, &model.PasswordChange{Current: "harbor2025", Password: "newharbor1", PasswordConfirm: "newharbor1"}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Authenticate(ctx, &model.Credentials{Login: "ada@example.com", Password: "newharbor1"}); err != nil {
		t.Errorf("new password must work: %v", err)
	}
}
