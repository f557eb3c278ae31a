package service

import (
	"errors"
	"strings"
	"testing"

	"go-gelato-ws/internal/model"

	"github.com/google/uuid"
)

type userFixture struct {
	users    UserService
	userRepo *fakeUserRepo
	notifier *recordingNotifier
}

func newUserFixture(roles []*model.Role, users ...*model.User) *userFixture {
	fx := &userFixture{
		userRepo: newFakeUserRepo(users...),
		notifier: &recordingNotifier{},
	}
	privRepo := &fakePrivilegeRepo{privileges: model.DefaultPrivileges}
	fx.users = NewUserService(fx.userRepo, privRepo, newFakeRoleRepo(roles...), fx.notifier)
	return fx
}

func adminRole() *model.Role {
	return &model.Role{
		ID:   1,
		Code: model.RoleAdmin,
		Name: "Admin",
		Privileges: []model.Privilege{
			{ID: 1, Code: "production:view", Name: "View Production"},
			{ID: 2, Code: "stock:view", Name: "View Stock"},
		},
	}
}

func TestCreateUser(t *testing.T) {
	fx := newUserFixture([]*model.Role{adminRole()})

	user, err := fx.users.CreateUser(&CreateUserRequest{
		Email:    "operator@example.com",
		Password: "secret123",
		FullName: "Operator",
		RoleID:   1,
	}, "creator-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !user.IsActive {
		t.Error("new user must start active")
	}
	if user.Password == "secret123" || user.Password == "" {
		t.Error("password must be stored hashed")
	}
	if !user.CheckPassword("secret123") {
		t.Error("stored hash must verify the original password")
	}
	if len(user.Privileges) != 2 {
		t.Errorf("expected the role privileges granted, got %d", len(user.Privileges))
	}
	if user.CreatedBy != "creator-id" {
		t.Errorf("expected audit creator, got %q", user.CreatedBy)
	}
	if len(fx.notifier.notifications) != 1 || fx.notifier.notifications[0].Category != "user" {
		t.Errorf("expected one user notification, got %+v", fx.notifier.notifications)
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	existing := &model.User{Email: "operator@example.com", IsActive: true}
	fx := newUserFixture([]*model.Role{adminRole()}, existing)

	_, err := fx.users.CreateUser(&CreateUserRequest{
		Email:    "operator@example.com",
		Password: "secret123",
		FullName: "Operator",
		RoleID:   1,
	}, "creator-id")
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	fx := newUserFixture([]*model.Role{adminRole()})

	// Short password
	_, err := fx.users.CreateUser(&CreateUserRequest{
		Email:    "operator@example.com",
		Password: "abc",
		FullName: "Operator",
		RoleID:   1,
	}, "creator-id")
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("expected validation error, got %v", err)
	}

	// Unknown role
	_, err = fx.users.CreateUser(&CreateUserRequest{
		Email:    "operator@example.com",
		Password: "secret123",
		FullName: "Operator",
		RoleID:   99,
	}, "creator-id")
	if !errors.Is(err, ErrRoleNotFound) {
		t.Errorf("expected ErrRoleNotFound, got %v", err)
	}

	// Malformed birth date
	bad := "31-12-1990"
	_, err = fx.users.CreateUser(&CreateUserRequest{
		Email:     "operator@example.com",
		Password:  "secret123",
		FullName:  "Operator",
		BirthDate: &bad,
		RoleID:    1,
	}, "creator-id")
	if !errors.Is(err, ErrInvalidBirthDay) {
		t.Errorf("expected ErrInvalidBirthDay, got %v", err)
	}
}

func TestUpdateUserRoleChangeResetsPrivileges(t *testing.T) {
	role := adminRole()
	other := &model.Role{
		ID:         2,
		Code:       "VIEWER",
		Name:       "Viewer",
		Privileges: []model.Privilege{{ID: 1, Code: "production:view", Name: "View Production"}},
	}

	user := &model.User{Email: "operator@example.com", FullName: "Operator", IsActive: true}
	user.Privileges = role.Privileges
	fx := newUserFixture([]*model.Role{role, other}, user)

	inactive := false
	updated, err := fx.users.UpdateUser(user.ID, &UpdateUserRequest{
		Email:    "operator@example.com",
		FullName: "Operator",
		RoleID:   2,
		IsActive: &inactive,
	}, "updater-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(updated.Privileges) != 1 || updated.Privileges[0].Code != "production:view" {
		t.Errorf("expected privileges reset to the new role, got %+v", updated.Privileges)
	}
	if updated.IsActive {
		t.Error("expected the account deactivated")
	}
	if updated.UpdatedBy != "updater-id" {
		t.Errorf("expected audit updater, got %q", updated.UpdatedBy)
	}
}

func TestUpdateUserEmailCollision(t *testing.T) {
	a := &model.User{Email: "a@example.com", FullName: "A", IsActive: true}
	b := &model.User{Email: "b@example.com", FullName: "B", IsActive: true}
	fx := newUserFixture([]*model.Role{adminRole()}, a, b)

	_, err := fx.users.UpdateUser(b.ID, &UpdateUserRequest{
		Email:    "a@example.com",
		FullName: "B",
		RoleID:   1,
	}, "updater-id")
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	user := &model.User{Email: "operator@example.com", IsActive: true}
	fx := newUserFixture([]*model.Role{adminRole()}, user)

	// Deleting your own account is refused.
	if err := fx.users.DeleteUser(user.ID, user.ID.String()); !errors.Is(err, ErrSelfDeletion) {
		t.Errorf("expected ErrSelfDeletion, got %v", err)
	}

	if err := fx.users.DeleteUser(user.ID, "someone-else"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := fx.userRepo.FindByID(user.ID); err == nil {
		t.Error("expected the account gone")
	}

	if err := fx.users.DeleteUser(uuid.New(), "someone-else"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateUserPrivileges(t *testing.T) {
	user := &model.User{Email: "operator@example.com", IsActive: true}
	fx := newUserFixture([]*model.Role{adminRole()}, user)

	// Unknown codes resolve to nothing and are dropped.
	updated, err := fx.users.UpdateUserPrivileges(user.ID, []string{"stock:view", "stock:adjust", "no:such"}, "updater-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Privileges) != 2 {
		t.Errorf("expected 2 resolved privileges, got %d", len(updated.Privileges))
	}
	if !updated.HasPrivilege("stock:adjust") {
		t.Error("expected stock:adjust granted")
	}
}

func TestGetUsers(t *testing.T) {
	a := &model.User{Email: "a@example.com", IsActive: true}
	b := &model.User{Email: "b@example.com", IsActive: true}
	fx := newUserFixture([]*model.Role{adminRole()}, a, b)

	users, err := fx.users.GetAllUsers()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}

	one, err := fx.users.GetUserByID(a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if one.Email != "a@example.com" {
		t.Errorf("unexpected user: %+v", one)
	}

	if _, err := fx.users.GetUserByID(uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
