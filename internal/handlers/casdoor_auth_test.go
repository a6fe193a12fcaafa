package handlers

import (
	"context"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/coursehub/lms-service/internal/config"
	"github.com/coursehub/lms-service/internal/models"
	"github.com/coursehub/lms-service/internal/repositories"
)

// fakeUserRepo backs the auth middleware without Casdoor or Postgres.
type fakeUserRepo struct {
	users    map[string]*models.User
	mirrored map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:    make(map[string]*models.User),
		mirrored: make(map[string]*models.User),
	}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.NewNotFoundError("user", id)
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.NewNotFoundError("user", email)
}

func (f *fakeUserRepo) List(context.Context, repositories.UserFilters) ([]*models.User, int64, error) {
	return nil, 0, nil
}

func (f *fakeUserRepo) ExistsByID(_ context.Context, id string) (bool, error) {
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeUserRepo) HasRole(_ context.Context, id string, role models.UserRole) (bool, error) {
	user, ok := f.users[id]
	return ok && user.Role == role, nil
}

func (f *fakeUserRepo) Mirror(_ context.Context, user *models.User) error {
	copied := *user
	f.mirrored[user.ID] = &copied
	return nil
}

func newTestAuthMiddleware(repo repositories.UserRepository) *CasdoorAuthMiddleware {
	return NewCasdoorAuthMiddleware(config.CasdoorConfig{Endpoint: "https://auth.test"}, repo)
}

func TestResolveUser_MirrorsRepositoryHit(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users["teacher-1"] = &models.User{
		ID:       "teacher-1",
		FullName: "Grace Hopper",
		Email:    "grace@example.edu",
		Role:     models.RoleTeacher,
	}
	cam := newTestAuthMiddleware(repo)

	user, err := cam.resolveUser(context.Background(), &casdoorsdk.Claims{
		User: casdoorsdk.User{Id: "teacher-1"},
	})
	if err != nil {
		t.Fatalf("resolveUser failed: %v", err)
	}
	if user.Role != models.RoleTeacher {
		t.Errorf("expected teacher role, got %s", user.Role)
	}

	mirrored, ok := repo.mirrored["teacher-1"]
	if !ok {
		t.Fatal("expected the resolved identity to be mirrored")
	}
	if mirrored.FullName != "Grace Hopper" {
		t.Errorf("unexpected mirrored row %+v", mirrored)
	}
}

func TestResolveUser_MirrorsClaimsFallback(t *testing.T) {
	repo := newFakeUserRepo()
	cam := newTestAuthMiddleware(repo)

	user, err := cam.resolveUser(context.Background(), &casdoorsdk.Claims{
		User: casdoorsdk.User{
			Id:          "student-1",
			DisplayName: "Ada Lovelace",
			Email:       "ada@example.edu",
			Type:        "student",
		},
	})
	if err != nil {
		t.Fatalf("resolveUser failed: %v", err)
	}
	if user.Role != models.RoleStudent {
		t.Errorf("expected student role, got %s", user.Role)
	}

	mirrored, ok := repo.mirrored["student-1"]
	if !ok {
		t.Fatal("expected the claims-built identity to be mirrored")
	}
	if mirrored.Email != "ada@example.edu" {
		t.Errorf("unexpected mirrored row %+v", mirrored)
	}
}

func TestResolveUser_RejectsEmptyID(t *testing.T) {
	cam := newTestAuthMiddleware(newFakeUserRepo())

	if _, err := cam.resolveUser(context.Background(), &casdoorsdk.Claims{}); err == nil {
		t.Fatal("expected an error for a token without a user id")
	}
}
