package services

import (
	"context"
	"fmt"

	"github.com/coursehub/lms-service/internal/repositories"
)

// accessGuard centralizes the authorization checks every service
// shares: course ownership and enrollment.
type accessGuard struct {
	repo repositories.Repository
}

func newAccessGuard(repo repositories.Repository) *accessGuard {
	return &accessGuard{repo: repo}
}

// requireCourseOwner passes for the course's teacher and for admins.
func (g *accessGuard) requireCourseOwner(ctx context.Context, actor Actor, courseID uint) error {
	if actor.IsAdmin() {
		return nil
	}

	owns, err := g.repo.Course().ExistsOwnedBy(ctx, courseID, actor.ID)
	if err != nil {
		return fmt.Errorf("failed to check course ownership: %w", err)
	}
	if !owns {
		return NewPermissionError("manage course", "caller does not own this course")
	}

	return nil
}

// requireCourseAccess passes for enrolled students, the owning
// teacher, and admins.
func (g *accessGuard) requireCourseAccess(ctx context.Context, actor Actor, courseID uint) error {
	if actor.IsAdmin() {
		return nil
	}

	owns, err := g.repo.Course().ExistsOwnedBy(ctx, courseID, actor.ID)
	if err != nil {
		return fmt.Errorf("failed to check course ownership: %w", err)
	}
	if owns {
		return nil
	}

	enrolled, err := g.repo.Enrollment().Exists(ctx, actor.ID, courseID)
	if err != nil {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return NewPermissionError("access course", "caller is neither enrolled nor the course teacher")
	}

	return nil
}

// requireEnrolled passes only for enrolled students.
func (g *accessGuard) requireEnrolled(ctx context.Context, actor Actor, courseID uint) error {
	enrolled, err := g.repo.Enrollment().Exists(ctx, actor.ID, courseID)
	if err != nil {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return NewPermissionError("access course", "caller is not enrolled in this course")
	}

	return nil
}

// requireTeacherRole passes for teachers and admins.
func requireTeacherRole(actor Actor) error {
	if actor.IsTeacher() || actor.IsAdmin() {
		return nil
	}
	return NewPermissionError("teacher operation", "caller is not a teacher")
}

// courseIDForCategory resolves which course a forum category belongs
// to. Services resolve the course from the category, never from
// client-supplied course ids.
func (g *accessGuard) courseIDForCategory(ctx context.Context, categoryID uint) (uint, error) {
	category, err := g.repo.ForumCategory().GetByID(ctx, categoryID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, NewNotFoundError("forum category", categoryID)
		}
		return 0, fmt.Errorf("failed to resolve category: %w", err)
	}
	return category.CourseID, nil
}
