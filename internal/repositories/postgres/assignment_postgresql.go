package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/coursehub/lms-service/internal/cache"
	"github.com/coursehub/lms-service/internal/models"
	"github.com/coursehub/lms-service/internal/repositories"
)

type AssignmentPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAssignmentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (a *AssignmentPostgreSQL) Create(ctx context.Context, assignment *models.Assignment) error {
	if err := a.db.WithContext(ctx).Create(assignment).Error; err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, a.cacheManager.Fast, fmt.Sprintf("assignments:course:%d*", assignment.CourseID))

	return nil
}

func (a *AssignmentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := a.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.NewNotFoundError("assignment", id)
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) GetByIDWithCourse(ctx context.Context, id uint) (*models.Assignment, error) {
	var assignment models.Assignment
	err := a.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Teacher").
		First(&assignment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.NewNotFoundError("assignment", id)
		}
		return nil, fmt.Errorf("failed to get assignment with course: %w", err)
	}
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) ListByCourse(ctx context.Context, courseID uint) ([]*models.Assignment, error) {
	var assignments []*models.Assignment
	err := a.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("due_date ASC NULLS LAST, created_at ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

// ListForStudent returns every assignment in the student's enrolled
// courses, annotated with the student's own submission state via
// correlated subqueries.
func (a *AssignmentPostgreSQL) ListForStudent(ctx context.Context, studentID string) ([]*repositories.StudentAssignmentRow, error) {
	var rows []*repositories.StudentAssignmentRow
	err := a.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Select(`assignments.*,
			courses.title AS course_title,
			users.full_name AS teacher_name,
			EXISTS (
				SELECT 1 FROM submissions s
				WHERE s.assignment_id = assignments.id AND s.student_id = ?
			) AS has_submitted,
			(SELECT s.grade FROM submissions s
				WHERE s.assignment_id = assignments.id AND s.student_id = ?) AS grade,
			(SELECT s.submitted_at FROM submissions s
				WHERE s.assignment_id = assignments.id AND s.student_id = ?) AS submitted_at,
			(SELECT s.feedback FROM submissions s
				WHERE s.assignment_id = assignments.id AND s.student_id = ?) AS feedback`,
			studentID, studentID, studentID, studentID).
		Joins("JOIN courses ON courses.id = assignments.course_id").
		Joins("LEFT JOIN users ON users.id = courses.teacher_id").
		Joins("JOIN enrollments ON enrollments.course_id = assignments.course_id").
		Where("enrollments.student_id = ? AND enrollments.status = ?", studentID, models.EnrollmentEnrolled).
		Order("assignments.due_date ASC NULLS LAST, assignments.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments for student: %w", err)
	}
	return rows, nil
}

func (a *AssignmentPostgreSQL) Update(ctx context.Context, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	result := a.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update assignment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NewNotFoundError("assignment", id)
	}

	cache.SafeInvalidatePattern(ctx, a.cacheManager.Fast, "assignments:*")

	return nil
}

func (a *AssignmentPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := a.db.WithContext(ctx).Delete(&models.Assignment{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete assignment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NewNotFoundError("assignment", id)
	}

	cache.SafeInvalidatePattern(ctx, a.cacheManager.Fast, "assignments:*")

	return nil
}
