package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/coursehub/lms-service/internal/cache"
	"github.com/coursehub/lms-service/internal/models"
	"github.com/coursehub/lms-service/internal/repositories"
)

type SubmissionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewSubmissionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (s *SubmissionPostgreSQL) Create(ctx context.Context, submission *models.Submission) error {
	if err := s.db.WithContext(ctx).Create(submission).Error; err != nil {
		if repositories.IsDuplicateError(err) {
			return err
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}

	cache.InvalidateGradeStatsCache(ctx, s.cacheManager, submission.StudentID)

	return nil
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.NewNotFoundError("submission", id)
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByIDWithDetails(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	err := s.db.WithContext(ctx).
		Preload("Student").
		Preload("Assignment").
		Preload("Assignment.Course").
		First(&submission, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.NewNotFoundError("submission", id)
		}
		return nil, fmt.Errorf("failed to get submission details: %w", err)
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByAssignmentAndStudent(ctx context.Context, assignmentID uint, studentID string) (*models.Submission, error) {
	var submission models.Submission
	err := s.db.WithContext(ctx).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.NewNotFoundError("submission", fmt.Sprintf("%d/%s", assignmentID, studentID))
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) ListByAssignment(ctx context.Context, assignmentID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := s.db.WithContext(ctx).
		Preload("Student").
		Where("assignment_id = ?", assignmentID).
		Order("submitted_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

func (s *SubmissionPostgreSQL) ListByStudent(ctx context.Context, studentID string) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := s.db.WithContext(ctx).
		Preload("Assignment").
		Preload("Assignment.Course").
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions by student: %w", err)
	}
	return submissions, nil
}

// Grade records a grade and flips the submission into graded state.
// Re-grading overwrites the previous grade and feedback.
func (s *SubmissionPostgreSQL) Grade(ctx context.Context, id uint, grade float64, feedback *string, gradedBy string) error {
	now := time.Now()
	result := s.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"grade":     grade,
			"feedback":  feedback,
			"graded_by": gradedBy,
			"graded_at": now,
			"status":    models.SubmissionGraded,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to grade submission: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NewNotFoundError("submission", id)
	}

	var studentID string
	if err := s.db.WithContext(ctx).
		Model(&models.Submission{}).
		Select("student_id").
		Where("id = ?", id).
		Scan(&studentID).Error; err == nil && studentID != "" {
		cache.InvalidateGradeStatsCache(ctx, s.cacheManager, studentID)
	}

	return nil
}

// GradeStats aggregates the student's grading state across every
// assignment in the published courses they are enrolled in. Percentages
// are rounded to the nearest integer; both come back zero when nothing
// is graded yet.
func (s *SubmissionPostgreSQL) GradeStats(ctx context.Context, studentID string) (*repositories.GradeStats, error) {
	cacheKey := fmt.Sprintf("grades:%s", studentID)
	var stats repositories.GradeStats

	err := s.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		var dbStats repositories.GradeStats
		err := s.db.WithContext(ctx).Raw(`
			SELECT
				COUNT(a.id)                                           AS total_assignments,
				COUNT(sub.id)                                         AS submitted_count,
				COUNT(sub.grade)                                      AS graded_count,
				COALESCE(SUM(CASE WHEN sub.grade IS NOT NULL THEN a.max_points END), 0) AS total_possible_points,
				COALESCE(SUM(sub.grade), 0)                           AS total_earned_points,
				COALESCE(ROUND(AVG(sub.grade / a.max_points * 100)), 0) AS average_grade,
				CASE
					WHEN COALESCE(SUM(CASE WHEN sub.grade IS NOT NULL THEN a.max_points END), 0) > 0
					THEN ROUND(COALESCE(SUM(sub.grade), 0) / SUM(CASE WHEN sub.grade IS NOT NULL THEN a.max_points END) * 100)
					ELSE 0
				END AS overall_percentage
			FROM assignments a
			JOIN courses c ON c.id = a.course_id AND c.is_published = true
			JOIN enrollments e ON e.course_id = a.course_id
				AND e.student_id = ? AND e.status = ?
			LEFT JOIN submissions sub ON sub.assignment_id = a.id
				AND sub.student_id = ?`,
			studentID, models.EnrollmentEnrolled, studentID).
			Scan(&dbStats).Error
		if err != nil {
			return nil, fmt.Errorf("failed to compute grade stats: %w", err)
		}
		return &dbStats, nil
	})
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
