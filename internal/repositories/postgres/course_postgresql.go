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

type CoursePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (c *CoursePostgreSQL) Create(ctx context.Context, course *models.Course) error {
	if err := c.db.WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, fmt.Sprintf("teacher:%s:*", course.TeacherID))
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")

	return nil
}

// GetByID retrieves a course by ID with caching
func (c *CoursePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var course models.Course

	err := c.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourse models.Course
		if err := c.db.WithContext(ctx).First(&dbCourse, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.NewNotFoundError("course", id)
			}
			return nil, fmt.Errorf("failed to get course: %w", err)
		}
		return &dbCourse, nil
	})
	if err != nil {
		return nil, err
	}

	return &course, nil
}

// GetByIDWithTeacher retrieves a course with its teacher preloaded and
// the enrolled count computed.
func (c *CoursePostgreSQL) GetByIDWithTeacher(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	err := c.db.WithContext(ctx).
		Preload("Teacher").
		First(&course, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.NewNotFoundError("course", id)
		}
		return nil, fmt.Errorf("failed to get course details: %w", err)
	}

	var enrolled int64
	err = c.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ? AND status = ?", id, models.EnrollmentEnrolled).
		Count(&enrolled).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count enrollments: %w", err)
	}
	course.EnrolledCount = int(enrolled)

	return &course, nil
}

// List retrieves courses with filters, pagination and enrolled counts.
func (c *CoursePostgreSQL) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := c.db.WithContext(ctx).Model(&models.Course{})
	query = c.helpers.ApplyCourseFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var courses []*models.Course
	if err := query.Preload("Teacher").Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}

	if err := c.fillEnrolledCounts(ctx, courses); err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

// fillEnrolledCounts annotates courses with enrollment counts using one
// grouped query instead of a count per course.
func (c *CoursePostgreSQL) fillEnrolledCounts(ctx context.Context, courses []*models.Course) error {
	if len(courses) == 0 {
		return nil
	}

	ids := make([]uint, len(courses))
	for i, course := range courses {
		ids[i] = course.ID
	}

	type countRow struct {
		CourseID uint
		Total    int
	}
	var rows []countRow
	err := c.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Select("course_id, COUNT(*) AS total").
		Where("course_id IN ? AND status = ?", ids, models.EnrollmentEnrolled).
		Group("course_id").
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to count enrollments: %w", err)
	}

	counts := make(map[uint]int, len(rows))
	for _, row := range rows {
		counts[row.CourseID] = row.Total
	}
	for _, course := range courses {
		course.EnrolledCount = counts[course.ID]
	}

	return nil
}

// Update applies a partial update built from a static column map.
func (c *CoursePostgreSQL) Update(ctx context.Context, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	result := c.db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NewNotFoundError("course", id)
	}

	c.invalidate(ctx, id)

	return nil
}

func (c *CoursePostgreSQL) Delete(ctx context.Context, id uint) error {
	result := c.db.WithContext(ctx).Delete(&models.Course{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NewNotFoundError("course", id)
	}

	c.invalidate(ctx, id)

	return nil
}

func (c *CoursePostgreSQL) ExistsOwnedBy(ctx context.Context, courseID uint, teacherID string) (bool, error) {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ? AND teacher_id = ?", courseID, teacherID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check course ownership: %w", err)
	}
	return count > 0, nil
}

func (c *CoursePostgreSQL) invalidate(ctx context.Context, id uint) {
	cache.SafeDelete(ctx, c.cacheManager.Course,
		fmt.Sprintf("id:%d", id),
		fmt.Sprintf("details:%d", id))
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "teacher:*")
}
