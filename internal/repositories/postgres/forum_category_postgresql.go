package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/coursehub/lms-service/internal/models"
	"github.com/coursehub/lms-service/internal/repositories"
)

type ForumCategoryPostgreSQL struct {
	db *gorm.DB
}

func NewForumCategoryPostgreSQL(db *gorm.DB) repositories.ForumCategoryRepository {
	return &ForumCategoryPostgreSQL{db: db}
}

func (f *ForumCategoryPostgreSQL) CreateBatch(ctx context.Context, categories []*models.ForumCategory) error {
	if len(categories) == 0 {
		return nil
	}
	if err := f.db.WithContext(ctx).Create(categories).Error; err != nil {
		return fmt.Errorf("failed to create forum categories: %w", err)
	}
	return nil
}

func (f *ForumCategoryPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ForumCategory, error) {
	var category models.ForumCategory
	if err := f.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.NewNotFoundError("forum category", id)
		}
		return nil, fmt.Errorf("failed to get forum category: %w", err)
	}
	return &category, nil
}

// ListByCourse returns a course's categories annotated with thread and
// post counts plus the most recent activity per category.
func (f *ForumCategoryPostgreSQL) ListByCourse(ctx context.Context, courseID uint) ([]*models.ForumCategory, error) {
	var categories []*models.ForumCategory
	err := f.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("id ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list forum categories: %w", err)
	}

	if len(categories) == 0 {
		return categories, nil
	}

	ids := make([]uint, len(categories))
	for i, category := range categories {
		ids[i] = category.ID
	}

	type activityRow struct {
		CategoryID   uint
		ThreadCount  int
		PostCount    int
		LastActivity *time.Time
	}
	var rows []activityRow
	err = f.db.WithContext(ctx).
		Model(&models.ForumThread{}).
		Select(`category_id,
			COUNT(*) AS thread_count,
			COALESCE(SUM(reply_count), 0) AS post_count,
			MAX(GREATEST(created_at, COALESCE(last_reply_at, created_at))) AS last_activity`).
		Where("category_id IN ?", ids).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate category activity: %w", err)
	}

	byID := make(map[uint]activityRow, len(rows))
	for _, row := range rows {
		byID[row.CategoryID] = row
	}
	for _, category := range categories {
		if row, ok := byID[category.ID]; ok {
			category.ThreadCount = row.ThreadCount
			category.PostCount = row.PostCount
			category.LastActivity = row.LastActivity
		}
	}

	return categories, nil
}

func (f *ForumCategoryPostgreSQL) CountByCourse(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := f.db.WithContext(ctx).
		Model(&models.ForumCategory{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count forum categories: %w", err)
	}
	return count, nil
}
