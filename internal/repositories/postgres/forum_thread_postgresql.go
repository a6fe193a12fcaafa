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

type ForumThreadPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewForumThreadPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ForumThreadRepository {
	return &ForumThreadPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (f *ForumThreadPostgreSQL) Create(ctx context.Context, thread *models.ForumThread) error {
	if err := f.db.WithContext(ctx).Create(thread).Error; err != nil {
		return fmt.Errorf("failed to create thread: %w", err)
	}

	cache.InvalidateThreadCache(ctx, f.cacheManager, thread.ID, thread.CategoryID)

	return nil
}

func (f *ForumThreadPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ForumThread, error) {
	var thread models.ForumThread
	err := f.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		First(&thread, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.NewNotFoundError("thread", id)
		}
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	return &thread, nil
}

// ListByCategory returns a page of threads with pinned ones first,
// then most recent activity.
func (f *ForumThreadPostgreSQL) ListByCategory(ctx context.Context, categoryID uint, filters repositories.ThreadFilters) ([]*models.ForumThread, error) {
	query := f.db.WithContext(ctx).
		Preload("Author").
		Where("category_id = ?", categoryID).
		Order("is_pinned DESC, COALESCE(last_reply_at, created_at) DESC")

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var threads []*models.ForumThread
	if err := query.Find(&threads).Error; err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	return threads, nil
}

// Search matches title or content case-insensitively within one
// course's forum, most recently active first.
func (f *ForumThreadPostgreSQL) Search(ctx context.Context, courseID uint, query string) ([]*models.ForumThread, error) {
	pattern := "%" + query + "%"
	var threads []*models.ForumThread
	err := f.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Joins("JOIN forum_categories ON forum_categories.id = forum_threads.category_id").
		Where("forum_categories.course_id = ?", courseID).
		Where("forum_threads.title ILIKE ? OR forum_threads.content ILIKE ?", pattern, pattern).
		Order("COALESCE(forum_threads.last_reply_at, forum_threads.created_at) DESC").
		Limit(50).
		Find(&threads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search threads: %w", err)
	}
	return threads, nil
}

// IncrementViewCount bumps the view counter in a single UPDATE so
// concurrent readers never lose increments.
func (f *ForumThreadPostgreSQL) IncrementViewCount(ctx context.Context, id uint) error {
	result := f.db.WithContext(ctx).
		Model(&models.ForumThread{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment view count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NewNotFoundError("thread", id)
	}
	return nil
}

// IncrementReplyCount bumps the reply counter and records the reply
// time in one atomic UPDATE.
func (f *ForumThreadPostgreSQL) IncrementReplyCount(ctx context.Context, id uint, repliedAt time.Time) error {
	result := f.db.WithContext(ctx).
		Model(&models.ForumThread{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"reply_count":   gorm.Expr("reply_count + 1"),
			"last_reply_at": repliedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to increment reply count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NewNotFoundError("thread", id)
	}

	return nil
}

func (f *ForumThreadPostgreSQL) SetPinned(ctx context.Context, id uint, pinned bool) error {
	return f.setFlag(ctx, id, "is_pinned", pinned)
}

func (f *ForumThreadPostgreSQL) SetLocked(ctx context.Context, id uint, locked bool) error {
	return f.setFlag(ctx, id, "is_locked", locked)
}

func (f *ForumThreadPostgreSQL) setFlag(ctx context.Context, id uint, column string, value bool) error {
	result := f.db.WithContext(ctx).
		Model(&models.ForumThread{}).
		Where("id = ?", id).
		Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("failed to update thread %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NewNotFoundError("thread", id)
	}

	cache.SafeDelete(ctx, f.cacheManager.Thread, fmt.Sprintf("id:%d", id))

	return nil
}
