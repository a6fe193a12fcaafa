package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/coursehub/lms-service/internal/models"
	"github.com/coursehub/lms-service/internal/repositories"
)

type ForumPostPostgreSQL struct {
	db *gorm.DB
}

func NewForumPostPostgreSQL(db *gorm.DB) repositories.ForumPostRepository {
	return &ForumPostPostgreSQL{db: db}
}

func (f *ForumPostPostgreSQL) Create(ctx context.Context, post *models.ForumPost) error {
	if err := f.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (f *ForumPostPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ForumPost, error) {
	var post models.ForumPost
	err := f.db.WithContext(ctx).
		Preload("Author").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.NewNotFoundError("post", id)
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

func (f *ForumPostPostgreSQL) GetByIDWithThread(ctx context.Context, id uint) (*models.ForumPost, error) {
	var post models.ForumPost
	err := f.db.WithContext(ctx).
		Preload("Author").
		Preload("Thread").
		Preload("Thread.Category").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.NewNotFoundError("post", id)
		}
		return nil, fmt.Errorf("failed to get post with thread: %w", err)
	}
	return &post, nil
}

// ListTopLevel returns a thread's top-level posts in chronological
// order with one level of replies and reaction counts annotated.
func (f *ForumPostPostgreSQL) ListTopLevel(ctx context.Context, threadID uint) ([]*models.ForumPost, error) {
	var posts []*models.ForumPost
	err := f.db.WithContext(ctx).
		Preload("Author").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("forum_posts.created_at ASC").Preload("Author")
		}).
		Where("thread_id = ? AND parent_id IS NULL", threadID).
		Order("created_at ASC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	if err := f.fillReactionCounts(ctx, posts); err != nil {
		return nil, err
	}

	return posts, nil
}

func (f *ForumPostPostgreSQL) fillReactionCounts(ctx context.Context, posts []*models.ForumPost) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(posts))
	index := make(map[uint]*models.ForumPost)
	for _, post := range posts {
		ids = append(ids, post.ID)
		index[post.ID] = post
		for i := range post.Replies {
			reply := &post.Replies[i]
			ids = append(ids, reply.ID)
			index[reply.ID] = reply
		}
	}

	type countRow struct {
		PostID uint
		Total  int
	}
	var rows []countRow
	err := f.db.WithContext(ctx).
		Model(&models.ForumReaction{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to count reactions: %w", err)
	}

	for _, row := range rows {
		if post, ok := index[row.PostID]; ok {
			post.ReactionCount = row.Total
		}
	}

	for _, post := range posts {
		post.ReplyCount = len(post.Replies)
	}

	return nil
}

func (f *ForumPostPostgreSQL) ListReplies(ctx context.Context, parentID uint) ([]*models.ForumPost, error) {
	var replies []*models.ForumPost
	err := f.db.WithContext(ctx).
		Preload("Author").
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&replies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	return replies, nil
}

func (f *ForumPostPostgreSQL) CountByThread(ctx context.Context, threadID uint) (int64, error) {
	var count int64
	err := f.db.WithContext(ctx).
		Model(&models.ForumPost{}).
		Where("thread_id = ?", threadID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

func (f *ForumPostPostgreSQL) SetAnswer(ctx context.Context, id uint, isAnswer bool) error {
	result := f.db.WithContext(ctx).
		Model(&models.ForumPost{}).
		Where("id = ?", id).
		Update("is_answer", isAnswer)
	if result.Error != nil {
		return fmt.Errorf("failed to mark post as answer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NewNotFoundError("post", id)
	}
	return nil
}
