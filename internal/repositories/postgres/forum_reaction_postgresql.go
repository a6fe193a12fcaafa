package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coursehub/lms-service/internal/models"
	"github.com/coursehub/lms-service/internal/repositories"
)

type ForumReactionPostgreSQL struct {
	db *gorm.DB
}

func NewForumReactionPostgreSQL(db *gorm.DB) repositories.ForumReactionRepository {
	return &ForumReactionPostgreSQL{db: db}
}

// Upsert inserts the reaction or replaces the reaction type when the
// (post, user) pair already reacted. One reaction per user per post.
func (f *ForumReactionPostgreSQL) Upsert(ctx context.Context, reaction *models.ForumReaction) error {
	err := f.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"reaction_type", "updated_at"}),
		}).
		Create(reaction).Error
	if err != nil {
		return fmt.Errorf("failed to upsert reaction: %w", err)
	}
	return nil
}

func (f *ForumReactionPostgreSQL) Delete(ctx context.Context, postID uint, userID string) error {
	result := f.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.ForumReaction{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete reaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NewNotFoundError("reaction", fmt.Sprintf("%d/%s", postID, userID))
	}
	return nil
}

func (f *ForumReactionPostgreSQL) ListByPost(ctx context.Context, postID uint) ([]*models.ForumReaction, error) {
	var reactions []*models.ForumReaction
	err := f.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&reactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	return reactions, nil
}
