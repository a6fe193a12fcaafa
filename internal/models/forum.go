package models

import (
	"time"
)

type ForumCategory struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	CourseID    uint   `json:"course_id" gorm:"not null;index"`
	Title       string `json:"title" gorm:"not null;size:200"`
	Description string `json:"description" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Course  Course        `json:"-" gorm:"foreignKey:CourseID"`
	Threads []ForumThread `json:"threads,omitempty" gorm:"foreignKey:CategoryID"`

	// Computed fields (not stored)
	ThreadCount  int        `json:"thread_count" gorm:"-"`
	PostCount    int        `json:"post_count" gorm:"-"`
	LastActivity *time.Time `json:"last_activity" gorm:"-"`
}

type ForumThread struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	CategoryID uint   `json:"category_id" gorm:"not null;index"`
	AuthorID   string `json:"author_id" gorm:"not null;size:255;index"`
	Title      string `json:"title" gorm:"not null;size:255" validate:"required,min=1,max=255"`
	Content    string `json:"content" gorm:"type:text;not null" validate:"required"`

	// ViewCount increments on every read; replies bump ReplyCount and
	// LastReplyAt atomically with the post insert.
	ViewCount   int        `json:"view_count" gorm:"not null;default:0"`
	ReplyCount  int        `json:"reply_count" gorm:"not null;default:0"`
	IsPinned    bool       `json:"is_pinned" gorm:"not null;default:false;index"`
	IsLocked    bool       `json:"is_locked" gorm:"not null;default:false"`
	LastReplyAt *time.Time `json:"last_reply_at" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Category ForumCategory `json:"category" gorm:"foreignKey:CategoryID"`
	Author   User          `json:"author" gorm:"foreignKey:AuthorID"`
	Posts    []ForumPost   `json:"posts,omitempty" gorm:"foreignKey:ThreadID"`
}

// ForumPost is a reply inside a thread. ParentID points at another
// post for one level of nesting; top-level posts have a nil parent.
type ForumPost struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	ThreadID uint    `json:"thread_id" gorm:"not null;index"`
	AuthorID string  `json:"author_id" gorm:"not null;size:255"`
	Content  string  `json:"content" gorm:"type:text;not null" validate:"required"`
	ParentID *uint   `json:"parent_id" gorm:"index"`
	IsAnswer bool    `json:"is_answer" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Thread  ForumThread `json:"-" gorm:"foreignKey:ThreadID"`
	Author  User        `json:"author" gorm:"foreignKey:AuthorID"`
	Parent  *ForumPost  `json:"-" gorm:"foreignKey:ParentID"`
	Replies []ForumPost `json:"replies,omitempty" gorm:"foreignKey:ParentID"`

	// Computed fields (not stored)
	ReactionCount int `json:"reaction_count" gorm:"-"`
	ReplyCount    int `json:"reply_count" gorm:"-"`
}

// ForumReaction is keyed by (post, user); re-reacting replaces the
// previous reaction type (upsert semantics).
type ForumReaction struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	PostID       uint   `json:"post_id" gorm:"not null;uniqueIndex:idx_reaction_post_user"`
	UserID       string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_reaction_post_user"`
	ReactionType string `json:"reaction_type" gorm:"not null;size:50"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Post ForumPost `json:"-" gorm:"foreignKey:PostID"`
	User User      `json:"user" gorm:"foreignKey:UserID"`
}

func (ForumCategory) TableName() string {
	return "forum_categories"
}

func (ForumThread) TableName() string {
	return "forum_threads"
}

func (ForumPost) TableName() string {
	return "forum_posts"
}

func (ForumReaction) TableName() string {
	return "forum_reactions"
}
