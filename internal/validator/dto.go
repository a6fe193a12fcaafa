package validator

import (
	"encoding/json"
	"time"

	"github.com/coursehub/lms-service/internal/models"
)

// ===== COURSE REQUESTS =====

type CourseCreateRequest struct {
	Title       string `json:"title" validate:"required,course_title"`
	Description string `json:"description" validate:"required,max=5000"`
	Duration    int    `json:"duration" validate:"omitempty,min=0,max=520"` // weeks
}

type CourseUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,course_title"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Duration    *int    `json:"duration" validate:"omitempty,min=0,max=520"`
	IsPublished *bool   `json:"is_published"`
}

// ===== ASSIGNMENT REQUESTS =====

type AssignmentCreateRequest struct {
	CourseID    uint                  `json:"course_id" validate:"required"`
	Title       string                `json:"title" validate:"required,course_title"`
	Description *string               `json:"description" validate:"omitempty,max=5000"`
	DueDate     *time.Time            `json:"due_date" validate:"omitempty,future_date"`
	MaxPoints   int                   `json:"max_points" validate:"required,max_points"`
	Type        models.AssignmentType `json:"assignment_type" validate:"omitempty,assignment_type"`
	Rubric      json.RawMessage       `json:"rubric"`
}

type AssignmentUpdateRequest struct {
	Title       *string                `json:"title" validate:"omitempty,course_title"`
	Description *string                `json:"description" validate:"omitempty,max=5000"`
	DueDate     *time.Time             `json:"due_date"`
	MaxPoints   *int                   `json:"max_points" validate:"omitempty,max_points"`
	Type        *models.AssignmentType `json:"assignment_type" validate:"omitempty,assignment_type"`
	Rubric      json.RawMessage        `json:"rubric"`
}

// ===== SUBMISSION REQUESTS =====

// SubmitAssignmentRequest carries the text part of a submission; an
// attached file arrives as multipart form data alongside it.
type SubmitAssignmentRequest struct {
	Text *string `json:"submission_text" validate:"omitempty,max=50000"`
}

type GradeSubmissionRequest struct {
	Grade    float64 `json:"grade" validate:"min=0"`
	Feedback *string `json:"feedback" validate:"omitempty,max=10000"`
}

// ===== FORUM REQUESTS =====

type ThreadCreateRequest struct {
	CategoryID uint   `json:"category_id" validate:"required"`
	Title      string `json:"title" validate:"required,min=1,max=255"`
	Content    string `json:"content" validate:"required,max=50000"`
}

type PostCreateRequest struct {
	Content  string `json:"content" validate:"required,max=50000"`
	ParentID *uint  `json:"parent_id"`
}

// ReactionType is freeform; clients pick their own vocabulary. The
// column caps it at 50 characters.
type ReactionRequest struct {
	ReactionType string `json:"reaction_type" validate:"required,max=50"`
}
