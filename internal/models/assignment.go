package models

import (
	"time"

	"gorm.io/datatypes"
)

type AssignmentType string

const (
	AssignmentHomework AssignmentType = "homework"
	AssignmentQuiz     AssignmentType = "quiz"
	AssignmentProject  AssignmentType = "project"
	AssignmentExam     AssignmentType = "exam"
)

type Assignment struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	CourseID    uint           `json:"course_id" gorm:"not null;index"`
	Title       string         `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description *string        `json:"description" gorm:"type:text" validate:"omitempty,max=5000"`
	DueDate     *time.Time     `json:"due_date"` // when set, gates submission
	MaxPoints   int            `json:"max_points" gorm:"not null" validate:"required,min=1"`
	Type        AssignmentType `json:"assignment_type" gorm:"column:assignment_type;size:20;default:homework"`

	// Free-form grading rubric, shaped by the client.
	Rubric datatypes.JSON `json:"rubric,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Course      Course       `json:"course" gorm:"foreignKey:CourseID"`
	Submissions []Submission `json:"submissions,omitempty" gorm:"foreignKey:AssignmentID"`
}

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
)

// Submission is a student's answer artifact for one assignment:
// text and/or an uploaded file. Unique per (assignment, student).
type Submission struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	AssignmentID uint             `json:"assignment_id" gorm:"not null;uniqueIndex:idx_submission_assignment_student"`
	StudentID    string           `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_submission_assignment_student"`
	Text         *string          `json:"submission_text" gorm:"column:submission_text;type:text"`
	FileURL      *string          `json:"file_url" gorm:"size:500"`
	FilePublicID *string          `json:"file_public_id" gorm:"size:255"`
	Status       SubmissionStatus `json:"status" gorm:"not null;size:20;default:submitted"`
	SubmittedAt  time.Time        `json:"submitted_at" gorm:"not null"`

	// Grading. Grade stays nil until a teacher grades the submission;
	// when set it must lie in [0, assignment.MaxPoints].
	Grade    *float64   `json:"grade"`
	Feedback *string    `json:"feedback" gorm:"type:text"`
	GradedBy *string    `json:"graded_by" gorm:"size:255"`
	GradedAt *time.Time `json:"graded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assignment Assignment `json:"assignment" gorm:"foreignKey:AssignmentID"`
	Student    User       `json:"student" gorm:"foreignKey:StudentID"`
}

func (Assignment) TableName() string {
	return "assignments"
}

func (Submission) TableName() string {
	return "submissions"
}
