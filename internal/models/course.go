package models

import (
	"time"
)

type Course struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description string `json:"description" gorm:"type:text;not null" validate:"required"`
	Duration    int    `json:"duration" gorm:"not null" validate:"min=0"` // weeks
	TeacherID   string `json:"teacher_id" gorm:"not null;index;size:255"`
	IsPublished bool   `json:"is_published" gorm:"not null;default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Teacher     User         `json:"teacher" gorm:"foreignKey:TeacherID"`
	Enrollments []Enrollment `json:"enrollments,omitempty" gorm:"foreignKey:CourseID"`
	Assignments []Assignment `json:"assignments,omitempty" gorm:"foreignKey:CourseID"`

	// Computed fields (not stored)
	EnrolledCount int  `json:"enrolled_count" gorm:"-"`
	IsEnrolled    bool `json:"is_enrolled" gorm:"-"`
}

type EnrollmentStatus string

const (
	EnrollmentEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

// Enrollment links one student to one course. The (student, course)
// pair is unique; only published courses accept enrollments.
type Enrollment struct {
	ID         uint             `json:"id" gorm:"primaryKey"`
	StudentID  string           `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_enrollment_student_course"`
	CourseID   uint             `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_student_course"`
	EnrolledAt time.Time        `json:"enrolled_at" gorm:"not null"`
	Status     EnrollmentStatus `json:"status" gorm:"not null;size:20;default:enrolled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student User   `json:"student" gorm:"foreignKey:StudentID"`
	Course  Course `json:"course" gorm:"foreignKey:CourseID"`
}

func (Course) TableName() string {
	return "courses"
}

func (Enrollment) TableName() string {
	return "enrollments"
}
