package repositories

import (
	"context"
	"time"

	"github.com/coursehub/lms-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	TeacherID   *string `json:"teacher_id"`
	IsPublished *bool   `json:"is_published"`
	Limit       int     `json:"limit"`
	Offset      int     `json:"offset"`
	SortBy      string  `json:"sort_by"`    // "created_at", "title"
	SortOrder   string  `json:"sort_order"` // "asc", "desc"
}

type ThreadFilters struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type UserFilters struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// ===== ANNOTATED ROW STRUCTS =====

// StudentAssignmentRow is an assignment annotated with the calling
// student's own submission state (correlated subqueries keyed by the
// student id).
type StudentAssignmentRow struct {
	models.Assignment
	CourseTitle  string     `json:"course_title"`
	TeacherName  string     `json:"teacher_name"`
	HasSubmitted bool       `json:"has_submitted"`
	Grade        *float64   `json:"grade"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	Feedback     *string    `json:"feedback"`
}

// ===== STATISTICS STRUCTS =====

// GradeStats aggregates a student's grading state across every
// assignment in their enrolled courses. Percentages are rounded to
// the nearest integer and zero when no denominator exists.
type GradeStats struct {
	TotalAssignments    int     `json:"total_assignments"`
	SubmittedCount      int     `json:"submitted_assignments"`
	GradedCount         int     `json:"graded_assignments"`
	TotalPossiblePoints float64 `json:"total_possible_points"`
	TotalEarnedPoints   float64 `json:"total_earned_points"`
	AverageGrade        int     `json:"average_grade"`
	OverallPercentage   int     `json:"overall_percentage"`
}

// ===== REPOSITORY INTERFACES =====

type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	GetByIDWithTeacher(ctx context.Context, id uint) (*models.Course, error)
	List(ctx context.Context, filters CourseFilters) ([]*models.Course, int64, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) error
	Delete(ctx context.Context, id uint) error

	// Ownership guard, single-query existence check.
	ExistsOwnedBy(ctx context.Context, courseID uint, teacherID string) (bool, error)
}

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByStudentAndCourse(ctx context.Context, studentID string, courseID uint) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID uint) ([]*models.Enrollment, error)
	UpdateStatus(ctx context.Context, id uint, status models.EnrollmentStatus) error

	// Enrollment guard, single-query existence check.
	Exists(ctx context.Context, studentID string, courseID uint) (bool, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id uint) (*models.Assignment, error)
	GetByIDWithCourse(ctx context.Context, id uint) (*models.Assignment, error)
	ListByCourse(ctx context.Context, courseID uint) ([]*models.Assignment, error)
	ListForStudent(ctx context.Context, studentID string) ([]*StudentAssignmentRow, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	GetByIDWithDetails(ctx context.Context, id uint) (*models.Submission, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID uint, studentID string) (*models.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]*models.Submission, error)
	ListByStudent(ctx context.Context, studentID string) ([]*models.Submission, error)
	Grade(ctx context.Context, id uint, grade float64, feedback *string, gradedBy string) error
	GradeStats(ctx context.Context, studentID string) (*GradeStats, error)
}

type ForumCategoryRepository interface {
	CreateBatch(ctx context.Context, categories []*models.ForumCategory) error
	GetByID(ctx context.Context, id uint) (*models.ForumCategory, error)
	ListByCourse(ctx context.Context, courseID uint) ([]*models.ForumCategory, error)
	CountByCourse(ctx context.Context, courseID uint) (int64, error)
}

type ForumThreadRepository interface {
	Create(ctx context.Context, thread *models.ForumThread) error
	GetByID(ctx context.Context, id uint) (*models.ForumThread, error)
	ListByCategory(ctx context.Context, categoryID uint, filters ThreadFilters) ([]*models.ForumThread, error)
	Search(ctx context.Context, courseID uint, query string) ([]*models.ForumThread, error)

	// IncrementViewCount bumps view_count by one (atomic UPDATE).
	IncrementViewCount(ctx context.Context, id uint) error

	// IncrementReplyCount bumps reply_count by one and records the
	// reply time (atomic UPDATE; callers pair it with the post insert
	// inside one transaction).
	IncrementReplyCount(ctx context.Context, id uint, repliedAt time.Time) error

	SetPinned(ctx context.Context, id uint, pinned bool) error
	SetLocked(ctx context.Context, id uint, locked bool) error
}

type ForumPostRepository interface {
	Create(ctx context.Context, post *models.ForumPost) error
	GetByID(ctx context.Context, id uint) (*models.ForumPost, error)
	GetByIDWithThread(ctx context.Context, id uint) (*models.ForumPost, error)
	ListTopLevel(ctx context.Context, threadID uint) ([]*models.ForumPost, error)
	ListReplies(ctx context.Context, parentID uint) ([]*models.ForumPost, error)
	CountByThread(ctx context.Context, threadID uint) (int64, error)
	SetAnswer(ctx context.Context, id uint, isAnswer bool) error
}

type ForumReactionRepository interface {
	// Upsert inserts the reaction or, when the (post, user) pair
	// already exists, replaces its reaction type.
	Upsert(ctx context.Context, reaction *models.ForumReaction) error
	Delete(ctx context.Context, postID uint, userID string) error
	ListByPost(ctx context.Context, postID uint) ([]*models.ForumReaction, error)
}

// UserRepository covers the read side of user data; identity itself
// is owned by Casdoor.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	HasRole(ctx context.Context, id string, role models.UserRole) (bool, error)

	// Mirror upserts the local copy of an identity. Domain tables
	// reference users by foreign key, so every resolved identity must
	// land in the users table before it can own rows.
	Mirror(ctx context.Context, user *models.User) error
}
