package services

import (
	"context"
	"io"

	"github.com/coursehub/lms-service/internal/models"
	"github.com/coursehub/lms-service/internal/repositories"
	"github.com/coursehub/lms-service/internal/validator"
)

// Actor is the authenticated caller. Handlers build it from the
// verified token; services never read identity from anywhere else.
type Actor struct {
	ID   string
	Role models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

func (a Actor) IsTeacher() bool {
	return a.Role == models.RoleTeacher
}

func (a Actor) IsStudent() bool {
	return a.Role == models.RoleStudent
}

// ===== REQUEST DTOs =====

// Use business validator types
type CreateCourseRequest = validator.CourseCreateRequest
type UpdateCourseRequest = validator.CourseUpdateRequest
type CreateAssignmentRequest = validator.AssignmentCreateRequest
type UpdateAssignmentRequest = validator.AssignmentUpdateRequest
type SubmitAssignmentRequest = validator.SubmitAssignmentRequest
type GradeSubmissionRequest = validator.GradeSubmissionRequest
type CreateThreadRequest = validator.ThreadCreateRequest
type CreatePostRequest = validator.PostCreateRequest
type ReactionRequest = validator.ReactionRequest

// ===== RESPONSE DTOs =====

type CourseListResponse struct {
	Courses []*models.Course `json:"courses"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Size    int              `json:"size"`
}

// AssignmentDetailResponse pairs an assignment with the caller's own
// submission when the caller is a student.
type AssignmentDetailResponse struct {
	Assignment     *models.Assignment `json:"assignment"`
	MySubmission   *models.Submission `json:"my_submission,omitempty"`
	SubmissionOpen bool               `json:"submission_open"`
}

// ThreadDetailResponse is a thread with its post tree.
type ThreadDetailResponse struct {
	Thread *models.ForumThread `json:"thread"`
	Posts  []*models.ForumPost `json:"posts"`
}

type ThreadListResponse struct {
	Threads []*models.ForumThread `json:"threads"`
	Page    int                   `json:"page"`
	Size    int                   `json:"size"`
}

// SubmissionFile is an uploaded attachment for a submission.
type SubmissionFile struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// GradebookExport is a rendered spreadsheet ready to stream to the
// client.
type GradebookExport struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ===== SERVICE INTERFACES =====

type CourseService interface {
	Create(ctx context.Context, actor Actor, req *CreateCourseRequest) (*models.Course, error)
	Get(ctx context.Context, actor Actor, id uint) (*models.Course, error)
	List(ctx context.Context, actor Actor, page, size int) (*CourseListResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req *UpdateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	Publish(ctx context.Context, actor Actor, id uint) (*models.Course, error)

	Enroll(ctx context.Context, actor Actor, courseID uint) (*models.Enrollment, error)
	Drop(ctx context.Context, actor Actor, courseID uint) error
	ListMyEnrollments(ctx context.Context, actor Actor) ([]*models.Enrollment, error)
	ListStudents(ctx context.Context, actor Actor, courseID uint) ([]*models.Enrollment, error)
}

type AssignmentService interface {
	Create(ctx context.Context, actor Actor, req *CreateAssignmentRequest) (*models.Assignment, error)
	Get(ctx context.Context, actor Actor, id uint) (*AssignmentDetailResponse, error)
	ListByCourse(ctx context.Context, actor Actor, courseID uint) ([]*models.Assignment, error)
	ListForStudent(ctx context.Context, actor Actor) ([]*repositories.StudentAssignmentRow, error)
	Update(ctx context.Context, actor Actor, id uint, req *UpdateAssignmentRequest) (*models.Assignment, error)
	Delete(ctx context.Context, actor Actor, id uint) error

	Submit(ctx context.Context, actor Actor, assignmentID uint, req *SubmitAssignmentRequest, file *SubmissionFile) (*models.Submission, error)
	ListSubmissions(ctx context.Context, actor Actor, assignmentID uint) ([]*models.Submission, error)
	GetSubmission(ctx context.Context, actor Actor, submissionID uint) (*models.Submission, error)
	Grade(ctx context.Context, actor Actor, submissionID uint, req *GradeSubmissionRequest) (*models.Submission, error)
	GradeStats(ctx context.Context, actor Actor) (*repositories.GradeStats, error)
}

type ForumService interface {
	ListCategories(ctx context.Context, actor Actor, courseID uint) ([]*models.ForumCategory, error)

	CreateThread(ctx context.Context, actor Actor, req *CreateThreadRequest) (*models.ForumThread, error)
	GetThread(ctx context.Context, actor Actor, threadID uint) (*ThreadDetailResponse, error)
	ListThreads(ctx context.Context, actor Actor, categoryID uint, page, size int) (*ThreadListResponse, error)
	SearchThreads(ctx context.Context, actor Actor, courseID uint, query string) ([]*models.ForumThread, error)

	CreatePost(ctx context.Context, actor Actor, threadID uint, req *CreatePostRequest) (*models.ForumPost, error)
	React(ctx context.Context, actor Actor, postID uint, req *ReactionRequest) error
	RemoveReaction(ctx context.Context, actor Actor, postID uint) error
	MarkAnswer(ctx context.Context, actor Actor, postID uint, isAnswer bool) (*models.ForumPost, error)

	PinThread(ctx context.Context, actor Actor, threadID uint, pinned bool) (*models.ForumThread, error)
	LockThread(ctx context.Context, actor Actor, threadID uint, locked bool) (*models.ForumThread, error)
}

type GradebookService interface {
	ExportCourseGradebook(ctx context.Context, actor Actor, courseID uint) (*GradebookExport, error)
}

// ServiceManager aggregates all services behind one lifecycle.
type ServiceManager interface {
	Course() CourseService
	Assignment() AssignmentService
	Forum() ForumService
	Gradebook() GradebookService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
