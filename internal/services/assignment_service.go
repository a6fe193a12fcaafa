package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/coursehub/lms-service/internal/events"
	"github.com/coursehub/lms-service/internal/models"
	"github.com/coursehub/lms-service/internal/repositories"
	"github.com/coursehub/lms-service/internal/storage"
	"github.com/coursehub/lms-service/internal/validator"
)

const submissionFolder = "submissions"

type assignmentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.BusinessValidator
	publisher events.EventPublisher
	storage   storage.FileStorage
	guard     *accessGuard
}

func NewAssignmentService(repo repositories.Repository, logger *slog.Logger, v *validator.BusinessValidator, publisher events.EventPublisher, fileStorage storage.FileStorage) AssignmentService {
	return &assignmentService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
		storage:   fileStorage,
		guard:     newAccessGuard(repo),
	}
}

// Create creates an assignment in a course the caller owns.
func (s *assignmentService) Create(ctx context.Context, actor Actor, req *CreateAssignmentRequest) (*models.Assignment, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	if err := s.guard.requireCourseOwner(ctx, actor, req.CourseID); err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		MaxPoints:   req.MaxPoints,
		Type:        req.Type,
	}
	if assignment.Type == "" {
		assignment.Type = models.AssignmentHomework
	}
	if len(req.Rubric) > 0 {
		assignment.Rubric = datatypes.JSON(req.Rubric)
	}

	if err := s.repo.Assignment().Create(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	s.logger.InfoContext(ctx, "assignment created",
		"assignment_id", assignment.ID,
		"course_id", assignment.CourseID)

	return assignment, nil
}

// Get returns an assignment. Students additionally get their own
// submission and whether the submission window is still open.
func (s *assignmentService) Get(ctx context.Context, actor Actor, id uint) (*AssignmentDetailResponse, error) {
	assignment, err := s.repo.Assignment().GetByIDWithCourse(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assignment", id)
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	if err := s.guard.requireCourseAccess(ctx, actor, assignment.CourseID); err != nil {
		return nil, err
	}

	resp := &AssignmentDetailResponse{
		Assignment:     assignment,
		SubmissionOpen: assignment.DueDate == nil || time.Now().Before(*assignment.DueDate),
	}

	if actor.IsStudent() {
		submission, err := s.repo.Submission().GetByAssignmentAndStudent(ctx, id, actor.ID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get own submission: %w", err)
		}
		resp.MySubmission = submission
	}

	return resp, nil
}

func (s *assignmentService) ListByCourse(ctx context.Context, actor Actor, courseID uint) ([]*models.Assignment, error) {
	if err := s.guard.requireCourseAccess(ctx, actor, courseID); err != nil {
		return nil, err
	}

	assignments, err := s.repo.Assignment().ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

// ListForStudent returns all assignments across the student's
// enrollments, annotated with their own submission state.
func (s *assignmentService) ListForStudent(ctx context.Context, actor Actor) ([]*repositories.StudentAssignmentRow, error) {
	rows, err := s.repo.Assignment().ListForStudent(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list student assignments: %w", err)
	}
	return rows, nil
}

func (s *assignmentService) Update(ctx context.Context, actor Actor, id uint, req *UpdateAssignmentRequest) (*models.Assignment, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	assignment, err := s.repo.Assignment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assignment", id)
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	if err := s.guard.requireCourseOwner(ctx, actor, assignment.CourseID); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.MaxPoints != nil {
		updates["max_points"] = *req.MaxPoints
	}
	if req.Type != nil {
		updates["assignment_type"] = *req.Type
	}
	if len(req.Rubric) > 0 {
		updates["rubric"] = datatypes.JSON(req.Rubric)
	}

	if len(updates) > 0 {
		if err := s.repo.Assignment().Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("failed to update assignment: %w", err)
		}
	}

	return s.repo.Assignment().GetByID(ctx, id)
}

func (s *assignmentService) Delete(ctx context.Context, actor Actor, id uint) error {
	assignment, err := s.repo.Assignment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("assignment", id)
		}
		return fmt.Errorf("failed to get assignment: %w", err)
	}

	if err := s.guard.requireCourseOwner(ctx, actor, assignment.CourseID); err != nil {
		return err
	}

	submissions, err := s.repo.Submission().ListByAssignment(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check submissions: %w", err)
	}
	if len(submissions) > 0 {
		return NewConflictError("assignment", "cannot delete an assignment that has submissions")
	}

	if err := s.repo.Assignment().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	return nil
}

// Submit records the calling student's submission. The check order is
// fixed: assignment exists, student is enrolled, due date not passed,
// no previous submission, then content validation. The file uploads
// before the row is written; an upload failure aborts the submission.
func (s *assignmentService) Submit(ctx context.Context, actor Actor, assignmentID uint, req *SubmitAssignmentRequest, file *SubmissionFile) (*models.Submission, error) {
	assignment, err := s.repo.Assignment().GetByID(ctx, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assignment", assignmentID)
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	if err := s.guard.requireEnrolled(ctx, actor, assignment.CourseID); err != nil {
		return nil, err
	}

	if assignment.DueDate != nil && time.Now().After(*assignment.DueDate) {
		return nil, NewValidationError("due_date", "assignment due date has passed", assignment.DueDate)
	}

	existing, err := s.repo.Submission().GetByAssignmentAndStudent(ctx, assignmentID, actor.ID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing submission: %w", err)
	}
	if existing != nil {
		return nil, NewConflictError("submission", "assignment was already submitted")
	}

	if errs := s.validator.ValidateSubmissionContent(req.Text, file != nil); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	submission := &models.Submission{
		AssignmentID: assignmentID,
		StudentID:    actor.ID,
		Text:         req.Text,
		Status:       models.SubmissionSubmitted,
		SubmittedAt:  time.Now(),
	}

	if file != nil {
		uploaded, err := s.storage.Upload(ctx, file.Reader, submissionFolder, file.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to store submission file: %w", err)
		}
		submission.FileURL = &uploaded.URL
		submission.FilePublicID = &uploaded.PublicID
	}

	if err := s.repo.Submission().Create(ctx, submission); err != nil {
		// A concurrent submit may win the unique index race; clean up
		// the orphaned upload.
		if submission.FilePublicID != nil {
			if delErr := s.storage.Delete(ctx, *submission.FilePublicID); delErr != nil {
				s.logger.WarnContext(ctx, "failed to delete orphaned submission file",
					"public_id", *submission.FilePublicID,
					"error", delErr)
			}
		}
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("submission", "assignment was already submitted")
		}
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	s.publishSubmissionReceived(ctx, submission, assignment)

	s.logger.InfoContext(ctx, "submission received",
		"submission_id", submission.ID,
		"assignment_id", assignmentID,
		"student_id", actor.ID)

	return submission, nil
}

// ListSubmissions lists all submissions for an assignment the caller
// teaches.
func (s *assignmentService) ListSubmissions(ctx context.Context, actor Actor, assignmentID uint) ([]*models.Submission, error) {
	assignment, err := s.repo.Assignment().GetByID(ctx, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assignment", assignmentID)
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	if err := s.guard.requireCourseOwner(ctx, actor, assignment.CourseID); err != nil {
		return nil, err
	}

	submissions, err := s.repo.Submission().ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

// GetSubmission returns a single submission to its owner or the course
// teacher.
func (s *assignmentService) GetSubmission(ctx context.Context, actor Actor, submissionID uint) (*models.Submission, error) {
	submission, err := s.repo.Submission().GetByIDWithDetails(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("submission", submissionID)
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if submission.StudentID != actor.ID {
		if err := s.guard.requireCourseOwner(ctx, actor, submission.Assignment.CourseID); err != nil {
			return nil, err
		}
	}

	return submission, nil
}

// Grade records a grade and feedback. Only the owning teacher grades,
// the grade must lie in [0, max_points], and re-grading overwrites.
func (s *assignmentService) Grade(ctx context.Context, actor Actor, submissionID uint, req *GradeSubmissionRequest) (*models.Submission, error) {
	submission, err := s.repo.Submission().GetByIDWithDetails(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("submission", submissionID)
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if err := s.guard.requireCourseOwner(ctx, actor, submission.Assignment.CourseID); err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}
	if errs := s.validator.ValidateGrade(req.Grade, submission.Assignment.MaxPoints); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	if err := s.repo.Submission().Grade(ctx, submissionID, req.Grade, req.Feedback, actor.ID); err != nil {
		return nil, fmt.Errorf("failed to grade submission: %w", err)
	}

	graded, err := s.repo.Submission().GetByIDWithDetails(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload submission: %w", err)
	}

	s.publishSubmissionGraded(ctx, graded, actor.ID)

	s.logger.InfoContext(ctx, "submission graded",
		"submission_id", submissionID,
		"grade", req.Grade,
		"graded_by", actor.ID)

	return graded, nil
}

// GradeStats aggregates the calling student's grades across their
// enrolled courses.
func (s *assignmentService) GradeStats(ctx context.Context, actor Actor) (*repositories.GradeStats, error) {
	stats, err := s.repo.Submission().GradeStats(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute grade stats: %w", err)
	}
	return stats, nil
}

func (s *assignmentService) publishSubmissionReceived(ctx context.Context, submission *models.Submission, assignment *models.Assignment) {
	event, err := events.NewEvent(events.TopicSubmissionReceived, events.SubmissionReceivedPayload{
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		CourseID:     assignment.CourseID,
		StudentID:    submission.StudentID,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to build submission event", "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, events.TopicSubmissionReceived, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish submission event", "error", err)
	}
}

func (s *assignmentService) publishSubmissionGraded(ctx context.Context, submission *models.Submission, gradedBy string) {
	var grade float64
	if submission.Grade != nil {
		grade = *submission.Grade
	}

	event, err := events.NewEvent(events.TopicSubmissionGraded, events.SubmissionGradedPayload{
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		StudentID:    submission.StudentID,
		Grade:        grade,
		MaxPoints:    submission.Assignment.MaxPoints,
		GradedBy:     gradedBy,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to build graded event", "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, events.TopicSubmissionGraded, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish graded event", "error", err)
	}
}
