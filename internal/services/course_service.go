package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coursehub/lms-service/internal/events"
	"github.com/coursehub/lms-service/internal/models"
	"github.com/coursehub/lms-service/internal/repositories"
	"github.com/coursehub/lms-service/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.BusinessValidator
	publisher events.EventPublisher
}

func NewCourseService(repo repositories.Repository, logger *slog.Logger, v *validator.BusinessValidator, publisher events.EventPublisher) CourseService {
	return &courseService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

// Create creates an unpublished course owned by the calling teacher.
func (s *courseService) Create(ctx context.Context, actor Actor, req *CreateCourseRequest) (*models.Course, error) {
	if err := requireTeacherRole(actor); err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	course := &models.Course{
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		TeacherID:   actor.ID,
		IsPublished: false,
	}

	if err := s.repo.Course().Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.InfoContext(ctx, "course created",
		"course_id", course.ID,
		"teacher_id", actor.ID)

	return course, nil
}

// Get returns course details. Unpublished courses are visible only to
// their owner and admins.
func (s *courseService) Get(ctx context.Context, actor Actor, id uint) (*models.Course, error) {
	course, err := s.repo.Course().GetByIDWithTeacher(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("course", id)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if !course.IsPublished && course.TeacherID != actor.ID && !actor.IsAdmin() {
		return nil, NewNotFoundError("course", id)
	}

	if actor.IsStudent() {
		enrolled, err := s.repo.Enrollment().Exists(ctx, actor.ID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check enrollment: %w", err)
		}
		course.IsEnrolled = enrolled
	}

	return course, nil
}

// List returns published courses for students; teachers additionally
// see their own unpublished courses, admins see everything.
func (s *courseService) List(ctx context.Context, actor Actor, page, size int) (*CourseListResponse, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	filters := repositories.CourseFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    "created_at",
		SortOrder: "desc",
	}

	switch {
	case actor.IsAdmin():
		// No visibility filter.
	case actor.IsTeacher():
		teacherID := actor.ID
		filters.TeacherID = &teacherID
	default:
		published := true
		filters.IsPublished = &published
	}

	courses, total, err := s.repo.Course().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	return &CourseListResponse{
		Courses: courses,
		Total:   total,
		Page:    page,
		Size:    size,
	}, nil
}

// Update applies a partial update to a course the caller owns.
func (s *courseService) Update(ctx context.Context, actor Actor, id uint, req *UpdateCourseRequest) (*models.Course, error) {
	if err := s.guard().requireCourseOwner(ctx, actor, id); err != nil {
		return nil, s.wrapCourseGuardError(ctx, err, id)
	}

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Duration != nil {
		updates["duration"] = *req.Duration
	}
	if req.IsPublished != nil {
		updates["is_published"] = *req.IsPublished
	}

	if len(updates) > 0 {
		if err := s.repo.Course().Update(ctx, id, updates); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, NewNotFoundError("course", id)
			}
			return nil, fmt.Errorf("failed to update course: %w", err)
		}
	}

	return s.repo.Course().GetByIDWithTeacher(ctx, id)
}

func (s *courseService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := s.guard().requireCourseOwner(ctx, actor, id); err != nil {
		return s.wrapCourseGuardError(ctx, err, id)
	}

	enrollments, err := s.repo.Enrollment().ListByCourse(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check enrollments: %w", err)
	}
	for _, enrollment := range enrollments {
		if enrollment.Status == models.EnrollmentEnrolled {
			return NewConflictError("course", "cannot delete a course with active enrollments")
		}
	}

	if err := s.repo.Course().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("course", id)
		}
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.InfoContext(ctx, "course deleted", "course_id", id, "actor_id", actor.ID)

	return nil
}

// Publish makes a course visible and enrollable.
func (s *courseService) Publish(ctx context.Context, actor Actor, id uint) (*models.Course, error) {
	if err := s.guard().requireCourseOwner(ctx, actor, id); err != nil {
		return nil, s.wrapCourseGuardError(ctx, err, id)
	}

	if err := s.repo.Course().Update(ctx, id, map[string]interface{}{"is_published": true}); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("course", id)
		}
		return nil, fmt.Errorf("failed to publish course: %w", err)
	}

	s.logger.InfoContext(ctx, "course published", "course_id", id)

	return s.repo.Course().GetByIDWithTeacher(ctx, id)
}

// Enroll enrolls the calling student into a published course. Only
// students enroll, at most once per course.
func (s *courseService) Enroll(ctx context.Context, actor Actor, courseID uint) (*models.Enrollment, error) {
	if !actor.IsStudent() {
		return nil, NewPermissionError("enroll", "only students enroll in courses")
	}

	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("course", courseID)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if !course.IsPublished {
		return nil, NewNotFoundError("course", courseID)
	}

	existing, err := s.repo.Enrollment().GetByStudentAndCourse(ctx, actor.ID, courseID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if existing != nil {
		if existing.Status == models.EnrollmentDropped {
			// Re-enrollment revives the dropped record.
			if err := s.repo.Enrollment().UpdateStatus(ctx, existing.ID, models.EnrollmentEnrolled); err != nil {
				return nil, fmt.Errorf("failed to re-enroll: %w", err)
			}
			existing.Status = models.EnrollmentEnrolled
			return existing, nil
		}
		return nil, NewConflictError("enrollment", "student is already enrolled in this course")
	}

	enrollment := &models.Enrollment{
		StudentID:  actor.ID,
		CourseID:   courseID,
		EnrolledAt: time.Now(),
		Status:     models.EnrollmentEnrolled,
	}

	if err := s.repo.Enrollment().Create(ctx, enrollment); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("enrollment", "student is already enrolled in this course")
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	s.publishEnrollmentCreated(ctx, enrollment)

	s.logger.InfoContext(ctx, "student enrolled",
		"course_id", courseID,
		"student_id", actor.ID)

	return enrollment, nil
}

// Drop marks the calling student's enrollment as dropped.
func (s *courseService) Drop(ctx context.Context, actor Actor, courseID uint) error {
	enrollment, err := s.repo.Enrollment().GetByStudentAndCourse(ctx, actor.ID, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("enrollment", courseID)
		}
		return fmt.Errorf("failed to get enrollment: %w", err)
	}

	if enrollment.Status != models.EnrollmentEnrolled {
		return NewConflictError("enrollment", "enrollment is not active")
	}

	if err := s.repo.Enrollment().UpdateStatus(ctx, enrollment.ID, models.EnrollmentDropped); err != nil {
		return fmt.Errorf("failed to drop enrollment: %w", err)
	}

	return nil
}

func (s *courseService) ListMyEnrollments(ctx context.Context, actor Actor) ([]*models.Enrollment, error) {
	enrollments, err := s.repo.Enrollment().ListByStudent(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

// ListStudents lists a course's roster for its teacher.
func (s *courseService) ListStudents(ctx context.Context, actor Actor, courseID uint) ([]*models.Enrollment, error) {
	if err := s.guard().requireCourseOwner(ctx, actor, courseID); err != nil {
		return nil, s.wrapCourseGuardError(ctx, err, courseID)
	}

	enrollments, err := s.repo.Enrollment().ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return enrollments, nil
}

func (s *courseService) guard() *accessGuard {
	return newAccessGuard(s.repo)
}

// wrapCourseGuardError turns an ownership denial on a missing course
// into a not-found so callers can't enumerate course ids.
func (s *courseService) wrapCourseGuardError(ctx context.Context, guardErr error, courseID uint) error {
	if _, ok := guardErr.(*PermissionError); !ok {
		return guardErr
	}

	if _, err := s.repo.Course().GetByID(ctx, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("course", courseID)
		}
	}
	return guardErr
}

func (s *courseService) publishEnrollmentCreated(ctx context.Context, enrollment *models.Enrollment) {
	event, err := events.NewEvent(events.TopicEnrollmentCreated, events.EnrollmentCreatedPayload{
		EnrollmentID: enrollment.ID,
		CourseID:     enrollment.CourseID,
		StudentID:    enrollment.StudentID,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to build enrollment event", "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, events.TopicEnrollmentCreated, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish enrollment event", "error", err)
	}
}
