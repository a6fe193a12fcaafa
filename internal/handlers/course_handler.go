package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/coursehub/lms-service/internal/services"
	"github.com/coursehub/lms-service/internal/utils"
)

type CourseHandler struct {
	BaseHandler
	courseService    services.CourseService
	gradebookService services.GradebookService
}

func NewCourseHandler(courseService services.CourseService, gradebookService services.GradebookService, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:      NewBaseHandler(logger),
		courseService:    courseService,
		gradebookService: gradebookService,
	}
}

// CreateCourse creates a new course owned by the calling teacher
// @Summary Create course
// @Tags courses
// @Accept json
// @Produce json
// @Param course body services.CreateCourseRequest true "Course data"
// @Success 201 {object} SuccessResponse{data=models.Course}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	h.LogRequest(c, "Creating course")

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req services.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondCreated(c, "Course created successfully", course)
}

// ListCourses lists courses visible to the caller
// @Summary List courses
// @Tags courses
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} SuccessResponse{data=services.CourseListResponse}
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	h.LogRequest(c, "Listing courses")

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	courses, err := h.courseService.List(c.Request.Context(), actor, page, size)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Courses retrieved successfully", courses)
}

// GetCourse returns one course with its teacher and enrollment count
// @Summary Get course
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} SuccessResponse{data=models.Course}
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting course", "course_id", id)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	course, err := h.courseService.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Course retrieved successfully", course)
}

// UpdateCourse applies a partial update to an owned course
// @Summary Update course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param course body services.UpdateCourseRequest true "Fields to update"
// @Success 200 {object} SuccessResponse{data=models.Course}
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [put]
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating course", "course_id", id)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req services.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	course, err := h.courseService.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Course updated successfully", course)
}

// DeleteCourse removes a course without active enrollments
// @Summary Delete course
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting course", "course_id", id)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	if err := h.courseService.Delete(c.Request.Context(), actor, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Course deleted successfully", nil)
}

// PublishCourse makes a course visible to students
// @Summary Publish course
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} SuccessResponse{data=models.Course}
// @Router /courses/{id}/publish [post]
func (h *CourseHandler) PublishCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Publishing course", "course_id", id)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	course, err := h.courseService.Publish(c.Request.Context(), actor, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Course published successfully", course)
}

// EnrollCourse enrolls the calling student
// @Summary Enroll in course
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 201 {object} SuccessResponse{data=models.Enrollment}
// @Failure 409 {object} ErrorResponse
// @Router /courses/{id}/enroll [post]
func (h *CourseHandler) EnrollCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Enrolling in course", "course_id", id)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	enrollment, err := h.courseService.Enroll(c.Request.Context(), actor, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondCreated(c, "Enrolled successfully", enrollment)
}

// DropCourse marks the caller's enrollment as dropped
// @Summary Drop course
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} SuccessResponse
// @Router /courses/{id}/enroll [delete]
func (h *CourseHandler) DropCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Dropping course", "course_id", id)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	if err := h.courseService.Drop(c.Request.Context(), actor, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Course dropped successfully", nil)
}

// ListMyEnrollments lists the caller's enrollments
// @Summary List my enrollments
// @Tags courses
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]models.Enrollment}
// @Router /courses/me/enrollments [get]
func (h *CourseHandler) ListMyEnrollments(c *gin.Context) {
	h.LogRequest(c, "Listing my enrollments")

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	enrollments, err := h.courseService.ListMyEnrollments(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Enrollments retrieved successfully", enrollments)
}

// ListStudents lists a course roster for its teacher
// @Summary List course students
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} SuccessResponse{data=[]models.Enrollment}
// @Failure 403 {object} ErrorResponse
// @Router /courses/{id}/students [get]
func (h *CourseHandler) ListStudents(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Listing course students", "course_id", id)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	students, err := h.courseService.ListStudents(c.Request.Context(), actor, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Students retrieved successfully", students)
}

// ExportGradebook streams the course gradebook as an xlsx file
// @Summary Export course gradebook
// @Tags courses
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Course ID"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Router /courses/{id}/gradebook/export [get]
func (h *CourseHandler) ExportGradebook(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Exporting gradebook", "course_id", id)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	export, err := h.gradebookService.ExportCourseGradebook(c.Request.Context(), actor, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	c.Data(http.StatusOK, export.ContentType, export.Content)
}
