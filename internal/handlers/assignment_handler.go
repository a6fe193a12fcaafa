package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coursehub/lms-service/internal/services"
	"github.com/coursehub/lms-service/internal/utils"
)

// Attachments above this size are rejected before upload.
const maxSubmissionFileSize = 20 << 20 // 20 MiB

type AssignmentHandler struct {
	BaseHandler
	service services.AssignmentService
}

func NewAssignmentHandler(service services.AssignmentService, logger utils.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateAssignment creates an assignment in an owned course
// @Summary Create assignment
// @Tags assignments
// @Accept json
// @Produce json
// @Param assignment body services.CreateAssignmentRequest true "Assignment data"
// @Success 201 {object} SuccessResponse{data=models.Assignment}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /assignments [post]
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	h.LogRequest(c, "Creating assignment")

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req services.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	assignment, err := h.service.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondCreated(c, "Assignment created successfully", assignment)
}

// GetAssignment returns one assignment; students also get their own
// submission state
// @Summary Get assignment
// @Tags assignments
// @Produce json
// @Param id path uint true "Assignment ID"
// @Success 200 {object} SuccessResponse{data=services.AssignmentDetailResponse}
// @Failure 404 {object} ErrorResponse
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting assignment", "assignment_id", id)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	detail, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Assignment retrieved successfully", detail)
}

// ListCourseAssignments lists a course's assignments
// @Summary List course assignments
// @Tags assignments
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} SuccessResponse{data=[]models.Assignment}
// @Router /courses/{id}/assignments [get]
func (h *AssignmentHandler) ListCourseAssignments(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	h.LogRequest(c, "Listing course assignments", "course_id", courseID)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	assignments, err := h.service.ListByCourse(c.Request.Context(), actor, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Assignments retrieved successfully", assignments)
}

// ListMyAssignments lists all assignments across the student's courses
// @Summary List my assignments
// @Tags assignments
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]repositories.StudentAssignmentRow}
// @Router /assignments/me [get]
func (h *AssignmentHandler) ListMyAssignments(c *gin.Context) {
	h.LogRequest(c, "Listing my assignments")

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	rows, err := h.service.ListForStudent(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Assignments retrieved successfully", rows)
}

// UpdateAssignment applies a partial update
// @Summary Update assignment
// @Tags assignments
// @Accept json
// @Produce json
// @Param id path uint true "Assignment ID"
// @Param assignment body services.UpdateAssignmentRequest true "Fields to update"
// @Success 200 {object} SuccessResponse{data=models.Assignment}
// @Router /assignments/{id} [put]
func (h *AssignmentHandler) UpdateAssignment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating assignment", "assignment_id", id)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req services.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	assignment, err := h.service.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Assignment updated successfully", assignment)
}

// DeleteAssignment removes an assignment without submissions
// @Summary Delete assignment
// @Tags assignments
// @Produce json
// @Param id path uint true "Assignment ID"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting assignment", "assignment_id", id)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Assignment deleted successfully", nil)
}

// SubmitAssignment records the calling student's submission. The body
// is multipart form data: a "submission_text" field and/or a "file"
// attachment.
// @Summary Submit assignment
// @Tags assignments
// @Accept multipart/form-data
// @Produce json
// @Param id path uint true "Assignment ID"
// @Param submission_text formData string false "Text answer"
// @Param file formData file false "Attachment"
// @Success 201 {object} SuccessResponse{data=models.Submission}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /assignments/{id}/submit [post]
func (h *AssignmentHandler) SubmitAssignment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Submitting assignment", "assignment_id", id)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req services.SubmitAssignmentRequest
	if text := c.PostForm("submission_text"); text != "" {
		req.Text = &text
	}

	var file *services.SubmissionFile
	fileHeader, err := c.FormFile("file")
	if err == nil && fileHeader != nil {
		if fileHeader.Size > maxSubmissionFileSize {
			h.respondError(c, http.StatusBadRequest, "File too large", "attachment exceeds the 20MB limit")
			return
		}

		opened, err := fileHeader.Open()
		if err != nil {
			h.respondError(c, http.StatusBadRequest, "Failed to read attachment", err.Error())
			return
		}
		defer opened.Close()

		file = &services.SubmissionFile{
			Name:   fileHeader.Filename,
			Size:   fileHeader.Size,
			Reader: opened,
		}
	}

	submission, err := h.service.Submit(c.Request.Context(), actor, id, &req, file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondCreated(c, "Assignment submitted successfully", submission)
}

// ListSubmissions lists all submissions for a teacher's assignment
// @Summary List assignment submissions
// @Tags assignments
// @Produce json
// @Param id path uint true "Assignment ID"
// @Success 200 {object} SuccessResponse{data=[]models.Submission}
// @Failure 403 {object} ErrorResponse
// @Router /assignments/{id}/submissions [get]
func (h *AssignmentHandler) ListSubmissions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Listing submissions", "assignment_id", id)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	submissions, err := h.service.ListSubmissions(c.Request.Context(), actor, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Submissions retrieved successfully", submissions)
}

// GetSubmission returns one submission to its owner or the teacher
// @Summary Get submission
// @Tags submissions
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} SuccessResponse{data=models.Submission}
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id} [get]
func (h *AssignmentHandler) GetSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting submission", "submission_id", id)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	submission, err := h.service.GetSubmission(c.Request.Context(), actor, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Submission retrieved successfully", submission)
}

// GradeSubmission records a grade and feedback
// @Summary Grade submission
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path uint true "Submission ID"
// @Param grade body services.GradeSubmissionRequest true "Grade data"
// @Success 200 {object} SuccessResponse{data=models.Submission}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /submissions/{id}/grade [post]
func (h *AssignmentHandler) GradeSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Grading submission", "submission_id", id)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req services.GradeSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	submission, err := h.service.Grade(c.Request.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Submission graded successfully", submission)
}

// GetMyGradeStats aggregates the calling student's grades
// @Summary Get my grade statistics
// @Tags submissions
// @Produce json
// @Success 200 {object} SuccessResponse{data=repositories.GradeStats}
// @Router /submissions/me/stats [get]
func (h *AssignmentHandler) GetMyGradeStats(c *gin.Context) {
	h.LogRequest(c, "Getting grade stats")

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	stats, err := h.service.GradeStats(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Grade statistics retrieved successfully", stats)
}
