package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/coursehub/lms-service/internal/services"
	"github.com/coursehub/lms-service/internal/utils"
)

type ForumHandler struct {
	BaseHandler
	service services.ForumService
}

func NewForumHandler(service services.ForumService, logger utils.Logger) *ForumHandler {
	return &ForumHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListCategories returns a course's forum categories
// @Summary List forum categories
// @Tags forum
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} SuccessResponse{data=[]models.ForumCategory}
// @Failure 403 {object} ErrorResponse
// @Router /courses/{id}/forum/categories [get]
func (h *ForumHandler) ListCategories(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	h.LogRequest(c, "Listing forum categories", "course_id", courseID)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	categories, err := h.service.ListCategories(c.Request.Context(), actor, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Categories retrieved successfully", categories)
}

// CreateThread starts a new discussion thread
// @Summary Create thread
// @Tags forum
// @Accept json
// @Produce json
// @Param thread body services.CreateThreadRequest true "Thread data"
// @Success 201 {object} SuccessResponse{data=models.ForumThread}
// @Failure 400 {object} ErrorResponse
// @Router /forum/threads [post]
func (h *ForumHandler) CreateThread(c *gin.Context) {
	h.LogRequest(c, "Creating thread")

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req services.CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	thread, err := h.service.CreateThread(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondCreated(c, "Thread created successfully", thread)
}

// GetThread returns a thread with its posts and counts the view
// @Summary Get thread
// @Tags forum
// @Produce json
// @Param id path uint true "Thread ID"
// @Success 200 {object} SuccessResponse{data=services.ThreadDetailResponse}
// @Failure 404 {object} ErrorResponse
// @Router /forum/threads/{id} [get]
func (h *ForumHandler) GetThread(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting thread", "thread_id", id)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	detail, err := h.service.GetThread(c.Request.Context(), actor, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Thread retrieved successfully", detail)
}

// ListThreads returns one category's threads, pinned first
// @Summary List threads
// @Tags forum
// @Produce json
// @Param id path uint true "Category ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} SuccessResponse{data=services.ThreadListResponse}
// @Router /forum/categories/{id}/threads [get]
func (h *ForumHandler) ListThreads(c *gin.Context) {
	categoryID := h.parseIDParam(c, "id")
	if categoryID == 0 {
		return
	}

	h.LogRequest(c, "Listing threads", "category_id", categoryID)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	threads, err := h.service.ListThreads(c.Request.Context(), actor, categoryID, page, size)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Threads retrieved successfully", threads)
}

// SearchThreads searches a course's forum by title and content
// @Summary Search threads
// @Tags forum
// @Produce json
// @Param id path uint true "Course ID"
// @Param q query string true "Search query"
// @Success 200 {object} SuccessResponse{data=[]models.ForumThread}
// @Router /courses/{id}/forum/search [get]
func (h *ForumHandler) SearchThreads(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	query := c.Query("q")
	h.LogRequest(c, "Searching threads", "course_id", courseID, "query", query)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	threads, err := h.service.SearchThreads(c.Request.Context(), actor, courseID, query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Search completed successfully", threads)
}

// CreatePost replies to a thread
// @Summary Create post
// @Tags forum
// @Accept json
// @Produce json
// @Param id path uint true "Thread ID"
// @Param post body services.CreatePostRequest true "Post data"
// @Success 201 {object} SuccessResponse{data=models.ForumPost}
// @Failure 423 {object} ErrorResponse
// @Router /forum/threads/{id}/posts [post]
func (h *ForumHandler) CreatePost(c *gin.Context) {
	threadID := h.parseIDParam(c, "id")
	if threadID == 0 {
		return
	}

	h.LogRequest(c, "Creating post", "thread_id", threadID)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req services.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), actor, threadID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondCreated(c, "Post created successfully", post)
}

// ReactToPost records or replaces the caller's reaction
// @Summary React to post
// @Tags forum
// @Accept json
// @Produce json
// @Param id path uint true "Post ID"
// @Param reaction body services.ReactionRequest true "Reaction data"
// @Success 200 {object} SuccessResponse
// @Router /forum/posts/{id}/reactions [put]
func (h *ForumHandler) ReactToPost(c *gin.Context) {
	postID := h.parseIDParam(c, "id")
	if postID == 0 {
		return
	}

	h.LogRequest(c, "Reacting to post", "post_id", postID)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req services.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	if err := h.service.React(c.Request.Context(), actor, postID, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Reaction saved successfully", nil)
}

// RemoveReaction deletes the caller's reaction from a post
// @Summary Remove reaction
// @Tags forum
// @Produce json
// @Param id path uint true "Post ID"
// @Success 200 {object} SuccessResponse
// @Router /forum/posts/{id}/reactions [delete]
func (h *ForumHandler) RemoveReaction(c *gin.Context) {
	postID := h.parseIDParam(c, "id")
	if postID == 0 {
		return
	}

	h.LogRequest(c, "Removing reaction", "post_id", postID)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	if err := h.service.RemoveReaction(c.Request.Context(), actor, postID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Reaction removed successfully", nil)
}

// MarkAnswer flags or clears a post as the accepted answer
// @Summary Mark or unmark post as answer
// @Tags forum
// @Produce json
// @Param id path uint true "Post ID"
// @Param answer query bool false "Answer state" default(true)
// @Success 200 {object} SuccessResponse{data=models.ForumPost}
// @Failure 403 {object} ErrorResponse
// @Router /forum/posts/{id}/answer [post]
func (h *ForumHandler) MarkAnswer(c *gin.Context) {
	postID := h.parseIDParam(c, "id")
	if postID == 0 {
		return
	}

	isAnswer := c.DefaultQuery("answer", "true") == "true"
	h.LogRequest(c, "Marking answer", "post_id", postID, "answer", isAnswer)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	post, err := h.service.MarkAnswer(c.Request.Context(), actor, postID, isAnswer)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Post updated successfully", post)
}

// PinThread toggles a thread's pinned flag
// @Summary Pin or unpin thread
// @Tags forum
// @Produce json
// @Param id path uint true "Thread ID"
// @Param pinned query bool false "Pinned state" default(true)
// @Success 200 {object} SuccessResponse{data=models.ForumThread}
// @Failure 403 {object} ErrorResponse
// @Router /forum/threads/{id}/pin [post]
func (h *ForumHandler) PinThread(c *gin.Context) {
	threadID := h.parseIDParam(c, "id")
	if threadID == 0 {
		return
	}

	pinned := c.DefaultQuery("pinned", "true") == "true"
	h.LogRequest(c, "Pinning thread", "thread_id", threadID, "pinned", pinned)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	thread, err := h.service.PinThread(c.Request.Context(), actor, threadID, pinned)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Thread updated successfully", thread)
}

// LockThread toggles a thread's locked flag
// @Summary Lock or unlock thread
// @Tags forum
// @Produce json
// @Param id path uint true "Thread ID"
// @Param locked query bool false "Locked state" default(true)
// @Success 200 {object} SuccessResponse{data=models.ForumThread}
// @Failure 403 {object} ErrorResponse
// @Router /forum/threads/{id}/lock [post]
func (h *ForumHandler) LockThread(c *gin.Context) {
	threadID := h.parseIDParam(c, "id")
	if threadID == 0 {
		return
	}

	locked := c.DefaultQuery("locked", "true") == "true"
	h.LogRequest(c, "Locking thread", "thread_id", threadID, "locked", locked)

	actor, ok := actorFromContext(c)
	if !ok {
		h.respondError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	thread, err := h.service.LockThread(c.Request.Context(), actor, threadID, locked)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondOK(c, "Thread updated successfully", thread)
}
