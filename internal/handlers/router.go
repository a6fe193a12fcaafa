package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/coursehub/lms-service/internal/config"
	"github.com/coursehub/lms-service/internal/models"
	"github.com/coursehub/lms-service/internal/repositories"
	"github.com/coursehub/lms-service/internal/services"
	"github.com/coursehub/lms-service/internal/utils"
)

type HandlerManager struct {
	courseHandler     *CourseHandler
	assignmentHandler *AssignmentHandler
	forumHandler      *ForumHandler
	userHandler       *UserHandler
	authMiddleware    *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		courseHandler:     NewCourseHandler(serviceManager.Course(), serviceManager.Gradebook(), logger),
		assignmentHandler: NewAssignmentHandler(serviceManager.Assignment(), logger),
		forumHandler:      NewForumHandler(serviceManager.Forum(), logger),
		userHandler:       NewUserHandler(userRepo, logger),
		authMiddleware:    authMiddleware,
	}
}

// SetupRoutes registers all API routes.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	teacherOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher)
	studentOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Course routes
		courses := v1.Group("/courses")
		{
			courses.POST("", teacherOnly, hm.courseHandler.CreateCourse)
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/me/enrollments", studentOnly, hm.courseHandler.ListMyEnrollments)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.PUT("/:id", teacherOnly, hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", teacherOnly, hm.courseHandler.DeleteCourse)
			courses.POST("/:id/publish", teacherOnly, hm.courseHandler.PublishCourse)

			// Enrollment
			courses.POST("/:id/enroll", studentOnly, hm.courseHandler.EnrollCourse)
			courses.DELETE("/:id/enroll", studentOnly, hm.courseHandler.DropCourse)
			courses.GET("/:id/students", teacherOnly, hm.courseHandler.ListStudents)

			// Course-scoped assignments and gradebook
			courses.GET("/:id/assignments", hm.assignmentHandler.ListCourseAssignments)
			courses.GET("/:id/gradebook/export", teacherOnly, hm.courseHandler.ExportGradebook)

			// Course-scoped forum entry points
			courses.GET("/:id/forum/categories", hm.forumHandler.ListCategories)
			courses.GET("/:id/forum/search", hm.forumHandler.SearchThreads)
		}

		// Assignment routes
		assignments := v1.Group("/assignments")
		{
			assignments.POST("", teacherOnly, hm.assignmentHandler.CreateAssignment)
			assignments.GET("/me", studentOnly, hm.assignmentHandler.ListMyAssignments)
			assignments.GET("/:id", hm.assignmentHandler.GetAssignment)
			assignments.PUT("/:id", teacherOnly, hm.assignmentHandler.UpdateAssignment)
			assignments.DELETE("/:id", teacherOnly, hm.assignmentHandler.DeleteAssignment)

			assignments.POST("/:id/submit", studentOnly, hm.assignmentHandler.SubmitAssignment)
			assignments.GET("/:id/submissions", teacherOnly, hm.assignmentHandler.ListSubmissions)
		}

		// Submission routes
		submissions := v1.Group("/submissions")
		{
			submissions.GET("/me/stats", studentOnly, hm.assignmentHandler.GetMyGradeStats)
			submissions.GET("/:id", hm.assignmentHandler.GetSubmission)
			submissions.POST("/:id/grade", teacherOnly, hm.assignmentHandler.GradeSubmission)
		}

		// Forum routes
		forum := v1.Group("/forum")
		{
			forum.POST("/threads", hm.forumHandler.CreateThread)
			forum.GET("/threads/:id", hm.forumHandler.GetThread)
			forum.POST("/threads/:id/posts", hm.forumHandler.CreatePost)
			forum.POST("/threads/:id/pin", teacherOnly, hm.forumHandler.PinThread)
			forum.POST("/threads/:id/lock", teacherOnly, hm.forumHandler.LockThread)

			forum.GET("/categories/:id/threads", hm.forumHandler.ListThreads)

			forum.PUT("/posts/:id/reactions", hm.forumHandler.ReactToPost)
			forum.DELETE("/posts/:id/reactions", hm.forumHandler.RemoveReaction)
			forum.POST("/posts/:id/answer", hm.forumHandler.MarkAnswer)
		}

		// User lookup routes
		users := v1.Group("/users")
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/:id", hm.userHandler.GetUser)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "lms-service",
		})
	})
}
