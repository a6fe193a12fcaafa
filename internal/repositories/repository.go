package repositories

import "context"

// Repository aggregates all entity repositories behind one handle.
type Repository interface {
	// Course domain
	Course() CourseRepository
	Enrollment() EnrollmentRepository

	// Assignment domain
	Assignment() AssignmentRepository
	Submission() SubmissionRepository

	// Forum domain
	ForumCategory() ForumCategoryRepository
	ForumThread() ForumThreadRepository
	ForumPost() ForumPostRepository
	ForumReaction() ForumReactionRepository

	// User domain (read-only; identity is owned by Casdoor)
	User() UserRepository

	// Transaction support. The Repository passed to fn is bound to a
	// single database transaction; the callback's error rolls it back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
