package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/coursehub/lms-service/internal/events"
	"github.com/coursehub/lms-service/internal/repositories"
	"github.com/coursehub/lms-service/internal/search"
	"github.com/coursehub/lms-service/internal/storage"
	"github.com/coursehub/lms-service/internal/validator"
)

// ServiceManagerDeps carries everything the services need. Publisher
// is required; Storage and Indexer fall back to inert implementations
// when the integration is not configured.
type ServiceManagerDeps struct {
	Repo      repositories.Repository
	Logger    *slog.Logger
	Validator *validator.BusinessValidator
	Publisher events.EventPublisher
	Storage   storage.FileStorage
	Indexer   search.ThreadIndexer
}

type serviceManager struct {
	deps ServiceManagerDeps

	courseService     CourseService
	assignmentService AssignmentService
	forumService      ForumService
	gradebookService  GradebookService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(deps ServiceManagerDeps) ServiceManager {
	return &serviceManager{deps: deps}
}

// Initialize wires up all services and verifies the repository is
// reachable.
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	if sm.deps.Repo == nil {
		return fmt.Errorf("service manager requires a repository")
	}
	if sm.deps.Publisher == nil {
		return fmt.Errorf("service manager requires an event publisher")
	}
	if sm.deps.Indexer == nil {
		sm.deps.Indexer = search.NoopThreadIndexer{}
	}

	sm.deps.Logger.Info("initializing service manager")

	sm.courseService = NewCourseService(sm.deps.Repo, sm.deps.Logger, sm.deps.Validator, sm.deps.Publisher)
	sm.assignmentService = NewAssignmentService(sm.deps.Repo, sm.deps.Logger, sm.deps.Validator, sm.deps.Publisher, sm.deps.Storage)
	sm.forumService = NewForumService(sm.deps.Repo, sm.deps.Logger, sm.deps.Validator, sm.deps.Publisher, sm.deps.Indexer)
	sm.gradebookService = NewGradebookService(sm.deps.Repo, sm.deps.Logger)

	if repoManager, ok := sm.deps.Repo.(repositories.RepositoryManager); ok {
		if err := repoManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("repository health check failed: %w", err)
		}
	}

	sm.initialized = true
	sm.deps.Logger.Info("service manager initialized")

	return nil
}

func (sm *serviceManager) Course() CourseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.courseService
}

func (sm *serviceManager) Assignment() AssignmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.assignmentService
}

func (sm *serviceManager) Forum() ForumService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.forumService
}

func (sm *serviceManager) Gradebook() GradebookService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.gradebookService
}

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if repoManager, ok := sm.deps.Repo.(repositories.RepositoryManager); ok {
		if err := repoManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("repository health check failed: %w", err)
		}
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("shutting down service manager")

	if err := sm.deps.Publisher.Close(); err != nil {
		sm.deps.Logger.Error("failed to close event publisher", "error", err)
	}

	if repoManager, ok := sm.deps.Repo.(repositories.RepositoryManager); ok {
		if err := repoManager.Shutdown(ctx); err != nil {
			sm.deps.Logger.Error("failed to shutdown repository manager", "error", err)
		}
	}

	sm.shutdown = true
	sm.deps.Logger.Info("service manager shut down")

	return nil
}
