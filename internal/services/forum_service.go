package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coursehub/lms-service/internal/events"
	"github.com/coursehub/lms-service/internal/models"
	"github.com/coursehub/lms-service/internal/repositories"
	"github.com/coursehub/lms-service/internal/search"
	"github.com/coursehub/lms-service/internal/validator"
)

// Every course forum starts with the same three categories.
var defaultForumCategories = []struct {
	Title       string
	Description string
}{
	{"General Discussion", "Open discussion about the course"},
	{"Assignments & Homework", "Questions and discussion about assignments"},
	{"Q&A", "Ask the teacher and fellow students"},
}

type forumService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.BusinessValidator
	publisher events.EventPublisher
	indexer   search.ThreadIndexer
	guard     *accessGuard
}

func NewForumService(repo repositories.Repository, logger *slog.Logger, v *validator.BusinessValidator, publisher events.EventPublisher, indexer search.ThreadIndexer) ForumService {
	if indexer == nil {
		indexer = search.NoopThreadIndexer{}
	}
	return &forumService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
		indexer:   indexer,
		guard:     newAccessGuard(repo),
	}
}

// ListCategories returns a course's forum categories, seeding the
// default set on first access.
func (s *forumService) ListCategories(ctx context.Context, actor Actor, courseID uint) ([]*models.ForumCategory, error) {
	if err := s.guard.requireCourseAccess(ctx, actor, courseID); err != nil {
		return nil, err
	}

	if err := s.ensureDefaultCategories(ctx, courseID); err != nil {
		return nil, err
	}

	categories, err := s.repo.ForumCategory().ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// ensureDefaultCategories seeds the fixed category set exactly once
// per course. The count check runs inside the same transaction as the
// insert so two concurrent first readers cannot double-seed.
func (s *forumService) ensureDefaultCategories(ctx context.Context, courseID uint) error {
	count, err := s.repo.ForumCategory().CountByCourse(ctx, courseID)
	if err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		count, err := txRepo.ForumCategory().CountByCourse(ctx, courseID)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		categories := make([]*models.ForumCategory, 0, len(defaultForumCategories))
		for _, c := range defaultForumCategories {
			categories = append(categories, &models.ForumCategory{
				CourseID:    courseID,
				Title:       c.Title,
				Description: c.Description,
			})
		}
		return txRepo.ForumCategory().CreateBatch(ctx, categories)
	})
	if err != nil {
		return fmt.Errorf("failed to seed default categories: %w", err)
	}

	s.logger.InfoContext(ctx, "default forum categories created", "course_id", courseID)

	return nil
}

func (s *forumService) CreateThread(ctx context.Context, actor Actor, req *CreateThreadRequest) (*models.ForumThread, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	courseID, err := s.guard.courseIDForCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.requireCourseAccess(ctx, actor, courseID); err != nil {
		return nil, err
	}

	thread := &models.ForumThread{
		CategoryID: req.CategoryID,
		AuthorID:   actor.ID,
		Title:      req.Title,
		Content:    req.Content,
	}

	if err := s.repo.ForumThread().Create(ctx, thread); err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	s.indexThreadAsync(ctx, thread.ID, courseID)

	s.logger.InfoContext(ctx, "thread created",
		"thread_id", thread.ID,
		"category_id", req.CategoryID,
		"author_id", actor.ID)

	return s.repo.ForumThread().GetByID(ctx, thread.ID)
}

// GetThread returns a thread with its post tree and counts the view.
func (s *forumService) GetThread(ctx context.Context, actor Actor, threadID uint) (*ThreadDetailResponse, error) {
	thread, err := s.repo.ForumThread().GetByID(ctx, threadID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("thread", threadID)
		}
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}

	if err := s.guard.requireCourseAccess(ctx, actor, thread.Category.CourseID); err != nil {
		return nil, err
	}

	if err := s.repo.ForumThread().IncrementViewCount(ctx, threadID); err != nil {
		s.logger.WarnContext(ctx, "failed to increment view count",
			"thread_id", threadID,
			"error", err)
	} else {
		thread.ViewCount++
	}

	posts, err := s.repo.ForumPost().ListTopLevel(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return &ThreadDetailResponse{
		Thread: thread,
		Posts:  posts,
	}, nil
}

func (s *forumService) ListThreads(ctx context.Context, actor Actor, categoryID uint, page, size int) (*ThreadListResponse, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	courseID, err := s.guard.courseIDForCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.requireCourseAccess(ctx, actor, courseID); err != nil {
		return nil, err
	}

	threads, err := s.repo.ForumThread().ListByCategory(ctx, categoryID, repositories.ThreadFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	return &ThreadListResponse{
		Threads: threads,
		Page:    page,
		Size:    size,
	}, nil
}

func (s *forumService) SearchThreads(ctx context.Context, actor Actor, courseID uint, query string) ([]*models.ForumThread, error) {
	if query == "" {
		return nil, NewValidationError("q", "search query is required", query)
	}

	if err := s.guard.requireCourseAccess(ctx, actor, courseID); err != nil {
		return nil, err
	}

	threads, err := s.repo.ForumThread().Search(ctx, courseID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search threads: %w", err)
	}
	return threads, nil
}

// CreatePost adds a reply to a thread. Replies nest one level: a post
// answers either the thread or a top-level post, never a reply. The
// post insert and the thread's reply counter bump commit together.
func (s *forumService) CreatePost(ctx context.Context, actor Actor, threadID uint, req *CreatePostRequest) (*models.ForumPost, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	thread, err := s.repo.ForumThread().GetByID(ctx, threadID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("thread", threadID)
		}
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}

	courseID := thread.Category.CourseID
	if err := s.guard.requireCourseAccess(ctx, actor, courseID); err != nil {
		return nil, err
	}

	if thread.IsLocked {
		if err := s.guard.requireCourseOwner(ctx, actor, courseID); err != nil {
			return nil, fmt.Errorf("%w: thread %d accepts no new posts", ErrLocked, threadID)
		}
	}

	if req.ParentID != nil {
		parent, err := s.repo.ForumPost().GetByID(ctx, *req.ParentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, NewNotFoundError("post", *req.ParentID)
			}
			return nil, fmt.Errorf("failed to get parent post: %w", err)
		}
		if parent.ThreadID != threadID {
			return nil, NewValidationError("parent_id", "parent post belongs to a different thread", *req.ParentID)
		}
		if parent.ParentID != nil {
			return nil, NewValidationError("parent_id", "replies nest only one level deep", *req.ParentID)
		}
	}

	post := &models.ForumPost{
		ThreadID: threadID,
		AuthorID: actor.ID,
		Content:  req.Content,
		ParentID: req.ParentID,
	}

	now := time.Now()
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.ForumPost().Create(ctx, post); err != nil {
			return err
		}
		return txRepo.ForumThread().IncrementReplyCount(ctx, threadID, now)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.publishForumPostCreated(ctx, post)
	s.indexThreadAsync(ctx, threadID, courseID)

	s.logger.InfoContext(ctx, "forum post created",
		"post_id", post.ID,
		"thread_id", threadID,
		"author_id", actor.ID)

	return s.repo.ForumPost().GetByID(ctx, post.ID)
}

// React records or replaces the caller's reaction on a post.
func (s *forumService) React(ctx context.Context, actor Actor, postID uint, req *ReactionRequest) error {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	post, err := s.repo.ForumPost().GetByIDWithThread(ctx, postID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("post", postID)
		}
		return fmt.Errorf("failed to get post: %w", err)
	}

	if err := s.guard.requireCourseAccess(ctx, actor, post.Thread.Category.CourseID); err != nil {
		return err
	}

	reaction := &models.ForumReaction{
		PostID:       postID,
		UserID:       actor.ID,
		ReactionType: req.ReactionType,
	}
	if err := s.repo.ForumReaction().Upsert(ctx, reaction); err != nil {
		return fmt.Errorf("failed to save reaction: %w", err)
	}

	return nil
}

func (s *forumService) RemoveReaction(ctx context.Context, actor Actor, postID uint) error {
	if err := s.repo.ForumReaction().Delete(ctx, postID, actor.ID); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("reaction", postID)
		}
		return fmt.Errorf("failed to remove reaction: %w", err)
	}
	return nil
}

// MarkAnswer flags or clears a post as the accepted answer. The thread
// author and the course teacher may mark answers.
func (s *forumService) MarkAnswer(ctx context.Context, actor Actor, postID uint, isAnswer bool) (*models.ForumPost, error) {
	post, err := s.repo.ForumPost().GetByIDWithThread(ctx, postID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("post", postID)
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	if post.Thread.AuthorID != actor.ID {
		if err := s.guard.requireCourseOwner(ctx, actor, post.Thread.Category.CourseID); err != nil {
			return nil, NewPermissionError("mark answer", "only the thread author or the course teacher marks answers")
		}
	}

	if err := s.repo.ForumPost().SetAnswer(ctx, postID, isAnswer); err != nil {
		return nil, fmt.Errorf("failed to mark answer: %w", err)
	}

	return s.repo.ForumPost().GetByID(ctx, postID)
}

// PinThread is a teacher moderation action.
func (s *forumService) PinThread(ctx context.Context, actor Actor, threadID uint, pinned bool) (*models.ForumThread, error) {
	return s.moderateThread(ctx, actor, threadID, "pin", func(r repositories.ForumThreadRepository) error {
		return r.SetPinned(ctx, threadID, pinned)
	})
}

// LockThread closes a thread for new posts.
func (s *forumService) LockThread(ctx context.Context, actor Actor, threadID uint, locked bool) (*models.ForumThread, error) {
	return s.moderateThread(ctx, actor, threadID, "lock", func(r repositories.ForumThreadRepository) error {
		return r.SetLocked(ctx, threadID, locked)
	})
}

func (s *forumService) moderateThread(ctx context.Context, actor Actor, threadID uint, action string, apply func(repositories.ForumThreadRepository) error) (*models.ForumThread, error) {
	thread, err := s.repo.ForumThread().GetByID(ctx, threadID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("thread", threadID)
		}
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}

	if err := s.guard.requireCourseOwner(ctx, actor, thread.Category.CourseID); err != nil {
		return nil, NewPermissionError(action+" thread", "only the course teacher moderates threads")
	}

	if err := apply(s.repo.ForumThread()); err != nil {
		return nil, fmt.Errorf("failed to %s thread: %w", action, err)
	}

	s.logger.InfoContext(ctx, "thread moderated",
		"thread_id", threadID,
		"action", action,
		"actor_id", actor.ID)

	return s.repo.ForumThread().GetByID(ctx, threadID)
}

// indexThreadAsync mirrors the thread into the search index without
// blocking the request. Index failures only log.
func (s *forumService) indexThreadAsync(ctx context.Context, threadID, courseID uint) {
	bgCtx := context.WithoutCancel(ctx)
	go func() {
		thread, err := s.repo.ForumThread().GetByID(bgCtx, threadID)
		if err != nil {
			s.logger.Warn("failed to load thread for indexing", "thread_id", threadID, "error", err)
			return
		}
		if err := s.indexer.IndexThread(bgCtx, thread, courseID); err != nil {
			s.logger.Warn("failed to index thread", "thread_id", threadID, "error", err)
		}
	}()
}

func (s *forumService) publishForumPostCreated(ctx context.Context, post *models.ForumPost) {
	event, err := events.NewEvent(events.TopicForumPostCreated, events.ForumPostCreatedPayload{
		PostID:   post.ID,
		ThreadID: post.ThreadID,
		AuthorID: post.AuthorID,
		ParentID: post.ParentID,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to build forum post event", "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, events.TopicForumPostCreated, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish forum post event", "error", err)
	}
}
