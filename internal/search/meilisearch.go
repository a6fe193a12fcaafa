package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/meilisearch/meilisearch-go"

	"github.com/coursehub/lms-service/internal/models"
)

const threadIndex = "threads"

// ThreadIndexer mirrors forum threads into a search index. Indexing is
// best effort; callers treat failures as non-fatal.
type ThreadIndexer interface {
	IndexThread(ctx context.Context, thread *models.ForumThread, courseID uint) error
	DeleteThread(ctx context.Context, threadID uint) error
}

type meiliThreadIndexer struct {
	client meilisearch.ServiceManager
	logger *slog.Logger
}

// NewMeiliThreadIndexer builds a Meilisearch-backed indexer and
// prepares the thread index attributes.
func NewMeiliThreadIndexer(client meilisearch.ServiceManager, logger *slog.Logger) ThreadIndexer {
	s := &meiliThreadIndexer{
		client: client,
		logger: logger,
	}
	s.initIndex()
	return s
}

func (s *meiliThreadIndexer) initIndex() {
	filterableAttrs := []string{"course_id", "category_id"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index(threadIndex).UpdateFilterableAttributes(&filterableInterface); err != nil {
		s.logger.Warn("failed to update thread filterable attributes", "error", err)
	}

	sortableAttrs := []string{"created_at", "last_reply_at", "view_count"}
	if _, err := s.client.Index(threadIndex).UpdateSortableAttributes(&sortableAttrs); err != nil {
		s.logger.Warn("failed to update thread sortable attributes", "error", err)
	}
}

type meiliThreadDoc struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	CourseID    uint   `json:"course_id"`
	CategoryID  uint   `json:"category_id"`
	AuthorName  string `json:"author_name"`
	ViewCount   int    `json:"view_count"`
	ReplyCount  int    `json:"reply_count"`
	CreatedAt   int64  `json:"created_at"`
	LastReplyAt int64  `json:"last_reply_at"`
}

func (s *meiliThreadIndexer) IndexThread(ctx context.Context, thread *models.ForumThread, courseID uint) error {
	doc := meiliThreadDoc{
		ID:         strconv.FormatUint(uint64(thread.ID), 10),
		Title:      thread.Title,
		Content:    thread.Content,
		CourseID:   courseID,
		CategoryID: thread.CategoryID,
		AuthorName: thread.Author.FullName,
		ViewCount:  thread.ViewCount,
		ReplyCount: thread.ReplyCount,
		CreatedAt:  thread.CreatedAt.Unix(),
	}
	if thread.LastReplyAt != nil {
		doc.LastReplyAt = thread.LastReplyAt.Unix()
	}

	primaryKey := "id"
	task, err := s.client.Index(threadIndex).AddDocuments([]meiliThreadDoc{doc}, &primaryKey)
	if err != nil {
		return fmt.Errorf("failed to index thread %d: %w", thread.ID, err)
	}

	s.logger.DebugContext(ctx, "thread indexed",
		"thread_id", thread.ID,
		"task_uid", task.TaskUID)

	return nil
}

func (s *meiliThreadIndexer) DeleteThread(ctx context.Context, threadID uint) error {
	id := strconv.FormatUint(uint64(threadID), 10)
	if _, err := s.client.Index(threadIndex).DeleteDocument(id); err != nil {
		return fmt.Errorf("failed to delete thread %d from index: %w", threadID, err)
	}

	s.logger.DebugContext(ctx, "thread removed from index", "thread_id", threadID)

	return nil
}

// NoopThreadIndexer is used when search indexing is not configured.
type NoopThreadIndexer struct{}

func (NoopThreadIndexer) IndexThread(context.Context, *models.ForumThread, uint) error {
	return nil
}

func (NoopThreadIndexer) DeleteThread(context.Context, uint) error {
	return nil
}
