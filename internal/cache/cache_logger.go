package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateCourseCache drops every cached view of one course,
// including list pages and per-student grade stats that embed it.
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseID uint, teacherID string) {
	SafeDelete(ctx, cm.Course,
		fmt.Sprintf("id:%d", courseID),
		fmt.Sprintf("details:%d", courseID))

	SafeInvalidatePattern(ctx, cm.Course, fmt.Sprintf("teacher:%s:*", teacherID))
	SafeInvalidatePattern(ctx, cm.Course, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("course:%d:*", courseID))
}

// InvalidateThreadCache drops cached thread views after a reply,
// moderation change, or reaction.
func InvalidateThreadCache(ctx context.Context, cm *CacheManager, threadID, categoryID uint) {
	SafeDelete(ctx, cm.Thread, fmt.Sprintf("id:%d", threadID))
	SafeInvalidatePattern(ctx, cm.Thread, fmt.Sprintf("category:%d:*", categoryID))
	SafeInvalidatePattern(ctx, cm.Thread, "search:*")
}

// InvalidateGradeStatsCache drops a student's cached grade aggregate
// after a submission or grading change.
func InvalidateGradeStatsCache(ctx context.Context, cm *CacheManager, studentID string) {
	SafeDelete(ctx, cm.Stats, fmt.Sprintf("grades:%s", studentID))
}
