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

// InvalidateApplicationCache drops every cached view of one application:
// the record itself, the admin listings it appears in, and the aggregates.
func InvalidateApplicationCache(ctx context.Context, cm *CacheManager, applicationID, userID string) {
	SafeDelete(ctx, cm.Application,
		fmt.Sprintf("id:%s", applicationID),
		fmt.Sprintf("details:%s", applicationID))

	SafeInvalidatePattern(ctx, cm.Application, fmt.Sprintf("user:%s:*", userID))
	SafeInvalidatePattern(ctx, cm.Application, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, "applications:*")
}
