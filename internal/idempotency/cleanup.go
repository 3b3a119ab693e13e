package idempotency

import (
	"context"
	"log/slog"
	"time"
)

// DefaultExpiry is the default duration after which idempotency records
// expire. Replaying a request more than a day later is treated as a new
// request.
const DefaultExpiry = 24 * time.Hour

// CleanupOldRecords removes idempotency records older than the given age.
// Run periodically to keep stores without native expiry bounded.
// Returns the number of records deleted.
func CleanupOldRecords(ctx context.Context, repo Repository, age time.Duration) (int64, error) {
	deleted, err := repo.DeleteOlderThan(ctx, age)
	if err != nil {
		slog.Error("failed to clean up old idempotency records", "error", err)
		return 0, err
	}
	if deleted > 0 {
		slog.Info("cleaned up old idempotency records", "deleted", deleted, "older_than", age)
	}
	return deleted, nil
}
