package identity

import (
	"context"
	"log/slog"
	"time"
)

const (
	syncAttempts = 3
	syncBackoff  = 200 * time.Millisecond
)

// Syncer mirrors provider user records into local storage. The sync is a
// non-critical step: it is retried a bounded number of times with linearly
// increasing backoff and then abandoned with only a log line, never failing
// the caller's request.
type Syncer struct {
	repo   Repository
	logger *slog.Logger
}

func NewSyncer(repo Repository, logger *slog.Logger) *Syncer {
	return &Syncer{repo: repo, logger: logger}
}

func (s *Syncer) Sync(ctx context.Context, u *User) {
	var err error
	for attempt := 1; attempt <= syncAttempts; attempt++ {
		if err = s.repo.Upsert(ctx, u); err == nil {
			return
		}
		if attempt < syncAttempts {
			select {
			case <-time.After(time.Duration(attempt) * syncBackoff):
			case <-ctx.Done():
				s.logger.Warn("user sync abandoned", "error", ctx.Err(), "user_id", u.ID)
				return
			}
		}
	}
	s.logger.Warn("user sync abandoned after retries", "error", err, "user_id", u.ID)
}
