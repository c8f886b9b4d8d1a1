package persistence

import (
	"context"
	"time"

	"ledger-service/internal/ledger"
	"ledger-service/internal/storage"
	"ledger-service/pkg/errors"

	"go.uber.org/zap"
)

// Sync bridges the in-memory ledger to durable storage. Reload pulls the
// full snapshot and rebuilds the ledger; WriteThrough pushes one mutation's
// rows and audit entries down before the mutation becomes visible in
// memory, so the ledger never records a change that was never persisted.
type Sync struct {
	store  storage.Store
	ledger *ledger.Ledger
	logger *zap.Logger

	maxRetries   int
	baseDelay    time.Duration
	writeTimeout time.Duration
}

// NewSync creates a persistence bridge with default retry policy. The write
// timeout bounds one full write-through attempt sequence, retries included.
func NewSync(store storage.Store, ldg *ledger.Ledger, writeTimeout time.Duration, logger *zap.Logger) *Sync {
	return &Sync{
		store:        store,
		ledger:       ldg,
		logger:       logger,
		maxRetries:   3,
		baseDelay:    100 * time.Millisecond,
		writeTimeout: writeTimeout,
	}
}

// Reload fetches the full inventory snapshot from storage and rebuilds the
// ledger from it. Read-only with respect to durable storage. Used at
// startup and whenever an external write may have drifted the cache.
func (s *Sync) Reload(ctx context.Context) error {
	records, err := s.store.ReadAllInventory(ctx)
	if err != nil {
		s.logger.Error("Failed to reload inventory snapshot", zap.Error(err))
		return err
	}

	s.ledger.Initialize(records)
	s.logger.Info("Ledger reloaded from storage", zap.Int("records", len(records)))
	return nil
}

// WriteThrough persists one stock commit, retrying transient failures with
// exponential backoff. Non-retryable failures and exhausted retries are
// returned to the caller, which must discard the staged in-memory delta.
func (s *Sync) WriteThrough(ctx context.Context, commit storage.StockCommit) error {
	if s.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
	}

	var lastErr error

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.baseDelay * time.Duration(1<<uint(attempt-1)) // 100ms, 200ms, ...
			select {
			case <-ctx.Done():
				return errors.NewTimeout("write-through", ctx.Err())
			case <-time.After(delay):
			}
		}

		err := s.store.ApplyStockCommit(ctx, commit)
		if err == nil {
			return nil
		}
		lastErr = err

		stdErr, ok := err.(*errors.StandardError)
		if !ok || !stdErr.Retryable() {
			return err
		}

		s.logger.Warn("Retryable write-through failure",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", s.maxRetries),
		)
	}

	s.logger.Error("Write-through failed after retries", zap.Error(lastErr))
	return lastErr
}
