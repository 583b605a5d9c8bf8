// Package activity records security-relevant actions. Writes are best effort:
// a failed or dropped entry never affects the operation it documents.
package activity

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks movietrack/services/activity Store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"movietrack/internal/database"
	"movietrack/internal/validation"
	"movietrack/models"
)

const (
	defaultQueueSize = 256
	defaultPageSize  = 50
	maxPageSize      = 100
	writeTimeout     = 5 * time.Second
)

// Store persists and queries audit entries.
type Store interface {
	Insert(ctx context.Context, entry *models.ActivityLog) error
	Query(ctx context.Context, f models.ActivityFilter, offset, limit int) ([]models.ActivityLog, int, error)
}

var _ Store = (*database.ActivityRepository)(nil)

// Recorder queues audit entries and writes them from a single worker.
type Recorder struct {
	store      Store
	queue      chan models.ActivityLog
	workers    conc.WaitGroup
	mu         sync.RWMutex
	closed     bool
	now        func() time.Time
	attempts   uint
	retryDelay time.Duration
}

// Option customises a Recorder.
type Option func(*Recorder)

// WithQueueSize bounds the number of pending entries.
func WithQueueSize(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.queue = make(chan models.ActivityLog, n)
		}
	}
}

// WithRetry sets how many times a write is attempted and the delay between attempts.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(r *Recorder) {
		if attempts > 0 {
			r.attempts = attempts
		}
		r.retryDelay = delay
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder starts the writer goroutine. Call Close to drain it.
func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:      store,
		queue:      make(chan models.ActivityLog, defaultQueueSize),
		now:        time.Now,
		attempts:   3,
		retryDelay: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.workers.Go(r.run)
	return r
}

// Record enqueues an entry without blocking. A full queue drops the entry.
func (r *Recorder) Record(entry models.ActivityLog) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		log.Printf("[activity] recorder closed, dropping %s entry for user %s", entry.Action, entry.UserID)
		return
	}
	select {
	case r.queue <- entry:
	default:
		log.Printf("[activity] queue full, dropping %s entry for user %s", entry.Action, entry.UserID)
	}
}

// Log records an action attributed to user.
func (r *Recorder) Log(user *models.User, action models.ActivityAction, details, ip string) {
	if user == nil {
		return
	}
	r.Record(models.ActivityLog{
		UserID:    user.ID,
		UserName:  user.Name,
		Action:    action,
		Details:   details,
		IPAddress: ip,
	})
}

// Close stops accepting entries and waits for the queue to drain.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.workers.Wait()
}

func (r *Recorder) run() {
	for entry := range r.queue {
		r.write(entry)
	}
}

func (r *Recorder) write(entry models.ActivityLog) {
	err := retry.Do(
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			defer cancel()
			return r.store.Insert(ctx, &entry)
		},
		retry.Attempts(r.attempts),
		retry.Delay(r.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.Printf("[activity] failed to record %s entry for user %s: %v", entry.Action, entry.UserID, err)
	}
}

// Query returns one page of entries, newest first.
func (r *Recorder) Query(ctx context.Context, f models.ActivityFilter, page, limit int) (*models.ActivityPage, error) {
	if f.Action != "" && !f.Action.Valid() {
		return nil, validation.New("action", fmt.Sprintf("unknown action %q", f.Action))
	}
	page, limit = normalisePage(page, limit)

	logs, total, err := r.store.Query(ctx, f, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity logs: %w", err)
	}

	return &models.ActivityPage{
		Logs:       logs,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

func normalisePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
