package a2a

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adcontexthq/salesagent/internal/push"
)

const (
	defaultRetention = time.Hour
	defaultMaxTasks  = 10_000
	evictionInterval = time.Minute
)

// taskEntry pairs a task with the ownership and delivery state that
// never goes on the wire.
type taskEntry struct {
	task        Task
	tenantID    string
	principalID string
	pushConfig  *push.Config
	updatedAt   time.Time
}

// TaskStore holds per-request task state in memory. Tasks are retained
// after their last transition so buyers can poll results, then evicted;
// a hard cap bounds memory under bursts.
type TaskStore struct {
	mu        sync.RWMutex
	tasks     map[string]*taskEntry
	retention time.Duration
	maxTasks  int
	onMetrics func(state string)
	logger    *zap.Logger
}

func NewTaskStore(logger *zap.Logger) *TaskStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskStore{
		tasks:     make(map[string]*taskEntry),
		retention: defaultRetention,
		maxTasks:  defaultMaxTasks,
		logger:    logger,
	}
}

// SetMetricsRecorder configures an optional callback fired once per task
// reaching a terminal state. Set before serving; not guarded afterwards.
func (s *TaskStore) SetMetricsRecorder(fn func(state string)) { s.onMetrics = fn }

// SetLimits overrides the retention window and the entry cap. Set before
// serving; not guarded afterwards.
func (s *TaskStore) SetLimits(retention time.Duration, maxEntries int) {
	if retention > 0 {
		s.retention = retention
	}
	if maxEntries > 0 {
		s.maxTasks = maxEntries
	}
}

func isTerminal(state string) bool {
	return state == StateCompleted || state == StateFailed || state == StateCanceled
}

// Create registers a new working task owned by the calling principal.
func (s *TaskStore) Create(tenantID, principalID, contextID string, metadata map[string]any) *Task {
	now := time.Now().UTC()
	task := Task{
		ID:        "task_" + uuid.New().String(),
		Kind:      "task",
		ContextID: contextID,
		Status:    TaskStatus{State: StateWorking, Timestamp: now.Format(time.RFC3339)},
		Metadata:  metadata,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(now)
	s.tasks[task.ID] = &taskEntry{
		task:        task,
		tenantID:    tenantID,
		principalID: principalID,
		updatedAt:   now,
	}
	return snapshot(&task)
}

// Get returns a task snapshot if it exists and the caller owns it.
// Admin principals see every task in their tenant.
func (s *TaskStore) Get(id, tenantID, principalID string, admin bool) (*Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.tasks[id]
	if !ok || !e.visibleTo(tenantID, principalID, admin) {
		return nil, false
	}
	return snapshot(&e.task), true
}

// Update applies fn to the stored task under the write lock and returns
// the resulting snapshot.
func (s *TaskStore) Update(id string, fn func(*Task)) (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	prev := e.task.Status.State
	fn(&e.task)
	e.updatedAt = time.Now().UTC()
	if s.onMetrics != nil && e.task.Status.State != prev && isTerminal(e.task.Status.State) {
		s.onMetrics(e.task.Status.State)
	}
	return snapshot(&e.task), true
}

// SetPushConfig attaches the delivery target for a task's lifecycle
// webhooks.
func (s *TaskStore) SetPushConfig(id string, cfg *push.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.tasks[id]; ok {
		e.pushConfig = cfg
	}
}

// PushConfig returns the task's delivery target, if any.
func (s *TaskStore) PushConfig(id string) *push.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.tasks[id]; ok {
		return e.pushConfig
	}
	return nil
}

// Cancel transitions a task to canceled. The second return reports
// whether the task was found and visible; the third whether this call
// performed the transition (false means it was already canceled, which
// is not an error).
func (s *TaskStore) Cancel(id, tenantID, principalID string, admin bool) (*Task, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[id]
	if !ok || !e.visibleTo(tenantID, principalID, admin) {
		return nil, false, false
	}
	if e.task.Status.State == StateCanceled {
		return snapshot(&e.task), true, false
	}
	e.task.Status = TaskStatus{State: StateCanceled, Timestamp: time.Now().UTC().Format(time.RFC3339)}
	e.updatedAt = time.Now().UTC()
	if s.onMetrics != nil {
		s.onMetrics(StateCanceled)
	}
	return snapshot(&e.task), true, true
}

// Len reports the number of live tasks.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// RunEviction ages out stale tasks until ctx is done.
func (s *TaskStore) RunEviction(ctx context.Context) {
	ticker := time.NewTicker(evictionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			evicted := s.evictLocked(time.Now().UTC())
			s.mu.Unlock()
			if evicted > 0 {
				s.logger.Debug("evicted tasks", zap.Int("count", evicted))
			}
		}
	}
}

// evictLocked drops tasks idle past retention, then enforces the size
// cap by dropping the oldest. Caller holds the write lock.
func (s *TaskStore) evictLocked(now time.Time) int {
	evicted := 0
	for id, e := range s.tasks {
		if now.Sub(e.updatedAt) > s.retention {
			delete(s.tasks, id)
			evicted++
		}
	}
	if len(s.tasks) >= s.maxTasks {
		type aged struct {
			id string
			at time.Time
		}
		all := make([]aged, 0, len(s.tasks))
		for id, e := range s.tasks {
			all = append(all, aged{id, e.updatedAt})
		}
		sort.Slice(all, func(i, j int) bool { return all[i].at.Before(all[j].at) })
		for _, a := range all[:len(all)-s.maxTasks+1] {
			delete(s.tasks, a.id)
			evicted++
		}
	}
	return evicted
}

func (e *taskEntry) visibleTo(tenantID, principalID string, admin bool) bool {
	if e.tenantID != tenantID {
		return false
	}
	return admin || e.principalID == principalID
}

// snapshot copies the task so callers never alias store-owned slices.
func snapshot(t *Task) *Task {
	out := *t
	if t.Artifacts != nil {
		out.Artifacts = append([]Artifact(nil), t.Artifacts...)
	}
	return &out
}
