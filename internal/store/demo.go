package store

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"taskdash/internal/models"
)

const (
	// DemoTasksKey is the slot holding the mock record list.
	DemoTasksKey = "e2e-demo-tasks-v1"

	DefaultPlanDelay = 400 * time.Millisecond
	DefaultAutoDelay = 500 * time.Millisecond

	timestampLayout = "2006-01-02T15:04:05.000Z07:00"

	demoPlanSummary  = "Demo mode: Orchestrator is mocked. Run the backend locally to enable real planning."
	demoStartSummary = "Demo mode: Start task is mocked. Run the backend locally to enable real execution."
	demoAutoSummary  = "Demo mode: Auto-task is mocked. Run the backend locally to enable real automation."

	demoImportSummary     = "Imported from Jira (demo)"
	demoImportDescription = "Demo placeholder. Run locally with the backend to enable real Jira import."
)

// DemoOptions configures a DemoStore. Zero values select the defaults.
type DemoOptions struct {
	Seed      []models.TaskRecord
	Logger    *slog.Logger
	Now       func() time.Time
	Sleep     func(ctx context.Context, d time.Duration) error
	PlanDelay time.Duration
	AutoDelay time.Duration
}

// DemoStore is a RecordStore backed by one key-value slot. It simulates the
// backend's asynchronous actions with fixed delays.
type DemoStore struct {
	slots     Slots
	seed      []models.TaskRecord
	logger    *slog.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	planDelay time.Duration
	autoDelay time.Duration

	// mu serializes read-modify-write sequences on the slot. It is never held
	// across a simulated delay.
	mu sync.Mutex
}

// NewDemoStore creates a demo store over slots.
func NewDemoStore(slots Slots, opts DemoOptions) *DemoStore {
	s := &DemoStore{
		slots:     slots,
		seed:      opts.Seed,
		logger:    opts.Logger,
		now:       opts.Now,
		sleep:     opts.Sleep,
		planDelay: opts.PlanDelay,
		autoDelay: opts.AutoDelay,
	}
	if s.seed == nil {
		s.seed = DefaultSeed()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "demo_store")
	if s.now == nil {
		s.now = time.Now
	}
	if s.sleep == nil {
		s.sleep = sleepContext
	}
	if s.planDelay <= 0 {
		s.planDelay = DefaultPlanDelay
	}
	if s.autoDelay <= 0 {
		s.autoDelay = DefaultAutoDelay
	}
	return s
}

func (s *DemoStore) ListTasks(ctx context.Context) ([]models.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx), nil
}

func (s *DemoStore) CreateTask(ctx context.Context, payload models.CreateTaskPayload) (models.TaskRecord, error) {
	if err := payload.Validate(); err != nil {
		return models.TaskRecord{}, err
	}
	return s.insert(ctx, payload, "", models.TypeTask), nil
}

func (s *DemoStore) CreateSubTask(ctx context.Context, payload models.CreateSubTaskPayload) (models.TaskRecord, error) {
	if err := payload.Validate(); err != nil {
		return models.TaskRecord{}, err
	}
	return s.insert(ctx, payload.CreateTaskPayload, payload.SubTaskID, models.TypeSubtask), nil
}

func (s *DemoStore) UpdateTask(ctx context.Context, taskID string, payload models.UpdateTaskPayload) (models.TaskRecord, error) {
	return s.update(ctx, &models.NotFoundError{Kind: "task", ID: taskID}, payload, func(rec models.TaskRecord) bool {
		return rec.TaskID == taskID && rec.SubTaskID == ""
	})
}

func (s *DemoStore) UpdateSubTask(ctx context.Context, subTaskID string, payload models.UpdateTaskPayload) (models.TaskRecord, error) {
	return s.update(ctx, &models.NotFoundError{Kind: "subtask", ID: subTaskID}, payload, func(rec models.TaskRecord) bool {
		return rec.SubTaskID == subTaskID
	})
}

// ImportFromJira cannot reach Jira, so it creates a placeholder task.
func (s *DemoStore) ImportFromJira(ctx context.Context, payload models.JiraImportPayload) (models.TaskRecord, error) {
	if err := payload.Validate(); err != nil {
		return models.TaskRecord{}, err
	}
	return s.CreateTask(ctx, models.CreateTaskPayload{
		TaskID:      payload.JiraTaskID,
		Summary:     demoImportSummary,
		Description: demoImportDescription,
		RepoURL:     payload.RepoURL,
		BaseBranch:  payload.Branch,
		Status:      models.StatusPending,
	})
}

// Orchestrate marks the record PLANNING, waits, then marks it READY.
func (s *DemoStore) Orchestrate(ctx context.Context, payload models.TaskRunPayload) (models.Ack, error) {
	return s.runAction(ctx, payload, models.StatusPlanning, demoPlanSummary, s.planDelay, models.StatusReady)
}

// Start marks the record IN_PROGRESS. Nothing follows.
func (s *DemoStore) Start(ctx context.Context, payload models.TaskRunPayload) (models.Ack, error) {
	return s.runAction(ctx, payload, models.StatusInProgress, demoStartSummary, 0, "")
}

// Auto marks the record QUEUED, waits, then marks it DONE.
func (s *DemoStore) Auto(ctx context.Context, payload models.TaskRunPayload) (models.Ack, error) {
	return s.runAction(ctx, payload, models.StatusQueued, demoAutoSummary, s.autoDelay, models.StatusDone)
}

// Reset drops the stored list so the next read reseeds it.
func (s *DemoStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots.Delete(ctx, DemoTasksKey)
}

func (s *DemoStore) runAction(ctx context.Context, payload models.TaskRunPayload, interim models.TaskStatus, summary string, delay time.Duration, final models.TaskStatus) (models.Ack, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	// Once the interim status is written the terminal one always follows.
	ctx = context.WithoutCancel(ctx)
	if _, err := s.setStatus(ctx, payload.TaskID, interim, &summary); err != nil {
		return nil, err
	}
	if final == "" {
		return models.Ack{"ok": true}, nil
	}
	if err := s.sleep(ctx, delay); err != nil {
		return nil, err
	}
	if _, err := s.setStatus(ctx, payload.TaskID, final, nil); err != nil {
		return nil, err
	}
	return models.Ack{"ok": true}, nil
}

// setStatus resolves actionID as a subtask id first, then as a top-level
// task id.
func (s *DemoStore) setStatus(ctx context.Context, actionID string, status models.TaskStatus, agentSummary *string) (models.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.read(ctx)
	idx := indexOf(tasks, func(rec models.TaskRecord) bool { return rec.SubTaskID == actionID })
	if idx < 0 {
		idx = indexOf(tasks, func(rec models.TaskRecord) bool { return rec.TaskID == actionID && rec.SubTaskID == "" })
	}
	if idx < 0 {
		return models.TaskRecord{}, &models.NotFoundError{Kind: "task", ID: actionID}
	}

	next := tasks[idx].Clone()
	next.Status = status
	if agentSummary != nil {
		next.AgentSummary = *agentSummary
	}
	next.UpdatedAt = s.timestamp()
	tasks[idx] = next
	s.write(ctx, tasks)
	return next, nil
}

func (s *DemoStore) insert(ctx context.Context, payload models.CreateTaskPayload, subTaskID string, taskType models.TaskType) models.TaskRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.read(ctx)
	status := payload.Status
	if status == "" {
		status = models.StatusPending
	}
	now := s.timestamp()
	rec := models.TaskRecord{
		ID:             nextID(tasks),
		TaskID:         payload.TaskID,
		SubTaskID:      subTaskID,
		TaskType:       taskType,
		Description:    payload.Description,
		Summary:        payload.Summary,
		RepoURL:        payload.RepoURL,
		BaseBranch:     payload.BaseBranch,
		Status:         status,
		Prompt:         payload.Prompt,
		AgentSummary:   payload.AgentSummary,
		AttachmentPath: payload.AttachmentPath,
		AdditionalJSON: payload.AdditionalJSON,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	rec = rec.Clone()

	next := make([]models.TaskRecord, 0, len(tasks)+1)
	next = append(next, rec)
	next = append(next, tasks...)
	s.write(ctx, next)
	return rec
}

func (s *DemoStore) update(ctx context.Context, notFound error, payload models.UpdateTaskPayload, match func(models.TaskRecord) bool) (models.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.read(ctx)
	idx := indexOf(tasks, match)
	if idx < 0 {
		return models.TaskRecord{}, notFound
	}

	prev := tasks[idx]
	updated := payload.Apply(prev)
	updated.TaskID = prev.TaskID
	updated.SubTaskID = prev.SubTaskID
	updated.TaskType = prev.TaskType
	updated.UpdatedAt = s.timestamp()

	tasks[idx] = updated
	s.write(ctx, tasks)
	return updated.Clone(), nil
}

// read returns the stored list, seeding the slot on first use. Unreadable
// or malformed contents fall back to the seed without overwriting the slot.
func (s *DemoStore) read(ctx context.Context) []models.TaskRecord {
	raw, ok, err := s.slots.Get(ctx, DemoTasksKey)
	if err != nil {
		s.logger.Warn("read demo tasks", "error", err)
		return cloneRecords(s.seed)
	}
	if !ok || raw == "" {
		seeded := cloneRecords(s.seed)
		s.write(ctx, seeded)
		return seeded
	}

	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || trimmed[0] != '[' {
		s.logger.Warn("demo tasks slot is not a list; using seed")
		return cloneRecords(s.seed)
	}
	var tasks []models.TaskRecord
	if err := json.Unmarshal(trimmed, &tasks); err != nil {
		s.logger.Warn("decode demo tasks", "error", err)
		return cloneRecords(s.seed)
	}
	return tasks
}

// write persists tasks. Failures are logged and otherwise ignored; the
// caller's result stands.
func (s *DemoStore) write(ctx context.Context, tasks []models.TaskRecord) {
	data, err := json.Marshal(tasks)
	if err != nil {
		s.logger.Warn("encode demo tasks", "error", err)
		return
	}
	if err := s.slots.Set(ctx, DemoTasksKey, string(data)); err != nil {
		s.logger.Warn("write demo tasks", "error", err)
	}
}

func (s *DemoStore) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

func indexOf(tasks []models.TaskRecord, match func(models.TaskRecord) bool) int {
	for i, rec := range tasks {
		if match(rec) {
			return i
		}
	}
	return -1
}

func nextID(tasks []models.TaskRecord) int64 {
	var highest int64
	for _, rec := range tasks {
		if rec.ID > highest {
			highest = rec.ID
		}
	}
	return highest + 1
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
