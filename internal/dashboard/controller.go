// Package dashboard holds the task dashboard view-model: the normalized task
// tree, expanded rows, the open dialog, the error banner and the in-flight
// action, plus the refresh loop that keeps them current.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"taskdash/internal/models"
	"taskdash/internal/store"
	"taskdash/internal/tree"
)

// DefaultPollInterval is how often Run reloads the task list.
const DefaultPollInterval = 5 * time.Second

var (
	// ErrNoDraft is returned by Save when no form dialog is open.
	ErrNoDraft = errors.New("no open draft to save")
	// ErrNotViewingSubtask is returned by BackToParent outside a subtask view.
	ErrNotViewingSubtask = errors.New("not viewing a subtask")
)

// ExpandedStore persists the expanded row set between sessions.
type ExpandedStore interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, keys []string) error
}

// Options configures a Controller.
type Options struct {
	Store        store.RecordStore
	Expanded     ExpandedStore
	PollInterval time.Duration
	Logger       *slog.Logger
}

// State is an immutable snapshot of the view-model.
type State struct {
	Tasks     []tree.Node `json:"tasks" yaml:"tasks"`
	Expanded  []string    `json:"expanded" yaml:"expanded"`
	Modal     *Modal      `json:"modal,omitempty" yaml:"modal,omitempty"`
	Error     string      `json:"error,omitempty" yaml:"error,omitempty"`
	ActionKey string      `json:"action_key,omitempty" yaml:"action_key,omitempty"`
	Loaded    bool        `json:"loaded" yaml:"loaded"`
	LoadedAt  time.Time   `json:"loaded_at,omitempty" yaml:"loaded_at,omitempty"`
	Version   uint64      `json:"version" yaml:"version"`
}

// IsExpanded reports whether the row for node is expanded.
func (s State) IsExpanded(node tree.Node) bool {
	key := nodeIDKey(node)
	for _, k := range s.Expanded {
		if k == key {
			return true
		}
	}
	return false
}

// Controller owns the dashboard state. All methods are safe for concurrent
// use; store calls run outside the state lock.
type Controller struct {
	store    store.RecordStore
	expanded ExpandedStore
	interval time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	tasks       []tree.Node
	expandedSet map[string]struct{}
	modal       *Modal
	errText     string
	actionKey   string
	actionToken uint64
	loaded      bool
	loadedAt    time.Time
	version     uint64
	closed      bool
	subscribers map[chan struct{}]struct{}
}

// New creates a controller over the given record store.
func New(opts Options) *Controller {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:       opts.Store,
		expanded:    opts.Expanded,
		interval:    interval,
		logger:      logger.With("component", "dashboard"),
		tasks:       []tree.Node{},
		expandedSet: map[string]struct{}{},
		subscribers: map[chan struct{}]struct{}{},
	}
}

// Init restores the expanded set and performs the first load. An unreadable
// expanded set is logged and treated as empty.
func (c *Controller) Init(ctx context.Context) error {
	if c.expanded != nil {
		keys, err := c.expanded.Load(ctx)
		if err != nil {
			c.logger.Warn("restore expanded rows", "error", err)
		} else {
			c.mu.Lock()
			for _, key := range keys {
				c.expandedSet[key] = struct{}{}
			}
			c.changedLocked()
			c.mu.Unlock()
		}
	}
	return c.Load(ctx)
}

// Load fetches the full task list and replaces the tree. The banner is
// cleared when the load starts and set if it fails.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if c.errText != "" {
		c.errText = ""
		c.changedLocked()
	}
	c.mu.Unlock()

	records, err := c.store.ListTasks(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return err
	}
	if err != nil {
		c.setErrorLocked(err, "Unable to load tasks")
		return err
	}
	c.tasks = tree.Normalize(records)
	c.loaded = true
	c.loadedAt = time.Now()
	c.changedLocked()
	return nil
}

// Run reloads on every tick until ctx is cancelled. Failures are logged and
// left in the banner; the next tick tries again.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.Load(ctx); err != nil && ctx.Err() == nil {
				c.logger.Warn("poll tasks", "error", err)
			}
		}
	}
}

// Close turns later state updates into no-ops and releases subscribers.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for ch := range c.subscribers {
		close(ch)
		delete(c.subscribers, ch)
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	tasks := make([]tree.Node, len(c.tasks))
	for i, node := range c.tasks {
		copied := node
		copied.TaskRecord = node.TaskRecord.Clone()
		copied.Subtasks = make([]models.TaskRecord, len(node.Subtasks))
		for j, sub := range node.Subtasks {
			copied.Subtasks[j] = sub.Clone()
		}
		tasks[i] = copied
	}
	expanded := make([]string, 0, len(c.expandedSet))
	for key := range c.expandedSet {
		expanded = append(expanded, key)
	}
	sort.Strings(expanded)

	return State{
		Tasks:     tasks,
		Expanded:  expanded,
		Modal:     c.modal.clone(),
		Error:     c.errText,
		ActionKey: c.actionKey,
		Loaded:    c.loaded,
		LoadedAt:  c.loadedAt,
		Version:   c.version,
	}
}

// Subscribe returns a channel that receives a value after state changes.
// Bursts coalesce into one notification. The channel is closed by Close or
// by the returned cancel function.
func (c *Controller) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subscribers[ch]; ok {
				delete(c.subscribers, ch)
				close(ch)
			}
		})
	}
}

// ToggleExpand flips the expanded state of a root row and persists the set.
// key is a root task_id or node id.
func (c *Controller) ToggleExpand(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	id := c.resolveRootLocked(key)
	_, open := c.expandedSet[id]
	c.mu.Unlock()
	return !open, c.SetExpanded(ctx, key, !open)
}

// SetExpanded sets the expanded state of a root row and persists the set.
func (c *Controller) SetExpanded(ctx context.Context, key string, expanded bool) error {
	c.mu.Lock()
	id := c.resolveRootLocked(key)
	if expanded {
		c.expandedSet[id] = struct{}{}
	} else {
		delete(c.expandedSet, id)
	}
	keys := make([]string, 0, len(c.expandedSet))
	for k := range c.expandedSet {
		keys = append(keys, k)
	}
	c.changedLocked()
	c.mu.Unlock()

	if c.expanded == nil {
		return nil
	}
	sort.Strings(keys)
	if err := c.expanded.Save(ctx, keys); err != nil {
		c.logger.Warn("persist expanded rows", "error", err)
		return err
	}
	return nil
}

// OpenNewTask opens the create dialog with the next TASK-nnn id.
func (c *Controller) OpenNewTask() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modal = &Modal{Mode: ModeNewTask, Draft: newTaskDraft(len(c.tasks))}
	c.changedLocked()
}

// OpenAddSubtask opens the create-subtask dialog under the root with taskID.
func (c *Controller) OpenAddSubtask(taskID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	parent, ok := tree.Find(c.tasks, taskID)
	if !ok {
		return &models.NotFoundError{Kind: "task", ID: taskID}
	}
	c.modal = &Modal{
		Mode:         ModeNewSubtask,
		Draft:        newSubtaskDraft(parent),
		ParentTaskID: parent.TaskID,
	}
	c.changedLocked()
	return nil
}

// OpenEdit opens the edit dialog for the record with the given action key.
func (c *Controller) OpenEdit(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := tree.Lookup(c.tasks, key)
	if !ok {
		return &models.NotFoundError{Kind: "task", ID: key}
	}
	c.modal = &Modal{Mode: ModeEdit, Draft: draftFromRecord(rec)}
	c.changedLocked()
	return nil
}

// OpenJiraImport opens the import dialog with an empty draft.
func (c *Controller) OpenJiraImport() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modal = &Modal{Mode: ModeJiraImport, Draft: jiraImportDraft()}
	c.changedLocked()
}

// OpenView opens the read-only view of a record.
func (c *Controller) OpenView(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := tree.Lookup(c.tasks, key)
	if !ok {
		return &models.NotFoundError{Kind: "task", ID: key}
	}
	c.modal = &Modal{Mode: ModeView, Viewing: &rec}
	c.changedLocked()
	return nil
}

// Open dispatches to the Open* method for mode. key names the parent for
// new-subtask and the record for edit and view.
func (c *Controller) Open(mode ModalMode, key string) error {
	switch mode {
	case ModeNewTask:
		c.OpenNewTask()
		return nil
	case ModeNewSubtask:
		return c.OpenAddSubtask(key)
	case ModeEdit:
		return c.OpenEdit(key)
	case ModeJiraImport:
		c.OpenJiraImport()
		return nil
	case ModeView:
		return c.OpenView(key)
	default:
		_, err := ParseModalMode(string(mode))
		return err
	}
}

// BackToParent switches a subtask view to its parent task.
func (c *Controller) BackToParent() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal == nil || c.modal.Mode != ModeView || c.modal.Viewing == nil || c.modal.Viewing.SubTaskID == "" {
		return ErrNotViewingSubtask
	}
	parent, ok := tree.Find(c.tasks, c.modal.Viewing.TaskID)
	if !ok {
		return &models.NotFoundError{Kind: "task", ID: c.modal.Viewing.TaskID}
	}
	rec := parent.TaskRecord.Clone()
	c.modal.Viewing = &rec
	c.changedLocked()
	return nil
}

// UpdateDraft edits the open form.
func (c *Controller) UpdateDraft(patch DraftPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal == nil || c.modal.Draft == nil {
		return ErrNoDraft
	}
	if err := patch.apply(c.modal.Draft); err != nil {
		return err
	}
	c.changedLocked()
	return nil
}

// CloseModal discards the open dialog.
func (c *Controller) CloseModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal == nil {
		return
	}
	c.modal = nil
	c.changedLocked()
}

// DismissError clears the banner.
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.errText == "" {
		return
	}
	c.errText = ""
	c.changedLocked()
}

// Save submits the open form. On success the list is reloaded and the
// dialog closed; on failure the banner is set and the draft kept.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if c.modal == nil || c.modal.Draft == nil {
		c.mu.Unlock()
		return ErrNoDraft
	}
	mode := c.modal.Mode
	draft := *c.modal.Draft
	parentTaskID := c.modal.ParentTaskID
	c.mu.Unlock()

	var err error
	switch {
	case mode == ModeJiraImport:
		_, err = c.store.ImportFromJira(ctx, draft.jiraPayload())
	case mode == ModeNewTask:
		_, err = c.store.CreateTask(ctx, draft.createPayload())
	case mode == ModeNewSubtask && parentTaskID != "":
		payload := draft.createPayload()
		if payload.TaskID == "" {
			payload.TaskID = parentTaskID
		}
		_, err = c.store.CreateSubTask(ctx, models.CreateSubTaskPayload{CreateTaskPayload: payload, SubTaskID: draft.SubTaskID})
	case draft.SubTaskID != "":
		_, err = c.store.UpdateSubTask(ctx, draft.SubTaskID, draft.updatePayload())
	default:
		_, err = c.store.UpdateTask(ctx, draft.TaskID, draft.updatePayload())
	}
	if err != nil {
		c.logger.Warn("save failed", "mode", mode, "error", err)
		c.mu.Lock()
		c.setErrorLocked(err, "Save failed")
		c.mu.Unlock()
		return err
	}

	_ = c.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.modal = nil
		c.changedLocked()
	}
	return nil
}

// RunActionByKey looks up a record by its action key and dispatches action.
func (c *Controller) RunActionByKey(ctx context.Context, key string, action models.Action) error {
	c.mu.Lock()
	rec, ok := tree.Lookup(c.tasks, key)
	c.mu.Unlock()
	if !ok {
		return &models.NotFoundError{Kind: "task", ID: key}
	}
	return c.RunAction(ctx, rec, action)
}

// RunAction triggers a backend action for rec and reloads. A record without
// a repository URL is rejected before the store is called. Cancelling ctx
// does not abort a dispatched action or its reload.
func (c *Controller) RunAction(ctx context.Context, rec models.TaskRecord, action models.Action) error {
	if rec.TaskID == "" && rec.SubTaskID == "" {
		return nil
	}
	action, err := models.ParseAction(string(action))
	if err != nil {
		return &models.ValidationError{Field: "action", Message: err.Error()}
	}
	if rec.RepoURL == "" {
		err := &models.ValidationError{Field: "repo_url", Message: "Repository URL is required to run tasks."}
		c.mu.Lock()
		c.setErrorLocked(err, "")
		c.mu.Unlock()
		return err
	}

	baseBranch := rec.BaseBranch
	if baseBranch == "" {
		baseBranch = models.DefaultBaseBranch
	}
	payload := models.TaskRunPayload{TaskID: rec.Key(), RepoURL: rec.RepoURL, BaseBranch: baseBranch}
	key := models.ActionKey(rec, action)

	c.mu.Lock()
	c.errText = ""
	c.actionToken++
	token := c.actionToken
	c.actionKey = key
	c.changedLocked()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.actionToken == token && !c.closed {
			c.actionKey = ""
			c.changedLocked()
		}
	}()

	// Dispatched actions run to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	switch action {
	case models.ActionPlan:
		_, err = c.store.Orchestrate(ctx, payload)
	case models.ActionDevelop:
		_, err = c.store.Start(ctx, payload)
	default:
		_, err = c.store.Auto(ctx, payload)
	}
	if err != nil {
		c.logger.Warn("action failed", "action", action, "key", rec.Key(), "error", err)
		c.mu.Lock()
		c.setErrorLocked(err, "Action failed")
		c.mu.Unlock()
		return err
	}
	return c.Load(ctx)
}

// resolveRootLocked maps a root task_id to its node id; other keys are
// returned unchanged.
func (c *Controller) resolveRootLocked(key string) string {
	if node, ok := tree.Find(c.tasks, key); ok {
		return nodeIDKey(node)
	}
	return key
}

func (c *Controller) setErrorLocked(err error, fallback string) {
	if c.closed {
		return
	}
	msg := err.Error()
	if msg == "" {
		msg = fallback
	}
	c.errText = msg
	c.changedLocked()
}

func (c *Controller) changedLocked() {
	if c.closed {
		return
	}
	c.version++
	for ch := range c.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
