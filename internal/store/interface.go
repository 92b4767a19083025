package store

import (
	"context"

	"taskdash/internal/models"
)

// RecordStore is the backend the dashboard talks to. The remote HTTP client
// and the local demo store both implement it; one is chosen at startup.
type RecordStore interface {
	ListTasks(ctx context.Context) ([]models.TaskRecord, error)
	CreateTask(ctx context.Context, payload models.CreateTaskPayload) (models.TaskRecord, error)
	CreateSubTask(ctx context.Context, payload models.CreateSubTaskPayload) (models.TaskRecord, error)
	UpdateTask(ctx context.Context, taskID string, payload models.UpdateTaskPayload) (models.TaskRecord, error)
	UpdateSubTask(ctx context.Context, subTaskID string, payload models.UpdateTaskPayload) (models.TaskRecord, error)
	ImportFromJira(ctx context.Context, payload models.JiraImportPayload) (models.TaskRecord, error)
	Orchestrate(ctx context.Context, payload models.TaskRunPayload) (models.Ack, error)
	Start(ctx context.Context, payload models.TaskRunPayload) (models.Ack, error)
	Auto(ctx context.Context, payload models.TaskRunPayload) (models.Ack, error)
}

var _ RecordStore = (*DemoStore)(nil)
