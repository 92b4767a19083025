package api

import (
	"encoding/json"
	"fmt"
)

// errorBody is the subset of an error response used to build messages.
type errorBody struct {
	Message string `json:"message"`
	Detail  any    `json:"detail"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	switch detail := b.Detail.(type) {
	case nil:
		return ""
	case string:
		return detail
	default:
		data, err := json.Marshal(detail)
		if err != nil {
			return fmt.Sprint(detail)
		}
		return string(data)
	}
}

// withTaskType re-encodes payload as an object carrying the task_type
// discriminator the backend expects on create.
func withTaskType(payload any, taskType string) (map[string]any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	fields["task_type"] = taskType
	return fields, nil
}
