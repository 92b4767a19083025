package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// ExpandedKey is the slot holding the expanded root keys as a JSON array.
const ExpandedKey = "task-expanded-ids"

// ExpandedState persists the set of expanded tree nodes in a slot.
type ExpandedState struct {
	slots Slots
}

// NewExpandedState creates the expanded-node state port over slots.
func NewExpandedState(slots Slots) *ExpandedState {
	return &ExpandedState{slots: slots}
}

// Load returns the stored keys. A missing slot is an empty set.
func (e *ExpandedState) Load(ctx context.Context) ([]string, error) {
	raw, ok, err := e.slots.Get(ctx, ExpandedKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []string{}, nil
	}

	// Older snapshots stored numeric ids.
	var values []any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ExpandedKey, err)
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		switch typed := value.(type) {
		case string:
			out = append(out, typed)
		case float64:
			out = append(out, fmt.Sprintf("%.0f", typed))
		}
	}
	return out, nil
}

// Save replaces the stored keys.
func (e *ExpandedState) Save(ctx context.Context, keys []string) error {
	if keys == nil {
		keys = []string{}
	}
	data, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	return e.slots.Set(ctx, ExpandedKey, string(data))
}
