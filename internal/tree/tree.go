// Package tree turns the flat task list returned by a record store into the
// parent/subtask hierarchy shown on the dashboard.
package tree

import (
	"sort"
	"strconv"

	"taskdash/internal/models"
)

// Node is a top-level task and the subtasks that share its task_id.
type Node struct {
	models.TaskRecord `yaml:",inline"`
	// Synthesized marks a parent that was created because subtasks referenced
	// a task_id with no top-level record ahead of them.
	Synthesized bool                `json:"synthesized,omitempty" yaml:"synthesized,omitempty"`
	Subtasks    []models.TaskRecord `json:"subtasks" yaml:"subtasks"`
}

// Key is the task_id the node is grouped under.
func (n Node) Key() string {
	return n.TaskID
}

// Normalize builds the task tree from records in encounter order.
//
// Top-level records replace earlier top-level records with the same task_id,
// starting over with an empty subtask list. Every other record is appended to the
// parent for its task_id, synthesizing one the first time it is needed. A
// synthesized parent is kept even if the real top-level record shows up
// later in the same pass. Roots are ordered by id, compared as decimal
// strings, descending.
func Normalize(records []models.TaskRecord) []Node {
	byKey := make(map[string]*Node, len(records))
	order := make([]string, 0, len(records))

	ensureParent := func(rec models.TaskRecord) *Node {
		if node, ok := byKey[rec.TaskID]; ok {
			return node
		}
		node := &Node{TaskRecord: placeholderFor(rec), Synthesized: true, Subtasks: []models.TaskRecord{}}
		byKey[rec.TaskID] = node
		order = append(order, rec.TaskID)
		return node
	}

	for _, rec := range records {
		if rec.IsTopLevel() {
			existing, ok := byKey[rec.TaskID]
			switch {
			case !ok:
				byKey[rec.TaskID] = &Node{TaskRecord: rec.Clone(), Subtasks: []models.TaskRecord{}}
				order = append(order, rec.TaskID)
			case existing.Synthesized:
				// Placeholder wins; see DESIGN.md.
			default:
				*existing = Node{TaskRecord: rec.Clone(), Subtasks: []models.TaskRecord{}}
			}
			continue
		}

		parent := ensureParent(rec)
		child := rec.Clone()
		if child.SubTaskID == "" {
			child.SubTaskID = child.TaskID
		}
		parent.Subtasks = append(parent.Subtasks, child)
	}

	out := make([]Node, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return idString(out[i].ID) > idString(out[j].ID)
	})
	return out
}

// Flatten returns the records a tree was built from: each explicit parent
// followed by its subtasks. Synthesized parents are omitted.
func Flatten(nodes []Node) []models.TaskRecord {
	out := make([]models.TaskRecord, 0, len(nodes))
	for _, node := range nodes {
		if !node.Synthesized {
			out = append(out, node.TaskRecord.Clone())
		}
		for _, sub := range node.Subtasks {
			out = append(out, sub.Clone())
		}
	}
	return out
}

// Find returns the root node for taskID.
func Find(nodes []Node, taskID string) (Node, bool) {
	for _, node := range nodes {
		if node.TaskID == taskID {
			return node, true
		}
	}
	return Node{}, false
}

// Lookup resolves a record by its action key: a subtask id first, then a
// top-level task id.
func Lookup(nodes []Node, key string) (models.TaskRecord, bool) {
	for _, node := range nodes {
		for _, sub := range node.Subtasks {
			if sub.SubTaskID == key {
				return sub, true
			}
		}
	}
	if node, ok := Find(nodes, key); ok {
		return node.TaskRecord, true
	}
	return models.TaskRecord{}, false
}

func placeholderFor(rec models.TaskRecord) models.TaskRecord {
	out := rec.Clone()
	out.SubTaskID = ""
	out.TaskType = models.TypeTask
	out.Description = ""
	return out
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
