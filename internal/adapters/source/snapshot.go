// Package source decodes a fetched board snapshot and flattens it into
// per-project item move histories for the engine.
package source

import (
	"encoding/json"
	"fmt"
	"os"
)

// Snapshot is the board data captured by the fetch binary: projects, their
// sections, task membership, and the per-task activity stories that record
// section changes.
type Snapshot struct {
	Users           []User            `json:"users"`
	Projects        []Project         `json:"projects"`
	ProjectSections []ProjectSections `json:"project_sections"`
	ProjectTaskGIDs []ProjectTaskGIDs `json:"project_task_gids"`
	Tasks           []Task            `json:"tasks"`
	TaskStories     []TaskStories     `json:"task_stories"`
}

// Project identifies one board.
type Project struct {
	GID       string `json:"gid"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// ProjectSections lists the sections (stages) of one project.
type ProjectSections struct {
	ProjectGID string    `json:"project_gid"`
	Sections   []Section `json:"sections"`
}

// Section is one stage column on a board.
type Section struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

// ProjectTaskGIDs lists the task ids fetched for one project.
type ProjectTaskGIDs struct {
	ProjectGID string   `json:"project_gid"`
	TaskGIDs   []string `json:"task_gids"`
}

// GIDRef is a compact resource reference.
type GIDRef struct {
	GID string `json:"gid"`
}

// Task is one work item. Memberships lists sections from every project the
// task belongs to, keyed by resource kind ("section"), mirroring the API
// payload.
type Task struct {
	GID         string              `json:"gid"`
	Name        string              `json:"name"`
	CreatedAt   string              `json:"created_at"`
	Completed   bool                `json:"completed"`
	CompletedAt string              `json:"completed_at,omitempty"`
	Assignee    *GIDRef             `json:"assignee,omitempty"`
	Memberships []map[string]GIDRef `json:"memberships"`
}

// Story is one activity record on a task; section moves carry the
// resource subtype "section_changed".
type Story struct {
	CreatedAt       string `json:"created_at"`
	ResourceSubtype string `json:"resource_subtype"`
	Text            string `json:"text"`
}

// TaskStories holds the activity stories of one task.
type TaskStories struct {
	TaskGID string  `json:"task_gid"`
	Stories []Story `json:"stories"`
}

// User is an assignee.
type User struct {
	GID   string `json:"gid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Load reads and decodes a snapshot file.
func Load(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// Save writes a snapshot as JSON, the fetch binary's output format.
func Save(path string, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return nil
}
