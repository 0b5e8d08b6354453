package source

import (
	"context"
	"fmt"
	"regexp"

	"github.com/okian/flowlens/internal/domain/model"
	"github.com/okian/flowlens/pkg/logger"
)

// sectionChangedRE matches the story text the board API produces for a
// section move, capturing origin stage, destination stage, and project name.
var sectionChangedRE = regexp.MustCompile(`^moved this Task from "([^"]+?)" to "([^"]+?)" in (.+)$`)

// ProjectItems flattens the snapshot into raw per-item move histories keyed
// by project gid.
//
// Move events come from "section_changed" stories. The first observed move
// of a task within a project implies the task sat in the move's origin
// stage since creation, so a creation event into that stage is synthesized
// at the task's created_at. A task that never moved gets a single synthetic
// creation event into its current section. Timestamps stay raw strings;
// parsing and ordering belong to the normalizer.
func (s *Snapshot) ProjectItems(ctx context.Context, log logger.Logger) map[string][]model.RawItem {
	nameToGID := make(map[string]string, len(s.Projects))
	for _, p := range s.Projects {
		nameToGID[p.Name] = p.GID
	}

	// Section gid -> owning project and stage name, for never-moved tasks.
	type sectionInfo struct {
		projectGID string
		name       string
	}
	sections := make(map[string]sectionInfo)
	for _, ps := range s.ProjectSections {
		for _, sec := range ps.Sections {
			sections[sec.GID] = sectionInfo{projectGID: ps.ProjectGID, name: sec.Name}
		}
	}

	tasks := make(map[string]*Task, len(s.Tasks))
	for i := range s.Tasks {
		tasks[s.Tasks[i].GID] = &s.Tasks[i]
	}

	// (project gid, task gid) -> raw events.
	type key struct{ project, task string }
	events := make(map[key][]model.RawEvent)

	for _, ts := range s.TaskStories {
		task, ok := tasks[ts.TaskGID]
		if !ok {
			log.Warn(ctx, "stories for unknown task", logger.String("task", ts.TaskGID))
			continue
		}
		for _, story := range ts.Stories {
			if story.ResourceSubtype != "section_changed" {
				continue
			}
			m := sectionChangedRE.FindStringSubmatch(story.Text)
			if m == nil {
				log.Warn(ctx, "unrecognized section_changed story",
					logger.String("task", ts.TaskGID), logger.String("text", story.Text))
				continue
			}
			from, to, projectName := m[1], m[2], m[3]
			gid, ok := nameToGID[projectName]
			if !ok {
				// Story for a project outside this snapshot's config.
				continue
			}
			k := key{project: gid, task: ts.TaskGID}
			if len(events[k]) == 0 {
				events[k] = append(events[k], model.RawEvent{At: task.CreatedAt, Stage: from})
			}
			events[k] = append(events[k], model.RawEvent{At: story.CreatedAt, Stage: to})
		}
	}

	// Tasks that never changed sections have no stories; synthesize their
	// creation event from the current membership.
	for _, task := range s.Tasks {
		for _, membership := range task.Memberships {
			ref, ok := membership["section"]
			if !ok {
				continue
			}
			info, ok := sections[ref.GID]
			if !ok {
				// Membership in a project we did not fetch.
				continue
			}
			k := key{project: info.projectGID, task: task.GID}
			if len(events[k]) == 0 {
				events[k] = append(events[k], model.RawEvent{At: task.CreatedAt, Stage: info.name})
			}
		}
	}

	out := make(map[string][]model.RawItem)
	for k, evs := range events {
		out[k.project] = append(out[k.project], model.RawItem{ID: k.task, Events: evs})
	}
	return out
}

// ProjectName resolves a project gid to its display name.
func (s *Snapshot) ProjectName(gid string) (string, error) {
	for _, p := range s.Projects {
		if p.GID == gid {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("project %s: %w", gid, ErrUnknownProject)
}
