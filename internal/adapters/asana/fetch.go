package asana

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/flowlens/internal/adapters/source"
	"github.com/okian/flowlens/pkg/logger"
)

// taskConcurrency bounds the in-flight task and story fetches.
const taskConcurrency = 8

// ProjectRequest names one project to capture and how far back to look.
type ProjectRequest struct {
	GID     string
	Horizon time.Time
}

// FetchAll captures a complete snapshot for the requested projects:
// project identities, sections, task ids since the horizon, tasks with
// memberships, their stories, and the assignees seen on the way.
func (c *Client) FetchAll(ctx context.Context, reqs []ProjectRequest) (*source.Snapshot, error) {
	snap := &source.Snapshot{}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(taskConcurrency)
	for _, req := range reqs {
		req := req
		g.Go(func() error {
			project, err := c.GetProject(gctx, req.GID)
			if err != nil {
				return fmt.Errorf("project %s: %w", req.GID, err)
			}
			sections, err := c.GetProjectSections(gctx, req.GID)
			if err != nil {
				return fmt.Errorf("project %s sections: %w", req.GID, err)
			}
			taskGIDs, err := c.GetProjectTaskGIDs(gctx, req.GID, req.Horizon)
			if err != nil {
				return fmt.Errorf("project %s tasks: %w", req.GID, err)
			}
			mu.Lock()
			snap.Projects = append(snap.Projects, project)
			snap.ProjectSections = append(snap.ProjectSections, sections)
			snap.ProjectTaskGIDs = append(snap.ProjectTaskGIDs, taskGIDs)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	taskSet := make(map[string]struct{})
	for _, ptg := range snap.ProjectTaskGIDs {
		for _, gid := range ptg.TaskGIDs {
			taskSet[gid] = struct{}{}
		}
	}
	taskGIDs := make([]string, 0, len(taskSet))
	for gid := range taskSet {
		taskGIDs = append(taskGIDs, gid)
	}
	sort.Strings(taskGIDs)
	c.logger.Info(ctx, "fetching tasks", logger.Int("tasks", len(taskGIDs)))

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(taskConcurrency)
	for _, gid := range taskGIDs {
		gid := gid
		g.Go(func() error {
			task, err := c.GetTask(gctx, gid)
			if err != nil {
				return fmt.Errorf("task %s: %w", gid, err)
			}
			stories, err := c.GetTaskStories(gctx, gid)
			if err != nil {
				return fmt.Errorf("task %s stories: %w", gid, err)
			}
			mu.Lock()
			snap.Tasks = append(snap.Tasks, task)
			snap.TaskStories = append(snap.TaskStories, stories)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	userSet := make(map[string]struct{})
	for _, task := range snap.Tasks {
		if task.Assignee != nil && task.Assignee.GID != "" {
			userSet[task.Assignee.GID] = struct{}{}
		}
	}
	userGIDs := make([]string, 0, len(userSet))
	for gid := range userSet {
		userGIDs = append(userGIDs, gid)
	}
	sort.Strings(userGIDs)

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(taskConcurrency)
	for _, gid := range userGIDs {
		gid := gid
		g.Go(func() error {
			user, err := c.GetUser(gctx, gid)
			if err != nil {
				// A deactivated assignee should not sink the snapshot.
				c.logger.Warn(gctx, "skipping unresolvable user", logger.String("user", gid), logger.Error(err))
				return nil
			}
			mu.Lock()
			snap.Users = append(snap.Users, user)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Deterministic output regardless of completion order.
	sort.Slice(snap.Projects, func(i, j int) bool { return snap.Projects[i].GID < snap.Projects[j].GID })
	sort.Slice(snap.ProjectSections, func(i, j int) bool { return snap.ProjectSections[i].ProjectGID < snap.ProjectSections[j].ProjectGID })
	sort.Slice(snap.ProjectTaskGIDs, func(i, j int) bool { return snap.ProjectTaskGIDs[i].ProjectGID < snap.ProjectTaskGIDs[j].ProjectGID })
	sort.Slice(snap.Tasks, func(i, j int) bool { return snap.Tasks[i].GID < snap.Tasks[j].GID })
	sort.Slice(snap.TaskStories, func(i, j int) bool { return snap.TaskStories[i].TaskGID < snap.TaskStories[j].TaskGID })
	sort.Slice(snap.Users, func(i, j int) bool { return snap.Users[i].GID < snap.Users[j].GID })

	return snap, nil
}
