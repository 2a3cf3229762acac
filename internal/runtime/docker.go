// Package runtime implements the Runtime Adapter (C1): the only part of
// the engine that talks to the container runtime directly. Grounded on
// the teacher's container_service.go (ContainerList/ContainerInspect/
// ContainerRestart/Events), standardized on the docker/docker SDK family
// per the teacher's go.mod (a second teacher file inconsistently used
// the moby/moby fork of the same API; not followed here).
package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"golang.org/x/sync/errgroup"

	"github.com/containerwarden/warden/internal/domain"
	"github.com/containerwarden/warden/internal/runtimeerr"
)

// listInspectConcurrency bounds how many ContainerInspect calls List
// issues at once while enriching the summary list with health status
// and exit code.
const listInspectConcurrency = 8

// Adapter wraps a Docker Engine API client with the narrow capability
// set the engine's core needs: list, inspect, restart, and subscribe to
// lifecycle events.
type Adapter struct {
	cli *client.Client
}

// New creates an Adapter talking to the given Docker host (empty string
// uses the client library's default, typically DOCKER_HOST or the local
// socket).
func New(dockerHost string) (*Adapter, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if dockerHost != "" {
		opts = append(opts, client.WithHost(dockerHost))
	} else {
		opts = append(opts, client.FromEnv)
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("runtime: create docker client: %w", err)
	}
	return &Adapter{cli: cli}, nil
}

// Close releases the underlying client's connections.
func (a *Adapter) Close() error {
	return a.cli.Close()
}

// List returns a Snapshot for every container the daemon reports. A
// container.Summary carries no structured health status or exit code —
// Docker only exposes those through ContainerInspect — so List follows
// the list-then-inspect pattern and enriches each summary with a bounded
// concurrent Inspect call, the same shape as auto_heal_job's container
// scan. A container that disappears or fails to inspect between the two
// calls is dropped from the result rather than fed to the policy engine
// with a blank health state.
func (a *Adapter) List(ctx context.Context, includeStopped bool) ([]domain.Snapshot, error) {
	summaries, err := a.cli.ContainerList(ctx, container.ListOptions{All: includeStopped})
	if err != nil {
		return nil, classifyErr(err)
	}

	snapshots := make([]domain.Snapshot, len(summaries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listInspectConcurrency)

	for i, c := range summaries {
		i, c := i, c
		g.Go(func() error {
			snap, err := a.Inspect(gctx, c.ID)
			if err != nil {
				return nil
			}
			snapshots[i] = snap
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.Snapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		if snap.RuntimeID == "" {
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

// Inspect returns a fresh Snapshot for one container by runtime id.
func (a *Adapter) Inspect(ctx context.Context, runtimeID string) (domain.Snapshot, error) {
	info, err := a.cli.ContainerInspect(ctx, runtimeID)
	if err != nil {
		return domain.Snapshot{}, classifyErr(err)
	}
	return inspectToSnapshot(info), nil
}

// Restart stops the container with the given timeout then starts it,
// returning a distinguishable error kind on failure.
func (a *Adapter) Restart(ctx context.Context, runtimeID string, stopTimeout time.Duration) error {
	secs := int(stopTimeout.Seconds())
	err := a.cli.ContainerRestart(ctx, runtimeID, container.StopOptions{Timeout: &secs})
	if err != nil {
		return classifyErr(err)
	}
	return nil
}

// RuntimeEvent is the subset of a Docker lifecycle event the engine's
// Event Listener (C7) cares about.
type RuntimeEvent struct {
	Action     string
	ActorID    string
	Attributes map[string]string
}

// Events subscribes to container lifecycle events and returns a channel
// of them plus a channel of terminal errors. The stream may legally
// terminate (e.g. on daemon restart); callers are expected to
// reconnect, which is why this returns a single stream rather than
// managing reconnection itself — that's the Event Listener's job.
func (a *Adapter) Events(ctx context.Context) (<-chan RuntimeEvent, <-chan error) {
	out := make(chan RuntimeEvent, 64)
	errCh := make(chan error, 1)

	f := filters.NewArgs(filters.Arg("type", "container"))
	msgs, errs := a.cli.Events(ctx, events.ListOptions{Filters: f})

	go func() {
		defer close(out)
		defer close(errCh)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				out <- RuntimeEvent{
					Action:     string(msg.Action),
					ActorID:    msg.Actor.ID,
					Attributes: msg.Actor.Attributes,
				}
			case err, ok := <-errs:
				if !ok {
					return
				}
				if err != nil {
					errCh <- classifyErr(err)
				}
				return
			}
		}
	}()

	return out, errCh
}

func summaryToSnapshot(c container.Summary) domain.Snapshot {
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	snap := domain.Snapshot{
		RuntimeID: c.ID,
		Name:      name,
		Image:     c.Image,
		Status:    mapStatus(c.State),
		Labels:    c.Labels,
		StartedAt: time.Unix(c.Created, 0).UTC(),
	}
	return snap
}

func inspectToSnapshot(info container.InspectResponse) domain.Snapshot {
	snap := domain.Snapshot{
		RuntimeID: info.ID,
		Name:      strings.TrimPrefix(info.Name, "/"),
		Labels:    info.Config.Labels,
	}
	if info.Image != "" {
		snap.Image = info.Image
	}
	if info.State != nil {
		snap.Status = mapStatus(info.State.Status)
		snap.ExitCode = intPtr(info.State.ExitCode)
		if info.State.Health != nil {
			snap.Health = mapHealth(info.State.Health.Status)
		} else {
			snap.Health = domain.HealthNone
		}
		if t, err := time.Parse(time.RFC3339Nano, info.State.StartedAt); err == nil {
			snap.StartedAt = t
		}
	}
	return snap
}

func intPtr(v int) *int { return &v }

func mapStatus(s string) domain.Status {
	switch s {
	case "running":
		return domain.StatusRunning
	case "exited":
		return domain.StatusExited
	case "paused":
		return domain.StatusPaused
	case "restarting":
		return domain.StatusRestarting
	case "created":
		return domain.StatusCreated
	case "dead":
		return domain.StatusDead
	default:
		return domain.Status(s)
	}
}

func mapHealth(s string) domain.Health {
	switch s {
	case "healthy":
		return domain.HealthHealthy
	case "unhealthy":
		return domain.HealthUnhealthy
	case "starting":
		return domain.HealthStarting
	default:
		return domain.HealthNone
	}
}

func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case client.IsErrNotFound(err):
		return fmt.Errorf("%w: %v", runtimeerr.ErrNotFound, err)
	case client.IsErrConnectionFailed(err):
		return fmt.Errorf("%w: %v", runtimeerr.ErrUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", runtimeerr.ErrTimeout, err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "already in progress") || strings.Contains(msg, "409"):
		return fmt.Errorf("%w: %v", runtimeerr.ErrConflict, err)
	case strings.Contains(msg, "permission denied") || strings.Contains(msg, "403"):
		return fmt.Errorf("%w: %v", runtimeerr.ErrPermission, err)
	}
	return fmt.Errorf("%w: %v", runtimeerr.ErrUnavailable, err)
}
