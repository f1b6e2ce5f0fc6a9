// Package docker implements tools.DockerAdapter over the docker/docker
// client, one *client.Client per docker endpoint entry, reused across calls.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/opscorehq/opscore/pkg/config"
	opserrors "github.com/opscorehq/opscore/pkg/errors"
	"github.com/opscorehq/opscore/pkg/tools"
)

// dockerAPI is the subset of client.APIClient this adapter calls, narrowed
// so tests can substitute a fake.
type dockerAPI interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerLogs(ctx context.Context, id string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerStart(ctx context.Context, id string, options container.StartOptions) error
	ContainerStop(ctx context.Context, id string, options container.StopOptions) error
	ContainerRestart(ctx context.Context, id string, options container.StopOptions) error
}

// Adapter pools one docker API client per endpoint socket URL.
type Adapter struct {
	mu      sync.Mutex
	clients map[string]dockerAPI
}

// New builds an empty, lazily-populated adapter.
func New() *Adapter {
	return &Adapter{clients: make(map[string]dockerAPI)}
}

func (a *Adapter) clientFor(endpoint config.DockerEndpointEntry) (dockerAPI, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.clients[endpoint.SocketURL]; ok {
		return c, nil
	}

	cli, err := dockerclient.NewClientWithOpts(
		dockerclient.WithHost(endpoint.SocketURL),
		dockerclient.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, opserrors.NewAdapterError(opserrors.SubKindUnreachable, "failed to build docker client for "+endpoint.Name, err)
	}
	a.clients[endpoint.SocketURL] = cli
	return cli, nil
}

// ListContainers enumerates containers, optionally including stopped ones.
func (a *Adapter) ListContainers(ctx context.Context, endpoint config.DockerEndpointEntry, all bool) ([]tools.ContainerSummary, error) {
	cli, err := a.clientFor(endpoint)
	if err != nil {
		return nil, err
	}
	summaries, err := cli.ContainerList(ctx, container.ListOptions{All: all})
	if err != nil {
		return nil, classifyDockerError(err, "")
	}
	out := make([]tools.ContainerSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, tools.ContainerSummary{
			ID:     s.ID,
			Names:  s.Names,
			Image:  s.Image,
			State:  s.State,
			Status: s.Status,
		})
	}
	return out, nil
}

// Logs returns the last tail lines of a container's combined stdout/stderr.
func (a *Adapter) Logs(ctx context.Context, endpoint config.DockerEndpointEntry, containerID string, tail int) (string, error) {
	cli, err := a.clientFor(endpoint)
	if err != nil {
		return "", err
	}
	rc, err := cli.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       fmt.Sprintf("%d", tail),
	})
	if err != nil {
		return "", classifyDockerError(err, containerID)
	}
	defer rc.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, rc); err != nil {
		return "", opserrors.NewAdapterError(opserrors.SubKindTransient, "failed reading container log stream", err)
	}
	return stdout.String() + stderr.String(), nil
}

// Start starts a stopped container.
func (a *Adapter) Start(ctx context.Context, endpoint config.DockerEndpointEntry, containerID string) error {
	cli, err := a.clientFor(endpoint)
	if err != nil {
		return err
	}
	if err := cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return classifyDockerError(err, containerID)
	}
	return nil
}

// Stop stops a running container, waiting up to timeout for graceful exit.
func (a *Adapter) Stop(ctx context.Context, endpoint config.DockerEndpointEntry, containerID string, timeout time.Duration) error {
	cli, err := a.clientFor(endpoint)
	if err != nil {
		return err
	}
	seconds := int(timeout.Seconds())
	if err := cli.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &seconds}); err != nil {
		return classifyDockerError(err, containerID)
	}
	return nil
}

// Restart restarts a container.
func (a *Adapter) Restart(ctx context.Context, endpoint config.DockerEndpointEntry, containerID string) error {
	cli, err := a.clientFor(endpoint)
	if err != nil {
		return err
	}
	if err := cli.ContainerRestart(ctx, containerID, container.StopOptions{}); err != nil {
		return classifyDockerError(err, containerID)
	}
	return nil
}

// classifyDockerError surfaces "not found" distinguishably from other
// transport-level failures (spec §4.6), using the same errdefs predicates
// the docker client library itself returns wrapped errors through.
func classifyDockerError(err error, containerID string) error {
	msg := err.Error()
	if containerID != "" {
		msg = containerID + ": " + msg
	}
	if errdefs.IsNotFound(err) {
		return opserrors.NewAdapterError(opserrors.SubKindNotFound, msg, err)
	}
	if errdefs.IsUnauthorized(err) || errdefs.IsPermissionDenied(err) {
		return opserrors.NewAdapterError(opserrors.SubKindUnauthorized, msg, err)
	}
	return opserrors.NewAdapterError(opserrors.SubKindTransient, msg, err)
}
