package docker

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscorehq/opscore/pkg/config"
	opserrors "github.com/opscorehq/opscore/pkg/errors"
)

type fakeDockerAPI struct {
	listFunc    func(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	startFunc   func(ctx context.Context, id string, options container.StartOptions) error
	stopFunc    func(ctx context.Context, id string, options container.StopOptions) error
	restartFunc func(ctx context.Context, id string, options container.StopOptions) error
}

func (f *fakeDockerAPI) ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error) {
	return f.listFunc(ctx, options)
}

func (f *fakeDockerAPI) ContainerLogs(ctx context.Context, id string, options container.LogsOptions) (io.ReadCloser, error) {
	return nil, errors.New("not used in this test")
}

func (f *fakeDockerAPI) ContainerStart(ctx context.Context, id string, options container.StartOptions) error {
	return f.startFunc(ctx, id, options)
}

func (f *fakeDockerAPI) ContainerStop(ctx context.Context, id string, options container.StopOptions) error {
	return f.stopFunc(ctx, id, options)
}

func (f *fakeDockerAPI) ContainerRestart(ctx context.Context, id string, options container.StopOptions) error {
	return f.restartFunc(ctx, id, options)
}

func newTestAdapter(api dockerAPI) *Adapter {
	a := New()
	a.clients["sock"] = api
	return a
}

func TestListContainersMapsSummaries(t *testing.T) {
	api := &fakeDockerAPI{
		listFunc: func(ctx context.Context, options container.ListOptions) ([]container.Summary, error) {
			assert.True(t, options.All)
			return []container.Summary{{ID: "c1", Names: []string{"/web"}, Image: "nginx", State: "running"}}, nil
		},
	}
	a := newTestAdapter(api)
	out, err := a.ListContainers(context.Background(), config.DockerEndpointEntry{SocketURL: "sock"}, true)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "c1", out[0].ID)
	assert.Equal(t, "nginx", out[0].Image)
}

func TestStartContainerClassifiesNotFound(t *testing.T) {
	api := &fakeDockerAPI{
		startFunc: func(ctx context.Context, id string, options container.StartOptions) error {
			return errdefs.ErrNotFound
		},
	}
	a := newTestAdapter(api)
	err := a.Start(context.Background(), config.DockerEndpointEntry{SocketURL: "sock"}, "ghost")
	require.Error(t, err)
	sub, ok := opserrors.IsAdapter(err)
	require.True(t, ok)
	assert.Equal(t, opserrors.SubKindNotFound, sub)
}

func TestStopContainerPassesTimeoutSeconds(t *testing.T) {
	var captured *int
	api := &fakeDockerAPI{
		stopFunc: func(ctx context.Context, id string, options container.StopOptions) error {
			captured = options.Timeout
			return nil
		},
	}
	a := newTestAdapter(api)
	err := a.Stop(context.Background(), config.DockerEndpointEntry{SocketURL: "sock"}, "c1", 10_000_000_000)
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, 10, *captured)
}

func TestRestartContainerSuccess(t *testing.T) {
	called := false
	api := &fakeDockerAPI{
		restartFunc: func(ctx context.Context, id string, options container.StopOptions) error {
			called = true
			return nil
		},
	}
	a := newTestAdapter(api)
	require.NoError(t, a.Restart(context.Background(), config.DockerEndpointEntry{SocketURL: "sock"}, "c1"))
	assert.True(t, called)
}
