package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscorehq/opscore/pkg/config"
	"github.com/opscorehq/opscore/pkg/session"
	"github.com/opscorehq/opscore/pkg/tools"
)

func TestAllRegistersWithoutDuplicates(t *testing.T) {
	reg, err := tools.NewRegistry(All()...)
	require.NoError(t, err)
	assert.Len(t, reg.All(), 16)
}

func TestAllDescriptorsHaveNonEmptyNameAndHandler(t *testing.T) {
	for _, d := range All() {
		assert.NotEmpty(t, d.Name)
		assert.NotNil(t, d.Handler, d.Name)
		assert.NotEmpty(t, d.ScopeTag, d.Name)
	}
}

func TestMutationFlaggedToolsAreScopeAll(t *testing.T) {
	mutationNames := map[string]bool{
		"docker_start_container":  true,
		"docker_stop_container":   true,
		"docker_restart_container": true,
		"k8s_scale_deployment":    true,
		"k8s_restart_deployment":  true,
	}
	for _, d := range All() {
		if mutationNames[d.Name] {
			assert.True(t, d.IsMutation(), d.Name)
			assert.Equal(t, tools.ScopeAll, d.ScopeTag, d.Name)
		}
	}
}

type fakeSSH struct {
	execResult tools.ExecResult
	execErr    error
}

func (f *fakeSSH) Execute(ctx context.Context, host config.HostEntry, command string, timeout time.Duration) (tools.ExecResult, error) {
	return f.execResult, f.execErr
}

func (f *fakeSSH) StreamLines(ctx context.Context, host config.HostEntry, command string) (<-chan string, error) {
	ch := make(chan string)
	close(ch)
	return ch, nil
}

func testRuntimeContext(t *testing.T, ssh tools.SSHAdapter) *tools.RuntimeContext {
	t.Helper()
	cfg := &config.Config{
		Hosts: map[string]config.HostEntry{
			"web-01": {Name: "web-01", Address: "10.0.0.5", Port: 22, User: "ops"},
		},
	}
	return &tools.RuntimeContext{
		ProfileName: "staging",
		Profile:     config.Profile{DefaultHost: "web-01"},
		Config:      cfg,
		Adapters:    tools.Adapters{SSH: ssh},
	}
}

func TestSSHExecuteHandlerShapesResult(t *testing.T) {
	ssh := &fakeSSH{execResult: tools.ExecResult{Stdout: "ok\n", ExitCode: 0}}
	rc := testRuntimeContext(t, ssh)

	result, err := handleSSHExecute(context.Background(), &tools.Call{
		Arguments: map[string]any{"server": "web-01", "command": "uptime"},
		Deadline:  5 * time.Second,
	}, rc)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "ok")
}

func TestSSHExecuteHandlerUnknownHost(t *testing.T) {
	ssh := &fakeSSH{}
	rc := testRuntimeContext(t, ssh)

	_, err := handleSSHExecute(context.Background(), &tools.Call{
		Arguments: map[string]any{"server": "ghost", "command": "uptime"},
		Deadline:  5 * time.Second,
	}, rc)
	require.Error(t, err)
}

func TestProfileSetHandlerSwitchesSessionProfile(t *testing.T) {
	sess := session.New("s1")
	require.NoError(t, sess.Initialize(session.ClientInfo{Name: "test"}, "2024-11-05"))
	require.NoError(t, sess.MarkInitialized("staging", map[string]struct{}{"profile_set": {}}))

	rc := &tools.RuntimeContext{
		ProfileName: "staging",
		Config: &config.Config{
			Profiles: map[string]config.Profile{
				"production": {Name: "production", DefaultHost: "prod-bastion"},
			},
		},
		Session: sess,
	}

	result, err := handleProfileSet(context.Background(), &tools.Call{
		Arguments: map[string]any{"name": "production"},
	}, rc)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "production")
}

func TestProfileSetHandlerRejectsUnknownProfile(t *testing.T) {
	sess := session.New("s1")
	require.NoError(t, sess.Initialize(session.ClientInfo{Name: "test"}, "2024-11-05"))
	require.NoError(t, sess.MarkInitialized("staging", map[string]struct{}{}))

	rc := &tools.RuntimeContext{
		Config:  &config.Config{Profiles: map[string]config.Profile{}},
		Session: sess,
	}

	_, err := handleProfileSet(context.Background(), &tools.Call{
		Arguments: map[string]any{"name": "ghost"},
	}, rc)
	assert.Error(t, err)
}

func TestContextShowHandlerReportsProfile(t *testing.T) {
	rc := &tools.RuntimeContext{
		ProfileName: "staging",
		Profile: config.Profile{
			DefaultHost:           "bastion",
			DefaultKubeContext:    "staging-cluster",
			DefaultDockerEndpoint: "staging-docker",
		},
	}
	result, err := handleContextShow(context.Background(), &tools.Call{}, rc)
	require.NoError(t, err)
	assert.Contains(t, result.Content[0].Text, "staging")
	assert.Contains(t, result.Content[0].Text, "bastion")
}
