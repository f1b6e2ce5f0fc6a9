package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/opscorehq/opscore/pkg/tools"
)

func dockerListContainersDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        "docker_list_containers",
		Description: "List containers on the profile's default Docker endpoint.",
		ScopeTag:    tools.ScopeStandard,
		InputSchema: obj(nil, map[string]any{"all": boolProp()}),
		Handler:     handleDockerListContainers,
	}
}

func handleDockerListContainers(ctx context.Context, call *tools.Call, rc *tools.RuntimeContext) (*tools.Result, error) {
	endpoint, err := resolveDockerEndpoint(rc)
	if err != nil {
		return nil, err
	}
	containers, err := rc.Adapters.Docker.ListContainers(ctx, endpoint, boolArg(call.Arguments, "all"))
	if err != nil {
		return nil, err
	}
	summary := fmt.Sprintf("%d container(s)", len(containers))
	return tools.TextAndStructuredResult(summary, map[string]any{"containers": containers}), nil
}

func dockerLogsDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        "docker_logs",
		Description: "Retrieve the log tail of a container.",
		ScopeTag:    tools.ScopeStandard,
		InputSchema: obj([]string{"container"}, map[string]any{
			"container": strProp(),
			"tail":      intProp(1, 10000),
			"follow":    boolProp(),
		}),
		Handler: handleDockerLogs,
	}
}

func handleDockerLogs(ctx context.Context, call *tools.Call, rc *tools.RuntimeContext) (*tools.Result, error) {
	endpoint, err := resolveDockerEndpoint(rc)
	if err != nil {
		return nil, err
	}
	tail := intArg(call.Arguments, "tail", 100)
	text, err := rc.Adapters.Docker.Logs(ctx, endpoint, stringArg(call.Arguments, "container"), tail)
	if err != nil {
		return nil, err
	}
	return tools.TextResult(text), nil
}

func dockerStartContainerDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:           "docker_start_container",
		Description:    "Start a stopped container.",
		ScopeTag:       tools.ScopeAll,
		InputSchema:    obj([]string{"container"}, map[string]any{"container": strProp()}),
		PassthroughCmd: "docker",
		Verb:           "start",
		Handler:        handleDockerStartContainer,
	}
}

func handleDockerStartContainer(ctx context.Context, call *tools.Call, rc *tools.RuntimeContext) (*tools.Result, error) {
	endpoint, err := resolveDockerEndpoint(rc)
	if err != nil {
		return nil, err
	}
	container := stringArg(call.Arguments, "container")
	if err := rc.Adapters.Docker.Start(ctx, endpoint, container); err != nil {
		return nil, err
	}
	return tools.TextResult("started " + container), nil
}

func dockerStopContainerDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        "docker_stop_container",
		Description: "Stop a running container.",
		ScopeTag:    tools.ScopeAll,
		InputSchema: obj([]string{"container"}, map[string]any{
			"container": strProp(),
			"timeout":   timeoutProp(),
		}),
		PassthroughCmd: "docker",
		Verb:           "stop",
		Handler:        handleDockerStopContainer,
	}
}

func handleDockerStopContainer(ctx context.Context, call *tools.Call, rc *tools.RuntimeContext) (*tools.Result, error) {
	endpoint, err := resolveDockerEndpoint(rc)
	if err != nil {
		return nil, err
	}
	container := stringArg(call.Arguments, "container")
	stopTimeout := time.Duration(intArg(call.Arguments, "timeout", 10)) * time.Second
	if err := rc.Adapters.Docker.Stop(ctx, endpoint, container, stopTimeout); err != nil {
		return nil, err
	}
	return tools.TextResult("stopped " + container), nil
}

func dockerRestartContainerDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:           "docker_restart_container",
		Description:    "Restart a container.",
		ScopeTag:       tools.ScopeAll,
		InputSchema:    obj([]string{"container"}, map[string]any{"container": strProp()}),
		PassthroughCmd: "docker",
		Verb:           "restart",
		Handler:        handleDockerRestartContainer,
	}
}

func handleDockerRestartContainer(ctx context.Context, call *tools.Call, rc *tools.RuntimeContext) (*tools.Result, error) {
	endpoint, err := resolveDockerEndpoint(rc)
	if err != nil {
		return nil, err
	}
	container := stringArg(call.Arguments, "container")
	if err := rc.Adapters.Docker.Restart(ctx, endpoint, container); err != nil {
		return nil, err
	}
	return tools.TextResult("restarted " + container), nil
}
