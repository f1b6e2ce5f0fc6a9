package catalog

import (
	"context"
	"fmt"

	"github.com/opscorehq/opscore/pkg/tools"
)

func k8sListPodsDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        "k8s_list_pods",
		Description: "List pods in a namespace of a cluster.",
		ScopeTag:    tools.ScopeStandard,
		InputSchema: obj(nil, map[string]any{
			"namespace": strProp(),
			"cluster":   strProp(),
		}),
		Handler: handleK8sListPods,
	}
}

func handleK8sListPods(ctx context.Context, call *tools.Call, rc *tools.RuntimeContext) (*tools.Result, error) {
	cluster, err := resolveCluster(rc, stringArg(call.Arguments, "cluster"))
	if err != nil {
		return nil, err
	}
	namespace := namespaceOrDefault(rc, stringArg(call.Arguments, "namespace"))
	pods, err := rc.Adapters.Kubernetes.ListPods(ctx, cluster, namespace)
	if err != nil {
		return nil, err
	}
	summary := fmt.Sprintf("%d pod(s) in %s", len(pods), namespace)
	return tools.TextAndStructuredResult(summary, map[string]any{"pods": pods}), nil
}

func k8sGetPodDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        "k8s_get_pod",
		Description: "Describe a single pod.",
		ScopeTag:    tools.ScopeStandard,
		InputSchema: obj([]string{"name"}, map[string]any{
			"name":      strProp(),
			"namespace": strProp(),
		}),
		PassthroughCmd: "kubectl",
		Verb:           "get",
		Handler:        handleK8sGetPod,
	}
}

func handleK8sGetPod(ctx context.Context, call *tools.Call, rc *tools.RuntimeContext) (*tools.Result, error) {
	cluster, err := resolveCluster(rc, "")
	if err != nil {
		return nil, err
	}
	namespace := namespaceOrDefault(rc, stringArg(call.Arguments, "namespace"))
	detail, err := rc.Adapters.Kubernetes.GetPod(ctx, cluster, namespace, stringArg(call.Arguments, "name"))
	if err != nil {
		return nil, err
	}
	summary := fmt.Sprintf("%s/%s: %s", namespace, detail.Name, detail.Phase)
	return tools.TextAndStructuredResult(summary, map[string]any{
		"name":       detail.Name,
		"namespace":  detail.Namespace,
		"phase":      detail.Phase,
		"containers": detail.Containers,
		"pod_ip":     detail.PodIP,
		"start_time": detail.StartTime,
	}), nil
}

func k8sLogsDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        "k8s_logs",
		Description: "Retrieve a pod's log tail, optionally scoped to a container.",
		ScopeTag:    tools.ScopeStandard,
		InputSchema: obj([]string{"pod"}, map[string]any{
			"pod":       strProp(),
			"namespace": strProp(),
			"container": strProp(),
			"tail":      intProp(1, 10000),
			"follow":    boolProp(),
		}),
		PassthroughCmd: "kubectl",
		Verb:           "logs",
		Handler:        handleK8sLogs,
	}
}

func handleK8sLogs(ctx context.Context, call *tools.Call, rc *tools.RuntimeContext) (*tools.Result, error) {
	cluster, err := resolveCluster(rc, "")
	if err != nil {
		return nil, err
	}
	namespace := namespaceOrDefault(rc, stringArg(call.Arguments, "namespace"))
	tail := intArg(call.Arguments, "tail", 100)
	text, err := rc.Adapters.Kubernetes.Logs(ctx, cluster, namespace, stringArg(call.Arguments, "pod"), stringArg(call.Arguments, "container"), tail)
	if err != nil {
		return nil, err
	}
	return tools.TextResult(text), nil
}

func k8sScaleDeploymentDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        "k8s_scale_deployment",
		Description: "Scale a deployment to a replica count.",
		ScopeTag:    tools.ScopeAll,
		InputSchema: obj([]string{"deployment", "replicas"}, map[string]any{
			"deployment": strProp(),
			"replicas":   intProp(0, 1000),
			"namespace":  strProp(),
		}),
		PassthroughCmd: "kubectl",
		Verb:           "scale",
		Handler:        handleK8sScaleDeployment,
	}
}

func handleK8sScaleDeployment(ctx context.Context, call *tools.Call, rc *tools.RuntimeContext) (*tools.Result, error) {
	cluster, err := resolveCluster(rc, "")
	if err != nil {
		return nil, err
	}
	namespace := namespaceOrDefault(rc, stringArg(call.Arguments, "namespace"))
	deployment := stringArg(call.Arguments, "deployment")
	replicas := intArg(call.Arguments, "replicas", 0)
	if err := rc.Adapters.Kubernetes.ScaleDeployment(ctx, cluster, namespace, deployment, replicas); err != nil {
		return nil, err
	}
	return tools.TextResult(fmt.Sprintf("scaled %s/%s to %d replicas", namespace, deployment, replicas)), nil
}

func k8sRestartDeploymentDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        "k8s_restart_deployment",
		Description: "Trigger a rolling restart of a deployment.",
		ScopeTag:    tools.ScopeAll,
		InputSchema: obj([]string{"deployment"}, map[string]any{
			"deployment": strProp(),
			"namespace":  strProp(),
		}),
		PassthroughCmd: "kubectl",
		Verb:           "restart",
		Handler:        handleK8sRestartDeployment,
	}
}

func handleK8sRestartDeployment(ctx context.Context, call *tools.Call, rc *tools.RuntimeContext) (*tools.Result, error) {
	cluster, err := resolveCluster(rc, "")
	if err != nil {
		return nil, err
	}
	namespace := namespaceOrDefault(rc, stringArg(call.Arguments, "namespace"))
	deployment := stringArg(call.Arguments, "deployment")
	if err := rc.Adapters.Kubernetes.RestartDeployment(ctx, cluster, namespace, deployment); err != nil {
		return nil, err
	}
	return tools.TextResult(fmt.Sprintf("restarted %s/%s", namespace, deployment)), nil
}
