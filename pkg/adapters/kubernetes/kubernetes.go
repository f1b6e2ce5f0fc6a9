// Package kubernetes implements tools.KubernetesAdapter over client-go, one
// kubernetes.Interface per cluster entry built from its kubeconfig path and
// context.
package kubernetes

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/opscorehq/opscore/pkg/config"
	opserrors "github.com/opscorehq/opscore/pkg/errors"
	"github.com/opscorehq/opscore/pkg/tools"
)

// Adapter pools one kubernetes.Interface per cluster entry.
type Adapter struct {
	mu      sync.Mutex
	clients map[string]kubernetes.Interface
}

// New builds an empty, lazily-populated adapter.
func New() *Adapter {
	return &Adapter{clients: make(map[string]kubernetes.Interface)}
}

func (a *Adapter) clientFor(cluster config.ClusterEntry) (kubernetes.Interface, error) {
	key := cluster.KubeconfigPath + "|" + cluster.Context

	a.mu.Lock()
	if cli, ok := a.clients[key]; ok {
		a.mu.Unlock()
		return cli, nil
	}
	a.mu.Unlock()

	restCfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		&clientcmd.ClientConfigLoadingRules{ExplicitPath: cluster.KubeconfigPath},
		&clientcmd.ConfigOverrides{CurrentContext: cluster.Context},
	).ClientConfig()
	if err != nil {
		return nil, opserrors.NewAdapterError(opserrors.SubKindUnreachable, "failed to load kubeconfig for "+cluster.Name, err)
	}

	cli, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, opserrors.NewAdapterError(opserrors.SubKindUnreachable, "failed to build kubernetes client for "+cluster.Name, err)
	}

	a.mu.Lock()
	a.clients[key] = cli
	a.mu.Unlock()
	return cli, nil
}

// ListPods lists pods in a namespace.
func (a *Adapter) ListPods(ctx context.Context, cluster config.ClusterEntry, namespace string) ([]tools.PodSummary, error) {
	cli, err := a.clientFor(cluster)
	if err != nil {
		return nil, err
	}
	list, err := cli.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, classifyK8sError(err, "")
	}
	out := make([]tools.PodSummary, 0, len(list.Items))
	for _, p := range list.Items {
		ready := fmt.Sprintf("%d/%d", countReady(p.Status.ContainerStatuses), len(p.Status.ContainerStatuses))
		out = append(out, tools.PodSummary{
			Name:  p.Name,
			Phase: string(p.Status.Phase),
			Ready: ready,
			Node:  p.Spec.NodeName,
		})
	}
	return out, nil
}

// GetPod describes a single pod.
func (a *Adapter) GetPod(ctx context.Context, cluster config.ClusterEntry, namespace, name string) (tools.PodDetail, error) {
	cli, err := a.clientFor(cluster)
	if err != nil {
		return tools.PodDetail{}, err
	}
	pod, err := cli.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return tools.PodDetail{}, classifyK8sError(err, name)
	}
	containers := make([]string, 0, len(pod.Spec.Containers))
	for _, c := range pod.Spec.Containers {
		containers = append(containers, c.Name)
	}
	startTime := ""
	if pod.Status.StartTime != nil {
		startTime = pod.Status.StartTime.Format(time.RFC3339)
	}
	return tools.PodDetail{
		Name:       pod.Name,
		Namespace:  pod.Namespace,
		Phase:      string(pod.Status.Phase),
		Containers: containers,
		PodIP:      pod.Status.PodIP,
		StartTime:  startTime,
	}, nil
}

// Logs returns the last tail lines of a pod's log, optionally scoped to
// container.
func (a *Adapter) Logs(ctx context.Context, cluster config.ClusterEntry, namespace, pod, containerName string, tail int) (string, error) {
	cli, err := a.clientFor(cluster)
	if err != nil {
		return "", err
	}
	tailLines := int64(tail)
	opts := &corev1.PodLogOptions{Container: containerName, TailLines: &tailLines}
	req := cli.CoreV1().Pods(namespace).GetLogs(pod, opts)
	rc, err := req.Stream(ctx)
	if err != nil {
		return "", classifyK8sError(err, pod)
	}
	defer rc.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return "", opserrors.NewAdapterError(opserrors.SubKindTransient, "failed reading pod log stream", err)
	}
	return sb.String(), nil
}

// ScaleDeployment scales a deployment to replicas.
func (a *Adapter) ScaleDeployment(ctx context.Context, cluster config.ClusterEntry, namespace, deployment string, replicas int) error {
	cli, err := a.clientFor(cluster)
	if err != nil {
		return err
	}
	patch := fmt.Sprintf(`{"spec":{"replicas":%d}}`, replicas)
	_, err = cli.AppsV1().Deployments(namespace).Patch(ctx, deployment, types.MergePatchType, []byte(patch), metav1.PatchOptions{})
	if err != nil {
		return classifyK8sError(err, deployment)
	}
	return nil
}

// RestartDeployment triggers a rolling restart by patching the pod
// template's restart annotation, the same mechanism `kubectl rollout
// restart` uses.
func (a *Adapter) RestartDeployment(ctx context.Context, cluster config.ClusterEntry, namespace, deployment string) error {
	cli, err := a.clientFor(cluster)
	if err != nil {
		return err
	}
	patch := fmt.Sprintf(
		`{"spec":{"template":{"metadata":{"annotations":{"opscore.io/restartedAt":%q}}}}}`,
		time.Now().UTC().Format(time.RFC3339),
	)
	_, err = cli.AppsV1().Deployments(namespace).Patch(ctx, deployment, types.StrategicMergePatchType, []byte(patch), metav1.PatchOptions{})
	if err != nil {
		return classifyK8sError(err, deployment)
	}
	return nil
}

func countReady(statuses []corev1.ContainerStatus) int {
	n := 0
	for _, s := range statuses {
		if s.Ready {
			n++
		}
	}
	return n
}

func classifyK8sError(err error, name string) error {
	msg := err.Error()
	if name != "" {
		msg = name + ": " + msg
	}
	switch {
	case apierrors.IsNotFound(err):
		return opserrors.NewAdapterError(opserrors.SubKindNotFound, msg, err)
	case apierrors.IsUnauthorized(err) || apierrors.IsForbidden(err):
		return opserrors.NewAdapterError(opserrors.SubKindUnauthorized, msg, err)
	case apierrors.IsTimeout(err):
		return opserrors.NewAdapterError(opserrors.SubKindTimeout, msg, err)
	default:
		return opserrors.NewAdapterError(opserrors.SubKindTransient, msg, err)
	}
}
