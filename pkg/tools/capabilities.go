package tools

import (
	"context"
	"time"

	"github.com/opscorehq/opscore/pkg/config"
)

// ExecResult is the outcome of a single SSH command execution (spec §4.6).
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// SSHAdapter executes commands on a host entry and streams log output.
// Implementations pool connections per host and discard a pool entry on
// authentication failure or transport-level error (spec §4.6).
type SSHAdapter interface {
	Execute(ctx context.Context, host config.HostEntry, command string, timeout time.Duration) (ExecResult, error)
	StreamLines(ctx context.Context, host config.HostEntry, command string) (<-chan string, error)
}

// ContainerSummary is one entry of a Docker container listing.
type ContainerSummary struct {
	ID     string
	Names  []string
	Image  string
	State  string
	Status string
}

// DockerAdapter controls containers on a docker endpoint entry. A "not
// found" condition must be surfaced distinguishably (spec §4.6).
type DockerAdapter interface {
	ListContainers(ctx context.Context, endpoint config.DockerEndpointEntry, all bool) ([]ContainerSummary, error)
	Logs(ctx context.Context, endpoint config.DockerEndpointEntry, container string, tail int) (string, error)
	Start(ctx context.Context, endpoint config.DockerEndpointEntry, container string) error
	Stop(ctx context.Context, endpoint config.DockerEndpointEntry, container string, timeout time.Duration) error
	Restart(ctx context.Context, endpoint config.DockerEndpointEntry, container string) error
}

// PodSummary is one entry of a Kubernetes pod listing.
type PodSummary struct {
	Name  string
	Phase string
	Ready string
	Node  string
}

// PodDetail is the full description returned by k8s_get_pod.
type PodDetail struct {
	Name       string
	Namespace  string
	Phase      string
	Containers []string
	PodIP      string
	StartTime  string
}

// KubernetesAdapter queries and mutates resources on a cluster entry.
// Authorization failures must be surfaced distinctly from not-found (spec
// §4.6).
type KubernetesAdapter interface {
	ListPods(ctx context.Context, cluster config.ClusterEntry, namespace string) ([]PodSummary, error)
	GetPod(ctx context.Context, cluster config.ClusterEntry, namespace, name string) (PodDetail, error)
	Logs(ctx context.Context, cluster config.ClusterEntry, namespace, pod, container string, tail int) (string, error)
	ScaleDeployment(ctx context.Context, cluster config.ClusterEntry, namespace, deployment string, replicas int) error
	RestartDeployment(ctx context.Context, cluster config.ClusterEntry, namespace, deployment string) error
}

// LogReader tails a local file on a host entry.
type LogReader interface {
	Tail(ctx context.Context, host config.HostEntry, path, filter string, n int) (string, error)
}
