package catalog

import "github.com/opscorehq/opscore/pkg/tools"

// All returns the sixteen tool descriptors of the minimum viable catalog, in
// the declaration order of the tool table: SSH/log/host tools, Docker
// tools, Kubernetes tools, then session-control tools.
func All() []tools.Descriptor {
	return []tools.Descriptor{
		sshExecuteDescriptor(),
		queryLogsDescriptor(),
		systemInfoDescriptor(),
		diskUsageDescriptor(),
		dockerListContainersDescriptor(),
		dockerLogsDescriptor(),
		dockerStartContainerDescriptor(),
		dockerStopContainerDescriptor(),
		dockerRestartContainerDescriptor(),
		k8sListPodsDescriptor(),
		k8sGetPodDescriptor(),
		k8sLogsDescriptor(),
		k8sScaleDeploymentDescriptor(),
		k8sRestartDeploymentDescriptor(),
		profileSetDescriptor(),
		contextShowDescriptor(),
	}
}
