package catalog

import (
	"github.com/opscorehq/opscore/pkg/config"
	opserrors "github.com/opscorehq/opscore/pkg/errors"
	"github.com/opscorehq/opscore/pkg/tools"
)

func resolveHost(rc *tools.RuntimeContext, name string) (config.HostEntry, error) {
	if rc.Config == nil {
		return config.HostEntry{}, opserrors.NewAdapterError(opserrors.SubKindNotFound, "no hosts configured", nil)
	}
	host, ok := rc.Config.Hosts[name]
	if !ok {
		return config.HostEntry{}, opserrors.NewAdapterError(opserrors.SubKindNotFound, "host not found: "+name, nil)
	}
	return host, nil
}

func resolveCluster(rc *tools.RuntimeContext, name string) (config.ClusterEntry, error) {
	if name == "" {
		name = rc.Profile.DefaultKubeContext
	}
	if rc.Config == nil {
		return config.ClusterEntry{}, opserrors.NewAdapterError(opserrors.SubKindNotFound, "no clusters configured", nil)
	}
	cluster, ok := rc.Config.Clusters[name]
	if !ok {
		return config.ClusterEntry{}, opserrors.NewAdapterError(opserrors.SubKindNotFound, "cluster not found: "+name, nil)
	}
	return cluster, nil
}

func resolveDockerEndpoint(rc *tools.RuntimeContext) (config.DockerEndpointEntry, error) {
	name := rc.Profile.DefaultDockerEndpoint
	if rc.Config == nil {
		return config.DockerEndpointEntry{}, opserrors.NewAdapterError(opserrors.SubKindNotFound, "no docker endpoints configured", nil)
	}
	endpoint, ok := rc.Config.DockerEndpoints[name]
	if !ok {
		return config.DockerEndpointEntry{}, opserrors.NewAdapterError(opserrors.SubKindNotFound, "docker endpoint not found: "+name, nil)
	}
	return endpoint, nil
}

func namespaceOrDefault(rc *tools.RuntimeContext, namespace string) string {
	if namespace != "" {
		return namespace
	}
	if rc.Profile.DefaultNamespace != "" {
		return rc.Profile.DefaultNamespace
	}
	return "default"
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func boolArg(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func intArg(args map[string]any, key string, def int) int {
	raw, ok := args[key]
	if !ok {
		return def
	}
	switch n := raw.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}
