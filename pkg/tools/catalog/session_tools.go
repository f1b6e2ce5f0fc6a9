package catalog

import (
	"context"
	"fmt"

	opserrors "github.com/opscorehq/opscore/pkg/errors"
	"github.com/opscorehq/opscore/pkg/tools"
)

func profileSetDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        "profile_set",
		Description: "Switch the session's active profile.",
		ScopeTag:    tools.ScopeCore,
		InputSchema: obj([]string{"name"}, map[string]any{"name": strProp()}),
		Handler:     handleProfileSet,
	}
}

func handleProfileSet(ctx context.Context, call *tools.Call, rc *tools.RuntimeContext) (*tools.Result, error) {
	name := stringArg(call.Arguments, "name")
	if rc.Config == nil {
		return nil, opserrors.NewValidationError("no profiles configured", nil)
	}
	profile, ok := rc.Config.Profiles[name]
	if !ok {
		return nil, opserrors.NewValidationError("unknown profile: "+name, nil)
	}

	snap := rc.Session.Snap()
	if err := rc.Session.SwitchProfile(name, snap.ScopeFilter); err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("active profile is now %q (host=%s cluster=%s docker=%s)",
		name, profile.DefaultHost, profile.DefaultKubeContext, profile.DefaultDockerEndpoint)
	return tools.TextAndStructuredResult(summary, map[string]any{
		"profile":          name,
		"default_host":     profile.DefaultHost,
		"default_cluster":  profile.DefaultKubeContext,
		"default_docker":   profile.DefaultDockerEndpoint,
		"default_ns":       profile.DefaultNamespace,
	}), nil
}

func contextShowDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        "context_show",
		Description: "Show the session's active profile, cluster, namespace, and docker endpoint.",
		ScopeTag:    tools.ScopeCore,
		InputSchema: obj(nil, map[string]any{}),
		Handler:     handleContextShow,
	}
}

func handleContextShow(ctx context.Context, call *tools.Call, rc *tools.RuntimeContext) (*tools.Result, error) {
	namespace := rc.Profile.DefaultNamespace
	if namespace == "" {
		namespace = "default"
	}
	summary := fmt.Sprintf("profile=%s host=%s cluster=%s namespace=%s docker=%s",
		rc.ProfileName, rc.Profile.DefaultHost, rc.Profile.DefaultKubeContext, namespace, rc.Profile.DefaultDockerEndpoint)
	return tools.TextAndStructuredResult(summary, map[string]any{
		"profile":         rc.ProfileName,
		"default_host":    rc.Profile.DefaultHost,
		"default_cluster": rc.Profile.DefaultKubeContext,
		"namespace":       namespace,
		"default_docker":  rc.Profile.DefaultDockerEndpoint,
	}), nil
}
