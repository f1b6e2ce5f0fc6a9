package catalog

import (
	"context"
	"fmt"

	"github.com/opscorehq/opscore/pkg/tools"
)

func sshExecuteDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        "ssh_execute",
		Description: "Execute a single command on a remote host over SSH.",
		ScopeTag:    tools.ScopeCore,
		InputSchema: obj([]string{"server", "command"}, map[string]any{
			"server":  strProp(),
			"command": strProp(),
			"timeout": timeoutProp(),
		}),
		ScanCommandArg: "command",
		Handler:        handleSSHExecute,
	}
}

func handleSSHExecute(ctx context.Context, call *tools.Call, rc *tools.RuntimeContext) (*tools.Result, error) {
	host, err := resolveHost(rc, stringArg(call.Arguments, "server"))
	if err != nil {
		return nil, err
	}
	res, err := rc.Adapters.SSH.Execute(ctx, host, stringArg(call.Arguments, "command"), call.Deadline)
	if err != nil {
		return nil, err
	}
	summary := fmt.Sprintf("exit %d\n%s%s", res.ExitCode, res.Stdout, res.Stderr)
	return tools.TextAndStructuredResult(summary, map[string]any{
		"stdout":    res.Stdout,
		"stderr":    res.Stderr,
		"exit_code": res.ExitCode,
	}), nil
}

func queryLogsDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        "query_logs",
		Description: "Tail a log file on a remote host, optionally filtered.",
		ScopeTag:    tools.ScopeCore,
		InputSchema: obj([]string{"server", "log_path"}, map[string]any{
			"server":   strProp(),
			"log_path": strProp(),
			"filter":   strProp(),
			"tail":     intProp(1, 10000),
			"follow":   boolProp(),
		}),
		Handler: handleQueryLogs,
	}
}

func handleQueryLogs(ctx context.Context, call *tools.Call, rc *tools.RuntimeContext) (*tools.Result, error) {
	host, err := resolveHost(rc, stringArg(call.Arguments, "server"))
	if err != nil {
		return nil, err
	}
	tail := intArg(call.Arguments, "tail", 100)
	text, err := rc.Adapters.Logs.Tail(ctx, host, stringArg(call.Arguments, "log_path"), stringArg(call.Arguments, "filter"), tail)
	if err != nil {
		return nil, err
	}
	return tools.TextResult(text), nil
}

func systemInfoDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        "system_info",
		Description: "Report uptime, load average, and memory usage for a remote host.",
		ScopeTag:    tools.ScopeCore,
		InputSchema: obj([]string{"server"}, map[string]any{"server": strProp()}),
		Handler:     handleSystemInfo,
	}
}

func handleSystemInfo(ctx context.Context, call *tools.Call, rc *tools.RuntimeContext) (*tools.Result, error) {
	host, err := resolveHost(rc, stringArg(call.Arguments, "server"))
	if err != nil {
		return nil, err
	}
	res, err := rc.Adapters.SSH.Execute(ctx, host, "uptime && free -m", call.Deadline)
	if err != nil {
		return nil, err
	}
	return tools.TextAndStructuredResult(res.Stdout, map[string]any{
		"stdout":    res.Stdout,
		"stderr":    res.Stderr,
		"exit_code": res.ExitCode,
	}), nil
}

func diskUsageDescriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        "disk_usage",
		Description: "Report filesystem usage for a remote host.",
		ScopeTag:    tools.ScopeCore,
		InputSchema: obj([]string{"server"}, map[string]any{"server": strProp()}),
		Handler:     handleDiskUsage,
	}
}

func handleDiskUsage(ctx context.Context, call *tools.Call, rc *tools.RuntimeContext) (*tools.Result, error) {
	host, err := resolveHost(rc, stringArg(call.Arguments, "server"))
	if err != nil {
		return nil, err
	}
	res, err := rc.Adapters.SSH.Execute(ctx, host, "df -h", call.Deadline)
	if err != nil {
		return nil, err
	}
	return tools.TextAndStructuredResult(res.Stdout, map[string]any{
		"stdout":    res.Stdout,
		"exit_code": res.ExitCode,
	}), nil
}
