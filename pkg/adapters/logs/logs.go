// Package logs implements tools.LogReader: tailing a file reachable via SSH
// on a host entry, optionally filtered by substring or glob.
package logs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/opscorehq/opscore/pkg/config"
	opserrors "github.com/opscorehq/opscore/pkg/errors"
	"github.com/opscorehq/opscore/pkg/tools"
)

const defaultTailTimeout = 30 * time.Second

// Adapter tails a remote file by running a bounded shell pipeline over the
// shared SSH adapter rather than opening a second transport.
type Adapter struct {
	ssh tools.SSHAdapter
}

// New builds a log reader backed by ssh.
func New(ssh tools.SSHAdapter) *Adapter {
	return &Adapter{ssh: ssh}
}

// Tail returns the last n lines of path, optionally filtered by a
// substring or a simple glob pattern matched against each line.
func (a *Adapter) Tail(ctx context.Context, host config.HostEntry, path, filter string, n int) (string, error) {
	if n <= 0 {
		n = 100
	}
	cmd := fmt.Sprintf("tail -n %d -- %s", n, shellQuote(path))
	timeout := defaultTailTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			timeout = remaining
		}
	}
	res, err := a.ssh.Execute(ctx, host, cmd, timeout)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", opserrors.NewAdapterError(opserrors.SubKindNotFound, "log path not readable: "+path, nil)
	}
	if filter == "" {
		return res.Stdout, nil
	}
	return filterLines(res.Stdout, filter), nil
}

func filterLines(text, filter string) string {
	lines := strings.Split(text, "\n")
	var kept []string
	for _, line := range lines {
		if matches(line, filter) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func matches(line, filter string) bool {
	if ok, err := filepath.Match(filter, line); err == nil && strings.ContainsAny(filter, "*?[") {
		return ok
	}
	return strings.Contains(line, filter)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
