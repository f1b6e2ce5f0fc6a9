// Package ssh implements tools.SSHAdapter over golang.org/x/crypto/ssh,
// pooling one client connection per host entry and discarding a pool entry
// on authentication failure or any transport-level error (spec §4.6).
package ssh

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/opscorehq/opscore/pkg/config"
	opserrors "github.com/opscorehq/opscore/pkg/errors"
	"github.com/opscorehq/opscore/pkg/tools"
)

// AuthResolver returns the auth methods to use for a host entry's
// credential_ref (e.g. loaded from an SSH agent or a key file on disk).
// Injected rather than hardcoded so the caller decides how credential_ref
// resolves to a private key or agent socket.
type AuthResolver func(host config.HostEntry) ([]ssh.AuthMethod, error)

// Adapter pools one *ssh.Client per host address, reused across calls.
type Adapter struct {
	mu       sync.Mutex
	clients  map[string]*ssh.Client
	resolve  AuthResolver
	hostKeys ssh.HostKeyCallback
}

// New builds an adapter. hostKeyCallback is typically
// ssh.InsecureIgnoreHostKey in a lab profile or a knownhosts callback in
// production; it is the caller's choice, not this package's.
func New(resolve AuthResolver, hostKeyCallback ssh.HostKeyCallback) *Adapter {
	return &Adapter{
		clients:  make(map[string]*ssh.Client),
		resolve:  resolve,
		hostKeys: hostKeyCallback,
	}
}

// AgentResolver resolves credential_ref through the running SSH agent,
// ignoring credential_ref entirely (agent auth offers every loaded key).
func AgentResolver(agentSocket string) AuthResolver {
	return func(host config.HostEntry) ([]ssh.AuthMethod, error) {
		conn, err := net.Dial("unix", agentSocket)
		if err != nil {
			return nil, opserrors.NewAdapterError(opserrors.SubKindUnreachable, "cannot reach ssh-agent socket", err)
		}
		return []ssh.AuthMethod{ssh.PublicKeysCallback(agent.NewClient(conn).Signers)}, nil
	}
}

func (a *Adapter) dial(host config.HostEntry) (*ssh.Client, error) {
	addr := fmt.Sprintf("%s:%d", host.Address, host.Port)

	a.mu.Lock()
	if client, ok := a.clients[addr]; ok {
		a.mu.Unlock()
		return client, nil
	}
	a.mu.Unlock()

	methods, err := a.resolve(host)
	if err != nil {
		return nil, err
	}

	cfg := &ssh.ClientConfig{
		User:            host.User,
		Auth:            methods,
		HostKeyCallback: a.hostKeys,
		Timeout:         10 * time.Second,
	}

	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, opserrors.NewAdapterError(opserrors.SubKindUnauthorized, "ssh dial failed for "+addr, err)
	}

	a.mu.Lock()
	a.clients[addr] = client
	a.mu.Unlock()
	return client, nil
}

func (a *Adapter) discard(host config.HostEntry) {
	addr := fmt.Sprintf("%s:%d", host.Address, host.Port)
	a.mu.Lock()
	defer a.mu.Unlock()
	if client, ok := a.clients[addr]; ok {
		_ = client.Close()
		delete(a.clients, addr)
	}
}

// Execute runs command to completion within timeout, returning its
// stdout/stderr/exit code.
func (a *Adapter) Execute(ctx context.Context, host config.HostEntry, command string, timeout time.Duration) (tools.ExecResult, error) {
	client, err := a.dial(host)
	if err != nil {
		return tools.ExecResult{}, err
	}

	session, err := client.NewSession()
	if err != nil {
		a.discard(host)
		return tools.ExecResult{}, opserrors.NewAdapterError(opserrors.SubKindUnreachable, "failed to open ssh session", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return tools.ExecResult{}, opserrors.NewAdapterError(opserrors.SubKindCancelled, "ssh command cancelled", ctx.Err())
	case <-deadline.C:
		_ = session.Signal(ssh.SIGKILL)
		return tools.ExecResult{}, opserrors.NewAdapterError(opserrors.SubKindTimeout, "ssh command timed out", nil)
	case runErr := <-done:
		exitCode := 0
		if runErr != nil {
			if exitErr, ok := runErr.(*ssh.ExitError); ok {
				exitCode = exitErr.ExitStatus()
			} else {
				a.discard(host)
				return tools.ExecResult{}, opserrors.NewAdapterError(opserrors.SubKindTransient, "ssh command failed", runErr)
			}
		}
		return tools.ExecResult{
			Stdout:   replaceInvalidUTF8(stdout.String()),
			Stderr:   replaceInvalidUTF8(stderr.String()),
			ExitCode: exitCode,
		}, nil
	}
}

// StreamLines runs command and streams stdout lines until ctx is cancelled,
// at which point the remote process is terminated.
func (a *Adapter) StreamLines(ctx context.Context, host config.HostEntry, command string) (<-chan string, error) {
	client, err := a.dial(host)
	if err != nil {
		return nil, err
	}

	session, err := client.NewSession()
	if err != nil {
		a.discard(host)
		return nil, opserrors.NewAdapterError(opserrors.SubKindUnreachable, "failed to open ssh session", err)
	}

	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, opserrors.NewAdapterError(opserrors.SubKindUnreachable, "failed to attach stdout pipe", err)
	}

	if err := session.Start(command); err != nil {
		session.Close()
		return nil, opserrors.NewAdapterError(opserrors.SubKindTransient, "failed to start streaming command", err)
	}

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		defer session.Close()

		scannerDone := make(chan struct{})
		go func() {
			defer close(scannerDone)
			scanLines(stdout, lines)
		}()

		select {
		case <-ctx.Done():
			_ = session.Signal(ssh.SIGKILL)
		case <-scannerDone:
		}
	}()

	return lines, nil
}

func scanLines(r interface{ Read([]byte) (int, error) }, out chan<- string) {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for {
				idx := bytes.IndexByte(buf, '\n')
				if idx < 0 {
					break
				}
				out <- string(buf[:idx])
				buf = buf[idx+1:]
			}
		}
		if err != nil {
			if len(buf) > 0 {
				out <- string(buf)
			}
			return
		}
	}
}

func replaceInvalidUTF8(s string) string {
	return string(bytes.ToValidUTF8([]byte(s), []byte("�")))
}
