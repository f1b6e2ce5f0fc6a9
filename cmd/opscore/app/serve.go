package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"

	"github.com/opscorehq/opscore/pkg/adapters/docker"
	"github.com/opscorehq/opscore/pkg/adapters/kubernetes"
	"github.com/opscorehq/opscore/pkg/adapters/logs"
	sshadapter "github.com/opscorehq/opscore/pkg/adapters/ssh"
	"github.com/opscorehq/opscore/pkg/audit"
	"github.com/opscorehq/opscore/pkg/config"
	opserrors "github.com/opscorehq/opscore/pkg/errors"
	"github.com/opscorehq/opscore/pkg/logger"
	"github.com/opscorehq/opscore/pkg/policy"
	"github.com/opscorehq/opscore/pkg/rpc"
	"github.com/opscorehq/opscore/pkg/session"
	"github.com/opscorehq/opscore/pkg/tools"
	"github.com/opscorehq/opscore/pkg/tools/catalog"
	"github.com/opscorehq/opscore/pkg/transport"
)

const (
	defaultLeasePoolMax = 4
	defaultBindAddr     = "127.0.0.1:8765"
	shutdownGrace       = 5 * time.Second
)

var (
	serveScope    string
	serveAuditLog string
	serveBindAddr string
	serveProfile  string
	serveUseHTTP  bool
	serverVersion = "dev"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the opscore server",
		Long: `Start the opscore JSON-RPC server over stdio (the default, for a locally
spawned client) or HTTP (--http), exposing the tool catalog allowed by the
active profile's scope.`,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveScope, "scope", "", "tool scope: core, standard, all, or a comma-separated tool name list (default: $TOOLS_SCOPE or core)")
	cmd.Flags().StringVar(&serveAuditLog, "audit-log", "", "path to the audit JSONL file (default: $AUDIT_LOG_PATH or config default)")
	cmd.Flags().StringVar(&serveBindAddr, "bind", defaultBindAddr, "address to bind when --http is set")
	cmd.Flags().StringVar(&serveProfile, "profile", "", "active profile name at startup (default: the only configured profile; when several exist, which one is picked is not defined)")
	cmd.Flags().BoolVar(&serveUseHTTP, "http", false, "serve over HTTP instead of stdio")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPathFlag)
	if err != nil {
		return exitErr(ExitBadConfig, err)
	}
	if serveAuditLog != "" {
		cfg.Audit.Path = serveAuditLog
	}

	scopeRaw := serveScope
	if scopeRaw == "" {
		scopeRaw = os.Getenv(config.EnvToolsScope)
	}
	scopeSpec, err := config.ResolveScope(scopeRaw)
	if err != nil {
		return exitErr(ExitBadConfig, err)
	}

	registry, err := tools.NewRegistry(catalog.All()...)
	if err != nil {
		return exitErr(ExitBadConfig, err)
	}
	initialScope, err := registry.ComputeScopeFilter(scopeSpec)
	if err != nil {
		return exitErr(ExitBadConfig, err)
	}
	if len(cfg.Profiles) == 0 {
		return exitErr(ExitBadConfig, opserrors.NewInvalidArgumentError("no profiles configured", nil))
	}
	defaultProfile := serveProfile
	if defaultProfile == "" {
		defaultProfile = firstProfileName(cfg)
	} else if _, ok := cfg.Profiles[defaultProfile]; !ok {
		return exitErr(ExitBadConfig, opserrors.NewInvalidArgumentError("unknown profile: "+defaultProfile, nil))
	}

	auditWriter, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		return exitErr(ExitBadConfig, err)
	}
	defer func() { _ = auditWriter.Close() }()

	adapters := buildAdapters()
	dispatcher := tools.NewDispatcher(registry, tools.NewLeasePool(defaultLeasePoolMax))

	buildRC := func(profileName string) (*tools.RuntimeContext, error) {
		profile, ok := cfg.Profiles[profileName]
		if !ok {
			return nil, opserrors.NewValidationError("unknown profile: "+profileName, nil)
		}
		checker, err := policy.NewChecker(profile)
		if err != nil {
			return nil, err
		}
		redactor, err := policy.NewRedactor(config.DefaultRedactionRuleSet())
		if err != nil {
			return nil, err
		}
		return &tools.RuntimeContext{
			ProfileName: profileName,
			Profile:     profile,
			Config:      cfg,
			Policy:      checker,
			Redactor:    redactor,
			Audit:       auditWriter,
			Adapters:    adapters,
		}, nil
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	// A single ambient session serves every connection (spec §4.3: "for the
	// stateless POST case a single ambient session suffices when the
	// process is launched for one user" — the same holds for stdio, which
	// only ever has one client).
	sess := session.New("default")

	deps := rpc.Deps{
		Config:         cfg,
		Registry:       registry,
		Dispatcher:     dispatcher,
		Session:        sess,
		ServerInfo:     rpc.ServerInfo{Name: "opscore", Version: serverVersion},
		BuildRC:        buildRC,
		DefaultProfile: defaultProfile,
		InitialScope:   initialScope,
	}
	engine := rpc.NewEngine(rpc.Handlers(deps))

	if serveUseHTTP {
		return serveHTTPTransport(ctx, engine)
	}
	return serveStdioTransport(ctx, engine)
}

func serveStdioTransport(ctx context.Context, engine *rpc.Engine) error {
	tr := transport.NewStdio(engine, os.Stdin, os.Stdout)
	if err := tr.Serve(ctx); err != nil && ctx.Err() == nil {
		return exitErr(ExitInternal, err)
	}
	return nil
}

func serveHTTPTransport(ctx context.Context, engine *rpc.Engine) error {
	tr := transport.NewHTTP(engine)
	srv := &http.Server{Addr: serveBindAddr, Handler: tr}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("http transport listening", "addr", serveBindAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return exitErr(ExitInternal, err)
		}
		return nil
	case err := <-errCh:
		return exitErr(ExitBindFailure, err)
	}
}

func buildAdapters() tools.Adapters {
	sshAdapter := sshadapter.New(sshadapter.AgentResolver(os.Getenv("SSH_AUTH_SOCK")), ssh.InsecureIgnoreHostKey())
	return tools.Adapters{
		SSH:        sshAdapter,
		Docker:     docker.New(),
		Kubernetes: kubernetes.New(),
		Logs:       logs.New(sshAdapter),
	}
}

func firstProfileName(cfg *config.Config) string {
	for name := range cfg.Profiles {
		return name
	}
	return ""
}
