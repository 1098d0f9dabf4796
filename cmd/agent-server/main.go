// Package main provides the entry point for the agent peer server: the
// HTTP surface a RemoteRuntime or DockerRuntime dials into for bash
// execution, file access, and conversation lifecycle.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kaelorun/agentcore/internal/bashexec"
	"github.com/kaelorun/agentcore/internal/events"
	"github.com/kaelorun/agentcore/internal/llm"
	"github.com/kaelorun/agentcore/internal/observability"
	"github.com/kaelorun/agentcore/internal/runtime"
	"github.com/kaelorun/agentcore/internal/server"
	"github.com/kaelorun/agentcore/internal/toolkit"
	"github.com/kaelorun/agentcore/internal/toolkit/bashtool"
	"github.com/kaelorun/agentcore/internal/toolkit/fileeditor"
	"github.com/kaelorun/agentcore/internal/toolkit/fileops"
	"github.com/kaelorun/agentcore/internal/toolkit/patch"
	"github.com/kaelorun/agentcore/internal/toolkit/search"
	"github.com/kaelorun/agentcore/internal/toolkit/tasktracker"
	"github.com/kaelorun/agentcore/internal/workspace"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := observability.NewLogger(observability.LogConfig{
		Level:  envOr("AGENT_LOG_LEVEL", "info"),
		Format: "json",
		Output: os.Stderr,
	})

	if err := buildRootCmd(logger).Execute(); err != nil {
		logger.Error(context.Background(), "command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd(logger *observability.Logger) *cobra.Command {
	var (
		host string
		port int
	)

	root := &cobra.Command{
		Use:          "agent-server",
		Short:        "Run the agent peer server",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), logger, host, port)
		},
	}
	root.Flags().StringVar(&host, "host", "0.0.0.0", "address to bind")
	root.Flags().IntVar(&port, "port", 3000, "port to listen on")
	return root
}

func runServe(ctx context.Context, logger *observability.Logger, host string, port int) error {
	workspaceRoot := workspace.New(envOr("WORKSPACE_ROOT", "."))
	eventsDir := envOr("BASH_EVENTS_DIR", filepath.Join(".", "bash_events"))

	store, err := events.NewStore(eventsDir)
	if err != nil {
		return fmt.Errorf("open bash event store: %w", err)
	}
	executor := bashexec.NewExecutor(store)
	files := fileops.New(workspaceRoot)
	metrics := observability.NewMetrics()

	registry, tools := buildToolset(workspaceRoot, executor)

	var llmClient llm.Client
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		llmClient, err = llm.NewAnthropicClient(llm.AnthropicConfig{APIKey: apiKey, Metrics: metrics})
		if err != nil {
			return fmt.Errorf("build llm client: %w", err)
		}
	} else {
		logger.Warn(ctx, "ANTHROPIC_API_KEY not set; conversation endpoints are disabled")
	}

	srv := server.New(server.Config{
		Host:          host,
		Port:          port,
		Store:         store,
		Executor:      executor,
		Files:         files,
		LLMClient:     llmClient,
		SystemMessage: "Assist the user with their coding task using the available tools.",
		ConversationRuntime: func() runtime.Runtime {
			return runtime.NewLocalRuntime(registry, tools).WithMetrics(metrics)
		},
		Logger:  logger,
		Metrics: metrics,
	})

	if err := srv.Start(ctx); err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func buildToolset(root workspace.Root, executor *bashexec.Executor) (*toolkit.Registry, []toolkit.Tool) {
	registry := toolkit.NewRegistry()
	all := []toolkit.Tool{
		bashtool.NewTool(executor),
		fileops.NewReadTool(root),
		fileops.NewWriteTool(root),
		fileops.NewListTool(root),
		fileops.NewDeleteTool(root),
		search.NewGlobTool(root),
		search.NewGrepTool(root),
		fileeditor.NewTool(root),
		tasktracker.NewTool(root),
		patch.NewTool(root),
	}
	for _, t := range all {
		_ = registry.Register(t)
	}
	return registry, all
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
