// Package main provides the entry point for a one-shot local agent run:
// a single conversation driven from the command line against an
// in-process Runtime, without a peer server in front of it.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kaelorun/agentcore/internal/agentloop"
	"github.com/kaelorun/agentcore/internal/bashexec"
	"github.com/kaelorun/agentcore/internal/events"
	"github.com/kaelorun/agentcore/internal/llm"
	"github.com/kaelorun/agentcore/internal/runtime"
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
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var task string

	root := &cobra.Command{
		Use:          "agent",
		Short:        "Run a single agent conversation against the local workspace",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), task)
		},
	}
	root.Flags().StringVarP(&task, "task", "t", "", "task to give the agent; reads from stdin if omitted")
	return root
}

func run(ctx context.Context, task string) error {
	if strings.TrimSpace(task) == "" {
		read, err := readStdin()
		if err != nil {
			return fmt.Errorf("read task from stdin: %w", err)
		}
		task = read
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	client, err := llm.NewAnthropicClient(llm.AnthropicConfig{APIKey: apiKey})
	if err != nil {
		return fmt.Errorf("build llm client: %w", err)
	}

	workspaceRoot := workspace.New(envOr("WORKSPACE_ROOT", "."))
	eventsDir := envOr("BASH_EVENTS_DIR", "bash_events")
	store, err := events.NewStore(eventsDir)
	if err != nil {
		return fmt.Errorf("open bash event store: %w", err)
	}
	executor := bashexec.NewExecutor(store)

	rt := buildLocalRuntime(workspaceRoot, executor)

	agent := agentloop.NewAgent(client, "Assist the user with their coding task using the available tools.")
	conv := agentloop.NewConversation(agent, rt)
	conv.Append(agentloop.NewUserMessage(task))

	final, err := conv.Step(ctx)
	if err != nil {
		return fmt.Errorf("run conversation: %w", err)
	}

	fmt.Println(final.Content)
	return nil
}

func buildLocalRuntime(root workspace.Root, executor *bashexec.Executor) runtime.Runtime {
	registry := toolkit.NewRegistry()
	tools := []toolkit.Tool{
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
	for _, t := range tools {
		_ = registry.Register(t)
	}
	return runtime.NewLocalRuntime(registry, tools)
}

func readStdin() (string, error) {
	scanner := bufio.NewScanner(os.Stdin)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
