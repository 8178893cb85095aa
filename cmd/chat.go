package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warden-ai/warden/internal/agent"
	"github.com/warden-ai/warden/internal/mcp"
	"github.com/warden-ai/warden/internal/tools"
	"github.com/warden-ai/warden/internal/trust"
	"github.com/warden-ai/warden/internal/tui"
)

// runChat starts the interactive chat (REPL) mode.
func runChat() error {
	cfg := initConfig()

	p, err := buildProvider(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if cfg.Model == "" {
		cfg.Model = p.DefaultModel()
	}

	registry := tools.DefaultRegistry()
	executor := tools.NewExecutor(registry, trust.NewGate(seedTrustStore(cfg)), cfg.Trusted())

	mcpMgr := connectMCP(registry)
	if mcpMgr != nil {
		defer mcpMgr.Close()
	}

	ui := tui.NewPlainIO()
	executor.SetConfirmer(ui)

	a := agent.New(p, executor, cfg, ui)
	if mcpMgr != nil {
		a.SetMCPManager(mcpMgr)
	}

	if cfg.Trusted() {
		ui.SystemMessage("Trust gate disabled: every tool call runs without confirmation.")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return a.Run(ctx)
}

// connectMCP loads mcp.json, connects all configured servers, and registers
// their tools as gated bridged proxies. Returns nil when nothing is configured.
func connectMCP(registry *tools.Registry) *mcp.Manager {
	cwd, _ := os.Getwd()
	mcpCfg, err := mcp.LoadConfig(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[mcp] warning: %v\n", err)
		return nil
	}
	if mcpCfg == nil || len(mcpCfg.MCPServers) == 0 {
		return nil
	}

	mgr := mcp.NewManager(mcpCfg)
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	errs := mgr.ConnectAll(initCtx)
	initCancel()
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "[mcp] warning: %v\n", e)
	}
	if n := mcp.RegisterTools(mgr, registry); n > 0 {
		fmt.Fprintf(os.Stderr, "[mcp] registered %d tool(s)\n", n)
	}
	return mgr
}
