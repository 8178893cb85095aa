package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/warden-ai/warden/internal/agent"
	"github.com/warden-ai/warden/internal/tools"
	"github.com/warden-ai/warden/internal/trust"
	"github.com/warden-ai/warden/internal/tui"
)

func newRunCmd() *cobra.Command {
	var (
		prompt       string
		outputFormat string
		verbose      bool
		printLast    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a single prompt non-interactively",
		Example: `  warden run -P "read main.go and tell me what it does"
  warden run --trust-all -P "run the tests and summarize failures"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if prompt == "" {
				return fmt.Errorf("--prompt / -P is required")
			}
			return runOnce(prompt, outputFormat, verbose, printLast)
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "P", "", "the prompt to execute")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format: text or jsonl")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show tool calls on stderr")
	cmd.Flags().BoolVar(&printLast, "print-last", false, "only output the final LLM text")
	cmd.MarkFlagRequired("prompt")

	return cmd
}

// runOnce executes a single prompt and exits.
func runOnce(prompt, outputFormat string, verbose, printLast bool) error {
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

	// A real terminal gets interactive confirmation prompts; pipes and CI
	// cannot confirm, so gated tools come back cancelled unless --trust-all.
	interactive := term.IsTerminal(int(os.Stdin.Fd())) &&
		outputFormat == "text" && !printLast

	var ui tui.IO
	var pipe *tui.PipeIO
	if interactive {
		ui = tui.NewPlainIO()
	} else {
		pipe = tui.NewPipeIO(outputFormat, verbose, printLast)
		ui = pipe
	}
	executor.SetConfirmer(ui)

	a := agent.New(p, executor, cfg, ui)
	if mcpMgr != nil {
		a.SetMCPManager(mcpMgr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	err = a.RunOnce(ctx, prompt)
	if pipe != nil {
		pipe.Flush()
	}
	return err
}
