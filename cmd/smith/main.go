package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"codesmith/cmd/smith/ui"
	"codesmith/internal/config"
	"codesmith/internal/exemplar"
	"codesmith/internal/llm"
	"codesmith/internal/logging"
	"codesmith/internal/pipeline"
	"codesmith/internal/sandbox"
	"codesmith/internal/store"
)

const defaultTask = "a Go function to get the nth Fibonacci number"

var (
	// Global flags
	verbose    bool
	configPath string
	task       string
	examples   string
	maxRepairs int
	timeout    time.Duration

	historyLimit int

	// Logger
	logger *zap.Logger

	cfg *config.Config
)

// rootCmd runs one generation end to end.
var rootCmd = &cobra.Command{
	Use:   "smith",
	Short: "codesmith - generate, test, and repair Go code with an LLM",
	Long: `codesmith turns a one-line task description into working Go code.

It synthesizes a code signature, an implementation, and three unit
tests, executes everything in an embedded interpreter sandbox, and
feeds failures back to the model for repair until the tests pass or
the repair budget runs out.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Flag overrides on top of file and environment.
		if cmd.Flags().Changed("max-repairs") {
			cfg.Pipeline.MaxRepairAttempts = maxRepairs
		}
		if examples != "" {
			cfg.Pipeline.ExamplesPath = examples
		}
		if verbose {
			cfg.Logging.Debug = true
			cfg.Logging.Level = "debug"
		}

		if err := logging.Initialize(".", logging.Options{
			Debug:      cfg.Logging.Debug,
			Level:      cfg.Logging.Level,
			Categories: cfg.Logging.Categories,
		}); err != nil {
			logger.Warn("category logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runGenerate,
}

// historyCmd lists recent runs from the store.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent generation runs",
	RunE:  runHistory,
}

// initCmd writes a default config file.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Writes the default configuration to the --config path so the
provider, model, repair budget, and sandbox limits can be edited.`,
	RunE: runInit,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "codesmith.yaml", "Config file path")

	rootCmd.Flags().StringVarP(&task, "task", "t", defaultTask, "Task to generate code for")
	rootCmd.Flags().StringVar(&examples, "examples", "", "Example bank YAML file (overrides config)")
	rootCmd.Flags().IntVar(&maxRepairs, "max-repairs", 3, "Maximum repair attempts before giving up")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Whole-run timeout")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runGenerate executes a single task through the generation loop.
func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Info("starting generation",
		zap.String("task", task),
		zap.String("provider", cfg.LLM.Provider),
		zap.Int("max_repairs", cfg.Pipeline.MaxRepairAttempts))

	client, err := llm.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("llm client: %w", err)
	}

	bank := exemplar.DefaultBank()
	if cfg.Pipeline.ExamplesPath != "" {
		if bank, err = exemplar.Load(cfg.Pipeline.ExamplesPath); err != nil {
			return fmt.Errorf("loading example bank: %w", err)
		}
		logger.Info("loaded example bank",
			zap.String("path", cfg.Pipeline.ExamplesPath),
			zap.Int("records", len(bank)))
	}

	runner := sandbox.New(cfg.Sandbox, cfg.GetSandboxTimeout())

	p, err := pipeline.New(bank, client, runner, cfg.Pipeline)
	if err != nil {
		return err
	}
	p.SetReporter(ui.NewConsoleReporter(cmd.OutOrStdout()))

	res, runErr := p.Run(ctx, task)
	if res != nil && cfg.Store.Enabled {
		saveRun(res, runErr)
	}

	if runErr != nil {
		fmt.Fprintln(cmd.OutOrStdout(), ui.Failure(runErr))
		return runErr
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.Summary(res))
	return nil
}

// saveRun records a terminal run, successful or not. Store trouble is
// logged, never fatal: history must not take down a finished run.
func saveRun(res *pipeline.Result, runErr error) {
	s, err := store.NewRunStore(cfg.Store.Path)
	if err != nil {
		logger.Warn("run store unavailable", zap.Error(err))
		return
	}
	defer s.Close()

	rec := &store.RunRecord{
		Task:       res.Task,
		Signature:  res.Signature,
		Code:       res.Code,
		Status:     store.StatusDone,
		Repairs:    res.Repairs,
		DurationMs: res.Duration.Milliseconds(),
	}
	for _, tc := range res.Tests {
		switch tc.Name {
		case "test_1":
			rec.Test1 = tc.Source
		case "test_2":
			rec.Test2 = tc.Source
		case "edge_case_test_1":
			rec.EdgeTest = tc.Source
		}
	}
	if runErr != nil {
		rec.Error = runErr.Error()
		var exhausted *pipeline.RepairExhaustedError
		if errors.As(runErr, &exhausted) {
			rec.Status = store.StatusRepairExhausted
		} else {
			rec.Status = store.StatusError
		}
	}

	if err := s.SaveRun(rec); err != nil {
		logger.Warn("failed to save run", zap.Error(err))
	}
}

// runHistory lists recent runs and aggregate stats.
func runHistory(cmd *cobra.Command, args []string) error {
	if !cfg.Store.Enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "run history is disabled in the config")
		return nil
	}

	s, err := store.NewRunStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening run store: %w", err)
	}
	defer s.Close()

	records, err := s.GetRecent(historyLimit)
	if err != nil {
		return fmt.Errorf("reading run history: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.History(records))

	stats, err := s.GetStats()
	if err != nil {
		return fmt.Errorf("reading run stats: %w", err)
	}
	if line := ui.StatsLine(stats); line != "" {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

// runInit writes the default config for editing.
func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s already exists; delete it first to regenerate\n", configPath)
		return nil
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
	return nil
}
