// Command agent drives the parser-generation loop: it asks a generative
// backend for a bank-statement parser, validates the candidate against the
// target's ground truth, and retries with feedback until the contract passes
// or the attempt budget runs out.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/shark4real/ai-agent-challenge/internal/agent"
	"github.com/shark4real/ai-agent-challenge/internal/config"
	"github.com/shark4real/ai-agent-challenge/internal/contract"
	"github.com/shark4real/ai-agent-challenge/internal/generator"
	"github.com/shark4real/ai-agent-challenge/internal/store"
	"github.com/shark4real/ai-agent-challenge/internal/target"
	"github.com/shark4real/ai-agent-challenge/internal/validate"
)

var (
	configPath string
	verbose    bool

	targetName string
	allTargets bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "agent",
	Short: "Bank-statement parser generation agent",
	Long: `agent generates bank-specific statement parsers with an LLM backend,
validates each candidate against a ground-truth table, and iterates with
failure feedback until the parser contract passes or the attempt budget is
exhausted.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environments set variables directly.
		_ = godotenv.Load()

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate and validate a parser for one target (or --all)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if targetName == "" && !allTargets {
			return fmt.Errorf("either --target or --all is required")
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		loop, err := buildLoop(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		if !allTargets {
			return runTarget(cmd.Context(), loop, cfg, targetName)
		}

		names, err := target.List(cfg.DataDir)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return fmt.Errorf("no targets found under %s", cfg.DataDir)
		}

		// Targets are independent: disjoint candidate paths, isolated
		// interpreter per validation.
		g, gctx := errgroup.WithContext(cmd.Context())
		for _, name := range names {
			name := name
			g.Go(func() error { return runTarget(gctx, loop, cfg, name) })
		}
		return g.Wait()
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Re-run the contract against the persisted candidate for a target",
	RunE: func(cmd *cobra.Command, args []string) error {
		if targetName == "" {
			return fmt.Errorf("--target is required")
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		tgt, err := target.Resolve(cfg.DataDir, targetName)
		if err != nil {
			return err
		}

		st := store.New(cfg.ParsersDir, logger)
		handle, err := st.Lookup(tgt.Name)
		if err != nil {
			return err
		}

		validator := validate.NewValidator(cfg.ValidateTimeoutDuration(), logger)
		verdict, err := validator.Validate(cmd.Context(), handle, tgt)
		if err != nil {
			return err
		}

		if !verdict.Pass {
			fmt.Printf("FAIL %s [%s]\n%s\n", tgt.Name, verdict.Category(), verdict.Diagnostic())
			return fmt.Errorf("candidate for target %q does not satisfy the contract", tgt.Name)
		}
		fmt.Printf("PASS %s (%s)\n", tgt.Name, handle.Path)
		return nil
	},
}

// buildLoop wires the backend client, store, and validator into a loop.
func buildLoop(ctx context.Context, cfg *config.Config) (*agent.Loop, error) {
	pc, err := cfg.ProviderConfig()
	if err != nil {
		return nil, err
	}
	client, err := generator.NewClientFromConfig(ctx, pc)
	if err != nil {
		return nil, err
	}
	logger.Info("backend selected", zap.String("provider", client.Name()))

	gen := generator.New(client, cfg.GenerateTimeoutDuration(), logger)
	st := store.New(cfg.ParsersDir, logger)
	validator := validate.NewValidator(cfg.ValidateTimeoutDuration(), logger)
	return agent.New(gen, st, validator, cfg.MaxAttempts, logger), nil
}

func runTarget(ctx context.Context, loop *agent.Loop, cfg *config.Config, name string) error {
	tgt, err := target.Resolve(cfg.DataDir, name)
	if err != nil {
		return err
	}

	result, err := loop.Run(ctx, tgt)
	if err != nil {
		return err
	}

	if !result.Success {
		fmt.Printf("FAILED %s after %d attempt(s): [%s] %s\n",
			tgt.Name, result.Attempts, result.FinalCategory, result.FinalDiagnostic)
		return fmt.Errorf("target %q failed after %d attempts (final category: %s)",
			tgt.Name, result.Attempts, result.FinalCategory)
	}

	fmt.Printf("OK %s in %d attempt(s); parser at %s\n", tgt.Name, result.Attempts, result.Candidate.Path)
	printPreview(ctx, cfg, tgt, result.Candidate)
	return nil
}

// printPreview shows the first rows of the ground truth next to what the
// passing candidate actually produced.
func printPreview(ctx context.Context, cfg *config.Config, tgt *target.Target, handle store.CandidateHandle) {
	const previewRows = 5

	reference, err := contract.LoadReference(tgt.ReferencePath)
	if err != nil {
		return
	}

	source, err := handle.Source()
	if err != nil {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, cfg.ValidateTimeoutDuration())
	defer cancel()
	exec := validate.NewExecutor()
	fn, err := exec.Load(runCtx, source)
	if err != nil {
		return
	}
	rows, err := exec.Invoke(runCtx, fn, tgt.DocumentPath)
	if err != nil {
		return
	}

	fmt.Printf("\nExpected (top %d):\n", previewRows)
	for i, tx := range reference {
		if i == previewRows {
			break
		}
		fmt.Println("  " + strings.Join(tx.Row(), " | "))
	}
	fmt.Printf("Parsed (top %d):\n", previewRows)
	for i, row := range rows {
		if i == previewRows {
			break
		}
		fmt.Println("  " + strings.Join(row, " | "))
	}
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "agent.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	runCmd.Flags().StringVar(&targetName, "target", "", "bank name (e.g. icici)")
	runCmd.Flags().BoolVar(&allTargets, "all", false, "process every target under the data directory")
	validateCmd.Flags().StringVar(&targetName, "target", "", "bank name (e.g. icici)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
