package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rggoldberg/Ai-News-recap/internal/app"
	"github.com/rggoldberg/Ai-News-recap/internal/config"
	"github.com/rggoldberg/Ai-News-recap/internal/logger"
	"github.com/rggoldberg/Ai-News-recap/internal/rss"
)

type flags struct {
	sources  string
	output   string
	lookback int
	noEmail  bool
	debug    bool
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:   "recap",
		Short: "Collect a week of AI news and turn it into an HTML email recap",
		Long: "recap polls the configured feeds, deduplicates and enriches the articles, asks the\n" +
			"configured model for an HTML digest, saves it under the output directory and emails\n" +
			"it when SMTP_USER, SMTP_PASSWORD and EMAIL_TO are set.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			log := logger.Init(cfg.Debug)

			reg, err := rss.LoadRegistry(cfg.SourcesPath)
			if err != nil {
				return err
			}

			pipeline, err := app.New(cfg, reg, app.Options{NoEmail: f.noEmail}, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("starting recap", "provider", cfg.LLMProvider, "feeds", len(reg.Feeds),
				"lookback_days", cfg.LookbackDays, "email", cfg.MailEnabled() && !f.noEmail)
			return pipeline.Run(ctx, time.Now())
		},
	}

	root.PersistentFlags().StringVar(&f.sources, "sources", "", "YAML source registry (overrides SOURCES_FILE)")
	root.Flags().StringVar(&f.output, "output", "", "output directory (overrides OUTPUT_DIR)")
	root.Flags().IntVar(&f.lookback, "lookback", 0, "lookback window in days (overrides LOOKBACK_DAYS)")
	root.Flags().BoolVar(&f.noEmail, "no-email", false, "only write the local file")
	root.Flags().BoolVar(&f.debug, "debug", false, "debug logging")

	root.AddCommand(newSourcesCmd(&f))
	return root
}

func newSourcesCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Print the effective source registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *f)
			if err != nil {
				return err
			}
			reg, err := rss.LoadRegistry(cfg.SourcesPath)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(reg)
		},
	}
}

// loadConfig reads the environment and applies the flags that were set.
func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("sources") {
		cfg.SourcesPath = f.sources
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputDir = f.output
	}
	if cmd.Flags().Changed("lookback") {
		cfg.LookbackDays = f.lookback
	}
	if f.debug {
		cfg.Debug = true
	}
	return cfg, cfg.Validate()
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
