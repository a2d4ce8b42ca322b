package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/juparave/secretgate/internal/app"
	"github.com/juparave/secretgate/internal/config"
	"github.com/juparave/secretgate/internal/logger"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	cfgFile string
	verbose bool

	overrides struct {
		repo        string
		token       string
		configRepo  string
		configPath  string
		prNumber    string
		apiURL      string
		reportDir   string
		metricsFile string
	}
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "secretgate",
		Short:         "Block pull requests with overdue secret scanning alerts",
		Long:          `secretgate compares the age of open secret scanning alerts against the remediation policy kept in a configuration repository and blocks the pull request when any alert is overdue.`,
		Version:       version,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Path to config file (default: ./"+config.DefaultConfigFile+")")
	flags.StringVar(&overrides.repo, "repo", "", "Repository to check, owner/name (env GITHUB_REPOSITORY)")
	flags.StringVar(&overrides.token, "token", "", "GitHub token (env GITHUB_TOKEN)")
	flags.StringVar(&overrides.configRepo, "config-repo", "", "Repository holding the policy document (env CONFIG_REPO)")
	flags.StringVar(&overrides.configPath, "config-path", "", "Path of the policy document (env CONFIG_PATH)")
	flags.StringVar(&overrides.prNumber, "pr", "", "Pull request number (env PR_NUMBER)")
	flags.StringVar(&overrides.apiURL, "api-url", "", "GitHub API URL (env GITHUB_API_URL)")
	flags.StringVar(&overrides.reportDir, "report-dir", "", "Directory to keep a copy of posted reports")
	flags.StringVar(&overrides.metricsFile, "metrics-file", "", "Write run metrics to this textfile")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with CLI flags
	override(&cfg.Repository, overrides.repo)
	override(&cfg.Token, overrides.token)
	override(&cfg.ConfigRepo, overrides.configRepo)
	override(&cfg.ConfigPath, overrides.configPath)
	override(&cfg.PRNumber, overrides.prNumber)
	override(&cfg.APIURL, overrides.apiURL)
	override(&cfg.Reports.OutputDir, overrides.reportDir)
	override(&cfg.MetricsFile, overrides.metricsFile)
	cfg.Verbose = verbose

	log := logger.New(cfg.Verbose)
	defer func() { _ = log.Sync() }()

	return execute(cmd.Context(), cfg, log)
}

// execute runs the gate and maps a blocked outcome to ErrBlocked
func execute(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	runner, err := app.NewRunner(cfg, log)
	if err != nil {
		return err
	}

	outcome, err := runner.Run(ctx)
	if err != nil {
		var stepErr *app.StepError
		if errors.As(err, &stepErr) {
			log.Errorw("gate failed", "step", stepErr.Step, "error", stepErr.Err)
		}
		return err
	}
	if outcome.Blocked {
		return app.ErrBlocked
	}
	return nil
}

func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
