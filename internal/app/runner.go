package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/juparave/secretgate/internal/config"
	"github.com/juparave/secretgate/internal/domain"
	"github.com/juparave/secretgate/internal/gate"
	"github.com/juparave/secretgate/internal/github"
	"github.com/juparave/secretgate/internal/logger"
	"github.com/juparave/secretgate/internal/metrics"
	"github.com/juparave/secretgate/internal/notify"
	"github.com/juparave/secretgate/internal/policy"
	"github.com/juparave/secretgate/internal/report"
)

// ErrBlocked is returned at the process boundary when the gate blocks the pull request
var ErrBlocked = errors.New("PR blocked due to secret scanning alerts exceeding allowed limit.")

// Run steps, used to tag errors
const (
	StepConfig        = "config"
	StepFetchFindings = "fetch-findings"
	StepParseFindings = "parse-findings"
	StepFetchPolicy   = "fetch-policy"
	StepParsePolicy   = "parse-policy"
	StepEvaluate      = "evaluate"
	StepPublish       = "publish"
)

// StepError records which step of the run failed
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FindingsSource lists the open alerts of a repository
type FindingsSource interface {
	ListFindings(ctx context.Context, repo string) ([]domain.RawFinding, error)
}

// PolicySource returns the raw policy document
type PolicySource interface {
	FetchPolicy(ctx context.Context, repo, path string) ([]byte, error)
}

// Publisher posts the report of a blocked verdict
type Publisher interface {
	SendReport(ctx context.Context, repo string, prNumber int, verdict domain.Verdict) (string, error)
}

// Outcome is the result of a completed run
type Outcome struct {
	Verdict    domain.Verdict
	Blocked    bool
	ReportPath string
}

// Runner orchestrates the full gate flow
type Runner struct {
	config    *config.Config
	logger    logger.Logger
	findings  FindingsSource
	policies  PolicySource
	publisher Publisher
	evaluator *gate.Evaluator
	metrics   *metrics.Recorder
	now       func() time.Time
}

// NewRunner creates a new Runner talking to the GitHub API
func NewRunner(cfg *config.Config, log logger.Logger) (*Runner, error) {
	client, err := github.NewClient(cfg.APIURL, cfg.Token, nil, log)
	if err != nil {
		return nil, &StepError{Step: StepConfig, Err: err}
	}
	publisher := notify.NewService(client, report.NewFormatter(cfg.Reports.OutputDir), log)
	return newRunner(cfg, log, client, client, publisher), nil
}

func newRunner(cfg *config.Config, log logger.Logger, findings FindingsSource, policies PolicySource, publisher Publisher) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		config:    cfg,
		logger:    log,
		findings:  findings,
		policies:  policies,
		publisher: publisher,
		evaluator: gate.NewEvaluator(log),
		metrics:   metrics.NewRecorder(),
		now:       time.Now,
	}
}

// Run executes the gate. A blocked pull request is reported through
// Outcome.Blocked, not as an error; errors are always fatal.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	startTime := time.Now()

	if err := r.config.Validate(); err != nil {
		return nil, &StepError{Step: StepConfig, Err: err}
	}
	prNumber, _ := r.config.PullRequest()

	r.logger.Infow("starting secret scanning gate",
		"repo", r.config.Repository,
		"pr", prNumber,
		"config_repo", r.config.ConfigRepo,
		"config_path", r.config.ConfigPath,
	)

	// Step 1: Fetch open alerts
	raws, err := r.findings.ListFindings(ctx, r.config.Repository)
	if err != nil {
		return nil, &StepError{Step: StepFetchFindings, Err: err}
	}
	findings, err := domain.ParseFindings(raws)
	if err != nil {
		return nil, &StepError{Step: StepParseFindings, Err: err}
	}
	r.logger.Infow("fetched findings", "count", len(findings))

	// Step 2: Fetch the remediation policy
	doc, err := r.policies.FetchPolicy(ctx, r.config.ConfigRepo, r.config.ConfigPath)
	if err != nil {
		return nil, &StepError{Step: StepFetchPolicy, Err: err}
	}
	p, err := policy.Parse(doc)
	if err != nil {
		return nil, &StepError{Step: StepParsePolicy, Err: err}
	}
	if p.Empty() {
		r.logger.Warnw("policy has no thresholds", "namespace", policy.Namespace)
	}

	// Step 3: Evaluate
	verdict, err := r.evaluator.Evaluate(findings, p, r.now())
	if err != nil {
		return nil, &StepError{Step: StepEvaluate, Err: err}
	}
	r.recordMetrics(verdict)

	outcome := &Outcome{Verdict: verdict, Blocked: verdict.Blocked}
	if !verdict.Blocked {
		r.logger.Infow("no findings exceed their allowed age",
			"evaluated", verdict.Evaluated,
			"elapsed", time.Since(startTime).Round(time.Millisecond).String(),
		)
		return outcome, nil
	}

	// Step 4: Publish the report before signalling the block
	r.logger.Infow("findings exceed their allowed age", "offending", verdict.OffendingCount())
	path, err := r.publisher.SendReport(ctx, r.config.Repository, prNumber, verdict)
	if err != nil {
		return nil, &StepError{Step: StepPublish, Err: err}
	}
	outcome.ReportPath = path

	r.logger.Infow("gate complete",
		"blocked", true,
		"elapsed", time.Since(startTime).Round(time.Millisecond).String(),
	)
	return outcome, nil
}

func (r *Runner) recordMetrics(verdict domain.Verdict) {
	r.metrics.Observe(verdict)
	if err := r.metrics.WriteTextfile(r.config.MetricsFile); err != nil {
		r.logger.Warnw("failed to write metrics", "path", r.config.MetricsFile, "error", err)
	}
}
