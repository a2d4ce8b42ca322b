package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogithub "github.com/google/go-github/v66/github"
	"github.com/juparave/secretgate/internal/config"
	"github.com/juparave/secretgate/internal/domain"
	"github.com/juparave/secretgate/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC)

const defaultPolicy = `
secret-scanning:
    low: 30
    medium: 14
    high: 7
    critical: 3
`

type fakeGitHub struct {
	raws       []domain.RawFinding
	policy     string
	findingErr error
	policyErr  error
	publishErr error

	calls     []string
	published []domain.Verdict
	prNumber  int
}

func (f *fakeGitHub) ListFindings(_ context.Context, repo string) ([]domain.RawFinding, error) {
	f.calls = append(f.calls, "findings:"+repo)
	return f.raws, f.findingErr
}

func (f *fakeGitHub) FetchPolicy(_ context.Context, repo, path string) ([]byte, error) {
	f.calls = append(f.calls, "policy:"+repo+"/"+path)
	return []byte(f.policy), f.policyErr
}

func (f *fakeGitHub) SendReport(_ context.Context, repo string, prNumber int, v domain.Verdict) (string, error) {
	f.calls = append(f.calls, "publish:"+repo)
	f.prNumber = prNumber
	f.published = append(f.published, v)
	return "", f.publishErr
}

func testConfig() *config.Config {
	return &config.Config{
		Repository: "test/repo",
		Token:      "test_token",
		ConfigRepo: "test/config_repo",
		ConfigPath: "config.yaml",
		PRNumber:   "1",
	}
}

func testRunner(cfg *config.Config, gh *fakeGitHub) *Runner {
	r := newRunner(cfg, nil, gh, gh, gh)
	r.now = func() time.Time { return now }
	return r
}

func TestRunBlocked(t *testing.T) {
	gh := &fakeGitHub{
		raws: []domain.RawFinding{
			{ID: "1", SecretLabel: "secret1", Severity: "high", CreatedAt: "2022-01-01T00:00:00Z"},
			{ID: "2", SecretLabel: "secret2", Severity: "medium", CreatedAt: "2022-01-30T00:00:00Z"},
			{ID: "3", SecretLabel: "secret3", Severity: "critical", CreatedAt: "2022-01-02T00:00:00Z"},
		},
		policy: defaultPolicy,
	}

	outcome, err := testRunner(testConfig(), gh).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Blocked)
	assert.Equal(t, []string{"findings:test/repo", "policy:test/config_repo/config.yaml", "publish:test/repo"}, gh.calls)
	assert.Equal(t, 1, gh.prNumber)

	require.Len(t, gh.published, 1)
	offending := gh.published[0].Offending
	require.Len(t, offending, 2)
	assert.Equal(t, "1", offending[0].ID)
	assert.Equal(t, "3", offending[1].ID)
}

func TestRunNotBlocked(t *testing.T) {
	gh := &fakeGitHub{
		raws: []domain.RawFinding{
			{ID: "1", Severity: "high", CreatedAt: "2022-01-25T00:00:00Z"},
			{ID: "2", Severity: "informational", CreatedAt: "2020-01-01T00:00:00Z"},
		},
		policy: defaultPolicy,
	}

	outcome, err := testRunner(testConfig(), gh).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, outcome.Blocked)
	assert.Equal(t, []domain.Severity{"informational"}, outcome.Verdict.UnknownSeverities)
	assert.Empty(t, gh.published)
}

func TestRunNoFindings(t *testing.T) {
	gh := &fakeGitHub{raws: []domain.RawFinding{}, policy: defaultPolicy}

	outcome, err := testRunner(testConfig(), gh).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, outcome.Blocked)
	assert.Equal(t, 0, outcome.Verdict.Evaluated)
}

func TestRunInvalidPRNumberFailsBeforeFetching(t *testing.T) {
	for _, pr := range []string{"", "abc", "-4"} {
		t.Run(fmt.Sprintf("pr %q", pr), func(t *testing.T) {
			cfg := testConfig()
			cfg.PRNumber = pr
			gh := &fakeGitHub{policy: defaultPolicy}

			_, err := testRunner(cfg, gh).Run(context.Background())

			var stepErr *StepError
			require.True(t, errors.As(err, &stepErr))
			assert.Equal(t, StepConfig, stepErr.Step)
			assert.Empty(t, gh.calls)
		})
	}
}

func TestRunStepErrors(t *testing.T) {
	apiErr := &gogithub.ErrorResponse{
		Response: &http.Response{
			StatusCode: http.StatusInternalServerError,
			Request:    &http.Request{Method: http.MethodGet, URL: &url.URL{Scheme: "https", Host: "api.github.com", Path: "/x"}},
		},
		Message: "Server Error",
	}

	tests := []struct {
		name     string
		gh       *fakeGitHub
		wantStep string
		wantAs   interface{}
	}{
		{
			name:     "fetch findings",
			gh:       &fakeGitHub{findingErr: apiErr},
			wantStep: StepFetchFindings,
			wantAs:   new(*gogithub.ErrorResponse),
		},
		{
			name: "bad timestamp",
			gh: &fakeGitHub{
				raws:   []domain.RawFinding{{ID: "1", Severity: "high", CreatedAt: "01/01/2022"}},
				policy: defaultPolicy,
			},
			wantStep: StepParseFindings,
			wantAs:   new(*domain.TimestampError),
		},
		{
			name:     "fetch policy",
			gh:       &fakeGitHub{policyErr: apiErr},
			wantStep: StepFetchPolicy,
			wantAs:   new(*gogithub.ErrorResponse),
		},
		{
			name:     "malformed policy",
			gh:       &fakeGitHub{policy: "secret-scanning: [high"},
			wantStep: StepParsePolicy,
			wantAs:   new(*policy.ParseError),
		},
		{
			name: "negative threshold",
			gh: &fakeGitHub{
				raws:   []domain.RawFinding{{ID: "1", Severity: "high", CreatedAt: "2022-01-01T00:00:00Z"}},
				policy: "secret-scanning:\n  high: -7\n",
			},
			wantStep: StepEvaluate,
			wantAs:   new(*policy.ThresholdError),
		},
		{
			name: "publish",
			gh: &fakeGitHub{
				raws:       []domain.RawFinding{{ID: "1", Severity: "high", CreatedAt: "2022-01-01T00:00:00Z"}},
				policy:     defaultPolicy,
				publishErr: apiErr,
			},
			wantStep: StepPublish,
			wantAs:   new(*gogithub.ErrorResponse),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := testRunner(testConfig(), tt.gh).Run(context.Background())
			require.Error(t, err)
			assert.Nil(t, outcome)

			var stepErr *StepError
			require.True(t, errors.As(err, &stepErr))
			assert.Equal(t, tt.wantStep, stepErr.Step)
			assert.True(t, errors.As(err, tt.wantAs))
		})
	}
}

func TestRunWritesMetrics(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsFile = filepath.Join(t.TempDir(), "secretgate.prom")
	gh := &fakeGitHub{
		raws:   []domain.RawFinding{{ID: "1", Severity: "high", CreatedAt: "2022-01-01T00:00:00Z"}},
		policy: defaultPolicy,
	}

	_, err := testRunner(cfg, gh).Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "secretgate_blocked 1")
}

func TestNewRunnerInvalidAPIURL(t *testing.T) {
	cfg := testConfig()
	cfg.APIURL = "://not-a-url"

	_, err := NewRunner(cfg, nil)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepConfig, stepErr.Step)
}
