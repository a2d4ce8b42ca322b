// Package gate decides whether a pull request is blocked by overdue
// secret-scanning findings.
package gate

import (
	"fmt"
	"time"

	"github.com/juparave/secretgate/internal/domain"
	"github.com/juparave/secretgate/internal/logger"
	"github.com/juparave/secretgate/internal/policy"
)

// Evaluator applies a remediation policy to findings
type Evaluator struct {
	logger logger.Logger
}

// NewEvaluator creates a new Evaluator
func NewEvaluator(log logger.Logger) *Evaluator {
	if log == nil {
		log = logger.Nop()
	}
	return &Evaluator{logger: log}
}

// Evaluate checks every finding against the policy as of now. A finding is
// offending when its age in whole days is strictly greater than the allowed
// age for its severity. Findings whose severity has no policy entry are never
// offending; their severities are reported in UnknownSeverities.
func (e *Evaluator) Evaluate(findings []domain.Finding, p *policy.Policy, now time.Time) (domain.Verdict, error) {
	if p == nil {
		p = policy.New(nil)
	}

	verdict := domain.Verdict{Evaluated: len(findings)}
	unknown := map[domain.Severity]bool{}

	for _, f := range findings {
		allowed, ok, err := p.AllowedDays(string(f.Severity))
		if err != nil {
			return domain.Verdict{}, fmt.Errorf("evaluating finding %s: %w", f.ID, err)
		}

		if !ok {
			if !unknown[f.Severity] {
				unknown[f.Severity] = true
				verdict.UnknownSeverities = append(verdict.UnknownSeverities, f.Severity)
				e.logger.Warnw("missing configuration for severity level",
					"severity", string(f.Severity),
					"finding", f.ID,
				)
			}
			continue
		}

		age := f.AgeDays(now)
		if float64(age) > allowed {
			e.logger.Debugw("finding exceeds allowed age",
				"finding", f.ID,
				"severity", string(f.Severity),
				"age_days", age,
				"allowed_days", allowed,
			)
			verdict.Offending = append(verdict.Offending, f)
		}
	}

	verdict.Blocked = len(verdict.Offending) > 0
	return verdict, nil
}
