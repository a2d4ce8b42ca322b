package github

import (
	"context"
	"fmt"
	"strconv"

	"github.com/juparave/secretgate/internal/domain"
)

const (
	alertsPerPage = 100
	maxAlertPages = 100
)

// Alert is a secret-scanning alert as returned by the API. It is decoded
// directly so that the severity field is kept.
type Alert struct {
	Number                int    `json:"number"`
	State                 string `json:"state"`
	Severity              string `json:"severity"`
	SecretType            string `json:"secret_type"`
	SecretTypeDisplayName string `json:"secret_type_display_name"`
	Secret                string `json:"secret"`
	CreatedAt             string `json:"created_at"`
	HTMLURL               string `json:"html_url"`
}

// Label returns the text used to identify the alert in reports
func (a *Alert) Label() string {
	switch {
	case a.SecretTypeDisplayName != "":
		return a.SecretTypeDisplayName
	case a.SecretType != "":
		return a.SecretType
	default:
		return a.Secret
	}
}

// ListSecretScanningAlerts returns all open secret-scanning alerts of a
// repository, following pagination
func (c *Client) ListSecretScanningAlerts(ctx context.Context, repo string) ([]Alert, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	alerts := []Alert{}
	seen := map[int]bool{}
	for page := 1; page != 0; {
		if seen[page] || len(seen) == maxAlertPages {
			return nil, fmt.Errorf("listing secret scanning alerts: pagination did not finish after %d pages", len(seen))
		}
		seen[page] = true

		u := fmt.Sprintf("repos/%s/%s/secret-scanning/alerts?state=open&per_page=%d&page=%d", owner, name, alertsPerPage, page)
		req, err := c.client.NewRequest("GET", u, nil)
		if err != nil {
			return nil, fmt.Errorf("building alerts request: %w", err)
		}

		var batch []Alert
		resp, err := c.client.Do(ctx, req, &batch)
		if err != nil {
			return nil, fmt.Errorf("listing secret scanning alerts: %w", err)
		}
		alerts = append(alerts, batch...)
		page = resp.NextPage
	}

	c.logger.Debugw("fetched secret scanning alerts", "repo", repo, "count", len(alerts), "pages", len(seen))
	return alerts, nil
}

// ListFindings returns the open alerts of a repository as raw findings
func (c *Client) ListFindings(ctx context.Context, repo string) ([]domain.RawFinding, error) {
	alerts, err := c.ListSecretScanningAlerts(ctx, repo)
	if err != nil {
		return nil, err
	}

	raws := make([]domain.RawFinding, 0, len(alerts))
	for _, a := range alerts {
		raws = append(raws, domain.RawFinding{
			ID:          strconv.Itoa(a.Number),
			Severity:    a.Severity,
			CreatedAt:   a.CreatedAt,
			SecretLabel: a.Label(),
		})
	}
	return raws, nil
}
