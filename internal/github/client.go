// Package github talks to the GitHub REST API: secret-scanning alerts,
// repository contents and issue comments.
package github

import (
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v66/github"
	"github.com/juparave/secretgate/internal/logger"
)

// DefaultBaseURL is the public GitHub API endpoint
const DefaultBaseURL = "https://api.github.com"

// Client wraps a go-github client authenticated with a single token
type Client struct {
	client *gh.Client
	logger logger.Logger
}

// NewClient creates a new Client. An empty or default baseURL targets
// github.com; anything else is treated as a GitHub Enterprise endpoint.
// A nil httpClient selects http.DefaultClient.
func NewClient(baseURL, token string, httpClient *http.Client, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.Nop()
	}

	client := gh.NewClient(httpClient).WithAuthToken(token)

	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL != "" && baseURL != DefaultBaseURL {
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
		}
	}

	return &Client{client: client, logger: log}, nil
}

// splitRepo splits an owner/name repository identifier
func splitRepo(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(strings.Trim(repo, "/"), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("repository must be owner/name, got %q", repo)
	}
	return owner, name, nil
}
