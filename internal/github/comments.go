package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v66/github"
)

// PostComment creates a new comment on a pull request
func (c *Client) PostComment(ctx context.Context, repo string, prNumber int, body string) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return err
	}

	comment := &gh.IssueComment{Body: gh.String(body)}
	if _, _, err := c.client.Issues.CreateComment(ctx, owner, name, prNumber, comment); err != nil {
		return fmt.Errorf("posting comment on %s#%d: %w", repo, prNumber, err)
	}

	c.logger.Debugw("posted comment", "repo", repo, "pr", prNumber)
	return nil
}
