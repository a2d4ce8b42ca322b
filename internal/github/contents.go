package github

import (
	"context"
	"fmt"
	"strings"
)

// FetchPolicy returns the content of a file in a repository
func (c *Client) FetchPolicy(ctx context.Context, repo, path string) ([]byte, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	file, _, _, err := c.client.Repositories.GetContents(ctx, owner, name, strings.Trim(path, "/"), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching %s from %s: %w", path, repo, err)
	}
	if file == nil {
		return nil, fmt.Errorf("fetching %s from %s: path is a directory", path, repo)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decoding %s from %s: %w", path, repo, err)
	}

	c.logger.Debugw("fetched policy document", "repo", repo, "path", path, "bytes", len(content))
	return []byte(content), nil
}
