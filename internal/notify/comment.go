package notify

import (
	"context"
	"fmt"

	"github.com/juparave/secretgate/internal/domain"
	"github.com/juparave/secretgate/internal/logger"
	"github.com/juparave/secretgate/internal/report"
)

// CommentPoster publishes a comment on a pull request
type CommentPoster interface {
	PostComment(ctx context.Context, repo string, prNumber int, body string) error
}

// Service publishes blocked verdicts as pull request comments
type Service struct {
	poster    CommentPoster
	logger    logger.Logger
	formatter *report.Formatter
}

// NewService creates a new notification Service
func NewService(poster CommentPoster, formatter *report.Formatter, log logger.Logger) *Service {
	if formatter == nil {
		formatter = report.NewFormatter("")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		poster:    poster,
		logger:    log,
		formatter: formatter,
	}
}

// SendReport renders the offending findings and posts them as a new comment.
// It returns the path of the saved copy, if any.
func (s *Service) SendReport(ctx context.Context, repo string, prNumber int, verdict domain.Verdict) (string, error) {
	body := s.formatter.Format(verdict.Offending)

	path, err := s.formatter.Write(body)
	if err != nil {
		// Saving a copy is best effort.
		s.logger.Warnw("failed to save report copy", "error", err)
	}

	if err := s.poster.PostComment(ctx, repo, prNumber, body); err != nil {
		return path, fmt.Errorf("publishing report: %w", err)
	}

	s.logger.Infow("published report",
		"repo", repo,
		"pr", prNumber,
		"offending", verdict.OffendingCount(),
	)
	return path, nil
}
