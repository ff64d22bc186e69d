package valueobjects

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"prepcoach/domain/config"
	pkgerrors "prepcoach/pkg/errors"
)

// NodeContent is the display text of a journey node
type NodeContent struct {
	title       string
	description string
}

// NewNodeContent creates content with validation using default configuration
func NewNodeContent(title, description string) (NodeContent, error) {
	return NewNodeContentWithConfig(title, description, config.DefaultDomainConfig())
}

// NewNodeContentWithConfig creates content with validation and configuration
func NewNodeContentWithConfig(title, description string, cfg *config.DomainConfig) (NodeContent, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if title == "" {
		return NodeContent{}, pkgerrors.NewValidationError("title cannot be empty")
	}

	if n := utf8.RuneCountInString(title); n > cfg.MaxTitleLength {
		return NodeContent{}, pkgerrors.NewValidationError(
			fmt.Sprintf("title exceeds maximum length of %d characters", cfg.MaxTitleLength))
	}

	if utf8.RuneCountInString(description) > cfg.MaxDescriptionLength {
		return NodeContent{}, pkgerrors.NewValidationError(
			fmt.Sprintf("description exceeds maximum length of %d characters", cfg.MaxDescriptionLength))
	}

	return NodeContent{title: title, description: description}, nil
}

// Title returns the content title
func (c NodeContent) Title() string {
	return c.title
}

// Description returns the content description
func (c NodeContent) Description() string {
	return c.description
}
