package validators

import (
	"fmt"
	"regexp"
	"strings"

	"prepcoach/domain/config"
	"prepcoach/domain/core/valueobjects"
	"prepcoach/pkg/errors"
)

var supportedProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"google":    true,
}

// InputValidator checks domain rules on raw caller input before it reaches an aggregate
type InputValidator struct {
	cfg         *config.DomainConfig
	entityIDPat *regexp.Regexp
}

// NewInputValidator creates a validator with the given rules
func NewInputValidator(cfg *config.DomainConfig) *InputValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &InputValidator{
		cfg:         cfg,
		entityIDPat: regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-:.]{0,127}$`),
	}
}

// ValidateVisibilityUpdate checks the target and optional parent of a visibility write
func (v *InputValidator) ValidateVisibilityUpdate(entityType valueobjects.EntityType, entityID string, parentType valueobjects.EntityType, parentID string) error {
	ve := errors.NewValidationErrors()

	if !entityType.IsValid() {
		ve.Add("entity_type", fmt.Sprintf("entity type %q is not supported", entityType))
	}
	if !v.entityIDPat.MatchString(entityID) {
		ve.Add("entity_id", "entity id is invalid")
	}

	if (parentType == "") != (parentID == "") {
		ve.Add("parent", "parent type and parent id must be given together")
	} else if parentType != "" {
		if !parentType.IsValid() {
			ve.Add("parent_type", fmt.Sprintf("entity type %q is not supported", parentType))
		}
		if parentType == entityType && parentID == entityID {
			ve.Add("parent_id", "an entity cannot be its own parent")
		}
	}

	return ve.AsError()
}

// ValidateBatchSize rejects visibility batches above the configured limit
func (v *InputValidator) ValidateBatchSize(n int) error {
	if n > v.cfg.MaxVisibilityBatchSize {
		return errors.NewValidationError(
			fmt.Sprintf("batch of %d exceeds the maximum of %d updates", n, v.cfg.MaxVisibilityBatchSize))
	}
	return nil
}

// ValidateBYOK checks a provider name and the shape of its key
func (v *InputValidator) ValidateBYOK(provider, apiKey string) error {
	ve := errors.NewValidationErrors()

	if !supportedProviders[strings.ToLower(provider)] {
		ve.Add("provider", fmt.Sprintf("provider %q is not supported", provider))
	}
	key := strings.TrimSpace(apiKey)
	if len(key) < 20 {
		ve.Add("api_key", "api key is too short")
	}
	if strings.ContainsAny(key, " \t\n") {
		ve.Add("api_key", "api key must not contain whitespace")
	}

	return ve.AsError()
}

// ValidateInterviewDetails checks lengths of user-provided job details
func (v *InputValidator) ValidateInterviewDetails(jobTitle, jobDescription string) error {
	ve := errors.NewValidationErrors()

	if strings.TrimSpace(jobTitle) == "" {
		ve.Add("job_title", "job title is required")
	} else if len(jobTitle) > v.cfg.MaxTitleLength {
		ve.Add("job_title", fmt.Sprintf("job title exceeds %d characters", v.cfg.MaxTitleLength))
	}
	if len(jobDescription) > v.cfg.MaxJobDescriptionLength {
		ve.Add("job_description", fmt.Sprintf("job description exceeds %d characters", v.cfg.MaxJobDescriptionLength))
	}

	return ve.AsError()
}
