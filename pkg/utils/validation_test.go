package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "prepcoach/pkg/errors"
)

type sampleRequest struct {
	Title string `validate:"required,max=10"`
	Kind  string `validate:"oneof=roadmap journey"`
}

func TestValidateStruct(t *testing.T) {
	err := ValidateStruct(sampleRequest{Title: "", Kind: "other"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	appErr := apperrors.GetAppError(err)
	assert.Contains(t, appErr.Details, "title")
	assert.Contains(t, appErr.Details, "kind")

	assert.NoError(t, ValidateStruct(sampleRequest{Title: "ok", Kind: "journey"}))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "********wxyz", MaskSecret("sk-abcdefwxyz"))
	assert.Equal(t, "***", MaskSecret("abc"))
}

func TestNextMonthStart(t *testing.T) {
	got := NextMonthStart(time.Date(2025, time.December, 15, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), got)
}
