package validation

import (
	"strings"
	"testing"

	"studyloop-generation/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func joinTypes(types []models.ContentType) string {
	return strings.Join(models.ContentTypeStrings(types), ",")
}

func TestValidateTriggerRequest(t *testing.T) {
	validator := NewAPIValidator(nil)

	t.Run("valid request", func(t *testing.T) {
		req := &models.TriggerRequest{
			CourseID:     "c1",
			WeekID:       "w1",
			ContentTypes: []string{"summaries", "cuecards", "cuecards"},
		}

		validated, result := validator.ValidateTriggerRequest(req)
		require.True(t, result.Valid)
		assert.Equal(t, "c1", validated.CourseID)
		assert.Equal(t, "cuecards,summaries", joinTypes(validated.ContentTypes))
		assert.Nil(t, validated.Config)
	})

	t.Run("collects every error", func(t *testing.T) {
		req := &models.TriggerRequest{
			CourseID:     "",
			WeekID:       "w/1",
			ContentTypes: []string{"flashcards"},
		}

		validated, result := validator.ValidateTriggerRequest(req)
		assert.Nil(t, validated)
		assert.False(t, result.Valid)
		assert.Len(t, result.Errors, 3)
		assert.Equal(t, "courseId is required", result.FirstMessage())
	})

	t.Run("invalid feature config", func(t *testing.T) {
		req := &models.TriggerRequest{
			CourseID:     "c1",
			WeekID:       "w1",
			ContentTypes: []string{"cuecards"},
			Config: &models.SelectiveGenerationConfig{
				Version:          models.GenerationConfigVersion,
				SelectedFeatures: map[models.ContentType]bool{models.ContentCuecards: true},
				FeatureConfigs: map[models.ContentType]models.FeatureConfig{
					models.ContentCuecards: {Count: models.MaxFeatureCount + 1},
				},
			},
		}

		_, result := validator.ValidateTriggerRequest(req)
		assert.False(t, result.Valid)
		assert.True(t, hasCode(result, "INVALID_FEATURE_CONFIG"))
	})
}

func TestValidateListRunsParams(t *testing.T) {
	validator := NewAPIValidator(nil)

	params, result := validator.ValidateListRunsParams("c1", "w1", "EXECUTING", "10", "5")
	require.True(t, result.Valid)
	assert.Equal(t, models.RunExecuting, params.Status)
	assert.Equal(t, PaginationParams{Limit: 10, Offset: 5}, params.Pagination)

	params, result = validator.ValidateListRunsParams("c1", "w1", "", "", "")
	require.True(t, result.Valid)
	assert.Equal(t, 50, params.Pagination.Limit)

	_, result = validator.ValidateListRunsParams("c1", "w1", "RUNNING", "-1", "x")
	assert.False(t, result.Valid)
	assert.True(t, hasCode(result, "INVALID_STATUS"))
	assert.True(t, hasCode(result, "NEGATIVE_LIMIT"))
	assert.True(t, hasCode(result, "INVALID_OFFSET"))
}

func TestValidateWeekRequest(t *testing.T) {
	validator := NewAPIValidator(nil)

	assert.True(t, validator.ValidateWeekRequest(&models.CourseWeekRequest{WeekNumber: 3, Title: "Entropy"}).Valid)
	assert.False(t, validator.ValidateWeekRequest(&models.CourseWeekRequest{WeekNumber: -1}).Valid)
	assert.False(t, validator.ValidateWeekRequest(&models.CourseWeekRequest{Title: strings.Repeat("t", 501)}).Valid)
}
