package dto

import (
	"github.com/go-playground/validator/v10"

	"github.com/opencivic/civicflow-api/internal/models"
)

// NewValidator returns a validator with the custom enum tags the request
// types use registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("assignment_type", func(fl validator.FieldLevel) bool {
		return models.AssignmentType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("recommendation", func(fl validator.FieldLevel) bool {
		return models.EvaluationRecommendation(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("progress_type", func(fl validator.FieldLevel) bool {
		return models.ProgressType(fl.Field().String()).Valid()
	})
	return v
}
