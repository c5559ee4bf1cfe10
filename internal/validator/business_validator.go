package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/svsf-edu/enrollment-service/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("grade_level", func(fl validator.FieldLevel) bool {
		switch models.GradeLevel(fl.Field().String()) {
		case models.GradeElementary, models.GradeJuniorHigh, models.GradeSeniorHigh:
			return true
		}
		return false
	})

	bv.validate.RegisterValidation("strand", func(fl validator.FieldLevel) bool {
		switch models.Strand(fl.Field().String()) {
		case models.StrandSTEM, models.StrandABM, models.StrandHUMSS, models.StrandGAS, models.StrandTVL:
			return true
		}
		return false
	})

	bv.validate.RegisterValidation("application_status", func(fl validator.FieldLevel) bool {
		return models.ApplicationStatus(fl.Field().String()).IsValid()
	})
}

// Validate validates struct tags for any request type.
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateApplicationSubmit validates submission business rules: struct tags
// plus the grade/strand pairing a tag cannot express.
func (bv *BusinessValidator) ValidateApplicationSubmit(req *SubmitApplicationRequest) ValidationErrors {
	errors := bv.Validate(req)

	if req.GradeLevel.HasStrand() && req.Strand == nil {
		errors = append(errors, ValidationError{
			Field:   "strand",
			Message: "strand is required for senior high applications",
			Rule:    "business_logic",
		})
	}
	if !req.GradeLevel.HasStrand() && req.Strand != nil {
		errors = append(errors, ValidationError{
			Field:   "strand",
			Message: "strand only applies to senior high applications",
			Value:   *req.Strand,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateStatusUpdate validates a transition request.
func (bv *BusinessValidator) ValidateStatusUpdate(req *UpdateStatusRequest) ValidationErrors {
	return bv.Validate(req)
}
