package validator

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/coursehub/lms-service/internal/models"
)

// BusinessValidator handles request and business rule validation.
type BusinessValidator struct {
	validate *validator.Validate
}

func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates struct tags for any request.
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateGrade checks a grade against the assignment's point ceiling.
// Struct tags can't express this because the bound is per assignment.
func (bv *BusinessValidator) ValidateGrade(grade float64, maxPoints int) ValidationErrors {
	var errors ValidationErrors

	if grade < 0 {
		errors = append(errors, ValidationError{
			Field:   "grade",
			Message: "cannot be negative",
			Value:   grade,
			Rule:    "business_logic",
		})
	}

	if grade > float64(maxPoints) {
		errors = append(errors, ValidationError{
			Field:   "grade",
			Message: "cannot exceed the assignment's maximum points",
			Value:   grade,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateSubmissionContent requires at least one of text or file.
func (bv *BusinessValidator) ValidateSubmissionContent(text *string, hasFile bool) ValidationErrors {
	hasText := text != nil && strings.TrimSpace(*text) != ""
	if hasText || hasFile {
		return nil
	}

	return ValidationErrors{{
		Field:   "submission",
		Message: "requires text content or a file",
		Rule:    "business_logic",
	}}
}

func (bv *BusinessValidator) registerBusinessRules() {
	// Title validation (1-200 characters after trimming)
	bv.validate.RegisterValidation("course_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// Max points validation (1-1000)
	bv.validate.RegisterValidation("max_points", func(fl validator.FieldLevel) bool {
		points := fl.Field().Int()
		return points >= 1 && points <= 1000
	})

	// Due date validation (must be in future when set)
	bv.validate.RegisterValidation("future_date", func(fl validator.FieldLevel) bool {
		field := fl.Field()

		if field.Kind() == reflect.Ptr && field.IsNil() {
			return true // Optional field
		}

		var dueDate time.Time
		if field.Kind() == reflect.Ptr {
			dueDate = field.Elem().Interface().(time.Time)
		} else {
			dueDate = field.Interface().(time.Time)
		}

		return dueDate.After(time.Now())
	})

	// Assignment type validation
	bv.validate.RegisterValidation("assignment_type", func(fl validator.FieldLevel) bool {
		t := models.AssignmentType(fl.Field().String())
		switch t {
		case models.AssignmentHomework, models.AssignmentQuiz, models.AssignmentProject, models.AssignmentExam:
			return true
		}
		return false
	})

}
