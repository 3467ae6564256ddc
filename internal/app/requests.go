package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"coding-trivia-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

// RegisterRequest is the registration payload. Every field is required.
type RegisterRequest struct {
	TeamName        string `json:"teamName" validate:"required"`
	ParticipantName string `json:"participantName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required"`
	Language        string `json:"language" validate:"required"`
	Experience      string `json:"experience" validate:"required"`
	TeamType        string `json:"teamType" validate:"required"`
}

// SubmitRequest is the answer submission payload. TimeTaken is optional.
type SubmitRequest struct {
	ParticipantID *int64 `json:"participantId" validate:"required"`
	RoundID       *int64 `json:"roundId" validate:"required"`
	Answer        string `json:"answer" validate:"required"`
	TimeTaken     *int   `json:"timeTaken" validate:"omitempty,min=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so messages match the wire format.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// validateRequest returns an error wrapping domain.ErrValidation naming the offending fields.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			invalid = append(invalid, fe.Field())
		}
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(parts, "; "))
}
