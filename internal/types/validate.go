package types

import (
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("notblank", validators.NotBlank)
	})
	return validate
}

// Validate rejects a job record whose role is empty or whitespace.
func (j JobRecord) Validate() error {
	return getValidator().Struct(j)
}

// Validate checks the match request body.
func (r MatchRequest) Validate() error {
	return getValidator().Struct(r)
}

// Validate checks the skills request body.
func (r SkillsRequest) Validate() error {
	return getValidator().Struct(r)
}
