package services

import (
	"fmt"

	"chat-relay/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateCommand maps struct validation failures onto the InvalidArgument
// sentinel so the dispatcher can report them as recoverable errors.
func validateCommand(cmd any) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidArgument, err)
	}
	return nil
}
