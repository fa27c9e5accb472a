package auth

import (
	"unicode"

	"chat-relay/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RegisterRequest is validated before any credential work happens.
// The PIN is a short numeric secret used for out-of-band password resets.
type RegisterRequest struct {
	Username string `validate:"required,min=2,max=32"`
	Password string `validate:"required,min=8,max=72"`
	Pin      string `validate:"required,numeric,len=4"`
}

func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}

	if !isPasswordComplex(req.Password) {
		return errors.ErrInvalidPassword
	}
	return nil
}

func isPasswordComplex(s string) bool {
	var (
		hasUpper   = false
		hasLower   = false
		hasNumber  = false
		hasSpecial = false
	)
	for _, char := range s {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}
