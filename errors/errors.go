package errors

import "fmt"

var (
	ErrMessageNotFound    = fmt.Errorf("message not found")
	ErrGroupNotFound      = fmt.Errorf("group not found")
	ErrMessageDeleted     = fmt.Errorf("cannot like deleted message")
	ErrNotAdmin           = fmt.Errorf("only admins can perform this action")
	ErrNotAMember         = fmt.Errorf("not a group member")
	ErrLastAdminAndMember = fmt.Errorf("cannot leave as the last admin and member")
	ErrInvalidArgument    = fmt.Errorf("invalid argument")

	ErrUserAlreadyExists  = fmt.Errorf("username already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPin         = fmt.Errorf("invalid pin")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)
