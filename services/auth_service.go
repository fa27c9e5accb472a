package services

import (
	"fmt"
	"log/slog"

	stderrors "errors"

	"chat-relay/auth"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/repositories"
)

type IAuthService interface {
	Register(username, password, pin string) (string, error)
	Login(username, password string) (Token, string, error)
	ResetPassword(username, pin, newPassword string) error
	VerifyToken(token string) (string, bool)
	Usernames() ([]string, error)
}

type Token string

// AuthService owns credential issuance and verification. The dispatch engine
// only consumes VerifyToken; the rest backs the HTTP auth surface.
type AuthService struct {
	users  repositories.IUserRepository
	tokens auth.TokenManager
	log    *slog.Logger
}

func NewAuthService(users repositories.IUserRepository, tokens auth.TokenManager, log *slog.Logger) IAuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

// Register validates, hashes and persists new credentials and returns the new
// user id.
func (s *AuthService) Register(username, password, pin string) (string, error) {
	username = chat.NormalizeIdentity(username)
	req := auth.RegisterRequest{
		Username: username,
		Password: password,
		Pin:      pin,
	}
	if err := auth.ValidateRegister(req); err != nil {
		if stderrors.Is(err, errors.ErrInvalidPassword) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidArgument, err)
	}

	// Hash before touching storage so the repository never sees a plain password.
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.users.CreateUser(username, hashed, pin)
	if err != nil {
		return "", err
	}
	s.log.Info("user registered", "username", username)
	return userID, nil
}

// Login checks the credentials and mints a bearer token bound to the
// normalized identity. Lookup and comparison failures collapse into one
// generic error to prevent user enumeration.
func (s *AuthService) Login(username, password string) (Token, string, error) {
	username = chat.NormalizeIdentity(username)
	user, err := s.users.GetUser(username)
	if err != nil {
		return "", "", errors.ErrInvalidCredentials
	}
	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", "", errors.ErrInvalidCredentials
	}
	token, err := s.tokens.Generate(username)
	if err != nil {
		return "", "", errors.ErrTokenGeneration
	}
	return Token(token), username, nil
}

// ResetPassword replaces the stored hash after the PIN check passes.
func (s *AuthService) ResetPassword(username, pin, newPassword string) error {
	username = chat.NormalizeIdentity(username)
	user, err := s.users.GetUser(username)
	if err != nil {
		return err
	}
	if user.Pin != pin {
		return errors.ErrInvalidPin
	}
	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing failed: %w", err)
	}
	if err := s.users.UpdatePasswordHash(username, hashed); err != nil {
		return err
	}
	s.log.Info("password reset", "username", username)
	return nil
}

// VerifyToken is the handshake collaborator: pure verification, no side
// effects, returning the normalized identity the token belongs to.
func (s *AuthService) VerifyToken(token string) (string, bool) {
	return s.tokens.Verify(token)
}

func (s *AuthService) Usernames() ([]string, error) {
	return s.users.ListUsernames()
}
