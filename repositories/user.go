//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	stderrors "errors"

	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	CreateUser(username, passwordHash, pin string) (string, error)
	GetUser(username string) (User, error)
	UpdatePasswordHash(username, passwordHash string) error
	ListUsernames() ([]string, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is the credential document kept under "user:{username}". The PIN is the
// out-of-band secret for password resets.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Pin          string    `json:"pin"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUser persists a new user and returns the generated id.
// The username must already be normalized by the caller.
func (u UserRepository) CreateUser(username, passwordHash, pin string) (string, error) {
	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		Pin:          pin,
		CreatedAt:    time.Now().UTC(),
	}
	value, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}
	err = u.db.Update(func(txn *badger.Txn) error {
		key := userKey(username)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, value)
	})
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (u UserRepository) GetUser(username string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &user)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return User{}, errors.ErrUserNotFound
	}
	return user, err
}

func (u UserRepository) UpdatePasswordHash(username, passwordHash string) error {
	return u.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		var user User
		if err := item.Value(func(value []byte) error {
			return json.Unmarshal(value, &user)
		}); err != nil {
			return err
		}
		user.PasswordHash = passwordHash
		value, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return txn.Set(userKey(username), value)
	})
}

// ListUsernames returns every registered handle in key order.
func (u UserRepository) ListUsernames() ([]string, error) {
	var usernames []string
	prefix := []byte("user:")
	err := u.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			usernames = append(usernames, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return usernames, err
}

func userKey(username string) []byte {
	return []byte("user:" + username)
}
