package repositories

import (
	"testing"

	"chat-relay/errors"

	"github.com/stretchr/testify/require"
)

func Test_Create_And_Get_User(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	id, err := repository.CreateUser("alice", "hash", "1234")
	req.NoError(err)
	req.NotEmpty(id)

	user, err := repository.GetUser("alice")
	req.NoError(err)
	req.Equal(id, user.ID)
	req.Equal("hash", user.PasswordHash)
	req.Equal("1234", user.Pin)
}

func Test_Create_Duplicate_User(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.CreateUser("alice", "hash", "1234")
	req.NoError(err)
	_, err = repository.CreateUser("alice", "other", "5678")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func Test_Update_Password_Hash(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	req.ErrorIs(repository.UpdatePasswordHash("ghost", "new"), errors.ErrUserNotFound)

	_, err := repository.CreateUser("alice", "old", "1234")
	req.NoError(err)
	req.NoError(repository.UpdatePasswordHash("alice", "new"))

	user, err := repository.GetUser("alice")
	req.NoError(err)
	req.Equal("new", user.PasswordHash)
	req.Equal("1234", user.Pin)
}

func Test_List_Usernames(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	for _, username := range []string{"carol", "alice", "bob"} {
		_, err := repository.CreateUser(username, "hash", "1234")
		req.NoError(err)
	}

	usernames, err := repository.ListUsernames()
	req.NoError(err)
	req.Equal([]string{"alice", "bob", "carol"}, usernames)
}
