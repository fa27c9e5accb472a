package repositories

import (
	"log/slog"
	"testing"
	"time"

	"chat-relay/domain/chat"
	"chat-relay/errors"

	"github.com/stretchr/testify/require"
)

func Test_Save_And_Find_Group(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openTestDB(t), slog.Default())

	saved, err := repository.Save(chat.Group{
		Name:      "Project Team",
		Members:   []string{"alice", "bob"},
		Admins:    []string{"alice"},
		Banned:    []string{},
		CreatedAt: time.Now().UTC(),
	})
	req.NoError(err)
	req.NotEmpty(saved.ID)

	fetched, err := repository.FindByID(saved.ID)
	req.NoError(err)
	req.Equal("Project Team", fetched.Name)
	req.Equal([]string{"alice", "bob"}, fetched.Members)
}

func Test_Find_Missing_Group(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openTestDB(t), slog.Default())

	_, err := repository.FindByID("g-missing")
	req.ErrorIs(err, errors.ErrGroupNotFound)

	err = repository.Update(chat.Group{ID: "g-missing", Name: "ghost"})
	req.ErrorIs(err, errors.ErrGroupNotFound)
}

func Test_Update_Group_Replaces_Document(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openTestDB(t), slog.Default())

	saved, err := repository.Save(chat.Group{
		Name: "team", Members: []string{"alice"}, Admins: []string{"alice"}, Banned: []string{}, CreatedAt: time.Now().UTC(),
	})
	req.NoError(err)

	saved.Members = append(saved.Members, "bob")
	req.NoError(repository.Update(saved))

	fetched, err := repository.FindByID(saved.ID)
	req.NoError(err)
	req.Equal([]string{"alice", "bob"}, fetched.Members)
}

func Test_List_Groups_For_Member(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openTestDB(t), slog.Default())

	for _, group := range []chat.Group{
		{Name: "a", Members: []string{"alice", "bob"}, Admins: []string{"alice"}, Banned: []string{}},
		{Name: "b", Members: []string{"alice"}, Admins: []string{"alice"}, Banned: []string{}},
		{Name: "c", Members: []string{"carol"}, Admins: []string{"carol"}, Banned: []string{}},
	} {
		group.CreatedAt = time.Now().UTC()
		_, err := repository.Save(group)
		req.NoError(err)
	}

	groups, err := repository.ListForMember("alice")
	req.NoError(err)
	req.Len(groups, 2)

	groups, err = repository.ListForMember("dave")
	req.NoError(err)
	req.Empty(groups)
}
