//go:generate go run go.uber.org/mock/mockgen -source=group.go -destination=../mocks/mock_group_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	stderrors "errors"

	"chat-relay/domain/chat"
	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IGroupRepository interface {
	Save(group chat.Group) (chat.Group, error)
	FindByID(id string) (chat.Group, error)
	Update(group chat.Group) error
	ListForMember(identity string) ([]chat.Group, error)
}

type GroupRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewGroupRepository(db *badger.DB, log *slog.Logger) GroupRepository {
	return GroupRepository{db: db, log: log}
}

// Save persists a group document under "group:{id}", assigning an id when the
// caller did not provide one.
func (g GroupRepository) Save(group chat.Group) (chat.Group, error) {
	if group.ID == "" {
		group.ID = "g" + uuid.NewString()
	}
	value, err := json.Marshal(group)
	if err != nil {
		return chat.Group{}, fmt.Errorf("marshal failed: %w", err)
	}
	err = g.db.Update(func(txn *badger.Txn) error {
		return txn.Set(groupKey(group.ID), value)
	})
	if err != nil {
		return chat.Group{}, err
	}
	return group, nil
}

func (g GroupRepository) FindByID(id string) (chat.Group, error) {
	var group chat.Group
	err := g.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(groupKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &group)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return chat.Group{}, errors.ErrGroupNotFound
	}
	return group, err
}

// Update replaces the whole document. Badger gives per-key atomicity, which is
// the unit of consistency group transitions rely on; two racing transitions
// resolve last-write-wins at the document level.
func (g GroupRepository) Update(group chat.Group) error {
	value, err := json.Marshal(group)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	err = g.db.Update(func(txn *badger.Txn) error {
		key := groupKey(group.ID)
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Set(key, value)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrGroupNotFound
	}
	return err
}

// ListForMember scans all group documents and keeps the ones the identity
// belongs to. Group cardinality is small enough that a full prefix scan beats
// maintaining a membership index.
func (g GroupRepository) ListForMember(identity string) ([]chat.Group, error) {
	var groups []chat.Group
	prefix := []byte("group:")
	err := g.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var group chat.Group
				if err := json.Unmarshal(value, &group); err != nil {
					return err
				}
				if group.IsMember(identity) {
					groups = append(groups, group)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return groups, err
}

func groupKey(id string) []byte {
	return []byte("group:" + id)
}
