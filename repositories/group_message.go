//go:generate go run go.uber.org/mock/mockgen -source=group_message.go -destination=../mocks/mock_group_message_repository.go -package=mocks
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

type IGroupMessageRepository interface {
	Save(msg chat.GroupMessage) (chat.GroupMessage, error)
	FindByID(id string) (chat.GroupMessage, error)
	Update(msg chat.GroupMessage) error
	Delete(id string) error
	ListForGroup(groupID, viewer string) ([]chat.GroupMessage, error)
}

type GroupMessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewGroupMessageRepository(db *badger.DB, log *slog.Logger) GroupMessageRepository {
	return GroupMessageRepository{db: db, log: log}
}

// Save follows the same layout as direct messages: a chronological primary
// key "gm:{group_id}:{timestamp_padded}:{uuid}" plus a "gmidx:{uuid}" index.
func (g GroupMessageRepository) Save(msg chat.GroupMessage) (chat.GroupMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	primary := groupMessagePrimaryKey(msg)
	value, err := json.Marshal(msg)
	if err != nil {
		return chat.GroupMessage{}, fmt.Errorf("marshal failed: %w", err)
	}
	err = g.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(primary, value); err != nil {
			return err
		}
		return txn.Set(groupMessageIndexKey(msg.ID), primary)
	})
	if err != nil {
		return chat.GroupMessage{}, err
	}
	return msg, nil
}

func (g GroupMessageRepository) FindByID(id string) (chat.GroupMessage, error) {
	var msg chat.GroupMessage
	err := g.db.View(func(txn *badger.Txn) error {
		value, err := resolveIndexed(txn, groupMessageIndexKey(id))
		if err != nil {
			return err
		}
		return json.Unmarshal(value, &msg)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return chat.GroupMessage{}, errors.ErrMessageNotFound
	}
	return msg, err
}

func (g GroupMessageRepository) Update(msg chat.GroupMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	err = g.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(groupMessageIndexKey(msg.ID))
		if err != nil {
			return err
		}
		primary, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return txn.Set(primary, value)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrMessageNotFound
	}
	return err
}

func (g GroupMessageRepository) Delete(id string) error {
	err := g.db.Update(func(txn *badger.Txn) error {
		index := groupMessageIndexKey(id)
		item, err := txn.Get(index)
		if err != nil {
			return err
		}
		primary, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := txn.Delete(primary); err != nil {
			return err
		}
		return txn.Delete(index)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrMessageNotFound
	}
	return err
}

// ListForGroup returns a group's history in chronological order, minus the
// records hidden from the viewer.
func (g GroupMessageRepository) ListForGroup(groupID, viewer string) ([]chat.GroupMessage, error) {
	var messages []chat.GroupMessage
	prefix := []byte(fmt.Sprintf("gm:%s:", groupID))
	err := g.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var msg chat.GroupMessage
				if err := json.Unmarshal(value, &msg); err != nil {
					return err
				}
				if msg.DeletedBy.HiddenFrom(viewer) {
					return nil
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}

func groupMessagePrimaryKey(msg chat.GroupMessage) []byte {
	return []byte(fmt.Sprintf("gm:%s:%019d:%s",
		msg.GroupID,
		msg.Timestamp.UnixNano(),
		msg.ID,
	))
}

func groupMessageIndexKey(id string) []byte {
	return []byte("gmidx:" + id)
}
