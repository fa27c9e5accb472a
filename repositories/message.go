//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
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

type IMessageRepository interface {
	Save(msg chat.DirectMessage) (chat.DirectMessage, error)
	FindByID(id string) (chat.DirectMessage, error)
	Update(msg chat.DirectMessage) error
	Delete(id string) error
	ListBetween(viewer, other string) ([]chat.DirectMessage, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// Save persists a direct message in BadgerDB.
// The primary key is "dm:{pair}:{timestamp_padded}:{uuid}" so a prefix scan
// over a conversation pair yields chronological order for free; the 19-digit
// zero padding keeps lexicographic and numeric order aligned, and the UUID
// disambiguates two messages landing on the same nanosecond.
// A secondary "dmidx:{uuid}" entry points back at the primary key to support
// lookups by id alone.
func (m MessageRepository) Save(msg chat.DirectMessage) (chat.DirectMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	primary := directPrimaryKey(msg)
	value, err := json.Marshal(msg)
	if err != nil {
		return chat.DirectMessage{}, fmt.Errorf("marshal failed: %w", err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(primary, value); err != nil {
			return err
		}
		return txn.Set(directIndexKey(msg.ID), primary)
	})
	if err != nil {
		return chat.DirectMessage{}, err
	}
	return msg, nil
}

func (m MessageRepository) FindByID(id string) (chat.DirectMessage, error) {
	var msg chat.DirectMessage
	err := m.db.View(func(txn *badger.Txn) error {
		value, err := resolveIndexed(txn, directIndexKey(id))
		if err != nil {
			return err
		}
		return json.Unmarshal(value, &msg)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return chat.DirectMessage{}, errors.ErrMessageNotFound
	}
	return msg, err
}

// Update rewrites the stored record in place. The primary key is derived from
// immutable fields, so mutating likes or the deletion mask never moves the key.
func (m MessageRepository) Update(msg chat.DirectMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(directIndexKey(msg.ID))
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

// Delete removes the record and its id index entirely.
func (m MessageRepository) Delete(id string) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		index := directIndexKey(id)
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

// ListBetween returns the conversation between viewer and other in
// chronological order, excluding records the viewer has deleted and records
// deleted for everyone.
func (m MessageRepository) ListBetween(viewer, other string) ([]chat.DirectMessage, error) {
	var messages []chat.DirectMessage
	prefix := []byte(fmt.Sprintf("dm:%s:", pairKey(viewer, other)))
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var msg chat.DirectMessage
				if err := json.Unmarshal(value, &msg); err != nil {
					return err
				}
				// Identities are opaque strings; one containing a key
				// separator can make a foreign pair's record share this
				// prefix. The stored fields decide membership, not the key.
				if !sameConversation(msg, viewer, other) {
					return nil
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

func directPrimaryKey(msg chat.DirectMessage) []byte {
	return []byte(fmt.Sprintf("dm:%s:%019d:%s",
		pairKey(msg.SenderID, msg.ReceiverID),
		msg.Timestamp.UnixNano(),
		msg.ID,
	))
}

func directIndexKey(id string) []byte {
	return []byte("dmidx:" + id)
}

func sameConversation(msg chat.DirectMessage, a, b string) bool {
	return (msg.SenderID == a && msg.ReceiverID == b) ||
		(msg.SenderID == b && msg.ReceiverID == a)
}

// pairKey canonicalizes a conversation pair so both directions share one
// key space.
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// resolveIndexed follows an index entry to its primary record value.
func resolveIndexed(txn *badger.Txn, indexKey []byte) ([]byte, error) {
	item, err := txn.Get(indexKey)
	if err != nil {
		return nil, err
	}
	primary, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	record, err := txn.Get(primary)
	if err != nil {
		return nil, err
	}
	return record.ValueCopy(nil)
}
