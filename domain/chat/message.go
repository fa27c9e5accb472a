package chat

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"
)

// wireDeletedForAll is the value clients historically exchanged to mean
// "deleted for everyone". It only exists at the JSON boundary; in memory the
// Deletion variant carries the distinction.
const wireDeletedForAll = "*"

// Deletion is the visibility mask of a message.
// Either the message is gone for everyone (ForEveryone), or it is hidden from
// the listed viewers only. The zero value means fully visible.
type Deletion struct {
	ForEveryone bool
	Viewers     []string
}

// DeletedForAll builds the terminal variant used in responses after a
// sender-initiated delete.
func DeletedForAll() Deletion {
	return Deletion{ForEveryone: true}
}

// HiddenFrom reports whether the message must be filtered out for viewer.
func (d Deletion) HiddenFrom(viewer string) bool {
	return d.ForEveryone || lo.Contains(d.Viewers, viewer)
}

// Hide masks the message for viewer. Returns false when the viewer was
// already masked, making repeated deletes idempotent.
func (d *Deletion) Hide(viewer string) bool {
	if d.HiddenFrom(viewer) {
		return false
	}
	d.Viewers = append(d.Viewers, viewer)
	return true
}

// MarshalJSON renders the wire form: ["*"] for a global delete, otherwise the
// list of masked viewers.
func (d Deletion) MarshalJSON() ([]byte, error) {
	if d.ForEveryone {
		return json.Marshal([]string{wireDeletedForAll})
	}
	if d.Viewers == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.Viewers)
}

func (d *Deletion) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = Deletion{}
	for _, v := range raw {
		if v == wireDeletedForAll {
			d.ForEveryone = true
			continue
		}
		d.Viewers = append(d.Viewers, v)
	}
	return nil
}

// DirectMessage is a one-to-one message owned by the durable store.
type DirectMessage struct {
	ID         string    `json:"_id,omitempty"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Likes      []string  `json:"likes"`
	DeletedBy  Deletion  `json:"deleted_by"`
}

// GroupMessage carries the same mutation semantics as DirectMessage but is
// scoped to a group. Group messages are never deleted for everyone by a
// non-sender; the sender path removes the record instead.
type GroupMessage struct {
	ID        string    `json:"_id,omitempty"`
	GroupID   string    `json:"group_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Likes     []string  `json:"likes"`
	DeletedBy Deletion  `json:"deleted_by"`
}

// ToggleLike flips actor's membership in a likes list.
func ToggleLike(likes []string, actor string) []string {
	if lo.Contains(likes, actor) {
		return lo.Without(likes, actor)
	}
	return append(likes, actor)
}
